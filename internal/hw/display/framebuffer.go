package display

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"os"
	"sort"

	"github.com/cjeanneret/GoBooth/internal/debug"
	"golang.org/x/image/draw"
)

// ErrUnsupportedFormat is returned for framebuffers whose pixel layout the
// compositor cannot write.
var ErrUnsupportedFormat = errors.New("unsupported framebuffer format")

// Mode is the geometry and pixel layout reported by a framebuffer device.
type Mode struct {
	Width, Height int
	BitsPerPixel  int
	LineLength    int // bytes per row, padding included
	RedOffset     int // bit offsets inside a pixel
	BlueOffset    int
}

func (m Mode) validate() error {
	if m.Width <= 0 || m.Height <= 0 {
		return fmt.Errorf("invalid framebuffer size %dx%d", m.Width, m.Height)
	}
	if m.BitsPerPixel != 32 {
		return fmt.Errorf("%w: %d bits per pixel, want 32", ErrUnsupportedFormat, m.BitsPerPixel)
	}
	if m.LineLength < m.Width*4 {
		return fmt.Errorf("%w: line length %d for width %d", ErrUnsupportedFormat, m.LineLength, m.Width)
	}
	switch {
	case m.RedOffset == 16 && m.BlueOffset == 0:
	case m.RedOffset == 0 && m.BlueOffset == 16:
	default:
		return fmt.Errorf("%w: red at bit %d, blue at bit %d", ErrUnsupportedFormat, m.RedOffset, m.BlueOffset)
	}
	return nil
}

type fbEntry struct {
	handle Handle
	img    Padded
	layer  int
	alpha  uint8
}

// Framebuffer composites overlays onto a 32bpp Linux framebuffer (e.g.
// /dev/fb0) that sits above the camera preview plane. Every overlay is
// scaled to the full screen, like the camera's own fullscreen overlays.
// Transparent pixels leave the preview visible.
type Framebuffer struct {
	dev     *os.File
	mode    Mode
	canvas  *image.RGBA
	frame   []byte
	next    Handle
	entries map[Handle]*fbEntry
}

// OpenFramebuffer opens device and reads its mode. width and height are the
// expected screen size; the device geometry wins when they differ.
func OpenFramebuffer(device string, width, height int) (*Framebuffer, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid framebuffer size %dx%d", width, height)
	}
	f, err := os.OpenFile(device, os.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("open framebuffer: %w", err)
	}
	mode, err := queryMode(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("query framebuffer %s: %w", device, err)
	}
	if mode.Width != width || mode.Height != height {
		debug.Live("Framebuffer %s is %dx%d, configured %dx%d", device, mode.Width, mode.Height, width, height)
	}
	fb, err := newFramebuffer(f, mode)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("framebuffer %s: %w", device, err)
	}
	debug.Verbose("Framebuffer %s opened (%dx%d, %d bytes per line)", device, mode.Width, mode.Height, mode.LineLength)
	return fb, nil
}

func newFramebuffer(dev *os.File, mode Mode) (*Framebuffer, error) {
	if err := mode.validate(); err != nil {
		return nil, err
	}
	fb := &Framebuffer{
		dev:     dev,
		mode:    mode,
		canvas:  image.NewRGBA(image.Rect(0, 0, mode.Width, mode.Height)),
		frame:   make([]byte, mode.LineLength*mode.Height),
		entries: make(map[Handle]*fbEntry),
	}
	if err := fb.flush(); err != nil {
		return nil, err
	}
	return fb, nil
}

func (fb *Framebuffer) AddOverlay(img image.Image, layer int) (Handle, error) {
	if fb.dev == nil {
		return NoOverlay, errors.New("framebuffer is closed")
	}
	fb.next++
	h := fb.next
	fb.entries[h] = &fbEntry{handle: h, img: Pad(img), layer: layer, alpha: 255}
	return h, fb.flush()
}

func (fb *Framebuffer) SetAlpha(h Handle, alpha uint8) error {
	e, ok := fb.entries[h]
	if !ok {
		return fmt.Errorf("set alpha on %d: %w", h, ErrUnknownOverlay)
	}
	if e.alpha == alpha {
		return nil
	}
	e.alpha = alpha
	return fb.flush()
}

func (fb *Framebuffer) RemoveOverlay(h Handle) error {
	if _, ok := fb.entries[h]; !ok {
		return fmt.Errorf("remove %d: %w", h, ErrUnknownOverlay)
	}
	delete(fb.entries, h)
	return fb.flush()
}

// compose redraws every visible overlay bottom to top.
func (fb *Framebuffer) compose() {
	draw.Draw(fb.canvas, fb.canvas.Bounds(), image.Transparent, image.Point{}, draw.Src)

	entries := make([]*fbEntry, 0, len(fb.entries))
	for _, e := range fb.entries {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].layer != entries[j].layer {
			return entries[i].layer < entries[j].layer
		}
		return entries[i].handle < entries[j].handle
	})

	for _, e := range entries {
		if e.alpha == 0 {
			continue
		}
		var mask image.Image
		if e.alpha < 255 {
			mask = image.NewUniform(color.Alpha{A: e.alpha})
		}
		if e.img.Size == fb.canvas.Bounds().Size() {
			draw.DrawMask(fb.canvas, fb.canvas.Bounds(), e.img, image.Point{}, mask, image.Point{}, draw.Over)
			continue
		}
		var opts *draw.Options
		if mask != nil {
			opts = &draw.Options{SrcMask: mask}
		}
		draw.ApproxBiLinear.Scale(fb.canvas, fb.canvas.Bounds(), e.img, e.img.Visible(), draw.Over, opts)
	}
}

func (fb *Framebuffer) flush() error {
	fb.compose()
	r, b := 2, 0
	if fb.mode.RedOffset == 0 {
		r, b = 0, 2
	}
	pix, stride := fb.canvas.Pix, fb.canvas.Stride
	for y := 0; y < fb.mode.Height; y++ {
		src := pix[y*stride : y*stride+fb.mode.Width*4]
		dst := fb.frame[y*fb.mode.LineLength:]
		for i := 0; i < len(src); i += 4 {
			dst[i+r] = src[i+0]
			dst[i+1] = src[i+1]
			dst[i+b] = src[i+2]
			dst[i+3] = src[i+3]
		}
	}
	if _, err := fb.dev.WriteAt(fb.frame, 0); err != nil {
		return fmt.Errorf("write framebuffer: %w", err)
	}
	return nil
}

// Close blanks the screen and releases the device.
func (fb *Framebuffer) Close() error {
	if fb.dev == nil {
		return nil
	}
	fb.entries = make(map[Handle]*fbEntry)
	flushErr := fb.flush()
	err := fb.dev.Close()
	fb.dev = nil
	if err != nil {
		return err
	}
	return flushErr
}
