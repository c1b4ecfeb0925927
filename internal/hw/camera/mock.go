package camera

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/cjeanneret/GoBooth/internal/debug"
)

// Mock is a camera for development on PC. Capture writes a flat grey
// image of the configured size so playback has real files to show.
type Mock struct {
	Settings Settings

	Previewing bool
	Captured   []string
	Closed     bool
}

// NewMock creates a mock camera.
func NewMock(s Settings) *Mock {
	debug.Info("Using MOCK camera (development mode)")
	return &Mock{Settings: s}
}

func (m *Mock) StartPreview() error {
	if m.Closed {
		return errors.New("camera is closed")
	}
	m.Previewing = true
	return nil
}

func (m *Mock) StopPreview() error {
	m.Previewing = false
	return nil
}

func (m *Mock) Capture(path string) error {
	if m.Closed {
		return errors.New("camera is closed")
	}
	w, h := m.Settings.Width, m.Settings.Height
	if w <= 0 || h <= 0 {
		w, h = 64, 48
	}
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	shade := uint8(0x40 + 0x20*(len(m.Captured)%6))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.RGBA{shade, shade, shade, 0xff}), image.Point{}, draw.Src)

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if strings.EqualFold(filepath.Ext(path), ".png") {
		err = png.Encode(f, img)
	} else {
		err = jpeg.Encode(f, img, &jpeg.Options{Quality: 80})
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}

	if quarterTurn(m.Settings.Rotation) {
		if err := rotateFile(path, m.Settings.Rotation); err != nil {
			return err
		}
	}

	m.Captured = append(m.Captured, path)
	debug.Verbose("Camera (mock): wrote %s", path)
	return nil
}

func (m *Mock) Close() error {
	m.Previewing = false
	m.Closed = true
	return nil
}
