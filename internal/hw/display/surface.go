// Package display composites rectangular image overlays above the live
// camera preview.
//
// The camera renderer works in 32x16 pixel blocks, so every overlay is
// padded to a width that is a multiple of 32 and a height that is a multiple
// of 16 before it is handed to a surface. The original image size is kept
// so the padding is never shown.
package display

import (
	"fmt"
	"image"
	"image/draw"
	"os"

	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

// Block alignment required by the camera renderer.
const (
	BlockWidth  = 32
	BlockHeight = 16
)

// Handle identifies a live overlay on a Surface.
type Handle uint64

// NoOverlay is the sentinel "no overlay" handle. Surfaces never return it
// for a live overlay.
const NoOverlay Handle = 0

// Surface renders the live video feed and overlays in z-order.
type Surface interface {
	// AddOverlay shows img above everything on a lower layer. Overlays on
	// the same layer stack in creation order. New overlays are fully opaque.
	AddOverlay(img image.Image, layer int) (Handle, error)
	// SetAlpha changes the transparency of a live overlay (0 = invisible).
	SetAlpha(h Handle, alpha uint8) error
	// RemoveOverlay deletes a live overlay.
	RemoveOverlay(h Handle) error
	Close() error
}

// Padded is an overlay image aligned to the renderer block size.
type Padded struct {
	*image.RGBA
	// Size is the size of the source image; pixels beyond it are padding.
	Size image.Point
}

// Visible returns the part of the padded image that holds the source pixels.
func (p Padded) Visible() image.Rectangle {
	return image.Rectangle{Max: p.Size}
}

// Pad copies img into an RGBA buffer whose dimensions are rounded up to the
// block size.
func Pad(img image.Image) Padded {
	b := img.Bounds()
	w := ((b.Dx() + BlockWidth - 1) / BlockWidth) * BlockWidth
	h := ((b.Dy() + BlockHeight - 1) / BlockHeight) * BlockHeight
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(dst, b.Sub(b.Min), img, b.Min, draw.Src)
	return Padded{RGBA: dst, Size: b.Size()}
}

// LoadImage decodes an image file (png, jpeg, bmp or webp).
func LoadImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open image: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode image %s: %w", path, err)
	}
	return img, nil
}
