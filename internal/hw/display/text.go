package display

import (
	"image"
	"image/color"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// RenderText draws text in white on a transparent background. size is the
// requested glyph height in pixels; the bitmap font is scaled up by whole
// multiples so digits stay crisp.
func RenderText(text string, size int) image.Image {
	face := basicfont.Face7x13
	metrics := face.Metrics()
	lineHeight := (metrics.Ascent + metrics.Descent).Ceil()

	width := font.MeasureString(face, text).Ceil()
	if width == 0 {
		width = 1
	}
	src := image.NewRGBA(image.Rect(0, 0, width, lineHeight))
	d := &font.Drawer{
		Dst:  src,
		Src:  image.NewUniform(color.White),
		Face: face,
		Dot:  fixed.P(0, metrics.Ascent.Ceil()),
	}
	d.DrawString(text)

	scale := size / lineHeight
	if scale <= 1 {
		return src
	}
	dst := image.NewRGBA(image.Rect(0, 0, width*scale, lineHeight*scale))
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	return dst
}
