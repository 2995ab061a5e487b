package media

import (
	"image"
	"image/draw"
	"math"

	xdraw "golang.org/x/image/draw"

	"github.com/pkg/errors"
)

// Interpolation used for all rescaling; Catmull-Rom is a bicubic kernel.
var interpolator = xdraw.CatmullRom

// Converter rescales decoded pictures of a fixed source geometry into RGB
// images of a fixed target geometry. It is built once per stream.
type Converter struct {
	src, dst image.Rectangle

	scaler xdraw.Scaler

	// Intermediate RGBA picture, reused across frames.
	rgba *image.RGBA
}

// NewConverter prepares a converter from srcW x srcH pictures to dstW x dstH
// RGB images.
func NewConverter(srcW, srcH, dstW, dstH int) (*Converter, error) {
	if srcW <= 0 || srcH <= 0 {
		return nil, errors.Errorf("media: invalid source geometry %dx%d", srcW, srcH)
	}
	if dstW <= 0 || dstH <= 0 {
		return nil, errors.Errorf("media: invalid target geometry %dx%d", dstW, dstH)
	}
	c := &Converter{
		src:  image.Rect(0, 0, srcW, srcH),
		dst:  image.Rect(0, 0, dstW, dstH),
		rgba: image.NewRGBA(image.Rect(0, 0, dstW, dstH)),
	}
	c.scaler = interpolator.NewScaler(dstW, dstH, srcW, srcH)
	return c, nil
}

// Target returns the output bounds.
func (c *Converter) Target() image.Rectangle {
	return c.dst
}

// Convert rescales src into a newly allocated RGB image of the target size.
// The result shares no memory with src or the converter.
func (c *Converter) Convert(src image.Image) *RGB {
	sr := src.Bounds()
	if sr.Size() == c.src.Size() {
		c.scaler.Scale(c.rgba, c.dst, src, sr, xdraw.Src, nil)
	} else {
		// The decoder changed resolution mid-stream.
		log.Trace(5, "rescaling unexpected %v picture", sr.Size())
		interpolator.Scale(c.rgba, c.dst, src, sr, xdraw.Src, nil)
	}
	out := NewRGB(c.dst)
	copyRGBA(out, c.rgba)
	return out
}

// Close drops the converter's buffers.
func (c *Converter) Close() error {
	c.rgba = nil
	c.scaler = nil
	return nil
}

// copyRGBA packs src into dst row by row; the two strides differ.
func copyRGBA(dst *RGB, src *image.RGBA) {
	w, h := dst.Rect.Dx(), dst.Rect.Dy()
	for y := 0; y < h; y++ {
		s := src.Pix[y*src.Stride : y*src.Stride+4*w]
		d := dst.Pix[y*dst.Stride : y*dst.Stride+3*w]
		for x := 0; x < w; x++ {
			d[3*x] = s[4*x]
			d[3*x+1] = s[4*x+1]
			d[3*x+2] = s[4*x+2]
		}
	}
}

// ScaleToWidth rescales img to the given width, preserving its aspect ratio.
func ScaleToWidth(img image.Image, width int) *RGB {
	sr := img.Bounds()
	if width <= 0 || sr.Empty() {
		return NewRGB(image.Rect(0, 0, 0, 0))
	}
	height := int(math.Round(float64(sr.Dy()) * float64(width) / float64(sr.Dx())))
	if height < 1 {
		height = 1
	}
	dr := image.Rect(0, 0, width, height)
	rgba := image.NewRGBA(dr)
	if sr.Size() == dr.Size() {
		draw.Draw(rgba, dr, img, sr.Min, draw.Src)
	} else {
		interpolator.Scale(rgba, dr, img, sr, xdraw.Src, nil)
	}
	out := NewRGB(dr)
	copyRGBA(out, rgba)
	return out
}
