package media

import (
	"image"
	"image/color"
)

// RGB is an in-memory image of packed 8-bit red, green and blue samples,
// 3 bytes per pixel. Rows are Stride bytes apart; Stride is padded to a
// multiple of 4 bytes.
type RGB struct {
	Pix    []uint8
	Stride int
	Rect   image.Rectangle
}

// RGBStride returns the padded row length for an image of the given width.
func RGBStride(width int) int {
	return (3*width + 3) &^ 3
}

// NewRGB returns a black RGB image with the given bounds.
func NewRGB(r image.Rectangle) *RGB {
	stride := RGBStride(r.Dx())
	return &RGB{
		Pix:    make([]uint8, stride*r.Dy()),
		Stride: stride,
		Rect:   r,
	}
}

func (p *RGB) ColorModel() color.Model { return color.RGBAModel }

func (p *RGB) Bounds() image.Rectangle { return p.Rect }

func (p *RGB) At(x, y int) color.Color {
	if !(image.Point{x, y}.In(p.Rect)) {
		return color.RGBA{}
	}
	i := p.PixOffset(x, y)
	return color.RGBA{p.Pix[i], p.Pix[i+1], p.Pix[i+2], 0xff}
}

func (p *RGB) Set(x, y int, c color.Color) {
	if !(image.Point{x, y}.In(p.Rect)) {
		return
	}
	i := p.PixOffset(x, y)
	rgba := color.RGBAModel.Convert(c).(color.RGBA)
	p.Pix[i], p.Pix[i+1], p.Pix[i+2] = rgba.R, rgba.G, rgba.B
}

// PixOffset returns the index of the first byte of the pixel at (x, y).
func (p *RGB) PixOffset(x, y int) int {
	return (y-p.Rect.Min.Y)*p.Stride + (x-p.Rect.Min.X)*3
}

// Row returns the packed samples of row y, without padding.
func (p *RGB) Row(y int) []uint8 {
	i := (y - p.Rect.Min.Y) * p.Stride
	return p.Pix[i : i+3*p.Rect.Dx()]
}

// Clone returns a deep copy of p.
func (p *RGB) Clone() *RGB {
	return &RGB{
		Pix:    append([]uint8(nil), p.Pix...),
		Stride: p.Stride,
		Rect:   p.Rect,
	}
}
