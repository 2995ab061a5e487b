package media

import (
	"image"
	"image/color"
	"image/draw"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func uniform(w, h int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(c), image.Point{}, draw.Src)
	return img
}

func TestRGBStride(t *testing.T) {
	assert.Equal(t, 1920, RGBStride(640))
	assert.Equal(t, 4, RGBStride(1))
	assert.Equal(t, 8, RGBStride(2))
	assert.Equal(t, 12, RGBStride(3))
	assert.Equal(t, 0, RGBStride(0))
}

func TestNewConverterRejectsBadGeometry(t *testing.T) {
	_, err := NewConverter(0, 480, 640, 480)
	assert.Error(t, err)
	_, err = NewConverter(640, 480, 640, -1)
	assert.Error(t, err)
}

func TestConvertOutputGeometry(t *testing.T) {
	c, err := NewConverter(720, 1280, 5, 7)
	require.NoError(t, err)
	defer c.Close()

	out := c.Convert(uniform(720, 1280, color.RGBA{10, 20, 30, 255}))
	assert.Equal(t, image.Rect(0, 0, 5, 7), out.Bounds())
	assert.Equal(t, 16, out.Stride)
	assert.Len(t, out.Pix, 16*7)

	for y := 0; y < 7; y++ {
		row := out.Row(y)
		for x := 0; x < 5; x++ {
			assert.Equal(t, []uint8{10, 20, 30}, row[3*x:3*x+3], "pixel %d,%d", x, y)
		}
		// Padding stays zero.
		assert.Equal(t, uint8(0), out.Pix[y*out.Stride+15])
	}
}

func TestConvertReturnsIndependentImages(t *testing.T) {
	c, err := NewConverter(4, 4, 4, 4)
	require.NoError(t, err)

	red := c.Convert(uniform(4, 4, color.RGBA{255, 0, 0, 255}))
	blue := c.Convert(uniform(4, 4, color.RGBA{0, 0, 255, 255}))
	assert.Equal(t, color.RGBA{255, 0, 0, 255}, red.At(1, 1))
	assert.Equal(t, color.RGBA{0, 0, 255, 255}, blue.At(1, 1))
}

func TestConvertUnexpectedSourceSize(t *testing.T) {
	c, err := NewConverter(640, 480, 32, 24)
	require.NoError(t, err)

	out := c.Convert(uniform(320, 240, color.White))
	assert.Equal(t, image.Rect(0, 0, 32, 24), out.Bounds())
	assert.Equal(t, color.RGBA{255, 255, 255, 255}, out.At(16, 12))
}

func TestScaleToWidth(t *testing.T) {
	out := ScaleToWidth(uniform(1080, 1920, color.Black), 540)
	assert.Equal(t, image.Rect(0, 0, 540, 960), out.Bounds())
	assert.Equal(t, RGBStride(540), out.Stride)

	same := ScaleToWidth(uniform(8, 6, color.RGBA{1, 2, 3, 255}), 8)
	assert.Equal(t, image.Rect(0, 0, 8, 6), same.Bounds())
	assert.Equal(t, color.RGBA{1, 2, 3, 255}, same.At(7, 5))
}

func TestRGBSetAt(t *testing.T) {
	img := NewRGB(image.Rect(0, 0, 3, 2))
	img.Set(2, 1, color.RGBA{7, 8, 9, 255})
	assert.Equal(t, color.RGBA{7, 8, 9, 255}, img.At(2, 1))
	assert.Equal(t, color.RGBA{0, 0, 0, 255}, img.At(0, 0))
	assert.Equal(t, color.RGBA{}, img.At(5, 5))

	clone := img.Clone()
	clone.Set(2, 1, color.Black)
	assert.Equal(t, color.RGBA{7, 8, 9, 255}, img.At(2, 1))
}
