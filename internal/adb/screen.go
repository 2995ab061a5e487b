package adb

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"strings"

	errors "golang.org/x/xerrors"
)

// Pixel formats reported in the raw screencap header (android PixelFormat).
const (
	pixelFormatRGBA8888 = 1
	pixelFormatRGBX8888 = 2
	pixelFormatRGB888   = 3
	pixelFormatRGB565   = 4
	pixelFormatBGRA8888 = 5
)

// FetchScreenRaw takes a screenshot in the device's framebuffer format.
func (c *Client) FetchScreenRaw() (image.Image, error) {
	out, err := c.run("screencap")
	if err != nil {
		return nil, err
	}
	return parseRawScreencap(out)
}

// FetchScreenJPEG takes a JPEG screenshot. It is the fastest to transfer.
func (c *Client) FetchScreenJPEG() (image.Image, error) {
	out, err := c.run("screencap -j")
	if err != nil {
		return nil, err
	}
	img, err := jpeg.Decode(bytes.NewReader(out))
	if err != nil {
		return nil, errors.Errorf("adb: decoding JPEG screenshot: %w", err)
	}
	return img, nil
}

// FetchScreenPNG takes a lossless PNG screenshot.
func (c *Client) FetchScreenPNG() (image.Image, error) {
	out, err := c.run("screencap -p")
	if err != nil {
		return nil, err
	}
	img, err := png.Decode(bytes.NewReader(out))
	if err != nil {
		return nil, errors.Errorf("adb: decoding PNG screenshot: %w", err)
	}
	return img, nil
}

// IsScreenAwake asks the power manager whether the display is on. Errors
// count as asleep.
func (c *Client) IsScreenAwake() bool {
	out, err := c.run("dumpsys power")
	if err != nil {
		log.Debug("dumpsys power: %v", err)
		return false
	}
	return screenAwake(string(out))
}

func screenAwake(dumpsys string) bool {
	return strings.Contains(dumpsys, "mWakefulness=Awake") ||
		strings.Contains(dumpsys, "Display Power: state=ON") ||
		strings.Contains(dumpsys, "mScreenOn=true")
}

// parseRawScreencap decodes the output of a plain screencap: width, height
// and pixel format as little-endian 32-bit words, followed by a color space
// word on newer releases, then the pixels.
func parseRawScreencap(out []byte) (image.Image, error) {
	if len(out) < 12 {
		return nil, errors.Errorf("adb: raw screenshot too short (%d bytes)", len(out))
	}
	w := int(binary.LittleEndian.Uint32(out[0:]))
	h := int(binary.LittleEndian.Uint32(out[4:]))
	format := binary.LittleEndian.Uint32(out[8:])

	bpp := 4
	switch format {
	case pixelFormatRGBA8888, pixelFormatRGBX8888, pixelFormatBGRA8888:
	case pixelFormatRGB888:
		bpp = 3
	case pixelFormatRGB565:
		bpp = 2
	default:
		return nil, errors.Errorf("adb: unsupported pixel format %d", format)
	}
	if w <= 0 || h <= 0 || w > 1<<14 || h > 1<<14 {
		return nil, errors.Errorf("adb: bad screenshot size %dx%d", w, h)
	}

	size := w * h * bpp
	var pix []byte
	switch {
	case len(out) >= 16+size:
		pix = out[16 : 16+size]
	case len(out) >= 12+size:
		pix = out[12 : 12+size]
	default:
		return nil, errors.Errorf("adb: raw screenshot truncated: %d bytes for %dx%d", len(out), w, h)
	}

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	switch format {
	case pixelFormatRGBA8888:
		// Straight alpha; the framebuffer is opaque in practice.
		for i, j := 0, 0; i < len(pix); i, j = i+4, j+4 {
			c := color.NRGBA{pix[i], pix[i+1], pix[i+2], pix[i+3]}
			r, g, b, a := c.RGBA()
			img.Pix[j], img.Pix[j+1], img.Pix[j+2], img.Pix[j+3] = uint8(r>>8), uint8(g>>8), uint8(b>>8), uint8(a>>8)
		}
	case pixelFormatRGBX8888:
		for i := 0; i < len(pix); i += 4 {
			img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = pix[i], pix[i+1], pix[i+2], 0xff
		}
	case pixelFormatBGRA8888:
		for i := 0; i < len(pix); i += 4 {
			img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = pix[i+2], pix[i+1], pix[i], 0xff
		}
	case pixelFormatRGB888:
		for i, j := 0, 0; i < len(pix); i, j = i+3, j+4 {
			img.Pix[j], img.Pix[j+1], img.Pix[j+2], img.Pix[j+3] = pix[i], pix[i+1], pix[i+2], 0xff
		}
	case pixelFormatRGB565:
		for i, j := 0, 0; i < len(pix); i, j = i+2, j+4 {
			v := binary.LittleEndian.Uint16(pix[i:])
			r, g, b := uint8(v>>11), uint8(v>>5&0x3f), uint8(v&0x1f)
			img.Pix[j], img.Pix[j+1], img.Pix[j+2], img.Pix[j+3] = r<<3|r>>2, g<<2|g>>4, b<<3|b>>2, 0xff
		}
	}
	return img, nil
}
