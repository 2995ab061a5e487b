package alohacast

import (
	"image"
	"image/color"
	"io"
	"sync"

	"github.com/nareix/joy4/av"
	"github.com/pkg/errors"

	"github.com/lanikai/alohacast/internal/media"
)

type fakeCodec struct {
	typ           av.CodecType
	width, height int
}

func (c fakeCodec) Type() av.CodecType { return c.typ }
func (c fakeCodec) Width() int         { return c.width }
func (c fakeCodec) Height() int        { return c.height }

// audioCodec implements av.CodecData only.
type audioCodec struct{}

func (audioCodec) Type() av.CodecType { return av.AAC }

// fakeDemuxer serves a fixed list of packets, then End.
type fakeDemuxer struct {
	streams    []av.CodecData
	streamsErr error
	packets    []av.Packet
	End        error

	reads, released int
	closed          int
}

func (d *fakeDemuxer) Streams() ([]av.CodecData, error) {
	return d.streams, d.streamsErr
}

func (d *fakeDemuxer) ReadPacket() (av.Packet, error) {
	if len(d.packets) == 0 {
		if d.End == nil {
			return av.Packet{}, io.EOF
		}
		return av.Packet{}, d.End
	}
	pkt := d.packets[0]
	d.packets = d.packets[1:]
	d.reads++
	return pkt, nil
}

func (d *fakeDemuxer) ReleasePacket(pkt *av.Packet) {
	d.released++
	pkt.Data = nil
}

func (d *fakeDemuxer) Close() error {
	d.closed++
	return nil
}

// fakeDecoder produces one gray picture per packet, whose level is the last
// byte of the packet. Up to lag pictures are held back until more input
// arrives or the decoder is drained, like a decoder reordering B-frames.
type fakeDecoder struct {
	width, height int
	lag           int

	// FailAfter, if positive, fails SendPacket once that many packets have
	// been accepted.
	FailAfter int

	queue    []uint8
	sent     int
	draining bool
	drained  bool
	closed   int
}

var errDecode = errors.New("corrupt bitstream")

func (d *fakeDecoder) SendPacket(pkt *av.Packet) error {
	if pkt == nil {
		d.draining = true
		return nil
	}
	if d.draining {
		return io.EOF
	}
	if d.FailAfter > 0 && d.sent >= d.FailAfter {
		return errDecode
	}
	if len(d.queue) > d.lag {
		return media.ErrAgain
	}
	d.sent++
	d.queue = append(d.queue, pkt.Data[len(pkt.Data)-1])
	return nil
}

func (d *fakeDecoder) ReceiveFrame() (image.Image, error) {
	if len(d.queue) == 0 || (!d.draining && len(d.queue) <= d.lag) {
		if d.draining {
			d.drained = true
			return nil, io.EOF
		}
		return nil, media.ErrAgain
	}
	level := d.queue[0]
	d.queue = d.queue[1:]
	return gray(d.width, d.height, level), nil
}

func (d *fakeDecoder) Close() error {
	d.closed++
	return nil
}

func gray(w, h int, level uint8) image.Image {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = level
	}
	return img
}

// level returns the red sample at the centre of f.
func level(f *Frame) uint8 {
	c := f.At(f.Width()/2, f.Height()/2).(color.RGBA)
	return c.R
}

// collector is a FrameSink recording every frame.
type collector struct {
	mu     sync.Mutex
	frames []*Frame
	onEmit func(n int)
}

func (c *collector) Emit(f *Frame) {
	c.mu.Lock()
	c.frames = append(c.frames, f)
	n := len(c.frames)
	c.mu.Unlock()
	if c.onEmit != nil {
		c.onEmit(n)
	}
}

func (c *collector) Frames() []*Frame {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*Frame(nil), c.frames...)
}

// nopCloser wraps a reader for openSession.
type nopCloser struct {
	io.Reader
	closed int
}

func (c *nopCloser) Close() error {
	c.closed++
	return nil
}
