// Package libav decodes H.264 through FFmpeg's libavcodec.
//
// Importing the package registers the decoder with the media package:
//
//	import _ "github.com/lanikai/alohacast/internal/media/libav"
package libav

import (
	"image"
	"io"

	"github.com/asticode/go-astiav"
	"github.com/nareix/joy4/av"
	"github.com/nareix/joy4/codec/h264parser"
	"github.com/pkg/errors"

	"github.com/lanikai/alohacast/internal/logging"
	"github.com/lanikai/alohacast/internal/media"
)

var log = logging.DefaultLogger.WithTag("libav")

func init() {
	media.RegisterDecoder(av.H264, Open)
}

// Decoder is a media.Decoder backed by an AVCodecContext.
type Decoder struct {
	cc    *astiav.CodecContext
	pkt   *astiav.Packet
	frame *astiav.Frame

	// Parameter sets, prepended to key frames that arrive without them.
	sps, pps []byte

	img    image.Image
	closed bool
}

// Open allocates and opens an H.264 decoder for the given stream.
func Open(codec av.CodecData) (media.Decoder, error) {
	if codec.Type() != av.H264 {
		return nil, errors.Wrapf(media.ErrNoDecoder, "libav: %v", codec.Type())
	}
	c := astiav.FindDecoder(astiav.CodecIDH264)
	if c == nil {
		return nil, errors.Wrap(media.ErrNoDecoder, "libav: h264 decoder not built in")
	}
	cc := astiav.AllocCodecContext(c)
	if cc == nil {
		return nil, errors.New("libav: failed to allocate codec context")
	}
	if err := cc.Open(c, nil); err != nil {
		cc.Free()
		return nil, errors.Wrap(err, "libav: open codec")
	}

	d := &Decoder{
		cc:    cc,
		pkt:   astiav.AllocPacket(),
		frame: astiav.AllocFrame(),
	}
	if h, ok := codec.(h264parser.CodecData); ok {
		d.sps, d.pps = h.SPS(), h.PPS()
	}
	log.Debug("opened %s decoder", c.Name())
	return d, nil
}

func (d *Decoder) SendPacket(pkt *av.Packet) error {
	if d.closed {
		return io.ErrClosedPipe
	}
	if pkt == nil {
		return d.translate(d.cc.SendPacket(nil))
	}

	data := media.ToAnnexB(pkt.Data, pkt.IsKeyFrame, d.sps, d.pps)
	if err := d.pkt.FromData(data); err != nil {
		return errors.Wrap(err, "libav: packet")
	}
	defer d.pkt.Unref()
	d.pkt.SetPts(int64(pkt.Time + pkt.CompositionTime))
	if pkt.IsKeyFrame {
		d.pkt.SetFlags(d.pkt.Flags().Add(astiav.PacketFlagKey))
	}
	return d.translate(d.cc.SendPacket(d.pkt))
}

func (d *Decoder) ReceiveFrame() (image.Image, error) {
	if d.closed {
		return nil, io.EOF
	}
	d.frame.Unref()
	if err := d.cc.ReceiveFrame(d.frame); err != nil {
		return nil, d.translate(err)
	}

	fd := d.frame.Data()
	if d.img == nil || d.img.Bounds().Dx() != d.frame.Width() || d.img.Bounds().Dy() != d.frame.Height() {
		img, err := fd.GuessImageFormat()
		if err != nil {
			return nil, errors.Wrap(err, "libav: frame format")
		}
		d.img = img
	}
	if err := fd.ToImage(d.img); err != nil {
		return nil, errors.Wrap(err, "libav: frame data")
	}
	return d.img, nil
}

// translate maps libav's EAGAIN and EOF onto the media package's errors.
func (d *Decoder) translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, astiav.ErrEagain):
		return media.ErrAgain
	case errors.Is(err, astiav.ErrEof):
		return io.EOF
	}
	return errors.Wrap(err, "libav")
}

// Close releases the codec context and its buffers. It is safe to call more
// than once.
func (d *Decoder) Close() error {
	if d.closed {
		return nil
	}
	d.closed = true
	d.frame.Free()
	d.pkt.Free()
	d.cc.Free()
	return nil
}
