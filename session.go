package alohacast

import (
	"context"
	"io"

	"github.com/google/uuid"
	"github.com/nareix/joy4/av"
	"github.com/pkg/errors"

	"github.com/lanikai/alohacast/internal/logging"
	"github.com/lanikai/alohacast/internal/media"
)

// pipeline holds the constructors a streaming session is built from.
type pipeline struct {
	openDemuxer func(r io.Reader, probeSize int) (media.Demuxer, error)
	openDecoder func(codec av.CodecData) (media.Decoder, error)
	probeSize   int
}

var defaultPipeline = pipeline{
	openDemuxer: media.OpenDemuxer,
	openDecoder: media.OpenDecoder,
	probeSize:   media.DefaultProbeSize,
}

// A session demuxes and decodes the stream of one connection. Its handles are
// acquired in stages; close releases whichever of them were acquired.
type session struct {
	id  string
	log *logging.Logger

	src   io.Closer
	demux media.Demuxer
	index int8
	codec av.VideoCodecData
	dec   media.Decoder
	conv  *media.Converter

	closed bool
}

// openSession builds a session reading from src that converts pictures to
// width x height. On failure everything acquired so far is released.
func openSession(src io.ReadCloser, width, height int, p pipeline) (*session, error) {
	id := uuid.New().String()
	s := &session{id: id, log: log.WithPrefix(id[:8]), src: src}
	if err := s.init(src, width, height, p); err != nil {
		s.close()
		return nil, err
	}
	return s, nil
}

func (s *session) init(r io.Reader, width, height int, p pipeline) error {
	demux, err := p.openDemuxer(r, p.probeSize)
	if err != nil {
		return errors.Wrap(err, "open input")
	}
	s.demux = demux

	if err := s.selectStream(p.openDecoder); err != nil {
		return err
	}

	conv, err := media.NewConverter(s.codec.Width(), s.codec.Height(), width, height)
	if err != nil {
		return err
	}
	s.conv = conv
	return nil
}

// selectStream picks the first video stream that can be decoded. Streams
// that cannot are skipped.
func (s *session) selectStream(openDecoder func(av.CodecData) (media.Decoder, error)) error {
	streams, err := s.demux.Streams()
	if err != nil {
		return errors.Wrap(err, "find stream info")
	}

	for i, codec := range streams {
		if !codec.Type().IsVideo() {
			s.log.Debug("skipping stream %d: %v is not video", i, codec.Type())
			continue
		}
		video, ok := codec.(av.VideoCodecData)
		if !ok || video.Width() <= 0 || video.Height() <= 0 {
			s.log.Debug("skipping stream %d: missing video parameters", i)
			continue
		}
		dec, err := openDecoder(codec)
		if err != nil {
			s.log.Debug("skipping stream %d: %v", i, err)
			continue
		}
		s.index, s.codec, s.dec = int8(i), video, dec
		s.log.Info("decoding stream %d: %v %dx%d", i, codec.Type(), video.Width(), video.Height())
		return nil
	}
	return errors.Wrapf(media.ErrNoVideoStream, "%d streams", len(streams))
}

// run reads and decodes packets until the input ends, ctx is cancelled or an
// error occurs, handing every decoded picture to emit. The end of input is
// not an error: the decoder is drained and run returns nil.
func (s *session) run(ctx context.Context, emit func(*media.RGB)) error {
	for ctx.Err() == nil {
		pkt, err := s.demux.ReadPacket()
		if err != nil {
			if !endOfInput(err) {
				return errors.Wrap(err, "read packet")
			}
			s.log.Debug("input ended (%v), draining decoder", err)
			return s.decode(nil, emit)
		}

		if pkt.Idx == s.index {
			err = s.decode(&pkt, emit)
		}
		s.demux.ReleasePacket(&pkt)
		if err != nil {
			return err
		}
	}
	return nil
}

func endOfInput(err error) bool {
	return errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, media.ErrAgain)
}

// decode submits pkt, or starts draining when pkt is nil, then emits every
// picture the decoder has ready.
func (s *session) decode(pkt *av.Packet, emit func(*media.RGB)) error {
	err := s.dec.SendPacket(pkt)
	if errors.Is(err, media.ErrAgain) {
		// The decoder is full; empty it and resubmit once.
		if err := s.receive(emit); err != nil {
			return err
		}
		err = s.dec.SendPacket(pkt)
	}
	if err != nil && !(pkt == nil && errors.Is(err, io.EOF)) {
		return errors.Wrap(err, "send packet")
	}
	return s.receive(emit)
}

// receive emits decoded pictures until the decoder wants more input or has
// been drained.
func (s *session) receive(emit func(*media.RGB)) error {
	for {
		img, err := s.dec.ReceiveFrame()
		switch {
		case err == nil:
			emit(s.conv.Convert(img))
		case errors.Is(err, media.ErrAgain), errors.Is(err, io.EOF):
			return nil
		default:
			return errors.Wrap(err, "receive frame")
		}
	}
}

// close releases the converter, decoder, demuxer and source, skipping any
// that were never acquired. Calling it again has no effect.
func (s *session) close() {
	if s.closed {
		return
	}
	s.closed = true

	if s.conv != nil {
		s.conv.Close()
		s.conv = nil
	}
	if s.dec != nil {
		if err := s.dec.Close(); err != nil {
			s.log.Warn("closing decoder: %v", err)
		}
		s.dec = nil
	}
	if s.demux != nil {
		if err := s.demux.Close(); err != nil {
			s.log.Warn("closing demuxer: %v", err)
		}
		s.demux = nil
	}
	if s.src != nil {
		s.src.Close()
		s.src = nil
	}
}
