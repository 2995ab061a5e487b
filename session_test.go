package alohacast

import (
	"context"
	"image"
	"io"
	"strings"
	"testing"

	"github.com/nareix/joy4/av"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lanikai/alohacast/internal/media"
)

// fakePipeline returns a pipeline serving demux, and a decoder for every
// H.264 stream. The decoders opened are appended to *decoders.
func fakePipeline(demux *fakeDemuxer, lag int, decoders *[]*fakeDecoder) pipeline {
	return pipeline{
		openDemuxer: func(io.Reader, int) (media.Demuxer, error) {
			return demux, nil
		},
		openDecoder: func(codec av.CodecData) (media.Decoder, error) {
			if codec.Type() != av.H264 {
				return nil, media.ErrNoDecoder
			}
			v := codec.(av.VideoCodecData)
			dec := &fakeDecoder{width: v.Width(), height: v.Height(), lag: lag}
			*decoders = append(*decoders, dec)
			return dec, nil
		},
		probeSize: media.DefaultProbeSize,
	}
}

func packets(idx int8, levels ...uint8) []av.Packet {
	var pkts []av.Packet
	for _, l := range levels {
		pkts = append(pkts, av.Packet{Idx: idx, Data: []byte{l}})
	}
	return pkts
}

func runSession(t *testing.T, s *session) ([]*media.RGB, error) {
	var out []*media.RGB
	err := s.run(context.Background(), func(img *media.RGB) {
		out = append(out, img)
	})
	return out, err
}

func TestSessionSelectsVideoStream(t *testing.T) {
	demux := &fakeDemuxer{
		streams: []av.CodecData{audioCodec{}, fakeCodec{av.H264, 64, 48}},
		packets: append(packets(0, 1, 2), packets(1, 10, 20)...),
	}
	var decoders []*fakeDecoder
	src := &nopCloser{Reader: strings.NewReader("")}

	s, err := openSession(src, 32, 24, fakePipeline(demux, 0, &decoders))
	require.NoError(t, err)
	defer s.close()

	assert.Equal(t, int8(1), s.index)
	require.Len(t, decoders, 1)

	out, err := runSession(t, s)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, image.Rect(0, 0, 32, 24), out[0].Bounds())
	assert.Equal(t, uint8(10), out[0].Pix[0])
	assert.Equal(t, uint8(20), out[1].Pix[0])
}

func TestSessionSkipsUndecodableStreams(t *testing.T) {
	demux := &fakeDemuxer{
		streams: []av.CodecData{
			// No decoder.
			fakeCodec{av.MakeVideoCodecType(0x7fff), 64, 48},
			// No geometry.
			fakeCodec{av.H264, 0, 0},
			fakeCodec{av.H264, 64, 48},
		},
	}
	var decoders []*fakeDecoder
	s, err := openSession(&nopCloser{}, 32, 24, fakePipeline(demux, 0, &decoders))
	require.NoError(t, err)
	defer s.close()

	assert.Equal(t, int8(2), s.index)
	assert.Len(t, decoders, 1)
}

func TestSessionNoVideoStream(t *testing.T) {
	demux := &fakeDemuxer{streams: []av.CodecData{audioCodec{}}}
	src := &nopCloser{}
	var decoders []*fakeDecoder

	_, err := openSession(src, 32, 24, fakePipeline(demux, 0, &decoders))
	assert.True(t, errors.Is(err, media.ErrNoVideoStream))
	assert.Equal(t, 1, demux.closed)
	assert.Equal(t, 1, src.closed)
}

func TestSessionTeardownAfterFailedInit(t *testing.T) {
	t.Run("no demuxer", func(t *testing.T) {
		src := &nopCloser{}
		p := pipeline{
			openDemuxer: func(io.Reader, int) (media.Demuxer, error) {
				return nil, media.ErrUnrecognizedFormat
			},
		}
		_, err := openSession(src, 32, 24, p)
		assert.True(t, errors.Is(err, media.ErrUnrecognizedFormat))
		assert.Equal(t, 1, src.closed)
	})

	t.Run("converter fails", func(t *testing.T) {
		demux := &fakeDemuxer{streams: []av.CodecData{fakeCodec{av.H264, 64, 48}}}
		var decoders []*fakeDecoder
		_, err := openSession(&nopCloser{}, 0, 24, fakePipeline(demux, 0, &decoders))
		require.Error(t, err)
		require.Len(t, decoders, 1)
		assert.Equal(t, 1, decoders[0].closed)
		assert.Equal(t, 1, demux.closed)
	})

	t.Run("idempotent", func(t *testing.T) {
		s := &session{}
		s.close()
		s.close()

		demux := &fakeDemuxer{streams: []av.CodecData{fakeCodec{av.H264, 64, 48}}}
		var decoders []*fakeDecoder
		s, err := openSession(&nopCloser{}, 32, 24, fakePipeline(demux, 0, &decoders))
		require.NoError(t, err)
		s.close()
		s.close()
		assert.Equal(t, 1, demux.closed)
		assert.Equal(t, 1, decoders[0].closed)
	})
}

func TestSessionDrainIsExhaustive(t *testing.T) {
	for _, end := range []error{io.EOF, media.ErrAgain} {
		demux := &fakeDemuxer{
			streams: []av.CodecData{fakeCodec{av.H264, 16, 16}},
			packets: packets(0, 1, 2, 3, 4, 5),
			End:     end,
		}
		var decoders []*fakeDecoder
		s, err := openSession(&nopCloser{}, 16, 16, fakePipeline(demux, 3, &decoders))
		require.NoError(t, err)

		out, err := runSession(t, s)
		s.close()
		require.NoError(t, err)
		require.Len(t, out, 5, "end %v", end)
		for i, img := range out {
			assert.Equal(t, uint8(i+1), img.Pix[0])
		}
		assert.True(t, decoders[0].drained)
	}
}

func TestSessionReleasesEveryPacket(t *testing.T) {
	t.Run("mixed streams", func(t *testing.T) {
		demux := &fakeDemuxer{
			streams: []av.CodecData{audioCodec{}, fakeCodec{av.H264, 16, 16}},
			packets: append(append(packets(0, 1), packets(1, 2, 3)...), packets(0, 4)...),
		}
		var decoders []*fakeDecoder
		s, err := openSession(&nopCloser{}, 16, 16, fakePipeline(demux, 0, &decoders))
		require.NoError(t, err)
		defer s.close()

		_, err = runSession(t, s)
		require.NoError(t, err)
		assert.Equal(t, 4, demux.reads)
		assert.Equal(t, 4, demux.released)
	})

	t.Run("decode error", func(t *testing.T) {
		demux := &fakeDemuxer{
			streams: []av.CodecData{fakeCodec{av.H264, 16, 16}},
			packets: packets(0, 1, 2, 3, 4),
		}
		var decoders []*fakeDecoder
		s, err := openSession(&nopCloser{}, 16, 16, fakePipeline(demux, 0, &decoders))
		require.NoError(t, err)
		defer s.close()
		decoders[0].FailAfter = 2

		out, err := runSession(t, s)
		assert.True(t, errors.Is(err, errDecode))
		assert.Len(t, out, 2)
		assert.Equal(t, 3, demux.reads)
		assert.Equal(t, 3, demux.released)
	})
}

func TestSessionHardDemuxError(t *testing.T) {
	errCorrupt := errors.New("corrupt container")
	demux := &fakeDemuxer{
		streams: []av.CodecData{fakeCodec{av.H264, 16, 16}},
		packets: packets(0, 1),
		End:     errCorrupt,
	}
	var decoders []*fakeDecoder
	s, err := openSession(&nopCloser{}, 16, 16, fakePipeline(demux, 1, &decoders))
	require.NoError(t, err)
	defer s.close()

	out, err := runSession(t, s)
	assert.True(t, errors.Is(err, errCorrupt))
	assert.Empty(t, out)
	assert.False(t, decoders[0].drained)
}

func TestSessionStopsWhenCancelled(t *testing.T) {
	demux := &fakeDemuxer{
		streams: []av.CodecData{fakeCodec{av.H264, 16, 16}},
		packets: packets(0, 1, 2, 3),
	}
	var decoders []*fakeDecoder
	s, err := openSession(&nopCloser{}, 16, 16, fakePipeline(demux, 0, &decoders))
	require.NoError(t, err)
	defer s.close()

	ctx, cancel := context.WithCancel(context.Background())
	n := 0
	err = s.run(ctx, func(*media.RGB) {
		n++
		cancel()
	})
	assert.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 1, demux.released)
}
