package media

import (
	"bufio"
	"bytes"
	"io"

	"github.com/nareix/joy4/av"
	"github.com/nareix/joy4/format/flv"
	"github.com/nareix/joy4/format/ts"
	"github.com/pkg/errors"
)

// DefaultProbeSize is the number of bytes inspected to detect the container.
// A live stream cannot be rewound, so this is kept as small as the
// signatures allow.
const DefaultProbeSize = 32

const readBufferSize = 64 * 1024

const (
	tsPacketSize = 188
	tsSyncByte   = 0x47
)

// Demuxer splits a container into elementary streams and reads their packets.
type Demuxer interface {
	av.Demuxer

	// ReleasePacket hands a packet's backing storage back to the demuxer.
	// The packet must not be used afterwards.
	ReleasePacket(pkt *av.Packet)

	io.Closer
}

// OpenDemuxer detects the container format from the first probeSize bytes of
// r and returns a demuxer bound to it. Supported formats are MPEG-TS, FLV and
// raw H.264 Annex B byte streams.
func OpenDemuxer(r io.Reader, probeSize int) (Demuxer, error) {
	if probeSize < 4 {
		probeSize = 4
	}
	br := bufio.NewReaderSize(r, readBufferSize)
	head, err := br.Peek(probeSize)
	if len(head) < 4 {
		if err == nil {
			err = io.ErrUnexpectedEOF
		}
		return nil, errors.Wrap(err, "probing input")
	}

	if head[0] == tsSyncByte && len(head) < tsPacketSize+1 {
		// Confirm MPEG-TS with the sync byte of the second packet.
		head, _ = br.Peek(tsPacketSize + 1)
	}

	switch format := detectFormat(head); format {
	case "mpegts":
		log.Debug("detected %s container", format)
		return &joyDemuxer{Demuxer: ts.NewDemuxer(br), format: format}, nil
	case "flv":
		log.Debug("detected %s container", format)
		return &joyDemuxer{Demuxer: flv.NewDemuxer(br), format: format}, nil
	case "h264":
		log.Debug("detected raw H.264 byte stream")
		return NewAnnexBDemuxer(br), nil
	}
	return nil, errors.Wrapf(ErrUnrecognizedFormat, "leading bytes % x", head[:4])
}

func detectFormat(head []byte) string {
	switch {
	case len(head) > tsPacketSize && head[0] == tsSyncByte && head[tsPacketSize] == tsSyncByte:
		return "mpegts"
	case bytes.HasPrefix(head, []byte("FLV")):
		return "flv"
	case bytes.HasPrefix(head, []byte{0, 0, 0, 1}), bytes.HasPrefix(head, []byte{0, 0, 1}):
		return "h264"
	}
	return ""
}

// joyDemuxer adapts a joy4 container demuxer. Packet storage belongs to the
// garbage collector, so releasing only drops the reference.
type joyDemuxer struct {
	av.Demuxer
	format string
}

func (d *joyDemuxer) ReleasePacket(pkt *av.Packet) {
	pkt.Data = nil
}

func (d *joyDemuxer) Close() error {
	return nil
}

func (d *joyDemuxer) String() string {
	return d.format
}
