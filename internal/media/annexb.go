package media

import (
	"bufio"
	"bytes"
	"io"
	"time"

	"github.com/nareix/joy4/av"
	"github.com/nareix/joy4/codec/h264parser"
	"github.com/pkg/errors"

	"github.com/lanikai/alohacast/internal/media/h264"
)

const (
	naluBufferInitialSize = 64 * 1024
	naluBufferMaximumSize = 8 * 1024 * 1024
)

var annexBStartCode = []byte{0, 0, 0, 1}

// AnnexBDemuxer reads a raw H.264 byte stream, NAL units separated by
// Annex B start codes, and returns one packet per access unit. It exposes a
// single video stream whose parameters come from the first SPS and PPS.
type AnnexBDemuxer struct {
	scanner *bufio.Scanner
	start   time.Time

	codec    av.CodecData
	sps, pps []byte

	// NAL units read while looking for parameter sets.
	pending [][]byte

	// Access unit under construction.
	au       []byte
	auVCL    bool
	auKey    bool
	finished bool

	free   [][]byte
	frames int
}

// NewAnnexBDemuxer returns a demuxer reading from r.
func NewAnnexBDemuxer(r io.Reader) *AnnexBDemuxer {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, naluBufferInitialSize), naluBufferMaximumSize)
	scanner.Split(splitNALU)
	return &AnnexBDemuxer{scanner: scanner}
}

// Streams returns the single H.264 stream, reading ahead until both parameter
// sets have been seen.
func (d *AnnexBDemuxer) Streams() ([]av.CodecData, error) {
	for d.codec == nil {
		nalu, err := d.scan()
		if err != nil {
			if err == io.EOF {
				err = ErrMissingParameters
			}
			return nil, errors.Wrap(err, "reading H.264 parameter sets")
		}
		d.pending = append(d.pending, nalu)
		if err := d.noteParameterSet(nalu); err != nil {
			return nil, err
		}
	}
	return []av.CodecData{d.codec}, nil
}

func (d *AnnexBDemuxer) noteParameterSet(nalu []byte) error {
	switch h264.NALU(nalu).Type() {
	case h264.TypeSPS:
		d.sps = nalu
	case h264.TypePPS:
		d.pps = nalu
	default:
		return nil
	}
	if d.codec != nil || d.sps == nil || d.pps == nil {
		return nil
	}
	codec, err := h264parser.NewCodecDataFromSPSAndPPS(d.sps, d.pps)
	if err != nil {
		return errors.Wrap(err, "parsing SPS")
	}
	log.Debug("H.264 stream %dx%d", codec.Width(), codec.Height())
	d.codec = codec
	return nil
}

// ReadPacket returns the next access unit in Annex B format, or io.EOF once
// the input and the final access unit are exhausted.
func (d *AnnexBDemuxer) ReadPacket() (av.Packet, error) {
	if d.codec == nil {
		if _, err := d.Streams(); err != nil {
			return av.Packet{}, err
		}
	}
	for {
		nalu, err := d.next()
		if err != nil {
			if err == io.EOF && d.auVCL {
				return d.emit(), nil
			}
			return av.Packet{}, err
		}
		n := h264.NALU(nalu)
		if d.auVCL && d.startsNewAccessUnit(n) {
			pkt := d.emit()
			d.append(n)
			return pkt, nil
		}
		d.append(n)
	}
}

func (d *AnnexBDemuxer) startsNewAccessUnit(n h264.NALU) bool {
	if !n.IsVCL() {
		return n.StartsAccessUnit()
	}
	mb, ok := n.FirstMbInSlice()
	return ok && mb == 0
}

func (d *AnnexBDemuxer) append(n h264.NALU) {
	if d.au == nil {
		d.au = d.buffer()
	}
	d.au = append(d.au, annexBStartCode...)
	d.au = append(d.au, n...)
	if n.IsVCL() {
		d.auVCL = true
		d.auKey = d.auKey || n.IsKeyFrame()
	}
}

func (d *AnnexBDemuxer) emit() av.Packet {
	if d.start.IsZero() {
		d.start = time.Now()
	}
	pkt := av.Packet{
		Idx:        0,
		IsKeyFrame: d.auKey,
		Time:       time.Since(d.start),
		Data:       d.au,
	}
	d.au, d.auVCL, d.auKey = nil, false, false
	d.frames++
	return pkt
}

func (d *AnnexBDemuxer) buffer() []byte {
	if n := len(d.free); n > 0 {
		b := d.free[n-1]
		d.free = d.free[:n-1]
		return b[:0]
	}
	return make([]byte, 0, naluBufferInitialSize)
}

// ReleasePacket recycles the packet's buffer for a later access unit.
func (d *AnnexBDemuxer) ReleasePacket(pkt *av.Packet) {
	if pkt.Data != nil && len(d.free) < 4 {
		d.free = append(d.free, pkt.Data)
	}
	pkt.Data = nil
}

func (d *AnnexBDemuxer) next() ([]byte, error) {
	if len(d.pending) > 0 {
		nalu := d.pending[0]
		d.pending = d.pending[1:]
		return nalu, nil
	}
	nalu, err := d.scan()
	if err != nil {
		return nil, err
	}
	// Track in-band parameter set changes.
	switch h264.NALU(nalu).Type() {
	case h264.TypeSPS, h264.TypePPS:
		nalu = append([]byte(nil), nalu...)
		if err := d.noteParameterSet(nalu); err != nil {
			log.Warn("ignoring bad parameter set: %v", err)
		}
	}
	return nalu, nil
}

// scan returns the next non-empty NAL unit. The slice is only valid until the
// following scan, except for parameter sets handed to noteParameterSet.
func (d *AnnexBDemuxer) scan() ([]byte, error) {
	if d.finished {
		return nil, io.EOF
	}
	for d.scanner.Scan() {
		if nalu := d.scanner.Bytes(); len(nalu) > 0 {
			if d.codec == nil {
				nalu = append([]byte(nil), nalu...)
			}
			return nalu, nil
		}
	}
	d.finished = true
	if err := d.scanner.Err(); err != nil {
		return nil, err
	}
	return nil, io.EOF
}

func (d *AnnexBDemuxer) Close() error {
	d.pending, d.free, d.au = nil, nil, nil
	return nil
}

// Frames returns the number of access units returned so far.
func (d *AnnexBDemuxer) Frames() int {
	return d.frames
}

var h264StartCode = []byte{0, 0, 1}

// Splits NAL units on H.264 Annex B start codes. The start code in front of a
// unit is consumed with it: bufio.Scanner reads more input before splitting
// again after a nil token, so a nil token must never leave a complete unit
// behind in the buffer.
func splitNALU(data []byte, atEOF bool) (advance int, nalu []byte, err error) {
	skip := 0
	switch {
	case bytes.HasPrefix(data, annexBStartCode):
		skip = 4
	case bytes.HasPrefix(data, h264StartCode):
		skip = 3
	}

	i := bytes.Index(data[skip:], h264StartCode)
	if i == -1 {
		if !atEOF {
			// Wait for the next start code.
			return 0, nil, nil
		}
		if len(data) > skip {
			// Trailing unit.
			return len(data), data[skip:], nil
		}
		return len(data), nil, nil
	}

	// Next start code at skip+i. Leave it, along with the leading zero of a
	// 4-byte code, for the following call.
	end := skip + i
	if i > 0 && data[end-1] == 0x00 {
		end--
	}
	return end, data[skip:end], nil
}

// ToAnnexB rewrites an H.264 packet into Annex B form. Length-prefixed (AVCC)
// packets, as produced by container demuxers, are converted, and key frames
// get the given parameter sets prepended. Annex B input is returned as is.
func ToAnnexB(data []byte, keyFrame bool, sps, pps []byte) []byte {
	nalus, typ := h264parser.SplitNALUs(data)
	if typ == h264parser.NALU_ANNEXB {
		return data
	}

	out := make([]byte, 0, len(data)+len(sps)+len(pps)+16)
	if keyFrame && len(sps) > 0 && len(pps) > 0 {
		out = append(append(out, annexBStartCode...), sps...)
		out = append(append(out, annexBStartCode...), pps...)
	}
	for _, nalu := range nalus {
		if len(nalu) == 0 {
			continue
		}
		out = append(append(out, annexBStartCode...), nalu...)
	}
	return out
}
