// Package h264 inspects H.264 NAL unit headers (ITU-T H.264 section 7.3.1).
package h264

// NAL unit types used for access unit delimiting.
const (
	TypeSlice         = 1
	TypeSliceDPA      = 2
	TypeIDR           = 5
	TypeSEI           = 6
	TypeSPS           = 7
	TypePPS           = 8
	TypeAUD           = 9
	TypeEndOfSequence = 10
	TypeEndOfStream   = 11
	TypeFiller        = 12
)

type NALU []byte

func (nalu NALU) ForbiddenBit() byte {
	return nalu[0] & 0x80 >> 7
}

func (nalu NALU) NRI() byte {
	return nalu[0] & 0x60 >> 5
}

func (nalu NALU) Type() byte {
	return nalu[0] & 0x1f
}

// IsVCL reports whether the unit carries coded slice data.
func (nalu NALU) IsVCL() bool {
	t := nalu.Type()
	return t >= TypeSlice && t <= TypeIDR
}

// IsKeyFrame reports whether the unit is an IDR slice.
func (nalu NALU) IsKeyFrame() bool {
	return nalu.Type() == TypeIDR
}

// StartsAccessUnit reports whether a non-VCL unit of this type, appearing
// after a VCL unit, begins a new access unit (section 7.4.1.2.3).
func (nalu NALU) StartsAccessUnit() bool {
	switch t := nalu.Type(); {
	case t == TypeAUD, t == TypeSPS, t == TypePPS, t == TypeSEI:
		return true
	case t >= 14 && t <= 18:
		return true
	}
	return false
}

// FirstMbInSlice decodes first_mb_in_slice, the leading ue(v) of a slice
// header. A zero value marks the first slice of a picture. ok is false when
// the unit is too short to hold the field.
func (nalu NALU) FirstMbInSlice() (mb uint, ok bool) {
	if len(nalu) < 2 || !nalu.IsVCL() {
		return 0, false
	}
	br := bitReader{data: nalu[1:]}
	return br.readUE()
}

type bitReader struct {
	data []byte
	pos  int
}

func (br *bitReader) readBit() (uint, bool) {
	if br.pos >= 8*len(br.data) {
		return 0, false
	}
	bit := uint(br.data[br.pos/8]>>(7-uint(br.pos%8))) & 1
	br.pos++
	return bit, true
}

// Exp-Golomb unsigned integer (section 9.1).
func (br *bitReader) readUE() (uint, bool) {
	zeros := 0
	for {
		b, ok := br.readBit()
		if !ok {
			return 0, false
		}
		if b == 1 {
			break
		}
		zeros++
		if zeros > 31 {
			return 0, false
		}
	}
	v := uint(0)
	for i := 0; i < zeros; i++ {
		b, ok := br.readBit()
		if !ok {
			return 0, false
		}
		v = v<<1 | b
	}
	return (1 << uint(zeros)) - 1 + v, true
}
