package h264

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHeaderFields(t *testing.T) {
	nalu := NALU{0x65, 0x88}
	assert.Equal(t, byte(0), nalu.ForbiddenBit())
	assert.Equal(t, byte(3), nalu.NRI())
	assert.Equal(t, byte(TypeIDR), nalu.Type())
	assert.True(t, nalu.IsVCL())
	assert.True(t, nalu.IsKeyFrame())
	assert.False(t, nalu.StartsAccessUnit())

	assert.True(t, NALU{0x67}.StartsAccessUnit())
	assert.True(t, NALU{0x09}.StartsAccessUnit())
	assert.False(t, NALU{0x67}.IsVCL())
}

func TestFirstMbInSlice(t *testing.T) {
	// ue(v) "1" => 0
	mb, ok := NALU{0x41, 0x80}.FirstMbInSlice()
	assert.True(t, ok)
	assert.Equal(t, uint(0), mb)

	// ue(v) "011" => 2
	mb, ok = NALU{0x41, 0x60}.FirstMbInSlice()
	assert.True(t, ok)
	assert.Equal(t, uint(2), mb)

	_, ok = NALU{0x41}.FirstMbInSlice()
	assert.False(t, ok)

	_, ok = NALU{0x67, 0x80}.FirstMbInSlice()
	assert.False(t, ok)
}
