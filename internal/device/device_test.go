package device

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCaptureCommand(t *testing.T) {
	assert.Equal(t,
		"shell:stty raw; screenrecord --output-format=h264 --size 640x480 -",
		string(CaptureCommand(640, 480)))
}
