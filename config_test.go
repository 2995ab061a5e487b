package alohacast

import (
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestParseMode(t *testing.T) {
	for in, want := range map[string]Mode{
		"h264":      ModeStreaming,
		"stream":    ModeStreaming,
		"raw":       ModePollingRaw,
		"JPEG":      ModePollingJPEG,
		"jpg":       ModePollingJPEG,
		" png ":     ModePollingPNG,
		"streaming": ModeStreaming,
	} {
		got, err := ParseMode(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseMode("vnc")
	assert.Error(t, err)
}

func TestModeString(t *testing.T) {
	assert.Equal(t, "jpeg", ModePollingJPEG.String())
	assert.Equal(t, "Mode(9)", Mode(9).String())
	assert.True(t, ModePollingPNG.IsPolling())
	assert.False(t, ModeStreaming.IsPolling())
}

func TestConfigValidate(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())

	bad := []Config{
		{Width: 0, Height: 100},
		{Width: 100, Height: -1},
		{Width: 100, Height: 100, Mode: Mode(7)},
		{Width: 100, Height: 100, Mode: ModePollingRaw, PollInterval: -time.Second},
		{Width: 100, Height: 100, Count: -1},
	}
	for _, c := range bad {
		assert.True(t, errors.Is(c.Validate(), ErrInvalidConfig), "%+v", c)
	}
}

func TestConfigYAML(t *testing.T) {
	cfg := DefaultConfig()
	err := yaml.Unmarshal([]byte("width: 540\nheight: 960\nmode: png\ninterval: 250ms\ncount: 3\n"), &cfg)
	require.NoError(t, err)
	assert.Equal(t, Config{
		Width:        540,
		Height:       960,
		Mode:         ModePollingPNG,
		PollInterval: 250 * time.Millisecond,
		Count:        3,
	}, cfg)

	assert.Error(t, yaml.Unmarshal([]byte("mode: vnc\n"), &cfg))

	out, err := yaml.Marshal(Config{Width: 1, Height: 2, Mode: ModePollingJPEG})
	require.NoError(t, err)
	assert.Contains(t, string(out), "mode: jpeg")
}
