//////////////////////////////////////////////////////////////////////////////
//
// Config contains the settings of a capture task
//
// Copyright 2019 Lanikai Labs LLC. All rights reserved.
//
//////////////////////////////////////////////////////////////////////////////

package alohacast

import (
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// Mode selects how frames are obtained from the device.
type Mode int

const (
	// ModeStreaming decodes a live H.264 screen recording.
	ModeStreaming Mode = iota

	// Polling modes fetch one still screenshot per interval, differing only in
	// the encoding requested from the device.
	ModePollingRaw
	ModePollingJPEG
	ModePollingPNG
)

var modeNames = map[Mode]string{
	ModeStreaming:   "h264",
	ModePollingRaw:  "raw",
	ModePollingJPEG: "jpeg",
	ModePollingPNG:  "png",
}

// ParseMode returns the mode with the given name. "stream" and "jpg" are
// accepted as aliases.
func ParseMode(s string) (Mode, error) {
	switch name := strings.ToLower(strings.TrimSpace(s)); name {
	case "stream", "streaming":
		return ModeStreaming, nil
	case "jpg":
		return ModePollingJPEG, nil
	default:
		for m, n := range modeNames {
			if n == name {
				return m, nil
			}
		}
	}
	return 0, errors.Errorf("unknown capture mode %q", s)
}

func (m Mode) String() string {
	if name, ok := modeNames[m]; ok {
		return name
	}
	return "Mode(" + strconv.Itoa(int(m)) + ")"
}

// IsPolling reports whether m is one of the screenshot modes.
func (m Mode) IsPolling() bool {
	return m == ModePollingRaw || m == ModePollingJPEG || m == ModePollingPNG
}

// Set and Type make Mode usable as a command line flag.
func (m *Mode) Set(s string) error {
	mode, err := ParseMode(s)
	if err != nil {
		return err
	}
	*m = mode
	return nil
}

func (m *Mode) Type() string {
	return "mode"
}

func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *Mode) UnmarshalText(text []byte) error {
	return m.Set(string(text))
}

// Config holds the immutable settings of one capture task.
type Config struct {
	// Target geometry of every emitted frame.
	Width  int `yaml:"width"`
	Height int `yaml:"height"`

	Mode Mode `yaml:"mode"`

	// Delay between screenshots in polling modes.
	PollInterval time.Duration `yaml:"interval"`

	// Number of screenshots to take in polling modes. Zero polls until
	// cancelled.
	Count int `yaml:"count"`
}

// DefaultConfig returns the settings used when nothing else is specified.
func DefaultConfig() Config {
	return Config{
		Width:        720,
		Height:       1280,
		Mode:         ModeStreaming,
		PollInterval: 100 * time.Millisecond,
	}
}

// Validate checks that c describes a runnable task.
func (c Config) Validate() error {
	switch {
	case c.Width <= 0 || c.Height <= 0:
		return errors.Wrapf(ErrInvalidConfig, "target size %dx%d", c.Width, c.Height)
	case c.Mode != ModeStreaming && !c.Mode.IsPolling():
		return errors.Wrapf(ErrInvalidConfig, "mode %v", c.Mode)
	case c.Mode.IsPolling() && c.PollInterval < 0:
		return errors.Wrapf(ErrInvalidConfig, "negative poll interval %v", c.PollInterval)
	case c.Count < 0:
		return errors.Wrapf(ErrInvalidConfig, "negative count %d", c.Count)
	}
	return nil
}
