package logging

import (
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/pkg/errors"
)

// Logging level. Higher values indicate more verbosity.
type Level int

const (
	Error Level = iota - 2
	Warn
	Info
	Debug

	// Numeric trace levels go up to 9.
	MaxLevel Level = 9
)

// Default level, overridable through LOGLEVEL.
var defaultLevel = Info

// ParseLevel accepts a level name, its first letter, or a number between -2 and 9.
func ParseLevel(s string) (Level, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "E", "ERROR":
		return Error, nil
	case "W", "WARN", "WARNING":
		return Warn, nil
	case "I", "INFO":
		return Info, nil
	case "D", "DEBUG":
		return Debug, nil
	case "T", "TRACE":
		return MaxLevel, nil
	}

	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, errors.Errorf("invalid logging level %q", s)
	}
	if l := Level(n); l >= Error && l <= MaxLevel {
		return l, nil
	}
	return 0, errors.Errorf("numeric logging level out of range: %s", s)
}

var levelNames = [...]string{"Error", "Warn", "Info", "Debug"}

func (l Level) String() string {
	if l >= Error && l <= Debug {
		return levelNames[l-Error]
	}
	return strconv.Itoa(int(l))
}

// letter abbreviates the level in log lines: E, W, I, D, or the trace digit.
func (l Level) letter() byte {
	if l >= Error && l <= Debug {
		return levelNames[l-Error][0]
	}
	return byte('0' + l)
}

var levelColors = map[Level]*color.Color{
	Error: color.New(color.FgRed, color.Bold),
	Warn:  color.New(color.FgRed),
	Info:  color.New(color.Reset),
	Debug: color.New(color.FgGreen),
}

var traceColor = color.New(color.FgYellow)

func (l Level) color() *color.Color {
	if c, ok := levelColors[l]; ok {
		return c
	}
	return traceColor
}
