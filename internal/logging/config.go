package logging

import (
	"fmt"
	"os"
	"strings"
)

// LOGLEVEL holds comma-separated directives, e.g. "debug,adb=trace,stream=warn".
// A directive without "tag=" sets the default level.
const envVar = "LOGLEVEL"

var tagLevels = map[string]Level{}

func init() {
	parseDirectives(os.Getenv(envVar))
	DefaultLogger.Level = defaultLevel
}

func parseDirectives(spec string) {
	for _, d := range strings.Split(spec, ",") {
		if d = strings.TrimSpace(d); d == "" {
			continue
		}
		tag, levelString := "", d
		if i := strings.IndexByte(d, '='); i >= 0 {
			tag, levelString = d[:i], d[i+1:]
		}
		level, err := ParseLevel(levelString)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Invalid %s directive '%s': %s\n", envVar, d, err)
			continue
		}
		if tag == "" {
			defaultLevel = level
		} else {
			tagLevels[tag] = level
		}
	}
}

func determineLevel(tag string, fallback Level) Level {
	if level, ok := tagLevels[tag]; ok {
		return level
	}
	return fallback
}
