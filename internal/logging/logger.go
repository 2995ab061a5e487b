package logging

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"
)

const timestampFormat = "15:04:05.000"

// Logger writes leveled, tagged lines. Loggers derived from one another share
// a destination and never interleave their lines.
type Logger struct {
	// Messages more verbose than this level are dropped.
	Level

	// Tag names the subsystem, and selects per-tag levels from LOGLEVEL.
	Tag string

	// Prefix is prepended to every message, e.g. a session identifier.
	Prefix string

	sink *sink
}

type sink struct {
	mu  sync.Mutex
	out io.Writer
}

// DefaultLogger writes to stderr.
var DefaultLogger = &Logger{Level: defaultLevel, sink: &sink{out: os.Stderr}}

// SetDestination redirects this logger and all loggers sharing its output.
func (log *Logger) SetDestination(out io.Writer) {
	log.sink.mu.Lock()
	log.sink.out = out
	log.sink.mu.Unlock()
}

// WithTag derives a logger for a subsystem. Its level comes from LOGLEVEL if
// the tag is named there, otherwise from log.
func (log *Logger) WithTag(tag string) *Logger {
	return &Logger{determineLevel(tag, log.Level), tag, log.Prefix, log.sink}
}

// WithDefaultLevel derives a logger with a different level, unless LOGLEVEL
// names the tag explicitly.
func (log *Logger) WithDefaultLevel(level Level) *Logger {
	return &Logger{determineLevel(log.Tag, level), log.Tag, log.Prefix, log.sink}
}

// WithPrefix derives a logger that marks every message with "[prefix]".
func (log *Logger) WithPrefix(prefix string) *Logger {
	l := *log
	l.Prefix = "[" + prefix + "] "
	return &l
}

// Enabled reports whether a message at the given level would be written.
func (log *Logger) Enabled(level Level) bool {
	return level <= log.Level
}

var bufPool = sync.Pool{
	New: func() interface{} {
		return new(bytes.Buffer)
	},
}

// Log writes a message at the given level, attributed to the caller
// calldepth frames up the stack.
func (log *Logger) Log(level Level, calldepth int, format string, a ...interface{}) {
	if !log.Enabled(level) {
		return
	}

	_, file, line, ok := runtime.Caller(calldepth + 1)
	if !ok {
		file, line = "???", 0
	}

	buf := bufPool.Get().(*bytes.Buffer)
	buf.Reset()
	defer bufPool.Put(buf)

	buf.WriteString(time.Now().Format(timestampFormat))
	buf.WriteByte(' ')
	level.color().Fprintf(buf, "%c/%s", level.letter(), log.Tag)
	fmt.Fprintf(buf, " %s:%d: %s", filepath.Base(file), line, log.Prefix)
	fmt.Fprintf(buf, format, a...)
	if b := buf.Bytes(); len(b) == 0 || b[len(b)-1] != '\n' {
		buf.WriteByte('\n')
	}

	log.sink.mu.Lock()
	defer log.sink.mu.Unlock()
	log.sink.out.Write(buf.Bytes())
}

func (log *Logger) Error(format string, a ...interface{}) {
	log.Log(Error, 1, format, a...)
}

func (log *Logger) Warn(format string, a ...interface{}) {
	log.Log(Warn, 1, format, a...)
}

func (log *Logger) Info(format string, a ...interface{}) {
	log.Log(Info, 1, format, a...)
}

func (log *Logger) Debug(format string, a ...interface{}) {
	log.Log(Debug, 1, format, a...)
}

// Trace logs at numeric level n, above Debug.
func (log *Logger) Trace(n int, format string, a ...interface{}) {
	log.Log(Level(n), 1, format, a...)
}

// Fatalf logs at Error level and exits. Only main packages should call it.
func (log *Logger) Fatalf(format string, a ...interface{}) {
	log.Log(Error, 1, format, a...)
	os.Exit(1)
}

// Writer returns an io.Writer logging each write as one message at the given
// level, for libraries that take a *log.Logger.
func (log *Logger) Writer(level Level) io.Writer {
	return writerFunc(func(p []byte) (int, error) {
		log.Log(level, 3, "%s", bytes.TrimRight(p, "\n"))
		return len(p), nil
	})
}

type writerFunc func(p []byte) (int, error)

func (fn writerFunc) Write(p []byte) (int, error) { return fn(p) }
