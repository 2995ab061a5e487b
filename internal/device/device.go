// Package device defines the collaborators the capture core consumes: a
// byte-stream transport to the remote device and a still-snapshot API.
package device

import (
	"fmt"
	"image"
	"time"

	"github.com/pkg/errors"
)

// Transport error classes, as reported by Transport.LastError. Any other
// non-nil error is a generic transport failure.
var (
	ErrRemoteClosed = errors.New("device: remote host closed the connection")
	ErrTimeout      = errors.New("device: operation timed out")
)

// Transport is a byte-stream connection to the device. It is owned by a single
// goroutine; implementations need not be safe for concurrent use.
type Transport interface {
	// Connect (re)establishes the connection to the device.
	Connect() error

	// Send writes a complete command to the device.
	Send(cmd []byte) error

	// Read copies up to len(p) already-received bytes into p.
	Read(p []byte) (int, error)

	// BytesAvailable returns how many bytes can be read without blocking.
	BytesAvailable() int

	IsConnected() bool

	// WaitForReadyRead blocks for at most timeout until new data arrives.
	// On false, LastError explains why.
	WaitForReadyRead(timeout time.Duration) bool

	// LastError returns the error of the last failed operation, matching
	// ErrRemoteClosed or ErrTimeout where applicable.
	LastError() error

	Close() error

	// WaitForDisconnected blocks until the connection is fully torn down.
	WaitForDisconnected(timeout time.Duration) bool
}

// Snapshotter fetches whole still images of the device screen.
type Snapshotter interface {
	FetchScreenRaw() (image.Image, error)
	FetchScreenJPEG() (image.Image, error)
	FetchScreenPNG() (image.Image, error)
	IsScreenAwake() bool
}

// Conn is a device connection offering both capture styles.
type Conn interface {
	Transport
	Snapshotter
}

// CaptureCommand returns the shell request that starts a raw H.264 screen
// recording of the given size, streamed back over the same connection.
func CaptureCommand(width, height int) []byte {
	return []byte(fmt.Sprintf("shell:stty raw; screenrecord --output-format=h264 --size %dx%d -", width, height))
}
