// Package stream adapts a device.Transport into a pull-based io.Reader that a
// demuxer can consume directly.
package stream

import (
	"context"
	"io"
	"time"

	"github.com/pkg/errors"

	"github.com/lanikai/alohacast/internal/device"
	"github.com/lanikai/alohacast/internal/logging"
	"github.com/lanikai/alohacast/internal/metrics"
)

var log = logging.DefaultLogger.WithTag("stream")

// DefaultPollInterval bounds every wait for data, and therefore the latency
// of observing cancellation.
const DefaultPollInterval = 50 * time.Millisecond

// ErrShortRead is recorded when the transport reports data but yields none.
var ErrShortRead = errors.New("stream: transport returned no data")

// ConnectFunc (re)opens the transport and starts the remote capture.
type ConnectFunc func(t device.Transport) error

// Reader pulls bytes from a transport. Read returns between 1 and len(p) bytes,
// or 0 and io.EOF once the stream is over. The reason for the end of input is
// available from Err; it is nil when the stream ended through cancellation.
type Reader struct {
	ctx     context.Context
	t       device.Transport
	connect ConnectFunc

	// PollInterval bounds a single wait for data.
	PollInterval time.Duration

	err        error
	done       bool
	reconnects int
	total      int64
}

// NewReader returns a Reader over t. connect is invoked whenever the
// transport is found disconnected with nothing left to read.
func NewReader(ctx context.Context, t device.Transport, connect ConnectFunc) *Reader {
	return &Reader{
		ctx:          ctx,
		t:            t,
		connect:      connect,
		PollInterval: DefaultPollInterval,
	}
}

// StartCapture returns a ConnectFunc that connects the transport and asks the
// device for a raw H.264 recording at the given size.
func StartCapture(width, height int) ConnectFunc {
	cmd := device.CaptureCommand(width, height)
	return func(t device.Transport) error {
		if err := t.Connect(); err != nil {
			return errors.Wrap(err, "connect")
		}
		if err := t.Send(cmd); err != nil {
			return errors.Wrapf(err, "executing %q", cmd[len("shell:"):])
		}
		log.Debug("capture started: %s", cmd)
		return nil
	}
}

func (r *Reader) Read(p []byte) (int, error) {
	if r.done {
		return 0, io.EOF
	}
	if len(p) == 0 {
		return 0, nil
	}

	n := r.t.BytesAvailable()
	for n == 0 {
		if !r.t.IsConnected() {
			if err := r.reconnect(); err != nil {
				return r.fail(err)
			}
		}

		ready := r.t.WaitForReadyRead(r.PollInterval)
		if r.ctx.Err() != nil {
			r.done = true
			return 0, io.EOF
		}
		if ready {
			n = r.t.BytesAvailable()
			continue
		}

		err := r.t.LastError()
		switch {
		case errors.Is(err, device.ErrTimeout):
			// Nothing yet; poll again.
		case errors.Is(err, device.ErrRemoteClosed):
			log.Debug("host disconnected: %v", err)
			return r.fail(err)
		case err == nil && !r.t.IsConnected():
			// Dropped without a reason; the next pass reconnects.
		default:
			log.Debug("read failed: %v", err)
			return r.fail(err)
		}
	}

	if n > len(p) {
		n = len(p)
	}
	got, err := r.t.Read(p[:n])
	if err != nil {
		return r.fail(err)
	}
	if got <= 0 {
		return r.fail(ErrShortRead)
	}
	r.total += int64(got)
	metrics.BytesRead.Add(float64(got))
	return got, nil
}

func (r *Reader) reconnect() error {
	r.reconnects++
	err := r.connect(r.t)
	metrics.Reconnects.WithLabelValues(metrics.Result(err == nil)).Inc()
	if err != nil {
		log.Warn("reconnect failed: %v", err)
		return err
	}
	return nil
}

func (r *Reader) fail(err error) (int, error) {
	if err == nil {
		err = errors.New("stream: transport failed without error")
	}
	r.err = err
	r.done = true
	return 0, io.EOF
}

// Err returns the transport failure that ended the stream, if any.
func (r *Reader) Err() error {
	return r.err
}

// Reconnects returns the number of connection attempts made, the initial one
// included.
func (r *Reader) Reconnects() int {
	return r.reconnects
}

// BytesRead returns the number of bytes delivered so far.
func (r *Reader) BytesRead() int64 {
	return r.total
}

// Close marks the reader finished. The transport is left to its owner.
func (r *Reader) Close() error {
	r.done = true
	return nil
}
