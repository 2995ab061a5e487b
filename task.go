package alohacast

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/lanikai/alohacast/internal/device"
	"github.com/lanikai/alohacast/internal/media"
	"github.com/lanikai/alohacast/internal/metrics"
)

// DisconnectTimeout bounds the wait for the device connection to close when
// a task ends.
var DisconnectTimeout = 3 * time.Second

// Dialer creates the connection object of a task. It must not connect; the
// task connects when it needs to.
type Dialer func() device.Conn

// Task captures frames from one device and emits them to a sink. A Task runs
// once; all of its work happens on the goroutine calling Run.
type Task struct {
	cfg  Config
	dial Dialer
	sink FrameSink

	pipeline     pipeline
	pollInterval time.Duration // of the byte source

	once sync.Once
	seq  uint64
}

// NewTask returns a task with the given settings. cfg is copied.
func NewTask(cfg Config, dial Dialer, sink FrameSink) (*Task, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if dial == nil || sink == nil {
		return nil, errors.New("alohacast: nil dialer or sink")
	}
	return &Task{
		cfg:      cfg,
		dial:     dial,
		sink:     sink,
		pipeline: defaultPipeline,
	}, nil
}

// Config returns the task's settings.
func (t *Task) Config() Config {
	return t.cfg
}

// Run creates the device connection, captures until ctx is cancelled or the
// capture ends, then closes the connection and waits for it to go down.
// It returns nil when the capture ended normally or was cancelled, and
// ErrCaptureFailed otherwise. Run may only be called once.
func (t *Task) Run(ctx context.Context) error {
	err := errors.New("alohacast: task already run")
	t.once.Do(func() {
		err = t.run(ctx)
	})
	return err
}

func (t *Task) run(ctx context.Context) error {
	conn := t.dial()
	defer func() {
		if err := conn.Close(); err != nil {
			log.Warn("closing connection: %v", err)
		}
		if !conn.WaitForDisconnected(DisconnectTimeout) {
			log.Warn("device did not disconnect within %v", DisconnectTimeout)
		}
	}()

	var ok bool
	switch {
	case t.cfg.Mode == ModeStreaming:
		ok = t.stream(ctx, conn)
	case t.cfg.Mode.IsPolling():
		ok = t.poll(ctx, conn)
	default:
		return errors.Wrapf(errUnknownMode, "%v", t.cfg.Mode)
	}

	metrics.Sessions.WithLabelValues(metrics.Result(ok)).Inc()
	if !ok {
		return ErrCaptureFailed
	}
	return nil
}

// emit wraps img into the next frame and hands it to the sink.
func (t *Task) emit(img *media.RGB) {
	f := &Frame{
		RGB:       img,
		Seq:       t.seq,
		Timestamp: time.Now(),
	}
	t.seq++
	t.sink.Emit(f)
	metrics.FramesEmitted.WithLabelValues(t.cfg.Mode.String()).Inc()
}
