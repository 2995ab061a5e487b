package alohacast

import (
	"context"

	"github.com/pkg/errors"

	"github.com/lanikai/alohacast/internal/device"
	"github.com/lanikai/alohacast/internal/metrics"
	"github.com/lanikai/alohacast/internal/stream"
)

// stream runs one streaming session over conn. The connection is made on the
// first read. It reports whether the session ended without error.
func (t *Task) stream(ctx context.Context, conn device.Transport) bool {
	src := stream.NewReader(ctx, conn, stream.StartCapture(t.cfg.Width, t.cfg.Height))
	if t.pollInterval > 0 {
		src.PollInterval = t.pollInterval
	}

	s, err := openSession(src, t.cfg.Width, t.cfg.Height, t.pipeline)
	if err != nil {
		if ctx.Err() != nil && src.Err() == nil {
			log.Debug("cancelled before the stream started")
			return true
		}
		logSessionError(err, src.Err())
		return false
	}
	defer s.close()

	metrics.Streaming.Set(1)
	defer metrics.Streaming.Set(0)

	err = s.run(ctx, t.emit)
	if err != nil {
		metrics.DecodeErrors.Inc()
	}
	s.log.Debug("session over after %d bytes, %d connection attempts", src.BytesRead(), src.Reconnects())
	if err == nil && src.Err() == nil {
		return true
	}
	logSessionError(err, src.Err())
	return false
}

// logSessionError reports why a session failed. A closed connection and other
// transport failures are told apart.
func logSessionError(err, transportErr error) {
	switch {
	case errors.Is(transportErr, device.ErrRemoteClosed):
		log.Warn("device closed the stream: %v", transportErr)
	case transportErr != nil:
		log.Error("stream read failed: %v", transportErr)
	}
	if err != nil {
		log.Error("streaming: %v", err)
	}
}
