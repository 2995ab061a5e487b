package stream

import (
	"context"
	"io"
	"io/ioutil"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lanikai/alohacast/internal/device"
	"github.com/lanikai/alohacast/internal/device/devicetest"
)

func TestReadDeliversStreamThenEOF(t *testing.T) {
	payload := make([]byte, 10000)
	for i := range payload {
		payload[i] = byte(i)
	}
	tr := devicetest.NewTransport(payload)
	tr.End = device.ErrRemoteClosed

	r := NewReader(context.Background(), tr, StartCapture(640, 480))
	got, err := ioutil.ReadAll(r)
	require.NoError(t, err)

	assert.Equal(t, payload, got)
	assert.Equal(t, 1, tr.Connects)
	require.Len(t, tr.Sent, 1)
	assert.Equal(t, string(device.CaptureCommand(640, 480)), string(tr.Sent[0]))
	assert.True(t, errors.Is(r.Err(), device.ErrRemoteClosed))
	assert.EqualValues(t, len(payload), r.BytesRead())
}

func TestReadNeverExceedsBuffer(t *testing.T) {
	tr := devicetest.NewTransport(make([]byte, 100))
	tr.End = device.ErrRemoteClosed
	r := NewReader(context.Background(), tr, StartCapture(1, 1))

	buf := make([]byte, 7)
	for {
		n, err := r.Read(buf)
		if err == io.EOF {
			assert.Zero(t, n)
			break
		}
		assert.True(t, n >= 1 && n <= len(buf), "n = %d", n)
	}
}

func TestReconnectFailureEndsStream(t *testing.T) {
	tr := devicetest.NewTransport()
	tr.ConnectErr = errors.New("no device")
	r := NewReader(context.Background(), tr, StartCapture(1, 1))

	n, err := r.Read(make([]byte, 16))
	assert.Zero(t, n)
	assert.Equal(t, io.EOF, err)
	assert.Error(t, r.Err())
	assert.Equal(t, 1, r.Reconnects())
}

func TestOtherTransportErrorIsTerminal(t *testing.T) {
	tr := devicetest.NewTransport([]byte{})
	tr.End = errors.New("connection reset")
	r := NewReader(context.Background(), tr, StartCapture(1, 1))

	_, err := r.Read(make([]byte, 16))
	assert.Equal(t, io.EOF, err)
	assert.EqualError(t, r.Err(), "connection reset")
}

func TestCancellationObservedWithinPollInterval(t *testing.T) {
	tr := devicetest.NewTransport([]byte{})
	tr.Wait = 20 * time.Millisecond // keeps timing out
	ctx, cancel := context.WithCancel(context.Background())
	r := NewReader(ctx, tr, StartCapture(1, 1))
	r.PollInterval = 20 * time.Millisecond

	done := make(chan time.Time)
	go func() {
		r.Read(make([]byte, 16))
		done <- time.Now()
	}()

	time.Sleep(60 * time.Millisecond)
	cancelled := time.Now()
	cancel()

	select {
	case at := <-done:
		assert.True(t, at.Sub(cancelled) <= 2*r.PollInterval+10*time.Millisecond)
	case <-time.After(time.Second):
		t.Fatal("cancellation not observed")
	}
	assert.NoError(t, r.Err())
}
