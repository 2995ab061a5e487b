//////////////////////////////////////////////////////////////////////////////
//
// Frame queue between the capture goroutine and its consumer
//
// Copyright 2019 Lanikai Labs LLC. All rights reserved.
//
//////////////////////////////////////////////////////////////////////////////

package alohacast

import (
	"context"
	"io"
	"sync"
)

// FrameSink receives emitted frames. Emit must not block the capture loop.
type FrameSink interface {
	Emit(f *Frame)
}

// FrameSinkFunc adapts a function to FrameSink.
type FrameSinkFunc func(f *Frame)

func (fn FrameSinkFunc) Emit(f *Frame) { fn(f) }

// FrameQueue is an unbounded FIFO of frames. Emit never blocks and never
// drops; a slow consumer lets frames pile up.
type FrameQueue struct {
	mu     sync.Mutex
	frames []*Frame
	closed bool

	// Signalled, without blocking, when frames are added or the queue closes.
	ready chan struct{}
}

// NewFrameQueue returns an empty queue.
func NewFrameQueue() *FrameQueue {
	return &FrameQueue{
		ready: make(chan struct{}, 1),
	}
}

// Emit appends f to the queue. Frames emitted after Close are discarded.
func (q *FrameQueue) Emit(f *Frame) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.frames = append(q.frames, f)
	q.signal()
}

func (q *FrameQueue) signal() {
	select {
	case q.ready <- struct{}{}:
	default:
	}
}

// Next removes and returns the oldest frame, blocking until one is available.
// It returns io.EOF once the queue is closed and empty.
func (q *FrameQueue) Next(ctx context.Context) (*Frame, error) {
	for {
		q.mu.Lock()
		if len(q.frames) > 0 {
			f := q.frames[0]
			q.frames[0] = nil
			q.frames = q.frames[1:]
			q.mu.Unlock()
			return f, nil
		}
		closed := q.closed
		q.mu.Unlock()
		if closed {
			return nil, io.EOF
		}

		select {
		case <-q.ready:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// Len returns the number of queued frames.
func (q *FrameQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.frames)
}

// Close marks the end of the stream. Frames already queued can still be read.
func (q *FrameQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
	q.signal()
	return nil
}

type multiSink []FrameSink

func (m multiSink) Emit(f *Frame) {
	for _, s := range m {
		s.Emit(f)
	}
}

// MultiSink returns a sink that emits each frame to every one of sinks, in
// order.
func MultiSink(sinks ...FrameSink) FrameSink {
	return multiSink(append([]FrameSink(nil), sinks...))
}
