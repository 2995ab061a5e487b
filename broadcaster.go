//////////////////////////////////////////////////////////////////////////////
//
// Broadcast frames from one capture task to multiple viewers.
//
// Each subscriber has its own channel. Emitted frames are shared, not copied;
// viewers must treat them as read-only. Once a subscriber's channel is full,
// the oldest frame is dropped for each new one, so a slow viewer always sees
// recent frames and never stalls the capture loop.
//
// Copyright 2019 Lanikai Labs LLC. All rights reserved.
//
//////////////////////////////////////////////////////////////////////////////

package alohacast

import (
	"sync"
)

type Subscriber interface {
	Subscribe(n int) <-chan *Frame
	Unsubscribe(s <-chan *Frame) error
}

// Broadcaster implements the FrameSink and Subscriber interfaces
type Broadcaster struct {
	mutex       sync.Mutex
	subscribers []chan *Frame
	closed      bool
}

// NewBroadcaster instantiates a new one-to-many frame broadcaster
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{}
}

// Close the broadcaster. All subscriber channels are drained and closed, and
// later frames are discarded.
func (b *Broadcaster) Close() error {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	for _, subscriber := range b.subscribers {
		for len(subscriber) > 0 {
			<-subscriber
		}
		close(subscriber)
	}
	b.subscribers = nil
	b.closed = true
	return nil
}

// Subscribe to broadcasts, buffering up to n frames for the subscriber
func (b *Broadcaster) Subscribe(n int) <-chan *Frame {
	if n < 1 {
		panic("malformed buffer size")
	}

	channel := make(chan *Frame, n)
	b.mutex.Lock()
	defer b.mutex.Unlock()
	if b.closed {
		close(channel)
	} else {
		b.subscribers = append(b.subscribers, channel)
	}
	return channel
}

// Unsubscribe from broadcaster by providing the read-only channel returned
// by Subscribe().
func (b *Broadcaster) Unsubscribe(s <-chan *Frame) error {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	subs := b.subscribers
	for i, subscriber := range subs {
		if s == subscriber {
			// Remove subscriber from slice (order not preserved)
			close(subs[i])
			subs[len(subs)-1], subs[i] = subs[i], subs[len(subs)-1]
			b.subscribers = subs[:len(subs)-1]
			return nil
		}
	}
	return errNotFound
}

// Emit hands f to every subscriber
func (b *Broadcaster) Emit(f *Frame) {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	for _, subscriber := range b.subscribers {
		for {
			select {
			case subscriber <- f:
			default:
				// Subscriber backlogged. Drop oldest frame and retry.
				select {
				case <-subscriber:
				default:
				}
				continue
			}
			break
		}
	}
}

// Subscribers returns the number of active subscribers.
func (b *Broadcaster) Subscribers() int {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	return len(b.subscribers)
}
