// Package devicetest provides in-memory device collaborators for tests.
package devicetest

import (
	"image"
	"image/color"
	"sync"
	"time"

	"github.com/lanikai/alohacast/internal/device"
)

// Transport is a scripted device.Transport. Each Connect makes the next queued
// stream readable; once a stream is exhausted the transport reports End.
type Transport struct {
	mu sync.Mutex

	// Streams queued for successive connections.
	streams [][]byte

	// End is reported by LastError once the current stream is drained. Nil
	// means the transport keeps timing out.
	End error

	// ConnectErr, if set, fails every Connect.
	ConnectErr error

	// Chunk caps how many bytes become available per WaitForReadyRead.
	Chunk int

	// Wait is slept on every WaitForReadyRead that times out.
	Wait time.Duration

	connected bool
	data      []byte
	avail     int
	lastErr   error

	Connects     int
	Sent         [][]byte
	Closed       bool
	Disconnected bool
	Waits        int
}

// NewTransport returns a transport that serves each stream on its own connection.
func NewTransport(streams ...[]byte) *Transport {
	return &Transport{streams: streams, Chunk: 4096}
}

func (t *Transport) Connect() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.Connects++
	if t.ConnectErr != nil {
		return t.ConnectErr
	}
	t.connected = true
	t.data, t.avail = nil, 0
	if len(t.streams) > 0 {
		t.data, t.streams = t.streams[0], t.streams[1:]
	}
	return nil
}

func (t *Transport) Send(cmd []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.Sent = append(t.Sent, append([]byte(nil), cmd...))
	return nil
}

func (t *Transport) Read(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	n := copy(p, t.data[:t.avail])
	t.data = t.data[n:]
	t.avail -= n
	return n, nil
}

func (t *Transport) BytesAvailable() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.avail
}

func (t *Transport) IsConnected() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.connected
}

func (t *Transport) WaitForReadyRead(timeout time.Duration) bool {
	t.mu.Lock()
	t.Waits++
	if t.connected && len(t.data) > t.avail {
		t.avail += t.Chunk
		if t.avail > len(t.data) {
			t.avail = len(t.data)
		}
		t.mu.Unlock()
		return true
	}
	if !t.connected || t.End == nil {
		t.lastErr = device.ErrTimeout
		wait := t.Wait
		if wait > timeout {
			wait = timeout
		}
		t.mu.Unlock()
		time.Sleep(wait)
		return false
	}
	t.lastErr = t.End
	t.mu.Unlock()
	return false
}

func (t *Transport) LastError() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.lastErr
}

func (t *Transport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.Closed = true
	t.connected = false
	return nil
}

func (t *Transport) WaitForDisconnected(timeout time.Duration) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.Disconnected = !t.connected
	return t.Disconnected
}

// Screen is a scripted device.Snapshotter.
type Screen struct {
	mu sync.Mutex

	Awake bool

	// Image returned by every fetch.
	Image image.Image
	Err   error

	Fetches map[string]int
}

// NewScreen returns an awake screen showing a solid image of the given size.
func NewScreen(width, height int, c color.Color) *Screen {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for i := 0; i < len(img.Pix); i += 4 {
		r, g, b, a := c.RGBA()
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = uint8(r>>8), uint8(g>>8), uint8(b>>8), uint8(a>>8)
	}
	return &Screen{Awake: true, Image: img, Fetches: map[string]int{}}
}

func (s *Screen) fetch(kind string) (image.Image, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Fetches[kind]++
	return s.Image, s.Err
}

func (s *Screen) FetchScreenRaw() (image.Image, error)  { return s.fetch("raw") }
func (s *Screen) FetchScreenJPEG() (image.Image, error) { return s.fetch("jpeg") }
func (s *Screen) FetchScreenPNG() (image.Image, error)  { return s.fetch("png") }

func (s *Screen) IsScreenAwake() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Awake
}

// Conn combines a fake transport and screen into a device.Conn.
type Conn struct {
	*Transport
	*Screen
}

var _ device.Conn = Conn{}
