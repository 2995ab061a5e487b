// Package adb talks to Android devices through a local adb server, using the
// adb host protocol over TCP.
package adb

import (
	"bytes"
	"io"
	"net"
	"sync"
	"time"

	errors "golang.org/x/xerrors"

	"github.com/lanikai/alohacast/internal/device"
	"github.com/lanikai/alohacast/internal/logging"
)

var log = logging.DefaultLogger.WithTag("adb")

// DefaultAddress is where the adb server listens unless configured otherwise.
const DefaultAddress = "127.0.0.1:5037"

const readChunkSize = 64 * 1024

// Client is a connection to one device through the adb server. As a
// device.Transport it carries a single long-running service stream; the
// screenshot methods use short-lived connections of their own.
type Client struct {
	// Address of the adb server.
	Address string

	// Serial number of the device. Empty selects the only attached device.
	Serial string

	DialTimeout time.Duration

	conn      net.Conn
	connected bool
	pending   []byte
	lastErr   error
	chunk     []byte

	// Guards conn against Close from another goroutine.
	mu sync.Mutex
}

var _ device.Conn = (*Client)(nil)

// NewClient returns an unconnected client for the given device.
func NewClient(address, serial string) *Client {
	if address == "" {
		address = DefaultAddress
	}
	return &Client{
		Address:     address,
		Serial:      serial,
		DialTimeout: 5 * time.Second,
	}
}

// dial opens a connection to the adb server and binds it to the device.
func (c *Client) dial() (net.Conn, error) {
	conn, err := net.DialTimeout("tcp", c.Address, c.DialTimeout)
	if err != nil {
		return nil, errors.Errorf("adb: connecting to server: %w", err)
	}
	if err := request(conn, transportService(c.Serial)); err != nil {
		conn.Close()
		return nil, err
	}
	return conn, nil
}

// Connect opens a fresh connection, dropping any previous one.
func (c *Client) Connect() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn != nil {
		c.conn.Close()
	}
	c.pending = c.pending[:0]
	c.lastErr = nil

	conn, err := c.dial()
	if err != nil {
		c.conn, c.connected, c.lastErr = nil, false, err
		return err
	}
	c.conn, c.connected = conn, true
	log.Debug("connected to %s via %s", c.device(), c.Address)
	return nil
}

func (c *Client) device() string {
	if c.Serial == "" {
		return "default device"
	}
	return c.Serial
}

// Send issues a service request, e.g. "shell:ls", on the open connection.
// The service's output then becomes readable.
func (c *Client) Send(service []byte) error {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return errors.New("adb: not connected")
	}
	if err := request(conn, string(service)); err != nil {
		c.lastErr = err
		return err
	}
	return nil
}

// Read copies buffered data into p.
func (c *Client) Read(p []byte) (int, error) {
	n := copy(p, c.pending)
	c.pending = c.pending[:copy(c.pending, c.pending[n:])]
	return n, nil
}

func (c *Client) BytesAvailable() int {
	return len(c.pending)
}

func (c *Client) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

// WaitForReadyRead waits up to timeout for more data from the device.
func (c *Client) WaitForReadyRead(timeout time.Duration) bool {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		c.lastErr = errors.Errorf("adb: not connected: %w", device.ErrRemoteClosed)
		return false
	}

	if c.chunk == nil {
		c.chunk = make([]byte, readChunkSize)
	}
	conn.SetReadDeadline(time.Now().Add(timeout))
	n, err := conn.Read(c.chunk)
	if n > 0 {
		c.pending = append(c.pending, c.chunk[:n]...)
		c.lastErr = nil
		return true
	}
	c.lastErr = classify(err)
	if errors.Is(c.lastErr, device.ErrRemoteClosed) {
		c.mu.Lock()
		c.connected = false
		c.mu.Unlock()
	}
	return false
}

// classify maps socket errors onto the device error classes.
func classify(err error) error {
	var netErr net.Error
	switch {
	case err == nil:
		return device.ErrTimeout
	case err == io.EOF:
		return errors.Errorf("adb: %w", device.ErrRemoteClosed)
	case errors.As(err, &netErr) && netErr.Timeout():
		return device.ErrTimeout
	}
	return errors.Errorf("adb: %w", err)
}

func (c *Client) LastError() error {
	return c.lastErr
}

// Close shuts the connection down. It may be called from any goroutine.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.connected = false
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	return err
}

// WaitForDisconnected reports whether the connection is down. Closing a TCP
// connection completes immediately, so this never waits.
func (c *Client) WaitForDisconnected(timeout time.Duration) bool {
	return !c.IsConnected()
}

// run executes a command on the device and returns its complete output. The
// binary-safe exec service is tried first, then the shell service.
func (c *Client) run(command string) ([]byte, error) {
	out, err := c.runService("exec:" + command)
	var failure *RequestFailure
	if errors.As(err, &failure) {
		log.Debug("exec unavailable (%s), falling back to shell", failure.Message)
		out, err = c.runService("shell:" + command)
	}
	return out, err
}

func (c *Client) runService(service string) ([]byte, error) {
	conn, err := c.dial()
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	if err := request(conn, service); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(conn); err != nil {
		return nil, errors.Errorf("adb: reading output of %q: %w", service, err)
	}
	return buf.Bytes(), nil
}
