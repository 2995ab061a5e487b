package adb

import (
	"fmt"
	"io"
	"net"
	"strconv"

	errors "golang.org/x/xerrors"
)

// Status words of the adb host protocol.
const (
	statusOkay = "OKAY"
	statusFail = "FAIL"
)

// A RequestFailure is returned when the adb server or device rejects a
// service request.
type RequestFailure struct {
	Service string
	Message string
}

func (f *RequestFailure) Error() string {
	return fmt.Sprintf("adb request failure: %s => %s", f.Service, f.Message)
}

// request sends one length-prefixed service request and waits for its status.
func request(conn net.Conn, service string) error {
	if len(service) > 0xffff {
		return errors.Errorf("adb: service request too long (%d bytes)", len(service))
	}
	msg := fmt.Sprintf("%04x%s", len(service), service)
	if _, err := io.WriteString(conn, msg); err != nil {
		return errors.Errorf("adb: sending %q: %w", service, err)
	}
	return readStatus(conn, service)
}

func readStatus(r io.Reader, service string) error {
	var status [4]byte
	if _, err := io.ReadFull(r, status[:]); err != nil {
		return errors.Errorf("adb: reading status of %q: %w", service, err)
	}
	switch string(status[:]) {
	case statusOkay:
		return nil
	case statusFail:
		msg, err := readMessage(r)
		if err != nil {
			return errors.Errorf("adb: reading failure of %q: %w", service, err)
		}
		return &RequestFailure{Service: service, Message: msg}
	}
	return errors.Errorf("adb: unexpected status %q for %q", status[:], service)
}

// readMessage reads a hex length-prefixed string.
func readMessage(r io.Reader) (string, error) {
	var hdr [4]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return "", err
	}
	n, err := strconv.ParseUint(string(hdr[:]), 16, 16)
	if err != nil {
		return "", errors.Errorf("adb: bad length %q", hdr[:])
	}
	msg := make([]byte, n)
	if _, err := io.ReadFull(r, msg); err != nil {
		return "", err
	}
	return string(msg), nil
}

// transportService selects the device a connection talks to.
func transportService(serial string) string {
	if serial == "" {
		return "host:transport-any"
	}
	return "host:transport:" + serial
}
