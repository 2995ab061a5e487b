package alohacast

import "github.com/pkg/errors"

var (
	// ErrCaptureFailed is returned by Task.Run when the capture ended because
	// of an error rather than cancellation. Details are logged.
	ErrCaptureFailed = errors.New("capture failed")

	ErrInvalidConfig = errors.New("invalid configuration")

	errUnknownMode = errors.New("unknown capture mode")
	errNotFound    = errors.New("not found")
)
