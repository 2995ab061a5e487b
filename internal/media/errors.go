//////////////////////////////////////////////////////////////////////////////
//
// Media errors
//
// Copyright 2019 Lanikai Labs LLC. All rights reserved.
//
//////////////////////////////////////////////////////////////////////////////

package media

import "github.com/pkg/errors"

var (
	// ErrAgain is returned when an operation would block: the decoder needs
	// more input, or output must be received before more input is accepted.
	ErrAgain = errors.New("media: resource temporarily unavailable")

	ErrUnrecognizedFormat = errors.New("media: unrecognized container format")
	ErrNoDecoder          = errors.New("media: no decoder for codec")
	ErrNoVideoStream      = errors.New("media: no decodable video stream")
	ErrMissingParameters  = errors.New("media: stream parameters not found")
)
