//////////////////////////////////////////////////////////////////////////////
//
// Media decoder interface for codecs
//
// Copyright 2019 Lanikai Labs LLC. All rights reserved.
//
//////////////////////////////////////////////////////////////////////////////

package media

import (
	"image"
	"io"

	"github.com/nareix/joy4/av"
)

// Decoder turns compressed packets of one stream into pictures. It follows
// the send/receive model: a packet may yield zero or more frames, and frames
// may lag behind their packets (B-frame reordering).
type Decoder interface {
	io.Closer

	// SendPacket submits one packet. A nil packet signals end of input and
	// puts the decoder into draining mode. ErrAgain means pending frames must
	// be received first.
	SendPacket(pkt *av.Packet) error

	// ReceiveFrame returns the next decoded picture. It returns ErrAgain when
	// more input is needed, and io.EOF once a drain has completed. The image
	// is only valid until the next call.
	ReceiveFrame() (image.Image, error)
}
