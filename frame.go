package alohacast

import (
	"time"

	"github.com/lanikai/alohacast/internal/media"
)

// Frame is one converted picture delivered to the consumer: packed RGB, 3
// bytes per pixel, rows padded to Stride. The consumer owns it; the capture
// task keeps no reference after emitting.
type Frame struct {
	*media.RGB

	// Seq numbers frames of one task from zero, in emission order.
	Seq uint64

	Timestamp time.Time
}

func (f *Frame) Width() int  { return f.Rect.Dx() }
func (f *Frame) Height() int { return f.Rect.Dy() }
