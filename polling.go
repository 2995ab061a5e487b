package alohacast

import (
	"context"
	"image"
	"image/color"
	"image/draw"
	"time"

	"github.com/lanikai/alohacast/internal/device"
	"github.com/lanikai/alohacast/internal/media"
)

// poll emits one screenshot per interval until ctx is cancelled or Count
// screenshots have been taken. While the screen is off a black frame of the
// target size is emitted instead.
func (t *Task) poll(ctx context.Context, snap device.Snapshotter) bool {
	var fetch func() (image.Image, error)
	switch t.cfg.Mode {
	case ModePollingRaw:
		fetch = snap.FetchScreenRaw
	case ModePollingJPEG:
		fetch = snap.FetchScreenJPEG
	case ModePollingPNG:
		fetch = snap.FetchScreenPNG
	}

	for i := 0; t.cfg.Count == 0 || i < t.cfg.Count; i++ {
		if ctx.Err() != nil {
			return true
		}

		img := t.blank()
		if snap.IsScreenAwake() {
			shot, err := fetch()
			if err != nil {
				log.Warn("%v screenshot failed: %v", t.cfg.Mode, err)
			} else {
				img = shot
			}
		}
		t.emit(media.ScaleToWidth(img, t.cfg.Width))

		if !sleep(ctx, t.cfg.PollInterval) {
			return true
		}
	}
	return true
}

// blank returns an opaque black image of the target size.
func (t *Task) blank() image.Image {
	img := image.NewRGBA(image.Rect(0, 0, t.cfg.Width, t.cfg.Height))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.Black), image.Point{}, draw.Src)
	return img
}

// sleep waits for d and reports whether ctx is still live afterwards.
func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return ctx.Err() == nil
	case <-ctx.Done():
		return false
	}
}
