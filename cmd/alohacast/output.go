package main

import (
	"fmt"
	"image/png"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/lanikai/alohacast"
)

// pngWriter saves every frame it receives as a numbered PNG file.
type pngWriter struct {
	dir string
	enc png.Encoder
}

func newPNGWriter(dir string) (*pngWriter, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, errors.Wrap(err, "creating output directory")
	}
	return &pngWriter{
		dir: dir,
		enc: png.Encoder{CompressionLevel: png.BestSpeed},
	}, nil
}

func (w *pngWriter) Emit(f *alohacast.Frame) {
	if err := w.write(f); err != nil {
		log.Error("%v", err)
	}
}

func (w *pngWriter) write(f *alohacast.Frame) error {
	path := filepath.Join(w.dir, fmt.Sprintf("frame-%06d.png", f.Seq))
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := w.enc.Encode(file, f); err != nil {
		file.Close()
		return errors.Wrapf(err, "encoding %s", path)
	}
	return file.Close()
}
