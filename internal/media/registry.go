package media

import (
	"sort"
	"sync"

	"github.com/nareix/joy4/av"
	"github.com/pkg/errors"
)

// An OpenDecoderFunc opens a decoder for one stream, described by its codec data.
type OpenDecoderFunc func(codec av.CodecData) (Decoder, error)

var (
	registryMu sync.RWMutex
	registry   = map[av.CodecType]OpenDecoderFunc{}
)

// RegisterDecoder makes a decoder implementation available for a codec type.
// Decoder packages call it from init.
func RegisterDecoder(typ av.CodecType, open OpenDecoderFunc) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[typ] = open
}

// FindDecoder returns the opener registered for typ.
func FindDecoder(typ av.CodecType) (OpenDecoderFunc, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	open, ok := registry[typ]
	return open, ok
}

// OpenDecoder opens a registered decoder for the given stream.
func OpenDecoder(codec av.CodecData) (Decoder, error) {
	open, ok := FindDecoder(codec.Type())
	if !ok {
		return nil, errors.Wrapf(ErrNoDecoder, "%v", codec.Type())
	}
	return open(codec)
}

// RegisteredDecoders lists codec types with a registered decoder, for debugging.
func RegisteredDecoders() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	var names []string
	for typ := range registry {
		names = append(names, typ.String())
	}
	sort.Strings(names)
	return names
}
