// Package compression provides the payload codecs used by the event journal.
// A journal must be reopened with the codec it was written with; the codec
// name is part of the node configuration.
package compression

import (
	"errors"
	"fmt"
	"slices"
)

var ErrUnknownCompressor = errors.New("unknown compressor")

// Compressor turns a journal payload into a stored frame and back.
type Compressor interface {
	Name() string
	Compress(data []byte) ([]byte, error)
	Decompress(frame []byte) ([]byte, error)
}

// codecs is fixed at build time; both implementations are stateless.
var codecs = map[string]Compressor{
	"none": &NoCompressor{},
	"lz4":  &LZ4Compressor{},
}

// Get returns the compressor registered as name.
func Get(name string) (Compressor, error) {
	c, ok := codecs[name]
	if !ok {
		return nil, fmt.Errorf("%w %q (available: %v)", ErrUnknownCompressor, name, Available())
	}
	return c, nil
}

// Available returns the sorted compressor names.
func Available() []string {
	names := make([]string, 0, len(codecs))
	for name := range codecs {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

func IsAvailable(name string) bool {
	_, ok := codecs[name]
	return ok
}
