package compression

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompressors(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{name: "empty", data: []byte{}},
		{name: "short", data: []byte("x")},
		{name: "repetitive", data: bytes.Repeat([]byte(`{"name":"StakeEvent","amount":10000000}`), 64)},
		{name: "incompressible", data: []byte{0x9f, 0x01, 0xee, 0x42, 0x17, 0x88, 0x3c, 0xd0}},
	}

	for _, name := range Available() {
		c, err := Get(name)
		require.NoError(t, err)
		for _, tt := range tests {
			t.Run(name+"/"+tt.name, func(t *testing.T) {
				out, err := c.Compress(tt.data)
				require.NoError(t, err)
				back, err := c.Decompress(out)
				require.NoError(t, err)
				assert.Equal(t, len(tt.data), len(back))
				assert.True(t, bytes.Equal(tt.data, back))
			})
		}
	}
}

func TestLZ4ShrinksRepetitiveInput(t *testing.T) {
	data := bytes.Repeat([]byte("backing_sol_value"), 200)
	out, err := (&LZ4Compressor{}).Compress(data)
	require.NoError(t, err)
	assert.Less(t, len(out), len(data)/4)
}

func TestLZ4RejectsCorruptFrames(t *testing.T) {
	c := &LZ4Compressor{}
	_, err := c.Decompress([]byte{7})
	require.ErrorIs(t, err, ErrCorruptFrame)

	_, err = c.Decompress([]byte{9, 3, 1, 2, 3})
	require.ErrorIs(t, err, ErrCorruptFrame)

	_, err = c.Decompress([]byte{frameRaw, 5, 1})
	require.ErrorIs(t, err, ErrCorruptFrame)
}

func TestUnknownCompressor(t *testing.T) {
	_, err := Get("zstd")
	require.ErrorIs(t, err, ErrUnknownCompressor)
	assert.False(t, IsAvailable("zstd"))
	assert.Equal(t, []string{"lz4", "none"}, Available())
}
