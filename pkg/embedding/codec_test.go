package embedding

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncodeIsLittleEndian(t *testing.T) {
	// 1.0 as IEEE-754 float32 is 0x3F800000; little-endian on the wire.
	blob := Encode([]float32{1.0})
	require.Equal(t, []byte{0x00, 0x00, 0x80, 0x3F}, blob)
}

func TestDecodeRoundTrip(t *testing.T) {
	vec := []float32{0.25, -1.5, 0, 3.75}
	got, err := Decode(Encode(vec))
	require.NoError(t, err)
	require.Equal(t, vec, got)
}

func TestDecodeRejectsTruncatedBlob(t *testing.T) {
	_, err := Decode([]byte{0x00, 0x00, 0x80})
	require.Error(t, err)
}

func TestDecodeWithDim(t *testing.T) {
	blob := Encode(make([]float32, 512))

	vec, err := DecodeWithDim(blob, 512)
	require.NoError(t, err)
	require.Len(t, vec, 512)

	_, err = DecodeWithDim(blob, 128)
	require.Error(t, err)
}
