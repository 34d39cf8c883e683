package embedding

import (
	"encoding/binary"
	"fmt"
	"math"
)

// The faces table stores embeddings as raw IEEE-754 32-bit floats in
// little-endian byte order. The enrollment tooling writes the column with
// numpy's tobytes(), so the layout is an interop contract, not a choice.

// Encode serializes a float32 vector into its persisted blob form.
func Encode(vec []float32) []byte {
	buf := make([]byte, 4*len(vec))
	for i, v := range vec {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}

// Decode parses a persisted blob back into a float32 vector.
func Decode(blob []byte) ([]float32, error) {
	if len(blob)%4 != 0 {
		return nil, fmt.Errorf("embedding blob length %d is not a multiple of 4", len(blob))
	}
	vec := make([]float32, len(blob)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(blob[i*4:]))
	}
	return vec, nil
}

// DecodeWithDim parses a blob and verifies it matches the expected
// dimensionality of the extraction model.
func DecodeWithDim(blob []byte, dim int) ([]float32, error) {
	vec, err := Decode(blob)
	if err != nil {
		return nil, err
	}
	if len(vec) != dim {
		return nil, fmt.Errorf("embedding has %d dimensions, expected %d", len(vec), dim)
	}
	return vec, nil
}
