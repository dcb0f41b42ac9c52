package chunk

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Sample arrays are stored as fixed-width little-endian blobs rather than
// JSON-stringified arrays: cheaper to write, and float64 values survive the
// round trip bit-for-bit.

func EncodeFloats(values []float64) []byte {
	out := make([]byte, 8*len(values))
	for i, v := range values {
		binary.LittleEndian.PutUint64(out[i*8:], math.Float64bits(v))
	}
	return out
}

func DecodeFloats(data []byte) ([]float64, error) {
	if len(data)%8 != 0 {
		return nil, fmt.Errorf("value blob length %d not a multiple of 8", len(data))
	}
	out := make([]float64, len(data)/8)
	for i := range out {
		out[i] = math.Float64frombits(binary.LittleEndian.Uint64(data[i*8:]))
	}
	return out, nil
}

func EncodeTimes(timestamps []int64) []byte {
	out := make([]byte, 8*len(timestamps))
	for i, ts := range timestamps {
		binary.LittleEndian.PutUint64(out[i*8:], uint64(ts))
	}
	return out
}

func DecodeTimes(data []byte) ([]int64, error) {
	if len(data)%8 != 0 {
		return nil, fmt.Errorf("timestamp blob length %d not a multiple of 8", len(data))
	}
	out := make([]int64, len(data)/8)
	for i := range out {
		out[i] = int64(binary.LittleEndian.Uint64(data[i*8:]))
	}
	return out, nil
}
