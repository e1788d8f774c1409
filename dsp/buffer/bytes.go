package buffer

import (
	"encoding/binary"
	"math"
)

// DecodeFloat32LE decodes little-endian float32 samples from src into dst
// and returns the number of samples decoded.
func DecodeFloat32LE(dst []float32, src []byte) int {
	n := min(len(dst), len(src)/4)
	for i := range n {
		dst[i] = math.Float32frombits(binary.LittleEndian.Uint32(src[4*i:]))
	}
	return n
}

// EncodeFloat32LE encodes src as little-endian float32 into dst and returns
// the number of samples encoded.
func EncodeFloat32LE(dst []byte, src []float32) int {
	n := min(len(src), len(dst)/4)
	for i := range n {
		binary.LittleEndian.PutUint32(dst[4*i:], math.Float32bits(src[i]))
	}
	return n
}
