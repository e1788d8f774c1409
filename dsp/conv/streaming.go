package conv

// StreamingConvolver performs block-by-block convolution with persistent state.
//
// Implementations:
//   - Process fixed-size input blocks
//   - Maintain internal state for continuity between blocks
//   - Support zero-allocation processing via ProcessBlockTo
type StreamingConvolver interface {
	// ProcessBlockTo convolves input block and writes to pre-allocated output.
	// Both input and output must be of size BlockSize.
	ProcessBlockTo(output, input []float64) error

	// Reset clears internal state for processing a new signal stream.
	Reset()

	// BlockSize returns the expected input/output block size.
	BlockSize() int

	// KernelLen returns the convolution kernel length.
	KernelLen() int
}
