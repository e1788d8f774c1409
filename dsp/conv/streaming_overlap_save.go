package conv

import (
	"fmt"

	algofft "github.com/MeKo-Christian/algo-fft"
)

// StreamingOverlapSave implements streaming FFT-based convolution using overlap-save.
//
// Each block is convolved together with the last kernelLen-1 input samples of
// the previous blocks; the wrap-around part of the circular convolution is
// discarded. Output is the exact linear convolution, so a block-wise run
// matches [Direct] on the concatenated input.
type StreamingOverlapSave struct {
	// Kernel in frequency domain, shared between clones.
	kernelFFT []complex128

	kernelLen int
	blockSize int
	fftSize   int

	// FFT plan, shared between clones.
	plan *algofft.Plan[complex128]

	work []complex128

	// Input history (last kernelLen-1 samples for overlap)
	history []float64
}

var _ StreamingConvolver = (*StreamingOverlapSave)(nil)

// NewStreamingOverlapSave creates a streaming overlap-save convolver.
// blockSize is the fixed size of input and output blocks.
func NewStreamingOverlapSave(kernel []float64, blockSize int) (*StreamingOverlapSave, error) {
	if len(kernel) == 0 {
		return nil, ErrEmptyKernel
	}
	if blockSize <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidBlockSize, blockSize)
	}

	kernelLen := len(kernel)
	fftSize := nextPowerOf2(blockSize + kernelLen - 1)

	plan, err := algofft.NewPlan64(fftSize)
	if err != nil {
		return nil, fmt.Errorf("conv: failed to create FFT plan: %w", err)
	}

	kernelFFT := make([]complex128, fftSize)
	for i, v := range kernel {
		kernelFFT[i] = complex(v, 0)
	}

	if err := plan.Forward(kernelFFT, kernelFFT); err != nil {
		return nil, fmt.Errorf("conv: failed to compute kernel FFT: %w", err)
	}

	return &StreamingOverlapSave{
		kernelFFT: kernelFFT,
		kernelLen: kernelLen,
		blockSize: blockSize,
		fftSize:   fftSize,
		plan:      plan,
		work:      make([]complex128, fftSize),
		history:   make([]float64, kernelLen-1),
	}, nil
}

// Clone returns an independent convolver with cleared history that shares the
// kernel spectrum and FFT plan. Clones must not run concurrently with each
// other.
func (sos *StreamingOverlapSave) Clone() *StreamingOverlapSave {
	return &StreamingOverlapSave{
		kernelFFT: sos.kernelFFT,
		kernelLen: sos.kernelLen,
		blockSize: sos.blockSize,
		fftSize:   sos.fftSize,
		plan:      sos.plan,
		work:      make([]complex128, sos.fftSize),
		history:   make([]float64, sos.kernelLen-1),
	}
}

// ProcessBlockTo convolves input block and writes to pre-allocated output.
// Both input and output must be of size blockSize. output may alias input.
func (sos *StreamingOverlapSave) ProcessBlockTo(output, input []float64) error {
	if len(input) != sos.blockSize {
		return fmt.Errorf("%w: expected %d input samples, got %d", ErrLengthMismatch, sos.blockSize, len(input))
	}
	if len(output) != sos.blockSize {
		return fmt.Errorf("%w: expected %d output samples, got %d", ErrLengthMismatch, sos.blockSize, len(output))
	}

	// work = [history | input | zero padding]
	h := len(sos.history)
	for i, v := range sos.history {
		sos.work[i] = complex(v, 0)
	}
	for i, v := range input {
		sos.work[h+i] = complex(v, 0)
	}
	clear(sos.work[h+sos.blockSize:])

	// History must be updated before output is written, output may alias input.
	if sos.blockSize >= h {
		copy(sos.history, input[sos.blockSize-h:])
	} else {
		copy(sos.history, sos.history[sos.blockSize:])
		copy(sos.history[h-sos.blockSize:], input)
	}

	if err := sos.plan.Forward(sos.work, sos.work); err != nil {
		return fmt.Errorf("conv: forward FFT failed: %w", err)
	}

	for i, k := range sos.kernelFFT {
		sos.work[i] *= k
	}

	if err := sos.plan.Inverse(sos.work, sos.work); err != nil {
		return fmt.Errorf("conv: inverse FFT failed: %w", err)
	}

	// Discard the first kernelLen-1 samples (circular wrap-around).
	for i := range output {
		output[i] = real(sos.work[h+i])
	}

	return nil
}

// Reset clears the history buffer (overlap state from previous blocks).
func (sos *StreamingOverlapSave) Reset() {
	clear(sos.history)
}

// BlockSize returns the block size.
func (sos *StreamingOverlapSave) BlockSize() int {
	return sos.blockSize
}

// KernelLen returns the kernel length.
func (sos *StreamingOverlapSave) KernelLen() int {
	return sos.kernelLen
}

