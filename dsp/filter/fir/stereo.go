package fir

import (
	"fmt"

	"github.com/cwbudde/algo-crystalizer/dsp/conv"
)

// directTaps is the longest kernel the stereo runtime runs in direct form;
// longer kernels go through FFT overlap-save.
const directTaps = 64

// Stereo is a named, stateful FIR block filter for interleaved stereo
// float32 audio. Both channels share one kernel and keep separate history.
//
// A Stereo starts out not ready. One of the Create methods designs the
// kernel for a block length and sample rate and makes it ready; Finish
// releases it again.
type Stereo struct {
	name string

	kernel    []float64
	blockSize int
	ready     bool

	left, right conv.StreamingConvolver

	scratchL []float64
	scratchR []float64
}

// NewStereo returns an unconfigured stereo filter.
func NewStereo(name string) *Stereo {
	return &Stereo{name: name}
}

// Name returns the filter name.
func (s *Stereo) Name() string { return s.name }

// Ready reports whether a kernel has been created and not finished.
func (s *Stereo) Ready() bool { return s.ready }

// BlockSize returns the number of frames per Process call.
func (s *Stereo) BlockSize() int { return s.blockSize }

// Delay returns the group delay in samples, or 0 when not ready.
func (s *Stereo) Delay() int {
	if !s.ready {
		return 0
	}
	return (len(s.kernel) - 1) / 2
}

// Kernel returns a copy of the active kernel.
func (s *Stereo) Kernel() []float64 {
	return append([]float64(nil), s.kernel...)
}

// CreateLowpass designs a lowpass kernel and prepares the filter for blocks
// of blockSize frames.
func (s *Stereo) CreateLowpass(blockSize int, sampleRate, cutoff, transition float64) error {
	kernel, err := LowpassKernel(sampleRate, cutoff, transition)
	if err != nil {
		return fmt.Errorf("%s: %w", s.name, err)
	}
	return s.create(kernel, blockSize)
}

// CreateHighpass designs a highpass kernel and prepares the filter for
// blocks of blockSize frames.
func (s *Stereo) CreateHighpass(blockSize int, sampleRate, cutoff, transition float64) error {
	kernel, err := HighpassKernel(sampleRate, cutoff, transition)
	if err != nil {
		return fmt.Errorf("%s: %w", s.name, err)
	}
	return s.create(kernel, blockSize)
}

// CreateBandpass designs a bandpass kernel for [low, high] and prepares the
// filter for blocks of blockSize frames.
func (s *Stereo) CreateBandpass(blockSize int, sampleRate, low, high, transition float64) error {
	kernel, err := BandpassKernel(sampleRate, low, high, transition)
	if err != nil {
		return fmt.Errorf("%s: %w", s.name, err)
	}
	return s.create(kernel, blockSize)
}

// CreateFromKernel prepares the filter with a caller-supplied kernel.
func (s *Stereo) CreateFromKernel(blockSize int, kernel []float64) error {
	if len(kernel) == 0 {
		return fmt.Errorf("%s: %w", s.name, conv.ErrEmptyKernel)
	}
	return s.create(append([]float64(nil), kernel...), blockSize)
}

func (s *Stereo) create(kernel []float64, blockSize int) error {
	s.Finish()

	if blockSize <= 0 {
		return fmt.Errorf("%s: %w: %d", s.name, ErrInvalidBlockSize, blockSize)
	}

	if len(kernel) <= directTaps {
		s.left = newDirectBlock(kernel, blockSize)
		s.right = newDirectBlock(kernel, blockSize)
	} else {
		sos, err := conv.NewStreamingOverlapSave(kernel, blockSize)
		if err != nil {
			return fmt.Errorf("%s: %w", s.name, err)
		}
		s.left = sos
		s.right = sos.Clone()
	}

	s.kernel = kernel
	s.blockSize = blockSize
	s.scratchL = make([]float64, blockSize)
	s.scratchR = make([]float64, blockSize)
	s.ready = true

	return nil
}

// Process filters an interleaved stereo buffer of exactly BlockSize frames
// in place.
func (s *Stereo) Process(buf []float32) error {
	if !s.ready {
		return fmt.Errorf("%s: %w", s.name, ErrNotReady)
	}
	if len(buf) != 2*s.blockSize {
		return fmt.Errorf("%s: %w: got %d samples, want %d", s.name, ErrBufferLength, len(buf), 2*s.blockSize)
	}

	for i := range s.blockSize {
		s.scratchL[i] = float64(buf[2*i])
		s.scratchR[i] = float64(buf[2*i+1])
	}

	if err := s.left.ProcessBlockTo(s.scratchL, s.scratchL); err != nil {
		return fmt.Errorf("%s: left: %w", s.name, err)
	}
	if err := s.right.ProcessBlockTo(s.scratchR, s.scratchR); err != nil {
		return fmt.Errorf("%s: right: %w", s.name, err)
	}

	for i := range s.blockSize {
		buf[2*i] = float32(s.scratchL[i])
		buf[2*i+1] = float32(s.scratchR[i])
	}

	return nil
}

// Finish releases the kernel and all state. The filter is not ready until
// the next Create call.
func (s *Stereo) Finish() {
	s.ready = false
	s.kernel = nil
	s.left = nil
	s.right = nil
	s.scratchL = nil
	s.scratchR = nil
	s.blockSize = 0
}

// directBlock adapts a direct-form Filter to the block convolver contract.
type directBlock struct {
	f         *Filter
	blockSize int
}

func newDirectBlock(kernel []float64, blockSize int) *directBlock {
	return &directBlock{f: New(kernel), blockSize: blockSize}
}

func (d *directBlock) ProcessBlockTo(output, input []float64) error {
	if len(input) != d.blockSize || len(output) != d.blockSize {
		return fmt.Errorf("%w: expected %d samples", conv.ErrLengthMismatch, d.blockSize)
	}
	d.f.ProcessBlockTo(output, input)
	return nil
}

func (d *directBlock) Reset()         { d.f.Reset() }
func (d *directBlock) BlockSize() int { return d.blockSize }
func (d *directBlock) KernelLen() int { return len(d.f.coeffs) }
