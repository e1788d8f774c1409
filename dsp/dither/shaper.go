package dither

// NoiseShaper filters quantization error back into the next sample. The
// cycle per sample is:
//  1. shaped := shaper.Shape(scaled)
//  2. quantized := round(shaped + dither)
//  3. shaper.RecordError(float64(quantized) - shaped)
type NoiseShaper interface {
	Shape(input float64) float64
	RecordError(quantizationError float64)
	Reset()
}

// FIRShaper subtracts FIR-weighted past quantization errors from the input.
type FIRShaper struct {
	coeffs  []float64
	history []float64 // most recent error first
}

// NewFIRShaper returns a shaper for coeffs. An empty slice passes samples
// through unchanged.
func NewFIRShaper(coeffs []float64) *FIRShaper {
	return &FIRShaper{
		coeffs:  append([]float64(nil), coeffs...),
		history: make([]float64, len(coeffs)),
	}
}

func (s *FIRShaper) Shape(input float64) float64 {
	for i, c := range s.coeffs {
		input -= c * s.history[i]
	}
	return input
}

func (s *FIRShaper) RecordError(quantizationError float64) {
	if len(s.history) == 0 {
		return
	}
	copy(s.history[1:], s.history)
	s.history[0] = quantizationError
}

func (s *FIRShaper) Reset() {
	clear(s.history)
}
