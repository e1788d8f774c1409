package fir

import (
	"math"
	"math/cmplx"
)

// Filter implements a direct-form FIR filter.
//
// The delay line stores every sample twice so the most recent len(coeffs)
// inputs are always contiguous and each output is a single dot product.
type Filter struct {
	coeffs []float64
	delay  []float64
	pos    int
}

// New creates a FIR filter from the given coefficient slice.
// The coefficients are copied. The filter order is len(coeffs)-1.
func New(coeffs []float64) *Filter {
	c := make([]float64, len(coeffs))
	copy(c, coeffs)
	return &Filter{
		coeffs: c,
		delay:  make([]float64, 2*len(coeffs)),
	}
}

// ProcessSample filters one input sample.
//
//	y[n] = sum_{k=0}^{N-1} h[k] * x[n-k]
func (f *Filter) ProcessSample(x float64) float64 {
	n := len(f.coeffs)
	if n == 0 {
		return 0
	}

	f.pos--
	if f.pos < 0 {
		f.pos = n - 1
	}
	f.delay[f.pos] = x
	f.delay[f.pos+n] = x

	window := f.delay[f.pos : f.pos+n]
	var y float64
	for k, h := range f.coeffs {
		y += h * window[k]
	}
	return y
}

// ProcessBlockTo filters src into dst. Both slices must have the same length;
// dst may alias src.
func (f *Filter) ProcessBlockTo(dst, src []float64) {
	if len(src) == 0 {
		return
	}
	_ = dst[len(src)-1] // bounds check hint
	for i, x := range src {
		dst[i] = f.ProcessSample(x)
	}
}

// Reset clears the delay line to zero.
func (f *Filter) Reset() {
	clear(f.delay)
	f.pos = 0
}

// Response computes the complex frequency response of a kernel.
func Response(kernel []float64, freqHz, sampleRate float64) complex128 {
	w := 2 * math.Pi * freqHz / sampleRate
	var h complex128
	for k, c := range kernel {
		h += complex(c, 0) * cmplx.Exp(complex(0, -w*float64(k)))
	}
	return h
}

// MagnitudeDB returns the magnitude response of a kernel in dB.
func MagnitudeDB(kernel []float64, freqHz, sampleRate float64) float64 {
	return 20 * math.Log10(cmplx.Abs(Response(kernel, freqHz, sampleRate)))
}
