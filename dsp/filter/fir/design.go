package fir

import (
	"errors"
	"fmt"
	"math"

	"github.com/cwbudde/algo-crystalizer/dsp/conv"
	"github.com/cwbudde/algo-crystalizer/dsp/window"
)

// MaxKernelTaps bounds the kernel length a design may produce. Narrow
// transition bands at high sample rates grow kernels linearly.
const MaxKernelTaps = 1 << 20

// Errors returned by kernel design and the stereo runtime.
var (
	ErrInvalidSampleRate = errors.New("fir: sample rate must be positive and finite")
	ErrInvalidCutoff     = errors.New("fir: cutoff must be positive and finite")
	ErrInvalidTransition = errors.New("fir: transition band must be positive and finite")
	ErrInvalidBand       = errors.New("fir: bandpass low edge must be below high edge")
	ErrKernelTooLong     = errors.New("fir: kernel exceeds maximum length")
	ErrInvalidOrder      = errors.New("fir: invalid kernel order")
	ErrInvalidBlockSize  = errors.New("fir: block size must be positive")
	ErrNotReady          = errors.New("fir: filter not created")
	ErrBufferLength      = errors.New("fir: buffer length does not match block size")
)

// KernelOrder returns the even order M used for a lowpass or highpass kernel
// with the given transition bandwidth. The kernel has M+1 taps.
func KernelOrder(sampleRate, transition float64) (int, error) {
	if !(sampleRate > 0) || math.IsInf(sampleRate, 0) {
		return 0, fmt.Errorf("%w: %v", ErrInvalidSampleRate, sampleRate)
	}
	if !(transition > 0) || math.IsInf(transition, 0) {
		return 0, fmt.Errorf("%w: %v", ErrInvalidTransition, transition)
	}

	m := math.Ceil(4 / (transition / sampleRate))
	if m+1 > MaxKernelTaps {
		return 0, fmt.Errorf("%w: %.0f taps for %v Hz at %v Hz", ErrKernelTooLong, m+1, transition, sampleRate)
	}

	order := int(m)
	if order%2 != 0 {
		order++
	}
	return order, nil
}

// MatchedOrder returns the order M shared by a crossover bank whose outer
// bands use the given transition bandwidth and whose inner bands use twice
// it. M is KernelOrder rounded up to a multiple of four, so a bandpass built
// from two order M/2 kernels has the same group delay M/2 as a lowpass or
// highpass of order M.
func MatchedOrder(sampleRate, transition float64) (int, error) {
	order, err := KernelOrder(sampleRate, transition)
	if err != nil {
		return 0, err
	}
	order = (order + 3) / 4 * 4
	if order+1 > MaxKernelTaps {
		return 0, fmt.Errorf("%w: %d taps for %v Hz at %v Hz", ErrKernelTooLong, order+1, transition, sampleRate)
	}
	return order, nil
}

// LowpassKernel designs a Blackman-windowed sinc lowpass kernel with unit
// gain at DC.
func LowpassKernel(sampleRate, cutoff, transition float64) ([]float64, error) {
	if !(cutoff > 0) || math.IsInf(cutoff, 0) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCutoff, cutoff)
	}

	order, err := KernelOrder(sampleRate, transition)
	if err != nil {
		return nil, err
	}

	return lowpass(sampleRate, cutoff, order), nil
}

// LowpassKernelOrder is LowpassKernel with an explicit even order instead of
// a transition bandwidth.
func LowpassKernelOrder(sampleRate, cutoff float64, order int) ([]float64, error) {
	if err := checkOrder(sampleRate, cutoff, order, 2); err != nil {
		return nil, err
	}
	return lowpass(sampleRate, cutoff, order), nil
}

// HighpassKernelOrder is HighpassKernel with an explicit even order.
func HighpassKernelOrder(sampleRate, cutoff float64, order int) ([]float64, error) {
	if err := checkOrder(sampleRate, cutoff, order, 2); err != nil {
		return nil, err
	}
	return invert(lowpass(sampleRate, cutoff, order)), nil
}

// BandpassKernelOrder designs a bandpass kernel of the given order passing
// [low, high]. The order must be a multiple of four; each cascaded half has
// order/2.
func BandpassKernelOrder(sampleRate, low, high float64, order int) ([]float64, error) {
	if !(low < high) {
		return nil, fmt.Errorf("%w: [%v, %v]", ErrInvalidBand, low, high)
	}
	if err := checkOrder(sampleRate, low, order, 4); err != nil {
		return nil, err
	}
	if !(high > 0) || math.IsInf(high, 0) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCutoff, high)
	}

	return cascade(lowpass(sampleRate, high, order/2), invert(lowpass(sampleRate, low, order/2)))
}

func checkOrder(sampleRate, cutoff float64, order, multiple int) error {
	if !(sampleRate > 0) || math.IsInf(sampleRate, 0) {
		return fmt.Errorf("%w: %v", ErrInvalidSampleRate, sampleRate)
	}
	if !(cutoff > 0) || math.IsInf(cutoff, 0) {
		return fmt.Errorf("%w: %v", ErrInvalidCutoff, cutoff)
	}
	if order <= 0 || order%multiple != 0 {
		return fmt.Errorf("%w: %d is not a positive multiple of %d", ErrInvalidOrder, order, multiple)
	}
	if order+1 > MaxKernelTaps {
		return fmt.Errorf("%w: %d taps", ErrKernelTooLong, order+1)
	}
	return nil
}

func lowpass(sampleRate, cutoff float64, order int) []float64 {
	fc := cutoff / sampleRate
	half := order / 2
	kernel := make([]float64, order+1)
	for n := range kernel {
		if n == half {
			kernel[n] = 2 * math.Pi * fc
			continue
		}
		d := float64(n - half)
		kernel[n] = math.Sin(2*math.Pi*fc*d) / d
	}

	window.Apply(window.TypeBlackman, kernel)

	var sum float64
	for _, v := range kernel {
		sum += v
	}
	for n := range kernel {
		kernel[n] /= sum
	}

	return kernel
}

// HighpassKernel designs a highpass kernel by spectral inversion of the
// matching lowpass kernel.
func HighpassKernel(sampleRate, cutoff, transition float64) ([]float64, error) {
	kernel, err := LowpassKernel(sampleRate, cutoff, transition)
	if err != nil {
		return nil, err
	}
	return invert(kernel), nil
}

// invert turns an odd-length lowpass kernel into the complementary highpass
// in place.
func invert(kernel []float64) []float64 {
	for n := range kernel {
		kernel[n] = -kernel[n]
	}
	kernel[len(kernel)/2]++
	return kernel
}

// BandpassKernel designs a bandpass kernel passing [low, high] by cascading a
// lowpass at high with a highpass at low. Both parts use the given
// transition bandwidth.
func BandpassKernel(sampleRate, low, high, transition float64) ([]float64, error) {
	if !(low < high) {
		return nil, fmt.Errorf("%w: [%v, %v]", ErrInvalidBand, low, high)
	}

	lp, err := LowpassKernel(sampleRate, high, transition)
	if err != nil {
		return nil, err
	}

	hp, err := HighpassKernel(sampleRate, low, transition)
	if err != nil {
		return nil, err
	}

	return cascade(lp, hp)
}

func cascade(lp, hp []float64) ([]float64, error) {
	kernel, err := conv.Convolve(lp, hp)
	if err != nil {
		return nil, fmt.Errorf("fir: bandpass cascade: %w", err)
	}
	return kernel, nil
}
