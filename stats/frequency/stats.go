// Package frequency describes the shape of a one-sided magnitude spectrum.
package frequency

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// DefaultRolloff is the energy fraction used by Describe for Rolloff.
const DefaultRolloff = 0.85

// Shape holds spectral shape descriptors of a magnitude spectrum. Bin i is
// at i*binHz.
type Shape struct {
	Centroid float64 // Hz, magnitude-weighted mean frequency
	Spread   float64 // Hz, magnitude-weighted deviation around Centroid
	Flatness float64 // 0..1, geometric over arithmetic mean
	Rolloff  float64 // Hz below which DefaultRolloff of the energy lies
}

// Describe computes all shape descriptors of magnitude (linear scale, DC at
// index 0).
func Describe(magnitude []float64, binHz float64) Shape {
	if len(magnitude) < 2 {
		return Shape{}
	}

	cent := Centroid(magnitude, binHz)
	return Shape{
		Centroid: cent,
		Spread:   spread(magnitude, binHz, cent),
		Flatness: Flatness(magnitude),
		Rolloff:  Rolloff(magnitude, binHz, DefaultRolloff),
	}
}

// Centroid returns the spectral centroid in Hz:
//
//	centroid = sum(f_i * |X_i|) / sum(|X_i|)
func Centroid(magnitude []float64, binHz float64) float64 {
	sum := floats.Sum(magnitude)
	if len(magnitude) < 2 || sum == 0 {
		return 0
	}
	return floats.Dot(binFrequencies(len(magnitude), binHz), magnitude) / sum
}

func spread(magnitude []float64, binHz, cent float64) float64 {
	sum := floats.Sum(magnitude)
	if sum == 0 {
		return 0
	}
	var sq float64
	for i, v := range magnitude {
		d := float64(i)*binHz - cent
		sq += d * d * v
	}
	return math.Sqrt(sq / sum)
}

// Flatness returns the spectral flatness (Wiener entropy) in 0..1. The DC
// bin is excluded; any zero bin makes the result 0.
func Flatness(magnitude []float64) float64 {
	if len(magnitude) < 2 {
		return 0
	}
	bins := magnitude[1:]

	mean := floats.Sum(bins) / float64(len(bins))
	if mean == 0 || floats.Min(bins) <= 0 {
		return 0
	}

	var sumLog float64
	for _, v := range bins {
		sumLog += math.Log(v)
	}
	return math.Exp(sumLog/float64(len(bins))) / mean
}

// Rolloff returns the frequency below which fraction (0..1) of the energy
// lies.
func Rolloff(magnitude []float64, binHz, fraction float64) float64 {
	if len(magnitude) < 2 {
		return 0
	}
	energy := floats.Dot(magnitude, magnitude)
	if energy == 0 {
		return 0
	}

	threshold := fraction * energy
	var cum float64
	for i, v := range magnitude {
		cum += v * v
		if cum >= threshold {
			return float64(i) * binHz
		}
	}
	return float64(len(magnitude)-1) * binHz
}

func binFrequencies(n int, binHz float64) []float64 {
	f := make([]float64, n)
	floats.Span(f, 0, float64(n-1)*binHz)
	return f
}
