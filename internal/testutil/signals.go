// Package testutil holds deterministic signals and comparison helpers shared
// by package tests.
package testutil

import (
	"math"
	"math/rand"
)

// DeterministicSine generates a deterministic sine wave.
func DeterministicSine(freqHz, sampleRate, amplitude float64, length int) []float64 {
	out := make([]float64, length)
	step := 2 * math.Pi * freqHz / sampleRate
	for i := range out {
		out[i] = amplitude * math.Sin(step*float64(i))
	}
	return out
}

// DeterministicNoise generates white noise with a fixed seed for reproducibility.
func DeterministicNoise(seed int64, amplitude float64, length int) []float64 {
	out := make([]float64, length)
	rng := rand.New(rand.NewSource(seed))
	for i := range out {
		out[i] = (rng.Float64()*2 - 1) * amplitude
	}
	return out
}

// Impulse generates a unit impulse at the given position.
func Impulse(length, pos int) []float64 {
	out := make([]float64, length)
	if pos >= 0 && pos < length {
		out[pos] = 1
	}
	return out
}

// Interleave builds an interleaved stereo float32 buffer from two channels.
// The shorter channel determines the frame count.
func Interleave(left, right []float64) []float32 {
	n := min(len(left), len(right))
	out := make([]float32, 2*n)
	for i := range n {
		out[2*i] = float32(left[i])
		out[2*i+1] = float32(right[i])
	}
	return out
}

// StereoSine returns an interleaved stereo sine with the right channel
// phase-shifted by a quarter period.
func StereoSine(freqHz, sampleRate, amplitude float64, frames int) []float32 {
	step := 2 * math.Pi * freqHz / sampleRate
	out := make([]float32, 2*frames)
	for i := range frames {
		out[2*i] = float32(amplitude * math.Sin(step*float64(i)))
		out[2*i+1] = float32(amplitude * math.Cos(step*float64(i)))
	}
	return out
}

// StereoNoise returns interleaved stereo white noise with a fixed seed.
func StereoNoise(seed int64, amplitude float64, frames int) []float32 {
	rng := rand.New(rand.NewSource(seed))
	out := make([]float32, 2*frames)
	for i := range out {
		out[i] = float32((rng.Float64()*2 - 1) * amplitude)
	}
	return out
}

// Channel extracts one channel (0 = left, 1 = right) of an interleaved stereo
// buffer as float64.
func Channel(interleaved []float32, ch int) []float64 {
	out := make([]float64, len(interleaved)/2)
	for i := range out {
		out[i] = float64(interleaved[2*i+ch])
	}
	return out
}
