package time

import (
	"math"

	"github.com/cwbudde/algo-crystalizer/dsp/core"
)

// Stats holds level statistics of a signal. Levels in dB are relative to
// full scale; silence reports -Inf.
//
//nolint:revive
type Stats struct {
	Length         int
	DC             float64 // mean
	RMS            float64
	RMS_dB         float64
	Max            float64
	MaxPos         int
	Min            float64
	MinPos         int
	Peak           float64 // max(|max|, |min|)
	Peak_dB        float64
	CrestFactor    float64 // peak / RMS (linear)
	CrestFactor_dB float64
	ZeroCrossings  int
}

// ampTodB converts an amplitude value to decibels: 20 * log10(|value|).
// Returns -Inf for zero values.
func ampTodB(value float64) float64 {
	return core.LinearToDB(math.Abs(value))
}

func emptyStats() Stats {
	return Stats{
		RMS_dB:  math.Inf(-1),
		Peak_dB: math.Inf(-1),
	}
}

// Calculate computes the level statistics of signal in a single pass.
func Calculate(signal []float64) Stats {
	s := NewStreamingStats()
	s.Update(signal)
	return s.Result()
}

// StreamingStats accumulates level statistics across blocks of samples.
type StreamingStats struct {
	n             int
	sum           float64
	sumSq         float64
	maxVal        float64
	maxPos        int
	minVal        float64
	minPos        int
	zeroCrossings int
	lastSample    float64
}

// NewStreamingStats creates a new StreamingStats accumulator.
func NewStreamingStats() *StreamingStats {
	return &StreamingStats{}
}

// Update adds a block of samples to the running statistics.
func (s *StreamingStats) Update(samples []float64) {
	for _, x := range samples {
		s.add(x)
	}
}

// UpdateChannel adds one channel of an interleaved float32 block.
func (s *StreamingStats) UpdateChannel(interleaved []float32, channel, channels int) {
	if channels <= 0 || channel < 0 || channel >= channels {
		return
	}
	for i := channel; i < len(interleaved); i += channels {
		s.add(float64(interleaved[i]))
	}
}

func (s *StreamingStats) add(x float64) {
	if s.n == 0 {
		s.maxVal, s.minVal = x, x
	} else {
		if x > s.maxVal {
			s.maxVal = x
			s.maxPos = s.n
		}
		if x < s.minVal {
			s.minVal = x
			s.minPos = s.n
		}
		if s.lastSample*x < 0 {
			s.zeroCrossings++
		}
	}

	s.sum += x
	s.sumSq += x * x
	s.lastSample = x
	s.n++
}

// Result computes the statistics of all samples added so far.
func (s *StreamingStats) Result() Stats {
	if s.n == 0 {
		return emptyStats()
	}

	nf := float64(s.n)
	rms := math.Sqrt(s.sumSq / nf)
	peak := math.Max(math.Abs(s.maxVal), math.Abs(s.minVal))

	var crest, crestdB float64
	if rms > 0 {
		crest = peak / rms
		crestdB = core.LinearToDB(crest)
	}

	return Stats{
		Length:         s.n,
		DC:             s.sum / nf,
		RMS:            rms,
		RMS_dB:         ampTodB(rms),
		Max:            s.maxVal,
		MaxPos:         s.maxPos,
		Min:            s.minVal,
		MinPos:         s.minPos,
		Peak:           peak,
		Peak_dB:        ampTodB(peak),
		CrestFactor:    crest,
		CrestFactor_dB: crestdB,
		ZeroCrossings:  s.zeroCrossings,
	}
}

// Reset clears all accumulated data.
func (s *StreamingStats) Reset() {
	*s = StreamingStats{}
}
