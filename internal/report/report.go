// Package report compares a dry clip with its processed version: level and
// crest factor per channel, how the two correlate, and how the energy of
// each crystalizer band changed.
package report

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/cwbudde/algo-crystalizer/dsp/core"
	"github.com/cwbudde/algo-crystalizer/dsp/filter/bank"
	"github.com/cwbudde/algo-crystalizer/dsp/window"
	"github.com/cwbudde/algo-crystalizer/internal/audio"
	"github.com/cwbudde/algo-crystalizer/stats/frequency"
	timestats "github.com/cwbudde/algo-crystalizer/stats/time"
)

var (
	ErrRateMismatch = errors.New("report: sample rates differ")
	ErrEmptyWindow  = errors.New("report: analysis window is empty")
)

// Channel compares one channel.
type Channel struct {
	Dry, Wet timestats.Stats

	// Excess kurtosis; transient emphasis raises it.
	DryKurtosis float64
	WetKurtosis float64

	// Pearson correlation of dry and wet samples.
	Correlation float64
	// RMS of wet minus dry, relative to the dry RMS. With a silent dry
	// channel it is -Inf when wet is silent too and +Inf otherwise.
	DifferenceDB float64
}

// CrestGainDB returns how much the crest factor grew.
func (c Channel) CrestGainDB() float64 {
	return c.Wet.CrestFactor_dB - c.Dry.CrestFactor_dB
}

// BandEnergy is the mid-channel energy inside one band.
type BandEnergy struct {
	Band  bank.Band
	DryDB float64
	WetDB float64
}

// GainDB returns the energy change of the band.
func (b BandEnergy) GainDB() float64 { return b.WetDB - b.DryDB }

// Spectrum compares the spectral shape of the mid channel.
type Spectrum struct {
	Dry, Wet frequency.Shape
}

// Report is the result of Compare.
type Report struct {
	SampleRate int
	Start      int // first analysed frame
	Frames     int
	Channels   [2]Channel
	Bands      []BandEnergy
	Spectrum   Spectrum
}

type config struct {
	start  int
	frames int
	bands  []bank.Band
}

// Option configures Compare.
type Option func(*config)

// WithWindow limits the analysis to frames frames starting at start.
// frames <= 0 analyses to the end.
func WithWindow(start, frames int) Option {
	return func(cfg *config) {
		if start >= 0 {
			cfg.start = start
		}
		cfg.frames = frames
	}
}

// WithBands sets the band layout used for the energy table.
func WithBands(bands []bank.Band) Option {
	return func(cfg *config) {
		if len(bands) > 0 {
			cfg.bands = bands
		}
	}
}

// Compare analyses dry against wet. Both clips are cut to the shorter one.
func Compare(dry, wet *audio.Clip, opts ...Option) (*Report, error) {
	if dry.SampleRate != wet.SampleRate {
		return nil, fmt.Errorf("%w: %d and %d Hz", ErrRateMismatch, dry.SampleRate, wet.SampleRate)
	}

	cfg := config{bands: bank.Layout(bank.DefaultCrossovers, bank.DefaultTransitionBand)}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	total := min(dry.Frames(), wet.Frames())
	end := total
	if cfg.frames > 0 {
		end = min(total, cfg.start+cfg.frames)
	}
	if cfg.start >= end {
		return nil, fmt.Errorf("%w: start %d, %d frames available", ErrEmptyWindow, cfg.start, total)
	}

	drySamples := widen(dry.Samples[2*cfg.start : 2*end])
	wetSamples := widen(wet.Samples[2*cfg.start : 2*end])

	r := &Report{SampleRate: dry.SampleRate, Start: cfg.start, Frames: end - cfg.start}
	for ch := range r.Channels {
		r.Channels[ch] = compareChannel(channel(drySamples, ch), channel(wetSamples, ch))
	}
	r.Bands, r.Spectrum = spectral(cfg.bands, float64(dry.SampleRate), drySamples, wetSamples)

	return r, nil
}

func compareChannel(dry, wet []float64) Channel {
	c := Channel{
		Dry:         timestats.Calculate(dry),
		Wet:         timestats.Calculate(wet),
		DryKurtosis: stat.ExKurtosis(dry, nil),
		WetKurtosis: stat.ExKurtosis(wet, nil),
		Correlation: stat.Correlation(dry, wet, nil),
	}

	diff := make([]float64, len(dry))
	floats.SubTo(diff, wet, dry)
	diffRMS := floats.Norm(diff, 2) / math.Sqrt(float64(len(diff)))
	switch {
	case c.Dry.RMS > 0:
		c.DifferenceDB = powerDB(diffRMS*diffRMS) - powerDB(c.Dry.RMS*c.Dry.RMS)
	case diffRMS > 0:
		c.DifferenceDB = math.Inf(1)
	default:
		c.DifferenceDB = math.Inf(-1)
	}

	return c
}

// spectral sums the Hann-windowed power spectrum of the mid channel over
// each band and describes its shape.
func spectral(bands []bank.Band, rate float64, dry, wet []float64) ([]BandEnergy, Spectrum) {
	frames := len(dry) / 2
	if frames < 2 {
		return nil, Spectrum{}
	}

	fft := fourier.NewFFT(frames)
	dryPower := midPower(fft, dry, frames)
	wetPower := midPower(fft, wet, frames)

	energies := make([]BandEnergy, len(bands))
	for i, b := range bands {
		var d, w float64
		for k := range dryPower {
			f := fft.Freq(k) * rate
			if f < b.Low || (b.High > 0 && f >= b.High) {
				continue
			}
			d += dryPower[k]
			w += wetPower[k]
		}
		energies[i] = BandEnergy{Band: b, DryDB: powerDB(d), WetDB: powerDB(w)}
	}

	binHz := rate / float64(frames)
	spectrum := Spectrum{
		Dry: frequency.Describe(magnitude(dryPower), binHz),
		Wet: frequency.Describe(magnitude(wetPower), binHz),
	}
	return energies, spectrum
}

func magnitude(power []float64) []float64 {
	mag := make([]float64, len(power))
	for i, p := range power {
		mag[i] = math.Sqrt(p)
	}
	return mag
}

func midPower(fft *fourier.FFT, interleaved []float64, frames int) []float64 {
	mid := make([]float64, frames)
	floats.AddTo(mid, channel(interleaved, 0), channel(interleaved, 1))
	floats.Scale(0.5, mid)
	window.Apply(window.TypeHann, mid, window.WithPeriodic())

	coeffs := fft.Coefficients(nil, mid)
	power := make([]float64, len(coeffs))
	scale := 1 / float64(frames*frames)
	for k, c := range coeffs {
		power[k] = (real(c)*real(c) + imag(c)*imag(c)) * scale
	}
	return power
}

func widen(src []float32) []float64 {
	dst := make([]float64, len(src))
	core.Widen(dst, src)
	return dst
}

func channel(interleaved []float64, ch int) []float64 {
	out := make([]float64, len(interleaved)/2)
	for i := range out {
		out[i] = interleaved[2*i+ch]
	}
	return out
}

func powerDB(p float64) float64 {
	if p <= 0 {
		return math.Inf(-1)
	}
	return 10 * math.Log10(p)
}
