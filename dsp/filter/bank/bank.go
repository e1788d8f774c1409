package bank

import (
	"errors"
	"fmt"
	"math"

	"github.com/cwbudde/algo-crystalizer/dsp/filter/fir"
)

// DefaultTransitionBand is the base transition bandwidth B in Hz.
const DefaultTransitionBand = 100.0

// DefaultCrossovers are the crossover frequencies in Hz between adjacent
// bands. Twelve crossovers split the spectrum into thirteen bands.
var DefaultCrossovers = []float64{
	500, 1000, 2000, 3000, 4000, 5000, 6000, 7000, 8000, 9000, 10000, 15000,
}

// Errors returned by the FIR bank.
var (
	ErrNotBuilt  = errors.New("bank: filters not built")
	ErrBandIndex = errors.New("bank: band index out of range")
)

// Kind is the response type of a band filter.
type Kind int

const (
	Lowpass Kind = iota
	Bandpass
	Highpass
)

func (k Kind) String() string {
	switch k {
	case Lowpass:
		return "lowpass"
	case Bandpass:
		return "bandpass"
	case Highpass:
		return "highpass"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Band describes one band of the crossover layout. Low is 0 for the lowpass
// band and High is 0 for the highpass band.
type Band struct {
	Index      int
	Name       string
	Kind       Kind
	Low        float64
	High       float64
	Transition float64
}

// Layout returns the band layout for the given crossovers and base
// transition bandwidth. Interior bands use twice the base bandwidth.
func Layout(crossovers []float64, transition float64) []Band {
	if len(crossovers) == 0 {
		return nil
	}

	last := len(crossovers)
	bands := make([]Band, last+1)
	for n := range bands {
		b := Band{Index: n, Name: fmt.Sprintf("crystalizer band %d", n)}
		switch n {
		case 0:
			b.Kind = Lowpass
			b.High = crossovers[0]
			b.Transition = transition
		case last:
			b.Kind = Highpass
			b.Low = crossovers[last-1]
			b.Transition = transition
		default:
			b.Kind = Bandpass
			b.Low = crossovers[n-1]
			b.High = crossovers[n]
			b.Transition = 2 * transition
		}
		bands[n] = b
	}
	return bands
}

type config struct {
	crossovers []float64
	transition float64
}

func defaultConfig() config {
	return config{
		crossovers: DefaultCrossovers,
		transition: DefaultTransitionBand,
	}
}

// Option configures a FIR bank.
type Option func(*config)

// WithCrossovers sets the crossover frequencies. They must be positive and
// strictly ascending; invalid lists are ignored.
func WithCrossovers(hz []float64) Option {
	return func(cfg *config) {
		if len(hz) == 0 {
			return
		}
		for i, f := range hz {
			if !(f > 0) || math.IsInf(f, 0) || (i > 0 && f <= hz[i-1]) {
				return
			}
		}
		cfg.crossovers = append([]float64(nil), hz...)
	}
}

// WithTransitionBand sets the base transition bandwidth in Hz.
func WithTransitionBand(hz float64) Option {
	return func(cfg *config) {
		if hz > 0 && !math.IsInf(hz, 0) {
			cfg.transition = hz
		}
	}
}

// FIR is a crossover bank of linear-phase stereo FIR filters, one per band.
// Build designs every filter for a block length and sample rate; Process
// runs one band over an interleaved stereo buffer in place.
type FIR struct {
	bands      []Band
	filters    []*fir.Stereo
	transition float64

	sampleRate float64
	blockSize  int
}

// NewFIR returns an unbuilt bank with the configured band layout.
func NewFIR(opts ...Option) *FIR {
	cfg := defaultConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	bands := Layout(cfg.crossovers, cfg.transition)
	filters := make([]*fir.Stereo, len(bands))
	for i, b := range bands {
		filters[i] = fir.NewStereo(b.Name)
	}

	return &FIR{bands: bands, filters: filters, transition: cfg.transition}
}

// NumBands returns the number of bands.
func (b *FIR) NumBands() int { return len(b.bands) }

// Bands returns a copy of the band layout.
func (b *FIR) Bands() []Band { return append([]Band(nil), b.bands...) }

// SampleRate returns the rate of the last successful Build, or 0.
func (b *FIR) SampleRate() float64 { return b.sampleRate }

// BlockSize returns the block length of the last successful Build, or 0.
func (b *FIR) BlockSize() int { return b.blockSize }

// Build designs all band filters for blocks of blockSize frames at
// sampleRate. Every band is designed at one shared order so all bands have
// the same group delay. On error no band is left ready.
func (b *FIR) Build(blockSize int, sampleRate float64) error {
	b.Finish()

	order, err := fir.MatchedOrder(sampleRate, b.transition)
	if err != nil {
		return fmt.Errorf("bank: %w", err)
	}

	for i, band := range b.bands {
		var kernel []float64
		switch band.Kind {
		case Lowpass:
			kernel, err = fir.LowpassKernelOrder(sampleRate, band.High, order)
		case Highpass:
			kernel, err = fir.HighpassKernelOrder(sampleRate, band.Low, order)
		default:
			kernel, err = fir.BandpassKernelOrder(sampleRate, band.Low, band.High, order)
		}
		if err == nil {
			err = b.filters[i].CreateFromKernel(blockSize, kernel)
		}
		if err != nil {
			b.Finish()
			return fmt.Errorf("bank: build band %d: %w", i, err)
		}
	}

	b.sampleRate = sampleRate
	b.blockSize = blockSize
	return nil
}

// Ready reports whether every band filter is built.
func (b *FIR) Ready() bool {
	if len(b.filters) == 0 {
		return false
	}
	for _, f := range b.filters {
		if !f.Ready() {
			return false
		}
	}
	return true
}

// Process filters buf in place through band n.
func (b *FIR) Process(n int, buf []float32) error {
	if n < 0 || n >= len(b.filters) {
		return fmt.Errorf("%w: %d", ErrBandIndex, n)
	}
	f := b.filters[n]
	if !f.Ready() {
		return ErrNotBuilt
	}
	return f.Process(buf)
}

// Finish releases all band filters.
func (b *FIR) Finish() {
	for _, f := range b.filters {
		f.Finish()
	}
	b.sampleRate = 0
	b.blockSize = 0
}

// GroupDelay returns the group delay in samples shared by all bands, or 0
// before Build.
func (b *FIR) GroupDelay() int {
	var d int
	for _, f := range b.filters {
		d = max(d, f.Delay())
	}
	return d
}

// MagnitudeDB returns the magnitude response of band n at freqHz in dB.
// It returns an error before Build.
func (b *FIR) MagnitudeDB(n int, freqHz float64) (float64, error) {
	if n < 0 || n >= len(b.filters) {
		return 0, fmt.Errorf("%w: %d", ErrBandIndex, n)
	}
	f := b.filters[n]
	if !f.Ready() {
		return 0, ErrNotBuilt
	}
	return fir.MagnitudeDB(f.Kernel(), freqHz, b.sampleRate), nil
}
