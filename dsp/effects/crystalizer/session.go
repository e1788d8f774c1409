package crystalizer

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cwbudde/algo-crystalizer/dsp/buffer"
	"github.com/cwbudde/algo-crystalizer/dsp/core"
	"github.com/cwbudde/algo-crystalizer/dsp/filter/bank"
)

const (
	channels       = 2
	bytesPerSample = 4
)

// FilterBank splits a stereo buffer into bands. Each band filter is stateful
// and processes interleaved stereo buffers of the block size it was built
// for, in place.
type FilterBank interface {
	NumBands() int
	Build(blockSize int, sampleRate float64) error
	Process(band int, buf []float32) error
	Ready() bool
	Finish()
}

var _ FilterBank = (*bank.FIR)(nil)

// State is the lifecycle state of a Session.
type State int

const (
	// StateUnconfigured means the filters are not built for the current
	// buffer size. The next buffer rebuilds them.
	StateUnconfigured State = iota
	// StatePriming means the filters are built and the next buffer only
	// seeds the band history.
	StatePriming
	// StatePrimed means every buffer of the current size is processed.
	StatePrimed
)

func (s State) String() string {
	switch s {
	case StateUnconfigured:
		return "unconfigured"
	case StatePriming:
		return "priming"
	case StatePrimed:
		return "primed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

type config struct {
	bank      FilterBank
	onLatency func(time.Duration)
	logger    *slog.Logger
	controls  []BandControl
}

func defaultConfig() config {
	return config{
		onLatency: func(time.Duration) {},
		logger:    slog.New(slog.DiscardHandler),
	}
}

// Option configures a Session.
type Option func(*config)

// WithFilterBank replaces the default 13-band FIR crossover bank.
func WithFilterBank(fb FilterBank) Option {
	return func(cfg *config) {
		if fb != nil {
			cfg.bank = fb
		}
	}
}

// WithLatencyHandler registers a callback that receives the new latency
// every time the filters are rebuilt. It is called without the session lock
// held, so it may query the session.
func WithLatencyHandler(fn func(time.Duration)) Option {
	return func(cfg *config) {
		if fn != nil {
			cfg.onLatency = fn
		}
	}
}

// WithLogger sets the logger for lifecycle events. Events are logged at
// debug level.
func WithLogger(l *slog.Logger) Option {
	return func(cfg *config) {
		if l != nil {
			cfg.logger = l
		}
	}
}

// WithControls sets the initial band controls. The slice must hold one
// entry per band of the filter bank.
func WithControls(controls []BandControl) Option {
	return func(cfg *config) {
		cfg.controls = append([]BandControl(nil), controls...)
	}
}

// Session is one crystalizer processing session. A single mutex guards all
// of its state.
type Session struct {
	mu sync.Mutex

	bank      FilterBank
	controls  []BandControl
	store     *store
	onLatency func(time.Duration)
	logger    *slog.Logger

	rate     int // Hz, 0 until Setup
	bpf      int // bytes per frame
	nsamples int // frames per buffer
	state    State

	scratch []float32
}

// New creates a session. Call Setup before processing audio.
func New(opts ...Option) (*Session, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if cfg.bank == nil {
		cfg.bank = bank.NewFIR()
	}

	numBands := cfg.bank.NumBands()
	if numBands <= 0 {
		return nil, fmt.Errorf("%w: filter bank has %d bands", ErrBandCount, numBands)
	}

	controls := defaultControls(numBands)
	if cfg.controls != nil {
		if len(cfg.controls) != numBands {
			return nil, fmt.Errorf("%w: got %d controls for %d bands", ErrBandCount, len(cfg.controls), numBands)
		}
		normalized, err := normalizeControls(cfg.controls)
		if err != nil {
			return nil, fmt.Errorf("crystalizer: %w", err)
		}
		controls = normalized
	}

	return &Session{
		bank:      cfg.bank,
		controls:  controls,
		store:     newStore(numBands),
		onLatency: cfg.onLatency,
		logger:    cfg.logger,
	}, nil
}

// Setup negotiates the sample rate. It discards filters and band history;
// the next buffer rebuilds them.
func (s *Session) Setup(sampleRate int) error {
	if sampleRate <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidSampleRate, sampleRate)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.logger.Debug("setup", "rate", sampleRate)
	s.rate = sampleRate
	s.bpf = channels * bytesPerSample
	s.teardown()
	return nil
}

// Stop tears down filters and band history. The negotiated rate is kept.
func (s *Session) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.logger.Debug("stop")
	s.teardown()
}

// teardown must be called with s.mu held.
func (s *Session) teardown() {
	s.bank.Finish()
	s.store.release()
	s.state = StateUnconfigured
}

// Process runs one interleaved stereo buffer through the session in place.
//
// The returned slice aliases buf. It is buf[:0] while the session rebuilds
// or primes and buf otherwise, holding the processed previous buffer.
func (s *Session) Process(buf []float32) ([]float32, error) {
	s.mu.Lock()
	out, rebuilt, err := s.processLocked(buf)
	latency, _ := s.latencyLocked()
	onLatency := s.onLatency
	s.mu.Unlock()

	if rebuilt {
		onLatency(latency)
	}
	return out, err
}

// ProcessBytes is Process for raw little-endian float32 stereo buffers. The
// returned slice aliases p.
func (s *Session) ProcessBytes(p []byte) ([]byte, error) {
	s.mu.Lock()
	if s.rate == 0 {
		s.mu.Unlock()
		return p[:0], ErrNoFormat
	}
	if len(p)%s.bpf != 0 {
		s.mu.Unlock()
		return p[:0], fmt.Errorf("%w: %d bytes", ErrOddLength, len(p))
	}

	n := channels * len(p) / s.bpf
	s.scratch = core.EnsureLen(s.scratch, n)
	buffer.DecodeFloat32LE(s.scratch, p)

	out, rebuilt, err := s.processLocked(s.scratch)
	written := buffer.EncodeFloat32LE(p, out)

	latency, _ := s.latencyLocked()
	onLatency := s.onLatency
	s.mu.Unlock()

	if rebuilt {
		onLatency(latency)
	}
	return p[:bytesPerSample*written], err
}

// processLocked must be called with s.mu held. It reports whether the
// filters were rebuilt.
func (s *Session) processLocked(buf []float32) ([]float32, bool, error) {
	if s.rate == 0 {
		return buf[:0], false, ErrNoFormat
	}
	if len(buf)%channels != 0 {
		return buf[:0], false, fmt.Errorf("%w: %d samples", ErrOddLength, len(buf))
	}

	frames := len(buf) / channels
	if frames == 0 {
		return buf[:0], false, nil
	}

	if !s.bank.Ready() || !s.store.allocated() || frames != s.nsamples {
		if err := s.rebuild(frames); err != nil {
			return buf[:0], false, err
		}
		return buf[:0], true, nil
	}

	for n := range s.store.bands {
		b := &s.store.bands[n]
		b.data.CopyFrom(buf)
		if err := s.bank.Process(n, b.data.Samples()); err != nil {
			s.teardown()
			return buf[:0], false, fmt.Errorf("crystalizer: filter band %d: %w", n, err)
		}
	}

	if s.state == StatePriming {
		s.store.prime()
		s.state = StatePrimed
		s.logger.Debug("primed", "frames", frames)
		return buf[:0], false, nil
	}

	for n := range s.store.bands {
		b := &s.store.bands[n]
		if s.controls[n].Bypass {
			b.skip()
			continue
		}
		b.expand(s.controls[n].Intensity)
	}

	s.store.mix(buf, s.controls)
	s.store.rotate()

	return buf, false, nil
}

// rebuild must be called with s.mu held.
func (s *Session) rebuild(frames int) error {
	s.logger.Debug("rebuilding filters", "frames", frames, "previous", s.nsamples, "rate", s.rate)

	s.teardown()
	s.nsamples = frames

	if err := s.bank.Build(frames, float64(s.rate)); err != nil {
		s.teardown()
		return fmt.Errorf("crystalizer: build filters: %w", err)
	}
	s.store.reset(frames)
	s.state = StatePriming

	return nil
}

// State returns the lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.state
}

// BlockSize returns the frame count of the current buffer size, or 0 before
// the first buffer.
func (s *Session) BlockSize() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.nsamples
}

// SampleRate returns the negotiated sample rate, or 0 before Setup.
func (s *Session) SampleRate() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.rate
}

// NumBands returns the number of bands.
func (s *Session) NumBands() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.controls)
}
