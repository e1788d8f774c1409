package crystalizer

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-crystalizer/dsp/core"
)

const (
	// NumBands is the band count of the default filter bank.
	NumBands = 13

	MinIntensity     float32 = 0
	MaxIntensity     float32 = 40
	DefaultIntensity float32 = 1
)

// BandControl holds the user controls of one band.
type BandControl struct {
	Intensity float32 // expansion amount, clamped to [MinIntensity, MaxIntensity]
	Mute      bool    // leave the band out of the mix
	Bypass    bool    // mix the band without expansion
}

// DefaultBandControl returns the control values of a fresh band.
func DefaultBandControl() BandControl {
	return BandControl{Intensity: DefaultIntensity}
}

func (c BandControl) normalized() (BandControl, error) {
	if math.IsNaN(float64(c.Intensity)) {
		return c, ErrInvalidIntensity
	}
	c.Intensity = core.Clamp(c.Intensity, MinIntensity, MaxIntensity)
	return c, nil
}

func defaultControls(n int) []BandControl {
	controls := make([]BandControl, n)
	for i := range controls {
		controls[i] = DefaultBandControl()
	}
	return controls
}

// checkBand must be called with s.mu held.
func (s *Session) checkBand(n int) error {
	if n < 0 || n >= len(s.controls) {
		return fmt.Errorf("%w: %d (have %d bands)", ErrBandIndex, n, len(s.controls))
	}
	return nil
}

// Band returns the controls of band n.
func (s *Session) Band(n int) (BandControl, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkBand(n); err != nil {
		return BandControl{}, err
	}
	return s.controls[n], nil
}

// SetBand replaces the controls of band n. The intensity is clamped to
// [MinIntensity, MaxIntensity].
func (s *Session) SetBand(n int, c BandControl) error {
	c, err := c.normalized()
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkBand(n); err != nil {
		return err
	}
	s.controls[n] = c
	return nil
}

// Intensity returns the expansion intensity of band n.
func (s *Session) Intensity(n int) (float32, error) {
	c, err := s.Band(n)
	return c.Intensity, err
}

// SetIntensity sets the expansion intensity of band n, clamped to
// [MinIntensity, MaxIntensity].
func (s *Session) SetIntensity(n int, v float32) error {
	if math.IsNaN(float64(v)) {
		return ErrInvalidIntensity
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkBand(n); err != nil {
		return err
	}
	s.controls[n].Intensity = core.Clamp(v, MinIntensity, MaxIntensity)
	return nil
}

// Mute reports whether band n is muted.
func (s *Session) Mute(n int) (bool, error) {
	c, err := s.Band(n)
	return c.Mute, err
}

// SetMute mutes or unmutes band n.
func (s *Session) SetMute(n int, mute bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkBand(n); err != nil {
		return err
	}
	s.controls[n].Mute = mute
	return nil
}

// Bypass reports whether expansion is bypassed for band n.
func (s *Session) Bypass(n int) (bool, error) {
	c, err := s.Band(n)
	return c.Bypass, err
}

// SetBypass enables or disables expansion bypass for band n.
func (s *Session) SetBypass(n int, bypass bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkBand(n); err != nil {
		return err
	}
	s.controls[n].Bypass = bypass
	return nil
}

// Controls returns a snapshot of all band controls.
func (s *Session) Controls() []BandControl {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]BandControl(nil), s.controls...)
}

// SetControls replaces all band controls at once. The slice must hold one
// entry per band.
func (s *Session) SetControls(controls []BandControl) error {
	normalized, err := normalizeControls(controls)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if len(normalized) != len(s.controls) {
		return fmt.Errorf("%w: got %d controls for %d bands", ErrBandCount, len(normalized), len(s.controls))
	}
	copy(s.controls, normalized)
	return nil
}

func normalizeControls(controls []BandControl) ([]BandControl, error) {
	out := make([]BandControl, len(controls))
	for i, c := range controls {
		n, err := c.normalized()
		if err != nil {
			return nil, fmt.Errorf("band %d: %w", i, err)
		}
		out[i] = n
	}
	return out, nil
}
