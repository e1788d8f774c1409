// Package preset loads and saves crystalizer band settings as JSON.
//
// A preset lists only the bands it changes:
//
//	{"name": "air", "bands": [{"band": 11, "intensity": 6}, {"band": 0, "mute": true}]}
//
// Bands that are not listed keep their defaults.
package preset

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/cwbudde/algo-crystalizer/dsp/effects/crystalizer"
)

var (
	ErrBandIndex     = errors.New("preset: band index out of range")
	ErrDuplicateBand = errors.New("preset: band listed twice")
)

// Band is the stored setting of one band. A nil Intensity keeps the
// default.
type Band struct {
	Index     int      `json:"band"`
	Intensity *float32 `json:"intensity,omitempty"`
	Mute      bool     `json:"mute,omitempty"`
	Bypass    bool     `json:"bypass,omitempty"`
}

// Preset is a named set of band settings.
type Preset struct {
	Name  string `json:"name,omitempty"`
	Bands []Band `json:"bands"`
}

// FromControls stores every band that differs from the default.
func FromControls(name string, controls []crystalizer.BandControl) *Preset {
	def := crystalizer.DefaultBandControl()
	p := &Preset{Name: name, Bands: []Band{}}
	for i, c := range controls {
		if c == def {
			continue
		}
		b := Band{Index: i, Mute: c.Mute, Bypass: c.Bypass}
		if c.Intensity != def.Intensity {
			v := c.Intensity
			b.Intensity = &v
		}
		p.Bands = append(p.Bands, b)
	}
	return p
}

// Controls expands the preset to one control per band, starting from the
// defaults.
func (p *Preset) Controls(numBands int) ([]crystalizer.BandControl, error) {
	controls := make([]crystalizer.BandControl, numBands)
	for i := range controls {
		controls[i] = crystalizer.DefaultBandControl()
	}

	seen := make(map[int]bool, len(p.Bands))
	for _, b := range p.Bands {
		if b.Index < 0 || b.Index >= numBands {
			return nil, fmt.Errorf("%w: %d (have %d bands)", ErrBandIndex, b.Index, numBands)
		}
		if seen[b.Index] {
			return nil, fmt.Errorf("%w: %d", ErrDuplicateBand, b.Index)
		}
		seen[b.Index] = true

		c := &controls[b.Index]
		if b.Intensity != nil {
			c.Intensity = *b.Intensity
		}
		c.Mute = b.Mute
		c.Bypass = b.Bypass
	}
	return controls, nil
}

// Apply replaces the controls of s with the preset.
func (p *Preset) Apply(s *crystalizer.Session) error {
	controls, err := p.Controls(s.NumBands())
	if err != nil {
		return err
	}
	return s.SetControls(controls)
}

// Load decodes a preset. Unknown fields are rejected.
func Load(r io.Reader) (*Preset, error) {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()

	var p Preset
	if err := dec.Decode(&p); err != nil {
		return nil, fmt.Errorf("preset: decode: %w", err)
	}
	return &p, nil
}

// LoadFile reads a preset from path.
func LoadFile(path string) (*Preset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("preset: %w", err)
	}
	defer f.Close()

	return Load(f)
}

// Save encodes p as indented JSON.
func Save(w io.Writer, p *Preset) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(p); err != nil {
		return fmt.Errorf("preset: encode: %w", err)
	}
	return nil
}

// SaveFile writes p to path.
func SaveFile(path string, p *Preset) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("preset: %w", err)
	}
	if err := Save(f, p); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
