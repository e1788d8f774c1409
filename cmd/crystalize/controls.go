package main

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/cwbudde/algo-crystalizer/dsp/effects/crystalizer"
	"github.com/cwbudde/algo-crystalizer/dsp/filter/bank"
	"github.com/cwbudde/algo-crystalizer/internal/audio"
	"github.com/cwbudde/algo-crystalizer/internal/preset"
)

var errBadIntensity = errors.New("intensity must be VALUE or BAND:VALUE")

// controlFlags are the band and buffer settings shared by the commands that
// run the crystalizer.
type controlFlags struct {
	Intensity []string `short:"i" placeholder:"BAND:VALUE" help:"Expansion intensity (0 to 40) for one band, or VALUE for every band"`
	Mute      []int    `placeholder:"BAND" help:"Leave a band out of the mix"`
	Bypass    []int    `placeholder:"BAND" help:"Mix a band without expansion"`
	Preset    string   `short:"p" type:"existingfile" help:"Load band settings from a JSON preset"`
	BlockSize int      `default:"512" help:"Frames per buffer"`
	VaryBlock bool     `help:"Alternate buffer sizes to exercise filter rebuilds (drops one buffer per change)"`
}

// controls resolves the preset and flags into one control per band.
func (f *controlFlags) controls(numBands int) ([]crystalizer.BandControl, error) {
	p := &preset.Preset{}
	if f.Preset != "" {
		loaded, err := preset.LoadFile(f.Preset)
		if err != nil {
			return nil, err
		}
		p = loaded
	}
	controls, err := p.Controls(numBands)
	if err != nil {
		return nil, err
	}

	for _, arg := range f.Intensity {
		band, value, err := parseIntensity(arg)
		if err != nil {
			return nil, err
		}
		if band < 0 {
			for i := range controls {
				controls[i].Intensity = value
			}
			continue
		}
		if err := checkBand(band, numBands); err != nil {
			return nil, err
		}
		controls[band].Intensity = value
	}

	for _, band := range f.Mute {
		if err := checkBand(band, numBands); err != nil {
			return nil, err
		}
		controls[band].Mute = true
	}
	for _, band := range f.Bypass {
		if err := checkBand(band, numBands); err != nil {
			return nil, err
		}
		controls[band].Bypass = true
	}

	return controls, nil
}

// blockSizes returns the buffer sizes handed to the stream.
func (f *controlFlags) blockSizes() []int {
	if !f.VaryBlock {
		return []int{f.BlockSize}
	}
	return []int{f.BlockSize, f.BlockSize, max(f.BlockSize/2, 1), f.BlockSize, 2 * f.BlockSize}
}

// newSession builds a session for clip with the flag settings and returns
// it together with its filter delay in frames.
func (f *controlFlags) newSession(clip *audio.Clip, logger *slog.Logger, onLatency func(time.Duration)) (*crystalizer.Session, int, error) {
	if f.BlockSize <= 0 {
		return nil, 0, fmt.Errorf("block size must be positive, got %d", f.BlockSize)
	}

	fb := bank.NewFIR()
	controls, err := f.controls(fb.NumBands())
	if err != nil {
		return nil, 0, err
	}

	// Building once up front yields the delay; the session rebuilds on
	// its first buffer.
	if err := fb.Build(f.BlockSize, float64(clip.SampleRate)); err != nil {
		return nil, 0, fmt.Errorf("build filters: %w", err)
	}
	delay := fb.GroupDelay()

	session, err := crystalizer.New(
		crystalizer.WithFilterBank(fb),
		crystalizer.WithControls(controls),
		crystalizer.WithLogger(logger),
		crystalizer.WithLatencyHandler(onLatency),
	)
	if err != nil {
		return nil, 0, err
	}
	if err := session.Setup(clip.SampleRate); err != nil {
		return nil, 0, err
	}
	return session, delay, nil
}

// parseIntensity parses "BAND:VALUE" or "VALUE". A bare value returns band
// -1.
func parseIntensity(arg string) (int, float32, error) {
	bandPart, valuePart, found := strings.Cut(arg, ":")
	if !found {
		bandPart, valuePart = "", arg
	}

	value, err := strconv.ParseFloat(strings.TrimSpace(valuePart), 32)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %q", errBadIntensity, arg)
	}
	if !found {
		return -1, float32(value), nil
	}

	band, err := strconv.Atoi(strings.TrimSpace(bandPart))
	if err != nil || band < 0 {
		return 0, 0, fmt.Errorf("%w: %q", errBadIntensity, arg)
	}
	return band, float32(value), nil
}

func checkBand(band, numBands int) error {
	if band < 0 || band >= numBands {
		return fmt.Errorf("%w: %d (have %d bands)", crystalizer.ErrBandIndex, band, numBands)
	}
	return nil
}
