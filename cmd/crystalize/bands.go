package main

import (
	"fmt"

	"github.com/cwbudde/algo-crystalizer/dsp/filter/bank"
	"github.com/cwbudde/algo-crystalizer/internal/ui"
)

// BandsCmd prints the crossover layout and the filter delay for a rate.
type BandsCmd struct {
	Rate       int       `default:"48000" help:"Sample rate in Hz"`
	Crossovers []float64 `placeholder:"HZ" help:"Crossover frequencies in ascending order (default: the built-in table)"`
	Transition float64   `default:"100" help:"Transition bandwidth in Hz of the outer bands"`
}

func (c *BandsCmd) Run(rc *runContext) error {
	if c.Rate <= 0 {
		return fmt.Errorf("sample rate must be positive, got %d", c.Rate)
	}

	fb := bank.NewFIR(bank.WithCrossovers(c.Crossovers), bank.WithTransitionBand(c.Transition))
	if err := fb.Build(512, float64(c.Rate)); err != nil {
		return fmt.Errorf("build filters: %w", err)
	}
	defer fb.Finish()

	rc.Logger.Debug("bands", "rate", c.Rate, "bands", fb.NumBands())
	fmt.Println(ui.RenderBands(fb.Bands(), float64(c.Rate), fb.GroupDelay()))
	return nil
}
