package main

import (
	"fmt"
	"time"

	"github.com/cwbudde/algo-crystalizer/internal/audio"
	"github.com/cwbudde/algo-crystalizer/internal/report"
	"github.com/cwbudde/algo-crystalizer/internal/ui"
)

// AnalyzeCmd compares a file with its crystalized version. Without a
// processed file the input is crystalized in memory.
type AnalyzeCmd struct {
	controlFlags `embed:""`

	Input     string `arg:"" type:"existingfile" help:"Original WAV file"`
	Processed string `arg:"" optional:"" type:"existingfile" help:"Processed WAV file to compare against"`
	Start     int    `default:"0" help:"First frame of the analysis window"`
	Frames    int    `default:"0" help:"Frames in the analysis window (0 to the end)"`
}

func (c *AnalyzeCmd) Run(rc *runContext) error {
	dry, err := readClip(c.Input)
	if err != nil {
		return err
	}

	var wet *audio.Clip
	if c.Processed != "" {
		wet, err = readClip(c.Processed)
	} else {
		wet, err = c.crystalize(rc, dry)
	}
	if err != nil {
		return err
	}

	r, err := report.Compare(dry, wet, report.WithWindow(c.Start, c.Frames))
	if err != nil {
		return err
	}
	fmt.Println(ui.RenderReport(r))
	return nil
}

func (c *AnalyzeCmd) crystalize(rc *runContext, dry *audio.Clip) (*audio.Clip, error) {
	session, delay, err := c.newSession(dry, rc.Logger, func(time.Duration) {})
	if err != nil {
		return nil, err
	}
	defer session.Stop()

	return audio.ProcessClip(rc.Ctx, session, dry, audio.Options{BlockSizes: c.blockSizes(), Delay: delay})
}
