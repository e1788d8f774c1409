package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/cwbudde/algo-crystalizer/dsp/dither"
	"github.com/cwbudde/algo-crystalizer/internal/audio"
	"github.com/cwbudde/algo-crystalizer/internal/preset"
	"github.com/cwbudde/algo-crystalizer/internal/report"
	"github.com/cwbudde/algo-crystalizer/internal/ui"
)

var errInterrupted = errors.New("interrupted")

// ProcessCmd crystalizes a file.
type ProcessCmd struct {
	controlFlags `embed:""`

	Input      string `arg:"" type:"existingfile" help:"Input WAV file"`
	Output     string `arg:"" type:"path" help:"Output WAV file"`
	SavePreset string `type:"path" help:"Save the effective band settings as a JSON preset"`
	Plain      bool   `help:"Print plain progress instead of the interactive view"`

	Format       string  `enum:"float32,pcm16,pcm24" default:"float32" help:"Output sample format (float32, pcm16, pcm24)"`
	Dither       string  `enum:"none,rpdf,tpdf,gaussian" default:"tpdf" help:"Dither for PCM output (none, rpdf, tpdf, gaussian)"`
	DitherAmount float64 `default:"1" help:"Dither amplitude in LSB"`
	NoiseShaping bool    `help:"Apply first-order noise shaping to PCM output"`
}

func (c *ProcessCmd) Run(rc *runContext) error {
	clip, err := readClip(c.Input)
	if err != nil {
		return err
	}

	if c.Plain {
		return c.runPlain(rc, clip)
	}
	return c.runInteractive(rc, clip)
}

func (c *ProcessCmd) runPlain(rc *runContext, clip *audio.Clip) error {
	fmt.Println(titleStyle.Render("crystalize"))
	printField("Input", c.Input)
	printField("Rate", fmt.Sprintf("%d Hz", clip.SampleRate))
	printField("Frames", clip.Frames())

	onLatency := func(d time.Duration) { printField("Latency", d) }
	r, err := c.run(rc.Ctx, rc, clip, onLatency, nil)
	if errors.Is(err, context.Canceled) {
		return errInterrupted
	}
	if err != nil {
		return err
	}

	printField("Output", c.Output)
	fmt.Println()
	fmt.Println(ui.RenderReport(r))
	return nil
}

func (c *ProcessCmd) runInteractive(rc *runContext, clip *audio.Clip) error {
	model := ui.NewModel()
	p := tea.NewProgram(model)
	msgs := model.ProgressChan

	// Canceled when the view exits so the worker neither blocks on msgs nor
	// writes the output after the user quit.
	ctx, cancel := context.WithCancel(rc.Ctx)
	defer cancel()
	send := func(msg tea.Msg) {
		select {
		case msgs <- msg:
		case <-ctx.Done():
		}
	}

	finished := make(chan struct{})
	go func() {
		defer close(finished)

		send(ui.StartMsg{
			Input:      c.Input,
			Output:     c.Output,
			SampleRate: clip.SampleRate,
			Frames:     clip.Frames(),
			BlockSize:  c.BlockSize,
		})

		onLatency := func(d time.Duration) { send(ui.LatencyMsg{Latency: d}) }

		// Report whole percents only.
		lastPercent := -1
		progress := func(done, total int) {
			if percent := 100 * done / total; percent != lastPercent {
				lastPercent = percent
				send(ui.ProgressMsg{Done: done, Total: total})
			}
		}

		r, err := c.run(ctx, rc, clip, onLatency, progress)
		send(ui.CompleteMsg{Report: r, Err: err})
	}()

	final, err := p.Run()
	cancel()
	<-finished
	if err != nil {
		return fmt.Errorf("ui: %w", err)
	}
	if m, ok := final.(ui.Model); ok {
		if !m.Done {
			return errInterrupted
		}
		return m.Err
	}
	return nil
}

// run crystalizes clip, writes the output file and compares it with the
// input. No output file is created when ctx is done before processing
// completes.
func (c *ProcessCmd) run(ctx context.Context, rc *runContext, clip *audio.Clip, onLatency func(time.Duration), progress func(done, total int)) (*report.Report, error) {
	session, delay, err := c.newSession(clip, rc.Logger, onLatency)
	if err != nil {
		return nil, err
	}
	defer session.Stop()

	if c.SavePreset != "" {
		if err := preset.SaveFile(c.SavePreset, preset.FromControls(presetName(c.SavePreset), session.Controls())); err != nil {
			return nil, err
		}
	}

	rc.Logger.Debug("processing", "input", c.Input, "frames", clip.Frames(), "delay", delay)
	out, err := audio.ProcessClip(ctx, session, clip, audio.Options{
		BlockSizes: c.blockSizes(),
		Delay:      delay,
		Progress:   progress,
	})
	if err != nil {
		return nil, err
	}

	if err := c.writeClip(ctx, out); err != nil {
		return nil, err
	}
	return report.Compare(clip, out)
}

func readClip(path string) (*audio.Clip, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	clip, err := audio.ReadWAV(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return clip, nil
}

// writeClip writes clip in the selected format to a temporary file next to
// the output and renames it into place, so the output is never partial.
func (c *ProcessCmd) writeClip(ctx context.Context, clip *audio.Clip) error {
	var q *dither.Quantizer
	if c.Format != "" && c.Format != "float32" {
		dt, err := dither.ParseDitherType(c.Dither)
		if err != nil {
			return err
		}
		opts := []dither.Option{
			dither.WithBitDepth(16),
			dither.WithDitherType(dt),
			dither.WithDitherAmplitude(c.DitherAmount),
		}
		if c.Format == "pcm24" {
			opts[0] = dither.WithBitDepth(24)
		}
		if c.NoiseShaping {
			opts = append(opts, dither.WithNoiseShaping(dither.FirstOrderShaping))
		}
		if q, err = dither.NewQuantizer(2, opts...); err != nil {
			return err
		}
	}

	f, err := os.CreateTemp(filepath.Dir(c.Output), "."+filepath.Base(c.Output)+".*.tmp")
	if err != nil {
		return err
	}
	tmp := f.Name()
	defer os.Remove(tmp)

	if err = f.Chmod(0o644); err == nil {
		if q != nil {
			err = audio.WriteWAVPCM(f, clip, q)
		} else {
			err = audio.WriteWAVFloat32(f, clip)
		}
	}
	if err != nil {
		f.Close()
		return fmt.Errorf("%s: %w", c.Output, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("%s: %w", c.Output, err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return os.Rename(tmp, c.Output)
}

func presetName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
