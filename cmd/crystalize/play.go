package main

import (
	"fmt"
	"math"
	"time"

	"github.com/cwbudde/algo-crystalizer/internal/audio"
)

// PlayCmd crystalizes a file in real time and plays it.
type PlayCmd struct {
	controlFlags `embed:""`

	Input string `arg:"" type:"existingfile" help:"WAV file to play"`
}

func (c *PlayCmd) Run(rc *runContext) error {
	clip, err := readClip(c.Input)
	if err != nil {
		return err
	}

	onLatency := func(d time.Duration) { rc.Logger.Debug("latency", "latency", d) }
	session, delay, err := c.newSession(clip, rc.Logger, onLatency)
	if err != nil {
		return err
	}
	defer session.Stop()

	stream := audio.NewStream(session, clip, audio.Options{BlockSizes: c.blockSizes(), Delay: delay})
	player, err := audio.NewPlayer(clip.SampleRate, stream)
	if err != nil {
		return err
	}

	fmt.Println(titleStyle.Render("crystalize"))
	printField("Playing", c.Input)
	printField("Length", time.Duration(clip.Duration()*float64(time.Second)).Round(time.Millisecond))

	ctx := rc.Ctx
	player.Play()
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			fmt.Println()
			return player.Stop()
		case <-ticker.C:
			if !player.IsPlaying() {
				fmt.Println()
				return player.Stop()
			}
			levels := stream.Levels()
			fmt.Printf("\r%s %s  %s %s",
				keyStyle.Render("Position:"), valueStyle.Render(player.Position().Round(100*time.Millisecond).String()),
				keyStyle.Render("Peak L/R:"), valueStyle.Render(peakDB(levels[0].Peak_dB)+" / "+peakDB(levels[1].Peak_dB)))
		}
	}
}

func peakDB(db float64) string {
	if math.IsInf(db, -1) {
		return "  -inf dB"
	}
	return fmt.Sprintf("%6.1f dB", db)
}
