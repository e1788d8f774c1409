// Command crystalize sharpens transients of stereo WAV files with the
// 13-band crystalizer.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/alecthomas/kong"
)

var version = "0.1.0"

// CLI defines the command-line interface.
type CLI struct {
	Version  kong.VersionFlag `short:"v" help:"Show version information"`
	DebugLog string           `name:"debug-log" type:"path" help:"Write filter lifecycle events to this file"`

	Process ProcessCmd `cmd:"" help:"Crystalize a WAV file"`
	Analyze AnalyzeCmd `cmd:"" help:"Compare peak, RMS and crest factor before and after crystalizing"`
	Bands   BandsCmd   `cmd:"" help:"Show the crossover layout"`
	Play    PlayCmd    `cmd:"" help:"Crystalize a WAV file and play it"`
}

// runContext is passed to every command's Run method. Ctx is canceled on
// interrupt.
type runContext struct {
	Ctx    context.Context
	Logger *slog.Logger
}

func main() {
	cliArgs := &CLI{}
	ctx := kong.Parse(cliArgs,
		kong.Name("crystalize"),
		kong.Description("Multi-band transient expander for stereo audio"),
		kong.UsageOnError(),
		kong.Vars{"version": version},
		kong.Help(styledHelp),
	)

	logger, closeLog, err := openDebugLog(cliArgs.DebugLog)
	if err != nil {
		printError(err.Error())
		os.Exit(1)
	}
	defer closeLog()

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := ctx.Run(&runContext{Ctx: sigCtx, Logger: logger}); err != nil {
		printError(err.Error())
		stop()
		closeLog()
		os.Exit(1)
	}
}

// openDebugLog returns a debug-level text logger writing to path, or a
// discarding logger when path is empty.
func openDebugLog(path string) (*slog.Logger, func(), error) {
	if path == "" {
		return slog.New(slog.DiscardHandler), func() {}, nil
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open debug log: %w", err)
	}
	logger := slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return logger, func() { _ = f.Close() }, nil
}
