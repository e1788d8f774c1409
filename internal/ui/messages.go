package ui

import (
	"time"

	"github.com/cwbudde/algo-crystalizer/internal/report"
)

// StartMsg announces the file being processed.
type StartMsg struct {
	Input      string
	Output     string
	SampleRate int
	Frames     int
	BlockSize  int
}

// ProgressMsg reports how many frames have been fed to the crystalizer.
type ProgressMsg struct {
	Done  int
	Total int
}

// LatencyMsg is sent every time the crystalizer rebuilds its filters.
type LatencyMsg struct {
	Latency time.Duration
}

// CompleteMsg ends processing. Report is nil when Err is set.
type CompleteMsg struct {
	Report *report.Report
	Err    error
}
