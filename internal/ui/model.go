// Package ui provides the Bubbletea progress view of the process command.
package ui

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/cwbudde/algo-crystalizer/internal/report"
)

// Status is the processing state of the file.
type Status int

const (
	StatusQueued Status = iota
	StatusProcessing
	StatusComplete
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusQueued:
		return "queued"
	case StatusProcessing:
		return "processing"
	case StatusComplete:
		return "complete"
	case StatusError:
		return "error"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// Model is the Bubbletea model of the processing view.
type Model struct {
	Input      string
	Output     string
	SampleRate int
	Frames     int
	BlockSize  int

	Status    Status
	Progress  float64 // 0.0 to 1.0
	StartTime time.Time
	Elapsed   time.Duration

	Latency  time.Duration
	Rebuilds int

	Report *report.Report
	Err    error
	Done   bool

	// Receives messages from the processing goroutine.
	ProgressChan chan tea.Msg

	Width  int
	Height int
}

// NewModel returns a model waiting for a StartMsg.
func NewModel() Model {
	return Model{
		StartTime:    time.Now(),
		ProgressChan: make(chan tea.Msg, 100),
	}
}

func (m Model) Init() tea.Cmd {
	return waitForProgress(m.ProgressChan)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height

	case StartMsg:
		m.Input = msg.Input
		m.Output = msg.Output
		m.SampleRate = msg.SampleRate
		m.Frames = msg.Frames
		m.BlockSize = msg.BlockSize
		m.Status = StatusProcessing
		m.StartTime = time.Now()
		return m, waitForProgress(m.ProgressChan)

	case ProgressMsg:
		if msg.Total > 0 {
			m.Progress = min(float64(msg.Done)/float64(msg.Total), 1)
		}
		m.Elapsed = time.Since(m.StartTime)
		return m, waitForProgress(m.ProgressChan)

	case LatencyMsg:
		m.Latency = msg.Latency
		m.Rebuilds++
		return m, waitForProgress(m.ProgressChan)

	case CompleteMsg:
		m.Done = true
		m.Elapsed = time.Since(m.StartTime)
		m.Report = msg.Report
		m.Err = msg.Err
		if msg.Err != nil {
			m.Status = StatusError
		} else {
			m.Status = StatusComplete
			m.Progress = 1
		}
		return m, tea.Quit
	}

	return m, nil
}

func (m Model) View() string {
	if m.Done {
		return renderCompletion(m)
	}
	if m.Status == StatusQueued {
		return "Initializing...\n"
	}
	return renderProcessingView(m)
}

func waitForProgress(progressChan chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		return <-progressChan
	}
}
