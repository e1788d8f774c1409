package ui

import (
	"fmt"
	"math"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/cwbudde/algo-crystalizer/dsp/filter/bank"
	"github.com/cwbudde/algo-crystalizer/internal/report"
)

var (
	primaryColor = lipgloss.Color("#5FAFD7")
	successColor = lipgloss.Color("#00AA00")
	errorColor   = lipgloss.Color("#A40000")
	mutedColor   = lipgloss.Color("#888888")

	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(primaryColor)
	mutedStyle  = lipgloss.NewStyle().Foreground(mutedColor).Italic(true)
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(primaryColor).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	boxStyle    = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(primaryColor).
			Padding(0, 1).
			Width(60)
)

func renderProcessingView(m Model) string {
	var b strings.Builder

	b.WriteString(renderHeader(m))
	b.WriteString("\n\n")

	var content strings.Builder
	fmt.Fprintf(&content, "%s -> %s\n", filepath.Base(m.Input), filepath.Base(m.Output))
	content.WriteString(renderProgressBar(m.Progress, 40))
	content.WriteString("\n\n")

	elapsed := m.Elapsed.Seconds()
	var remaining float64
	if m.Progress > 0 {
		remaining = elapsed/m.Progress - elapsed
	}
	fmt.Fprintf(&content, "Elapsed: %.1fs | Remaining: ~%.1fs\n", elapsed, remaining)
	fmt.Fprintf(&content, "Latency: %v | Filter builds: %d", m.Latency, m.Rebuilds)

	b.WriteString(boxStyle.Render(content.String()))
	return b.String()
}

func renderHeader(m Model) string {
	title := titleStyle.Render("crystalize")
	subtitle := mutedStyle.Render(fmt.Sprintf("%d Hz | %d frames | %d frames per buffer",
		m.SampleRate, m.Frames, m.BlockSize))
	return title + "\n" + subtitle
}

func renderProgressBar(progress float64, width int) string {
	progress = math.Max(0, math.Min(progress, 1))
	filled := int(progress * float64(width))

	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
	return fmt.Sprintf("%s %d%%", bar, int(progress*100))
}

func renderCompletion(m Model) string {
	if m.Err != nil {
		icon := lipgloss.NewStyle().Foreground(errorColor).Render("✗")
		return fmt.Sprintf(" %s %s\n   Error: %v\n", icon, filepath.Base(m.Input), m.Err)
	}

	var b strings.Builder
	icon := lipgloss.NewStyle().Foreground(successColor).Render("✓")
	fmt.Fprintf(&b, " %s %s -> %s in %.1fs\n\n", icon, filepath.Base(m.Input), filepath.Base(m.Output), m.Elapsed.Seconds())
	if m.Report != nil {
		b.WriteString(RenderReport(m.Report))
		b.WriteString("\n")
	}
	return b.String()
}

// RenderReport renders the level comparison and the band energy table.
func RenderReport(r *report.Report) string {
	var b strings.Builder

	levels := newTable("", "Peak dB", "RMS dB", "Crest dB", "Kurtosis", "Corr.")
	for ch, c := range r.Channels {
		name := [2]string{"L", "R"}[ch]
		levels.Row(name+" dry", db(c.Dry.Peak_dB), db(c.Dry.RMS_dB), db(c.Dry.CrestFactor_dB), num(c.DryKurtosis), "")
		levels.Row(name+" wet", db(c.Wet.Peak_dB), db(c.Wet.RMS_dB), db(c.Wet.CrestFactor_dB), num(c.WetKurtosis), num(c.Correlation))
	}

	b.WriteString(titleStyle.Render("Levels"))
	b.WriteString(mutedStyle.Render(fmt.Sprintf("  frames %d to %d at %d Hz", r.Start, r.Start+r.Frames, r.SampleRate)))
	b.WriteString("\n")
	b.WriteString(levels.String())
	b.WriteString("\n")

	for ch, c := range r.Channels {
		fmt.Fprintf(&b, "%s crest factor %+.2f dB, difference %s dB\n",
			[2]string{"Left", "Right"}[ch], c.CrestGainDB(), db(c.DifferenceDB))
	}

	if sp := r.Spectrum; sp.Dry.Centroid > 0 {
		fmt.Fprintf(&b, "Centroid %.0f -> %.0f Hz, rolloff %.0f -> %.0f Hz, flatness %s -> %s\n",
			sp.Dry.Centroid, sp.Wet.Centroid, sp.Dry.Rolloff, sp.Wet.Rolloff, num(sp.Dry.Flatness), num(sp.Wet.Flatness))
	}

	if len(r.Bands) == 0 {
		return b.String()
	}

	bands := newTable("Band", "Range", "Dry dB", "Wet dB", "Change")
	for _, e := range r.Bands {
		bands.Row(strconv.Itoa(e.Band.Index), bandRange(e.Band), db(e.DryDB), db(e.WetDB), signed(e.GainDB()))
	}
	b.WriteString("\n")
	b.WriteString(titleStyle.Render("Band energy"))
	b.WriteString("\n")
	b.WriteString(bands.String())

	return b.String()
}

// RenderBands renders the crossover layout with the filter delay.
func RenderBands(bands []bank.Band, sampleRate float64, delay int) string {
	t := newTable("Band", "Name", "Kind", "Range", "Transition")
	for _, band := range bands {
		t.Row(strconv.Itoa(band.Index), band.Name, band.Kind.String(), bandRange(band),
			fmt.Sprintf("%g Hz", band.Transition))
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("%d bands at %g Hz", len(bands), sampleRate)))
	b.WriteString("\n")
	b.WriteString(t.String())
	b.WriteString("\n")
	b.WriteString(mutedStyle.Render(fmt.Sprintf("filter delay %d samples (%.2f ms)", delay, 1000*float64(delay)/sampleRate)))
	return b.String()
}

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(mutedColor)).
		Headers(headers...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
}

func bandRange(b bank.Band) string {
	switch {
	case b.Low == 0:
		return fmt.Sprintf("< %g Hz", b.High)
	case b.High == 0:
		return fmt.Sprintf("> %g Hz", b.Low)
	default:
		return fmt.Sprintf("%g to %g Hz", b.Low, b.High)
	}
}

func db(v float64) string {
	switch {
	case math.IsInf(v, -1):
		return "-inf"
	case math.IsInf(v, 1):
		return "+inf"
	}
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func signed(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "n/a"
	}
	return fmt.Sprintf("%+.2f", v)
}

func num(v float64) string {
	if math.IsNaN(v) {
		return "n/a"
	}
	return strconv.FormatFloat(v, 'f', 3, 64)
}
