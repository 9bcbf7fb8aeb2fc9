package ui

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/linuxmatters/sigcond/internal/sensor"
)

// Colour palette shared by the processing and analysis views
var (
	primaryColour = lipgloss.Color("#0077AA")
	activeColour  = lipgloss.Color("#FFA500")
	okColour      = lipgloss.Color("#00AA00")
	errorColour   = lipgloss.Color("#A40000")
	mutedColour   = lipgloss.Color("#888888")
)

// renderProcessingView renders the main processing view
func renderProcessingView(m Model) string {
	var b strings.Builder

	b.WriteString(renderHeader(m))
	b.WriteString("\n\n")

	b.WriteString(renderFileQueue(m))
	b.WriteString("\n\n")

	b.WriteString(renderOverallProgress(m))

	return b.String()
}

// renderHeader renders the application header
func renderHeader(m Model) string {
	title := lipgloss.NewStyle().
		Bold(true).
		Foreground(primaryColour).
		Render("sigcond 📈 - Sensor Signal Conditioner")

	subtitle := lipgloss.NewStyle().
		Foreground(mutedColour).
		Italic(true).
		Render(fmt.Sprintf("Conditioning %d trace(s)", m.TotalFiles))

	return title + "\n" + subtitle
}

// renderFileQueue renders the list of traces with their status
func renderFileQueue(m Model) string {
	var b strings.Builder

	for _, file := range m.Files {
		b.WriteString(renderFileEntry(file))
		b.WriteString("\n")
	}

	return b.String()
}

// renderFileEntry renders a single trace entry in the queue
func renderFileEntry(file FileProgress) string {
	fileName := filepath.Base(file.InputPath)

	switch file.Status {
	case StatusComplete:
		icon := lipgloss.NewStyle().Foreground(okColour).Render("✓")
		return fmt.Sprintf(" %s %s → %s\n   %s", icon, fileName, filepath.Base(file.OutputPath), resultSummary(file))

	case StatusAnalysing, StatusCalibrating, StatusConditioning:
		icon := lipgloss.NewStyle().Foreground(activeColour).Render("⚙")
		return fmt.Sprintf(" %s %s\n%s", icon, fileName, renderFileDetails(file))

	case StatusError:
		icon := lipgloss.NewStyle().Foreground(errorColour).Render("✗")
		return fmt.Sprintf(" %s %s\n   Error: %v", icon, fileName, file.Error)

	default:
		icon := lipgloss.NewStyle().Foreground(mutedColour).Render("○")
		return fmt.Sprintf(" %s %s\n   Queued...", icon, fileName)
	}
}

// resultSummary is the one-line summary of a completed trace.
func resultSummary(file FileProgress) string {
	r := file.Result
	if r == nil || r.Output == nil {
		return "Done"
	}
	summary := fmt.Sprintf("%s samples | Baseline: %d | Clamped: %s",
		humanize.Comma(int64(r.Output.Samples)), r.BaselineLevel, humanize.Comma(int64(r.Clamped)))
	if r.Input != nil && r.Input.PeakToPeak > 0 {
		summary += fmt.Sprintf(" | Span: %d → %d", r.Input.PeakToPeak, r.Output.PeakToPeak)
	}
	return summary
}

// renderFileDetails renders detailed progress for the active trace
func renderFileDetails(file FileProgress) string {
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(primaryColour).
		Padding(0, 1).
		Width(60)

	var content strings.Builder

	passName := file.PassName
	if passName == "" {
		passName = "Analysing"
	}
	content.WriteString(fmt.Sprintf("Pass %d/3: %s\n", max(file.CurrentPass, 1), passName))

	content.WriteString(renderProgressBar(file.Progress, 40))
	content.WriteString("\n\n")

	elapsed := file.ElapsedTime.Seconds()
	var remaining float64
	if file.Progress > 0 {
		remaining = (elapsed / file.Progress) - elapsed
	}
	content.WriteString(fmt.Sprintf("⏱  Elapsed: %.1fs | Remaining: ~%.1fs", elapsed, remaining))

	if file.Status == StatusConditioning && file.Recent != nil && file.Recent.Len() > 0 {
		clamp := ""
		if file.Last.Clamped {
			clamp = lipgloss.NewStyle().Foreground(errorColour).Render(" CLAMPED")
		}
		content.WriteString(fmt.Sprintf("\n📊 Raw: %4d | Out: %7.1f%s\n", file.Last.Raw, file.Last.Conditioned, clamp))
		content.WriteString(lipgloss.NewStyle().Foreground(okColour).Render(
			file.Recent.Sparkline(sensor.ADCMin, sensor.ADCMax)))
	}

	return box.Render(content.String())
}

// renderProgressBar renders a progress bar
func renderProgressBar(progress float64, width int) string {
	progress = max(0, min(1, progress))
	filled := int(progress * float64(width))
	empty := width - filled

	bar := strings.Repeat("█", filled) + strings.Repeat("░", empty)
	percentage := int(progress * 100)

	return fmt.Sprintf("%s %d%%", bar, percentage)
}

// renderOverallProgress renders the overall progress footer
func renderOverallProgress(m Model) string {
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(mutedColour).
		Padding(0, 1).
		Width(60)

	var content string
	if m.CurrentIndex >= 0 && m.CurrentIndex < len(m.Files) {
		content = fmt.Sprintf("Conditioning trace %d of %d (%d complete)",
			m.CurrentIndex+1, m.TotalFiles, m.CompletedFiles)
	} else {
		content = fmt.Sprintf("Overall Progress: %d/%d complete", m.CompletedFiles, m.TotalFiles)
	}

	return box.Render(content)
}

// renderCompletionSummary renders the final completion summary
func renderCompletionSummary(m Model) string {
	var b strings.Builder

	header := lipgloss.NewStyle().
		Bold(true).
		Foreground(okColour).
		Render("✨ Conditioning Complete!")
	b.WriteString(header)
	b.WriteString("\n\n")

	for _, file := range m.Files {
		switch file.Status {
		case StatusComplete, StatusError:
			b.WriteString(renderFileEntry(file))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(strings.Repeat("─", 60))
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("%d conditioned, %d failed\n", m.CompletedFiles, m.FailedFiles))

	return b.String()
}
