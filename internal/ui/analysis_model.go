package ui

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/linuxmatters/sigcond/internal/processor"
	"github.com/linuxmatters/sigcond/internal/sensor"
)

// Spinner frames for indeterminate progress
var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// AnalysisModel shows Pass 1 of a single trace: how far through it is and
// the raw readings seen so far.
type AnalysisModel struct {
	FileName string
	FilePath string

	Progress float64 // 0.0 to 1.0
	Raw      int     // Most recent raw reading
	Low      int     // Lowest reading seen
	High     int     // Highest reading seen
	Readings int     // Progress updates received
	Recent   *History

	StartTime    time.Time
	spinnerIndex int

	Measurements *processor.SignalMeasurements
	Config       *processor.ChainConfig
	Error        error
	Done         bool

	Width  int
	Height int
}

// AnalysisStartMsg signals analysis of FilePath has started
type AnalysisStartMsg struct {
	FilePath string
}

// AnalysisProgressMsg carries a sampled raw reading
type AnalysisProgressMsg struct {
	Progress float64
	Raw      int
}

// AnalysisCompleteMsg carries the measurements and the adapted chain
type AnalysisCompleteMsg struct {
	Measurements *processor.SignalMeasurements
	Config       *processor.ChainConfig
	Error        error
}

// tickMsg drives the spinner and elapsed timer
type tickMsg time.Time

// NewAnalysisModel creates a new analysis UI model
func NewAnalysisModel() AnalysisModel {
	return AnalysisModel{
		Recent:    NewHistory(SparklineWidth),
		StartTime: time.Now(),
	}
}

// Init starts the spinner
func (m AnalysisModel) Init() tea.Cmd {
	return tickCmd()
}

func tickCmd() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Update handles messages and updates the model
func (m AnalysisModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if k := msg.String(); k == "q" || k == "ctrl+c" {
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.Width, m.Height = msg.Width, msg.Height

	case tickMsg:
		if m.Done {
			return m, nil
		}
		m.spinnerIndex = (m.spinnerIndex + 1) % len(spinnerFrames)
		return m, tickCmd()

	case AnalysisStartMsg:
		m.FilePath = msg.FilePath
		m.FileName = filepath.Base(msg.FilePath)
		m.StartTime = time.Now()
		m.Readings = 0
		m.Recent.Reset()

	case AnalysisProgressMsg:
		m.Progress = msg.Progress
		if msg.Progress >= 1.0 {
			// Closing update carries no reading
			break
		}
		m.observe(msg.Raw)

	case AnalysisCompleteMsg:
		m.Measurements = msg.Measurements
		m.Config = msg.Config
		m.Error = msg.Error
		m.Done = true
		return m, tea.Quit
	}

	return m, nil
}

func (m *AnalysisModel) observe(raw int) {
	if m.Readings == 0 {
		m.Low, m.High = raw, raw
	}
	m.Low = min(m.Low, raw)
	m.High = max(m.High, raw)
	m.Raw = raw
	m.Readings++
	m.Recent.Push(float64(raw))
}

// View renders the UI
func (m AnalysisModel) View() string {
	if m.Width == 0 {
		return "Initializing..."
	}

	var b strings.Builder

	b.WriteString(lipgloss.NewStyle().Bold(true).Foreground(primaryColour).Render("sigcond 📈"))
	b.WriteString(" ")
	b.WriteString(lipgloss.NewStyle().Foreground(mutedColour).Italic(true).Render("Analysis Mode"))
	b.WriteString("\n\n")

	if m.FileName == "" {
		b.WriteString("Waiting...")
		return b.String()
	}

	b.WriteString("Analysing: ")
	b.WriteString(lipgloss.NewStyle().Bold(true).Render(m.FileName))
	b.WriteString("\n\n")

	elapsed := time.Since(m.StartTime)
	spinner := lipgloss.NewStyle().Foreground(primaryColour).Render(spinnerFrames[m.spinnerIndex])
	switch {
	case m.Done:
	case m.Progress > 0:
		b.WriteString(spinner + " " + renderAnalysisProgressBar(m.Progress, 40, elapsed))
	default:
		b.WriteString(fmt.Sprintf("%s Reading... [%s]", spinner, formatElapsed(elapsed)))
	}
	b.WriteString("\n")

	if m.Readings > 0 && !m.Done {
		b.WriteString(fmt.Sprintf("\nRaw: %d | Range: %d - %d\n", m.Raw, m.Low, m.High))
		b.WriteString(lipgloss.NewStyle().Foreground(activeColour).Render(
			m.Recent.Sparkline(sensor.ADCMin, sensor.ADCMax)))
	}

	return b.String()
}

// renderAnalysisProgressBar renders a thin bar with percentage and elapsed time
func renderAnalysisProgressBar(progress float64, width int, elapsed time.Duration) string {
	progress = max(0, min(1, progress))
	filled := int(progress * float64(width))

	bar := lipgloss.NewStyle().Foreground(primaryColour).Render(strings.Repeat("━", filled)) +
		lipgloss.NewStyle().Foreground(lipgloss.Color("#444444")).Render(strings.Repeat("━", width-filled))

	return fmt.Sprintf("%s %3d%% [%s]", bar, int(progress*100), formatElapsed(elapsed))
}

// formatElapsed formats elapsed time as MM:SS or HH:MM:SS
func formatElapsed(d time.Duration) string {
	d = d.Round(time.Second)
	h, d := d/time.Hour, d%time.Hour
	m, d := d/time.Minute, d%time.Minute
	s := d / time.Second

	if h > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}
