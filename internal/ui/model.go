// Package ui provides the Bubbletea terminal user interface for sigcond
package ui

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"

	"github.com/linuxmatters/sigcond/internal/processor"
)

// SparklineWidth is the number of recent conditioned values shown live.
const SparklineWidth = 48

// FileStatus represents the processing state of a single trace
type FileStatus int

const (
	StatusQueued FileStatus = iota
	StatusAnalysing
	StatusCalibrating
	StatusConditioning
	StatusComplete
	StatusError
)

// FileProgress tracks progress for a single trace
type FileProgress struct {
	InputPath  string
	OutputPath string
	Status     FileStatus

	// Phase tracking
	CurrentPass int
	PassName    string

	// Progress tracking (percentage-based)
	Progress    float64 // 0.0 to 1.0
	StartTime   time.Time
	ElapsedTime time.Duration

	// Analysis results (from Pass 1)
	Measurements *processor.SignalMeasurements

	// Live readout (Pass 3)
	Last   processor.Sample
	Recent *History

	// Completion results
	Result *processor.ProcessingResult

	// Error tracking
	Error error
}

// Model is the Bubbletea model for the processing UI
type Model struct {
	// File queue
	Files          []FileProgress
	CurrentIndex   int
	TotalFiles     int
	CompletedFiles int
	FailedFiles    int

	// Global state
	StartTime time.Time
	Done      bool

	// Terminal dimensions
	Width  int
	Height int
}

// NewModel creates a new UI model with the given inputs
func NewModel(inputs []string) Model {
	files := make([]FileProgress, len(inputs))
	for i, path := range inputs {
		files[i] = FileProgress{
			InputPath: path,
			Status:    StatusQueued,
			Recent:    NewHistory(SparklineWidth),
		}
	}

	return Model{
		Files:        files,
		CurrentIndex: -1, // No file processing yet
		TotalFiles:   len(inputs),
		StartTime:    time.Now(),
	}
}

// Init initializes the model. Updates arrive through tea.Program.Send.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages and updates the model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	log := logrus.WithField("function", "Model.Update")

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		log.Debugf("Window size: %dx%d", m.Width, m.Height)

	case ProgressMsg:
		if m.CurrentIndex >= 0 && m.CurrentIndex < len(m.Files) {
			m.Files[m.CurrentIndex] = updateFileProgress(m.Files[m.CurrentIndex], msg)
		}
		return m, nil

	case FileStartMsg:
		log.Debugf("FileStartMsg received: index=%d, file=%s", msg.FileIndex, msg.FileName)
		if msg.FileIndex < 0 || msg.FileIndex >= len(m.Files) {
			return m, nil
		}
		m.CurrentIndex = msg.FileIndex
		m.Files[m.CurrentIndex].Status = StatusAnalysing
		m.Files[m.CurrentIndex].StartTime = time.Now()
		return m, nil

	case FileCompleteMsg:
		log.Debugf("FileCompleteMsg received: index=%d", msg.FileIndex)
		if msg.FileIndex >= 0 && msg.FileIndex < len(m.Files) {
			fp := &m.Files[msg.FileIndex]
			fp.Result = msg.Result
			fp.Error = msg.Error
			if msg.Result != nil {
				fp.OutputPath = msg.Result.OutputPath
			}

			if msg.Error != nil {
				fp.Status = StatusError
				m.FailedFiles++
			} else {
				fp.Status = StatusComplete
				m.CompletedFiles++
			}
		}
		return m, nil

	case AllCompleteMsg:
		log.Debug("AllCompleteMsg received")
		m.Done = true
		return m, tea.Quit
	}

	return m, nil
}

// View renders the UI
func (m Model) View() string {
	if m.Width == 0 {
		return fmt.Sprintf("Initializing...\nFiles: %d\nCurrent: %d\n", len(m.Files), m.CurrentIndex)
	}

	if m.Done {
		return renderCompletionSummary(m)
	}

	return renderProcessingView(m)
}

// updateFileProgress updates a FileProgress based on a ProgressMsg
func updateFileProgress(fp FileProgress, msg ProgressMsg) FileProgress {
	// Reset the start time when transitioning to a new pass
	if msg.Pass != fp.CurrentPass {
		fp.StartTime = time.Now()
		if fp.Recent != nil {
			fp.Recent.Reset()
		}
	}

	fp.Progress = msg.Progress
	fp.CurrentPass = msg.Pass
	fp.PassName = msg.PassName
	fp.ElapsedTime = time.Since(fp.StartTime)

	if msg.Measurements != nil {
		fp.Measurements = msg.Measurements
	}

	switch msg.Pass {
	case processor.PassAnalysis:
		fp.Status = StatusAnalysing
	case processor.PassCalibration:
		fp.Status = StatusCalibrating
	case processor.PassProcessing:
		fp.Status = StatusConditioning
		// The closing 1.0 update carries no sample
		if msg.Progress < 1.0 {
			fp.Last = msg.Sample
			if fp.Recent != nil {
				fp.Recent.Push(msg.Sample.Conditioned)
			}
		}
	}

	return fp
}
