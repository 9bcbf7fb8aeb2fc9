package ui

import (
	"github.com/linuxmatters/sigcond/internal/processor"
)

// ProgressMsg represents a progress update from the processor
type ProgressMsg struct {
	Pass         int     // processor.PassAnalysis .. processor.PassProcessing
	PassName     string  // "Analysing", "Calibrating" or "Conditioning"
	Progress     float64 // 0.0 to 1.0
	Sample       processor.Sample
	Measurements *processor.SignalMeasurements
}

// FileStartMsg indicates a new trace has started processing
type FileStartMsg struct {
	FileIndex int
	FileName  string
}

// FileCompleteMsg indicates a trace has finished processing
type FileCompleteMsg struct {
	FileIndex int
	Result    *processor.ProcessingResult
	Error     error
}

// AllCompleteMsg indicates all traces have been processed
type AllCompleteMsg struct{}
