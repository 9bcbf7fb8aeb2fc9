// Package sensor provides sample sources for the conditioning pipeline: a
// deterministic simulator and replay of captured WAV or CSV traces.
package sensor

import (
	"errors"
	"time"

	"github.com/linuxmatters/sigcond/internal/signal"
)

// ADC range of the sensors being conditioned.
const (
	ADCBits = 10
	ADCMin  = 0
	ADCMax  = 1<<ADCBits - 1
)

var (
	// ErrUnsupportedFormat is returned for files that are neither WAV nor CSV.
	ErrUnsupportedFormat = errors.New("unsupported recording format")
	// ErrEmptyRecording is returned when a recording holds no samples.
	ErrEmptyRecording = errors.New("recording contains no samples")
)

// Format identifies a trace file format.
type Format string

const (
	FormatWAV Format = "wav"
	FormatCSV Format = "csv"

	FormatSimulated Format = "simulated"
)

// Metadata describes a trace.
type Metadata struct {
	Format     Format
	SampleRate int // samples per second; 0 when unknown
	Channels   int
	BitDepth   int // source bit depth before rescaling to the ADC range
	Frames     int // samples per channel
}

// Duration returns the playing time of the trace, or 0 without a sample rate.
func (m Metadata) Duration() time.Duration {
	if m.SampleRate <= 0 {
		return 0
	}
	return time.Duration(m.Frames) * time.Second / time.Duration(m.SampleRate)
}

// Trace is a finite, rewindable sample source.
type Trace interface {
	signal.SampleSource
	Len() int
	Remaining() int
	Rewind()
	Metadata() Metadata
}

// Instant is a Delayer that only records the time it was asked to wait.
// Replayed traces use it so calibration does not stall.
type Instant struct {
	Calls int
	Total time.Duration
}

// Delay records d without sleeping.
func (i *Instant) Delay(d time.Duration) {
	i.Calls++
	i.Total += d
}

// clampADC limits v to the ADC range.
func clampADC(v int) int {
	return max(ADCMin, min(ADCMax, v))
}
