package processor

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/linuxmatters/sigcond/internal/sensor"
	"github.com/linuxmatters/sigcond/internal/signal"
)

// Pass numbers reported through ProgressFunc.
const (
	PassAnalysis    = 1
	PassCalibration = 2
	PassProcessing  = 3
)

// Sample is one step of the pipeline, as seen by progress callbacks and
// recorders.
type Sample struct {
	Index       int
	Raw         int
	Conditioned float64
	Clamped     bool // Amplifier hit a bound
	Floor       int  // DynamicFloor floor after this sample, 0 if disabled
}

// ProgressFunc receives progress updates. progress runs 0..1 within each
// pass; measurements is non-nil only on the final update of Pass 1.
type ProgressFunc func(pass int, passName string, progress float64, sample Sample, measurements *SignalMeasurements)

// SignalMeasurements summarises a trace. All levels are in ADC counts.
type SignalMeasurements struct {
	Samples    int
	SampleRate int
	Duration   time.Duration

	Mean       float64
	Min        int
	Max        int
	PeakToPeak int
	StdDev     float64

	// Noise is the mean absolute difference between consecutive samples.
	Noise float64

	// Drift is the average of the last window minus the average of the first
	// window; DriftPerSample spreads it over the samples between them.
	Drift          float64
	DriftPerSample float64

	// Readings sitting on the ADC rails.
	SaturatedLow  int
	SaturatedHigh int
}

// SaturationRatio returns the fraction of samples at either ADC rail.
func (m *SignalMeasurements) SaturationRatio() float64 {
	if m == nil || m.Samples == 0 {
		return 0
	}
	return float64(m.SaturatedLow+m.SaturatedHigh) / float64(m.Samples)
}

// measurementAccumulator collects running statistics one sample at a time.
// Variance uses Welford's method.
type measurementAccumulator struct {
	count    int
	mean     float64
	m2       float64
	min, max int
	prev     int
	deltaSum float64

	window    *signal.Window
	firstAvg  float64
	haveFirst bool

	railLow, railHigh int
	satLow, satHigh   int
}

func newMeasurementAccumulator(windowSize, railLow, railHigh int) (*measurementAccumulator, error) {
	w, err := signal.NewWindow(windowSize)
	if err != nil {
		return nil, err
	}
	return &measurementAccumulator{
		min:      signal.EmptyMin,
		max:      signal.EmptyMax,
		window:   w,
		railLow:  railLow,
		railHigh: railHigh,
	}, nil
}

func (a *measurementAccumulator) add(v int) {
	a.count++
	delta := float64(v) - a.mean
	a.mean += delta / float64(a.count)
	a.m2 += delta * (float64(v) - a.mean)

	a.min = min(a.min, v)
	a.max = max(a.max, v)

	if a.count > 1 {
		a.deltaSum += math.Abs(float64(v - a.prev))
	}
	a.prev = v

	switch {
	case v <= a.railLow:
		a.satLow++
	case v >= a.railHigh:
		a.satHigh++
	}

	a.window.Push(v)
	if !a.haveFirst && a.window.Full() {
		a.firstAvg = windowMean(a.window)
		a.haveFirst = true
	}
}

func (a *measurementAccumulator) result(sampleRate int) *SignalMeasurements {
	m := &SignalMeasurements{
		Samples:       a.count,
		SampleRate:    sampleRate,
		SaturatedLow:  a.satLow,
		SaturatedHigh: a.satHigh,
	}
	if a.count == 0 {
		return m
	}

	m.Mean = a.mean
	m.Min = a.min
	m.Max = a.max
	m.PeakToPeak = a.max - a.min
	m.StdDev = math.Sqrt(a.m2 / float64(a.count))
	if a.count > 1 {
		m.Noise = a.deltaSum / float64(a.count-1)
	}
	if sampleRate > 0 {
		m.Duration = time.Duration(a.count) * time.Second / time.Duration(sampleRate)
	}

	// Traces shorter than one window have no separate first and last window.
	if a.haveFirst && a.count > a.window.Capacity() {
		m.Drift = windowMean(a.window) - a.firstAvg
		m.DriftPerSample = m.Drift / float64(a.count-a.window.Capacity())
	}
	return m
}

// windowMean is the exact mean of w; Window.Average truncates.
func windowMean(w *signal.Window) float64 {
	if w.Count() == 0 {
		return 0
	}
	return float64(w.Sum()) / float64(w.Count())
}

// progressInterval returns how many samples pass between progress updates.
func progressInterval(total int) int {
	return max(1, total/200)
}

// AnalyzeSource performs Pass 1: it reads the whole trace from pin once and
// measures it. The trace is rewound before and after.
func AnalyzeSource(ctx context.Context, src sensor.Trace, pin uint8, progress ProgressFunc) (*SignalMeasurements, error) {
	src.Rewind()
	defer src.Rewind()

	acc, err := newMeasurementAccumulator(signal.DefaultWindowCapacity, sensor.ADCMin, sensor.ADCMax)
	if err != nil {
		return nil, err
	}

	total := src.Len()
	every := progressInterval(total)
	start := time.Now()

	for i := 0; i < total; i++ {
		if i%every == 0 {
			if err := ctx.Err(); err != nil {
				return nil, fmt.Errorf("analysis interrupted: %w", err)
			}
		}

		raw := src.Read(pin)
		acc.add(raw)

		if progress != nil && i%every == 0 {
			progress(PassAnalysis, "Analysing", float64(i)/float64(total), Sample{Index: i, Raw: raw, Conditioned: float64(raw)}, nil)
		}
	}

	m := acc.result(src.Metadata().SampleRate)

	logrus.WithFields(logrus.Fields{
		"function":  "AnalyzeSource",
		"samples":   m.Samples,
		"mean":      m.Mean,
		"peak2peak": m.PeakToPeak,
		"noise":     m.Noise,
		"drift":     m.Drift,
		"saturated": m.SaturatedLow + m.SaturatedHigh,
		"elapsed":   time.Since(start),
	}).Info("Analysis complete")

	if progress != nil {
		progress(PassAnalysis, "Analysing", 1.0, Sample{Index: total}, m)
	}
	return m, nil
}
