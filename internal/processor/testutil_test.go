package processor

import (
	"testing"

	"github.com/linuxmatters/sigcond/internal/sensor"
)

// newTestConfig creates a minimal ChainConfig for testing.
// All filters are disabled and calibration is off - enable only what each
// test needs. This isolates tests from application default changes.
func newTestConfig() *ChainConfig {
	return &ChainConfig{
		BaselineEnabled:     false,
		BaselineLevel:       0,
		CalibrationSamples:  0,
		CalibrationInterval: 0,

		SmoothEnabled: false,
		SmoothFactor:  0.5,

		FloorEnabled: false,
		FloorSamples: 3,

		AmpEnabled: false,
		AmpGain:    1,
		AmpMin:     sensor.ADCMin,
		AmpMax:     sensor.ADCMax,

		FilterOrder: DefaultFilterOrder,
		Adaptive:    false,
	}
}

// TestTraceOptions configures a synthetic trace
type TestTraceOptions struct {
	Samples    int
	SampleRate int
	Offset     int     // Constant DC level
	Ramp       float64 // Added per sample
	Step       int     // Added to every sample from StepAt onwards
	StepAt     int
	Noise      int // Peak uniform noise, 0 = none
}

// generateTestTrace builds an in-memory single-channel recording.
func generateTestTrace(t *testing.T, opts TestTraceOptions) *sensor.Recording {
	t.Helper()

	if opts.Samples == 0 {
		opts.Samples = 200
	}

	// Simple LCG random number generator for deterministic noise
	rngState := uint32(12345)
	nextRandom := func() int {
		rngState = rngState*1664525 + 1013904223
		return int(rngState>>16)%(2*opts.Noise+1) - opts.Noise
	}

	data := make([]int, opts.Samples)
	for i := range data {
		v := opts.Offset + int(opts.Ramp*float64(i))
		if opts.Step != 0 && i >= opts.StepAt {
			v += opts.Step
		}
		if opts.Noise > 0 {
			v += nextRandom()
		}
		data[i] = v
	}

	rec, err := sensor.NewRecording(data, 1, opts.SampleRate)
	if err != nil {
		t.Fatalf("failed to build test trace: %v", err)
	}
	return rec
}

// fakeRecorder captures Recorder calls.
type fakeRecorder struct {
	baselines    []int
	calibrations []int
	samples      []Sample
}

func (f *fakeRecorder) ObserveBaseline(level int, calibrated bool) {
	f.baselines = append(f.baselines, level)
	if calibrated {
		f.calibrations = append(f.calibrations, level)
	}
}

func (f *fakeRecorder) ObserveSample(s Sample) { f.samples = append(f.samples, s) }
