package processor

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/linuxmatters/sigcond/internal/sensor"
)

func TestAnalyzeSource(t *testing.T) {
	t.Run("constant trace", func(t *testing.T) {
		src := generateTestTrace(t, TestTraceOptions{Samples: 100, SampleRate: 50, Offset: 300})

		m, err := AnalyzeSource(context.Background(), src, 0, nil)
		if err != nil {
			t.Fatalf("AnalyzeSource failed: %v", err)
		}

		if m.Samples != 100 {
			t.Errorf("Samples = %d, want 100", m.Samples)
		}
		if m.Mean != 300 || m.Min != 300 || m.Max != 300 {
			t.Errorf("Mean/Min/Max = %v/%d/%d, want 300/300/300", m.Mean, m.Min, m.Max)
		}
		if m.PeakToPeak != 0 || m.StdDev != 0 || m.Noise != 0 || m.Drift != 0 {
			t.Errorf("flat trace has spread: p2p=%d std=%v noise=%v drift=%v", m.PeakToPeak, m.StdDev, m.Noise, m.Drift)
		}
		if m.Duration != 2*time.Second {
			t.Errorf("Duration = %v, want 2s", m.Duration)
		}
	})

	t.Run("ramp", func(t *testing.T) {
		// 0, 1, ..., 99
		src := generateTestTrace(t, TestTraceOptions{Samples: 100, Ramp: 1})

		m, err := AnalyzeSource(context.Background(), src, 0, nil)
		if err != nil {
			t.Fatalf("AnalyzeSource failed: %v", err)
		}

		if m.PeakToPeak != 99 {
			t.Errorf("PeakToPeak = %d, want 99", m.PeakToPeak)
		}
		if m.Noise != 1 {
			t.Errorf("Noise = %v, want 1", m.Noise)
		}
		// first window averages 4.5, last window averages 94.5
		if m.Drift != 90 {
			t.Errorf("Drift = %v, want 90", m.Drift)
		}
		if math.Abs(m.DriftPerSample-1) > 1e-9 {
			t.Errorf("DriftPerSample = %v, want 1", m.DriftPerSample)
		}
		wantStd := math.Sqrt((100*100 - 1) / 12.0)
		if math.Abs(m.StdDev-wantStd) > 1e-9 {
			t.Errorf("StdDev = %v, want %v", m.StdDev, wantStd)
		}
		if m.Duration != 0 {
			t.Errorf("Duration = %v, want 0 without a sample rate", m.Duration)
		}
	})

	t.Run("saturation", func(t *testing.T) {
		rec, err := sensor.NewRecording([]int{0, 0, 500, 1023, 1023, 1023, 200, 300}, 1, 0)
		if err != nil {
			t.Fatal(err)
		}

		m, err := AnalyzeSource(context.Background(), rec, 0, nil)
		if err != nil {
			t.Fatalf("AnalyzeSource failed: %v", err)
		}
		if m.SaturatedLow != 2 || m.SaturatedHigh != 3 {
			t.Errorf("saturation = %d low / %d high, want 2 / 3", m.SaturatedLow, m.SaturatedHigh)
		}
		if got := m.SaturationRatio(); got != 5.0/8.0 {
			t.Errorf("SaturationRatio() = %v, want %v", got, 5.0/8.0)
		}
		// shorter than one window
		if m.Drift != 0 {
			t.Errorf("Drift = %v, want 0 for a short trace", m.Drift)
		}
	})
}

func TestAnalyzeSourceRewinds(t *testing.T) {
	src := generateTestTrace(t, TestTraceOptions{Samples: 20, Ramp: 1})
	src.Read(0)
	src.Read(0)

	m, err := AnalyzeSource(context.Background(), src, 0, nil)
	if err != nil {
		t.Fatalf("AnalyzeSource failed: %v", err)
	}
	if m.Min != 0 {
		t.Errorf("Min = %d, want 0 (analysis must start at the first frame)", m.Min)
	}
	if src.Remaining() != src.Len() {
		t.Errorf("Remaining() = %d after analysis, want %d", src.Remaining(), src.Len())
	}
}

func TestAnalyzeSourceProgress(t *testing.T) {
	src := generateTestTrace(t, TestTraceOptions{Samples: 1000, Offset: 10})

	var (
		calls    int
		last     float64
		final    *SignalMeasurements
		badPass  bool
		backward bool
	)
	progress := func(pass int, passName string, p float64, s Sample, m *SignalMeasurements) {
		calls++
		if pass != PassAnalysis {
			badPass = true
		}
		if p < last {
			backward = true
		}
		last = p
		if m != nil {
			final = m
		}
	}

	if _, err := AnalyzeSource(context.Background(), src, 0, progress); err != nil {
		t.Fatalf("AnalyzeSource failed: %v", err)
	}
	if badPass {
		t.Error("progress reported a pass other than PassAnalysis")
	}
	if backward {
		t.Error("progress went backwards")
	}
	if last != 1.0 || final == nil {
		t.Errorf("final progress = %v, measurements = %v; want 1.0 and non-nil", last, final)
	}
	// one update per 5 samples plus the final one
	if calls != 201 {
		t.Errorf("progress calls = %d, want 201", calls)
	}
}

func TestAnalyzeSourceCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	src := generateTestTrace(t, TestTraceOptions{Samples: 50})
	_, err := AnalyzeSource(ctx, src, 0, nil)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("AnalyzeSource() error = %v, want context.Canceled", err)
	}
}
