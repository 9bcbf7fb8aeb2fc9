package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/linuxmatters/sigcond/internal/processor"
	"github.com/linuxmatters/sigcond/internal/sensor"
)

func testResult() *processor.ProcessingResult {
	cfg := processor.DefaultChainConfig()
	cfg.MainsHz = 50
	cfg.AmpGain = 4.25
	cfg.FloorSamples = 12

	return &processor.ProcessingResult{
		InputPath:  "/data/trace.csv",
		OutputPath: "/data/trace-conditioned.csv",
		Config:     cfg,
		Chain:      []string{"Baseline(300)", "Smooth(0.40)", "Floor(12)", "Amp(×4.25 [0,1023])"},
		Input: &processor.SignalMeasurements{
			Samples: 2000, SampleRate: 200, Mean: 301.5, Min: 180, Max: 420, PeakToPeak: 240,
			StdDev: 55.2, Noise: 9.5, Drift: 60, DriftPerSample: 0.03,
		},
		Output: &processor.SignalMeasurements{
			Samples: 2000, SampleRate: 200, Mean: 410, Min: 0, Max: 1023, PeakToPeak: 1023,
			StdDev: 200, Noise: 3.1, SaturatedHigh: 20,
		},
		BaselineLevel:   300,
		Calibrated:      true,
		CalibrationGap:  60 * time.Millisecond,
		Clamped:         1234,
		FinalFloor:      7,
		AnalysisTime:    12 * time.Millisecond,
		CalibrationTime: 3 * time.Millisecond,
		ProcessingTime:  40 * time.Millisecond,
	}
}

func TestWriteReport(t *testing.T) {
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	data := ReportData{
		SessionID:  "0b5c8a54-3d8e-4b65-9d0e-3f1f1b7f2a11",
		InputPath:  "/data/trace.csv",
		OutputPath: "/data/trace-conditioned.csv",
		StartTime:  start,
		EndTime:    start.Add(100 * time.Millisecond),
		Result:     testResult(),
		Metadata:   sensor.Metadata{Format: sensor.FormatCSV, SampleRate: 200, Channels: 1, Frames: 2000},
	}

	var buf bytes.Buffer
	WriteReport(&buf, data)
	out := buf.String()

	wants := []string{
		"sigcond Session Report",
		"Session:   0b5c8a54-3d8e-4b65-9d0e-3f1f1b7f2a11",
		"Input:     trace.csv (csv, mono, 200 Hz, 2,000 samples)",
		"Duration:  10.0s",
		"Pass 2 (Calibration):  3ms",
		"(100x real-time)",
		" 1. Baseline removal: calibrated from 10 readings",
		"Spacing: whole 50 Hz mains cycles (at least 50ms)",
		" 2. Smoother: factor",
		" 3. Dynamic floor: 12-sample window",
		" 4. Amplifier: ×4.25, clamp [0, 1023]",
		"Rationale: 240-count span scaled",
		"Status: CALIBRATED",
		"Gap:    60ms between readings",
		"Raw  Conditioned",
		"Clamped by amplifier: 1,234 samples",
		"Final floor:          7",
	}
	for _, want := range wants {
		if !strings.Contains(out, want) {
			t.Errorf("report missing %q\n%s", want, out)
		}
	}
}

func TestWriteReportGeneratesSessionID(t *testing.T) {
	var a, b bytes.Buffer
	WriteReport(&a, ReportData{OutputPath: "x.csv"})
	WriteReport(&b, ReportData{OutputPath: "x.csv"})

	sessionLine := func(s string) string {
		for _, line := range strings.Split(s, "\n") {
			if strings.HasPrefix(line, "Session:") {
				return line
			}
		}
		return ""
	}
	la, lb := sessionLine(a.String()), sessionLine(b.String())
	if la == "" || la == lb {
		t.Errorf("session lines %q and %q should be present and distinct", la, lb)
	}
}

func TestWriteReportDisabledFilters(t *testing.T) {
	r := testResult()
	r.Config.BaselineEnabled = false
	r.Config.SmoothEnabled = false
	r.Config.FloorEnabled = false
	r.Config.AmpEnabled = false
	r.Calibrated = false

	var buf bytes.Buffer
	WriteReport(&buf, ReportData{OutputPath: "x.csv", Result: r})
	out := buf.String()

	for _, want := range []string{
		"Baseline removal: DISABLED",
		"Smoother: DISABLED",
		"Dynamic floor: DISABLED",
		"Amplifier: DISABLED",
		"Pass 2 (Calibration):  skipped",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("report missing %q", want)
		}
	}
	if strings.Contains(out, "Final floor") {
		t.Error("report shows a final floor with the floor filter disabled")
	}
	if strings.Contains(out, "Clipped in output") {
		t.Error("report shows output clipping when nothing was clipped")
	}
}

func TestWriteReportOutputClipping(t *testing.T) {
	r := testResult()
	r.OutputClipped = 42

	var buf bytes.Buffer
	WriteReport(&buf, ReportData{OutputPath: "x.wav", Result: r})
	if want := "Clipped in output:    42 samples"; !strings.Contains(buf.String(), want) {
		t.Errorf("report missing %q", want)
	}
}

func TestGenerateReport(t *testing.T) {
	dir := t.TempDir()
	output := filepath.Join(dir, "trace-conditioned.csv")
	if err := os.WriteFile(output, []byte("raw,conditioned\n1,2\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	path, err := GenerateReport(ReportData{
		InputPath:  filepath.Join(dir, "trace.csv"),
		OutputPath: output,
		StartTime:  time.Now(),
		EndTime:    time.Now(),
		Result:     testResult(),
	})
	if err != nil {
		t.Fatalf("GenerateReport failed: %v", err)
	}

	if want := filepath.Join(dir, "trace-conditioned.log"); path != want {
		t.Errorf("report path = %q, want %q", path, want)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	// humanize.Bytes of the 20-byte output
	if !strings.Contains(string(content), "trace-conditioned.csv (20 B)") {
		t.Errorf("report does not show the output size:\n%s", content)
	}
}

func TestGenerateReportUnwritable(t *testing.T) {
	_, err := GenerateReport(ReportData{OutputPath: filepath.Join(t.TempDir(), "missing", "out.csv")})
	if err == nil {
		t.Error("GenerateReport() into a missing directory succeeded, want error")
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{250 * time.Millisecond, "250ms"},
		{1500 * time.Millisecond, "1.5s"},
		{90 * time.Second, "1m 30s"},
		{3*time.Hour + 5*time.Minute + 7*time.Second, "3h 5m 7s"},
	}
	for _, tt := range tests {
		if got := formatDuration(tt.d); got != tt.want {
			t.Errorf("formatDuration(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}

func TestDisplayAnalysisResults(t *testing.T) {
	r := testResult()
	var buf bytes.Buffer
	DisplayAnalysisResults(&buf, "/data/trace.wav",
		sensor.Metadata{Format: sensor.FormatWAV, SampleRate: 1000, Channels: 1, BitDepth: 16, Frames: 5000},
		r.Input, r.Config)
	out := buf.String()

	for _, want := range []string{
		"ANALYSIS: trace.wav",
		"Source:      wav, 16-bit mono, 1,000 Hz, 5,000 samples",
		"Duration:    5.0s",
		"Range:          180 - 420 (240 counts peak-to-peak)",
		"Drift:          +60.0 counts (drifting)",
		"Gain:           ×4.25",
		"Floor window:   12 samples",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("display missing %q\n%s", want, out)
		}
	}
}

func TestDisplayAnalysisResultsEmpty(t *testing.T) {
	var buf bytes.Buffer
	DisplayAnalysisResults(&buf, "empty.csv", sensor.Metadata{}, nil, nil)
	if !strings.Contains(buf.String(), "No samples to analyse") {
		t.Errorf("display = %q, want a no-samples notice", buf.String())
	}
}
