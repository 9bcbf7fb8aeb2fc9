// Package logging handles generation of session reports for conditioned traces

package logging

import (
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"github.com/linuxmatters/sigcond/internal/processor"
	"github.com/linuxmatters/sigcond/internal/sensor"
)

// ReportData contains all the information needed to generate a session report
type ReportData struct {
	SessionID  string // Generated when empty
	InputPath  string
	OutputPath string
	StartTime  time.Time
	EndTime    time.Time
	Result     *processor.ProcessingResult
	Metadata   sensor.Metadata
}

// ReportPath returns the report filename for an output: trace-conditioned.csv
// → trace-conditioned.log
func ReportPath(outputPath string) string {
	return strings.TrimSuffix(outputPath, filepath.Ext(outputPath)) + ".log"
}

// GenerateReport writes a session report alongside the output file and
// returns its path.
//
// Report structure:
// 1. Header - session, file info and timestamp
// 2. Processing Summary - pass timings
// 3. Filter Chain Applied - parameters and adaptive rationale
// 4. Calibration
// 5. Signal Measurements - two-column table (Raw/Conditioned)
// 6. Sensor Tips
func GenerateReport(data ReportData) (string, error) {
	logPath := ReportPath(data.OutputPath)

	f, err := os.Create(logPath)
	if err != nil {
		return "", fmt.Errorf("failed to create log file: %w", err)
	}
	defer f.Close()

	WriteReport(f, data)
	return logPath, nil
}

// WriteReport renders the session report to w.
func WriteReport(w io.Writer, data ReportData) {
	if data.SessionID == "" {
		data.SessionID = uuid.New().String()
	}

	writeReportHeader(w, data)
	writeProcessingSummary(w, data)

	if data.Result == nil {
		return
	}
	if data.Result.Config != nil {
		writeFilterChainApplied(w, data.Result.Config, data.Result.Input)
	}
	writeCalibration(w, data.Result)
	writeMeasurementTable(w, data.Result)
	if data.Result.Config != nil {
		writeSensorTips(w, data.Result.Input, data.Result.Config)
	}
}

// writeSection writes a section header with title and dashed underline.
// The underline length matches the title length.
func writeSection(w io.Writer, title string) {
	fmt.Fprintln(w, title)
	fmt.Fprintln(w, strings.Repeat("-", len(title)))
}

// writeReportHeader outputs the report header with file info and timestamp.
func writeReportHeader(w io.Writer, data ReportData) {
	fmt.Fprintln(w, "sigcond Session Report")
	fmt.Fprintln(w, "======================")
	fmt.Fprintf(w, "Session:   %s\n", data.SessionID)
	fmt.Fprintf(w, "Input:     %s (%s)\n", filepath.Base(data.InputPath), describeSource(data.Metadata))
	fmt.Fprintf(w, "Output:    %s%s\n", filepath.Base(data.OutputPath), outputSize(data.OutputPath))
	fmt.Fprintf(w, "Processed: %s\n", data.EndTime.Format("2006-01-02 15:04:05 MST"))
	if d := data.Metadata.Duration(); d > 0 {
		fmt.Fprintf(w, "Duration:  %s\n", formatDuration(d))
	}
	fmt.Fprintln(w, "")
}

// describeSource summarises trace metadata, e.g. "wav, 16-bit mono, 1,000 Hz, 2,000 samples".
func describeSource(m sensor.Metadata) string {
	parts := []string{string(m.Format)}
	if m.Format == "" {
		parts[0] = "unknown"
	}
	if m.BitDepth > 0 {
		parts = append(parts, fmt.Sprintf("%d-bit %s", m.BitDepth, channelName(m.Channels)))
	} else if m.Channels > 0 {
		parts = append(parts, channelName(m.Channels))
	}
	if m.SampleRate > 0 {
		parts = append(parts, formatCount(m.SampleRate)+" Hz")
	}
	parts = append(parts, formatCount(m.Frames)+" samples")
	return strings.Join(parts, ", ")
}

// outputSize returns " (12 kB)" for an existing output file.
func outputSize(path string) string {
	info, err := os.Stat(path)
	if err != nil {
		return ""
	}
	return fmt.Sprintf(" (%s)", humanize.Bytes(uint64(info.Size())))
}

// writeProcessingSummary outputs the processing time summary for all passes.
func writeProcessingSummary(w io.Writer, data ReportData) {
	writeSection(w, "Processing Summary")

	if r := data.Result; r != nil {
		fmt.Fprintf(w, "Pass 1 (Analysis):     %s\n", formatDuration(r.AnalysisTime))
		if r.Calibrated {
			fmt.Fprintf(w, "Pass 2 (Calibration):  %s\n", formatDuration(r.CalibrationTime))
		} else {
			fmt.Fprintln(w, "Pass 2 (Calibration):  skipped")
		}
		fmt.Fprintf(w, "Pass 3 (Conditioning): %s\n", formatDuration(r.ProcessingTime))
	}

	total := data.EndTime.Sub(data.StartTime)
	fmt.Fprintf(w, "Total:                 %s", formatDuration(total))
	if traceDuration := data.Metadata.Duration(); traceDuration > 0 && total > 0 {
		fmt.Fprintf(w, " (%sx real-time)", humanize.FtoaWithDigits(float64(traceDuration)/float64(total), 1))
	}
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "")
}

// formatDuration formats a duration in a human-readable way
func formatDuration(d time.Duration) string {
	switch {
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	case d < time.Minute:
		return fmt.Sprintf("%.1fs", d.Seconds())
	}

	minutes := int(d.Minutes())
	seconds := int(d.Seconds()) % 60
	if minutes < 60 {
		return fmt.Sprintf("%dm %ds", minutes, seconds)
	}

	hours := minutes / 60
	minutes = minutes % 60
	return fmt.Sprintf("%dh %dm %ds", hours, minutes, seconds)
}

// channelName returns a human-readable channel name
func channelName(channels int) string {
	switch channels {
	case 1:
		return "mono"
	case 2:
		return "stereo"
	default:
		return fmt.Sprintf("%d channels", channels)
	}
}

// writeFilterChainApplied outputs each filter in chain order with its
// parameters and, where adaptive tuning chose them, the rationale.
func writeFilterChainApplied(w io.Writer, cfg *processor.ChainConfig, m *processor.SignalMeasurements) {
	writeSection(w, "Filter Chain (in processing order)")

	order := cfg.FilterOrder
	if len(order) == 0 {
		order = processor.DefaultFilterOrder
	}
	for i, id := range order {
		formatFilter(w, id, cfg, m, fmt.Sprintf("%2d. ", i+1))
	}
	if cfg.Adaptive && m != nil {
		fmt.Fprintln(w, "    (parameters tuned from Pass 1 measurements)")
	}
	fmt.Fprintln(w, "")
}

func formatFilter(w io.Writer, id processor.FilterID, cfg *processor.ChainConfig, m *processor.SignalMeasurements, prefix string) {
	switch id {
	case processor.FilterBaseline:
		formatBaselineFilter(w, cfg, prefix)
	case processor.FilterSmooth:
		formatSmoothFilter(w, cfg, m, prefix)
	case processor.FilterFloor:
		formatFloorFilter(w, cfg, m, prefix)
	case processor.FilterAmp:
		formatAmpFilter(w, cfg, m, prefix)
	default:
		fmt.Fprintf(w, "%s%s: (unknown filter)\n", prefix, id)
	}
}

func formatBaselineFilter(w io.Writer, cfg *processor.ChainConfig, prefix string) {
	if !cfg.BaselineEnabled {
		fmt.Fprintf(w, "%sBaseline removal: DISABLED\n", prefix)
		return
	}
	if cfg.CalibrationSamples <= 0 {
		fmt.Fprintf(w, "%sBaseline removal: fixed level %d\n", prefix, cfg.BaselineLevel)
		return
	}
	fmt.Fprintf(w, "%sBaseline removal: calibrated from %d readings\n", prefix, cfg.CalibrationSamples)
	if cfg.MainsHz > 0 {
		fmt.Fprintf(w, "        Spacing: whole %d Hz mains cycles (at least %s)\n", cfg.MainsHz, cfg.CalibrationInterval)
	} else {
		fmt.Fprintf(w, "        Spacing: %s\n", cfg.CalibrationInterval)
	}
}

func formatSmoothFilter(w io.Writer, cfg *processor.ChainConfig, m *processor.SignalMeasurements, prefix string) {
	if !cfg.SmoothEnabled {
		fmt.Fprintf(w, "%sSmoother: DISABLED\n", prefix)
		return
	}
	fmt.Fprintf(w, "%sSmoother: factor %.2f\n", prefix, cfg.SmoothFactor)
	if cfg.Adaptive && m != nil && m.PeakToPeak > 0 {
		ratio := m.Noise / float64(m.PeakToPeak)
		fmt.Fprintf(w, "        Rationale: %s (noise %.1f counts, %s of span)\n",
			interpretNoise(ratio), m.Noise, formatPercent(ratio))
	}
}

func formatFloorFilter(w io.Writer, cfg *processor.ChainConfig, m *processor.SignalMeasurements, prefix string) {
	if !cfg.FloorEnabled {
		fmt.Fprintf(w, "%sDynamic floor: DISABLED\n", prefix)
		return
	}
	fmt.Fprintf(w, "%sDynamic floor: %d-sample window\n", prefix, cfg.FloorSamples)
	if cfg.Adaptive && m != nil && m.Drift != 0 {
		fmt.Fprintf(w, "        Rationale: %s counts drift (%s per sample)\n",
			formatMetricSigned(m.Drift, 1), formatMetricSigned(m.DriftPerSample, 3))
	}
}

func formatAmpFilter(w io.Writer, cfg *processor.ChainConfig, m *processor.SignalMeasurements, prefix string) {
	if !cfg.AmpEnabled {
		fmt.Fprintf(w, "%sAmplifier: DISABLED\n", prefix)
		return
	}
	fmt.Fprintf(w, "%sAmplifier: ×%.2f, clamp [%d, %d]\n", prefix, cfg.AmpGain, cfg.AmpMin, cfg.AmpMax)
	if cfg.Adaptive && m != nil && m.PeakToPeak > 0 {
		fmt.Fprintf(w, "        Rationale: %d-count span scaled to fill the output range\n", m.PeakToPeak)
	}
}

// interpretNoise describes sample-to-sample noise relative to the span.
func interpretNoise(ratio float64) string {
	switch {
	case ratio < 0.01:
		return "clean"
	case ratio < 0.05:
		return "typical sensor noise"
	case ratio < 0.15:
		return "noisy"
	default:
		return "very noisy"
	}
}

// interpretDrift describes baseline wander as a fraction of full scale.
func interpretDrift(drift float64) string {
	frac := math.Abs(drift) / fullScale
	switch {
	case frac < 0.01:
		return "stable"
	case frac < driftRatio:
		return "slight drift"
	default:
		return "drifting"
	}
}

// interpretSaturation describes how many readings hit a rail.
func interpretSaturation(ratio float64) string {
	switch {
	case ratio == 0:
		return ""
	case ratio < saturationRatio:
		return "occasional"
	default:
		return "clipping"
	}
}

// writeCalibration outputs Pass 2 results.
func writeCalibration(w io.Writer, r *processor.ProcessingResult) {
	writeSection(w, "Calibration")
	switch {
	case r.Config == nil || !r.Config.BaselineEnabled:
		fmt.Fprintln(w, "Status: DISABLED")
	case !r.Calibrated:
		fmt.Fprintf(w, "Status: FIXED (level %d)\n", r.BaselineLevel)
	default:
		fmt.Fprintln(w, "Status: CALIBRATED")
		fmt.Fprintf(w, "Level:  %d counts\n", r.BaselineLevel)
		fmt.Fprintf(w, "Gap:    %s between readings\n", r.CalibrationGap)
	}
	fmt.Fprintln(w, "")
}

// writeMeasurementTable outputs Raw (Pass 1) against Conditioned (Pass 3).
func writeMeasurementTable(w io.Writer, r *processor.ProcessingResult) {
	writeSection(w, "Signal Measurements")

	in, out := r.Input, r.Output
	if in == nil && out == nil {
		fmt.Fprintln(w, "No measurements available")
		fmt.Fprintln(w, "")
		return
	}
	if in == nil {
		in = &processor.SignalMeasurements{}
	}
	if out == nil {
		out = &processor.SignalMeasurements{}
	}

	table := NewMetricTable()
	table.AddRow("Samples", []string{formatCount(in.Samples), formatCount(out.Samples)}, "", "")
	table.AddMetricRow("Mean", in.Mean, out.Mean, 1, "counts", "")
	table.AddRow("Min", []string{formatCount(in.Min), formatCount(out.Min)}, "counts", "")
	table.AddRow("Max", []string{formatCount(in.Max), formatCount(out.Max)}, "counts", "")
	table.AddRow("Peak-to-peak", []string{formatCount(in.PeakToPeak), formatCount(out.PeakToPeak)}, "counts", "")
	table.AddMetricRow("Std dev", in.StdDev, out.StdDev, 2, "counts", "")

	noiseNote := ""
	if in.PeakToPeak > 0 {
		noiseNote = interpretNoise(in.Noise / float64(in.PeakToPeak))
	}
	table.AddMetricRow("Noise", in.Noise, out.Noise, 2, "counts", noiseNote)
	table.AddRow("Drift", []string{formatMetricSigned(in.Drift, 1), formatMetricSigned(out.Drift, 1)}, "counts", interpretDrift(in.Drift))
	table.AddRow("Saturated", []string{
		formatPercent(in.SaturationRatio()),
		formatPercent(out.SaturationRatio()),
	}, "", interpretSaturation(in.SaturationRatio()))

	fmt.Fprint(w, table.String())
	fmt.Fprintf(w, "\nClamped by amplifier: %s samples\n", formatCount(r.Clamped))
	if r.Config != nil && r.Config.FloorEnabled {
		fmt.Fprintf(w, "Final floor:          %d\n", r.FinalFloor)
	}
	if r.OutputClipped > 0 {
		fmt.Fprintf(w, "Clipped in output:    %s samples (outside 16-bit PCM)\n", formatCount(r.OutputClipped))
	}
	fmt.Fprintln(w, "")
}

// writeSensorTips outputs setup advice derived from Pass 1.
func writeSensorTips(w io.Writer, m *processor.SignalMeasurements, cfg *processor.ChainConfig) {
	tips := GenerateSensorTips(m, cfg)
	if len(tips) == 0 {
		return
	}

	writeSection(w, "Sensor Tips")
	for i, tip := range tips {
		fmt.Fprintf(w, "%d. %s\n", i+1, wrapText(tip.Message, 72, "   "))
	}
	fmt.Fprintln(w, "")
}
