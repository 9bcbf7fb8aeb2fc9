// Package logging handles generation of session reports for conditioned traces.
// This file provides console display for analysis-only mode.

package logging

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/linuxmatters/sigcond/internal/processor"
	"github.com/linuxmatters/sigcond/internal/sensor"
)

// DisplayAnalysisResults outputs Pass 1 analysis results to the console.
// Used by --analyse mode for rapid inspection without conditioning.
func DisplayAnalysisResults(w io.Writer, inputPath string, metadata sensor.Metadata, m *processor.SignalMeasurements, config *processor.ChainConfig) {
	fmt.Fprintln(w, strings.Repeat("=", 70))
	fmt.Fprintf(w, "ANALYSIS: %s\n", filepath.Base(inputPath))
	fmt.Fprintln(w, strings.Repeat("=", 70))

	fmt.Fprintf(w, "Source:      %s\n", describeSource(metadata))
	if d := metadata.Duration(); d > 0 {
		fmt.Fprintf(w, "Duration:    %s\n", formatDuration(d))
	}
	fmt.Fprintln(w)

	if m == nil || m.Samples == 0 {
		fmt.Fprintln(w, "No samples to analyse")
		return
	}

	writeAnalysisSection(w, "LEVEL")
	fmt.Fprintf(w, "  Mean:           %.1f counts\n", m.Mean)
	fmt.Fprintf(w, "  Range:          %d - %d (%d counts peak-to-peak)\n", m.Min, m.Max, m.PeakToPeak)
	fmt.Fprintf(w, "  Std Dev:        %.2f counts\n", m.StdDev)
	fmt.Fprintln(w)

	writeAnalysisSection(w, "STABILITY")
	span := float64(max(m.PeakToPeak, 1))
	fmt.Fprintf(w, "  Noise:          %.2f counts/sample (%s)\n", m.Noise, interpretNoise(m.Noise/span))
	fmt.Fprintf(w, "  Drift:          %s counts (%s)\n", formatMetricSigned(m.Drift, 1), interpretDrift(m.Drift))
	fmt.Fprintln(w)

	writeAnalysisSection(w, "SATURATION")
	fmt.Fprintf(w, "  At 0:           %s\n", formatCount(m.SaturatedLow))
	fmt.Fprintf(w, "  At %d:        %s\n", sensor.ADCMax, formatCount(m.SaturatedHigh))
	fmt.Fprintf(w, "  Ratio:          %s\n", formatPercent(m.SaturationRatio()))
	fmt.Fprintln(w)

	if config != nil {
		writeAnalysisSection(w, "ADAPTED CHAIN")
		if !config.Adaptive {
			fmt.Fprintln(w, "  (adaptive tuning disabled)")
		}
		fmt.Fprintf(w, "  Gain:           ×%.2f\n", config.AmpGain)
		fmt.Fprintf(w, "  Smooth factor:  %.2f\n", config.SmoothFactor)
		fmt.Fprintf(w, "  Floor window:   %d samples\n", config.FloorSamples)
		fmt.Fprintln(w)
	}

	if tips := GenerateSensorTips(m, config); len(tips) > 0 {
		writeAnalysisSection(w, "TIPS")
		for _, tip := range tips {
			fmt.Fprintf(w, "  - %s\n", wrapText(tip.Message, 66, "    "))
		}
	}
}

// writeAnalysisSection writes a section header for analysis output.
func writeAnalysisSection(w io.Writer, title string) {
	fmt.Fprintln(w, title)
}
