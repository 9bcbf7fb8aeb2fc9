// Package logging provides session reports for conditioned sensor traces.
// This file contains the aligned-column table used to compare raw readings
// with conditioned output.

package logging

import (
	"fmt"
	"math"
	"strings"

	"github.com/dustin/go-humanize"
)

// MetricRow represents a single row in a comparison table.
// Values are pre-formatted strings so rows can mix counts, decimals and times.
type MetricRow struct {
	Label          string   // Row label, e.g., "Peak-to-peak"
	Values         []string // One value per column (Raw, Conditioned)
	Unit           string   // Unit suffix, e.g., "counts", "" for unitless
	Interpretation string   // Optional interpretation text (only shown if non-empty)
}

// MetricTable formats aligned columns for metric comparison.
type MetricTable struct {
	Headers []string    // Column headers, e.g., ["Raw", "Conditioned"]
	Rows    []MetricRow // Data rows
}

// String renders the table with aligned columns.
// - Labels are left-aligned
// - Values are right-aligned within their column
// - Units follow the last value column
// - Interpretation column only shown if any row has one
func (t *MetricTable) String() string {
	if len(t.Rows) == 0 {
		return ""
	}

	labelWidth, unitWidth := 0, 0
	hasInterpretation := false
	valueWidths := make([]int, len(t.Headers))
	for i, header := range t.Headers {
		valueWidths[i] = len(header)
	}
	for _, row := range t.Rows {
		labelWidth = max(labelWidth, len(row.Label))
		unitWidth = max(unitWidth, len(row.Unit))
		hasInterpretation = hasInterpretation || row.Interpretation != ""
		for i, val := range row.Values {
			if i < len(valueWidths) {
				valueWidths[i] = max(valueWidths[i], len(val))
			}
		}
	}

	var sb strings.Builder
	var line strings.Builder

	// Trailing padding is trimmed from every line
	endLine := func() {
		sb.WriteString(strings.TrimRight(line.String(), " "))
		sb.WriteString("\n")
		line.Reset()
	}

	line.WriteString(strings.Repeat(" ", labelWidth+2))
	for i, header := range t.Headers {
		fmt.Fprintf(&line, "%*s  ", valueWidths[i], header)
	}
	if hasInterpretation {
		if unitWidth > 0 {
			line.WriteString(strings.Repeat(" ", unitWidth+1))
		}
		line.WriteString("Interpretation")
	}
	endLine()

	for _, row := range t.Rows {
		fmt.Fprintf(&line, "%-*s  ", labelWidth, row.Label)

		for i := range t.Headers {
			val := MissingValue
			if i < len(row.Values) && row.Values[i] != "" {
				val = row.Values[i]
			}
			fmt.Fprintf(&line, "%*s  ", valueWidths[i], val)
		}

		if unitWidth > 0 {
			fmt.Fprintf(&line, "%-*s ", unitWidth, row.Unit)
		}
		line.WriteString(row.Interpretation)
		endLine()
	}

	return sb.String()
}

// =============================================================================
// Metric Formatting Helpers
// =============================================================================

// MissingValue is the placeholder for unavailable measurements
const MissingValue = "-"

// formatMetric formats a numeric value with the given precision.
// NaN and Inf render as MissingValue.
func formatMetric(value float64, decimals int) string {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return MissingValue
	}
	return fmt.Sprintf("%.*f", decimals, value)
}

// formatMetricSigned formats a value with an explicit sign, e.g. "+12.0".
func formatMetricSigned(value float64, decimals int) string {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return MissingValue
	}
	return fmt.Sprintf("%+.*f", decimals, value)
}

// formatCount formats an integer count with thousands separators.
func formatCount(n int) string {
	return humanize.Comma(int64(n))
}

// formatPercent formats a 0-1 ratio as a percentage.
func formatPercent(ratio float64) string {
	if math.IsNaN(ratio) || math.IsInf(ratio, 0) {
		return MissingValue
	}
	return humanize.FtoaWithDigits(ratio*100, 2) + "%"
}

// =============================================================================
// Table Builder Helpers
// =============================================================================

// NewMetricTable creates a new MetricTable with Raw/Conditioned headers.
func NewMetricTable() *MetricTable {
	return &MetricTable{
		Headers: []string{"Raw", "Conditioned"},
		Rows:    make([]MetricRow, 0),
	}
}

// AddRow adds a row to the table with pre-formatted values.
func (t *MetricTable) AddRow(label string, values []string, unit string, interpretation string) {
	t.Rows = append(t.Rows, MetricRow{
		Label:          label,
		Values:         values,
		Unit:           unit,
		Interpretation: interpretation,
	})
}

// AddMetricRow adds a row with numeric values, formatting them automatically.
// Pass math.NaN() for missing values - they will display as "-".
func (t *MetricTable) AddMetricRow(label string, raw, conditioned float64, decimals int, unit string, interpretation string) {
	t.AddRow(label, []string{
		formatMetric(raw, decimals),
		formatMetric(conditioned, decimals),
	}, unit, interpretation)
}
