package logging

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/samber/lo"

	"github.com/linuxmatters/sigcond/internal/processor"
	"github.com/linuxmatters/sigcond/internal/sensor"
)

// SensorTip represents a single piece of actionable wiring or setup advice
// derived from Pass 1 measurements.
type SensorTip struct {
	Priority int    // Higher = more important (1-10)
	Message  string // Human-readable advice (1-2 sentences)
	RuleID   string // Identifier for testing/logging (e.g., "saturated_high")
}

// MaxSensorTips is the maximum number of tips to return.
const MaxSensorTips = 5

// Rule thresholds.
const (
	saturationRatio = 0.01 // Fraction of readings at a rail
	smallSpanCounts = 16   // Peak-to-peak below this barely moves the ADC
	noiseRatio      = 0.15 // Mean step / span; matches the "very noisy" smoothing band
	driftRatio      = 0.05 // Drift as a fraction of full scale
	humNoiseRatio   = 0.05 // Moderate noise that mains-synchronous calibration helps with
	gainCeiling     = 16.0 // Adaptive gain ceiling
)

const fullScale = float64(sensor.ADCMax - sensor.ADCMin + 1)

type tipRule func(*processor.SignalMeasurements, *processor.ChainConfig) *SensorTip

// GenerateSensorTips analyses measurements and returns prioritised
// suggestions for improving the sensor setup.
func GenerateSensorTips(m *processor.SignalMeasurements, config *processor.ChainConfig) []SensorTip {
	if m == nil || m.Samples == 0 {
		return nil
	}
	if config == nil {
		config = processor.DefaultChainConfig()
	}

	rules := []tipRule{
		tipFlatTrace,
		tipSaturatedHigh,
		tipSaturatedLow,
		tipSmallSpan,
		tipGainCeiling,
		tipNoisy,
		tipDrift,
		tipMainsSync,
	}

	var tips []SensorTip
	for _, rule := range rules {
		if tip := rule(m, config); tip != nil {
			tips = append(tips, *tip)
		}
	}

	tips = applyExclusions(tips)

	sort.SliceStable(tips, func(i, j int) bool {
		return tips[i].Priority > tips[j].Priority
	})

	if len(tips) > MaxSensorTips {
		tips = tips[:MaxSensorTips]
	}
	return tips
}

// applyExclusions removes tips made redundant by a more specific one. A flat
// trace explains any span, noise or drift tip; a saturated trace is not too
// small; a small span already implies the gain ceiling.
func applyExclusions(tips []SensorTip) []SensorTip {
	fired := lo.Map(tips, func(t SensorTip, _ int) string { return t.RuleID })
	suppressedBy := map[string][]string{
		"small_span":   {"flat_trace", "saturated_high", "saturated_low"},
		"gain_ceiling": {"flat_trace", "saturated_high", "saturated_low", "small_span"},
		"noisy":        {"flat_trace"},
		"drift":        {"flat_trace"},
		"mains_sync":   {"flat_trace"},
	}

	return lo.Filter(tips, func(tip SensorTip, _ int) bool {
		for _, other := range suppressedBy[tip.RuleID] {
			if lo.Contains(fired, other) {
				return false
			}
		}
		return true
	})
}

// wrapText wraps text at word boundaries to fit within maxWidth columns.
// Continuation lines are prefixed with indent.
func wrapText(text string, maxWidth int, indent string) string {
	var lines []string
	current := ""

	for _, word := range strings.Fields(text) {
		switch {
		case current == "":
			current = word
		case len(current)+1+len(word) <= maxWidth:
			current += " " + word
		default:
			lines = append(lines, current)
			current = word
		}
	}
	if current != "" {
		lines = append(lines, current)
	}

	return strings.Join(lines, "\n"+indent)
}

// tipFlatTrace fires when every reading is identical.
func tipFlatTrace(m *processor.SignalMeasurements, _ *processor.ChainConfig) *SensorTip {
	if m.PeakToPeak > 0 || m.Samples < 2 {
		return nil
	}
	return &SensorTip{
		Priority: 10,
		RuleID:   "flat_trace",
		Message:  fmt.Sprintf("Every reading is %d - check the sensor is powered and wired to the pin being read.", m.Min),
	}
}

// tipSaturatedHigh fires when readings pile up at the top rail.
func tipSaturatedHigh(m *processor.SignalMeasurements, _ *processor.ChainConfig) *SensorTip {
	ratio := float64(m.SaturatedHigh) / float64(m.Samples)
	if ratio < saturationRatio || m.PeakToPeak == 0 {
		return nil
	}
	return &SensorTip{
		Priority: 9,
		RuleID:   "saturated_high",
		Message: fmt.Sprintf("%s of readings sit at the top of the ADC range - reduce the sensor's output or add a voltage divider.",
			formatPercent(ratio)),
	}
}

// tipSaturatedLow fires when readings pile up at zero.
func tipSaturatedLow(m *processor.SignalMeasurements, _ *processor.ChainConfig) *SensorTip {
	ratio := float64(m.SaturatedLow) / float64(m.Samples)
	if ratio < saturationRatio || m.PeakToPeak == 0 {
		return nil
	}
	return &SensorTip{
		Priority: 8,
		RuleID:   "saturated_low",
		Message: fmt.Sprintf("%s of readings sit at zero - the sensor may need a bias offset so negative swings are not cut off.",
			formatPercent(ratio)),
	}
}

// tipSmallSpan fires when the signal uses very little of the ADC range.
func tipSmallSpan(m *processor.SignalMeasurements, _ *processor.ChainConfig) *SensorTip {
	if m.PeakToPeak == 0 || m.PeakToPeak >= smallSpanCounts {
		return nil
	}
	return &SensorTip{
		Priority: 7,
		RuleID:   "small_span",
		Message: fmt.Sprintf("The signal only spans %d counts - amplify it before the ADC or use a lower reference voltage for more resolution.",
			m.PeakToPeak),
	}
}

// tipGainCeiling fires when adaptive tuning hit its gain ceiling.
func tipGainCeiling(_ *processor.SignalMeasurements, config *processor.ChainConfig) *SensorTip {
	if !config.Adaptive || !config.AmpEnabled || config.AmpGain < gainCeiling {
		return nil
	}
	return &SensorTip{
		Priority: 6,
		RuleID:   "gain_ceiling",
		Message:  fmt.Sprintf("Gain is at its ×%.0f ceiling - the output will not fill the range; consider analog amplification.", gainCeiling),
	}
}

// tipNoisy fires when sample-to-sample noise is large relative to the span.
func tipNoisy(m *processor.SignalMeasurements, _ *processor.ChainConfig) *SensorTip {
	span := math.Max(float64(m.PeakToPeak), 1)
	if m.Noise/span < noiseRatio {
		return nil
	}
	return &SensorTip{
		Priority: 8,
		RuleID:   "noisy",
		Message: fmt.Sprintf("Readings jump %.1f counts between samples on average - shorten the sensor leads, use shielded cable, or add a small capacitor across the input.",
			m.Noise),
	}
}

// tipDrift fires when the level wanders by more than a few percent of full scale.
func tipDrift(m *processor.SignalMeasurements, _ *processor.ChainConfig) *SensorTip {
	if math.Abs(m.Drift) < driftRatio*fullScale {
		return nil
	}
	direction := "rises"
	if m.Drift < 0 {
		direction = "falls"
	}
	return &SensorTip{
		Priority: 6,
		RuleID:   "drift",
		Message: fmt.Sprintf("The resting level %s by %.0f counts over the trace - let the sensor warm up before calibrating, or enable the floor filter.",
			direction, math.Abs(m.Drift)),
	}
}

// tipMainsSync fires when there is moderate noise and calibration readings
// are not spaced to whole mains cycles.
func tipMainsSync(m *processor.SignalMeasurements, config *processor.ChainConfig) *SensorTip {
	if config.MainsHz > 0 || !config.BaselineEnabled || config.CalibrationSamples == 0 {
		return nil
	}
	span := math.Max(float64(m.PeakToPeak), 1)
	if m.Noise/span < humNoiseRatio {
		return nil
	}
	return &SensorTip{
		Priority: 4,
		RuleID:   "mains_sync",
		Message:  "Calibration readings are not aligned to mains cycles - set baseline.mains to \"auto\" so hum averages out of the baseline.",
	}
}
