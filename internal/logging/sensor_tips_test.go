package logging

import (
	"strings"
	"testing"

	"github.com/linuxmatters/sigcond/internal/processor"
)

func TestWrapText(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		maxWidth int
		indent   string
		want     string
	}{
		{
			name:     "short_text_no_wrap",
			text:     "Hello world",
			maxWidth: 20,
			indent:   "  ",
			want:     "Hello world",
		},
		{
			name:     "long_text_wraps",
			text:     "Shorten the sensor leads for cleaner readings",
			maxWidth: 25,
			indent:   "  ",
			want:     "Shorten the sensor leads\n  for cleaner readings",
		},
		{
			name:     "single_long_word",
			text:     "thermocouple-amplifier",
			maxWidth: 10,
			indent:   "  ",
			want:     "thermocouple-amplifier",
		},
		{
			name:     "empty_input",
			text:     "",
			maxWidth: 20,
			indent:   "  ",
			want:     "",
		},
		{
			name:     "exact_fit",
			text:     "exactly twenty chars",
			maxWidth: 20,
			indent:   "  ",
			want:     "exactly twenty chars",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := wrapText(tt.text, tt.maxWidth, tt.indent)
			if got != tt.want {
				t.Errorf("wrapText() = %q, want %q", got, tt.want)
			}
		})
	}
}

func ruleIDs(tips []SensorTip) []string {
	ids := make([]string, len(tips))
	for i, tip := range tips {
		ids[i] = tip.RuleID
	}
	return ids
}

func TestGenerateSensorTips(t *testing.T) {
	tests := []struct {
		name      string
		m         processor.SignalMeasurements
		configure func(*processor.ChainConfig)
		want      []string
	}{
		{
			name: "flat_trace_suppresses_everything_else",
			m:    processor.SignalMeasurements{Samples: 100, Min: 300, Max: 300},
			want: []string{"flat_trace"},
		},
		{
			name: "saturated_high",
			m:    processor.SignalMeasurements{Samples: 100, PeakToPeak: 900, Noise: 2, SaturatedHigh: 5},
			want: []string{"saturated_high"},
		},
		{
			name: "saturated_low",
			m:    processor.SignalMeasurements{Samples: 100, PeakToPeak: 900, Noise: 2, SaturatedLow: 2},
			want: []string{"saturated_low"},
		},
		{
			name: "saturation_below_threshold",
			m:    processor.SignalMeasurements{Samples: 1000, PeakToPeak: 900, Noise: 2, SaturatedHigh: 5},
			want: []string{},
		},
		{
			name: "small_span_with_hum",
			m:    processor.SignalMeasurements{Samples: 100, PeakToPeak: 8, Noise: 0.5},
			want: []string{"small_span", "mains_sync"},
		},
		{
			name:      "mains_sync_silent_when_synchronised",
			m:         processor.SignalMeasurements{Samples: 100, PeakToPeak: 8, Noise: 0.5},
			configure: func(c *processor.ChainConfig) { c.MainsHz = 50 },
			want:      []string{"small_span"},
		},
		{
			name: "gain_ceiling_suppressed_by_small_span",
			m:    processor.SignalMeasurements{Samples: 100, PeakToPeak: 8, Noise: 0.1},
			configure: func(c *processor.ChainConfig) {
				c.AmpGain = 16
			},
			want: []string{"small_span"},
		},
		{
			name: "gain_ceiling",
			m:    processor.SignalMeasurements{Samples: 100, PeakToPeak: 40, Noise: 0.1},
			configure: func(c *processor.ChainConfig) {
				c.AmpGain = 16
			},
			want: []string{"gain_ceiling"},
		},
		{
			name: "noisy",
			m:    processor.SignalMeasurements{Samples: 100, PeakToPeak: 100, Noise: 20},
			want: []string{"noisy", "mains_sync"},
		},
		{
			name: "drift",
			m:    processor.SignalMeasurements{Samples: 100, PeakToPeak: 200, Noise: 1, Drift: -80},
			want: []string{"drift"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := processor.DefaultChainConfig()
			if tt.configure != nil {
				tt.configure(cfg)
			}
			m := tt.m
			got := ruleIDs(GenerateSensorTips(&m, cfg))
			if strings.Join(got, ",") != strings.Join(tt.want, ",") {
				t.Errorf("GenerateSensorTips() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGenerateSensorTipsEmpty(t *testing.T) {
	if tips := GenerateSensorTips(nil, nil); tips != nil {
		t.Errorf("GenerateSensorTips(nil) = %v, want nil", tips)
	}
	if tips := GenerateSensorTips(&processor.SignalMeasurements{}, nil); tips != nil {
		t.Errorf("GenerateSensorTips(0 samples) = %v, want nil", tips)
	}
}

func TestGenerateSensorTipsOrderedAndCapped(t *testing.T) {
	// Everything except flat_trace fires.
	m := &processor.SignalMeasurements{
		Samples:       100,
		PeakToPeak:    100,
		Noise:         30,
		Drift:         120,
		SaturatedHigh: 10,
		SaturatedLow:  10,
	}
	tips := GenerateSensorTips(m, processor.DefaultChainConfig())

	if len(tips) > MaxSensorTips {
		t.Fatalf("got %d tips, want at most %d", len(tips), MaxSensorTips)
	}
	for i := 1; i < len(tips); i++ {
		if tips[i].Priority > tips[i-1].Priority {
			t.Errorf("tip %d (%s, %d) outranks tip %d (%s, %d)",
				i, tips[i].RuleID, tips[i].Priority, i-1, tips[i-1].RuleID, tips[i-1].Priority)
		}
	}
	if tips[0].RuleID != "saturated_high" {
		t.Errorf("first tip = %s, want saturated_high", tips[0].RuleID)
	}
	if !strings.Contains(tips[0].Message, "10%") {
		t.Errorf("saturation message %q should quote 10%%", tips[0].Message)
	}
}
