package processor

import (
	"math"
	"testing"

	"github.com/linuxmatters/sigcond/internal/signal"
)

func TestTuneGain(t *testing.T) {
	tests := []struct {
		name       string
		peakToPeak int
		ampMin     int
		ampMax     int
		startGain  float64
		wantGain   float64
	}{
		{"fills 90% of 10-bit range", 100, 0, 1023, 2, 9.21},
		{"wide span attenuates", 2000, 0, 1023, 2, 0.46},
		{"tiny span capped at gainMax", 10, 0, 1023, 2, gainMax},
		{"huge span floored at gainMin", 100000, 0, 1023, 2, gainMin},
		{"flat trace keeps gain", 3, 0, 1023, 3.5, 3.5},
		{"inverted range keeps gain", 100, 100, 0, 3.5, 3.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := newTestConfig()
			cfg.AmpGain = tt.startGain
			cfg.AmpMin, cfg.AmpMax = tt.ampMin, tt.ampMax

			tuneGain(cfg, &SignalMeasurements{PeakToPeak: tt.peakToPeak})

			if math.Abs(cfg.AmpGain-tt.wantGain) > 1e-9 {
				t.Errorf("tuneGain(p2p=%d) gain = %v, want %v", tt.peakToPeak, cfg.AmpGain, tt.wantGain)
			}
		})
	}
}

func TestTuneSmoothing(t *testing.T) {
	tests := []struct {
		name       string
		noise      float64
		peakToPeak int
		want       float64
	}{
		{"clean", 0.5, 100, smoothFactorClean},
		{"moderate", 3, 100, smoothFactorModerate},
		{"noisy", 10, 100, smoothFactorNoisy},
		{"very noisy", 40, 100, smoothFactorVeryNoisy},
		{"zero span counts as one", 0.5, 0, smoothFactorVeryNoisy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := newTestConfig()
			tuneSmoothing(cfg, &SignalMeasurements{Noise: tt.noise, PeakToPeak: tt.peakToPeak})
			if cfg.SmoothFactor != tt.want {
				t.Errorf("tuneSmoothing(noise=%v, p2p=%d) = %v, want %v", tt.noise, tt.peakToPeak, cfg.SmoothFactor, tt.want)
			}
		})
	}

	// More noise never means lighter smoothing.
	prev := 1.0
	for _, noise := range []float64{0, 0.5, 1, 3, 5, 10, 15, 40, 100} {
		cfg := newTestConfig()
		tuneSmoothing(cfg, &SignalMeasurements{Noise: noise, PeakToPeak: 100})
		if cfg.SmoothFactor > prev {
			t.Errorf("noise %v: factor %v exceeds factor %v for less noise", noise, cfg.SmoothFactor, prev)
		}
		prev = cfg.SmoothFactor
	}
}

func TestTuneFloorWindow(t *testing.T) {
	tests := []struct {
		name      string
		m         SignalMeasurements
		wantFloor int
	}{
		{"no drift keeps window", SignalMeasurements{Noise: 2}, 3},
		{"drift below noise keeps window", SignalMeasurements{Noise: 5, Drift: 4, DriftPerSample: 0.1}, 3},
		{"slow drift, long window", SignalMeasurements{Noise: 2, Drift: 20, DriftPerSample: 0.1}, 20},
		{"fast drift capped at minimum", SignalMeasurements{Noise: 2, Drift: 500, DriftPerSample: 5}, floorSamplesMin},
		{"very slow drift capped at maximum", SignalMeasurements{Noise: 2, Drift: 10, DriftPerSample: 0.001}, floorSamplesMax},
		{"falling drift uses magnitude", SignalMeasurements{Noise: 2, Drift: -20, DriftPerSample: -0.1}, 20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := newTestConfig()
			m := tt.m
			tuneFloorWindow(cfg, &m)
			if cfg.FloorSamples != tt.wantFloor {
				t.Errorf("tuneFloorWindow(%+v) = %d, want %d", tt.m, cfg.FloorSamples, tt.wantFloor)
			}
		})
	}
}

func TestSanitizeConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*ChainConfig)
		check  func(*testing.T, *ChainConfig)
	}{
		{
			name:   "NaN gain",
			mutate: func(c *ChainConfig) { c.AmpGain = math.NaN() },
			check: func(t *testing.T, c *ChainConfig) {
				if c.AmpGain != defaultGain {
					t.Errorf("AmpGain = %v, want %v", c.AmpGain, defaultGain)
				}
			},
		},
		{
			name:   "infinite gain",
			mutate: func(c *ChainConfig) { c.AmpGain = math.Inf(1) },
			check: func(t *testing.T, c *ChainConfig) {
				if c.AmpGain != defaultGain {
					t.Errorf("AmpGain = %v, want %v", c.AmpGain, defaultGain)
				}
			},
		},
		{
			name:   "negative gain",
			mutate: func(c *ChainConfig) { c.AmpGain = -1 },
			check: func(t *testing.T, c *ChainConfig) {
				if c.AmpGain != defaultGain {
					t.Errorf("AmpGain = %v, want %v", c.AmpGain, defaultGain)
				}
			},
		},
		{
			name:   "factor out of domain",
			mutate: func(c *ChainConfig) { c.SmoothFactor = 1 },
			check: func(t *testing.T, c *ChainConfig) {
				if c.SmoothFactor != signal.DefaultSmoothFactor {
					t.Errorf("SmoothFactor = %v, want %v", c.SmoothFactor, signal.DefaultSmoothFactor)
				}
			},
		},
		{
			name:   "zero floor window",
			mutate: func(c *ChainConfig) { c.FloorSamples = 0 },
			check: func(t *testing.T, c *ChainConfig) {
				if c.FloorSamples != defaultFloorSamples {
					t.Errorf("FloorSamples = %d, want %d", c.FloorSamples, defaultFloorSamples)
				}
			},
		},
		{
			name:   "negative calibration",
			mutate: func(c *ChainConfig) { c.CalibrationSamples = -4 },
			check: func(t *testing.T, c *ChainConfig) {
				if c.CalibrationSamples != 0 {
					t.Errorf("CalibrationSamples = %d, want 0", c.CalibrationSamples)
				}
			},
		},
		{
			name:   "valid values untouched",
			mutate: func(c *ChainConfig) {
				c.AmpGain = 7.5
				c.SmoothFactor = 0.3
				c.FloorSamples = 12
			},
			check: func(t *testing.T, c *ChainConfig) {
				if c.AmpGain != 7.5 || c.SmoothFactor != 0.3 || c.FloorSamples != 12 {
					t.Errorf("valid config changed: gain=%v factor=%v floor=%d", c.AmpGain, c.SmoothFactor, c.FloorSamples)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := newTestConfig()
			tt.mutate(cfg)
			sanitizeConfig(cfg)
			tt.check(t, cfg)
		})
	}
}

func TestAdaptConfig(t *testing.T) {
	t.Run("nil measurements leave config alone", func(t *testing.T) {
		cfg := newTestConfig()
		want := *cfg
		AdaptConfig(cfg, nil)
		if cfg.AmpGain != want.AmpGain || cfg.SmoothFactor != want.SmoothFactor || cfg.FloorSamples != want.FloorSamples {
			t.Errorf("AdaptConfig(nil) changed config: %+v", cfg)
		}
	})

	t.Run("stores measurements and tunes", func(t *testing.T) {
		cfg := newTestConfig()
		m := &SignalMeasurements{Samples: 500, PeakToPeak: 200, Noise: 12, Drift: 40, DriftPerSample: 0.5}
		AdaptConfig(cfg, m)

		if cfg.Measurements != m {
			t.Error("AdaptConfig did not store measurements")
		}
		if math.Abs(cfg.AmpGain-4.6) > 1e-9 {
			t.Errorf("AmpGain = %v, want 4.6", cfg.AmpGain)
		}
		if cfg.SmoothFactor != smoothFactorNoisy {
			t.Errorf("SmoothFactor = %v, want %v", cfg.SmoothFactor, smoothFactorNoisy)
		}
		if cfg.FloorSamples != 24 {
			t.Errorf("FloorSamples = %d, want 24", cfg.FloorSamples)
		}
	})
}

func TestAdaptConfigKeepsPinned(t *testing.T) {
	cfg := newTestConfig()
	cfg.AmpGain = 1.5
	cfg.SmoothFactor = 0.9
	cfg.FloorSamples = 7
	cfg.Pinned = Pinned{AmpGain: true, FloorSamples: true}

	m := &SignalMeasurements{Samples: 500, PeakToPeak: 200, Noise: 12, Drift: 40, DriftPerSample: 0.5}
	AdaptConfig(cfg, m)

	if cfg.AmpGain != 1.5 {
		t.Errorf("AmpGain = %v, want pinned 1.5", cfg.AmpGain)
	}
	if cfg.FloorSamples != 7 {
		t.Errorf("FloorSamples = %d, want pinned 7", cfg.FloorSamples)
	}
	if cfg.SmoothFactor != smoothFactorNoisy {
		t.Errorf("SmoothFactor = %v, want tuned %v", cfg.SmoothFactor, smoothFactorNoisy)
	}
}

func TestClamp(t *testing.T) {
	tests := []struct {
		val, min, max, want float64
	}{
		{5, 0, 10, 5},
		{-1, 0, 10, 0},
		{11, 0, 10, 10},
	}
	for _, tt := range tests {
		if got := clamp(tt.val, tt.min, tt.max); got != tt.want {
			t.Errorf("clamp(%v, %v, %v) = %v, want %v", tt.val, tt.min, tt.max, got, tt.want)
		}
	}
}
