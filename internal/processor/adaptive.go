package processor

import (
	"math"

	"github.com/sirupsen/logrus"

	"github.com/linuxmatters/sigcond/internal/signal"
)

// Adaptive tuning constants.
// These thresholds and limits control how filters adapt to Pass 1 measurements.
const (
	// Gain tuning
	gainHeadroom = 0.1  // Fraction of the amplifier range left unused
	gainMin      = 0.25 // Never attenuate harder than this
	gainMax      = 16.0 // Never amplify harder than this
	gainMinSpan  = 4    // ADC counts; flatter traces keep the configured gain

	// Noise-to-span ratios for smoothing classification
	noiseRatioClean    = 0.01 // Below: barely any noise
	noiseRatioModerate = 0.05 // Below: typical sensor noise
	noiseRatioNoisy    = 0.15 // Below: noisy; above: very noisy

	// Smoothing factors (weight of each new sample)
	smoothFactorClean     = 0.8
	smoothFactorModerate  = signal.DefaultSmoothFactor
	smoothFactorNoisy     = 0.2
	smoothFactorVeryNoisy = 0.1

	// Floor window bounds (samples)
	floorSamplesMin = 3
	floorSamplesMax = 50

	// Defaults for sanitisation
	defaultGain         = signal.DefaultGain
	defaultSmoothFactor = signal.DefaultSmoothFactor
	defaultFloorSamples = signal.DefaultWindowCapacity
)

// AdaptConfig tunes filter parameters from Pass 1 measurements.
// It updates config in place. Parameters marked in config.Pinned are kept.
func AdaptConfig(config *ChainConfig, measurements *SignalMeasurements) {
	config.Measurements = measurements
	if measurements == nil || measurements.Samples == 0 {
		return
	}

	kept := logrus.Fields{}
	if config.Pinned.AmpGain {
		kept["gain"] = config.AmpGain
	} else {
		tuneGain(config, measurements)
	}
	if config.Pinned.SmoothFactor {
		kept["smooth_factor"] = config.SmoothFactor
	} else {
		tuneSmoothing(config, measurements)
	}
	if config.Pinned.FloorSamples {
		kept["floor_samples"] = config.FloorSamples
	} else {
		tuneFloorWindow(config, measurements)
	}
	if len(kept) > 0 {
		logrus.WithFields(kept).Info("Adaptive tuning kept configured values")
	}

	// Final safety checks
	sanitizeConfig(config)

	logrus.WithFields(logrus.Fields{
		"function":      "AdaptConfig",
		"gain":          config.AmpGain,
		"smooth_factor": config.SmoothFactor,
		"floor_samples": config.FloorSamples,
	}).Info("Adaptive tuning applied")
}

// tuneGain fits the measured peak-to-peak span into the amplifier range,
// leaving gainHeadroom spare. Once baseline and floor removal have pulled
// the resting level to zero, the span is what remains to be amplified.
func tuneGain(config *ChainConfig, m *SignalMeasurements) {
	if m.PeakToPeak < gainMinSpan {
		return
	}
	usable := float64(config.AmpMax-config.AmpMin) * (1 - gainHeadroom)
	if usable <= 0 {
		return
	}
	gain := usable / float64(m.PeakToPeak)
	config.AmpGain = math.Round(clamp(gain, gainMin, gainMax)*100) / 100
}

// tuneSmoothing picks the smoothing factor from the noise-to-span ratio:
// noisier traces get heavier smoothing (a smaller factor).
func tuneSmoothing(config *ChainConfig, m *SignalMeasurements) {
	span := math.Max(float64(m.PeakToPeak), 1)
	ratio := m.Noise / span

	switch {
	case ratio < noiseRatioClean:
		config.SmoothFactor = smoothFactorClean
	case ratio < noiseRatioModerate:
		config.SmoothFactor = smoothFactorModerate
	case ratio < noiseRatioNoisy:
		config.SmoothFactor = smoothFactorNoisy
	default:
		config.SmoothFactor = smoothFactorVeryNoisy
	}
}

// tuneFloorWindow shortens the floor window as drift speeds up: the window
// covers roughly the samples it takes the floor to drift by one noise step.
// Drift smaller than the noise leaves the window alone.
func tuneFloorWindow(config *ChainConfig, m *SignalMeasurements) {
	driftRate := math.Abs(m.DriftPerSample)
	if driftRate == 0 || math.Abs(m.Drift) < m.Noise {
		return
	}
	samples := m.Noise / driftRate
	config.FloorSamples = int(clamp(samples, floorSamplesMin, floorSamplesMax))
}

// sanitizeConfig ensures no NaN, Inf or out-of-domain values remain after
// adaptive tuning
func sanitizeConfig(config *ChainConfig) {
	config.AmpGain = sanitizeFloat(config.AmpGain, defaultGain)
	if config.AmpGain <= 0 {
		config.AmpGain = defaultGain
	}

	if !signal.FactorDomain.Contains(config.SmoothFactor) {
		config.SmoothFactor = defaultSmoothFactor
	}

	if config.FloorSamples < 1 {
		config.FloorSamples = defaultFloorSamples
	}

	if config.CalibrationSamples < 0 {
		config.CalibrationSamples = 0
	}
}

// sanitizeFloat returns defaultVal if val is NaN or Inf
func sanitizeFloat(val, defaultVal float64) float64 {
	if math.IsNaN(val) || math.IsInf(val, 0) {
		return defaultVal
	}
	return val
}

// clamp restricts val to the range [min, max]
func clamp(val, min, max float64) float64 {
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}
