// Package processor runs sensor traces through the conditioning chain.
package processor

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/linuxmatters/sigcond/internal/signal"
)

// ErrUnknownFilter is returned when FilterOrder names a filter with no builder.
var ErrUnknownFilter = errors.New("unknown filter")

// FilterID identifies a filter in the conditioning chain
type FilterID string

// Filter identifiers for the conditioning chain
const (
	FilterBaseline FilterID = "baseline" // DC offset removal (calibrated)
	FilterSmooth   FilterID = "smooth"   // Exponential moving average
	FilterFloor    FilterID = "floor"    // Sliding-minimum floor tracking
	FilterAmp      FilterID = "amp"      // Gain with output clamp
)

// DefaultFilterOrder is the order the filters are applied in.
// - Baseline first: everything downstream works on the offset-free signal
// - Smooth before floor: the floor tracks the smoothed minimum, not noise spikes
// - Amp last: clamping is the final safety net
var DefaultFilterOrder = []FilterID{
	FilterBaseline,
	FilterSmooth,
	FilterFloor,
	FilterAmp,
}

// filterBuilderFunc builds one filter from config and records it in the
// pipeline. Returns nil if the filter is disabled.
type filterBuilderFunc func(*ChainConfig, *Pipeline) (signal.Filter, error)

// filterBuilders maps FilterID to its builder function.
var filterBuilders = map[FilterID]filterBuilderFunc{
	FilterBaseline: (*ChainConfig).buildBaseline,
	FilterSmooth:   (*ChainConfig).buildSmoother,
	FilterFloor:    (*ChainConfig).buildFloor,
	FilterAmp:      (*ChainConfig).buildAmplifier,
}

// ChainConfig holds configuration for the conditioning chain
type ChainConfig struct {
	// Acquisition
	Pin        uint8 // Channel read from the source
	SampleRate int   // Samples per second; 0 = take it from the source
	Pace       bool  // Read in real time at SampleRate instead of as fast as possible

	// BaselineRemove - subtracts the calibrated resting level
	BaselineEnabled     bool
	BaselineLevel       int           // Used as-is when CalibrationSamples is 0
	CalibrationSamples  int           // Readings averaged during calibration
	CalibrationInterval time.Duration // Minimum gap between calibration readings
	MainsHz             int           // Stretch the gap to whole mains cycles; 0 = off

	// Smoother - exponential moving average
	SmoothEnabled bool
	SmoothFactor  float64 // Weight of each new sample, (0, 1)

	// DynamicFloor - subtracts the minimum of recent samples
	FloorEnabled bool
	FloorSamples int // Tracking window length

	// Amplifier - gain and output clamp
	AmpEnabled bool
	AmpGain    float64
	AmpMin     int
	AmpMax     int

	// Filter chain order
	FilterOrder []FilterID

	// Adaptive tuning from Pass 1
	Adaptive     bool
	Pinned       Pinned              // Set explicitly; adaptive tuning keeps them
	Measurements *SignalMeasurements // Pass 1 measurements (nil until analysed)
}

// Pinned marks the tunable parameters the user set explicitly.
type Pinned struct {
	AmpGain      bool
	SmoothFactor bool
	FloorSamples bool
}

// DefaultChainConfig returns the default conditioning configuration for a
// 10-bit sensor.
func DefaultChainConfig() *ChainConfig {
	return &ChainConfig{
		Pin:        0,
		SampleRate: 0,
		Pace:       false,

		BaselineEnabled:     true,
		BaselineLevel:       0,
		CalibrationSamples:  signal.DefaultCalibrationSamples,
		CalibrationInterval: signal.DefaultCalibrationInterval,
		MainsHz:             0,

		SmoothEnabled: true,
		SmoothFactor:  signal.DefaultSmoothFactor,

		FloorEnabled: true,
		FloorSamples: signal.DefaultWindowCapacity,

		AmpEnabled: true,
		AmpGain:    signal.DefaultGain,
		AmpMin:     signal.DefaultAmpMin,
		AmpMax:     signal.DefaultAmpMax,

		FilterOrder: append([]FilterID(nil), DefaultFilterOrder...),
		Adaptive:    true,
	}
}

// Clone returns a copy that can be tuned independently, so each input in a
// batch starts from the same settings.
func (cfg *ChainConfig) Clone() *ChainConfig {
	c := *cfg
	c.FilterOrder = append([]FilterID(nil), cfg.FilterOrder...)
	c.Measurements = nil
	return &c
}

// Pipeline is a built chain plus direct handles to its members, which the
// processor needs for calibration and reporting. Disabled filters are nil.
type Pipeline struct {
	Chain    *signal.Chain
	Baseline *signal.BaselineRemove
	Smoother *signal.Smoother
	Floor    *signal.DynamicFloor
	Amp      *ClampCounter
}

// BuildChain builds the conditioning chain in FilterOrder.
func (cfg *ChainConfig) BuildChain() (*Pipeline, error) {
	order := cfg.FilterOrder
	if len(order) == 0 {
		order = DefaultFilterOrder
	}

	p := &Pipeline{Chain: signal.NewChain()}
	seen := make(map[FilterID]bool, len(order))
	for _, id := range order {
		builder, ok := filterBuilders[id]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownFilter, id)
		}
		if seen[id] {
			return nil, fmt.Errorf("filter %q listed twice", id)
		}
		seen[id] = true

		f, err := builder(cfg, p)
		if err != nil {
			return nil, fmt.Errorf("failed to build %s filter: %w", id, err)
		}
		if f != nil {
			p.Chain.Add(f)
		}
	}
	return p, nil
}

// ParseFilterOrder converts a comma-separated list such as
// "baseline,smooth,amp" into filter IDs.
func ParseFilterOrder(s string) ([]FilterID, error) {
	var order []FilterID
	for _, name := range strings.Split(s, ",") {
		id := FilterID(strings.ToLower(strings.TrimSpace(name)))
		if id == "" {
			continue
		}
		if _, ok := filterBuilders[id]; !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownFilter, id)
		}
		order = append(order, id)
	}
	return order, nil
}

// Filter builders

func (cfg *ChainConfig) buildBaseline(p *Pipeline) (signal.Filter, error) {
	if !cfg.BaselineEnabled {
		return nil, nil
	}
	b := signal.NewBaselineRemove()
	b.SetLevel(cfg.BaselineLevel)
	p.Baseline = b
	return b, nil
}

func (cfg *ChainConfig) buildSmoother(p *Pipeline) (signal.Filter, error) {
	if !cfg.SmoothEnabled {
		return nil, nil
	}
	p.Smoother = signal.NewSmoother(cfg.SmoothFactor)
	return p.Smoother, nil
}

func (cfg *ChainConfig) buildFloor(p *Pipeline) (signal.Filter, error) {
	if !cfg.FloorEnabled {
		return nil, nil
	}
	floor, err := signal.NewDynamicFloor(cfg.FloorSamples)
	if err != nil {
		return nil, err
	}
	p.Floor = floor
	return floor, nil
}

func (cfg *ChainConfig) buildAmplifier(p *Pipeline) (signal.Filter, error) {
	if !cfg.AmpEnabled {
		return nil, nil
	}
	p.Amp = &ClampCounter{Amplifier: signal.NewAmplifier(cfg.AmpGain, cfg.AmpMin, cfg.AmpMax)}
	return p.Amp, nil
}

// ClampCounter wraps an Amplifier and counts the samples it clamps.
type ClampCounter struct {
	*signal.Amplifier
	Clamped     int
	LastClamped bool
}

// Apply amplifies value and records whether it hit a bound.
func (c *ClampCounter) Apply(value float64) float64 {
	c.LastClamped = c.Amplifier.Clamps(value)
	if c.LastClamped {
		c.Clamped++
	}
	return c.Amplifier.Apply(value)
}
