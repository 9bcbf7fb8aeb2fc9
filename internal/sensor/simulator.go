package sensor

import (
	"math"

	"github.com/sirupsen/logrus"
)

// SimulatorConfig shapes the synthetic sensor signal. All amplitudes are in
// ADC counts.
type SimulatorConfig struct {
	Samples    int     // frames per channel
	SampleRate int     // samples per second
	Offset     float64 // DC level the baseline filter should remove
	Drift      float64 // floor change over the whole run
	Amplitude  float64 // peak of the wanted signal
	SignalHz   float64
	MainsHz    int     // hum frequency
	Hum        float64 // hum amplitude
	Noise      float64 // peak uniform noise
	Seed       uint32
}

// DefaultSimulatorConfig returns a signal resembling a small sensor on a
// long unscreened lead: a 300-count offset, upward drift, a 2 Hz signal and
// mains hum.
func DefaultSimulatorConfig() SimulatorConfig {
	return SimulatorConfig{
		Samples:    2000,
		SampleRate: 200,
		Offset:     300,
		Drift:      60,
		Amplitude:  120,
		SignalHz:   2,
		MainsHz:    50,
		Hum:        15,
		Noise:      10,
		Seed:       1,
	}
}

// Simulator is a deterministic synthetic sensor. Each pin runs its own clock
// and phase, so interleaved reads from different pins do not disturb each
// other.
type Simulator struct {
	cfg   SimulatorConfig
	ticks map[uint8]int
	rng   uint32
}

// NewSimulator creates a simulator. Non-positive sample counts and rates
// fall back to the defaults.
func NewSimulator(cfg SimulatorConfig) *Simulator {
	def := DefaultSimulatorConfig()
	if cfg.Samples <= 0 {
		cfg.Samples = def.Samples
	}
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = def.SampleRate
	}

	logrus.WithFields(logrus.Fields{
		"function":    "NewSimulator",
		"samples":     cfg.Samples,
		"sample_rate": cfg.SampleRate,
		"offset":      cfg.Offset,
		"mains_hz":    cfg.MainsHz,
	}).Debug("Simulator created")

	s := &Simulator{cfg: cfg}
	s.Rewind()
	return s
}

// Read returns the next reading for pin, in ADC counts.
func (s *Simulator) Read(pin uint8) int {
	n := s.ticks[pin]
	s.ticks[pin] = n + 1

	t := float64(n) / float64(s.cfg.SampleRate)
	phase := float64(pin) * math.Pi / 4

	v := s.cfg.Offset
	v += s.cfg.Drift * float64(n) / float64(s.cfg.Samples)
	v += s.cfg.Amplitude * (0.5 + 0.5*math.Sin(2*math.Pi*s.cfg.SignalHz*t+phase))
	v += s.cfg.Hum * math.Sin(2*math.Pi*float64(s.cfg.MainsHz)*t)
	v += s.cfg.Noise * s.noise()

	return clampADC(int(v))
}

// noise returns a uniform value in [-1, 1).
func (s *Simulator) noise() float64 {
	s.rng = s.rng*1664525 + 1013904223
	return float64(s.rng>>8)/float64(1<<23) - 1
}

// Len returns the configured number of frames.
func (s *Simulator) Len() int { return s.cfg.Samples }

// Remaining returns how many frames the most-read pin has left before Len is
// reached. The simulator keeps producing values past that point.
func (s *Simulator) Remaining() int {
	read := 0
	for _, n := range s.ticks {
		read = max(read, n)
	}
	return max(0, s.cfg.Samples-read)
}

// Rewind restarts every pin clock and the noise generator.
func (s *Simulator) Rewind() {
	s.ticks = make(map[uint8]int)
	s.rng = s.cfg.Seed
}

// Metadata describes the simulated trace.
func (s *Simulator) Metadata() Metadata {
	return Metadata{
		Format:     FormatSimulated,
		SampleRate: s.cfg.SampleRate,
		Channels:   1,
		BitDepth:   ADCBits,
		Frames:     s.cfg.Samples,
	}
}

// Config returns the effective configuration.
func (s *Simulator) Config() SimulatorConfig { return s.cfg }
