package signal

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

// Calibration defaults used when a caller has no better numbers.
const (
	DefaultCalibrationSamples  = 10
	DefaultCalibrationInterval = 50 * time.Millisecond
)

// BaselineRemove subtracts a fixed, separately calibrated DC level.
type BaselineRemove struct {
	level int
}

// NewBaselineRemove returns a filter with a zero baseline. Call Calibrate or
// SetLevel before use.
func NewBaselineRemove() *BaselineRemove {
	return &BaselineRemove{}
}

// Calibrate measures the baseline by averaging samples readings from pin,
// waiting interval between readings. It blocks for samples × interval.
// A non-positive sample count leaves the level unchanged.
func (b *BaselineRemove) Calibrate(src SampleSource, d Delayer, pin uint8, samples int, interval time.Duration) {
	if samples <= 0 {
		logrus.WithFields(logrus.Fields{
			"function": "BaselineRemove.Calibrate",
			"samples":  samples,
		}).Warn("Calibration skipped: no samples requested")
		return
	}

	start := time.Now()
	sum := 0
	for i := 0; i < samples; i++ {
		sum += src.Read(pin)
		d.Delay(interval)
	}
	b.level = sum / samples

	logrus.WithFields(logrus.Fields{
		"function": "BaselineRemove.Calibrate",
		"pin":      pin,
		"samples":  samples,
		"interval": interval,
		"level":    b.level,
		"elapsed":  time.Since(start),
	}).Info("Baseline calibrated")
}

// Apply returns value minus the baseline level.
func (b *BaselineRemove) Apply(value float64) float64 {
	return value - float64(b.level)
}

// Level returns the current baseline.
func (b *BaselineRemove) Level() int { return b.level }

// SetLevel stores level if it is within [0, 1024). Other values are ignored.
func (b *BaselineRemove) SetLevel(level int) {
	if accept("BaselineRemove.SetLevel", LevelDomain, float64(level)) {
		b.level = level
	}
}

func (b *BaselineRemove) String() string {
	return fmt.Sprintf("Baseline(%d)", b.level)
}
