package signal

import (
	"fmt"
	"math"
)

// Amplifier defaults: double the signal into a 10-bit output range.
const (
	DefaultGain   = 2.0
	DefaultAmpMin = 0
	DefaultAmpMax = 1023
)

// Amplifier multiplies by a gain, drops the fractional part and clamps the
// result to [min, max]. Its setters are not validated.
type Amplifier struct {
	gain float64
	min  int
	max  int
}

// NewAmplifier creates an amplifier with the given gain and output range.
func NewAmplifier(gain float64, min, max int) *Amplifier {
	return &Amplifier{gain: gain, min: min, max: max}
}

// Apply returns trunc(value × gain) clamped to the output range. The upper
// bound is checked first, so an inverted range always yields min. NaN maps
// to min.
func (a *Amplifier) Apply(value float64) float64 {
	amplified := math.Trunc(value * a.gain)
	if math.IsNaN(amplified) {
		return float64(a.min)
	}
	if amplified > float64(a.max) {
		amplified = float64(a.max)
	}
	if amplified < float64(a.min) {
		amplified = float64(a.min)
	}
	return amplified
}

// Clamps reports whether Apply(value) would hit either bound.
func (a *Amplifier) Clamps(value float64) bool {
	amplified := math.Trunc(value * a.gain)
	return math.IsNaN(amplified) || amplified > float64(a.max) || amplified < float64(a.min)
}

// SetGain sets the multiplier.
func (a *Amplifier) SetGain(gain float64) { a.gain = gain }

// Gain returns the multiplier.
func (a *Amplifier) Gain() float64 { return a.gain }

// SetMin sets the lower output bound.
func (a *Amplifier) SetMin(min int) { a.min = min }

// Min returns the lower output bound.
func (a *Amplifier) Min() int { return a.min }

// SetMax sets the upper output bound.
func (a *Amplifier) SetMax(max int) { a.max = max }

// Max returns the upper output bound.
func (a *Amplifier) Max() int { return a.max }

func (a *Amplifier) String() string {
	return fmt.Sprintf("Amp(×%.2f [%d,%d])", a.gain, a.min, a.max)
}
