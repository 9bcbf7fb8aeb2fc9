package signal

import "fmt"

// DefaultSmoothFactor is the weight given to each new sample.
const DefaultSmoothFactor = 0.4

// Smoother is a first-order exponential moving average. Each call blends the
// new value with the previous output, so the influence of older inputs
// decays by (1 - factor) per call.
type Smoother struct {
	smoothed float64
	factor   float64
}

// NewSmoother creates a smoother with the given factor. A factor outside
// (0, 1) leaves DefaultSmoothFactor in place.
func NewSmoother(factor float64) *Smoother {
	s := &Smoother{factor: DefaultSmoothFactor}
	s.SetFactor(factor)
	return s
}

// Apply blends value into the running average and returns the new average.
func (s *Smoother) Apply(value float64) float64 {
	s.smoothed = s.factor*value + (1-s.factor)*s.smoothed
	return s.smoothed
}

// SetFactor stores factor if 0 < factor < 1. Other values are ignored.
func (s *Smoother) SetFactor(factor float64) {
	if accept("Smoother.SetFactor", FactorDomain, factor) {
		s.factor = factor
	}
}

// Factor returns the weight applied to new samples.
func (s *Smoother) Factor() float64 { return s.factor }

// Value returns the last output without changing state.
func (s *Smoother) Value() float64 { return s.smoothed }

// Reset returns the running average to zero.
func (s *Smoother) Reset() { s.smoothed = 0 }

func (s *Smoother) String() string {
	return fmt.Sprintf("Smooth(%.2f)", s.factor)
}
