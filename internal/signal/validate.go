package signal

import (
	"math"

	"github.com/sirupsen/logrus"
)

// Domain is the accepted range of a validated setter.
type Domain struct {
	Name         string
	Min, Max     float64
	MinExclusive bool
	MaxExclusive bool
}

// Contains reports whether v lies inside d. NaN is never contained.
func (d Domain) Contains(v float64) bool {
	if math.IsNaN(v) {
		return false
	}
	if v < d.Min || (d.MinExclusive && v == d.Min) {
		return false
	}
	if v > d.Max || (d.MaxExclusive && v == d.Max) {
		return false
	}
	return true
}

// Setter domains. Values outside them are dropped without telling the caller.
var (
	LevelDomain  = Domain{Name: "baseline level", Min: 0, Max: 1024, MaxExclusive: true}
	FactorDomain = Domain{Name: "smoothing factor", Min: 0, Max: 1, MinExclusive: true, MaxExclusive: true}
)

// accept is the single gate for silently validated setters: it reports
// whether v may be stored and logs rejections at debug level only.
func accept(setter string, d Domain, v float64) bool {
	if d.Contains(v) {
		return true
	}
	logrus.WithFields(logrus.Fields{
		"function": setter,
		"domain":   d.Name,
		"value":    v,
		"min":      d.Min,
		"max":      d.Max,
	}).Debug("Ignoring out-of-range value")
	return false
}
