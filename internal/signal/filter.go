package signal

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

// Filter transforms one sample at a time, carrying whatever state it needs
// between calls.
type Filter interface {
	Apply(value float64) float64
}

// SampleSource produces one raw reading from the given pin or channel.
type SampleSource interface {
	Read(pin uint8) int
}

// SampleFunc adapts a plain function to SampleSource.
type SampleFunc func(pin uint8) int

// Read calls f(pin).
func (f SampleFunc) Read(pin uint8) int { return f(pin) }

// Delayer blocks the calling goroutine for d.
type Delayer interface {
	Delay(d time.Duration)
}

// DelayFunc adapts a plain function to Delayer.
type DelayFunc func(d time.Duration)

// Delay calls f(d).
func (f DelayFunc) Delay(d time.Duration) { f(d) }

// SleepDelayer waits using time.Sleep.
type SleepDelayer struct{}

// Delay sleeps for d.
func (SleepDelayer) Delay(d time.Duration) { time.Sleep(d) }

// Chain applies a sequence of filters in order. A Chain is itself a Filter,
// so chains nest.
type Chain struct {
	filters []Filter
}

// NewChain creates a chain of the given filters, applied first to last.
func NewChain(filters ...Filter) *Chain {
	c := &Chain{}
	for _, f := range filters {
		c.Add(f)
	}
	return c
}

// Add appends f to the end of the chain. Nil filters are ignored.
func (c *Chain) Add(f Filter) {
	if f == nil {
		return
	}
	c.filters = append(c.filters, f)

	logrus.WithFields(logrus.Fields{
		"function":     "Chain.Add",
		"filter":       filterName(f),
		"filter_count": len(c.filters),
	}).Debug("Filter added to chain")
}

// Apply runs value through every filter in order.
func (c *Chain) Apply(value float64) float64 {
	for _, f := range c.filters {
		value = f.Apply(value)
	}
	return value
}

// Len returns the number of filters in the chain.
func (c *Chain) Len() int { return len(c.filters) }

// Filters returns the chain members in application order.
func (c *Chain) Filters() []Filter {
	out := make([]Filter, len(c.filters))
	copy(out, c.filters)
	return out
}

// Names returns a display name for every filter in order.
func (c *Chain) Names() []string {
	names := make([]string, len(c.filters))
	for i, f := range c.filters {
		names[i] = filterName(f)
	}
	return names
}

// String renders the chain as "a → b → c".
func (c *Chain) String() string {
	s := ""
	for i, name := range c.Names() {
		if i > 0 {
			s += " → "
		}
		s += name
	}
	return s
}

func filterName(f Filter) string {
	if s, ok := f.(fmt.Stringer); ok {
		return s.String()
	}
	return fmt.Sprintf("%T", f)
}
