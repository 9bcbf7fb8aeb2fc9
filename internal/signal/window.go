// Package signal conditions raw sensor readings.
//
// It provides a bounded sliding window with incrementally maintained
// statistics and a small set of stateful single-value filters built on it:
// baseline removal, exponential smoothing, dynamic floor tracking and a
// clamping amplifier. Every filter satisfies Filter, so callers can chain
// them in any order.
//
// Nothing in this package is safe for concurrent use. Each filter and window
// is owned by exactly one goroutine.
package signal

import (
	"errors"
	"fmt"
	"math"

	"github.com/sirupsen/logrus"
)

// DefaultWindowCapacity is the window size used when none is configured.
const DefaultWindowCapacity = 10

// Sentinels reported by Min and Max while the window is empty.
const (
	EmptyMin = math.MaxInt
	EmptyMax = math.MinInt
)

// ErrInvalidCapacity is returned when a window is created or resized with a
// capacity below one.
var ErrInvalidCapacity = errors.New("window capacity must be at least 1")

// Window is a fixed-capacity FIFO of integer samples that keeps the sum,
// truncated average, minimum and maximum of its live contents up to date on
// every push.
//
// Samples live in a ring buffer. Eviction is O(1) except when the evicted
// sample equals the current minimum or maximum, in which case the extrema are
// rescanned over the remaining samples.
type Window struct {
	values  []int
	head    int // index of the oldest live sample
	count   int
	sum     int
	average int
	min     int
	max     int
}

// NewWindow creates an empty window holding at most capacity samples.
func NewWindow(capacity int) (*Window, error) {
	if capacity < 1 {
		logrus.WithFields(logrus.Fields{
			"function": "NewWindow",
			"capacity": capacity,
		}).Error("Rejected window capacity")
		return nil, fmt.Errorf("new window: %w (got %d)", ErrInvalidCapacity, capacity)
	}

	w := &Window{values: make([]int, capacity)}
	w.Clear()
	return w, nil
}

// Push appends value, evicting the oldest sample first when the window is
// full.
func (w *Window) Push(value int) {
	capacity := len(w.values)

	if w.count == capacity {
		evicted := w.values[w.head]
		w.values[w.head] = 0
		w.head = (w.head + 1) % capacity
		w.count--
		w.sum -= evicted

		// Another live sample may tie the old extremum, so only a rescan
		// can tell whether it still holds.
		if evicted == w.min || evicted == w.max {
			w.RecomputeExtrema()
		}
	}

	w.values[(w.head+w.count)%capacity] = value
	w.count++
	w.sum += value

	if value < w.min {
		w.min = value
	}
	if value > w.max {
		w.max = value
	}

	w.average = w.sum / w.count
}

// Resize changes the capacity. Resizing to the current capacity is a no-op;
// any other size discards all history.
func (w *Window) Resize(capacity int) error {
	if capacity < 1 {
		logrus.WithFields(logrus.Fields{
			"function": "Window.Resize",
			"capacity": capacity,
			"current":  len(w.values),
		}).Error("Rejected window capacity")
		return fmt.Errorf("resize window: %w (got %d)", ErrInvalidCapacity, capacity)
	}
	if capacity == len(w.values) {
		return nil
	}

	logrus.WithFields(logrus.Fields{
		"function": "Window.Resize",
		"from":     len(w.values),
		"to":       capacity,
	}).Debug("Resizing window, history discarded")

	w.values = make([]int, capacity)
	w.Clear()
	return nil
}

// Clear empties the window without changing its capacity.
func (w *Window) Clear() {
	for i := range w.values {
		w.values[i] = 0
	}
	w.head = 0
	w.count = 0
	w.sum = 0
	w.average = 0
	w.min = EmptyMin
	w.max = EmptyMax
}

// RecomputeExtrema rescans the live samples and resets Min and Max from
// them. An empty window gets the EmptyMin/EmptyMax sentinels.
func (w *Window) RecomputeExtrema() {
	w.min = EmptyMin
	w.max = EmptyMax

	capacity := len(w.values)
	for i := 0; i < w.count; i++ {
		v := w.values[(w.head+i)%capacity]
		if v < w.min {
			w.min = v
		}
		if v > w.max {
			w.max = v
		}
	}
}

// Values returns a copy of the live samples, oldest first.
func (w *Window) Values() []int {
	out := make([]int, w.count)
	capacity := len(w.values)
	for i := range out {
		out[i] = w.values[(w.head+i)%capacity]
	}
	return out
}

// Capacity returns the maximum number of samples held.
func (w *Window) Capacity() int { return len(w.values) }

// Count returns the number of live samples.
func (w *Window) Count() int { return w.count }

// Full reports whether the next push will evict a sample.
func (w *Window) Full() bool { return w.count == len(w.values) }

// Sum returns the exact sum of the live samples.
func (w *Window) Sum() int { return w.sum }

// Average returns Sum / Count truncated toward zero, or 0 when empty.
func (w *Window) Average() int { return w.average }

// Min returns the smallest live sample, or EmptyMin when empty.
func (w *Window) Min() int { return w.min }

// Max returns the largest live sample, or EmptyMax when empty.
func (w *Window) Max() int { return w.max }
