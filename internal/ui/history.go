package ui

import (
	"math"
	"strings"

	"github.com/gammazero/deque"
)

// sparkBlocks are the eight levels of a sparkline cell, lowest first.
var sparkBlocks = []rune("▁▂▃▄▅▆▇█")

// History keeps the most recent conditioned values for the live sparkline.
type History struct {
	values   deque.Deque[float64]
	capacity int
}

// NewHistory creates a History holding at most capacity values.
func NewHistory(capacity int) *History {
	return &History{capacity: max(capacity, 1)}
}

// Push appends v, dropping the oldest value when full.
func (h *History) Push(v float64) {
	if h.values.Len() == h.capacity {
		h.values.PopFront()
	}
	h.values.PushBack(v)
}

// Len returns the number of values held.
func (h *History) Len() int {
	return h.values.Len()
}

// Reset discards every value.
func (h *History) Reset() {
	h.values.Clear()
}

// Sparkline renders the values scaled between lo and hi, oldest first.
// A zero-width range renders every value at the lowest level.
func (h *History) Sparkline(lo, hi float64) string {
	var b strings.Builder
	span := hi - lo
	for i := 0; i < h.values.Len(); i++ {
		level := 0
		if span > 0 {
			frac := (h.values.At(i) - lo) / span
			level = int(math.Round(frac * float64(len(sparkBlocks)-1)))
			level = max(0, min(len(sparkBlocks)-1, level))
		}
		b.WriteRune(sparkBlocks[level])
	}
	return b.String()
}
