package signal

import (
	"fmt"
	"math"
)

// DynamicFloor tracks the minimum of the most recent samples and subtracts
// it, pulling a drifting positive floor down to zero. A non-positive floor is
// left alone so the output never flips sign because of it.
type DynamicFloor struct {
	window *Window
}

// NewDynamicFloor creates a floor tracker over the last samples readings.
func NewDynamicFloor(samples int) (*DynamicFloor, error) {
	w, err := NewWindow(samples)
	if err != nil {
		return nil, fmt.Errorf("dynamic floor: %w", err)
	}
	return &DynamicFloor{window: w}, nil
}

// Apply records value and returns it relative to the tracked floor. NaN and
// infinite values pass through unchanged and are not recorded.
func (f *DynamicFloor) Apply(value float64) float64 {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return value
	}
	f.window.Push(int(value))
	if floor := f.window.Min(); floor > 0 {
		return value - float64(floor)
	}
	return value
}

// Floor returns the current floor, or 0 when it is non-positive or nothing
// has been seen yet.
func (f *DynamicFloor) Floor() int {
	if floor := f.window.Min(); f.window.Count() > 0 && floor > 0 {
		return floor
	}
	return 0
}

// Samples returns the size of the tracking window.
func (f *DynamicFloor) Samples() int { return f.window.Capacity() }

// SetSamples resizes the tracking window, discarding its history.
func (f *DynamicFloor) SetSamples(samples int) error {
	return f.window.Resize(samples)
}

// Window exposes the tracking window for inspection. Callers must not push
// into it.
func (f *DynamicFloor) Window() *Window { return f.window }

func (f *DynamicFloor) String() string {
	return fmt.Sprintf("Floor(%d)", f.window.Capacity())
}
