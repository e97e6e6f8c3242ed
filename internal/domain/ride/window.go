package ride

import (
	"errors"
	"time"
)

// DefaultTolerance is the distance on each side of the requested departure.
const DefaultTolerance = 30 * time.Minute

var ErrNegativeTolerance = errors.New("time window tolerance must not be negative")

// TimeWindow is the interval [Center-Before, Center+After].
type TimeWindow struct {
	Center time.Time
	Before time.Duration
	After  time.Duration
}

// NewTimeWindow builds a window around center.
func NewTimeWindow(center time.Time, before, after time.Duration) (TimeWindow, error) {
	if before < 0 || after < 0 {
		return TimeWindow{}, ErrNegativeTolerance
	}
	return TimeWindow{Center: center, Before: before, After: after}, nil
}

// DefaultWindow is the ±30 minute window around center.
func DefaultWindow(center time.Time) TimeWindow {
	return TimeWindow{Center: center, Before: DefaultTolerance, After: DefaultTolerance}
}

func (window TimeWindow) Start() time.Time { return window.Center.Add(-window.Before) }

func (window TimeWindow) End() time.Time { return window.Center.Add(window.After) }

// Contains reports whether t lies in the window, boundaries included.
func (window TimeWindow) Contains(t time.Time) bool {
	return !t.Before(window.Start()) && !t.After(window.End())
}
