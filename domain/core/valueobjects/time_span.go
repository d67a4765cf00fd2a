package valueobjects

import (
	"errors"
	"time"
)

// TimeSpan is an immutable closed interval on the time axis.
// A point in time is represented as a span whose start equals its end.
type TimeSpan struct {
	start time.Time
	end   time.Time
}

// NewTimeSpan creates a span, rejecting an end before the start
func NewTimeSpan(start, end time.Time) (TimeSpan, error) {
	if start.IsZero() {
		return TimeSpan{}, errors.New("span start cannot be zero")
	}
	if end.Before(start) {
		return TimeSpan{}, errors.New("span end cannot precede its start")
	}
	return TimeSpan{start: start.UTC(), end: end.UTC()}, nil
}

// NewInstant creates a zero-duration span at a single point in time
func NewInstant(at time.Time) (TimeSpan, error) {
	return NewTimeSpan(at, at)
}

// Start returns the span's inclusive start
func (s TimeSpan) Start() time.Time {
	return s.start
}

// End returns the span's inclusive end
func (s TimeSpan) End() time.Time {
	return s.end
}

// Duration returns the span's length
func (s TimeSpan) Duration() time.Duration {
	return s.end.Sub(s.start)
}

// IsZero checks if the span is the zero value
func (s TimeSpan) IsZero() bool {
	return s.start.IsZero()
}

// IsInstant reports whether the span covers a single point
func (s TimeSpan) IsInstant() bool {
	return s.start.Equal(s.end)
}

// Contains reports whether t falls inside the span, inclusive at both ends
func (s TimeSpan) Contains(t time.Time) bool {
	return !t.Before(s.start) && !t.After(s.end)
}

// Intersect returns the overlapping part of two spans.
// The second value is false when the spans do not intersect, or when the
// intersection is a bare instant: zero-duration intersections are deliberately
// excluded so that adjacent day-resolution entries do not flood callers with
// "same moment" overlaps.
func (s TimeSpan) Intersect(other TimeSpan) (TimeSpan, bool) {
	if s.start.After(other.end) || other.start.After(s.end) {
		return TimeSpan{}, false
	}
	start := s.start
	if other.start.After(start) {
		start = other.start
	}
	end := s.end
	if other.end.Before(end) {
		end = other.end
	}
	if !start.Before(end) {
		return TimeSpan{}, false
	}
	return TimeSpan{start: start, end: end}, true
}

// Widen expands the literal span into the effective interval implied by the
// given precision. Day, month and year precisions snap outward to calendar
// boundaries; approximate precision applies the fixed symmetric fuzz margin.
func (s TimeSpan) Widen(precision TimePrecision, fuzz time.Duration) TimeSpan {
	switch precision {
	case PrecisionDay:
		return TimeSpan{start: startOfDay(s.start), end: endOfDay(s.end)}
	case PrecisionMonth:
		return TimeSpan{start: startOfMonth(s.start), end: endOfMonth(s.end)}
	case PrecisionYear:
		return TimeSpan{start: startOfYear(s.start), end: endOfYear(s.end)}
	case PrecisionApproximate:
		return TimeSpan{start: s.start.Add(-fuzz), end: s.end.Add(fuzz)}
	default:
		return s
	}
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func endOfDay(t time.Time) time.Time {
	return startOfDay(t).AddDate(0, 0, 1).Add(-time.Second)
}

func startOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

func endOfMonth(t time.Time) time.Time {
	return startOfMonth(t).AddDate(0, 1, 0).Add(-time.Second)
}

func startOfYear(t time.Time) time.Time {
	return time.Date(t.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
}

func endOfYear(t time.Time) time.Time {
	return time.Date(t.Year(), time.December, 31, 23, 59, 59, 0, time.UTC)
}
