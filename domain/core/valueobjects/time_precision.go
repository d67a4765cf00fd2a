package valueobjects

import (
	"errors"
	"fmt"
)

// TimePrecision expresses how exactly an entry's timestamp is known.
// Coarser precisions widen the effective interval used for comparisons.
type TimePrecision string

const (
	PrecisionExact       TimePrecision = "exact"
	PrecisionDay         TimePrecision = "day"
	PrecisionMonth       TimePrecision = "month"
	PrecisionYear        TimePrecision = "year"
	PrecisionApproximate TimePrecision = "approximate"
)

// ParseTimePrecision validates and converts a raw precision string
func ParseTimePrecision(s string) (TimePrecision, error) {
	switch TimePrecision(s) {
	case PrecisionExact, PrecisionDay, PrecisionMonth, PrecisionYear, PrecisionApproximate:
		return TimePrecision(s), nil
	case "":
		return PrecisionExact, nil
	default:
		return "", fmt.Errorf("unknown time precision %q", s)
	}
}

// IsValid reports whether the precision is one of the known values
func (p TimePrecision) IsValid() bool {
	_, err := ParseTimePrecision(string(p))
	return err == nil && p != ""
}

// Confidence is a value object for the [0,1] certainty attached to an
// entry's temporal placement
type Confidence struct {
	value float64
}

// NewConfidence creates a Confidence, rejecting values outside the closed unit interval
func NewConfidence(v float64) (Confidence, error) {
	if v < 0 || v > 1 {
		return Confidence{}, errors.New("confidence must be within [0, 1]")
	}
	return Confidence{value: v}, nil
}

// FullConfidence returns a Confidence of 1.0
func FullConfidence() Confidence {
	return Confidence{value: 1.0}
}

// Value returns the numeric confidence
func (c Confidence) Value() float64 {
	return c.value
}

// IsCertain reports whether the confidence is exactly 1.0
func (c Confidence) IsCertain() bool {
	return c.value == 1.0
}

// MarshalJSON implements json.Marshaler
func (c Confidence) MarshalJSON() ([]byte, error) {
	return []byte(fmt.Sprintf("%g", c.value)), nil
}

// UnmarshalJSON implements json.Unmarshaler
func (c *Confidence) UnmarshalJSON(data []byte) error {
	var v float64
	if _, err := fmt.Sscanf(string(data), "%g", &v); err != nil {
		return errors.New("confidence must be a number")
	}
	parsed, err := NewConfidence(v)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
