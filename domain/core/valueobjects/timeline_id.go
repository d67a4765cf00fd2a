package valueobjects

import (
	"errors"

	"github.com/google/uuid"
)

// TimelineID is a value object representing a unique timeline identifier
// Value objects are immutable and have no identity beyond their value
type TimelineID struct {
	value string
}

// NewTimelineID creates a new random TimelineID
func NewTimelineID() TimelineID {
	return TimelineID{value: uuid.New().String()}
}

// NewTimelineIDFromString creates a TimelineID from an existing string
func NewTimelineIDFromString(id string) (TimelineID, error) {
	if id == "" {
		return TimelineID{}, errors.New("timeline ID cannot be empty")
	}
	if !isValidUUID(id) {
		return TimelineID{}, errors.New("timeline ID must be a valid UUID")
	}
	return TimelineID{value: id}, nil
}

// String returns the string representation of the TimelineID
func (id TimelineID) String() string {
	return id.value
}

// Equals checks if two TimelineIDs are equal
func (id TimelineID) Equals(other TimelineID) bool {
	return id.value == other.value
}

// IsZero checks if the TimelineID is the zero value
func (id TimelineID) IsZero() bool {
	return id.value == ""
}

// MarshalJSON implements json.Marshaler
func (id TimelineID) MarshalJSON() ([]byte, error) {
	return []byte(`"` + id.value + `"`), nil
}

// UnmarshalJSON implements json.Unmarshaler
func (id *TimelineID) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	if len(data) < 2 || data[0] != '"' || data[len(data)-1] != '"' {
		return errors.New("TimelineID must be a string")
	}
	id.value = string(data[1 : len(data)-1])
	return nil
}

// isValidUUID validates if a string is a valid UUID
func isValidUUID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}
