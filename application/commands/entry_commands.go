package commands

import (
	"errors"
	"time"
)

// CreateEntryCommand locates a memory on the time axis
type CreateEntryCommand struct {
	UserID         string     `json:"user_id" validate:"required"`
	JournalEntryID string     `json:"journal_entry_id" validate:"required"`
	Content        string     `json:"content" validate:"required,max=50000"`
	StartTime      time.Time  `json:"start_time" validate:"required"`
	EndTime        *time.Time `json:"end_time,omitempty"`
	Precision      string     `json:"precision" validate:"omitempty,oneof=exact day month year approximate"`
	Confidence     float64    `json:"confidence" validate:"min=0,max=1"`
	TimelineIDs    []string   `json:"timeline_ids" validate:"max=25,dive,uuid"`
}

// Validate validates the CreateEntryCommand
func (c CreateEntryCommand) Validate() error {
	if c.UserID == "" {
		return errors.New("user ID is required")
	}
	if c.JournalEntryID == "" {
		return errors.New("journal entry ID is required")
	}
	if c.StartTime.IsZero() {
		return errors.New("start time is required")
	}
	if c.EndTime != nil && c.EndTime.Before(c.StartTime) {
		return errors.New("end time cannot precede start time")
	}
	if c.Confidence < 0 || c.Confidence > 1 {
		return errors.New("confidence must be within [0, 1]")
	}
	return nil
}

// RelocateEntryCommand moves an entry on the time axis
type RelocateEntryCommand struct {
	UserID     string     `json:"user_id" validate:"required"`
	EntryID    string     `json:"entry_id" validate:"required,uuid"`
	StartTime  time.Time  `json:"start_time" validate:"required"`
	EndTime    *time.Time `json:"end_time,omitempty"`
	Precision  string     `json:"precision" validate:"omitempty,oneof=exact day month year approximate"`
	Confidence float64    `json:"confidence" validate:"min=0,max=1"`
}

// Validate validates the RelocateEntryCommand
func (c RelocateEntryCommand) Validate() error {
	if c.UserID == "" {
		return errors.New("user ID is required")
	}
	if c.EntryID == "" {
		return errors.New("entry ID is required")
	}
	if c.StartTime.IsZero() {
		return errors.New("start time is required")
	}
	if c.EndTime != nil && c.EndTime.Before(c.StartTime) {
		return errors.New("end time cannot precede start time")
	}
	return nil
}

// ArchiveEntryCommand marks an entry archived while keeping it stored
type ArchiveEntryCommand struct {
	UserID  string `json:"user_id" validate:"required"`
	EntryID string `json:"entry_id" validate:"required,uuid"`
}

// Validate validates the ArchiveEntryCommand
func (c ArchiveEntryCommand) Validate() error {
	if c.UserID == "" {
		return errors.New("user ID is required")
	}
	if c.EntryID == "" {
		return errors.New("entry ID is required")
	}
	return nil
}

// CorrectEntryCommand archives the original entry and appends a corrected
// replacement that records the original as its source
type CorrectEntryCommand struct {
	UserID     string     `json:"user_id" validate:"required"`
	EntryID    string     `json:"entry_id" validate:"required,uuid"`
	Content    string     `json:"content" validate:"max=50000"`
	StartTime  time.Time  `json:"start_time" validate:"required"`
	EndTime    *time.Time `json:"end_time,omitempty"`
	Precision  string     `json:"precision" validate:"omitempty,oneof=exact day month year approximate"`
	Confidence float64    `json:"confidence" validate:"min=0,max=1"`
}

// Validate validates the CorrectEntryCommand
func (c CorrectEntryCommand) Validate() error {
	if c.UserID == "" {
		return errors.New("user ID is required")
	}
	if c.EntryID == "" {
		return errors.New("entry ID is required")
	}
	if c.StartTime.IsZero() {
		return errors.New("start time is required")
	}
	if c.EndTime != nil && c.EndTime.Before(c.StartTime) {
		return errors.New("end time cannot precede start time")
	}
	return nil
}

// AddMembershipCommand adds an entry to a timeline
type AddMembershipCommand struct {
	UserID     string  `json:"user_id" validate:"required"`
	EntryID    string  `json:"entry_id" validate:"required,uuid"`
	TimelineID string  `json:"timeline_id" validate:"required,uuid"`
	Role       string  `json:"role" validate:"max=100"`
	Importance float64 `json:"importance" validate:"min=0,max=1"`
}

// Validate validates the AddMembershipCommand
func (c AddMembershipCommand) Validate() error {
	if c.UserID == "" {
		return errors.New("user ID is required")
	}
	if c.EntryID == "" {
		return errors.New("entry ID is required")
	}
	if c.TimelineID == "" {
		return errors.New("timeline ID is required")
	}
	return nil
}

// RemoveMembershipCommand removes an entry from a timeline
type RemoveMembershipCommand struct {
	UserID     string `json:"user_id" validate:"required"`
	EntryID    string `json:"entry_id" validate:"required,uuid"`
	TimelineID string `json:"timeline_id" validate:"required,uuid"`
}

// Validate validates the RemoveMembershipCommand
func (c RemoveMembershipCommand) Validate() error {
	if c.UserID == "" {
		return errors.New("user ID is required")
	}
	if c.EntryID == "" {
		return errors.New("entry ID is required")
	}
	if c.TimelineID == "" {
		return errors.New("timeline ID is required")
	}
	return nil
}
