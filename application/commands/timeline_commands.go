package commands

import (
	"errors"
	"time"
)

// CreateTimelineCommand represents the command to create a new timeline
type CreateTimelineCommand struct {
	UserID      string     `json:"user_id" validate:"required"`
	Title       string     `json:"title" validate:"required,min=1,max=200"`
	Description string     `json:"description" validate:"max=2000"`
	Type        string     `json:"type" validate:"omitempty,oneof=life_era sub_timeline skill location work custom"`
	ParentID    string     `json:"parent_id,omitempty"`
	StartDate   time.Time  `json:"start_date" validate:"required"`
	EndDate     *time.Time `json:"end_date,omitempty"`
	Tags        []string   `json:"tags" validate:"max=20,dive,min=1,max=30"`
}

// Validate validates the CreateTimelineCommand
func (c CreateTimelineCommand) Validate() error {
	if c.UserID == "" {
		return errors.New("user ID is required")
	}
	if c.Title == "" {
		return errors.New("title is required")
	}
	if c.StartDate.IsZero() {
		return errors.New("start date is required")
	}
	if c.EndDate != nil && c.EndDate.Before(c.StartDate) {
		return errors.New("end date cannot precede start date")
	}
	return nil
}

// RenameTimelineCommand changes a timeline's title
type RenameTimelineCommand struct {
	UserID     string `json:"user_id" validate:"required"`
	TimelineID string `json:"timeline_id" validate:"required,uuid"`
	Title      string `json:"title" validate:"required,min=1,max=200"`
}

// Validate validates the RenameTimelineCommand
func (c RenameTimelineCommand) Validate() error {
	if c.UserID == "" {
		return errors.New("user ID is required")
	}
	if c.TimelineID == "" {
		return errors.New("timeline ID is required")
	}
	if c.Title == "" {
		return errors.New("title is required")
	}
	return nil
}

// RedateTimelineCommand moves a timeline's span
type RedateTimelineCommand struct {
	UserID     string     `json:"user_id" validate:"required"`
	TimelineID string     `json:"timeline_id" validate:"required,uuid"`
	StartDate  time.Time  `json:"start_date" validate:"required"`
	EndDate    *time.Time `json:"end_date,omitempty"`
}

// Validate validates the RedateTimelineCommand
func (c RedateTimelineCommand) Validate() error {
	if c.UserID == "" {
		return errors.New("user ID is required")
	}
	if c.TimelineID == "" {
		return errors.New("timeline ID is required")
	}
	if c.StartDate.IsZero() {
		return errors.New("start date is required")
	}
	if c.EndDate != nil && c.EndDate.Before(c.StartDate) {
		return errors.New("end date cannot precede start date")
	}
	return nil
}

// ReparentTimelineCommand moves a timeline in the hierarchy. An empty
// parent ID detaches the timeline into a root.
type ReparentTimelineCommand struct {
	UserID     string `json:"user_id" validate:"required"`
	TimelineID string `json:"timeline_id" validate:"required,uuid"`
	ParentID   string `json:"parent_id,omitempty" validate:"omitempty,uuid"`
}

// Validate validates the ReparentTimelineCommand
func (c ReparentTimelineCommand) Validate() error {
	if c.UserID == "" {
		return errors.New("user ID is required")
	}
	if c.TimelineID == "" {
		return errors.New("timeline ID is required")
	}
	if c.ParentID == c.TimelineID && c.ParentID != "" {
		return errors.New("timeline cannot be its own parent")
	}
	return nil
}

// DeleteTimelineCommand removes a timeline
type DeleteTimelineCommand struct {
	UserID     string `json:"user_id" validate:"required"`
	TimelineID string `json:"timeline_id" validate:"required,uuid"`
}

// Validate validates the DeleteTimelineCommand
func (c DeleteTimelineCommand) Validate() error {
	if c.UserID == "" {
		return errors.New("user ID is required")
	}
	if c.TimelineID == "" {
		return errors.New("timeline ID is required")
	}
	return nil
}

// MergeTimelinesCommand folds the source timeline's members into the
// target and records a merged relationship between the two
type MergeTimelinesCommand struct {
	UserID   string `json:"user_id" validate:"required"`
	SourceID string `json:"source_id" validate:"required,uuid"`
	TargetID string `json:"target_id" validate:"required,uuid"`
}

// Validate validates the MergeTimelinesCommand
func (c MergeTimelinesCommand) Validate() error {
	if c.UserID == "" {
		return errors.New("user ID is required")
	}
	if c.SourceID == "" || c.TargetID == "" {
		return errors.New("source and target timeline IDs are required")
	}
	if c.SourceID == c.TargetID {
		return errors.New("cannot merge a timeline into itself")
	}
	return nil
}

// CreateRelationshipCommand records a directed, typed edge between two
// timelines, outside the parent/child tree
type CreateRelationshipCommand struct {
	UserID   string `json:"user_id" validate:"required"`
	SourceID string `json:"source_id" validate:"required,uuid"`
	TargetID string `json:"target_id" validate:"required,uuid"`
	Type     string `json:"type" validate:"required,oneof=spawned influenced overlapped preceded merged split"`
}

// Validate validates the CreateRelationshipCommand
func (c CreateRelationshipCommand) Validate() error {
	if c.UserID == "" {
		return errors.New("user ID is required")
	}
	if c.SourceID == "" || c.TargetID == "" {
		return errors.New("source and target timeline IDs are required")
	}
	if c.SourceID == c.TargetID {
		return errors.New("relationship cannot be self-referential")
	}
	if c.Type == "" {
		return errors.New("relationship type is required")
	}
	return nil
}
