package events

import (
	"time"

	"lorekeeper-backend/domain/core/valueobjects"
)

// SourceBackend identifies this service as the origin of published events
const SourceBackend = "lorekeeper.backend"

// DomainEvent is the base interface for all domain events
// Events represent something that has happened in the past
type DomainEvent interface {
	GetAggregateID() string
	GetEventType() string
	GetTimestamp() time.Time
	GetVersion() int
}

// BaseEvent provides common event fields
type BaseEvent struct {
	AggregateID string    `json:"aggregate_id"`
	EventType   string    `json:"event_type"`
	Timestamp   time.Time `json:"timestamp"`
	Version     int       `json:"version"`
}

func (e BaseEvent) GetAggregateID() string  { return e.AggregateID }
func (e BaseEvent) GetEventType() string    { return e.EventType }
func (e BaseEvent) GetTimestamp() time.Time { return e.Timestamp }
func (e BaseEvent) GetVersion() int         { return e.Version }

// Timeline events

// TimelineCreated is raised when a new timeline is created
type TimelineCreated struct {
	BaseEvent
	TimelineID valueobjects.TimelineID `json:"timeline_id"`
	UserID     string                  `json:"user_id"`
	Title      string                  `json:"title"`
	Type       string                  `json:"type"`
}

// NewTimelineCreated creates a TimelineCreated event
func NewTimelineCreated(timelineID valueobjects.TimelineID, userID, title, timelineType string, timestamp time.Time) TimelineCreated {
	return TimelineCreated{
		BaseEvent: BaseEvent{
			AggregateID: timelineID.String(),
			EventType:   "timeline.created",
			Timestamp:   timestamp,
			Version:     1,
		},
		TimelineID: timelineID,
		UserID:     userID,
		Title:      title,
		Type:       timelineType,
	}
}

// TimelineRenamed is raised when a timeline's title changes.
// Consumers holding denormalized display names must re-derive them.
type TimelineRenamed struct {
	BaseEvent
	TimelineID valueobjects.TimelineID `json:"timeline_id"`
	OldTitle   string                  `json:"old_title"`
	NewTitle   string                  `json:"new_title"`
}

// NewTimelineRenamed creates a TimelineRenamed event
func NewTimelineRenamed(timelineID valueobjects.TimelineID, oldTitle, newTitle string, timestamp time.Time) TimelineRenamed {
	return TimelineRenamed{
		BaseEvent: BaseEvent{
			AggregateID: timelineID.String(),
			EventType:   "timeline.renamed",
			Timestamp:   timestamp,
			Version:     1,
		},
		TimelineID: timelineID,
		OldTitle:   oldTitle,
		NewTitle:   newTitle,
	}
}

// TimelineRedated is raised when a timeline's span moves
type TimelineRedated struct {
	BaseEvent
	TimelineID valueobjects.TimelineID `json:"timeline_id"`
	StartDate  time.Time               `json:"start_date"`
	EndDate    *time.Time              `json:"end_date,omitempty"`
}

// NewTimelineRedated creates a TimelineRedated event
func NewTimelineRedated(timelineID valueobjects.TimelineID, startDate time.Time, endDate *time.Time, timestamp time.Time) TimelineRedated {
	return TimelineRedated{
		BaseEvent: BaseEvent{
			AggregateID: timelineID.String(),
			EventType:   "timeline.redated",
			Timestamp:   timestamp,
			Version:     1,
		},
		TimelineID: timelineID,
		StartDate:  startDate,
		EndDate:    endDate,
	}
}

// TimelineReparented is raised when a timeline moves in the hierarchy
type TimelineReparented struct {
	BaseEvent
	TimelineID valueobjects.TimelineID  `json:"timeline_id"`
	ParentID   *valueobjects.TimelineID `json:"parent_id,omitempty"`
}

// NewTimelineReparented creates a TimelineReparented event
func NewTimelineReparented(timelineID valueobjects.TimelineID, parentID *valueobjects.TimelineID, timestamp time.Time) TimelineReparented {
	return TimelineReparented{
		BaseEvent: BaseEvent{
			AggregateID: timelineID.String(),
			EventType:   "timeline.reparented",
			Timestamp:   timestamp,
			Version:     1,
		},
		TimelineID: timelineID,
		ParentID:   parentID,
	}
}

// TimelinesMerged is raised when one timeline's members are folded into another
type TimelinesMerged struct {
	BaseEvent
	SourceID valueobjects.TimelineID `json:"source_id"`
	TargetID valueobjects.TimelineID `json:"target_id"`
	Moved    int                     `json:"moved"`
}

// NewTimelinesMerged creates a TimelinesMerged event
func NewTimelinesMerged(sourceID, targetID valueobjects.TimelineID, moved int, timestamp time.Time) TimelinesMerged {
	return TimelinesMerged{
		BaseEvent: BaseEvent{
			AggregateID: sourceID.String(),
			EventType:   "timeline.merged",
			Timestamp:   timestamp,
			Version:     1,
		},
		SourceID: sourceID,
		TargetID: targetID,
		Moved:    moved,
	}
}

// Entry events

// EntryCreated is raised when a memory is first located in time
type EntryCreated struct {
	BaseEvent
	EntryID        valueobjects.EntryID `json:"entry_id"`
	UserID         string               `json:"user_id"`
	JournalEntryID string               `json:"journal_entry_id"`
	StartTime      time.Time            `json:"start_time"`
	Precision      string               `json:"precision"`
}

// NewEntryCreated creates an EntryCreated event
func NewEntryCreated(entryID valueobjects.EntryID, userID, journalEntryID string, startTime time.Time, precision string, timestamp time.Time) EntryCreated {
	return EntryCreated{
		BaseEvent: BaseEvent{
			AggregateID: entryID.String(),
			EventType:   "entry.created",
			Timestamp:   timestamp,
			Version:     1,
		},
		EntryID:        entryID,
		UserID:         userID,
		JournalEntryID: journalEntryID,
		StartTime:      startTime,
		Precision:      precision,
	}
}

// EntryRelocated is raised when an entry moves on the time axis
type EntryRelocated struct {
	BaseEvent
	EntryID   valueobjects.EntryID `json:"entry_id"`
	OldStart  time.Time            `json:"old_start"`
	NewStart  time.Time            `json:"new_start"`
	Precision string               `json:"precision"`
}

// NewEntryRelocated creates an EntryRelocated event
func NewEntryRelocated(entryID valueobjects.EntryID, oldStart, newStart time.Time, precision string, timestamp time.Time) EntryRelocated {
	return EntryRelocated{
		BaseEvent: BaseEvent{
			AggregateID: entryID.String(),
			EventType:   "entry.relocated",
			Timestamp:   timestamp,
			Version:     1,
		},
		EntryID:   entryID,
		OldStart:  oldStart,
		NewStart:  newStart,
		Precision: precision,
	}
}

// EntryArchived is raised when an entry is archived
type EntryArchived struct {
	BaseEvent
	EntryID valueobjects.EntryID `json:"entry_id"`
}

// NewEntryArchived creates an EntryArchived event
func NewEntryArchived(entryID valueobjects.EntryID, timestamp time.Time) EntryArchived {
	return EntryArchived{
		BaseEvent: BaseEvent{
			AggregateID: entryID.String(),
			EventType:   "entry.archived",
			Timestamp:   timestamp,
			Version:     1,
		},
		EntryID: entryID,
	}
}

// MembershipAdded is raised when an entry joins a timeline
type MembershipAdded struct {
	BaseEvent
	EntryID    valueobjects.EntryID    `json:"entry_id"`
	TimelineID valueobjects.TimelineID `json:"timeline_id"`
}

// NewMembershipAdded creates a MembershipAdded event
func NewMembershipAdded(entryID valueobjects.EntryID, timelineID valueobjects.TimelineID, timestamp time.Time) MembershipAdded {
	return MembershipAdded{
		BaseEvent: BaseEvent{
			AggregateID: entryID.String(),
			EventType:   "entry.membership_added",
			Timestamp:   timestamp,
			Version:     1,
		},
		EntryID:    entryID,
		TimelineID: timelineID,
	}
}

// MembershipRemoved is raised when an entry leaves a timeline
type MembershipRemoved struct {
	BaseEvent
	EntryID    valueobjects.EntryID    `json:"entry_id"`
	TimelineID valueobjects.TimelineID `json:"timeline_id"`
}

// NewMembershipRemoved creates a MembershipRemoved event
func NewMembershipRemoved(entryID valueobjects.EntryID, timelineID valueobjects.TimelineID, timestamp time.Time) MembershipRemoved {
	return MembershipRemoved{
		BaseEvent: BaseEvent{
			AggregateID: entryID.String(),
			EventType:   "entry.membership_removed",
			Timestamp:   timestamp,
			Version:     1,
		},
		EntryID:    entryID,
		TimelineID: timelineID,
	}
}

// System events

// DataSourceSwitched is raised when the synthetic-data toggle flips
type DataSourceSwitched struct {
	BaseEvent
	UseSynthetic bool `json:"use_synthetic"`
}

// NewDataSourceSwitched creates a DataSourceSwitched event
func NewDataSourceSwitched(useSynthetic bool, timestamp time.Time) DataSourceSwitched {
	return DataSourceSwitched{
		BaseEvent: BaseEvent{
			AggregateID: "data-source",
			EventType:   "system.data_source_switched",
			Timestamp:   timestamp,
			Version:     1,
		},
		UseSynthetic: useSynthetic,
	}
}
