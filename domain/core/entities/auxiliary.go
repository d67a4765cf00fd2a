package entities

import (
	"time"

	"lorekeeper-backend/domain/core/valueobjects"
)

// Quest is a long-running personal goal surfaced alongside the chronology.
// Quests are read-through projections; the backend owns their lifecycle.
type Quest struct {
	ID          string                   `json:"id"`
	UserID      string                   `json:"user_id"`
	Title       string                   `json:"title"`
	Description string                   `json:"description,omitempty"`
	Status      string                   `json:"status"`
	TimelineID  *valueobjects.TimelineID `json:"timeline_id,omitempty"`
	StartedAt   time.Time                `json:"started_at"`
	CompletedAt *time.Time               `json:"completed_at,omitempty"`
}

// QuestStatus values
const (
	QuestStatusActive    = "active"
	QuestStatusCompleted = "completed"
	QuestStatusAbandoned = "abandoned"
)

// ReviewProposal is a pending suggestion in the memory-review queue:
// a proposed temporal placement or membership change awaiting user approval.
type ReviewProposal struct {
	ID            string                     `json:"id"`
	UserID        string                     `json:"user_id"`
	EntryID       valueobjects.EntryID       `json:"entry_id"`
	Kind          string                     `json:"kind"`
	ProposedStart *time.Time                 `json:"proposed_start,omitempty"`
	ProposedEnd   *time.Time                 `json:"proposed_end,omitempty"`
	Precision     valueobjects.TimePrecision `json:"precision,omitempty"`
	TimelineID    *valueobjects.TimelineID   `json:"timeline_id,omitempty"`
	Reason        string                     `json:"reason,omitempty"`
	CreatedAt     time.Time                  `json:"created_at"`
}

// ReviewProposal kinds
const (
	ProposalKindRelocate   = "relocate"
	ProposalKindMembership = "membership"
	ProposalKindArchive    = "archive"
)
