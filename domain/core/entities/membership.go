package entities

import (
	"fmt"
	"time"

	"lorekeeper-backend/domain/core/valueobjects"
	pkgerrors "lorekeeper-backend/pkg/errors"

	"github.com/google/uuid"
)

// TimelineMembership is the many-to-many join between an entry and a
// timeline, carrying per-pairing metadata. Memberships are created and
// destroyed independently of both endpoints.
type TimelineMembership struct {
	ID              string                  `json:"id"`
	EntryID         valueobjects.EntryID    `json:"entry_id"`
	TimelineID      valueobjects.TimelineID `json:"timeline_id"`
	Role            string                  `json:"role,omitempty"`
	ImportanceScore float64                 `json:"importance_score"`
	Metadata        map[string]interface{}  `json:"metadata,omitempty"`
	CreatedAt       time.Time               `json:"created_at"`
}

// NewTimelineMembership creates a membership pairing
func NewTimelineMembership(entryID valueobjects.EntryID, timelineID valueobjects.TimelineID, role string, importance float64) (*TimelineMembership, error) {
	if entryID.IsZero() {
		return nil, pkgerrors.NewValidationError("entry ID cannot be empty")
	}
	if timelineID.IsZero() {
		return nil, pkgerrors.NewValidationError("timeline ID cannot be empty")
	}
	if importance < 0 || importance > 1 {
		return nil, pkgerrors.NewValidationError("importance score must be within [0, 1]")
	}

	return &TimelineMembership{
		ID:              uuid.New().String(),
		EntryID:         entryID,
		TimelineID:      timelineID,
		Role:            role,
		ImportanceScore: importance,
		Metadata:        make(map[string]interface{}),
		CreatedAt:       time.Now(),
	}, nil
}

// RelationshipType classifies a directed edge between two timelines,
// independent of the parent/child tree
type RelationshipType string

const (
	RelationshipSpawned    RelationshipType = "spawned"
	RelationshipInfluenced RelationshipType = "influenced"
	RelationshipOverlapped RelationshipType = "overlapped"
	RelationshipPreceded   RelationshipType = "preceded"
	RelationshipMerged     RelationshipType = "merged"
	RelationshipSplit      RelationshipType = "split"
)

// ParseRelationshipType validates a raw relationship type string
func ParseRelationshipType(s string) (RelationshipType, error) {
	switch RelationshipType(s) {
	case RelationshipSpawned, RelationshipInfluenced, RelationshipOverlapped,
		RelationshipPreceded, RelationshipMerged, RelationshipSplit:
		return RelationshipType(s), nil
	default:
		return "", fmt.Errorf("unknown relationship type %q", s)
	}
}

// TimelineRelationship is a directed, typed edge between two timelines,
// used by the related-timelines view. Both endpoints must exist; that is
// the only invariant.
type TimelineRelationship struct {
	ID        string                  `json:"id"`
	SourceID  valueobjects.TimelineID `json:"source_id"`
	TargetID  valueobjects.TimelineID `json:"target_id"`
	Type      RelationshipType        `json:"type"`
	CreatedAt time.Time               `json:"created_at"`
}

// NewTimelineRelationship creates a relationship edge
func NewTimelineRelationship(sourceID, targetID valueobjects.TimelineID, relType RelationshipType) (*TimelineRelationship, error) {
	if sourceID.IsZero() || targetID.IsZero() {
		return nil, pkgerrors.NewValidationError("relationship endpoints cannot be empty")
	}
	if sourceID.Equals(targetID) {
		return nil, pkgerrors.NewValidationError("relationship cannot be self-referential")
	}
	if _, err := ParseRelationshipType(string(relType)); err != nil {
		return nil, pkgerrors.NewValidationError(err.Error())
	}

	return &TimelineRelationship{
		ID:        uuid.New().String(),
		SourceID:  sourceID,
		TargetID:  targetID,
		Type:      relType,
		CreatedAt: time.Now(),
	}, nil
}
