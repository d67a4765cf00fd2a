package services

import (
	"time"
)

// ConstraintType classifies a derived consistency finding
type ConstraintType string

const (
	ConstraintImpossibleOverlap ConstraintType = "impossible_overlap"
	ConstraintContradiction     ConstraintType = "contradiction"
	ConstraintGap               ConstraintType = "gap"
	ConstraintPrecisionMismatch ConstraintType = "precision_mismatch"
)

// ConstraintSeverity ranks a finding. Findings are purely advisory and
// never block persistence; error severity marks data-integrity problems.
type ConstraintSeverity string

const (
	SeverityWarning ConstraintSeverity = "warning"
	SeverityError   ConstraintSeverity = "error"
)

// ChronologyConstraint is a derived consistency finding about the loaded
// entry/timeline collection. It is computed, never stored.
type ChronologyConstraint struct {
	Type        ConstraintType     `json:"type"`
	Severity    ConstraintSeverity `json:"severity"`
	Message     string             `json:"message"`
	EntryIDs    []string           `json:"entry_ids,omitempty"`
	TimelineIDs []string           `json:"timeline_ids,omitempty"`
}

// ChronologyOverlap is a derived, symmetric fact that two entries'
// effective time intervals intersect. Never self-referential, and the
// reported intersection bounds are independent of argument order.
type ChronologyOverlap struct {
	Entry1ID            string    `json:"entry1_id"`
	Entry2ID            string    `json:"entry2_id"`
	OverlapStart        time.Time `json:"overlap_start"`
	OverlapEnd          time.Time `json:"overlap_end"`
	OverlapDurationDays float64   `json:"overlap_duration_days"`
}
