package queries

import (
	"errors"
	"time"
)

// Provenance reports which data source produced a query result
type Provenance struct {
	IsSynthetic bool      `json:"is_synthetic"`
	Source      string    `json:"source"`
	Timestamp   time.Time `json:"timestamp"`
}

// CacheOK reports whether a result with this provenance may be cached.
// Synthetic results are never cached so a toggle flip shows through
// immediately.
func (p Provenance) CacheOK() bool {
	return !p.IsSynthetic
}

// GetChronologyQuery fetches a user's chronology entries, optionally
// narrowed by timeline, date window, tags or text search
type GetChronologyQuery struct {
	UserID          string
	TimelineID      string
	Start           *time.Time
	End             *time.Time
	Tags            []string
	Search          string
	IncludeArchived bool
	Limit           int
}

// Validate validates the GetChronologyQuery
func (q GetChronologyQuery) Validate() error {
	if q.UserID == "" {
		return errors.New("user ID is required")
	}
	if q.Start != nil && q.End != nil && q.End.Before(*q.Start) {
		return errors.New("end of date window precedes start")
	}
	return nil
}

// EntryView is the read model of a chronology entry
type EntryView struct {
	ID             string   `json:"id"`
	JournalEntryID string   `json:"journalEntryId,omitempty"`
	Content        string   `json:"content"`
	Start          string   `json:"start"`
	End            string   `json:"end"`
	EffectiveStart string   `json:"effectiveStart"`
	EffectiveEnd   string   `json:"effectiveEnd"`
	Precision      string   `json:"precision"`
	Confidence     float64  `json:"confidence"`
	Timelines      []string `json:"timelines"`
	Archived       bool     `json:"archived"`
	CorrectedFrom  string   `json:"correctedFrom,omitempty"`
	Version        int      `json:"version"`
	CreatedAt      string   `json:"createdAt"`
	UpdatedAt      string   `json:"updatedAt"`
}

// GetChronologyResult carries the entries plus their provenance
type GetChronologyResult struct {
	Entries    []EntryView `json:"entries"`
	Provenance Provenance  `json:"provenance"`
}

// CacheOK implements bus.Cacheable
func (r *GetChronologyResult) CacheOK() bool {
	return r.Provenance.CacheOK()
}

// ScanOverlapsQuery computes pairwise overlaps of a user's dated entries
type ScanOverlapsQuery struct {
	UserID     string
	TimelineID string
	Start      *time.Time
	End        *time.Time
}

// Validate validates the ScanOverlapsQuery
func (q ScanOverlapsQuery) Validate() error {
	if q.UserID == "" {
		return errors.New("user ID is required")
	}
	return nil
}

// OverlapView reports one intersecting entry pair
type OverlapView struct {
	Entry1ID     string  `json:"entry1Id"`
	Entry2ID     string  `json:"entry2Id"`
	OverlapStart string  `json:"overlapStart"`
	OverlapEnd   string  `json:"overlapEnd"`
	DurationDays float64 `json:"durationDays"`
}

// ConstraintView reports one derived consistency finding
type ConstraintView struct {
	Type        string   `json:"type"`
	Severity    string   `json:"severity"`
	Message     string   `json:"message"`
	EntryIDs    []string `json:"entryIds,omitempty"`
	TimelineIDs []string `json:"timelineIds,omitempty"`
}

// ScanOverlapsResult carries the discovered overlaps and any findings
// from the scan itself
type ScanOverlapsResult struct {
	Overlaps    []OverlapView    `json:"overlaps"`
	Constraints []ConstraintView `json:"constraints"`
	Provenance  Provenance       `json:"provenance"`
}

// CacheOK implements bus.Cacheable
func (r *ScanOverlapsResult) CacheOK() bool {
	return r.Provenance.CacheOK()
}

// GetConstraintsQuery runs the full consistency sweep across a user's
// entries and timelines
type GetConstraintsQuery struct {
	UserID string
}

// Validate validates the GetConstraintsQuery
func (q GetConstraintsQuery) Validate() error {
	if q.UserID == "" {
		return errors.New("user ID is required")
	}
	return nil
}

// GetConstraintsResult carries every derived finding
type GetConstraintsResult struct {
	Constraints []ConstraintView `json:"constraints"`
	Provenance  Provenance       `json:"provenance"`
}

// CacheOK implements bus.Cacheable
func (r *GetConstraintsResult) CacheOK() bool {
	return r.Provenance.CacheOK()
}

// GetAnalyticsQuery derives clusters, overlaps and gaps from a user's
// chronology
type GetAnalyticsQuery struct {
	UserID string
}

// Validate validates the GetAnalyticsQuery
func (q GetAnalyticsQuery) Validate() error {
	if q.UserID == "" {
		return errors.New("user ID is required")
	}
	return nil
}

// ClusterView is a run of temporally close entries. Label -1 collects
// entries that could not be placed in any cluster.
type ClusterView struct {
	Label    int      `json:"label"`
	EntryIDs []string `json:"entryIds"`
}

// GetAnalyticsResult is the derived analytics report
type GetAnalyticsResult struct {
	EntryCount  int              `json:"entryCount"`
	Clusters    []ClusterView    `json:"clusters"`
	Overlaps    []OverlapView    `json:"overlaps"`
	Constraints []ConstraintView `json:"constraints"`
	Provenance  Provenance       `json:"provenance"`
}

// CacheOK implements bus.Cacheable
func (r *GetAnalyticsResult) CacheOK() bool {
	return r.Provenance.CacheOK()
}
