package queries

import "errors"

// ListTimelinesQuery fetches all of a user's timelines
type ListTimelinesQuery struct {
	UserID string
}

// Validate validates the ListTimelinesQuery
func (q ListTimelinesQuery) Validate() error {
	if q.UserID == "" {
		return errors.New("user ID is required")
	}
	return nil
}

// TimelineView is the read model of a timeline. DisplayName is computed
// at read time from the title and date range, never stored.
type TimelineView struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	DisplayName string   `json:"displayName"`
	Description string   `json:"description,omitempty"`
	Type        string   `json:"type"`
	ParentID    string   `json:"parentId,omitempty"`
	StartDate   string   `json:"startDate"`
	EndDate     string   `json:"endDate,omitempty"`
	Ongoing     bool     `json:"ongoing"`
	Tags        []string `json:"tags"`
	Version     int      `json:"version"`
	CreatedAt   string   `json:"createdAt"`
	UpdatedAt   string   `json:"updatedAt"`
}

// ListTimelinesResult carries the timelines plus their provenance
type ListTimelinesResult struct {
	Timelines  []TimelineView `json:"timelines"`
	Provenance Provenance     `json:"provenance"`
}

// CacheOK implements bus.Cacheable
func (r *ListTimelinesResult) CacheOK() bool {
	return r.Provenance.CacheOK()
}

// GetTimelineQuery fetches a single timeline with its relationships
type GetTimelineQuery struct {
	UserID     string
	TimelineID string
}

// Validate validates the GetTimelineQuery
func (q GetTimelineQuery) Validate() error {
	if q.UserID == "" {
		return errors.New("user ID is required")
	}
	if q.TimelineID == "" {
		return errors.New("timeline ID is required")
	}
	return nil
}

// RelationshipView is a directed edge between two timelines
type RelationshipView struct {
	ID        string `json:"id"`
	SourceID  string `json:"sourceId"`
	TargetID  string `json:"targetId"`
	Type      string `json:"type"`
	CreatedAt string `json:"createdAt"`
}

// GetTimelineResult is a single timeline with its relationships
type GetTimelineResult struct {
	Timeline      TimelineView       `json:"timeline"`
	Relationships []RelationshipView `json:"relationships"`
	Provenance    Provenance         `json:"provenance"`
}

// CacheOK implements bus.Cacheable
func (r *GetTimelineResult) CacheOK() bool {
	return r.Provenance.CacheOK()
}

// GetTimelineTreeQuery resolves the parent/child hierarchy. With an
// empty RootID the whole forest is returned.
type GetTimelineTreeQuery struct {
	UserID string
	RootID string
}

// Validate validates the GetTimelineTreeQuery
func (q GetTimelineTreeQuery) Validate() error {
	if q.UserID == "" {
		return errors.New("user ID is required")
	}
	return nil
}

// TreeNodeView is a timeline with its resolved children
type TreeNodeView struct {
	Timeline TimelineView   `json:"timeline"`
	Children []TreeNodeView `json:"children"`
}

// GetTimelineTreeResult carries the resolved forest and any hierarchy
// findings such as cycles
type GetTimelineTreeResult struct {
	Roots       []TreeNodeView   `json:"roots"`
	Constraints []ConstraintView `json:"constraints"`
	Provenance  Provenance       `json:"provenance"`
}

// CacheOK implements bus.Cacheable
func (r *GetTimelineTreeResult) CacheOK() bool {
	return r.Provenance.CacheOK()
}

// GetAncestorsQuery lists a timeline's ancestor chain, nearest first
type GetAncestorsQuery struct {
	UserID     string
	TimelineID string
}

// Validate validates the GetAncestorsQuery
func (q GetAncestorsQuery) Validate() error {
	if q.UserID == "" {
		return errors.New("user ID is required")
	}
	if q.TimelineID == "" {
		return errors.New("timeline ID is required")
	}
	return nil
}

// GetAncestorsResult carries the chain plus any hierarchy findings
type GetAncestorsResult struct {
	Ancestors   []TimelineView   `json:"ancestors"`
	Constraints []ConstraintView `json:"constraints"`
	Provenance  Provenance       `json:"provenance"`
}

// CacheOK implements bus.Cacheable
func (r *GetAncestorsResult) CacheOK() bool {
	return r.Provenance.CacheOK()
}

// RecommendedTimelinesQuery ranks timelines for quick entry placement,
// ongoing timelines first
type RecommendedTimelinesQuery struct {
	UserID string
	Limit  int
}

// Validate validates the RecommendedTimelinesQuery
func (q RecommendedTimelinesQuery) Validate() error {
	if q.UserID == "" {
		return errors.New("user ID is required")
	}
	if q.Limit < 0 {
		return errors.New("limit cannot be negative")
	}
	return nil
}

// RecommendedTimelinesResult carries the ranked timelines
type RecommendedTimelinesResult struct {
	Timelines  []TimelineView `json:"timelines"`
	Provenance Provenance     `json:"provenance"`
}

// CacheOK implements bus.Cacheable
func (r *RecommendedTimelinesResult) CacheOK() bool {
	return r.Provenance.CacheOK()
}
