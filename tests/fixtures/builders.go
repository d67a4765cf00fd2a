// Package fixtures provides test data builders for creating domain entities
// with sensible defaults.
package fixtures

import (
	"fmt"
	"time"

	"lorekeeper-backend/domain/core/entities"
	"lorekeeper-backend/domain/core/valueobjects"
)

// anchor keeps builder output stable across test runs
var anchor = time.Date(2023, time.March, 15, 12, 0, 0, 0, time.UTC)

// TimelineBuilder builds timelines for tests
type TimelineBuilder struct {
	id          valueobjects.TimelineID
	userID      string
	title       string
	description string
	kind        entities.TimelineType
	parentID    *valueobjects.TimelineID
	startDate   time.Time
	endDate     *time.Time
	tags        []string
	updatedAt   time.Time
}

// NewTimelineBuilder creates a builder with sensible defaults
func NewTimelineBuilder() *TimelineBuilder {
	return &TimelineBuilder{
		id:        valueobjects.NewTimelineID(),
		userID:    "test-user-123",
		title:     "Test Timeline",
		kind:      entities.TimelineTypeCustom,
		startDate: anchor.AddDate(-1, 0, 0),
		updatedAt: anchor,
	}
}

func (b *TimelineBuilder) WithID(id valueobjects.TimelineID) *TimelineBuilder {
	b.id = id
	return b
}

func (b *TimelineBuilder) WithUserID(userID string) *TimelineBuilder {
	b.userID = userID
	return b
}

func (b *TimelineBuilder) WithTitle(title string) *TimelineBuilder {
	b.title = title
	return b
}

func (b *TimelineBuilder) WithDescription(description string) *TimelineBuilder {
	b.description = description
	return b
}

func (b *TimelineBuilder) WithType(kind entities.TimelineType) *TimelineBuilder {
	b.kind = kind
	return b
}

func (b *TimelineBuilder) WithParent(parentID valueobjects.TimelineID) *TimelineBuilder {
	b.parentID = &parentID
	return b
}

func (b *TimelineBuilder) WithStartDate(start time.Time) *TimelineBuilder {
	b.startDate = start
	return b
}

func (b *TimelineBuilder) WithEndDate(end time.Time) *TimelineBuilder {
	b.endDate = &end
	return b
}

func (b *TimelineBuilder) WithTags(tags ...string) *TimelineBuilder {
	b.tags = tags
	return b
}

func (b *TimelineBuilder) WithUpdatedAt(at time.Time) *TimelineBuilder {
	b.updatedAt = at
	return b
}

// Build creates the timeline, returning any validation error
func (b *TimelineBuilder) Build() (*entities.Timeline, error) {
	return entities.ReconstructTimeline(
		b.id,
		b.userID,
		b.title,
		b.description,
		b.kind,
		b.parentID,
		b.startDate,
		b.endDate,
		b.tags,
		nil,
		anchor.AddDate(-1, 0, 0),
		b.updatedAt,
		1,
	)
}

// MustBuild creates the timeline, panicking on error. Use in tests where
// the builder inputs are known valid.
func (b *TimelineBuilder) MustBuild() *entities.Timeline {
	tl, err := b.Build()
	if err != nil {
		panic(fmt.Sprintf("fixtures: failed to build timeline: %v", err))
	}
	return tl
}

// EntryBuilder builds chronology entries for tests
type EntryBuilder struct {
	id             valueobjects.EntryID
	userID         string
	journalEntryID string
	content        string
	span           valueobjects.TimeSpan
	precision      valueobjects.TimePrecision
	confidence     valueobjects.Confidence
	memberships    []valueobjects.TimelineID
	archived       bool
	correctedFrom  *valueobjects.EntryID
}

// NewEntryBuilder creates a builder with sensible defaults
func NewEntryBuilder() *EntryBuilder {
	span, _ := valueobjects.NewTimeSpan(anchor, anchor.Add(2*time.Hour))
	return &EntryBuilder{
		id:             valueobjects.NewEntryID(),
		userID:         "test-user-123",
		journalEntryID: "journal-entry-123",
		content:        "Test entry content",
		span:           span,
		precision:      valueobjects.PrecisionExact,
		confidence:     valueobjects.FullConfidence(),
	}
}

func (b *EntryBuilder) WithID(id valueobjects.EntryID) *EntryBuilder {
	b.id = id
	return b
}

func (b *EntryBuilder) WithUserID(userID string) *EntryBuilder {
	b.userID = userID
	return b
}

func (b *EntryBuilder) WithJournalEntryID(journalEntryID string) *EntryBuilder {
	b.journalEntryID = journalEntryID
	return b
}

func (b *EntryBuilder) WithContent(content string) *EntryBuilder {
	b.content = content
	return b
}

func (b *EntryBuilder) WithSpan(start, end time.Time) *EntryBuilder {
	span, err := valueobjects.NewTimeSpan(start, end)
	if err != nil {
		panic(fmt.Sprintf("fixtures: invalid span: %v", err))
	}
	b.span = span
	return b
}

func (b *EntryBuilder) WithInstant(at time.Time) *EntryBuilder {
	return b.WithSpan(at, at)
}

func (b *EntryBuilder) WithPrecision(precision valueobjects.TimePrecision) *EntryBuilder {
	b.precision = precision
	return b
}

func (b *EntryBuilder) WithConfidence(v float64) *EntryBuilder {
	confidence, err := valueobjects.NewConfidence(v)
	if err != nil {
		panic(fmt.Sprintf("fixtures: invalid confidence: %v", err))
	}
	b.confidence = confidence
	return b
}

func (b *EntryBuilder) WithMemberships(ids ...valueobjects.TimelineID) *EntryBuilder {
	b.memberships = ids
	return b
}

func (b *EntryBuilder) Archived() *EntryBuilder {
	b.archived = true
	return b
}

func (b *EntryBuilder) CorrectedFrom(id valueobjects.EntryID) *EntryBuilder {
	b.correctedFrom = &id
	return b
}

// Build creates the entry, returning any validation error
func (b *EntryBuilder) Build() (*entities.ChronologyEntry, error) {
	return entities.ReconstructChronologyEntry(
		b.id,
		b.userID,
		b.journalEntryID,
		b.content,
		b.span,
		b.precision,
		b.confidence,
		b.memberships,
		b.archived,
		b.correctedFrom,
		anchor,
		anchor,
		1,
	)
}

// MustBuild creates the entry, panicking on error
func (b *EntryBuilder) MustBuild() *entities.ChronologyEntry {
	entry, err := b.Build()
	if err != nil {
		panic(fmt.Sprintf("fixtures: failed to build entry: %v", err))
	}
	return entry
}
