package entities

import (
	"fmt"
	"strings"
	"time"

	"lorekeeper-backend/domain/config"
	"lorekeeper-backend/domain/core/valueobjects"
	"lorekeeper-backend/domain/events"
	pkgerrors "lorekeeper-backend/pkg/errors"
)

// ChronologyEntry is a single memory projected onto the time axis.
// Its literal timestamps are qualified by a precision and a confidence;
// the effective interval used for comparisons is derived, not stored.
type ChronologyEntry struct {
	id             valueobjects.EntryID
	journalEntryID string
	userID         string
	span           valueobjects.TimeSpan
	precision      valueobjects.TimePrecision
	confidence     valueobjects.Confidence
	content        string
	memberships    []valueobjects.TimelineID
	archived       bool
	correctedFrom  *valueobjects.EntryID // set when this entry replaces an archived one
	createdAt      time.Time
	updatedAt      time.Time
	version        int

	events []events.DomainEvent
}

// NewChronologyEntry creates an entry with full business rule validation
func NewChronologyEntry(
	userID, journalEntryID, content string,
	span valueobjects.TimeSpan,
	precision valueobjects.TimePrecision,
	confidence valueobjects.Confidence,
) (*ChronologyEntry, error) {
	return NewChronologyEntryWithConfig(userID, journalEntryID, content, span, precision, confidence, config.DefaultDomainConfig())
}

// NewChronologyEntryWithConfig creates an entry with explicit configuration
func NewChronologyEntryWithConfig(
	userID, journalEntryID, content string,
	span valueobjects.TimeSpan,
	precision valueobjects.TimePrecision,
	confidence valueobjects.Confidence,
	cfg *config.DomainConfig,
) (*ChronologyEntry, error) {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}

	if userID == "" {
		return nil, pkgerrors.NewValidationError("userID cannot be empty")
	}
	if journalEntryID == "" {
		return nil, pkgerrors.NewValidationError("journalEntryID cannot be empty")
	}

	content = strings.TrimSpace(content)
	if content == "" && !cfg.AllowEmptyContent {
		return nil, pkgerrors.NewValidationError("content cannot be empty")
	}
	if len(content) > cfg.MaxContentLength {
		return nil, pkgerrors.NewValidationError(fmt.Sprintf("content exceeds %d characters", cfg.MaxContentLength))
	}

	if span.IsZero() {
		return nil, pkgerrors.NewValidationError("entry must be located in time")
	}
	if !precision.IsValid() {
		return nil, pkgerrors.NewValidationError("unknown time precision")
	}

	now := time.Now()
	entry := &ChronologyEntry{
		id:             valueobjects.NewEntryID(),
		journalEntryID: journalEntryID,
		userID:         userID,
		span:           span,
		precision:      precision,
		confidence:     confidence,
		content:        content,
		memberships:    []valueobjects.TimelineID{},
		createdAt:      now,
		updatedAt:      now,
		version:        1,
		events:         []events.DomainEvent{},
	}

	entry.addEvent(events.NewEntryCreated(entry.id, userID, journalEntryID, span.Start(), string(precision), now))

	return entry, nil
}

// ReconstructChronologyEntry rebuilds an entry from repository data
func ReconstructChronologyEntry(
	id valueobjects.EntryID,
	userID, journalEntryID, content string,
	span valueobjects.TimeSpan,
	precision valueobjects.TimePrecision,
	confidence valueobjects.Confidence,
	memberships []valueobjects.TimelineID,
	archived bool,
	correctedFrom *valueobjects.EntryID,
	createdAt, updatedAt time.Time,
	version int,
) (*ChronologyEntry, error) {
	if userID == "" {
		return nil, pkgerrors.NewValidationError("userID cannot be empty")
	}
	if span.IsZero() {
		return nil, pkgerrors.NewValidationError("entry must be located in time")
	}

	if memberships == nil {
		memberships = []valueobjects.TimelineID{}
	}

	return &ChronologyEntry{
		id:             id,
		journalEntryID: journalEntryID,
		userID:         userID,
		span:           span,
		precision:      precision,
		confidence:     confidence,
		content:        content,
		memberships:    memberships,
		archived:       archived,
		correctedFrom:  correctedFrom,
		createdAt:      createdAt,
		updatedAt:      updatedAt,
		version:        version,
		events:         []events.DomainEvent{},
	}, nil
}

// ID returns the entry's unique identifier
func (e *ChronologyEntry) ID() valueobjects.EntryID {
	return e.id
}

// JournalEntryID returns the owning content record's ID
func (e *ChronologyEntry) JournalEntryID() string {
	return e.journalEntryID
}

// UserID returns the owner's ID
func (e *ChronologyEntry) UserID() string {
	return e.userID
}

// Span returns the literal, unwidened time span
func (e *ChronologyEntry) Span() valueobjects.TimeSpan {
	return e.span
}

// Precision returns how exactly the span is known
func (e *ChronologyEntry) Precision() valueobjects.TimePrecision {
	return e.precision
}

// Confidence returns the certainty of the temporal placement
func (e *ChronologyEntry) Confidence() valueobjects.Confidence {
	return e.confidence
}

// Content returns the entry's text
func (e *ChronologyEntry) Content() string {
	return e.content
}

// IsArchived reports whether the entry has been archived
func (e *ChronologyEntry) IsArchived() bool {
	return e.archived
}

// CorrectedFrom returns the archived entry this one replaces, if any
func (e *ChronologyEntry) CorrectedFrom() *valueobjects.EntryID {
	return e.correctedFrom
}

// Version returns the entry's version for optimistic locking
func (e *ChronologyEntry) Version() int {
	return e.version
}

// CreatedAt returns when the entry was created
func (e *ChronologyEntry) CreatedAt() time.Time {
	return e.createdAt
}

// UpdatedAt returns when the entry was last updated
func (e *ChronologyEntry) UpdatedAt() time.Time {
	return e.updatedAt
}

// EffectiveInterval widens the literal span into the interval implied by the
// entry's precision, using the given fuzz margin for approximate entries
func (e *ChronologyEntry) EffectiveInterval(fuzz time.Duration) valueobjects.TimeSpan {
	return e.span.Widen(e.precision, fuzz)
}

// Relocate moves the entry on the time axis
func (e *ChronologyEntry) Relocate(span valueobjects.TimeSpan, precision valueobjects.TimePrecision, confidence valueobjects.Confidence) error {
	if e.archived {
		return pkgerrors.NewValidationError("cannot relocate archived entry")
	}
	if span.IsZero() {
		return pkgerrors.NewValidationError("entry must be located in time")
	}
	if !precision.IsValid() {
		return pkgerrors.NewValidationError("unknown time precision")
	}

	oldStart := e.span.Start()
	e.span = span
	e.precision = precision
	e.confidence = confidence
	e.touch()

	e.addEvent(events.NewEntryRelocated(e.id, oldStart, span.Start(), string(precision), e.updatedAt))

	return nil
}

// UpdateContent replaces the entry's text with validation
func (e *ChronologyEntry) UpdateContent(content string) error {
	if e.archived {
		return pkgerrors.NewValidationError("cannot update archived entry")
	}

	content = strings.TrimSpace(content)
	if content == "" {
		return pkgerrors.NewValidationError("content cannot be empty")
	}
	if content == e.content {
		return nil
	}

	e.content = content
	e.touch()

	return nil
}

// AddToTimeline records membership in a timeline. Memberships mutate
// independently of the entry's own temporal fields.
func (e *ChronologyEntry) AddToTimeline(timelineID valueobjects.TimelineID) error {
	return e.AddToTimelineWithConfig(timelineID, config.DefaultDomainConfig())
}

// AddToTimelineWithConfig records membership with explicit configuration
func (e *ChronologyEntry) AddToTimelineWithConfig(timelineID valueobjects.TimelineID, cfg *config.DomainConfig) error {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}

	if timelineID.IsZero() {
		return pkgerrors.NewValidationError("timeline ID cannot be empty")
	}

	for _, existing := range e.memberships {
		if existing.Equals(timelineID) {
			return pkgerrors.NewConflictError("entry already belongs to timeline")
		}
	}

	if len(e.memberships) >= cfg.MaxMembershipsPerEntry {
		return fmt.Errorf("maximum memberships reached: %d", cfg.MaxMembershipsPerEntry)
	}

	e.memberships = append(e.memberships, timelineID)
	e.touch()

	e.addEvent(events.NewMembershipAdded(e.id, timelineID, e.updatedAt))

	return nil
}

// RemoveFromTimeline drops membership in a timeline
func (e *ChronologyEntry) RemoveFromTimeline(timelineID valueobjects.TimelineID) error {
	newMemberships := []valueobjects.TimelineID{}
	found := false

	for _, existing := range e.memberships {
		if !existing.Equals(timelineID) {
			newMemberships = append(newMemberships, existing)
		} else {
			found = true
		}
	}

	if !found {
		return pkgerrors.NewNotFoundError("membership")
	}

	e.memberships = newMemberships
	e.touch()

	e.addEvent(events.NewMembershipRemoved(e.id, timelineID, e.updatedAt))

	return nil
}

// TimelineMemberships returns a copy of the entry's timeline memberships
func (e *ChronologyEntry) TimelineMemberships() []valueobjects.TimelineID {
	memberships := make([]valueobjects.TimelineID, len(e.memberships))
	copy(memberships, e.memberships)
	return memberships
}

// BelongsTo reports whether the entry is a member of the given timeline
func (e *ChronologyEntry) BelongsTo(timelineID valueobjects.TimelineID) bool {
	for _, existing := range e.memberships {
		if existing.Equals(timelineID) {
			return true
		}
	}
	return false
}

// Archive marks the entry as archived while keeping it in the collection
func (e *ChronologyEntry) Archive() error {
	if e.archived {
		return nil
	}

	e.archived = true
	e.touch()

	e.addEvent(events.NewEntryArchived(e.id, e.updatedAt))

	return nil
}

// Correct archives this entry and produces a replacement carrying the
// corrected placement. The replacement records this entry as its source.
func (e *ChronologyEntry) Correct(span valueobjects.TimeSpan, precision valueobjects.TimePrecision, confidence valueobjects.Confidence, content string) (*ChronologyEntry, error) {
	if err := e.Archive(); err != nil {
		return nil, err
	}

	if content == "" {
		content = e.content
	}

	replacement, err := NewChronologyEntry(e.userID, e.journalEntryID, content, span, precision, confidence)
	if err != nil {
		return nil, err
	}

	sourceID := e.id
	replacement.correctedFrom = &sourceID
	for _, timelineID := range e.memberships {
		replacement.memberships = append(replacement.memberships, timelineID)
	}

	return replacement, nil
}

// GetUncommittedEvents returns all uncommitted domain events
func (e *ChronologyEntry) GetUncommittedEvents() []events.DomainEvent {
	return e.events
}

// MarkEventsAsCommitted clears the uncommitted events
func (e *ChronologyEntry) MarkEventsAsCommitted() {
	e.events = []events.DomainEvent{}
}

func (e *ChronologyEntry) addEvent(event events.DomainEvent) {
	e.events = append(e.events, event)
}

func (e *ChronologyEntry) touch() {
	e.updatedAt = time.Now()
	e.version++
}
