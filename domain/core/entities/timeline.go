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

// TimelineType classifies what kind of span a timeline groups
type TimelineType string

const (
	TimelineTypeLifeEra     TimelineType = "life_era"
	TimelineTypeSubTimeline TimelineType = "sub_timeline"
	TimelineTypeSkill       TimelineType = "skill"
	TimelineTypeLocation    TimelineType = "location"
	TimelineTypeWork        TimelineType = "work"
	TimelineTypeCustom      TimelineType = "custom"
)

// ParseTimelineType validates a raw timeline type string
func ParseTimelineType(s string) (TimelineType, error) {
	switch TimelineType(s) {
	case TimelineTypeLifeEra, TimelineTypeSubTimeline, TimelineTypeSkill,
		TimelineTypeLocation, TimelineTypeWork, TimelineTypeCustom:
		return TimelineType(s), nil
	case "":
		return TimelineTypeCustom, nil
	default:
		return "", fmt.Errorf("unknown timeline type %q", s)
	}
}

// Timeline is a named, typed time span a user created to group memories.
// The parent relation across timelines must form a forest; cycle detection
// is the hierarchy resolver's job, but re-dating invariants live here.
type Timeline struct {
	id          valueobjects.TimelineID
	userID      string
	title       string
	description string
	kind        TimelineType
	parentID    *valueobjects.TimelineID
	startDate   time.Time
	endDate     *time.Time // nil means ongoing
	tags        []string
	metadata    map[string]interface{}
	createdAt   time.Time
	updatedAt   time.Time
	version     int

	events []events.DomainEvent
}

// NewTimeline creates a timeline with full business rule validation
func NewTimeline(userID, title string, kind TimelineType, startDate time.Time) (*Timeline, error) {
	return NewTimelineWithConfig(userID, title, kind, startDate, config.DefaultDomainConfig())
}

// NewTimelineWithConfig creates a timeline with explicit configuration
func NewTimelineWithConfig(userID, title string, kind TimelineType, startDate time.Time, cfg *config.DomainConfig) (*Timeline, error) {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}

	if userID == "" {
		return nil, pkgerrors.NewValidationError("userID cannot be empty")
	}

	title = strings.TrimSpace(title)
	if len(title) < cfg.MinTitleLength {
		return nil, pkgerrors.NewValidationError("timeline title cannot be empty")
	}
	if len(title) > cfg.MaxTitleLength {
		return nil, pkgerrors.NewValidationError(fmt.Sprintf("timeline title exceeds %d characters", cfg.MaxTitleLength))
	}

	if startDate.IsZero() {
		return nil, pkgerrors.NewValidationError("start date is required")
	}

	now := time.Now()
	tl := &Timeline{
		id:        valueobjects.NewTimelineID(),
		userID:    userID,
		title:     title,
		kind:      kind,
		startDate: startDate.UTC(),
		tags:      []string{},
		metadata:  make(map[string]interface{}),
		createdAt: now,
		updatedAt: now,
		version:   1,
		events:    []events.DomainEvent{},
	}

	tl.addEvent(events.NewTimelineCreated(tl.id, userID, title, string(kind), now))

	return tl, nil
}

// ReconstructTimeline rebuilds a timeline from repository data with preserved timestamps
func ReconstructTimeline(
	id valueobjects.TimelineID,
	userID, title, description string,
	kind TimelineType,
	parentID *valueobjects.TimelineID,
	startDate time.Time,
	endDate *time.Time,
	tags []string,
	metadata map[string]interface{},
	createdAt, updatedAt time.Time,
	version int,
) (*Timeline, error) {
	if userID == "" {
		return nil, pkgerrors.NewValidationError("userID cannot be empty")
	}
	if title == "" {
		return nil, pkgerrors.NewValidationError("timeline title cannot be empty")
	}
	if endDate != nil && endDate.Before(startDate) {
		return nil, pkgerrors.NewValidationError("timeline end date cannot precede its start date")
	}

	if tags == nil {
		tags = []string{}
	}
	if metadata == nil {
		metadata = make(map[string]interface{})
	}

	return &Timeline{
		id:          id,
		userID:      userID,
		title:       title,
		description: description,
		kind:        kind,
		parentID:    parentID,
		startDate:   startDate,
		endDate:     endDate,
		tags:        tags,
		metadata:    metadata,
		createdAt:   createdAt,
		updatedAt:   updatedAt,
		version:     version,
		events:      []events.DomainEvent{},
	}, nil
}

// ID returns the timeline's unique identifier
func (t *Timeline) ID() valueobjects.TimelineID {
	return t.id
}

// UserID returns the owner's ID
func (t *Timeline) UserID() string {
	return t.userID
}

// Title returns the display title
func (t *Timeline) Title() string {
	return t.title
}

// Description returns the optional description
func (t *Timeline) Description() string {
	return t.description
}

// Type returns the timeline's classification
func (t *Timeline) Type() TimelineType {
	return t.kind
}

// ParentID returns the parent timeline's ID, nil for a root
func (t *Timeline) ParentID() *valueobjects.TimelineID {
	return t.parentID
}

// StartDate returns when the timeline's span begins
func (t *Timeline) StartDate() time.Time {
	return t.startDate
}

// EndDate returns when the span ends, nil while the timeline is ongoing
func (t *Timeline) EndDate() *time.Time {
	return t.endDate
}

// IsOngoing reports whether the timeline is still open-ended
func (t *Timeline) IsOngoing() bool {
	return t.endDate == nil
}

// Version returns the timeline's version for optimistic locking
func (t *Timeline) Version() int {
	return t.version
}

// CreatedAt returns when the timeline was created
func (t *Timeline) CreatedAt() time.Time {
	return t.createdAt
}

// UpdatedAt returns when the timeline was last updated
func (t *Timeline) UpdatedAt() time.Time {
	return t.updatedAt
}

// Rename changes the display title. Consumers caching membership display
// names must re-derive them after this succeeds; the cached form is never
// authoritative.
func (t *Timeline) Rename(title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return pkgerrors.NewValidationError("timeline title cannot be empty")
	}
	if title == t.title {
		return nil
	}

	oldTitle := t.title
	t.title = title
	t.touch()

	t.addEvent(events.NewTimelineRenamed(t.id, oldTitle, title, t.updatedAt))

	return nil
}

// SetDescription replaces the description
func (t *Timeline) SetDescription(description string) {
	t.description = strings.TrimSpace(description)
	t.touch()
}

// Redate moves the timeline's span. A nil end leaves it ongoing.
func (t *Timeline) Redate(startDate time.Time, endDate *time.Time) error {
	if startDate.IsZero() {
		return pkgerrors.NewValidationError("start date is required")
	}
	if endDate != nil && endDate.Before(startDate) {
		return pkgerrors.NewValidationError("timeline end date cannot precede its start date")
	}

	t.startDate = startDate.UTC()
	t.endDate = endDate
	t.touch()

	t.addEvent(events.NewTimelineRedated(t.id, t.startDate, t.endDate, t.updatedAt))

	return nil
}

// Reparent attaches the timeline under a new parent, or detaches it when
// parentID is nil. Self-parenting is rejected here; deeper cycle detection
// requires the full collection and belongs to the hierarchy resolver.
func (t *Timeline) Reparent(parentID *valueobjects.TimelineID) error {
	if parentID != nil && parentID.Equals(t.id) {
		return pkgerrors.NewValidationError("timeline cannot be its own parent")
	}

	t.parentID = parentID
	t.touch()

	t.addEvent(events.NewTimelineReparented(t.id, parentID, t.updatedAt))

	return nil
}

// Close marks the timeline as ended at the given date
func (t *Timeline) Close(endDate time.Time) error {
	if endDate.Before(t.startDate) {
		return pkgerrors.NewValidationError("timeline end date cannot precede its start date")
	}
	end := endDate.UTC()
	t.endDate = &end
	t.touch()
	return nil
}

// AddTag adds a tag, ignoring duplicates
func (t *Timeline) AddTag(tag string) error {
	return t.AddTagWithConfig(tag, config.DefaultDomainConfig())
}

// AddTagWithConfig adds a tag with explicit configuration
func (t *Timeline) AddTagWithConfig(tag string, cfg *config.DomainConfig) error {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}

	if tag == "" {
		return pkgerrors.NewValidationError("tag cannot be empty")
	}

	for _, existing := range t.tags {
		if existing == tag {
			return nil
		}
	}

	if len(t.tags) >= cfg.MaxTagsPerTimeline {
		return fmt.Errorf("maximum tags reached: %d", cfg.MaxTagsPerTimeline)
	}

	t.tags = append(t.tags, tag)
	t.touch()

	return nil
}

// RemoveTag removes a tag from the timeline
func (t *Timeline) RemoveTag(tag string) error {
	newTags := []string{}
	found := false

	for _, existing := range t.tags {
		if existing != tag {
			newTags = append(newTags, existing)
		} else {
			found = true
		}
	}

	if !found {
		return pkgerrors.NewNotFoundError("tag")
	}

	t.tags = newTags
	t.touch()

	return nil
}

// Tags returns a copy of the timeline's tags
func (t *Timeline) Tags() []string {
	tags := make([]string, len(t.tags))
	copy(tags, t.tags)
	return tags
}

// Metadata returns a copy of the open extension map
func (t *Timeline) Metadata() map[string]interface{} {
	meta := make(map[string]interface{}, len(t.metadata))
	for k, v := range t.metadata {
		meta[k] = v
	}
	return meta
}

// SetMetadata stores a value in the extension map
func (t *Timeline) SetMetadata(key string, value interface{}) {
	t.metadata[key] = value
	t.touch()
}

// GetUncommittedEvents returns all uncommitted domain events
func (t *Timeline) GetUncommittedEvents() []events.DomainEvent {
	return t.events
}

// MarkEventsAsCommitted clears the uncommitted events
func (t *Timeline) MarkEventsAsCommitted() {
	t.events = []events.DomainEvent{}
}

func (t *Timeline) addEvent(event events.DomainEvent) {
	t.events = append(t.events, event)
}

func (t *Timeline) touch() {
	t.updatedAt = time.Now()
	t.version++
}
