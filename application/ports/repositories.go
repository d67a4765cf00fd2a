package ports

import (
	"context"
	"time"

	"lorekeeper-backend/domain/core/entities"
	"lorekeeper-backend/domain/core/valueobjects"
	"lorekeeper-backend/domain/events"
)

// TimelineRepository defines the interface for timeline persistence
// This is a port in hexagonal architecture - the domain doesn't know about the implementation
type TimelineRepository interface {
	// Save persists a timeline (create or update)
	Save(ctx context.Context, timeline *entities.Timeline) error

	// GetByID retrieves a timeline by its ID
	GetByID(ctx context.Context, id valueobjects.TimelineID) (*entities.Timeline, error)

	// GetByUserID retrieves all timelines for a user
	GetByUserID(ctx context.Context, userID string) ([]*entities.Timeline, error)

	// Delete removes a timeline; children are re-parented by the backend,
	// never by this layer
	Delete(ctx context.Context, id valueobjects.TimelineID) error
}

// EntryRepository defines the interface for chronology entry persistence
type EntryRepository interface {
	// Save persists an entry (create or update)
	Save(ctx context.Context, entry *entities.ChronologyEntry) error

	// GetByID retrieves an entry by its ID
	GetByID(ctx context.Context, id valueobjects.EntryID) (*entities.ChronologyEntry, error)

	// GetByUserID retrieves entries for a user matching the filter
	GetByUserID(ctx context.Context, userID string, filter EntryFilter) ([]*entities.ChronologyEntry, error)

	// GetByTimelineID retrieves entries that are members of a timeline
	GetByTimelineID(ctx context.Context, timelineID valueobjects.TimelineID) ([]*entities.ChronologyEntry, error)

	// Delete removes an entry
	Delete(ctx context.Context, id valueobjects.EntryID) error
}

// EntryFilter narrows entry queries. Filters are applied uniformly after
// reconciliation as well; this repository-level form only bounds the fetch.
type EntryFilter struct {
	Start           *time.Time
	End             *time.Time
	Tags            []string
	Search          string
	IncludeArchived bool
	Limit           int
}

// RelationshipRepository persists directed edges between timelines
type RelationshipRepository interface {
	// Save persists a relationship
	Save(ctx context.Context, rel *entities.TimelineRelationship) error

	// GetByTimelineID retrieves relationships touching a timeline, in
	// either direction
	GetByTimelineID(ctx context.Context, id valueobjects.TimelineID) ([]*entities.TimelineRelationship, error)

	// Delete removes a relationship
	Delete(ctx context.Context, id string) error
}

// QuestRepository persists quests
type QuestRepository interface {
	Save(ctx context.Context, quest *entities.Quest) error
	GetByUserID(ctx context.Context, userID string) ([]*entities.Quest, error)
	Delete(ctx context.Context, id string) error
}

// ReviewRepository persists memory-review proposals
type ReviewRepository interface {
	Save(ctx context.Context, proposal *entities.ReviewProposal) error
	GetByUserID(ctx context.Context, userID string) ([]*entities.ReviewProposal, error)
	Delete(ctx context.Context, id string) error
}

// SyntheticDataset produces deterministic demo datasets, used only as
// fallback content when the synthetic toggle is on. Generators take no
// external input and are invoked lazily.
type SyntheticDataset interface {
	Timelines(userID string) []*entities.Timeline
	Entries(userID string) []*entities.ChronologyEntry
	Quests(userID string) []*entities.Quest
	Proposals(userID string) []*entities.ReviewProposal
}

// EventStore defines the interface for domain event persistence
type EventStore interface {
	// SaveEvents persists domain events
	SaveEvents(ctx context.Context, events []events.DomainEvent) error

	// GetEvents retrieves events for an aggregate
	GetEvents(ctx context.Context, aggregateID string) ([]events.DomainEvent, error)
}

// EventPublisher defines the interface for publishing domain events
type EventPublisher interface {
	// Publish sends a single event
	Publish(ctx context.Context, event events.DomainEvent) error

	// PublishBatch sends multiple events
	PublishBatch(ctx context.Context, events []events.DomainEvent) error
}

// EventBus defines the interface for publishing domain events
type EventBus interface {
	EventPublisher
}

// Cache defines the interface for caching
type Cache interface {
	// Get retrieves a value from cache
	Get(ctx context.Context, key string) (interface{}, bool)

	// Set stores a value in cache with TTL in seconds
	Set(ctx context.Context, key string, value interface{}, ttl int) error

	// Delete removes a value from cache
	Delete(ctx context.Context, key string) error

	// Clear removes all values from cache
	Clear(ctx context.Context) error
}

// PushNotifier pushes backend-originated notifications to connected
// browser sessions
type PushNotifier interface {
	// NotifyAll sends a payload to every live connection
	NotifyAll(ctx context.Context, payload interface{}) error
}
