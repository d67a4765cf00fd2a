// Package mocks provides testify mocks for the application ports.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"lorekeeper-backend/application/ports"
	"lorekeeper-backend/domain/core/entities"
	"lorekeeper-backend/domain/core/valueobjects"
	"lorekeeper-backend/domain/events"
)

// MockTimelineRepository is a mock implementation of ports.TimelineRepository
type MockTimelineRepository struct {
	mock.Mock
}

func (m *MockTimelineRepository) Save(ctx context.Context, timeline *entities.Timeline) error {
	args := m.Called(ctx, timeline)
	return args.Error(0)
}

func (m *MockTimelineRepository) GetByID(ctx context.Context, id valueobjects.TimelineID) (*entities.Timeline, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Timeline), args.Error(1)
}

func (m *MockTimelineRepository) GetByUserID(ctx context.Context, userID string) ([]*entities.Timeline, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Timeline), args.Error(1)
}

func (m *MockTimelineRepository) Delete(ctx context.Context, id valueobjects.TimelineID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockEntryRepository is a mock implementation of ports.EntryRepository
type MockEntryRepository struct {
	mock.Mock
}

func (m *MockEntryRepository) Save(ctx context.Context, entry *entities.ChronologyEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockEntryRepository) GetByID(ctx context.Context, id valueobjects.EntryID) (*entities.ChronologyEntry, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.ChronologyEntry), args.Error(1)
}

func (m *MockEntryRepository) GetByUserID(ctx context.Context, userID string, filter ports.EntryFilter) ([]*entities.ChronologyEntry, error) {
	args := m.Called(ctx, userID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.ChronologyEntry), args.Error(1)
}

func (m *MockEntryRepository) GetByTimelineID(ctx context.Context, timelineID valueobjects.TimelineID) ([]*entities.ChronologyEntry, error) {
	args := m.Called(ctx, timelineID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.ChronologyEntry), args.Error(1)
}

func (m *MockEntryRepository) Delete(ctx context.Context, id valueobjects.EntryID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockRelationshipRepository is a mock implementation of ports.RelationshipRepository
type MockRelationshipRepository struct {
	mock.Mock
}

func (m *MockRelationshipRepository) Save(ctx context.Context, rel *entities.TimelineRelationship) error {
	args := m.Called(ctx, rel)
	return args.Error(0)
}

func (m *MockRelationshipRepository) GetByTimelineID(ctx context.Context, id valueobjects.TimelineID) ([]*entities.TimelineRelationship, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.TimelineRelationship), args.Error(1)
}

func (m *MockRelationshipRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockQuestRepository is a mock implementation of ports.QuestRepository
type MockQuestRepository struct {
	mock.Mock
}

func (m *MockQuestRepository) Save(ctx context.Context, quest *entities.Quest) error {
	args := m.Called(ctx, quest)
	return args.Error(0)
}

func (m *MockQuestRepository) GetByUserID(ctx context.Context, userID string) ([]*entities.Quest, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Quest), args.Error(1)
}

func (m *MockQuestRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockReviewRepository is a mock implementation of ports.ReviewRepository
type MockReviewRepository struct {
	mock.Mock
}

func (m *MockReviewRepository) Save(ctx context.Context, proposal *entities.ReviewProposal) error {
	args := m.Called(ctx, proposal)
	return args.Error(0)
}

func (m *MockReviewRepository) GetByUserID(ctx context.Context, userID string) ([]*entities.ReviewProposal, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.ReviewProposal), args.Error(1)
}

func (m *MockReviewRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockEventBus is a mock implementation of ports.EventBus
type MockEventBus struct {
	mock.Mock
}

func (m *MockEventBus) Publish(ctx context.Context, event events.DomainEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockEventBus) PublishBatch(ctx context.Context, batch []events.DomainEvent) error {
	args := m.Called(ctx, batch)
	return args.Error(0)
}

// MockEventStore is a mock implementation of ports.EventStore
type MockEventStore struct {
	mock.Mock
}

func (m *MockEventStore) SaveEvents(ctx context.Context, batch []events.DomainEvent) error {
	args := m.Called(ctx, batch)
	return args.Error(0)
}

func (m *MockEventStore) GetEvents(ctx context.Context, aggregateID string) ([]events.DomainEvent, error) {
	args := m.Called(ctx, aggregateID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]events.DomainEvent), args.Error(1)
}

// MockSyntheticDataset is a mock implementation of ports.SyntheticDataset
type MockSyntheticDataset struct {
	mock.Mock
}

func (m *MockSyntheticDataset) Timelines(userID string) []*entities.Timeline {
	args := m.Called(userID)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]*entities.Timeline)
}

func (m *MockSyntheticDataset) Entries(userID string) []*entities.ChronologyEntry {
	args := m.Called(userID)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]*entities.ChronologyEntry)
}

func (m *MockSyntheticDataset) Quests(userID string) []*entities.Quest {
	args := m.Called(userID)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]*entities.Quest)
}

func (m *MockSyntheticDataset) Proposals(userID string) []*entities.ReviewProposal {
	args := m.Called(userID)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]*entities.ReviewProposal)
}

// MockCache is a mock implementation of ports.Cache
type MockCache struct {
	mock.Mock
}

func (m *MockCache) Get(ctx context.Context, key string) (interface{}, bool) {
	args := m.Called(ctx, key)
	return args.Get(0), args.Bool(1)
}

func (m *MockCache) Set(ctx context.Context, key string, value interface{}, ttl int) error {
	args := m.Called(ctx, key, value, ttl)
	return args.Error(0)
}

func (m *MockCache) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *MockCache) Clear(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// MockPushNotifier is a mock implementation of ports.PushNotifier
type MockPushNotifier struct {
	mock.Mock
}

func (m *MockPushNotifier) NotifyAll(ctx context.Context, payload interface{}) error {
	args := m.Called(ctx, payload)
	return args.Error(0)
}
