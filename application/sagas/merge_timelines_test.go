package sagas

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"lorekeeper-backend/domain/core/entities"
	"lorekeeper-backend/domain/core/valueobjects"
	pkgerrors "lorekeeper-backend/pkg/errors"
	"lorekeeper-backend/tests/fixtures"
	"lorekeeper-backend/tests/mocks"
)

func TestMergeTimelinesSaga_Execute(t *testing.T) {
	// Arrange
	timelineRepo := new(mocks.MockTimelineRepository)
	entryRepo := new(mocks.MockEntryRepository)
	relRepo := new(mocks.MockRelationshipRepository)
	eventBus := new(mocks.MockEventBus)
	saga := NewMergeTimelinesSaga(timelineRepo, entryRepo, relRepo, eventBus, zap.NewNop())

	source := fixtures.NewTimelineBuilder().WithUserID("user-123").WithTitle("Source").MustBuild()
	target := fixtures.NewTimelineBuilder().WithUserID("user-123").WithTitle("Target").MustBuild()

	sourceOnly := fixtures.NewEntryBuilder().WithUserID("user-123").WithMemberships(source.ID()).MustBuild()
	onBoth := fixtures.NewEntryBuilder().WithUserID("user-123").WithMemberships(source.ID(), target.ID()).MustBuild()

	timelineRepo.On("GetByID", mock.Anything, source.ID()).Return(source, nil)
	timelineRepo.On("GetByID", mock.Anything, target.ID()).Return(target, nil)
	entryRepo.On("GetByTimelineID", mock.Anything, source.ID()).
		Return([]*entities.ChronologyEntry{sourceOnly, onBoth}, nil)
	entryRepo.On("Save", mock.Anything, mock.AnythingOfType("*entities.ChronologyEntry")).Return(nil)
	relRepo.On("Save", mock.Anything, mock.AnythingOfType("*entities.TimelineRelationship")).Return(nil)
	timelineRepo.On("Delete", mock.Anything, source.ID()).Return(nil)
	eventBus.On("Publish", mock.Anything, mock.Anything).Return(nil)

	// Act
	result, err := saga.Execute(context.Background(), MergeTimelinesInput{
		UserID:   "user-123",
		SourceID: source.ID(),
		TargetID: target.ID(),
	})

	// Assert
	assert.NoError(t, err)
	assert.Equal(t, 2, result.EntriesMoved)
	assert.NotEmpty(t, result.RelationshipID)

	assert.False(t, sourceOnly.BelongsTo(source.ID()))
	assert.True(t, sourceOnly.BelongsTo(target.ID()))

	// An entry already on the target just loses the source membership.
	assert.False(t, onBoth.BelongsTo(source.ID()))
	assert.True(t, onBoth.BelongsTo(target.ID()))
	assert.Len(t, onBoth.TimelineMemberships(), 1)

	timelineRepo.AssertExpectations(t)
	relRepo.AssertExpectations(t)
	eventBus.AssertExpectations(t)
}

func TestMergeTimelinesSaga_Execute_SelfMergeRejected(t *testing.T) {
	saga := NewMergeTimelinesSaga(nil, nil, nil, nil, zap.NewNop())
	id := valueobjects.NewTimelineID()

	_, err := saga.Execute(context.Background(), MergeTimelinesInput{
		UserID:   "user-123",
		SourceID: id,
		TargetID: id,
	})

	assert.True(t, pkgerrors.IsValidation(err))
}

func TestMergeTimelinesSaga_Execute_ForeignTimelineForbidden(t *testing.T) {
	timelineRepo := new(mocks.MockTimelineRepository)
	saga := NewMergeTimelinesSaga(timelineRepo, new(mocks.MockEntryRepository), new(mocks.MockRelationshipRepository), new(mocks.MockEventBus), zap.NewNop())

	source := fixtures.NewTimelineBuilder().WithUserID("someone-else").MustBuild()
	target := fixtures.NewTimelineBuilder().WithUserID("user-123").MustBuild()
	timelineRepo.On("GetByID", mock.Anything, source.ID()).Return(source, nil)
	timelineRepo.On("GetByID", mock.Anything, target.ID()).Return(target, nil)

	_, err := saga.Execute(context.Background(), MergeTimelinesInput{
		UserID:   "user-123",
		SourceID: source.ID(),
		TargetID: target.ID(),
	})

	assert.Error(t, err)
	assert.True(t, pkgerrors.IsForbidden(err))
}

func TestMergeTimelinesSaga_Execute_MissingSource(t *testing.T) {
	timelineRepo := new(mocks.MockTimelineRepository)
	saga := NewMergeTimelinesSaga(timelineRepo, new(mocks.MockEntryRepository), new(mocks.MockRelationshipRepository), new(mocks.MockEventBus), zap.NewNop())

	sourceID := valueobjects.NewTimelineID()
	target := fixtures.NewTimelineBuilder().WithUserID("user-123").MustBuild()
	timelineRepo.On("GetByID", mock.Anything, sourceID).Return(nil, pkgerrors.NewNotFoundError("timeline"))

	_, err := saga.Execute(context.Background(), MergeTimelinesInput{
		UserID:   "user-123",
		SourceID: sourceID,
		TargetID: target.ID(),
	})

	assert.Error(t, err)
	assert.True(t, pkgerrors.IsNotFound(err))
}

func TestMergeTimelinesSaga_Execute_CompensatesOnRelationshipFailure(t *testing.T) {
	// A failure after the membership moves must put every entry back on
	// the source timeline.
	timelineRepo := new(mocks.MockTimelineRepository)
	entryRepo := new(mocks.MockEntryRepository)
	relRepo := new(mocks.MockRelationshipRepository)
	saga := NewMergeTimelinesSaga(timelineRepo, entryRepo, relRepo, new(mocks.MockEventBus), zap.NewNop())

	source := fixtures.NewTimelineBuilder().WithUserID("user-123").MustBuild()
	target := fixtures.NewTimelineBuilder().WithUserID("user-123").MustBuild()
	entry := fixtures.NewEntryBuilder().WithUserID("user-123").WithMemberships(source.ID()).MustBuild()

	timelineRepo.On("GetByID", mock.Anything, source.ID()).Return(source, nil)
	timelineRepo.On("GetByID", mock.Anything, target.ID()).Return(target, nil)
	entryRepo.On("GetByTimelineID", mock.Anything, source.ID()).
		Return([]*entities.ChronologyEntry{entry}, nil)
	entryRepo.On("Save", mock.Anything, mock.AnythingOfType("*entities.ChronologyEntry")).Return(nil)
	relRepo.On("Save", mock.Anything, mock.AnythingOfType("*entities.TimelineRelationship")).
		Return(errors.New("dynamodb write failed"))

	_, err := saga.Execute(context.Background(), MergeTimelinesInput{
		UserID:   "user-123",
		SourceID: source.ID(),
		TargetID: target.ID(),
	})

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "record-relationship")

	assert.True(t, entry.BelongsTo(source.ID()), "compensation restores the source membership")
	assert.False(t, entry.BelongsTo(target.ID()))
	timelineRepo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}
