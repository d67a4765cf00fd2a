package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"lorekeeper-backend/domain/core/entities"
	"lorekeeper-backend/tests/fixtures"
	"lorekeeper-backend/tests/mocks"
)

var inferStart = time.Date(2023, time.March, 15, 12, 0, 0, 0, time.UTC)

func TestMembershipService_InferMemberships(t *testing.T) {
	t.Run("attaches the entry to a covering timeline with keyword overlap", func(t *testing.T) {
		// Arrange
		entry := fixtures.NewEntryBuilder().
			WithUserID("user-123").
			WithSpan(inferStart, inferStart.Add(2*time.Hour)).
			MustBuild()
		climbing := fixtures.NewTimelineBuilder().
			WithUserID("user-123").
			WithTitle("Climbing Obsession").
			WithStartDate(inferStart.AddDate(-1, 0, 0)).
			WithTags("outdoors").
			MustBuild()

		entryRepo := new(mocks.MockEntryRepository)
		entryRepo.On("GetByID", mock.Anything, entry.ID()).Return(entry, nil)
		entryRepo.On("Save", mock.Anything, entry).Return(nil)
		timelineRepo := new(mocks.MockTimelineRepository)
		timelineRepo.On("GetByUserID", mock.Anything, "user-123").
			Return([]*entities.Timeline{climbing}, nil)
		service := NewMembershipService(timelineRepo, entryRepo, zap.NewNop())

		// Act
		attached, err := service.InferMemberships(context.Background(), entry.ID().String(), "user-123",
			[]string{"climbing"}, []string{"outdoors"})

		// Assert
		assert.NoError(t, err)
		assert.Equal(t, []string{climbing.ID().String()}, attached)
		assert.True(t, entry.BelongsTo(climbing.ID()))
		entryRepo.AssertExpectations(t)
	})

	t.Run("skips timelines that do not cover the entry's dates", func(t *testing.T) {
		// Arrange
		entry := fixtures.NewEntryBuilder().
			WithUserID("user-123").
			WithSpan(inferStart, inferStart.Add(2*time.Hour)).
			MustBuild()
		// Closed two years before the entry; keyword overlap is perfect
		// but the span rules it out.
		past := fixtures.NewTimelineBuilder().
			WithUserID("user-123").
			WithTitle("Climbing Obsession").
			WithStartDate(inferStart.AddDate(-4, 0, 0)).
			WithEndDate(inferStart.AddDate(-2, 0, 0)).
			MustBuild()

		entryRepo := new(mocks.MockEntryRepository)
		entryRepo.On("GetByID", mock.Anything, entry.ID()).Return(entry, nil)
		timelineRepo := new(mocks.MockTimelineRepository)
		timelineRepo.On("GetByUserID", mock.Anything, "user-123").
			Return([]*entities.Timeline{past}, nil)
		service := NewMembershipService(timelineRepo, entryRepo, zap.NewNop())

		// Act
		attached, err := service.InferMemberships(context.Background(), entry.ID().String(), "user-123",
			[]string{"climbing"}, nil)

		// Assert
		assert.NoError(t, err)
		assert.Empty(t, attached)
		entryRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("ignores timelines below the score threshold", func(t *testing.T) {
		// Arrange
		entry := fixtures.NewEntryBuilder().
			WithUserID("user-123").
			WithSpan(inferStart, inferStart.Add(2*time.Hour)).
			MustBuild()
		unrelated := fixtures.NewTimelineBuilder().
			WithUserID("user-123").
			WithTitle("Sourdough Baking").
			WithStartDate(inferStart.AddDate(-1, 0, 0)).
			MustBuild()

		entryRepo := new(mocks.MockEntryRepository)
		entryRepo.On("GetByID", mock.Anything, entry.ID()).Return(entry, nil)
		timelineRepo := new(mocks.MockTimelineRepository)
		timelineRepo.On("GetByUserID", mock.Anything, "user-123").
			Return([]*entities.Timeline{unrelated}, nil)
		service := NewMembershipService(timelineRepo, entryRepo, zap.NewNop())

		// Act
		attached, err := service.InferMemberships(context.Background(), entry.ID().String(), "user-123",
			[]string{"climbing", "granite", "rope", "belay", "summit"}, nil)

		// Assert
		assert.NoError(t, err)
		assert.Empty(t, attached)
		entryRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("caps attachments at three timelines", func(t *testing.T) {
		// Arrange
		entry := fixtures.NewEntryBuilder().
			WithUserID("user-123").
			WithSpan(inferStart, inferStart.Add(2*time.Hour)).
			MustBuild()
		build := func(title string) *entities.Timeline {
			return fixtures.NewTimelineBuilder().
				WithUserID("user-123").
				WithTitle(title).
				WithStartDate(inferStart.AddDate(-1, 0, 0)).
				MustBuild()
		}
		candidates := []*entities.Timeline{
			build("Climbing Days"),
			build("Climbing Trips"),
			build("Climbing Training"),
			build("Climbing Friends"),
		}

		entryRepo := new(mocks.MockEntryRepository)
		entryRepo.On("GetByID", mock.Anything, entry.ID()).Return(entry, nil)
		entryRepo.On("Save", mock.Anything, entry).Return(nil).Once()
		timelineRepo := new(mocks.MockTimelineRepository)
		timelineRepo.On("GetByUserID", mock.Anything, "user-123").Return(candidates, nil)
		service := NewMembershipService(timelineRepo, entryRepo, zap.NewNop())

		// Act
		attached, err := service.InferMemberships(context.Background(), entry.ID().String(), "user-123",
			[]string{"climbing"}, nil)

		// Assert
		assert.NoError(t, err)
		assert.Len(t, attached, 3)
		assert.Len(t, entry.TimelineMemberships(), 3)
		entryRepo.AssertExpectations(t)
	})

	t.Run("skips timelines the entry already belongs to", func(t *testing.T) {
		// Arrange
		climbing := fixtures.NewTimelineBuilder().
			WithUserID("user-123").
			WithTitle("Climbing Obsession").
			WithStartDate(inferStart.AddDate(-1, 0, 0)).
			MustBuild()
		entry := fixtures.NewEntryBuilder().
			WithUserID("user-123").
			WithSpan(inferStart, inferStart.Add(2*time.Hour)).
			WithMemberships(climbing.ID()).
			MustBuild()

		entryRepo := new(mocks.MockEntryRepository)
		entryRepo.On("GetByID", mock.Anything, entry.ID()).Return(entry, nil)
		timelineRepo := new(mocks.MockTimelineRepository)
		timelineRepo.On("GetByUserID", mock.Anything, "user-123").
			Return([]*entities.Timeline{climbing}, nil)
		service := NewMembershipService(timelineRepo, entryRepo, zap.NewNop())

		// Act
		attached, err := service.InferMemberships(context.Background(), entry.ID().String(), "user-123",
			[]string{"climbing"}, nil)

		// Assert
		assert.NoError(t, err)
		assert.Empty(t, attached)
	})

	t.Run("rejects an entry owned by another user", func(t *testing.T) {
		// Arrange
		entry := fixtures.NewEntryBuilder().WithUserID("someone-else").MustBuild()
		entryRepo := new(mocks.MockEntryRepository)
		entryRepo.On("GetByID", mock.Anything, entry.ID()).Return(entry, nil)
		service := NewMembershipService(new(mocks.MockTimelineRepository), entryRepo, zap.NewNop())

		// Act
		_, err := service.InferMemberships(context.Background(), entry.ID().String(), "user-123",
			[]string{"climbing"}, nil)

		// Assert
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "entry not found for user")
	})

	t.Run("requires entry and user IDs", func(t *testing.T) {
		service := NewMembershipService(new(mocks.MockTimelineRepository), new(mocks.MockEntryRepository), zap.NewNop())

		_, err := service.InferMemberships(context.Background(), "", "user-123", nil, nil)
		assert.Error(t, err)

		_, err = service.InferMemberships(context.Background(), "entry-1", "", nil, nil)
		assert.Error(t, err)
	})

	t.Run("returns nothing when the user has no timelines", func(t *testing.T) {
		// Arrange
		entry := fixtures.NewEntryBuilder().WithUserID("user-123").MustBuild()
		entryRepo := new(mocks.MockEntryRepository)
		entryRepo.On("GetByID", mock.Anything, entry.ID()).Return(entry, nil)
		timelineRepo := new(mocks.MockTimelineRepository)
		timelineRepo.On("GetByUserID", mock.Anything, "user-123").
			Return([]*entities.Timeline{}, nil)
		service := NewMembershipService(timelineRepo, entryRepo, zap.NewNop())

		// Act
		attached, err := service.InferMemberships(context.Background(), entry.ID().String(), "user-123",
			[]string{"climbing"}, nil)

		// Assert
		assert.NoError(t, err)
		assert.Nil(t, attached)
	})

	t.Run("propagates repository failures", func(t *testing.T) {
		// Arrange
		entry := fixtures.NewEntryBuilder().WithUserID("user-123").MustBuild()
		entryRepo := new(mocks.MockEntryRepository)
		entryRepo.On("GetByID", mock.Anything, entry.ID()).Return(nil, errors.New("dynamo unavailable"))
		service := NewMembershipService(new(mocks.MockTimelineRepository), entryRepo, zap.NewNop())

		// Act
		_, err := service.InferMemberships(context.Background(), entry.ID().String(), "user-123", nil, nil)

		// Assert
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to get entry")
	})
}
