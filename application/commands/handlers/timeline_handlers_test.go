package handlers

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"lorekeeper-backend/application/commands"
	"lorekeeper-backend/domain/core/entities"
	pkgerrors "lorekeeper-backend/pkg/errors"
	"lorekeeper-backend/tests/fixtures"
	"lorekeeper-backend/tests/mocks"
)

var cmdStart = time.Date(2019, time.September, 1, 0, 0, 0, 0, time.UTC)

func TestCreateTimelineHandler_Handle(t *testing.T) {
	t.Run("creates and saves timeline", func(t *testing.T) {
		// Arrange
		timelineRepo := new(mocks.MockTimelineRepository)
		eventBus := new(mocks.MockEventBus)
		handler := NewCreateTimelineHandler(timelineRepo, eventBus, zap.NewNop())

		timelineRepo.On("Save", mock.Anything, mock.AnythingOfType("*entities.Timeline")).Return(nil)
		eventBus.On("PublishBatch", mock.Anything, mock.Anything).Return(nil)

		cmd := commands.CreateTimelineCommand{
			UserID:    "user-123",
			Title:     "College Years",
			Type:      "life_era",
			StartDate: cmdStart,
			Tags:      []string{"education"},
		}

		// Act
		timeline, err := handler.Handle(context.Background(), cmd)

		// Assert
		assert.NoError(t, err)
		assert.Equal(t, "College Years", timeline.Title())
		assert.Equal(t, entities.TimelineTypeLifeEra, timeline.Type())
		assert.Equal(t, []string{"education"}, timeline.Tags())
		assert.Empty(t, timeline.GetUncommittedEvents(), "events are published and committed")
		timelineRepo.AssertExpectations(t)
		eventBus.AssertExpectations(t)
	})

	t.Run("unknown type rejected", func(t *testing.T) {
		handler := NewCreateTimelineHandler(new(mocks.MockTimelineRepository), nil, zap.NewNop())

		_, err := handler.Handle(context.Background(), commands.CreateTimelineCommand{
			UserID:    "user-123",
			Title:     "Title",
			Type:      "epoch",
			StartDate: cmdStart,
		})

		assert.True(t, pkgerrors.IsValidation(err))
	})

	t.Run("missing parent rejected", func(t *testing.T) {
		timelineRepo := new(mocks.MockTimelineRepository)
		handler := NewCreateTimelineHandler(timelineRepo, nil, zap.NewNop())

		parent := fixtures.NewTimelineBuilder().MustBuild()
		timelineRepo.On("GetByID", mock.Anything, parent.ID()).Return(nil, pkgerrors.NewNotFoundError("timeline"))

		_, err := handler.Handle(context.Background(), commands.CreateTimelineCommand{
			UserID:    "user-123",
			Title:     "Child",
			StartDate: cmdStart,
			ParentID:  parent.ID().String(),
		})

		assert.True(t, pkgerrors.IsNotFound(err))
		timelineRepo.AssertExpectations(t)
	})

	t.Run("existing parent attached", func(t *testing.T) {
		timelineRepo := new(mocks.MockTimelineRepository)
		handler := NewCreateTimelineHandler(timelineRepo, nil, zap.NewNop())

		parent := fixtures.NewTimelineBuilder().WithUserID("user-123").MustBuild()
		timelineRepo.On("GetByID", mock.Anything, parent.ID()).Return(parent, nil)
		timelineRepo.On("Save", mock.Anything, mock.AnythingOfType("*entities.Timeline")).Return(nil)

		timeline, err := handler.Handle(context.Background(), commands.CreateTimelineCommand{
			UserID:    "user-123",
			Title:     "Child",
			StartDate: cmdStart,
			ParentID:  parent.ID().String(),
		})

		assert.NoError(t, err)
		assert.True(t, timeline.ParentID().Equals(parent.ID()))
	})
}

func TestUpdateTimelineHandler_HandleRename(t *testing.T) {
	t.Run("renames owned timeline", func(t *testing.T) {
		timelineRepo := new(mocks.MockTimelineRepository)
		handler := NewUpdateTimelineHandler(timelineRepo, nil, zap.NewNop())

		timeline := fixtures.NewTimelineBuilder().WithUserID("user-123").WithTitle("Old").MustBuild()
		timelineRepo.On("GetByID", mock.Anything, timeline.ID()).Return(timeline, nil)
		timelineRepo.On("Save", mock.Anything, timeline).Return(nil)

		err := handler.HandleRename(context.Background(), commands.RenameTimelineCommand{
			UserID:     "user-123",
			TimelineID: timeline.ID().String(),
			Title:      "New",
		})

		assert.NoError(t, err)
		assert.Equal(t, "New", timeline.Title())
		timelineRepo.AssertExpectations(t)
	})

	t.Run("foreign timeline forbidden", func(t *testing.T) {
		timelineRepo := new(mocks.MockTimelineRepository)
		handler := NewUpdateTimelineHandler(timelineRepo, nil, zap.NewNop())

		timeline := fixtures.NewTimelineBuilder().WithUserID("someone-else").MustBuild()
		timelineRepo.On("GetByID", mock.Anything, timeline.ID()).Return(timeline, nil)

		err := handler.HandleRename(context.Background(), commands.RenameTimelineCommand{
			UserID:     "user-123",
			TimelineID: timeline.ID().String(),
			Title:      "New",
		})

		assert.True(t, pkgerrors.IsForbidden(err))
		timelineRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("invalid id rejected", func(t *testing.T) {
		handler := NewUpdateTimelineHandler(new(mocks.MockTimelineRepository), nil, zap.NewNop())

		err := handler.HandleRename(context.Background(), commands.RenameTimelineCommand{
			UserID:     "user-123",
			TimelineID: "not-a-uuid",
			Title:      "New",
		})

		assert.True(t, pkgerrors.IsValidation(err))
	})
}

func TestUpdateTimelineHandler_HandleRedate(t *testing.T) {
	timelineRepo := new(mocks.MockTimelineRepository)
	handler := NewUpdateTimelineHandler(timelineRepo, nil, zap.NewNop())

	timeline := fixtures.NewTimelineBuilder().WithUserID("user-123").MustBuild()
	timelineRepo.On("GetByID", mock.Anything, timeline.ID()).Return(timeline, nil)
	timelineRepo.On("Save", mock.Anything, timeline).Return(nil)

	newStart := cmdStart.AddDate(1, 0, 0)
	err := handler.HandleRedate(context.Background(), commands.RedateTimelineCommand{
		UserID:     "user-123",
		TimelineID: timeline.ID().String(),
		StartDate:  newStart,
	})

	assert.NoError(t, err)
	assert.Equal(t, newStart, timeline.StartDate())
}

func TestUpdateTimelineHandler_HandleReparent(t *testing.T) {
	t.Run("rejects move under own descendant", func(t *testing.T) {
		timelineRepo := new(mocks.MockTimelineRepository)
		handler := NewUpdateTimelineHandler(timelineRepo, nil, zap.NewNop())

		root := fixtures.NewTimelineBuilder().WithUserID("user-123").MustBuild()
		child := fixtures.NewTimelineBuilder().WithUserID("user-123").WithParent(root.ID()).MustBuild()

		timelineRepo.On("GetByID", mock.Anything, root.ID()).Return(root, nil)
		timelineRepo.On("GetByUserID", mock.Anything, "user-123").Return([]*entities.Timeline{root, child}, nil)

		err := handler.HandleReparent(context.Background(), commands.ReparentTimelineCommand{
			UserID:     "user-123",
			TimelineID: root.ID().String(),
			ParentID:   child.ID().String(),
		})

		assert.True(t, pkgerrors.IsConflict(err))
		timelineRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("detaches to root with empty parent", func(t *testing.T) {
		timelineRepo := new(mocks.MockTimelineRepository)
		handler := NewUpdateTimelineHandler(timelineRepo, nil, zap.NewNop())

		root := fixtures.NewTimelineBuilder().WithUserID("user-123").MustBuild()
		child := fixtures.NewTimelineBuilder().WithUserID("user-123").WithParent(root.ID()).MustBuild()

		timelineRepo.On("GetByID", mock.Anything, child.ID()).Return(child, nil)
		timelineRepo.On("Save", mock.Anything, child).Return(nil)

		err := handler.HandleReparent(context.Background(), commands.ReparentTimelineCommand{
			UserID:     "user-123",
			TimelineID: child.ID().String(),
		})

		assert.NoError(t, err)
		assert.Nil(t, child.ParentID())
	})
}

func TestDeleteTimelineHandler_Handle(t *testing.T) {
	t.Run("deletes owned timeline", func(t *testing.T) {
		timelineRepo := new(mocks.MockTimelineRepository)
		handler := NewDeleteTimelineHandler(timelineRepo, zap.NewNop())

		timeline := fixtures.NewTimelineBuilder().WithUserID("user-123").MustBuild()
		timelineRepo.On("GetByID", mock.Anything, timeline.ID()).Return(timeline, nil)
		timelineRepo.On("Delete", mock.Anything, timeline.ID()).Return(nil)

		err := handler.Handle(context.Background(), commands.DeleteTimelineCommand{
			UserID:     "user-123",
			TimelineID: timeline.ID().String(),
		})

		assert.NoError(t, err)
		timelineRepo.AssertExpectations(t)
	})

	t.Run("foreign timeline forbidden", func(t *testing.T) {
		timelineRepo := new(mocks.MockTimelineRepository)
		handler := NewDeleteTimelineHandler(timelineRepo, zap.NewNop())

		timeline := fixtures.NewTimelineBuilder().WithUserID("someone-else").MustBuild()
		timelineRepo.On("GetByID", mock.Anything, timeline.ID()).Return(timeline, nil)

		err := handler.Handle(context.Background(), commands.DeleteTimelineCommand{
			UserID:     "user-123",
			TimelineID: timeline.ID().String(),
		})

		assert.True(t, pkgerrors.IsForbidden(err))
		timelineRepo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	})
}
