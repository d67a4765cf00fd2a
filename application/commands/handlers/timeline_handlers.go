package handlers

import (
	"context"

	"lorekeeper-backend/application/commands"
	"lorekeeper-backend/application/ports"
	"lorekeeper-backend/domain/core/entities"
	"lorekeeper-backend/domain/core/valueobjects"
	"lorekeeper-backend/domain/services"
	pkgerrors "lorekeeper-backend/pkg/errors"

	"go.uber.org/zap"
)

// CreateTimelineHandler handles the CreateTimelineCommand
type CreateTimelineHandler struct {
	timelineRepo ports.TimelineRepository
	eventBus     ports.EventBus
	logger       *zap.Logger
}

// NewCreateTimelineHandler creates a new handler instance
func NewCreateTimelineHandler(timelineRepo ports.TimelineRepository, eventBus ports.EventBus, logger *zap.Logger) *CreateTimelineHandler {
	return &CreateTimelineHandler{
		timelineRepo: timelineRepo,
		eventBus:     eventBus,
		logger:       logger,
	}
}

// Handle executes the create timeline command
func (h *CreateTimelineHandler) Handle(ctx context.Context, cmd commands.CreateTimelineCommand) (*entities.Timeline, error) {
	kind, err := entities.ParseTimelineType(cmd.Type)
	if err != nil {
		return nil, pkgerrors.NewValidationError(err.Error())
	}

	timeline, err := entities.NewTimeline(cmd.UserID, cmd.Title, kind, cmd.StartDate)
	if err != nil {
		return nil, err
	}

	if cmd.Description != "" {
		timeline.SetDescription(cmd.Description)
	}
	if cmd.EndDate != nil {
		if err := timeline.Close(*cmd.EndDate); err != nil {
			return nil, err
		}
	}

	if cmd.ParentID != "" {
		parentID, err := valueobjects.NewTimelineIDFromString(cmd.ParentID)
		if err != nil {
			return nil, pkgerrors.NewValidationError(err.Error())
		}
		if _, err := h.timelineRepo.GetByID(ctx, parentID); err != nil {
			return nil, pkgerrors.NewNotFoundError("parent timeline")
		}
		if err := timeline.Reparent(&parentID); err != nil {
			return nil, err
		}
	}

	for _, tag := range cmd.Tags {
		if err := timeline.AddTag(tag); err != nil {
			// Tag limit violations degrade to partial tagging
			continue
		}
	}

	if err := h.timelineRepo.Save(ctx, timeline); err != nil {
		return nil, err
	}

	publishAll(ctx, h.eventBus, timeline.GetUncommittedEvents(), h.logger)
	timeline.MarkEventsAsCommitted()

	h.logger.Info("timeline created",
		zap.String("timelineID", timeline.ID().String()),
		zap.String("userID", cmd.UserID),
	)

	return timeline, nil
}

// UpdateTimelineHandler handles rename and redate commands
type UpdateTimelineHandler struct {
	timelineRepo ports.TimelineRepository
	eventBus     ports.EventBus
	logger       *zap.Logger
}

// NewUpdateTimelineHandler creates a new handler instance
func NewUpdateTimelineHandler(timelineRepo ports.TimelineRepository, eventBus ports.EventBus, logger *zap.Logger) *UpdateTimelineHandler {
	return &UpdateTimelineHandler{
		timelineRepo: timelineRepo,
		eventBus:     eventBus,
		logger:       logger,
	}
}

// HandleRename executes the rename timeline command
func (h *UpdateTimelineHandler) HandleRename(ctx context.Context, cmd commands.RenameTimelineCommand) error {
	timeline, err := h.loadOwned(ctx, cmd.TimelineID, cmd.UserID)
	if err != nil {
		return err
	}

	if err := timeline.Rename(cmd.Title); err != nil {
		return err
	}

	if err := h.timelineRepo.Save(ctx, timeline); err != nil {
		return err
	}

	h.publishEvents(ctx, timeline)
	return nil
}

// HandleRedate executes the redate timeline command
func (h *UpdateTimelineHandler) HandleRedate(ctx context.Context, cmd commands.RedateTimelineCommand) error {
	timeline, err := h.loadOwned(ctx, cmd.TimelineID, cmd.UserID)
	if err != nil {
		return err
	}

	if err := timeline.Redate(cmd.StartDate, cmd.EndDate); err != nil {
		return err
	}

	if err := h.timelineRepo.Save(ctx, timeline); err != nil {
		return err
	}

	h.publishEvents(ctx, timeline)
	return nil
}

// HandleReparent executes the reparent timeline command. The move is
// rejected when the proposed parent is a descendant of the timeline,
// which would introduce a cycle into the forest.
func (h *UpdateTimelineHandler) HandleReparent(ctx context.Context, cmd commands.ReparentTimelineCommand) error {
	timeline, err := h.loadOwned(ctx, cmd.TimelineID, cmd.UserID)
	if err != nil {
		return err
	}

	if cmd.ParentID == "" {
		if err := timeline.Reparent(nil); err != nil {
			return err
		}
	} else {
		parentID, err := valueobjects.NewTimelineIDFromString(cmd.ParentID)
		if err != nil {
			return pkgerrors.NewValidationError(err.Error())
		}

		all, err := h.timelineRepo.GetByUserID(ctx, cmd.UserID)
		if err != nil {
			return err
		}

		resolver := services.NewHierarchyResolver()
		ancestors, _ := resolver.Ancestors(all, parentID)
		for _, ancestor := range ancestors {
			if ancestor.ID().Equals(timeline.ID()) {
				return pkgerrors.NewConflictError("reparenting would create a cycle in the timeline hierarchy")
			}
		}
		if parentID.Equals(timeline.ID()) {
			return pkgerrors.NewValidationError("timeline cannot be its own parent")
		}

		if err := timeline.Reparent(&parentID); err != nil {
			return err
		}
	}

	if err := h.timelineRepo.Save(ctx, timeline); err != nil {
		return err
	}

	h.publishEvents(ctx, timeline)
	return nil
}

func (h *UpdateTimelineHandler) loadOwned(ctx context.Context, timelineID, userID string) (*entities.Timeline, error) {
	id, err := valueobjects.NewTimelineIDFromString(timelineID)
	if err != nil {
		return nil, pkgerrors.NewValidationError(err.Error())
	}

	timeline, err := h.timelineRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if timeline.UserID() != userID {
		return nil, pkgerrors.NewForbiddenError("timeline belongs to another user")
	}
	return timeline, nil
}

func (h *UpdateTimelineHandler) publishEvents(ctx context.Context, timeline *entities.Timeline) {
	publishAll(ctx, h.eventBus, timeline.GetUncommittedEvents(), h.logger)
	timeline.MarkEventsAsCommitted()
}

// DeleteTimelineHandler handles the DeleteTimelineCommand
type DeleteTimelineHandler struct {
	timelineRepo ports.TimelineRepository
	logger       *zap.Logger
}

// NewDeleteTimelineHandler creates a new handler instance
func NewDeleteTimelineHandler(timelineRepo ports.TimelineRepository, logger *zap.Logger) *DeleteTimelineHandler {
	return &DeleteTimelineHandler{
		timelineRepo: timelineRepo,
		logger:       logger,
	}
}

// Handle executes the delete timeline command. Children are re-parented
// or orphaned by the backend system of record, never here.
func (h *DeleteTimelineHandler) Handle(ctx context.Context, cmd commands.DeleteTimelineCommand) error {
	id, err := valueobjects.NewTimelineIDFromString(cmd.TimelineID)
	if err != nil {
		return pkgerrors.NewValidationError(err.Error())
	}

	timeline, err := h.timelineRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if timeline.UserID() != cmd.UserID {
		return pkgerrors.NewForbiddenError("timeline belongs to another user")
	}

	if err := h.timelineRepo.Delete(ctx, id); err != nil {
		return err
	}

	h.logger.Info("timeline deleted",
		zap.String("timelineID", cmd.TimelineID),
		zap.String("userID", cmd.UserID),
	)
	return nil
}
