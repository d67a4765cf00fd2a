package handlers

import (
	"context"
	"fmt"
	"time"

	"lorekeeper-backend/application/commands"
	"lorekeeper-backend/application/ports"
	"lorekeeper-backend/application/sagas"
	"lorekeeper-backend/domain/core/entities"
	"lorekeeper-backend/domain/core/valueobjects"
	pkgerrors "lorekeeper-backend/pkg/errors"

	"go.uber.org/zap"
)

const mergeLockDuration = 30 * time.Second

// MergeTimelinesHandler handles the MergeTimelinesCommand by running the
// merge saga under a distributed lock on the source timeline
type MergeTimelinesHandler struct {
	saga   *sagas.MergeTimelinesSaga
	lock   ports.DistributedLock
	logger *zap.Logger
}

// NewMergeTimelinesHandler creates a new handler instance
func NewMergeTimelinesHandler(saga *sagas.MergeTimelinesSaga, lock ports.DistributedLock, logger *zap.Logger) *MergeTimelinesHandler {
	return &MergeTimelinesHandler{
		saga:   saga,
		lock:   lock,
		logger: logger,
	}
}

// Handle executes the merge timelines command
func (h *MergeTimelinesHandler) Handle(ctx context.Context, cmd commands.MergeTimelinesCommand) (*sagas.MergeTimelinesResult, error) {
	sourceID, err := valueobjects.NewTimelineIDFromString(cmd.SourceID)
	if err != nil {
		return nil, pkgerrors.NewValidationError(err.Error())
	}
	targetID, err := valueobjects.NewTimelineIDFromString(cmd.TargetID)
	if err != nil {
		return nil, pkgerrors.NewValidationError(err.Error())
	}

	resource := fmt.Sprintf("merge-timeline-%s", cmd.SourceID)
	lock, err := h.lock.AcquireLock(ctx, resource, cmd.UserID, mergeLockDuration)
	if err != nil {
		return nil, pkgerrors.NewConflictError("timeline is already being merged")
	}
	defer func() {
		if err := lock.Release(ctx); err != nil {
			h.logger.Warn("failed to release merge lock",
				zap.String("resource", resource),
				zap.Error(err),
			)
		}
	}()

	result, err := h.saga.Execute(ctx, sagas.MergeTimelinesInput{
		UserID:   cmd.UserID,
		SourceID: sourceID,
		TargetID: targetID,
	})
	if err != nil {
		return nil, err
	}

	h.logger.Info("merged timelines",
		zap.String("sourceID", cmd.SourceID),
		zap.String("targetID", cmd.TargetID),
		zap.Int("entriesMoved", result.EntriesMoved),
	)
	return result, nil
}

// CreateRelationshipHandler handles the CreateRelationshipCommand
type CreateRelationshipHandler struct {
	timelineRepo ports.TimelineRepository
	relRepo      ports.RelationshipRepository
	logger       *zap.Logger
}

// NewCreateRelationshipHandler creates a new handler instance
func NewCreateRelationshipHandler(timelineRepo ports.TimelineRepository, relRepo ports.RelationshipRepository, logger *zap.Logger) *CreateRelationshipHandler {
	return &CreateRelationshipHandler{
		timelineRepo: timelineRepo,
		relRepo:      relRepo,
		logger:       logger,
	}
}

// Handle executes the create relationship command
func (h *CreateRelationshipHandler) Handle(ctx context.Context, cmd commands.CreateRelationshipCommand) (*entities.TimelineRelationship, error) {
	sourceID, err := valueobjects.NewTimelineIDFromString(cmd.SourceID)
	if err != nil {
		return nil, pkgerrors.NewValidationError(err.Error())
	}
	targetID, err := valueobjects.NewTimelineIDFromString(cmd.TargetID)
	if err != nil {
		return nil, pkgerrors.NewValidationError(err.Error())
	}

	for _, id := range []valueobjects.TimelineID{sourceID, targetID} {
		timeline, err := h.timelineRepo.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if timeline.UserID() != cmd.UserID {
			return nil, pkgerrors.NewForbiddenError("timeline belongs to another user")
		}
	}

	relType, err := entities.ParseRelationshipType(cmd.Type)
	if err != nil {
		return nil, pkgerrors.NewValidationError(err.Error())
	}

	rel, err := entities.NewTimelineRelationship(sourceID, targetID, relType)
	if err != nil {
		return nil, err
	}
	if err := h.relRepo.Save(ctx, rel); err != nil {
		return nil, err
	}
	return rel, nil
}
