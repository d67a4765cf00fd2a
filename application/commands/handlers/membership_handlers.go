package handlers

import (
	"context"

	"lorekeeper-backend/application/commands"
	"lorekeeper-backend/application/ports"
	"lorekeeper-backend/domain/config"
	"lorekeeper-backend/domain/core/valueobjects"
	pkgerrors "lorekeeper-backend/pkg/errors"

	"go.uber.org/zap"
)

// MembershipHandler attaches and detaches entries from timelines
type MembershipHandler struct {
	entryRepo    ports.EntryRepository
	timelineRepo ports.TimelineRepository
	eventBus     ports.EventBus
	domainCfg    *config.DomainConfig
	logger       *zap.Logger
}

// NewMembershipHandler creates a new handler instance
func NewMembershipHandler(
	entryRepo ports.EntryRepository,
	timelineRepo ports.TimelineRepository,
	eventBus ports.EventBus,
	domainCfg *config.DomainConfig,
	logger *zap.Logger,
) *MembershipHandler {
	return &MembershipHandler{
		entryRepo:    entryRepo,
		timelineRepo: timelineRepo,
		eventBus:     eventBus,
		domainCfg:    domainCfg,
		logger:       logger,
	}
}

// HandleAdd executes the add membership command
func (h *MembershipHandler) HandleAdd(ctx context.Context, cmd commands.AddMembershipCommand) error {
	entry, err := loadOwnedEntry(ctx, h.entryRepo, cmd.EntryID, cmd.UserID)
	if err != nil {
		return err
	}

	timelineID, err := valueobjects.NewTimelineIDFromString(cmd.TimelineID)
	if err != nil {
		return pkgerrors.NewValidationError(err.Error())
	}

	timeline, err := h.timelineRepo.GetByID(ctx, timelineID)
	if err != nil {
		return err
	}
	if timeline.UserID() != cmd.UserID {
		return pkgerrors.NewForbiddenError("timeline belongs to another user")
	}

	if entry.BelongsTo(timelineID) {
		return pkgerrors.NewConflictError("entry already belongs to this timeline")
	}

	if err := entry.AddToTimelineWithConfig(timelineID, h.domainCfg); err != nil {
		return err
	}

	if err := h.entryRepo.Save(ctx, entry); err != nil {
		return err
	}

	publishAll(ctx, h.eventBus, entry.GetUncommittedEvents(), h.logger)
	entry.MarkEventsAsCommitted()

	h.logger.Info("entry attached to timeline",
		zap.String("entryID", cmd.EntryID),
		zap.String("timelineID", cmd.TimelineID),
	)
	return nil
}

// HandleRemove executes the remove membership command
func (h *MembershipHandler) HandleRemove(ctx context.Context, cmd commands.RemoveMembershipCommand) error {
	entry, err := loadOwnedEntry(ctx, h.entryRepo, cmd.EntryID, cmd.UserID)
	if err != nil {
		return err
	}

	timelineID, err := valueobjects.NewTimelineIDFromString(cmd.TimelineID)
	if err != nil {
		return pkgerrors.NewValidationError(err.Error())
	}

	if err := entry.RemoveFromTimeline(timelineID); err != nil {
		return err
	}

	if err := h.entryRepo.Save(ctx, entry); err != nil {
		return err
	}

	publishAll(ctx, h.eventBus, entry.GetUncommittedEvents(), h.logger)
	entry.MarkEventsAsCommitted()
	return nil
}
