package handlers

import (
	"context"
	"time"

	"lorekeeper-backend/application/commands"
	"lorekeeper-backend/application/ports"
	"lorekeeper-backend/domain/core/entities"
	"lorekeeper-backend/domain/core/valueobjects"
	"lorekeeper-backend/domain/events"
	pkgerrors "lorekeeper-backend/pkg/errors"

	"go.uber.org/zap"
)

// CreateEntryHandler handles the CreateEntryCommand
type CreateEntryHandler struct {
	entryRepo    ports.EntryRepository
	timelineRepo ports.TimelineRepository
	eventBus     ports.EventBus
	logger       *zap.Logger
}

// NewCreateEntryHandler creates a new handler instance
func NewCreateEntryHandler(entryRepo ports.EntryRepository, timelineRepo ports.TimelineRepository, eventBus ports.EventBus, logger *zap.Logger) *CreateEntryHandler {
	return &CreateEntryHandler{
		entryRepo:    entryRepo,
		timelineRepo: timelineRepo,
		eventBus:     eventBus,
		logger:       logger,
	}
}

// Handle executes the create entry command
func (h *CreateEntryHandler) Handle(ctx context.Context, cmd commands.CreateEntryCommand) (*entities.ChronologyEntry, error) {
	span, precision, confidence, err := temporalFields(cmd.StartTime, cmd.EndTime, cmd.Precision, cmd.Confidence)
	if err != nil {
		return nil, err
	}

	entry, err := entities.NewChronologyEntry(cmd.UserID, cmd.JournalEntryID, cmd.Content, span, precision, confidence)
	if err != nil {
		return nil, err
	}

	for _, rawID := range cmd.TimelineIDs {
		timelineID, err := valueobjects.NewTimelineIDFromString(rawID)
		if err != nil {
			return nil, pkgerrors.NewValidationError(err.Error())
		}
		if _, err := h.timelineRepo.GetByID(ctx, timelineID); err != nil {
			return nil, pkgerrors.NewNotFoundError("timeline")
		}
		if err := entry.AddToTimeline(timelineID); err != nil {
			return nil, err
		}
	}

	if err := h.entryRepo.Save(ctx, entry); err != nil {
		return nil, err
	}

	publishAll(ctx, h.eventBus, entry.GetUncommittedEvents(), h.logger)
	entry.MarkEventsAsCommitted()

	h.logger.Info("chronology entry created",
		zap.String("entryID", entry.ID().String()),
		zap.String("userID", cmd.UserID),
		zap.String("precision", string(precision)),
	)

	return entry, nil
}

// RelocateEntryHandler handles the RelocateEntryCommand
type RelocateEntryHandler struct {
	entryRepo ports.EntryRepository
	eventBus  ports.EventBus
	logger    *zap.Logger
}

// NewRelocateEntryHandler creates a new handler instance
func NewRelocateEntryHandler(entryRepo ports.EntryRepository, eventBus ports.EventBus, logger *zap.Logger) *RelocateEntryHandler {
	return &RelocateEntryHandler{
		entryRepo: entryRepo,
		eventBus:  eventBus,
		logger:    logger,
	}
}

// Handle executes the relocate entry command
func (h *RelocateEntryHandler) Handle(ctx context.Context, cmd commands.RelocateEntryCommand) error {
	entry, err := loadOwnedEntry(ctx, h.entryRepo, cmd.EntryID, cmd.UserID)
	if err != nil {
		return err
	}

	span, precision, confidence, err := temporalFields(cmd.StartTime, cmd.EndTime, cmd.Precision, cmd.Confidence)
	if err != nil {
		return err
	}

	if err := entry.Relocate(span, precision, confidence); err != nil {
		return err
	}

	if err := h.entryRepo.Save(ctx, entry); err != nil {
		return err
	}

	publishAll(ctx, h.eventBus, entry.GetUncommittedEvents(), h.logger)
	entry.MarkEventsAsCommitted()
	return nil
}

// ArchiveEntryHandler handles archive and correct commands
type ArchiveEntryHandler struct {
	entryRepo ports.EntryRepository
	eventBus  ports.EventBus
	logger    *zap.Logger
}

// NewArchiveEntryHandler creates a new handler instance
func NewArchiveEntryHandler(entryRepo ports.EntryRepository, eventBus ports.EventBus, logger *zap.Logger) *ArchiveEntryHandler {
	return &ArchiveEntryHandler{
		entryRepo: entryRepo,
		eventBus:  eventBus,
		logger:    logger,
	}
}

// Handle executes the archive entry command
func (h *ArchiveEntryHandler) Handle(ctx context.Context, cmd commands.ArchiveEntryCommand) error {
	entry, err := loadOwnedEntry(ctx, h.entryRepo, cmd.EntryID, cmd.UserID)
	if err != nil {
		return err
	}

	if err := entry.Archive(); err != nil {
		return err
	}

	if err := h.entryRepo.Save(ctx, entry); err != nil {
		return err
	}

	publishAll(ctx, h.eventBus, entry.GetUncommittedEvents(), h.logger)
	entry.MarkEventsAsCommitted()
	return nil
}

// HandleCorrect archives the original entry and persists its replacement
func (h *ArchiveEntryHandler) HandleCorrect(ctx context.Context, cmd commands.CorrectEntryCommand) (*entities.ChronologyEntry, error) {
	entry, err := loadOwnedEntry(ctx, h.entryRepo, cmd.EntryID, cmd.UserID)
	if err != nil {
		return nil, err
	}

	span, precision, confidence, err := temporalFields(cmd.StartTime, cmd.EndTime, cmd.Precision, cmd.Confidence)
	if err != nil {
		return nil, err
	}

	replacement, err := entry.Correct(span, precision, confidence, cmd.Content)
	if err != nil {
		return nil, err
	}

	if err := h.entryRepo.Save(ctx, entry); err != nil {
		return nil, err
	}
	if err := h.entryRepo.Save(ctx, replacement); err != nil {
		return nil, err
	}

	publishAll(ctx, h.eventBus, entry.GetUncommittedEvents(), h.logger)
	entry.MarkEventsAsCommitted()
	publishAll(ctx, h.eventBus, replacement.GetUncommittedEvents(), h.logger)
	replacement.MarkEventsAsCommitted()

	h.logger.Info("chronology entry corrected",
		zap.String("originalID", cmd.EntryID),
		zap.String("replacementID", replacement.ID().String()),
	)

	return replacement, nil
}

// temporalFields converts raw command fields into temporal value objects
func temporalFields(start time.Time, end *time.Time, rawPrecision string, rawConfidence float64) (valueobjects.TimeSpan, valueobjects.TimePrecision, valueobjects.Confidence, error) {
	endTime := start
	if end != nil {
		endTime = *end
	}

	span, err := valueobjects.NewTimeSpan(start, endTime)
	if err != nil {
		return valueobjects.TimeSpan{}, "", valueobjects.Confidence{}, pkgerrors.NewValidationError(err.Error())
	}

	precision, err := valueobjects.ParseTimePrecision(rawPrecision)
	if err != nil {
		return valueobjects.TimeSpan{}, "", valueobjects.Confidence{}, pkgerrors.NewValidationError(err.Error())
	}

	confidence, err := valueobjects.NewConfidence(rawConfidence)
	if err != nil {
		return valueobjects.TimeSpan{}, "", valueobjects.Confidence{}, pkgerrors.NewValidationError(err.Error())
	}

	return span, precision, confidence, nil
}

func loadOwnedEntry(ctx context.Context, repo ports.EntryRepository, entryID, userID string) (*entities.ChronologyEntry, error) {
	id, err := valueobjects.NewEntryIDFromString(entryID)
	if err != nil {
		return nil, pkgerrors.NewValidationError(err.Error())
	}

	entry, err := repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if entry.UserID() != userID {
		return nil, pkgerrors.NewForbiddenError("entry belongs to another user")
	}
	return entry, nil
}

func publishAll(ctx context.Context, bus ports.EventBus, domainEvents []events.DomainEvent, logger *zap.Logger) {
	if bus == nil || len(domainEvents) == 0 {
		return
	}
	if err := bus.PublishBatch(ctx, domainEvents); err != nil {
		logger.Warn("failed to publish domain events", zap.Error(err))
	}
}
