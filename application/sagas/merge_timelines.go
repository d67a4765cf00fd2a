package sagas

import (
	"context"
	"time"

	"go.uber.org/zap"

	"lorekeeper-backend/application/ports"
	"lorekeeper-backend/domain/core/entities"
	"lorekeeper-backend/domain/core/valueobjects"
	"lorekeeper-backend/domain/events"
	pkgerrors "lorekeeper-backend/pkg/errors"
)

// MergeTimelinesInput carries the parameters for a timeline merge
type MergeTimelinesInput struct {
	UserID   string
	SourceID valueobjects.TimelineID
	TargetID valueobjects.TimelineID
}

// MergeTimelinesResult reports the outcome of a completed merge
type MergeTimelinesResult struct {
	SourceID       valueobjects.TimelineID
	TargetID       valueobjects.TimelineID
	EntriesMoved   int
	RelationshipID string
}

// mergeState threads accumulated work through the saga steps so
// compensations can undo exactly what was done
type mergeState struct {
	input        MergeTimelinesInput
	source       *entities.Timeline
	target       *entities.Timeline
	movedEntries []*entities.ChronologyEntry
	relationship *entities.TimelineRelationship
}

// MergeTimelinesSaga folds one timeline into another: every entry that
// belongs to the source is re-homed onto the target, a merged
// relationship edge is recorded, and the source timeline is removed.
// Any failure unwinds the per-entry moves in reverse order.
type MergeTimelinesSaga struct {
	timelineRepo ports.TimelineRepository
	entryRepo    ports.EntryRepository
	relRepo      ports.RelationshipRepository
	eventBus     ports.EventBus
	logger       *zap.Logger
}

// NewMergeTimelinesSaga creates a merge saga factory
func NewMergeTimelinesSaga(
	timelineRepo ports.TimelineRepository,
	entryRepo ports.EntryRepository,
	relRepo ports.RelationshipRepository,
	eventBus ports.EventBus,
	logger *zap.Logger,
) *MergeTimelinesSaga {
	return &MergeTimelinesSaga{
		timelineRepo: timelineRepo,
		entryRepo:    entryRepo,
		relRepo:      relRepo,
		eventBus:     eventBus,
		logger:       logger,
	}
}

// Execute runs the merge for the given input
func (m *MergeTimelinesSaga) Execute(ctx context.Context, input MergeTimelinesInput) (*MergeTimelinesResult, error) {
	if input.SourceID.Equals(input.TargetID) {
		return nil, pkgerrors.NewValidationError("cannot merge a timeline into itself")
	}

	saga := NewSaga("merge-timelines", m.logger).
		AddStep(SagaStep{
			Name:    "load-timelines",
			Execute: m.loadTimelines,
		}).
		AddStep(SagaStep{
			Name:       "move-memberships",
			Execute:    m.moveMemberships,
			Compensate: m.restoreMemberships,
		}).
		AddStep(SagaStep{
			Name:       "record-relationship",
			Execute:    m.recordRelationship,
			Compensate: m.removeRelationship,
			MaxRetries: 2,
			RetryDelay: 100 * time.Millisecond,
		}).
		AddStep(SagaStep{
			Name:       "remove-source",
			Execute:    m.removeSource,
			Compensate: m.restoreSource,
			MaxRetries: 2,
			RetryDelay: 100 * time.Millisecond,
		}).
		AddStep(SagaStep{
			Name:    "publish-event",
			Execute: m.publishMerged,
		})

	result, err := saga.Execute(ctx, &mergeState{input: input})
	if err != nil {
		return nil, err
	}

	state := result.(*mergeState)
	return &MergeTimelinesResult{
		SourceID:       state.input.SourceID,
		TargetID:       state.input.TargetID,
		EntriesMoved:   len(state.movedEntries),
		RelationshipID: state.relationship.ID,
	}, nil
}

func (m *MergeTimelinesSaga) loadTimelines(ctx context.Context, data interface{}) (interface{}, error) {
	state := data.(*mergeState)

	source, err := m.timelineRepo.GetByID(ctx, state.input.SourceID)
	if err != nil {
		return nil, err
	}
	if source == nil {
		return nil, pkgerrors.NewNotFoundError("source timeline not found")
	}
	target, err := m.timelineRepo.GetByID(ctx, state.input.TargetID)
	if err != nil {
		return nil, err
	}
	if target == nil {
		return nil, pkgerrors.NewNotFoundError("target timeline not found")
	}
	if source.UserID() != state.input.UserID || target.UserID() != state.input.UserID {
		return nil, pkgerrors.NewForbiddenError("timeline does not belong to user")
	}

	state.source = source
	state.target = target
	return state, nil
}

func (m *MergeTimelinesSaga) moveMemberships(ctx context.Context, data interface{}) (interface{}, error) {
	state := data.(*mergeState)

	entries, err := m.entryRepo.GetByTimelineID(ctx, state.input.SourceID)
	if err != nil {
		return nil, err
	}

	for _, entry := range entries {
		if err := entry.RemoveFromTimeline(state.input.SourceID); err != nil {
			return nil, err
		}
		// Entries already on the target just lose the source membership
		if !entry.BelongsTo(state.input.TargetID) {
			if err := entry.AddToTimeline(state.input.TargetID); err != nil {
				return nil, err
			}
		}
		if err := m.entryRepo.Save(ctx, entry); err != nil {
			return nil, err
		}
		state.movedEntries = append(state.movedEntries, entry)
	}

	return state, nil
}

func (m *MergeTimelinesSaga) restoreMemberships(ctx context.Context, data interface{}) error {
	state := data.(*mergeState)

	for i := len(state.movedEntries) - 1; i >= 0; i-- {
		entry := state.movedEntries[i]
		if err := entry.AddToTimeline(state.input.SourceID); err != nil {
			m.logger.Error("failed to restore membership during compensation",
				zap.String("entryID", entry.ID().String()),
				zap.Error(err),
			)
			continue
		}
		_ = entry.RemoveFromTimeline(state.input.TargetID)
		if err := m.entryRepo.Save(ctx, entry); err != nil {
			return err
		}
	}
	return nil
}

func (m *MergeTimelinesSaga) recordRelationship(ctx context.Context, data interface{}) (interface{}, error) {
	state := data.(*mergeState)

	rel, err := entities.NewTimelineRelationship(state.input.SourceID, state.input.TargetID, entities.RelationshipMerged)
	if err != nil {
		return nil, err
	}
	if err := m.relRepo.Save(ctx, rel); err != nil {
		return nil, err
	}
	state.relationship = rel
	return state, nil
}

func (m *MergeTimelinesSaga) removeRelationship(ctx context.Context, data interface{}) error {
	state := data.(*mergeState)
	if state.relationship == nil {
		return nil
	}
	return m.relRepo.Delete(ctx, state.relationship.ID)
}

func (m *MergeTimelinesSaga) removeSource(ctx context.Context, data interface{}) (interface{}, error) {
	state := data.(*mergeState)
	if err := m.timelineRepo.Delete(ctx, state.input.SourceID); err != nil {
		return nil, err
	}
	return state, nil
}

func (m *MergeTimelinesSaga) restoreSource(ctx context.Context, data interface{}) error {
	state := data.(*mergeState)
	return m.timelineRepo.Save(ctx, state.source)
}

func (m *MergeTimelinesSaga) publishMerged(ctx context.Context, data interface{}) (interface{}, error) {
	state := data.(*mergeState)

	event := events.NewTimelinesMerged(state.input.SourceID, state.input.TargetID, len(state.movedEntries), time.Now())
	if err := m.eventBus.Publish(ctx, event); err != nil {
		// Merge already committed; event loss is logged, not unwound
		m.logger.Warn("failed to publish merge event",
			zap.String("sourceID", state.input.SourceID.String()),
			zap.Error(err),
		)
	}
	return state, nil
}
