package handlers

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"lorekeeper-backend/application/broadcast"
	"lorekeeper-backend/application/ports"
	"lorekeeper-backend/application/queries"
	"lorekeeper-backend/application/reconcile"
	"lorekeeper-backend/domain/core/entities"
	"lorekeeper-backend/domain/core/valueobjects"
	"lorekeeper-backend/domain/services"
	pkgerrors "lorekeeper-backend/pkg/errors"
)

// TimelineReader loads a user's timelines through the reconciliation layer
type TimelineReader struct {
	timelineRepo ports.TimelineRepository
	synthetic    ports.SyntheticDataset
	toggle       *broadcast.DataSourceBroadcaster
	logger       *zap.Logger
}

// NewTimelineReader creates a reader over the reconciliation layer
func NewTimelineReader(
	timelineRepo ports.TimelineRepository,
	synthetic ports.SyntheticDataset,
	toggle *broadcast.DataSourceBroadcaster,
	logger *zap.Logger,
) *TimelineReader {
	return &TimelineReader{
		timelineRepo: timelineRepo,
		synthetic:    synthetic,
		toggle:       toggle,
		logger:       logger,
	}
}

// Load fetches and reconciles the user's timelines
func (r *TimelineReader) Load(ctx context.Context, userID string) (reconcile.Result[*entities.Timeline], error) {
	real, fetchErr := r.timelineRepo.GetByUserID(ctx, userID)
	if fetchErr != nil {
		r.logger.Warn("timeline fetch failed",
			zap.String("userID", userID),
			zap.Error(fetchErr),
		)
	}
	return reconcile.ReconcileFetch(real, fetchErr, r.synthetic.Timelines(userID), r.toggle.Enabled())
}

// ListTimelinesHandler handles timeline listing queries
type ListTimelinesHandler struct {
	reader *TimelineReader
	logger *zap.Logger
}

// NewListTimelinesHandler creates a new handler instance
func NewListTimelinesHandler(reader *TimelineReader, logger *zap.Logger) *ListTimelinesHandler {
	return &ListTimelinesHandler{reader: reader, logger: logger}
}

// Handle executes the list timelines query
func (h *ListTimelinesHandler) Handle(ctx context.Context, query queries.ListTimelinesQuery) (*queries.ListTimelinesResult, error) {
	if err := query.Validate(); err != nil {
		return nil, fmt.Errorf("invalid query: %w", err)
	}

	result, err := h.reader.Load(ctx, query.UserID)
	if err != nil {
		return nil, err
	}

	views := make([]queries.TimelineView, 0, len(result.Data))
	for _, timeline := range result.Data {
		views = append(views, toTimelineView(timeline))
	}

	return &queries.ListTimelinesResult{
		Timelines:  views,
		Provenance: toProvenance(result.Metadata),
	}, nil
}

// GetTimelineHandler handles single-timeline queries
type GetTimelineHandler struct {
	reader  *TimelineReader
	relRepo ports.RelationshipRepository
	logger  *zap.Logger
}

// NewGetTimelineHandler creates a new handler instance
func NewGetTimelineHandler(reader *TimelineReader, relRepo ports.RelationshipRepository, logger *zap.Logger) *GetTimelineHandler {
	return &GetTimelineHandler{reader: reader, relRepo: relRepo, logger: logger}
}

// Handle executes the get timeline query
func (h *GetTimelineHandler) Handle(ctx context.Context, query queries.GetTimelineQuery) (*queries.GetTimelineResult, error) {
	if err := query.Validate(); err != nil {
		return nil, fmt.Errorf("invalid query: %w", err)
	}

	id, err := valueobjects.NewTimelineIDFromString(query.TimelineID)
	if err != nil {
		return nil, pkgerrors.NewValidationError(err.Error())
	}

	result, err := h.reader.Load(ctx, query.UserID)
	if err != nil {
		return nil, err
	}

	var found *entities.Timeline
	for _, timeline := range result.Data {
		if timeline.ID().Equals(id) {
			found = timeline
			break
		}
	}
	if found == nil {
		return nil, pkgerrors.NewNotFoundError("timeline")
	}

	relViews := []queries.RelationshipView{}
	if !result.Metadata.IsSynthetic {
		rels, err := h.relRepo.GetByTimelineID(ctx, id)
		if err != nil {
			h.logger.Warn("relationship fetch failed",
				zap.String("timelineID", query.TimelineID),
				zap.Error(err),
			)
		}
		for _, rel := range rels {
			relViews = append(relViews, toRelationshipView(rel))
		}
	}

	return &queries.GetTimelineResult{
		Timeline:      toTimelineView(found),
		Relationships: relViews,
		Provenance:    toProvenance(result.Metadata),
	}, nil
}

func toRelationshipView(rel *entities.TimelineRelationship) queries.RelationshipView {
	return queries.RelationshipView{
		ID:        rel.ID,
		SourceID:  rel.SourceID.String(),
		TargetID:  rel.TargetID.String(),
		Type:      string(rel.Type),
		CreatedAt: rel.CreatedAt.Format(time.RFC3339),
	}
}

// GetTimelineTreeHandler resolves the parent/child forest
type GetTimelineTreeHandler struct {
	reader   *TimelineReader
	resolver *services.HierarchyResolver
	logger   *zap.Logger
}

// NewGetTimelineTreeHandler creates a new handler instance
func NewGetTimelineTreeHandler(reader *TimelineReader, resolver *services.HierarchyResolver, logger *zap.Logger) *GetTimelineTreeHandler {
	return &GetTimelineTreeHandler{reader: reader, resolver: resolver, logger: logger}
}

// Handle executes the timeline tree query
func (h *GetTimelineTreeHandler) Handle(ctx context.Context, query queries.GetTimelineTreeQuery) (*queries.GetTimelineTreeResult, error) {
	if err := query.Validate(); err != nil {
		return nil, fmt.Errorf("invalid query: %w", err)
	}

	result, err := h.reader.Load(ctx, query.UserID)
	if err != nil {
		return nil, err
	}

	var roots []*entities.Timeline
	if query.RootID != "" {
		rootID, err := valueobjects.NewTimelineIDFromString(query.RootID)
		if err != nil {
			return nil, pkgerrors.NewValidationError(err.Error())
		}
		root := findByID(result.Data, rootID)
		if root == nil {
			return nil, pkgerrors.NewNotFoundError("timeline")
		}
		roots = []*entities.Timeline{root}
	} else {
		roots = h.resolver.Roots(result.Data)
	}

	var allConstraints []services.ChronologyConstraint
	rootViews := make([]queries.TreeNodeView, 0, len(roots))
	for _, root := range roots {
		node, constraints := h.resolver.Expand(result.Data, root.ID())
		allConstraints = append(allConstraints, constraints...)
		if node != nil {
			rootViews = append(rootViews, toTreeNodeView(node))
		}
	}

	return &queries.GetTimelineTreeResult{
		Roots:       rootViews,
		Constraints: toConstraintViews(allConstraints),
		Provenance:  toProvenance(result.Metadata),
	}, nil
}

func toTreeNodeView(node *services.TimelineNode) queries.TreeNodeView {
	children := make([]queries.TreeNodeView, 0, len(node.Children))
	for _, child := range node.Children {
		children = append(children, toTreeNodeView(child))
	}
	return queries.TreeNodeView{
		Timeline: toTimelineView(node.Timeline),
		Children: children,
	}
}

func findByID(timelines []*entities.Timeline, id valueobjects.TimelineID) *entities.Timeline {
	for _, timeline := range timelines {
		if timeline.ID().Equals(id) {
			return timeline
		}
	}
	return nil
}

// GetAncestorsHandler lists a timeline's ancestor chain
type GetAncestorsHandler struct {
	reader   *TimelineReader
	resolver *services.HierarchyResolver
	logger   *zap.Logger
}

// NewGetAncestorsHandler creates a new handler instance
func NewGetAncestorsHandler(reader *TimelineReader, resolver *services.HierarchyResolver, logger *zap.Logger) *GetAncestorsHandler {
	return &GetAncestorsHandler{reader: reader, resolver: resolver, logger: logger}
}

// Handle executes the ancestors query
func (h *GetAncestorsHandler) Handle(ctx context.Context, query queries.GetAncestorsQuery) (*queries.GetAncestorsResult, error) {
	if err := query.Validate(); err != nil {
		return nil, fmt.Errorf("invalid query: %w", err)
	}

	id, err := valueobjects.NewTimelineIDFromString(query.TimelineID)
	if err != nil {
		return nil, pkgerrors.NewValidationError(err.Error())
	}

	result, err := h.reader.Load(ctx, query.UserID)
	if err != nil {
		return nil, err
	}
	if findByID(result.Data, id) == nil {
		return nil, pkgerrors.NewNotFoundError("timeline")
	}

	ancestors, constraints := h.resolver.Ancestors(result.Data, id)
	views := make([]queries.TimelineView, 0, len(ancestors))
	for _, ancestor := range ancestors {
		views = append(views, toTimelineView(ancestor))
	}

	return &queries.GetAncestorsResult{
		Ancestors:   views,
		Constraints: toConstraintViews(constraints),
		Provenance:  toProvenance(result.Metadata),
	}, nil
}

// RecommendedTimelinesHandler ranks timelines for quick placement
type RecommendedTimelinesHandler struct {
	reader   *TimelineReader
	resolver *services.HierarchyResolver
	logger   *zap.Logger
}

// NewRecommendedTimelinesHandler creates a new handler instance
func NewRecommendedTimelinesHandler(reader *TimelineReader, resolver *services.HierarchyResolver, logger *zap.Logger) *RecommendedTimelinesHandler {
	return &RecommendedTimelinesHandler{reader: reader, resolver: resolver, logger: logger}
}

// Handle executes the recommended timelines query
func (h *RecommendedTimelinesHandler) Handle(ctx context.Context, query queries.RecommendedTimelinesQuery) (*queries.RecommendedTimelinesResult, error) {
	if err := query.Validate(); err != nil {
		return nil, fmt.Errorf("invalid query: %w", err)
	}

	result, err := h.reader.Load(ctx, query.UserID)
	if err != nil {
		return nil, err
	}

	limit := query.Limit
	if limit == 0 {
		limit = 5
	}
	ranked := h.resolver.Recommended(result.Data, limit)

	views := make([]queries.TimelineView, 0, len(ranked))
	for _, timeline := range ranked {
		views = append(views, toTimelineView(timeline))
	}

	return &queries.RecommendedTimelinesResult{
		Timelines:  views,
		Provenance: toProvenance(result.Metadata),
	}, nil
}
