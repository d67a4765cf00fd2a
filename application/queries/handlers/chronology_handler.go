package handlers

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"lorekeeper-backend/application/broadcast"
	"lorekeeper-backend/application/ports"
	"lorekeeper-backend/application/queries"
	"lorekeeper-backend/application/reconcile"
	"lorekeeper-backend/domain/config"
	"lorekeeper-backend/domain/core/entities"
	"lorekeeper-backend/domain/core/valueobjects"
	"lorekeeper-backend/domain/services"
)

// ChronologyReader loads a user's entries through the reconciliation
// layer. The synthetic toggle is read once per load, at decision time;
// filters apply uniformly to whichever source won.
type ChronologyReader struct {
	entryRepo ports.EntryRepository
	synthetic ports.SyntheticDataset
	toggle    *broadcast.DataSourceBroadcaster
	logger    *zap.Logger
}

// NewChronologyReader creates a reader over the reconciliation layer
func NewChronologyReader(
	entryRepo ports.EntryRepository,
	synthetic ports.SyntheticDataset,
	toggle *broadcast.DataSourceBroadcaster,
	logger *zap.Logger,
) *ChronologyReader {
	return &ChronologyReader{
		entryRepo: entryRepo,
		synthetic: synthetic,
		toggle:    toggle,
		logger:    logger,
	}
}

// Load fetches and reconciles entries for the query
func (r *ChronologyReader) Load(ctx context.Context, q queries.GetChronologyQuery) (reconcile.Result[*entities.ChronologyEntry], error) {
	var real []*entities.ChronologyEntry
	var fetchErr error

	if q.TimelineID != "" {
		timelineID, err := valueobjects.NewTimelineIDFromString(q.TimelineID)
		if err != nil {
			return reconcile.Result[*entities.ChronologyEntry]{}, fmt.Errorf("invalid timeline ID: %w", err)
		}
		real, fetchErr = r.entryRepo.GetByTimelineID(ctx, timelineID)
	} else {
		real, fetchErr = r.entryRepo.GetByUserID(ctx, q.UserID, ports.EntryFilter{
			Start:           q.Start,
			End:             q.End,
			Tags:            q.Tags,
			Search:          q.Search,
			IncludeArchived: q.IncludeArchived,
			Limit:           q.Limit,
		})
	}

	if fetchErr != nil {
		r.logger.Warn("entry fetch failed",
			zap.String("userID", q.UserID),
			zap.Error(fetchErr),
		)
	}

	result, err := reconcile.ReconcileFetch(real, fetchErr, r.synthetic.Entries(q.UserID), r.toggle.Enabled())
	if err != nil {
		return result, err
	}

	// The repository already narrowed the real fetch; filtering again
	// keeps real and synthetic data under the same predicate.
	return reconcile.Filter(result, func(entry *entities.ChronologyEntry) bool {
		return entryMatches(entry, q)
	}), nil
}

func entryMatches(entry *entities.ChronologyEntry, q queries.GetChronologyQuery) bool {
	if entry == nil {
		return false
	}
	if !q.IncludeArchived && entry.IsArchived() {
		return false
	}
	if q.TimelineID != "" {
		timelineID, err := valueobjects.NewTimelineIDFromString(q.TimelineID)
		if err != nil || !entry.BelongsTo(timelineID) {
			return false
		}
	}
	if q.Start != nil && entry.Span().End().Before(*q.Start) {
		return false
	}
	if q.End != nil && entry.Span().Start().After(*q.End) {
		return false
	}
	if q.Search != "" && !strings.Contains(strings.ToLower(entry.Content()), strings.ToLower(q.Search)) {
		return false
	}
	for _, tag := range q.Tags {
		if !strings.Contains(strings.ToLower(entry.Content()), strings.ToLower("#"+tag)) {
			return false
		}
	}
	return true
}

// GetChronologyHandler handles chronology listing queries
type GetChronologyHandler struct {
	reader *ChronologyReader
	cfg    *config.DomainConfig
	logger *zap.Logger
}

// NewGetChronologyHandler creates a new handler instance
func NewGetChronologyHandler(reader *ChronologyReader, cfg *config.DomainConfig, logger *zap.Logger) *GetChronologyHandler {
	return &GetChronologyHandler{reader: reader, cfg: cfg, logger: logger}
}

// Handle executes the chronology query
func (h *GetChronologyHandler) Handle(ctx context.Context, query queries.GetChronologyQuery) (*queries.GetChronologyResult, error) {
	if err := query.Validate(); err != nil {
		return nil, fmt.Errorf("invalid query: %w", err)
	}

	result, err := h.reader.Load(ctx, query)
	if err != nil {
		return nil, err
	}

	views := make([]queries.EntryView, 0, len(result.Data))
	for _, entry := range result.Data {
		views = append(views, toEntryView(entry, h.cfg))
	}
	if query.Limit > 0 && len(views) > query.Limit {
		views = views[:query.Limit]
	}

	return &queries.GetChronologyResult{
		Entries:    views,
		Provenance: toProvenance(result.Metadata),
	}, nil
}

// ScanOverlapsHandler handles overlap scan queries
type ScanOverlapsHandler struct {
	reader     *ChronologyReader
	comparator *services.IntervalComparator
	logger     *zap.Logger
}

// NewScanOverlapsHandler creates a new handler instance
func NewScanOverlapsHandler(reader *ChronologyReader, comparator *services.IntervalComparator, logger *zap.Logger) *ScanOverlapsHandler {
	return &ScanOverlapsHandler{reader: reader, comparator: comparator, logger: logger}
}

// Handle executes the overlap scan
func (h *ScanOverlapsHandler) Handle(ctx context.Context, query queries.ScanOverlapsQuery) (*queries.ScanOverlapsResult, error) {
	if err := query.Validate(); err != nil {
		return nil, fmt.Errorf("invalid query: %w", err)
	}

	result, err := h.reader.Load(ctx, queries.GetChronologyQuery{
		UserID:     query.UserID,
		TimelineID: query.TimelineID,
		Start:      query.Start,
		End:        query.End,
	})
	if err != nil {
		return nil, err
	}

	overlaps, constraints := h.comparator.ScanOverlaps(result.Data)

	return &queries.ScanOverlapsResult{
		Overlaps:    toOverlapViews(overlaps),
		Constraints: toConstraintViews(constraints),
		Provenance:  toProvenance(result.Metadata),
	}, nil
}

// GetConstraintsHandler runs the full consistency sweep: overlap scan,
// membership checks and hierarchy validation
type GetConstraintsHandler struct {
	reader       *ChronologyReader
	timelineRepo ports.TimelineRepository
	synthetic    ports.SyntheticDataset
	toggle       *broadcast.DataSourceBroadcaster
	comparator   *services.IntervalComparator
	resolver     *services.HierarchyResolver
	logger       *zap.Logger
}

// NewGetConstraintsHandler creates a new handler instance
func NewGetConstraintsHandler(
	reader *ChronologyReader,
	timelineRepo ports.TimelineRepository,
	synthetic ports.SyntheticDataset,
	toggle *broadcast.DataSourceBroadcaster,
	comparator *services.IntervalComparator,
	resolver *services.HierarchyResolver,
	logger *zap.Logger,
) *GetConstraintsHandler {
	return &GetConstraintsHandler{
		reader:       reader,
		timelineRepo: timelineRepo,
		synthetic:    synthetic,
		toggle:       toggle,
		comparator:   comparator,
		resolver:     resolver,
		logger:       logger,
	}
}

// Handle executes the constraints query
func (h *GetConstraintsHandler) Handle(ctx context.Context, query queries.GetConstraintsQuery) (*queries.GetConstraintsResult, error) {
	if err := query.Validate(); err != nil {
		return nil, fmt.Errorf("invalid query: %w", err)
	}

	entryResult, err := h.reader.Load(ctx, queries.GetChronologyQuery{UserID: query.UserID, IncludeArchived: false})
	if err != nil {
		return nil, err
	}

	timelines, fetchErr := h.timelineRepo.GetByUserID(ctx, query.UserID)
	timelineResult, err := reconcile.ReconcileFetch(timelines, fetchErr, h.synthetic.Timelines(query.UserID), h.toggle.Enabled())
	if err != nil {
		return nil, err
	}

	var all []services.ChronologyConstraint
	_, scanConstraints := h.comparator.ScanOverlaps(entryResult.Data)
	all = append(all, scanConstraints...)
	all = append(all, h.comparator.CheckMemberships(entryResult.Data, timelineResult.Data)...)
	all = append(all, h.resolver.Validate(timelineResult.Data)...)

	return &queries.GetConstraintsResult{
		Constraints: toConstraintViews(all),
		Provenance:  toProvenance(entryResult.Metadata),
	}, nil
}

// GetAnalyticsHandler derives the analytics report
type GetAnalyticsHandler struct {
	reader   *ChronologyReader
	analyzer *services.ChronologyAnalyzer
	logger   *zap.Logger
}

// NewGetAnalyticsHandler creates a new handler instance
func NewGetAnalyticsHandler(reader *ChronologyReader, analyzer *services.ChronologyAnalyzer, logger *zap.Logger) *GetAnalyticsHandler {
	return &GetAnalyticsHandler{reader: reader, analyzer: analyzer, logger: logger}
}

// Handle executes the analytics query
func (h *GetAnalyticsHandler) Handle(ctx context.Context, query queries.GetAnalyticsQuery) (*queries.GetAnalyticsResult, error) {
	if err := query.Validate(); err != nil {
		return nil, fmt.Errorf("invalid query: %w", err)
	}

	result, err := h.reader.Load(ctx, queries.GetChronologyQuery{UserID: query.UserID})
	if err != nil {
		return nil, err
	}

	report := h.analyzer.Analyze(result.Data)

	clusters := make([]queries.ClusterView, 0, len(report.Clusters))
	for _, c := range report.Clusters {
		clusters = append(clusters, queries.ClusterView{Label: c.Label, EntryIDs: c.EntryIDs})
	}

	return &queries.GetAnalyticsResult{
		EntryCount:  len(result.Data),
		Clusters:    clusters,
		Overlaps:    toOverlapViews(report.Overlaps),
		Constraints: toConstraintViews(report.Constraints),
		Provenance:  toProvenance(result.Metadata),
	}, nil
}
