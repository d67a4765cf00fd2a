package handlers

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"lorekeeper-backend/application/broadcast"
	"lorekeeper-backend/application/queries"
	"lorekeeper-backend/application/reconcile"
	"lorekeeper-backend/domain/config"
	"lorekeeper-backend/domain/core/entities"
	"lorekeeper-backend/domain/core/valueobjects"
	"lorekeeper-backend/domain/services"
	"lorekeeper-backend/tests/fixtures"
	"lorekeeper-backend/tests/mocks"
)

var readStart = time.Date(2023, time.March, 15, 12, 0, 0, 0, time.UTC)

func newTestReader(entryRepo *mocks.MockEntryRepository, synthetic *mocks.MockSyntheticDataset, syntheticOn bool) *ChronologyReader {
	toggle := broadcast.NewDataSourceBroadcaster(zap.NewNop())
	if syntheticOn {
		toggle.SetEnabled(true)
	}
	return NewChronologyReader(entryRepo, synthetic, toggle, zap.NewNop())
}

func TestChronologyReader_Load(t *testing.T) {
	t.Run("serves real entries when the toggle is off", func(t *testing.T) {
		// Arrange
		entry := fixtures.NewEntryBuilder().WithUserID("user-123").MustBuild()
		entryRepo := new(mocks.MockEntryRepository)
		entryRepo.On("GetByUserID", mock.Anything, "user-123", mock.Anything).
			Return([]*entities.ChronologyEntry{entry}, nil)
		synthetic := new(mocks.MockSyntheticDataset)
		synthetic.On("Entries", "user-123").Return(nil)
		reader := newTestReader(entryRepo, synthetic, false)

		// Act
		result, err := reader.Load(context.Background(), queries.GetChronologyQuery{UserID: "user-123"})

		// Assert
		assert.NoError(t, err)
		assert.Equal(t, reconcile.SourceReal, result.Metadata.Source)
		assert.False(t, result.Metadata.IsSynthetic)
		assert.Len(t, result.Data, 1)
		entryRepo.AssertExpectations(t)
	})

	t.Run("serves synthetic entries when the toggle is on", func(t *testing.T) {
		// Arrange
		real := fixtures.NewEntryBuilder().WithUserID("user-123").MustBuild()
		fake := fixtures.NewEntryBuilder().WithUserID("user-123").WithContent("Synthetic memory").MustBuild()
		entryRepo := new(mocks.MockEntryRepository)
		entryRepo.On("GetByUserID", mock.Anything, "user-123", mock.Anything).
			Return([]*entities.ChronologyEntry{real}, nil)
		synthetic := new(mocks.MockSyntheticDataset)
		synthetic.On("Entries", "user-123").Return([]*entities.ChronologyEntry{fake})
		reader := newTestReader(entryRepo, synthetic, true)

		// Act
		result, err := reader.Load(context.Background(), queries.GetChronologyQuery{UserID: "user-123"})

		// Assert
		assert.NoError(t, err)
		assert.Equal(t, reconcile.SourceSynthetic, result.Metadata.Source)
		assert.True(t, result.Metadata.IsSynthetic)
		assert.Len(t, result.Data, 1)
		assert.Equal(t, "Synthetic memory", result.Data[0].Content())
	})

	t.Run("propagates fetch errors when the toggle is off", func(t *testing.T) {
		// Arrange
		entryRepo := new(mocks.MockEntryRepository)
		entryRepo.On("GetByUserID", mock.Anything, "user-123", mock.Anything).
			Return(nil, errors.New("dynamo unavailable"))
		synthetic := new(mocks.MockSyntheticDataset)
		synthetic.On("Entries", "user-123").Return(nil)
		reader := newTestReader(entryRepo, synthetic, false)

		// Act
		_, err := reader.Load(context.Background(), queries.GetChronologyQuery{UserID: "user-123"})

		// Assert
		assert.Error(t, err)
	})

	t.Run("falls back to synthetic when the toggle is on and the fetch fails", func(t *testing.T) {
		// Arrange
		fake := fixtures.NewEntryBuilder().WithUserID("user-123").MustBuild()
		entryRepo := new(mocks.MockEntryRepository)
		entryRepo.On("GetByUserID", mock.Anything, "user-123", mock.Anything).
			Return(nil, errors.New("dynamo unavailable"))
		synthetic := new(mocks.MockSyntheticDataset)
		synthetic.On("Entries", "user-123").Return([]*entities.ChronologyEntry{fake})
		reader := newTestReader(entryRepo, synthetic, true)

		// Act
		result, err := reader.Load(context.Background(), queries.GetChronologyQuery{UserID: "user-123"})

		// Assert
		assert.NoError(t, err)
		assert.Equal(t, reconcile.SourceSynthetic, result.Metadata.Source)
		assert.Len(t, result.Data, 1)
	})

	t.Run("narrows by timeline membership", func(t *testing.T) {
		// Arrange
		timelineID := valueobjects.NewTimelineID()
		member := fixtures.NewEntryBuilder().WithUserID("user-123").WithMemberships(timelineID).MustBuild()
		stray := fixtures.NewEntryBuilder().WithUserID("user-123").MustBuild()
		entryRepo := new(mocks.MockEntryRepository)
		entryRepo.On("GetByTimelineID", mock.Anything, timelineID).
			Return([]*entities.ChronologyEntry{member, stray}, nil)
		synthetic := new(mocks.MockSyntheticDataset)
		synthetic.On("Entries", "user-123").Return(nil)
		reader := newTestReader(entryRepo, synthetic, false)

		// Act
		result, err := reader.Load(context.Background(), queries.GetChronologyQuery{
			UserID:     "user-123",
			TimelineID: timelineID.String(),
		})

		// Assert
		assert.NoError(t, err)
		assert.Len(t, result.Data, 1)
		assert.True(t, result.Data[0].ID().Equals(member.ID()))
	})

	t.Run("rejects a malformed timeline ID", func(t *testing.T) {
		reader := newTestReader(new(mocks.MockEntryRepository), new(mocks.MockSyntheticDataset), false)

		_, err := reader.Load(context.Background(), queries.GetChronologyQuery{
			UserID:     "user-123",
			TimelineID: "not-a-uuid",
		})

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "invalid timeline ID")
	})
}

func TestEntryMatches(t *testing.T) {
	base := fixtures.NewEntryBuilder().
		WithUserID("user-123").
		WithSpan(readStart, readStart.Add(2*time.Hour)).
		WithContent("Hiked the volcano trail #travel").
		MustBuild()

	t.Run("excludes archived entries unless requested", func(t *testing.T) {
		archived := fixtures.NewEntryBuilder().WithUserID("user-123").Archived().MustBuild()

		assert.False(t, entryMatches(archived, queries.GetChronologyQuery{UserID: "user-123"}))
		assert.True(t, entryMatches(archived, queries.GetChronologyQuery{UserID: "user-123", IncludeArchived: true}))
	})

	t.Run("applies the date window to the raw span", func(t *testing.T) {
		before := readStart.Add(-24 * time.Hour)
		after := readStart.Add(48 * time.Hour)

		assert.True(t, entryMatches(base, queries.GetChronologyQuery{UserID: "user-123", Start: &before, End: &after}))
		assert.False(t, entryMatches(base, queries.GetChronologyQuery{UserID: "user-123", Start: &after}))
		assert.False(t, entryMatches(base, queries.GetChronologyQuery{UserID: "user-123", End: &before}))
	})

	t.Run("matches text search case-insensitively", func(t *testing.T) {
		assert.True(t, entryMatches(base, queries.GetChronologyQuery{UserID: "user-123", Search: "VOLCANO"}))
		assert.False(t, entryMatches(base, queries.GetChronologyQuery{UserID: "user-123", Search: "beach"}))
	})

	t.Run("matches hashtags embedded in content", func(t *testing.T) {
		assert.True(t, entryMatches(base, queries.GetChronologyQuery{UserID: "user-123", Tags: []string{"travel"}}))
		assert.False(t, entryMatches(base, queries.GetChronologyQuery{UserID: "user-123", Tags: []string{"work"}}))
	})

	t.Run("rejects nil entries", func(t *testing.T) {
		assert.False(t, entryMatches(nil, queries.GetChronologyQuery{UserID: "user-123"}))
	})
}

func TestGetChronologyHandler_Handle(t *testing.T) {
	cfg := config.DefaultDomainConfig()

	t.Run("returns entry views with provenance", func(t *testing.T) {
		// Arrange
		entry := fixtures.NewEntryBuilder().WithUserID("user-123").MustBuild()
		entryRepo := new(mocks.MockEntryRepository)
		entryRepo.On("GetByUserID", mock.Anything, "user-123", mock.Anything).
			Return([]*entities.ChronologyEntry{entry}, nil)
		synthetic := new(mocks.MockSyntheticDataset)
		synthetic.On("Entries", "user-123").Return(nil)
		handler := NewGetChronologyHandler(newTestReader(entryRepo, synthetic, false), cfg, zap.NewNop())

		// Act
		result, err := handler.Handle(context.Background(), queries.GetChronologyQuery{UserID: "user-123"})

		// Assert
		assert.NoError(t, err)
		assert.Len(t, result.Entries, 1)
		assert.Equal(t, entry.ID().String(), result.Entries[0].ID)
		assert.Equal(t, "real", result.Provenance.Source)
		assert.True(t, result.CacheOK())
	})

	t.Run("rejects a query without a user", func(t *testing.T) {
		handler := NewGetChronologyHandler(newTestReader(new(mocks.MockEntryRepository), new(mocks.MockSyntheticDataset), false), cfg, zap.NewNop())

		_, err := handler.Handle(context.Background(), queries.GetChronologyQuery{})

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "invalid query")
	})

	t.Run("truncates to the requested limit", func(t *testing.T) {
		// Arrange
		entries := []*entities.ChronologyEntry{
			fixtures.NewEntryBuilder().WithUserID("user-123").MustBuild(),
			fixtures.NewEntryBuilder().WithUserID("user-123").MustBuild(),
			fixtures.NewEntryBuilder().WithUserID("user-123").MustBuild(),
		}
		entryRepo := new(mocks.MockEntryRepository)
		entryRepo.On("GetByUserID", mock.Anything, "user-123", mock.Anything).Return(entries, nil)
		synthetic := new(mocks.MockSyntheticDataset)
		synthetic.On("Entries", "user-123").Return(nil)
		handler := NewGetChronologyHandler(newTestReader(entryRepo, synthetic, false), cfg, zap.NewNop())

		// Act
		result, err := handler.Handle(context.Background(), queries.GetChronologyQuery{UserID: "user-123", Limit: 2})

		// Assert
		assert.NoError(t, err)
		assert.Len(t, result.Entries, 2)
	})

	t.Run("synthetic results are never cacheable", func(t *testing.T) {
		// Arrange
		fake := fixtures.NewEntryBuilder().WithUserID("user-123").MustBuild()
		entryRepo := new(mocks.MockEntryRepository)
		entryRepo.On("GetByUserID", mock.Anything, "user-123", mock.Anything).Return(nil, nil)
		synthetic := new(mocks.MockSyntheticDataset)
		synthetic.On("Entries", "user-123").Return([]*entities.ChronologyEntry{fake})
		handler := NewGetChronologyHandler(newTestReader(entryRepo, synthetic, true), cfg, zap.NewNop())

		// Act
		result, err := handler.Handle(context.Background(), queries.GetChronologyQuery{UserID: "user-123"})

		// Assert
		assert.NoError(t, err)
		assert.False(t, result.CacheOK())
	})
}

func TestScanOverlapsHandler_Handle(t *testing.T) {
	cfg := config.DefaultDomainConfig()

	t.Run("reports intersecting entry pairs", func(t *testing.T) {
		// Arrange
		first := fixtures.NewEntryBuilder().
			WithUserID("user-123").
			WithSpan(readStart, readStart.Add(48*time.Hour)).
			MustBuild()
		second := fixtures.NewEntryBuilder().
			WithUserID("user-123").
			WithSpan(readStart.Add(24*time.Hour), readStart.Add(72*time.Hour)).
			MustBuild()
		entryRepo := new(mocks.MockEntryRepository)
		entryRepo.On("GetByUserID", mock.Anything, "user-123", mock.Anything).
			Return([]*entities.ChronologyEntry{first, second}, nil)
		synthetic := new(mocks.MockSyntheticDataset)
		synthetic.On("Entries", "user-123").Return(nil)
		handler := NewScanOverlapsHandler(
			newTestReader(entryRepo, synthetic, false),
			services.NewIntervalComparator(cfg),
			zap.NewNop(),
		)

		// Act
		result, err := handler.Handle(context.Background(), queries.ScanOverlapsQuery{UserID: "user-123"})

		// Assert
		assert.NoError(t, err)
		assert.Len(t, result.Overlaps, 1)
		assert.Equal(t, first.ID().String(), result.Overlaps[0].Entry1ID)
		assert.Equal(t, second.ID().String(), result.Overlaps[0].Entry2ID)
	})

	t.Run("rejects a query without a user", func(t *testing.T) {
		handler := NewScanOverlapsHandler(
			newTestReader(new(mocks.MockEntryRepository), new(mocks.MockSyntheticDataset), false),
			services.NewIntervalComparator(cfg),
			zap.NewNop(),
		)

		_, err := handler.Handle(context.Background(), queries.ScanOverlapsQuery{})

		assert.Error(t, err)
	})
}

func TestGetConstraintsHandler_Handle(t *testing.T) {
	cfg := config.DefaultDomainConfig()

	t.Run("flags memberships pointing at missing timelines", func(t *testing.T) {
		// Arrange
		ghost := valueobjects.NewTimelineID()
		entry := fixtures.NewEntryBuilder().WithUserID("user-123").WithMemberships(ghost).MustBuild()
		entryRepo := new(mocks.MockEntryRepository)
		entryRepo.On("GetByUserID", mock.Anything, "user-123", mock.Anything).
			Return([]*entities.ChronologyEntry{entry}, nil)
		timelineRepo := new(mocks.MockTimelineRepository)
		timelineRepo.On("GetByUserID", mock.Anything, "user-123").
			Return([]*entities.Timeline{}, nil)
		synthetic := new(mocks.MockSyntheticDataset)
		synthetic.On("Entries", "user-123").Return(nil)
		synthetic.On("Timelines", "user-123").Return(nil)
		toggle := broadcast.NewDataSourceBroadcaster(zap.NewNop())
		handler := NewGetConstraintsHandler(
			NewChronologyReader(entryRepo, synthetic, toggle, zap.NewNop()),
			timelineRepo,
			synthetic,
			toggle,
			services.NewIntervalComparator(cfg),
			services.NewHierarchyResolver(),
			zap.NewNop(),
		)

		// Act
		result, err := handler.Handle(context.Background(), queries.GetConstraintsQuery{UserID: "user-123"})

		// Assert
		assert.NoError(t, err)
		assert.Len(t, result.Constraints, 1)
		assert.Equal(t, "contradiction", result.Constraints[0].Type)
		assert.Equal(t, "error", result.Constraints[0].Severity)
		assert.Contains(t, result.Constraints[0].TimelineIDs, ghost.String())
	})

	t.Run("returns no findings for a consistent chronology", func(t *testing.T) {
		// Arrange
		timeline := fixtures.NewTimelineBuilder().
			WithUserID("user-123").
			WithStartDate(readStart.AddDate(-1, 0, 0)).
			MustBuild()
		entry := fixtures.NewEntryBuilder().
			WithUserID("user-123").
			WithMemberships(timeline.ID()).
			MustBuild()
		entryRepo := new(mocks.MockEntryRepository)
		entryRepo.On("GetByUserID", mock.Anything, "user-123", mock.Anything).
			Return([]*entities.ChronologyEntry{entry}, nil)
		timelineRepo := new(mocks.MockTimelineRepository)
		timelineRepo.On("GetByUserID", mock.Anything, "user-123").
			Return([]*entities.Timeline{timeline}, nil)
		synthetic := new(mocks.MockSyntheticDataset)
		synthetic.On("Entries", "user-123").Return(nil)
		synthetic.On("Timelines", "user-123").Return(nil)
		toggle := broadcast.NewDataSourceBroadcaster(zap.NewNop())
		handler := NewGetConstraintsHandler(
			NewChronologyReader(entryRepo, synthetic, toggle, zap.NewNop()),
			timelineRepo,
			synthetic,
			toggle,
			services.NewIntervalComparator(cfg),
			services.NewHierarchyResolver(),
			zap.NewNop(),
		)

		// Act
		result, err := handler.Handle(context.Background(), queries.GetConstraintsQuery{UserID: "user-123"})

		// Assert
		assert.NoError(t, err)
		assert.Empty(t, result.Constraints)
	})
}

func TestGetAnalyticsHandler_Handle(t *testing.T) {
	cfg := config.DefaultDomainConfig()

	t.Run("derives clusters from the chronology", func(t *testing.T) {
		// Arrange
		near1 := fixtures.NewEntryBuilder().WithUserID("user-123").WithInstant(readStart).MustBuild()
		near2 := fixtures.NewEntryBuilder().WithUserID("user-123").WithInstant(readStart.AddDate(0, 0, 3)).MustBuild()
		far := fixtures.NewEntryBuilder().WithUserID("user-123").WithInstant(readStart.AddDate(0, 2, 0)).MustBuild()
		entryRepo := new(mocks.MockEntryRepository)
		entryRepo.On("GetByUserID", mock.Anything, "user-123", mock.Anything).
			Return([]*entities.ChronologyEntry{near1, near2, far}, nil)
		synthetic := new(mocks.MockSyntheticDataset)
		synthetic.On("Entries", "user-123").Return(nil)
		comparator := services.NewIntervalComparator(cfg)
		handler := NewGetAnalyticsHandler(
			newTestReader(entryRepo, synthetic, false),
			services.NewChronologyAnalyzer(cfg, comparator),
			zap.NewNop(),
		)

		// Act
		result, err := handler.Handle(context.Background(), queries.GetAnalyticsQuery{UserID: "user-123"})

		// Assert
		assert.NoError(t, err)
		assert.Equal(t, 3, result.EntryCount)
		assert.Len(t, result.Clusters, 2)
		assert.Equal(t, "real", result.Provenance.Source)
	})

	t.Run("rejects a query without a user", func(t *testing.T) {
		handler := NewGetAnalyticsHandler(
			newTestReader(new(mocks.MockEntryRepository), new(mocks.MockSyntheticDataset), false),
			services.NewChronologyAnalyzer(cfg, services.NewIntervalComparator(cfg)),
			zap.NewNop(),
		)

		_, err := handler.Handle(context.Background(), queries.GetAnalyticsQuery{})

		assert.Error(t, err)
	})
}
