package entities

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"lorekeeper-backend/domain/config"
	"lorekeeper-backend/domain/core/valueobjects"
	pkgerrors "lorekeeper-backend/pkg/errors"
)

func testSpan(t *testing.T) valueobjects.TimeSpan {
	t.Helper()
	start := time.Date(2023, time.March, 15, 12, 0, 0, 0, time.UTC)
	span, err := valueobjects.NewTimeSpan(start, start.Add(2*time.Hour))
	assert.NoError(t, err)
	return span
}

func TestNewChronologyEntry(t *testing.T) {
	t.Run("valid entry", func(t *testing.T) {
		entry, err := NewChronologyEntry(
			"user-123", "journal-456", "Moved into the new apartment",
			testSpan(t), valueobjects.PrecisionDay, valueobjects.FullConfidence(),
		)

		assert.NoError(t, err)
		assert.Equal(t, "user-123", entry.UserID())
		assert.Equal(t, "journal-456", entry.JournalEntryID())
		assert.False(t, entry.IsArchived())
		assert.Nil(t, entry.CorrectedFrom())
		assert.Empty(t, entry.TimelineMemberships())

		uncommitted := entry.GetUncommittedEvents()
		assert.Len(t, uncommitted, 1)
		assert.Equal(t, "entry.created", uncommitted[0].GetEventType())
	})

	t.Run("empty user rejected", func(t *testing.T) {
		_, err := NewChronologyEntry("", "journal-456", "Content", testSpan(t), valueobjects.PrecisionDay, valueobjects.FullConfidence())

		assert.True(t, pkgerrors.IsValidation(err))
	})

	t.Run("empty journal entry rejected", func(t *testing.T) {
		_, err := NewChronologyEntry("user-123", "", "Content", testSpan(t), valueobjects.PrecisionDay, valueobjects.FullConfidence())

		assert.True(t, pkgerrors.IsValidation(err))
	})

	t.Run("blank content rejected", func(t *testing.T) {
		_, err := NewChronologyEntry("user-123", "journal-456", "   ", testSpan(t), valueobjects.PrecisionDay, valueobjects.FullConfidence())

		assert.True(t, pkgerrors.IsValidation(err))
	})

	t.Run("zero span rejected", func(t *testing.T) {
		_, err := NewChronologyEntry("user-123", "journal-456", "Content", valueobjects.TimeSpan{}, valueobjects.PrecisionDay, valueobjects.FullConfidence())

		assert.True(t, pkgerrors.IsValidation(err))
	})

	t.Run("unknown precision rejected", func(t *testing.T) {
		_, err := NewChronologyEntry("user-123", "journal-456", "Content", testSpan(t), "fortnight", valueobjects.FullConfidence())

		assert.True(t, pkgerrors.IsValidation(err))
	})
}

func TestChronologyEntry_Memberships(t *testing.T) {
	t.Run("add and remove", func(t *testing.T) {
		entry, _ := NewChronologyEntry("user-123", "journal-456", "Content", testSpan(t), valueobjects.PrecisionDay, valueobjects.FullConfidence())
		timelineID := valueobjects.NewTimelineID()

		assert.NoError(t, entry.AddToTimeline(timelineID))
		assert.True(t, entry.BelongsTo(timelineID))

		assert.NoError(t, entry.RemoveFromTimeline(timelineID))
		assert.False(t, entry.BelongsTo(timelineID))
	})

	t.Run("duplicate membership conflicts", func(t *testing.T) {
		entry, _ := NewChronologyEntry("user-123", "journal-456", "Content", testSpan(t), valueobjects.PrecisionDay, valueobjects.FullConfidence())
		timelineID := valueobjects.NewTimelineID()
		_ = entry.AddToTimeline(timelineID)

		err := entry.AddToTimeline(timelineID)

		assert.True(t, pkgerrors.IsConflict(err))
	})

	t.Run("zero id rejected", func(t *testing.T) {
		entry, _ := NewChronologyEntry("user-123", "journal-456", "Content", testSpan(t), valueobjects.PrecisionDay, valueobjects.FullConfidence())

		err := entry.AddToTimeline(valueobjects.TimelineID{})

		assert.True(t, pkgerrors.IsValidation(err))
	})

	t.Run("limit enforced", func(t *testing.T) {
		entry, _ := NewChronologyEntry("user-123", "journal-456", "Content", testSpan(t), valueobjects.PrecisionDay, valueobjects.FullConfidence())
		cfg := config.DefaultDomainConfig()
		cfg.MaxMembershipsPerEntry = 1

		assert.NoError(t, entry.AddToTimelineWithConfig(valueobjects.NewTimelineID(), cfg))
		assert.Error(t, entry.AddToTimelineWithConfig(valueobjects.NewTimelineID(), cfg))
	})

	t.Run("removing unknown membership fails", func(t *testing.T) {
		entry, _ := NewChronologyEntry("user-123", "journal-456", "Content", testSpan(t), valueobjects.PrecisionDay, valueobjects.FullConfidence())

		err := entry.RemoveFromTimeline(valueobjects.NewTimelineID())

		assert.True(t, pkgerrors.IsNotFound(err))
	})
}

func TestChronologyEntry_Archive(t *testing.T) {
	entry, _ := NewChronologyEntry("user-123", "journal-456", "Content", testSpan(t), valueobjects.PrecisionDay, valueobjects.FullConfidence())
	entry.MarkEventsAsCommitted()

	assert.NoError(t, entry.Archive())
	assert.True(t, entry.IsArchived())
	assert.Len(t, entry.GetUncommittedEvents(), 1)

	// Archiving again is a no-op and emits nothing further.
	assert.NoError(t, entry.Archive())
	assert.Len(t, entry.GetUncommittedEvents(), 1)
}

func TestChronologyEntry_Relocate(t *testing.T) {
	t.Run("moves the entry", func(t *testing.T) {
		entry, _ := NewChronologyEntry("user-123", "journal-456", "Content", testSpan(t), valueobjects.PrecisionDay, valueobjects.FullConfidence())
		newStart := time.Date(2022, time.July, 1, 0, 0, 0, 0, time.UTC)
		newSpan, _ := valueobjects.NewInstant(newStart)

		err := entry.Relocate(newSpan, valueobjects.PrecisionMonth, valueobjects.FullConfidence())

		assert.NoError(t, err)
		assert.Equal(t, newStart, entry.Span().Start())
		assert.Equal(t, valueobjects.PrecisionMonth, entry.Precision())
	})

	t.Run("archived entry rejected", func(t *testing.T) {
		entry, _ := NewChronologyEntry("user-123", "journal-456", "Content", testSpan(t), valueobjects.PrecisionDay, valueobjects.FullConfidence())
		_ = entry.Archive()

		err := entry.Relocate(testSpan(t), valueobjects.PrecisionDay, valueobjects.FullConfidence())

		assert.True(t, pkgerrors.IsValidation(err))
	})
}

func TestChronologyEntry_Correct(t *testing.T) {
	entry, _ := NewChronologyEntry("user-123", "journal-456", "Original content", testSpan(t), valueobjects.PrecisionYear, valueobjects.FullConfidence())
	timelineID := valueobjects.NewTimelineID()
	_ = entry.AddToTimeline(timelineID)

	correctedStart := time.Date(2023, time.March, 20, 9, 0, 0, 0, time.UTC)
	correctedSpan, _ := valueobjects.NewInstant(correctedStart)
	confidence, _ := valueobjects.NewConfidence(0.9)

	replacement, err := entry.Correct(correctedSpan, valueobjects.PrecisionDay, confidence, "")

	assert.NoError(t, err)
	assert.True(t, entry.IsArchived())

	assert.NotEqual(t, entry.ID(), replacement.ID())
	assert.Equal(t, entry.UserID(), replacement.UserID())
	assert.Equal(t, entry.JournalEntryID(), replacement.JournalEntryID())
	assert.Equal(t, "Original content", replacement.Content(), "empty content keeps the original text")
	assert.Equal(t, valueobjects.PrecisionDay, replacement.Precision())

	assert.NotNil(t, replacement.CorrectedFrom())
	assert.True(t, replacement.CorrectedFrom().Equals(entry.ID()))
	assert.True(t, replacement.BelongsTo(timelineID), "memberships carry over to the replacement")
}

func TestChronologyEntry_UpdateContent(t *testing.T) {
	t.Run("replaces text", func(t *testing.T) {
		entry, _ := NewChronologyEntry("user-123", "journal-456", "Before", testSpan(t), valueobjects.PrecisionDay, valueobjects.FullConfidence())

		err := entry.UpdateContent("After")

		assert.NoError(t, err)
		assert.Equal(t, "After", entry.Content())
	})

	t.Run("archived entry rejected", func(t *testing.T) {
		entry, _ := NewChronologyEntry("user-123", "journal-456", "Before", testSpan(t), valueobjects.PrecisionDay, valueobjects.FullConfidence())
		_ = entry.Archive()

		err := entry.UpdateContent("After")

		assert.True(t, pkgerrors.IsValidation(err))
	})

	t.Run("unchanged content keeps the version", func(t *testing.T) {
		entry, _ := NewChronologyEntry("user-123", "journal-456", "Same", testSpan(t), valueobjects.PrecisionDay, valueobjects.FullConfidence())
		version := entry.Version()

		err := entry.UpdateContent("Same")

		assert.NoError(t, err)
		assert.Equal(t, version, entry.Version())
	})
}
