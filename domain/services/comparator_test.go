package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"lorekeeper-backend/domain/core/entities"
	"lorekeeper-backend/domain/core/valueobjects"
	"lorekeeper-backend/tests/fixtures"
)

var scanAnchor = time.Date(2023, time.March, 15, 12, 0, 0, 0, time.UTC)

func TestIntervalComparator_Overlap_YearPrecisionWidens(t *testing.T) {
	// Arrange
	comparator := NewIntervalComparator(nil)

	exact := fixtures.NewEntryBuilder().
		WithSpan(scanAnchor, scanAnchor.Add(2*time.Hour)).
		WithPrecision(valueobjects.PrecisionExact).
		MustBuild()
	yearOnly := fixtures.NewEntryBuilder().
		WithInstant(time.Date(2023, time.November, 3, 9, 0, 0, 0, time.UTC)).
		WithPrecision(valueobjects.PrecisionYear).
		MustBuild()

	// Act
	overlap, ok := comparator.Overlap(exact, yearOnly)

	// Assert
	assert.True(t, ok, "year precision should widen the entry to cover all of 2023")
	assert.Equal(t, exact.ID().String(), overlap.Entry1ID)
	assert.Equal(t, yearOnly.ID().String(), overlap.Entry2ID)
	assert.Equal(t, scanAnchor, overlap.OverlapStart)
	assert.Equal(t, scanAnchor.Add(2*time.Hour), overlap.OverlapEnd)
}

func TestIntervalComparator_Overlap_Symmetric(t *testing.T) {
	comparator := NewIntervalComparator(nil)

	a := fixtures.NewEntryBuilder().
		WithSpan(scanAnchor, scanAnchor.Add(48*time.Hour)).
		MustBuild()
	b := fixtures.NewEntryBuilder().
		WithSpan(scanAnchor.Add(24*time.Hour), scanAnchor.Add(72*time.Hour)).
		MustBuild()

	forward, okForward := comparator.Overlap(a, b)
	backward, okBackward := comparator.Overlap(b, a)

	assert.True(t, okForward)
	assert.True(t, okBackward)
	assert.Equal(t, forward.OverlapStart, backward.OverlapStart)
	assert.Equal(t, forward.OverlapEnd, backward.OverlapEnd)
	assert.Equal(t, forward.OverlapDurationDays, backward.OverlapDurationDays)
	assert.InDelta(t, 1.0, forward.OverlapDurationDays, 0.001)
}

func TestIntervalComparator_Overlap_NeverSelf(t *testing.T) {
	comparator := NewIntervalComparator(nil)
	entry := fixtures.NewEntryBuilder().MustBuild()

	_, ok := comparator.Overlap(entry, entry)

	assert.False(t, ok)
}

func TestIntervalComparator_Overlap_NilEntry(t *testing.T) {
	comparator := NewIntervalComparator(nil)
	entry := fixtures.NewEntryBuilder().MustBuild()

	_, ok := comparator.Overlap(entry, nil)
	assert.False(t, ok)

	_, ok = comparator.Overlap(nil, entry)
	assert.False(t, ok)
}

func TestIntervalComparator_Overlap_TouchingSpansExcluded(t *testing.T) {
	// Spans that merely share a boundary instant must not be reported.
	comparator := NewIntervalComparator(nil)

	first := fixtures.NewEntryBuilder().
		WithSpan(scanAnchor, scanAnchor.Add(2*time.Hour)).
		MustBuild()
	second := fixtures.NewEntryBuilder().
		WithSpan(scanAnchor.Add(2*time.Hour), scanAnchor.Add(4*time.Hour)).
		MustBuild()

	_, ok := comparator.Overlap(first, second)

	assert.False(t, ok)
}

func TestIntervalComparator_Overlap_AdjacentDaysExcluded(t *testing.T) {
	comparator := NewIntervalComparator(nil)

	monday := fixtures.NewEntryBuilder().
		WithInstant(time.Date(2023, time.March, 13, 9, 0, 0, 0, time.UTC)).
		WithPrecision(valueobjects.PrecisionDay).
		MustBuild()
	tuesday := fixtures.NewEntryBuilder().
		WithInstant(time.Date(2023, time.March, 14, 21, 0, 0, 0, time.UTC)).
		WithPrecision(valueobjects.PrecisionDay).
		MustBuild()

	_, ok := comparator.Overlap(monday, tuesday)

	assert.False(t, ok)
}

func TestIntervalComparator_ScanOverlaps(t *testing.T) {
	comparator := NewIntervalComparator(nil)

	a := fixtures.NewEntryBuilder().
		WithSpan(scanAnchor, scanAnchor.Add(72*time.Hour)).
		WithConfidence(0.8).
		MustBuild()
	b := fixtures.NewEntryBuilder().
		WithSpan(scanAnchor.Add(24*time.Hour), scanAnchor.Add(96*time.Hour)).
		WithConfidence(0.8).
		MustBuild()
	farAway := fixtures.NewEntryBuilder().
		WithSpan(scanAnchor.AddDate(2, 0, 0), scanAnchor.AddDate(2, 0, 1)).
		MustBuild()

	overlaps, constraints := comparator.ScanOverlaps([]*entities.ChronologyEntry{a, b, farAway})

	assert.Len(t, overlaps, 1)
	assert.Empty(t, constraints)
	assert.Equal(t, a.ID().String(), overlaps[0].Entry1ID)
	assert.Equal(t, b.ID().String(), overlaps[0].Entry2ID)
}

func TestIntervalComparator_ScanOverlaps_NeverSelf(t *testing.T) {
	// A duplicated entry in the input must not be reported as overlapping
	// itself, matching the pairwise Overlap contract.
	comparator := NewIntervalComparator(nil)

	entry := fixtures.NewEntryBuilder().
		WithSpan(scanAnchor, scanAnchor.Add(48*time.Hour)).
		MustBuild()

	overlaps, constraints := comparator.ScanOverlaps([]*entities.ChronologyEntry{entry, entry})

	assert.Empty(t, overlaps)
	assert.Empty(t, constraints)
	for _, overlap := range overlaps {
		assert.NotEqual(t, overlap.Entry1ID, overlap.Entry2ID)
	}
}

func TestIntervalComparator_ScanOverlaps_UnusableEntryExcluded(t *testing.T) {
	comparator := NewIntervalComparator(nil)

	usable := fixtures.NewEntryBuilder().MustBuild()
	broken := fixtures.NewEntryBuilder().
		WithPrecision("fortnight").
		MustBuild()

	overlaps, constraints := comparator.ScanOverlaps([]*entities.ChronologyEntry{usable, broken, nil})

	assert.Empty(t, overlaps)
	assert.Len(t, constraints, 1)
	assert.Equal(t, ConstraintPrecisionMismatch, constraints[0].Type)
	assert.Equal(t, SeverityWarning, constraints[0].Severity)
	assert.Equal(t, []string{broken.ID().String()}, constraints[0].EntryIDs)
}

func TestIntervalComparator_ScanOverlaps_ImpossiblePair(t *testing.T) {
	// Two exact, fully confident entries that overlap cannot both be right.
	comparator := NewIntervalComparator(nil)

	a := fixtures.NewEntryBuilder().
		WithSpan(scanAnchor, scanAnchor.Add(4*time.Hour)).
		WithPrecision(valueobjects.PrecisionExact).
		WithConfidence(1.0).
		MustBuild()
	b := fixtures.NewEntryBuilder().
		WithSpan(scanAnchor.Add(time.Hour), scanAnchor.Add(3*time.Hour)).
		WithPrecision(valueobjects.PrecisionExact).
		WithConfidence(1.0).
		MustBuild()

	overlaps, constraints := comparator.ScanOverlaps([]*entities.ChronologyEntry{a, b})

	assert.Len(t, overlaps, 1)
	assert.Len(t, constraints, 1)
	assert.Equal(t, ConstraintImpossibleOverlap, constraints[0].Type)
	assert.ElementsMatch(t, []string{a.ID().String(), b.ID().String()}, constraints[0].EntryIDs)
}

func TestIntervalComparator_ScanOverlaps_UncertainPairNotImpossible(t *testing.T) {
	comparator := NewIntervalComparator(nil)

	a := fixtures.NewEntryBuilder().
		WithSpan(scanAnchor, scanAnchor.Add(4*time.Hour)).
		WithConfidence(0.7).
		MustBuild()
	b := fixtures.NewEntryBuilder().
		WithSpan(scanAnchor.Add(time.Hour), scanAnchor.Add(3*time.Hour)).
		WithConfidence(1.0).
		MustBuild()

	overlaps, constraints := comparator.ScanOverlaps([]*entities.ChronologyEntry{a, b})

	assert.Len(t, overlaps, 1)
	assert.Empty(t, constraints)
}

func TestIntervalComparator_CheckMemberships_MissingTimeline(t *testing.T) {
	comparator := NewIntervalComparator(nil)

	ghost := valueobjects.NewTimelineID()
	entry := fixtures.NewEntryBuilder().
		WithMemberships(ghost).
		MustBuild()

	constraints := comparator.CheckMemberships(
		[]*entities.ChronologyEntry{entry},
		[]*entities.Timeline{},
	)

	assert.Len(t, constraints, 1)
	assert.Equal(t, ConstraintContradiction, constraints[0].Type)
	assert.Equal(t, SeverityError, constraints[0].Severity)
	assert.Equal(t, []string{ghost.String()}, constraints[0].TimelineIDs)
}

func TestIntervalComparator_CheckMemberships_EntryOutsideSpan(t *testing.T) {
	comparator := NewIntervalComparator(nil)

	timeline := fixtures.NewTimelineBuilder().
		WithTitle("College").
		WithStartDate(time.Date(2015, time.September, 1, 0, 0, 0, 0, time.UTC)).
		WithEndDate(time.Date(2019, time.June, 1, 0, 0, 0, 0, time.UTC)).
		MustBuild()
	entry := fixtures.NewEntryBuilder().
		WithInstant(time.Date(2023, time.March, 15, 12, 0, 0, 0, time.UTC)).
		WithMemberships(timeline.ID()).
		MustBuild()

	constraints := comparator.CheckMemberships(
		[]*entities.ChronologyEntry{entry},
		[]*entities.Timeline{timeline},
	)

	assert.Len(t, constraints, 1)
	assert.Equal(t, ConstraintContradiction, constraints[0].Type)
	assert.Equal(t, SeverityWarning, constraints[0].Severity)
	assert.Contains(t, constraints[0].Message, "College")
}

func TestIntervalComparator_CheckMemberships_EntryInsideSpan(t *testing.T) {
	comparator := NewIntervalComparator(nil)

	timeline := fixtures.NewTimelineBuilder().
		WithStartDate(scanAnchor.AddDate(-1, 0, 0)).
		MustBuild()
	entry := fixtures.NewEntryBuilder().
		WithInstant(scanAnchor).
		WithMemberships(timeline.ID()).
		MustBuild()

	constraints := comparator.CheckMemberships(
		[]*entities.ChronologyEntry{entry},
		[]*entities.Timeline{timeline},
	)

	assert.Empty(t, constraints)
}
