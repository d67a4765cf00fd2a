package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"lorekeeper-backend/domain/core/entities"
	"lorekeeper-backend/tests/fixtures"
)

func TestChronologyAnalyzer_Analyze_EmptyInput(t *testing.T) {
	analyzer := NewChronologyAnalyzer(nil, nil)

	report := analyzer.Analyze(nil)

	assert.NotNil(t, report.Clusters)
	assert.NotNil(t, report.Overlaps)
	assert.NotNil(t, report.Constraints)
	assert.Empty(t, report.Clusters)
	assert.Empty(t, report.Overlaps)
	assert.Empty(t, report.Constraints)
}

func TestChronologyAnalyzer_Cluster(t *testing.T) {
	analyzer := NewChronologyAnalyzer(nil, nil)
	base := time.Date(2023, time.January, 10, 12, 0, 0, 0, time.UTC)

	first := fixtures.NewEntryBuilder().WithInstant(base).MustBuild()
	second := fixtures.NewEntryBuilder().WithInstant(base.AddDate(0, 0, 5)).MustBuild()
	distant := fixtures.NewEntryBuilder().WithInstant(base.AddDate(0, 0, 60)).MustBuild()

	clusters := analyzer.Cluster([]*entities.ChronologyEntry{distant, first, second})

	assert.Len(t, clusters, 2)
	assert.Equal(t, 0, clusters[0].Label)
	assert.Equal(t, []string{first.ID().String(), second.ID().String()}, clusters[0].EntryIDs)
	assert.Equal(t, 1, clusters[1].Label)
	assert.Equal(t, []string{distant.ID().String()}, clusters[1].EntryIDs)
}

func TestChronologyAnalyzer_Cluster_UnplaceableEntriesLabeledNoise(t *testing.T) {
	analyzer := NewChronologyAnalyzer(nil, nil)

	placed := fixtures.NewEntryBuilder().MustBuild()
	broken := fixtures.NewEntryBuilder().WithPrecision("sometime").MustBuild()

	clusters := analyzer.Cluster([]*entities.ChronologyEntry{placed, broken})

	assert.Len(t, clusters, 2)
	assert.Equal(t, -1, clusters[0].Label)
	assert.Equal(t, []string{broken.ID().String()}, clusters[0].EntryIDs)
	assert.Equal(t, 0, clusters[1].Label)
}

func TestChronologyAnalyzer_Cluster_PrecisionBridgesGap(t *testing.T) {
	// A month-precision entry covers its whole month, so an entry three
	// weeks later still lands in the same cluster.
	analyzer := NewChronologyAnalyzer(nil, nil)

	monthly := fixtures.NewEntryBuilder().
		WithInstant(time.Date(2023, time.January, 2, 0, 0, 0, 0, time.UTC)).
		WithPrecision("month").
		MustBuild()
	later := fixtures.NewEntryBuilder().
		WithInstant(time.Date(2023, time.January, 25, 0, 0, 0, 0, time.UTC)).
		MustBuild()

	clusters := analyzer.Cluster([]*entities.ChronologyEntry{monthly, later})

	assert.Len(t, clusters, 1)
	assert.Len(t, clusters[0].EntryIDs, 2)
}

func TestChronologyAnalyzer_DetectGaps(t *testing.T) {
	analyzer := NewChronologyAnalyzer(nil, nil)
	base := time.Date(2022, time.June, 1, 12, 0, 0, 0, time.UTC)

	before := fixtures.NewEntryBuilder().WithInstant(base).MustBuild()
	after := fixtures.NewEntryBuilder().WithInstant(base.AddDate(0, 0, 200)).MustBuild()

	constraints := analyzer.DetectGaps([]*entities.ChronologyEntry{after, before})

	assert.Len(t, constraints, 1)
	assert.Equal(t, ConstraintGap, constraints[0].Type)
	assert.Equal(t, SeverityWarning, constraints[0].Severity)
	assert.Contains(t, constraints[0].Message, "no memories recorded for 200 days")
	assert.Equal(t, []string{before.ID().String(), after.ID().String()}, constraints[0].EntryIDs)
}

func TestChronologyAnalyzer_DetectGaps_BelowThreshold(t *testing.T) {
	analyzer := NewChronologyAnalyzer(nil, nil)
	base := time.Date(2022, time.June, 1, 12, 0, 0, 0, time.UTC)

	before := fixtures.NewEntryBuilder().WithInstant(base).MustBuild()
	after := fixtures.NewEntryBuilder().WithInstant(base.AddDate(0, 0, 30)).MustBuild()

	constraints := analyzer.DetectGaps([]*entities.ChronologyEntry{before, after})

	assert.Empty(t, constraints)
}

func TestChronologyAnalyzer_Analyze_CombinesSections(t *testing.T) {
	analyzer := NewChronologyAnalyzer(nil, nil)
	base := time.Date(2023, time.February, 1, 12, 0, 0, 0, time.UTC)

	a := fixtures.NewEntryBuilder().
		WithSpan(base, base.Add(48*time.Hour)).
		WithConfidence(0.9).
		MustBuild()
	b := fixtures.NewEntryBuilder().
		WithSpan(base.Add(24*time.Hour), base.Add(96*time.Hour)).
		WithConfidence(0.9).
		MustBuild()
	distant := fixtures.NewEntryBuilder().
		WithInstant(base.AddDate(0, 0, 200)).
		MustBuild()

	report := analyzer.Analyze([]*entities.ChronologyEntry{a, b, distant})

	assert.Len(t, report.Overlaps, 1)
	assert.Len(t, report.Clusters, 2)
	assert.Len(t, report.Constraints, 1)
	assert.Equal(t, ConstraintGap, report.Constraints[0].Type)
}
