package services

import (
	"fmt"
	"sort"

	"lorekeeper-backend/domain/config"
	"lorekeeper-backend/domain/core/entities"
)

// TemporalCluster is a run of entries whose effective intervals sit within
// the configured cluster gap of one another
type TemporalCluster struct {
	Label    int      `json:"label"`
	EntryIDs []string `json:"entry_ids"`
}

// AnalyticsReport bundles the derived views of a loaded entry set.
// Sections degrade to empty rather than failing; an empty input produces
// an empty report.
type AnalyticsReport struct {
	Clusters    []TemporalCluster      `json:"clusters"`
	Overlaps    []ChronologyOverlap    `json:"overlaps"`
	Constraints []ChronologyConstraint `json:"constraints"`
}

// ChronologyAnalyzer derives clusters, gaps and overlap findings from a
// loaded entry collection
type ChronologyAnalyzer struct {
	cfg        *config.DomainConfig
	comparator *IntervalComparator
}

// NewChronologyAnalyzer creates an analyzer with the given policy
func NewChronologyAnalyzer(cfg *config.DomainConfig, comparator *IntervalComparator) *ChronologyAnalyzer {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}
	if comparator == nil {
		comparator = NewIntervalComparator(cfg)
	}
	return &ChronologyAnalyzer{cfg: cfg, comparator: comparator}
}

// Analyze produces the full report for the given entries
func (a *ChronologyAnalyzer) Analyze(entries []*entities.ChronologyEntry) AnalyticsReport {
	report := AnalyticsReport{
		Clusters:    []TemporalCluster{},
		Overlaps:    []ChronologyOverlap{},
		Constraints: []ChronologyConstraint{},
	}
	if len(entries) == 0 {
		return report
	}

	overlaps, constraints := a.comparator.ScanOverlaps(entries)
	report.Overlaps = overlaps
	report.Constraints = constraints

	report.Clusters = a.Cluster(entries)
	report.Constraints = append(report.Constraints, a.DetectGaps(entries)...)

	return report
}

// Cluster groups entries into temporal clusters: entries whose effective
// intervals are separated by no more than the cluster gap share a label.
// Entries that cannot be placed in time are labeled -1, mirroring the
// noise label convention of density clustering.
func (a *ChronologyAnalyzer) Cluster(entries []*entities.ChronologyEntry) []TemporalCluster {
	usable := []*entities.ChronologyEntry{}
	noise := []string{}
	for _, entry := range entries {
		if entry == nil {
			continue
		}
		if entry.Span().IsZero() || !entry.Precision().IsValid() {
			noise = append(noise, entry.ID().String())
			continue
		}
		usable = append(usable, entry)
	}

	sort.Slice(usable, func(i, j int) bool {
		return usable[i].Span().Start().Before(usable[j].Span().Start())
	})

	clusters := []TemporalCluster{}
	if len(noise) > 0 {
		clusters = append(clusters, TemporalCluster{Label: -1, EntryIDs: noise})
	}

	label := 0
	var current *TemporalCluster
	for i, entry := range usable {
		interval := a.comparator.EffectiveInterval(entry)
		if current == nil {
			clusters = append(clusters, TemporalCluster{Label: label, EntryIDs: []string{entry.ID().String()}})
			current = &clusters[len(clusters)-1]
			continue
		}

		previous := a.comparator.EffectiveInterval(usable[i-1])
		if interval.Start().Sub(previous.End()) > a.cfg.ClusterGap {
			label++
			clusters = append(clusters, TemporalCluster{Label: label, EntryIDs: []string{entry.ID().String()}})
			current = &clusters[len(clusters)-1]
			continue
		}

		current.EntryIDs = append(current.EntryIDs, entry.ID().String())
	}

	return clusters
}

// DetectGaps reports quiet stretches longer than the gap threshold between
// consecutive entries, as warning-severity gap constraints
func (a *ChronologyAnalyzer) DetectGaps(entries []*entities.ChronologyEntry) []ChronologyConstraint {
	usable := []*entities.ChronologyEntry{}
	for _, entry := range entries {
		if entry == nil || entry.Span().IsZero() || !entry.Precision().IsValid() {
			continue
		}
		usable = append(usable, entry)
	}
	if len(usable) < 2 {
		return []ChronologyConstraint{}
	}

	sort.Slice(usable, func(i, j int) bool {
		return usable[i].Span().Start().Before(usable[j].Span().Start())
	})

	constraints := []ChronologyConstraint{}
	for i := 1; i < len(usable); i++ {
		previous := a.comparator.EffectiveInterval(usable[i-1])
		current := a.comparator.EffectiveInterval(usable[i])

		gap := current.Start().Sub(previous.End())
		if gap > a.cfg.GapThreshold {
			constraints = append(constraints, ChronologyConstraint{
				Type:     ConstraintGap,
				Severity: SeverityWarning,
				Message: fmt.Sprintf("no memories recorded for %.0f days between %s and %s",
					gap.Hours()/24,
					previous.End().Format("2006-01-02"),
					current.Start().Format("2006-01-02")),
				EntryIDs: []string{usable[i-1].ID().String(), usable[i].ID().String()},
			})
		}
	}

	return constraints
}
