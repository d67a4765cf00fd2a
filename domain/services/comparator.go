package services

import (
	"fmt"
	"sort"
	"time"

	"lorekeeper-backend/domain/config"
	"lorekeeper-backend/domain/core/entities"
	"lorekeeper-backend/domain/core/valueobjects"
)

// IntervalComparator decides whether chronology entries temporally overlap,
// accounting for the fact that coarse precision widens the effective
// interval beyond the literal instant stored.
type IntervalComparator struct {
	cfg *config.DomainConfig
}

// NewIntervalComparator creates a comparator with the given policy
func NewIntervalComparator(cfg *config.DomainConfig) *IntervalComparator {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}
	return &IntervalComparator{cfg: cfg}
}

// EffectiveInterval expands an entry's literal span by its precision
func (c *IntervalComparator) EffectiveInterval(entry *entities.ChronologyEntry) valueobjects.TimeSpan {
	return entry.EffectiveInterval(c.cfg.ApproximateFuzz)
}

// Overlap tests whether two entries' effective intervals intersect.
// Zero-duration intersections are excluded, so entries that merely touch at
// an instant are not reported. An entry never overlaps itself.
func (c *IntervalComparator) Overlap(a, b *entities.ChronologyEntry) (ChronologyOverlap, bool) {
	if a == nil || b == nil {
		return ChronologyOverlap{}, false
	}
	if a.ID().Equals(b.ID()) {
		return ChronologyOverlap{}, false
	}

	intersection, ok := c.EffectiveInterval(a).Intersect(c.EffectiveInterval(b))
	if !ok {
		return ChronologyOverlap{}, false
	}

	return newOverlap(a, b, intersection), true
}

// ScanOverlaps computes all pairwise overlaps across the given entries with
// an interval sweep: sort by effective start, keep an active set of entries
// whose effective end has not passed, and emit intersections as each entry
// enters. Entries that cannot be placed on the time axis are excluded and
// surfaced as precision_mismatch constraints instead of aborting the scan.
func (c *IntervalComparator) ScanOverlaps(entries []*entities.ChronologyEntry) ([]ChronologyOverlap, []ChronologyConstraint) {
	overlaps := []ChronologyOverlap{}
	constraints := []ChronologyConstraint{}

	type scanItem struct {
		entry    *entities.ChronologyEntry
		interval valueobjects.TimeSpan
	}

	items := make([]scanItem, 0, len(entries))
	for _, entry := range entries {
		if entry == nil {
			continue
		}
		if entry.Span().IsZero() || !entry.Precision().IsValid() {
			constraints = append(constraints, ChronologyConstraint{
				Type:     ConstraintPrecisionMismatch,
				Severity: SeverityWarning,
				Message:  fmt.Sprintf("entry %s has an unusable timestamp and was excluded from the overlap scan", entry.ID()),
				EntryIDs: []string{entry.ID().String()},
			})
			continue
		}
		items = append(items, scanItem{entry: entry, interval: c.EffectiveInterval(entry)})
	}

	if len(items) > c.cfg.MaxScanWindowSize {
		items = items[:c.cfg.MaxScanWindowSize]
	}

	sort.Slice(items, func(i, j int) bool {
		return items[i].interval.Start().Before(items[j].interval.Start())
	})

	active := []scanItem{}
	for _, item := range items {
		// Retire active entries whose interval ended strictly before this
		// one starts; those can never produce a non-degenerate intersection.
		retained := active[:0]
		for _, candidate := range active {
			if !candidate.interval.End().Before(item.interval.Start()) {
				retained = append(retained, candidate)
			}
		}
		active = retained

		for _, candidate := range active {
			if candidate.entry.ID().Equals(item.entry.ID()) {
				continue
			}
			intersection, ok := item.interval.Intersect(candidate.interval)
			if !ok {
				continue
			}
			overlaps = append(overlaps, newOverlap(candidate.entry, item.entry, intersection))

			if isImpossiblePair(candidate.entry, item.entry) {
				constraints = append(constraints, ChronologyConstraint{
					Type:     ConstraintImpossibleOverlap,
					Severity: SeverityWarning,
					Message: fmt.Sprintf("entries %s and %s are both placed exactly and with full confidence, yet their times overlap",
						candidate.entry.ID(), item.entry.ID()),
					EntryIDs: []string{candidate.entry.ID().String(), item.entry.ID().String()},
				})
			}
		}

		active = append(active, item)
	}

	return overlaps, constraints
}

// CheckMemberships cross-checks entries against the timelines they claim
// membership in. A membership pointing at a timeline absent from the
// collection is a data-integrity error; an entry placed entirely outside
// its timeline's span is a contradiction warning.
func (c *IntervalComparator) CheckMemberships(entries []*entities.ChronologyEntry, timelines []*entities.Timeline) []ChronologyConstraint {
	byID := make(map[string]*entities.Timeline, len(timelines))
	for _, tl := range timelines {
		byID[tl.ID().String()] = tl
	}

	constraints := []ChronologyConstraint{}
	for _, entry := range entries {
		if entry == nil {
			continue
		}
		interval := c.EffectiveInterval(entry)

		for _, timelineID := range entry.TimelineMemberships() {
			tl, ok := byID[timelineID.String()]
			if !ok {
				constraints = append(constraints, ChronologyConstraint{
					Type:        ConstraintContradiction,
					Severity:    SeverityError,
					Message:     fmt.Sprintf("entry %s references timeline %s which no longer exists", entry.ID(), timelineID),
					EntryIDs:    []string{entry.ID().String()},
					TimelineIDs: []string{timelineID.String()},
				})
				continue
			}

			timelineEnd := time.Now()
			if tl.EndDate() != nil {
				timelineEnd = *tl.EndDate()
			}
			if interval.End().Before(tl.StartDate()) || interval.Start().After(timelineEnd) {
				constraints = append(constraints, ChronologyConstraint{
					Type:     ConstraintContradiction,
					Severity: SeverityWarning,
					Message: fmt.Sprintf("entry %s lies entirely outside the span of timeline %q",
						entry.ID(), tl.Title()),
					EntryIDs:    []string{entry.ID().String()},
					TimelineIDs: []string{tl.ID().String()},
				})
			}
		}
	}

	return constraints
}

func newOverlap(a, b *entities.ChronologyEntry, intersection valueobjects.TimeSpan) ChronologyOverlap {
	return ChronologyOverlap{
		Entry1ID:            a.ID().String(),
		Entry2ID:            b.ID().String(),
		OverlapStart:        intersection.Start(),
		OverlapEnd:          intersection.End(),
		OverlapDurationDays: intersection.Duration().Hours() / 24,
	}
}

// isImpossiblePair flags overlaps between entries that both claim exact
// placement with full confidence; those cannot genuinely coincide.
func isImpossiblePair(a, b *entities.ChronologyEntry) bool {
	return a.Precision() == valueobjects.PrecisionExact &&
		b.Precision() == valueobjects.PrecisionExact &&
		a.Confidence().IsCertain() &&
		b.Confidence().IsCertain()
}
