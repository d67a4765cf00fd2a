package handlers

import (
	"fmt"
	"time"

	"lorekeeper-backend/application/queries"
	"lorekeeper-backend/application/reconcile"
	"lorekeeper-backend/domain/config"
	"lorekeeper-backend/domain/core/entities"
	"lorekeeper-backend/domain/services"
)

func toProvenance(meta reconcile.Metadata) queries.Provenance {
	return queries.Provenance{
		IsSynthetic: meta.IsSynthetic,
		Source:      string(meta.Source),
		Timestamp:   meta.Timestamp,
	}
}

func toEntryView(entry *entities.ChronologyEntry, cfg *config.DomainConfig) queries.EntryView {
	effective := entry.EffectiveInterval(cfg.ApproximateFuzz)

	timelines := make([]string, 0, len(entry.TimelineMemberships()))
	for _, id := range entry.TimelineMemberships() {
		timelines = append(timelines, id.String())
	}

	view := queries.EntryView{
		ID:             entry.ID().String(),
		JournalEntryID: entry.JournalEntryID(),
		Content:        entry.Content(),
		Start:          entry.Span().Start().Format(time.RFC3339),
		End:            entry.Span().End().Format(time.RFC3339),
		EffectiveStart: effective.Start().Format(time.RFC3339),
		EffectiveEnd:   effective.End().Format(time.RFC3339),
		Precision:      string(entry.Precision()),
		Confidence:     entry.Confidence().Value(),
		Timelines:      timelines,
		Archived:       entry.IsArchived(),
		Version:        entry.Version(),
		CreatedAt:      entry.CreatedAt().Format(time.RFC3339),
		UpdatedAt:      entry.UpdatedAt().Format(time.RFC3339),
	}
	if from := entry.CorrectedFrom(); from != nil {
		view.CorrectedFrom = from.String()
	}
	return view
}

func toTimelineView(timeline *entities.Timeline) queries.TimelineView {
	view := queries.TimelineView{
		ID:          timeline.ID().String(),
		Title:       timeline.Title(),
		DisplayName: displayName(timeline),
		Description: timeline.Description(),
		Type:        string(timeline.Type()),
		StartDate:   timeline.StartDate().Format(time.RFC3339),
		Ongoing:     timeline.IsOngoing(),
		Tags:        timeline.Tags(),
		Version:     timeline.Version(),
		CreatedAt:   timeline.CreatedAt().Format(time.RFC3339),
		UpdatedAt:   timeline.UpdatedAt().Format(time.RFC3339),
	}
	if parent := timeline.ParentID(); parent != nil {
		view.ParentID = parent.String()
	}
	if end := timeline.EndDate(); end != nil {
		view.EndDate = end.Format(time.RFC3339)
	}
	return view
}

// displayName renders "Title (2019 - 2022)" or "Title (2019 - )" for
// ongoing timelines. Computed on every read, never persisted.
func displayName(timeline *entities.Timeline) string {
	start := timeline.StartDate().Year()
	if end := timeline.EndDate(); end != nil {
		if end.Year() == start {
			return fmt.Sprintf("%s (%d)", timeline.Title(), start)
		}
		return fmt.Sprintf("%s (%d - %d)", timeline.Title(), start, end.Year())
	}
	return fmt.Sprintf("%s (%d - )", timeline.Title(), start)
}

func toConstraintViews(constraints []services.ChronologyConstraint) []queries.ConstraintView {
	views := make([]queries.ConstraintView, 0, len(constraints))
	for _, c := range constraints {
		views = append(views, queries.ConstraintView{
			Type:        string(c.Type),
			Severity:    string(c.Severity),
			Message:     c.Message,
			EntryIDs:    c.EntryIDs,
			TimelineIDs: c.TimelineIDs,
		})
	}
	return views
}

func toOverlapViews(overlaps []services.ChronologyOverlap) []queries.OverlapView {
	views := make([]queries.OverlapView, 0, len(overlaps))
	for _, o := range overlaps {
		views = append(views, queries.OverlapView{
			Entry1ID:     o.Entry1ID,
			Entry2ID:     o.Entry2ID,
			OverlapStart: o.OverlapStart.Format(time.RFC3339),
			OverlapEnd:   o.OverlapEnd.Format(time.RFC3339),
			DurationDays: o.OverlapDurationDays,
		})
	}
	return views
}
