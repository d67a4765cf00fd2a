package services

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"lorekeeper-backend/application/ports"
	"lorekeeper-backend/domain/core/entities"
	"lorekeeper-backend/domain/core/valueobjects"
)

// MembershipService provides direct membership inference for chronology
// entries. It is used internally by Lambda functions for efficient
// placement without the overhead of the command bus.
type MembershipService struct {
	timelineRepo ports.TimelineRepository
	entryRepo    ports.EntryRepository
	logger       *zap.Logger
}

// NewMembershipService creates a new membership service
func NewMembershipService(
	timelineRepo ports.TimelineRepository,
	entryRepo ports.EntryRepository,
	logger *zap.Logger,
) *MembershipService {
	return &MembershipService{
		timelineRepo: timelineRepo,
		entryRepo:    entryRepo,
		logger:       logger,
	}
}

// InferMemberships scores a new entry against the user's timelines and
// attaches it to the best matches. A timeline is a candidate only when
// its span covers the entry's dates; ranking within candidates uses
// keyword and tag overlap.
func (s *MembershipService) InferMemberships(
	ctx context.Context,
	entryID string,
	userID string,
	keywords []string,
	tags []string,
) ([]string, error) {
	if entryID == "" || userID == "" {
		return nil, fmt.Errorf("invalid input: entryID and userID are required")
	}

	s.logger.Debug("inferring memberships for entry",
		zap.String("entryID", entryID),
		zap.Int("keywords", len(keywords)),
		zap.Int("tags", len(tags)),
	)

	eid, err := valueobjects.NewEntryIDFromString(entryID)
	if err != nil {
		return nil, fmt.Errorf("invalid entry ID: %w", err)
	}
	entry, err := s.entryRepo.GetByID(ctx, eid)
	if err != nil {
		return nil, fmt.Errorf("failed to get entry: %w", err)
	}
	if entry == nil || entry.UserID() != userID {
		return nil, fmt.Errorf("entry not found for user")
	}

	timelines, err := s.timelineRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get timelines: %w", err)
	}
	if len(timelines) == 0 {
		return nil, nil
	}

	keywordSet := make(map[string]bool, len(keywords))
	for _, kw := range keywords {
		if kw != "" {
			keywordSet[strings.ToLower(kw)] = true
		}
	}
	tagSet := make(map[string]bool, len(tags))
	for _, tag := range tags {
		if tag != "" {
			tagSet[strings.ToLower(tag)] = true
		}
	}

	maxMemberships := 3
	scoreThreshold := 0.2

	type timelineScore struct {
		timeline *entities.Timeline
		score    float64
	}

	scored := make([]timelineScore, 0, len(timelines))
	for _, timeline := range timelines {
		if entry.BelongsTo(timeline.ID()) {
			continue
		}
		if !coversEntry(timeline, entry) {
			continue
		}
		score := s.scoreTimeline(timeline, keywordSet, tagSet)
		if score > scoreThreshold {
			scored = append(scored, timelineScore{timeline: timeline, score: score})
		}
	}

	sort.Slice(scored, func(i, j int) bool {
		return scored[i].score > scored[j].score
	})
	if len(scored) > maxMemberships {
		scored = scored[:maxMemberships]
	}

	var attached []string
	for _, ts := range scored {
		if err := entry.AddToTimeline(ts.timeline.ID()); err != nil {
			s.logger.Warn("failed to attach entry to timeline",
				zap.Error(err),
				zap.String("entryID", entryID),
				zap.String("timelineID", ts.timeline.ID().String()),
			)
			continue
		}
		attached = append(attached, ts.timeline.ID().String())

		s.logger.Debug("attached entry to timeline",
			zap.String("entryID", entryID),
			zap.String("timelineID", ts.timeline.ID().String()),
			zap.Float64("score", ts.score),
		)
	}

	if len(attached) > 0 {
		if err := s.entryRepo.Save(ctx, entry); err != nil {
			return nil, fmt.Errorf("failed to save entry with new memberships: %w", err)
		}

		s.logger.Info("inferred memberships for entry",
			zap.String("entryID", entryID),
			zap.Int("count", len(attached)),
		)
	}

	return attached, nil
}

// coversEntry reports whether the timeline's span contains the entry's
// dated interval. Ongoing timelines have an open end.
func coversEntry(timeline *entities.Timeline, entry *entities.ChronologyEntry) bool {
	span := entry.Span()
	if span.Start().Before(timeline.StartDate()) {
		return false
	}
	if end := timeline.EndDate(); end != nil && span.End().After(*end) {
		return false
	}
	return true
}

// scoreTimeline measures keyword and tag overlap between the source
// entry and a candidate timeline
func (s *MembershipService) scoreTimeline(
	timeline *entities.Timeline,
	sourceKeywords map[string]bool,
	sourceTags map[string]bool,
) float64 {
	if timeline == nil || (len(sourceKeywords) == 0 && len(sourceTags) == 0) {
		return 0
	}

	matches := 0
	total := len(sourceKeywords) + len(sourceTags)

	timelineWords := extractWords(timeline.Title() + " " + timeline.Description())
	for keyword := range sourceKeywords {
		if timelineWords[keyword] {
			matches++
		}
	}

	for _, tag := range timeline.Tags() {
		if sourceTags[strings.ToLower(tag)] {
			matches++
		}
	}

	if total == 0 {
		return 0
	}
	return float64(matches) / float64(total)
}

// extractWords splits text into a lowercase word set for O(1) lookups
func extractWords(text string) map[string]bool {
	words := make(map[string]bool)
	for _, word := range strings.Fields(strings.ToLower(text)) {
		word = strings.Trim(word, ".,!?;:\"'()[]{}")
		if len(word) > 2 {
			words[word] = true
		}
	}
	return words
}
