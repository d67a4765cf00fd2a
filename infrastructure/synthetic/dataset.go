package synthetic

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"lorekeeper-backend/application/ports"
	"lorekeeper-backend/domain/core/entities"
	"lorekeeper-backend/domain/core/valueobjects"
)

// namespace for deriving stable IDs; regenerating the dataset for the
// same user and seed must yield identical entities
var idNamespace = uuid.MustParse("7f1c2c6e-9d1a-4b7e-8a0f-3d5e6c9b1a2d")

// Dataset implements ports.SyntheticDataset with deterministic demo
// content. Generation takes no external input: the same user and seed
// always produce the same timelines, entries, quests and proposals.
type Dataset struct {
	seed   int64
	logger *zap.Logger
}

// NewDataset creates a deterministic synthetic dataset
func NewDataset(seed int64, logger *zap.Logger) ports.SyntheticDataset {
	return &Dataset{seed: seed, logger: logger}
}

func (d *Dataset) stableID(userID, kind string, n int) uuid.UUID {
	return uuid.NewSHA1(idNamespace, []byte(fmt.Sprintf("%d:%s:%s:%d", d.seed, userID, kind, n)))
}

func (d *Dataset) timelineID(userID string, n int) valueobjects.TimelineID {
	id, _ := valueobjects.NewTimelineIDFromString(d.stableID(userID, "timeline", n).String())
	return id
}

func (d *Dataset) entryID(userID string, n int) valueobjects.EntryID {
	id, _ := valueobjects.NewEntryIDFromString(d.stableID(userID, "entry", n).String())
	return id
}

// anchor is the fixed reference date all synthetic content hangs off.
// Fixed, not time.Now(), to keep regeneration deterministic.
var anchor = time.Date(2024, time.June, 1, 12, 0, 0, 0, time.UTC)

type timelineSeed struct {
	title       string
	description string
	kind        entities.TimelineType
	parent      int // index into the seed list, -1 for roots
	startYears  int // years before anchor
	endYears    int // years before anchor, 0 for ongoing
	tags        []string
}

var timelineSeeds = []timelineSeed{
	{"University Years", "Undergraduate degree and everything around it", entities.TimelineTypeLifeEra, -1, 8, 4, []string{"education"}},
	{"First Job", "Junior developer at a small shop", entities.TimelineTypeLifeEra, -1, 4, 1, []string{"work"}},
	{"Thesis Project", "Final-year research project", entities.TimelineTypeSubTimeline, 0, 5, 4, []string{"education", "research"}},
	{"Side Project: Home Server", "Self-hosting experiments", entities.TimelineTypeSubTimeline, -1, 2, 0, []string{"hobby", "tech"}},
}

// Timelines generates the demo timeline set for a user
func (d *Dataset) Timelines(userID string) []*entities.Timeline {
	timelines := make([]*entities.Timeline, 0, len(timelineSeeds))
	for i, seed := range timelineSeeds {
		var parentID *valueobjects.TimelineID
		if seed.parent >= 0 {
			pid := d.timelineID(userID, seed.parent)
			parentID = &pid
		}
		start := anchor.AddDate(-seed.startYears, 0, 0)
		var end *time.Time
		if seed.endYears > 0 {
			e := anchor.AddDate(-seed.endYears, 0, 0)
			end = &e
		}

		timeline, err := entities.ReconstructTimeline(
			d.timelineID(userID, i),
			userID, seed.title, seed.description,
			seed.kind,
			parentID,
			start,
			end,
			seed.tags,
			map[string]interface{}{"synthetic": true},
			start, start,
			1,
		)
		if err != nil {
			d.logger.Warn("skipping malformed synthetic timeline",
				zap.String("title", seed.title),
				zap.Error(err),
			)
			continue
		}
		timelines = append(timelines, timeline)
	}
	return timelines
}

type entrySeed struct {
	content    string
	timeline   int // index into timelineSeeds, -1 for unplaced
	yearsAgo   int
	monthShift int
	days       int // span length
	precision  valueobjects.TimePrecision
	confidence float64
}

var entrySeeds = []entrySeed{
	{"Moved into the dorms, met my roommate", 0, 8, 1, 2, valueobjects.PrecisionDay, 0.9},
	{"Switched majors after the algorithms course", 0, 7, 3, 1, valueobjects.PrecisionMonth, 0.7},
	{"First thesis meeting with my advisor", 2, 5, 0, 1, valueobjects.PrecisionDay, 1.0},
	{"Submitted the thesis, barely slept that week", 2, 4, -2, 7, valueobjects.PrecisionDay, 1.0},
	{"Graduation ceremony", 0, 4, 0, 1, valueobjects.PrecisionExact, 1.0},
	{"First day at the new job, forgot my badge", 1, 4, 1, 1, valueobjects.PrecisionDay, 0.95},
	{"Shipped my first real feature", 1, 3, 2, 1, valueobjects.PrecisionMonth, 0.8},
	{"Bought the used rack server off a classified ad", 3, 2, 0, 1, valueobjects.PrecisionDay, 0.9},
	{"Weekend migrating everything to the home server", 3, 1, 4, 3, valueobjects.PrecisionDay, 0.85},
	{"Some summer around then I picked up climbing", -1, 6, 2, 60, valueobjects.PrecisionApproximate, 0.4},
}

// Entries generates the demo chronology for a user
func (d *Dataset) Entries(userID string) []*entities.ChronologyEntry {
	entries := make([]*entities.ChronologyEntry, 0, len(entrySeeds))
	for i, seed := range entrySeeds {
		start := anchor.AddDate(-seed.yearsAgo, seed.monthShift, 0)
		end := start.AddDate(0, 0, seed.days)
		span, err := valueobjects.NewTimeSpan(start, end)
		if err != nil {
			continue
		}
		confidence, err := valueobjects.NewConfidence(seed.confidence)
		if err != nil {
			continue
		}

		var memberships []valueobjects.TimelineID
		if seed.timeline >= 0 {
			memberships = append(memberships, d.timelineID(userID, seed.timeline))
		}

		entry, err := entities.ReconstructChronologyEntry(
			d.entryID(userID, i),
			userID, "", seed.content,
			span,
			seed.precision,
			confidence,
			memberships,
			false,
			nil,
			start, start,
			1,
		)
		if err != nil {
			d.logger.Warn("skipping malformed synthetic entry",
				zap.Int("index", i),
				zap.Error(err),
			)
			continue
		}
		entries = append(entries, entry)
	}
	return entries
}

// Quests generates the demo quest list for a user
func (d *Dataset) Quests(userID string) []*entities.Quest {
	homelab := d.timelineID(userID, 3)
	completed := anchor.AddDate(-4, 0, 0)

	return []*entities.Quest{
		{
			ID:        d.stableID(userID, "quest", 0).String(),
			UserID:    userID,
			Title:     "Finish the degree",
			Status:    entities.QuestStatusCompleted,
			StartedAt: anchor.AddDate(-8, 0, 0),
			CompletedAt: func() *time.Time {
				t := completed
				return &t
			}(),
		},
		{
			ID:          d.stableID(userID, "quest", 1).String(),
			UserID:      userID,
			Title:       "Self-host everything",
			Description: "Move personal services off third-party platforms",
			Status:      entities.QuestStatusActive,
			TimelineID:  &homelab,
			StartedAt:   anchor.AddDate(-2, 0, 0),
		},
	}
}

// Proposals generates the demo review queue for a user
func (d *Dataset) Proposals(userID string) []*entities.ReviewProposal {
	firstJob := d.timelineID(userID, 1)
	proposedStart := anchor.AddDate(-6, 3, 0)

	return []*entities.ReviewProposal{
		{
			ID:            d.stableID(userID, "proposal", 0).String(),
			UserID:        userID,
			EntryID:       d.entryID(userID, 9),
			Kind:          entities.ProposalKindRelocate,
			ProposedStart: &proposedStart,
			Precision:     valueobjects.PrecisionMonth,
			Reason:        "Climbing photos in your library cluster around this month",
			CreatedAt:     anchor,
		},
		{
			ID:         d.stableID(userID, "proposal", 1).String(),
			UserID:     userID,
			EntryID:    d.entryID(userID, 6),
			Kind:       entities.ProposalKindMembership,
			TimelineID: &firstJob,
			Reason:     "Mentions shipping a feature during the first-job period",
			CreatedAt:  anchor,
		},
	}
}
