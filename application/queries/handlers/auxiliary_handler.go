package handlers

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"lorekeeper-backend/application/broadcast"
	"lorekeeper-backend/application/ports"
	"lorekeeper-backend/application/queries"
	"lorekeeper-backend/application/reconcile"
	"lorekeeper-backend/domain/core/entities"
)

// ListQuestsHandler handles quest listing queries
type ListQuestsHandler struct {
	questRepo ports.QuestRepository
	synthetic ports.SyntheticDataset
	toggle    *broadcast.DataSourceBroadcaster
	logger    *zap.Logger
}

// NewListQuestsHandler creates a new handler instance
func NewListQuestsHandler(
	questRepo ports.QuestRepository,
	synthetic ports.SyntheticDataset,
	toggle *broadcast.DataSourceBroadcaster,
	logger *zap.Logger,
) *ListQuestsHandler {
	return &ListQuestsHandler{
		questRepo: questRepo,
		synthetic: synthetic,
		toggle:    toggle,
		logger:    logger,
	}
}

// Handle executes the list quests query
func (h *ListQuestsHandler) Handle(ctx context.Context, query queries.ListQuestsQuery) (*queries.ListQuestsResult, error) {
	if err := query.Validate(); err != nil {
		return nil, fmt.Errorf("invalid query: %w", err)
	}

	real, fetchErr := h.questRepo.GetByUserID(ctx, query.UserID)
	if fetchErr != nil {
		h.logger.Warn("quest fetch failed",
			zap.String("userID", query.UserID),
			zap.Error(fetchErr),
		)
	}

	result, err := reconcile.ReconcileFetch(real, fetchErr, h.synthetic.Quests(query.UserID), h.toggle.Enabled())
	if err != nil {
		return nil, err
	}
	if query.Status != "" {
		result = reconcile.Filter(result, func(quest *entities.Quest) bool {
			return quest.Status == query.Status
		})
	}

	views := make([]queries.QuestView, 0, len(result.Data))
	for _, quest := range result.Data {
		views = append(views, toQuestView(quest))
	}

	return &queries.ListQuestsResult{
		Quests:     views,
		Provenance: toProvenance(result.Metadata),
	}, nil
}

func toQuestView(quest *entities.Quest) queries.QuestView {
	view := queries.QuestView{
		ID:          quest.ID,
		Title:       quest.Title,
		Description: quest.Description,
		Status:      quest.Status,
		StartedAt:   quest.StartedAt.Format(time.RFC3339),
	}
	if quest.TimelineID != nil {
		view.TimelineID = quest.TimelineID.String()
	}
	if quest.CompletedAt != nil {
		view.CompletedAt = quest.CompletedAt.Format(time.RFC3339)
	}
	return view
}

// ListProposalsHandler handles memory-review queue queries
type ListProposalsHandler struct {
	reviewRepo ports.ReviewRepository
	synthetic  ports.SyntheticDataset
	toggle     *broadcast.DataSourceBroadcaster
	logger     *zap.Logger
}

// NewListProposalsHandler creates a new handler instance
func NewListProposalsHandler(
	reviewRepo ports.ReviewRepository,
	synthetic ports.SyntheticDataset,
	toggle *broadcast.DataSourceBroadcaster,
	logger *zap.Logger,
) *ListProposalsHandler {
	return &ListProposalsHandler{
		reviewRepo: reviewRepo,
		synthetic:  synthetic,
		toggle:     toggle,
		logger:     logger,
	}
}

// Handle executes the list proposals query
func (h *ListProposalsHandler) Handle(ctx context.Context, query queries.ListProposalsQuery) (*queries.ListProposalsResult, error) {
	if err := query.Validate(); err != nil {
		return nil, fmt.Errorf("invalid query: %w", err)
	}

	real, fetchErr := h.reviewRepo.GetByUserID(ctx, query.UserID)
	if fetchErr != nil {
		h.logger.Warn("proposal fetch failed",
			zap.String("userID", query.UserID),
			zap.Error(fetchErr),
		)
	}

	result, err := reconcile.ReconcileFetch(real, fetchErr, h.synthetic.Proposals(query.UserID), h.toggle.Enabled())
	if err != nil {
		return nil, err
	}

	views := make([]queries.ProposalView, 0, len(result.Data))
	for _, proposal := range result.Data {
		views = append(views, toProposalView(proposal))
	}

	return &queries.ListProposalsResult{
		Proposals:  views,
		Provenance: toProvenance(result.Metadata),
	}, nil
}

func toProposalView(proposal *entities.ReviewProposal) queries.ProposalView {
	view := queries.ProposalView{
		ID:        proposal.ID,
		Kind:      proposal.Kind,
		EntryID:   proposal.EntryID.String(),
		Reason:    proposal.Reason,
		CreatedAt: proposal.CreatedAt.Format(time.RFC3339),
	}
	if proposal.TimelineID != nil {
		view.TimelineID = proposal.TimelineID.String()
	}
	if proposal.ProposedStart != nil {
		view.ProposedStart = proposal.ProposedStart.Format(time.RFC3339)
	}
	if proposal.ProposedEnd != nil {
		view.ProposedEnd = proposal.ProposedEnd.Format(time.RFC3339)
	}
	return view
}
