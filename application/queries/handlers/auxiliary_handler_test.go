package handlers

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"lorekeeper-backend/application/broadcast"
	"lorekeeper-backend/application/queries"
	"lorekeeper-backend/domain/core/entities"
	"lorekeeper-backend/domain/core/valueobjects"
	"lorekeeper-backend/tests/mocks"
)

func TestListQuestsHandler_Handle(t *testing.T) {
	started := time.Date(2022, time.January, 10, 0, 0, 0, 0, time.UTC)

	newQuest := func(title, status string) *entities.Quest {
		return &entities.Quest{
			ID:        valueobjects.NewTimelineID().String(),
			UserID:    "user-123",
			Title:     title,
			Status:    status,
			StartedAt: started,
		}
	}

	t.Run("lists the user's quests", func(t *testing.T) {
		// Arrange
		questRepo := new(mocks.MockQuestRepository)
		questRepo.On("GetByUserID", mock.Anything, "user-123").
			Return([]*entities.Quest{newQuest("Learn the cello", entities.QuestStatusActive)}, nil)
		synthetic := new(mocks.MockSyntheticDataset)
		synthetic.On("Quests", "user-123").Return(nil)
		toggle := broadcast.NewDataSourceBroadcaster(zap.NewNop())
		handler := NewListQuestsHandler(questRepo, synthetic, toggle, zap.NewNop())

		// Act
		result, err := handler.Handle(context.Background(), queries.ListQuestsQuery{UserID: "user-123"})

		// Assert
		assert.NoError(t, err)
		assert.Len(t, result.Quests, 1)
		assert.Equal(t, "Learn the cello", result.Quests[0].Title)
		assert.Equal(t, started.Format(time.RFC3339), result.Quests[0].StartedAt)
		assert.Equal(t, "real", result.Provenance.Source)
	})

	t.Run("narrows by status", func(t *testing.T) {
		// Arrange
		questRepo := new(mocks.MockQuestRepository)
		questRepo.On("GetByUserID", mock.Anything, "user-123").
			Return([]*entities.Quest{
				newQuest("Learn the cello", entities.QuestStatusActive),
				newQuest("Finish the degree", entities.QuestStatusCompleted),
			}, nil)
		synthetic := new(mocks.MockSyntheticDataset)
		synthetic.On("Quests", "user-123").Return(nil)
		toggle := broadcast.NewDataSourceBroadcaster(zap.NewNop())
		handler := NewListQuestsHandler(questRepo, synthetic, toggle, zap.NewNop())

		// Act
		result, err := handler.Handle(context.Background(), queries.ListQuestsQuery{
			UserID: "user-123",
			Status: entities.QuestStatusCompleted,
		})

		// Assert
		assert.NoError(t, err)
		assert.Len(t, result.Quests, 1)
		assert.Equal(t, "Finish the degree", result.Quests[0].Title)
	})

	t.Run("serves the synthetic quest list when the toggle is on", func(t *testing.T) {
		// Arrange
		questRepo := new(mocks.MockQuestRepository)
		questRepo.On("GetByUserID", mock.Anything, "user-123").Return(nil, nil)
		synthetic := new(mocks.MockSyntheticDataset)
		synthetic.On("Quests", "user-123").
			Return([]*entities.Quest{newQuest("Demo quest", entities.QuestStatusActive)})
		toggle := broadcast.NewDataSourceBroadcaster(zap.NewNop())
		toggle.SetEnabled(true)
		handler := NewListQuestsHandler(questRepo, synthetic, toggle, zap.NewNop())

		// Act
		result, err := handler.Handle(context.Background(), queries.ListQuestsQuery{UserID: "user-123"})

		// Assert
		assert.NoError(t, err)
		assert.Len(t, result.Quests, 1)
		assert.True(t, result.Provenance.IsSynthetic)
	})

	t.Run("rejects a query without a user", func(t *testing.T) {
		toggle := broadcast.NewDataSourceBroadcaster(zap.NewNop())
		handler := NewListQuestsHandler(new(mocks.MockQuestRepository), new(mocks.MockSyntheticDataset), toggle, zap.NewNop())

		_, err := handler.Handle(context.Background(), queries.ListQuestsQuery{})

		assert.Error(t, err)
	})
}

func TestListProposalsHandler_Handle(t *testing.T) {
	t.Run("lists the review queue", func(t *testing.T) {
		// Arrange
		entryID := valueobjects.NewEntryID()
		timelineID := valueobjects.NewTimelineID()
		proposal := &entities.ReviewProposal{
			ID:         valueobjects.NewEntryID().String(),
			UserID:     "user-123",
			EntryID:    entryID,
			Kind:       entities.ProposalKindMembership,
			TimelineID: &timelineID,
			Reason:     "Mentions the first-job period",
			CreatedAt:  time.Date(2024, time.June, 1, 12, 0, 0, 0, time.UTC),
		}
		reviewRepo := new(mocks.MockReviewRepository)
		reviewRepo.On("GetByUserID", mock.Anything, "user-123").
			Return([]*entities.ReviewProposal{proposal}, nil)
		synthetic := new(mocks.MockSyntheticDataset)
		synthetic.On("Proposals", "user-123").Return(nil)
		toggle := broadcast.NewDataSourceBroadcaster(zap.NewNop())
		handler := NewListProposalsHandler(reviewRepo, synthetic, toggle, zap.NewNop())

		// Act
		result, err := handler.Handle(context.Background(), queries.ListProposalsQuery{UserID: "user-123"})

		// Assert
		assert.NoError(t, err)
		assert.Len(t, result.Proposals, 1)
		assert.Equal(t, "membership", result.Proposals[0].Kind)
		assert.Equal(t, entryID.String(), result.Proposals[0].EntryID)
		assert.Equal(t, timelineID.String(), result.Proposals[0].TimelineID)
		assert.Empty(t, result.Proposals[0].ProposedStart)
	})

	t.Run("rejects a query without a user", func(t *testing.T) {
		toggle := broadcast.NewDataSourceBroadcaster(zap.NewNop())
		handler := NewListProposalsHandler(new(mocks.MockReviewRepository), new(mocks.MockSyntheticDataset), toggle, zap.NewNop())

		_, err := handler.Handle(context.Background(), queries.ListProposalsQuery{})

		assert.Error(t, err)
	})
}
