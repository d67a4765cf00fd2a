package dynamodb

import (
	"context"
	"fmt"
	"time"

	"lorekeeper-backend/application/ports"
	"lorekeeper-backend/domain/core/entities"
	"lorekeeper-backend/domain/core/valueobjects"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"
)

// QuestRepository implements ports.QuestRepository using DynamoDB
type QuestRepository struct {
	client    *dynamodb.Client
	tableName string
	logger    *zap.Logger
}

// NewQuestRepository creates a new QuestRepository
func NewQuestRepository(client *dynamodb.Client, tableName string, logger *zap.Logger) ports.QuestRepository {
	return &QuestRepository{client: client, tableName: tableName, logger: logger}
}

type questItem struct {
	PK          string `dynamodbav:"PK"`
	SK          string `dynamodbav:"SK"`
	EntityType  string `dynamodbav:"EntityType"`
	QuestID     string `dynamodbav:"QuestID"`
	UserID      string `dynamodbav:"UserID"`
	Title       string `dynamodbav:"Title"`
	Description string `dynamodbav:"Description,omitempty"`
	Status      string `dynamodbav:"Status"`
	TimelineID  string `dynamodbav:"TimelineID,omitempty"`
	StartedAt   string `dynamodbav:"StartedAt"`
	CompletedAt string `dynamodbav:"CompletedAt,omitempty"`
}

// Save persists a quest
func (r *QuestRepository) Save(ctx context.Context, quest *entities.Quest) error {
	item := questItem{
		PK:          fmt.Sprintf("USER#%s", quest.UserID),
		SK:          fmt.Sprintf("QUEST#%s", quest.ID),
		EntityType:  "QUEST",
		QuestID:     quest.ID,
		UserID:      quest.UserID,
		Title:       quest.Title,
		Description: quest.Description,
		Status:      quest.Status,
		StartedAt:   quest.StartedAt.Format(time.RFC3339),
	}
	if quest.TimelineID != nil {
		item.TimelineID = quest.TimelineID.String()
	}
	if quest.CompletedAt != nil {
		item.CompletedAt = quest.CompletedAt.Format(time.RFC3339)
	}

	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return fmt.Errorf("failed to marshal quest: %w", err)
	}
	if _, err := r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      av,
	}); err != nil {
		return fmt.Errorf("failed to save quest: %w", err)
	}
	return nil
}

// GetByUserID retrieves all quests for a user
func (r *QuestRepository) GetByUserID(ctx context.Context, userID string) ([]*entities.Quest, error) {
	result, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		KeyConditionExpression: aws.String("PK = :pk AND begins_with(SK, :sk)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: fmt.Sprintf("USER#%s", userID)},
			":sk": &types.AttributeValueMemberS{Value: "QUEST#"},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query quests: %w", err)
	}

	quests := make([]*entities.Quest, 0, len(result.Items))
	for _, raw := range result.Items {
		var item questItem
		if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
			r.logger.Warn("failed to unmarshal quest item", zap.Error(err))
			continue
		}
		quests = append(quests, questFromItem(item))
	}
	return quests, nil
}

// Delete removes a quest. The caller owns the partition so the user ID
// rides in the quest ID prefix convention.
func (r *QuestRepository) Delete(ctx context.Context, id string) error {
	return deleteByScan(ctx, r.client, r.tableName, "QUEST#"+id, "QuestID", id)
}

func questFromItem(item questItem) *entities.Quest {
	quest := &entities.Quest{
		ID:          item.QuestID,
		UserID:      item.UserID,
		Title:       item.Title,
		Description: item.Description,
		Status:      item.Status,
	}
	quest.StartedAt, _ = time.Parse(time.RFC3339, item.StartedAt)
	if item.TimelineID != "" {
		if timelineID, err := valueobjects.NewTimelineIDFromString(item.TimelineID); err == nil {
			quest.TimelineID = &timelineID
		}
	}
	if item.CompletedAt != "" {
		if completed, err := time.Parse(time.RFC3339, item.CompletedAt); err == nil {
			quest.CompletedAt = &completed
		}
	}
	return quest
}

// ReviewRepository implements ports.ReviewRepository using DynamoDB
type ReviewRepository struct {
	client    *dynamodb.Client
	tableName string
	logger    *zap.Logger
}

// NewReviewRepository creates a new ReviewRepository
func NewReviewRepository(client *dynamodb.Client, tableName string, logger *zap.Logger) ports.ReviewRepository {
	return &ReviewRepository{client: client, tableName: tableName, logger: logger}
}

type proposalItem struct {
	PK            string `dynamodbav:"PK"`
	SK            string `dynamodbav:"SK"`
	EntityType    string `dynamodbav:"EntityType"`
	ProposalID    string `dynamodbav:"ProposalID"`
	UserID        string `dynamodbav:"UserID"`
	EntryID       string `dynamodbav:"EntryID"`
	Kind          string `dynamodbav:"Kind"`
	ProposedStart string `dynamodbav:"ProposedStart,omitempty"`
	ProposedEnd   string `dynamodbav:"ProposedEnd,omitempty"`
	Precision     string `dynamodbav:"Precision,omitempty"`
	TimelineID    string `dynamodbav:"TimelineID,omitempty"`
	Reason        string `dynamodbav:"Reason,omitempty"`
	CreatedAt     string `dynamodbav:"CreatedAt"`
}

// Save persists a review proposal
func (r *ReviewRepository) Save(ctx context.Context, proposal *entities.ReviewProposal) error {
	item := proposalItem{
		PK:         fmt.Sprintf("USER#%s", proposal.UserID),
		SK:         fmt.Sprintf("PROPOSAL#%s", proposal.ID),
		EntityType: "PROPOSAL",
		ProposalID: proposal.ID,
		UserID:     proposal.UserID,
		EntryID:    proposal.EntryID.String(),
		Kind:       proposal.Kind,
		Precision:  string(proposal.Precision),
		Reason:     proposal.Reason,
		CreatedAt:  proposal.CreatedAt.Format(time.RFC3339),
	}
	if proposal.ProposedStart != nil {
		item.ProposedStart = proposal.ProposedStart.Format(time.RFC3339)
	}
	if proposal.ProposedEnd != nil {
		item.ProposedEnd = proposal.ProposedEnd.Format(time.RFC3339)
	}
	if proposal.TimelineID != nil {
		item.TimelineID = proposal.TimelineID.String()
	}

	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return fmt.Errorf("failed to marshal proposal: %w", err)
	}
	if _, err := r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      av,
	}); err != nil {
		return fmt.Errorf("failed to save proposal: %w", err)
	}
	return nil
}

// GetByUserID retrieves all pending proposals for a user
func (r *ReviewRepository) GetByUserID(ctx context.Context, userID string) ([]*entities.ReviewProposal, error) {
	result, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		KeyConditionExpression: aws.String("PK = :pk AND begins_with(SK, :sk)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: fmt.Sprintf("USER#%s", userID)},
			":sk": &types.AttributeValueMemberS{Value: "PROPOSAL#"},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query proposals: %w", err)
	}

	proposals := make([]*entities.ReviewProposal, 0, len(result.Items))
	for _, raw := range result.Items {
		var item proposalItem
		if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
			r.logger.Warn("failed to unmarshal proposal item", zap.Error(err))
			continue
		}
		proposal, err := proposalFromItem(item)
		if err != nil {
			continue
		}
		proposals = append(proposals, proposal)
	}
	return proposals, nil
}

// Delete removes a proposal
func (r *ReviewRepository) Delete(ctx context.Context, id string) error {
	return deleteByScan(ctx, r.client, r.tableName, "PROPOSAL#"+id, "ProposalID", id)
}

func proposalFromItem(item proposalItem) (*entities.ReviewProposal, error) {
	entryID, err := valueobjects.NewEntryIDFromString(item.EntryID)
	if err != nil {
		return nil, err
	}
	proposal := &entities.ReviewProposal{
		ID:        item.ProposalID,
		UserID:    item.UserID,
		EntryID:   entryID,
		Kind:      item.Kind,
		Precision: valueobjects.TimePrecision(item.Precision),
		Reason:    item.Reason,
	}
	proposal.CreatedAt, _ = time.Parse(time.RFC3339, item.CreatedAt)
	if item.ProposedStart != "" {
		if start, err := time.Parse(time.RFC3339, item.ProposedStart); err == nil {
			proposal.ProposedStart = &start
		}
	}
	if item.ProposedEnd != "" {
		if end, err := time.Parse(time.RFC3339, item.ProposedEnd); err == nil {
			proposal.ProposedEnd = &end
		}
	}
	if item.TimelineID != "" {
		if timelineID, err := valueobjects.NewTimelineIDFromString(item.TimelineID); err == nil {
			proposal.TimelineID = &timelineID
		}
	}
	return proposal, nil
}

// RelationshipRepository implements ports.RelationshipRepository using DynamoDB
type RelationshipRepository struct {
	client    *dynamodb.Client
	tableName string
	gsi2Name  string
	logger    *zap.Logger
}

// NewRelationshipRepository creates a new RelationshipRepository
func NewRelationshipRepository(client *dynamodb.Client, tableName, gsi2Name string, logger *zap.Logger) ports.RelationshipRepository {
	return &RelationshipRepository{client: client, tableName: tableName, gsi2Name: gsi2Name, logger: logger}
}

type relationshipItem struct {
	PK             string `dynamodbav:"PK"`
	SK             string `dynamodbav:"SK"`
	GSI2PK         string `dynamodbav:"GSI2PK"` // TIMELINE#<sourceID>
	GSI2SK         string `dynamodbav:"GSI2SK"` // REL#<relID>
	EntityType     string `dynamodbav:"EntityType"`
	RelationshipID string `dynamodbav:"RelationshipID"`
	SourceID       string `dynamodbav:"SourceID"`
	TargetID       string `dynamodbav:"TargetID"`
	Type           string `dynamodbav:"Type"`
	CreatedAt      string `dynamodbav:"CreatedAt"`
}

// Save persists a relationship edge. Each edge is written under both
// endpoints so either side can query its relationships.
func (r *RelationshipRepository) Save(ctx context.Context, rel *entities.TimelineRelationship) error {
	for _, anchor := range []string{rel.SourceID.String(), rel.TargetID.String()} {
		item := relationshipItem{
			PK:             fmt.Sprintf("TIMELINE#%s", anchor),
			SK:             fmt.Sprintf("REL#%s", rel.ID),
			GSI2PK:         fmt.Sprintf("TIMELINE#%s", anchor),
			GSI2SK:         fmt.Sprintf("REL#%s", rel.ID),
			EntityType:     "RELATIONSHIP",
			RelationshipID: rel.ID,
			SourceID:       rel.SourceID.String(),
			TargetID:       rel.TargetID.String(),
			Type:           string(rel.Type),
			CreatedAt:      rel.CreatedAt.Format(time.RFC3339),
		}
		av, err := attributevalue.MarshalMap(item)
		if err != nil {
			return fmt.Errorf("failed to marshal relationship: %w", err)
		}
		if _, err := r.client.PutItem(ctx, &dynamodb.PutItemInput{
			TableName: aws.String(r.tableName),
			Item:      av,
		}); err != nil {
			return fmt.Errorf("failed to save relationship: %w", err)
		}
	}
	return nil
}

// GetByTimelineID retrieves relationships touching a timeline in either
// direction
func (r *RelationshipRepository) GetByTimelineID(ctx context.Context, id valueobjects.TimelineID) ([]*entities.TimelineRelationship, error) {
	result, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		KeyConditionExpression: aws.String("PK = :pk AND begins_with(SK, :sk)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: fmt.Sprintf("TIMELINE#%s", id.String())},
			":sk": &types.AttributeValueMemberS{Value: "REL#"},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query relationships: %w", err)
	}

	rels := make([]*entities.TimelineRelationship, 0, len(result.Items))
	for _, raw := range result.Items {
		var item relationshipItem
		if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
			r.logger.Warn("failed to unmarshal relationship item", zap.Error(err))
			continue
		}
		rel, err := relationshipFromItem(item)
		if err != nil {
			continue
		}
		rels = append(rels, rel)
	}
	return rels, nil
}

// Delete removes a relationship from both endpoint partitions
func (r *RelationshipRepository) Delete(ctx context.Context, id string) error {
	return deleteByScan(ctx, r.client, r.tableName, "REL#"+id, "RelationshipID", id)
}

func relationshipFromItem(item relationshipItem) (*entities.TimelineRelationship, error) {
	sourceID, err := valueobjects.NewTimelineIDFromString(item.SourceID)
	if err != nil {
		return nil, err
	}
	targetID, err := valueobjects.NewTimelineIDFromString(item.TargetID)
	if err != nil {
		return nil, err
	}
	rel := &entities.TimelineRelationship{
		ID:       item.RelationshipID,
		SourceID: sourceID,
		TargetID: targetID,
		Type:     entities.RelationshipType(item.Type),
	}
	rel.CreatedAt, _ = time.Parse(time.RFC3339, item.CreatedAt)
	return rel, nil
}

// deleteByScan removes every item whose SK matches, scanning because the
// caller only knows the entity ID, not the partition. These deletes are
// rare administrative paths, not hot paths.
func deleteByScan(ctx context.Context, client *dynamodb.Client, tableName, sk, idAttr, id string) error {
	result, err := client.Scan(ctx, &dynamodb.ScanInput{
		TableName:        aws.String(tableName),
		FilterExpression: aws.String("SK = :sk AND " + idAttr + " = :id"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":sk": &types.AttributeValueMemberS{Value: sk},
			":id": &types.AttributeValueMemberS{Value: id},
		},
		ProjectionExpression: aws.String("PK, SK"),
	})
	if err != nil {
		return fmt.Errorf("failed to scan for delete: %w", err)
	}

	for _, raw := range result.Items {
		if _, err := client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
			TableName: aws.String(tableName),
			Key: map[string]types.AttributeValue{
				"PK": raw["PK"],
				"SK": raw["SK"],
			},
		}); err != nil {
			return fmt.Errorf("failed to delete item: %w", err)
		}
	}
	return nil
}
