package dynamodb

import (
	"context"
	"fmt"
	"time"

	"lorekeeper-backend/application/ports"
	"lorekeeper-backend/domain/core/entities"
	"lorekeeper-backend/domain/core/valueobjects"
	pkgerrors "lorekeeper-backend/pkg/errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"
)

// TimelineRepository implements ports.TimelineRepository using DynamoDB
type TimelineRepository struct {
	client    *dynamodb.Client
	tableName string
	logger    *zap.Logger
}

// NewTimelineRepository creates a new TimelineRepository
func NewTimelineRepository(client *dynamodb.Client, tableName string, logger *zap.Logger) ports.TimelineRepository {
	return &TimelineRepository{
		client:    client,
		tableName: tableName,
		logger:    logger,
	}
}

// timelineItem represents the DynamoDB item structure for a timeline
type timelineItem struct {
	PK          string                 `dynamodbav:"PK"`
	SK          string                 `dynamodbav:"SK"`
	GSI1PK      string                 `dynamodbav:"GSI1PK,omitempty"` // For timeline lookups by ID
	GSI1SK      string                 `dynamodbav:"GSI1SK,omitempty"` // Always "METADATA" for timelines
	EntityType  string                 `dynamodbav:"EntityType"`
	TimelineID  string                 `dynamodbav:"TimelineID"`
	UserID      string                 `dynamodbav:"UserID"`
	Title       string                 `dynamodbav:"Title"`
	Description string                 `dynamodbav:"Description"`
	Type        string                 `dynamodbav:"Type"`
	ParentID    string                 `dynamodbav:"ParentID,omitempty"`
	StartDate   string                 `dynamodbav:"StartDate"`
	EndDate     string                 `dynamodbav:"EndDate,omitempty"`
	Tags        []string               `dynamodbav:"Tags"`
	Metadata    map[string]interface{} `dynamodbav:"Metadata"`
	CreatedAt   string                 `dynamodbav:"CreatedAt"`
	UpdatedAt   string                 `dynamodbav:"UpdatedAt"`
	Version     int                    `dynamodbav:"Version"`
}

// Save persists a timeline to DynamoDB
func (r *TimelineRepository) Save(ctx context.Context, timeline *entities.Timeline) error {
	item := timelineItem{
		PK:          fmt.Sprintf("USER#%s", timeline.UserID()),
		SK:          fmt.Sprintf("TIMELINE#%s", timeline.ID().String()),
		GSI1PK:      fmt.Sprintf("TIMELINEID#%s", timeline.ID().String()),
		GSI1SK:      "METADATA",
		EntityType:  "TIMELINE",
		TimelineID:  timeline.ID().String(),
		UserID:      timeline.UserID(),
		Title:       timeline.Title(),
		Description: timeline.Description(),
		Type:        string(timeline.Type()),
		StartDate:   timeline.StartDate().Format(time.RFC3339),
		Tags:        timeline.Tags(),
		Metadata:    timeline.Metadata(),
		CreatedAt:   timeline.CreatedAt().Format(time.RFC3339),
		UpdatedAt:   timeline.UpdatedAt().Format(time.RFC3339),
		Version:     timeline.Version(),
	}
	if parent := timeline.ParentID(); parent != nil {
		item.ParentID = parent.String()
	}
	if end := timeline.EndDate(); end != nil {
		item.EndDate = end.Format(time.RFC3339)
	}

	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return fmt.Errorf("failed to marshal timeline: %w", err)
	}

	input := &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      av,
	}
	if _, err := r.client.PutItem(ctx, input); err != nil {
		r.logger.Error("failed to save timeline",
			zap.Error(err),
			zap.String("timelineID", timeline.ID().String()),
		)
		return fmt.Errorf("failed to save timeline: %w", err)
	}

	r.logger.Debug("saved timeline",
		zap.String("timelineID", timeline.ID().String()),
		zap.String("userID", timeline.UserID()),
	)
	return nil
}

// GetByID retrieves a timeline by its ID using GSI1
func (r *TimelineRepository) GetByID(ctx context.Context, id valueobjects.TimelineID) (*entities.Timeline, error) {
	input := &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String("GSI1"),
		KeyConditionExpression: aws.String("GSI1PK = :pk AND GSI1SK = :sk"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: fmt.Sprintf("TIMELINEID#%s", id.String())},
			":sk": &types.AttributeValueMemberS{Value: "METADATA"},
		},
		Limit: aws.Int32(1),
	}

	result, err := r.client.Query(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("failed to query timeline: %w", err)
	}
	if len(result.Items) == 0 {
		return nil, pkgerrors.NewNotFoundError(fmt.Sprintf("timeline %s", id.String()))
	}

	var item timelineItem
	if err := attributevalue.UnmarshalMap(result.Items[0], &item); err != nil {
		return nil, fmt.Errorf("failed to unmarshal timeline: %w", err)
	}
	return r.reconstruct(item)
}

// GetByUserID retrieves all timelines for a user
func (r *TimelineRepository) GetByUserID(ctx context.Context, userID string) ([]*entities.Timeline, error) {
	input := &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		KeyConditionExpression: aws.String("PK = :pk AND begins_with(SK, :sk)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: fmt.Sprintf("USER#%s", userID)},
			":sk": &types.AttributeValueMemberS{Value: "TIMELINE#"},
		},
	}

	result, err := r.client.Query(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("failed to query timelines: %w", err)
	}

	timelines := make([]*entities.Timeline, 0, len(result.Items))
	for _, raw := range result.Items {
		var item timelineItem
		if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
			r.logger.Warn("failed to unmarshal timeline item", zap.Error(err))
			continue
		}
		timeline, err := r.reconstruct(item)
		if err != nil {
			r.logger.Warn("failed to reconstruct timeline",
				zap.String("timelineID", item.TimelineID),
				zap.Error(err),
			)
			continue
		}
		timelines = append(timelines, timeline)
	}
	return timelines, nil
}

// Delete removes a timeline
func (r *TimelineRepository) Delete(ctx context.Context, id valueobjects.TimelineID) error {
	timeline, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}

	input := &dynamodb.DeleteItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: fmt.Sprintf("USER#%s", timeline.UserID())},
			"SK": &types.AttributeValueMemberS{Value: fmt.Sprintf("TIMELINE#%s", id.String())},
		},
	}
	if _, err := r.client.DeleteItem(ctx, input); err != nil {
		return fmt.Errorf("failed to delete timeline: %w", err)
	}
	return nil
}

func (r *TimelineRepository) reconstruct(item timelineItem) (*entities.Timeline, error) {
	id, err := valueobjects.NewTimelineIDFromString(item.TimelineID)
	if err != nil {
		return nil, err
	}

	kind, err := entities.ParseTimelineType(item.Type)
	if err != nil {
		return nil, err
	}

	var parentID *valueobjects.TimelineID
	if item.ParentID != "" {
		parsed, err := valueobjects.NewTimelineIDFromString(item.ParentID)
		if err != nil {
			return nil, fmt.Errorf("invalid parent ID: %w", err)
		}
		parentID = &parsed
	}

	startDate, err := time.Parse(time.RFC3339, item.StartDate)
	if err != nil {
		return nil, fmt.Errorf("invalid start date: %w", err)
	}
	var endDate *time.Time
	if item.EndDate != "" {
		parsed, err := time.Parse(time.RFC3339, item.EndDate)
		if err != nil {
			return nil, fmt.Errorf("invalid end date: %w", err)
		}
		endDate = &parsed
	}

	createdAt, _ := time.Parse(time.RFC3339, item.CreatedAt)
	updatedAt, _ := time.Parse(time.RFC3339, item.UpdatedAt)

	return entities.ReconstructTimeline(
		id,
		item.UserID, item.Title, item.Description,
		kind,
		parentID,
		startDate,
		endDate,
		item.Tags,
		item.Metadata,
		createdAt, updatedAt,
		item.Version,
	)
}
