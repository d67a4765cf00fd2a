package dynamodb

import (
	"context"
	"fmt"
	"strings"
	"time"

	"lorekeeper-backend/application/ports"
	"lorekeeper-backend/domain/core/entities"
	"lorekeeper-backend/domain/core/valueobjects"
	pkgerrors "lorekeeper-backend/pkg/errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"
)

// EntryRepository implements ports.EntryRepository using DynamoDB.
// Entries live under the user partition; each timeline membership is
// mirrored as its own item on GSI2 so timeline-scoped reads stay a
// single index query.
type EntryRepository struct {
	client    *dynamodb.Client
	tableName string
	gsi2Name  string
	logger    *zap.Logger
}

// NewEntryRepository creates a new EntryRepository
func NewEntryRepository(client *dynamodb.Client, tableName, gsi2Name string, logger *zap.Logger) ports.EntryRepository {
	return &EntryRepository{
		client:    client,
		tableName: tableName,
		gsi2Name:  gsi2Name,
		logger:    logger,
	}
}

// entryItem represents the DynamoDB item structure for a chronology entry
type entryItem struct {
	PK             string   `dynamodbav:"PK"`
	SK             string   `dynamodbav:"SK"`
	GSI1PK         string   `dynamodbav:"GSI1PK,omitempty"` // For entry lookups by ID
	GSI1SK         string   `dynamodbav:"GSI1SK,omitempty"`
	EntityType     string   `dynamodbav:"EntityType"`
	EntryID        string   `dynamodbav:"EntryID"`
	UserID         string   `dynamodbav:"UserID"`
	JournalEntryID string   `dynamodbav:"JournalEntryID,omitempty"`
	Content        string   `dynamodbav:"Content"`
	StartTime      string   `dynamodbav:"StartTime"`
	EndTime        string   `dynamodbav:"EndTime"`
	Precision      string   `dynamodbav:"Precision"`
	Confidence     float64  `dynamodbav:"Confidence"`
	Memberships    []string `dynamodbav:"Memberships"`
	Archived       bool     `dynamodbav:"Archived"`
	CorrectedFrom  string   `dynamodbav:"CorrectedFrom,omitempty"`
	CreatedAt      string   `dynamodbav:"CreatedAt"`
	UpdatedAt      string   `dynamodbav:"UpdatedAt"`
	Version        int      `dynamodbav:"Version"`
}

// membershipItem mirrors one entry-timeline membership onto GSI2
type membershipItem struct {
	PK         string `dynamodbav:"PK"`
	SK         string `dynamodbav:"SK"`
	GSI2PK     string `dynamodbav:"GSI2PK"` // TIMELINE#<timelineID>
	GSI2SK     string `dynamodbav:"GSI2SK"` // ENTRY#<entryID>
	EntityType string `dynamodbav:"EntityType"`
	EntryID    string `dynamodbav:"EntryID"`
	TimelineID string `dynamodbav:"TimelineID"`
	UserID     string `dynamodbav:"UserID"`
}

// Save persists an entry and keeps its membership mirror items in sync
func (r *EntryRepository) Save(ctx context.Context, entry *entities.ChronologyEntry) error {
	var previous []string
	if existing, err := r.GetByID(ctx, entry.ID()); err == nil && existing != nil {
		for _, id := range existing.TimelineMemberships() {
			previous = append(previous, id.String())
		}
	}

	memberships := make([]string, 0, len(entry.TimelineMemberships()))
	for _, id := range entry.TimelineMemberships() {
		memberships = append(memberships, id.String())
	}

	item := entryItem{
		PK:             fmt.Sprintf("USER#%s", entry.UserID()),
		SK:             fmt.Sprintf("ENTRY#%s", entry.ID().String()),
		GSI1PK:         fmt.Sprintf("ENTRYID#%s", entry.ID().String()),
		GSI1SK:         "METADATA",
		EntityType:     "ENTRY",
		EntryID:        entry.ID().String(),
		UserID:         entry.UserID(),
		JournalEntryID: entry.JournalEntryID(),
		Content:        entry.Content(),
		StartTime:      entry.Span().Start().Format(time.RFC3339),
		EndTime:        entry.Span().End().Format(time.RFC3339),
		Precision:      string(entry.Precision()),
		Confidence:     entry.Confidence().Value(),
		Memberships:    memberships,
		Archived:       entry.IsArchived(),
		CreatedAt:      entry.CreatedAt().Format(time.RFC3339),
		UpdatedAt:      entry.UpdatedAt().Format(time.RFC3339),
		Version:        entry.Version(),
	}
	if from := entry.CorrectedFrom(); from != nil {
		item.CorrectedFrom = from.String()
	}

	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return fmt.Errorf("failed to marshal entry: %w", err)
	}
	if _, err := r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      av,
	}); err != nil {
		r.logger.Error("failed to save entry",
			zap.Error(err),
			zap.String("entryID", entry.ID().String()),
		)
		return fmt.Errorf("failed to save entry: %w", err)
	}

	if err := r.syncMemberships(ctx, entry, previous, memberships); err != nil {
		return err
	}

	r.logger.Debug("saved entry",
		zap.String("entryID", entry.ID().String()),
		zap.Int("memberships", len(memberships)),
	)
	return nil
}

func (r *EntryRepository) syncMemberships(ctx context.Context, entry *entities.ChronologyEntry, previous, current []string) error {
	currentSet := make(map[string]bool, len(current))
	for _, id := range current {
		currentSet[id] = true
	}

	for _, timelineID := range previous {
		if currentSet[timelineID] {
			continue
		}
		if _, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
			TableName: aws.String(r.tableName),
			Key: map[string]types.AttributeValue{
				"PK": &types.AttributeValueMemberS{Value: fmt.Sprintf("USER#%s", entry.UserID())},
				"SK": &types.AttributeValueMemberS{Value: membershipSK(timelineID, entry.ID().String())},
			},
		}); err != nil {
			return fmt.Errorf("failed to remove membership item: %w", err)
		}
	}

	for _, timelineID := range current {
		m := membershipItem{
			PK:         fmt.Sprintf("USER#%s", entry.UserID()),
			SK:         membershipSK(timelineID, entry.ID().String()),
			GSI2PK:     fmt.Sprintf("TIMELINE#%s", timelineID),
			GSI2SK:     fmt.Sprintf("ENTRY#%s", entry.ID().String()),
			EntityType: "MEMBERSHIP",
			EntryID:    entry.ID().String(),
			TimelineID: timelineID,
			UserID:     entry.UserID(),
		}
		av, err := attributevalue.MarshalMap(m)
		if err != nil {
			return fmt.Errorf("failed to marshal membership: %w", err)
		}
		if _, err := r.client.PutItem(ctx, &dynamodb.PutItemInput{
			TableName: aws.String(r.tableName),
			Item:      av,
		}); err != nil {
			return fmt.Errorf("failed to save membership item: %w", err)
		}
	}
	return nil
}

func membershipSK(timelineID, entryID string) string {
	return fmt.Sprintf("MEMBERSHIP#%s#%s", timelineID, entryID)
}

// GetByID retrieves an entry by its ID using GSI1
func (r *EntryRepository) GetByID(ctx context.Context, id valueobjects.EntryID) (*entities.ChronologyEntry, error) {
	input := &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String("GSI1"),
		KeyConditionExpression: aws.String("GSI1PK = :pk AND GSI1SK = :sk"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: fmt.Sprintf("ENTRYID#%s", id.String())},
			":sk": &types.AttributeValueMemberS{Value: "METADATA"},
		},
		Limit: aws.Int32(1),
	}

	result, err := r.client.Query(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("failed to query entry: %w", err)
	}
	if len(result.Items) == 0 {
		return nil, pkgerrors.NewNotFoundError(fmt.Sprintf("entry %s", id.String()))
	}

	var item entryItem
	if err := attributevalue.UnmarshalMap(result.Items[0], &item); err != nil {
		return nil, fmt.Errorf("failed to unmarshal entry: %w", err)
	}
	return r.reconstruct(item)
}

// GetByUserID retrieves entries for a user matching the filter.
// Date, tag and text narrowing beyond what the filter expression covers
// happens at the application layer.
func (r *EntryRepository) GetByUserID(ctx context.Context, userID string, filter ports.EntryFilter) ([]*entities.ChronologyEntry, error) {
	keyCond := expression.Key("PK").Equal(expression.Value(fmt.Sprintf("USER#%s", userID))).
		And(expression.Key("SK").BeginsWith("ENTRY#"))

	builder := expression.NewBuilder().WithKeyCondition(keyCond)

	var filters []expression.ConditionBuilder
	if !filter.IncludeArchived {
		filters = append(filters, expression.Name("Archived").Equal(expression.Value(false)))
	}
	if filter.Start != nil {
		filters = append(filters, expression.Name("EndTime").GreaterThanEqual(expression.Value(filter.Start.Format(time.RFC3339))))
	}
	if filter.End != nil {
		filters = append(filters, expression.Name("StartTime").LessThanEqual(expression.Value(filter.End.Format(time.RFC3339))))
	}
	if len(filters) > 0 {
		combined := filters[0]
		for _, f := range filters[1:] {
			combined = combined.And(f)
		}
		builder = builder.WithFilter(combined)
	}

	expr, err := builder.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build query expression: %w", err)
	}

	input := &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		KeyConditionExpression:    expr.KeyCondition(),
		FilterExpression:          expr.Filter(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	}
	if filter.Limit > 0 {
		input.Limit = aws.Int32(int32(filter.Limit))
	}

	result, err := r.client.Query(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("failed to query entries: %w", err)
	}

	entries := make([]*entities.ChronologyEntry, 0, len(result.Items))
	for _, raw := range result.Items {
		var item entryItem
		if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
			r.logger.Warn("failed to unmarshal entry item", zap.Error(err))
			continue
		}
		if filter.Search != "" && !strings.Contains(strings.ToLower(item.Content), strings.ToLower(filter.Search)) {
			continue
		}
		entry, err := r.reconstruct(item)
		if err != nil {
			r.logger.Warn("failed to reconstruct entry",
				zap.String("entryID", item.EntryID),
				zap.Error(err),
			)
			continue
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// GetByTimelineID retrieves entries that are members of a timeline via
// the GSI2 membership mirror
func (r *EntryRepository) GetByTimelineID(ctx context.Context, timelineID valueobjects.TimelineID) ([]*entities.ChronologyEntry, error) {
	input := &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String(r.gsi2Name),
		KeyConditionExpression: aws.String("GSI2PK = :pk AND begins_with(GSI2SK, :sk)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: fmt.Sprintf("TIMELINE#%s", timelineID.String())},
			":sk": &types.AttributeValueMemberS{Value: "ENTRY#"},
		},
	}

	result, err := r.client.Query(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("failed to query memberships: %w", err)
	}

	entries := make([]*entities.ChronologyEntry, 0, len(result.Items))
	for _, raw := range result.Items {
		var m membershipItem
		if err := attributevalue.UnmarshalMap(raw, &m); err != nil {
			r.logger.Warn("failed to unmarshal membership item", zap.Error(err))
			continue
		}
		entryID, err := valueobjects.NewEntryIDFromString(m.EntryID)
		if err != nil {
			continue
		}
		entry, err := r.GetByID(ctx, entryID)
		if err != nil {
			r.logger.Warn("membership points at missing entry",
				zap.String("entryID", m.EntryID),
				zap.String("timelineID", m.TimelineID),
			)
			continue
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// Delete removes an entry and its membership mirror items
func (r *EntryRepository) Delete(ctx context.Context, id valueobjects.EntryID) error {
	entry, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}

	for _, timelineID := range entry.TimelineMemberships() {
		if _, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
			TableName: aws.String(r.tableName),
			Key: map[string]types.AttributeValue{
				"PK": &types.AttributeValueMemberS{Value: fmt.Sprintf("USER#%s", entry.UserID())},
				"SK": &types.AttributeValueMemberS{Value: membershipSK(timelineID.String(), id.String())},
			},
		}); err != nil {
			return fmt.Errorf("failed to delete membership item: %w", err)
		}
	}

	if _, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: fmt.Sprintf("USER#%s", entry.UserID())},
			"SK": &types.AttributeValueMemberS{Value: fmt.Sprintf("ENTRY#%s", id.String())},
		},
	}); err != nil {
		return fmt.Errorf("failed to delete entry: %w", err)
	}
	return nil
}

func (r *EntryRepository) reconstruct(item entryItem) (*entities.ChronologyEntry, error) {
	id, err := valueobjects.NewEntryIDFromString(item.EntryID)
	if err != nil {
		return nil, err
	}

	start, err := time.Parse(time.RFC3339, item.StartTime)
	if err != nil {
		return nil, fmt.Errorf("invalid start time: %w", err)
	}
	end, err := time.Parse(time.RFC3339, item.EndTime)
	if err != nil {
		return nil, fmt.Errorf("invalid end time: %w", err)
	}
	span, err := valueobjects.NewTimeSpan(start, end)
	if err != nil {
		return nil, err
	}

	precision, err := valueobjects.ParseTimePrecision(item.Precision)
	if err != nil {
		return nil, err
	}
	confidence, err := valueobjects.NewConfidence(item.Confidence)
	if err != nil {
		return nil, err
	}

	memberships := make([]valueobjects.TimelineID, 0, len(item.Memberships))
	for _, raw := range item.Memberships {
		timelineID, err := valueobjects.NewTimelineIDFromString(raw)
		if err != nil {
			continue
		}
		memberships = append(memberships, timelineID)
	}

	var correctedFrom *valueobjects.EntryID
	if item.CorrectedFrom != "" {
		parsed, err := valueobjects.NewEntryIDFromString(item.CorrectedFrom)
		if err == nil {
			correctedFrom = &parsed
		}
	}

	createdAt, _ := time.Parse(time.RFC3339, item.CreatedAt)
	updatedAt, _ := time.Parse(time.RFC3339, item.UpdatedAt)

	return entities.ReconstructChronologyEntry(
		id,
		item.UserID, item.JournalEntryID, item.Content,
		span,
		precision,
		confidence,
		memberships,
		item.Archived,
		correctedFrom,
		createdAt, updatedAt,
		item.Version,
	)
}
