package dynamodb

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"lorekeeper-backend/domain/events"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"
)

// EventStore persists domain events to DynamoDB with outbox status
// fields so the outbox processor can publish them asynchronously
type EventStore struct {
	client    *dynamodb.Client
	tableName string
}

// PublishStatus represents the publishing status of an event
type PublishStatus string

const (
	PublishStatusPending   PublishStatus = "pending"
	PublishStatusPublished PublishStatus = "published"
	PublishStatusFailed    PublishStatus = "failed"
)

// EventRecord represents how events are stored in DynamoDB
type EventRecord struct {
	PK          string `dynamodbav:"PK"` // EVENTS#<aggregate_id>
	SK          string `dynamodbav:"SK"` // EVENT#<timestamp>#<event_id>
	EventID     string `dynamodbav:"EventID"`
	EventType   string `dynamodbav:"EventType"`
	AggregateID string `dynamodbav:"AggregateID"`
	Payload     string `dynamodbav:"Payload"` // event JSON
	Timestamp   string `dynamodbav:"Timestamp"`
	Version     int    `dynamodbav:"Version"`

	// Outbox fields
	PublishStatus   string `dynamodbav:"PublishStatus"`
	PublishAttempts int    `dynamodbav:"PublishAttempts"`
	PublishedAt     string `dynamodbav:"PublishedAt,omitempty"`
	ErrorMessage    string `dynamodbav:"ErrorMessage,omitempty"`

	// GSI2 lets the outbox processor sweep pending events
	GSI2PK string `dynamodbav:"GSI2PK"` // OUTBOX#<status>
	GSI2SK string `dynamodbav:"GSI2SK"` // EVENT#<timestamp>

	// 90 day retention
	TTL int64 `dynamodbav:"TTL,omitempty"`
}

// NewEventStore creates a new DynamoDB event store
func NewEventStore(client *dynamodb.Client, tableName string) *EventStore {
	return &EventStore{
		client:    client,
		tableName: tableName,
	}
}

// SaveEvents persists domain events in pending state
func (es *EventStore) SaveEvents(ctx context.Context, domainEvents []events.DomainEvent) error {
	if len(domainEvents) == 0 {
		return nil
	}

	writeRequests := make([]types.WriteRequest, 0, len(domainEvents))
	for _, event := range domainEvents {
		record, err := es.eventToRecord(event)
		if err != nil {
			return fmt.Errorf("failed to convert event to record: %w", err)
		}
		item, err := attributevalue.MarshalMap(record)
		if err != nil {
			return fmt.Errorf("failed to marshal event record: %w", err)
		}
		writeRequests = append(writeRequests, types.WriteRequest{
			PutRequest: &types.PutRequest{Item: item},
		})
	}

	// DynamoDB limit is 25 items per batch
	for i := 0; i < len(writeRequests); i += 25 {
		end := i + 25
		if end > len(writeRequests) {
			end = len(writeRequests)
		}
		result, err := es.client.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{
			RequestItems: map[string][]types.WriteRequest{
				es.tableName: writeRequests[i:end],
			},
		})
		if err != nil {
			return fmt.Errorf("failed to write events batch: %w", err)
		}
		if len(result.UnprocessedItems) > 0 {
			return fmt.Errorf("failed to write %d events", len(result.UnprocessedItems[es.tableName]))
		}
	}
	return nil
}

// GetEvents retrieves all events for an aggregate in order
func (es *EventStore) GetEvents(ctx context.Context, aggregateID string) ([]events.DomainEvent, error) {
	result, err := es.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(es.tableName),
		KeyConditionExpression: aws.String("PK = :pk AND begins_with(SK, :sk)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: fmt.Sprintf("EVENTS#%s", aggregateID)},
			":sk": &types.AttributeValueMemberS{Value: "EVENT#"},
		},
		ScanIndexForward: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}

	out := make([]events.DomainEvent, 0, len(result.Items))
	for _, raw := range result.Items {
		var record EventRecord
		if err := attributevalue.UnmarshalMap(raw, &record); err != nil {
			return nil, fmt.Errorf("failed to unmarshal event record: %w", err)
		}
		event, err := recordToEvent(record)
		if err != nil {
			return nil, err
		}
		out = append(out, event)
	}
	return out, nil
}

// GetPendingEvents returns events that have not been published yet
func (es *EventStore) GetPendingEvents(ctx context.Context, limit int32) ([]*EventRecord, error) {
	result, err := es.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(es.tableName),
		IndexName:              aws.String("GSI2"),
		KeyConditionExpression: aws.String("GSI2PK = :pk"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: fmt.Sprintf("OUTBOX#%s", PublishStatusPending)},
		},
		Limit:            aws.Int32(limit),
		ScanIndexForward: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query pending events: %w", err)
	}

	records := make([]*EventRecord, 0, len(result.Items))
	for _, raw := range result.Items {
		var record EventRecord
		if err := attributevalue.UnmarshalMap(raw, &record); err != nil {
			continue
		}
		records = append(records, &record)
	}
	return records, nil
}

// MarkEventAsPublished transitions a pending event to published
func (es *EventStore) MarkEventAsPublished(ctx context.Context, pk, sk string) error {
	now := time.Now().Format(time.RFC3339)
	_, err := es.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(es.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: pk},
			"SK": &types.AttributeValueMemberS{Value: sk},
		},
		UpdateExpression: aws.String("SET PublishStatus = :status, PublishedAt = :at, GSI2PK = :gsi2pk"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":status": &types.AttributeValueMemberS{Value: string(PublishStatusPublished)},
			":at":     &types.AttributeValueMemberS{Value: now},
			":gsi2pk": &types.AttributeValueMemberS{Value: fmt.Sprintf("OUTBOX#%s", PublishStatusPublished)},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to mark event published: %w", err)
	}
	return nil
}

// MarkEventAsFailed records a failed publish attempt
func (es *EventStore) MarkEventAsFailed(ctx context.Context, pk, sk, errorMsg string, attempts int) error {
	status := PublishStatusPending
	if attempts >= 3 {
		status = PublishStatusFailed
	}
	_, err := es.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(es.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: pk},
			"SK": &types.AttributeValueMemberS{Value: sk},
		},
		UpdateExpression: aws.String("SET PublishStatus = :status, PublishAttempts = :attempts, ErrorMessage = :err, GSI2PK = :gsi2pk"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":status":   &types.AttributeValueMemberS{Value: string(status)},
			":attempts": &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", attempts)},
			":err":      &types.AttributeValueMemberS{Value: errorMsg},
			":gsi2pk":   &types.AttributeValueMemberS{Value: fmt.Sprintf("OUTBOX#%s", status)},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to mark event failed: %w", err)
	}
	return nil
}

func (es *EventStore) eventToRecord(event events.DomainEvent) (*EventRecord, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event payload: %w", err)
	}

	eventID := uuid.New().String()
	timestamp := event.GetTimestamp().Format(time.RFC3339Nano)

	return &EventRecord{
		PK:            fmt.Sprintf("EVENTS#%s", event.GetAggregateID()),
		SK:            fmt.Sprintf("EVENT#%s#%s", timestamp, eventID),
		EventID:       eventID,
		EventType:     event.GetEventType(),
		AggregateID:   event.GetAggregateID(),
		Payload:       string(payload),
		Timestamp:     timestamp,
		Version:       event.GetVersion(),
		PublishStatus: string(PublishStatusPending),
		GSI2PK:        fmt.Sprintf("OUTBOX#%s", PublishStatusPending),
		GSI2SK:        fmt.Sprintf("EVENT#%s", timestamp),
		TTL:           event.GetTimestamp().Add(90 * 24 * time.Hour).Unix(),
	}, nil
}

// RecordToEvent reconstructs a typed domain event from its stored record
func RecordToEvent(record *EventRecord) (events.DomainEvent, error) {
	return recordToEvent(*record)
}

func recordToEvent(record EventRecord) (events.DomainEvent, error) {
	payload := []byte(record.Payload)

	switch record.EventType {
	case "timeline.created":
		var e events.TimelineCreated
		return unmarshalEvent(payload, &e)
	case "timeline.renamed":
		var e events.TimelineRenamed
		return unmarshalEvent(payload, &e)
	case "timeline.redated":
		var e events.TimelineRedated
		return unmarshalEvent(payload, &e)
	case "timeline.reparented":
		var e events.TimelineReparented
		return unmarshalEvent(payload, &e)
	case "timeline.merged":
		var e events.TimelinesMerged
		return unmarshalEvent(payload, &e)
	case "entry.created":
		var e events.EntryCreated
		return unmarshalEvent(payload, &e)
	case "entry.relocated":
		var e events.EntryRelocated
		return unmarshalEvent(payload, &e)
	case "entry.archived":
		var e events.EntryArchived
		return unmarshalEvent(payload, &e)
	case "entry.membership_added":
		var e events.MembershipAdded
		return unmarshalEvent(payload, &e)
	case "entry.membership_removed":
		var e events.MembershipRemoved
		return unmarshalEvent(payload, &e)
	case "system.data_source_switched":
		var e events.DataSourceSwitched
		return unmarshalEvent(payload, &e)
	default:
		return nil, fmt.Errorf("unknown event type: %s", record.EventType)
	}
}

func unmarshalEvent[T events.DomainEvent](payload []byte, target *T) (events.DomainEvent, error) {
	if err := json.Unmarshal(payload, target); err != nil {
		return nil, fmt.Errorf("failed to unmarshal event payload: %w", err)
	}
	return *target, nil
}
