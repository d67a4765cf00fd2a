// Package main implements the WebSocket notification Lambda.
// It fans domain events out to connected WebSocket clients, either for a
// specific user or as a full broadcast.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/apigatewaymanagementapi"
	apigwTypes "github.com/aws/aws-sdk-go-v2/service/apigatewaymanagementapi/types"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

var dynamoClient *dynamodb.Client

// BroadcastMessage represents a message to be sent to WebSocket clients
type BroadcastMessage struct {
	EventType    string                 `json:"event_type"`
	TargetUserID string                 `json:"target_user_id,omitempty"`
	TargetUsers  []string               `json:"target_users,omitempty"`
	Broadcast    bool                   `json:"broadcast,omitempty"`
	Payload      map[string]interface{} `json:"payload"`
}

// WebSocketMessage represents the message format sent to clients
type WebSocketMessage struct {
	Type      string                 `json:"type"`
	Timestamp int64                  `json:"timestamp"`
	Data      map[string]interface{} `json:"data"`
}

func init() {
	cfg, err := config.LoadDefaultConfig(context.Background())
	if err != nil {
		log.Fatalf("Failed to load AWS config: %v", err)
	}

	dynamoClient = dynamodb.NewFromConfig(cfg)

	log.Println("WebSocket notify handler initialized")
}

func connectionsTable() string {
	tableName := os.Getenv("CONNECTIONS_TABLE_NAME")
	if tableName == "" {
		tableName = os.Getenv("CONNECTIONS_TABLE")
		if tableName == "" {
			tableName = "lorekeeper-connections"
		}
	}
	return tableName
}

// initializeAPIGatewayClient creates a management API client for the endpoint
func initializeAPIGatewayClient(endpoint string) *apigatewaymanagementapi.Client {
	cfg, _ := config.LoadDefaultConfig(context.Background())

	return apigatewaymanagementapi.NewFromConfig(cfg, func(o *apigatewaymanagementapi.Options) {
		o.BaseEndpoint = aws.String(fmt.Sprintf("https://%s", endpoint))
	})
}

// getConnectionsForUser retrieves all active connections for a user
func getConnectionsForUser(ctx context.Context, userID string) ([]string, error) {
	input := &dynamodb.QueryInput{
		TableName:              aws.String(connectionsTable()),
		IndexName:              aws.String("connection-id-index"),
		KeyConditionExpression: aws.String("GSI1PK = :userpk"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":userpk": &types.AttributeValueMemberS{Value: fmt.Sprintf("USER#%s", userID)},
		},
	}

	result, err := dynamoClient.Query(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("failed to query connections: %w", err)
	}

	var connectionIDs []string
	for _, item := range result.Items {
		if connID, ok := item["ConnectionID"].(*types.AttributeValueMemberS); ok {
			connectionIDs = append(connectionIDs, connID.Value)
		}
	}

	return connectionIDs, nil
}

// getAllConnections retrieves all active connections for broadcast
func getAllConnections(ctx context.Context) (map[string]string, error) {
	connections := make(map[string]string) // connectionID -> endpoint

	input := &dynamodb.ScanInput{
		TableName: aws.String(connectionsTable()),
	}

	paginator := dynamodb.NewScanPaginator(dynamoClient, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to scan connections: %w", err)
		}

		for _, item := range page.Items {
			connID, _ := item["ConnectionID"].(*types.AttributeValueMemberS)
			endpoint, _ := item["Endpoint"].(*types.AttributeValueMemberS)
			if connID != nil && endpoint != nil {
				connections[connID.Value] = endpoint.Value
			}
		}
	}

	return connections, nil
}

// sendMessageToConnection posts a message to one WebSocket connection
func sendMessageToConnection(ctx context.Context, apiClient *apigatewaymanagementapi.Client,
	connectionID string, message []byte) error {

	input := &apigatewaymanagementapi.PostToConnectionInput{
		ConnectionId: aws.String(connectionID),
		Data:         message,
	}

	_, err := apiClient.PostToConnection(ctx, input)
	if err != nil {
		var goneErr *apigwTypes.GoneException
		if errors.As(err, &goneErr) {
			log.Printf("Connection %s is gone, marking for cleanup", connectionID)
			removeStaleConnection(ctx, connectionID)
			return nil
		}
		return fmt.Errorf("failed to send message: %w", err)
	}

	return nil
}

// removeStaleConnection removes a stale connection from DynamoDB
func removeStaleConnection(ctx context.Context, connectionID string) {
	input := &dynamodb.DeleteItemInput{
		TableName: aws.String(connectionsTable()),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: fmt.Sprintf("CONNECTION#%s", connectionID)},
			"SK": &types.AttributeValueMemberS{Value: "METADATA"},
		},
	}

	_, err := dynamoClient.DeleteItem(ctx, input)
	if err != nil {
		log.Printf("Failed to remove stale connection %s: %v", connectionID, err)
	} else {
		log.Printf("Removed stale connection %s", connectionID)
	}
}

// handleBroadcast sends a message to the targeted WebSocket connections
func handleBroadcast(ctx context.Context, msg BroadcastMessage) error {
	wsMessage := WebSocketMessage{
		Type:      msg.EventType,
		Timestamp: time.Now().Unix(),
		Data:      msg.Payload,
	}

	messageJSON, err := json.Marshal(wsMessage)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	targetConnections := make(map[string]string) // connectionID -> endpoint

	defaultEndpoint := os.Getenv("WEBSOCKET_ENDPOINT")
	if defaultEndpoint == "" {
		defaultEndpoint = "execute-api.us-east-1.amazonaws.com/prod"
	}

	if msg.Broadcast {
		targetConnections, err = getAllConnections(ctx)
		if err != nil {
			return fmt.Errorf("failed to get all connections: %w", err)
		}
	} else if msg.TargetUserID != "" {
		connectionIDs, err := getConnectionsForUser(ctx, msg.TargetUserID)
		if err != nil {
			return fmt.Errorf("failed to get user connections: %w", err)
		}

		for _, connID := range connectionIDs {
			targetConnections[connID] = defaultEndpoint
		}
	} else if len(msg.TargetUsers) > 0 {
		for _, userID := range msg.TargetUsers {
			connectionIDs, err := getConnectionsForUser(ctx, userID)
			if err != nil {
				log.Printf("Failed to get connections for user %s: %v", userID, err)
				continue
			}

			for _, connID := range connectionIDs {
				targetConnections[connID] = defaultEndpoint
			}
		}
	}

	// Group by endpoint so each management client is built once
	endpointGroups := make(map[string][]string)
	for connID, endpoint := range targetConnections {
		endpointGroups[endpoint] = append(endpointGroups[endpoint], connID)
	}

	successCount := 0
	failCount := 0

	for endpoint, connectionIDs := range endpointGroups {
		apiClient := initializeAPIGatewayClient(endpoint)

		for _, connID := range connectionIDs {
			if err := sendMessageToConnection(ctx, apiClient, connID, messageJSON); err != nil {
				log.Printf("Failed to send to connection %s: %v", connID, err)
				failCount++
			} else {
				successCount++
			}
		}
	}

	log.Printf("Broadcast complete: %d successful, %d failed", successCount, failCount)

	if failCount > 0 && successCount == 0 {
		return fmt.Errorf("all message sends failed")
	}

	return nil
}

// handler processes different event shapes for WebSocket notification
func handler(ctx context.Context, event json.RawMessage) error {
	// EventBridge domain events
	var cloudWatchEvent events.CloudWatchEvent
	if err := json.Unmarshal(event, &cloudWatchEvent); err == nil && cloudWatchEvent.DetailType != "" {
		log.Printf("Processing domain event: %s", cloudWatchEvent.DetailType)

		var payload map[string]interface{}
		if err := json.Unmarshal(cloudWatchEvent.Detail, &payload); err != nil {
			return fmt.Errorf("failed to parse event detail: %w", err)
		}

		msg := BroadcastMessage{
			EventType: cloudWatchEvent.DetailType,
			Payload:   payload,
		}

		// Data source toggles affect every client; entry and timeline
		// events only concern their owner.
		if userID, ok := payload["user_id"].(string); ok && userID != "" {
			msg.TargetUserID = userID
		} else {
			msg.Broadcast = true
		}

		return handleBroadcast(ctx, msg)
	}

	// Direct invocation
	var broadcastMsg BroadcastMessage
	if err := json.Unmarshal(event, &broadcastMsg); err == nil && broadcastMsg.EventType != "" {
		return handleBroadcast(ctx, broadcastMsg)
	}

	// SQS batches
	var sqsEvent events.SQSEvent
	if err := json.Unmarshal(event, &sqsEvent); err == nil && len(sqsEvent.Records) > 0 {
		for _, record := range sqsEvent.Records {
			var msg BroadcastMessage
			if err := json.Unmarshal([]byte(record.Body), &msg); err != nil {
				log.Printf("Failed to parse SQS message: %v", err)
				continue
			}

			if err := handleBroadcast(ctx, msg); err != nil {
				log.Printf("Failed to broadcast message: %v", err)
			}
		}
		return nil
	}

	return fmt.Errorf("unable to parse event")
}

func main() {
	if os.Getenv("AWS_LAMBDA_FUNCTION_NAME") != "" {
		log.Println("Starting WebSocket notify Lambda")
		lambda.Start(handler)
	} else {
		log.Println("Running in local test mode")

		testMsg := BroadcastMessage{
			EventType:    "entry.created",
			TargetUserID: "test-user-456",
			Payload: map[string]interface{}{
				"entry_id":  "test-entry-123",
				"precision": "day",
			},
		}

		testJSON, _ := json.Marshal(testMsg)

		if err := handler(context.Background(), testJSON); err != nil {
			log.Fatalf("Test message processing failed: %v", err)
		}

		log.Println("Test message processed successfully")
	}
}
