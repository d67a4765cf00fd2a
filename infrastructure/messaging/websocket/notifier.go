// Package websocket pushes backend notifications to connected browser
// sessions through the API Gateway Management API.
package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"lorekeeper-backend/application/ports"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/apigatewaymanagementapi"
	apigwTypes "github.com/aws/aws-sdk-go-v2/service/apigatewaymanagementapi/types"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"
)

// Notifier fans a payload out to every live WebSocket connection recorded
// in the connections table. Stale connections are pruned as they are
// discovered.
type Notifier struct {
	dynamoClient     *dynamodb.Client
	apiGwClient      *apigatewaymanagementapi.Client
	connectionsTable string
	logger           *zap.Logger
}

// envelope is the message format delivered to clients.
type envelope struct {
	Type      string      `json:"type"`
	Timestamp int64       `json:"timestamp"`
	Data      interface{} `json:"data"`
}

// NewNotifier creates a push notifier for the given WebSocket endpoint.
func NewNotifier(
	dynamoClient *dynamodb.Client,
	awsConfig aws.Config,
	endpoint string,
	connectionsTable string,
	logger *zap.Logger,
) ports.PushNotifier {
	apiGwClient := apigatewaymanagementapi.NewFromConfig(awsConfig, func(o *apigatewaymanagementapi.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	})

	return &Notifier{
		dynamoClient:     dynamoClient,
		apiGwClient:      apiGwClient,
		connectionsTable: connectionsTable,
		logger:           logger,
	}
}

// NotifyAll sends the payload to every live connection.
func (n *Notifier) NotifyAll(ctx context.Context, payload interface{}) error {
	message, err := json.Marshal(envelope{
		Type:      "notification",
		Timestamp: time.Now().Unix(),
		Data:      payload,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	connectionIDs, err := n.listConnections(ctx)
	if err != nil {
		return err
	}

	var failed int
	for _, connectionID := range connectionIDs {
		if err := n.post(ctx, connectionID, message); err != nil {
			failed++
			n.logger.Warn("Failed to push notification",
				zap.String("connectionId", connectionID),
				zap.Error(err),
			)
		}
	}

	if failed > 0 {
		return fmt.Errorf("failed to notify %d of %d connections", failed, len(connectionIDs))
	}

	return nil
}

// listConnections scans the connections table for every live connection ID.
func (n *Notifier) listConnections(ctx context.Context) ([]string, error) {
	var connectionIDs []string

	paginator := dynamodb.NewScanPaginator(n.dynamoClient, &dynamodb.ScanInput{
		TableName: aws.String(n.connectionsTable),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to scan connections: %w", err)
		}

		for _, item := range page.Items {
			if connID, ok := item["ConnectionID"].(*types.AttributeValueMemberS); ok {
				connectionIDs = append(connectionIDs, connID.Value)
			}
		}
	}

	return connectionIDs, nil
}

// post delivers one message. Gone connections are removed instead of
// reported as errors.
func (n *Notifier) post(ctx context.Context, connectionID string, message []byte) error {
	_, err := n.apiGwClient.PostToConnection(ctx, &apigatewaymanagementapi.PostToConnectionInput{
		ConnectionId: aws.String(connectionID),
		Data:         message,
	})
	if err != nil {
		var goneErr *apigwTypes.GoneException
		if errors.As(err, &goneErr) {
			n.removeStaleConnection(ctx, connectionID)
			return nil
		}
		return err
	}

	return nil
}

func (n *Notifier) removeStaleConnection(ctx context.Context, connectionID string) {
	_, err := n.dynamoClient.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(n.connectionsTable),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: fmt.Sprintf("CONNECTION#%s", connectionID)},
			"SK": &types.AttributeValueMemberS{Value: "METADATA"},
		},
	})
	if err != nil {
		n.logger.Warn("Failed to remove stale connection",
			zap.String("connectionId", connectionID),
			zap.Error(err),
		)
		return
	}

	n.logger.Debug("Removed stale connection", zap.String("connectionId", connectionID))
}
