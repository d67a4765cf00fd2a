// Package main implements the Lambda handler for membership inference.
// It reacts to newly created chronology entries and attaches them to the
// timelines whose span and keywords best match.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"

	awsevents "github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"

	"lorekeeper-backend/application/services"
	"lorekeeper-backend/infrastructure/config"
	"lorekeeper-backend/infrastructure/di"
)

var membershipService *services.MembershipService

func init() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	container, err := di.InitializeContainer(context.Background(), cfg)
	if err != nil {
		log.Fatalf("Failed to initialize dependency container: %v", err)
	}

	membershipService = container.MembershipService

	log.Println("Infer-membership handler initialized successfully")
}

// InferenceRequest represents the input for membership inference
type InferenceRequest struct {
	EntryID  string   `json:"entry_id"`
	UserID   string   `json:"user_id"`
	Keywords []string `json:"keywords,omitempty"`
	Tags     []string `json:"tags,omitempty"`
}

// InferenceResponse reports the timelines the entry was attached to
type InferenceResponse struct {
	EntryID     string   `json:"entry_id"`
	TimelineIDs []string `json:"timeline_ids"`
	Attached    int      `json:"attached"`
}

// HandleInference processes a single membership inference request
func HandleInference(ctx context.Context, request InferenceRequest) (*InferenceResponse, error) {
	log.Printf("Inferring memberships for entry %s", request.EntryID)

	attached, err := membershipService.InferMemberships(
		ctx,
		request.EntryID,
		request.UserID,
		request.Keywords,
		request.Tags,
	)
	if err != nil {
		return nil, err
	}

	log.Printf("Attached entry %s to %d timelines", request.EntryID, len(attached))

	return &InferenceResponse{
		EntryID:     request.EntryID,
		TimelineIDs: attached,
		Attached:    len(attached),
	}, nil
}

// handler dispatches on the invocation shape: EventBridge entry.created
// events for async inference, or a direct InferenceRequest payload.
func handler(ctx context.Context, event json.RawMessage) error {
	var cloudWatchEvent awsevents.CloudWatchEvent
	if err := json.Unmarshal(event, &cloudWatchEvent); err == nil && cloudWatchEvent.DetailType != "" {
		if cloudWatchEvent.DetailType != "entry.created" {
			log.Printf("Ignoring event type %s", cloudWatchEvent.DetailType)
			return nil
		}

		var created struct {
			EntryID string `json:"entry_id"`
			UserID  string `json:"user_id"`
		}
		if err := json.Unmarshal(cloudWatchEvent.Detail, &created); err != nil {
			return fmt.Errorf("failed to parse entry.created event: %w", err)
		}

		_, err := HandleInference(ctx, InferenceRequest{
			EntryID: created.EntryID,
			UserID:  created.UserID,
		})
		return err
	}

	var request InferenceRequest
	if err := json.Unmarshal(event, &request); err == nil && request.EntryID != "" {
		_, err := HandleInference(ctx, request)
		return err
	}

	return fmt.Errorf("unable to parse event")
}

func main() {
	if os.Getenv("AWS_LAMBDA_FUNCTION_NAME") != "" {
		log.Println("Starting infer-membership Lambda")
		lambda.Start(handler)
	} else {
		log.Println("Running in local test mode")

		testRequest := InferenceRequest{
			EntryID:  "test-entry-123",
			UserID:   "test-user-456",
			Keywords: []string{"travel", "italy"},
			Tags:     []string{"vacation"},
		}

		response, err := HandleInference(context.Background(), testRequest)
		if err != nil {
			log.Fatalf("Test request processing failed: %v", err)
		}

		responseJSON, _ := json.MarshalIndent(response, "", "  ")
		log.Printf("Test response:\n%s", responseJSON)
	}
}
