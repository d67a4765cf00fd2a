package dynamodb

import (
	"context"
	"sync"
	"time"

	"lorekeeper-backend/application/ports"

	"go.uber.org/zap"
)

// OutboxProcessor sweeps pending event records and publishes them to the
// event bus, retrying failures with a bounded attempt count
type OutboxProcessor struct {
	eventStore *EventStore
	publisher  ports.EventPublisher
	logger     *zap.Logger
	interval   time.Duration
	batchSize  int32

	stopOnce sync.Once
	stopCh   chan struct{}
}

// NewOutboxProcessor creates a new outbox processor
func NewOutboxProcessor(eventStore *EventStore, publisher ports.EventPublisher, logger *zap.Logger) *OutboxProcessor {
	return &OutboxProcessor{
		eventStore: eventStore,
		publisher:  publisher,
		logger:     logger,
		interval:   5 * time.Second,
		batchSize:  25,
		stopCh:     make(chan struct{}),
	}
}

// Start begins processing in a background goroutine
func (op *OutboxProcessor) Start(ctx context.Context) {
	go op.processLoop(ctx)
	op.logger.Info("outbox processor started",
		zap.Duration("interval", op.interval),
		zap.Int32("batchSize", op.batchSize),
	)
}

// Stop halts processing; safe to call more than once
func (op *OutboxProcessor) Stop() {
	op.stopOnce.Do(func() {
		close(op.stopCh)
	})
}

func (op *OutboxProcessor) processLoop(ctx context.Context) {
	ticker := time.NewTicker(op.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-op.stopCh:
			return
		case <-ticker.C:
			if err := op.processBatch(ctx); err != nil {
				op.logger.Error("outbox batch failed", zap.Error(err))
			}
		}
	}
}

func (op *OutboxProcessor) processBatch(ctx context.Context) error {
	records, err := op.eventStore.GetPendingEvents(ctx, op.batchSize)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		return nil
	}

	op.logger.Debug("processing outbox batch", zap.Int("count", len(records)))

	for _, record := range records {
		if err := op.processEvent(ctx, record); err != nil {
			op.logger.Warn("failed to publish outbox event",
				zap.String("eventID", record.EventID),
				zap.String("eventType", record.EventType),
				zap.Error(err),
			)
			if markErr := op.eventStore.MarkEventAsFailed(ctx, record.PK, record.SK, err.Error(), record.PublishAttempts+1); markErr != nil {
				op.logger.Error("failed to mark event failed", zap.Error(markErr))
			}
			continue
		}
		if err := op.eventStore.MarkEventAsPublished(ctx, record.PK, record.SK); err != nil {
			op.logger.Error("failed to mark event published",
				zap.String("eventID", record.EventID),
				zap.Error(err),
			)
		}
	}
	return nil
}

func (op *OutboxProcessor) processEvent(ctx context.Context, record *EventRecord) error {
	event, err := RecordToEvent(record)
	if err != nil {
		return err
	}
	return op.publisher.Publish(ctx, event)
}
