//go:build wireinject
// +build wireinject

package di

import (
	"context"

	"lorekeeper-backend/infrastructure/config"

	"github.com/google/wire"
)

// SuperSet is the main provider set containing all providers
var SuperSet = wire.NewSet(
	ProvideLogger,
	ProvideDomainConfig,
	ProvideAWSConfig,
	ProvideDynamoDBClient,
	ProvideEventBridgeClient,
	ProvideCloudWatchClient,
	ProvideTimelineRepository,
	ProvideEntryRepository,
	ProvideQuestRepository,
	ProvideReviewRepository,
	ProvideRelationshipRepository,
	ProvideTracer,
	ProvideEventBus,
	ProvideEventPublisher,
	ProvideEventStore,
	ProvideOutboxProcessor,
	ProvideDistributedLock,
	ProvidePushNotifier,
	ProvideBroadcaster,
	ProvideSyntheticDataset,
	ProvideIntervalComparator,
	ProvideHierarchyResolver,
	ProvideChronologyAnalyzer,
	ProvideMembershipService,
	ProvideMergeTimelinesSaga,
	ProvideMetrics,
	ProvideDistributedRateLimiter,
	ProvideInMemoryCache,
	ProvideCommandHandlers,
	ProvideCommandBus,
	ProvideQueryBus,
	wire.Struct(new(Container), "*"),
)

// InitializeContainer creates a fully wired container
func InitializeContainer(ctx context.Context, cfg *config.Config) (*Container, error) {
	wire.Build(SuperSet)
	return nil, nil // Wire will replace this
}
