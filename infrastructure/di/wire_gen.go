//go:build !wireinject
// +build !wireinject

package di

import (
	"context"

	"lorekeeper-backend/infrastructure/config"
)

// InitializeContainer creates a fully wired container. This mirrors the
// wire provider set; regenerate with wire when providers change.
func InitializeContainer(ctx context.Context, cfg *config.Config) (*Container, error) {
	logger, err := ProvideLogger(cfg)
	if err != nil {
		return nil, err
	}

	domainCfg := ProvideDomainConfig(cfg)

	awsCfg, err := ProvideAWSConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}

	dynamoClient := ProvideDynamoDBClient(awsCfg)
	eventBridgeClient := ProvideEventBridgeClient(awsCfg)
	cloudWatchClient := ProvideCloudWatchClient(awsCfg)

	timelineRepo := ProvideTimelineRepository(dynamoClient, cfg, logger)
	entryRepo := ProvideEntryRepository(dynamoClient, cfg, logger)
	questRepo := ProvideQuestRepository(dynamoClient, cfg, logger)
	reviewRepo := ProvideReviewRepository(dynamoClient, cfg, logger)
	relationshipRepo := ProvideRelationshipRepository(dynamoClient, cfg, logger)

	tracer := ProvideTracer(cfg)
	eventBus := ProvideEventBus(eventBridgeClient, cfg, tracer, logger)
	eventPublisher := ProvideEventPublisher(eventBus)
	eventStore := ProvideEventStore(dynamoClient, cfg)
	outboxProcessor := ProvideOutboxProcessor(eventStore, eventPublisher, logger)
	distributedLock := ProvideDistributedLock(dynamoClient, cfg, logger)
	notifier := ProvidePushNotifier(dynamoClient, awsCfg, cfg, logger)

	broadcaster := ProvideBroadcaster(cfg, logger)
	synthetic := ProvideSyntheticDataset(cfg, logger)

	comparator := ProvideIntervalComparator(domainCfg)
	resolver := ProvideHierarchyResolver()
	analyzer := ProvideChronologyAnalyzer(domainCfg, comparator)
	membershipService := ProvideMembershipService(timelineRepo, entryRepo, logger)
	mergeSaga := ProvideMergeTimelinesSaga(timelineRepo, entryRepo, relationshipRepo, eventBus, logger)

	metrics := ProvideMetrics(cloudWatchClient, cfg, logger)
	rateLimiter := ProvideDistributedRateLimiter(dynamoClient, cfg)
	cache := ProvideInMemoryCache()

	commandHandlers := ProvideCommandHandlers(timelineRepo, entryRepo, relationshipRepo, eventBus, mergeSaga, distributedLock, domainCfg, logger)
	commandBus := ProvideCommandBus(commandHandlers, metrics, logger)
	queryBus := ProvideQueryBus(
		timelineRepo, entryRepo, relationshipRepo, questRepo, reviewRepo,
		synthetic, broadcaster,
		comparator, resolver, analyzer,
		domainCfg, cache, logger,
	)

	return &Container{
		Config:            cfg,
		DomainConfig:      domainCfg,
		Logger:            logger,
		TimelineRepo:      timelineRepo,
		EntryRepo:         entryRepo,
		QuestRepo:         questRepo,
		ReviewRepo:        reviewRepo,
		RelationshipRepo:  relationshipRepo,
		EventBus:          eventBus,
		EventStore:        eventStore,
		OutboxProcessor:   outboxProcessor,
		Notifier:          notifier,
		DistributedLock:   distributedLock,
		Broadcaster:       broadcaster,
		Synthetic:         synthetic,
		Comparator:        comparator,
		Resolver:          resolver,
		Analyzer:          analyzer,
		MembershipService: membershipService,
		MergeSaga:         mergeSaga,
		CommandHandlers:   commandHandlers,
		CommandBus:        commandBus,
		QueryBus:          queryBus,
		Cache:             cache,
		Metrics:           metrics,
		RateLimiter:       rateLimiter,
	}, nil
}
