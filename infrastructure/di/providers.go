package di

import (
	"context"
	"fmt"
	"time"

	"lorekeeper-backend/application/broadcast"
	"lorekeeper-backend/application/commands"
	"lorekeeper-backend/application/commands/bus"
	commandhandlers "lorekeeper-backend/application/commands/handlers"
	"lorekeeper-backend/application/ports"
	"lorekeeper-backend/application/queries"
	querybus "lorekeeper-backend/application/queries/bus"
	queryhandlers "lorekeeper-backend/application/queries/handlers"
	"lorekeeper-backend/application/sagas"
	appservices "lorekeeper-backend/application/services"
	domaincfg "lorekeeper-backend/domain/config"
	"lorekeeper-backend/domain/services"
	"lorekeeper-backend/infrastructure/config"
	"lorekeeper-backend/infrastructure/messaging/eventbridge"
	"lorekeeper-backend/infrastructure/messaging/websocket"
	"lorekeeper-backend/infrastructure/persistence/dynamodb"
	"lorekeeper-backend/infrastructure/synthetic"
	"lorekeeper-backend/pkg/auth"
	"lorekeeper-backend/pkg/observability"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awscloudwatch "github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awseventbridge "github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"go.uber.org/zap"
)

// ProvideLogger creates a new logger instance
func ProvideLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.Environment == "production" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

// ProvideDomainConfig loads the business rules for the environment
func ProvideDomainConfig(cfg *config.Config) *domaincfg.DomainConfig {
	return domaincfg.LoadDomainConfig(cfg.Environment)
}

// ProvideAWSConfig creates AWS configuration
func ProvideAWSConfig(ctx context.Context, cfg *config.Config) (aws.Config, error) {
	return awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.AWSRegion),
	)
}

// ProvideDynamoDBClient creates a DynamoDB client
func ProvideDynamoDBClient(awsCfg aws.Config) *awsdynamodb.Client {
	return awsdynamodb.NewFromConfig(awsCfg)
}

// ProvideEventBridgeClient creates an EventBridge client
func ProvideEventBridgeClient(awsCfg aws.Config) *awseventbridge.Client {
	return awseventbridge.NewFromConfig(awsCfg)
}

// ProvideCloudWatchClient creates a CloudWatch client
func ProvideCloudWatchClient(awsCfg aws.Config) *awscloudwatch.Client {
	return awscloudwatch.NewFromConfig(awsCfg)
}

// ProvideTimelineRepository creates a timeline repository
func ProvideTimelineRepository(client *awsdynamodb.Client, cfg *config.Config, logger *zap.Logger) ports.TimelineRepository {
	return dynamodb.NewTimelineRepository(client, cfg.DynamoDBTable, logger)
}

// ProvideEntryRepository creates a chronology entry repository
func ProvideEntryRepository(client *awsdynamodb.Client, cfg *config.Config, logger *zap.Logger) ports.EntryRepository {
	return dynamodb.NewEntryRepository(client, cfg.DynamoDBTable, cfg.GSI2IndexName, logger)
}

// ProvideQuestRepository creates a quest repository
func ProvideQuestRepository(client *awsdynamodb.Client, cfg *config.Config, logger *zap.Logger) ports.QuestRepository {
	return dynamodb.NewQuestRepository(client, cfg.DynamoDBTable, logger)
}

// ProvideReviewRepository creates a review proposal repository
func ProvideReviewRepository(client *awsdynamodb.Client, cfg *config.Config, logger *zap.Logger) ports.ReviewRepository {
	return dynamodb.NewReviewRepository(client, cfg.DynamoDBTable, logger)
}

// ProvideRelationshipRepository creates a timeline relationship repository
func ProvideRelationshipRepository(client *awsdynamodb.Client, cfg *config.Config, logger *zap.Logger) ports.RelationshipRepository {
	return dynamodb.NewRelationshipRepository(client, cfg.DynamoDBTable, cfg.GSI2IndexName, logger)
}

// ProvideTracer creates the X-Ray tracer
func ProvideTracer(cfg *config.Config) *observability.Tracer {
	return observability.NewTracer(fmt.Sprintf("lorekeeper-%s", cfg.Environment))
}

// ProvideEventBus creates an event bus backed by EventBridge
func ProvideEventBus(client *awseventbridge.Client, cfg *config.Config, tracer *observability.Tracer, logger *zap.Logger) ports.EventBus {
	return eventbridge.NewEventBridgePublisher(client, cfg.EventBusName, tracer, logger)
}

// ProvideEventPublisher narrows the event bus to its publishing side
func ProvideEventPublisher(eventBus ports.EventBus) ports.EventPublisher {
	return eventBus
}

// ProvideEventStore creates a DynamoDB-backed event store with an outbox
func ProvideEventStore(client *awsdynamodb.Client, cfg *config.Config) *dynamodb.EventStore {
	return dynamodb.NewEventStore(client, cfg.DynamoDBTable)
}

// ProvideOutboxProcessor creates the background outbox sweeper
func ProvideOutboxProcessor(eventStore *dynamodb.EventStore, publisher ports.EventPublisher, logger *zap.Logger) *dynamodb.OutboxProcessor {
	return dynamodb.NewOutboxProcessor(eventStore, publisher, logger)
}

// ProvideDistributedLock creates a distributed lock instance
func ProvideDistributedLock(client *awsdynamodb.Client, cfg *config.Config, logger *zap.Logger) ports.DistributedLock {
	return dynamodb.NewDistributedLock(client, cfg.DynamoDBTable, logger)
}

// ProvideBroadcaster creates the data source toggle, seeded from config.
// Runtime flips go through SetEnabled and notify subscribers.
func ProvideBroadcaster(cfg *config.Config, logger *zap.Logger) *broadcast.DataSourceBroadcaster {
	b := broadcast.NewDataSourceBroadcaster(logger)
	if cfg.SyntheticDefault {
		b.SetEnabled(true)
	}
	return b
}

// ProvideSyntheticDataset creates the deterministic demo dataset
func ProvideSyntheticDataset(cfg *config.Config, logger *zap.Logger) ports.SyntheticDataset {
	return synthetic.NewDataset(cfg.SyntheticSeed, logger)
}

// ProvideIntervalComparator creates the precision-aware comparator
func ProvideIntervalComparator(domainCfg *domaincfg.DomainConfig) *services.IntervalComparator {
	return services.NewIntervalComparator(domainCfg)
}

// ProvideHierarchyResolver creates the timeline hierarchy resolver
func ProvideHierarchyResolver() *services.HierarchyResolver {
	return services.NewHierarchyResolver()
}

// ProvideChronologyAnalyzer creates the analytics service
func ProvideChronologyAnalyzer(domainCfg *domaincfg.DomainConfig, comparator *services.IntervalComparator) *services.ChronologyAnalyzer {
	return services.NewChronologyAnalyzer(domainCfg, comparator)
}

// ProvideMembershipService creates the membership inference service
func ProvideMembershipService(timelineRepo ports.TimelineRepository, entryRepo ports.EntryRepository, logger *zap.Logger) *appservices.MembershipService {
	return appservices.NewMembershipService(timelineRepo, entryRepo, logger)
}

// ProvideMergeTimelinesSaga creates the timeline merge saga
func ProvideMergeTimelinesSaga(
	timelineRepo ports.TimelineRepository,
	entryRepo ports.EntryRepository,
	relRepo ports.RelationshipRepository,
	eventBus ports.EventBus,
	logger *zap.Logger,
) *sagas.MergeTimelinesSaga {
	return sagas.NewMergeTimelinesSaga(timelineRepo, entryRepo, relRepo, eventBus, logger)
}

// ProvideMetrics creates the CloudWatch metrics recorder
func ProvideMetrics(client *awscloudwatch.Client, cfg *config.Config, logger *zap.Logger) *observability.Metrics {
	namespace := fmt.Sprintf("Lorekeeper/%s", cfg.Environment)
	return observability.NewMetrics(namespace, client, logger)
}

// ProvideDistributedRateLimiter creates a distributed rate limiter
func ProvideDistributedRateLimiter(client *awsdynamodb.Client, cfg *config.Config) *auth.DistributedRateLimiter {
	return auth.NewDistributedRateLimiter(
		client,
		cfg.DynamoDBTable,
		100,           // 100 requests
		1*time.Minute, // per minute
		"API",
	)
}

// ProvidePushNotifier creates the WebSocket push notifier
func ProvidePushNotifier(client *awsdynamodb.Client, awsCfg aws.Config, cfg *config.Config, logger *zap.Logger) ports.PushNotifier {
	return websocket.NewNotifier(client, awsCfg, cfg.WebSocketEndpoint, cfg.ConnectionsTable, logger)
}

// ProvideInMemoryCache creates the process-local query cache
func ProvideInMemoryCache() ports.Cache {
	return NewInMemoryCache()
}

// CommandHandlers groups the concrete command handlers so result-bearing
// operations can be called directly by the HTTP layer.
type CommandHandlers struct {
	CreateTimeline     *commandhandlers.CreateTimelineHandler
	UpdateTimeline     *commandhandlers.UpdateTimelineHandler
	DeleteTimeline     *commandhandlers.DeleteTimelineHandler
	MergeTimelines     *commandhandlers.MergeTimelinesHandler
	CreateRelationship *commandhandlers.CreateRelationshipHandler
	CreateEntry        *commandhandlers.CreateEntryHandler
	RelocateEntry      *commandhandlers.RelocateEntryHandler
	ArchiveEntry       *commandhandlers.ArchiveEntryHandler
	Membership         *commandhandlers.MembershipHandler
}

// ProvideCommandHandlers wires every command handler
func ProvideCommandHandlers(
	timelineRepo ports.TimelineRepository,
	entryRepo ports.EntryRepository,
	relRepo ports.RelationshipRepository,
	eventBus ports.EventBus,
	mergeSaga *sagas.MergeTimelinesSaga,
	lock ports.DistributedLock,
	domainCfg *domaincfg.DomainConfig,
	logger *zap.Logger,
) *CommandHandlers {
	return &CommandHandlers{
		CreateTimeline:     commandhandlers.NewCreateTimelineHandler(timelineRepo, eventBus, logger),
		UpdateTimeline:     commandhandlers.NewUpdateTimelineHandler(timelineRepo, eventBus, logger),
		DeleteTimeline:     commandhandlers.NewDeleteTimelineHandler(timelineRepo, logger),
		MergeTimelines:     commandhandlers.NewMergeTimelinesHandler(mergeSaga, lock, logger),
		CreateRelationship: commandhandlers.NewCreateRelationshipHandler(timelineRepo, relRepo, logger),
		CreateEntry:        commandhandlers.NewCreateEntryHandler(entryRepo, timelineRepo, eventBus, logger),
		RelocateEntry:      commandhandlers.NewRelocateEntryHandler(entryRepo, eventBus, logger),
		ArchiveEntry:       commandhandlers.NewArchiveEntryHandler(entryRepo, eventBus, logger),
		Membership:         commandhandlers.NewMembershipHandler(entryRepo, timelineRepo, eventBus, domainCfg, logger),
	}
}

// CommandHandlerAdapter adapts specific command handlers to the generic interface
type CommandHandlerAdapter struct {
	handler func(context.Context, bus.Command) error
}

// Handle implements bus.CommandHandler
func (a *CommandHandlerAdapter) Handle(ctx context.Context, cmd bus.Command) error {
	return a.handler(ctx, cmd)
}

func register[C bus.Command](commandBus *bus.CommandBus, zero C, handle func(context.Context, C) error) {
	commandBus.Register(zero, &CommandHandlerAdapter{
		handler: func(ctx context.Context, cmd bus.Command) error {
			typed, ok := cmd.(C)
			if !ok {
				return fmt.Errorf("invalid command type %T", cmd)
			}
			return handle(ctx, typed)
		},
	})
}

// ProvideCommandBus creates a command bus with every handler registered
func ProvideCommandBus(
	handlers *CommandHandlers,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *bus.CommandBus {
	commandBus := bus.NewCommandBus(
		bus.LoggingMiddleware(logger),
		bus.MetricsMiddleware(metrics),
	)

	register(commandBus, commands.CreateTimelineCommand{}, func(ctx context.Context, cmd commands.CreateTimelineCommand) error {
		_, err := handlers.CreateTimeline.Handle(ctx, cmd)
		return err
	})
	register(commandBus, commands.RenameTimelineCommand{}, handlers.UpdateTimeline.HandleRename)
	register(commandBus, commands.RedateTimelineCommand{}, handlers.UpdateTimeline.HandleRedate)
	register(commandBus, commands.ReparentTimelineCommand{}, handlers.UpdateTimeline.HandleReparent)
	register(commandBus, commands.DeleteTimelineCommand{}, handlers.DeleteTimeline.Handle)
	register(commandBus, commands.MergeTimelinesCommand{}, func(ctx context.Context, cmd commands.MergeTimelinesCommand) error {
		_, err := handlers.MergeTimelines.Handle(ctx, cmd)
		return err
	})
	register(commandBus, commands.CreateRelationshipCommand{}, func(ctx context.Context, cmd commands.CreateRelationshipCommand) error {
		_, err := handlers.CreateRelationship.Handle(ctx, cmd)
		return err
	})
	register(commandBus, commands.CreateEntryCommand{}, func(ctx context.Context, cmd commands.CreateEntryCommand) error {
		_, err := handlers.CreateEntry.Handle(ctx, cmd)
		return err
	})
	register(commandBus, commands.RelocateEntryCommand{}, handlers.RelocateEntry.Handle)
	register(commandBus, commands.ArchiveEntryCommand{}, handlers.ArchiveEntry.Handle)
	register(commandBus, commands.CorrectEntryCommand{}, func(ctx context.Context, cmd commands.CorrectEntryCommand) error {
		_, err := handlers.ArchiveEntry.HandleCorrect(ctx, cmd)
		return err
	})
	register(commandBus, commands.AddMembershipCommand{}, handlers.Membership.HandleAdd)
	register(commandBus, commands.RemoveMembershipCommand{}, handlers.Membership.HandleRemove)

	return commandBus
}

// QueryHandlerAdapter adapts specific query handlers to the generic interface
type QueryHandlerAdapter struct {
	handler func(context.Context, querybus.Query) (interface{}, error)
}

// Handle implements querybus.QueryHandler
func (a *QueryHandlerAdapter) Handle(ctx context.Context, query querybus.Query) (interface{}, error) {
	return a.handler(ctx, query)
}

func registerQuery[Q querybus.Query, R any](
	queryBus *querybus.QueryBus,
	caching *querybus.CachingMiddleware,
	zero Q,
	handle func(context.Context, Q) (R, error),
) {
	var handler querybus.QueryHandler = &QueryHandlerAdapter{
		handler: func(ctx context.Context, query querybus.Query) (interface{}, error) {
			typed, ok := query.(Q)
			if !ok {
				return nil, fmt.Errorf("invalid query type %T", query)
			}
			return handle(ctx, typed)
		},
	}
	if caching != nil {
		handler = caching.Wrap(handler)
	}
	queryBus.Register(zero, handler)
}

// queryCacheTTL is how long reconciled query results stay cached, in
// seconds. Synthetic results are never cached regardless.
const queryCacheTTL = 30

// ProvideQueryBus creates a query bus with every handler registered
func ProvideQueryBus(
	timelineRepo ports.TimelineRepository,
	entryRepo ports.EntryRepository,
	relRepo ports.RelationshipRepository,
	questRepo ports.QuestRepository,
	reviewRepo ports.ReviewRepository,
	synthetic ports.SyntheticDataset,
	toggle *broadcast.DataSourceBroadcaster,
	comparator *services.IntervalComparator,
	resolver *services.HierarchyResolver,
	analyzer *services.ChronologyAnalyzer,
	domainCfg *domaincfg.DomainConfig,
	cache ports.Cache,
	logger *zap.Logger,
) *querybus.QueryBus {
	queryBus := querybus.NewQueryBus()
	caching := querybus.NewCachingMiddleware(cache, queryCacheTTL)

	chronologyReader := queryhandlers.NewChronologyReader(entryRepo, synthetic, toggle, logger)
	timelineReader := queryhandlers.NewTimelineReader(timelineRepo, synthetic, toggle, logger)

	registerQuery(queryBus, caching, queries.GetChronologyQuery{},
		queryhandlers.NewGetChronologyHandler(chronologyReader, domainCfg, logger).Handle)
	registerQuery(queryBus, caching, queries.ScanOverlapsQuery{},
		queryhandlers.NewScanOverlapsHandler(chronologyReader, comparator, logger).Handle)
	registerQuery(queryBus, caching, queries.GetConstraintsQuery{},
		queryhandlers.NewGetConstraintsHandler(chronologyReader, timelineRepo, synthetic, toggle, comparator, resolver, logger).Handle)
	registerQuery(queryBus, caching, queries.GetAnalyticsQuery{},
		queryhandlers.NewGetAnalyticsHandler(chronologyReader, analyzer, logger).Handle)

	registerQuery(queryBus, caching, queries.ListTimelinesQuery{},
		queryhandlers.NewListTimelinesHandler(timelineReader, logger).Handle)
	registerQuery(queryBus, caching, queries.GetTimelineQuery{},
		queryhandlers.NewGetTimelineHandler(timelineReader, relRepo, logger).Handle)
	registerQuery(queryBus, caching, queries.GetTimelineTreeQuery{},
		queryhandlers.NewGetTimelineTreeHandler(timelineReader, resolver, logger).Handle)
	registerQuery(queryBus, caching, queries.GetAncestorsQuery{},
		queryhandlers.NewGetAncestorsHandler(timelineReader, resolver, logger).Handle)
	registerQuery(queryBus, caching, queries.RecommendedTimelinesQuery{},
		queryhandlers.NewRecommendedTimelinesHandler(timelineReader, resolver, logger).Handle)

	registerQuery(queryBus, caching, queries.ListQuestsQuery{},
		queryhandlers.NewListQuestsHandler(questRepo, synthetic, toggle, logger).Handle)
	registerQuery(queryBus, caching, queries.ListProposalsQuery{},
		queryhandlers.NewListProposalsHandler(reviewRepo, synthetic, toggle, logger).Handle)

	return queryBus
}
