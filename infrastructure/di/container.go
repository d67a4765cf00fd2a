package di

import (
	"lorekeeper-backend/application/broadcast"
	"lorekeeper-backend/application/commands/bus"
	"lorekeeper-backend/application/ports"
	querybus "lorekeeper-backend/application/queries/bus"
	"lorekeeper-backend/application/sagas"
	appservices "lorekeeper-backend/application/services"
	domaincfg "lorekeeper-backend/domain/config"
	"lorekeeper-backend/domain/services"
	"lorekeeper-backend/infrastructure/config"
	"lorekeeper-backend/infrastructure/persistence/dynamodb"
	"lorekeeper-backend/pkg/auth"
	"lorekeeper-backend/pkg/observability"

	"go.uber.org/zap"
)

// Container holds all application dependencies
type Container struct {
	Config            *config.Config
	DomainConfig      *domaincfg.DomainConfig
	Logger            *zap.Logger
	TimelineRepo      ports.TimelineRepository
	EntryRepo         ports.EntryRepository
	QuestRepo         ports.QuestRepository
	ReviewRepo        ports.ReviewRepository
	RelationshipRepo  ports.RelationshipRepository
	EventBus          ports.EventBus
	EventStore        *dynamodb.EventStore
	OutboxProcessor   *dynamodb.OutboxProcessor
	Notifier          ports.PushNotifier
	DistributedLock   ports.DistributedLock
	Broadcaster       *broadcast.DataSourceBroadcaster
	Synthetic         ports.SyntheticDataset
	Comparator        *services.IntervalComparator
	Resolver          *services.HierarchyResolver
	Analyzer          *services.ChronologyAnalyzer
	MembershipService *appservices.MembershipService
	MergeSaga         *sagas.MergeTimelinesSaga
	CommandHandlers   *CommandHandlers
	CommandBus        *bus.CommandBus
	QueryBus          *querybus.QueryBus
	Cache             ports.Cache
	Metrics           *observability.Metrics
	RateLimiter       *auth.DistributedRateLimiter
}
