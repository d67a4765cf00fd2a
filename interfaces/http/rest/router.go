package rest

import (
	"net/http"
	"strings"

	"lorekeeper-backend/application/broadcast"
	"lorekeeper-backend/application/commands/bus"
	commandhandlers "lorekeeper-backend/application/commands/handlers"
	"lorekeeper-backend/application/ports"
	querybus "lorekeeper-backend/application/queries/bus"
	"lorekeeper-backend/interfaces/http/rest/handlers"
	"lorekeeper-backend/interfaces/http/rest/middleware"
	v1 "lorekeeper-backend/interfaces/http/rest/v1"
	pkgerrors "lorekeeper-backend/pkg/errors"
	"lorekeeper-backend/pkg/observability"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

// Deps carries everything the HTTP surface needs
type Deps struct {
	CommandBus         *bus.CommandBus
	QueryBus           *querybus.QueryBus
	CreateTimeline     *commandhandlers.CreateTimelineHandler
	MergeTimelines     *commandhandlers.MergeTimelinesHandler
	CreateRelationship *commandhandlers.CreateRelationshipHandler
	CreateEntry        *commandhandlers.CreateEntryHandler
	ArchiveEntry       *commandhandlers.ArchiveEntryHandler
	Broadcaster        *broadcast.DataSourceBroadcaster
	Metrics            *observability.Metrics
	Notifier           ports.PushNotifier
	Logger             *zap.Logger
	Debug              bool
}

// Router creates and configures the HTTP router
type Router struct {
	deps Deps
}

// NewRouter creates a new router instance
func NewRouter(deps Deps) *Router {
	return &Router{deps: deps}
}

// Setup configures all routes and middleware
func (rt *Router) Setup() http.Handler {
	router := chi.NewRouter()

	// Global middleware
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Recoverer)
	router.Use(middleware.Logger(rt.deps.Logger))
	router.Use(versionMiddleware)

	// CORS configuration
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:3000", "https://*.lorekeeper.app"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check
	router.Get("/health", rt.healthCheck)
	router.Get("/ready", rt.readinessCheck)

	// API v1 routes (legacy - permanent redirects to v2)
	router.Mount("/api/v1", v1.NewRouter())

	errorHandler := pkgerrors.NewErrorHandler(rt.deps.Logger, rt.deps.Debug)

	// API v2 routes (current)
	router.Route("/api/v2", func(r chi.Router) {
		r.Use(middleware.Authenticate())

		// Timeline endpoints
		r.Route("/timelines", func(r chi.Router) {
			timelineHandler := handlers.NewTimelineHandler(
				rt.deps.CommandBus,
				rt.deps.QueryBus,
				rt.deps.CreateTimeline,
				rt.deps.MergeTimelines,
				rt.deps.CreateRelationship,
				errorHandler,
				rt.deps.Logger,
			)
			r.Post("/", timelineHandler.CreateTimeline)
			r.Get("/", timelineHandler.ListTimelines)
			r.Get("/tree", timelineHandler.GetTree)
			r.Get("/recommended", timelineHandler.GetRecommended)
			r.Post("/relationships", timelineHandler.CreateRelationship)
			r.Get("/{timelineID}", timelineHandler.GetTimeline)
			r.Put("/{timelineID}", timelineHandler.UpdateTimeline)
			r.Delete("/{timelineID}", timelineHandler.DeleteTimeline)
			r.Get("/{timelineID}/ancestors", timelineHandler.GetAncestors)
			r.Post("/{timelineID}/merge", timelineHandler.MergeTimelines)
		})

		// Chronology endpoints
		r.Route("/chronology", func(r chi.Router) {
			chronologyHandler := handlers.NewChronologyHandler(
				rt.deps.CommandBus,
				rt.deps.QueryBus,
				rt.deps.CreateEntry,
				rt.deps.ArchiveEntry,
				errorHandler,
				rt.deps.Logger,
			)
			r.Post("/", chronologyHandler.CreateEntry)
			r.Get("/", chronologyHandler.ListEntries)
			r.Get("/overlaps", chronologyHandler.ScanOverlaps)
			r.Get("/constraints", chronologyHandler.GetConstraints)
			r.Get("/analytics", chronologyHandler.GetAnalytics)
			r.Put("/{entryID}/location", chronologyHandler.RelocateEntry)
			r.Post("/{entryID}/archive", chronologyHandler.ArchiveEntry)
			r.Post("/{entryID}/correct", chronologyHandler.CorrectEntry)
			r.Post("/{entryID}/memberships", chronologyHandler.AddMembership)
			r.Delete("/{entryID}/memberships/{timelineID}", chronologyHandler.RemoveMembership)
		})

		// Quest log and review proposals
		auxiliaryHandler := handlers.NewAuxiliaryHandler(rt.deps.QueryBus, errorHandler, rt.deps.Logger)
		r.Get("/quests", auxiliaryHandler.ListQuests)
		r.Get("/review/proposals", auxiliaryHandler.ListProposals)

		// Data source toggle
		dataSourceHandler := handlers.NewDataSourceHandler(
			rt.deps.Broadcaster,
			rt.deps.Metrics,
			rt.deps.Notifier,
			rt.deps.Logger,
		)
		r.Get("/datasource", dataSourceHandler.GetDataSource)
		r.Put("/datasource", dataSourceHandler.SetDataSource)
	})

	return router
}

// healthCheck handles health check requests
func (rt *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"healthy"}`))
}

// readinessCheck handles readiness check requests
func (rt *Router) readinessCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ready"}`))
}

// versionMiddleware adds API version headers to all responses
func versionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		version := "v2"
		if strings.Contains(r.URL.Path, "/api/v1") {
			version = "v1"
		}

		w.Header().Set("X-API-Version", version)
		w.Header().Set("X-API-Latest", "v2")
		w.Header().Set("X-API-Deprecated", "false")

		if version == "v1" {
			w.Header().Set("X-API-Deprecated", "true")
			w.Header().Set("X-API-Sunset-Date", "2026-12-01")
		}

		next.ServeHTTP(w, r)
	})
}
