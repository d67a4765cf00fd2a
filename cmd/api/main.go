package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"lorekeeper-backend/infrastructure/config"
	"lorekeeper-backend/infrastructure/di"
	"lorekeeper-backend/interfaces/http/rest"

	"go.uber.org/zap"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	container, err := di.InitializeContainer(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize container: %v", err)
	}

	// Drain the transactional outbox alongside the HTTP server so stored
	// events reach the bus even after a crash between write and publish.
	container.OutboxProcessor.Start(ctx)
	defer container.OutboxProcessor.Stop()

	router := rest.NewRouter(rest.Deps{
		CommandBus:         container.CommandBus,
		QueryBus:           container.QueryBus,
		CreateTimeline:     container.CommandHandlers.CreateTimeline,
		MergeTimelines:     container.CommandHandlers.MergeTimelines,
		CreateRelationship: container.CommandHandlers.CreateRelationship,
		CreateEntry:        container.CommandHandlers.CreateEntry,
		ArchiveEntry:       container.CommandHandlers.ArchiveEntry,
		Broadcaster:        container.Broadcaster,
		Metrics:            container.Metrics,
		Notifier:           container.Notifier,
		Logger:             container.Logger,
		Debug:              cfg.IsDevelopment(),
	})

	handler := router.Setup()

	srv := &http.Server{
		Addr:         cfg.ServerAddress,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		container.Logger.Info("Starting server",
			zap.String("address", cfg.ServerAddress),
			zap.String("environment", cfg.Environment),
			zap.Bool("syntheticDefault", container.Broadcaster.Enabled()),
		)

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			container.Logger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	container.Logger.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(ctx, 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		container.Logger.Error("Server shutdown error", zap.Error(err))
	}

	if err := container.Logger.Sync(); err != nil {
		log.Printf("Failed to sync logger: %v", err)
	}

	log.Println("Server stopped")
}
