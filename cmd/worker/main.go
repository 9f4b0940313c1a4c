package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/journey-microservice/internal/config"
	"github.com/journey-microservice/internal/domain/repository"
	"github.com/journey-microservice/internal/infrastructure/transitapi"
	"github.com/journey-microservice/internal/pkg/logger"
	"github.com/journey-microservice/internal/repository/memcache"
	"github.com/journey-microservice/internal/repository/postgres"
	redisrepo "github.com/journey-microservice/internal/repository/redis"
	"github.com/journey-microservice/internal/repository/sqlite"
	"github.com/journey-microservice/internal/usecase"
	"github.com/journey-microservice/internal/worker"
	"github.com/journey-microservice/internal/worker/refresh"
	"go.uber.org/zap"
)

func main() {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	// Check if worker is enabled
	if !cfg.Worker.Enabled {
		fmt.Println("Worker is disabled in configuration. Set WORKER_ENABLED=true to enable.")
		os.Exit(0)
	}

	// 2. Initialize logger
	log, err := logger.New(cfg.Log.Level)
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer log.Sync()

	log.Info("Starting Route Refresh Worker")
	log.Info("Configuration loaded",
		zap.Duration("poll_interval", cfg.Worker.PollInterval),
		zap.String("offline_driver", cfg.Offline.Driver))

	// 3. Connect to PostgreSQL
	db, err := postgres.New(&cfg.Database, log)
	if err != nil {
		log.Fatal("Failed to connect to PostgreSQL", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Failed to close PostgreSQL connection", zap.Error(err))
		}
	}()

	// 4. Offline snapshot store
	offlineStore, closeOffline, err := buildOfflineStore(cfg, log)
	if err != nil {
		log.Fatal("Failed to initialize offline store", zap.Error(err))
	}
	defer closeOffline()

	// 5. Initialize repositories
	routeRepo := postgres.NewRouteRepository(db)
	responseCache := memcache.NewResponseCache(log)
	transitRepo := transitapi.NewClient(&cfg.TransitAPI, log)

	// 6. Initialize use cases
	fetcher := usecase.NewFetcher(transitRepo, responseCache, &cfg.Retry, log)
	journeyUC := usecase.NewJourneyUseCase(
		fetcher,
		usecase.NewDecoder(log),
		usecase.NewSelector(),
		offlineStore,
		routeRepo,
		&cfg.Batcher,
		log,
	)

	// 7. Initialize workers
	refreshWorker := refresh.NewWorker(routeRepo, journeyUC, cfg.Worker.PollInterval, log)

	// 8. Create worker manager and register workers
	workerManager := worker.NewManager(log)
	workerManager.Register(refreshWorker)

	// 9. Setup graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	journeyUC.Start(ctx)

	if err := workerManager.Start(ctx); err != nil {
		log.Fatal("Failed to start workers", zap.Error(err))
	}

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	<-sigChan
	log.Info("Received shutdown signal")

	cancel()

	if err := workerManager.Stop(); err != nil {
		log.Error("Error stopping workers", zap.Error(err))
	}

	journeyUC.Stop()

	log.Info("Worker shutdown complete")
}

func buildOfflineStore(cfg *config.Config, log *zap.Logger) (repository.OfflineStore, func(), error) {
	switch cfg.Offline.Driver {
	case "sqlite":
		store, err := sqlite.NewOfflineStore(cfg.Offline.SQLitePath, log)
		if err != nil {
			return nil, nil, err
		}
		closeFn := func() {
			if closer, ok := store.(io.Closer); ok {
				if err := closer.Close(); err != nil {
					log.Error("Failed to close SQLite offline store", zap.Error(err))
				}
			}
		}
		return store, closeFn, nil

	case "redis":
		redisClient, err := redisrepo.NewRedis(&cfg.Redis, log)
		if err != nil {
			return nil, nil, err
		}
		closeFn := func() {
			if err := redisClient.Close(); err != nil {
				log.Error("Failed to close Redis connection", zap.Error(err))
			}
		}
		return redisrepo.NewOfflineStore(redisClient), closeFn, nil

	default:
		return nil, nil, fmt.Errorf("unknown offline store driver %q", cfg.Offline.Driver)
	}
}
