package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/journey-microservice/internal/config"
	httpDelivery "github.com/journey-microservice/internal/delivery/http"
	"github.com/journey-microservice/internal/delivery/http/handler"
	"github.com/journey-microservice/internal/domain/repository"
	"github.com/journey-microservice/internal/infrastructure/transitapi"
	"github.com/journey-microservice/internal/pkg/logger"
	"github.com/journey-microservice/internal/repository/memcache"
	"github.com/journey-microservice/internal/repository/postgres"
	redisrepo "github.com/journey-microservice/internal/repository/redis"
	"github.com/journey-microservice/internal/repository/sqlite"
	"github.com/journey-microservice/internal/usecase"
	"go.uber.org/zap"
)

func main() {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	// 2. Initialize logger
	log, err := logger.New(cfg.Log.Level)
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer log.Sync()

	log.Info("Starting Journey Microservice")
	log.Info("Configuration loaded",
		zap.String("env", cfg.Server.Env),
		zap.String("server_addr", cfg.GetServerAddr()),
		zap.String("offline_driver", cfg.Offline.Driver),
	)

	// 3. Connect to PostgreSQL (tracked routes)
	db, err := postgres.New(&cfg.Database, log)
	if err != nil {
		log.Fatal("Failed to connect to PostgreSQL", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Failed to close PostgreSQL connection", zap.Error(err))
		}
	}()
	log.Info("PostgreSQL connected")

	// 4. Offline snapshot store (redis or sqlite per configuration)
	offlineStore, healthChecks, closeOffline, err := buildOfflineStore(cfg, log)
	if err != nil {
		log.Fatal("Failed to initialize offline store", zap.Error(err))
	}
	defer closeOffline()
	log.Info("Offline store ready", zap.String("driver", cfg.Offline.Driver))

	// 5. Health checks
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.Health(ctx); err != nil {
		log.Fatal("PostgreSQL health check failed", zap.Error(err))
	}
	for name, check := range healthChecks {
		if err := check.Health(ctx); err != nil {
			log.Fatal("Health check failed", zap.String("component", name), zap.Error(err))
		}
	}
	log.Info("All connections healthy")

	// 6. Initialize Repositories
	routeRepo := postgres.NewRouteRepository(db)
	responseCache := memcache.NewResponseCache(log)
	transitRepo := transitapi.NewClient(&cfg.TransitAPI, log)
	log.Info("Repositories initialized")

	// 7. Initialize Use Cases
	fetcher := usecase.NewFetcher(transitRepo, responseCache, &cfg.Retry, log)
	decoder := usecase.NewDecoder(log)
	selector := usecase.NewSelector()

	journeyUC := usecase.NewJourneyUseCase(
		fetcher,
		decoder,
		selector,
		offlineStore,
		routeRepo,
		&cfg.Batcher,
		log,
	)

	batcherCtx, stopBatcher := context.WithCancel(context.Background())
	defer stopBatcher()
	journeyUC.Start(batcherCtx)
	defer journeyUC.Stop()

	log.Info("Use cases initialized")

	// 8. Initialize HTTP Handlers
	healthChecks["postgres"] = db
	journeyHandler := handler.NewJourneyHandler(journeyUC, log)
	healthHandler := handler.NewHealthHandler(healthChecks, log)

	// 9. Initialize HTTP Server
	server := httpDelivery.NewServer(cfg, log, journeyHandler, healthHandler)

	// 10. Start server in goroutine
	go func() {
		if err := server.Start(); err != nil {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	log.Info("Server started successfully",
		zap.String("address", cfg.GetServerAddr()),
		zap.String("env", cfg.Server.Env),
	)

	// 11. Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server gracefully...")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelShutdown()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server shutdown error", zap.Error(err))
	}

	log.Info("Server stopped successfully")
}

// buildOfflineStore wires the snapshot store selected by configuration
// and reports the connections it opened for health checking and close.
func buildOfflineStore(cfg *config.Config, log *zap.Logger) (repository.OfflineStore, map[string]handler.HealthChecker, func(), error) {
	checks := make(map[string]handler.HealthChecker)

	switch cfg.Offline.Driver {
	case "sqlite":
		store, err := sqlite.NewOfflineStore(cfg.Offline.SQLitePath, log)
		if err != nil {
			return nil, nil, nil, err
		}
		closeFn := func() {
			if closer, ok := store.(io.Closer); ok {
				if err := closer.Close(); err != nil {
					log.Error("Failed to close SQLite offline store", zap.Error(err))
				}
			}
		}
		return store, checks, closeFn, nil

	case "redis":
		redisClient, err := redisrepo.NewRedis(&cfg.Redis, log)
		if err != nil {
			return nil, nil, nil, err
		}
		checks["redis"] = redisClient
		closeFn := func() {
			if err := redisClient.Close(); err != nil {
				log.Error("Failed to close Redis connection", zap.Error(err))
			}
		}
		return redisrepo.NewOfflineStore(redisClient), checks, closeFn, nil

	default:
		return nil, nil, nil, fmt.Errorf("unknown offline store driver %q", cfg.Offline.Driver)
	}
}
