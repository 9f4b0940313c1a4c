package http

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/journey-microservice/internal/config"
	"github.com/journey-microservice/internal/delivery/http/handler"
	"github.com/journey-microservice/internal/delivery/http/middleware"
	"go.uber.org/zap"
)

// Server is the Fiber HTTP server exposing the fetch pipeline.
type Server struct {
	app    *fiber.App
	config *config.Config
	logger *zap.Logger

	journeyHandler *handler.JourneyHandler
	healthHandler  *handler.HealthHandler
}

// NewServer creates the HTTP server with its middleware and routes.
func NewServer(
	cfg *config.Config,
	logger *zap.Logger,
	journeyHandler *handler.JourneyHandler,
	healthHandler *handler.HealthHandler,
) *Server {
	app := fiber.New(fiber.Config{
		AppName:      "Journey Microservice",
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
		ErrorHandler: customErrorHandler(logger),
	})

	s := &Server{
		app:            app,
		config:         cfg,
		logger:         logger,
		journeyHandler: journeyHandler,
		healthHandler:  healthHandler,
	}

	s.setupMiddlewares()
	s.setupRoutes()

	return s
}

func (s *Server) setupMiddlewares() {
	s.app.Use(middleware.Recovery())
	s.app.Use(middleware.Logger(s.logger))
	s.app.Use(middleware.CORS())
	s.app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))
}

func (s *Server) setupRoutes() {
	api := s.app.Group("/api/v1")

	api.Get("/health", s.healthHandler.GetHealth)

	// Journey routes
	api.Get("/routes/:id/journeys", s.journeyHandler.GetJourneys)
	api.Get("/routes/:id/journeys/best", s.journeyHandler.GetBestJourney)
	api.Get("/routes/:id/next-refresh", s.journeyHandler.GetNextRefresh)
}

// Start starts serving; blocks until shutdown.
func (s *Server) Start() error {
	addr := s.config.GetServerAddr()
	s.logger.Info("Starting HTTP server", zap.String("address", addr))
	return s.app.Listen(addr)
}

// Shutdown drains connections and stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down HTTP server")
	return s.app.ShutdownWithContext(ctx)
}

func customErrorHandler(logger *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError

		if e, ok := err.(*fiber.Error); ok {
			code = e.Code
		}

		logger.Error("HTTP Error",
			zap.String("path", c.Path()),
			zap.Int("status", code),
			zap.Error(err),
		)

		return c.Status(code).JSON(fiber.Map{
			"error": fiber.Map{
				"code":    "INTERNAL_SERVER_ERROR",
				"message": err.Error(),
			},
		})
	}
}
