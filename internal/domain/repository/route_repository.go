package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/journey-microservice/internal/domain"
)

// RouteRepository supplies the tracked origin/destination pairs this
// pipeline refreshes. Route management itself belongs to an external
// collaborator; this service only reads.
type RouteRepository interface {
	// GetTrackedRoutes returns every route the pipeline should keep
	// fresh, including manual-refresh ones.
	GetTrackedRoutes(ctx context.Context) ([]domain.Route, error)

	// GetRoute returns one route by id, or ErrRouteNotFound.
	GetRoute(ctx context.Context, id uuid.UUID) (*domain.Route, error)
}
