package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/journey-microservice/internal/domain"
)

// OfflineStore is the durable last-known-good journey cache consulted
// only after the fetcher has exhausted its retries.
type OfflineStore interface {
	// Save overwrites the route's snapshot with the current timestamp.
	// Partial merges never happen.
	Save(ctx context.Context, routeID uuid.UUID, journeys []domain.JourneyOption) error

	// Load returns the route's snapshot, or nil when none exists or the
	// stored one has aged past the validity window. Individual past
	// departures inside a valid snapshot are returned as-is.
	Load(ctx context.Context, routeID uuid.UUID) (*domain.OfflineSnapshot, error)
}
