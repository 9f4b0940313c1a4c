package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/journey-microservice/internal/domain"
	"github.com/journey-microservice/internal/domain/repository"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type offlineStore struct {
	client *redis.Client
	logger *zap.Logger
	now    func() time.Time
}

// NewOfflineStore creates the Redis-backed last-known-good snapshot
// store. Entries carry no Redis TTL: a stale-but-present snapshot is
// preferred over an empty one, and the validity window is enforced at
// load time instead.
func NewOfflineStore(r *Redis) repository.OfflineStore {
	return &offlineStore{
		client: r.Client(),
		logger: r.logger,
		now:    time.Now,
	}
}

// NewOfflineStoreWithClock injects the clock, for tests.
func NewOfflineStoreWithClock(r *Redis, now func() time.Time) repository.OfflineStore {
	return &offlineStore{
		client: r.Client(),
		logger: r.logger,
		now:    now,
	}
}

func snapshotKey(routeID uuid.UUID) string {
	return "offline:journeys:" + routeID.String()
}

func (s *offlineStore) Save(ctx context.Context, routeID uuid.UUID, journeys []domain.JourneyOption) error {
	snap := domain.OfflineSnapshot{
		RouteID:  routeID,
		Journeys: journeys,
		StoredAt: s.now(),
	}

	data, err := json.Marshal(snap)
	if err != nil {
		s.logger.Error("Failed to marshal offline snapshot", zap.Error(err))
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	if err := s.client.Set(ctx, snapshotKey(routeID), data, 0).Err(); err != nil {
		s.logger.Error("Failed to save offline snapshot",
			zap.String("route_id", routeID.String()), zap.Error(err))
		return fmt.Errorf("offline snapshot set: %w", err)
	}

	s.logger.Debug("Offline snapshot saved",
		zap.String("route_id", routeID.String()),
		zap.Int("journeys", len(journeys)))
	return nil
}

func (s *offlineStore) Load(ctx context.Context, routeID uuid.UUID) (*domain.OfflineSnapshot, error) {
	data, err := s.client.Get(ctx, snapshotKey(routeID)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		s.logger.Error("Failed to load offline snapshot",
			zap.String("route_id", routeID.String()), zap.Error(err))
		return nil, fmt.Errorf("offline snapshot get: %w", err)
	}

	var snap domain.OfflineSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		s.logger.Error("Failed to unmarshal offline snapshot", zap.Error(err))
		return nil, fmt.Errorf("unmarshal snapshot: %w", err)
	}

	if !snap.IsUsable(s.now()) {
		s.logger.Debug("Offline snapshot expired",
			zap.String("route_id", routeID.String()),
			zap.Time("stored_at", snap.StoredAt))
		return nil, nil
	}

	return &snap, nil
}
