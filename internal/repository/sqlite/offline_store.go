package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/journey-microservice/internal/domain"
	"github.com/journey-microservice/internal/domain/repository"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS offline_snapshots (
	route_id  TEXT PRIMARY KEY,
	journeys  TEXT NOT NULL,
	stored_at TEXT NOT NULL
);
`

type offlineStore struct {
	db     *sqlx.DB
	logger *zap.Logger
	now    func() time.Time
}

// NewOfflineStore opens (and if needed initializes) the file-backed
// last-known-good snapshot store. Meant for single-node deployments
// where a Redis dependency is not wanted.
func NewOfflineStore(path string, logger *zap.Logger) (repository.OfflineStore, error) {
	db, err := sqlx.Connect("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	// modernc's driver serializes writes; one connection avoids
	// SQLITE_BUSY churn under concurrent saves.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	logger.Info("SQLite offline store opened", zap.String("path", path))

	return &offlineStore{
		db:     db,
		logger: logger,
		now:    time.Now,
	}, nil
}

// NewOfflineStoreWithClock injects the clock, for tests.
func NewOfflineStoreWithClock(path string, logger *zap.Logger, now func() time.Time) (repository.OfflineStore, error) {
	store, err := NewOfflineStore(path, logger)
	if err != nil {
		return nil, err
	}
	store.(*offlineStore).now = now
	return store, nil
}

func (s *offlineStore) Save(ctx context.Context, routeID uuid.UUID, journeys []domain.JourneyOption) error {
	snap := domain.OfflineSnapshot{
		RouteID:  routeID,
		Journeys: journeys,
		StoredAt: s.now(),
	}

	data, err := json.Marshal(snap.Journeys)
	if err != nil {
		return fmt.Errorf("marshal journeys: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO offline_snapshots (route_id, journeys, stored_at)
		VALUES (?, ?, ?)
		ON CONFLICT(route_id) DO UPDATE SET
			journeys = excluded.journeys,
			stored_at = excluded.stored_at`,
		routeID.String(), string(data), snap.StoredAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		s.logger.Error("Failed to save offline snapshot",
			zap.String("route_id", routeID.String()), zap.Error(err))
		return fmt.Errorf("offline snapshot upsert: %w", err)
	}

	s.logger.Debug("Offline snapshot saved",
		zap.String("route_id", routeID.String()),
		zap.Int("journeys", len(journeys)))
	return nil
}

func (s *offlineStore) Load(ctx context.Context, routeID uuid.UUID) (*domain.OfflineSnapshot, error) {
	var row struct {
		Journeys string `db:"journeys"`
		StoredAt string `db:"stored_at"`
	}
	err := s.db.GetContext(ctx, &row, `
		SELECT journeys, stored_at FROM offline_snapshots WHERE route_id = ?`,
		routeID.String(),
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		s.logger.Error("Failed to load offline snapshot",
			zap.String("route_id", routeID.String()), zap.Error(err))
		return nil, fmt.Errorf("offline snapshot select: %w", err)
	}

	storedAt, err := time.Parse(time.RFC3339Nano, row.StoredAt)
	if err != nil {
		return nil, fmt.Errorf("parse stored_at: %w", err)
	}

	snap := domain.OfflineSnapshot{
		RouteID:  routeID,
		StoredAt: storedAt,
	}
	if err := json.Unmarshal([]byte(row.Journeys), &snap.Journeys); err != nil {
		return nil, fmt.Errorf("unmarshal journeys: %w", err)
	}

	if !snap.IsUsable(s.now()) {
		s.logger.Debug("Offline snapshot expired",
			zap.String("route_id", routeID.String()),
			zap.Time("stored_at", snap.StoredAt))
		return nil, nil
	}

	return &snap, nil
}

// Close closes the underlying database handle.
func (s *offlineStore) Close() error {
	return s.db.Close()
}
