package postgres_test

import (
	"context"
	"fmt"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/journey-microservice/internal/domain"
	apperrors "github.com/journey-microservice/internal/pkg/errors"
	"github.com/journey-microservice/internal/repository/postgres"
)

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// setupTestDB connects to the test database, skipping when none is
// running locally.
func setupTestDB(t *testing.T) *postgres.DB {
	t.Helper()

	dsn := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		getEnv("TEST_DB_HOST", "localhost"),
		getEnv("TEST_DB_PORT", "5432"),
		getEnv("TEST_DB_USER", "postgres"),
		getEnv("TEST_DB_PASSWORD", "postgres"),
		getEnv("TEST_DB_NAME", "journeys_test"),
		getEnv("TEST_DB_SSLMODE", "disable"),
	)

	db, err := sqlx.Connect("pgx", dsn)
	if err != nil {
		t.Skipf("PostgreSQL not available for integration tests: %v", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS tracked_routes (
			id UUID PRIMARY KEY,
			origin_id TEXT,
			origin_name TEXT,
			origin_lat DOUBLE PRECISION,
			origin_lon DOUBLE PRECISION,
			destination_id TEXT,
			destination_name TEXT,
			destination_lat DOUBLE PRECISION,
			destination_lon DOUBLE PRECISION,
			refresh_interval INTEGER NOT NULL DEFAULT 0,
			result_count INTEGER NOT NULL DEFAULT 5,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`)
	require.NoError(t, err)

	_, err = db.Exec(`TRUNCATE tracked_routes`)
	require.NoError(t, err)

	t.Cleanup(func() { db.Close() })
	return postgres.NewDBForTest(db, zap.NewNop())
}

func insertRoute(t *testing.T, db *postgres.DB, route domain.Route) {
	t.Helper()
	_, err := db.Exec(`
		INSERT INTO tracked_routes (
			id,
			origin_id, origin_name, origin_lat, origin_lon,
			destination_id, destination_name, destination_lat, destination_lon,
			refresh_interval, result_count
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		route.ID,
		route.Origin.ID, route.Origin.Name, route.Origin.Lat, route.Origin.Lon,
		route.Destination.ID, route.Destination.Name, route.Destination.Lat, route.Destination.Lon,
		int(route.Interval), route.ResultCount,
	)
	require.NoError(t, err)
}

func TestRouteRepository(t *testing.T) {
	db := setupTestDB(t)
	repo := postgres.NewRouteRepository(db)
	ctx := context.Background()

	route := domain.Route{
		ID:          uuid.New(),
		Origin:      domain.Place{ID: "8011160", Name: "Berlin Hbf", Lat: 52.525589, Lon: 13.369549},
		Destination: domain.Place{ID: "8089001", Name: "Berlin Alexanderplatz", Lat: 52.521481, Lon: 13.410961},
		Interval:    domain.Refresh5Min,
		ResultCount: 5,
	}
	manual := domain.Route{
		ID:          uuid.New(),
		Origin:      domain.Place{Name: "Somewhere", Lat: 48.1, Lon: 11.6},
		Destination: domain.Place{ID: "8000261"},
		Interval:    domain.RefreshManual,
		ResultCount: 3,
	}
	insertRoute(t, db, route)
	insertRoute(t, db, manual)

	t.Run("GetRoute returns the stored route", func(t *testing.T) {
		got, err := repo.GetRoute(ctx, route.ID)
		require.NoError(t, err)
		assert.Equal(t, route, *got)
	})

	t.Run("GetRoute maps missing rows to not found", func(t *testing.T) {
		_, err := repo.GetRoute(ctx, uuid.New())
		require.Error(t, err)
		assert.True(t, apperrors.IsCode(err, apperrors.CodeRouteNotFound))
	})

	t.Run("GetTrackedRoutes includes manual routes", func(t *testing.T) {
		routes, err := repo.GetTrackedRoutes(ctx)
		require.NoError(t, err)
		require.Len(t, routes, 2)

		byID := make(map[uuid.UUID]domain.Route, len(routes))
		for _, r := range routes {
			byID[r.ID] = r
		}
		assert.Equal(t, route, byID[route.ID])
		assert.Equal(t, manual, byID[manual.ID])
		assert.True(t, byID[manual.ID].Interval.IsManual())
	})
}
