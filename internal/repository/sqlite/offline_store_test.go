package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/journey-microservice/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testJourneys(dep time.Time) []domain.JourneyOption {
	return []domain.JourneyOption{
		{
			Departure:    dep,
			Arrival:      dep.Add(30 * time.Minute),
			TotalMinutes: 30,
			LineName:     "RE1",
			RefreshToken: "tok",
		},
	}
}

func TestOfflineStore_SaveLoad(t *testing.T) {
	logger := zap.NewNop()
	base := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	now := base

	store, err := NewOfflineStoreWithClock(
		filepath.Join(t.TempDir(), "offline.db"),
		logger,
		func() time.Time { return now },
	)
	require.NoError(t, err)
	defer store.(*offlineStore).Close()

	ctx := context.Background()
	routeID := uuid.New()

	t.Run("missing snapshot is nil without error", func(t *testing.T) {
		snap, err := store.Load(ctx, uuid.New())
		require.NoError(t, err)
		assert.Nil(t, snap)
	})

	t.Run("roundtrip", func(t *testing.T) {
		journeys := testJourneys(base.Add(time.Hour))
		require.NoError(t, store.Save(ctx, routeID, journeys))

		snap, err := store.Load(ctx, routeID)
		require.NoError(t, err)
		require.NotNil(t, snap)
		assert.Equal(t, routeID, snap.RouteID)
		require.Len(t, snap.Journeys, 1)
		assert.Equal(t, "RE1", snap.Journeys[0].LineName)
		assert.True(t, snap.StoredAt.Equal(base))
	})

	t.Run("save overwrites the whole snapshot", func(t *testing.T) {
		replacement := testJourneys(base.Add(2 * time.Hour))
		replacement[0].LineName = "ICE 500"
		require.NoError(t, store.Save(ctx, routeID, replacement))

		snap, err := store.Load(ctx, routeID)
		require.NoError(t, err)
		require.NotNil(t, snap)
		require.Len(t, snap.Journeys, 1)
		assert.Equal(t, "ICE 500", snap.Journeys[0].LineName)
	})

	t.Run("snapshot expires after the validity window", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, routeID, testJourneys(base.Add(time.Hour))))

		now = base.Add(time.Hour + 59*time.Minute)
		snap, err := store.Load(ctx, routeID)
		require.NoError(t, err)
		assert.NotNil(t, snap)

		now = base.Add(2*time.Hour + time.Minute)
		snap, err = store.Load(ctx, routeID)
		require.NoError(t, err)
		assert.Nil(t, snap)

		now = base
	})

	t.Run("empty journey list is a valid snapshot", func(t *testing.T) {
		emptyRoute := uuid.New()
		require.NoError(t, store.Save(ctx, emptyRoute, []domain.JourneyOption{}))

		snap, err := store.Load(ctx, emptyRoute)
		require.NoError(t, err)
		require.NotNil(t, snap)
		assert.Empty(t, snap.Journeys)
	})
}

func TestOfflineStore_SeparateRoutes(t *testing.T) {
	store, err := NewOfflineStore(filepath.Join(t.TempDir(), "offline.db"), zap.NewNop())
	require.NoError(t, err)
	defer store.(*offlineStore).Close()

	ctx := context.Background()
	a := uuid.New()
	b := uuid.New()
	dep := time.Now().Add(time.Hour)

	require.NoError(t, store.Save(ctx, a, testJourneys(dep)))

	snap, err := store.Load(ctx, b)
	require.NoError(t, err)
	assert.Nil(t, snap)

	snap, err = store.Load(ctx, a)
	require.NoError(t, err)
	assert.NotNil(t, snap)
}
