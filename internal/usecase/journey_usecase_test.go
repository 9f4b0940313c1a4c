package usecase_test

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/journey-microservice/internal/config"
	"github.com/journey-microservice/internal/domain"
	apperrors "github.com/journey-microservice/internal/pkg/errors"
	"github.com/journey-microservice/internal/repository/memcache"
	"github.com/journey-microservice/internal/usecase"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// memOfflineStore is an in-memory OfflineStore with the same expiry
// semantics as the persistent ones.
type memOfflineStore struct {
	mu        sync.Mutex
	snapshots map[uuid.UUID]domain.OfflineSnapshot
	saves     int
	now       func() time.Time
}

func newMemOfflineStore(now func() time.Time) *memOfflineStore {
	return &memOfflineStore{
		snapshots: make(map[uuid.UUID]domain.OfflineSnapshot),
		now:       now,
	}
}

func (s *memOfflineStore) Save(ctx context.Context, routeID uuid.UUID, journeys []domain.JourneyOption) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saves++
	s.snapshots[routeID] = domain.OfflineSnapshot{
		RouteID:  routeID,
		Journeys: journeys,
		StoredAt: s.now(),
	}
	return nil
}

func (s *memOfflineStore) Load(ctx context.Context, routeID uuid.UUID) (*domain.OfflineSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap, ok := s.snapshots[routeID]
	if !ok || !snap.IsUsable(s.now()) {
		return nil, nil
	}
	return &snap, nil
}

func (s *memOfflineStore) seed(routeID uuid.UUID, journeys []domain.JourneyOption, storedAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshots[routeID] = domain.OfflineSnapshot{RouteID: routeID, Journeys: journeys, StoredAt: storedAt}
}

func (s *memOfflineStore) saveCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}

// memRouteRepo serves a fixed route set.
type memRouteRepo struct {
	routes map[uuid.UUID]domain.Route
}

func (r *memRouteRepo) GetTrackedRoutes(ctx context.Context) ([]domain.Route, error) {
	out := make([]domain.Route, 0, len(r.routes))
	for _, route := range r.routes {
		out = append(out, route)
	}
	return out, nil
}

func (r *memRouteRepo) GetRoute(ctx context.Context, id uuid.UUID) (*domain.Route, error) {
	route, ok := r.routes[id]
	if !ok {
		return nil, apperrors.ErrRouteNotFound
	}
	return &route, nil
}

type ucFixture struct {
	uc      *usecase.JourneyUseCase
	api     *stubTransitAPI
	offline *memOfflineStore
	routes  *memRouteRepo
	now     time.Time
}

func newUCFixture(t *testing.T, api *stubTransitAPI) *ucFixture {
	t.Helper()
	logger := zap.NewNop()
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	cache := memcache.NewResponseCacheWithClock(logger, clock)
	fetcher := usecase.NewFetcher(api, cache, retryConfig(), logger).
		WithSleeper(func(ctx context.Context, d time.Duration) error { return nil }).
		WithJitter(func() float64 { return 0 })

	offline := newMemOfflineStore(clock)
	routes := &memRouteRepo{routes: make(map[uuid.UUID]domain.Route)}

	uc := usecase.NewJourneyUseCase(
		fetcher,
		usecase.NewDecoder(logger),
		usecase.NewSelector(),
		offline,
		routes,
		&config.BatcherConfig{Window: 5 * time.Millisecond, FanOut: 4, QueueSize: 16},
		logger,
	).WithClock(clock)

	uc.Start(context.Background())
	t.Cleanup(uc.Stop)

	return &ucFixture{uc: uc, api: api, offline: offline, routes: routes, now: now}
}

func livePayload(dep time.Time) string {
	return fmt.Sprintf(`{"journeys":[{"refreshToken":"tok","legs":[{
		"origin":{"id":"1","name":"Origin"},
		"destination":{"id":"2","name":"Destination"},
		"departure":%q,"arrival":%q
	}]}]}`, dep.Format(time.RFC3339), dep.Add(30*time.Minute).Format(time.RFC3339))
}

func TestJourneyUseCase_FetchJourneys(t *testing.T) {
	t.Run("live fetch ranks and snapshots", func(t *testing.T) {
		api := &stubTransitAPI{fn: func(call int, etag string) (*domain.APIResult, error) {
			return &domain.APIResult{Body: []byte(livePayload(time.Date(2025, 3, 10, 13, 0, 0, 0, time.UTC)))}, nil
		}}
		fx := newUCFixture(t, api)
		routeID := uuid.New()

		res, err := fx.uc.FetchJourneys(
			context.Background(), routeID,
			domain.Place{ID: "1"}, domain.Place{ID: "2"},
			5, usecase.PriorityNormal,
		)
		require.NoError(t, err)
		assert.Equal(t, usecase.SourceLive, res.Source)
		assert.Nil(t, res.StaleAsOf)
		require.Len(t, res.Journeys, 1)
		require.NotNil(t, res.Best)
		assert.Equal(t, 30, res.Best.TotalMinutes)
		assert.Equal(t, 1, fx.offline.saveCount())
	})

	t.Run("terminal failure serves the stale snapshot", func(t *testing.T) {
		api := &stubTransitAPI{fn: func(call int, etag string) (*domain.APIResult, error) {
			return nil, apperrors.HTTPStatus(http.StatusServiceUnavailable, nil)
		}}
		fx := newUCFixture(t, api)
		routeID := uuid.New()

		storedAt := fx.now.Add(-90 * time.Minute)
		fx.offline.seed(routeID, []domain.JourneyOption{
			{Departure: fx.now.Add(time.Hour), Arrival: fx.now.Add(2 * time.Hour), TotalMinutes: 60},
		}, storedAt)

		res, err := fx.uc.FetchJourneys(
			context.Background(), routeID,
			domain.Place{ID: "1"}, domain.Place{ID: "2"},
			5, usecase.PriorityNormal,
		)
		require.NoError(t, err)
		assert.Equal(t, usecase.SourceCached, res.Source)
		require.NotNil(t, res.StaleAsOf)
		assert.Equal(t, storedAt, *res.StaleAsOf)
		require.Len(t, res.Journeys, 1)
		require.NotNil(t, res.Best)
		// Retries were exhausted before falling back.
		assert.Equal(t, 3, api.callCount())
	})

	t.Run("terminal failure without a snapshot is explicitly unavailable", func(t *testing.T) {
		api := &stubTransitAPI{fn: func(call int, etag string) (*domain.APIResult, error) {
			return nil, apperrors.HTTPStatus(http.StatusServiceUnavailable, nil)
		}}
		fx := newUCFixture(t, api)

		res, err := fx.uc.FetchJourneys(
			context.Background(), uuid.New(),
			domain.Place{ID: "1"}, domain.Place{ID: "2"},
			5, usecase.PriorityNormal,
		)
		require.NoError(t, err)
		assert.Equal(t, usecase.SourceUnavailable, res.Source)
		assert.Empty(t, res.Journeys)
		assert.Nil(t, res.Best)
		assert.Equal(t, apperrors.CodeTooManyRetries, res.Reason)
	})

	t.Run("expired snapshot does not resurrect", func(t *testing.T) {
		api := &stubTransitAPI{fn: func(call int, etag string) (*domain.APIResult, error) {
			return nil, apperrors.HTTPStatus(http.StatusServiceUnavailable, nil)
		}}
		fx := newUCFixture(t, api)
		routeID := uuid.New()
		fx.offline.seed(routeID, []domain.JourneyOption{{TotalMinutes: 60}}, fx.now.Add(-3*time.Hour))

		res, err := fx.uc.FetchJourneys(
			context.Background(), routeID,
			domain.Place{ID: "1"}, domain.Place{ID: "2"},
			5, usecase.PriorityNormal,
		)
		require.NoError(t, err)
		assert.Equal(t, usecase.SourceUnavailable, res.Source)
	})

	t.Run("invalid places are rejected before enqueueing", func(t *testing.T) {
		api := &stubTransitAPI{fn: func(call int, etag string) (*domain.APIResult, error) {
			return &domain.APIResult{Body: []byte(emptyPayload)}, nil
		}}
		fx := newUCFixture(t, api)

		_, err := fx.uc.FetchJourneys(
			context.Background(), uuid.New(),
			domain.Place{}, domain.Place{ID: "2"},
			5, usecase.PriorityNormal,
		)
		require.Error(t, err)
		assert.True(t, apperrors.IsCode(err, apperrors.CodeInvalidRequest))
		assert.Equal(t, 0, api.callCount())
	})

	t.Run("empty live result is live, not unavailable", func(t *testing.T) {
		api := &stubTransitAPI{fn: func(call int, etag string) (*domain.APIResult, error) {
			return &domain.APIResult{Body: []byte(emptyPayload)}, nil
		}}
		fx := newUCFixture(t, api)

		res, err := fx.uc.FetchJourneys(
			context.Background(), uuid.New(),
			domain.Place{ID: "1"}, domain.Place{ID: "2"},
			5, usecase.PriorityNormal,
		)
		require.NoError(t, err)
		assert.Equal(t, usecase.SourceLive, res.Source)
		assert.Empty(t, res.Journeys)
		assert.Nil(t, res.Best)
	})
}

func TestJourneyUseCase_BestJourney(t *testing.T) {
	api := &stubTransitAPI{fn: func(call int, etag string) (*domain.APIResult, error) {
		return &domain.APIResult{Body: []byte(livePayload(time.Date(2025, 3, 10, 13, 0, 0, 0, time.UTC)))}, nil
	}}
	fx := newUCFixture(t, api)

	routeID := uuid.New()
	fx.routes.routes[routeID] = domain.Route{
		ID:          routeID,
		Origin:      domain.Place{ID: "1"},
		Destination: domain.Place{ID: "2"},
		Interval:    domain.Refresh5Min,
		ResultCount: 5,
	}

	best, err := fx.uc.BestJourney(context.Background(), routeID)
	require.NoError(t, err)
	require.NotNil(t, best)
	assert.Equal(t, 30, best.TotalMinutes)

	_, err = fx.uc.BestJourney(context.Background(), uuid.New())
	assert.True(t, apperrors.IsCode(err, apperrors.CodeRouteNotFound))
}

func TestJourneyUseCase_NextScheduledRefresh(t *testing.T) {
	api := &stubTransitAPI{fn: func(call int, etag string) (*domain.APIResult, error) {
		return &domain.APIResult{Body: []byte(emptyPayload)}, nil
	}}
	fx := newUCFixture(t, api)

	t.Run("manual route yields the sentinel", func(t *testing.T) {
		routeID := uuid.New()
		fx.routes.routes[routeID] = domain.Route{ID: routeID, Interval: domain.RefreshManual}

		next, err := fx.uc.NextScheduledRefresh(context.Background(), routeID)
		require.NoError(t, err)
		assert.True(t, next.IsZero())
	})

	t.Run("snapshot departure drives urgency", func(t *testing.T) {
		routeID := uuid.New()
		fx.routes.routes[routeID] = domain.Route{ID: routeID, Interval: domain.Refresh15Min}
		fx.offline.seed(routeID, []domain.JourneyOption{
			{Departure: fx.now.Add(-time.Hour)},         // already departed, skipped
			{Departure: fx.now.Add(8 * time.Minute)},    // next upcoming
			{Departure: fx.now.Add(40 * time.Minute)},
		}, fx.now.Add(-10*time.Minute))

		next, err := fx.uc.NextScheduledRefresh(context.Background(), routeID)
		require.NoError(t, err)
		assert.Equal(t, fx.now.Add(time.Minute), next)
	})

	t.Run("no snapshot falls back to the default cadence", func(t *testing.T) {
		routeID := uuid.New()
		fx.routes.routes[routeID] = domain.Route{ID: routeID, Interval: domain.Refresh15Min}

		next, err := fx.uc.NextScheduledRefresh(context.Background(), routeID)
		require.NoError(t, err)
		assert.Equal(t, fx.now.Add(15*time.Minute), next)
	})

	t.Run("unknown route errors", func(t *testing.T) {
		_, err := fx.uc.NextScheduledRefresh(context.Background(), uuid.New())
		assert.True(t, apperrors.IsCode(err, apperrors.CodeRouteNotFound))
	})
}
