package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/journey-microservice/internal/config"
	"github.com/journey-microservice/internal/domain"
	"github.com/journey-microservice/internal/domain/repository"
	apperrors "github.com/journey-microservice/internal/pkg/errors"
	"go.uber.org/zap"
)

// ResultSource tells the caller what kind of answer it received.
type ResultSource string

const (
	// SourceLive marks journeys from a successful fetch (network or
	// fresh response cache).
	SourceLive ResultSource = "live"

	// SourceCached marks a stale offline snapshot served after the
	// live fetch failed terminally.
	SourceCached ResultSource = "cached"

	// SourceUnavailable marks "no data, not even cached". An empty
	// live list is different: that is SourceLive with no journeys.
	SourceUnavailable ResultSource = "unavailable"
)

// RouteJourneys is the guaranteed answer for one route: live data, a
// stale-tagged snapshot, or an explicit unavailable state with a reason.
type RouteJourneys struct {
	RouteID   uuid.UUID              `json:"route_id"`
	Journeys  []domain.JourneyOption `json:"journeys"`
	Best      *domain.JourneyOption  `json:"best,omitempty"`
	Source    ResultSource           `json:"source"`
	StaleAsOf *time.Time             `json:"stale_as_of,omitempty"`
	Reason    string                 `json:"reason,omitempty"`
	FetchedAt time.Time              `json:"fetched_at"`
}

// JourneyUseCase wires the fetch pipeline together: batching, resilient
// fetching, decoding, selection, offline fallback and refresh
// scheduling.
type JourneyUseCase struct {
	fetcher  *Fetcher
	decoder  *Decoder
	selector *Selector
	offline  repository.OfflineStore
	routes   repository.RouteRepository
	batcher  *Batcher
	logger   *zap.Logger
	now      func() time.Time

	mu          sync.Mutex
	lastRefresh map[uuid.UUID]time.Time
}

// NewJourneyUseCase creates the pipeline and its internal batcher. The
// batcher is started with Start and drained with Stop.
func NewJourneyUseCase(
	fetcher *Fetcher,
	decoder *Decoder,
	selector *Selector,
	offline repository.OfflineStore,
	routes repository.RouteRepository,
	cfg *config.BatcherConfig,
	logger *zap.Logger,
) *JourneyUseCase {
	uc := &JourneyUseCase{
		fetcher:     fetcher,
		decoder:     decoder,
		selector:    selector,
		offline:     offline,
		routes:      routes,
		logger:      logger,
		now:         time.Now,
		lastRefresh: make(map[uuid.UUID]time.Time),
	}
	uc.batcher = NewBatcher(uc.dispatchRoute, cfg.Window, cfg.FanOut, cfg.QueueSize, logger)
	return uc
}

// WithClock injects the clock, for tests.
func (uc *JourneyUseCase) WithClock(now func() time.Time) *JourneyUseCase {
	uc.now = now
	return uc
}

// Start starts the internal request batcher.
func (uc *JourneyUseCase) Start(ctx context.Context) {
	uc.batcher.Start(ctx)
}

// Stop drains the internal request batcher.
func (uc *JourneyUseCase) Stop() {
	uc.batcher.Stop()
}

// FetchJourneys resolves journeys for one route through the batching
// layer. Recoverable failures never surface as errors: the result is
// live, cached-stale, or explicitly unavailable with a reason.
func (uc *JourneyUseCase) FetchJourneys(
	ctx context.Context,
	routeID uuid.UUID,
	origin, destination domain.Place,
	resultCount int,
	priority Priority,
) (*RouteJourneys, error) {
	if err := origin.Validate(); err != nil {
		return nil, apperrors.ErrInvalidRequest.Wrap(err)
	}
	if err := destination.Validate(); err != nil {
		return nil, apperrors.ErrInvalidRequest.Wrap(err)
	}

	ch, err := uc.batcher.Enqueue(ctx, &BatchRequest{
		RouteID: routeID,
		Search: domain.JourneySearchRequest{
			Origin:      origin,
			Destination: destination,
			ResultCount: resultCount,
		},
		Priority: priority,
	})
	if err != nil {
		return nil, apperrors.ErrInternalServer.Wrap(err)
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Journeys, nil
	}
}

// Route resolves one tracked route from the route store.
func (uc *JourneyUseCase) Route(ctx context.Context, routeID uuid.UUID) (*domain.Route, error) {
	return uc.routes.GetRoute(ctx, routeID)
}

// BestJourney resolves the route from the route store and returns its
// best-ranked option, nil when no compliant option exists.
func (uc *JourneyUseCase) BestJourney(ctx context.Context, routeID uuid.UUID) (*domain.JourneyOption, error) {
	route, err := uc.routes.GetRoute(ctx, routeID)
	if err != nil {
		return nil, err
	}

	result, err := uc.FetchJourneys(ctx, route.ID, route.Origin, route.Destination, route.ResultCount, PriorityHigh)
	if err != nil {
		return nil, err
	}
	return result.Best, nil
}

// NextScheduledRefresh computes when the OS scheduler collaborator
// should invoke the pipeline again for this route. The next known
// departure is taken from the offline snapshot so the computation stays
// network-free.
func (uc *JourneyUseCase) NextScheduledRefresh(ctx context.Context, routeID uuid.UUID) (time.Time, error) {
	route, err := uc.routes.GetRoute(ctx, routeID)
	if err != nil {
		return time.Time{}, err
	}

	var nextDeparture *time.Time
	if snap, err := uc.offline.Load(ctx, routeID); err == nil && snap != nil {
		now := uc.now()
		for _, j := range snap.Journeys {
			if j.Departure.After(now) {
				dep := j.Departure
				nextDeparture = &dep
				break
			}
		}
	}

	return NextRefresh(uc.now(), nextDeparture, uc.lastRefreshFor(routeID), route.Interval), nil
}

// dispatchRoute is the batcher's per-route dispatch: fetch, decode,
// rank, persist; fall back to the offline snapshot on terminal failure.
func (uc *JourneyUseCase) dispatchRoute(ctx context.Context, req *BatchRequest) *BatchResult {
	result, err := uc.fetcher.Fetch(ctx, req.Search)
	if err != nil {
		return &BatchResult{
			RouteID:  req.RouteID,
			Journeys: uc.fallback(ctx, req.RouteID, err),
		}
	}

	options := uc.decoder.Decode(result.Payload)
	ranked := uc.selector.Rank(options)
	var best *domain.JourneyOption
	if len(ranked) > 0 {
		top := ranked[0]
		best = &top
	}
	now := uc.now()

	// Only live successes overwrite the last-known-good snapshot; a
	// save failure degrades the fallback path but not this response.
	if err := uc.offline.Save(ctx, req.RouteID, ranked); err != nil {
		uc.logger.Error("Failed to save offline snapshot",
			zap.String("route_id", req.RouteID.String()),
			zap.Error(err))
	}
	uc.recordRefresh(req.RouteID, now)

	uc.logger.Debug("Route fetched",
		zap.String("route_id", req.RouteID.String()),
		zap.Int("candidates", len(options)),
		zap.Int("ranked", len(ranked)),
		zap.Bool("from_cache", result.FromCache),
		zap.Bool("coalesced", result.Coalesced))

	return &BatchResult{
		RouteID: req.RouteID,
		Journeys: &RouteJourneys{
			RouteID:   req.RouteID,
			Journeys:  ranked,
			Best:      best,
			Source:    SourceLive,
			FetchedAt: now,
		},
	}
}

// fallback consults the offline store after a terminal fetch failure.
func (uc *JourneyUseCase) fallback(ctx context.Context, routeID uuid.UUID, fetchErr error) *RouteJourneys {
	uc.logger.Warn("Live fetch failed, consulting offline store",
		zap.String("route_id", routeID.String()),
		zap.String("reason", apperrors.CodeOf(fetchErr)),
		zap.Error(fetchErr))

	snap, err := uc.offline.Load(ctx, routeID)
	if err != nil {
		uc.logger.Error("Offline store load failed",
			zap.String("route_id", routeID.String()),
			zap.Error(err))
	}

	now := uc.now()
	if snap != nil {
		staleAsOf := snap.StoredAt
		return &RouteJourneys{
			RouteID:   routeID,
			Journeys:  snap.Journeys,
			Best:      uc.selector.SelectBest(snap.Journeys),
			Source:    SourceCached,
			StaleAsOf: &staleAsOf,
			FetchedAt: now,
		}
	}

	reason := apperrors.CodeOf(fetchErr)
	if reason == "" {
		reason = apperrors.CodeNoData
	}
	return &RouteJourneys{
		RouteID:   routeID,
		Journeys:  nil,
		Source:    SourceUnavailable,
		Reason:    reason,
		FetchedAt: now,
	}
}

func (uc *JourneyUseCase) recordRefresh(routeID uuid.UUID, at time.Time) {
	uc.mu.Lock()
	uc.lastRefresh[routeID] = at
	uc.mu.Unlock()
}

func (uc *JourneyUseCase) lastRefreshFor(routeID uuid.UUID) *time.Time {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	if at, ok := uc.lastRefresh[routeID]; ok {
		return &at
	}
	return nil
}
