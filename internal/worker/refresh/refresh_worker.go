package refresh

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/journey-microservice/internal/domain"
	"github.com/journey-microservice/internal/domain/repository"
	"github.com/journey-microservice/internal/usecase"
	"github.com/journey-microservice/internal/worker"
	"go.uber.org/zap"
)

// Worker periodically refreshes every tracked route whose recommended
// refresh time has come. It stands in for the OS-level background
// trigger in service deployments: the scheduling policy itself lives in
// the usecase layer.
type Worker struct {
	*worker.BaseWorker
	routes       repository.RouteRepository
	journeyUC    *usecase.JourneyUseCase
	pollInterval time.Duration
	now          func() time.Time
}

// NewWorker creates the periodic refresh worker.
func NewWorker(
	routes repository.RouteRepository,
	journeyUC *usecase.JourneyUseCase,
	pollInterval time.Duration,
	logger *zap.Logger,
) *Worker {
	return &Worker{
		BaseWorker:   worker.NewBaseWorker("route-refresh", logger),
		routes:       routes,
		journeyUC:    journeyUC,
		pollInterval: pollInterval,
		now:          time.Now,
	}
}

// Start runs the refresh loop until stopped.
func (w *Worker) Start(ctx context.Context) error {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	// nextDue is owned by this goroutine alone.
	nextDue := make(map[uuid.UUID]time.Time)

	for {
		select {
		case <-ctx.Done():
			w.Logger().Info("Refresh worker context cancelled")
			return nil
		case <-w.StopChan():
			w.Logger().Info("Refresh worker stopped")
			return nil
		case <-ticker.C:
			w.refreshDueRoutes(ctx, nextDue)
		}
	}
}

func (w *Worker) refreshDueRoutes(ctx context.Context, nextDue map[uuid.UUID]time.Time) {
	routes, err := w.routes.GetTrackedRoutes(ctx)
	if err != nil {
		w.Logger().Error("Failed to load tracked routes", zap.Error(err))
		return
	}

	now := w.now()
	due := make([]domain.Route, 0, len(routes))
	for _, route := range routes {
		if route.Interval.IsManual() {
			continue
		}
		if at, ok := nextDue[route.ID]; ok && now.Before(at) {
			continue
		}
		due = append(due, route)
	}
	if len(due) == 0 {
		return
	}

	w.Logger().Debug("Refreshing due routes",
		zap.Int("tracked", len(routes)),
		zap.Int("due", len(due)))

	for _, route := range due {
		go w.refreshRoute(ctx, route)

		next, err := w.journeyUC.NextScheduledRefresh(ctx, route.ID)
		if err != nil || next.IsZero() {
			next = now.Add(w.pollInterval)
		}
		nextDue[route.ID] = next
	}
}

// refreshRoute runs one batched fetch; results land in the offline
// store as a side effect, so the outcome here is only logged.
func (w *Worker) refreshRoute(ctx context.Context, route domain.Route) {
	result, err := w.journeyUC.FetchJourneys(
		ctx,
		route.ID,
		route.Origin,
		route.Destination,
		route.ResultCount,
		usecase.PriorityNormal,
	)
	if err != nil {
		w.Logger().Error("Background refresh failed",
			zap.String("route_id", route.ID.String()),
			zap.Error(err))
		return
	}

	w.Logger().Debug("Background refresh completed",
		zap.String("route_id", route.ID.String()),
		zap.String("source", string(result.Source)),
		zap.Int("journeys", len(result.Journeys)))
}
