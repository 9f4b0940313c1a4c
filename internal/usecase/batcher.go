package usecase

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/journey-microservice/internal/domain"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Priority orders pending routes within a flush cycle. Higher tiers are
// dispatched first; a critical arrival flushes the batch immediately.
type Priority int

const (
	PriorityLow Priority = iota
	PriorityNormal
	PriorityHigh
	PriorityCritical
)

func (p Priority) String() string {
	switch p {
	case PriorityCritical:
		return "critical"
	case PriorityHigh:
		return "high"
	case PriorityNormal:
		return "normal"
	default:
		return "low"
	}
}

// BatchRequest is one per-route fetch wish queued for the next batch.
type BatchRequest struct {
	RouteID  uuid.UUID
	Search   domain.JourneySearchRequest
	Priority Priority
}

// BatchResult is the isolated per-route outcome of a flushed batch.
type BatchResult struct {
	RouteID  uuid.UUID
	Journeys *RouteJourneys
	Err      error
}

// DispatchFunc resolves a single batched route fetch.
type DispatchFunc func(ctx context.Context, req *BatchRequest) *BatchResult

type waiter struct {
	ctx context.Context
	ch  chan *BatchResult
}

type pendingRoute struct {
	req     *BatchRequest
	waiters []waiter
}

type enqueueMsg struct {
	req *BatchRequest
	w   waiter
}

// Batcher aggregates per-route fetch requests into scheduled batches
// with priority tiers, bounding request concurrency. Pending state is
// owned by the processing goroutine alone, so an enqueue that arrives
// mid-flush lands in the next batch instead of racing the current one.
type Batcher struct {
	dispatch DispatchFunc
	logger   *zap.Logger

	window time.Duration
	fanOut int

	enqueueChan chan enqueueMsg
	stopChan    chan struct{}
	stopOnce    sync.Once
	wg          sync.WaitGroup
}

// NewBatcher creates a batcher flushing every window with at most
// fanOut concurrent route fetches per flush.
func NewBatcher(
	dispatch DispatchFunc,
	window time.Duration,
	fanOut int,
	queueSize int,
	logger *zap.Logger,
) *Batcher {
	return &Batcher{
		dispatch:    dispatch,
		logger:      logger,
		window:      window,
		fanOut:      fanOut,
		enqueueChan: make(chan enqueueMsg, queueSize),
		stopChan:    make(chan struct{}),
	}
}

// Start starts the batch processing loop.
func (b *Batcher) Start(ctx context.Context) {
	b.wg.Add(1)
	go b.processBatches(ctx)
}

// Stop stops the batcher and waits for in-flight batches to finish.
func (b *Batcher) Stop() {
	b.stopOnce.Do(func() {
		close(b.stopChan)
	})
	b.wg.Wait()
}

// Enqueue queues a route for the next flush and returns the channel its
// result will arrive on. A route already pending at a lower or equal
// priority is upgraded, never duplicated. If the caller's context ends
// before the batch resolves, the result is discarded, not delivered.
func (b *Batcher) Enqueue(ctx context.Context, req *BatchRequest) (<-chan *BatchResult, error) {
	w := waiter{ctx: ctx, ch: make(chan *BatchResult, 1)}
	select {
	case b.enqueueChan <- enqueueMsg{req: req, w: w}:
		return w.ch, nil
	case <-b.stopChan:
		return nil, fmt.Errorf("batcher stopped")
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (b *Batcher) processBatches(ctx context.Context) {
	defer b.wg.Done()

	ticker := time.NewTicker(b.window)
	defer ticker.Stop()

	pending := make(map[uuid.UUID]*pendingRoute)

	flush := func() {
		if len(pending) == 0 {
			return
		}
		batch := pending
		pending = make(map[uuid.UUID]*pendingRoute)

		b.wg.Add(1)
		go b.dispatchBatch(ctx, batch)
	}

	for {
		select {
		case <-ctx.Done():
			b.logger.Info("Batcher context cancelled")
			return

		case <-b.stopChan:
			b.logger.Info("Batcher stopped")
			flush()
			return

		case msg := <-b.enqueueChan:
			if existing, ok := pending[msg.req.RouteID]; ok {
				if msg.req.Priority > existing.req.Priority {
					existing.req.Priority = msg.req.Priority
				}
				existing.waiters = append(existing.waiters, msg.w)
			} else {
				pending[msg.req.RouteID] = &pendingRoute{
					req:     msg.req,
					waiters: []waiter{msg.w},
				}
			}

			// A critical route must not wait for the window.
			if msg.req.Priority == PriorityCritical {
				flush()
			}

		case <-ticker.C:
			flush()
		}
	}
}

// dispatchBatch resolves every route of one batch concurrently up to the
// fan-out bound and delivers all results only once the whole batch has
// settled. One route's failure never blocks or fails its siblings.
func (b *Batcher) dispatchBatch(ctx context.Context, batch map[uuid.UUID]*pendingRoute) {
	defer b.wg.Done()

	routes := make([]*pendingRoute, 0, len(batch))
	for _, p := range batch {
		routes = append(routes, p)
	}
	sort.SliceStable(routes, func(i, j int) bool {
		return routes[i].req.Priority > routes[j].req.Priority
	})

	b.logger.Debug("Dispatching batch", zap.Int("routes", len(routes)))

	results := make([]*BatchResult, len(routes))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.fanOut)
	for i, p := range routes {
		g.Go(func() error {
			results[i] = b.dispatch(gctx, p.req)
			// Errors stay per-route; returning one would cancel
			// sibling fetches through the group context.
			return nil
		})
	}
	g.Wait()

	for i, p := range routes {
		res := results[i]
		if res == nil {
			res = &BatchResult{RouteID: p.req.RouteID, Err: fmt.Errorf("dispatch returned no result")}
		}
		for _, w := range p.waiters {
			if w.ctx.Err() != nil {
				b.logger.Debug("Discarding result for cancelled waiter",
					zap.String("route_id", p.req.RouteID.String()))
				continue
			}
			w.ch <- res
		}
	}
}
