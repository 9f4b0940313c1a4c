package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"math/rand"
	"time"

	"github.com/journey-microservice/internal/config"
	"github.com/journey-microservice/internal/domain"
	"github.com/journey-microservice/internal/domain/repository"
	apperrors "github.com/journey-microservice/internal/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// FetchResult is one resolved journey search: the decoded payload plus
// how it was obtained.
type FetchResult struct {
	Payload *domain.JourneyPayload

	// FromCache marks a response served from the local cache without a
	// network round trip (fresh entry or 304 revalidation).
	FromCache bool

	// Coalesced marks a caller that attached to another caller's
	// in-flight request instead of issuing its own. Informational, not
	// an error.
	Coalesced bool
}

var errNotModifiedWithoutCache = errors.New("304 response without a cached entry to revalidate")

// Sleeper waits for the given duration or until the context is
// cancelled. Injected so retry timing is testable without real sleeps.
type Sleeper func(ctx context.Context, d time.Duration) error

// Fetcher executes one logical journey request with response caching,
// bounded exponential-backoff retries and coalescing of concurrent
// identical requests.
type Fetcher struct {
	api    repository.TransitRepository
	cache  repository.ResponseCache
	logger *zap.Logger

	maxAttempts int
	baseDelay   time.Duration
	multiplier  float64
	maxDelay    time.Duration

	group  singleflight.Group
	sleep  Sleeper
	jitter func() float64 // uniform in [-0.1, 0.1]
}

// NewFetcher creates a Fetcher with the configured retry policy.
func NewFetcher(
	api repository.TransitRepository,
	cache repository.ResponseCache,
	cfg *config.RetryConfig,
	logger *zap.Logger,
) *Fetcher {
	return &Fetcher{
		api:         api,
		cache:       cache,
		logger:      logger,
		maxAttempts: cfg.MaxAttempts,
		baseDelay:   cfg.BaseDelay,
		multiplier:  cfg.Multiplier,
		maxDelay:    cfg.MaxDelay,
		sleep:       sleepWithContext,
		jitter: func() float64 {
			return rand.Float64()*0.2 - 0.1
		},
	}
}

// WithSleeper replaces the backoff wait, for tests.
func (f *Fetcher) WithSleeper(s Sleeper) *Fetcher {
	f.sleep = s
	return f
}

// WithJitter replaces the jitter source, for tests.
func (f *Fetcher) WithJitter(j func() float64) *Fetcher {
	f.jitter = j
	return f
}

// Fetch resolves the request: coalesced onto any identical in-flight
// request, served from cache when fresh, otherwise fetched with up to
// maxAttempts network attempts. Exhaustion surfaces as TOO_MANY_RETRIES,
// distinct from the last underlying failure.
func (f *Fetcher) Fetch(ctx context.Context, req domain.JourneySearchRequest) (*FetchResult, error) {
	key := req.Fingerprint()

	v, err, shared := f.group.Do(key, func() (interface{}, error) {
		return f.fetchWithRetry(ctx, req, key)
	})
	if err != nil {
		return nil, err
	}

	res := v.(*FetchResult)
	if shared {
		// Hand coalesced callers their own copy so the flag on the
		// primary caller's result stays false.
		coalesced := *res
		coalesced.Coalesced = true
		f.logger.Debug("Request coalesced", zap.String("key", key))
		return &coalesced, nil
	}
	return res, nil
}

func (f *Fetcher) fetchWithRetry(ctx context.Context, req domain.JourneySearchRequest, key string) (*FetchResult, error) {
	cached := f.cache.Retrieve(key)
	if cached != nil && !cached.Expired {
		payload, err := decodePayload(cached.Body)
		if err == nil {
			f.logger.Debug("Cache hit", zap.String("key", key))
			return &FetchResult{Payload: payload, FromCache: true}, nil
		}
		// A corrupt entry falls through to the network.
		f.logger.Warn("Cached response undecodable, refetching", zap.String("key", key), zap.Error(err))
		cached = nil
	}

	etag := ""
	if cached != nil {
		etag = cached.ETag
	}

	var lastErr error
	for attempt := 1; attempt <= f.maxAttempts; attempt++ {
		if attempt > 1 {
			delay := f.backoffDelay(attempt - 2)
			if retryAfter, ok := apperrors.RetryAfter(lastErr); ok {
				delay = retryAfter
			}
			f.logger.Debug("Retrying after backoff",
				zap.String("key", key),
				zap.Int("attempt", attempt),
				zap.Duration("delay", delay))
			if err := f.sleep(ctx, delay); err != nil {
				return nil, apperrors.Network(err)
			}
		}

		result, err := f.api.SearchJourneys(ctx, req, etag)
		if err != nil {
			if !apperrors.IsRetryable(err) {
				return nil, err
			}
			lastErr = err
			continue
		}

		body := result.Body
		if result.NotModified {
			if cached == nil {
				// A 304 without revalidation material is a server
				// contract violation; treat it as an empty payload.
				lastErr = apperrors.DecodingFailed(errNotModifiedWithoutCache)
				continue
			}
			body = cached.Body
			// Revalidation restarts the freshness window.
			f.cache.Store(key, body, cached.ETag, result.CacheControl)
		} else if result.ETag != "" || result.CacheControl != "" {
			f.cache.Store(key, body, result.ETag, result.CacheControl)
		}

		payload, err := decodePayload(body)
		if err != nil {
			// Shape mismatches don't improve on retry.
			return nil, apperrors.DecodingFailed(err)
		}

		return &FetchResult{Payload: payload, FromCache: result.NotModified}, nil
	}

	f.logger.Warn("Retries exhausted",
		zap.String("key", key),
		zap.Int("attempts", f.maxAttempts),
		zap.Error(lastErr))
	return nil, apperrors.TooManyRetries(f.maxAttempts, lastErr)
}

// backoffDelay computes min(maxDelay, baseDelay * multiplier^n) with
// ±10% jitter.
func (f *Fetcher) backoffDelay(n int) time.Duration {
	if n < 0 {
		n = 0
	}
	delay := time.Duration(float64(f.baseDelay) * math.Pow(f.multiplier, float64(n)))
	if delay > f.maxDelay {
		delay = f.maxDelay
	}
	jittered := time.Duration(float64(delay) * (1 + f.jitter()))
	if jittered < 0 {
		jittered = 0
	}
	return jittered
}

func decodePayload(body []byte) (*domain.JourneyPayload, error) {
	var payload domain.JourneyPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
