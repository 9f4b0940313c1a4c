package memcache

import (
	"hash/fnv"
	"sync"
	"time"

	"github.com/journey-microservice/internal/domain"
	"github.com/journey-microservice/internal/domain/repository"
	"go.uber.org/zap"
)

// shardCount spreads keys over independent locks so stores and
// retrievals for unrelated routes never contend.
const shardCount = 16

type shard struct {
	mu      sync.RWMutex
	entries map[string]domain.CachedResponse
}

type responseCache struct {
	shards [shardCount]*shard
	logger *zap.Logger
	now    func() time.Time
}

// NewResponseCache creates the in-process HTTP response cache.
func NewResponseCache(logger *zap.Logger) repository.ResponseCache {
	return newResponseCache(logger, time.Now)
}

// NewResponseCacheWithClock injects the clock used for expiry checks.
func NewResponseCacheWithClock(logger *zap.Logger, now func() time.Time) repository.ResponseCache {
	return newResponseCache(logger, now)
}

func newResponseCache(logger *zap.Logger, now func() time.Time) *responseCache {
	c := &responseCache{
		logger: logger,
		now:    now,
	}
	for i := range c.shards {
		c.shards[i] = &shard{entries: make(map[string]domain.CachedResponse)}
	}
	return c
}

func (c *responseCache) shardFor(key string) *shard {
	h := fnv.New32a()
	h.Write([]byte(key))
	return c.shards[h.Sum32()%shardCount]
}

func (c *responseCache) Store(key string, body []byte, etag string, cacheControl string) {
	entry := domain.CachedResponse{
		Body:     append([]byte(nil), body...),
		ETag:     etag,
		MaxAge:   ParseMaxAge(cacheControl),
		StoredAt: c.now(),
	}

	s := c.shardFor(key)
	s.mu.Lock()
	s.entries[key] = entry
	s.mu.Unlock()

	c.logger.Debug("Response cached",
		zap.String("key", key),
		zap.Bool("has_etag", etag != ""),
		zap.Bool("has_max_age", entry.MaxAge != nil))
}

func (c *responseCache) Retrieve(key string) *domain.CachedResponse {
	s := c.shardFor(key)
	s.mu.RLock()
	entry, ok := s.entries[key]
	s.mu.RUnlock()

	if !ok {
		return nil
	}

	// Expiry is decided against the clock at this call, not at store
	// time. Eviction is lazy: expired entries stay around as
	// revalidation material for their etag.
	entry.Expired = entry.IsExpired(c.now())
	return &entry
}
