package repository

import (
	"github.com/journey-microservice/internal/domain"
)

// ResponseCache stores prior HTTP responses keyed by request fingerprint.
// Retrieve is a pure local lookup: it never performs I/O, and expiry is
// computed at call time, so two retrievals of the same entry at different
// instants may disagree on freshness.
type ResponseCache interface {
	// Store saves a response body with its validators. Same-key writes
	// are last-write-wins.
	Store(key string, body []byte, etag string, cacheControl string)

	// Retrieve returns the stored entry with its Expired flag computed
	// for the current instant, or nil on a miss.
	Retrieve(key string) *domain.CachedResponse
}
