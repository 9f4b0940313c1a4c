package domain

import (
	"time"

	"github.com/google/uuid"
)

// CachedResponse is one stored HTTP result with its validators and
// freshness metadata. Expiry is computed at read time against the
// caller's clock, never at store time.
type CachedResponse struct {
	Body     []byte         `json:"body"`
	ETag     string         `json:"etag,omitempty"`
	MaxAge   *time.Duration `json:"max_age,omitempty"`
	StoredAt time.Time      `json:"stored_at"`

	// Expired is filled in by the cache at retrieval time. Entries
	// without a max-age never expire by time; they are revalidated
	// through the entity tag instead.
	Expired bool `json:"-"`
}

// IsExpired reports whether the entry's max-age has elapsed at the given
// instant.
func (c CachedResponse) IsExpired(now time.Time) bool {
	return c.MaxAge != nil && now.Sub(c.StoredAt) > *c.MaxAge
}

// OfflineSnapshotTTL is how long a last-known-good snapshot stays usable.
const OfflineSnapshotTTL = 2 * time.Hour

// OfflineSnapshot is the last-known-good ranked journey list for a route.
// Snapshots are only overwritten by a successful live fetch and never
// proactively deleted; staleness is decided at load time.
type OfflineSnapshot struct {
	RouteID  uuid.UUID       `json:"route_id"`
	Journeys []JourneyOption `json:"journeys"`
	StoredAt time.Time       `json:"stored_at"`
}

// IsUsable reports whether the snapshot is still within its validity
// window.
func (s OfflineSnapshot) IsUsable(now time.Time) bool {
	return now.Sub(s.StoredAt) < OfflineSnapshotTTL
}
