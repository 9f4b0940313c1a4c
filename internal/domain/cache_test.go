package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCachedResponse_IsExpired(t *testing.T) {
	storedAt := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	maxAge := 60 * time.Second

	t.Run("fresh within max-age", func(t *testing.T) {
		c := CachedResponse{StoredAt: storedAt, MaxAge: &maxAge}
		assert.False(t, c.IsExpired(storedAt.Add(59*time.Second)))
		assert.False(t, c.IsExpired(storedAt.Add(60*time.Second)))
	})

	t.Run("expired past max-age", func(t *testing.T) {
		c := CachedResponse{StoredAt: storedAt, MaxAge: &maxAge}
		assert.True(t, c.IsExpired(storedAt.Add(61*time.Second)))
	})

	t.Run("no max-age never expires by time", func(t *testing.T) {
		c := CachedResponse{StoredAt: storedAt, ETag: `"abc"`}
		assert.False(t, c.IsExpired(storedAt.Add(100*time.Hour)))
	})
}

func TestOfflineSnapshot_IsUsable(t *testing.T) {
	storedAt := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	snap := OfflineSnapshot{StoredAt: storedAt}

	assert.True(t, snap.IsUsable(storedAt.Add(time.Hour+59*time.Minute)))
	assert.False(t, snap.IsUsable(storedAt.Add(2*time.Hour)))
	assert.False(t, snap.IsUsable(storedAt.Add(2*time.Hour+time.Minute)))
}
