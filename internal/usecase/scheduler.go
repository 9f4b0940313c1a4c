package usecase

import (
	"time"

	"github.com/journey-microservice/internal/domain"
)

const (
	// minRefreshGap is the global minimum cadence between automatic
	// refreshes of one route. Near-departure urgency overrides it.
	minRefreshGap = 5 * time.Minute

	urgentWindow  = 10 * time.Minute
	urgentCadence = time.Minute

	soonWindow  = time.Hour
	soonCadence = 5 * time.Minute

	defaultCadence = 15 * time.Minute
)

// NoAutoRefresh is the sentinel returned for manual-refresh routes.
var NoAutoRefresh = time.Time{}

// NextRefresh computes the next recommended invocation time for the OS
// scheduler collaborator. Pure function of its inputs.
//
// Manual routes never refresh automatically. When the next departure is
// known, proximity picks the cadence (≤10min away: every minute,
// ≤1h: every 5 minutes, otherwise every 15); that urgency wins over the
// 5-minute floor. The user's per-route interval can only tighten the
// cadence, never force a refresh beyond the urgency tier.
func NextRefresh(
	now time.Time,
	nextDeparture *time.Time,
	lastRefresh *time.Time,
	interval domain.RefreshInterval,
) time.Time {
	if interval.IsManual() {
		return NoAutoRefresh
	}

	urgent := false
	cadence := defaultCadence
	if nextDeparture != nil {
		switch toDeparture := nextDeparture.Sub(now); {
		case toDeparture <= urgentWindow:
			cadence = urgentCadence
			urgent = true
		case toDeparture <= soonWindow:
			cadence = soonCadence
			urgent = true
		}
	}

	if d := interval.Duration(); d > 0 && d < cadence {
		cadence = d
	}

	next := now.Add(cadence)
	if urgent {
		return next
	}

	if lastRefresh != nil {
		if floor := lastRefresh.Add(minRefreshGap); next.Before(floor) {
			next = floor
		}
	}
	if next.Before(now) {
		next = now
	}
	return next
}
