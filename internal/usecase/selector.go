package usecase

import (
	"sort"

	"github.com/journey-microservice/internal/domain"
)

const (
	// maxDelayMinutes disqualifies journeys with a known delay above
	// this bound.
	maxDelayMinutes = 30

	// maxTotalMinutes disqualifies unreasonably long journeys.
	maxTotalMinutes = 240

	// shortlistSize caps the ranked shortlist returned to callers.
	shortlistSize = 8
)

// Selector filters and ranks decoded journey candidates.
type Selector struct {
	maxDelay  int
	maxTotal  int
	shortlist int
}

// NewSelector creates a selector with the default policy bounds.
func NewSelector() *Selector {
	return &Selector{
		maxDelay:  maxDelayMinutes,
		maxTotal:  maxTotalMinutes,
		shortlist: shortlistSize,
	}
}

// Filter excludes options with an excessive known delay, an excessive
// total duration, or any critical warning. Non-critical warnings are
// kept for display and never disqualify.
func (s *Selector) Filter(options []domain.JourneyOption) []domain.JourneyOption {
	filtered := make([]domain.JourneyOption, 0, len(options))
	for _, o := range options {
		if o.DelayMinutes != nil && *o.DelayMinutes > s.maxDelay {
			continue
		}
		if o.TotalMinutes > s.maxTotal {
			continue
		}
		if o.HasCriticalWarning() {
			continue
		}
		filtered = append(filtered, o)
	}
	return filtered
}

// Rank returns the filtered shortlist ordered ascending by total
// duration, ties broken by delay (missing delay ranks as zero), then by
// earliest departure. The sort is stable, so equal options keep their
// input order.
func (s *Selector) Rank(options []domain.JourneyOption) []domain.JourneyOption {
	ranked := s.Filter(options)
	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.TotalMinutes != b.TotalMinutes {
			return a.TotalMinutes < b.TotalMinutes
		}
		if da, db := delayOrZero(a.DelayMinutes), delayOrZero(b.DelayMinutes); da != db {
			return da < db
		}
		return a.Departure.Before(b.Departure)
	})

	if len(ranked) > s.shortlist {
		ranked = ranked[:s.shortlist]
	}
	return ranked
}

// SelectBest returns the top ranked option, or nil when filtering
// empties the set. Callers must not fall back to an unfiltered pick.
func (s *Selector) SelectBest(options []domain.JourneyOption) *domain.JourneyOption {
	ranked := s.Rank(options)
	if len(ranked) == 0 {
		return nil
	}
	best := ranked[0]
	return &best
}

func delayOrZero(d *int) int {
	if d == nil {
		return 0
	}
	return *d
}
