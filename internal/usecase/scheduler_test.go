package usecase_test

import (
	"testing"
	"time"

	"github.com/journey-microservice/internal/domain"
	"github.com/journey-microservice/internal/usecase"
	"github.com/stretchr/testify/assert"
)

var schedBase = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

func TestNextRefresh(t *testing.T) {
	t.Run("manual routes never auto-refresh", func(t *testing.T) {
		dep := schedBase.Add(5 * time.Minute)
		next := usecase.NextRefresh(schedBase, &dep, nil, domain.RefreshManual)
		assert.True(t, next.IsZero())
	})

	t.Run("no departure known uses the default cadence", func(t *testing.T) {
		next := usecase.NextRefresh(schedBase, nil, nil, domain.Refresh15Min)
		assert.Equal(t, schedBase.Add(15*time.Minute), next)
	})

	t.Run("departure within ten minutes refreshes every minute", func(t *testing.T) {
		dep := schedBase.Add(8 * time.Minute)
		next := usecase.NextRefresh(schedBase, &dep, nil, domain.Refresh15Min)
		assert.Equal(t, schedBase.Add(time.Minute), next)
	})

	t.Run("urgency overrides the minimum refresh gap", func(t *testing.T) {
		dep := schedBase.Add(8 * time.Minute)
		lastRefresh := schedBase.Add(-time.Minute)
		next := usecase.NextRefresh(schedBase, &dep, &lastRefresh, domain.Refresh15Min)
		assert.Equal(t, schedBase.Add(time.Minute), next)
	})

	t.Run("departure within the hour refreshes every five minutes", func(t *testing.T) {
		dep := schedBase.Add(45 * time.Minute)
		next := usecase.NextRefresh(schedBase, &dep, nil, domain.Refresh15Min)
		assert.Equal(t, schedBase.Add(5*time.Minute), next)
	})

	t.Run("distant departure uses the default cadence", func(t *testing.T) {
		dep := schedBase.Add(3 * time.Hour)
		next := usecase.NextRefresh(schedBase, &dep, nil, domain.Refresh15Min)
		assert.Equal(t, schedBase.Add(15*time.Minute), next)
	})

	t.Run("route interval tightens the cadence", func(t *testing.T) {
		next := usecase.NextRefresh(schedBase, nil, nil, domain.Refresh5Min)
		assert.Equal(t, schedBase.Add(5*time.Minute), next)
	})

	t.Run("route interval cannot loosen an urgency tier", func(t *testing.T) {
		dep := schedBase.Add(8 * time.Minute)
		next := usecase.NextRefresh(schedBase, &dep, nil, domain.Refresh15Min)
		assert.Equal(t, schedBase.Add(time.Minute), next)
	})

	t.Run("minimum gap floors non-urgent refreshes", func(t *testing.T) {
		lastRefresh := schedBase.Add(-time.Minute)
		next := usecase.NextRefresh(schedBase, nil, &lastRefresh, domain.Refresh1Min)
		assert.Equal(t, lastRefresh.Add(5*time.Minute), next)
	})

	t.Run("stale last refresh leaves the cadence alone", func(t *testing.T) {
		lastRefresh := schedBase.Add(-time.Hour)
		next := usecase.NextRefresh(schedBase, nil, &lastRefresh, domain.Refresh15Min)
		assert.Equal(t, schedBase.Add(15*time.Minute), next)
	})
}
