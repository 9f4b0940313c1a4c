package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestJourneyOption_CanRefresh(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	t.Run("refreshable with token and recent departure", func(t *testing.T) {
		j := JourneyOption{RefreshToken: "tok", Departure: now.Add(-30 * time.Minute)}
		assert.True(t, j.CanRefresh(now))
	})

	t.Run("future departures are refreshable", func(t *testing.T) {
		j := JourneyOption{RefreshToken: "tok", Departure: now.Add(2 * time.Hour)}
		assert.True(t, j.CanRefresh(now))
	})

	t.Run("no token means no refresh", func(t *testing.T) {
		j := JourneyOption{Departure: now}
		assert.False(t, j.CanRefresh(now))
	})

	t.Run("departed over an hour ago is not refreshable", func(t *testing.T) {
		j := JourneyOption{RefreshToken: "tok", Departure: now.Add(-61 * time.Minute)}
		assert.False(t, j.CanRefresh(now))

		j.Departure = now.Add(-time.Hour)
		assert.True(t, j.CanRefresh(now))
	})
}

func TestJourneyOption_HasCriticalWarning(t *testing.T) {
	j := JourneyOption{Warnings: []Warning{
		{Text: "minor delays", Severity: SeverityWarning},
	}}
	assert.False(t, j.HasCriticalWarning())

	j.Warnings = append(j.Warnings, Warning{Text: "trip cancelled", Severity: SeverityCritical})
	assert.True(t, j.HasCriticalWarning())
}

func TestJourneyOption_WarningTexts(t *testing.T) {
	j := JourneyOption{}
	assert.Nil(t, j.WarningTexts())

	j.Warnings = []Warning{
		{Text: "a", Severity: SeverityInfo},
		{Text: "b", Severity: SeverityCritical},
	}
	assert.Equal(t, []string{"a", "b"}, j.WarningTexts())
}

func TestRefreshInterval(t *testing.T) {
	assert.True(t, RefreshManual.IsManual())
	assert.False(t, Refresh1Min.IsManual())

	assert.Equal(t, time.Duration(0), RefreshManual.Duration())
	assert.Equal(t, 5*time.Minute, Refresh5Min.Duration())
	assert.Equal(t, 15*time.Minute, Refresh15Min.Duration())
}
