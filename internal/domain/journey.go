package domain

import (
	"time"

	"github.com/google/uuid"
)

// Severity classifies how strongly a service remark affects a journey.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// ParsedRemark is a classified service notice. Instances are derived
// purely from the raw remark's type and code and never mutated afterwards.
type ParsedRemark struct {
	Text           string   `json:"text"`
	Severity       Severity `json:"severity"`
	AffectsJourney bool     `json:"affects_journey"`
}

// Warning is a journey-affecting remark retained on a decoded option.
// The severity is kept alongside the display text so selection can
// disqualify critically disrupted journeys without reparsing.
type Warning struct {
	Text     string   `json:"text"`
	Severity Severity `json:"severity"`
}

// StopOver is an intermediate stop within a leg, never the leg's own
// origin or destination.
type StopOver struct {
	StopID    string     `json:"stop_id,omitempty"`
	StopName  string     `json:"stop_name"`
	Platform  string     `json:"platform,omitempty"`
	Arrival   *time.Time `json:"arrival,omitempty"`
	Departure *time.Time `json:"departure,omitempty"`
}

// JourneyLeg is one uninterrupted vehicle segment of a journey.
type JourneyLeg struct {
	OriginID          string     `json:"origin_id,omitempty"`
	OriginName        string     `json:"origin_name"`
	DestinationID     string     `json:"destination_id,omitempty"`
	DestinationName   string     `json:"destination_name"`
	Departure         time.Time  `json:"departure"`
	Arrival           time.Time  `json:"arrival"`
	PlannedDeparture  *time.Time `json:"planned_departure,omitempty"`
	PlannedArrival    *time.Time `json:"planned_arrival,omitempty"`
	Platform          string     `json:"platform,omitempty"`
	LineName          string     `json:"line_name,omitempty"`
	DelayMinutes      *int       `json:"delay_minutes,omitempty"`
	IntermediateStops []StopOver `json:"intermediate_stops,omitempty"`
}

// JourneyOption is one ranked candidate trip. Options are immutable value
// objects constructed fresh per fetch.
type JourneyOption struct {
	Departure    time.Time    `json:"departure"`
	Arrival      time.Time    `json:"arrival"`
	TotalMinutes int          `json:"total_minutes"`
	DelayMinutes *int         `json:"delay_minutes,omitempty"`
	Platform     string       `json:"platform,omitempty"`
	LineName     string       `json:"line_name,omitempty"`
	Warnings     []Warning    `json:"warnings,omitempty"`
	RefreshToken string       `json:"refresh_token,omitempty"`
	Legs         []JourneyLeg `json:"legs"`
}

// CanRefresh reports whether the option can be re-fetched via its refresh
// token. Options departed more than an hour ago are no longer refreshable.
func (j JourneyOption) CanRefresh(now time.Time) bool {
	return j.RefreshToken != "" && now.Sub(j.Departure) <= time.Hour
}

// WarningTexts returns the display strings of the retained warnings.
func (j JourneyOption) WarningTexts() []string {
	if len(j.Warnings) == 0 {
		return nil
	}
	texts := make([]string, len(j.Warnings))
	for i, w := range j.Warnings {
		texts[i] = w.Text
	}
	return texts
}

// HasCriticalWarning reports whether any retained warning is critical.
func (j JourneyOption) HasCriticalWarning() bool {
	for _, w := range j.Warnings {
		if w.Severity == SeverityCritical {
			return true
		}
	}
	return false
}

// RefreshInterval is the per-route refresh cadence in minutes.
// RefreshManual never triggers an automatic refresh.
type RefreshInterval int

const (
	RefreshManual RefreshInterval = 0
	Refresh1Min   RefreshInterval = 1
	Refresh2Min   RefreshInterval = 2
	Refresh5Min   RefreshInterval = 5
	Refresh10Min  RefreshInterval = 10
	Refresh15Min  RefreshInterval = 15
)

// IsManual reports whether automatic refresh is disabled for the route.
func (r RefreshInterval) IsManual() bool {
	return r <= 0
}

// Duration returns the cadence as a duration; zero for manual routes.
func (r RefreshInterval) Duration() time.Duration {
	if r.IsManual() {
		return 0
	}
	return time.Duration(r) * time.Minute
}

// Route is a tracked origin/destination pair supplied by the route store
// collaborator. Route CRUD lives outside this service.
type Route struct {
	ID          uuid.UUID       `json:"id" db:"id"`
	Origin      Place           `json:"origin"`
	Destination Place           `json:"destination"`
	Interval    RefreshInterval `json:"refresh_interval" db:"refresh_interval"`
	ResultCount int             `json:"result_count" db:"result_count"`
}
