package dto

import "time"

// JourneysQuery are the caller-tunable knobs of a journeys request.
type JourneysQuery struct {
	Results  int    `query:"results" validate:"omitempty,min=1,max=10"`
	Priority string `query:"priority" validate:"omitempty,oneof=low normal high critical"`
}

// NextRefreshResponse tells the OS-scheduler collaborator when to call
// back. Manual routes carry no next time.
type NextRefreshResponse struct {
	RouteID     string     `json:"route_id"`
	Manual      bool       `json:"manual"`
	NextRefresh *time.Time `json:"next_refresh,omitempty"`
}
