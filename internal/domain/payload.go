package domain

import (
	"net/url"
	"strconv"
	"time"
)

// JourneySearchRequest describes one logical journey query between two
// places. The same request always produces the same fingerprint, so
// coalescing and response caching key off it safely.
type JourneySearchRequest struct {
	Origin      Place
	Destination Place
	ResultCount int
}

// QueryValues builds the provider query parameters. Places with an
// external id are addressed by id; coordinate-only places fall back to
// lat/lon plus name.
func (r JourneySearchRequest) QueryValues() url.Values {
	params := url.Values{}
	addPlace(params, "from", r.Origin)
	addPlace(params, "to", r.Destination)
	if r.ResultCount > 0 {
		params.Set("results", strconv.Itoa(r.ResultCount))
	}
	params.Set("stopovers", "true")
	return params
}

// Fingerprint is the request's cache and coalescing key:
// method + path + sorted query, so two routes that differ only in query
// parameter ordering never collide.
func (r JourneySearchRequest) Fingerprint() string {
	return "GET /journeys?" + r.QueryValues().Encode()
}

func addPlace(params url.Values, prefix string, p Place) {
	if p.ID != "" {
		params.Set(prefix, p.ID)
		return
	}
	params.Set(prefix+".latitude", strconv.FormatFloat(p.Lat, 'f', 6, 64))
	params.Set(prefix+".longitude", strconv.FormatFloat(p.Lon, 'f', 6, 64))
	if p.Name != "" {
		params.Set(prefix+".name", p.Name)
	}
}

// APIResult is one network attempt's outcome as seen by the fetcher:
// either fresh bytes with cache metadata or a not-modified revalidation.
type APIResult struct {
	Body         []byte
	ETag         string
	CacheControl string
	NotModified  bool
}

// JourneyPayload is the raw journey-search response shape of the
// transport API.
type JourneyPayload struct {
	Journeys []RawJourney `json:"journeys"`
}

// RawJourney is one undecoded journey candidate.
type RawJourney struct {
	Type         string      `json:"type,omitempty"`
	Legs         []RawLeg    `json:"legs"`
	RefreshToken string      `json:"refreshToken,omitempty"`
	Remarks      []RawRemark `json:"remarks,omitempty"`
}

// RawLeg is one undecoded vehicle segment.
type RawLeg struct {
	Origin                   *RawStop      `json:"origin"`
	Destination              *RawStop      `json:"destination"`
	Departure                *time.Time    `json:"departure,omitempty"`
	PlannedDeparture         *time.Time    `json:"plannedDeparture,omitempty"`
	Arrival                  *time.Time    `json:"arrival,omitempty"`
	PlannedArrival           *time.Time    `json:"plannedArrival,omitempty"`
	DepartureDelay           *int          `json:"departureDelay,omitempty"` // seconds
	ArrivalDelay             *int          `json:"arrivalDelay,omitempty"`   // seconds
	DeparturePlatform        string        `json:"departurePlatform,omitempty"`
	PlannedDeparturePlatform string        `json:"plannedDeparturePlatform,omitempty"`
	Platform                 string        `json:"platform,omitempty"`
	Line                     *RawLine      `json:"line,omitempty"`
	Stopovers                []RawStopover `json:"stopovers,omitempty"`
	Remarks                  []RawRemark   `json:"remarks,omitempty"`
}

// RawStop is a stop or station reference inside a leg.
type RawStop struct {
	ID       string  `json:"id,omitempty"`
	Name     string  `json:"name,omitempty"`
	Platform string  `json:"platform,omitempty"`
	Lat      float64 `json:"latitude,omitempty"`
	Lon      float64 `json:"longitude,omitempty"`
}

// RawStopover is an intermediate halt within a leg as delivered by the
// API, including the leg's own endpoints which decoding filters out.
type RawStopover struct {
	Stop             *RawStop   `json:"stop"`
	Arrival          *time.Time `json:"arrival,omitempty"`
	PlannedArrival   *time.Time `json:"plannedArrival,omitempty"`
	Departure        *time.Time `json:"departure,omitempty"`
	PlannedDeparture *time.Time `json:"plannedDeparture,omitempty"`
	Platform         string     `json:"platform,omitempty"`
}

// RawLine identifies the operating line of a leg.
type RawLine struct {
	Name    string `json:"name,omitempty"`
	Mode    string `json:"mode,omitempty"`
	Product string `json:"product,omitempty"`
}

// RawRemark is a service notice attached to a journey or a leg.
type RawRemark struct {
	Type    string `json:"type,omitempty"`
	Code    string `json:"code,omitempty"`
	Summary string `json:"summary,omitempty"`
	Text    string `json:"text,omitempty"`
}
