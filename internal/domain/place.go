package domain

import (
	"fmt"
	"strings"
)

// Place is one endpoint of a tracked route. Identity prefers the
// provider-assigned stop id; places known only by coordinates carry a
// deterministic composite key instead.
type Place struct {
	ID   string  `json:"id,omitempty" db:"external_id"`
	Name string  `json:"name,omitempty" db:"name"`
	Lat  float64 `json:"lat,omitempty" db:"lat"`
	Lon  float64 `json:"lon,omitempty" db:"lon"`
}

// NewPlace validates that the place is addressable: either a provider id
// or a named coordinate pair.
func NewPlace(id, name string, lat, lon float64) (Place, error) {
	p := Place{ID: id, Name: name, Lat: lat, Lon: lon}
	if err := p.Validate(); err != nil {
		return Place{}, err
	}
	return p, nil
}

// Validate rejects places that are both id-less and nameless, and
// coordinate pairs outside the valid range.
func (p Place) Validate() error {
	if p.ID == "" && strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("place needs an external id or a name")
	}
	if p.ID == "" {
		if p.Lat < -90 || p.Lat > 90 || p.Lon < -180 || p.Lon > 180 {
			return fmt.Errorf("invalid coordinates: %f,%f", p.Lat, p.Lon)
		}
	}
	return nil
}

// Key returns the identity used in request fingerprints and cache keys.
// The provider id wins; the coordinate composite is formatted with fixed
// precision so two reads of the same place always agree.
func (p Place) Key() string {
	if p.ID != "" {
		return p.ID
	}
	return fmt.Sprintf("%.6f,%.6f@%s", p.Lat, p.Lon, strings.ToLower(strings.TrimSpace(p.Name)))
}

// HasCoordinates reports whether the place carries a usable location.
func (p Place) HasCoordinates() bool {
	return p.Lat != 0 || p.Lon != 0
}
