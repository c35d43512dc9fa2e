package models

// EntityState is the Home Assistant representation of a single entity,
// as returned by GET /api/states/{entity_id}.
type EntityState struct {
	EntityID    string           `json:"entity_id"`
	State       string           `json:"state"`
	Attributes  EntityAttributes `json:"attributes"`
	LastUpdated string           `json:"last_updated"`
}

// EntityAttributes holds the subset of attributes the proxy cares about.
type EntityAttributes struct {
	Latitude     *float64 `json:"latitude"`
	Longitude    *float64 `json:"longitude"`
	Altitude     *float64 `json:"altitude"`
	FriendlyName *string  `json:"friendly_name"`
}

// Coordinates returns lat/lon and whether both are present.
func (a EntityAttributes) Coordinates() (lat, lon float64, ok bool) {
	if a.Latitude == nil || a.Longitude == nil {
		return 0, 0, false
	}
	return *a.Latitude, *a.Longitude, true
}

// AltitudeOrZero returns the altitude or 0 when the entity reports none.
func (a EntityAttributes) AltitudeOrZero() float64 {
	if a.Altitude == nil {
		return 0
	}
	return *a.Altitude
}

// RefreshResult is the outcome of a one-shot manual fetch.
type RefreshResult struct {
	Label      string            `json:"label"` // OK | Missing Config | Unauthorized | Not Found | Network Error | Unknown Error
	Attributes *EntityAttributes `json:"attributes,omitempty"`
}
