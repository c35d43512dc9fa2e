package models

import "time"

// MockLocation is the location currently reported through the sink.
type MockLocation struct {
	Latitude   float64   `json:"latitude"`
	Longitude  float64   `json:"longitude"`
	Altitude   float64   `json:"altitude"`
	InjectedAt time.Time `json:"injected_at"`
}
