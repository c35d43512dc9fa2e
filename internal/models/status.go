package models

import "time"

// Status is the human-readable engine status shown to operators.
type Status struct {
	Message   string    `json:"message"`
	UpdatedAt time.Time `json:"updated_at"`
}
