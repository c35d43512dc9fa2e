package models

import "time"

// Event types written by the polling engine.
const (
	EventStart         = "START"
	EventStop          = "STOP"
	EventFetchOK       = "FETCH_OK"
	EventFetchError    = "FETCH_ERROR"
	EventInjectError   = "INJECT_ERROR"
	EventSpoofDisabled = "SPOOF_DISABLED"
)

// PollEvent is a single log entry.
type PollEvent struct {
	EventID     string    `json:"event_id"`
	OccurredAt  time.Time `json:"occurred_at"`
	Type        string    `json:"type"`        // START | STOP | FETCH_OK | FETCH_ERROR | INJECT_ERROR | SPOOF_DISABLED
	Description string    `json:"description"` // human-readable
	Metadata    any       `json:"metadata,omitempty"`
}

// IsEventType reports whether s is one of the event type constants.
func IsEventType(s string) bool {
	switch s {
	case EventStart, EventStop, EventFetchOK, EventFetchError, EventInjectError, EventSpoofDisabled:
		return true
	}
	return false
}
