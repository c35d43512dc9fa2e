package models

import "time"

// DefaultPollIntervalSeconds is used when no positive interval has been stored.
const DefaultPollIntervalSeconds int64 = 30

// Settings is one consistent snapshot of the proxy configuration.
// Empty strings mean "unset".
type Settings struct {
	BaseURL             string `json:"base_url"`
	Token               string `json:"-"` // never echoed back to API clients
	EntityID            string `json:"entity_id"`
	PollIntervalSeconds int64  `json:"poll_interval_seconds"`
	PollingEnabled      bool   `json:"polling_enabled"`
	SpoofingEnabled     bool   `json:"spoofing_enabled"`

	// PollingGeneration counts writes that disabled polling. It is not
	// stored; it lets a watcher that only sees the latest value notice an
	// off/on toggle it never observed.
	PollingGeneration uint64 `json:"-"`
}

// PollInterval returns the configured interval, falling back to the default.
func (s Settings) PollInterval() time.Duration {
	secs := s.PollIntervalSeconds
	if secs <= 0 {
		secs = DefaultPollIntervalSeconds
	}
	return time.Duration(secs) * time.Second
}

// HasToken reports whether a credential is configured.
func (s Settings) HasToken() bool { return s.Token != "" }

// SettingsPatch carries a partial update; nil fields are left untouched.
type SettingsPatch struct {
	BaseURL             *string `json:"base_url,omitempty"`
	Token               *string `json:"token,omitempty"`
	EntityID            *string `json:"entity_id,omitempty"`
	PollIntervalSeconds *int64  `json:"poll_interval_seconds,omitempty"`
	PollingEnabled      *bool   `json:"polling_enabled,omitempty"`
	SpoofingEnabled     *bool   `json:"spoofing_enabled,omitempty"`
}
