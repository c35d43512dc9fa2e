package service

import "time"

// LogFilter narrows event history by time range and type.
type LogFilter struct {
	From time.Time // inclusive; zero means no lower bound
	To   time.Time // inclusive; zero means no upper bound
	Type string    // "", "START", "STOP", "FETCH_OK", "FETCH_ERROR", "INJECT_ERROR", "SPOOF_DISABLED"
}
