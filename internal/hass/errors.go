package hass

import (
	"errors"
	"fmt"
)

// ErrorKind classifies why a fetch did not produce an entity state.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindMissingConfig
	KindUnauthorized
	KindNotFound
	KindNetwork
)

func (k ErrorKind) String() string {
	switch k {
	case KindMissingConfig:
		return "MissingConfig"
	case KindUnauthorized:
		return "Unauthorized"
	case KindNotFound:
		return "NotFound"
	case KindNetwork:
		return "Network"
	default:
		return "Unknown"
	}
}

// Sentinels for errors.Is against a *FetchError.
var (
	ErrMissingConfig = errors.New("home assistant: missing config")
	ErrUnauthorized  = errors.New("home assistant: unauthorized")
	ErrNotFound      = errors.New("home assistant: entity not found")
	ErrNetwork       = errors.New("home assistant: network error")
	ErrUnknown       = errors.New("home assistant: unknown error")
)

// FetchError is the only error type returned by Fetcher.Fetch.
type FetchError struct {
	Kind ErrorKind
	// StatusCode is the HTTP status for KindUnknown, 0 when there was none.
	StatusCode int
	// Cause is set for KindNetwork.
	Cause error
}

func (e *FetchError) Error() string {
	switch {
	case e.Cause != nil:
		return fmt.Sprintf("home assistant: %s: %v", e.Kind, e.Cause)
	case e.StatusCode != 0:
		return fmt.Sprintf("home assistant: %s (HTTP %d)", e.Kind, e.StatusCode)
	default:
		return "home assistant: " + e.Kind.String()
	}
}

func (e *FetchError) Unwrap() error { return e.Cause }

func (e *FetchError) Is(target error) bool {
	switch target {
	case ErrMissingConfig:
		return e.Kind == KindMissingConfig
	case ErrUnauthorized:
		return e.Kind == KindUnauthorized
	case ErrNotFound:
		return e.Kind == KindNotFound
	case ErrNetwork:
		return e.Kind == KindNetwork
	case ErrUnknown:
		return e.Kind == KindUnknown
	}
	return false
}

// Detail renders the kind for operators, e.g. "Unknown (HTTP 500)".
func (e *FetchError) Detail() string {
	if e.Kind == KindUnknown && e.StatusCode != 0 {
		return fmt.Sprintf("%s (HTTP %d)", e.Kind, e.StatusCode)
	}
	return e.Kind.String()
}

// KindOf extracts the classification from err. Errors that are not a
// *FetchError report KindUnknown and false.
func KindOf(err error) (ErrorKind, bool) {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.Kind, true
	}
	return KindUnknown, false
}

func networkError(cause error) *FetchError {
	return &FetchError{Kind: KindNetwork, Cause: cause}
}
