package service

import (
	"context"
	"errors"
	"strings"

	"ha_location_proxy/internal/models"
	"ha_location_proxy/internal/repository"
)

// ErrInvalidTimeRange is returned when From is after To.
var ErrInvalidTimeRange = errors.New("invalid time range: from must be <= to")

// EventLogService reads the engine's event history.
type EventLogService struct {
	events repository.EventRepo
}

func NewEventLogService(events repository.EventRepo) *EventLogService {
	return &EventLogService{events: events}
}

// List returns events matching f, oldest first. Bounds are compared in UTC
// and the type filter is case-insensitive.
func (s *EventLogService) List(ctx context.Context, f LogFilter) ([]models.PollEvent, error) {
	f = f.normalized()
	if !f.From.IsZero() && !f.To.IsZero() && f.From.After(f.To) {
		return nil, ErrInvalidTimeRange
	}
	return s.events.List(ctx, f.From, f.To, f.Type)
}

func (f LogFilter) normalized() LogFilter {
	if !f.From.IsZero() {
		f.From = f.From.UTC()
	}
	if !f.To.IsZero() {
		f.To = f.To.UTC()
	}
	f.Type = strings.ToUpper(strings.TrimSpace(f.Type))
	return f
}
