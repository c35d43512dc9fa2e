package service

import (
	"context"
	"fmt"

	"ha_location_proxy/internal/hass"
	"ha_location_proxy/internal/models"
)

// Refresh labels, one per fetch outcome.
const (
	LabelOK            = "OK"
	LabelMissingConfig = "Missing Config"
	LabelUnauthorized  = "Unauthorized"
	LabelNotFound      = "Not Found"
	LabelNetworkError  = "Network Error"
	LabelUnknownError  = "Unknown Error"
)

// EntityService runs a single manual fetch outside the poll loop.
type EntityService struct {
	settings SettingsSource
	fetcher  StateFetcher
}

func NewEntityService(settings SettingsSource, fetcher StateFetcher) *EntityService {
	return &EntityService{settings: settings, fetcher: fetcher}
}

// Refresh fetches the configured entity once using the stored settings.
func (s *EntityService) Refresh(ctx context.Context) (models.RefreshResult, error) {
	return s.RefreshWith(ctx, models.SettingsPatch{})
}

// RefreshWith fetches once with the connection fields of override applied on
// top of the stored settings. Nothing is written back.
func (s *EntityService) RefreshWith(ctx context.Context, override models.SettingsPatch) (models.RefreshResult, error) {
	snap, err := s.settings.Snapshot(ctx)
	if err != nil {
		return models.RefreshResult{}, fmt.Errorf("refresh: %w", err)
	}
	if override.BaseURL != nil {
		snap.BaseURL = *override.BaseURL
	}
	if override.Token != nil {
		snap.Token = *override.Token
	}
	if override.EntityID != nil {
		snap.EntityID = *override.EntityID
	}

	st, err := s.fetcher.Fetch(ctx, snap)
	if err == nil {
		attrs := st.Attributes
		return models.RefreshResult{Label: LabelOK, Attributes: &attrs}, nil
	}
	kind, _ := hass.KindOf(err)
	return models.RefreshResult{Label: refreshLabel(kind)}, nil
}

func refreshLabel(k hass.ErrorKind) string {
	switch k {
	case hass.KindMissingConfig:
		return LabelMissingConfig
	case hass.KindUnauthorized:
		return LabelUnauthorized
	case hass.KindNotFound:
		return LabelNotFound
	case hass.KindNetwork:
		return LabelNetworkError
	default:
		return LabelUnknownError
	}
}
