package service

import (
	"context"

	"ha_location_proxy/internal/models"
	"ha_location_proxy/internal/repository"
)

// LocationService reads back the location currently being reported.
type LocationService struct {
	repo repository.LocationRepo
}

func NewLocationService(repo repository.LocationRepo) *LocationService {
	return &LocationService{repo: repo}
}

// Current returns the injected location, or nil when none is active.
func (s *LocationService) Current(ctx context.Context) (*models.MockLocation, error) {
	return s.repo.Load(ctx)
}
