package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"ha_location_proxy/internal/logger"
	"ha_location_proxy/internal/models"
	"ha_location_proxy/internal/repository"
)

// Keys in the settings store.
const (
	keyBaseURL         = "ha_base_url"
	keyToken           = "ha_token"
	keyEntityID        = "target_entity_id"
	keyPollInterval    = "polling_interval_seconds"
	keyPollingEnabled  = "is_polling_enabled"
	keySpoofingEnabled = "is_spoofing_enabled"
)

// ErrInvalidInterval is returned for a non-positive poll interval.
var ErrInvalidInterval = errors.New("poll interval must be a positive number of seconds")

// SettingsService is the observable view over the settings store.
type SettingsService struct {
	repo repository.SettingsRepo
	log  *logger.Logger

	// mu orders writes with broadcasts so subscribers see store order.
	mu     sync.Mutex
	stream *valueStream[models.Settings]

	pollingGen atomic.Uint64
}

func NewSettingsService(repo repository.SettingsRepo, log *logger.Logger) *SettingsService {
	if log == nil {
		log = logger.NewNop()
	}
	return &SettingsService{
		repo:   repo,
		log:    log,
		stream: newValueStream(models.Settings{PollIntervalSeconds: models.DefaultPollIntervalSeconds}),
	}
}

// Snapshot reads a consistent copy of all settings from the store.
func (s *SettingsService) Snapshot(ctx context.Context) (models.Settings, error) {
	kv, err := s.repo.LoadAll(ctx)
	if err != nil {
		return models.Settings{}, fmt.Errorf("load settings: %w", err)
	}
	out := decodeSettings(kv)
	out.PollingGeneration = s.pollingGen.Load()
	return out, nil
}

// Subscribe emits the stored settings immediately and again after every change.
// If the store cannot be read the last broadcast value is emitted instead.
func (s *SettingsService) Subscribe(ctx context.Context) <-chan models.Settings {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, err := s.Snapshot(ctx)
	if err != nil {
		s.log.Errorw("settings_subscribe_load_failed", "err", err)
		return s.stream.Subscribe(ctx)
	}
	return s.stream.SubscribeFrom(ctx, snap)
}

func (s *SettingsService) SetBaseURL(ctx context.Context, v string) error {
	return s.Update(ctx, models.SettingsPatch{BaseURL: &v})
}

func (s *SettingsService) SetToken(ctx context.Context, v string) error {
	return s.Update(ctx, models.SettingsPatch{Token: &v})
}

func (s *SettingsService) SetEntityID(ctx context.Context, v string) error {
	return s.Update(ctx, models.SettingsPatch{EntityID: &v})
}

func (s *SettingsService) SetPollInterval(ctx context.Context, seconds int64) error {
	return s.Update(ctx, models.SettingsPatch{PollIntervalSeconds: &seconds})
}

func (s *SettingsService) SetPollingEnabled(ctx context.Context, enabled bool) error {
	return s.Update(ctx, models.SettingsPatch{PollingEnabled: &enabled})
}

func (s *SettingsService) SetSpoofingEnabled(ctx context.Context, enabled bool) error {
	return s.Update(ctx, models.SettingsPatch{SpoofingEnabled: &enabled})
}

// Update applies every non-nil field of p, then broadcasts the new snapshot.
// Blank strings remove their key.
func (s *SettingsService) Update(ctx context.Context, p models.SettingsPatch) error {
	if p.PollIntervalSeconds != nil && *p.PollIntervalSeconds <= 0 {
		return ErrInvalidInterval
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var writes []func() error
	if p.BaseURL != nil {
		writes = append(writes, s.putString(ctx, keyBaseURL, *p.BaseURL))
	}
	if p.Token != nil {
		writes = append(writes, s.putString(ctx, keyToken, *p.Token))
	}
	if p.EntityID != nil {
		writes = append(writes, s.putString(ctx, keyEntityID, *p.EntityID))
	}
	if p.PollIntervalSeconds != nil {
		writes = append(writes, s.put(ctx, keyPollInterval, strconv.FormatInt(*p.PollIntervalSeconds, 10)))
	}
	if p.PollingEnabled != nil {
		writes = append(writes, s.putPolling(ctx, *p.PollingEnabled))
	}
	if p.SpoofingEnabled != nil {
		writes = append(writes, s.put(ctx, keySpoofingEnabled, strconv.FormatBool(*p.SpoofingEnabled)))
	}
	if len(writes) == 0 {
		return nil
	}

	var writeErr error
	applied := 0
	for _, w := range writes {
		if writeErr = w(); writeErr != nil {
			break
		}
		applied++
	}
	if applied > 0 {
		s.broadcastLocked(ctx)
	}
	return writeErr
}

// Seed stores initial values for keys that have never been set.
// Existing stored values always win.
func (s *SettingsService) Seed(ctx context.Context, initial models.Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	kv, err := s.repo.LoadAll(ctx)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	seeds := map[string]string{
		keyBaseURL:  initial.BaseURL,
		keyToken:    initial.Token,
		keyEntityID: initial.EntityID,
	}
	if initial.PollIntervalSeconds > 0 {
		seeds[keyPollInterval] = strconv.FormatInt(initial.PollIntervalSeconds, 10)
	}

	seeded := 0
	for key, value := range seeds {
		if strings.TrimSpace(value) == "" {
			continue
		}
		if _, ok := kv[key]; ok {
			continue
		}
		if err := s.repo.Put(ctx, key, value); err != nil {
			return fmt.Errorf("seed %s: %w", key, err)
		}
		seeded++
	}
	if seeded > 0 {
		s.log.Infow("settings_seeded", "keys", seeded)
		s.broadcastLocked(ctx)
	}
	return nil
}

func (s *SettingsService) put(ctx context.Context, key, value string) func() error {
	return func() error { return s.repo.Put(ctx, key, value) }
}

// putPolling bumps the polling generation after every successful disable.
func (s *SettingsService) putPolling(ctx context.Context, enabled bool) func() error {
	write := s.put(ctx, keyPollingEnabled, strconv.FormatBool(enabled))
	return func() error {
		if err := write(); err != nil {
			return err
		}
		if !enabled {
			s.pollingGen.Add(1)
		}
		return nil
	}
}

func (s *SettingsService) putString(ctx context.Context, key, value string) func() error {
	if strings.TrimSpace(value) == "" {
		return func() error { return s.repo.Delete(ctx, key) }
	}
	return s.put(ctx, key, value)
}

func (s *SettingsService) broadcastLocked(ctx context.Context) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		s.log.Errorw("settings_broadcast_failed", "err", err)
		return
	}
	s.stream.Set(snap)
}

func decodeSettings(kv map[string]string) models.Settings {
	out := models.Settings{
		BaseURL:             kv[keyBaseURL],
		Token:               kv[keyToken],
		EntityID:            kv[keyEntityID],
		PollIntervalSeconds: models.DefaultPollIntervalSeconds,
	}
	if n, err := strconv.ParseInt(kv[keyPollInterval], 10, 64); err == nil && n > 0 {
		out.PollIntervalSeconds = n
	}
	out.PollingEnabled, _ = strconv.ParseBool(kv[keyPollingEnabled])
	out.SpoofingEnabled, _ = strconv.ParseBool(kv[keySpoofingEnabled])
	return out
}
