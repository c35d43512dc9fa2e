package hass

import (
	"context"
	"net/http"
	"strings"
	"time"

	"ha_location_proxy/internal/logger"
	"ha_location_proxy/internal/models"
)

// StateClient is the single-request transport used by Fetcher.
type StateClient interface {
	Fetch(ctx context.Context, baseURL, credential, entityID string) (*RawResponse, error)
}

// Fetcher retries transport failures and classifies every response.
type Fetcher struct {
	client         StateClient
	maxAttempts    int
	initialBackoff time.Duration
	sleep          func(ctx context.Context, d time.Duration) error
	log            *logger.Logger
}

func NewFetcher(client StateClient, maxAttempts int, initialBackoff time.Duration, log *logger.Logger) *Fetcher {
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	if initialBackoff <= 0 {
		initialBackoff = time.Second
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &Fetcher{
		client:         client,
		maxAttempts:    maxAttempts,
		initialBackoff: initialBackoff,
		sleep:          sleepCtx,
		log:            log,
	}
}

// Fetch returns the entity state, or a *FetchError.
// Only transport failures are retried; any HTTP response ends the attempt loop.
func (f *Fetcher) Fetch(ctx context.Context, s models.Settings) (models.EntityState, error) {
	if strings.TrimSpace(s.BaseURL) == "" || strings.TrimSpace(s.EntityID) == "" {
		f.log.Debugw("hass_missing_config",
			"has_base_url", s.BaseURL != "",
			"has_entity_id", s.EntityID != "",
		)
		return models.EntityState{}, &FetchError{Kind: KindMissingConfig}
	}

	backoff := f.initialBackoff
	var lastErr error
	for attempt := 1; attempt <= f.maxAttempts; attempt++ {
		resp, err := f.client.Fetch(ctx, s.BaseURL, s.Token, s.EntityID)
		if err == nil {
			return classify(resp)
		}
		lastErr = err
		if ctx.Err() != nil {
			return models.EntityState{}, networkError(ctx.Err())
		}
		if attempt == f.maxAttempts {
			break
		}

		f.log.Warnw("hass_fetch_retry",
			"attempt", attempt,
			"max_attempts", f.maxAttempts,
			"backoff", backoff.String(),
			"err", err,
		)
		if err := f.sleep(ctx, backoff); err != nil {
			return models.EntityState{}, networkError(err)
		}
		backoff *= 2
	}

	f.log.Errorw("hass_fetch_failed", "attempts", f.maxAttempts, "err", lastErr)
	return models.EntityState{}, networkError(lastErr)
}

func classify(resp *RawResponse) (models.EntityState, error) {
	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		if resp.State == nil {
			return models.EntityState{}, &FetchError{Kind: KindUnknown, StatusCode: resp.StatusCode}
		}
		return *resp.State, nil
	case resp.StatusCode == http.StatusUnauthorized:
		return models.EntityState{}, &FetchError{Kind: KindUnauthorized}
	case resp.StatusCode == http.StatusNotFound:
		return models.EntityState{}, &FetchError{Kind: KindNotFound}
	default:
		return models.EntityState{}, &FetchError{Kind: KindUnknown, StatusCode: resp.StatusCode}
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
