package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"ha_location_proxy/internal/hass"
	"ha_location_proxy/internal/location"
	"ha_location_proxy/internal/logger"
	"ha_location_proxy/internal/models"
	"ha_location_proxy/internal/repository"
)

// Engine status messages.
const (
	StatusStopped        = "Stopped"
	StatusPollingEnabled = "Polling enabled"
	StatusPollingStopped = "Polling stopped"
	StatusUnauthorized   = "HA Error: Unauthorized — please check token"
	StatusNotFound       = "HA Error: Entity not found"
	StatusNetworkRetry   = "Network error from HA: retrying"
	StatusNoPermission   = "Mocking unavailable: Permission"
)

const (
	defaultUnauthorizedThreshold = 3
	teardownTimeout              = 5 * time.Second
)

// SettingsSource is what the engine needs from the settings store.
type SettingsSource interface {
	Snapshot(ctx context.Context) (models.Settings, error)
	Subscribe(ctx context.Context) <-chan models.Settings
	SetSpoofingEnabled(ctx context.Context, enabled bool) error
}

// StateFetcher returns the remote entity state or a *hass.FetchError.
type StateFetcher interface {
	Fetch(ctx context.Context, s models.Settings) (models.EntityState, error)
}

// SpooferService polls the remote entity while polling is enabled and
// reports its coordinates through the sink while spoofing is enabled.
type SpooferService struct {
	settings  SettingsSource
	fetcher   StateFetcher
	sink      location.Sink
	events    repository.EventRepo
	log       *logger.Logger
	threshold int

	status *valueStream[models.Status]
	now    func() time.Time
	sleep  func(ctx context.Context, d time.Duration) error

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
	gen    uint64 // PollingGeneration the running loop was started for
}

func NewSpooferService(
	settings SettingsSource,
	fetcher StateFetcher,
	sink location.Sink,
	events repository.EventRepo,
	unauthorizedThreshold int,
	log *logger.Logger,
) *SpooferService {
	if unauthorizedThreshold <= 0 {
		unauthorizedThreshold = defaultUnauthorizedThreshold
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &SpooferService{
		settings:  settings,
		fetcher:   fetcher,
		sink:      sink,
		events:    events,
		log:       log,
		threshold: unauthorizedThreshold,
		status:    newValueStream(models.Status{Message: StatusStopped, UpdatedAt: time.Now().UTC()}),
		now:       time.Now,
		sleep:     sleepCtx,
	}
}

// Run follows the settings stream until ctx is done, starting the poll loop
// when polling is enabled and stopping it when disabled. On return the loop
// has exited and the sink has been cleared.
func (s *SpooferService) Run(ctx context.Context) {
	updates := s.settings.Subscribe(ctx)
	defer s.stop()

	for {
		select {
		case <-ctx.Done():
			return
		case snap, ok := <-updates:
			if !ok {
				return
			}
			if snap.PollingEnabled {
				s.ensureRunning(ctx, snap.PollingGeneration)
			} else {
				s.stop()
			}
		}
	}
}

// Status returns the latest engine status.
func (s *SpooferService) Status() models.Status { return s.status.Get() }

// SubscribeStatus emits the current status, then each change, until ctx is done.
func (s *SpooferService) SubscribeStatus(ctx context.Context) <-chan models.Status {
	return s.status.Subscribe(ctx)
}

// Running reports whether the poll loop is active.
func (s *SpooferService) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.done != nil
}

// ensureRunning starts the loop when idle. A running loop started for an
// older polling generation missed an off/on toggle and is restarted so the
// new activation begins fresh. Only Run calls it.
func (s *SpooferService) ensureRunning(ctx context.Context, gen uint64) {
	s.mu.Lock()
	running, current := s.done != nil, s.gen == gen
	s.mu.Unlock()

	if running && current {
		return
	}
	if running {
		s.log.Infow("engine_loop_restart", "generation", gen)
		s.stop()
	}
	s.start(ctx, gen)
}

// start launches the loop unless one is already running.
func (s *SpooferService) start(parent context.Context, gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done != nil {
		return
	}
	s.gen = gen

	ctx, cancel := context.WithCancel(parent)
	done := make(chan struct{})
	s.cancel, s.done = cancel, done

	go func() {
		defer func() {
			cancel()
			s.mu.Lock()
			if s.done == done {
				s.cancel, s.done = nil, nil
			}
			s.mu.Unlock()
			close(done)
		}()
		s.loop(ctx)
	}()
}

// stop cancels the running loop and waits for its teardown. No-op when idle.
func (s *SpooferService) stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

func (s *SpooferService) loop(ctx context.Context) {
	defer s.teardown(ctx)

	s.log.Infow("engine_loop_started")
	s.setStatus(StatusPollingEnabled)
	s.record(ctx, models.EventStart, StatusPollingEnabled, nil)

	unauthorized := 0
	for {
		snap, err := s.settings.Snapshot(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			s.log.Errorw("engine_snapshot_failed", "err", err)
			s.setStatus("Error: " + err.Error())
			if s.sleep(ctx, models.Settings{}.PollInterval()) != nil {
				return
			}
			continue
		}
		if !snap.PollingEnabled {
			return
		}

		st, err := s.fetcher.Fetch(ctx, snap)
		if ctx.Err() != nil {
			return
		}
		unauthorized = s.handleOutcome(ctx, snap, st, err, unauthorized)

		if s.sleep(ctx, snap.PollInterval()) != nil {
			return
		}
	}
}

// handleOutcome publishes the status for one fetch and returns the new
// consecutive-unauthorized count.
func (s *SpooferService) handleOutcome(ctx context.Context, snap models.Settings, st models.EntityState, err error, unauthorized int) int {
	if err == nil {
		s.handleSuccess(ctx, snap, st)
		return 0
	}

	var fe *hass.FetchError
	if !errors.As(err, &fe) {
		fe = &hass.FetchError{Kind: hass.KindUnknown}
	}

	switch fe.Kind {
	case hass.KindUnauthorized:
		unauthorized++
		s.setStatus(StatusUnauthorized)
		s.record(ctx, models.EventFetchError, StatusUnauthorized, map[string]any{"consecutive": unauthorized})
		if unauthorized == s.threshold {
			s.disableSpoofing(ctx, unauthorized)
		}
		return unauthorized
	case hass.KindNotFound:
		s.setStatus(StatusNotFound)
		s.record(ctx, models.EventFetchError, StatusNotFound, map[string]any{"entity_id": snap.EntityID})
	case hass.KindNetwork:
		s.log.Warnw("engine_fetch_network_error", "err", fe.Cause)
		s.setStatus(StatusNetworkRetry)
		s.record(ctx, models.EventFetchError, StatusNetworkRetry, nil)
	default:
		msg := "HA Error: " + fe.Detail()
		s.setStatus(msg)
		s.record(ctx, models.EventFetchError, msg, statusMeta(fe))
	}
	return 0
}

func (s *SpooferService) handleSuccess(ctx context.Context, snap models.Settings, st models.EntityState) {
	attrs := st.Attributes
	msg := fmt.Sprintf("Last: %s, %s", formatCoord(attrs.Latitude), formatCoord(attrs.Longitude))
	s.setStatus(msg)
	s.record(ctx, models.EventFetchOK, msg, map[string]any{"entity_id": st.EntityID})

	lat, lon, ok := attrs.Coordinates()
	if !snap.SpoofingEnabled || !ok {
		return
	}
	if err := s.sink.Inject(ctx, lat, lon, attrs.AltitudeOrZero()); err != nil {
		if ctx.Err() != nil {
			return
		}
		failure := "Error: " + err.Error()
		if errors.Is(err, location.ErrPermissionDenied) {
			failure = StatusNoPermission
		}
		s.log.Errorw("engine_inject_failed", "err", err)
		s.setStatus(failure)
		s.record(ctx, models.EventInjectError, failure, nil)
	}
}

// disableSpoofing trips the unauthorized breaker. Failures are logged only;
// polling continues either way.
func (s *SpooferService) disableSpoofing(ctx context.Context, consecutive int) {
	if err := s.settings.SetSpoofingEnabled(ctx, false); err != nil {
		s.log.Errorw("engine_disable_spoofing_failed", "err", err)
		return
	}
	s.log.Warnw("engine_spoofing_disabled", "consecutive_unauthorized", consecutive)
	s.record(ctx, models.EventSpoofDisabled, "Spoofing disabled after repeated unauthorized responses",
		map[string]any{"consecutive": consecutive})
}

// teardown runs on every loop exit; ctx may already be cancelled.
func (s *SpooferService) teardown(ctx context.Context) {
	cleanup, cancel := context.WithTimeout(context.WithoutCancel(ctx), teardownTimeout)
	defer cancel()

	if err := s.sink.Clear(cleanup); err != nil {
		s.log.Errorw("engine_sink_clear_failed", "err", err)
	}
	s.setStatus(StatusPollingStopped)
	s.record(cleanup, models.EventStop, StatusPollingStopped, nil)
	s.log.Infow("engine_loop_stopped")
}

func (s *SpooferService) setStatus(msg string) {
	s.status.Set(models.Status{Message: msg, UpdatedAt: s.now().UTC()})
}

// record appends to the event log; failures never affect polling.
func (s *SpooferService) record(ctx context.Context, typ, msg string, meta map[string]any) {
	if s.events == nil {
		return
	}
	ev := models.PollEvent{OccurredAt: s.now().UTC(), Type: typ, Description: msg}
	if meta != nil {
		ev.Metadata = meta
	}
	if err := s.events.Append(ctx, ev); err != nil && ctx.Err() == nil {
		s.log.Warnw("engine_event_append_failed", "type", typ, "err", err)
	}
}

func statusMeta(fe *hass.FetchError) map[string]any {
	if fe.StatusCode == 0 {
		return map[string]any{"kind": fe.Kind.String()}
	}
	return map[string]any{"kind": fe.Kind.String(), "status_code": fe.StatusCode}
}

func formatCoord(v *float64) string {
	if v == nil {
		return "unknown"
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
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
