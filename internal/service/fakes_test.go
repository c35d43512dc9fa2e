package service

import (
	"context"
	"sync"
	"time"

	"ha_location_proxy/internal/models"
)

// memSettingsRepo is an in-memory repository.SettingsRepo.
type memSettingsRepo struct {
	mu      sync.Mutex
	kv      map[string]string
	loadErr error
	putErr  error
	puts    int
}

func newMemSettingsRepo(kv map[string]string) *memSettingsRepo {
	if kv == nil {
		kv = map[string]string{}
	}
	return &memSettingsRepo{kv: kv}
}

func (m *memSettingsRepo) LoadAll(context.Context) (map[string]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	out := make(map[string]string, len(m.kv))
	for k, v := range m.kv {
		out[k] = v
	}
	return out, nil
}

func (m *memSettingsRepo) Put(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.putErr != nil {
		return m.putErr
	}
	m.puts++
	m.kv[key] = value
	return nil
}

func (m *memSettingsRepo) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.kv, key)
	return nil
}

func (m *memSettingsRepo) get(key string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.kv[key]
	return v, ok
}

// syncEventRepo records appended events; safe for the engine goroutine.
type syncEventRepo struct {
	mu     sync.Mutex
	events []models.PollEvent
}

func (r *syncEventRepo) Append(_ context.Context, e models.PollEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *syncEventRepo) List(context.Context, time.Time, time.Time, string) ([]models.PollEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.PollEvent(nil), r.events...), nil
}

func (r *syncEventRepo) countType(typ string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if e.Type == typ {
			n++
		}
	}
	return n
}

// fakeSink records injections and clears.
type fakeSink struct {
	mu        sync.Mutex
	injected  [][3]float64
	cleared   int
	injectErr error
}

func (s *fakeSink) Inject(_ context.Context, lat, lon, alt float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.injectErr != nil {
		return s.injectErr
	}
	s.injected = append(s.injected, [3]float64{lat, lon, alt})
	return nil
}

func (s *fakeSink) Clear(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cleared++
	return nil
}

func (s *fakeSink) counts() (injected, cleared int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.injected), s.cleared
}

// fakeFetcher answers each Fetch with next(), counting calls.
type fakeFetcher struct {
	mu    sync.Mutex
	calls int
	next  func(call int, s models.Settings) (models.EntityState, error)
}

func (f *fakeFetcher) Fetch(_ context.Context, s models.Settings) (models.EntityState, error) {
	f.mu.Lock()
	f.calls++
	call := f.calls
	f.mu.Unlock()
	return f.next(call, s)
}

func (f *fakeFetcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func ptr[T any](v T) *T { return &v }

func entityAt(lat, lon float64) models.EntityState {
	return models.EntityState{
		EntityID:   "device_tracker.car",
		State:      "not_home",
		Attributes: models.EntityAttributes{Latitude: ptr(lat), Longitude: ptr(lon)},
	}
}
