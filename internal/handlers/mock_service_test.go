package handlers

import (
	"context"
	"net/http"
	"sync"
	"time"

	"ha_location_proxy/internal/models"
	"ha_location_proxy/internal/service"

	"github.com/gin-gonic/gin"
)

// ---- Service Mocks ----

type mockAuth struct {
	signUpID      int
	signUpErr     error
	genTokenToken string
	genTokenErr   error
	parseID       int
	parseErr      error

	lastSignUpUsername string
	lastSignUpPassword string
	lastGenUsername    string
	lastGenPassword    string
	lastParseToken     string
}

func (m *mockAuth) SignUp(_ context.Context, username, password string) (int, error) {
	m.lastSignUpUsername = username
	m.lastSignUpPassword = password
	return m.signUpID, m.signUpErr
}
func (m *mockAuth) GenerateToken(_ context.Context, username, password string) (string, error) {
	m.lastGenUsername = username
	m.lastGenPassword = password
	return m.genTokenToken, m.genTokenErr
}
func (m *mockAuth) ParseToken(token string) (int, error) {
	m.lastParseToken = token
	return m.parseID, m.parseErr
}

type mockSettings struct {
	snap      models.Settings
	snapErr   error
	updateErr error

	lastPatch    *models.SettingsPatch
	lastPolling  *bool
	lastSpoofing *bool
}

func (m *mockSettings) Snapshot(ctx context.Context) (models.Settings, error) {
	return m.snap, m.snapErr
}
func (m *mockSettings) Subscribe(ctx context.Context) <-chan models.Settings {
	ch := make(chan models.Settings, 1)
	ch <- m.snap
	return ch
}
func (m *mockSettings) SetPollingEnabled(ctx context.Context, enabled bool) error {
	m.lastPolling = &enabled
	return m.updateErr
}
func (m *mockSettings) SetSpoofingEnabled(ctx context.Context, enabled bool) error {
	m.lastSpoofing = &enabled
	return m.updateErr
}
func (m *mockSettings) Update(ctx context.Context, p models.SettingsPatch) error {
	m.lastPatch = &p
	return m.updateErr
}
func (m *mockSettings) Seed(ctx context.Context, initial models.Settings) error { return nil }

// mockSpoofer publishes whatever is sent on updates to status subscribers.
type mockSpoofer struct {
	mu      sync.Mutex
	status  models.Status
	running bool
	updates chan models.Status
}

func (m *mockSpoofer) Run(ctx context.Context) {}
func (m *mockSpoofer) Status() models.Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}
func (m *mockSpoofer) Running() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}
func (m *mockSpoofer) SubscribeStatus(ctx context.Context) <-chan models.Status {
	out := make(chan models.Status, 1)
	out <- m.Status()
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case st := <-m.updates:
				m.mu.Lock()
				m.status = st
				m.mu.Unlock()
				select {
				case out <- st:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out
}

type mockEntity struct {
	res   models.RefreshResult
	err   error
	calls int
}

func (m *mockEntity) Refresh(ctx context.Context) (models.RefreshResult, error) {
	m.calls++
	return m.res, m.err
}
func (m *mockEntity) RefreshWith(ctx context.Context, _ models.SettingsPatch) (models.RefreshResult, error) {
	return m.Refresh(ctx)
}

type mockLocation struct {
	loc *models.MockLocation
	err error
}

func (m *mockLocation) Current(ctx context.Context) (*models.MockLocation, error) {
	return m.loc, m.err
}

type mockEventLog struct {
	resp     []models.PollEvent
	err      error
	lastFrom time.Time
	lastTo   time.Time
	lastType string
}

func (m *mockEventLog) List(ctx context.Context, f service.LogFilter) ([]models.PollEvent, error) {
	m.lastFrom = f.From
	m.lastTo = f.To
	m.lastType = f.Type
	return m.resp, m.err
}

// ---- Shared Test Helpers ----

func newTestRouter(s *service.Service) *gin.Engine {
	h := NewHandler(s, nil)
	gin.SetMode(gin.TestMode)
	return h.InitRoutes()
}

func authHeader(token string) http.Header {
	h := http.Header{}
	if token != "" {
		h.Set("Authorization", "Bearer "+token)
	}
	return h
}
