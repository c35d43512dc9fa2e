package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"ha_location_proxy/internal/models"
	"ha_location_proxy/internal/service"
)

func TestEngineHandlers_Status(t *testing.T) {
	sp := &mockSpoofer{status: models.Status{Message: "Last: 44.5, -99.2"}, running: true}
	r := newTestRouter(&service.Service{Authorization: &mockAuth{parseID: 1}, Spoofer: sp})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, newAuthedRequest(http.MethodGet, "/api/v1/status"))
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	var out StatusResponse
	_ = json.Unmarshal(w.Body.Bytes(), &out)
	if out.Status.Message != "Last: 44.5, -99.2" || !out.Running {
		t.Fatalf("unexpected: %+v", out)
	}
}

func TestEngineHandlers_Location(t *testing.T) {
	at := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)
	tests := []struct {
		name     string
		loc      *mockLocation
		wantCode int
	}{
		{name: "reported", loc: &mockLocation{loc: &models.MockLocation{Latitude: 44.5, Longitude: -99.2, InjectedAt: at}}, wantCode: http.StatusOK},
		{name: "nothing reported", loc: &mockLocation{}, wantCode: http.StatusNotFound},
		{name: "store error", loc: &mockLocation{err: errors.New("io")}, wantCode: http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestRouter(&service.Service{Authorization: &mockAuth{parseID: 1}, Location: tt.loc})

			w := httptest.NewRecorder()
			r.ServeHTTP(w, newAuthedRequest(http.MethodGet, "/api/v1/location"))
			if w.Code != tt.wantCode {
				t.Fatalf("status=%d want %d", w.Code, tt.wantCode)
			}
			if tt.wantCode == http.StatusOK {
				var got models.MockLocation
				_ = json.Unmarshal(w.Body.Bytes(), &got)
				if got.Latitude != 44.5 || got.Longitude != -99.2 {
					t.Fatalf("unexpected location %+v", got)
				}
			}
		})
	}
}

func TestEngineHandlers_Refresh(t *testing.T) {
	lat, lon := 44.5, -99.2
	entity := &mockEntity{res: models.RefreshResult{
		Label:      service.LabelOK,
		Attributes: &models.EntityAttributes{Latitude: &lat, Longitude: &lon},
	}}
	r := newTestRouter(&service.Service{Authorization: &mockAuth{parseID: 1}, Entity: entity})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, newAuthedRequest(http.MethodPost, "/api/v1/entity/refresh"))
	if w.Code != http.StatusOK || entity.calls != 1 {
		t.Fatalf("status=%d calls=%d", w.Code, entity.calls)
	}
	var got models.RefreshResult
	_ = json.Unmarshal(w.Body.Bytes(), &got)
	if got.Label != "OK" || got.Attributes == nil || *got.Attributes.Latitude != 44.5 {
		t.Fatalf("unexpected body %s", w.Body.String())
	}

	entity.err = errors.New("db locked")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, newAuthedRequest(http.MethodPost, "/api/v1/entity/refresh"))
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status=%d, want 500", w.Code)
	}
}

func TestHealth(t *testing.T) {
	r := newTestRouter(&service.Service{})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Code != http.StatusOK || w.Body.String() != `{"status":"ok"}` {
		t.Fatalf("health: %d %s", w.Code, w.Body.String())
	}
}
