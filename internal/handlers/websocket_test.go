package handlers

import (
	"encoding/json"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"ha_location_proxy/internal/models"
	"ha_location_proxy/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

type wsTestEnvelope struct {
	Type string         `json:"type"`
	Data StatusResponse `json:"data"`
}

func dialStatusStream(t *testing.T, sp *mockSpoofer) *websocket.Conn {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewHandler(&service.Service{Spoofer: sp}, nil)
	r.GET("/ws", h.wsConnect)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	u, _ := url.Parse(srv.URL)
	u.Scheme = "ws"
	u.Path = "/ws"

	dialer := websocket.Dialer{HandshakeTimeout: 2 * time.Second}
	conn, _, err := dialer.Dial(u.String(), nil)
	if err != nil {
		t.Fatalf("dial error: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readStatus(t *testing.T, conn *websocket.Conn) wsTestEnvelope {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(time.Second))
	var env wsTestEnvelope
	if err := conn.ReadJSON(&env); err != nil {
		t.Fatalf("read: %v", err)
	}
	return env
}

func TestWebSocket_StatusStream_InitialAndOnChange(t *testing.T) {
	sp := &mockSpoofer{
		status:  models.Status{Message: "Stopped"},
		updates: make(chan models.Status),
	}
	conn := dialStatusStream(t, sp)

	env := readStatus(t, conn)
	if env.Type != "status" || env.Data.Status.Message != "Stopped" || env.Data.Running {
		t.Fatalf("bad initial envelope: %+v", env)
	}

	sp.mu.Lock()
	sp.running = true
	sp.mu.Unlock()
	sp.updates <- models.Status{Message: "Last: 44.5, -99.2"}

	env = readStatus(t, conn)
	if env.Data.Status.Message != "Last: 44.5, -99.2" || !env.Data.Running {
		t.Fatalf("bad update envelope: %+v", env)
	}
}

func TestWebSocket_EnvelopeShape(t *testing.T) {
	b, err := json.Marshal(wsEnvelope{Type: "status", Data: StatusResponse{Status: models.Status{Message: "Polling enabled"}}})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var raw map[string]json.RawMessage
	_ = json.Unmarshal(b, &raw)
	if _, ok := raw["error"]; ok {
		t.Fatalf("empty error must be omitted: %s", b)
	}
	if _, ok := raw["data"]; !ok {
		t.Fatalf("missing data: %s", b)
	}
}
