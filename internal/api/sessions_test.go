package api

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	gorilla "github.com/gorilla/websocket"
	"github.com/yegors/co-wx/internal/config"
	"github.com/yegors/co-wx/internal/session"
	"github.com/yegors/co-wx/internal/websocket"
	"github.com/yegors/co-wx/pkg/logger"
)

type wireMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

func startSessions(t *testing.T, backend *stubBackend) (*SessionHandler, *gorilla.Conn) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())

	opts := session.DefaultOptions()
	opts.SuggestDelay = 10 * time.Millisecond
	opts.SearchDelay = 10 * time.Millisecond

	ws := websocket.NewServer(logger.NewNop())
	sessions := NewSessionHandler(ctx, backend, opts, "en", logger.NewNop())
	ws.SetMessageHandler(sessions)
	go ws.Run(ctx)

	cfg := config.Default()
	srv := httptest.NewServer(NewRouter(backend, cfg, ws, logger.NewNop()).Routes())

	conn, _, err := gorilla.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws?lang=en", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}

	t.Cleanup(func() {
		conn.Close()
		sessions.Close()
		srv.Close()
		cancel()
	})
	return sessions, conn
}

// readUntil reads messages until one of the given type contains want
func readUntil(t *testing.T, conn *gorilla.Conn, msgType, want string) wireMessage {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for {
		conn.SetReadDeadline(deadline)
		var msg wireMessage
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("waiting for %s containing %q: %v", msgType, want, err)
		}
		if msg.Type == msgType && strings.Contains(string(msg.Data), want) {
			return msg
		}
	}
}

func send(t *testing.T, conn *gorilla.Conn, msgType string, data any) {
	t.Helper()
	if err := conn.WriteJSON(map[string]any{"type": msgType, "data": data}); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func TestSessionInitialRender(t *testing.T) {
	backend := &stubBackend{snap: testSnapshot(), lastCity: "Berlin"}
	sessions, conn := startSessions(t, backend)

	readUntil(t, conn, websocket.MessageTypeRender, "Berlin")
	if n := sessions.SessionCount(); n != 1 {
		t.Errorf("SessionCount = %d, want 1", n)
	}
}

func TestSessionEvents(t *testing.T) {
	backend := &stubBackend{snap: testSnapshot(), lastCity: "Berlin"}
	_, conn := startSessions(t, backend)
	readUntil(t, conn, websocket.MessageTypeRender, "Berlin")

	send(t, conn, websocket.MessageTypeView, map[string]string{"view": "hourly"})
	readUntil(t, conn, websocket.MessageTypeRender, "weather__forward-list is-hourly")

	send(t, conn, websocket.MessageTypeView, map[string]string{"view": "weekly"})
	readUntil(t, conn, websocket.MessageTypeError, "unknown view")

	send(t, conn, websocket.MessageTypeSelectDay, map[string]any{})
	readUntil(t, conn, websocket.MessageTypeError, "index")

	send(t, conn, websocket.MessageTypeDismiss, nil)
	readUntil(t, conn, websocket.MessageTypeRender, "Berlin")

	send(t, conn, "teleport", nil)
	readUntil(t, conn, websocket.MessageTypeError, "unknown message type")
}

func TestSessionRemovedOnDisconnect(t *testing.T) {
	backend := &stubBackend{snap: testSnapshot(), lastCity: "Berlin"}
	sessions, conn := startSessions(t, backend)
	readUntil(t, conn, websocket.MessageTypeRender, "Berlin")

	conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for sessions.SessionCount() != 0 {
		if time.Now().After(deadline) {
			t.Fatal("session not removed after disconnect")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestSessionOptions(t *testing.T) {
	cfg := config.Default()
	cfg.UI.SuggestDebounceMs = 250
	cfg.UI.SearchDebounceMs = 900
	cfg.UI.UpdatedLabelInterval = 30
	cfg.Geolocation.Enabled = true
	cfg.Geolocation.Latitude = 55.75
	cfg.Geolocation.Longitude = 37.62

	opts := SessionOptions(cfg)
	if opts.SuggestDelay != 250*time.Millisecond || opts.SearchDelay != 900*time.Millisecond {
		t.Errorf("delays = %v / %v", opts.SuggestDelay, opts.SearchDelay)
	}
	if opts.RefreshInterval != 30*time.Second {
		t.Errorf("RefreshInterval = %v", opts.RefreshInterval)
	}
	if opts.Fallback == nil || opts.Fallback.Lat != 55.75 {
		t.Errorf("Fallback = %+v", opts.Fallback)
	}

	cfg.Geolocation.Enabled = false
	if SessionOptions(cfg).Fallback != nil {
		t.Error("fallback set while geolocation is disabled")
	}
}
