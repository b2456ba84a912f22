package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func newTestHub(t *testing.T, allowedOrigins []string) (*Hub, *httptest.Server) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	hub := NewHub(ctx, allowedOrigins, nil)
	go hub.Run()

	ts := httptest.NewServer(http.HandlerFunc(hub.ServeWS))
	t.Cleanup(func() {
		ts.Close()
		cancel()
	})
	return hub, ts
}

func dialWS(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("websocket dial failed: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func waitForClients(t *testing.T, hub *Hub, want int) {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if hub.ClientCount() == want {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("expected %d connected clients, got %d", want, hub.ClientCount())
}

func TestHubBroadcast(t *testing.T) {
	hub, ts := newTestHub(t, nil)
	conn := dialWS(t, ts)
	waitForClients(t, hub, 1)

	hub.Publish("event", map[string]string{"event_name": "boss_defeated"})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("failed to read broadcast: %v", err)
	}

	var msg LiveMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("broadcast is not valid JSON: %v", err)
	}
	if msg.Kind != "event" {
		t.Errorf("expected kind event, got %q", msg.Kind)
	}
	payload, ok := msg.Payload.(map[string]interface{})
	if !ok || payload["event_name"] != "boss_defeated" {
		t.Errorf("unexpected payload %v", msg.Payload)
	}
}

func TestHubMultipleClients(t *testing.T) {
	hub, ts := newTestHub(t, nil)
	first := dialWS(t, ts)
	second := dialWS(t, ts)
	waitForClients(t, hub, 2)

	hub.Publish("metric", map[string]float64{"fps": 58.7})

	for _, conn := range []*websocket.Conn{first, second} {
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		if _, _, err := conn.ReadMessage(); err != nil {
			t.Errorf("client did not receive broadcast: %v", err)
		}
	}
}

func TestHubClientDisconnect(t *testing.T) {
	hub, ts := newTestHub(t, nil)
	conn := dialWS(t, ts)
	waitForClients(t, hub, 1)

	conn.Close()
	waitForClients(t, hub, 0)
}

func TestHubRejectsDisallowedOrigin(t *testing.T) {
	_, ts := newTestHub(t, []string{"dashboard.example.com"})

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http")
	header := http.Header{"Origin": []string{"https://evil.example.com"}}
	if _, _, err := websocket.DefaultDialer.Dial(wsURL, header); err == nil {
		t.Error("expected dial to fail for disallowed origin")
	}
}

func TestHubAllowsConfiguredOrigin(t *testing.T) {
	hub, ts := newTestHub(t, []string{"dashboard.example.com"})

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http")
	header := http.Header{"Origin": []string{"https://dashboard.example.com"}}
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, header)
	if err != nil {
		t.Fatalf("expected dial to succeed for allowed origin: %v", err)
	}
	defer conn.Close()
	waitForClients(t, hub, 1)
}
