package server

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func readEvent(t *testing.T, conn *websocket.Conn) map[string]any {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	var payload map[string]any
	if err := json.Unmarshal(msg, &payload); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	return payload
}

func TestWSStreamsHubEvents(t *testing.T) {
	hub := NewHub()
	srv := httptest.NewServer(Handler(nil, hub, apiStoreStub{}, ControlHooks{}))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer func() { _ = conn.Close() }()

	if p := readEvent(t, conn); p["type"] != "connection" || p["connected"] != true {
		t.Fatalf("expected connection event, got %v", p)
	}

	// The subscription is registered after the connection event is sent.
	deadline := time.Now().Add(2 * time.Second)
	for {
		hub.mu.RLock()
		n := len(hub.clients)
		hub.mu.RUnlock()
		if n == 1 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("timeout waiting for subscription")
		}
		time.Sleep(5 * time.Millisecond)
	}

	hub.BroadcastWakeDetected("r1")

	p := readEvent(t, conn)
	if p["type"] != "wake_detected" {
		t.Fatalf("expected event type wake_detected, got %#v", p["type"])
	}
	if p["version"] == nil || p["timestamp"] == nil {
		t.Fatalf("expected envelope fields, got %v", p)
	}
}

func TestWSUnsubscribesOnClose(t *testing.T) {
	hub := NewHub()
	srv := httptest.NewServer(Handler(nil, hub, apiStoreStub{}, ControlHooks{}))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	readEvent(t, conn)
	_ = conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for {
		hub.mu.RLock()
		n := len(hub.clients)
		hub.mu.RUnlock()
		if n == 0 {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("expected subscriber removed, still have %d", n)
		}
		time.Sleep(5 * time.Millisecond)
	}
}
