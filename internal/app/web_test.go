// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/relabs-tech/tap_controller/internal/direction"
	"github.com/relabs-tech/tap_controller/internal/engine"
)

func TestPingPong(t *testing.T) {
	s := newWebState(time.Second, NewCalibrationHub(func(string) error { return nil }))
	req := httptest.NewRequest("GET", "http://localhost/ping", nil)
	w := httptest.NewRecorder()
	s.router("").ServeHTTP(w, req)

	if w.Code != http.StatusOK || w.Body.String() != "pong" {
		t.Fatalf("got %d %q", w.Code, w.Body.String())
	}
}

func TestBoundsEndpoint(t *testing.T) {
	s := newWebState(time.Second, NewCalibrationHub(func(string) error { return nil }))
	r := s.router("")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/api/bounds", nil))
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("before any bounds: %d", w.Code)
	}

	s.onBounds([]byte(`{"bounds":{"right_bound_lower":4.5,"left_bound_lower":352},"calibrated":true}`))

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/api/bounds", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status %d", w.Code)
	}
	var got BoundsStatus
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if !got.Calibrated || got.Bounds != (direction.Bounds{Right: 4.5, Left: 352}) {
		t.Fatalf("bounds %+v", got)
	}
}

func TestLastDirectionExpires(t *testing.T) {
	s := newWebState(50*time.Millisecond, NewCalibrationHub(func(string) error { return nil }))
	r := s.router("")

	s.onDirection([]byte(`{"kind":"direction","direction":"left","angle":350}`))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/api/last", nil))
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"direction":"left"`) {
		t.Fatalf("fresh last: %d %s", w.Code, w.Body.String())
	}

	time.Sleep(120 * time.Millisecond)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/api/last", nil))
	if w.Code != http.StatusNoContent {
		t.Fatalf("stale last: %d %s", w.Code, w.Body.String())
	}
}

func TestCalibrationWebsocket(t *testing.T) {
	var (
		mu   sync.Mutex
		sent []string
	)
	hub := NewCalibrationHub(func(cmd string) error {
		mu.Lock()
		sent = append(sent, cmd)
		mu.Unlock()
		return nil
	})
	s := newWebState(time.Second, hub)
	srv := httptest.NewServer(s.router(""))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/calibration"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	if err := conn.WriteJSON(WSMessage{Action: "bogus"}); err != nil {
		t.Fatal(err)
	}
	var resp WSResponse
	if err := conn.ReadJSON(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.Type != "error" {
		t.Fatalf("unknown action reply %+v", resp)
	}

	if err := conn.WriteJSON(WSMessage{Action: CommandStart}); err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for {
		mu.Lock()
		n := len(sent)
		mu.Unlock()
		if n == 1 && hub.Clients() == 1 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("command not forwarded: sent=%v clients=%d", sent, hub.Clients())
		}
		time.Sleep(5 * time.Millisecond)
	}
	if sent[0] != CommandStart {
		t.Fatalf("forwarded %q", sent[0])
	}

	s.onCalibration([]byte(`{"kind":"prompt","prompt":"tap_right","message":"Tap on the right"}`))
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if err := conn.ReadJSON(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.Type != string(engine.KindPrompt) || resp.Event == nil || resp.Event.Message != "Tap on the right" {
		t.Fatalf("broadcast %+v", resp)
	}
}
