// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/relabs-tech/tap_controller/internal/engine"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for local development
	},
}

const wsWriteTimeout = 2 * time.Second

// WSMessage is what the browser sends.
type WSMessage struct {
	Action string `json:"action"` // start, cancel
}

// WSResponse is what the browser receives. Type mirrors the event kind,
// or "error".
type WSResponse struct {
	Type    string        `json:"type"`
	Event   *engine.Event `json:"event,omitempty"`
	Message string        `json:"message,omitempty"`
}

type wsClient struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *wsClient) write(resp WSResponse) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	return c.conn.WriteJSON(resp)
}

// CalibrationHub relays calibration commands from browsers to the
// producer and engine events back to every connected browser. It never
// runs calibration itself; the producer owns the engine.
type CalibrationHub struct {
	mu      sync.Mutex
	clients map[*wsClient]struct{}
	send    func(cmd string) error
}

// NewCalibrationHub creates a hub; send forwards a command to the
// producer (over MQTT in cmd/web).
func NewCalibrationHub(send func(cmd string) error) *CalibrationHub {
	return &CalibrationHub{
		clients: make(map[*wsClient]struct{}),
		send:    send,
	}
}

// Clients returns the number of connected browsers.
func (h *CalibrationHub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// HandleCalibrationWS handles one browser connection.
func (h *CalibrationHub) HandleCalibrationWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("calibration: websocket upgrade error: %v", err)
		return
	}
	defer conn.Close()

	client := &wsClient{conn: conn}
	h.mu.Lock()
	h.clients[client] = struct{}{}
	h.mu.Unlock()
	log.Printf("calibration: browser connected from %s", r.RemoteAddr)

	defer func() {
		h.mu.Lock()
		delete(h.clients, client)
		h.mu.Unlock()
		log.Printf("calibration: browser %s disconnected", r.RemoteAddr)
	}()

	// Main message loop
	for {
		var msg WSMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("calibration: websocket read error: %v", err)
			}
			return
		}

		switch msg.Action {
		case CommandStart, CommandCancel:
			if err := h.send(msg.Action); err != nil {
				_ = client.write(WSResponse{Type: "error", Message: fmt.Sprintf("could not reach the producer: %v", err)})
			}
		default:
			_ = client.write(WSResponse{Type: "error", Message: fmt.Sprintf("unknown action %q", msg.Action)})
		}
	}
}

// Broadcast sends ev to every connected browser, dropping clients that
// cannot keep up.
func (h *CalibrationHub) Broadcast(ev engine.Event) {
	h.mu.Lock()
	clients := make([]*wsClient, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	resp := WSResponse{Type: string(ev.Kind), Event: &ev, Message: ev.Message}
	for _, c := range clients {
		if err := c.write(resp); err != nil {
			log.Printf("calibration: dropping browser: %v", err)
			h.mu.Lock()
			delete(h.clients, c)
			h.mu.Unlock()
			c.conn.Close()
		}
	}
}
