// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	ghandlers "github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/jellydator/ttlcache/v3"

	"github.com/relabs-tech/tap_controller/internal/config"
	"github.com/relabs-tech/tap_controller/internal/engine"
)

const lastDirectionKey = "last"

// webState is what the web server knows, fed entirely from MQTT.
type webState struct {
	mu         sync.RWMutex
	bounds     BoundsStatus
	haveBounds bool

	// last holds the most recent direction event until it goes stale.
	last *ttlcache.Cache[string, engine.Event]
	hub  *CalibrationHub
}

func newWebState(lastTTL time.Duration, hub *CalibrationHub) *webState {
	return &webState{
		last: ttlcache.New[string, engine.Event](
			ttlcache.WithTTL[string, engine.Event](lastTTL),
			ttlcache.WithDisableTouchOnHit[string, engine.Event](),
		),
		hub: hub,
	}
}

func (s *webState) onDirection(payload []byte) {
	var ev engine.Event
	if err := json.Unmarshal(payload, &ev); err != nil {
		log.Printf("web: direction payload unmarshal error: %v", err)
		return
	}
	s.last.Set(lastDirectionKey, ev, ttlcache.DefaultTTL)
	s.hub.Broadcast(ev)
}

func (s *webState) onCalibration(payload []byte) {
	var ev engine.Event
	if err := json.Unmarshal(payload, &ev); err != nil {
		log.Printf("web: calibration payload unmarshal error: %v", err)
		return
	}
	s.hub.Broadcast(ev)
}

func (s *webState) onBounds(payload []byte) {
	var st BoundsStatus
	if err := json.Unmarshal(payload, &st); err != nil {
		log.Printf("web: bounds payload unmarshal error: %v", err)
		return
	}
	s.mu.Lock()
	s.bounds = st
	s.haveBounds = true
	s.mu.Unlock()
}

func (s *webState) router(staticDir string) *mux.Router {
	router := mux.NewRouter().StrictSlash(false)
	router.Use(loggingMiddleware)

	router.Path("/ping").HandlerFunc(pingPong)

	api := router.PathPrefix("/api").Subrouter()
	api.Path("/bounds").Methods(http.MethodGet).HandlerFunc(s.handleBounds)
	api.Path("/last").Methods(http.MethodGet).HandlerFunc(s.handleLast)

	if s.hub != nil {
		router.Path("/ws/calibration").HandlerFunc(s.hub.HandleCalibrationWS)
	}

	if staticDir != "" {
		router.PathPrefix("/").Handler(http.FileServer(http.Dir(staticDir)))
	}
	return router
}

func loggingMiddleware(next http.Handler) http.Handler {
	return ghandlers.LoggingHandler(os.Stdout, next)
}

func pingPong(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("pong"))
}

func (s *webState) handleBounds(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	st, ok := s.bounds, s.haveBounds
	s.mu.RUnlock()

	if !ok {
		http.Error(w, "no bounds published yet", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, st)
}

func (s *webState) handleLast(w http.ResponseWriter, r *http.Request) {
	item := s.last.Get(lastDirectionKey)
	if item == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, item.Value())
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("web: json encode error: %v", err)
	}
}

// RunWeb serves the bounds/last-direction API and the calibration
// websocket. Browser commands are forwarded to the producer over MQTT.
func RunWeb() error {
	cfg := config.Get()

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientIDWeb)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return fmt.Errorf("MQTT connect error: %w", token.Error())
	}
	defer client.Disconnect(250)
	log.Printf("web: connected to MQTT broker at %s", cfg.MQTTBroker)

	hub := NewCalibrationHub(func(cmd string) error {
		payload, err := json.Marshal(WSMessage{Action: cmd})
		if err != nil {
			return err
		}
		token := client.Publish(cfg.TopicCalibrationCmd, 1, false, payload)
		token.Wait()
		return token.Error()
	})
	state := newWebState(time.Duration(cfg.LastDirectionTTLS)*time.Second, hub)

	subs := map[string]func([]byte){
		cfg.TopicDirection:   state.onDirection,
		cfg.TopicCalibration: state.onCalibration,
		BoundsTopic(cfg):     state.onBounds,
	}
	for topic, fn := range subs {
		token := client.Subscribe(topic, 0, func(_ mqtt.Client, msg mqtt.Message) {
			fn(msg.Payload())
		})
		if token.Wait() && token.Error() != nil {
			return fmt.Errorf("subscribe %s: %w", topic, token.Error())
		}
		log.Printf("web: subscribed to MQTT topic %s", topic)
	}

	handler := ghandlers.CORS(
		ghandlers.AllowedMethods([]string{http.MethodGet, http.MethodOptions}),
		ghandlers.AllowedOrigins([]string{"*"}),
	)(state.router("web"))

	addr := fmt.Sprintf(":%d", cfg.WebServerPort)
	log.Printf("web: server listening on %s", addr)
	return http.ListenAndServe(addr, handler)
}
