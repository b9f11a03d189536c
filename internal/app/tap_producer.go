// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/tidwall/gjson"

	"github.com/relabs-tech/tap_controller/internal/config"
	"github.com/relabs-tech/tap_controller/internal/direction"
	"github.com/relabs-tech/tap_controller/internal/engine"
	"github.com/relabs-tech/tap_controller/internal/events"
	"github.com/relabs-tech/tap_controller/internal/sensors"
	"github.com/relabs-tech/tap_controller/internal/store"
)

// BoundsStatus is published retained on BoundsTopic so late subscribers
// (web, display) know which bounds the producer is classifying with.
type BoundsStatus struct {
	Bounds     direction.Bounds `json:"bounds"`
	Calibrated bool             `json:"calibrated"`
	UpdatedAt  time.Time        `json:"updated_at"`
	Warning    string           `json:"warning,omitempty"`
}

// BoundsTopic derives the bounds status topic from the calibration topic.
func BoundsTopic(cfg *config.Config) string {
	return cfg.TopicCalibration + "/bounds"
}

// RunTapProducer reads the configured sensor, runs the engine and
// publishes direction and calibration events to MQTT. Calibration is
// started and cancelled through the command topic.
func RunTapProducer() error {
	cfg := config.Get()

	engineCfg, err := cfg.Engine()
	if err != nil {
		return err
	}

	st, err := store.OpenBolt(cfg.StorePath, false)
	if err != nil {
		return err
	}
	defer st.Close()
	log.Printf("producer: calibration store at %s", cfg.StorePath)

	src, closer, err := sensors.Open(cfg)
	if err != nil {
		return fmt.Errorf("open sensor source %q: %w", cfg.SensorSource, err)
	}
	defer closer.Close()
	log.Printf("producer: using %s sensor source", cfg.SensorSource)

	eng := engine.New(engineCfg, st)

	// --- connect to MQTT ---
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientIDProducer)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return fmt.Errorf("MQTT connect error: %w", token.Error())
	}
	defer client.Disconnect(250)
	log.Printf("producer: connected to MQTT broker at %s", cfg.MQTTBroker)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	bus := events.NewBus()
	bus.Forward(ctx, "mqtt", func(ev engine.Event) { publishEvent(client, cfg, ev) })
	bus.Forward(ctx, "log", logEvent)

	publishBounds(client, cfg, BoundsStatus{
		Bounds:     eng.Bounds(),
		Calibrated: eng.Calibrated(),
		UpdatedAt:  time.Now(),
	})

	commands := make(chan string, 8)
	token := client.Subscribe(cfg.TopicCalibrationCmd, 0, func(_ mqtt.Client, msg mqtt.Message) {
		cmd := parseCommand(msg.Payload())
		select {
		case commands <- cmd:
		default:
			log.Printf("producer: command %q dropped, loop is behind", cmd)
		}
	})
	if token.Wait() && token.Error() != nil {
		return fmt.Errorf("subscribe %s: %w", cfg.TopicCalibrationCmd, token.Error())
	}
	log.Printf("producer: listening for calibration commands on %s", cfg.TopicCalibrationCmd)

	return newTickLoop(eng, src, bus, commands, cfg.Interval()).run(ctx)
}

// parseCommand accepts {"action":"start"} or a bare "start".
func parseCommand(payload []byte) string {
	if gjson.ValidBytes(payload) {
		if action := gjson.GetBytes(payload, "action"); action.Exists() {
			return strings.ToLower(action.String())
		}
	}
	return strings.ToLower(strings.Trim(strings.TrimSpace(string(payload)), `"`))
}

// eventTopic routes direction events and calibration events apart.
// Prompts and completions are retained so a client joining mid-run
// sees the current instruction.
func eventTopic(cfg *config.Config, ev engine.Event) (topic string, retained bool) {
	switch ev.Kind {
	case engine.KindDirection:
		return cfg.TopicDirection, false
	case engine.KindCalibrationTap:
		return cfg.TopicCalibration, false
	default:
		return cfg.TopicCalibration, true
	}
}

func publishEvent(client mqtt.Client, cfg *config.Config, ev engine.Event) {
	payload, err := json.Marshal(ev)
	if err != nil {
		log.Printf("producer: json marshal error (%s): %v", ev.Kind, err)
		return
	}

	topic, retained := eventTopic(cfg, ev)
	if token := client.Publish(topic, 0, retained, payload); token.Wait() && token.Error() != nil {
		log.Printf("producer: MQTT publish error (%s): %v", topic, token.Error())
		return
	}

	if ev.Kind == engine.KindCalibrationComplete && ev.Bounds != nil {
		publishBounds(client, cfg, BoundsStatus{
			Bounds:     *ev.Bounds,
			Calibrated: true,
			UpdatedAt:  ev.Time,
			Warning:    ev.Warning,
		})
	}
}

func publishBounds(client mqtt.Client, cfg *config.Config, status BoundsStatus) {
	payload, err := json.Marshal(status)
	if err != nil {
		log.Printf("producer: json marshal error (bounds): %v", err)
		return
	}
	topic := BoundsTopic(cfg)
	if token := client.Publish(topic, 1, true, payload); token.Wait() && token.Error() != nil {
		log.Printf("producer: MQTT publish error (%s): %v", topic, token.Error())
	}
}

func logEvent(ev engine.Event) {
	switch ev.Kind {
	case engine.KindDirection:
		log.Printf("tap: %s (%.1f°)", ev.Direction, ev.Angle)
	case engine.KindCalibrationTap:
		log.Printf("calibration: %s", ev.Message)
	case engine.KindCalibrationComplete:
		if ev.Warning != "" {
			log.Printf("calibration: %s (WARNING: %s)", ev.Message, ev.Warning)
		} else {
			log.Printf("calibration: %s", ev.Message)
		}
	default:
		if ev.Message != "" {
			log.Printf("calibration: %s", ev.Message)
		}
	}
}
