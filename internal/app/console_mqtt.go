// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/tap_controller/internal/config"
	"github.com/relabs-tech/tap_controller/internal/engine"
)

// FormatBounds renders a bounds status line.
func FormatBounds(st BoundsStatus) string {
	src := styleDim.Render("(defaults)")
	if st.Calibrated {
		src = styleOK.Render("(calibrated)")
	}
	line := fmt.Sprintf("[BNDS] right>%.2f° left<%.2f° %s", st.Bounds.Right, st.Bounds.Left, src)
	if st.Warning != "" {
		line += " " + styleWarning.Render("warning: "+st.Warning)
	}
	return line
}

// RunConsoleMQTT prints the producer's events as they arrive.
func RunConsoleMQTT() error {
	cfg := config.Get()

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientIDConsole)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return fmt.Errorf("MQTT connect error: %w", token.Error())
	}
	log.Printf("console: connected to MQTT broker at %s", cfg.MQTTBroker)

	printEvent := func(_ mqtt.Client, msg mqtt.Message) {
		var ev engine.Event
		if err := json.Unmarshal(msg.Payload(), &ev); err != nil {
			log.Printf("console: %s unmarshal error: %v", msg.Topic(), err)
			return
		}
		fmt.Println(FormatEvent(ev))
	}

	for _, topic := range []string{cfg.TopicDirection, cfg.TopicCalibration} {
		token := client.Subscribe(topic, 0, printEvent)
		if token.Wait() && token.Error() != nil {
			return fmt.Errorf("subscribe %s: %w", topic, token.Error())
		}
		log.Printf("console: subscribed to %s", topic)
	}

	boundsTopic := BoundsTopic(cfg)
	token := client.Subscribe(boundsTopic, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var st BoundsStatus
		if err := json.Unmarshal(msg.Payload(), &st); err != nil {
			log.Printf("console: bounds unmarshal error: %v", err)
			return
		}
		fmt.Println(FormatBounds(st))
	})
	if token.Wait() && token.Error() != nil {
		return fmt.Errorf("subscribe %s: %w", boundsTopic, token.Error())
	}
	log.Printf("console: subscribed to %s", boundsTopic)

	// Wait for Ctrl+C
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Println("console: shutting down")
	client.Disconnect(250)
	return nil
}
