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
	"time"

	"github.com/dustin/go-humanize"
	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/tap_controller/internal/config"
	"github.com/relabs-tech/tap_controller/internal/motion"
	"github.com/relabs-tech/tap_controller/internal/sensors"
)

// RunSampleProducer publishes mock motion samples on the samples topic,
// for running the tap producer with SENSOR_SOURCE=mqtt away from the
// hardware. With calibrate set the mock taps follow the calibration
// script instead of the play cycle.
func RunSampleProducer(calibrate bool) error {
	cfg := config.Get()

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientIDSamples)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return fmt.Errorf("MQTT connect error: %w", token.Error())
	}
	defer client.Disconnect(250)
	log.Printf("samples: connected to MQTT broker at %s", cfg.MQTTBroker)

	var script []float64
	if calibrate {
		script = sensors.MockCalibrationScript
	}
	src := sensors.NewMockSource(1500*time.Millisecond, script...)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	ticker := time.NewTicker(cfg.Interval())
	defer ticker.Stop()

	var sent int64
	for {
		select {
		case <-sigCh:
			log.Printf("samples: stopping after %s samples", humanize.Comma(sent))
			return nil
		case <-ticker.C:
			s, err := src.Next()
			if err != nil {
				log.Printf("samples: error from mock source: %v", err)
				continue
			}
			if err := publishSample(client, cfg.TopicSamples, s); err != nil {
				log.Printf("samples: %v", err)
				continue
			}
			sent++
		}
	}
}

func publishSample(client mqtt.Client, topic string, s motion.Sample) error {
	payload, err := json.Marshal(sensors.PayloadFrom(s))
	if err != nil {
		return fmt.Errorf("json marshal error: %w", err)
	}
	if token := client.Publish(topic, 0, false, payload); token.Wait() && token.Error() != nil {
		return fmt.Errorf("MQTT publish error (%s): %w", topic, token.Error())
	}
	return nil
}
