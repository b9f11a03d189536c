// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/tap_controller/internal/motion"
)

// SamplePayload is the JSON a phone (or cmd/sample_producer) publishes
// on the samples topic. Values are float32 as sent by the device.
type SamplePayload struct {
	Accel [3]float32 `json:"accel"`
	Euler [3]float32 `json:"euler"`
}

func widen(v [3]float32) motion.Vec3 {
	return motion.Vec3{X: float64(v[0]), Y: float64(v[1]), Z: float64(v[2])}
}

// Sample converts the payload, stamped with at.
func (p SamplePayload) Sample(at time.Time) motion.Sample {
	return motion.Sample{
		LinearAcceleration: widen(p.Accel),
		AttitudeEuler:      widen(p.Euler),
		Time:               at,
	}
}

// PayloadFrom is the inverse of Sample, narrowing to float32.
func PayloadFrom(s motion.Sample) SamplePayload {
	a, e := s.LinearAcceleration, s.AttitudeEuler
	return SamplePayload{
		Accel: [3]float32{float32(a.X), float32(a.Y), float32(a.Z)},
		Euler: [3]float32{float32(e.X), float32(e.Y), float32(e.Z)},
	}
}

// DecodeSample parses one samples-topic payload.
func DecodeSample(payload []byte, at time.Time) (motion.Sample, error) {
	var p SamplePayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return motion.Sample{}, fmt.Errorf("decode sample: %w", err)
	}
	return p.Sample(at), nil
}

type mqttSource struct {
	*queue
	client mqtt.Client
	topic  string
}

// NewMQTTSource subscribes to topic and queues every sample received.
func NewMQTTSource(broker, clientID, topic string) (motion.Source, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("mqtt source: connect %s: %w", broker, token.Error())
	}
	log.Printf("mqtt source: connected to %s, listening on %s", broker, topic)

	s := &mqttSource{queue: newQueue(64), client: client, topic: topic}
	token := client.Subscribe(topic, 0, func(_ mqtt.Client, msg mqtt.Message) {
		sample, err := DecodeSample(msg.Payload(), time.Now())
		if err != nil {
			log.Printf("mqtt source: %v", err)
			return
		}
		s.push(sample)
	})
	if token.Wait() && token.Error() != nil {
		client.Disconnect(250)
		return nil, fmt.Errorf("mqtt source: subscribe %s: %w", topic, token.Error())
	}
	return s, nil
}

func (s *mqttSource) Close() error {
	s.client.Unsubscribe(s.topic).Wait()
	s.client.Disconnect(250)
	return nil
}
