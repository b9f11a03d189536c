// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package sensors provides motion.Source adapters: a scripted mock, an
// MPU9250 over SPI, a microcontroller on a serial line, and samples
// pushed over MQTT by a phone.
package sensors

import (
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/relabs-tech/tap_controller/internal/config"
	"github.com/relabs-tech/tap_controller/internal/motion"
)

// Open builds the source selected by SENSOR_SOURCE. The returned closer
// is never nil.
func Open(cfg *config.Config) (motion.Source, io.Closer, error) {
	var (
		src motion.Source
		err error
	)
	switch cfg.SensorSource {
	case config.SourceMock:
		src = NewMockSource(1500 * time.Millisecond)
	case config.SourceMPU9250:
		src, err = NewMPU9250Source(cfg.IMUSPIDevice, cfg.IMUCSPin, cfg.IMUGyroWeight)
	case config.SourceSerial:
		src, err = NewSerialSource(cfg.SerialPort, cfg.SerialBaudRate)
	case config.SourceMQTT:
		// Suffix keeps several producers on one broker from kicking each other off.
		clientID := cfg.MQTTClientIDSamples + "-" + uuid.NewString()[:8]
		src, err = NewMQTTSource(cfg.MQTTBroker, clientID, cfg.TopicSamples)
	default:
		err = fmt.Errorf("unknown sensor source %q", cfg.SensorSource)
	}
	if err != nil {
		return nil, nil, err
	}

	if c, ok := src.(io.Closer); ok {
		return src, c, nil
	}
	return src, nopCloser{}, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
