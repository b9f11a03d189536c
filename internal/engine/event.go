// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package engine

import (
	"time"

	"github.com/relabs-tech/tap_controller/internal/calibration"
	"github.com/relabs-tech/tap_controller/internal/direction"
)

// Kind tells consumers which fields of an Event are meaningful.
type Kind string

const (
	KindDirection           Kind = "direction"
	KindPrompt              Kind = "prompt"
	KindCalibrationTap      Kind = "calibration_tap"
	KindCalibrationComplete Kind = "calibration_complete"
)

// Event is the engine's output, published as JSON over MQTT and the
// calibration websocket.
type Event struct {
	Kind Kind      `json:"kind"`
	Time time.Time `json:"time"`

	// Direction is set on KindDirection ("left", "right", "center").
	Direction string `json:"direction,omitempty"`

	// Calibration tap feedback.
	Side     string  `json:"side,omitempty"`
	Accepted bool    `json:"accepted,omitempty"`
	Seen     int     `json:"seen,omitempty"`
	Angle    float64 `json:"angle"`

	Prompt  calibration.Prompt  `json:"prompt,omitempty"`
	Message string              `json:"message,omitempty"`
	Bounds  *direction.Bounds   `json:"bounds,omitempty"`
	Result  *calibration.Result `json:"result,omitempty"`
	Warning string              `json:"warning,omitempty"`
	RunID   string              `json:"run_id,omitempty"`
}

// Dir parses Direction (or Side for calibration taps). Unknown or empty
// values read as Center.
func (e Event) Dir() direction.Direction {
	s := e.Direction
	if s == "" {
		s = e.Side
	}
	d, err := direction.Parse(s)
	if err != nil {
		return direction.Center
	}
	return d
}
