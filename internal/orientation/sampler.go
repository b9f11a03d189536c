// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package orientation

import (
	"fmt"
	"strings"

	"github.com/relabs-tech/tap_controller/internal/motion"
)

// Axis selects which Euler component is the tilt angle.
type Axis int

const (
	AxisX Axis = iota
	AxisY
	AxisZ
)

func (a Axis) String() string {
	switch a {
	case AxisY:
		return "y"
	case AxisZ:
		return "z"
	default:
		return "x"
	}
}

// ParseAxis accepts "x", "y" or "z" (any case).
func ParseAxis(s string) (Axis, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "x", "":
		return AxisX, nil
	case "y":
		return AxisY, nil
	case "z":
		return AxisZ, nil
	}
	return AxisX, fmt.Errorf("unknown tilt axis %q (want x, y or z)", s)
}

// Sampler extracts the tilt angle used for left/right discrimination.
type Sampler struct {
	Axis Axis
}

// CurrentAngle returns the selected attitude axis in [0,360).
func (s Sampler) CurrentAngle(sample motion.Sample) float64 {
	e := sample.AttitudeEuler
	switch s.Axis {
	case AxisY:
		return Normalize(e.Y)
	case AxisZ:
		return Normalize(e.Z)
	default:
		return Normalize(e.X)
	}
}
