// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package direction

import (
	"fmt"
	"math"
)

// Direction is the outcome of one classified tap.
type Direction int

const (
	Center Direction = iota
	Left
	Right
)

func (d Direction) String() string {
	switch d {
	case Left:
		return "left"
	case Right:
		return "right"
	default:
		return "center"
	}
}

// MarshalText renders the direction as "left", "right" or "center" in JSON.
func (d Direction) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Direction) UnmarshalText(b []byte) error {
	p, err := Parse(string(b))
	if err != nil {
		return err
	}
	*d = p
	return nil
}

// Parse is the inverse of String.
func Parse(s string) (Direction, error) {
	switch s {
	case "left":
		return Left, nil
	case "right":
		return Right, nil
	case "center", "":
		return Center, nil
	}
	return Center, fmt.Errorf("unknown direction %q", s)
}

// Bounds are the learned per-side thresholds, in degrees on [0,360).
//
// Right is the smallest angle recorded among right-side calibration taps;
// Left is the largest angle recorded among left-side taps.
type Bounds struct {
	Right float64 `json:"right_bound_lower"`
	Left  float64 `json:"left_bound_lower"`
}

// DefaultBounds are used until a calibration run has completed.
func DefaultBounds() Bounds {
	return Bounds{Right: 0.5, Left: 359.5}
}

// Valid reports whether both bounds are finite angles in [0,360).
func (b Bounds) Valid() bool {
	return validAngle(b.Right) && validAngle(b.Left)
}

func validAngle(a float64) bool {
	return !math.IsNaN(a) && a >= 0 && a < 360
}
