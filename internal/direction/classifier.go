// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package direction

import (
	"fmt"
	"math"
)

// Classifier maps a tilt angle to a Direction.
//
// The circle is split into two side zones hugging the 0/360 wrap:
// right taps tilt just above 0°, left taps just below 360°. ZoneSpan is
// how far each zone reaches from the wrap; anything beyond it is Center.
//
//	right: angle in [0, ZoneSpan)        and angle > Bounds.Right - Tolerance
//	left:  angle in (360-ZoneSpan, 360)  and angle < Bounds.Left  + Tolerance
type Classifier struct {
	ZoneSpan  float64
	Tolerance float64
}

// DefaultClassifier splits at 90° with no tolerance.
func DefaultClassifier() Classifier {
	return Classifier{ZoneSpan: 90}
}

// Validate checks that the zones do not overlap.
func (c Classifier) Validate() error {
	if !(c.ZoneSpan > 0 && c.ZoneSpan <= 180) {
		return fmt.Errorf("zone span must be in (0,180], got %v", c.ZoneSpan)
	}
	if math.IsNaN(c.Tolerance) || c.Tolerance < 0 {
		return fmt.Errorf("bound tolerance must be >= 0, got %v", c.Tolerance)
	}
	return nil
}

// Classify is total: every input, including NaN, yields exactly one Direction.
func (c Classifier) Classify(angle float64, b Bounds) Direction {
	if math.IsNaN(angle) || math.IsInf(angle, 0) {
		return Center
	}
	a := normalize(angle)

	if a < c.ZoneSpan && a > b.Right-c.Tolerance {
		return Right
	}
	if a > 360-c.ZoneSpan && a < b.Left+c.Tolerance {
		return Left
	}
	return Center
}

// Reachable reports, per side, whether any angle in [0,360) would be
// classified as that side with bounds b.
func (c Classifier) Reachable(b Bounds) (right, left bool) {
	right = b.Right-c.Tolerance < c.ZoneSpan
	left = math.Min(b.Left+c.Tolerance, 360) > 360-c.ZoneSpan
	return right, left
}

// Classify uses DefaultClassifier.
func Classify(angle float64, b Bounds) Direction {
	return DefaultClassifier().Classify(angle, b)
}

func normalize(deg float64) float64 {
	a := math.Mod(deg, 360)
	if a < 0 {
		a += 360
	}
	if a >= 360 {
		a = 0
	}
	return a
}
