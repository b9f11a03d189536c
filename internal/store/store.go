// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package store persists learned calibration values behind a small
// key/value capability so the calibration code never touches storage
// mechanics directly.
package store

import (
	"log"
	"time"

	"github.com/relabs-tech/tap_controller/internal/direction"
)

// Persisted keys.
const (
	KeyRightBound   = "right_bound_lower"
	KeyLeftBound    = "left_bound_lower"
	KeyCalibratedAt = "calibrated_at" // unix seconds
)

// Gateway is the key/value capability injected into calibration.
// Set only stages a value; nothing is durable until Flush succeeds.
type Gateway interface {
	Get(key string) (float64, bool)
	Set(key string, value float64)
	Has(key string) bool
	Flush() error
}

// LoadBounds reads calibrated bounds from g. Missing or out-of-range
// values fall back to defaults and ok is false.
func LoadBounds(g Gateway, defaults direction.Bounds) (b direction.Bounds, ok bool) {
	if !g.Has(KeyRightBound) || !g.Has(KeyLeftBound) {
		return defaults, false
	}
	right, _ := g.Get(KeyRightBound)
	left, _ := g.Get(KeyLeftBound)

	b = direction.Bounds{Right: right, Left: left}
	if !b.Valid() {
		log.Printf("store: ignoring invalid persisted bounds right=%v left=%v", right, left)
		return defaults, false
	}
	return b, true
}

// SaveBounds stages the bounds and the completion time, then flushes.
func SaveBounds(g Gateway, b direction.Bounds, at time.Time) error {
	g.Set(KeyRightBound, b.Right)
	g.Set(KeyLeftBound, b.Left)
	g.Set(KeyCalibratedAt, float64(at.Unix()))
	return g.Flush()
}

// CalibratedAt returns when bounds were last saved, if known.
func CalibratedAt(g Gateway) (time.Time, bool) {
	v, ok := g.Get(KeyCalibratedAt)
	if !ok {
		return time.Time{}, false
	}
	return time.Unix(int64(v), 0), true
}
