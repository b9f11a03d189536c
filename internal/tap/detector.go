// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package tap detects short acceleration spikes ("taps") on top of a
// slowly moving low-pass baseline.
package tap

import (
	"fmt"
	"math"
	"time"

	"github.com/relabs-tech/tap_controller/internal/motion"
)

// Config holds the detector tuning.
type Config struct {
	// Threshold is the minimum |accel - baseline| that counts as a tap.
	Threshold float64
	// LowPassFactor is the lerp factor applied to the baseline every tick, in (0,1).
	LowPassFactor float64
	// Cooldown is the minimum time between two reported taps.
	Cooldown time.Duration
	// ReferenceInterval is the tick length LowPassFactor was tuned for.
	// When non-zero, the factor is rescaled for the actual dt so the
	// baseline decays at the same real-time rate on any frame rate.
	ReferenceInterval time.Duration
}

// DefaultConfig returns the in-game tuning.
func DefaultConfig() Config {
	return Config{
		Threshold:     0.5,
		LowPassFactor: 0.1,
		Cooldown:      200 * time.Millisecond,
	}
}

// CalibrationConfig returns the more sensitive tuning used while the
// player is calibrating (lighter taps, longer ring-out).
func CalibrationConfig() Config {
	return Config{
		Threshold:     0.1,
		LowPassFactor: 0.2,
		Cooldown:      500 * time.Millisecond,
	}
}

// Validate checks the config is usable.
func (c Config) Validate() error {
	if !(c.Threshold > 0) {
		return fmt.Errorf("tap threshold must be > 0, got %v", c.Threshold)
	}
	if !(c.LowPassFactor > 0 && c.LowPassFactor < 1) {
		return fmt.Errorf("low pass factor must be in (0,1), got %v", c.LowPassFactor)
	}
	if c.Cooldown < 0 {
		return fmt.Errorf("tap cooldown must be >= 0, got %s", c.Cooldown)
	}
	if c.ReferenceInterval < 0 {
		return fmt.Errorf("reference interval must be >= 0, got %s", c.ReferenceInterval)
	}
	return nil
}

// Detector owns the smoothing state. It is not safe for concurrent use;
// it is meant to be driven from the single tick loop.
type Detector struct {
	cfg Config

	smoothed     motion.Vec3
	seeded       bool
	sinceLastTap time.Duration
	fired        bool
}

// NewDetector creates a detector. The caller is expected to have
// validated cfg.
func NewDetector(cfg Config) *Detector {
	return &Detector{cfg: cfg}
}

// Config returns the active tuning.
func (d *Detector) Config() Config {
	return d.cfg
}

// SetConfig swaps the tuning, keeping baseline and cooldown state.
func (d *Detector) SetConfig(cfg Config) {
	d.cfg = cfg
}

// Reset drops the baseline and cooldown state.
func (d *Detector) Reset() {
	d.smoothed = motion.Vec3{}
	d.seeded = false
	d.sinceLastTap = 0
	d.fired = false
}

// Smoothed returns the current baseline.
func (d *Detector) Smoothed() motion.Vec3 {
	return d.smoothed
}

// OnTick feeds one acceleration reading and reports whether a tap fired.
// dt must be the real time elapsed since the previous tick.
// A non-finite reading is handled like Idle so it cannot poison the
// baseline.
func (d *Detector) OnTick(accel motion.Vec3, dt time.Duration) bool {
	if !accel.Finite() {
		d.Idle(dt)
		return false
	}
	if !d.seeded {
		// First reading becomes the baseline, so the gravity/hold
		// component never looks like a spike.
		d.smoothed = accel
		d.seeded = true
	}

	d.smoothed = d.smoothed.Lerp(accel, d.factor(dt))
	delta := accel.Sub(d.smoothed)

	if delta.SqrMagnitude() > d.cfg.Threshold*d.cfg.Threshold && d.cooledDown() {
		d.sinceLastTap = 0
		d.fired = true
		return true
	}

	d.sinceLastTap += dt
	return false
}

// Idle advances the cooldown clock for a tick without a usable sample.
func (d *Detector) Idle(dt time.Duration) {
	d.sinceLastTap += dt
}

func (d *Detector) cooledDown() bool {
	// No tap yet: nothing to cool down from.
	if !d.fired {
		return true
	}
	return d.sinceLastTap > d.cfg.Cooldown
}

func (d *Detector) factor(dt time.Duration) float64 {
	alpha := d.cfg.LowPassFactor
	if d.cfg.ReferenceInterval <= 0 || dt <= 0 {
		return alpha
	}
	ratio := float64(dt) / float64(d.cfg.ReferenceInterval)
	return 1 - math.Pow(1-alpha, ratio)
}
