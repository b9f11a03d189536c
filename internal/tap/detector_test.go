// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package tap

import (
	"math"
	"testing"
	"time"

	"github.com/relabs-tech/tap_controller/internal/motion"
)

const tick = 16 * time.Millisecond

var gravity = motion.Vec3{X: 0, Y: 0, Z: -1}

func TestDetectorSteadySignalNeverFires(t *testing.T) {
	d := NewDetector(DefaultConfig())
	for i := 0; i < 10; i++ {
		if d.OnTick(gravity, tick) {
			t.Fatalf("tick %d: unexpected tap on a steady signal", i)
		}
	}
}

func TestDetectorSingleSpike(t *testing.T) {
	cfg := DefaultConfig()
	d := NewDetector(cfg)

	spike := gravity.Add(motion.Vec3{X: 2 * cfg.Threshold})
	var taps []int
	for i := 0; i < 30; i++ {
		accel := gravity
		if i == 5 {
			accel = spike
		}
		if d.OnTick(accel, tick) {
			taps = append(taps, i)
		}
	}

	if len(taps) != 1 || taps[0] != 5 {
		t.Fatalf("got taps at %v, want exactly one at tick 5", taps)
	}
}

func TestDetectorBelowThresholdNeverFires(t *testing.T) {
	cfg := DefaultConfig()
	d := NewDetector(cfg)

	// Peak-to-peak 0.4 around gravity: the deviation from the running
	// mean can never exceed 0.4 < threshold.
	for i := 0; i < 2000; i++ {
		wobble := 0.2 * math.Sin(float64(i)*0.7)
		accel := gravity.Add(motion.Vec3{X: wobble, Y: -wobble / 2})
		if d.OnTick(accel, tick) {
			t.Fatalf("tick %d: tap fired on a sub-threshold signal", i)
		}
	}
}

func TestDetectorCooldownSpacing(t *testing.T) {
	cfg := DefaultConfig()
	d := NewDetector(cfg)

	var (
		now     time.Duration
		lastTap = time.Duration(-1)
		count   int
	)
	for i := 0; i < 500; i++ {
		now += tick
		// Violent alternating signal: every tick exceeds the threshold.
		sign := 1.0
		if i%2 == 1 {
			sign = -1.0
		}
		accel := gravity.Add(motion.Vec3{X: 5 * sign, Y: 3 * sign})
		if d.OnTick(accel, tick) {
			if lastTap >= 0 && now-lastTap < cfg.Cooldown {
				t.Fatalf("taps %s apart, cooldown is %s", now-lastTap, cfg.Cooldown)
			}
			lastTap = now
			count++
		}
	}
	if count < 2 {
		t.Fatalf("expected repeated taps on a violent signal, got %d", count)
	}
}

func TestDetectorIdleAdvancesCooldown(t *testing.T) {
	cfg := DefaultConfig()
	d := NewDetector(cfg)

	d.OnTick(gravity, tick)
	if !d.OnTick(gravity.Add(motion.Vec3{Y: 3}), tick) {
		t.Fatal("expected first spike to fire")
	}
	// Settle the baseline back without firing (still cooling down).
	for i := 0; i < 5; i++ {
		d.OnTick(gravity, tick)
	}
	// Sensor drops out for longer than the cooldown.
	d.Idle(cfg.Cooldown + tick)

	if !d.OnTick(gravity.Add(motion.Vec3{Y: -3}), tick) {
		t.Fatal("expected spike after idle period to fire")
	}
}

func TestDetectorFrameRateCompensation(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ReferenceInterval = tick
	d := NewDetector(cfg)

	if got := d.factor(tick); math.Abs(got-cfg.LowPassFactor) > 1e-12 {
		t.Errorf("factor at reference dt: got %v, want %v", got, cfg.LowPassFactor)
	}
	want := 1 - (1-cfg.LowPassFactor)*(1-cfg.LowPassFactor)
	if got := d.factor(2 * tick); math.Abs(got-want) > 1e-12 {
		t.Errorf("factor at 2x dt: got %v, want %v", got, want)
	}

	cfg.ReferenceInterval = 0
	d.SetConfig(cfg)
	if got := d.factor(5 * tick); got != cfg.LowPassFactor {
		t.Errorf("uncompensated factor: got %v, want %v", got, cfg.LowPassFactor)
	}
}

func TestDetectorReset(t *testing.T) {
	d := NewDetector(DefaultConfig())
	d.OnTick(motion.Vec3{X: 1, Y: 2, Z: 3}, tick)
	d.Reset()
	if d.Smoothed() != (motion.Vec3{}) {
		t.Errorf("baseline not cleared: %+v", d.Smoothed())
	}
	// After reset the next reading seeds the baseline again.
	if d.OnTick(motion.Vec3{X: 40}, tick) {
		t.Error("first reading after reset must not fire")
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"default", func(*Config) {}, false},
		{"zero threshold", func(c *Config) { c.Threshold = 0 }, true},
		{"alpha one", func(c *Config) { c.LowPassFactor = 1 }, true},
		{"alpha zero", func(c *Config) { c.LowPassFactor = 0 }, true},
		{"negative cooldown", func(c *Config) { c.Cooldown = -time.Second }, true},
		{"nan threshold", func(c *Config) { c.Threshold = math.NaN() }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
	if err := CalibrationConfig().Validate(); err != nil {
		t.Errorf("calibration config invalid: %v", err)
	}
}

func TestDetectorSurvivesNonFiniteReading(t *testing.T) {
	d := NewDetector(DefaultConfig())
	d.OnTick(gravity, tick)

	for _, bad := range []motion.Vec3{
		{X: math.NaN()},
		{Y: math.Inf(1)},
		{Z: math.Inf(-1)},
	} {
		if d.OnTick(bad, tick) {
			t.Fatalf("non-finite reading %+v fired", bad)
		}
	}
	if !d.Smoothed().Finite() {
		t.Fatalf("baseline poisoned: %+v", d.Smoothed())
	}

	spike := gravity.Add(motion.Vec3{X: 5})
	if !d.OnTick(spike, tick) {
		t.Fatal("spike after non-finite readings did not fire")
	}
}
