// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package orientation

import (
	"math"
	"testing"
	"time"

	"github.com/relabs-tech/tap_controller/internal/motion"
)

func near(a, b float64) bool { return math.Abs(a-b) < 1e-6 }

func TestNormalize(t *testing.T) {
	tests := map[float64]float64{
		0:    0,
		359:  359,
		360:  0,
		725:  5,
		-5:   355,
		-360: 0,
		-721: 359,
	}
	for in, want := range tests {
		if got := Normalize(in); !near(got, want) {
			t.Errorf("Normalize(%v) = %v, want %v", in, got, want)
		}
	}
}

func TestComputePoseFromAccel(t *testing.T) {
	flat := ComputePoseFromAccel(0, 0, 1)
	if !near(flat.Roll, 0) || !near(flat.Pitch, 0) {
		t.Errorf("flat: %+v", flat)
	}
	rolled := ComputePoseFromAccel(0, 1, 1)
	if !near(rolled.Roll, 45) {
		t.Errorf("roll: got %v, want 45", rolled.Roll)
	}
	// Rolled the other way lands just below 360 in Euler form.
	e := ComputePoseFromAccel(0, -0.05, 1).Euler()
	if !(e.X > 350 && e.X < 360) {
		t.Errorf("negative roll euler: got %v", e.X)
	}
}

func TestAttitudeFilterPrimesFromAccel(t *testing.T) {
	f := NewAttitudeFilter(0.98)
	p := f.Update(motion.Vec3{Y: 1, Z: 1}, motion.Vec3{}, 10*time.Millisecond)
	if !near(p.Roll, 45) {
		t.Fatalf("first update should take accel tilt, got %+v", p)
	}
}

func TestAttitudeFilterIntegratesGyro(t *testing.T) {
	f := NewAttitudeFilter(1) // pure gyro after priming
	f.Update(motion.Vec3{Z: 1}, motion.Vec3{}, 0)

	dt := 10 * time.Millisecond
	for i := 0; i < 100; i++ {
		f.Update(motion.Vec3{Z: 1}, motion.Vec3{X: 10, Z: 400}, dt)
	}
	p := f.Pose()
	if !near(p.Roll, 10) {
		t.Errorf("roll after 1s at 10deg/s: %v", p.Roll)
	}
	// 400 deg over 1s wraps into (-180,180].
	if !near(p.Yaw, 40) {
		t.Errorf("yaw wrap: %v", p.Yaw)
	}
}

func TestAttitudeFilterConvergesToAccel(t *testing.T) {
	f := NewAttitudeFilter(0.9)
	f.Update(motion.Vec3{Z: 1}, motion.Vec3{}, 0)
	for i := 0; i < 500; i++ {
		f.Update(motion.Vec3{Y: 1, Z: 1}, motion.Vec3{}, 10*time.Millisecond)
	}
	if !near(f.Pose().Roll, 45) {
		t.Errorf("roll should converge to accel tilt, got %v", f.Pose().Roll)
	}
}

func TestSamplerAxes(t *testing.T) {
	s := motion.Sample{AttitudeEuler: motion.Vec3{X: 5, Y: -10, Z: 370}}
	tests := []struct {
		axis string
		want float64
	}{
		{"x", 5},
		{"Y", 350},
		{"z", 10},
	}
	for _, tt := range tests {
		axis, err := ParseAxis(tt.axis)
		if err != nil {
			t.Fatal(err)
		}
		if got := (Sampler{Axis: axis}).CurrentAngle(s); !near(got, tt.want) {
			t.Errorf("axis %s: got %v, want %v", tt.axis, got, tt.want)
		}
	}
	if _, err := ParseAxis("w"); err == nil {
		t.Error("expected error for unknown axis")
	}
}
