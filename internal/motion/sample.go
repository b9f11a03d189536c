// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package motion

import (
	"errors"
	"math"
	"time"
)

// ErrUnavailable is returned by a Source that cannot currently supply
// acceleration or attitude (hardware absent, no sample queued, ...).
// The tick loop treats it as "no tap" for that tick.
var ErrUnavailable = errors.New("motion: sensor unavailable")

// Vec3 is a plain 3-vector used for acceleration and Euler angles.
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

func (v Vec3) Add(o Vec3) Vec3 {
	return Vec3{X: v.X + o.X, Y: v.Y + o.Y, Z: v.Z + o.Z}
}

func (v Vec3) Sub(o Vec3) Vec3 {
	return Vec3{X: v.X - o.X, Y: v.Y - o.Y, Z: v.Z - o.Z}
}

func (v Vec3) Scale(k float64) Vec3 {
	return Vec3{X: v.X * k, Y: v.Y * k, Z: v.Z * k}
}

// Lerp moves v towards o by factor t (0 keeps v, 1 returns o).
func (v Vec3) Lerp(o Vec3, t float64) Vec3 {
	return v.Add(o.Sub(v).Scale(t))
}

// SqrMagnitude returns |v|², avoiding the square root on the hot path.
func (v Vec3) SqrMagnitude() float64 {
	return v.X*v.X + v.Y*v.Y + v.Z*v.Z
}

// Finite reports whether no component is NaN or infinite.
func (v Vec3) Finite() bool {
	return finite(v.X) && finite(v.Y) && finite(v.Z)
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// Sample is one reading from the sensor source, delivered once per tick.
type Sample struct {
	LinearAcceleration Vec3      `json:"accel"`
	AttitudeEuler      Vec3      `json:"euler"` // degrees, each in [0,360)
	Time               time.Time `json:"time"`
}

// Source is anything that can provide samples over time:
// mock source, MPU9250, serial microcontroller, MQTT-fed phone, ...
type Source interface {
	Next() (Sample, error)
}
