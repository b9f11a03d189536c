// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package imu

import "github.com/relabs-tech/tap_controller/internal/motion"

// Sensitivity at the power-on ranges (±2g, ±250°/s).
const (
	AccelLSBPerG    = 16384.0
	GyroLSBPerDPS   = 131.0
	StandardGravity = 9.80665 // m/s² per g
)

// IMURaw represents a single raw accel+gyro sample as read from the
// MPU9250 registers.
type IMURaw struct {
	Ax int16 `json:"ax"` // accel
	Ay int16 `json:"ay"`
	Az int16 `json:"az"`

	Gx int16 `json:"gx"` // gyro
	Gy int16 `json:"gy"`
	Gz int16 `json:"gz"`
}

// AccelG returns the acceleration in g.
func (r IMURaw) AccelG() motion.Vec3 {
	return motion.Vec3{
		X: float64(r.Ax) / AccelLSBPerG,
		Y: float64(r.Ay) / AccelLSBPerG,
		Z: float64(r.Az) / AccelLSBPerG,
	}
}

// AccelMS2 returns the acceleration in m/s², the unit tap thresholds
// are tuned in.
func (r IMURaw) AccelMS2() motion.Vec3 {
	return r.AccelG().Scale(StandardGravity)
}

// GyroDPS returns the angular rate in degrees per second.
func (r IMURaw) GyroDPS() motion.Vec3 {
	return motion.Vec3{
		X: float64(r.Gx) / GyroLSBPerDPS,
		Y: float64(r.Gy) / GyroLSBPerDPS,
		Z: float64(r.Gz) / GyroLSBPerDPS,
	}
}
