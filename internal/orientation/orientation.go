// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package orientation

import (
	"math"
	"time"

	"github.com/relabs-tech/tap_controller/internal/motion"
)

// Pose is roll/pitch/yaw in degrees, signed (-180..180) as computed.
type Pose struct {
	Roll  float64 `json:"roll"`
	Pitch float64 `json:"pitch"`
	Yaw   float64 `json:"yaw"`
}

// Euler maps the pose onto the [0,360) attitude convention used by
// motion.Sample: X=roll, Y=pitch, Z=yaw.
func (p Pose) Euler() motion.Vec3 {
	return motion.Vec3{
		X: Normalize(p.Roll),
		Y: Normalize(p.Pitch),
		Z: Normalize(p.Yaw),
	}
}

// ComputePoseFromAccel computes roll and pitch from accelerometer data only.
// Yaw is 0; there is no magnetometer in the loop.
//
//	roll  = atan2(ay, az)
//	pitch = atan2(-ax, sqrt(ay² + az²))
func ComputePoseFromAccel(ax, ay, az float64) Pose {
	rollRad := math.Atan2(ay, az)
	pitchRad := math.Atan2(-ax, math.Sqrt(ay*ay+az*az))

	return Pose{
		Roll:  rollRad * 180.0 / math.Pi,
		Pitch: pitchRad * 180.0 / math.Pi,
	}
}

// Normalize maps any finite angle in degrees into [0,360).
func Normalize(deg float64) float64 {
	a := math.Mod(deg, 360)
	if a < 0 {
		a += 360
	}
	if a >= 360 {
		a = 0
	}
	return a
}

// AttitudeFilter is a complementary filter: gyro rates are integrated for
// responsiveness and roll/pitch are pulled towards the accelerometer tilt
// to cancel drift. Sources without an attitude sensor of their own
// (MPU9250, serial boards sending raw data) use it to build AttitudeEuler.
type AttitudeFilter struct {
	// GyroWeight is the share given to the integrated gyro estimate, in [0,1].
	GyroWeight float64

	pose   Pose
	primed bool
}

func NewAttitudeFilter(gyroWeight float64) *AttitudeFilter {
	return &AttitudeFilter{GyroWeight: gyroWeight}
}

// Update folds in one accel (any unit) and gyro (deg/s) reading taken dt
// after the previous one and returns the new pose.
func (f *AttitudeFilter) Update(accel, gyroDPS motion.Vec3, dt time.Duration) Pose {
	tilt := ComputePoseFromAccel(accel.X, accel.Y, accel.Z)
	if !f.primed || dt <= 0 {
		f.pose = tilt
		f.primed = true
		return f.pose
	}

	sec := dt.Seconds()
	w := f.GyroWeight
	f.pose = Pose{
		Roll:  w*(f.pose.Roll+gyroDPS.X*sec) + (1-w)*tilt.Roll,
		Pitch: w*(f.pose.Pitch+gyroDPS.Y*sec) + (1-w)*tilt.Pitch,
		Yaw:   wrap180(f.pose.Yaw + gyroDPS.Z*sec),
	}
	return f.pose
}

// Pose returns the last estimate.
func (f *AttitudeFilter) Pose() Pose {
	return f.pose
}

func wrap180(deg float64) float64 {
	a := Normalize(deg)
	if a >= 180 {
		a -= 360
	}
	return a
}
