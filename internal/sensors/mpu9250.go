// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"fmt"
	"log"
	"time"

	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/devices/v3/mpu9250"
	"periph.io/x/host/v3"

	"github.com/relabs-tech/tap_controller/internal/imu"
	"github.com/relabs-tech/tap_controller/internal/motion"
	"github.com/relabs-tech/tap_controller/internal/orientation"
)

type mpuSource struct {
	dev    *mpu9250.MPU9250
	filter *orientation.AttitudeFilter
	last   time.Time
	now    func() time.Time
}

// NewMPU9250Source initializes an MPU9250 over SPI. The device has no
// attitude output of its own, so AttitudeEuler comes from a
// complementary filter over its accel and gyro.
func NewMPU9250Source(spiDev, csPin string, gyroWeight float64) (motion.Source, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("mpu9250: periph host init: %w", err)
	}

	cs := gpioreg.ByName(csPin)
	if cs == nil {
		return nil, fmt.Errorf("mpu9250: CS pin %q not found", csPin)
	}

	tr, err := mpu9250.NewSpiTransport(spiDev, cs)
	if err != nil {
		return nil, fmt.Errorf("mpu9250: SPI transport (%s): %w", spiDev, err)
	}

	dev, err := mpu9250.New(tr)
	if err != nil {
		return nil, fmt.Errorf("mpu9250: device creation: %w", err)
	}

	if err := dev.Init(); err != nil {
		return nil, fmt.Errorf("mpu9250: initialization: %w", err)
	}

	// Hold the device still while this runs.
	if err := dev.Calibrate(); err != nil {
		log.Printf("mpu9250: WARNING: calibration failed: %v", err)
	} else {
		log.Printf("mpu9250: calibration complete")
	}

	return &mpuSource{
		dev:    dev,
		filter: orientation.NewAttitudeFilter(gyroWeight),
		now:    time.Now,
	}, nil
}

func (s *mpuSource) Next() (motion.Sample, error) {
	raw, err := s.readRaw()
	if err != nil {
		return motion.Sample{}, fmt.Errorf("%w: %v", motion.ErrUnavailable, err)
	}

	now := s.now()
	var dt time.Duration
	if !s.last.IsZero() {
		dt = now.Sub(s.last)
	}
	s.last = now

	pose := s.filter.Update(raw.AccelG(), raw.GyroDPS(), dt)
	return motion.Sample{
		LinearAcceleration: raw.AccelMS2(),
		AttitudeEuler:      pose.Euler(),
		Time:               now,
	}, nil
}

// readRaw reads accelerometer and gyroscope registers.
func (s *mpuSource) readRaw() (imu.IMURaw, error) {
	ax, err := s.dev.GetAccelerationX()
	if err != nil {
		return imu.IMURaw{}, fmt.Errorf("accel X: %w", err)
	}
	ay, err := s.dev.GetAccelerationY()
	if err != nil {
		return imu.IMURaw{}, fmt.Errorf("accel Y: %w", err)
	}
	az, err := s.dev.GetAccelerationZ()
	if err != nil {
		return imu.IMURaw{}, fmt.Errorf("accel Z: %w", err)
	}

	gx, err := s.dev.GetRotationX()
	if err != nil {
		return imu.IMURaw{}, fmt.Errorf("gyro X: %w", err)
	}
	gy, err := s.dev.GetRotationY()
	if err != nil {
		return imu.IMURaw{}, fmt.Errorf("gyro Y: %w", err)
	}
	gz, err := s.dev.GetRotationZ()
	if err != nil {
		return imu.IMURaw{}, fmt.Errorf("gyro Z: %w", err)
	}

	return imu.IMURaw{Ax: ax, Ay: ay, Az: az, Gx: gx, Gy: gy, Gz: gz}, nil
}
