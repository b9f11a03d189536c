// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"math"
	"time"

	"github.com/relabs-tech/tap_controller/internal/motion"
)

// MockTilts is the tilt cycle of the mock source: a right tap, a left
// tap, then a tap while held level.
var MockTilts = []float64{15, 345, 0.2}

// MockCalibrationScript is three right taps then three left taps, for
// driving a calibration run before the regular cycle starts.
var MockCalibrationScript = []float64{14, 12, 16, 344, 346, 343}

const mockSpike = 30 * time.Millisecond

type mockSource struct {
	start  time.Time
	period time.Duration
	script []float64
	now    func() time.Time
}

// NewMockSource creates a mock source that holds each tilt for one
// period and taps once in the middle of it. The script tilts are played
// once, then MockTilts repeats. The attitude wobbles slightly and the
// acceleration carries a little noise so the detector baseline has
// something to follow.
func NewMockSource(period time.Duration, script ...float64) motion.Source {
	return &mockSource{start: time.Now(), period: period, script: script, now: time.Now}
}

func (m *mockSource) tilt(step int) float64 {
	if step < len(m.script) {
		return m.script[step]
	}
	return MockTilts[(step-len(m.script))%len(MockTilts)]
}

func (m *mockSource) Next() (motion.Sample, error) {
	now := m.now()
	elapsed := now.Sub(m.start)

	step := int(elapsed / m.period)
	inStep := elapsed % m.period
	tilt := m.tilt(step)

	sec := elapsed.Seconds()
	accel := motion.Vec3{
		X: 0.02 * math.Sin(sec*7),
		Y: 0.02 * math.Cos(sec*5),
		Z: 0.02 * math.Sin(sec*3),
	}
	mid := m.period / 2
	if inStep >= mid && inStep < mid+mockSpike {
		accel.X += 3
	}

	return motion.Sample{
		LinearAcceleration: accel,
		AttitudeEuler: motion.Vec3{
			X: tilt + 0.1*math.Sin(sec),
			Y: 0,
			Z: math.Mod(sec*10, 360),
		},
		Time: now,
	}, nil
}
