// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package calibration

import (
	"time"

	"github.com/montanaflynn/stats"

	"github.com/relabs-tech/tap_controller/internal/direction"
)

// Result is produced once per completed run.
type Result struct {
	RunID       string           `json:"run_id"`
	CompletedAt time.Time        `json:"completed_at"`
	Bounds      direction.Bounds `json:"bounds"`

	RightAngles []float64 `json:"right_angles"`
	LeftAngles  []float64 `json:"left_angles"`

	// Spread of the recorded taps, a rough quality signal: a large
	// stddev means the player tapped with inconsistent tilt.
	RightMean   float64 `json:"right_mean"`
	RightStdDev float64 `json:"right_stddev"`
	LeftMean    float64 `json:"left_mean"`
	LeftStdDev  float64 `json:"left_stddev"`

	// Warnings flag bounds that were learned but leave a side impossible
	// to classify, e.g. right taps beyond the right zone.
	Warnings []string `json:"warnings,omitempty"`

	// Err is non-nil when the bounds could not be persisted. The bounds
	// remain valid for the running session.
	Err error `json:"-"`
}

func newResult(runID string, at time.Time, b direction.Bounds, right, left []float64) *Result {
	r := &Result{
		RunID:       runID,
		CompletedAt: at,
		Bounds:      b,
		RightAngles: append([]float64(nil), right...),
		LeftAngles:  append([]float64(nil), left...),
	}
	r.RightMean, r.RightStdDev = spread(r.RightAngles)
	r.LeftMean, r.LeftStdDev = spread(r.LeftAngles)
	return r
}

func spread(angles []float64) (mean, stddev float64) {
	data := stats.Float64Data(angles)
	mean, err := stats.Mean(data)
	if err != nil {
		return 0, 0
	}
	stddev, err = stats.StandardDeviation(data)
	if err != nil {
		return mean, 0
	}
	return mean, stddev
}

// Saved reports whether the bounds were durably written.
func (r *Result) Saved() bool {
	return r.Err == nil
}
