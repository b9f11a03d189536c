// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package calibration runs the guided "tap right 3 times, then left 3
// times" procedure that learns per-side tilt bounds.
package calibration

import (
	"errors"
	"fmt"
	"log"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/relabs-tech/tap_controller/internal/direction"
	"github.com/relabs-tech/tap_controller/internal/store"
)

// TapsPerSide is the number of accepted taps each phase needs.
const TapsPerSide = 3

// ErrInvalidBounds is set on a Result whose learned bounds are not
// angles in [0,360). Such bounds are never persisted.
var ErrInvalidBounds = errors.New("calibration: learned bounds out of range")

// Phase is the explicit state of a calibration session.
type Phase int

const (
	Idle Phase = iota
	CollectingRight
	CollectingLeft
	Complete
)

func (p Phase) String() string {
	switch p {
	case CollectingRight:
		return "collecting_right"
	case CollectingLeft:
		return "collecting_left"
	case Complete:
		return "complete"
	default:
		return "idle"
	}
}

// Outcome describes what a single tap did to the session.
type Outcome struct {
	// Accepted is true when the tap counted towards a side. The caller
	// uses it to give the player visible feedback (a jump on that side).
	Accepted bool
	Side     direction.Direction
	Angle    float64
	Seen     int // accepted taps on Side so far, after this one

	// Prompt is set when the tap moved the session to a new phase.
	Prompt Prompt
	// Result is set when the tap completed calibration.
	Result *Result
}

// Machine owns one calibration session. Like the detector it is driven
// from the tick loop only.
type Machine struct {
	gateway store.Gateway
	settle  time.Duration
	now     func() time.Time

	phase           Phase
	runID           string
	rightSeen       int
	leftSeen        int
	runningRight    float64
	runningLeft     float64
	rightAngles     []float64
	leftAngles      []float64
	settleRemaining time.Duration
}

// NewMachine creates an idle machine that persists completed runs to g.
// settle is how long left taps are refused after the right phase ends,
// so a ringing or over-eager fourth right tap is not taken as a left one.
func NewMachine(g store.Gateway, settle time.Duration) *Machine {
	return &Machine{
		gateway: g,
		settle:  settle,
		now:     time.Now,
	}
}

func (m *Machine) Phase() Phase { return m.phase }

// Active reports whether taps should be routed to the machine.
func (m *Machine) Active() bool {
	return m.phase == CollectingRight || m.phase == CollectingLeft
}

// RunID identifies the current (or last) session.
func (m *Machine) RunID() string { return m.runID }

// Seen returns accepted tap counts per side.
func (m *Machine) Seen() (right, left int) { return m.rightSeen, m.leftSeen }

// Settling reports whether left taps are still being refused.
func (m *Machine) Settling() bool {
	return m.phase == CollectingLeft && m.settleRemaining > 0
}

// Start (re)starts calibration, discarding any run in progress.
func (m *Machine) Start() Prompt {
	if m.Active() {
		log.Printf("calibration: restarting run %s (right=%d left=%d discarded)", m.runID, m.rightSeen, m.leftSeen)
	}
	m.reset()
	m.runID = uuid.NewString()
	m.phase = CollectingRight
	log.Printf("calibration: run %s started", m.runID)
	return PromptTapRight
}

// Cancel abandons the current run; persisted bounds are left alone.
func (m *Machine) Cancel() Prompt {
	if !m.Active() {
		return PromptNone
	}
	log.Printf("calibration: run %s cancelled", m.runID)
	m.reset()
	return PromptCancelled
}

// Advance drains the side-switch settle window.
func (m *Machine) Advance(dt time.Duration) {
	if m.settleRemaining > 0 {
		m.settleRemaining -= dt
	}
}

// OnTap records one detected tap at the given tilt angle. A NaN or
// infinite angle is refused and leaves the session unchanged.
func (m *Machine) OnTap(angle float64) Outcome {
	if math.IsNaN(angle) || math.IsInf(angle, 0) {
		switch m.phase {
		case CollectingRight:
			return Outcome{Side: direction.Right, Angle: angle, Seen: m.rightSeen}
		case CollectingLeft:
			return Outcome{Side: direction.Left, Angle: angle, Seen: m.leftSeen}
		}
		return Outcome{Angle: angle}
	}

	switch m.phase {
	case CollectingRight:
		if m.rightSeen == 0 || angle < m.runningRight {
			m.runningRight = angle
		}
		m.rightSeen++
		m.rightAngles = append(m.rightAngles, angle)
		out := Outcome{Accepted: true, Side: direction.Right, Angle: angle, Seen: m.rightSeen}

		if m.rightSeen == TapsPerSide {
			m.phase = CollectingLeft
			m.settleRemaining = m.settle
			out.Prompt = PromptTapLeft
		}
		return out

	case CollectingLeft:
		if m.settleRemaining > 0 {
			return Outcome{Side: direction.Left, Angle: angle, Seen: m.leftSeen}
		}
		if m.leftSeen == 0 || angle > m.runningLeft {
			m.runningLeft = angle
		}
		m.leftSeen++
		m.leftAngles = append(m.leftAngles, angle)
		out := Outcome{Accepted: true, Side: direction.Left, Angle: angle, Seen: m.leftSeen}

		if m.leftSeen == TapsPerSide {
			out.Result = m.complete()
			out.Prompt = PromptComplete
		}
		return out
	}

	// Idle or Complete: not calibrating, ignore.
	return Outcome{Angle: angle}
}

func (m *Machine) complete() *Result {
	m.phase = Complete

	res := newResult(m.runID, m.now(),
		direction.Bounds{Right: m.runningRight, Left: m.runningLeft},
		m.rightAngles, m.leftAngles)

	if !res.Bounds.Valid() {
		res.Err = fmt.Errorf("%w: right=%v left=%v", ErrInvalidBounds, res.Bounds.Right, res.Bounds.Left)
		log.Printf("calibration: WARNING: %v, not saved", res.Err)
	} else if err := store.SaveBounds(m.gateway, res.Bounds, res.CompletedAt); err != nil {
		res.Err = fmt.Errorf("calibration: persist bounds: %w", err)
		log.Printf("calibration: WARNING: bounds not saved, defaults will apply after restart: %v", err)
	} else {
		log.Printf("calibration: saved bounds right=%.2f left=%.2f (run %s)", res.Bounds.Right, res.Bounds.Left, m.runID)
	}

	runID := m.runID
	m.reset()
	m.runID = runID
	return res
}

func (m *Machine) reset() {
	m.phase = Idle
	m.rightSeen = 0
	m.leftSeen = 0
	m.runningRight = 0
	m.runningLeft = 0
	m.rightAngles = nil
	m.leftAngles = nil
	m.settleRemaining = 0
}
