// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package engine routes each sensor tick through the tap detector and
// then either into the calibration machine or the direction classifier.
package engine

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/relabs-tech/tap_controller/internal/calibration"
	"github.com/relabs-tech/tap_controller/internal/direction"
	"github.com/relabs-tech/tap_controller/internal/motion"
	"github.com/relabs-tech/tap_controller/internal/orientation"
	"github.com/relabs-tech/tap_controller/internal/store"
	"github.com/relabs-tech/tap_controller/internal/tap"
)

// Config groups the tuning of every stage.
type Config struct {
	Tap            tap.Config
	CalibrationTap tap.Config
	Axis           orientation.Axis
	Classifier     direction.Classifier
	DefaultBounds  direction.Bounds
	Settle         time.Duration
}

// DefaultConfig returns the in-game defaults.
func DefaultConfig() Config {
	return Config{
		Tap:            tap.DefaultConfig(),
		CalibrationTap: tap.CalibrationConfig(),
		Axis:           orientation.AxisX,
		Classifier:     direction.DefaultClassifier(),
		DefaultBounds:  direction.DefaultBounds(),
		Settle:         800 * time.Millisecond,
	}
}

// Validate checks every stage config.
func (c Config) Validate() error {
	if err := c.Tap.Validate(); err != nil {
		return fmt.Errorf("play tap config: %w", err)
	}
	if err := c.CalibrationTap.Validate(); err != nil {
		return fmt.Errorf("calibration tap config: %w", err)
	}
	if err := c.Classifier.Validate(); err != nil {
		return err
	}
	if !c.DefaultBounds.Valid() {
		return fmt.Errorf("default bounds out of range: %+v", c.DefaultBounds)
	}
	if c.Settle < 0 {
		return fmt.Errorf("settle window must be >= 0, got %s", c.Settle)
	}
	// The detector cannot fire again within its cooldown, so a shorter
	// window would expire before it could refuse anything.
	if c.Settle > 0 && c.Settle <= c.CalibrationTap.Cooldown {
		return fmt.Errorf("settle window %s must be longer than the calibration tap cooldown %s",
			c.Settle, c.CalibrationTap.Cooldown)
	}
	return nil
}

// Engine is driven from one goroutine (the tick loop); nothing here is
// safe for concurrent use.
type Engine struct {
	cfg        Config
	gateway    store.Gateway
	detector   *tap.Detector
	sampler    orientation.Sampler
	classifier direction.Classifier
	machine    *calibration.Machine

	bounds     direction.Bounds
	calibrated bool
	now        func() time.Time
}

// New builds an engine and loads the persisted bounds from g.
func New(cfg Config, g store.Gateway) *Engine {
	b, ok := store.LoadBounds(g, cfg.DefaultBounds)
	if ok {
		log.Printf("engine: loaded bounds right=%.2f left=%.2f", b.Right, b.Left)
	} else {
		log.Printf("engine: no calibration stored, using defaults right=%.2f left=%.2f", b.Right, b.Left)
	}

	return &Engine{
		cfg:        cfg,
		gateway:    g,
		detector:   tap.NewDetector(cfg.Tap),
		sampler:    orientation.Sampler{Axis: cfg.Axis},
		classifier: cfg.Classifier,
		machine:    calibration.NewMachine(g, cfg.Settle),
		bounds:     b,
		calibrated: ok,
		now:        time.Now,
	}
}

// Bounds returns the bounds currently used for classification.
func (e *Engine) Bounds() direction.Bounds { return e.bounds }

// Calibrated reports whether Bounds came from a calibration run rather
// than the defaults.
func (e *Engine) Calibrated() bool { return e.calibrated }

// Calibrating reports whether taps are being routed to calibration.
func (e *Engine) Calibrating() bool { return e.machine.Active() }

// Phase exposes the calibration phase for status displays.
func (e *Engine) Phase() calibration.Phase { return e.machine.Phase() }

// Tick processes one sample taken dt after the previous one.
// A sample with non-finite acceleration counts as a Skip.
func (e *Engine) Tick(s motion.Sample, dt time.Duration) []Event {
	if !s.LinearAcceleration.Finite() {
		return e.Skip(dt)
	}
	e.machine.Advance(dt)

	if !e.detector.OnTick(s.LinearAcceleration, dt) {
		return nil
	}

	at := s.Time
	if at.IsZero() {
		at = e.now()
	}
	angle := e.sampler.CurrentAngle(s)

	if e.machine.Active() {
		return e.calibrationTap(angle, at)
	}

	d := e.classifier.Classify(angle, e.bounds)
	return []Event{{
		Kind:      KindDirection,
		Time:      at,
		Direction: d.String(),
		Angle:     angle,
	}}
}

// Skip is called on ticks where the source had nothing to give. No tap
// can fire; only the clocks advance.
func (e *Engine) Skip(dt time.Duration) []Event {
	e.machine.Advance(dt)
	e.detector.Idle(dt)
	return nil
}

// StartCalibration begins (or restarts) a calibration run.
func (e *Engine) StartCalibration() []Event {
	p := e.machine.Start()
	e.detector.SetConfig(e.cfg.CalibrationTap)
	return []Event{e.promptEvent(p, e.now())}
}

// CancelCalibration abandons a running calibration. It is a no-op when
// none is running.
func (e *Engine) CancelCalibration() []Event {
	p := e.machine.Cancel()
	if p == calibration.PromptNone {
		return nil
	}
	e.detector.SetConfig(e.cfg.Tap)
	return []Event{e.promptEvent(p, e.now())}
}

func (e *Engine) calibrationTap(angle float64, at time.Time) []Event {
	out := e.machine.OnTap(angle)

	events := []Event{{
		Kind:     KindCalibrationTap,
		Time:     at,
		Side:     out.Side.String(),
		Accepted: out.Accepted,
		Seen:     out.Seen,
		Angle:    angle,
		Message:  calibration.Progress(out),
		RunID:    e.machine.RunID(),
	}}

	switch {
	case out.Result != nil:
		events = append(events, e.finish(out.Result, at))
	case out.Prompt != calibration.PromptNone:
		events = append(events, e.promptEvent(out.Prompt, at))
	}
	return events
}

func (e *Engine) finish(res *calibration.Result, at time.Time) Event {
	e.detector.SetConfig(e.cfg.Tap)

	// Valid bounds apply for this session whether or not they were saved.
	adopted := !errors.Is(res.Err, calibration.ErrInvalidBounds)
	if adopted {
		e.bounds = res.Bounds
		e.calibrated = true

		right, left := e.classifier.Reachable(res.Bounds)
		if !right {
			res.Warnings = append(res.Warnings, fmt.Sprintf(
				"right bound %.2f° is outside the right zone (< %.0f°), right taps cannot be detected",
				res.Bounds.Right, e.classifier.ZoneSpan))
		}
		if !left {
			res.Warnings = append(res.Warnings, fmt.Sprintf(
				"left bound %.2f° is outside the left zone (> %.0f°), left taps cannot be detected",
				res.Bounds.Left, 360-e.classifier.ZoneSpan))
		}
		for _, w := range res.Warnings {
			log.Printf("engine: WARNING: %s", w)
		}
	}

	ev := Event{
		Kind:    KindCalibrationComplete,
		Time:    at,
		Prompt:  calibration.PromptComplete,
		Message: calibration.PromptComplete.Message(),
		Result:  res,
		RunID:   res.RunID,
	}
	if adopted {
		b := res.Bounds
		ev.Bounds = &b
	}
	warnings := res.Warnings
	if res.Err != nil {
		warnings = append([]string{res.Err.Error()}, warnings...)
	}
	ev.Warning = strings.Join(warnings, "; ")
	return ev
}

func (e *Engine) promptEvent(p calibration.Prompt, at time.Time) Event {
	return Event{
		Kind:    KindPrompt,
		Time:    at,
		Prompt:  p,
		Message: p.Message(),
		RunID:   e.machine.RunID(),
	}
}
