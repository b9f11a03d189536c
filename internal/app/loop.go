// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"log"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/relabs-tech/tap_controller/internal/engine"
	"github.com/relabs-tech/tap_controller/internal/events"
	"github.com/relabs-tech/tap_controller/internal/motion"
)

// Calibration commands accepted on the command topic and the websocket.
const (
	CommandStart  = "start"
	CommandCancel = "cancel"
)

// statsEvery is how many ticks pass between two loop status log lines.
const statsEvery = 3000

// tickLoop owns the engine. Commands arrive on a channel so MQTT and
// websocket callbacks never touch engine state directly.
type tickLoop struct {
	engine   *engine.Engine
	source   motion.Source
	bus      *events.Bus
	commands <-chan string
	interval time.Duration

	lastTickTime time.Time
	ticks        uint64
	unavailable  uint64
	lastErr      string
}

func newTickLoop(e *engine.Engine, src motion.Source, bus *events.Bus, commands <-chan string, interval time.Duration) *tickLoop {
	return &tickLoop{
		engine:   e,
		source:   src,
		bus:      bus,
		commands: commands,
		interval: interval,
	}
}

// run ticks until ctx is done.
func (l *tickLoop) run(ctx context.Context) error {
	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Printf("loop: stopping after %s ticks", humanize.Comma(int64(l.ticks)))
			return nil
		case t := <-ticker.C:
			l.step(t)
		}
	}
}

// step handles pending commands, then one sample.
func (l *tickLoop) step(t time.Time) {
	l.drainCommands()

	sample, err := l.source.Next()

	at := t
	if err == nil && !sample.Time.IsZero() {
		at = sample.Time
	}
	var dt time.Duration
	if l.lastTickTime.IsZero() {
		dt = l.interval // first iteration, assume one interval
	} else {
		dt = at.Sub(l.lastTickTime)
	}
	if dt < 0 {
		dt = 0
	}
	l.lastTickTime = at
	l.ticks++

	if err != nil {
		l.unavailable++
		// A bare ErrUnavailable is an empty queue, expected between
		// samples. Anything else is logged once per distinct message.
		if err != motion.ErrUnavailable && err.Error() != l.lastErr {
			log.Printf("loop: sensor unavailable: %v", err)
			l.lastErr = err.Error()
		}
		l.publish(l.engine.Skip(dt))
	} else {
		l.lastErr = ""
		l.publish(l.engine.Tick(sample, dt))
	}

	if l.ticks%statsEvery == 0 {
		log.Printf("loop: %s ticks, %s without a sample, bounds right=%.2f left=%.2f",
			humanize.Comma(int64(l.ticks)), humanize.Comma(int64(l.unavailable)),
			l.engine.Bounds().Right, l.engine.Bounds().Left)
	}
}

func (l *tickLoop) drainCommands() {
	for {
		select {
		case cmd := <-l.commands:
			l.publish(l.apply(cmd))
		default:
			return
		}
	}
}

func (l *tickLoop) apply(cmd string) []engine.Event {
	switch cmd {
	case CommandStart:
		log.Printf("loop: calibration start requested")
		return l.engine.StartCalibration()
	case CommandCancel:
		log.Printf("loop: calibration cancel requested")
		return l.engine.CancelCalibration()
	}
	log.Printf("loop: ignoring unknown command %q", cmd)
	return nil
}

func (l *tickLoop) publish(evs []engine.Event) {
	if len(evs) > 0 {
		l.bus.Publish(evs...)
	}
}
