// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/relabs-tech/tap_controller/internal/engine"
	"github.com/relabs-tech/tap_controller/internal/events"
	"github.com/relabs-tech/tap_controller/internal/sensors"
	"github.com/relabs-tech/tap_controller/internal/store"
)

// RunMockConsole runs the whole pipeline in-process against the mock
// source and an in-memory store, printing every event. With calibrate
// set, a calibration run is started first.
func RunMockConsole(calibrate bool) error {
	var script []float64
	if calibrate {
		script = sensors.MockCalibrationScript
	}
	src := sensors.NewMockSource(1500*time.Millisecond, script...)
	eng := engine.New(engine.DefaultConfig(), store.NewMemory())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	bus := events.NewBus()
	bus.Forward(ctx, "console", func(ev engine.Event) {
		fmt.Println(FormatEvent(ev))
	})

	commands := make(chan string, 1)
	if calibrate {
		commands <- CommandStart
	}

	return newTickLoop(eng, src, bus, commands, 20*time.Millisecond).run(ctx)
}
