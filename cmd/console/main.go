// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package main

import (
	"flag"
	"log"

	"github.com/relabs-tech/tap_controller/internal/app"
)

func main() {
	calibrate := flag.Bool("calibrate", false, "start a calibration run against the scripted mock taps")
	flag.Parse()

	log.Println("starting tap-controller (mock console)")

	if err := app.RunMockConsole(*calibrate); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}
