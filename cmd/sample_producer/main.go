// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package main

import (
	"flag"
	"log"

	"github.com/relabs-tech/tap_controller/internal/app"
	"github.com/relabs-tech/tap_controller/internal/config"
)

func main() {
	configPath := flag.String("config", "./tap_config.txt", "path to configuration file")
	calibrate := flag.Bool("calibrate", false, "tilt through the calibration script instead of the play cycle")
	flag.Parse()

	log.Println("starting tap-controller MQTT sample producer (mock)")

	if err := config.InitGlobal(*configPath); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	if err := app.RunSampleProducer(*calibrate); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}
