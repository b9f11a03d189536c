// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// ./cmd/calibration/main.go
//
// Guided tap calibration in the terminal, without MQTT.
// Prompts for three taps with the board tilted right, then three tilted
// left, and stores the resulting bounds in the calibration store used by
// the tap producer.
//
// Output:
//
//	Writes a JSON file under ./calibration/ with the recorded angles,
//	their spread and the bounds.
//
// Run:
//
//	go run ./cmd/calibration -config tap_config.txt
//
// Notes:
//   - The store is a bbolt file with an exclusive lock; stop tap_producer
//     first or calibrate through the web page instead.
//   - Press ENTER at any time to cancel.
package main

import (
	"bufio"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"

	"github.com/relabs-tech/tap_controller/internal/app"
	"github.com/relabs-tech/tap_controller/internal/calibration"
	"github.com/relabs-tech/tap_controller/internal/config"
	"github.com/relabs-tech/tap_controller/internal/engine"
	"github.com/relabs-tech/tap_controller/internal/motion"
	"github.com/relabs-tech/tap_controller/internal/sensors"
	"github.com/relabs-tech/tap_controller/internal/store"
)

const runTimeout = 2 * time.Minute

func main() {
	in := bufio.NewReader(os.Stdin)

	configPath := flag.String("config", "tap_config.txt", "Path to configuration file")
	outDir := flag.String("out", "calibration", "Directory for the calibration report")
	flag.Parse()

	fmt.Println("=== Guided Tap Calibration ===")
	fmt.Println()

	if err := config.InitGlobal(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: Failed to load config from %s: %v\n", *configPath, err)
		os.Exit(1)
	}
	cfg := config.Get()

	engineCfg, err := cfg.Engine()
	if err != nil {
		fatal(err)
	}

	st, err := store.OpenBolt(cfg.StorePath, false)
	if err != nil {
		if errors.Is(err, bbolt.ErrTimeout) {
			fmt.Fprintln(os.Stderr, "The calibration store is locked. Is tap_producer running?")
			fmt.Fprintln(os.Stderr, "Stop it, or start calibration from the web page instead.")
		}
		fatal(err)
	}
	defer st.Close()

	src, closer, err := sensors.Open(cfg)
	if err != nil {
		fatal(fmt.Errorf("open sensor source %q: %w", cfg.SensorSource, err))
	}
	defer closer.Close()

	eng := engine.New(engineCfg, st)
	b := eng.Bounds()
	if eng.Calibrated() {
		fmt.Printf("Current bounds: right > %.2f°  left < %.2f°\n", b.Right, b.Left)
	} else {
		fmt.Printf("No calibration stored, defaults: right > %.2f°  left < %.2f°\n", b.Right, b.Left)
	}
	fmt.Println()
	fmt.Println("Hold the board the way you play. Tap firmly once per prompt.")
	waitEnter(in, "Press ENTER to start (ENTER again cancels)...")

	res, err := run(in, eng, src, cfg.Interval())
	if err != nil {
		fatal(err)
	}
	if res == nil {
		fmt.Println("\nCalibration cancelled, bounds unchanged.")
		return
	}

	fmt.Println()
	fmt.Printf("Right taps: %v  mean=%.2f° stddev=%.2f°\n", res.RightAngles, res.RightMean, res.RightStdDev)
	fmt.Printf("Left taps:  %v  mean=%.2f° stddev=%.2f°\n", res.LeftAngles, res.LeftMean, res.LeftStdDev)
	if !res.Saved() {
		fmt.Fprintf(os.Stderr, "WARNING: bounds could not be saved: %v\n", res.Err)
	}

	if err := writeResult(*outDir, res); err != nil {
		fatal(err)
	}
	fmt.Println("\nCalibration complete.")
}

// run drives the engine until the calibration completes (returns the
// result), is cancelled with ENTER (returns nil) or times out.
func run(in *bufio.Reader, eng *engine.Engine, src motion.Source, interval time.Duration) (*calibration.Result, error) {
	stopCh := make(chan struct{}, 1)
	go func() {
		_, _ = in.ReadString('\n')
		stopCh <- struct{}{}
	}()

	printEvents(eng.StartCalibration())

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	deadline := time.After(runTimeout)
	last := time.Now()

	for {
		select {
		case <-stopCh:
			printEvents(eng.CancelCalibration())
			return nil, nil
		case <-deadline:
			printEvents(eng.CancelCalibration())
			return nil, fmt.Errorf("no calibration after %s", runTimeout)
		case now := <-ticker.C:
			dt := now.Sub(last)
			last = now

			s, err := src.Next()
			var evs []engine.Event
			if err != nil {
				evs = eng.Skip(dt)
			} else {
				evs = eng.Tick(s, dt)
			}
			printEvents(evs)

			for _, ev := range evs {
				if ev.Kind == engine.KindCalibrationComplete {
					return ev.Result, nil
				}
			}
		}
	}
}

func printEvents(evs []engine.Event) {
	for _, ev := range evs {
		fmt.Println(app.FormatEvent(ev))
	}
}

// ---------- Output ----------

func writeResult(dir string, res *calibration.Result) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	ts := res.CompletedAt.Format("2006-01-02T15-04-05Z07-00")
	name := filepath.Join(dir, fmt.Sprintf("%s_%s_tap_calibration.json", ts, res.RunID[:8]))

	b, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(name, b, 0o644); err != nil {
		return err
	}
	fmt.Printf("\nWrote: %s\n", name)
	return nil
}

// ---------- Console helpers ----------

func waitEnter(in *bufio.Reader, prompt string) {
	fmt.Print(prompt)
	_, _ = in.ReadString('\n')
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
	os.Exit(1)
}
