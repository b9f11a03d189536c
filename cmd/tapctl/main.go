// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"

	"github.com/relabs-tech/tap_controller/internal/config"
	"github.com/relabs-tech/tap_controller/internal/direction"
	"github.com/relabs-tech/tap_controller/internal/engine"
	"github.com/relabs-tech/tap_controller/internal/store"
)

var (
	flagConfig string
	flagStore  string
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "tapctl",
		Short: "Inspect and edit the tap controller calibration store",
		Long: `tapctl reads and writes the calibrated direction bounds kept in the
bbolt calibration store.

The store is locked while tap_producer runs; stop it before using
the set and reset commands.`,
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "./tap_config.txt", "Path to configuration file (defaults apply if missing)")
	rootCmd.PersistentFlags().StringVar(&flagStore, "store", "", "Calibration store path (overrides STORE_PATH)")

	boundsCmd := &cobra.Command{
		Use:   "bounds",
		Short: "Show or change the calibrated bounds",
	}
	boundsCmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Print the bounds the producer will load",
			Args:  cobra.NoArgs,
			RunE:  runShow,
		},
		&cobra.Command{
			Use:   "set RIGHT LEFT",
			Short: "Store bounds by hand, in degrees",
			Args:  cobra.ExactArgs(2),
			RunE:  runSet,
		},
		&cobra.Command{
			Use:   "reset",
			Short: "Forget the calibration so the defaults apply",
			Args:  cobra.NoArgs,
			RunE:  runReset,
		},
	)

	rootCmd.AddCommand(boundsCmd, &cobra.Command{
		Use:   "classify ANGLE...",
		Short: "Classify tilt angles against the stored bounds",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runClassify,
	})
	return rootCmd
}

// settings loads the config file if present, else the defaults.
func settings() (storePath string, ec engine.Config, err error) {
	cfg, err := config.Load(flagConfig)
	if errors.Is(err, fs.ErrNotExist) {
		cfg, err = config.Default(), nil
	}
	if err != nil {
		return "", engine.Config{}, err
	}
	if ec, err = cfg.Engine(); err != nil {
		return "", engine.Config{}, err
	}

	storePath = cfg.StorePath
	if flagStore != "" {
		storePath = flagStore
	}
	storePath, err = homedir.Expand(storePath)
	return storePath, ec, err
}

// readBounds returns the stored bounds, or the defaults when the store
// does not exist yet.
func readBounds(path string, defaults direction.Bounds) (b direction.Bounds, ok bool, at time.Time, err error) {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return defaults, false, time.Time{}, nil
	}
	st, err := store.OpenBolt(path, true)
	if err != nil {
		return defaults, false, time.Time{}, err
	}
	defer st.Close()

	b, ok = store.LoadBounds(st, defaults)
	if ok {
		at, _ = store.CalibratedAt(st)
	}
	return b, ok, at, nil
}

func runShow(cmd *cobra.Command, args []string) error {
	path, ec, err := settings()
	if err != nil {
		return err
	}
	b, ok, at, err := readBounds(path, ec.DefaultBounds)
	if err != nil {
		return err
	}
	printBounds(cmd.OutOrStdout(), path, b, ok, at)
	return nil
}

func printBounds(w io.Writer, path string, b direction.Bounds, ok bool, at time.Time) {
	fmt.Fprintf(w, "store: %s\n", path)
	fmt.Fprintf(w, "right: > %.2f°\n", b.Right)
	fmt.Fprintf(w, "left:  < %.2f°\n", b.Left)
	switch {
	case !ok:
		fmt.Fprintln(w, "source: defaults (not calibrated)")
	case at.IsZero():
		fmt.Fprintln(w, "source: calibrated")
	default:
		fmt.Fprintf(w, "source: calibrated %s (%s)\n", humanize.Time(at), at.Format(time.RFC3339))
	}
}

func parseAngle(s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid angle %q: %w", s, err)
	}
	return v, nil
}

func runSet(cmd *cobra.Command, args []string) error {
	right, err := parseAngle(args[0])
	if err != nil {
		return err
	}
	left, err := parseAngle(args[1])
	if err != nil {
		return err
	}
	b := direction.Bounds{Right: right, Left: left}
	if !b.Valid() {
		return fmt.Errorf("bounds must be in [0,360): right=%v left=%v", right, left)
	}

	path, _, err := settings()
	if err != nil {
		return err
	}
	st, err := store.OpenBolt(path, false)
	if err != nil {
		return err
	}
	defer st.Close()

	now := time.Now()
	if err := store.SaveBounds(st, b, now); err != nil {
		return err
	}
	printBounds(cmd.OutOrStdout(), path, b, true, now)
	return nil
}

func runReset(cmd *cobra.Command, args []string) error {
	path, ec, err := settings()
	if err != nil {
		return err
	}
	st, err := store.OpenBolt(path, false)
	if err != nil {
		return err
	}
	defer st.Close()

	if err := st.ClearBounds(); err != nil {
		return err
	}
	printBounds(cmd.OutOrStdout(), path, ec.DefaultBounds, false, time.Time{})
	return nil
}

func runClassify(cmd *cobra.Command, args []string) error {
	path, ec, err := settings()
	if err != nil {
		return err
	}
	b, _, _, err := readBounds(path, ec.DefaultBounds)
	if err != nil {
		return err
	}
	for _, a := range args {
		angle, err := parseAngle(a)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%8.2f° %s\n", angle, ec.Classifier.Classify(angle, b))
	}
	return nil
}
