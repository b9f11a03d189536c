// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
)

func tapctl(t *testing.T, storePath string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{
		"--config", filepath.Join(t.TempDir(), "missing.txt"),
		"--store", storePath,
	}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestBoundsLifecycle(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cal.db")

	out, err := tapctl(t, path, "bounds", "show")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "defaults") || !strings.Contains(out, "0.50") {
		t.Fatalf("show before calibration:\n%s", out)
	}

	if _, err := tapctl(t, path, "bounds", "set", "4", "356"); err != nil {
		t.Fatal(err)
	}
	out, err = tapctl(t, path, "bounds", "show")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "4.00") || !strings.Contains(out, "356.00") || !strings.Contains(out, "calibrated") {
		t.Fatalf("show after set:\n%s", out)
	}

	out, err = tapctl(t, path, "classify", "10", "2", "350", "358")
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	want := []string{"right", "center", "left", "center"}
	for i, w := range want {
		if !strings.HasSuffix(lines[i], w) {
			t.Errorf("line %d %q, want %s", i, lines[i], w)
		}
	}

	if _, err := tapctl(t, path, "bounds", "reset"); err != nil {
		t.Fatal(err)
	}
	out, _ = tapctl(t, path, "bounds", "show")
	if !strings.Contains(out, "defaults") {
		t.Fatalf("show after reset:\n%s", out)
	}
}

func TestSetRejectsBadBounds(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cal.db")
	if _, err := tapctl(t, path, "bounds", "set", "400", "350"); err == nil {
		t.Error("out of range bound accepted")
	}
	if _, err := tapctl(t, path, "bounds", "set", "left", "350"); err == nil {
		t.Error("non-numeric bound accepted")
	}
}
