// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package direction

import (
	"encoding/json"
	"math"
	"testing"
)

func TestClassifyCalibratedBounds(t *testing.T) {
	b := Bounds{Right: 5, Left: 355}
	tests := []struct {
		angle float64
		want  Direction
	}{
		{7, Right},
		{5.0001, Right},
		{5, Center}, // bound itself is not past the bound
		{3, Center},
		{0, Center},
		{89.9, Right},
		{90, Center},
		{180, Center},
		{270, Center},
		{270.1, Left},
		{352, Left},
		{355, Center},
		{357, Center},
		{359.99, Center},
		{367, Right},  // wraps to 7
		{-8, Left},    // wraps to 352
		{-360, Center},
	}
	for _, tt := range tests {
		if got := Classify(tt.angle, b); got != tt.want {
			t.Errorf("Classify(%v) = %s, want %s", tt.angle, got, tt.want)
		}
	}
}

func TestClassifyDefaultBounds(t *testing.T) {
	b := DefaultBounds()
	for _, a := range []float64{0.6, 1, 10, 45} {
		if got := Classify(a, b); got != Right {
			t.Errorf("Classify(%v) with defaults = %s, want right", a, got)
		}
	}
	for _, a := range []float64{359.4, 350, 300} {
		if got := Classify(a, b); got != Left {
			t.Errorf("Classify(%v) with defaults = %s, want left", a, got)
		}
	}
	if got := Classify(0.2, b); got != Center {
		t.Errorf("Classify(0.2) with defaults = %s, want center", got)
	}
}

func TestClassifyTolerance(t *testing.T) {
	c := Classifier{ZoneSpan: 10, Tolerance: 0.1}
	b := Bounds{Right: 5, Left: 355}
	if got := c.Classify(5, b); got != Right {
		t.Errorf("tolerance should admit the right bound itself, got %s", got)
	}
	if got := c.Classify(355, b); got != Left {
		t.Errorf("tolerance should admit the left bound itself, got %s", got)
	}
	if got := c.Classify(12, b); got != Center {
		t.Errorf("outside a 10 degree span must be center, got %s", got)
	}
}

func TestClassifyTotal(t *testing.T) {
	bounds := []Bounds{
		DefaultBounds(),
		{Right: 5, Left: 355},
		{Right: 0, Left: 0},
		{Right: 359, Left: 1},
	}
	for _, b := range bounds {
		for a := 0.0; a < 360; a += 0.25 {
			d := Classify(a, b)
			if d != Left && d != Right && d != Center {
				t.Fatalf("Classify(%v, %+v) returned %d", a, b, d)
			}
			if again := Classify(a, b); again != d {
				t.Fatalf("Classify(%v, %+v) not deterministic: %s then %s", a, b, d, again)
			}
		}
	}
	for _, a := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		if got := Classify(a, DefaultBounds()); got != Center {
			t.Errorf("Classify(%v) = %s, want center", a, got)
		}
	}
}

func TestClassifierValidate(t *testing.T) {
	if err := DefaultClassifier().Validate(); err != nil {
		t.Errorf("default classifier invalid: %v", err)
	}
	if err := (Classifier{ZoneSpan: 200}).Validate(); err == nil {
		t.Error("expected overlapping zones to be rejected")
	}
	if err := (Classifier{ZoneSpan: 90, Tolerance: -1}).Validate(); err == nil {
		t.Error("expected negative tolerance to be rejected")
	}
}

func TestDirectionJSON(t *testing.T) {
	payload, err := json.Marshal(struct {
		D Direction `json:"d"`
	}{Left})
	if err != nil {
		t.Fatal(err)
	}
	if string(payload) != `{"d":"left"}` {
		t.Fatalf("got %s", payload)
	}

	var out struct {
		D Direction `json:"d"`
	}
	if err := json.Unmarshal([]byte(`{"d":"right"}`), &out); err != nil {
		t.Fatal(err)
	}
	if out.D != Right {
		t.Errorf("got %s, want right", out.D)
	}
	if err := json.Unmarshal([]byte(`{"d":"up"}`), &out); err == nil {
		t.Error("expected error for unknown direction")
	}
}

func TestBoundsValid(t *testing.T) {
	if !DefaultBounds().Valid() {
		t.Error("defaults must be valid")
	}
	if (Bounds{Right: 360, Left: 10}).Valid() {
		t.Error("360 is outside [0,360)")
	}
	if (Bounds{Right: math.NaN(), Left: 10}).Valid() {
		t.Error("NaN bound must be invalid")
	}
}

func TestReachable(t *testing.T) {
	c := DefaultClassifier()
	tests := []struct {
		name        string
		b           Bounds
		right, left bool
	}{
		{"calibrated", Bounds{Right: 5, Left: 355}, true, true},
		{"defaults", DefaultBounds(), true, true},
		{"right beyond zone", Bounds{Right: 100, Left: 355}, false, true},
		{"left wrapped past zero", Bounds{Right: 5, Left: 2}, true, false},
		{"both edges", Bounds{Right: 89.9, Left: 270.1}, true, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			right, left := c.Reachable(tt.b)
			if right != tt.right || left != tt.left {
				t.Fatalf("got right=%v left=%v, want %v %v", right, left, tt.right, tt.left)
			}
			// Cross-check against Classify over a 0.05° sweep.
			var sawRight, sawLeft bool
			for a := 0.0; a < 360; a += 0.05 {
				switch c.Classify(a, tt.b) {
				case Right:
					sawRight = true
				case Left:
					sawLeft = true
				}
			}
			if sawRight != right || sawLeft != left {
				t.Fatalf("sweep right=%v left=%v disagrees", sawRight, sawLeft)
			}
		})
	}
}
