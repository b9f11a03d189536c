// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package motion

import (
	"math"
	"testing"
)

func TestVec3Lerp(t *testing.T) {
	a := Vec3{X: 0, Y: 10, Z: -4}
	b := Vec3{X: 10, Y: 0, Z: 4}

	if got := a.Lerp(b, 0); got != a {
		t.Errorf("lerp 0: got %+v, want %+v", got, a)
	}
	if got := a.Lerp(b, 1); got != b {
		t.Errorf("lerp 1: got %+v, want %+v", got, b)
	}
	got := a.Lerp(b, 0.25)
	want := Vec3{X: 2.5, Y: 7.5, Z: -2}
	if math.Abs(got.X-want.X) > 1e-9 || math.Abs(got.Y-want.Y) > 1e-9 || math.Abs(got.Z-want.Z) > 1e-9 {
		t.Errorf("lerp 0.25: got %+v, want %+v", got, want)
	}
}

func TestVec3SqrMagnitude(t *testing.T) {
	v := Vec3{X: 1, Y: 2, Z: 2}
	if got := v.SqrMagnitude(); got != 9 {
		t.Errorf("got %v, want 9", got)
	}
	if got := v.Sub(v).SqrMagnitude(); got != 0 {
		t.Errorf("self difference: got %v, want 0", got)
	}
}

func TestVec3Finite(t *testing.T) {
	tests := []struct {
		v    Vec3
		want bool
	}{
		{Vec3{X: 1, Y: -2, Z: 3}, true},
		{Vec3{X: math.NaN()}, false},
		{Vec3{Y: math.Inf(1)}, false},
		{Vec3{Z: math.Inf(-1)}, false},
	}
	for _, tt := range tests {
		if got := tt.v.Finite(); got != tt.want {
			t.Errorf("%+v.Finite() = %v, want %v", tt.v, got, tt.want)
		}
	}
}
