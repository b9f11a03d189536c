// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package calibration

import (
	"fmt"
	"math"

	"github.com/relabs-tech/tap_controller/internal/direction"
)

// Prompt is one of the fixed user-facing calibration messages.
type Prompt string

const (
	PromptNone      Prompt = ""
	PromptTapRight  Prompt = "tap_right"
	PromptTapLeft   Prompt = "tap_left"
	PromptComplete  Prompt = "complete"
	PromptCancelled Prompt = "cancelled"
)

// Message is the text shown to the player.
func (p Prompt) Message() string {
	switch p {
	case PromptTapRight:
		return fmt.Sprintf("Tap right %d times to calibrate.", TapsPerSide)
	case PromptTapLeft:
		return fmt.Sprintf("Now tap left %d times to calibrate.", TapsPerSide)
	case PromptComplete:
		return "Calibration complete! Press back to play."
	case PromptCancelled:
		return "Calibration cancelled."
	}
	return ""
}

// Progress is the per-tap status line, e.g. "Right taps: 2/3".
func Progress(o Outcome) string {
	side := "Right"
	if o.Side == direction.Left {
		side = "Left"
	}
	if math.IsNaN(o.Angle) || math.IsInf(o.Angle, 0) {
		return fmt.Sprintf("%s tap ignored, no tilt reading.", side)
	}
	if !o.Accepted {
		return fmt.Sprintf("%s tap ignored, wait for the prompt.", side)
	}
	return fmt.Sprintf("%s taps: %d/%d (%.1f°)", side, o.Seen, TapsPerSide, o.Angle)
}
