// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/relabs-tech/tap_controller/internal/direction"
	"github.com/relabs-tech/tap_controller/internal/engine"
)

var (
	ColorLeft    = lipgloss.Color("#00AAFF")
	ColorRight   = lipgloss.Color("#FF8800")
	ColorCenter  = lipgloss.Color("#888888")
	ColorPrompt  = lipgloss.Color("#FFCC00")
	ColorOK      = lipgloss.Color("#00CC33")
	ColorWarning = lipgloss.Color("#FF3300")
)

var (
	styleLeft    = lipgloss.NewStyle().Bold(true).Foreground(ColorLeft)
	styleRight   = lipgloss.NewStyle().Bold(true).Foreground(ColorRight)
	styleCenter  = lipgloss.NewStyle().Foreground(ColorCenter)
	stylePrompt  = lipgloss.NewStyle().Bold(true).Foreground(ColorPrompt)
	styleOK      = lipgloss.NewStyle().Bold(true).Foreground(ColorOK)
	styleWarning = lipgloss.NewStyle().Foreground(ColorWarning)
	styleDim     = lipgloss.NewStyle().Faint(true)
)

func directionStyle(d direction.Direction) lipgloss.Style {
	switch d {
	case direction.Left:
		return styleLeft
	case direction.Right:
		return styleRight
	}
	return styleCenter
}

// FormatEvent renders one event as a console line.
func FormatEvent(ev engine.Event) string {
	stamp := styleDim.Render(ev.Time.Format(time.TimeOnly))

	switch ev.Kind {
	case engine.KindDirection:
		d := ev.Dir()
		return fmt.Sprintf("%s [TAP ] %s %s", stamp,
			directionStyle(d).Render(fmt.Sprintf("%-6s", d)),
			styleDim.Render(fmt.Sprintf("%6.1f°", ev.Angle)))

	case engine.KindCalibrationTap:
		msg := directionStyle(ev.Dir()).Render(ev.Message)
		if !ev.Accepted {
			msg = styleDim.Render(ev.Message)
		}
		return fmt.Sprintf("%s [CAL ] %s", stamp, msg)

	case engine.KindCalibrationComplete:
		line := fmt.Sprintf("%s [CAL ] %s", stamp, styleOK.Render(ev.Message))
		if ev.Bounds != nil {
			line += styleDim.Render(fmt.Sprintf("  right>%.2f° left<%.2f°", ev.Bounds.Right, ev.Bounds.Left))
		}
		if ev.Warning != "" {
			line += "\n" + styleWarning.Render("         WARNING: "+ev.Warning)
		}
		return line
	}

	return fmt.Sprintf("%s [CAL ] %s", stamp, stylePrompt.Render(ev.Message))
}
