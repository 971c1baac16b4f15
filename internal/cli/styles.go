// Copyright (c) 2025 BreathAI
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli implements the interactive terminal frontend.
package cli

import "github.com/charmbracelet/lipgloss"

// Color palette.
var (
	cyan    = lipgloss.Color("86")
	purple  = lipgloss.Color("135")
	emerald = lipgloss.Color("42")
	amber   = lipgloss.Color("214")
	rose    = lipgloss.Color("204")
	dimGray = lipgloss.Color("245")
)

var (
	promptStyle = lipgloss.NewStyle().
			Foreground(cyan).
			Bold(true)

	welcomeStyle = lipgloss.NewStyle().
			Foreground(purple).
			Bold(true)

	infoStyle = lipgloss.NewStyle().
			Foreground(dimGray)

	commandStyle = lipgloss.NewStyle().
			Foreground(emerald)

	warningStyle = lipgloss.NewStyle().
			Foreground(amber)

	errorStyle = lipgloss.NewStyle().
			Foreground(rose).
			Bold(true)

	headerStyle = lipgloss.NewStyle().
			Foreground(cyan).
			Bold(true)
)
