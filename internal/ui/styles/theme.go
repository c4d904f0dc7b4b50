// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Theme holds the styled components for the application.
type Theme struct {
	Name   string
	IsDark bool

	// Header
	Title    lipgloss.Style
	Subtitle lipgloss.Style

	// Transcript
	UserLabel      lipgloss.Style
	AssistantLabel lipgloss.Style
	Timestamp      lipgloss.Style
	MessageBody    lipgloss.Style

	// Sources panel
	SourcesHeader lipgloss.Style
	SourceName    lipgloss.Style
	SourceScore   lipgloss.Style
	SourcePreview lipgloss.Style

	// Status bar
	StatusBar   lipgloss.Style
	StatusError lipgloss.Style
	Spinner     lipgloss.Style

	// Input
	InputPrompt lipgloss.Style

	// GlamourStyle is the markdown rendering style name for glamour.
	GlamourStyle string
}

// Dark returns the dark theme.
func Dark() *Theme {
	return &Theme{
		Name:   "dark",
		IsDark: true,

		Title:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86")),
		Subtitle: lipgloss.NewStyle().Foreground(lipgloss.Color("244")),

		UserLabel:      lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212")),
		AssistantLabel: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86")),
		Timestamp:      lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
		MessageBody:    lipgloss.NewStyle().Foreground(lipgloss.Color("252")),

		SourcesHeader: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214")),
		SourceName:    lipgloss.NewStyle().Foreground(lipgloss.Color("152")),
		SourceScore:   lipgloss.NewStyle().Foreground(lipgloss.Color("244")),
		SourcePreview: lipgloss.NewStyle().Foreground(lipgloss.Color("246")).Italic(true),

		StatusBar:   lipgloss.NewStyle().Foreground(lipgloss.Color("244")),
		StatusError: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196")),
		Spinner:     lipgloss.NewStyle().Foreground(lipgloss.Color("86")),

		InputPrompt: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212")),

		GlamourStyle: "dark",
	}
}

// Light returns the light theme.
func Light() *Theme {
	return &Theme{
		Name:   "light",
		IsDark: false,

		Title:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("25")),
		Subtitle: lipgloss.NewStyle().Foreground(lipgloss.Color("241")),

		UserLabel:      lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("161")),
		AssistantLabel: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("25")),
		Timestamp:      lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
		MessageBody:    lipgloss.NewStyle().Foreground(lipgloss.Color("235")),

		SourcesHeader: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("130")),
		SourceName:    lipgloss.NewStyle().Foreground(lipgloss.Color("31")),
		SourceScore:   lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		SourcePreview: lipgloss.NewStyle().Foreground(lipgloss.Color("243")).Italic(true),

		StatusBar:   lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		StatusError: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("124")),
		Spinner:     lipgloss.NewStyle().Foreground(lipgloss.Color("25")),

		InputPrompt: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("161")),

		GlamourStyle: "light",
	}
}

// Resolve maps a theme name from settings to a Theme. "auto" inspects the
// terminal background; unknown names fall back to auto as well.
func Resolve(name string) *Theme {
	switch name {
	case "dark":
		return Dark()
	case "light":
		return Light()
	default:
		if termenv.HasDarkBackground() {
			return Dark()
		}
		return Light()
	}
}
