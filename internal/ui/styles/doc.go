// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package styles provides the visual styling system for the chaty TUI.
//
// A Theme bundles the lipgloss styles used across the interface. The
// "auto" theme picks dark or light based on the terminal background.
package styles
