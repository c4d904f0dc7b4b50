// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the interactive chat view for the chaty TUI.
//
// The view is a Bubble Tea model wrapping a conversation.Controller.
// Turns run in a goroutine; the controller's change callback feeds
// snapshots into the Bubble Tea loop through a channel, so the view only
// ever renders consistent conversation state.
package chat
