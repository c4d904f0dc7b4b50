// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli implements the chaty command line surface: argument parsing,
// the plain readline chat REPL, and the ingest / status / config
// subcommands. The default command (no arguments) launches the TUI, which
// lives in internal/ui.
package cli
