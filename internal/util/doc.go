// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small shared helpers for the chaty client.
//
// It contains the atomic file writer used by the settings store and a few
// string/number formatting helpers shared by the CLI and TUI front ends.
package util
