// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"github.com/jeranaias/chaty-tui/internal/chaty"
	"github.com/jeranaias/chaty-tui/internal/config"
	"github.com/jeranaias/chaty-tui/internal/conversation"
)

// =============================================================================
// MESSAGE TYPES
// =============================================================================

// SnapshotMsg carries a fresh conversation snapshot from the controller's
// change callback into the Bubble Tea loop. Each snapshot is a complete
// state, so dropped intermediates are harmless.
type SnapshotMsg struct {
	Snapshot conversation.Snapshot
}

// HealthMsg reports the result of a backend health probe.
type HealthMsg struct {
	Err error
}

// IngestResultMsg reports the outcome of an /ingest run.
type IngestResultMsg struct {
	Result *chaty.IngestResult
	Err    error
}

// ConfigReloadMsg delivers settings reloaded from disk by the config
// watcher.
type ConfigReloadMsg struct {
	Cfg *config.Config
}
