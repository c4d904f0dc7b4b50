// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides settings loading and persistence for chaty.
//
// Settings live in ~/.chaty/config.toml. Loading is deliberately
// forgiving: every field is sanitized independently, and an entry that is
// missing, malformed, or out of range falls back to its default instead
// of failing the load. A stored endpoint that points at a known
// model-provider host is treated as stale and silently replaced with the
// default local backend.
package config
