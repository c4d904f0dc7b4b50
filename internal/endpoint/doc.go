// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package endpoint validates and normalizes the Chaty backend address.
//
// The validator is pure: it performs no network I/O. Besides the usual
// parse checks it refuses addresses that point straight at a known
// model-inference provider. The client must always talk to the retrieval
// backend - going direct would bypass retrieval, credential handling, and
// cost controls.
package endpoint
