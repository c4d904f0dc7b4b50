// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chaty provides the HTTP client for communicating with the Chaty
// retrieval backend.
//
// The backend exposes three operations: a health probe, a document ingest
// trigger, and a streaming chat endpoint. Chat responses arrive as
// Server-Sent Events carrying answer tokens, the retrieval sources used,
// and a terminal done marker.
package chaty
