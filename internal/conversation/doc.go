// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package conversation owns the state of one chat session and drives the
// backend client one turn at a time.
//
// The Controller enforces single-flight semantics: exactly one streaming
// exchange may be outstanding, and sends while busy are silently ignored.
// Stream events are folded into the transcript strictly in arrival order.
// Failures are recorded in the controller's state rather than propagated,
// and any partial answer received before a failure is preserved.
package conversation
