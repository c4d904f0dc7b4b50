// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package endpoint

import (
	"net/url"
	"strings"
)

// DefaultScheme is assumed when the user types a bare host like
// "localhost:8000".
const DefaultScheme = "http"

// =============================================================================
// ERROR TYPE
// =============================================================================

// ValidationError reports a malformed or disallowed backend address.
// It is raised synchronously, before any network attempt, and is never
// retried automatically.
type ValidationError struct {
	Input   string
	Message string
}

func (e *ValidationError) Error() string {
	return "invalid backend endpoint: " + e.Message
}

// =============================================================================
// PROVIDER DISALLOW-LIST
// =============================================================================

// blockedProviderHosts are hostnames of model-inference providers the
// client must never talk to directly. A match is exact or any subdomain.
var blockedProviderHosts = []string{
	"openai.com",
	"anthropic.com",
	"openrouter.ai",
	"generativelanguage.googleapis.com",
	"mistral.ai",
	"groq.com",
	"cohere.com",
	"together.xyz",
}

// IsBlockedHost reports whether host equals, or is a subdomain of, an
// entry in the provider disallow-list.
func IsBlockedHost(host string) bool {
	host = strings.ToLower(strings.TrimSpace(host))
	if host == "" {
		return false
	}
	for _, blocked := range blockedProviderHosts {
		if matchesHost(host, blocked) {
			return true
		}
	}
	return false
}

// matchesHost checks an exact hostname match or a subdomain match
// (api.openai.com matches the pattern openai.com).
func matchesHost(host, pattern string) bool {
	if host == pattern {
		return true
	}
	return strings.HasSuffix(host, "."+pattern)
}

// =============================================================================
// NORMALIZATION
// =============================================================================

// Normalize parses a user-supplied backend address and returns its
// canonical form: scheme://host[:port] plus any path with trailing
// slashes stripped.
//
// It fails with *ValidationError when the input is empty, cannot be
// parsed as an absolute URL once the default scheme is assumed, or
// resolves to a known model-provider hostname.
func Normalize(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", &ValidationError{Input: raw, Message: "address is empty"}
	}

	if !strings.Contains(trimmed, "://") {
		trimmed = DefaultScheme + "://" + trimmed
	}

	u, err := url.Parse(trimmed)
	if err != nil || u.Host == "" {
		return "", &ValidationError{Input: raw, Message: "address is not a valid URL"}
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", &ValidationError{Input: raw, Message: "scheme must be http or https"}
	}

	if IsBlockedHost(u.Hostname()) {
		return "", &ValidationError{
			Input:   raw,
			Message: "direct model-provider endpoints are not allowed; point at the Chaty backend instead",
		}
	}

	normalized := u.Scheme + "://" + u.Host
	if path := strings.TrimRight(u.Path, "/"); path != "" {
		normalized += path
	}
	return normalized, nil
}
