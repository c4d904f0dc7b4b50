// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"math"
	"strings"

	"github.com/jeranaias/chaty-tui/internal/endpoint"
)

// =============================================================================
// DEFAULTS
// =============================================================================

const (
	DefaultEndpoint    = "http://localhost:8000"
	DefaultChatModel   = "gpt-4o-mini"
	DefaultTopK        = 4
	DefaultTemperature = 0.2
	DefaultTheme       = "auto"

	MinTopK        = 1
	MaxTopK        = 20
	MinTemperature = 0.0
	MaxTemperature = 1.0
)

// placeholderModels are stored model ids that mean "no model chosen".
var placeholderModels = map[string]bool{
	"":        true,
	"default": true,
	"unset":   true,
	"none":    true,
}

// =============================================================================
// CONFIG STRUCTURE
// =============================================================================

// Config represents the complete chaty configuration.
type Config struct {
	// Endpoint is the Chaty backend base URL
	Endpoint string `toml:"endpoint"`

	// ChatModel is sent as chat_model; the backend default applies when
	// this is the default value
	ChatModel string `toml:"chat_model"`

	// TopK is the retrieval width, valid range 1-20
	TopK int `toml:"top_k"`

	// Temperature is the sampling temperature, valid range 0.0-1.0
	Temperature float64 `toml:"temperature"`

	// Theme is the UI theme: "dark", "light", "auto"
	Theme string `toml:"theme"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Endpoint:    DefaultEndpoint,
		ChatModel:   DefaultChatModel,
		TopK:        DefaultTopK,
		Temperature: DefaultTemperature,
		Theme:       DefaultTheme,
	}
}

// Clone returns a copy of the configuration.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}

// =============================================================================
// SANITIZATION
// =============================================================================

// Sanitize normalizes every field in place, replacing anything malformed,
// out of range, or unsafe with its default. It never fails: a stored
// config always yields a usable one.
func (c *Config) Sanitize() {
	c.Endpoint = SanitizeEndpoint(c.Endpoint)
	c.ChatModel = SanitizeChatModel(c.ChatModel)
	c.TopK = ClampTopK(float64(c.TopK))
	c.Temperature = ClampTemperature(c.Temperature)
	c.Theme = SanitizeTheme(c.Theme)
}

// SanitizeEndpoint normalizes a stored endpoint. An unparseable value, or
// one pointing at a known model-provider host, is stale or unsafe and
// self-heals to the default local backend without surfacing an error.
func SanitizeEndpoint(raw string) string {
	normalized, err := endpoint.Normalize(raw)
	if err != nil {
		return DefaultEndpoint
	}
	return normalized
}

// SanitizeChatModel replaces empty or placeholder model ids with the
// default.
func SanitizeChatModel(raw string) string {
	model := strings.TrimSpace(raw)
	if placeholderModels[strings.ToLower(model)] {
		return DefaultChatModel
	}
	return model
}

// ClampTopK forces the retrieval width into [1,20]. Non-finite input and
// the zero value (unset) become the default.
func ClampTopK(v float64) int {
	if math.IsNaN(v) || math.IsInf(v, 0) || v == 0 {
		return DefaultTopK
	}
	if v < MinTopK {
		return MinTopK
	}
	if v > MaxTopK {
		return MaxTopK
	}
	return int(v)
}

// ClampTemperature forces the temperature into [0,1]. Non-finite input
// becomes the default; zero is a valid temperature and is kept.
func ClampTemperature(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return DefaultTemperature
	}
	if v < MinTemperature {
		return MinTemperature
	}
	if v > MaxTemperature {
		return MaxTemperature
	}
	return v
}

// SanitizeTheme keeps only the recognized theme names.
func SanitizeTheme(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "dark":
		return "dark"
	case "light":
		return "light"
	default:
		return DefaultTheme
	}
}
