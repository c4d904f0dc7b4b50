// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/BurntSushi/toml"

	"github.com/jeranaias/chaty-tui/internal/util"
)

// =============================================================================
// STORE INTERFACE
// =============================================================================

// Store persists settings. Implementations must sanitize on load so the
// rest of the program only ever sees valid configuration.
type Store interface {
	// Load reads the stored settings, falling back to defaults for
	// anything missing or malformed.
	Load() (*Config, error)

	// Save persists the settings, sanitizing first.
	Save(cfg *Config) error

	// Path describes where the settings live, for status displays.
	Path() string
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the chaty configuration directory path.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".chaty"), nil
}

// ConfigPath returns the path to the TOML config file.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// =============================================================================
// FILE STORE
// =============================================================================

// FileStore persists settings as TOML on disk.
type FileStore struct {
	path string
}

// NewFileStore creates a store at the default location
// (~/.chaty/config.toml).
func NewFileStore() (*FileStore, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}
	return &FileStore{path: path}, nil
}

// NewFileStoreAt creates a store at an explicit path.
func NewFileStoreAt(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the config file location.
func (s *FileStore) Path() string {
	return s.path
}

// Load reads and sanitizes the stored settings. A missing file, an
// unparseable file, or any individual entry that fails to decode yields
// defaults for the affected fields rather than an error.
func (s *FileStore) Load() (*Config, error) {
	cfg := Default()

	// Each key decodes independently so one malformed entry does not
	// discard the rest of the file.
	var raw map[string]toml.Primitive
	md, err := toml.DecodeFile(s.path, &raw)
	if err != nil {
		return cfg, nil
	}

	if p, ok := raw["endpoint"]; ok {
		var v string
		if md.PrimitiveDecode(p, &v) == nil {
			cfg.Endpoint = v
		}
	}
	if p, ok := raw["chat_model"]; ok {
		var v string
		if md.PrimitiveDecode(p, &v) == nil {
			cfg.ChatModel = v
		}
	}
	if p, ok := raw["theme"]; ok {
		var v string
		if md.PrimitiveDecode(p, &v) == nil {
			cfg.Theme = v
		}
	}
	// Numeric knobs decode as floats so TOML nan/inf literals reach the
	// clamp instead of failing the decode.
	if p, ok := raw["top_k"]; ok {
		var v float64
		if md.PrimitiveDecode(p, &v) == nil {
			cfg.TopK = ClampTopK(v)
		}
	}
	if p, ok := raw["temperature"]; ok {
		var v float64
		if md.PrimitiveDecode(p, &v) == nil {
			cfg.Temperature = ClampTemperature(v)
		}
	}

	cfg.Sanitize()
	return cfg, nil
}

// Save sanitizes and persists the settings with 0600 permissions. The
// write is atomic so a crash mid-save cannot leave a truncated file.
func (s *FileStore) Save(cfg *Config) error {
	clean := cfg.Clone()
	clean.Sanitize()

	var buf bytes.Buffer
	fmt.Fprintln(&buf, "# chaty configuration file")
	fmt.Fprintln(&buf, "# Generated by chaty - edit with care")
	fmt.Fprintln(&buf, "")

	if err := toml.NewEncoder(&buf).Encode(clean); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if err := util.AtomicWriteFile(s.path, buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// =============================================================================
// MEMORY STORE
// =============================================================================

// MemoryStore keeps settings in memory. Used by tests and as a fallback
// when the home directory is unavailable.
type MemoryStore struct {
	mu  sync.Mutex
	cfg *Config
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Path identifies the store in status displays.
func (s *MemoryStore) Path() string {
	return "(in-memory)"
}

// Load returns the stored settings, sanitized, or defaults when nothing
// has been saved.
func (s *MemoryStore) Load() (*Config, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cfg == nil {
		return Default(), nil
	}
	cfg := s.cfg.Clone()
	cfg.Sanitize()
	return cfg, nil
}

// Save stores a sanitized copy.
func (s *MemoryStore) Save(cfg *Config) error {
	clean := cfg.Clone()
	clean.Sanitize()

	s.mu.Lock()
	s.cfg = clean
	s.mu.Unlock()
	return nil
}
