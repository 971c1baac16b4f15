// Copyright (c) 2025 BreathAI
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides settings loading and management for breath.
//
// Settings come from ~/.breath/config.toml with built-in defaults and
// environment variable overrides applied last:
//   - BREATH_API_KEY overrides the API key
//   - BREATH_API_ENDPOINT overrides the gateway endpoint
package config

import (
	"bytes"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/breathai/breath/internal/util"
)

// =============================================================================
// SETTINGS STRUCTURE
// =============================================================================

// Settings holds all user-tunable configuration.
type Settings struct {
	// Gateway access
	APIKey      string `toml:"api_key" json:"api_key"`
	APIEndpoint string `toml:"api_endpoint" json:"api_endpoint"`

	// Generation parameters
	Temperature  float64 `toml:"temperature" json:"temperature"`
	MaxTokens    int     `toml:"max_tokens" json:"max_tokens"`
	SystemPrompt string  `toml:"system_prompt" json:"system_prompt"`

	// Behavior
	AutoSave bool `toml:"auto_save" json:"auto_save"`

	// Display preferences. The terminal frontend honors what it can;
	// the rest are kept so they survive round-trips with other clients.
	ShowTimestamps           bool `toml:"show_timestamps" json:"show_timestamps"`
	EnableMarkdown           bool `toml:"enable_markdown" json:"enable_markdown"`
	EnableSyntaxHighlighting bool `toml:"enable_syntax_highlighting" json:"enable_syntax_highlighting"`
	EnableMathRendering      bool `toml:"enable_math_rendering" json:"enable_math_rendering"`
}

// Default returns the built-in settings.
func Default() *Settings {
	return &Settings{
		APIKey:                   "",
		APIEndpoint:              "https://chat.breathai.top/api",
		Temperature:              0.7,
		MaxTokens:                4096,
		SystemPrompt:             "You are a helpful AI assistant.",
		AutoSave:                 true,
		ShowTimestamps:           true,
		EnableMarkdown:           true,
		EnableSyntaxHighlighting: true,
		EnableMathRendering:      true,
	}
}

// =============================================================================
// PATHS
// =============================================================================

// Dir returns the breath configuration directory.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, ".breath"), nil
}

// Path returns the settings file location.
func Path() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// ensureSecurePermissions tightens the settings file to 0600. The
// file carries the API key.
func ensureSecurePermissions(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if mode := info.Mode().Perm(); mode != 0o600 {
		if err := os.Chmod(path, 0o600); err != nil {
			return fmt.Errorf("fix insecure permissions (was %o): %w", mode, err)
		}
	}
	return nil
}

// =============================================================================
// LOAD
// =============================================================================

// Load reads settings from the default location. A missing file is
// not an error: defaults plus environment overrides come back.
func Load() (*Settings, error) {
	path, err := Path()
	if err != nil {
		return nil, err
	}
	return LoadFromPath(path)
}

// LoadFromPath reads settings from a specific file.
func LoadFromPath(path string) (*Settings, error) {
	s := Default()

	if _, err := os.Stat(path); err == nil {
		if err := ensureSecurePermissions(path); err != nil {
			fmt.Fprintf(os.Stderr, "warning: could not secure %s: %v\n", path, err)
		}
		if _, err := toml.DecodeFile(path, s); err != nil {
			return nil, fmt.Errorf("decode %s: %w", path, err)
		}
	}

	s.ApplyEnvOverrides()
	s.fillDefaults()
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("invalid settings: %w", err)
	}
	return s, nil
}

// ApplyEnvOverrides applies environment variables on top of the
// loaded values. The environment wins over the file.
func (s *Settings) ApplyEnvOverrides() {
	if v := os.Getenv("BREATH_API_KEY"); v != "" {
		s.APIKey = strings.TrimSpace(v)
	}
	if v := os.Getenv("BREATH_API_ENDPOINT"); v != "" {
		s.APIEndpoint = strings.TrimSpace(v)
	}
}

// fillDefaults fills any zero values that have non-zero defaults.
func (s *Settings) fillDefaults() {
	defaults := Default()
	if s.APIEndpoint == "" {
		s.APIEndpoint = defaults.APIEndpoint
	}
	if s.Temperature == 0 {
		s.Temperature = defaults.Temperature
	}
	if s.MaxTokens == 0 {
		s.MaxTokens = defaults.MaxTokens
	}
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError reports one bad settings field.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks that the settings are usable. An empty API key is
// allowed; sending a message without one is rejected later.
func (s *Settings) Validate() error {
	if s.APIEndpoint != "" {
		u, err := url.Parse(s.APIEndpoint)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return ValidationError{Field: "api_endpoint", Message: "must be an absolute URL"}
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return ValidationError{Field: "api_endpoint", Message: "scheme must be http or https"}
		}
	}
	if s.Temperature < 0 || s.Temperature > 2 {
		return ValidationError{Field: "temperature", Message: "must be between 0 and 2"}
	}
	if s.MaxTokens < 0 {
		return ValidationError{Field: "max_tokens", Message: "must not be negative"}
	}
	return nil
}

// =============================================================================
// SAVE
// =============================================================================

// Save writes the settings to the default location.
func (s *Settings) Save() error {
	path, err := Path()
	if err != nil {
		return err
	}
	return s.SaveToPath(path)
}

// SaveToPath writes the settings to a specific file.
// RELIABILITY: atomic write, 0600 permissions to protect the API key.
func (s *Settings) SaveToPath(path string) error {
	var buf bytes.Buffer
	buf.WriteString("# breath configuration file\n")
	buf.WriteString("# Generated by breath - edit with care\n\n")

	if err := toml.NewEncoder(&buf).Encode(s); err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}

	if err := util.AtomicWriteFile(path, buf.Bytes(), 0o600); err != nil {
		return fmt.Errorf("write settings file: %w", err)
	}
	return nil
}
