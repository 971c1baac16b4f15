// Copyright (c) 2025 BreathAI
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaults(t *testing.T) {
	s := Default()

	if s.APIEndpoint != "https://chat.breathai.top/api" {
		t.Errorf("APIEndpoint = %q", s.APIEndpoint)
	}
	if s.Temperature != 0.7 {
		t.Errorf("Temperature = %v, want 0.7", s.Temperature)
	}
	if s.MaxTokens != 4096 {
		t.Errorf("MaxTokens = %d, want 4096", s.MaxTokens)
	}
	if !s.AutoSave || !s.EnableMarkdown || !s.ShowTimestamps {
		t.Error("behavior flags should default to enabled")
	}
	if s.APIKey != "" {
		t.Error("APIKey should default to empty")
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	s, err := LoadFromPath(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatalf("LoadFromPath() error = %v", err)
	}
	if s.APIEndpoint != Default().APIEndpoint {
		t.Errorf("APIEndpoint = %q, want default", s.APIEndpoint)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	s := Default()
	s.APIKey = "sk-test"
	s.Temperature = 1.2
	s.MaxTokens = 2048
	s.SystemPrompt = "answer tersely"
	s.EnableMathRendering = false

	if err := s.SaveToPath(path); err != nil {
		t.Fatalf("SaveToPath() error = %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat() error = %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("settings file permissions = %o, want 0600", perm)
	}

	loaded, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath() error = %v", err)
	}
	if loaded.APIKey != "sk-test" {
		t.Errorf("APIKey = %q", loaded.APIKey)
	}
	if loaded.Temperature != 1.2 {
		t.Errorf("Temperature = %v", loaded.Temperature)
	}
	if loaded.MaxTokens != 2048 {
		t.Errorf("MaxTokens = %d", loaded.MaxTokens)
	}
	if loaded.SystemPrompt != "answer tersely" {
		t.Errorf("SystemPrompt = %q", loaded.SystemPrompt)
	}
	if loaded.EnableMathRendering {
		t.Error("EnableMathRendering should survive as false")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("BREATH_API_KEY", "env-key")
	t.Setenv("BREATH_API_ENDPOINT", "https://example.test/api")

	path := filepath.Join(t.TempDir(), "config.toml")
	s := Default()
	s.APIKey = "file-key"
	if err := s.SaveToPath(path); err != nil {
		t.Fatalf("SaveToPath() error = %v", err)
	}

	loaded, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath() error = %v", err)
	}
	if loaded.APIKey != "env-key" {
		t.Errorf("APIKey = %q, environment should win over file", loaded.APIKey)
	}
	if loaded.APIEndpoint != "https://example.test/api" {
		t.Errorf("APIEndpoint = %q", loaded.APIEndpoint)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Settings)
		wantErr bool
	}{
		{"defaults are valid", func(s *Settings) {}, false},
		{"empty key is allowed", func(s *Settings) { s.APIKey = "" }, false},
		{"relative endpoint", func(s *Settings) { s.APIEndpoint = "chat/api" }, true},
		{"bad scheme", func(s *Settings) { s.APIEndpoint = "ftp://x.test" }, true},
		{"temperature too high", func(s *Settings) { s.Temperature = 2.5 }, true},
		{"temperature negative", func(s *Settings) { s.Temperature = -0.1 }, true},
		{"negative max tokens", func(s *Settings) { s.MaxTokens = -1 }, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s := Default()
			tc.mutate(s)
			err := s.Validate()
			if (err != nil) != tc.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}

func TestLoadFixesPermissions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := Default().SaveToPath(path); err != nil {
		t.Fatalf("SaveToPath() error = %v", err)
	}
	os.Chmod(path, 0o644)

	if _, err := LoadFromPath(path); err != nil {
		t.Fatalf("LoadFromPath() error = %v", err)
	}

	info, _ := os.Stat(path)
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("permissions after load = %o, want 0600", perm)
	}
}
