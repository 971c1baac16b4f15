// Copyright (c) 2025 BreathAI
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"strconv"
	"strings"
	"testing"
	"time"
)

// =============================================================================
// MESSAGE TESTS
// =============================================================================

func TestNewUserMessage(t *testing.T) {
	msg := NewUserMessage("hello")

	if msg.Role != RoleUser {
		t.Errorf("Role = %v, want %v", msg.Role, RoleUser)
	}
	if msg.Content != "hello" {
		t.Errorf("Content = %q, want %q", msg.Content, "hello")
	}
	if msg.ID == "" {
		t.Error("ID should not be empty")
	}
	if msg.Timestamp.IsZero() {
		t.Error("Timestamp should be set")
	}
}

func TestNewAssistantMessage(t *testing.T) {
	msg := NewAssistantMessage("gpt-5")

	if msg.Role != RoleAssistant {
		t.Errorf("Role = %v, want %v", msg.Role, RoleAssistant)
	}
	if msg.Content != "" {
		t.Errorf("placeholder Content = %q, want empty", msg.Content)
	}
	if msg.Model != "gpt-5" {
		t.Errorf("Model = %q, want %q", msg.Model, "gpt-5")
	}
	if !msg.IsEmpty() {
		t.Error("placeholder should be empty")
	}
}

func TestGenerateIDUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		id := generateID()
		if seen[id] {
			t.Fatalf("duplicate ID generated: %s", id)
		}
		seen[id] = true
	}
}

func TestGenerateIDFormat(t *testing.T) {
	before := time.Now().UnixMilli()
	id := generateID()

	parts := strings.SplitN(id, "-", 2)
	if len(parts) != 2 {
		t.Fatalf("ID %q should have timestamp-suffix form", id)
	}
	if len(parts[1]) != 8 {
		t.Errorf("random suffix length = %d, want 8", len(parts[1]))
	}
	ms, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		t.Fatalf("ID prefix %q is not an integer: %v", parts[0], err)
	}
	if ms < before {
		t.Errorf("ID timestamp %d predates test start %d", ms, before)
	}
}

func TestRoleDisplayName(t *testing.T) {
	tests := []struct {
		role Role
		want string
	}{
		{RoleUser, "You"},
		{RoleAssistant, "Assistant"},
		{RoleSystem, "System"},
		{Role("custom"), "custom"},
	}

	for _, tc := range tests {
		if got := tc.role.DisplayName(); got != tc.want {
			t.Errorf("DisplayName(%v) = %q, want %q", tc.role, got, tc.want)
		}
	}
}

func TestMessageIsEmpty(t *testing.T) {
	msg := NewUserMessage("")
	if !msg.IsEmpty() {
		t.Error("message with no content should be empty")
	}

	msg.Attachments = []AttachmentRef{{ID: "a", Name: "f.txt"}}
	if msg.IsEmpty() {
		t.Error("message with attachments should not be empty")
	}
}

func TestMessagePreview(t *testing.T) {
	tests := []struct {
		name    string
		content string
		maxLen  int
		want    string
	}{
		{"short content unchanged", "hello", 10, "hello"},
		{"exact length unchanged", "hello", 5, "hello"},
		{"cut with marker", "this is a fairly long message body", 10, "this is..."},
		{"zero max", "hello", 0, ""},
		{"no room for marker", "hello", 2, "he"},
		{"multibyte safe", "héllo wörld", 8, "héllo..."},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			msg := NewUserMessage(tc.content)
			if got := msg.Preview(tc.maxLen); got != tc.want {
				t.Errorf("Preview(%d) of %q = %q, want %q", tc.maxLen, tc.content, got, tc.want)
			}
		})
	}
}

// =============================================================================
// CATALOG TESTS
// =============================================================================

func TestLookup(t *testing.T) {
	info, ok := Lookup(DefaultModel)
	if !ok {
		t.Fatalf("default model %q should be in the catalog", DefaultModel)
	}
	if info.Provider != "GPT-OSS" {
		t.Errorf("Provider = %q, want %q", info.Provider, "GPT-OSS")
	}

	if _, ok := Lookup("no-such-model"); ok {
		t.Error("unknown model should not be found")
	}
}

func TestDisplayName(t *testing.T) {
	if got := DisplayName("gpt-5"); got != "GPT-5" {
		t.Errorf("DisplayName(gpt-5) = %q, want %q", got, "GPT-5")
	}
	// Unknown IDs pass through verbatim so new gateway models still render.
	if got := DisplayName("future-model-x"); got != "future-model-x" {
		t.Errorf("DisplayName(future-model-x) = %q, want passthrough", got)
	}
}

func TestByProvider(t *testing.T) {
	models := ByProvider("anthropic")
	if len(models) == 0 {
		t.Fatal("expected Anthropic models (case-insensitive match)")
	}
	for _, m := range models {
		if m.Provider != "Anthropic" {
			t.Errorf("ByProvider returned %q model %q", m.Provider, m.ID)
		}
	}
}

func TestProvidersSorted(t *testing.T) {
	providers := Providers()
	if len(providers) < 5 {
		t.Fatalf("expected several providers, got %d", len(providers))
	}
	for i := 1; i < len(providers); i++ {
		if providers[i-1] >= providers[i] {
			t.Errorf("providers not sorted: %q before %q", providers[i-1], providers[i])
		}
	}
}
