// Copyright (c) 2025 BreathAI
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for conversations, messages,
// and the model catalog.
package model

import (
	"sort"
	"strings"
)

// =============================================================================
// MODEL INFO TYPE
// =============================================================================

// ModelInfo contains display information about a model offered by the
// gateway. The catalog is advisory: the engine accepts any model string
// and sends it verbatim, so new gateway models work without a release.
type ModelInfo struct {
	// ID is the model identifier used in API calls
	ID string `json:"id"`

	// Name is the human-readable display name
	Name string `json:"name"`

	// Provider identifies who provides the model
	Provider string `json:"provider"`

	// Description is a brief explanation of the model's strengths
	Description string `json:"description"`
}

// DefaultModel is the model selected when no preference is stored.
const DefaultModel = "gpt-oss-120b"

// =============================================================================
// MODEL CATALOG
// =============================================================================

// Catalog lists the models the gateway is known to offer.
var Catalog = []ModelInfo{
	// OpenAI
	{ID: "gpt-5", Name: "GPT-5", Provider: "OpenAI", Description: "Latest generation GPT model"},
	{ID: "gpt-5-chat", Name: "GPT-5 Chat", Provider: "OpenAI", Description: "Conversation-tuned variant"},
	{ID: "gpt-5-mini", Name: "GPT-5 Mini", Provider: "OpenAI", Description: "Lightweight variant"},
	{ID: "gpt-5-nano", Name: "GPT-5 Nano", Provider: "OpenAI", Description: "Smallest variant, may be unstable"},

	// GPT-OSS
	{ID: "gpt-oss-120b", Name: "GPT-OSS 120B", Provider: "GPT-OSS", Description: "120B parameter open model"},
	{ID: "gpt-oss-120b-high", Name: "GPT-OSS 120B High", Provider: "GPT-OSS", Description: "120B, high effort"},
	{ID: "gpt-oss-120b-low", Name: "GPT-OSS 120B Low", Provider: "GPT-OSS", Description: "120B, low effort"},
	{ID: "gpt-oss-20b", Name: "GPT-OSS 20B", Provider: "GPT-OSS", Description: "20B parameter open model"},

	// BreathAI
	{ID: "breath", Name: "Breath", Provider: "BreathAI", Description: "BreathAI house model"},
	{ID: "compound", Name: "Compound", Provider: "BreathAI", Description: "Composite model"},
	{ID: "compound-mini", Name: "Compound Mini", Provider: "BreathAI", Description: "Lightweight composite model"},

	// Anthropic
	{ID: "claude-haiku-4.5", Name: "Claude Haiku 4.5", Provider: "Anthropic", Description: "Fast and efficient"},
	{ID: "claude-sonnet-4.5", Name: "Claude Sonnet 4.5", Provider: "Anthropic", Description: "Balanced speed and capability"},
	{ID: "claude-sonnet-4.5-thinking", Name: "Claude Sonnet 4.5 Thinking", Provider: "Anthropic", Description: "Balanced, extended reasoning"},
	{ID: "claude-opus-4.1", Name: "Claude Opus 4.1", Provider: "Anthropic", Description: "Most capable for complex reasoning"},

	// DeepSeek
	{ID: "deepseek-v3", Name: "DeepSeek V3", Provider: "DeepSeek", Description: "Latest DeepSeek model"},
	{ID: "deepseek-r1", Name: "DeepSeek R1", Provider: "DeepSeek", Description: "Reasoning model"},

	// Google
	{ID: "gemini-2.5-flash", Name: "Gemini 2.5 Flash", Provider: "Google", Description: "Fast responses"},
	{ID: "gemini-2.5-pro", Name: "Gemini 2.5 Pro", Provider: "Google", Description: "Professional tier"},
	{ID: "gemma-3-27b-it", Name: "Gemma 3 27B IT", Provider: "Google", Description: "Instruction-tuned open model"},

	// Alibaba
	{ID: "qwen3-235b-a22b", Name: "Qwen3 235B A22B", Provider: "Alibaba", Description: "Large mixture-of-experts model"},
	{ID: "qwen3-32b", Name: "Qwen3 32B", Provider: "Alibaba", Description: "32B parameter model"},
	{ID: "qwen3-coder-480b-a35b-instruct", Name: "Qwen3 Coder 480B A35B Instruct", Provider: "Alibaba", Description: "Coding specialist"},

	// xAI
	{ID: "grok-3-mini", Name: "Grok 3 Mini", Provider: "xAI", Description: "Lightweight variant"},
	{ID: "grok-4-fast-reasoning", Name: "Grok 4 Fast Reasoning", Provider: "xAI", Description: "Fast reasoning variant"},

	// Zhipu AI
	{ID: "glm-4.6", Name: "GLM 4.6", Provider: "Zhipu AI", Description: "Latest GLM release"},
	{ID: "glm-4.5-air", Name: "GLM 4.5 Air", Provider: "Zhipu AI", Description: "Lightweight variant"},

	// Meta
	{ID: "llama-3.3-70b-instruct", Name: "Llama 3.3 70B Instruct", Provider: "Meta", Description: "Open instruction-tuned model"},
}

// =============================================================================
// CATALOG LOOKUP
// =============================================================================

// Lookup returns catalog info for a model ID, and whether it is known.
func Lookup(id string) (ModelInfo, bool) {
	for _, m := range Catalog {
		if m.ID == id {
			return m, true
		}
	}
	return ModelInfo{}, false
}

// DisplayName returns the catalog display name for a model ID, or the
// ID itself for models not in the catalog.
func DisplayName(id string) string {
	if m, ok := Lookup(id); ok {
		return m.Name
	}
	return id
}

// Providers returns the distinct provider names in the catalog, sorted.
func Providers() []string {
	seen := make(map[string]bool)
	var out []string
	for _, m := range Catalog {
		if !seen[m.Provider] {
			seen[m.Provider] = true
			out = append(out, m.Provider)
		}
	}
	sort.Strings(out)
	return out
}

// ByProvider returns the catalog entries for one provider, in catalog
// order. Matching is case-insensitive.
func ByProvider(provider string) []ModelInfo {
	var out []ModelInfo
	for _, m := range Catalog {
		if strings.EqualFold(m.Provider, provider) {
			out = append(out, m)
		}
	}
	return out
}
