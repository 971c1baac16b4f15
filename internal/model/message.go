// Copyright (c) 2025 BreathAI
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for conversations, messages,
// and the model catalog.
package model

import (
	"crypto/rand"
	"encoding/hex"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

// =============================================================================
// ROLE TYPE
// =============================================================================

// Role represents the sender of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// String returns the string representation of the role.
func (r Role) String() string {
	return string(r)
}

// DisplayName returns a human-readable name for the role.
func (r Role) DisplayName() string {
	switch r {
	case RoleUser:
		return "You"
	case RoleAssistant:
		return "Assistant"
	case RoleSystem:
		return "System"
	default:
		return string(r)
	}
}

// =============================================================================
// MESSAGE TYPE
// =============================================================================

// AttachmentRef is the persisted record of a file sent with a message.
// The file bytes themselves are never stored, only the metadata needed
// to render the message history.
type AttachmentRef struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Size     int64  `json:"size"`
	MIMEType string `json:"mime_type"`
	Category string `json:"category"`
	Preview  string `json:"preview,omitempty"` // data URL, images only
}

// Message represents a single message in a conversation.
//
// A message is immutable once finalized: user messages are complete at
// creation, and assistant messages are complete once streaming ends.
type Message struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`

	// Model records which model produced an assistant message.
	Model string `json:"model,omitempty"`

	// Attachments sent alongside a user message.
	Attachments []AttachmentRef `json:"attachments,omitempty"`
}

// NewMessage creates a new message with a generated ID.
func NewMessage(role Role, content string) Message {
	return Message{
		ID:        generateID(),
		Role:      role,
		Content:   content,
		Timestamp: time.Now(),
	}
}

// NewUserMessage creates a new user message.
func NewUserMessage(content string) Message {
	return NewMessage(RoleUser, content)
}

// NewAssistantMessage creates an empty assistant message that will be
// filled in as the response streams. Model records the model asked for.
func NewAssistantMessage(model string) Message {
	return Message{
		ID:        generateID(),
		Role:      RoleAssistant,
		Timestamp: time.Now(),
		Model:     model,
	}
}

// NewSystemMessage creates a new system message.
func NewSystemMessage(content string) Message {
	return NewMessage(RoleSystem, content)
}

// Preview returns a short form of the content for list displays: at
// most maxLen runes, with "..." standing in for anything cut. Counting
// runes rather than bytes keeps multi-byte characters intact.
func (m Message) Preview(maxLen int) string {
	if maxLen <= 0 {
		return ""
	}
	if utf8.RuneCountInString(m.Content) <= maxLen {
		return m.Content
	}

	keep, marker := maxLen-3, "..."
	if maxLen <= 3 {
		// No room for the marker, just cut.
		keep, marker = maxLen, ""
	}

	var b strings.Builder
	for _, r := range m.Content {
		if keep == 0 {
			break
		}
		b.WriteRune(r)
		keep--
	}
	return b.String() + marker
}

// IsEmpty returns true if the message has no content and no attachments.
func (m Message) IsEmpty() bool {
	return len(m.Content) == 0 && len(m.Attachments) == 0
}

// EstimateTokens gives a rough estimate of token count.
// Uses the approximation of ~4 characters per token.
func (m Message) EstimateTokens() int {
	return (len(m.Content) + 3) / 4
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// generateID creates a unique message ID. The millisecond timestamp
// keeps IDs sortable by creation time; the random suffix breaks ties
// for messages created within the same millisecond.
func generateID() string {
	bytes := make([]byte, 4)
	rand.Read(bytes)
	return strconv.FormatInt(time.Now().UnixMilli(), 10) + "-" + hex.EncodeToString(bytes)
}
