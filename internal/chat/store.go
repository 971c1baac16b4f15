// Copyright (c) 2025 BreathAI
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat holds the conversation state machine.
//
// A Store owns the message history and the selected model. It is
// either idle or sending; one send runs at a time and a second send
// is rejected, not queued. Every send leaves the store idle again no
// matter how the stream ends.
package chat

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/breathai/breath/internal/api"
	"github.com/breathai/breath/internal/config"
	"github.com/breathai/breath/internal/files"
	"github.com/breathai/breath/internal/model"
	"github.com/breathai/breath/internal/storage"
)

// Validation and state errors.
var (
	// ErrBusy indicates a send is already in flight.
	ErrBusy = errors.New("a message is already being sent")

	// ErrEmptyMessage indicates there is nothing to send.
	ErrEmptyMessage = errors.New("message is empty")

	// ErrNoAPIKey indicates no credential is configured.
	ErrNoAPIKey = errors.New("API key not configured")
)

// DeltaFunc observes content deltas as they stream in. It is called
// outside the store lock, in send order.
type DeltaFunc func(delta string)

// =============================================================================
// STORE
// =============================================================================

// Store is the conversation state machine.
type Store struct {
	mu           sync.Mutex
	messages     []model.Message
	currentModel string
	sending      bool
	cancelSend   context.CancelFunc

	client   *api.Client
	db       *storage.Store
	settings *config.Settings
	logger   *zap.Logger
}

// New creates a store. db may be nil to run without persistence.
func New(client *api.Client, db *storage.Store, settings *config.Settings, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		currentModel: model.DefaultModel,
		client:       client,
		db:           db,
		settings:     settings,
		logger:       logger,
	}
}

// Load restores persisted conversation state. Loading never writes
// anything back.
func (s *Store) Load() error {
	if s.db == nil {
		return nil
	}
	state, err := s.db.LoadChat()
	if err != nil {
		return fmt.Errorf("load conversation: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = state.Messages
	s.currentModel = state.CurrentModel
	return nil
}

// =============================================================================
// ACCESSORS
// =============================================================================

// Messages returns a snapshot of the conversation.
func (s *Store) Messages() []model.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// CurrentModel returns the selected model.
func (s *Store) CurrentModel() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentModel
}

// SetCurrentModel selects the model for subsequent sends. The value
// is stored verbatim; unknown models are the gateway's to reject.
func (s *Store) SetCurrentModel(m string) {
	s.mu.Lock()
	s.currentModel = m
	s.mu.Unlock()
	s.persist()
}

// IsSending reports whether a send is in flight.
func (s *Store) IsSending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sending
}

// Settings returns a copy of the current settings.
func (s *Store) Settings() config.Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.settings
}

// UpdateSettings swaps in new settings, e.g. after a config reload.
// The caller hands over ownership of settings and must not write to
// it afterwards.
func (s *Store) UpdateSettings(settings *config.Settings) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings = settings
	s.client.SetAPIKey(settings.APIKey)
	s.client.SetEndpoint(settings.APIEndpoint)
}

// =============================================================================
// SEND
// =============================================================================

// SendMessage sends a user turn and streams the reply into the
// conversation. It blocks until the stream ends. onDelta, if not nil,
// sees each content delta as it arrives.
//
// Validation happens before any state changes: a rejected send leaves
// the conversation exactly as it was.
func (s *Store) SendMessage(ctx context.Context, text string, atts []*files.Attachment, onDelta DeltaFunc) error {
	s.mu.Lock()
	if s.sending {
		s.mu.Unlock()
		return ErrBusy
	}
	if strings.TrimSpace(text) == "" && len(atts) == 0 {
		s.mu.Unlock()
		return ErrEmptyMessage
	}
	if s.settings.APIKey == "" {
		s.mu.Unlock()
		return ErrNoAPIKey
	}
	if !s.client.IsConfigured() {
		// A blank endpoint would fail inside the client anyway, but by
		// then the user message and placeholder would already be in
		// the log.
		s.mu.Unlock()
		return api.ErrNotConfigured
	}

	// The wire history is snapshotted before the new messages are
	// appended: prior turns plus the new user turn, never the
	// placeholder.
	wire := s.wireMessages(text)

	userMsg := model.NewUserMessage(text)
	for _, att := range atts {
		userMsg.Attachments = append(userMsg.Attachments, model.AttachmentRef{
			ID:       att.ID,
			Name:     att.Name,
			Size:     att.Size,
			MIMEType: att.MIMEType,
			Category: att.Category.String(),
			Preview:  att.Preview,
		})
	}
	placeholder := model.NewAssistantMessage(s.currentModel)
	placeholderID := placeholder.ID
	s.messages = append(s.messages, userMsg, placeholder)

	sendCtx, cancel := context.WithCancel(ctx)
	s.sending = true
	s.cancelSend = cancel

	req := &api.Request{
		Model:       s.currentModel,
		Messages:    wire,
		Attachments: atts,
		Temperature: s.settings.Temperature,
		MaxTokens:   s.settings.MaxTokens,
	}
	s.mu.Unlock()

	// The send always ends idle, whatever happened above.
	defer func() {
		cancel()
		s.mu.Lock()
		s.sending = false
		s.cancelSend = nil
		s.mu.Unlock()
		s.persist()
	}()

	err := s.streamInto(sendCtx, req, placeholderID, onDelta)
	if err != nil {
		s.recordFailure(placeholderID, err)
	}
	return err
}

// wireMessages builds the role/content history for the request:
// system prompt, prior finalized turns, then the new user turn.
// Caller holds the lock.
func (s *Store) wireMessages(text string) []api.ChatMessage {
	wire := make([]api.ChatMessage, 0, len(s.messages)+2)
	if s.settings.SystemPrompt != "" {
		wire = append(wire, api.ChatMessage{Role: model.RoleSystem.String(), Content: s.settings.SystemPrompt})
	}
	for _, m := range s.messages {
		wire = append(wire, api.ChatMessage{Role: m.Role.String(), Content: m.Content})
	}
	return append(wire, api.ChatMessage{Role: model.RoleUser.String(), Content: text})
}

// streamInto drains the response stream into the placeholder message.
func (s *Store) streamInto(ctx context.Context, req *api.Request, placeholderID string, onDelta DeltaFunc) error {
	stream, err := s.client.ChatStream(ctx, req)
	if err != nil {
		return err
	}
	defer stream.Close()

	for {
		delta, err := stream.Next()
		if err == io.EOF {
			if n := stream.Skipped(); n > 0 {
				s.logger.Warn("stream completed with skipped frames", zap.Int("skipped", n))
			}
			return nil
		}
		if err != nil {
			return err
		}

		s.appendDelta(placeholderID, delta)
		if onDelta != nil {
			onDelta(delta)
		}
	}
}

// appendDelta appends streamed content to the placeholder message.
func (s *Store) appendDelta(id, delta string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.messages {
		if s.messages[i].ID == id {
			s.messages[i].Content += delta
			return
		}
	}
}

// recordFailure leaves a usable trace of a failed send in the
// conversation. Partial content survives a truncated or cancelled
// stream; an empty placeholder gets the error text instead.
func (s *Store) recordFailure(placeholderID string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.logger.Error("send failed", zap.Error(err))

	for i := range s.messages {
		if s.messages[i].ID != placeholderID {
			continue
		}
		if s.messages[i].Content != "" {
			// Keep what streamed in before the failure.
			return
		}
		switch {
		case errors.Is(err, context.Canceled):
			s.messages[i].Content = "(cancelled)"
		default:
			s.messages[i].Content = fmt.Sprintf("Sorry, something went wrong: %v", err)
		}
		return
	}
}

// =============================================================================
// CONTROL
// =============================================================================

// Cancel aborts the in-flight send, if any.
func (s *Store) Cancel() {
	s.mu.Lock()
	cancel := s.cancelSend
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// ClearMessages empties the conversation and forces the store idle.
// An in-flight stream is cancelled; its late results are discarded
// because the placeholder they target is gone.
func (s *Store) ClearMessages() {
	s.mu.Lock()
	cancel := s.cancelSend
	s.messages = nil
	s.sending = false
	s.cancelSend = nil
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	s.persist()
}

// persist saves the conversation snapshot when auto-save is on.
// Failures are logged, never fatal: losing a save must not break the
// session.
func (s *Store) persist() {
	if s.db == nil {
		return
	}

	s.mu.Lock()
	if !s.settings.AutoSave {
		s.mu.Unlock()
		return
	}
	state := storage.ChatState{
		Messages:     make([]model.Message, len(s.messages)),
		CurrentModel: s.currentModel,
	}
	copy(state.Messages, s.messages)
	s.mu.Unlock()

	if err := s.db.SaveChat(state); err != nil {
		s.logger.Warn("conversation save failed", zap.Error(err))
	}
}
