// Copyright (c) 2025 BreathAI
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package api implements the client for the BreathAI chat gateway.
//
// The gateway speaks the OpenAI chat completions protocol: a single
// POST endpoint that returns Server-Sent Events when stream is set.
// This package builds the requests, maps error responses, and exposes
// the response stream as a pull-based token iterator.
package api

import (
	"crypto/sha256"
	"crypto/tls"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Configuration constants for the gateway API.
const (
	// DefaultEndpoint is the base URL of the hosted gateway.
	DefaultEndpoint = "https://chat.breathai.top/api"

	// completionsPath is appended to the endpoint for chat requests.
	completionsPath = "/v1/chat/completions"

	// DefaultIdleTimeout bounds how long a stream may go without
	// delivering any bytes before the read is abandoned.
	DefaultIdleTimeout = 90 * time.Second

	// maxErrorBody caps how much of an error response body is read.
	maxErrorBody = 1 * 1024 * 1024
)

// PERFORMANCE: shared client with connection pooling for all gateway
// requests. No overall timeout: streams run until done or cancelled,
// and stalls are caught by the idle watchdog.
var sharedStreamingClient = &http.Client{
	Transport: &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
		TLSClientConfig: &tls.Config{
			MinVersion: tls.VersionTLS12,
		},
	},
}

// =============================================================================
// ERRORS
// =============================================================================

// Error variables for common gateway failures.
var (
	// ErrNotConfigured indicates the API key or endpoint is not set.
	ErrNotConfigured = errors.New("gateway not configured")

	// ErrAuthFailed indicates the API key was rejected.
	ErrAuthFailed = errors.New("authentication failed")

	// ErrRateLimited indicates too many requests were made.
	ErrRateLimited = errors.New("rate limited")

	// ErrModelNotFound indicates the requested model does not exist.
	ErrModelNotFound = errors.New("model not found")

	// ErrStreamTruncated indicates the stream ended without the
	// terminal [DONE] frame. Content received before the drop is kept.
	ErrStreamTruncated = errors.New("stream ended unexpectedly")

	// ErrStreamStalled indicates no bytes arrived within the idle
	// timeout window.
	ErrStreamStalled = errors.New("stream stalled")
)

// APIError represents an error response from the gateway.
type APIError struct {
	Code    string
	Message string
	Status  int
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("gateway error [%s] (HTTP %d): %s", e.Code, e.Status, e.Message)
	}
	return fmt.Sprintf("gateway error (HTTP %d): %s", e.Status, e.Message)
}

// apiErrorResponse is the error envelope the gateway returns.
type apiErrorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// =============================================================================
// WIRE TYPES
// =============================================================================

// ChatMessage is a single message as sent on the wire. Only role and
// content cross the wire; local metadata stays local.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatRequest is the JSON body for a streaming completion request.
type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []ChatMessage `json:"messages"`
	Stream      bool          `json:"stream"`
	Temperature float64       `json:"temperature,omitempty"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

// =============================================================================
// CLIENT
// =============================================================================

// Client communicates with a BreathAI-compatible gateway.
//
// The credential and endpoint can be swapped at runtime when settings
// are reloaded, so reads and writes of those two fields go through mu.
type Client struct {
	mu       sync.RWMutex
	apiKey   string
	endpoint string

	httpClient  *http.Client
	idleTimeout time.Duration
	logger      *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithEndpoint sets a custom gateway base URL.
func WithEndpoint(endpoint string) Option {
	return func(c *Client) {
		c.endpoint = strings.TrimSuffix(strings.TrimSpace(endpoint), "/")
	}
}

// WithHTTPClient sets a custom HTTP client, mainly for tests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithIdleTimeout sets how long a stream may stay silent before the
// read is abandoned. Zero disables the watchdog.
func WithIdleTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.idleTimeout = d
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient creates a gateway client. An empty API key is allowed at
// construction; requests fail with ErrNotConfigured until one is set.
func NewClient(apiKey string, opts ...Option) *Client {
	c := &Client{
		apiKey:      strings.TrimSpace(apiKey),
		endpoint:    DefaultEndpoint,
		httpClient:  sharedStreamingClient,
		idleTimeout: DefaultIdleTimeout,
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetAPIKey replaces the API key, e.g. after a settings change.
func (c *Client) SetAPIKey(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.apiKey = strings.TrimSpace(key)
}

// SetEndpoint replaces the gateway base URL.
func (c *Client) SetEndpoint(endpoint string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.endpoint = strings.TrimSuffix(strings.TrimSpace(endpoint), "/")
}

// credentials snapshots the key and endpoint so one request sees a
// consistent pair even if a reload lands mid-flight.
func (c *Client) credentials() (apiKey, endpoint string) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.apiKey, c.endpoint
}

// IsConfigured returns true if both credential and endpoint are set.
func (c *Client) IsConfigured() bool {
	apiKey, endpoint := c.credentials()
	return apiKey != "" && endpoint != ""
}

// APIKeyMasked returns a display form of the API key that never
// exposes key material, only its length and a hash fingerprint.
func (c *Client) APIKeyMasked() string {
	apiKey, _ := c.credentials()
	if apiKey == "" {
		return "[not set]"
	}
	h := sha256.Sum256([]byte(apiKey))
	return fmt.Sprintf("[redacted, length=%d, fingerprint=%s]", len(apiKey), hex.EncodeToString(h[:4]))
}

// =============================================================================
// ERROR MAPPING
// =============================================================================

// handleErrorResponse maps a non-200 response to a typed error.
func (c *Client) handleErrorResponse(statusCode int, body []byte) error {
	var apiErr apiErrorResponse
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Error.Message != "" {
		ge := &APIError{
			Code:    apiErr.Error.Code,
			Message: apiErr.Error.Message,
			Status:  statusCode,
		}
		switch statusCode {
		case http.StatusUnauthorized:
			return fmt.Errorf("%w: %s", ErrAuthFailed, ge.Message)
		case http.StatusNotFound:
			return fmt.Errorf("%w: %s", ErrModelNotFound, ge.Message)
		case http.StatusTooManyRequests:
			return fmt.Errorf("%w: %s", ErrRateLimited, ge.Message)
		default:
			return ge
		}
	}

	// Fallback for unparseable error bodies.
	switch statusCode {
	case http.StatusUnauthorized:
		return ErrAuthFailed
	case http.StatusNotFound:
		return ErrModelNotFound
	case http.StatusTooManyRequests:
		return ErrRateLimited
	default:
		return &APIError{
			Message: strings.TrimSpace(string(body)),
			Status:  statusCode,
		}
	}
}
