// Copyright (c) 2025 BreathAI
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"

	"github.com/breathai/breath/internal/files"
)

// =============================================================================
// REQUEST TYPE
// =============================================================================

// Request describes one streaming completion call. Messages must
// already include the new user turn; the placeholder assistant
// message is a local concern and never appears here.
type Request struct {
	Model       string
	Messages    []ChatMessage
	Attachments []*files.Attachment
	Temperature float64
	MaxTokens   int
}

// =============================================================================
// HTTP REQUEST CONSTRUCTION
// =============================================================================

// newHTTPRequest builds the outgoing POST. Plain messages go as a
// JSON body; messages with attachments go as multipart form data with
// the message history serialized into a form field, matching what the
// gateway expects for file uploads.
func (c *Client) newHTTPRequest(ctx context.Context, req *Request) (*http.Request, error) {
	apiKey, endpoint := c.credentials()
	if apiKey == "" || endpoint == "" {
		return nil, ErrNotConfigured
	}

	url := endpoint + completionsPath

	var httpReq *http.Request
	var err error
	if len(req.Attachments) == 0 {
		httpReq, err = c.newJSONRequest(ctx, url, req)
	} else {
		httpReq, err = c.newMultipartRequest(ctx, url, req)
	}
	if err != nil {
		return nil, err
	}

	httpReq.Header.Set("Authorization", "Bearer "+apiKey)
	httpReq.Header.Set("Accept", "text/event-stream")
	httpReq.Header.Set("Cache-Control", "no-cache")
	httpReq.Header.Set("User-Agent", "breath/1.0")
	return httpReq, nil
}

// newJSONRequest builds the plain streaming request body.
func (c *Client) newJSONRequest(ctx context.Context, url string, req *Request) (*http.Request, error) {
	body := chatRequest{
		Model:       req.Model,
		Messages:    req.Messages,
		Stream:      true,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	}

	bodyBytes, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	return httpReq, nil
}

// newMultipartRequest builds the upload form: file_0..file_N parts
// followed by model, the JSON-encoded message history, and the stream
// flag as plain fields. The multipart writer picks the boundary and
// the Content-Type header carries it.
func (c *Client) newMultipartRequest(ctx context.Context, url string, req *Request) (*http.Request, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	for i, att := range req.Attachments {
		part, err := w.CreatePart(filePartHeader(fmt.Sprintf("file_%d", i), att.Name, att.MIMEType))
		if err != nil {
			return nil, fmt.Errorf("create form part: %w", err)
		}
		r, err := att.Reader()
		if err != nil {
			return nil, err
		}
		_, err = io.Copy(part, r)
		r.Close()
		if err != nil {
			return nil, fmt.Errorf("copy attachment %s: %w", att.Name, err)
		}
	}

	if err := w.WriteField("model", req.Model); err != nil {
		return nil, fmt.Errorf("write model field: %w", err)
	}

	messagesJSON, err := json.Marshal(req.Messages)
	if err != nil {
		return nil, fmt.Errorf("marshal messages: %w", err)
	}
	if err := w.WriteField("messages", string(messagesJSON)); err != nil {
		return nil, fmt.Errorf("write messages field: %w", err)
	}

	if err := w.WriteField("stream", "true"); err != nil {
		return nil, fmt.Errorf("write stream field: %w", err)
	}

	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("finalize form: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &buf)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", w.FormDataContentType())
	return httpReq, nil
}

// filePartHeader builds the part header for a file upload, preserving
// the attachment's declared MIME type.
func filePartHeader(field, filename, mimeType string) textproto.MIMEHeader {
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
		escapeQuotes(field), escapeQuotes(filename)))
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	h.Set("Content-Type", mimeType)
	return h
}

// escapeQuotes sanitizes names for a Content-Disposition header.
func escapeQuotes(s string) string {
	r := strings.NewReplacer("\\", "\\\\", `"`, "\\\"")
	return r.Replace(s)
}
