// Copyright (c) 2025 BreathAI
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// STREAMING: robust SSE parsing with error recovery

// maxLineSize is the maximum allowed size for a single SSE line.
const maxLineSize = 64 * 1024

// =============================================================================
// STREAM CHUNK
// =============================================================================

// streamChunk is one decoded SSE frame from the gateway.
type streamChunk struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
			Role    string `json:"role,omitempty"`
		} `json:"delta"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
}

// content returns the delta content of the first choice, or "".
func (c *streamChunk) content() string {
	if len(c.Choices) > 0 {
		return c.Choices[0].Delta.Content
	}
	return ""
}

// =============================================================================
// STREAM
// =============================================================================

// Stream is a pull-based iterator over the content deltas of one
// completion. The caller drains it with Next until io.EOF and must
// Close it when done.
//
// Line reassembly happens in the buffered reader, so frames split
// across network chunks, including mid-rune UTF-8 splits, come back
// whole before any parsing looks at them.
type Stream struct {
	body   io.ReadCloser
	reader *bufio.Reader
	cancel context.CancelFunc
	logger *zap.Logger

	// The watchdog fires on a timer goroutine while Next blocks in a
	// read, so the flag crosses goroutines.
	watchdog *time.Timer
	idle     time.Duration
	stalled  atomic.Bool

	model   string
	done    bool
	skipped int
	err     error
}

// ChatStream sends the request and returns the response stream.
// Cancelling ctx aborts both the request and any in-flight reads.
func (c *Client) ChatStream(ctx context.Context, req *Request) (*Stream, error) {
	httpReq, err := c.newHTTPRequest(ctx, req)
	if err != nil {
		return nil, err
	}

	// The watchdog cancels this derived context when the stream goes
	// silent, which unblocks the pending body read.
	streamCtx, cancel := context.WithCancel(ctx)
	httpReq = httpReq.WithContext(streamCtx)

	c.logger.Debug("sending completion request",
		zap.String("model", req.Model),
		zap.Int("messages", len(req.Messages)),
		zap.Int("attachments", len(req.Attachments)))

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("request failed: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		resp.Body.Close()
		cancel()
		return nil, c.handleErrorResponse(resp.StatusCode, body)
	}

	s := &Stream{
		body:   resp.Body,
		reader: bufio.NewReader(resp.Body),
		cancel: cancel,
		logger: c.logger,
		idle:   c.idleTimeout,
	}
	if s.idle > 0 {
		s.watchdog = time.AfterFunc(s.idle, func() {
			s.stalled.Store(true)
			cancel()
		})
	}
	return s, nil
}

// Next returns the next non-empty content delta. It returns io.EOF
// after the terminal [DONE] frame, ErrStreamTruncated if the
// connection dropped before it, and ErrStreamStalled if the idle
// timeout fired. Malformed frames are counted and skipped, never
// fatal.
func (s *Stream) Next() (string, error) {
	if s.err != nil {
		return "", s.err
	}
	if s.done {
		return "", io.EOF
	}

	for {
		line, err := s.readLine()
		if err != nil {
			return "", s.fail(err)
		}

		line = bytes.TrimRight(line, "\r\n")

		// Only data frames matter; comments, event names, and blank
		// keep-alive lines are skipped.
		if !bytes.HasPrefix(line, []byte("data: ")) {
			continue
		}
		data := bytes.TrimSpace(line[len("data: "):])

		if bytes.Equal(data, []byte("[DONE]")) {
			s.done = true
			s.err = io.EOF
			return "", io.EOF
		}

		var chunk streamChunk
		if err := json.Unmarshal(data, &chunk); err != nil {
			// A mangled frame loses one delta, not the stream.
			s.skipped++
			s.logger.Debug("skipping malformed frame", zap.Error(err))
			continue
		}

		if chunk.Model != "" {
			s.model = chunk.Model
		}
		if content := chunk.content(); content != "" {
			return content, nil
		}
	}
}

// readLine reads one line, resetting the idle watchdog on progress.
// The size cap is enforced as the line accumulates, so an oversized
// frame is rejected without buffering all of it first.
func (s *Stream) readLine() ([]byte, error) {
	var line []byte
	for {
		chunk, err := s.reader.ReadSlice('\n')
		line = append(line, chunk...)
		if len(line) > maxLineSize {
			return nil, fmt.Errorf("frame too large: %d+ bytes", len(line))
		}
		if err == bufio.ErrBufferFull {
			continue
		}
		if err != nil {
			if len(line) > 0 && err == io.EOF {
				// Trailing data without a newline still counts as a line.
				return line, nil
			}
			return nil, err
		}
		if s.watchdog != nil {
			s.watchdog.Reset(s.idle)
		}
		return line, nil
	}
}

// fail converts a read error into the stream's terminal error.
func (s *Stream) fail(err error) error {
	switch {
	case s.stalled.Load():
		s.err = fmt.Errorf("%w after %s of silence", ErrStreamStalled, s.idle)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		s.err = err
	case err == io.EOF || errors.Is(err, io.ErrUnexpectedEOF):
		// The gateway closed the connection without saying [DONE].
		s.err = ErrStreamTruncated
	default:
		s.err = fmt.Errorf("read stream: %w", err)
	}
	return s.err
}

// Model returns the model name reported by the stream, if any frame
// carried one.
func (s *Stream) Model() string {
	return s.model
}

// Skipped returns how many malformed frames were dropped.
func (s *Stream) Skipped() int {
	return s.skipped
}

// Close releases the connection. Safe to call more than once.
func (s *Stream) Close() error {
	if s.watchdog != nil {
		s.watchdog.Stop()
	}
	s.cancel()
	return s.body.Close()
}

// =============================================================================
// ACCUMULATED RESPONSE
// =============================================================================

// ChatAccumulate streams a completion but returns the whole response
// at once. On truncation the partial content comes back with the
// error.
func (c *Client) ChatAccumulate(ctx context.Context, req *Request) (string, error) {
	stream, err := c.ChatStream(ctx, req)
	if err != nil {
		return "", err
	}
	defer stream.Close()

	var sb strings.Builder
	for {
		delta, err := stream.Next()
		if err == io.EOF {
			return sb.String(), nil
		}
		if err != nil {
			return sb.String(), err
		}
		sb.WriteString(delta)
	}
}
