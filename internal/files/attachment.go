// Copyright (c) 2025 BreathAI
// SPDX-License-Identifier: AGPL-3.0-or-later

package files

import (
	"encoding/base64"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// =============================================================================
// ATTACHMENT TYPE
// =============================================================================

// maxPreviewBytes bounds how much of an image is read for the inline
// preview. Large images simply go without one.
const maxPreviewBytes = 2 * 1024 * 1024

// Attachment is a file staged for upload with the next message.
type Attachment struct {
	ID       string
	Name     string
	Path     string
	Size     int64
	MIMEType string
	Category Category

	// Preview is a base64 data URL for image attachments, "" otherwise.
	Preview string
}

// New classifies a file and stages it as an attachment. The file is
// not read here except to build an image preview; upload happens when
// the message is sent.
func New(name, mimeType string, size int64, r io.Reader) (*Attachment, error) {
	category, err := Classify(name, mimeType, size)
	if err != nil {
		return nil, err
	}

	att := &Attachment{
		ID:       uuid.NewString(),
		Name:     name,
		Size:     size,
		MIMEType: mimeType,
		Category: category,
	}

	// Preview is best effort: a read failure drops the preview, never
	// the attachment.
	if r != nil && strings.HasPrefix(mimeType, "image/") && size <= maxPreviewBytes {
		if data, err := io.ReadAll(io.LimitReader(r, maxPreviewBytes)); err == nil {
			att.Preview = "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
		}
	}

	return att, nil
}

// Open opens a staged attachment from disk, classifying it by name,
// sniffed MIME type, and on-disk size.
func Open(path string) (*Attachment, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat attachment: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s: is a directory", path)
	}

	name := filepath.Base(path)
	mimeType := mimeTypeFor(name)

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open attachment: %w", err)
	}
	defer f.Close()

	att, err := New(name, mimeType, info.Size(), f)
	if err != nil {
		return nil, err
	}
	att.Path = path
	return att, nil
}

// Reader opens the attachment content for upload.
func (a *Attachment) Reader() (io.ReadCloser, error) {
	if a.Path == "" {
		return nil, fmt.Errorf("attachment %s has no backing file", a.Name)
	}
	f, err := os.Open(a.Path)
	if err != nil {
		return nil, fmt.Errorf("open attachment: %w", err)
	}
	return f, nil
}

// Describe returns a one-line summary for display:
// "report.pdf (Document, 1.2 MB)".
func (a *Attachment) Describe() string {
	return fmt.Sprintf("%s (%s, %s)", a.Name, a.Category.Label(), FormatSize(a.Size))
}

// extensionMIME maps supported extensions to the MIME type declared
// on upload.
var extensionMIME = map[string]string{
	".txt": "text/plain", ".md": "text/markdown", ".markdown": "text/markdown",
	".pdf": "application/pdf", ".doc": "application/msword",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	".ppt":  "application/vnd.ms-powerpoint",
	".pptx": "application/vnd.openxmlformats-officedocument.presentationml.presentation",
	".xls":  "application/vnd.ms-excel",
	".xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",

	".js": "text/javascript", ".ts": "text/typescript", ".py": "text/x-python",
	".java": "text/x-java-source", ".cpp": "text/x-c++src", ".c": "text/x-csrc",
	".html": "text/html", ".css": "text/css", ".json": "application/json", ".xml": "text/xml",

	".jpg": "image/jpeg", ".jpeg": "image/jpeg", ".png": "image/png",
	".gif": "image/gif", ".bmp": "image/bmp", ".webp": "image/webp",
	".svg": "image/svg+xml", ".ico": "image/x-icon",

	".mp3": "audio/mpeg", ".wav": "audio/wav", ".flac": "audio/flac",
	".aac": "audio/aac", ".ogg": "audio/ogg", ".m4a": "audio/mp4",

	".mp4": "video/mp4", ".avi": "video/x-msvideo", ".mov": "video/quicktime",
	".wmv": "video/x-ms-wmv", ".flv": "video/x-flv", ".webm": "video/webm",

	".csv": "text/csv", ".tsv": "text/tab-separated-values",
}

// mimeTypeFor maps a file name to the MIME type declared on upload.
// Unknown extensions fall back to application/octet-stream, which
// classification then ignores in favor of the extension.
func mimeTypeFor(name string) string {
	if mt, ok := extensionMIME[extensionOf(name)]; ok {
		return mt
	}
	return "application/octet-stream"
}
