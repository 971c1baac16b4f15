// Copyright (c) 2025 BreathAI
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package files classifies and prepares attachments for upload.
package files

import (
	"errors"
	"fmt"
	"strings"
)

// =============================================================================
// CATEGORY TYPE
// =============================================================================

// Category is the attachment class a file falls into.
type Category string

const (
	CategoryDocuments Category = "documents"
	CategoryCode      Category = "code"
	CategoryImages    Category = "images"
	CategoryAudio     Category = "audio"
	CategoryVideo     Category = "video"
	CategoryData      Category = "data"
)

// String returns the string representation of the category.
func (c Category) String() string {
	return string(c)
}

// Label returns a human-readable label for the category.
func (c Category) Label() string {
	switch c {
	case CategoryDocuments:
		return "Document"
	case CategoryCode:
		return "Code"
	case CategoryImages:
		return "Image"
	case CategoryAudio:
		return "Audio"
	case CategoryVideo:
		return "Video"
	case CategoryData:
		return "Data"
	default:
		return string(c)
	}
}

// =============================================================================
// SUPPORTED TYPE TABLES
// =============================================================================

// MaxFileSize is the upload limit per file.
const MaxFileSize = 50 * 1024 * 1024 // 50 MiB

// typeSpec pairs the extensions and MIME types accepted for a category.
type typeSpec struct {
	category   Category
	extensions []string
	mimeTypes  []string
}

// supportedTypes is checked in order; the first category whose
// extension list OR MIME list matches wins.
var supportedTypes = []typeSpec{
	{
		category:   CategoryDocuments,
		extensions: []string{".txt", ".md", ".markdown", ".pdf", ".doc", ".docx", ".ppt", ".pptx", ".xls", ".xlsx"},
		mimeTypes: []string{
			"text/plain", "text/markdown", "application/pdf",
			"application/msword",
			"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
			"application/vnd.ms-powerpoint",
			"application/vnd.openxmlformats-officedocument.presentationml.presentation",
			"application/vnd.ms-excel",
			"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		},
	},
	{
		category:   CategoryCode,
		extensions: []string{".js", ".ts", ".py", ".java", ".cpp", ".c", ".html", ".css", ".json", ".xml"},
		mimeTypes: []string{
			"text/javascript", "text/typescript", "text/x-python",
			"text/x-java-source", "text/x-c++src", "text/x-csrc",
			"text/html", "text/css", "application/json", "text/xml",
		},
	},
	{
		category:   CategoryImages,
		extensions: []string{".jpg", ".jpeg", ".png", ".gif", ".bmp", ".webp", ".svg", ".ico"},
		mimeTypes: []string{
			"image/jpeg", "image/png", "image/gif", "image/bmp",
			"image/webp", "image/svg+xml", "image/x-icon",
		},
	},
	{
		category:   CategoryAudio,
		extensions: []string{".mp3", ".wav", ".flac", ".aac", ".ogg", ".m4a"},
		mimeTypes:  []string{"audio/mpeg", "audio/wav", "audio/flac", "audio/aac", "audio/ogg", "audio/mp4"},
	},
	{
		category:   CategoryVideo,
		extensions: []string{".mp4", ".avi", ".mov", ".wmv", ".flv", ".webm"},
		mimeTypes:  []string{"video/mp4", "video/x-msvideo", "video/quicktime", "video/x-ms-wmv", "video/x-flv", "video/webm"},
	},
	{
		category:   CategoryData,
		extensions: []string{".csv", ".tsv"},
		mimeTypes:  []string{"text/csv", "text/tab-separated-values"},
	},
}

// =============================================================================
// CLASSIFICATION
// =============================================================================

// Sentinel errors for rejected files.
var (
	ErrTooLarge    = errors.New("size exceeds limit")
	ErrUnsupported = errors.New("unsupported format")
)

// Classify determines the category for a file from its name, declared
// MIME type, and size. A match on either extension or MIME type is
// enough; neither input is trusted over the other.
func Classify(name, mimeType string, size int64) (Category, error) {
	if size > MaxFileSize {
		return "", fmt.Errorf("%s: %w (max %s)", name, ErrTooLarge, FormatSize(MaxFileSize))
	}

	ext := extensionOf(name)
	for _, spec := range supportedTypes {
		for _, e := range spec.extensions {
			if ext == e {
				return spec.category, nil
			}
		}
		for _, m := range spec.mimeTypes {
			if mimeType == m {
				return spec.category, nil
			}
		}
	}

	return "", fmt.Errorf("%s: %w", name, ErrUnsupported)
}

// extensionOf returns the lowercased extension including the dot, or
// "" when the name has no dot. "archive.tar.gz" yields ".gz".
func extensionOf(name string) string {
	idx := strings.LastIndexByte(name, '.')
	if idx < 0 {
		return ""
	}
	return strings.ToLower(name[idx:])
}

// =============================================================================
// SIZE FORMATTING
// =============================================================================

// FormatSize renders a byte count for display: "512 B", "2.5 KB",
// "1.2 MB".
func FormatSize(size int64) string {
	const (
		kb = 1024
		mb = 1024 * 1024
	)
	switch {
	case size < kb:
		return fmt.Sprintf("%d B", size)
	case size < mb:
		return fmt.Sprintf("%.1f KB", float64(size)/kb)
	default:
		return fmt.Sprintf("%.1f MB", float64(size)/mb)
	}
}
