// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package imaging

import (
	"bytes"
	"net/http"
	"path/filepath"
	"strings"
)

// MIME types of accepted uploads.
const (
	MimeTypeJPEG = "image/jpeg"
	MimeTypePNG  = "image/png"
	MimeTypeGIF  = "image/gif"
	MimeTypeWebP = "image/webp"
	MimeTypePDF  = "application/pdf"
	MimeTypeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
)

// DetectMimeType detects the MIME type of upload data.
func DetectMimeType(data []byte) string {
	contentType := http.DetectContentType(data)
	// http.DetectContentType returns types like "text/plain; charset=utf-8"
	if idx := strings.Index(contentType, ";"); idx != -1 {
		contentType = contentType[:idx]
	}
	return contentType
}

// DocumentType returns the MIME type of a play script upload, or "" when it
// is neither a PDF nor a DOCX file. DOCX is a zip archive, so the extension
// and the word/ part name are both checked.
func DocumentType(data []byte, filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	switch DetectMimeType(data) {
	case MimeTypePDF:
		if ext == ".pdf" {
			return MimeTypePDF
		}
	case "application/zip":
		if ext == ".docx" && bytes.Contains(data, []byte("word/")) {
			return MimeTypeDOCX
		}
	}
	return ""
}

// detectFormat detects the image format from raw bytes.
func detectFormat(data []byte) string {
	contentType := DetectMimeType(data)
	// Explicitly reject TIFF (CVE-2023-36308 in disintegration/imaging)
	if strings.Contains(contentType, "tiff") {
		return ""
	}
	switch contentType {
	case MimeTypeJPEG:
		return "jpeg"
	case MimeTypePNG:
		return "png"
	case MimeTypeGIF:
		return "gif"
	case MimeTypeWebP:
		return "webp"
	default:
		return ""
	}
}
