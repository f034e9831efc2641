// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package apiclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Error represents an error type for API client operations.
type Error string

func (e Error) Error() string {
	return string(e)
}

// ErrUnavailable wraps transport failures: the backend could not be reached
// or the response could not be read.
const ErrUnavailable Error = "backend unavailable"

// Fallback messages shown to users.
const (
	MsgGeneric     = "Something went wrong. Please try again."
	MsgServerError = "Server error. Please try again later."
)

// HTTPError is returned for any backend response with status >= 400.
type HTTPError struct {
	Status int
	// Message is the backend's own explanation, empty when the body had none.
	Message string
}

func (e *HTTPError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("backend returned %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("backend returned %d", e.Status)
}

// IsUnauthorized reports whether err is a 401 from the backend.
func IsUnauthorized(err error) bool {
	return StatusOf(err) == http.StatusUnauthorized
}

// IsNotFound reports whether err is a 404 from the backend.
func IsNotFound(err error) bool {
	return StatusOf(err) == http.StatusNotFound
}

// StatusOf returns the backend status carried by err, or 0.
func StatusOf(err error) int {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Status
	}
	return 0
}

// UserMessage maps err to the text shown inline next to a form.
// Backend messages win; transport failures get the server error text.
func UserMessage(err error) string {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		if httpErr.Message != "" {
			return httpErr.Message
		}
		if httpErr.Status >= http.StatusInternalServerError {
			return MsgServerError
		}
		return MsgGeneric
	}
	if errors.Is(err, ErrUnavailable) {
		return MsgServerError
	}
	return MsgGeneric
}

// maxPlainMessage bounds how much of a non-JSON body is shown to users.
const maxPlainMessage = 300

// extractMessage pulls a human-readable message out of an error body.
// JSON bodies are searched for message, msg and error; short plain-text
// bodies are used as-is.
func extractMessage(contentType string, body []byte) string {
	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" {
		return ""
	}

	if strings.HasPrefix(trimmed, "{") {
		var fields map[string]any
		if err := json.Unmarshal(body, &fields); err == nil {
			for _, key := range []string{"message", "msg", "error"} {
				if s, ok := fields[key].(string); ok && strings.TrimSpace(s) != "" {
					return strings.TrimSpace(s)
				}
			}
			if nested, ok := fields["error"].(map[string]any); ok {
				if s, ok := nested["message"].(string); ok {
					return strings.TrimSpace(s)
				}
			}
		}
		return ""
	}

	if strings.Contains(contentType, "html") || strings.HasPrefix(trimmed, "<") {
		return ""
	}
	if len(trimmed) > maxPlainMessage {
		return ""
	}
	return trimmed
}
