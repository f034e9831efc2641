// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package apiclient talks to the MPDB backend REST API on behalf of a
// browser session. Every call forwards that session's backend cookies
// and turns non-2xx responses into *HTTPError.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

// maxResponseBytes bounds how much of a backend response is read.
const maxResponseBytes = 10 << 20

// Config holds client configuration.
type Config struct {
	BaseURL   string
	Timeout   time.Duration
	UserAgent string
	// HTTPClient overrides the default client (tests).
	HTTPClient *http.Client
}

// Client is safe for concurrent use.
type Client struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
}

// New creates a new backend client.
func New(cfg Config) *Client {
	hc := cfg.HTTPClient
	if hc == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 15 * time.Second
		}
		hc = &http.Client{
			Timeout: timeout,
			// the backend's redirects are not meaningful to a server-side caller
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		}
	}

	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		userAgent:  cfg.UserAgent,
		httpClient: hc,
	}
}

// BaseURL returns the backend base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// File is one file part of a multipart request.
type File struct {
	Field       string
	Filename    string
	ContentType string
	Data        []byte
}

// Multipart is a multipart/form-data body. Empty field values are skipped
// unless KeepEmpty is set.
type Multipart struct {
	Fields    [][2]string
	Files     []File
	KeepEmpty bool
}

// Add appends a text field.
func (m *Multipart) Add(name, value string) {
	m.Fields = append(m.Fields, [2]string{name, value})
}

func (m *Multipart) encode() (*bytes.Buffer, string, error) {
	buf := new(bytes.Buffer)
	w := multipart.NewWriter(buf)

	for _, f := range m.Fields {
		if f[1] == "" && !m.KeepEmpty {
			continue
		}
		if err := w.WriteField(f[0], f[1]); err != nil {
			return nil, "", err
		}
	}

	for _, f := range m.Files {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, f.Field, f.Filename))
		ct := f.ContentType
		if ct == "" {
			ct = "application/octet-stream"
		}
		h.Set("Content-Type", ct)
		part, err := w.CreatePart(h)
		if err != nil {
			return nil, "", err
		}
		if _, err := part.Write(f.Data); err != nil {
			return nil, "", err
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf, w.FormDataContentType(), nil
}

// request describes one backend call.
type request struct {
	method    string
	path      string
	query     url.Values
	jsonBody  any
	multipart *Multipart
	jar       Jar
}

// response is the part of a backend response callers may need.
type response struct {
	status int
	header http.Header
	raw    *http.Response
	body   []byte
}

// send performs the request. Transport failures wrap ErrUnavailable and
// statuses >= 400 become *HTTPError.
func (c *Client) send(ctx context.Context, r request) (*response, error) {
	u := c.baseURL + r.path
	if len(r.query) > 0 {
		u += "?" + r.query.Encode()
	}

	var (
		body        io.Reader
		contentType string
	)
	switch {
	case r.multipart != nil:
		buf, ct, err := r.multipart.encode()
		if err != nil {
			return nil, fmt.Errorf("encoding multipart body: %w", err)
		}
		body, contentType = buf, ct
	case r.jsonBody != nil:
		data, err := json.Marshal(r.jsonBody)
		if err != nil {
			return nil, fmt.Errorf("encoding json body: %w", err)
		}
		body, contentType = bytes.NewReader(data), "application/json"
	}

	req, err := http.NewRequestWithContext(ctx, r.method, u, body)
	if err != nil {
		return nil, fmt.Errorf("building request %s %s: %w", r.method, r.path, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID(ctx))
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if !r.jar.Empty() {
		req.Header.Set("Cookie", r.jar.Header())
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		slog.Error("backend request failed",
			"method", r.method, "path", r.path, "error", err)
		return nil, fmt.Errorf("%s %s: %w: %w", r.method, r.path, ErrUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("%s %s: reading body: %w: %w", r.method, r.path, ErrUnavailable, err)
	}

	slog.Debug("backend request",
		"method", r.method, "path", r.path, "status", resp.StatusCode,
		"duration", time.Since(start).Round(time.Millisecond))

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, &HTTPError{
			Status:  resp.StatusCode,
			Message: extractMessage(resp.Header.Get("Content-Type"), data),
		}
	}

	return &response{status: resp.StatusCode, header: resp.Header, raw: resp, body: data}, nil
}

// call sends the request and decodes a JSON body into out when out is non-nil.
func (c *Client) call(ctx context.Context, r request, out any) (*response, error) {
	resp, err := c.send(ctx, r)
	if err != nil {
		return nil, err
	}
	if out != nil && len(bytes.TrimSpace(resp.body)) > 0 {
		if err := json.Unmarshal(resp.body, out); err != nil {
			return nil, fmt.Errorf("%s %s: decoding response: %w: %w", r.method, r.path, ErrUnavailable, err)
		}
	}
	return resp, nil
}

// requestID reuses the inbound chi request id so both logs correlate.
func requestID(ctx context.Context) string {
	if id := chimw.GetReqID(ctx); id != "" {
		return id
	}
	return uuid.NewString()
}
