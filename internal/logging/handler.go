// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package logging provides the slog handlers used by the server: request
// correlation for every record, and an event log that keeps WARN and above
// in the database for administrators.
package logging

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"strings"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/olegiv/mpdb-web/internal/middleware"
	"github.com/olegiv/mpdb-web/internal/store"
)

// eventWriteTimeout bounds one event insert.
const eventWriteTimeout = 2 * time.Second

// ParseLevel maps a config value to a slog level. Unknown values are info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// New builds the server logger: text output to w, request attributes on
// every record, and WARN+ copied to events when events is non-nil.
func New(w io.Writer, level slog.Level, events EventWriter) *slog.Logger {
	var h slog.Handler = slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	if events != nil {
		h = NewEventLogHandler(h, events)
	}
	return slog.New(NewRequestHandler(h))
}

// RequestHandler adds request_id and path from the context to every record
// logged with a request context.
type RequestHandler struct {
	inner slog.Handler
}

// NewRequestHandler wraps inner.
func NewRequestHandler(inner slog.Handler) *RequestHandler {
	return &RequestHandler{inner: inner}
}

// Enabled implements slog.Handler.
func (h *RequestHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

// Handle implements slog.Handler.
func (h *RequestHandler) Handle(ctx context.Context, r slog.Record) error {
	if ctx != nil {
		if id := chimw.GetReqID(ctx); id != "" {
			r.AddAttrs(slog.String("request_id", id))
		}
		if path := middleware.GetRequestPath(ctx); path != "" && !hasAttr(r, "path") {
			r.AddAttrs(slog.String("path", path))
		}
		if country := middleware.GetCountry(ctx); country != "" {
			r.AddAttrs(slog.String("country", country))
		}
	}
	return h.inner.Handle(ctx, r)
}

// WithAttrs implements slog.Handler.
func (h *RequestHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &RequestHandler{inner: h.inner.WithAttrs(attrs)}
}

// WithGroup implements slog.Handler.
func (h *RequestHandler) WithGroup(name string) slog.Handler {
	return &RequestHandler{inner: h.inner.WithGroup(name)}
}

func hasAttr(r slog.Record, key string) bool {
	found := false
	r.Attrs(func(a slog.Attr) bool {
		if a.Key == key {
			found = true
			return false
		}
		return true
	})
	return found
}

// EventWriter stores event log entries.
type EventWriter interface {
	Create(ctx context.Context, e store.Event) (int64, error)
}

// EventLogHandler is a slog.Handler that wraps another handler and also writes
// WARN and ERROR level logs to the event log.
type EventLogHandler struct {
	inner  slog.Handler
	events EventWriter
	level  slog.Level // Minimum level to forward to the event log (default: WARN)
	attrs  []slog.Attr
}

// NewEventLogHandler creates a new EventLogHandler that wraps the given handler.
// Logs at WARN level and above will be written to both the wrapped handler and the event log.
func NewEventLogHandler(inner slog.Handler, events EventWriter) *EventLogHandler {
	return NewEventLogHandlerWithLevel(inner, events, slog.LevelWarn)
}

// NewEventLogHandlerWithLevel creates a new EventLogHandler with a custom minimum level.
func NewEventLogHandlerWithLevel(inner slog.Handler, events EventWriter, level slog.Level) *EventLogHandler {
	return &EventLogHandler{
		inner:  inner,
		events: events,
		level:  level,
	}
}

// Enabled implements slog.Handler.
func (h *EventLogHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

// Handle implements slog.Handler.
func (h *EventLogHandler) Handle(ctx context.Context, r slog.Record) error {
	// Always forward to the inner handler first
	if err := h.inner.Handle(ctx, r); err != nil {
		return err
	}

	if r.Level >= h.level {
		h.writeEvent(ctx, r)
	}
	return nil
}

// WithAttrs implements slog.Handler.
func (h *EventLogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &EventLogHandler{
		inner:  h.inner.WithAttrs(attrs),
		events: h.events,
		level:  h.level,
		attrs:  append(append([]slog.Attr(nil), h.attrs...), attrs...),
	}
}

// WithGroup implements slog.Handler.
func (h *EventLogHandler) WithGroup(name string) slog.Handler {
	return &EventLogHandler{
		inner:  h.inner.WithGroup(name),
		events: h.events,
		level:  h.level,
		attrs:  h.attrs,
	}
}

// writeEvent stores r. A failed insert is dropped: logging it would recurse.
func (h *EventLogHandler) writeEvent(ctx context.Context, r slog.Record) {
	e := store.Event{
		Level:     eventLevel(r.Level),
		Message:   r.Message,
		CreatedAt: r.Time,
	}

	meta := make(map[string]string)
	collect := func(a slog.Attr) bool {
		switch a.Key {
		case "category":
			e.Category = a.Value.String()
		case "user_id":
			e.UserID = a.Value.String()
		case "request_id":
			e.RequestID = a.Value.String()
		default:
			meta[a.Key] = a.Value.Resolve().String()
		}
		return true
	}
	for _, a := range h.attrs {
		collect(a)
	}
	r.Attrs(collect)

	if e.Category == "" {
		e.Category = inferCategory(r.Message)
	}
	if e.RequestID == "" && ctx != nil {
		e.RequestID = chimw.GetReqID(ctx)
	}
	if data, err := json.Marshal(meta); err == nil {
		e.Metadata = string(data)
	}

	// the request may already be cancelled; the event should still land
	base := context.Background()
	if ctx != nil {
		base = context.WithoutCancel(ctx)
	}
	wctx, cancel := context.WithTimeout(base, eventWriteTimeout)
	defer cancel()
	_, _ = h.events.Create(wctx, e)
}

// eventLevel converts a slog.Level to an event log level.
func eventLevel(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return store.EventLevelError
	case level >= slog.LevelWarn:
		return store.EventLevelWarning
	default:
		return store.EventLevelInfo
	}
}

// inferCategory guesses a category from the message.
func inferCategory(msg string) string {
	msg = strings.ToLower(msg)
	switch {
	case containsAny(msg, "login", "logout", "access denied", "csrf", "session", "auth"):
		return store.EventCategoryAuth
	case strings.Contains(msg, "backend"):
		return store.EventCategoryBackend
	case strings.Contains(msg, "play"):
		return store.EventCategoryPlay
	case containsAny(msg, "user", "profile", "account"):
		return store.EventCategoryUser
	default:
		return store.EventCategorySystem
	}
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
