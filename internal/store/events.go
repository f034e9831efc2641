// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Event levels
const (
	EventLevelInfo    = "info"
	EventLevelWarning = "warning"
	EventLevelError   = "error"
)

// Event categories
const (
	EventCategoryAuth    = "auth"
	EventCategoryUser    = "user"
	EventCategoryPlay    = "play"
	EventCategoryBackend = "backend"
	EventCategorySystem  = "system"
)

// Event is one event log entry.
type Event struct {
	ID        int64
	Level     string
	Category  string
	Message   string
	UserID    string
	RequestID string
	Metadata  string // JSON object
	CreatedAt time.Time
}

// Events reads and writes the event log table.
type Events struct {
	db *sql.DB
}

// NewEvents creates an Events store over a migrated database.
func NewEvents(db *sql.DB) *Events {
	return &Events{db: db}
}

// Create inserts e and returns its id. ID is ignored.
func (s *Events) Create(ctx context.Context, e Event) (int64, error) {
	if e.Metadata == "" {
		e.Metadata = "{}"
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO events (level, category, message, user_id, request_id, metadata, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.Level, e.Category, e.Message, e.UserID, e.RequestID, e.Metadata, e.CreatedAt.UTC())
	if err != nil {
		return 0, fmt.Errorf("inserting event: %w", err)
	}
	return res.LastInsertId()
}

// Recent returns up to limit events, newest first. An empty level matches
// every level.
func (s *Events) Recent(ctx context.Context, level string, limit int) ([]Event, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, level, category, message, user_id, request_id, metadata, created_at
		 FROM events
		 WHERE ? = '' OR level = ?
		 ORDER BY created_at DESC, id DESC
		 LIMIT ?`,
		level, level, limit)
	if err != nil {
		return nil, fmt.Errorf("listing events: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var events []Event
	for rows.Next() {
		var e Event
		if err := rows.Scan(&e.ID, &e.Level, &e.Category, &e.Message, &e.UserID, &e.RequestID, &e.Metadata, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning event: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// DeleteBefore removes events created before cutoff and returns how many
// were removed.
func (s *Events) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM events WHERE created_at < ?`, cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("deleting events: %w", err)
	}
	return res.RowsAffected()
}
