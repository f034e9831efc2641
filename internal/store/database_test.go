// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
)

func TestNewDB_FileDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "mpdb.db")

	db, err := NewDB(path)
	if err != nil {
		t.Fatalf("NewDB() error: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	var mode string
	if err := db.QueryRow("PRAGMA journal_mode").Scan(&mode); err != nil {
		t.Fatalf("reading journal_mode: %v", err)
	}
	if mode != "wal" {
		t.Errorf("journal_mode = %q, want wal", mode)
	}

	// pragmas are per connection; hold two at once so both are checked
	ctx := context.Background()
	conns := make([]*sql.Conn, 2)
	for i := range conns {
		c, err := db.Conn(ctx)
		if err != nil {
			t.Fatalf("Conn: %v", err)
		}
		defer func() { _ = c.Close() }()
		conns[i] = c
	}
	for i, c := range conns {
		var timeout int
		if err := c.QueryRowContext(ctx, "PRAGMA busy_timeout").Scan(&timeout); err != nil {
			t.Fatalf("connection %d: %v", i, err)
		}
		if timeout != 5000 {
			t.Errorf("connection %d busy_timeout = %d, want 5000", i, timeout)
		}
	}
}

func TestMigrate(t *testing.T) {
	db, err := NewDB(MemoryDB)
	if err != nil {
		t.Fatalf("NewDB() error: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	ctx := context.Background()

	n, err := Migrate(ctx, db)
	if err != nil {
		t.Fatalf("Migrate() error: %v", err)
	}
	if n != 2 {
		t.Errorf("first run applied %d migrations, want 2", n)
	}
	if n, err := Migrate(ctx, db); err != nil || n != 0 {
		t.Errorf("second run = %d, %v; want 0, nil", n, err)
	}

	if _, err := db.Exec(`INSERT INTO sessions (token, data, expiry) VALUES ('t1', x'00', 1e12)`); err != nil {
		t.Fatalf("inserting into sessions: %v", err)
	}
	var count int
	if err := db.QueryRow(`SELECT COUNT(*) FROM events`).Scan(&count); err != nil {
		t.Fatalf("events table: %v", err)
	}
}
