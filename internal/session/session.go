// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package session configures the browser-facing session manager.
package session

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/alexedwards/scs/sqlite3store"
	"github.com/alexedwards/scs/v2"
)

// Session keys.
const (
	KeyBackendCookies = "backend_cookies"
	KeyUserID         = "user_id"
	KeyFlash          = "flash"
	KeyFlashType      = "flash_type"
	KeyAccountCreated = "account_created"
)

// New creates a new session manager configured with SQLite store.
func New(db *sql.DB, isDev bool) *scs.SessionManager {
	sm := scs.New()

	sm.Store = sqlite3store.New(db)

	sm.Lifetime = 24 * time.Hour
	sm.Cookie.HttpOnly = true
	sm.Cookie.SameSite = http.SameSiteLaxMode
	sm.Cookie.Secure = !isDev
	if !isDev {
		// __Host- requires Secure, Path=/ and no Domain
		sm.Cookie.Name = "__Host-session"
		sm.Cookie.Path = "/"
	}

	return sm
}

// BackendCookies returns the backend cookie pairs ("name=value") saved at login.
func BackendCookies(ctx context.Context, sm *scs.SessionManager) []string {
	pairs, _ := sm.Get(ctx, KeyBackendCookies).([]string)
	return pairs
}

// PutBackendCookies stores the backend cookie pairs in the session.
func PutBackendCookies(ctx context.Context, sm *scs.SessionManager, pairs []string) {
	sm.Put(ctx, KeyBackendCookies, pairs)
}
