// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/alexedwards/scs/v2"

	"github.com/olegiv/mpdb-web/internal/apiclient"
	"github.com/olegiv/mpdb-web/internal/auth"
	"github.com/olegiv/mpdb-web/internal/session"
)

// ContextKey is a type for context keys to avoid collisions.
type ContextKey string

// Context keys for request data.
const (
	ContextKeyIdentity    ContextKey = "identity"
	ContextKeyRequestPath ContextKey = "request_path"
	ContextKeyCountry     ContextKey = "country"
)

// SessionJar returns the backend cookie jar stored in the browser session.
func SessionJar(sm *scs.SessionManager, r *http.Request) apiclient.Jar {
	return apiclient.Jar(session.BackendCookies(r.Context(), sm))
}

// RequireIdentity guards a route with the auth gate. Anything but an
// allowed identity answers 303 to the login page, so no guarded HTML is
// written before the decision. minLevel 0 admits every signed-in user.
func RequireIdentity(gate *auth.Gate, sm *scs.SessionManager, minLevel int) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			d := gate.Resolve(ctx, SessionJar(sm, r), minLevel)
			if !d.Allowed() {
				if apiclient.IsUnauthorized(d.Err) {
					// the backend session is gone, drop our copy of it
					sm.Remove(ctx, session.KeyBackendCookies)
					sm.Remove(ctx, session.KeyUserID)
				}
				slog.Warn("access denied",
					"method", r.Method,
					"path", r.URL.Path,
					"ip", ClientIP(r),
					"user_id", sm.GetString(ctx, session.KeyUserID),
					"required_level", minLevel,
					"error", d.Err,
				)
				http.Redirect(w, r, d.Redirect, http.StatusSeeOther)
				return
			}

			if sm.GetString(ctx, session.KeyUserID) != d.Identity.ID {
				sm.Put(ctx, session.KeyUserID, d.Identity.ID)
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(ctx, d.Identity)))
		})
	}
}

// OptionalIdentity loads the identity when the session has backend
// cookies, for public pages that still show the signed-in header. It never
// redirects.
func OptionalIdentity(provider auth.SessionProvider, sm *scs.SessionManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			jar := SessionJar(sm, r)
			if jar.Empty() {
				next.ServeHTTP(w, r)
				return
			}

			id, err := provider.Current(r.Context(), jar)
			if err != nil {
				slog.Debug("optional identity not resolved", "path", r.URL.Path, "error", err)
				next.ServeHTTP(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
		})
	}
}

// WithIdentity returns a copy of ctx carrying the identity.
func WithIdentity(ctx context.Context, id *auth.Identity) context.Context {
	return context.WithValue(ctx, ContextKeyIdentity, id)
}

// GetIdentity retrieves the current identity from the request context.
// Returns nil if no identity is in context.
func GetIdentity(r *http.Request) *auth.Identity {
	id, _ := r.Context().Value(ContextKeyIdentity).(*auth.Identity)
	return id
}

// GetUserID returns the current identity's ID, or "" if not found.
// Safe to use in logging where a zero-value is acceptable.
func GetUserID(r *http.Request) string {
	if id := GetIdentity(r); id != nil {
		return id.ID
	}
	return ""
}

// RequestPath creates middleware that stores the request path in the context.
// The logging handler includes it in every record.
func RequestPath(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := context.WithValue(r.Context(), ContextKeyRequestPath, r.URL.Path)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetRequestPath retrieves the request path from the context.
func GetRequestPath(ctx context.Context) string {
	path, ok := ctx.Value(ContextKeyRequestPath).(string)
	if !ok {
		return ""
	}
	return path
}
