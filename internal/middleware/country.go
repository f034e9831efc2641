// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"context"
	"net/http"
)

// CountryLookup maps a client IP to a country code.
type CountryLookup interface {
	LookupCountry(ip string) string
}

// Country stores the client's country code in the request context. The
// logging handler adds it to every record, so failed logins and denied
// pages in the event log show where they came from.
func Country(lookup CountryLookup) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if code := lookup.LookupCountry(ClientIP(r)); code != "" {
				r = r.WithContext(context.WithValue(r.Context(), ContextKeyCountry, code))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// GetCountry returns the country code stored by Country, or "".
func GetCountry(ctx context.Context) string {
	code, _ := ctx.Value(ContextKeyCountry).(string)
	return code
}
