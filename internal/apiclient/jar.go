// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package apiclient

import (
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"sort"
	"strings"
	"time"
)

// Jar is the set of backend cookies held for one browser session,
// stored as "name=value" pairs. The browser never sees these cookies.
type Jar []string

// Empty reports whether the jar has no cookies.
func (j Jar) Empty() bool {
	return len(j) == 0
}

// Header returns the value for a Cookie request header.
func (j Jar) Header() string {
	return strings.Join(j, "; ")
}

// Key returns a stable digest of the jar, used as a cache key so raw
// credentials never end up in the cache.
func (j Jar) Key() string {
	if j.Empty() {
		return ""
	}
	sorted := append([]string(nil), j...)
	sort.Strings(sorted)
	sum := sha256.Sum256([]byte(strings.Join(sorted, "\n")))
	return hex.EncodeToString(sum[:])
}

// Value returns the value of the named cookie.
func (j Jar) Value(name string) (string, bool) {
	prefix := name + "="
	for _, pair := range j {
		if strings.HasPrefix(pair, prefix) {
			return pair[len(prefix):], true
		}
	}
	return "", false
}

// Merge applies Set-Cookie headers from resp to the jar and returns the
// result. Cookies the backend expires are removed.
func (j Jar) Merge(resp *http.Response) Jar {
	cookies := resp.Cookies()
	if len(cookies) == 0 {
		return j
	}

	now := time.Now()
	merged := make(map[string]string, len(j)+len(cookies))
	order := make([]string, 0, len(j)+len(cookies))
	for _, pair := range j {
		name, value, _ := strings.Cut(pair, "=")
		if _, seen := merged[name]; !seen {
			order = append(order, name)
		}
		merged[name] = value
	}

	for _, c := range cookies {
		if c.MaxAge < 0 || c.Value == "" || (!c.Expires.IsZero() && c.Expires.Before(now)) {
			delete(merged, c.Name)
			continue
		}
		if _, seen := merged[c.Name]; !seen {
			order = append(order, c.Name)
		}
		merged[c.Name] = c.Value
	}

	out := make(Jar, 0, len(merged))
	for _, name := range order {
		if value, ok := merged[name]; ok {
			out = append(out, name+"="+value)
		}
	}
	return out
}
