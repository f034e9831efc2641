// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package search

import (
	"time"

	"github.com/olegiv/mpdb-web/internal/ratelimit"
)

// DefaultCooldown is the minimum gap between two explicit searches from
// one session.
const DefaultCooldown = time.Second

// Cooldown is a per-session token: one search per window. The token comes
// back on its own after the window, however long the search takes.
type Cooldown struct {
	limiters *ratelimit.Limiters[string]
}

// NewCooldown creates a Cooldown with the given window.
func NewCooldown(window time.Duration) *Cooldown {
	if window <= 0 {
		window = DefaultCooldown
	}
	return &Cooldown{limiters: ratelimit.Every[string](window)}
}

// Take consumes the token for key. It returns false while the key is
// cooling down.
func (c *Cooldown) Take(key string) bool {
	return c.TakeAt(key, time.Now())
}

// TakeAt is Take at a given instant.
func (c *Cooldown) TakeAt(key string, now time.Time) bool {
	c.limiters.ClearIfExceeds(ratelimit.DefaultMaxKeys)
	return c.limiters.AllowAt(key, now)
}
