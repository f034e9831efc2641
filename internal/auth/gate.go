// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package auth

import (
	"context"
	"log/slog"

	"github.com/olegiv/mpdb-web/internal/apiclient"
)

// LoginPath is where every failed gate decision points.
const LoginPath = "/login"

// Decision is the outcome of a gate check. Exactly one of Identity and
// Redirect is set.
type Decision struct {
	Identity *Identity
	Redirect string
	// Err is the reason for a redirect, nil when the jar was simply empty
	// or the level too low.
	Err error
}

// Allowed reports whether the guarded content may be rendered.
func (d Decision) Allowed() bool {
	return d.Identity != nil
}

// Gate guards pages that need a signed-in user.
type Gate struct {
	provider SessionProvider
}

// NewGate creates a Gate.
func NewGate(provider SessionProvider) *Gate {
	return &Gate{provider: provider}
}

// Resolve asks the provider who the jar belongs to and decides. Network
// failures, 401s and missing identities all redirect to login, as does an
// identity below minLevel. There is no retry.
func (g *Gate) Resolve(ctx context.Context, jar apiclient.Jar, minLevel int) Decision {
	id, err := g.provider.Current(ctx, jar)
	if err != nil {
		if apiclient.IsUnauthorized(err) {
			g.provider.Invalidate(ctx, jar)
		}
		return redirect(err)
	}
	if id == nil {
		return redirect(ErrNoIdentity)
	}
	if minLevel > 0 && id.Account < minLevel {
		slog.Warn("account level too low", "user_id", id.ID, "account", id.Account, "required", minLevel)
		return redirect(nil)
	}
	return Decision{Identity: id}
}

func redirect(err error) Decision {
	return Decision{Redirect: LoginPath, Err: err}
}
