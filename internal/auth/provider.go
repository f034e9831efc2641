// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package auth

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/olegiv/mpdb-web/internal/apiclient"
	"github.com/olegiv/mpdb-web/internal/cache"
)

// Error represents an error type for auth operations.
type Error string

func (e Error) Error() string {
	return string(e)
}

// ErrNoIdentity is returned when the browser session has no backend
// cookies, or the backend answered without a user.
const ErrNoIdentity Error = "no identity"

// DefaultIdentityTTL is used when the provider is created with ttl <= 0.
const DefaultIdentityTTL = 5 * time.Minute

// SessionProvider is the process-wide source of the current identity.
type SessionProvider interface {
	// Current returns the identity the jar belongs to.
	Current(ctx context.Context, jar apiclient.Jar) (*Identity, error)
	// Invalidate forgets the cached identity for the jar.
	Invalidate(ctx context.Context, jar apiclient.Jar)
}

// Backend is the part of the API client the provider needs.
type Backend interface {
	Profile(ctx context.Context, jar apiclient.Jar) (*apiclient.User, error)
	Check(ctx context.Context, jar apiclient.Jar) (*apiclient.User, error)
}

// Provider fetches the identity once per cookie jar and shares it between
// requests until its TTL or the backend token expires.
type Provider struct {
	backend    Backend
	identities *cache.TypedCache[Identity]
	ttl        time.Duration
	now        func() time.Time
}

// NewProvider creates a Provider caching identities in c.
func NewProvider(backend Backend, c cache.Cache, ttl time.Duration) *Provider {
	if ttl <= 0 {
		ttl = DefaultIdentityTTL
	}
	return &Provider{
		backend:    backend,
		identities: cache.NewTypedCache[Identity](c, "identity:", ttl),
		ttl:        ttl,
		now:        time.Now,
	}
}

// Current implements SessionProvider. Backend errors are returned wrapped,
// so apiclient.IsUnauthorized still works on them.
func (p *Provider) Current(ctx context.Context, jar apiclient.Jar) (*Identity, error) {
	if jar.Empty() {
		return nil, ErrNoIdentity
	}

	return p.identities.GetOrSetWithTTL(ctx, jar.Key(), func() (*Identity, time.Duration, error) {
		id, err := p.fetch(ctx, jar)
		if err != nil {
			return nil, 0, err
		}
		return id, p.ttlFor(jar), nil
	})
}

// Invalidate implements SessionProvider.
func (p *Provider) Invalidate(ctx context.Context, jar apiclient.Jar) {
	if jar.Empty() {
		return
	}
	if err := p.identities.Delete(ctx, jar.Key()); err != nil {
		slog.Warn("failed to invalidate identity", "error", err)
	}
}

func (p *Provider) fetch(ctx context.Context, jar apiclient.Jar) (*Identity, error) {
	user, err := p.backend.Profile(ctx, jar)
	if apiclient.IsNotFound(err) {
		user, err = p.backend.Check(ctx, jar)
	}
	if err != nil {
		return nil, fmt.Errorf("resolving identity: %w", err)
	}
	if user == nil || user.ID == "" {
		return nil, ErrNoIdentity
	}
	return user, nil
}

// ttlFor bounds the configured TTL by the earliest exp claim found in the
// jar's cookies. Tokens are parsed without verification; the backend
// verifies them on every call, this only avoids caching past expiry.
func (p *Provider) ttlFor(jar apiclient.Jar) time.Duration {
	ttl := p.ttl
	parser := jwt.NewParser()

	for _, pair := range jar {
		_, value, _ := strings.Cut(pair, "=")
		if strings.Count(value, ".") != 2 {
			continue
		}

		claims := jwt.MapClaims{}
		if _, _, err := parser.ParseUnverified(value, claims); err != nil {
			continue
		}
		exp, err := claims.GetExpirationTime()
		if err != nil || exp == nil {
			continue
		}
		if remaining := exp.Sub(p.now()); remaining < ttl {
			ttl = remaining
		}
	}

	return ttl
}
