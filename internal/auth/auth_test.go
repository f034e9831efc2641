// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package auth

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/mpdb-web/internal/apiclient"
	"github.com/olegiv/mpdb-web/internal/cache"
)

type fakeBackend struct {
	profile    *apiclient.User
	profileErr error
	check      *apiclient.User
	checkErr   error

	profileCalls atomic.Int32
	checkCalls   atomic.Int32
}

func (f *fakeBackend) Profile(context.Context, apiclient.Jar) (*apiclient.User, error) {
	f.profileCalls.Add(1)
	return f.profile, f.profileErr
}

func (f *fakeBackend) Check(context.Context, apiclient.Jar) (*apiclient.User, error) {
	f.checkCalls.Add(1)
	return f.check, f.checkErr
}

func newTestProvider(t *testing.T, b Backend) *Provider {
	t.Helper()
	c := cache.NewMemoryCache(cache.MemoryCacheOptions{DefaultTTL: time.Minute})
	t.Cleanup(func() { _ = c.Close() })
	return NewProvider(b, c, time.Minute)
}

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "u1", "exp": exp.Unix()})
	s, err := tok.SignedString([]byte("backend-secret"))
	require.NoError(t, err)
	return s
}

func TestLevels(t *testing.T) {
	tests := []struct {
		account    int
		admin      bool
		canPublish bool
	}{
		{LevelBasic, false, false},
		{LevelPlaywright, false, false},
		{LevelLocked, false, false},
		{LevelUnlocked, false, true},
		{LevelAdmin, true, true},
	}

	for _, tt := range tests {
		t.Run(LevelName(tt.account), func(t *testing.T) {
			id := &Identity{ID: "u1", Account: tt.account}
			assert.Equal(t, tt.admin, IsAdmin(id))
			assert.Equal(t, tt.canPublish, CanPublish(id))
		})
	}

	assert.False(t, IsAdmin(nil))
	assert.False(t, CanPublish(nil))
	assert.False(t, ValidLevel(5))
	assert.True(t, ValidLevel(0))
}

func TestCanEdit(t *testing.T) {
	owner := &Identity{ID: "u1", Account: LevelUnlocked}
	other := &Identity{ID: "u2", Account: LevelUnlocked}
	admin := &Identity{ID: "u3", Account: LevelAdmin}

	assert.True(t, CanEdit(owner, "u1"))
	assert.False(t, CanEdit(other, "u1"))
	assert.True(t, CanEdit(admin, "u1"))
	assert.False(t, CanEdit(&Identity{}, ""), "empty ids never match")
	assert.False(t, CanEdit(nil, "u1"))
}

func TestProvider_CachesPerJar(t *testing.T) {
	b := &fakeBackend{profile: &apiclient.User{ID: "u1", Account: LevelAdmin}}
	p := newTestProvider(t, b)
	ctx := context.Background()
	jar := apiclient.Jar{"token=abc"}

	for range 3 {
		id, err := p.Current(ctx, jar)
		require.NoError(t, err)
		assert.Equal(t, "u1", id.ID)
	}
	assert.Equal(t, int32(1), b.profileCalls.Load())

	_, err := p.Current(ctx, apiclient.Jar{"token=other"})
	require.NoError(t, err)
	assert.Equal(t, int32(2), b.profileCalls.Load())
}

func TestProvider_Invalidate(t *testing.T) {
	b := &fakeBackend{profile: &apiclient.User{ID: "u1"}}
	p := newTestProvider(t, b)
	ctx := context.Background()
	jar := apiclient.Jar{"token=abc"}

	_, err := p.Current(ctx, jar)
	require.NoError(t, err)
	p.Invalidate(ctx, jar)
	_, err = p.Current(ctx, jar)
	require.NoError(t, err)

	assert.Equal(t, int32(2), b.profileCalls.Load())
}

func TestProvider_FallsBackToCheck(t *testing.T) {
	b := &fakeBackend{
		profileErr: &apiclient.HTTPError{Status: http.StatusNotFound},
		check:      &apiclient.User{ID: "u9"},
	}
	p := newTestProvider(t, b)

	id, err := p.Current(context.Background(), apiclient.Jar{"token=abc"})
	require.NoError(t, err)
	assert.Equal(t, "u9", id.ID)
	assert.Equal(t, int32(1), b.checkCalls.Load())
}

func TestProvider_Errors(t *testing.T) {
	ctx := context.Background()

	t.Run("empty jar", func(t *testing.T) {
		b := &fakeBackend{}
		_, err := newTestProvider(t, b).Current(ctx, nil)
		assert.ErrorIs(t, err, ErrNoIdentity)
		assert.Equal(t, int32(0), b.profileCalls.Load())
	})

	t.Run("no user", func(t *testing.T) {
		_, err := newTestProvider(t, &fakeBackend{}).Current(ctx, apiclient.Jar{"token=x"})
		assert.ErrorIs(t, err, ErrNoIdentity)
	})

	t.Run("unauthorized is not cached", func(t *testing.T) {
		b := &fakeBackend{profileErr: &apiclient.HTTPError{Status: http.StatusUnauthorized}}
		p := newTestProvider(t, b)
		for range 2 {
			_, err := p.Current(ctx, apiclient.Jar{"token=x"})
			assert.True(t, apiclient.IsUnauthorized(err))
		}
		assert.Equal(t, int32(2), b.profileCalls.Load())
	})
}

func TestProvider_TTLBoundedByTokenExpiry(t *testing.T) {
	p := newTestProvider(t, &fakeBackend{})
	now := time.Now()
	p.now = func() time.Time { return now }

	short := signedToken(t, now.Add(20*time.Second))
	ttl := p.ttlFor(apiclient.Jar{"theme=dark", "token=" + short})
	assert.InDelta(t, (20 * time.Second).Seconds(), ttl.Seconds(), 1)

	long := signedToken(t, now.Add(time.Hour))
	assert.Equal(t, time.Minute, p.ttlFor(apiclient.Jar{"token=" + long}))

	assert.Equal(t, time.Minute, p.ttlFor(apiclient.Jar{"token=not.a.jwt"}))

	expired := signedToken(t, now.Add(-time.Minute))
	assert.LessOrEqual(t, p.ttlFor(apiclient.Jar{"token=" + expired}), time.Duration(0))
}

type stubProvider struct {
	id          *Identity
	err         error
	invalidated int
}

func (s *stubProvider) Current(context.Context, apiclient.Jar) (*Identity, error) {
	return s.id, s.err
}

func (s *stubProvider) Invalidate(context.Context, apiclient.Jar) {
	s.invalidated++
}

func TestGate_Resolve(t *testing.T) {
	tests := []struct {
		name      string
		provider  *stubProvider
		minLevel  int
		wantAllow bool
	}{
		{"signed in", &stubProvider{id: &Identity{ID: "u1"}}, 0, true},
		{"network error", &stubProvider{err: apiclient.ErrUnavailable}, 0, false},
		{"unauthorized", &stubProvider{err: &apiclient.HTTPError{Status: http.StatusUnauthorized}}, 0, false},
		{"no identity", &stubProvider{}, 0, false},
		{"level too low", &stubProvider{id: &Identity{ID: "u1", Account: LevelUnlocked}}, LevelAdmin, false},
		{"level met", &stubProvider{id: &Identity{ID: "u1", Account: LevelAdmin}}, LevelAdmin, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewGate(tt.provider).Resolve(context.Background(), apiclient.Jar{"token=x"}, tt.minLevel)

			// exactly one of the two outcomes
			assert.NotEqual(t, d.Identity != nil, d.Redirect != "")
			assert.Equal(t, tt.wantAllow, d.Allowed())
			if !tt.wantAllow {
				assert.Equal(t, LoginPath, d.Redirect)
			}
		})
	}
}

func TestGate_InvalidatesOnUnauthorized(t *testing.T) {
	sp := &stubProvider{err: errors.Join(errors.New("resolving identity"), &apiclient.HTTPError{Status: http.StatusUnauthorized})}
	NewGate(sp).Resolve(context.Background(), apiclient.Jar{"token=x"}, 0)
	assert.Equal(t, 1, sp.invalidated)
}
