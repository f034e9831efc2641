// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package search

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/mpdb-web/internal/apiclient"
	"github.com/olegiv/mpdb-web/internal/cache"
)

type fakeLister struct {
	mu      sync.Mutex
	queries []url.Values
	list    *apiclient.PlayList
	err     error
	// hook runs inside ListPlays before it returns.
	hook func()
}

func (f *fakeLister) ListPlays(_ context.Context, _ apiclient.Jar, q url.Values) (*apiclient.PlayList, error) {
	f.mu.Lock()
	f.queries = append(f.queries, q)
	hook := f.hook
	f.mu.Unlock()
	if hook != nil {
		hook()
	}
	return f.list, f.err
}

func newTestController(t *testing.T, l Lister) *Controller {
	t.Helper()
	c := cache.NewMemoryCache(cache.MemoryCacheOptions{DefaultTTL: time.Minute})
	t.Cleanup(func() { _ = c.Close() })
	return NewController(l, c)
}

func TestController_PageTwoWithoutFilters(t *testing.T) {
	l := &fakeLister{list: &apiclient.PlayList{Total: 25}}
	c := newTestController(t, l)

	res, err := c.Execute(context.Background(), "sess", nil, Query{Page: 2})
	require.NoError(t, err)

	require.Len(t, l.queries, 1)
	assert.Equal(t, url.Values{"page": {"2"}, "limit": {"10"}}, l.queries[0])
	assert.Equal(t, 25, res.TotalResults, "falls back to total")
	assert.Equal(t, 3, res.TotalPages, "falls back to ceil(total/10)")
	assert.Equal(t, 20, res.Shown())
}

func TestController_StoresSnapshot(t *testing.T) {
	l := &fakeLister{list: &apiclient.PlayList{TotalResults: 47, TotalPages: 5}}
	c := newTestController(t, l)
	ctx := context.Background()

	_, ok := c.Snapshot(ctx, "sess")
	assert.False(t, ok)

	_, err := c.Execute(ctx, "sess", nil, Query{Page: 4})
	require.NoError(t, err)

	snap, ok := c.Snapshot(ctx, "sess")
	require.True(t, ok)
	assert.Equal(t, Snapshot{Page: 4, TotalResults: 47, TotalPages: 5}, snap)

	c.Forget(ctx, "sess")
	_, ok = c.Snapshot(ctx, "sess")
	assert.False(t, ok)
}

func TestController_Unauthorized(t *testing.T) {
	l := &fakeLister{err: &apiclient.HTTPError{Status: http.StatusUnauthorized}}
	c := newTestController(t, l)

	res, err := c.Execute(context.Background(), "sess", nil, Query{Page: 1})
	assert.Nil(t, res)
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.True(t, apiclient.IsUnauthorized(err))
}

func TestController_OtherErrorClearsResult(t *testing.T) {
	l := &fakeLister{err: errors.Join(apiclient.ErrUnavailable, errors.New("dial tcp"))}
	c := newTestController(t, l)
	ctx := context.Background()

	res, err := c.Execute(ctx, "sess", nil, Query{Page: 3})
	require.NoError(t, err)
	assert.Empty(t, res.Plays)
	assert.Zero(t, res.TotalResults)
	assert.Zero(t, res.TotalPages)
	assert.Equal(t, apiclient.MsgServerError, res.Message)

	snap, ok := c.Snapshot(ctx, "sess")
	require.True(t, ok)
	assert.Equal(t, Snapshot{Page: 3}, snap)
}

func TestController_StaleResponseKeepsNewerSnapshot(t *testing.T) {
	l := &fakeLister{list: &apiclient.PlayList{TotalResults: 30}}
	c := newTestController(t, l)
	ctx := context.Background()

	// while the page 1 search is in flight, a page 2 search completes
	l.hook = func() {
		l.mu.Lock()
		l.hook = nil
		l.mu.Unlock()
		_, err := c.Execute(ctx, "sess", nil, Query{Page: 2})
		require.NoError(t, err)
	}

	res, err := c.Execute(ctx, "sess", nil, Query{Page: 1})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Query.Page)

	snap, ok := c.Snapshot(ctx, "sess")
	require.True(t, ok)
	assert.Equal(t, 2, snap.Page)
}

func TestSequencer(t *testing.T) {
	s := NewSequencer()
	a := s.Begin("k")
	b := s.Begin("k")
	other := s.Begin("j")

	assert.False(t, s.Finish("k", a), "older search is stale")
	assert.Equal(t, 2, s.Len(), "k still has a search in flight")
	assert.True(t, s.Finish("k", b))
	assert.True(t, s.Finish("j", other))
	assert.Zero(t, s.Len(), "finished sessions leave no entry")

	c := s.Begin("k")
	s.Forget("k")
	assert.False(t, s.Finish("k", c), "a forgotten session's search is stale")
	assert.Zero(t, s.Len())
}

func TestController_SequencerStaysBounded(t *testing.T) {
	l := &fakeLister{list: &apiclient.PlayList{TotalResults: 3}}
	c := newTestController(t, l)
	ctx := context.Background()

	for i := range 1000 {
		_, err := c.Execute(ctx, fmt.Sprintf("sess-%d", i), nil, Query{Page: 1})
		require.NoError(t, err)
	}
	assert.Zero(t, c.seq.Len(), "sessions that never log out must not pin an entry")

	l.err = &apiclient.HTTPError{Status: http.StatusUnauthorized}
	_, err := c.Execute(ctx, "expired", nil, Query{Page: 1})
	require.ErrorIs(t, err, ErrUnauthorized)
	assert.Zero(t, c.seq.Len())
}

func TestCooldown(t *testing.T) {
	c := NewCooldown(time.Second)
	start := time.Now()

	assert.True(t, c.TakeAt("a", start))
	assert.False(t, c.TakeAt("a", start.Add(100*time.Millisecond)))
	assert.True(t, c.TakeAt("b", start.Add(100*time.Millisecond)), "sessions are independent")
	assert.True(t, c.TakeAt("a", start.Add(time.Second+time.Millisecond)), "token is back after the window")
}
