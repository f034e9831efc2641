// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package search

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/olegiv/mpdb-web/internal/apiclient"
	"github.com/olegiv/mpdb-web/internal/cache"
)

// Error represents an error type for search operations.
type Error string

func (e Error) Error() string {
	return string(e)
}

// ErrUnauthorized means the backend rejected the session's cookies.
const ErrUnauthorized Error = "search unauthorized"

// snapshotTTL matches the browser session lifetime.
const snapshotTTL = 24 * time.Hour

// Lister is the part of the API client the controller needs.
type Lister interface {
	ListPlays(ctx context.Context, jar apiclient.Jar, query url.Values) (*apiclient.PlayList, error)
}

// Snapshot is what a session last saw: the page and the totals it was
// computed against. Page navigation is checked against it.
type Snapshot struct {
	Page         int `json:"page"`
	TotalResults int `json:"totalResults"`
	TotalPages   int `json:"totalPages"`
}

// Result is one executed search.
type Result struct {
	Query        Query
	Plays        []apiclient.Play
	TotalResults int
	TotalPages   int
	// Message is set when the search failed and the result was cleared.
	Message string
}

// Shown returns the "Showing X" count.
func (r *Result) Shown() int {
	return ShownResults(r.Query.Page, r.TotalResults)
}

// Controller runs searches for browser sessions.
type Controller struct {
	lister    Lister
	seq       *Sequencer
	snapshots *cache.TypedCache[Snapshot]
}

// NewController creates a Controller keeping snapshots in c.
func NewController(lister Lister, c cache.Cache) *Controller {
	return &Controller{
		lister:    lister,
		seq:       NewSequencer(),
		snapshots: cache.NewTypedCache[Snapshot](c, "search:", snapshotTTL),
	}
}

// Execute fetches q for the session key. A 401 returns ErrUnauthorized;
// any other failure returns an empty result carrying a user message.
// Only the newest search of a session updates its snapshot.
func (c *Controller) Execute(ctx context.Context, key string, jar apiclient.Jar, q Query) (*Result, error) {
	if q.Page < 1 {
		q.Page = 1
	}
	seq := c.seq.Begin(key)

	res := &Result{Query: q}
	list, err := c.lister.ListPlays(ctx, jar, q.Values())
	newest := c.seq.Finish(key, seq)
	switch {
	case apiclient.IsUnauthorized(err):
		return nil, fmt.Errorf("%w: %w", ErrUnauthorized, err)
	case err != nil:
		slog.Error("play search failed", "page", q.Page, "error", err)
		res.Message = apiclient.UserMessage(err)
	default:
		res.Plays = list.Plays
		res.TotalResults = list.TotalResults
		if res.TotalResults == 0 {
			res.TotalResults = list.Total
		}
		res.TotalPages = list.TotalPages
		if res.TotalPages == 0 {
			res.TotalPages = TotalPages(res.TotalResults)
		}
	}

	if !newest {
		slog.Debug("discarding stale search", "page", q.Page, "seq", seq)
		return res, nil
	}

	snap := &Snapshot{Page: q.Page, TotalResults: res.TotalResults, TotalPages: res.TotalPages}
	if err := c.snapshots.Set(ctx, key, snap); err != nil {
		slog.Warn("failed to store search snapshot", "error", err)
	}
	return res, nil
}

// Snapshot returns the last state stored for key.
func (c *Controller) Snapshot(ctx context.Context, key string) (Snapshot, bool) {
	snap, ok := c.snapshots.Get(ctx, key)
	if !ok {
		return Snapshot{}, false
	}
	return *snap, true
}

// Forget drops the session's snapshot and sequence counter.
func (c *Controller) Forget(ctx context.Context, key string) {
	c.seq.Forget(key)
	_ = c.snapshots.Delete(ctx, key)
}
