// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package cache

import (
	"context"
	"encoding/json"
	"time"
)

// TypedCache stores values of one type as JSON under a key prefix, so the
// identity and search caches can share a backend.
type TypedCache[T any] struct {
	backend Cache
	prefix  string
	ttl     time.Duration
}

// NewTypedCache wraps backend.
func NewTypedCache[T any](backend Cache, prefix string, ttl time.Duration) *TypedCache[T] {
	return &TypedCache[T]{backend: backend, prefix: prefix, ttl: ttl}
}

// Get reports false on a miss, a backend error or an entry that no longer
// decodes into T.
func (c *TypedCache[T]) Get(ctx context.Context, key string) (*T, bool) {
	raw, err := c.backend.Get(ctx, c.prefix+key)
	if err != nil {
		return nil, false
	}
	v := new(T)
	if json.Unmarshal(raw, v) != nil {
		return nil, false
	}
	return v, true
}

// Set stores v with the default TTL.
func (c *TypedCache[T]) Set(ctx context.Context, key string, v *T) error {
	return c.SetWithTTL(ctx, key, v, c.ttl)
}

// SetWithTTL stores v for ttl.
func (c *TypedCache[T]) SetWithTTL(ctx context.Context, key string, v *T, ttl time.Duration) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.backend.Set(ctx, c.prefix+key, raw, ttl)
}

// Delete removes key. A missing key is not an error.
func (c *TypedCache[T]) Delete(ctx context.Context, key string) error {
	return c.backend.Delete(ctx, c.prefix+key)
}

// GetOrSetWithTTL returns the cached value or loads it. The loader also
// picks the TTL; a non-positive one means the value is returned uncached.
// A failed cache write does not fail the call.
func (c *TypedCache[T]) GetOrSetWithTTL(ctx context.Context, key string, load func() (*T, time.Duration, error)) (*T, error) {
	if v, ok := c.Get(ctx, key); ok {
		return v, nil
	}
	v, ttl, err := load()
	if err != nil {
		return nil, err
	}
	if ttl > 0 {
		_ = c.SetWithTTL(ctx, key, v, ttl)
	}
	return v, nil
}
