// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package cache

import (
	"context"
	"time"
)

// Config selects and sizes the cache backend.
type Config struct {
	// RedisURL selects Redis when set.
	RedisURL string
	// Prefix namespaces Redis keys.
	Prefix     string
	DefaultTTL time.Duration
	// MaxSize bounds the memory cache; 0 means unbounded.
	MaxSize         int
	CleanupInterval time.Duration
}

// New returns a Redis cache when RedisURL is set and a memory cache
// otherwise.
func New(ctx context.Context, cfg Config) (Cache, error) {
	if cfg.RedisURL != "" {
		rc, err := NewRedisCache(ctx, RedisOptions{
			URL:         cfg.RedisURL,
			Prefix:      cfg.Prefix,
			DefaultTTL:  cfg.DefaultTTL,
			DialTimeout: 5 * time.Second,
		})
		if err != nil {
			return nil, err
		}
		return rc, nil
	}
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = time.Minute
	}
	return NewMemoryCache(MemoryCacheOptions{
		DefaultTTL:      cfg.DefaultTTL,
		MaxSize:         cfg.MaxSize,
		CleanupInterval: cfg.CleanupInterval,
	}), nil
}
