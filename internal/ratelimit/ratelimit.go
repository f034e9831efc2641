// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package ratelimit keeps one token bucket per key.
package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// DefaultMaxKeys bounds a limiter map before it is reset.
const DefaultMaxKeys = 10000

// Limiters is a rate limiter cache with double-check locking.
type Limiters[K comparable] struct {
	limiters map[K]*rate.Limiter
	mu       sync.RWMutex
	rate     rate.Limit
	burst    int
}

// New creates a limiter cache where each key gets r events per second
// with the given burst.
func New[K comparable](r rate.Limit, burst int) *Limiters[K] {
	return &Limiters[K]{
		limiters: make(map[K]*rate.Limiter),
		rate:     r,
		burst:    burst,
	}
}

// Every creates a limiter cache that allows one event per interval.
func Every[K comparable](interval time.Duration) *Limiters[K] {
	return New[K](rate.Every(interval), 1)
}

// Get returns the rate limiter for a specific key, creating one if needed.
func (l *Limiters[K]) Get(key K) *rate.Limiter {
	l.mu.RLock()
	limiter, exists := l.limiters[key]
	l.mu.RUnlock()

	if exists {
		return limiter
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	// Double-check after acquiring write lock
	if limiter, exists = l.limiters[key]; exists {
		return limiter
	}

	limiter = rate.NewLimiter(l.rate, l.burst)
	l.limiters[key] = limiter
	return limiter
}

// Allow reports whether key may proceed now.
func (l *Limiters[K]) Allow(key K) bool {
	return l.Get(key).Allow()
}

// AllowAt reports whether key may proceed at the given instant.
func (l *Limiters[K]) AllowAt(key K, now time.Time) bool {
	return l.Get(key).AllowN(now, 1)
}

// ClearIfExceeds clears all entries if the cache exceeds maxSize.
// Returns true if the cache was cleared.
func (l *Limiters[K]) ClearIfExceeds(maxSize int) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.limiters) > maxSize {
		l.limiters = make(map[K]*rate.Limiter)
		return true
	}
	return false
}

// Len returns the number of tracked keys.
func (l *Limiters[K]) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.limiters)
}
