// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/olegiv/mpdb-web/internal/ratelimit"
)

// MsgTooManyRequests is shown when a form is submitted too often.
const MsgTooManyRequests = "Too many requests. Please wait a moment and try again."

// maxLockout caps the doubling lockout.
const maxLockout = 24 * time.Hour

// LoginProtection rate limits login POSTs per IP and locks an email address
// out of the login form after repeated failures. The backend has its own
// checks; this keeps obvious guessing away from it.
type LoginProtection struct {
	ipLimiters *ratelimit.Limiters[string]

	mu       sync.RWMutex
	failures map[string]*failureRecord

	maxFailedAttempts int
	lockoutDuration   time.Duration // first lockout, doubled for each following one
	attemptWindow     time.Duration

	now      func() time.Time
	stop     chan struct{}
	stopOnce sync.Once
}

type failureRecord struct {
	count       int
	firstFailed time.Time
	lockedUntil time.Time
	lockouts    int
}

// LoginProtectionConfig holds configuration for login protection. Zero
// values take the defaults.
type LoginProtectionConfig struct {
	IPRateLimit       float64 // login POSTs per second per IP
	IPBurst           int
	MaxFailedAttempts int
	LockoutDuration   time.Duration
	AttemptWindow     time.Duration // failures older than this are forgotten
}

// DefaultLoginProtectionConfig allows a login POST every two seconds per
// IP with a burst of 5, and locks an address for 15 minutes after 5
// failures within 15 minutes.
func DefaultLoginProtectionConfig() LoginProtectionConfig {
	return LoginProtectionConfig{
		IPRateLimit:       0.5,
		IPBurst:           5,
		MaxFailedAttempts: 5,
		LockoutDuration:   15 * time.Minute,
		AttemptWindow:     15 * time.Minute,
	}
}

// NewLoginProtection creates a LoginProtection and starts its cleanup
// goroutine. Call Close to stop it.
func NewLoginProtection(cfg LoginProtectionConfig) *LoginProtection {
	def := DefaultLoginProtectionConfig()
	if cfg.IPRateLimit <= 0 {
		cfg.IPRateLimit = def.IPRateLimit
	}
	if cfg.IPBurst <= 0 {
		cfg.IPBurst = def.IPBurst
	}
	if cfg.MaxFailedAttempts <= 0 {
		cfg.MaxFailedAttempts = def.MaxFailedAttempts
	}
	if cfg.LockoutDuration <= 0 {
		cfg.LockoutDuration = def.LockoutDuration
	}
	if cfg.AttemptWindow <= 0 {
		cfg.AttemptWindow = def.AttemptWindow
	}

	lp := &LoginProtection{
		ipLimiters:        ratelimit.New[string](rate.Limit(cfg.IPRateLimit), cfg.IPBurst),
		failures:          make(map[string]*failureRecord),
		maxFailedAttempts: cfg.MaxFailedAttempts,
		lockoutDuration:   cfg.LockoutDuration,
		attemptWindow:     cfg.AttemptWindow,
		now:               time.Now,
		stop:              make(chan struct{}),
	}
	go lp.cleanup()
	return lp
}

// CheckIPRateLimit reports whether a login POST from ip is allowed.
func (lp *LoginProtection) CheckIPRateLimit(ip string) bool {
	return lp.ipLimiters.Allow(ip)
}

// IsAccountLocked reports whether email is locked out and for how long.
func (lp *LoginProtection) IsAccountLocked(email string) (bool, time.Duration) {
	lp.mu.RLock()
	rec, ok := lp.failures[normalizeEmail(email)]
	lp.mu.RUnlock()
	if !ok {
		return false, 0
	}

	if left := rec.lockedUntil.Sub(lp.now()); left > 0 {
		return true, left
	}
	return false, 0
}

// RecordFailedAttempt counts a rejected login for email. When the count
// reaches the limit the address is locked and the lockout length is
// returned.
func (lp *LoginProtection) RecordFailedAttempt(email string) (bool, time.Duration) {
	email = normalizeEmail(email)
	now := lp.now()

	lp.mu.Lock()
	defer lp.mu.Unlock()

	rec, ok := lp.failures[email]
	if !ok {
		rec = &failureRecord{}
		lp.failures[email] = rec
	}
	if rec.count == 0 || now.Sub(rec.firstFailed) > lp.attemptWindow {
		rec.count = 0
		rec.firstFailed = now
	}
	rec.count++

	if rec.count < lp.maxFailedAttempts {
		return false, 0
	}

	lockout := lp.lockoutFor(rec.lockouts)
	rec.lockedUntil = now.Add(lockout)
	rec.lockouts++
	rec.count = 0

	slog.Warn("login locked after failed attempts",
		"category", "auth",
		"email", email,
		"lockouts", rec.lockouts,
		"duration", lockout,
	)
	return true, lockout
}

// lockoutFor doubles the base lockout for each earlier lockout.
func (lp *LoginProtection) lockoutFor(previous int) time.Duration {
	d := lp.lockoutDuration
	for range previous {
		d *= 2
		if d >= maxLockout {
			return maxLockout
		}
	}
	return d
}

// RecordSuccessfulLogin forgets the failures of email.
func (lp *LoginProtection) RecordSuccessfulLogin(email string) {
	lp.mu.Lock()
	delete(lp.failures, normalizeEmail(email))
	lp.mu.Unlock()
}

// GetRemainingAttempts returns how many failures email has left before it
// is locked.
func (lp *LoginProtection) GetRemainingAttempts(email string) int {
	lp.mu.RLock()
	rec, ok := lp.failures[normalizeEmail(email)]
	lp.mu.RUnlock()

	if !ok || rec.count == 0 || lp.now().Sub(rec.firstFailed) > lp.attemptWindow {
		return lp.maxFailedAttempts
	}
	return max(lp.maxFailedAttempts-rec.count, 0)
}

func (lp *LoginProtection) cleanup() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			lp.cleanupStaleEntries()
		case <-lp.stop:
			return
		}
	}
}

// Close stops the cleanup goroutine.
func (lp *LoginProtection) Close() {
	lp.stopOnce.Do(func() { close(lp.stop) })
}

func (lp *LoginProtection) cleanupStaleEntries() {
	if lp.ipLimiters.ClearIfExceeds(ratelimit.DefaultMaxKeys) {
		slog.Info("cleared login rate limiters")
	}

	now := lp.now()
	lp.mu.Lock()
	for email, rec := range lp.failures {
		if now.After(rec.lockedUntil) && now.Sub(rec.firstFailed) > lp.attemptWindow {
			delete(lp.failures, email)
		}
	}
	lp.mu.Unlock()
}

// Middleware rate limits login POSTs per client IP. GETs pass.
func (lp *LoginProtection) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				next.ServeHTTP(w, r)
				return
			}

			ip := ClientIP(r)
			if !lp.CheckIPRateLimit(ip) {
				slog.Warn("login rate limit exceeded", "category", "auth", "ip", ip, "path", r.URL.Path)
				http.Error(w, MsgTooManyRequests, http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// FormRateLimiter limits POSTs of public forms (signup, contact, forgot
// password) per client IP.
type FormRateLimiter struct {
	limiters *ratelimit.Limiters[string]
}

// NewFormRateLimiter creates a FormRateLimiter.
func NewFormRateLimiter(rps float64, burst int) *FormRateLimiter {
	return &FormRateLimiter{limiters: ratelimit.New[string](rate.Limit(rps), burst)}
}

// Middleware returns the rate limiting middleware. Only POSTs count.
func (rl *FormRateLimiter) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				next.ServeHTTP(w, r)
				return
			}
			rl.limiters.ClearIfExceeds(ratelimit.DefaultMaxKeys)
			ip := ClientIP(r)
			if !rl.limiters.Allow(ip) {
				slog.Warn("form rate limit exceeded", "ip", ip, "path", r.URL.Path)
				http.Error(w, MsgTooManyRequests, http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ClientIP returns the client address without its port. Proxy headers are
// resolved earlier by chi's RealIP middleware.
func ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
