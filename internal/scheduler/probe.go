// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// DefaultProbeTimeout bounds one reachability check.
const DefaultProbeTimeout = 5 * time.Second

// Pinger checks that the backend answers.
type Pinger interface {
	Ping(ctx context.Context) error
}

// ProbeStatus is a snapshot of the last probe result.
type ProbeStatus struct {
	Ready     bool
	CheckedAt time.Time
	Error     string
}

// Probe tracks backend reachability for the readiness endpoint. It starts
// not ready and flips on every Run.
type Probe struct {
	pinger  Pinger
	timeout time.Duration
	logger  *slog.Logger

	ready atomic.Bool

	mu     sync.RWMutex
	status ProbeStatus
}

// NewProbe creates a Probe. A non-positive timeout uses DefaultProbeTimeout.
func NewProbe(pinger Pinger, timeout time.Duration, logger *slog.Logger) *Probe {
	if timeout <= 0 {
		timeout = DefaultProbeTimeout
	}
	return &Probe{pinger: pinger, timeout: timeout, logger: logger}
}

// Run pings the backend once and records the result. It is a JobFunc.
func (p *Probe) Run(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	err := p.pinger.Ping(ctx)
	was := p.ready.Swap(err == nil)

	st := ProbeStatus{Ready: err == nil, CheckedAt: time.Now()}
	if err != nil {
		st.Error = err.Error()
	}
	p.mu.Lock()
	p.status = st
	p.mu.Unlock()

	switch {
	case err != nil && was:
		p.logger.Error("backend unreachable", "error", err)
	case err == nil && !was:
		p.logger.Info("backend reachable")
	}
	return err
}

// Ready reports whether the last probe succeeded.
func (p *Probe) Ready() bool {
	return p.ready.Load()
}

// Status returns the last probe result.
func (p *Probe) Status() ProbeStatus {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.status
}
