// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"
)

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestProbe_StartsNotReady(t *testing.T) {
	p := NewProbe(pingerFunc(func(context.Context) error { return nil }), 0, testLogger())
	if p.Ready() {
		t.Error("probe should not be ready before the first run")
	}
	if p.timeout != DefaultProbeTimeout {
		t.Errorf("timeout = %v, want %v", p.timeout, DefaultProbeTimeout)
	}
}

func TestProbe_Run(t *testing.T) {
	var pingErr error
	p := NewProbe(pingerFunc(func(context.Context) error { return pingErr }), time.Second, testLogger())

	steps := []struct {
		err       error
		wantReady bool
	}{
		{nil, true},
		{errors.New("connection refused"), false},
		{errors.New("connection refused"), false},
		{nil, true},
	}

	for i, step := range steps {
		pingErr = step.err
		err := p.Run(context.Background())
		if (err != nil) != (step.err != nil) {
			t.Errorf("step %d: Run() error = %v", i, err)
		}
		if p.Ready() != step.wantReady {
			t.Errorf("step %d: Ready() = %v, want %v", i, p.Ready(), step.wantReady)
		}

		st := p.Status()
		if st.Ready != step.wantReady || st.CheckedAt.IsZero() {
			t.Errorf("step %d: Status() = %+v", i, st)
		}
		if step.err != nil && st.Error != step.err.Error() {
			t.Errorf("step %d: Status().Error = %q", i, st.Error)
		}
	}
}

func TestProbe_RunHonorsTimeout(t *testing.T) {
	p := NewProbe(pingerFunc(func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}), 20*time.Millisecond, testLogger())

	start := time.Now()
	err := p.Run(context.Background())
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Run() error = %v, want deadline exceeded", err)
	}
	if time.Since(start) > time.Second {
		t.Error("Run() ignored its timeout")
	}
	if p.Ready() {
		t.Error("timed out probe should not be ready")
	}
}
