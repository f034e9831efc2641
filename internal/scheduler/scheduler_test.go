// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package scheduler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"
)

// testLogger creates a test logger that discards output.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNew(t *testing.T) {
	logger := testLogger()

	s := New(logger)
	if s == nil {
		t.Fatal("New() returned nil")
	}
	if s.cron == nil {
		t.Error("New() scheduler has nil cron")
	}
	if s.logger != logger {
		t.Error("New() scheduler has wrong logger")
	}
}

func TestScheduler_StartStop(t *testing.T) {
	s := New(testLogger())
	if err := s.Add("noop", "does nothing", "@every 1h", func(context.Context) error { return nil }); err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	s.Start()
	s.Stop()
}

func TestScheduler_Add(t *testing.T) {
	noop := func(context.Context) error { return nil }

	tests := []struct {
		name     string
		schedule string
		wantErr  bool
	}{
		{"descriptor", "@every 1m", false},
		{"daily", "@daily", false},
		{"five fields", "*/5 * * * *", false},
		{"garbage", "whenever", true},
		{"six fields", "0 */5 * * * *", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New(testLogger())
			err := s.Add("job", "", tt.schedule, noop)
			if (err != nil) != tt.wantErr {
				t.Errorf("Add(%q) error = %v, wantErr %v", tt.schedule, err, tt.wantErr)
			}
		})
	}

	t.Run("duplicate name", func(t *testing.T) {
		s := New(testLogger())
		if err := s.Add("probe", "", "@every 1m", noop); err != nil {
			t.Fatalf("first Add() error = %v", err)
		}
		if err := s.Add("probe", "", "@every 1m", noop); err == nil {
			t.Error("second Add() should fail")
		}
	})
}

func TestScheduler_TriggerNowRecordsOutcome(t *testing.T) {
	s := New(testLogger())

	var calls atomic.Int32
	failing := errors.New("backend unreachable")
	_ = s.Add("b-probe", "backend reachability", "@every 1m", func(context.Context) error {
		calls.Add(1)
		return failing
	})
	_ = s.Add("a-cleanup", "event retention", "@daily", func(context.Context) error {
		calls.Add(1)
		return nil
	})

	if err := s.TriggerNow("b-probe"); !errors.Is(err, failing) {
		t.Errorf("TriggerNow(b-probe) error = %v, want %v", err, failing)
	}
	if err := s.TriggerNow("a-cleanup"); err != nil {
		t.Errorf("TriggerNow(a-cleanup) error = %v", err)
	}
	if err := s.TriggerNow("missing"); !errors.Is(err, ErrJobNotFound) {
		t.Errorf("TriggerNow(missing) error = %v, want ErrJobNotFound", err)
	}
	if calls.Load() != 2 {
		t.Errorf("calls = %d, want 2", calls.Load())
	}

	jobs := s.List()
	if len(jobs) != 2 {
		t.Fatalf("List() returned %d jobs, want 2", len(jobs))
	}
	if jobs[0].Name != "a-cleanup" || jobs[1].Name != "b-probe" {
		t.Errorf("List() order = %s, %s", jobs[0].Name, jobs[1].Name)
	}
	if jobs[0].LastRun.IsZero() || jobs[0].LastError != "" {
		t.Errorf("a-cleanup info = %+v", jobs[0])
	}
	if jobs[1].LastError != "backend unreachable" {
		t.Errorf("b-probe LastError = %q", jobs[1].LastError)
	}
	if jobs[1].Schedule != "@every 1m" || jobs[1].Description != "backend reachability" {
		t.Errorf("b-probe info = %+v", jobs[1])
	}
}

func TestScheduler_StopCancelsJobContext(t *testing.T) {
	s := New(testLogger())
	_ = s.Add("wait", "", "@every 1h", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})

	s.Start()
	done := make(chan error, 1)
	go func() { done <- s.TriggerNow("wait") }()

	time.Sleep(10 * time.Millisecond)
	s.Stop()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("job error = %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("job was not cancelled by Stop")
	}
}
