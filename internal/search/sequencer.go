// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package search

import "sync"

// Sequencer numbers the searches of each session so a slow, older
// response never replaces the state written by a newer one. A session's
// entry lives only while it has searches in flight.
type Sequencer struct {
	mu      sync.Mutex
	running map[string]*sequence
}

type sequence struct {
	newest   uint64
	inFlight int
}

// NewSequencer creates a Sequencer.
func NewSequencer() *Sequencer {
	return &Sequencer{running: make(map[string]*sequence)}
}

// Begin starts a new search for key and returns its sequence number.
// Every Begin must be paired with a Finish.
func (s *Sequencer) Begin(key string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	sq, ok := s.running[key]
	if !ok {
		sq = &sequence{}
		s.running[key] = sq
	}
	sq.newest++
	sq.inFlight++
	return sq.newest
}

// Finish ends search seq for key and reports whether it was the newest
// one. The entry is dropped when nothing is left in flight.
func (s *Sequencer) Finish(key string, seq uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	sq, ok := s.running[key]
	if !ok {
		return false
	}
	sq.inFlight--
	if sq.inFlight <= 0 {
		delete(s.running, key)
	}
	return sq.newest == seq
}

// Forget drops the entry for key, e.g. on logout. Searches still in
// flight for key then finish as stale.
func (s *Sequencer) Forget(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.running, key)
}

// Len returns the number of sessions with searches in flight.
func (s *Sequencer) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.running)
}
