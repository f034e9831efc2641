// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package auth resolves who the browser session belongs to and decides
// whether a guarded page may be shown. The backend owns the accounts; this
// package only reads and caches what the backend says.
package auth

import "github.com/olegiv/mpdb-web/internal/apiclient"

// Account levels as stored on the backend user record.
const (
	LevelBasic      = 0 // educator
	LevelPlaywright = 1
	LevelLocked     = 2
	LevelUnlocked   = 3 // playwright allowed to publish
	LevelAdmin      = 4
)

// Identity is the signed-in user as reported by the backend.
type Identity = apiclient.User

// LevelName returns a human-readable name for an account level.
func LevelName(level int) string {
	switch level {
	case LevelBasic:
		return "Educator"
	case LevelPlaywright:
		return "Playwright"
	case LevelLocked:
		return "Locked"
	case LevelUnlocked:
		return "Unlocked Playwright"
	case LevelAdmin:
		return "Administrator"
	default:
		return "Unknown"
	}
}

// Levels lists every account level in order, for select boxes.
func Levels() []int {
	return []int{LevelBasic, LevelPlaywright, LevelLocked, LevelUnlocked, LevelAdmin}
}

// ValidLevel reports whether level is a known account level.
func ValidLevel(level int) bool {
	return level >= LevelBasic && level <= LevelAdmin
}

// IsAdmin reports whether id is an administrator. Nil is not.
func IsAdmin(id *Identity) bool {
	return id != nil && id.Account == LevelAdmin
}

// CanPublish reports whether id may create or edit plays.
func CanPublish(id *Identity) bool {
	return id != nil && (id.Account == LevelUnlocked || id.Account == LevelAdmin)
}

// CanEdit reports whether id may edit a play owned by ownerID.
func CanEdit(id *Identity, ownerID string) bool {
	if id == nil {
		return false
	}
	if id.Account == LevelAdmin {
		return true
	}
	return ownerID != "" && id.ID == ownerID
}
