// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package form sanitizes submitted form fields and decides whether a form
// may be sent to the backend. Everything here is pure.
package form

import (
	"html"
	"regexp"
	"strings"
	"unicode"

	"github.com/microcosm-cc/bluemonday"
	"github.com/mozillazg/go-unidecode"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Field length caps.
const (
	MaxNameLen  = 50
	MaxPhoneLen = 15

	MaxActsDigits     = 2
	MaxCastDigits     = 2
	MaxDurationDigits = 3
	MaxTotalDigits    = 3
)

var (
	emailRegex = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	nameRegex  = regexp.MustCompile(`^[A-Za-z'-]+$`)

	strictPolicy = bluemonday.StrictPolicy()
)

// fold removes combining marks after canonical decomposition, so "é"
// becomes "e" before transliteration.
func fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	result, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return result
}

// Name keeps ASCII letters, apostrophes and hyphens, uppercases the first
// letter and caps the result at MaxNameLen. Applying it twice changes
// nothing.
func Name(s string) string {
	s = unidecode.Unidecode(fold(s))

	var b strings.Builder
	for _, r := range s {
		if (r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z') || r == '\'' || r == '-' {
			b.WriteRune(r)
		}
	}

	out := b.String()
	if len(out) > MaxNameLen {
		out = out[:MaxNameLen]
	}
	if out != "" && out[0] >= 'a' && out[0] <= 'z' {
		out = string(out[0]-'a'+'A') + out[1:]
	}
	return out
}

// IsName reports whether s is a non-empty sanitized name.
func IsName(s string) bool {
	return nameRegex.MatchString(s)
}

// Digits keeps only ASCII digits, at most limit of them.
func Digits(s string, limit int) string {
	var b strings.Builder
	for _, r := range s {
		if b.Len() >= limit {
			break
		}
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Phone keeps digits only, capped at MaxPhoneLen.
func Phone(s string) string {
	return Digits(s, MaxPhoneLen)
}

// NoSpace removes all whitespace. Used for emails and passwords.
func NoSpace(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

// Truncate cuts s to at most n runes.
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}

// PlainText strips any markup from s and trims it.
func PlainText(s string) string {
	return strings.TrimSpace(html.UnescapeString(strictPolicy.Sanitize(s)))
}

// IsEmail reports whether s looks like an email address. The check is
// permissive: one @ and a dot after it.
func IsEmail(s string) bool {
	return emailRegex.MatchString(strings.TrimSpace(s))
}
