// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package search holds the play search state: filters, paging, the search
// cooldown, request sequencing, and the view model for result items.
package search

import (
	"net/url"
	"strconv"
	"strings"
	"time"
)

// PageSize is the fixed number of plays per page.
const PageSize = 10

// Filters are the optional search constraints. Every field is kept as the
// string sent to the backend; empty means "no filter".
type Filters struct {
	Search           string
	Genre            string
	FundingType      string
	OrganizationType string

	PubDateFrom string
	PubDateTo   string
	SubDateFrom string
	SubDateTo   string
	MinDuration string
	MaxDuration string
	Males       string
	Females     string
	Acts        string
}

// Query is one search request.
type Query struct {
	Filters
	Page int
}

// params returns the filters as backend parameter name/value pairs, in a
// fixed order.
func (f Filters) params() [][2]string {
	return [][2]string{
		{"search", f.Search},
		{"genre", f.Genre},
		{"fundingType", f.FundingType},
		{"organizationType", f.OrganizationType},
		{"pubDateFrom", f.PubDateFrom},
		{"pubDateTo", f.PubDateTo},
		{"subDateFrom", f.SubDateFrom},
		{"subDateTo", f.SubDateTo},
		{"minDuration", f.MinDuration},
		{"maxDuration", f.MaxDuration},
		{"males", f.Males},
		{"females", f.Females},
		{"acts", f.Acts},
	}
}

// Values returns the filter parameters only. Empty filters are omitted.
func (f Filters) Values() url.Values {
	v := url.Values{}
	for _, p := range f.params() {
		if value := strings.TrimSpace(p[1]); value != "" {
			v.Set(p[0], value)
		}
	}
	return v
}

// Encode returns the filters as a query string, "" when there are none.
func (f Filters) Encode() string {
	return f.Values().Encode()
}

// Empty reports whether no filter is set.
func (f Filters) Empty() bool {
	return len(f.Values()) == 0
}

// HasAdvanced reports whether any of the nine advanced filters is set.
func (f Filters) HasAdvanced() bool {
	for _, p := range f.params()[4:] {
		if strings.TrimSpace(p[1]) != "" {
			return true
		}
	}
	return false
}

// Values returns the backend query for q: the non-empty filters plus page
// and limit.
func (q Query) Values() url.Values {
	v := q.Filters.Values()
	page := q.Page
	if page < 1 {
		page = 1
	}
	v.Set("page", strconv.Itoa(page))
	v.Set("limit", strconv.Itoa(PageSize))
	return v
}

// Digit caps for the numeric advanced filters.
const (
	maxDurationDigits = 3
	maxCastDigits     = 2
)

// FromValues reads filters from a request query string. Unknown select
// values, malformed dates and non-digits are dropped.
func FromValues(v url.Values) Filters {
	get := func(key string) string { return strings.TrimSpace(v.Get(key)) }

	f := Filters{
		Search:      get("search"),
		PubDateFrom: date(get("pubDateFrom")),
		PubDateTo:   date(get("pubDateTo")),
		SubDateFrom: date(get("subDateFrom")),
		SubDateTo:   date(get("subDateTo")),
		MinDuration: digits(get("minDuration"), maxDurationDigits),
		MaxDuration: digits(get("maxDuration"), maxDurationDigits),
		Males:       digits(get("males"), maxCastDigits),
		Females:     digits(get("females"), maxCastDigits),
		Acts:        digits(get("acts"), maxCastDigits),
	}
	if g := get("genre"); ValidGenre(g) {
		f.Genre = g
	}
	if ft := get("fundingType"); ValidFunding(ft) {
		f.FundingType = ft
	}
	if o := get("organizationType"); ValidOrganizationType(o) {
		f.OrganizationType = o
	}
	return f
}

// ParsePage parses a page path segment. ok is false for anything that is
// not an integer >= 1.
func ParsePage(s string) (page int, ok bool) {
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 1, false
	}
	return n, true
}

func date(s string) string {
	if _, err := time.Parse(time.DateOnly, s); err != nil {
		return ""
	}
	return s
}

func digits(s string, limit int) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' && b.Len() < limit {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ShownResults is the "Showing X of Y" count: min(page*PageSize, total).
func ShownResults(page, total int) int {
	if page < 1 || total < 1 {
		return 0
	}
	return min(page*PageSize, total)
}

// TotalPages returns ceil(total/PageSize).
func TotalPages(total int) int {
	if total < 1 {
		return 0
	}
	return (total + PageSize - 1) / PageSize
}

// CanNavigate reports whether moving from current to target does anything.
// Targets outside [1, totalPages] and the current page are no-ops.
func CanNavigate(target, current, totalPages int) bool {
	return target >= 1 && target <= totalPages && target != current
}
