// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package uikit

// pageWindow is how many consecutive page numbers the pager shows.
const pageWindow = 5

// Pagination is the pager under the results list.
type Pagination struct {
	CurrentPage int
	TotalPages  int
	HasPrev     bool
	HasNext     bool
	PrevURL     string
	NextURL     string
	Pages       []PageLink
}

// PageLink is one pager slot: a page number or a gap.
type PageLink struct {
	Number     int
	URL        string
	IsCurrent  bool
	IsEllipsis bool
}

// BuildPagination builds the pager for page current of total. pageURL
// returns the link for a page number with the active filters applied.
func BuildPagination(current, total int, pageURL func(int) string) Pagination {
	p := Pagination{
		CurrentPage: current,
		TotalPages:  total,
		HasPrev:     current > 1,
		HasNext:     current < total,
	}
	if p.HasPrev {
		p.PrevURL = pageURL(current - 1)
	}
	if p.HasNext {
		p.NextURL = pageURL(current + 1)
	}
	if total < 2 {
		return p
	}

	first, last := window(current, total)
	link := func(n int) PageLink {
		return PageLink{Number: n, URL: pageURL(n), IsCurrent: n == current}
	}
	gap := PageLink{IsEllipsis: true}

	if first > 1 {
		p.Pages = append(p.Pages, link(1))
		if first > 2 {
			p.Pages = append(p.Pages, gap)
		}
	}
	for n := first; n <= last; n++ {
		p.Pages = append(p.Pages, link(n))
	}
	if last < total {
		if last < total-1 {
			p.Pages = append(p.Pages, gap)
		}
		p.Pages = append(p.Pages, link(total))
	}
	return p
}

// ShouldShow reports whether there is more than one page.
func (p Pagination) ShouldShow() bool {
	return p.TotalPages > 1
}

// window centres pageWindow numbers on current, shifted to stay inside
// 1..total.
func window(current, total int) (first, last int) {
	first = max(current-pageWindow/2, 1)
	last = min(first+pageWindow-1, total)
	first = max(last-pageWindow+1, 1)
	return first, last
}
