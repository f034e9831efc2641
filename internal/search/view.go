// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package search

import (
	"fmt"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/olegiv/mpdb-web/internal/apiclient"
	"github.com/olegiv/mpdb-web/internal/auth"
)

// Result item constants.
const (
	PreviewRunes     = 200
	PlaceholderCover = "/static/img/cover-placeholder.svg"
	NoAbstract       = "No abstract available"
	missing          = "-"
	displayDate      = "1/2/2006"
)

// WorkView is a play prepared for the result list.
type WorkView struct {
	ID         string
	Title      string
	CoverURL   string
	AuthorName string
	// AuthorURL is empty when the play has no linked author.
	AuthorURL  string
	DetailLine string
	MetaLine   string
	Abstract   string
	Preview    string
	Truncated  bool
	CanEdit    bool
	EditURL    string
}

// NewWorkView derives the displayed fields of p for viewer. Relative cover
// paths are resolved against assetBase.
func NewWorkView(p apiclient.Play, viewer *auth.Identity, assetBase string) WorkView {
	v := WorkView{
		ID:       p.ID,
		Title:    p.Title,
		CoverURL: AssetURL(p.CoverImage, assetBase, PlaceholderCover),
		CanEdit:  auth.CanEdit(viewer, p.OwnerID()),
		EditURL:  "/edit-play/" + url.PathEscape(p.ID),
	}

	v.AuthorName = p.Author.Name
	if id := p.OwnerID(); id != "" {
		v.AuthorURL = "/profile/" + url.PathEscape(id)
	}
	if v.AuthorName == "" {
		v.AuthorName = "Anonymous"
		v.AuthorURL = ""
	}

	v.DetailLine = fmt.Sprintf("%s | %d Minutes | %d M, %d W | %d Total Actors | %s",
		orMissing(p.Genre), p.Duration, p.Males, p.Females, p.Total, orMissing(p.OrganizationType))

	acts := missing
	if p.Acts > 0 {
		acts = fmt.Sprintf("%d", p.Acts)
	}
	v.MetaLine = fmt.Sprintf("%s | %s Acts | Publication Date: %s | Submission Date: %s",
		orMissing(p.Funding), acts, formatDate(p.PublicationDate), formatDate(p.SubmissionDate))

	v.Abstract = strings.TrimSpace(p.Abstract)
	if v.Abstract == "" {
		v.Abstract = NoAbstract
	}
	v.Preview = v.Abstract
	if p.Abstract != "" && utf8.RuneCountInString(v.Abstract) > PreviewRunes {
		v.Truncated = true
		v.Preview = strings.TrimSpace(string([]rune(v.Abstract)[:PreviewRunes])) + "…"
	}

	return v
}

// NewWorkViews maps a page of plays.
func NewWorkViews(plays []apiclient.Play, viewer *auth.Identity, assetBase string) []WorkView {
	views := make([]WorkView, 0, len(plays))
	for _, p := range plays {
		views = append(views, NewWorkView(p, viewer, assetBase))
	}
	return views
}

// AssetURL resolves an uploaded file path returned by the backend. Paths
// starting with "/" are served by the backend at base; empty src yields
// fallback.
func AssetURL(src, base, fallback string) string {
	switch {
	case src == "":
		return fallback
	case strings.HasPrefix(src, "/") && base != "":
		return strings.TrimRight(base, "/") + src
	default:
		return src
	}
}

func orMissing(s string) string {
	if strings.TrimSpace(s) == "" {
		return missing
	}
	return s
}

func formatDate(s string) string {
	t := apiclient.ParseDate(s)
	if t.IsZero() {
		return missing
	}
	return t.Format(displayDate)
}
