// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"net/http"
	"time"

	"github.com/olegiv/mpdb-web/internal/content"
	"github.com/olegiv/mpdb-web/internal/middleware"
	"github.com/olegiv/mpdb-web/internal/render"
	"github.com/olegiv/mpdb-web/internal/uikit"
)

// LegalHandler serves the static legal pages and the fallback route.
type LegalHandler struct {
	pages    *content.Library
	renderer *render.Renderer
	now      func() time.Time
}

// NewLegalHandler creates a new LegalHandler.
func NewLegalHandler(pages *content.Library, renderer *render.Renderer) *LegalHandler {
	return &LegalHandler{pages: pages, renderer: renderer, now: time.Now}
}

// LegalPageData is the legal template data.
type LegalPageData struct {
	Page *content.Page
	// Updated is the "Last Updated" month, always the current one.
	Updated string
}

// Page returns the handler for GET /{slug}.
func (h *LegalHandler) Page(slug string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, ok := h.pages.Get(slug)
		if !ok {
			h.NotFound(w, r)
			return
		}
		h.renderer.RenderPage(w, r, "legal", render.TemplateData{
			Title:    page.Title + " – MPDB",
			Identity: middleware.GetIdentity(r),
			Data:     LegalPageData{Page: page, Updated: uikit.MonthYear(h.now())},
		})
	}
}

// NotFound sends unmatched routes to the signup page.
func (h *LegalHandler) NotFound(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, redirectSignup, http.StatusSeeOther)
}
