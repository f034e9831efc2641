// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/alexedwards/scs/v2"
	"github.com/go-chi/chi/v5"

	"github.com/olegiv/mpdb-web/internal/auth"
	"github.com/olegiv/mpdb-web/internal/middleware"
	"github.com/olegiv/mpdb-web/internal/render"
	"github.com/olegiv/mpdb-web/internal/search"
	"github.com/olegiv/mpdb-web/internal/uikit"
)

// PlaysHandler serves the play search and its result pages.
type PlaysHandler struct {
	backendSession
	renderer  *render.Renderer
	searches  *search.Controller
	cooldown  *search.Cooldown
	assetBase string
}

// NewPlaysHandler creates a new PlaysHandler. Relative cover paths are
// resolved against assetBase, the backend URL.
func NewPlaysHandler(renderer *render.Renderer, sm *scs.SessionManager, provider auth.SessionProvider, searches *search.Controller, cooldown *search.Cooldown, assetBase string) *PlaysHandler {
	return &PlaysHandler{
		backendSession: backendSession{sm: sm, provider: provider},
		renderer:       renderer,
		searches:       searches,
		cooldown:       cooldown,
		assetBase:      assetBase,
	}
}

// PlaysPageData is the plays template data.
type PlaysPageData struct {
	Result     *search.Result
	Works      []search.WorkView
	Filters    search.Filters
	Pagination uikit.Pagination
	// ShowAdvanced opens the advanced filter panel.
	ShowAdvanced bool
	// CanCreate shows the floating create button.
	CanCreate         bool
	Genres            []string
	FundingTypes      []string
	OrganizationTypes []string
}

// List handles GET /plays, the first page for the given filters.
func (h *PlaysHandler) List(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, search.Query{Filters: search.FromValues(r.URL.Query()), Page: 1})
}

// Page handles GET /plays/page/{page}. A malformed page goes to page 1 and
// a page past the last one goes to the last page.
// Page links carry nav=1; a link that would not change anything answers
// 204 so the browser stays put.
func (h *PlaysHandler) Page(w http.ResponseWriter, r *http.Request) {
	filters := search.FromValues(r.URL.Query())
	page, ok := search.ParsePage(chi.URLParam(r, "page"))
	if !ok {
		http.Redirect(w, r, pageURL(1, filters, false), http.StatusSeeOther)
		return
	}

	if r.URL.Query().Get("nav") == "1" {
		snap, found := h.searches.Snapshot(r.Context(), h.sessionKey(r))
		if found && !search.CanNavigate(page, snap.Page, snap.TotalPages) {
			w.WriteHeader(http.StatusNoContent)
			return
		}
	}

	h.run(w, r, search.Query{Filters: filters, Page: page})
}

// Search handles POST /plays/search, the Enter key or the search button.
// Within the cooldown window the request is a no-op (204). Script
// submissions get the first result page in a header instead of a redirect
// so the search runs once.
func (h *PlaysHandler) Search(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Redirect(w, r, redirectPlays, http.StatusSeeOther)
		return
	}

	key := h.sessionKey(r)
	if !h.cooldown.Take(key) {
		slog.Debug("search ignored during cooldown", "user_id", middleware.GetUserID(r))
		w.WriteHeader(http.StatusNoContent)
		return
	}

	target := pageURL(1, search.FromValues(r.PostForm), false)
	if r.Header.Get(headerRequestedWith) == requestedWithFetch {
		// the script navigates itself, replacing the history entry
		w.Header().Set(headerNavigate, target)
		w.WriteHeader(http.StatusOK)
		return
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

func (h *PlaysHandler) run(w http.ResponseWriter, r *http.Request, q search.Query) {
	viewer := middleware.GetIdentity(r)

	res, err := h.searches.Execute(r.Context(), h.sessionKey(r), h.jar(r), q)
	if err != nil {
		if errors.Is(err, search.ErrUnauthorized) && h.expired(w, r, err) {
			return
		}
		logAndInternalError(w, "play search failed", "error", err)
		return
	}

	filters := q.Filters
	if res.TotalPages > 0 && res.Query.Page > res.TotalPages {
		http.Redirect(w, r, pageURL(res.TotalPages, filters, false), http.StatusSeeOther)
		return
	}

	data := PlaysPageData{
		Result:  res,
		Works:   search.NewWorkViews(res.Plays, viewer, h.assetBase),
		Filters: filters,
		Pagination: uikit.BuildPagination(res.Query.Page, res.TotalPages, func(n int) string {
			return pageURL(n, filters, true)
		}),
		ShowAdvanced:      filters.HasAdvanced(),
		CanCreate:         viewer != nil && viewer.Account == auth.LevelUnlocked,
		Genres:            search.Genres,
		FundingTypes:      search.FundingTypes,
		OrganizationTypes: search.OrganizationTypes,
	}

	h.renderer.RenderPage(w, r, "plays", render.TemplateData{
		Title:    titlePlays,
		Identity: viewer,
		Data:     data,
	})
}

// sessionKey identifies the browser session for the cooldown and the
// search snapshot. The backend cookie digest is stable across scs token
// renewals.
func (h *PlaysHandler) sessionKey(r *http.Request) string {
	if key := h.jar(r).Key(); key != "" {
		return key
	}
	return h.sm.Token(r.Context())
}

// pageURL builds a result page link keeping the filters.
func pageURL(page int, f search.Filters, nav bool) string {
	v := f.Values()
	if nav {
		v.Set("nav", "1")
	}
	u := redirectPlaysPage + strconv.Itoa(page)
	if len(v) > 0 {
		u += "?" + v.Encode()
	}
	return u
}
