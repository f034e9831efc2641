// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/alexedwards/scs/v2"
	"github.com/go-chi/chi/v5"

	"github.com/olegiv/mpdb-web/internal/apiclient"
	"github.com/olegiv/mpdb-web/internal/auth"
	"github.com/olegiv/mpdb-web/internal/middleware"
	"github.com/olegiv/mpdb-web/internal/render"
	"github.com/olegiv/mpdb-web/internal/search"
	"github.com/olegiv/mpdb-web/internal/uikit"
)

// Profile fallbacks.
const (
	PlaceholderPhoto = "https://upload.wikimedia.org/wikipedia/commons/8/89/Portrait_Placeholder.png"
	noDescription    = "This playwright has not added a description yet."
	noBiography      = "This playwright hasn't written a biography yet."
	noCompany        = "No company listed."
	noAddress        = "No address provided."
	noCountry        = "No country specified."
	noWebsite        = "No website provided."
	msgUserNotFound  = "User not found."
)

// ProfileHandler serves user profiles.
type ProfileHandler struct {
	backendSession
	api       *apiclient.Client
	renderer  *render.Renderer
	assetBase string
}

// NewProfileHandler creates a new ProfileHandler.
func NewProfileHandler(api *apiclient.Client, renderer *render.Renderer, sm *scs.SessionManager, provider auth.SessionProvider, assetBase string) *ProfileHandler {
	return &ProfileHandler{
		backendSession: backendSession{sm: sm, provider: provider},
		api:            api,
		renderer:       renderer,
		assetBase:      assetBase,
	}
}

// ProfileView is a profile prepared for display. Hidden and empty fields
// carry their fallback text.
type ProfileView struct {
	ID          string
	FirstName   string
	Name        string
	PhotoURL    string
	Description string
	Biography   string
	Company     string
	Address     string
	Country     string
	Phone       string
	Website     string
	// WebsiteURL is the link target, empty when there is none.
	WebsiteURL string
	PlaysURL   string
	ContactURL string
	// Own is true when viewers look at their own profile.
	Own       bool
	CanSubmit bool
}

// ProfilePageData is the profile template data.
type ProfilePageData struct {
	Profile *ProfileView
	Message string
}

// NewProfileView applies the visibility map of user for viewer. Owners
// and administrators see every field. A user without a visibility map
// shows everything.
func NewProfileView(user *apiclient.User, viewer *auth.Identity, assetBase string) *ProfileView {
	own := viewer != nil && viewer.ID == user.ID
	seeAll := own || auth.IsAdmin(viewer)
	vis := user.Profile.Visibility
	visible := func(key string) bool {
		return seeAll || len(vis) == 0 || vis[key]
	}
	field := func(key, value, fallback string) string {
		value = strings.TrimSpace(value)
		if value == "" || !visible(key) {
			return fallback
		}
		return value
	}

	p := &ProfileView{
		ID:          user.ID,
		FirstName:   user.FirstName,
		Name:        user.FullName(),
		Description: field("description", user.Profile.Description, noDescription),
		Biography:   field("biography", user.Profile.Biography, noBiography),
		Company:     field("companyName", user.Profile.CompanyName, noCompany),
		Country:     field("country", user.Profile.Country, noCountry),
		Phone:       field("phone", user.Phone, ""),
		Website:     field("website", user.Profile.Website, noWebsite),
		PlaysURL:    redirectPlays + "?" + url.Values{"search": {user.FullName()}}.Encode(),
		Own:         own,
		CanSubmit:   own && viewer.Account > auth.LevelPlaywright,
	}

	p.PhotoURL = PlaceholderPhoto
	if visible("profilePic") {
		p.PhotoURL = search.AssetURL(user.Profile.ProfilePicture, assetBase, PlaceholderPhoto)
	}

	var parts []string
	if s := field("street", user.Profile.Street, ""); s != "" {
		parts = append(parts, s)
	}
	if s := field("stateCity", user.Profile.StateCity, ""); s != "" {
		parts = append(parts, s)
	}
	p.Address = noAddress
	if len(parts) > 0 {
		p.Address = strings.Join(parts, ", ")
	}

	if p.Website != noWebsite {
		p.WebsiteURL = uikit.WebsiteURL(p.Website)
	}
	if bool(user.Contact) && visible("contact") && !own {
		p.ContactURL = redirectContactUser + url.PathEscape(user.ID)
	}
	return p
}

// Own handles GET /profile.
func (h *ProfileHandler) Own(w http.ResponseWriter, r *http.Request) {
	viewer := middleware.GetIdentity(r)
	h.render(w, r, http.StatusOK, ProfilePageData{Profile: NewProfileView(viewer, viewer, h.assetBase)})
}

// Show handles GET /profile/{id}.
func (h *ProfileHandler) Show(w http.ResponseWriter, r *http.Request) {
	viewer := middleware.GetIdentity(r)
	id := chi.URLParam(r, "id")
	if id == viewer.ID {
		h.Own(w, r)
		return
	}

	user, err := h.api.User(r.Context(), h.jar(r), id)
	if err != nil {
		if h.expired(w, r, err) {
			return
		}
		status := http.StatusNotFound
		if !apiclient.IsNotFound(err) {
			slog.Error("failed to load profile", "profile_id", id, "error", err)
			status = http.StatusBadGateway
		}
		h.render(w, r, status, ProfilePageData{Message: msgUserNotFound})
		return
	}
	if user == nil || user.ID == "" {
		h.render(w, r, http.StatusNotFound, ProfilePageData{Message: msgUserNotFound})
		return
	}

	h.render(w, r, http.StatusOK, ProfilePageData{Profile: NewProfileView(user, viewer, h.assetBase)})
}

func (h *ProfileHandler) render(w http.ResponseWriter, r *http.Request, status int, data ProfilePageData) {
	h.renderer.RenderStatus(w, r, status, "profile", render.TemplateData{
		Title:    titleProfile,
		Identity: middleware.GetIdentity(r),
		Data:     data,
	})
}
