// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/alexedwards/scs/v2"

	"github.com/olegiv/mpdb-web/internal/apiclient"
	"github.com/olegiv/mpdb-web/internal/auth"
	"github.com/olegiv/mpdb-web/internal/form"
	"github.com/olegiv/mpdb-web/internal/imaging"
	"github.com/olegiv/mpdb-web/internal/middleware"
	"github.com/olegiv/mpdb-web/internal/render"
	"github.com/olegiv/mpdb-web/internal/search"
)

// Settings messages.
const (
	msgProfileUpdated = "Profile updated!"
	msgProfileFailed  = "Failed to save changes."
	msgPictureFormat  = "Only PNG/JPG/JPEG files allowed."
	keyProfilePicture = "profilePic"
)

// SettingsHandler serves the profile settings form.
type SettingsHandler struct {
	backendSession
	api       *apiclient.Client
	renderer  *render.Renderer
	pictures  *imaging.Preprocessor
	maxUpload int64
	assetBase string
}

// NewSettingsHandler creates a new SettingsHandler.
func NewSettingsHandler(api *apiclient.Client, renderer *render.Renderer, sm *scs.SessionManager, provider auth.SessionProvider, pictures *imaging.Preprocessor, maxUpload int64, assetBase string) *SettingsHandler {
	return &SettingsHandler{
		backendSession: backendSession{sm: sm, provider: provider},
		api:            api,
		renderer:       renderer,
		pictures:       pictures,
		maxUpload:      maxUpload,
		assetBase:      assetBase,
	}
}

// SettingsField is one row of the profile editor.
type SettingsField struct {
	Key         string
	Label       string
	Value       string
	Type        string // text, textarea, checkbox or file
	Placeholder string
	Checked     bool
	Visible     bool
}

// SettingsPageData is the settings template data.
type SettingsPageData struct {
	Form     form.SettingsForm
	Fields   []SettingsField
	PhotoURL string
	Errors   map[string]string
	Message  string
}

func newSettingsPage(f form.SettingsForm, photo string) SettingsPageData {
	return SettingsPageData{Form: f, Fields: settingsFields(f), PhotoURL: photo}
}

// settingsFields lists the editor rows in display order.
func settingsFields(f form.SettingsForm) []SettingsField {
	fields := []SettingsField{
		{Key: "phone", Label: "Phone", Value: f.Phone, Type: "text", Placeholder: "+1 (555) 555-5555"},
		{Key: "description", Label: "Description", Value: f.Description, Type: "textarea"},
		{Key: "biography", Label: "Biography", Value: f.Biography, Type: "textarea"},
		{Key: "companyName", Label: "Company Name", Value: f.CompanyName, Type: "text"},
		{Key: "street", Label: "Street", Value: f.Street, Type: "text"},
		{Key: "stateCity", Label: "State & City", Value: f.StateCity, Type: "text"},
		{Key: "country", Label: "Country", Value: f.Country, Type: "text"},
		{Key: "website", Label: "Website", Value: f.Website, Type: "text", Placeholder: "https://example.com"},
		{Key: "contact", Label: "Contact Form Enable/Disable", Type: "checkbox", Checked: f.Contact},
		{Key: keyProfilePicture, Label: "Profile Picture", Type: "file"},
	}
	for i := range fields {
		fields[i].Visible = f.Visibility[fields[i].Key]
	}
	return fields
}

// Form handles GET /settings. The profile is fetched fresh so the form
// never shows a cached identity.
func (h *SettingsHandler) Form(w http.ResponseWriter, r *http.Request) {
	user, err := h.api.Profile(r.Context(), h.jar(r))
	if err != nil {
		if h.expired(w, r, err) {
			return
		}
		slog.Warn("profile fetch failed, using cached identity", "error", err)
		user = middleware.GetIdentity(r)
	}
	if user == nil {
		user = middleware.GetIdentity(r)
	}

	h.render(w, r, http.StatusOK, newSettingsPage(form.SettingsFromUser(user), h.photo(user)))
}

// Save handles POST /settings.
func (h *SettingsHandler) Save(w http.ResponseWriter, r *http.Request) {
	viewer := middleware.GetIdentity(r)
	photo := h.photo(viewer)

	if !parseUpload(w, r, h.maxUpload) {
		data := newSettingsPage(form.SettingsFromUser(viewer), photo)
		data.Message = msgUploadTooLarge
		h.render(w, r, http.StatusRequestEntityTooLarge, data)
		return
	}

	f := form.SettingsFromValues(r.PostForm)
	data := newSettingsPage(f, photo)
	if errs := f.Errors(); len(errs) > 0 {
		data.Errors = errs
		h.render(w, r, http.StatusUnprocessableEntity, data)
		return
	}

	body, err := f.Multipart()
	if err != nil {
		logAndInternalError(w, "failed to encode settings", "error", err)
		return
	}

	picture, err := processedUpload(r, "profilePicture", h.pictures)
	if err != nil {
		data.Message = msgImageResizeFailed
		if errors.Is(err, imaging.ErrFormat) {
			data.Message = msgPictureFormat
		}
		h.render(w, r, http.StatusUnprocessableEntity, data)
		return
	}
	if picture != nil {
		body.Files = append(body.Files, *picture)
	}

	jar := h.jar(r)
	if _, err := h.api.UpdateProfile(r.Context(), jar, body); err != nil {
		if h.expired(w, r, err) {
			return
		}
		slog.Error("failed to update profile", "user_id", viewer.ID, "error", err, "category", "user")
		data.Message = msgProfileFailed
		h.render(w, r, http.StatusOK, data)
		return
	}

	// the cached identity carries the old profile
	h.provider.Invalidate(r.Context(), jar)

	slog.Info("profile updated", "user_id", viewer.ID, "picture", picture != nil, "category", "user")
	flashSuccess(w, r, h.renderer, pathSettings, msgProfileUpdated)
}

func (h *SettingsHandler) photo(u *apiclient.User) string {
	if u == nil {
		return PlaceholderPhoto
	}
	return search.AssetURL(u.Profile.ProfilePicture, h.assetBase, PlaceholderPhoto)
}

func (h *SettingsHandler) render(w http.ResponseWriter, r *http.Request, status int, data SettingsPageData) {
	h.renderer.RenderStatus(w, r, status, "settings", render.TemplateData{
		Title:    titleSettings,
		Identity: middleware.GetIdentity(r),
		Data:     data,
	})
}
