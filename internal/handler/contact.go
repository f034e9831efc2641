// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"log/slog"
	"net/http"

	"github.com/alexedwards/scs/v2"
	"github.com/go-chi/chi/v5"

	"github.com/olegiv/mpdb-web/internal/apiclient"
	"github.com/olegiv/mpdb-web/internal/auth"
	"github.com/olegiv/mpdb-web/internal/form"
	"github.com/olegiv/mpdb-web/internal/middleware"
	"github.com/olegiv/mpdb-web/internal/render"
)

// Contact messages.
const (
	msgContactSent     = "Thank you! Your message has been sent successfully."
	msgContactUserSent = "Message delivered anonymously!"
	msgContactDisabled = "This user does not accept messages."
)

// ContactHandler serves the staff contact form and anonymous messages to
// users.
type ContactHandler struct {
	backendSession
	api      *apiclient.Client
	renderer *render.Renderer
}

// NewContactHandler creates a new ContactHandler.
func NewContactHandler(api *apiclient.Client, renderer *render.Renderer, sm *scs.SessionManager, provider auth.SessionProvider) *ContactHandler {
	return &ContactHandler{
		backendSession: backendSession{sm: sm, provider: provider},
		api:            api,
		renderer:       renderer,
	}
}

// ContactPageData is the contact template data.
type ContactPageData struct {
	Form    form.ContactForm
	Message string
	Success bool
}

// ContactUserPageData is the contact user template data.
type ContactUserPageData struct {
	RecipientID   string
	RecipientName string
	Form          form.ContactUserForm
	Message       string
	Success       bool
	// Disabled hides the form when the recipient cannot be messaged.
	Disabled bool
}

// Form handles GET /contact. Logged in users get their name and email
// filled in.
func (h *ContactHandler) Form(w http.ResponseWriter, r *http.Request) {
	var f form.ContactForm
	if id := middleware.GetIdentity(r); id != nil {
		f.FirstName = id.FirstName
		f.LastName = id.LastName
		f.EmailAddress = id.Email
		f.MobileNo = id.Phone
	}
	h.render(w, r, http.StatusOK, ContactPageData{Form: f})
}

// Send handles POST /contact.
func (h *ContactHandler) Send(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.render(w, r, http.StatusBadRequest, ContactPageData{Message: form.MsgFillRequired})
		return
	}

	f := form.ContactFromValues(r.PostForm)
	if !f.Valid() {
		h.render(w, r, http.StatusUnprocessableEntity, ContactPageData{Form: f, Message: form.MsgFillRequired})
		return
	}

	if err := h.api.Contact(r.Context(), f.Request()); err != nil {
		slog.Error("contact message failed", "error", err, "category", "backend")
		h.render(w, r, http.StatusOK, ContactPageData{Form: f, Message: apiclient.UserMessage(err)})
		return
	}

	slog.Info("contact message sent", "user_id", middleware.GetUserID(r), "category", "user")
	h.render(w, r, http.StatusOK, ContactPageData{Message: msgContactSent, Success: true})
}

// UserForm handles GET /contact/{id}.
func (h *ContactHandler) UserForm(w http.ResponseWriter, r *http.Request) {
	data, status, ok := h.recipient(w, r)
	if !ok {
		return
	}
	h.renderUser(w, r, status, data)
}

// UserSend handles POST /contact/{id}.
func (h *ContactHandler) UserSend(w http.ResponseWriter, r *http.Request) {
	data, status, ok := h.recipient(w, r)
	if !ok {
		return
	}
	if data.Disabled {
		h.renderUser(w, r, status, data)
		return
	}

	if err := r.ParseForm(); err != nil {
		data.Message = form.MsgEnterMessage
		h.renderUser(w, r, http.StatusBadRequest, data)
		return
	}
	f := form.ContactUserFromValues(r.PostForm)
	data.Form = f
	if !f.Valid() {
		data.Message = form.MsgEnterMessage
		h.renderUser(w, r, http.StatusUnprocessableEntity, data)
		return
	}

	if err := h.api.ContactUser(r.Context(), h.jar(r), data.RecipientID, f.Message); err != nil {
		if h.expired(w, r, err) {
			return
		}
		slog.Error("user message failed", "recipient_id", data.RecipientID, "error", err, "category", "backend")
		data.Message = apiclient.UserMessage(err)
		h.renderUser(w, r, http.StatusOK, data)
		return
	}

	// the sender stays anonymous to the recipient, not to the log
	slog.Info("user message sent", "user_id", middleware.GetUserID(r), "recipient_id", data.RecipientID, "category", "user")
	data.Form = form.ContactUserForm{}
	data.Message = msgContactUserSent
	data.Success = true
	h.renderUser(w, r, http.StatusOK, data)
}

// recipient loads the user named in the path. ok false means the response
// has been written.
func (h *ContactHandler) recipient(w http.ResponseWriter, r *http.Request) (ContactUserPageData, int, bool) {
	id := chi.URLParam(r, "id")
	data := ContactUserPageData{RecipientID: id}

	user, err := h.api.User(r.Context(), h.jar(r), id)
	if err != nil {
		if h.expired(w, r, err) {
			return data, 0, false
		}
		status := http.StatusNotFound
		if !apiclient.IsNotFound(err) {
			slog.Error("failed to load recipient", "recipient_id", id, "error", err)
			status = http.StatusBadGateway
		}
		data.Disabled = true
		data.Message = msgUserNotFound
		return data, status, true
	}
	if user == nil || user.ID == "" {
		data.Disabled = true
		data.Message = msgUserNotFound
		return data, http.StatusNotFound, true
	}

	data.RecipientName = user.FullName()
	vis := user.Profile.Visibility
	if !bool(user.Contact) || (len(vis) > 0 && !vis["contact"]) {
		data.Disabled = true
		data.Message = msgContactDisabled
		return data, http.StatusForbidden, true
	}
	return data, http.StatusOK, true
}

func (h *ContactHandler) render(w http.ResponseWriter, r *http.Request, status int, data ContactPageData) {
	h.renderer.RenderStatus(w, r, status, "contact", render.TemplateData{
		Title:    titleContact,
		Identity: middleware.GetIdentity(r),
		Data:     data,
	})
}

func (h *ContactHandler) renderUser(w http.ResponseWriter, r *http.Request, status int, data ContactUserPageData) {
	h.renderer.RenderStatus(w, r, status, "contact_user", render.TemplateData{
		Title:    titleContactUser,
		Identity: middleware.GetIdentity(r),
		Data:     data,
	})
}
