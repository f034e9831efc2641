// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/alexedwards/scs/v2"
	"github.com/go-chi/chi/v5"

	"github.com/olegiv/mpdb-web/internal/apiclient"
	"github.com/olegiv/mpdb-web/internal/auth"
	"github.com/olegiv/mpdb-web/internal/middleware"
	"github.com/olegiv/mpdb-web/internal/render"
)

// User management messages.
const (
	msgUsersLoadFailed  = "Failed to load users."
	msgAccountUpdated   = "Account level updated."
	msgAccountFailed    = "Failed to update account level."
	msgInvalidLevel     = "Invalid account level."
	msgUserDeleted      = "User deleted."
	msgUserDeleteFailed = "Failed to delete user."
	msgCannotDeleteSelf = "You cannot delete your own account."
	msgCannotDemoteSelf = "You cannot change your own account level."
)

// AdminHandler serves user management for administrators.
type AdminHandler struct {
	backendSession
	api      *apiclient.Client
	renderer *render.Renderer
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(api *apiclient.Client, renderer *render.Renderer, sm *scs.SessionManager, provider auth.SessionProvider) *AdminHandler {
	return &AdminHandler{
		backendSession: backendSession{sm: sm, provider: provider},
		api:            api,
		renderer:       renderer,
	}
}

// AdminUserRow is one user in the management table.
type AdminUserRow struct {
	ID      string
	Name    string
	Email   string
	Phone   string
	Account int
	Self    bool
}

// AdminUsersPageData is the user management template data.
type AdminUsersPageData struct {
	Users   []AdminUserRow
	Levels  []int
	Message string
}

// Users handles GET /admin/users.
func (h *AdminHandler) Users(w http.ResponseWriter, r *http.Request) {
	admin := middleware.GetIdentity(r)
	data := AdminUsersPageData{Levels: auth.Levels()}

	users, err := h.api.AdminUsers(r.Context(), h.jar(r))
	if err != nil {
		if h.expired(w, r, err) {
			return
		}
		slog.Error("failed to load users", "error", err)
		data.Message = msgUsersLoadFailed
	}

	data.Users = make([]AdminUserRow, 0, len(users))
	for _, u := range users {
		data.Users = append(data.Users, AdminUserRow{
			ID:      u.ID,
			Name:    u.FullName(),
			Email:   u.Email,
			Phone:   u.Phone,
			Account: u.Account,
			Self:    u.ID == admin.ID,
		})
	}

	h.renderer.RenderPage(w, r, "admin_users", render.TemplateData{
		Title:    titleAdminUsers,
		Identity: admin,
		Data:     data,
	})
}

// SetAccount handles POST /admin/users/{id}/account.
func (h *AdminHandler) SetAccount(w http.ResponseWriter, r *http.Request) {
	if !parseFormOrRedirect(w, r, h.renderer, redirectAdminUsers) {
		return
	}

	admin := middleware.GetIdentity(r)
	targetID := chi.URLParam(r, "id")
	account, err := strconv.Atoi(r.PostFormValue("account"))
	if err != nil || !auth.ValidLevel(account) {
		flashError(w, r, h.renderer, redirectAdminUsers, msgInvalidLevel)
		return
	}
	if targetID == admin.ID {
		flashError(w, r, h.renderer, redirectAdminUsers, msgCannotDemoteSelf)
		return
	}

	if err := h.api.AdminSetAccount(r.Context(), h.jar(r), targetID, account); err != nil {
		if h.expired(w, r, err) {
			return
		}
		slog.Error("failed to update account level", "target_id", targetID, "error", err, "category", "user")
		flashError(w, r, h.renderer, redirectAdminUsers, msgAccountFailed)
		return
	}

	slog.Info("account level changed",
		"user_id", admin.ID,
		"target_id", targetID,
		"account", auth.LevelName(account),
		"category", "user",
	)
	flashSuccess(w, r, h.renderer, redirectAdminUsers, msgAccountUpdated)
}

// Delete handles POST /admin/users/{id}/delete.
func (h *AdminHandler) Delete(w http.ResponseWriter, r *http.Request) {
	admin := middleware.GetIdentity(r)
	targetID := chi.URLParam(r, "id")
	if targetID == admin.ID {
		flashError(w, r, h.renderer, redirectAdminUsers, msgCannotDeleteSelf)
		return
	}

	if err := h.api.AdminDeleteUser(r.Context(), h.jar(r), targetID); err != nil {
		if h.expired(w, r, err) {
			return
		}
		slog.Error("failed to delete user", "target_id", targetID, "error", err, "category", "user")
		flashError(w, r, h.renderer, redirectAdminUsers, msgUserDeleteFailed)
		return
	}

	slog.Warn("user deleted", "user_id", admin.ID, "target_id", targetID, "category", "user")
	flashSuccess(w, r, h.renderer, redirectAdminUsers, msgUserDeleted)
}
