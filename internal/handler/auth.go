// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/go-chi/chi/v5"
	"github.com/mileusna/useragent"

	"github.com/olegiv/mpdb-web/internal/apiclient"
	"github.com/olegiv/mpdb-web/internal/auth"
	"github.com/olegiv/mpdb-web/internal/form"
	"github.com/olegiv/mpdb-web/internal/middleware"
	"github.com/olegiv/mpdb-web/internal/render"
	"github.com/olegiv/mpdb-web/internal/search"
	"github.com/olegiv/mpdb-web/internal/session"
)

// Login page messages.
const (
	msgInvalidCredentials = "Invalid email or password"
	msgLoginServerError   = "Server error, please try again later"
	msgSignupFailed       = "Something went wrong"
	msgSignupServerError  = "Server error"
	msgForgotSent         = "Success! If an account exists for this email, a password reset link has been sent. Check your inbox."
	msgForgotFailed       = "Something went wrong. Please try again."
	msgResetDone          = "Your password has been reset. Please log in."
)

// AuthHandler handles account creation, sign in and password resets.
type AuthHandler struct {
	backendSession
	api             *apiclient.Client
	renderer        *render.Renderer
	searches        *search.Controller
	loginProtection *middleware.LoginProtection
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(api *apiclient.Client, renderer *render.Renderer, sm *scs.SessionManager, provider auth.SessionProvider, searches *search.Controller, lp *middleware.LoginProtection) *AuthHandler {
	return &AuthHandler{
		backendSession:  backendSession{sm: sm, provider: provider},
		api:             api,
		renderer:        renderer,
		searches:        searches,
		loginProtection: lp,
	}
}

// SignupPageData is the signup template data.
type SignupPageData struct {
	Form    form.SignupForm
	Errors  map[string]string
	Message string
}

// LoginPageData is the login template data.
type LoginPageData struct {
	Email   string
	Message string
}

// ForgotPageData is the forgot-password template data.
type ForgotPageData struct {
	Email   string
	Message string
	Success bool
}

// ResetPageData is the reset-password template data.
type ResetPageData struct {
	Token   string
	Message string
}

// SignupForm renders the account creation page.
func (h *AuthHandler) SignupForm(w http.ResponseWriter, r *http.Request) {
	h.renderSignup(w, r, http.StatusOK, SignupPageData{Form: form.SignupForm{Account: form.AccountEducator}})
}

// Signup handles POST /signup. An invalid form never reaches the backend.
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	if !parseFormOrRedirect(w, r, h.renderer, redirectSignup) {
		return
	}

	f := form.SignupFromValues(r.PostForm)
	if errs := f.Errors(); len(errs) > 0 {
		f.Password = ""
		h.renderSignup(w, r, http.StatusUnprocessableEntity, SignupPageData{Form: f, Errors: errs})
		return
	}

	if err := h.api.Signup(r.Context(), f.Request()); err != nil {
		slog.Warn("signup failed", "account", f.Account, "ip", middleware.ClientIP(r), "error", err, "category", "user")
		msg := msgSignupFailed
		var httpErr *apiclient.HTTPError
		switch {
		case errors.As(err, &httpErr) && httpErr.Message != "":
			msg = httpErr.Message
		case apiclient.StatusOf(err) >= http.StatusInternalServerError, errors.Is(err, apiclient.ErrUnavailable):
			msg = msgSignupServerError
		}
		f.Password = ""
		h.renderSignup(w, r, http.StatusOK, SignupPageData{Form: f, Message: msg})
		return
	}

	slog.Info("account created", "account", auth.LevelName(f.Account), "ip", middleware.ClientIP(r), "category", "user")
	h.sm.Put(r.Context(), session.KeyAccountCreated, true)
	http.Redirect(w, r, redirectLogin, http.StatusSeeOther)
}

func (h *AuthHandler) renderSignup(w http.ResponseWriter, r *http.Request, status int, data SignupPageData) {
	h.renderer.RenderStatus(w, r, status, "signup", render.TemplateData{
		Title: titleSignup,
		Data:  data,
	})
}

// LoginForm renders the login page. A session the backend still knows
// goes straight to the plays. The "account created" popup shows once.
func (h *AuthHandler) LoginForm(w http.ResponseWriter, r *http.Request) {
	if jar := h.jar(r); !jar.Empty() {
		user, err := h.api.Check(r.Context(), jar)
		if err == nil && user != nil && user.ID != "" {
			http.Redirect(w, r, redirectPlays, http.StatusSeeOther)
			return
		}
	}

	h.renderLogin(w, r, http.StatusOK, LoginPageData{})
}

// Login handles POST /login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if !parseFormOrRedirect(w, r, h.renderer, redirectLogin) {
		return
	}

	ctx := r.Context()
	ip := middleware.ClientIP(r)
	f := form.LoginFromValues(r.PostForm)
	if !f.Valid() {
		h.renderLogin(w, r, http.StatusUnprocessableEntity, LoginPageData{Email: f.Email, Message: msgInvalidCredentials})
		return
	}

	if locked, remaining := h.loginProtection.IsAccountLocked(f.Email); locked {
		slog.Warn("login attempt on locked account", "ip", ip, "remaining", remaining.Round(time.Second), "category", "auth")
		h.renderLogin(w, r, http.StatusTooManyRequests, LoginPageData{Email: f.Email, Message: lockedMessage(remaining.Minutes())})
		return
	}

	jar, user, err := h.api.Login(ctx, f.Request())
	if err != nil {
		status := apiclient.StatusOf(err)
		if status == 0 || status >= http.StatusInternalServerError {
			slog.Error("login request failed", "ip", ip, "error", err)
			h.renderLogin(w, r, http.StatusOK, LoginPageData{Email: f.Email, Message: msgLoginServerError})
			return
		}

		nowLocked, lockout := h.loginProtection.RecordFailedAttempt(f.Email)
		slog.Warn("failed login attempt",
			"ip", ip,
			"remaining_attempts", h.loginProtection.GetRemainingAttempts(f.Email),
			"locked", nowLocked,
			"category", "auth",
		)
		msg := msgInvalidCredentials
		var httpErr *apiclient.HTTPError
		if errors.As(err, &httpErr) && httpErr.Message != "" {
			msg = httpErr.Message
		}
		if nowLocked {
			msg = lockedMessage(lockout.Minutes())
		}
		h.renderLogin(w, r, http.StatusOK, LoginPageData{Email: f.Email, Message: msg})
		return
	}

	h.loginProtection.RecordSuccessfulLogin(f.Email)

	// new privilege level, new session token
	if err := h.sm.RenewToken(ctx); err != nil {
		logAndInternalError(w, "failed to renew session token", "error", err)
		return
	}
	session.PutBackendCookies(ctx, h.sm, jar)

	userID := ""
	if user != nil {
		userID = user.ID
		h.sm.Put(ctx, session.KeyUserID, userID)
	}

	ua := useragent.Parse(r.UserAgent())
	slog.Info("user logged in",
		"user_id", userID,
		"ip", ip,
		"browser", ua.Name,
		"os", ua.OS,
		"mobile", ua.Mobile || ua.Tablet,
		"category", "auth",
	)

	http.Redirect(w, r, redirectPlays, http.StatusSeeOther)
}

func (h *AuthHandler) renderLogin(w http.ResponseWriter, r *http.Request, status int, data LoginPageData) {
	h.renderer.RenderStatus(w, r, status, "login", render.TemplateData{
		Title:          titleLogin,
		Data:           data,
		AccountCreated: h.sm.PopBool(r.Context(), session.KeyAccountCreated),
	})
}

func lockedMessage(minutes float64) string {
	m := int(minutes + 0.5)
	if m < 1 {
		m = 1
	}
	return fmt.Sprintf("Too many failed attempts. Please try again in %d minute(s).", m)
}

// Logout handles POST /logout. Backend failures are logged; the local
// session ends either way.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	jar := h.jar(r)
	userID := h.sm.GetString(ctx, session.KeyUserID)

	if !jar.Empty() {
		if err := h.api.Logout(ctx, jar); err != nil {
			slog.Warn("backend logout failed", "user_id", userID, "error", err)
		}
		h.provider.Invalidate(ctx, jar)
		h.searches.Forget(ctx, jar.Key())
	}

	if err := h.sm.Destroy(ctx); err != nil {
		logAndInternalError(w, "failed to destroy session", "error", err)
		return
	}

	slog.Info("user logged out", "user_id", userID, "category", "auth")
	http.Redirect(w, r, redirectLogin, http.StatusSeeOther)
}

// ForgotForm renders the forgot-password page.
func (h *AuthHandler) ForgotForm(w http.ResponseWriter, r *http.Request) {
	h.renderForgot(w, r, http.StatusOK, ForgotPageData{})
}

// Forgot handles POST /forgot-password. The answer does not reveal
// whether the address has an account.
func (h *AuthHandler) Forgot(w http.ResponseWriter, r *http.Request) {
	if !parseFormOrRedirect(w, r, h.renderer, redirectForgotPassword) {
		return
	}

	f := form.ForgotFromValues(r.PostForm)
	if !f.Valid() {
		h.renderForgot(w, r, http.StatusUnprocessableEntity, ForgotPageData{Email: f.Email, Message: form.MsgInvalidEmail})
		return
	}

	if err := h.api.ForgotPassword(r.Context(), f.Email); err != nil {
		slog.Warn("forgot password request failed", "ip", middleware.ClientIP(r), "error", err)
		msg := msgForgotFailed
		var httpErr *apiclient.HTTPError
		if errors.As(err, &httpErr) && httpErr.Message != "" {
			msg = httpErr.Message
		}
		h.renderForgot(w, r, http.StatusOK, ForgotPageData{Email: f.Email, Message: msg})
		return
	}

	h.renderForgot(w, r, http.StatusOK, ForgotPageData{Message: msgForgotSent, Success: true})
}

func (h *AuthHandler) renderForgot(w http.ResponseWriter, r *http.Request, status int, data ForgotPageData) {
	h.renderer.RenderStatus(w, r, status, "forgot", render.TemplateData{
		Title: titleForgot,
		Data:  data,
	})
}

// ResetForm renders the new password page for an emailed token.
func (h *AuthHandler) ResetForm(w http.ResponseWriter, r *http.Request) {
	h.renderReset(w, r, http.StatusOK, ResetPageData{Token: chi.URLParam(r, "token")})
}

// Reset handles POST /reset-password/{token}.
func (h *AuthHandler) Reset(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")
	if !parseFormOrRedirect(w, r, h.renderer, r.URL.Path) {
		return
	}

	f := form.ResetFromValues(r.PostForm)
	if !f.Valid() {
		h.renderReset(w, r, http.StatusUnprocessableEntity, ResetPageData{Token: token, Message: form.MsgResetMismatch})
		return
	}

	if err := h.api.ResetPassword(r.Context(), token, f.NewPassword); err != nil {
		slog.Warn("password reset failed", "ip", middleware.ClientIP(r), "error", err, "category", "auth")
		h.renderReset(w, r, http.StatusOK, ResetPageData{Token: token, Message: apiclient.UserMessage(err)})
		return
	}

	slog.Info("password reset", "ip", middleware.ClientIP(r), "category", "auth")
	flashSuccess(w, r, h.renderer, redirectLogin, msgResetDone)
}

func (h *AuthHandler) renderReset(w http.ResponseWriter, r *http.Request, status int, data ResetPageData) {
	h.renderer.RenderStatus(w, r, status, "reset", render.TemplateData{
		Title: titleReset,
		Data:  data,
	})
}
