// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package apiclient

import (
	"context"
	"net/http"
	"net/url"
)

// Signup creates an account. POST /api/auth/signup.
func (c *Client) Signup(ctx context.Context, in SignupRequest) error {
	_, err := c.call(ctx, request{method: http.MethodPost, path: "/api/auth/signup", jsonBody: in}, nil)
	return err
}

// Login authenticates and returns the backend cookies for the new session.
// POST /api/auth/login.
func (c *Client) Login(ctx context.Context, in LoginRequest) (Jar, *User, error) {
	var env userEnvelope
	resp, err := c.call(ctx, request{method: http.MethodPost, path: "/api/auth/login", jsonBody: in}, &env)
	if err != nil {
		return nil, nil, err
	}
	jar := Jar(nil).Merge(resp.raw)
	return jar, env.User, nil
}

// Logout ends the backend session. POST /api/auth/logout.
func (c *Client) Logout(ctx context.Context, jar Jar) error {
	_, err := c.call(ctx, request{method: http.MethodPost, path: "/api/auth/logout", jsonBody: struct{}{}, jar: jar}, nil)
	return err
}

// Check asks the backend who the jar belongs to. GET /api/auth/check.
// A nil user with a nil error means the backend answered but knows nobody.
func (c *Client) Check(ctx context.Context, jar Jar) (*User, error) {
	var env userEnvelope
	if _, err := c.call(ctx, request{method: http.MethodGet, path: "/api/auth/check", jar: jar}, &env); err != nil {
		return nil, err
	}
	return env.User, nil
}

// ForgotPassword requests a reset email. POST /api/auth/forgot-password.
func (c *Client) ForgotPassword(ctx context.Context, email string) error {
	body := map[string]string{"email": email}
	_, err := c.call(ctx, request{method: http.MethodPost, path: "/api/auth/forgot-password", jsonBody: body}, nil)
	return err
}

// ResetPassword sets a new password. POST /api/auth/reset-password/:token.
func (c *Client) ResetPassword(ctx context.Context, token, newPassword string) error {
	body := map[string]string{"newPassword": newPassword}
	path := "/api/auth/reset-password/" + url.PathEscape(token)
	_, err := c.call(ctx, request{method: http.MethodPost, path: path, jsonBody: body}, nil)
	return err
}

// Profile returns the signed-in user. GET /api/users/profile.
func (c *Client) Profile(ctx context.Context, jar Jar) (*User, error) {
	var env userEnvelope
	if _, err := c.call(ctx, request{method: http.MethodGet, path: "/api/users/profile", jar: jar}, &env); err != nil {
		return nil, err
	}
	return env.User, nil
}

// UpdateProfile replaces the signed-in user's profile. PUT /api/users/profile (multipart).
func (c *Client) UpdateProfile(ctx context.Context, jar Jar, body *Multipart) (*User, error) {
	var env userEnvelope
	if _, err := c.call(ctx, request{method: http.MethodPut, path: "/api/users/profile", multipart: body, jar: jar}, &env); err != nil {
		return nil, err
	}
	return env.User, nil
}

// User returns one user. GET /api/users/:id.
func (c *Client) User(ctx context.Context, jar Jar, id string) (*User, error) {
	var env userEnvelope
	if _, err := c.call(ctx, request{method: http.MethodGet, path: "/api/users/" + url.PathEscape(id), jar: jar}, &env); err != nil {
		return nil, err
	}
	return env.User, nil
}

// Users lists users. GET /api/users.
func (c *Client) Users(ctx context.Context, jar Jar) ([]User, error) {
	var env usersEnvelope
	if _, err := c.call(ctx, request{method: http.MethodGet, path: "/api/users", jar: jar}, &env); err != nil {
		return nil, err
	}
	return env.Users, nil
}

// SetUserAccount changes a user's account level. PUT /api/users/:id/account.
func (c *Client) SetUserAccount(ctx context.Context, jar Jar, id string, account int) error {
	body := map[string]int{"account": account}
	_, err := c.call(ctx, request{method: http.MethodPut, path: "/api/users/" + url.PathEscape(id) + "/account", jsonBody: body, jar: jar}, nil)
	return err
}

// DeleteUser removes a user. DELETE /api/users/:id.
func (c *Client) DeleteUser(ctx context.Context, jar Jar, id string) error {
	_, err := c.call(ctx, request{method: http.MethodDelete, path: "/api/users/" + url.PathEscape(id), jar: jar}, nil)
	return err
}

// AdminUsers lists all users for administrators. GET /api/admin/users,
// or GET /api/users on backends without the admin routes.
func (c *Client) AdminUsers(ctx context.Context, jar Jar) ([]User, error) {
	var env usersEnvelope
	if _, err := c.call(ctx, request{method: http.MethodGet, path: "/api/admin/users", jar: jar}, &env); err != nil {
		if IsNotFound(err) {
			return c.Users(ctx, jar)
		}
		return nil, err
	}
	return env.Users, nil
}

// AdminSetAccount changes a user's account level.
// PUT /api/admin/users/:id/account, falling back like AdminUsers.
func (c *Client) AdminSetAccount(ctx context.Context, jar Jar, id string, account int) error {
	body := map[string]int{"account": account}
	_, err := c.call(ctx, request{method: http.MethodPut, path: "/api/admin/users/" + url.PathEscape(id) + "/account", jsonBody: body, jar: jar}, nil)
	if IsNotFound(err) {
		return c.SetUserAccount(ctx, jar, id, account)
	}
	return err
}

// AdminDeleteUser removes a user.
// DELETE /api/admin/users/:id, falling back like AdminUsers.
func (c *Client) AdminDeleteUser(ctx context.Context, jar Jar, id string) error {
	_, err := c.call(ctx, request{method: http.MethodDelete, path: "/api/admin/users/" + url.PathEscape(id), jar: jar}, nil)
	if IsNotFound(err) {
		return c.DeleteUser(ctx, jar, id)
	}
	return err
}

// ListPlays fetches one page of plays. GET /api/plays.
// query is sent as given; callers omit empty filters.
func (c *Client) ListPlays(ctx context.Context, jar Jar, query url.Values) (*PlayList, error) {
	var list PlayList
	if _, err := c.call(ctx, request{method: http.MethodGet, path: "/api/plays", query: query, jar: jar}, &list); err != nil {
		return nil, err
	}
	return &list, nil
}

// Play fetches one play. GET /api/plays/:id.
// The backend answers either with the play itself or {"play": {...}}.
func (c *Client) Play(ctx context.Context, jar Jar, id string) (*Play, error) {
	var env struct {
		Play
		Wrapped *Play `json:"play"`
	}
	if _, err := c.call(ctx, request{method: http.MethodGet, path: "/api/plays/" + url.PathEscape(id), jar: jar}, &env); err != nil {
		return nil, err
	}
	if env.Wrapped != nil {
		return env.Wrapped, nil
	}
	return &env.Play, nil
}

// CreatePlay submits a new play. POST /api/plays (multipart).
func (c *Client) CreatePlay(ctx context.Context, jar Jar, body *Multipart) error {
	_, err := c.call(ctx, request{method: http.MethodPost, path: "/api/plays", multipart: body, jar: jar}, nil)
	return err
}

// UpdatePlay replaces a play. PUT /api/plays/:id (multipart).
func (c *Client) UpdatePlay(ctx context.Context, jar Jar, id string, body *Multipart) error {
	_, err := c.call(ctx, request{method: http.MethodPut, path: "/api/plays/" + url.PathEscape(id), multipart: body, jar: jar}, nil)
	return err
}

// Contact sends a message to site staff. POST /api/contact.
func (c *Client) Contact(ctx context.Context, in ContactRequest) error {
	_, err := c.send(ctx, request{method: http.MethodPost, path: "/api/contact", jsonBody: in})
	return err
}

// ContactUser sends an anonymous message to a user. POST /api/contact/user/:id.
// The backend may answer with plain text, so the body is not decoded.
func (c *Client) ContactUser(ctx context.Context, jar Jar, id, message string) error {
	body := map[string]string{"message": message}
	_, err := c.send(ctx, request{method: http.MethodPost, path: "/api/contact/user/" + url.PathEscape(id), jsonBody: body, jar: jar})
	return err
}

// Ping reports whether the backend answers HTTP at all. Any response below
// 500 counts as reachable; the root path need not exist. GET /.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.send(ctx, request{method: http.MethodGet, path: "/"})
	if status := StatusOf(err); err != nil && (status == 0 || status >= http.StatusInternalServerError) {
		return err
	}
	return nil
}
