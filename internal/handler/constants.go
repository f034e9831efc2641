// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

// Route pattern constants for chi router registration.
const (
	// RouteRoot is the root path.
	RouteRoot = "/"

	// RouteSignup is the account creation page.
	RouteSignup = "/signup"
	// RouteLogin is the login page.
	RouteLogin = "/login"
	// RouteLogout ends the session (POST only).
	RouteLogout = "/logout"
	// RouteForgotPassword requests a reset email.
	RouteForgotPassword = "/forgot-password"
	// RouteResetPassword sets a new password with an emailed token.
	RouteResetPassword = "/reset-password/{token}"

	// RoutePlays is the initial search page.
	RoutePlays = "/plays"
	// RoutePlaysPage is one result page.
	RoutePlaysPage = "/plays/page/{page}"
	// RoutePlaysSearch runs an explicit search (POST only).
	RoutePlaysSearch = "/plays/search"
	// RoutePlaysCreate is the new play form.
	RoutePlaysCreate = "/plays/create"
	// RouteEditPlay is the play edit form.
	RouteEditPlay = "/edit-play/{id}"

	// RouteProfile is the signed-in user's profile.
	RouteProfile = "/profile"
	// RouteProfileID is another user's profile.
	RouteProfileID = "/profile/{id}"
	// RouteSettings is the profile settings form.
	RouteSettings = "/settings"

	// RouteContact is the public contact form.
	RouteContact = "/contact"
	// RouteContactUser messages one user.
	RouteContactUser = "/contact/{id}"

	// RouteAdminUsers is the user management page.
	RouteAdminUsers = "/admin/users"
	// RouteAdminUserAccount changes a user's account level (POST only).
	RouteAdminUserAccount = "/admin/users/{id}/account"
	// RouteAdminUserDelete removes a user (POST only).
	RouteAdminUserDelete = "/admin/users/{id}/delete"
	// RouteAdminEvents is the event log and job overview.
	RouteAdminEvents = "/admin/events"
	// RouteAdminJobTrigger runs a scheduled job now (POST only).
	RouteAdminJobTrigger = "/admin/jobs/{name}/trigger"

	// RouteHealth is the combined health report.
	RouteHealth = "/health"
	// RouteHealthLive is the liveness probe.
	RouteHealthLive = "/health/live"
	// RouteHealthReady is the readiness probe.
	RouteHealthReady = "/health/ready"

	RouteRobots  = "/robots.txt"
	RouteSitemap = "/sitemap.xml"
)

// Legal page slugs, served at "/" + slug.
var LegalSlugs = []string{"terms", "cookies", "privacy", "dmca"}

const (
	redirectSignup         = RouteSignup
	redirectLogin          = RouteLogin
	redirectPlays          = RoutePlays
	redirectPlaysPage      = "/plays/page/"
	redirectPlaysCreate    = RoutePlaysCreate
	redirectProfile        = "/profile/"
	redirectContactUser    = "/contact/"
	redirectEditPlay       = "/edit-play/"
	redirectAdminUsers     = RouteAdminUsers
	redirectAdminEvents    = RouteAdminEvents
	pathSettings           = RouteSettings
	redirectForgotPassword = RouteForgotPassword
)

// Page titles.
const (
	titleSignup      = "Signup – MPDB"
	titleLogin       = "Login – MPDB"
	titleForgot      = "Password Reset – MPDB"
	titleReset       = "Reset Password – MPDB"
	titlePlays       = "MPDB"
	titleCreate      = "Create – MPDB"
	titleEdit        = "Edit – MPDB"
	titleProfile     = "Profile – MPDB"
	titleSettings    = "Settings – MPDB"
	titleContact     = "Contact – MPDB"
	titleContactUser = "Contact User – MPDB"
	titleAdminUsers  = "Admin – User Management"
	titleAdminEvents = "Admin – Events"
)

// Utility constants used by main.go.
const (
	// HeaderContentType is the Content-Type HTTP header name.
	HeaderContentType = "Content-Type"
)

// Script requests mark themselves with X-Requested-With: fetch and get the
// next location in X-Navigate.
const (
	headerRequestedWith = "X-Requested-With"
	requestedWithFetch  = "fetch"
	headerNavigate      = "X-Navigate"
)
