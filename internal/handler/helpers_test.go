// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"testing/fstest"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/mpdb-web/internal/apiclient"
	"github.com/olegiv/mpdb-web/internal/auth"
	"github.com/olegiv/mpdb-web/internal/cache"
	"github.com/olegiv/mpdb-web/internal/content"
	"github.com/olegiv/mpdb-web/internal/imaging"
	"github.com/olegiv/mpdb-web/internal/middleware"
	"github.com/olegiv/mpdb-web/internal/render"
	"github.com/olegiv/mpdb-web/internal/scheduler"
	"github.com/olegiv/mpdb-web/internal/search"
	"github.com/olegiv/mpdb-web/internal/session"
	"github.com/olegiv/mpdb-web/internal/store"
)

const testBackendToken = "token=abc123"

// backendCall is one request seen by the fake backend.
type backendCall struct {
	Method      string
	Path        string
	Query       url.Values
	Cookie      string
	ContentType string
	Body        []byte
}

// fakeBackend is an httptest server standing in for the REST API. Routes
// use http.ServeMux patterns such as "GET /api/users/{id}".
type fakeBackend struct {
	server *httptest.Server
	mux    *http.ServeMux

	mu    sync.Mutex
	calls []backendCall
}

func newFakeBackend(t *testing.T) *fakeBackend {
	t.Helper()

	b := &fakeBackend{mux: http.NewServeMux()}
	b.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		b.mu.Lock()
		b.calls = append(b.calls, backendCall{
			Method:      r.Method,
			Path:        r.URL.Path,
			Query:       r.URL.Query(),
			Cookie:      r.Header.Get("Cookie"),
			ContentType: r.Header.Get("Content-Type"),
			Body:        body,
		})
		b.mu.Unlock()
		r.Body = io.NopCloser(bytes.NewReader(body))
		b.mux.ServeHTTP(w, r)
	}))
	t.Cleanup(b.server.Close)
	return b
}

func (b *fakeBackend) handle(pattern string, h http.HandlerFunc) {
	b.mux.HandleFunc(pattern, h)
}

// callsTo returns the recorded calls for method and path.
func (b *fakeBackend) callsTo(method, path string) []backendCall {
	b.mu.Lock()
	defer b.mu.Unlock()

	var out []backendCall
	for _, c := range b.calls {
		if c.Method == method && c.Path == path {
			out = append(out, c)
		}
	}
	return out
}

// withUser registers login, profile and check endpoints for user. Only
// requests carrying the issued cookie are recognized.
func (b *fakeBackend) withUser(user apiclient.User) {
	b.handle("POST /api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		name, value, _ := strings.Cut(testBackendToken, "=")
		http.SetCookie(w, &http.Cookie{Name: name, Value: value, Path: "/", HttpOnly: true})
		respondJSON(w, http.StatusOK, map[string]any{"user": user})
	})
	profile := func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.Header.Get("Cookie"), testBackendToken) {
			respondJSON(w, http.StatusUnauthorized, map[string]string{"message": "Not authenticated"})
			return
		}
		respondJSON(w, http.StatusOK, map[string]any{"user": user})
	}
	b.handle("GET /api/users/profile", profile)
	b.handle("GET /api/auth/check", profile)
	b.handle("POST /api/auth/logout", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"message": "Logged out"})
	})
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// testPages are the page templates the handlers render. Each prints its
// data so tests can look for values in the body.
var testPages = []string{
	"signup", "login", "forgot", "reset",
	"plays", "play_form", "profile", "settings",
	"contact", "contact_user", "legal",
	"admin_users", "admin_events",
}

func testTemplates() fstest.MapFS {
	fsys := fstest.MapFS{
		"layouts/base.html": {Data: []byte(`{{define "base"}}title={{.Title}}{{with .Flash}} flash={{.}}{{end}}{{if .AccountCreated}} account-created{{end}}
{{template "content" .}}{{end}}`)},
	}
	for _, name := range testPages {
		body, ok := testPageOverrides[name]
		if !ok {
			body = `{{printf "%+v" .Data}}`
		}
		fsys["pages/"+name+".html"] = &fstest.MapFile{Data: []byte(`{{define "content"}}` + body + `{{end}}`)}
	}
	return fsys
}

// testPageOverrides print what sits behind pointer fields.
var testPageOverrides = map[string]string{
	"plays":   `{{printf "%+v" .Data}} message={{.Data.Result.Message}} shown={{.Data.Result.Shown}} total={{.Data.Result.TotalResults}}`,
	"profile": `{{printf "%+v" .Data}}{{with .Data.Profile}} {{printf "%+v" .}}{{end}}`,
	"legal":   `{{with .Data.Page}}heading={{.Heading}} {{.HTML}}{{end}} updated={{.Data.Updated}}`,
}

type testApp struct {
	backend *fakeBackend
	server  *httptest.Server
	client  *http.Client
	events  *store.Events
	jobs    *scheduler.Scheduler
}

// newTestApp wires every handler the way the binary does, minus CSRF and
// rate limiting, against the fake backend.
func newTestApp(t *testing.T, b *fakeBackend) *testApp {
	t.Helper()

	dataDir := t.TempDir()
	db, err := store.NewDB(filepath.Join(dataDir, "mpdb.db"))
	if err != nil {
		t.Fatalf("NewDB: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if _, err := store.Migrate(context.Background(), db); err != nil {
		t.Fatalf("Migrate: %v", err)
	}

	sm := session.New(db, true)
	api := apiclient.New(apiclient.Config{
		BaseURL:   b.server.URL,
		Timeout:   5 * time.Second,
		UserAgent: "mpdb-web/test",
	})
	mem := cache.NewMemoryCache(cache.MemoryCacheOptions{DefaultTTL: time.Minute})
	t.Cleanup(func() { _ = mem.Close() })

	provider := auth.NewProvider(api, mem, time.Minute)
	gate := auth.NewGate(provider)
	searches := search.NewController(api, mem)
	cooldown := search.NewCooldown(time.Minute)

	renderer, err := render.New(render.Config{TemplatesFS: testTemplates(), SessionManager: sm, IsDev: true})
	if err != nil {
		t.Fatalf("render.New: %v", err)
	}

	lp := middleware.NewLoginProtection(middleware.DefaultLoginProtectionConfig())
	t.Cleanup(lp.Close)

	pages, err := content.Load(fstest.MapFS{
		"content/terms.md": {Data: []byte("# Terms of Service\n\nPlay nicely.\n")},
	}, "content")
	if err != nil {
		t.Fatalf("content.Load: %v", err)
	}

	events := store.NewEvents(db)
	jobs := scheduler.New(slog.Default())
	if err := jobs.Add("noop", "Does nothing", "@every 1h", func(ctx context.Context) error { return nil }); err != nil {
		t.Fatalf("Add: %v", err)
	}

	authH := NewAuthHandler(api, renderer, sm, provider, searches, lp)
	playsH := NewPlaysHandler(renderer, sm, provider, searches, cooldown, b.server.URL)
	worksH := NewWorksHandler(api, renderer, sm, provider, imaging.NewPreprocessor(), 10<<20)
	profileH := NewProfileHandler(api, renderer, sm, provider, b.server.URL)
	settingsH := NewSettingsHandler(api, renderer, sm, provider, imaging.NewProfilePreprocessor(), 10<<20, b.server.URL)
	contactH := NewContactHandler(api, renderer, sm, provider)
	adminH := NewAdminHandler(api, renderer, sm, provider)
	eventsH := NewEventsHandler(events, jobs, nil, renderer)
	legalH := NewLegalHandler(pages, renderer)
	healthH := NewHealthHandler(db, nil, mem, dataDir)

	r := chi.NewRouter()
	r.Use(sm.LoadAndSave)

	r.Get(RouteHealthLive, healthH.Liveness)
	r.Get(RouteHealthReady, healthH.Readiness)

	r.Get(RouteSignup, authH.SignupForm)
	r.Post(RouteSignup, authH.Signup)
	r.Get(RouteLogin, authH.LoginForm)
	r.Post(RouteLogin, authH.Login)
	r.Post(RouteLogout, authH.Logout)
	r.Get(RouteForgotPassword, authH.ForgotForm)
	r.Post(RouteForgotPassword, authH.Forgot)
	r.Get(RouteResetPassword, authH.ResetForm)
	r.Post(RouteResetPassword, authH.Reset)

	r.Group(func(r chi.Router) {
		r.Use(middleware.OptionalIdentity(provider, sm))
		r.Get(RouteHealth, healthH.Health)
		r.Get(RouteContact, contactH.Form)
		r.Post(RouteContact, contactH.Send)
		for _, slug := range LegalSlugs {
			r.Get("/"+slug, legalH.Page(slug))
		}
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireIdentity(gate, sm, auth.LevelBasic))
		r.Get(RoutePlays, playsH.List)
		r.Get(RoutePlaysPage, playsH.Page)
		r.Post(RoutePlaysSearch, playsH.Search)
		r.Get(RoutePlaysCreate, worksH.CreateForm)
		r.Post(RoutePlaysCreate, worksH.Create)
		r.Get(RouteEditPlay, worksH.EditForm)
		r.Post(RouteEditPlay, worksH.Edit)
		r.Get(RouteProfile, profileH.Own)
		r.Get(RouteProfileID, profileH.Show)
		r.Get(RouteSettings, settingsH.Form)
		r.Post(RouteSettings, settingsH.Save)
		r.Get(RouteContactUser, contactH.UserForm)
		r.Post(RouteContactUser, contactH.UserSend)
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireIdentity(gate, sm, auth.LevelAdmin))
		r.Get(RouteAdminUsers, adminH.Users)
		r.Post(RouteAdminUserAccount, adminH.SetAccount)
		r.Post(RouteAdminUserDelete, adminH.Delete)
		r.Get(RouteAdminEvents, eventsH.List)
		r.Post(RouteAdminJobTrigger, eventsH.TriggerJob)
	})

	r.NotFound(legalH.NotFound)

	server := httptest.NewServer(r)
	t.Cleanup(server.Close)

	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookiejar: %v", err)
	}

	return &testApp{
		backend: b,
		server:  server,
		client: &http.Client{
			Jar: jar,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		events: events,
		jobs:   jobs,
	}
}

// response is a finished request to the app.
type response struct {
	Status   int
	Location string
	Header   http.Header
	Body     string
}

func (a *testApp) do(t *testing.T, method, path string, form url.Values, header http.Header) response {
	t.Helper()

	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req, err := http.NewRequest(method, a.server.URL+path, body)
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	for k, v := range header {
		req.Header[k] = v
	}
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := a.client.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("reading body: %v", err)
	}
	return response{Status: resp.StatusCode, Location: resp.Header.Get("Location"), Header: resp.Header, Body: string(b)}
}

func (a *testApp) get(t *testing.T, path string) response {
	t.Helper()
	return a.do(t, http.MethodGet, path, nil, nil)
}

func (a *testApp) post(t *testing.T, path string, form url.Values) response {
	t.Helper()
	if form == nil {
		form = url.Values{}
	}
	return a.do(t, http.MethodPost, path, form, nil)
}

// login signs in as the user registered with withUser.
func (a *testApp) login(t *testing.T) {
	t.Helper()
	res := a.post(t, RouteLogin, url.Values{"email": {"ada@example.com"}, "password": {"secret123"}})
	if res.Status != http.StatusSeeOther || res.Location != RoutePlays {
		t.Fatalf("login = %d %q, want 303 %s; body: %s", res.Status, res.Location, RoutePlays, res.Body)
	}
}

func testUser(account int) apiclient.User {
	return apiclient.User{
		ID:        "u1",
		FirstName: "Ada",
		LastName:  "Lovelace",
		Email:     "ada@example.com",
		Phone:     "5555555555",
		Account:   account,
	}
}

// emptyPlays answers every play search with no results.
func emptyPlays(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{"plays": []any{}, "totalResults": 0, "totalPages": 0})
}
