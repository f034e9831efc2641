// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"

	"github.com/olegiv/mpdb-web/internal/apiclient"
	"github.com/olegiv/mpdb-web/internal/auth"
	"github.com/olegiv/mpdb-web/internal/cache"
	"github.com/olegiv/mpdb-web/internal/config"
	"github.com/olegiv/mpdb-web/internal/content"
	"github.com/olegiv/mpdb-web/internal/geoip"
	"github.com/olegiv/mpdb-web/internal/handler"
	"github.com/olegiv/mpdb-web/internal/imaging"
	"github.com/olegiv/mpdb-web/internal/logging"
	"github.com/olegiv/mpdb-web/internal/middleware"
	"github.com/olegiv/mpdb-web/internal/render"
	"github.com/olegiv/mpdb-web/internal/scheduler"
	"github.com/olegiv/mpdb-web/internal/search"
	"github.com/olegiv/mpdb-web/internal/session"
	"github.com/olegiv/mpdb-web/internal/store"
	"github.com/olegiv/mpdb-web/internal/version"
	"github.com/olegiv/mpdb-web/web"
)

const (
	// searchCooldown is the window in which a repeated search is ignored.
	searchCooldown = time.Second
	probeTimeout   = 5 * time.Second
	// placeholderPhotoOrigin serves the default profile picture.
	placeholderPhotoOrigin = "https://upload.wikimedia.org"
)

func main() {
	showVersion := flag.Bool("version", false, "Show version information")
	flag.BoolVar(showVersion, "v", false, "Show version information (shorthand)")
	showHelp := flag.Bool("help", false, "Show help information")
	flag.BoolVar(showHelp, "h", false, "Show help information (shorthand)")

	flag.Usage = func() {
		_, _ = fmt.Fprintf(os.Stderr, "mpdb-web - Missouri Playwrights Educational Database frontend\n\n")
		_, _ = fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		_, _ = fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		_, _ = fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		_, _ = fmt.Fprintf(os.Stderr, "  MPDB_SESSION_SECRET    Session encryption key (required, min 32 bytes)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  MPDB_API_URL           Backend API base URL (default: http://localhost:5000)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  MPDB_DB_PATH           SQLite database path (default: ./data/mpdb-web.db)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  MPDB_SERVER_PORT       Server port (default: 8080)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  MPDB_ENV               Environment: development|production (default: development)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  MPDB_SITE_URL          Public base URL used in sitemap.xml (optional)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  MPDB_REDIS_URL         Redis URL for a shared identity cache (optional)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  MPDB_GEOIP_DB_PATH     GeoLite2-Country database for log country codes (optional)\n")
	}

	flag.Parse()

	if *showHelp {
		flag.Usage()
		os.Exit(0)
	}

	if *showVersion {
		v := version.Get()
		_, _ = fmt.Printf("mpdb-web %s (commit: %s, built: %s)\n", v.Version, v.GitCommit, v.BuildTime)
		os.Exit(0)
	}

	if err := run(); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// Load .env files if present (development)
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logLevel := logging.ParseLevel(cfg.LogLevel)
	slog.SetDefault(logging.New(os.Stdout, logLevel, nil))

	slog.Info("initializing database", "path", cfg.DBPath)
	db, err := store.NewDB(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("initializing database: %w", err)
	}
	defer func(db *sql.DB) {
		if err := db.Close(); err != nil {
			slog.Error("error closing database connection", "error", err)
		}
	}(db)

	slog.Info("running database migrations")
	applied, err := store.Migrate(context.Background(), db)
	if err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	slog.Info("database migrations applied", "count", applied)

	// WARN and ERROR records also go to the event log from here on
	events := store.NewEvents(db)
	logger := logging.New(os.Stdout, logLevel, events)
	slog.SetDefault(logger)
	slog.Info("event log integration enabled", "min_level", "warn")

	sessionManager := session.New(db, cfg.IsDevelopment())

	identityCache, err := cache.New(context.Background(), cache.Config{
		RedisURL:        cfg.RedisURL,
		Prefix:          cfg.CachePrefix,
		DefaultTTL:      cfg.IdentityTTL,
		MaxSize:         cfg.CacheMaxSize,
		CleanupInterval: time.Minute,
	})
	if err != nil {
		return fmt.Errorf("initializing cache: %w", err)
	}
	defer func() { _ = identityCache.Close() }()
	if cfg.UseRedisCache() {
		slog.Info("identity cache initialized", "backend", "redis")
	} else {
		slog.Info("identity cache initialized", "backend", "memory")
	}

	versionInfo := version.Get()
	api := apiclient.New(apiclient.Config{
		BaseURL:   cfg.APIURL,
		Timeout:   cfg.APITimeout,
		UserAgent: versionInfo.UserAgent(),
	})

	provider := auth.NewProvider(api, identityCache, cfg.IdentityTTL)
	gate := auth.NewGate(provider)
	searches := search.NewController(api, identityCache)
	cooldown := search.NewCooldown(searchCooldown)

	templatesFS, err := fs.Sub(web.Templates, "templates")
	if err != nil {
		return fmt.Errorf("getting templates fs: %w", err)
	}
	renderer, err := render.New(render.Config{
		TemplatesFS:    templatesFS,
		SessionManager: sessionManager,
		IsDev:          cfg.IsDevelopment(),
	})
	if err != nil {
		return fmt.Errorf("initializing renderer: %w", err)
	}

	pages, err := content.Load(web.Content, "content")
	if err != nil {
		return fmt.Errorf("loading content pages: %w", err)
	}

	geo, err := geoip.Open(cfg.GeoIPDBPath)
	if err != nil {
		slog.Warn("geoip lookups limited to local addresses", "error", err)
	}
	defer func() { _ = geo.Close() }()

	// Background jobs
	probe := scheduler.NewProbe(api, probeTimeout, logger)
	sched := scheduler.New(logger)
	if err := sched.Add("backend-probe", "Checks that the backend API answers", cfg.HealthSchedule, probe.Run); err != nil {
		return fmt.Errorf("scheduling backend probe: %w", err)
	}
	if err := sched.Add("event-cleanup", "Deletes old event log entries", cfg.EventCleanupSchedule,
		scheduler.EventCleanup(events, cfg.EventRetention, logger)); err != nil {
		return fmt.Errorf("scheduling event cleanup: %w", err)
	}
	if cfg.GeoIPDBPath != "" {
		if err := sched.Add("geoip-reload", "Re-reads the GeoIP database when it changes", cfg.GeoIPReloadSchedule, geo.Reload); err != nil {
			return fmt.Errorf("scheduling geoip reload: %w", err)
		}
	}
	sched.Start()
	defer sched.Stop()

	// first probe right away so readiness does not wait a full interval
	go func() {
		_ = probe.Run(context.Background())
	}()

	loginProtection := middleware.NewLoginProtection(middleware.DefaultLoginProtectionConfig())
	defer loginProtection.Close()
	formLimiter := middleware.NewFormRateLimiter(0.2, 5)

	authHandler := handler.NewAuthHandler(api, renderer, sessionManager, provider, searches, loginProtection)
	playsHandler := handler.NewPlaysHandler(renderer, sessionManager, provider, searches, cooldown, cfg.APIURL)
	worksHandler := handler.NewWorksHandler(api, renderer, sessionManager, provider, imaging.NewPreprocessor(), cfg.UploadMaxBytes())
	profileHandler := handler.NewProfileHandler(api, renderer, sessionManager, provider, cfg.APIURL)
	settingsHandler := handler.NewSettingsHandler(api, renderer, sessionManager, provider, imaging.NewProfilePreprocessor(), cfg.UploadMaxBytes(), cfg.APIURL)
	contactHandler := handler.NewContactHandler(api, renderer, sessionManager, provider)
	adminHandler := handler.NewAdminHandler(api, renderer, sessionManager, provider)
	eventsHandler := handler.NewEventsHandler(events, sched, probe, renderer)
	legalHandler := handler.NewLegalHandler(pages, renderer)
	seoHandler := handler.NewSEOHandler(pages, cfg.SiteURL, cfg.IsDevelopment())
	dbDir := filepath.Dir(cfg.DBPath)
	healthHandler := handler.NewHealthHandler(db, probe, identityCache, dbDir)

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestPath)
	r.Use(middleware.Country(geo))
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.GetHead)
	r.Use(middleware.Timeout(middleware.DefaultTimeout))
	r.Use(middleware.StripTrailingSlash)
	r.Use(middleware.Compress(middleware.DefaultCompressMinSize))
	r.Use(middleware.SecurityHeaders(middleware.DefaultSecurityHeadersConfig(cfg.IsDevelopment(), cfg.APIURL, placeholderPhotoOrigin)))

	// Probes answer without sessions or CSRF
	r.Get(handler.RouteHealthLive, healthHandler.Liveness)
	r.Get(handler.RouteHealthReady, healthHandler.Readiness)
	r.Get(handler.RouteRobots, seoHandler.Robots)
	r.Get(handler.RouteSitemap, seoHandler.Sitemap)

	staticFS, err := fs.Sub(web.Static, "static")
	if err != nil {
		return fmt.Errorf("getting static fs: %w", err)
	}
	// Static assets: cache for 1 day
	r.Handle("/static/*", middleware.StaticCache(86400)(http.StripPrefix("/static/", http.FileServer(http.FS(staticFS)))))

	r.Group(func(r chi.Router) {
		r.Use(sessionManager.LoadAndSave)
		r.Use(middleware.CSRF(middleware.DefaultCSRFConfig(cfg.CSRFKey(), cfg.IsDevelopment(), cfg.ServerPort, cfg.TrustedOrigins...)))
		r.Use(middleware.NoStore)

		r.Get(handler.RouteRoot, func(w http.ResponseWriter, req *http.Request) {
			http.Redirect(w, req, handler.RouteSignup, http.StatusSeeOther)
		})

		// Public pages
		r.Group(func(r chi.Router) {
			r.Use(formLimiter.Middleware())
			r.Get(handler.RouteSignup, authHandler.SignupForm)
			r.Post(handler.RouteSignup, authHandler.Signup)
			r.Get(handler.RouteForgotPassword, authHandler.ForgotForm)
			r.Post(handler.RouteForgotPassword, authHandler.Forgot)
			r.Get(handler.RouteResetPassword, authHandler.ResetForm)
			r.Post(handler.RouteResetPassword, authHandler.Reset)
		})
		r.With(loginProtection.Middleware()).Get(handler.RouteLogin, authHandler.LoginForm)
		r.With(loginProtection.Middleware()).Post(handler.RouteLogin, authHandler.Login)
		r.Post(handler.RouteLogout, authHandler.Logout)

		r.Group(func(r chi.Router) {
			r.Use(middleware.OptionalIdentity(provider, sessionManager))
			r.Get(handler.RouteHealth, healthHandler.Health)
			r.Get(handler.RouteContact, contactHandler.Form)
			r.With(formLimiter.Middleware()).Post(handler.RouteContact, contactHandler.Send)
			for _, slug := range handler.LegalSlugs {
				r.Get("/"+slug, legalHandler.Page(slug))
			}
		})

		// Signed-in pages
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireIdentity(gate, sessionManager, auth.LevelBasic))
			r.Get(handler.RoutePlays, playsHandler.List)
			r.Get(handler.RoutePlaysPage, playsHandler.Page)
			r.Post(handler.RoutePlaysSearch, playsHandler.Search)
			r.Get(handler.RoutePlaysCreate, worksHandler.CreateForm)
			r.Post(handler.RoutePlaysCreate, worksHandler.Create)
			r.Get(handler.RouteEditPlay, worksHandler.EditForm)
			r.Post(handler.RouteEditPlay, worksHandler.Edit)
			r.Get(handler.RouteProfile, profileHandler.Own)
			r.Get(handler.RouteProfileID, profileHandler.Show)
			r.Get(handler.RouteSettings, settingsHandler.Form)
			r.Post(handler.RouteSettings, settingsHandler.Save)
			r.Get(handler.RouteContactUser, contactHandler.UserForm)
			r.With(formLimiter.Middleware()).Post(handler.RouteContactUser, contactHandler.UserSend)
		})

		// Administration
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireIdentity(gate, sessionManager, auth.LevelAdmin))
			r.Get(handler.RouteAdminUsers, adminHandler.Users)
			r.Post(handler.RouteAdminUserAccount, adminHandler.SetAccount)
			r.Post(handler.RouteAdminUserDelete, adminHandler.Delete)
			r.Get(handler.RouteAdminEvents, eventsHandler.List)
			r.Post(handler.RouteAdminJobTrigger, eventsHandler.TriggerJob)
		})

		r.NotFound(legalHandler.NotFound)
	})

	srv := &http.Server{
		Addr:              cfg.ServerAddr(),
		Handler:           r,
		ReadTimeout:       30 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      90 * time.Second, // uploads are forwarded to the backend
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	go func() {
		slog.Info("starting server", "addr", cfg.ServerAddr(), "env", cfg.Env, "api", cfg.APIURL, "version", versionInfo.String())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	slog.Info("server stopped")
	return nil
}
