// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"net/http"
	"time"

	"github.com/olegiv/mpdb-web/internal/content"
	"github.com/olegiv/mpdb-web/internal/seo"
)

// SEOHandler serves robots.txt and sitemap.xml.
type SEOHandler struct {
	pages   *content.Library
	siteURL string
	isDev   bool
	now     func() time.Time
}

// NewSEOHandler creates a new SEOHandler. An empty siteURL falls back to
// the request host.
func NewSEOHandler(pages *content.Library, siteURL string, isDev bool) *SEOHandler {
	return &SEOHandler{pages: pages, siteURL: siteURL, isDev: isDev, now: time.Now}
}

// Robots handles GET /robots.txt. Development instances are not crawled.
func (h *SEOHandler) Robots(w http.ResponseWriter, r *http.Request) {
	body := seo.BuildRobots(seo.RobotsConfig{
		SiteURL:     h.baseURL(r),
		DisallowAll: h.isDev,
	})
	w.Header().Set(HeaderContentType, "text/plain; charset=utf-8")
	w.Header().Set("Cache-Control", "public, max-age=86400")
	_, _ = w.Write([]byte(body))
}

// Sitemap handles GET /sitemap.xml.
func (h *SEOHandler) Sitemap(w http.ResponseWriter, r *http.Request) {
	var slugs []string
	for _, slug := range LegalSlugs {
		if _, ok := h.pages.Get(slug); ok {
			slugs = append(slugs, slug)
		}
	}

	// Legal pages always show the current month as their update date.
	updated := time.Date(h.now().Year(), h.now().Month(), 1, 0, 0, 0, 0, time.UTC)
	data, err := seo.PublicSitemap(h.baseURL(r), slugs, updated)
	if err != nil {
		logAndInternalError(w, "building sitemap", "error", err)
		return
	}
	w.Header().Set(HeaderContentType, "application/xml; charset=utf-8")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	_, _ = w.Write(data)
}

func (h *SEOHandler) baseURL(r *http.Request) string {
	if h.siteURL != "" {
		return h.siteURL
	}
	scheme := "http"
	if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
		scheme = "https"
	}
	return scheme + "://" + r.Host
}
