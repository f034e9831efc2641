// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package content renders the static markdown pages (terms, privacy,
// cookies, DMCA) once at startup.
package content

import (
	"bufio"
	"bytes"
	"fmt"
	"html/template"
	"io/fs"
	"path"
	"sort"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
)

var htmlSanitizer = bluemonday.UGCPolicy()

// tabTitles maps page slugs to the short name used in the document title.
var tabTitles = map[string]string{
	"terms":   "Terms",
	"cookies": "Cookies",
	"privacy": "Privacy",
	"dmca":    "DMCA",
}

// Page is a rendered markdown document.
type Page struct {
	Slug    string
	Title   string // short name for the browser tab
	Heading string // first level-one heading
	HTML    template.HTML
}

// Library holds every page found in a content directory.
type Library struct {
	pages map[string]*Page
}

// Load renders each *.md file in dir. The slug is the file name without
// its extension.
func Load(fsys fs.FS, dir string) (*Library, error) {
	matches, err := fs.Glob(fsys, path.Join(dir, "*.md"))
	if err != nil {
		return nil, fmt.Errorf("listing content: %w", err)
	}

	lib := &Library{pages: make(map[string]*Page, len(matches))}
	for _, name := range matches {
		src, err := fs.ReadFile(fsys, name)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", name, err)
		}
		slug := strings.TrimSuffix(path.Base(name), ".md")
		page, err := Render(slug, src)
		if err != nil {
			return nil, fmt.Errorf("rendering %s: %w", name, err)
		}
		lib.pages[slug] = page
	}
	return lib, nil
}

// Render converts one markdown document into a sanitized Page.
func Render(slug string, src []byte) (*Page, error) {
	var buf bytes.Buffer
	if err := goldmark.Convert(src, &buf); err != nil {
		return nil, err
	}

	title, ok := tabTitles[slug]
	if !ok {
		title = slugToTitle(slug)
	}

	return &Page{
		Slug:    slug,
		Title:   title,
		Heading: firstHeading(src),
		HTML:    template.HTML(htmlSanitizer.SanitizeBytes(buf.Bytes())), //nolint:gosec // sanitized above
	}, nil
}

// Get returns the page for slug.
func (l *Library) Get(slug string) (*Page, bool) {
	p, ok := l.pages[slug]
	return p, ok
}

// Slugs returns the known page slugs in sorted order.
func (l *Library) Slugs() []string {
	slugs := make([]string, 0, len(l.pages))
	for s := range l.pages {
		slugs = append(slugs, s)
	}
	sort.Strings(slugs)
	return slugs
}

func firstHeading(src []byte) string {
	sc := bufio.NewScanner(bytes.NewReader(src))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if rest, ok := strings.CutPrefix(line, "# "); ok {
			return strings.TrimSpace(rest)
		}
	}
	return ""
}

// slugToTitle converts a filename slug to a human-readable title.
func slugToTitle(slug string) string {
	words := strings.Fields(strings.NewReplacer("-", " ", "_", " ").Replace(slug))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
