// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package seo

import (
	"encoding/xml"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildRobots(t *testing.T) {
	out := BuildRobots(RobotsConfig{SiteURL: "https://mpdb.example/"})

	assert.True(t, strings.HasPrefix(out, "User-agent: *\n"))
	assert.Contains(t, out, "Disallow: /admin\n")
	assert.Contains(t, out, "Disallow: /plays\n")
	assert.Contains(t, out, "Allow: /\n")
	assert.Contains(t, out, "Sitemap: https://mpdb.example/sitemap.xml\n")
}

func TestBuildRobots_DisallowAll(t *testing.T) {
	out := BuildRobots(RobotsConfig{SiteURL: "https://mpdb.example", DisallowAll: true})

	assert.Equal(t, "User-agent: *\nDisallow: /\n", out)
}

func TestBuildRobots_NoSiteURL(t *testing.T) {
	out := BuildRobots(RobotsConfig{})

	assert.NotContains(t, out, "Sitemap:")
}

func TestPublicSitemap(t *testing.T) {
	updated := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	data, err := PublicSitemap("https://mpdb.example/", []string{"terms", "privacy"}, updated)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(string(data), xml.Header))

	var sm Sitemap
	require.NoError(t, xml.Unmarshal(data, &sm))
	assert.Equal(t, XMLNamespace, sm.XMLNS)

	locs := make([]string, 0, len(sm.URLs))
	for _, u := range sm.URLs {
		locs = append(locs, u.Loc)
	}
	assert.Equal(t, []string{
		"https://mpdb.example/signup",
		"https://mpdb.example/login",
		"https://mpdb.example/contact",
		"https://mpdb.example/terms",
		"https://mpdb.example/privacy",
	}, locs)

	assert.Empty(t, sm.URLs[0].LastMod)
	assert.Equal(t, "2026-03-14", sm.URLs[3].LastMod)
	assert.Equal(t, ChangeFreqMonthly, sm.URLs[3].ChangeFreq)
}
