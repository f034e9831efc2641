// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"net/http"
	"strings"
	"testing"

	"github.com/olegiv/mpdb-web/internal/apiclient"
	"github.com/olegiv/mpdb-web/internal/auth"
)

func playwright() *apiclient.User {
	return &apiclient.User{
		ID:        "p1",
		FirstName: "William",
		LastName:  "Shakespeare",
		Phone:     "5551234567",
		Account:   auth.LevelUnlocked,
		Contact:   true,
		Profile: apiclient.Profile{
			ProfilePicture: "/uploads/will.png",
			Description:    "Bard",
			Biography:      "Born in Stratford.",
			CompanyName:    "Globe",
			Street:         "1 Bankside",
			StateCity:      "London",
			Country:        "England",
			Website:        "globe.example",
			Visibility: map[string]bool{
				"description": true,
				"biography":   false,
				"companyName": true,
				"street":      false,
				"stateCity":   true,
				"country":     true,
				"website":     true,
				"phone":       false,
				"profilePic":  false,
				"contact":     true,
			},
		},
	}
}

func TestNewProfileView_Visibility(t *testing.T) {
	viewer := &auth.Identity{ID: "v1", Account: auth.LevelBasic}
	p := NewProfileView(playwright(), viewer, "http://api.example")

	if p.Description != "Bard" {
		t.Errorf("Description = %q, want Bard", p.Description)
	}
	if p.Biography != noBiography {
		t.Errorf("hidden Biography = %q, want fallback", p.Biography)
	}
	if p.Address != "London" {
		t.Errorf("Address = %q, want only the visible part", p.Address)
	}
	if p.Phone != "" {
		t.Errorf("hidden Phone = %q, want empty", p.Phone)
	}
	if p.PhotoURL != PlaceholderPhoto {
		t.Errorf("hidden photo = %q, want placeholder", p.PhotoURL)
	}
	if p.WebsiteURL != "https://globe.example" {
		t.Errorf("WebsiteURL = %q", p.WebsiteURL)
	}
	if p.ContactURL != "/contact/p1" {
		t.Errorf("ContactURL = %q, want /contact/p1", p.ContactURL)
	}
	if p.PlaysURL != "/plays?search=William+Shakespeare" {
		t.Errorf("PlaysURL = %q", p.PlaysURL)
	}
	if p.Own || p.CanSubmit {
		t.Error("a visitor neither owns nor submits")
	}
}

func TestNewProfileView_OwnerAndAdminSeeEverything(t *testing.T) {
	user := playwright()
	owner := user
	admin := &auth.Identity{ID: "a1", Account: auth.LevelAdmin}

	for name, viewer := range map[string]*auth.Identity{"owner": owner, "admin": admin} {
		t.Run(name, func(t *testing.T) {
			p := NewProfileView(user, viewer, "http://api.example")
			if p.Biography != "Born in Stratford." {
				t.Errorf("Biography = %q", p.Biography)
			}
			if p.Address != "1 Bankside, London" {
				t.Errorf("Address = %q", p.Address)
			}
			if p.Phone != "5551234567" {
				t.Errorf("Phone = %q", p.Phone)
			}
			if p.PhotoURL != "http://api.example/uploads/will.png" {
				t.Errorf("PhotoURL = %q", p.PhotoURL)
			}
		})
	}

	own := NewProfileView(user, owner, "")
	if !own.Own || !own.CanSubmit {
		t.Error("owner with an unlocked account should own the profile and be able to submit")
	}
	if own.ContactURL != "" {
		t.Error("no contact link on your own profile")
	}
}

func TestNewProfileView_NoVisibilityShowsAll(t *testing.T) {
	user := playwright()
	user.Profile.Visibility = nil
	p := NewProfileView(user, &auth.Identity{ID: "v1"}, "")

	if p.Biography != "Born in Stratford." {
		t.Errorf("Biography = %q", p.Biography)
	}
}

func TestNewProfileView_EmptyFieldsFallBack(t *testing.T) {
	user := &apiclient.User{ID: "x", FirstName: "New", LastName: "User"}
	p := NewProfileView(user, &auth.Identity{ID: "v1"}, "")

	checks := map[string][2]string{
		"Description": {p.Description, noDescription},
		"Biography":   {p.Biography, noBiography},
		"Company":     {p.Company, noCompany},
		"Address":     {p.Address, noAddress},
		"Country":     {p.Country, noCountry},
		"Website":     {p.Website, noWebsite},
	}
	for field, c := range checks {
		if c[0] != c[1] {
			t.Errorf("%s = %q, want %q", field, c[0], c[1])
		}
	}
	if p.WebsiteURL != "" || p.ContactURL != "" {
		t.Error("no links without a website or contact flag")
	}
}

func TestProfileShow(t *testing.T) {
	b := newFakeBackend(t)
	b.withUser(testUser(auth.LevelBasic))
	b.handle("GET /api/users/{id}", func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("id") != "p1" {
			respondJSON(w, http.StatusNotFound, map[string]string{"message": "User not found"})
			return
		}
		respondJSON(w, http.StatusOK, map[string]any{"user": playwright()})
	})
	app := newTestApp(t, b)
	app.login(t)

	res := app.get(t, "/profile/p1")
	if res.Status != http.StatusOK {
		t.Fatalf("status = %d, want 200", res.Status)
	}
	if !strings.Contains(res.Body, "William Shakespeare") {
		t.Errorf("body should contain the name, got %s", res.Body)
	}

	missing := app.get(t, "/profile/nobody")
	if missing.Status != http.StatusNotFound {
		t.Errorf("missing profile status = %d, want 404", missing.Status)
	}

	own := app.get(t, "/profile/u1")
	if own.Status != http.StatusOK || !strings.Contains(own.Body, "Ada Lovelace") {
		t.Errorf("own profile = %d %s", own.Status, own.Body)
	}
}
