// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"bytes"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/olegiv/mpdb-web/internal/auth"
)

// multipartFields decodes the text fields of a recorded multipart body.
func multipartFields(t *testing.T, call backendCall) map[string]string {
	t.Helper()

	_, params, err := mime.ParseMediaType(call.ContentType)
	if err != nil {
		t.Fatalf("content type %q: %v", call.ContentType, err)
	}
	mr := multipart.NewReader(bytes.NewReader(call.Body), params["boundary"])
	fields := make(map[string]string)
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("reading part: %v", err)
		}
		if part.FileName() == "" {
			b, _ := io.ReadAll(part)
			fields[part.FormName()] = string(b)
		}
	}
	return fields
}

func TestCreateForm_RequiresPublishRights(t *testing.T) {
	for _, level := range []int{auth.LevelBasic, auth.LevelPlaywright, auth.LevelLocked} {
		b := newFakeBackend(t)
		b.withUser(testUser(level))
		app := newTestApp(t, b)
		app.login(t)

		res := app.get(t, RoutePlaysCreate)
		if res.Status != http.StatusForbidden {
			t.Errorf("level %d: status = %d, want 403", level, res.Status)
		}
		if !strings.Contains(res.Body, msgNotAuthorizedCreate) {
			t.Errorf("level %d: body should contain %q", level, msgNotAuthorizedCreate)
		}

		post := app.post(t, RoutePlaysCreate, url.Values{"title": {"Hamlet"}})
		if post.Status != http.StatusForbidden {
			t.Errorf("level %d: POST status = %d, want 403", level, post.Status)
		}
		if n := len(b.callsTo(http.MethodPost, "/api/plays")); n != 0 {
			t.Errorf("level %d: backend create calls = %d, want 0", level, n)
		}
	}
}

func TestCreate_SendsMultipart(t *testing.T) {
	b := newFakeBackend(t)
	b.withUser(testUser(auth.LevelUnlocked))
	b.handle("POST /api/plays", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusCreated, map[string]string{"message": "created"})
	})
	b.handle("GET /api/plays", emptyPlays)
	app := newTestApp(t, b)
	app.login(t)

	res := app.post(t, RoutePlaysCreate, url.Values{
		"title":           {"The Tempest"},
		"genre":           {"Drama"},
		"funding":         {"Paid"},
		"acts":            {"5"},
		"publicationDate": {"1611-11-01"},
	})
	if res.Status != http.StatusSeeOther || res.Location != RoutePlays {
		t.Fatalf("create = %d %q, want 303 %s; body: %s", res.Status, res.Location, RoutePlays, res.Body)
	}

	calls := b.callsTo(http.MethodPost, "/api/plays")
	if len(calls) != 1 {
		t.Fatalf("backend create calls = %d, want 1", len(calls))
	}
	fields := multipartFields(t, calls[0])
	want := map[string]string{
		"title":    "The Tempest",
		"genre":    "Drama",
		"funding":  "Paid",
		"acts":     "5",
		"authorId": "u1",
		"author":   "Ada Lovelace",
	}
	for k, v := range want {
		if fields[k] != v {
			t.Errorf("field %s = %q, want %q", k, fields[k], v)
		}
	}
	if _, ok := fields["organizationType"]; ok {
		t.Error("create must not send organizationType")
	}

	list := app.get(t, RoutePlays)
	if !strings.Contains(list.Body, "flash="+msgPlayCreated) {
		t.Errorf("plays page should show the created flash, got %s", list.Body)
	}
}

func TestCreate_MissingTitle(t *testing.T) {
	b := newFakeBackend(t)
	b.withUser(testUser(auth.LevelUnlocked))
	app := newTestApp(t, b)
	app.login(t)

	res := app.post(t, RoutePlaysCreate, url.Values{"title": {"  "}})
	if res.Status != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want 422", res.Status)
	}
	if n := len(b.callsTo(http.MethodPost, "/api/plays")); n != 0 {
		t.Errorf("backend create calls = %d, want 0", n)
	}
}

func TestEditForm_OwnerOnly(t *testing.T) {
	b := newFakeBackend(t)
	b.withUser(testUser(auth.LevelUnlocked))
	b.handle("GET /api/plays/{id}", func(w http.ResponseWriter, r *http.Request) {
		owner := "u1"
		if r.PathValue("id") == "p2" {
			owner = "someone-else"
		}
		respondJSON(w, http.StatusOK, map[string]any{"play": map[string]any{
			"_id":      r.PathValue("id"),
			"title":    "Hamlet",
			"authorId": owner,
			"playFile": "uploads/scripts/hamlet.pdf",
		}})
	})
	app := newTestApp(t, b)
	app.login(t)

	own := app.get(t, "/edit-play/p1")
	if own.Status != http.StatusOK {
		t.Fatalf("own play status = %d, want 200; body: %s", own.Status, own.Body)
	}
	if !strings.Contains(own.Body, "Hamlet") || !strings.Contains(own.Body, "hamlet.pdf") {
		t.Errorf("edit form should be prefilled, got %s", own.Body)
	}

	other := app.get(t, "/edit-play/p2")
	if other.Status != http.StatusForbidden {
		t.Errorf("foreign play status = %d, want 403", other.Status)
	}
	if !strings.Contains(other.Body, msgNotAuthorizedEdit) {
		t.Errorf("body should contain %q", msgNotAuthorizedEdit)
	}
}

func TestEditForm_AdminEditsAnyPlay(t *testing.T) {
	b := newFakeBackend(t)
	b.withUser(testUser(auth.LevelAdmin))
	b.handle("GET /api/plays/{id}", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]any{"_id": "p2", "title": "Macbeth", "authorId": "someone-else"})
	})
	app := newTestApp(t, b)
	app.login(t)

	res := app.get(t, "/edit-play/p2")
	if res.Status != http.StatusOK {
		t.Errorf("status = %d, want 200", res.Status)
	}
}

func TestEditForm_NotFound(t *testing.T) {
	b := newFakeBackend(t)
	b.withUser(testUser(auth.LevelUnlocked))
	b.handle("GET /api/plays/{id}", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusNotFound, map[string]string{"message": "Play not found"})
	})
	app := newTestApp(t, b)
	app.login(t)

	res := app.get(t, "/edit-play/missing")
	if res.Status != http.StatusNotFound {
		t.Errorf("status = %d, want 404", res.Status)
	}
	if !strings.Contains(res.Body, msgPlayLoadFailed) {
		t.Errorf("body should contain %q", msgPlayLoadFailed)
	}
}

func TestEdit_SendsOrganizationType(t *testing.T) {
	b := newFakeBackend(t)
	b.withUser(testUser(auth.LevelUnlocked))
	b.handle("GET /api/plays/{id}", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]any{"_id": "p1", "title": "Hamlet", "authorId": "u1"})
	})
	b.handle("PUT /api/plays/{id}", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"message": "updated"})
	})
	app := newTestApp(t, b)
	app.login(t)

	res := app.post(t, "/edit-play/p1", url.Values{"title": {"Hamlet, Prince of Denmark"}, "organizationType": {"Community"}})
	if res.Status != http.StatusSeeOther || res.Location != RoutePlays {
		t.Fatalf("edit = %d %q, want 303 %s; body: %s", res.Status, res.Location, RoutePlays, res.Body)
	}

	calls := b.callsTo(http.MethodPut, "/api/plays/p1")
	if len(calls) != 1 {
		t.Fatalf("backend update calls = %d, want 1", len(calls))
	}
	fields := multipartFields(t, calls[0])
	if fields["organizationType"] != "Community" {
		t.Errorf("organizationType = %q, want Community", fields["organizationType"])
	}
	if fields["title"] != "Hamlet, Prince of Denmark" {
		t.Errorf("title = %q", fields["title"])
	}
}
