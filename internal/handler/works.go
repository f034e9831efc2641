// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"path"

	"github.com/alexedwards/scs/v2"
	"github.com/go-chi/chi/v5"

	"github.com/olegiv/mpdb-web/internal/apiclient"
	"github.com/olegiv/mpdb-web/internal/auth"
	"github.com/olegiv/mpdb-web/internal/form"
	"github.com/olegiv/mpdb-web/internal/imaging"
	"github.com/olegiv/mpdb-web/internal/middleware"
	"github.com/olegiv/mpdb-web/internal/render"
	"github.com/olegiv/mpdb-web/internal/search"
)

// Play form messages.
const (
	msgNotAuthorizedCreate = "You are not authorized to create a play."
	msgNotAuthorizedEdit   = "You are not authorized to edit a play."
	msgPlayCreated         = "Play created successfully!"
	msgPlayCreateFailed    = "Failed to create play. Please try again."
	msgPlayUpdated         = "Play updated successfully!"
	msgPlayUpdateFailed    = "Failed to update play."
	msgPlayLoadFailed      = "Failed to load play."
	msgImageResizeFailed   = "Image resize failed."
	msgDocumentType        = "Only PDF or DOCX files are allowed."
	msgUploadTooLarge      = "The upload is too large."
)

// WorksHandler serves the create and edit play forms.
type WorksHandler struct {
	backendSession
	api       *apiclient.Client
	renderer  *render.Renderer
	covers    *imaging.Preprocessor
	maxUpload int64
}

// NewWorksHandler creates a new WorksHandler. maxUpload bounds a whole
// multipart request in bytes.
func NewWorksHandler(api *apiclient.Client, renderer *render.Renderer, sm *scs.SessionManager, provider auth.SessionProvider, covers *imaging.Preprocessor, maxUpload int64) *WorksHandler {
	return &WorksHandler{
		backendSession: backendSession{sm: sm, provider: provider},
		api:            api,
		renderer:       renderer,
		covers:         covers,
		maxUpload:      maxUpload,
	}
}

// WorkPageData is the play form template data.
type WorkPageData struct {
	Form   form.WorkForm
	Errors map[string]string
	// Edit switches the form to the edit variant with organization type
	// and the script upload.
	Edit   bool
	PlayID string
	// CurrentFile is the base name of the stored script, if any.
	CurrentFile string
	// Authorized is false when the form must not be shown at all.
	Authorized        bool
	Message           string
	Genres            []string
	FundingTypes      []string
	OrganizationTypes []string
}

func newWorkPage(f form.WorkForm, edit bool) WorkPageData {
	return WorkPageData{
		Form:              f,
		Edit:              edit,
		Authorized:        true,
		Genres:            search.Genres,
		FundingTypes:      search.FundingTypes,
		OrganizationTypes: search.OrganizationTypes,
	}
}

// CreateForm handles GET /plays/create. Accounts that cannot publish see
// the form replaced by a message.
func (h *WorksHandler) CreateForm(w http.ResponseWriter, r *http.Request) {
	data := newWorkPage(form.NewWorkForm(), false)
	status := http.StatusOK
	if !auth.CanPublish(middleware.GetIdentity(r)) {
		data.Authorized = false
		data.Message = msgNotAuthorizedCreate
		status = http.StatusForbidden
	}
	h.render(w, r, status, data)
}

// Create handles POST /plays/create.
func (h *WorksHandler) Create(w http.ResponseWriter, r *http.Request) {
	id := middleware.GetIdentity(r)
	if !auth.CanPublish(id) {
		slog.Warn("play create denied", "user_id", middleware.GetUserID(r), "account", accountOf(id), "category", "play")
		data := newWorkPage(form.NewWorkForm(), false)
		data.Authorized = false
		data.Message = msgNotAuthorizedCreate
		h.render(w, r, http.StatusForbidden, data)
		return
	}

	if !h.parseMultipart(w, r) {
		data := newWorkPage(form.NewWorkForm(), false)
		data.Message = msgUploadTooLarge
		h.render(w, r, http.StatusRequestEntityTooLarge, data)
		return
	}

	f := form.WorkFromValues(r.PostForm)
	data := newWorkPage(f, false)
	if errs := f.Errors(); len(errs) > 0 {
		data.Errors = errs
		h.render(w, r, http.StatusUnprocessableEntity, data)
		return
	}

	body := f.Multipart(id, false)
	cover, err := h.cover(r)
	if err != nil {
		data.Message = msgImageResizeFailed
		h.render(w, r, http.StatusUnprocessableEntity, data)
		return
	}
	if cover != nil {
		body.Files = append(body.Files, *cover)
	}

	if err := h.api.CreatePlay(r.Context(), h.jar(r), body); err != nil {
		if h.expired(w, r, err) {
			return
		}
		slog.Error("failed to create play", "user_id", id.ID, "error", err, "category", "play")
		data.Message = msgPlayCreateFailed
		h.render(w, r, http.StatusOK, data)
		return
	}

	slog.Info("play created", "user_id", id.ID, "title", f.Title, "category", "play")
	flashSuccess(w, r, h.renderer, redirectPlays, msgPlayCreated)
}

// EditForm handles GET /edit-play/{id}.
func (h *WorksHandler) EditForm(w http.ResponseWriter, r *http.Request) {
	play, data, status, ok := h.loadForEdit(w, r)
	if !ok {
		return
	}
	if play != nil {
		data.Form = form.WorkFromPlay(*play)
	}
	h.render(w, r, status, data)
}

// Edit handles POST /edit-play/{id}. The play is loaded again so ownership
// is checked against the backend's current record.
func (h *WorksHandler) Edit(w http.ResponseWriter, r *http.Request) {
	play, data, status, ok := h.loadForEdit(w, r)
	if !ok {
		return
	}
	if play == nil {
		h.render(w, r, status, data)
		return
	}

	if !h.parseMultipart(w, r) {
		data.Form = form.WorkFromPlay(*play)
		data.Message = msgUploadTooLarge
		h.render(w, r, http.StatusRequestEntityTooLarge, data)
		return
	}

	f := form.WorkFromValues(r.PostForm)
	data.Form = f
	if errs := f.Errors(); len(errs) > 0 {
		data.Errors = errs
		h.render(w, r, http.StatusUnprocessableEntity, data)
		return
	}

	id := middleware.GetIdentity(r)
	body := f.Multipart(id, true)

	cover, err := h.cover(r)
	if err != nil {
		data.Message = msgImageResizeFailed
		h.render(w, r, http.StatusUnprocessableEntity, data)
		return
	}
	if cover != nil {
		body.Files = append(body.Files, *cover)
	}

	script, err := h.script(r)
	if err != nil {
		data.Message = msgDocumentType
		h.render(w, r, http.StatusUnprocessableEntity, data)
		return
	}
	if script != nil {
		body.Files = append(body.Files, *script)
	}

	if err := h.api.UpdatePlay(r.Context(), h.jar(r), play.ID, body); err != nil {
		if h.expired(w, r, err) {
			return
		}
		slog.Error("failed to update play", "user_id", id.ID, "play_id", play.ID, "error", err, "category", "play")
		data.Message = msgPlayUpdateFailed
		h.render(w, r, http.StatusOK, data)
		return
	}

	slog.Info("play updated", "user_id", id.ID, "play_id", play.ID, "category", "play")
	flashSuccess(w, r, h.renderer, redirectPlays, msgPlayUpdated)
}

// loadForEdit fetches the play and applies the role and ownership checks.
// A nil play with ok true means data carries a message to render with
// status. ok false means the response has been written.
func (h *WorksHandler) loadForEdit(w http.ResponseWriter, r *http.Request) (*apiclient.Play, WorkPageData, int, bool) {
	id := middleware.GetIdentity(r)
	playID := chi.URLParam(r, "id")
	data := newWorkPage(form.NewWorkForm(), true)
	data.PlayID = playID

	if !auth.CanPublish(id) {
		data.Authorized = false
		data.Message = msgNotAuthorizedEdit
		return nil, data, http.StatusForbidden, true
	}

	play, err := h.api.Play(r.Context(), h.jar(r), playID)
	if err != nil {
		if h.expired(w, r, err) {
			return nil, data, 0, false
		}
		status := http.StatusOK
		if apiclient.IsNotFound(err) {
			status = http.StatusNotFound
		} else {
			slog.Error("failed to load play", "play_id", playID, "error", err)
		}
		data.Authorized = false
		data.Message = msgPlayLoadFailed
		return nil, data, status, true
	}

	if !auth.CanEdit(id, play.OwnerID()) {
		slog.Warn("play edit denied", "user_id", id.ID, "play_id", playID, "category", "play")
		data.Authorized = false
		data.Message = msgNotAuthorizedEdit
		return nil, data, http.StatusForbidden, true
	}

	if play.PlayFile != "" {
		data.CurrentFile = path.Base(play.PlayFile)
	}
	return play, data, http.StatusOK, true
}

func (h *WorksHandler) render(w http.ResponseWriter, r *http.Request, status int, data WorkPageData) {
	title := titleCreate
	if data.Edit {
		title = titleEdit
	}
	h.renderer.RenderStatus(w, r, status, "play_form", render.TemplateData{
		Title:    title,
		Identity: middleware.GetIdentity(r),
		Data:     data,
	})
}

// parseMultipart bounds and parses the request body.
func (h *WorksHandler) parseMultipart(w http.ResponseWriter, r *http.Request) bool {
	return parseUpload(w, r, h.maxUpload)
}

// cover resizes the optional coverImage upload. A nil file with a nil
// error means none was sent.
func (h *WorksHandler) cover(r *http.Request) (*apiclient.File, error) {
	return processedUpload(r, "coverImage", h.covers)
}

// script reads the optional playFile upload, PDF or DOCX only.
func (h *WorksHandler) script(r *http.Request) (*apiclient.File, error) {
	file, hdr, err := r.FormFile("playFile")
	if noFile(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer func() { _ = file.Close() }()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, err
	}
	mimeType := imaging.DocumentType(data, hdr.Filename)
	if mimeType == "" {
		return nil, errors.New("unsupported document type")
	}
	return &apiclient.File{
		Field:       "playFile",
		Filename:    path.Base(hdr.Filename),
		ContentType: mimeType,
		Data:        data,
	}, nil
}

// parseUpload limits the body to maxBytes and parses it as multipart.
func parseUpload(w http.ResponseWriter, r *http.Request, maxBytes int64) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	err := r.ParseMultipartForm(maxBytes)
	if errors.Is(err, http.ErrNotMultipart) {
		// a form without files; PostForm is already parsed
		return true
	}
	if err != nil {
		slog.Warn("multipart form rejected", "path", r.URL.Path, "error", err)
		return false
	}
	return true
}

// processedUpload runs an optional image field through p.
func processedUpload(r *http.Request, field string, p *imaging.Preprocessor) (*apiclient.File, error) {
	file, hdr, err := r.FormFile(field)
	if noFile(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer func(f multipart.File) { _ = f.Close() }(file)

	img, err := p.Process(file, hdr.Filename)
	if err != nil {
		slog.Warn("image upload rejected", "field", field, "error", err)
		return nil, err
	}
	return &apiclient.File{
		Field:       field,
		Filename:    img.Filename,
		ContentType: img.MimeType,
		Data:        img.Data,
	}, nil
}

// noFile reports whether a FormFile error only means nothing was uploaded.
func noFile(err error) bool {
	return errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart)
}

func accountOf(id *auth.Identity) int {
	if id == nil {
		return -1
	}
	return id.Account
}
