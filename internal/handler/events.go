// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/mpdb-web/internal/middleware"
	"github.com/olegiv/mpdb-web/internal/render"
	"github.com/olegiv/mpdb-web/internal/scheduler"
	"github.com/olegiv/mpdb-web/internal/store"
)

// EventsLimit is the number of events shown on the events page.
const EventsLimit = 100

// detailsLengthThreshold is the max chars before details are collapsible
const detailsLengthThreshold = 80

const timeLayout = "2006-01-02 15:04:05"

// EventsHandler shows the event log, the scheduled jobs and the backend
// probe to administrators.
type EventsHandler struct {
	events   *store.Events
	jobs     *scheduler.Scheduler
	probe    *scheduler.Probe
	renderer *render.Renderer
}

// NewEventsHandler creates a new EventsHandler.
func NewEventsHandler(events *store.Events, jobs *scheduler.Scheduler, probe *scheduler.Probe, renderer *render.Renderer) *EventsHandler {
	return &EventsHandler{
		events:   events,
		jobs:     jobs,
		probe:    probe,
		renderer: renderer,
	}
}

// EventRow is an event prepared for the table.
type EventRow struct {
	ID          int64
	Level       string
	Category    string
	Message     string
	UserID      string
	RequestID   string
	Details     string // Formatted metadata as readable text
	DetailsLong bool   // True if details exceed display threshold
	CreatedAt   string
}

// JobRow is a scheduled job prepared for the table.
type JobRow struct {
	Name        string
	Description string
	Schedule    string
	LastRun     string
	NextRun     string
	LastError   string
	Duration    string
}

// EventsPageData holds data for the events template.
type EventsPageData struct {
	Events  []EventRow
	Level   string
	Levels  []string
	Jobs    []JobRow
	Backend scheduler.ProbeStatus
	// BackendChecked is the formatted probe time, empty before the first run.
	BackendChecked string
}

// formatMetadata converts JSON metadata to readable text format.
// Example: {"path":"/plays","error":"not found"} -> "error: not found, path: /plays"
func formatMetadata(metadata string) string {
	if metadata == "" || metadata == "{}" {
		return ""
	}

	var data map[string]any
	if err := json.Unmarshal([]byte(metadata), &data); err != nil {
		return metadata // Return as-is if not valid JSON
	}

	if len(data) == 0 {
		return ""
	}

	// Sort keys for consistent output order
	keys := make([]string, 0, len(data))
	for key := range data {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		var strValue string
		switch v := data[key].(type) {
		case string:
			strValue = v
		case float64:
			strValue = strconv.FormatFloat(v, 'f', -1, 64)
		case bool:
			strValue = strconv.FormatBool(v)
		case nil:
			strValue = "null"
		default:
			if b, err := json.Marshal(v); err == nil {
				strValue = string(b)
			}
		}
		parts = append(parts, key+": "+strValue)
	}

	return strings.Join(parts, ", ")
}

// List handles GET /admin/events.
func (h *EventsHandler) List(w http.ResponseWriter, r *http.Request) {
	level := r.URL.Query().Get("level")
	switch level {
	case "", store.EventLevelInfo, store.EventLevelWarning, store.EventLevelError:
	default:
		level = ""
	}

	events, err := h.events.Recent(r.Context(), level, EventsLimit)
	if err != nil {
		logAndInternalError(w, "failed to list events", "error", err)
		return
	}

	data := EventsPageData{
		Level:  level,
		Levels: []string{store.EventLevelInfo, store.EventLevelWarning, store.EventLevelError},
		Events: make([]EventRow, 0, len(events)),
	}
	for _, e := range events {
		details := formatMetadata(e.Metadata)
		data.Events = append(data.Events, EventRow{
			ID:          e.ID,
			Level:       e.Level,
			Category:    e.Category,
			Message:     e.Message,
			UserID:      e.UserID,
			RequestID:   e.RequestID,
			Details:     details,
			DetailsLong: len(details) > detailsLengthThreshold,
			CreatedAt:   e.CreatedAt.Local().Format(timeLayout),
		})
	}

	for _, j := range h.jobs.List() {
		row := JobRow{
			Name:        j.Name,
			Description: j.Description,
			Schedule:    j.Schedule,
			LastError:   j.LastError,
		}
		if !j.LastRun.IsZero() {
			row.LastRun = j.LastRun.Local().Format(timeLayout)
			row.Duration = j.Duration.String()
		}
		if !j.NextRun.IsZero() {
			row.NextRun = j.NextRun.Local().Format(timeLayout)
		}
		data.Jobs = append(data.Jobs, row)
	}

	if h.probe != nil {
		data.Backend = h.probe.Status()
		if !data.Backend.CheckedAt.IsZero() {
			data.BackendChecked = data.Backend.CheckedAt.Local().Format(timeLayout)
		}
	}

	h.renderer.RenderPage(w, r, "admin_events", render.TemplateData{
		Title:    titleAdminEvents,
		Identity: middleware.GetIdentity(r),
		Data:     data,
	})
}

// TriggerJob handles POST /admin/jobs/{name}/trigger. The job runs
// synchronously so the redirect shows its result.
func (h *EventsHandler) TriggerJob(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	err := h.jobs.TriggerNow(name)
	switch {
	case errors.Is(err, scheduler.ErrJobNotFound):
		flashError(w, r, h.renderer, redirectAdminEvents, "Unknown job: "+name)
		return
	case err != nil:
		slog.Error("manual job run failed", "job", name, "error", err, "category", "system")
		flashError(w, r, h.renderer, redirectAdminEvents, "Job "+name+" failed: "+err.Error())
		return
	}

	slog.Info("job triggered manually", "job", name, "user_id", middleware.GetUserID(r), "category", "system")
	flashSuccess(w, r, h.renderer, redirectAdminEvents, "Job "+name+" completed.")
}
