// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package form

import (
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/olegiv/mpdb-web/internal/apiclient"
	"github.com/olegiv/mpdb-web/internal/search"
)

// WorkForm is the create and edit play form.
type WorkForm struct {
	Title            string
	PublicationDate  string
	Acts             string
	Duration         string
	Total            string
	Males            string
	Females          string
	Funding          string
	Genre            string
	OrganizationType string
	Abstract         string
}

// NewWorkForm returns an empty form with the default selections.
func NewWorkForm() WorkForm {
	return WorkForm{
		Funding:          search.DefaultFunding,
		Genre:            search.DefaultGenre,
		OrganizationType: search.DefaultOrganizationType,
	}
}

// WorkFromValues reads and sanitizes a posted play form. Unknown select
// values fall back to the defaults.
func WorkFromValues(v url.Values) WorkForm {
	f := NewWorkForm()
	f.Title = PlainText(v.Get("title"))
	f.PublicationDate = dateOnly(v.Get("publicationDate"))
	f.Acts = Digits(v.Get("acts"), MaxActsDigits)
	f.Duration = Digits(v.Get("duration"), MaxDurationDigits)
	f.Total = Digits(v.Get("total"), MaxTotalDigits)
	f.Males = Digits(v.Get("males"), MaxCastDigits)
	f.Females = Digits(v.Get("females"), MaxCastDigits)
	f.Abstract = PlainText(v.Get("abstract"))

	if s := v.Get("funding"); search.ValidFunding(s) {
		f.Funding = s
	}
	if s := v.Get("genre"); search.ValidGenre(s) {
		f.Genre = s
	}
	if s := v.Get("organizationType"); search.ValidOrganizationType(s) {
		f.OrganizationType = s
	}
	return f
}

// WorkFromPlay pre-fills the edit form.
func WorkFromPlay(p apiclient.Play) WorkForm {
	f := NewWorkForm()
	f.Title = p.Title
	if t := apiclient.ParseDate(p.PublicationDate); !t.IsZero() {
		f.PublicationDate = t.Format(time.DateOnly)
	}
	f.Acts = intString(p.Acts)
	f.Duration = intString(p.Duration)
	f.Total = intString(p.Total)
	f.Males = intString(p.Males)
	f.Females = intString(p.Females)
	f.Abstract = p.Abstract
	if search.ValidFunding(p.Funding) {
		f.Funding = p.Funding
	}
	if search.ValidGenre(p.Genre) {
		f.Genre = p.Genre
	}
	if search.ValidOrganizationType(p.OrganizationType) {
		f.OrganizationType = p.OrganizationType
	}
	return f
}

// Errors returns field errors keyed by field name. Empty means valid.
func (f WorkForm) Errors() map[string]string {
	errs := make(map[string]string)
	if strings.TrimSpace(f.Title) == "" {
		errs["title"] = "Title is required."
	}
	return errs
}

// Valid reports whether the form may be submitted.
func (f WorkForm) Valid() bool {
	return len(f.Errors()) == 0
}

// Multipart builds the backend body. author is sent as "First Last".
// The organization type is only part of edits.
func (f WorkForm) Multipart(author *apiclient.User, edit bool) *apiclient.Multipart {
	m := &apiclient.Multipart{}
	if author != nil {
		m.Add("authorId", author.ID)
		m.Add("author", author.FullName())
	}
	m.Add("title", f.Title)
	m.Add("publicationDate", f.PublicationDate)
	m.Add("acts", f.Acts)
	m.Add("duration", f.Duration)
	m.Add("total", f.Total)
	m.Add("males", f.Males)
	m.Add("females", f.Females)
	m.Add("funding", f.Funding)
	m.Add("abstract", f.Abstract)
	m.Add("genre", f.Genre)
	if edit {
		m.Add("organizationType", f.OrganizationType)
	}
	return m
}

func dateOnly(s string) string {
	s = strings.TrimSpace(s)
	if _, err := time.Parse(time.DateOnly, s); err != nil {
		return ""
	}
	return s
}

func intString(n apiclient.FlexInt) string {
	if n <= 0 {
		return ""
	}
	return strconv.Itoa(int(n))
}
