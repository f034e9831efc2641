// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package form

import (
	"encoding/json"
	"net/url"
	"strings"

	"github.com/olegiv/mpdb-web/internal/apiclient"
)

// Settings field limits.
const (
	MaxSettingsName = 20
	MaxDescription  = 450
	MaxBiography    = 2000
)

// VisibilityKeys are the profile fields a user can show or hide.
var VisibilityKeys = []string{
	"phone", "description", "biography", "companyName", "street",
	"stateCity", "country", "website", "contact", "profilePic",
}

// SettingsForm is the profile settings form.
type SettingsForm struct {
	FirstName   string
	LastName    string
	Phone       string
	Description string
	Biography   string
	CompanyName string
	Street      string
	StateCity   string
	Country     string
	Website     string
	Contact     bool
	// Visibility maps a field to "visible on profile".
	Visibility map[string]bool
}

// SettingsFromUser pre-fills the form.
func SettingsFromUser(u *apiclient.User) SettingsForm {
	f := SettingsForm{Visibility: make(map[string]bool, len(VisibilityKeys))}
	if u == nil {
		return f
	}
	f.FirstName = u.FirstName
	f.LastName = u.LastName
	f.Phone = u.Phone
	f.Description = u.Profile.Description
	f.Biography = u.Profile.Biography
	f.CompanyName = u.Profile.CompanyName
	f.Street = u.Profile.Street
	f.StateCity = u.Profile.StateCity
	f.Country = u.Profile.Country
	f.Website = u.Profile.Website
	f.Contact = bool(u.Contact)
	for _, k := range VisibilityKeys {
		f.Visibility[k] = u.Profile.Visibility[k]
	}
	return f
}

// SettingsFromValues reads and sanitizes a posted settings form.
// Visibility boxes are posted as "visibility.<key>".
func SettingsFromValues(v url.Values) SettingsForm {
	f := SettingsForm{
		FirstName:   Truncate(Name(v.Get("firstName")), MaxSettingsName),
		LastName:    Truncate(Name(v.Get("lastName")), MaxSettingsName),
		Phone:       Phone(v.Get("phone")),
		Description: Truncate(PlainText(v.Get("description")), MaxDescription),
		Biography:   Truncate(PlainText(v.Get("biography")), MaxBiography),
		CompanyName: PlainText(v.Get("companyName")),
		Street:      PlainText(v.Get("street")),
		StateCity:   PlainText(v.Get("stateCity")),
		Country:     PlainText(v.Get("country")),
		Website:     NoSpace(v.Get("website")),
		Contact:     checked(v, "contact"),
		Visibility:  make(map[string]bool, len(VisibilityKeys)),
	}
	for _, k := range VisibilityKeys {
		f.Visibility[k] = checked(v, "visibility."+k)
	}
	return f
}

// Errors returns field errors keyed by field name. Empty means valid.
func (f SettingsForm) Errors() map[string]string {
	errs := make(map[string]string)
	if !IsName(f.FirstName) {
		errs["firstName"] = "First name cannot be empty"
	}
	if !IsName(f.LastName) {
		errs["lastName"] = "Last name cannot be empty"
	}
	if f.Website != "" && strings.ContainsAny(f.Website, "<>\"'") {
		errs["website"] = "Please enter a valid website."
	}
	return errs
}

// Valid reports whether the form may be submitted.
func (f SettingsForm) Valid() bool {
	return len(f.Errors()) == 0
}

// Multipart builds the backend body. contact is sent as "true"/"false"
// and visibility as a JSON object.
func (f SettingsForm) Multipart() (*apiclient.Multipart, error) {
	vis, err := json.Marshal(f.Visibility)
	if err != nil {
		return nil, err
	}

	// cleared fields must reach the backend as empty values
	m := &apiclient.Multipart{KeepEmpty: true}
	m.Add("firstName", f.FirstName)
	m.Add("lastName", f.LastName)
	m.Add("phone", f.Phone)
	m.Add("description", f.Description)
	m.Add("biography", f.Biography)
	m.Add("companyName", f.CompanyName)
	m.Add("street", f.Street)
	m.Add("stateCity", f.StateCity)
	m.Add("country", f.Country)
	m.Add("website", f.Website)
	contact := "false"
	if f.Contact {
		contact = "true"
	}
	m.Add("contact", contact)
	m.Add("visibility", string(vis))
	return m, nil
}
