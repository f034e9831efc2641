// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package apiclient

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// User is an account as returned by the backend.
type User struct {
	ID         string  `json:"_id"`
	FirstName  string  `json:"firstName"`
	LastName   string  `json:"lastName"`
	Email      string  `json:"email"`
	Phone      string  `json:"phone"`
	Account    int     `json:"account"`
	Contact    Flag    `json:"contact"`
	SchoolName string  `json:"schoolName,omitempty"`
	Profile    Profile `json:"profile"`
}

// FullName returns "First Last", trimmed.
func (u User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// Profile holds the optional public profile of a user.
type Profile struct {
	ProfilePicture string          `json:"profilePicture,omitempty"`
	Description    string          `json:"description,omitempty"`
	Biography      string          `json:"biography,omitempty"`
	CompanyName    string          `json:"companyName,omitempty"`
	Street         string          `json:"street,omitempty"`
	StateCity      string          `json:"stateCity,omitempty"`
	Country        string          `json:"country,omitempty"`
	Website        string          `json:"website,omitempty"`
	Visibility     map[string]bool `json:"visibility,omitempty"`
}

// Play is one submitted work.
type Play struct {
	ID               string  `json:"_id"`
	Title            string  `json:"title"`
	Author           Author  `json:"author"`
	AuthorID         string  `json:"authorId,omitempty"`
	Genre            string  `json:"genre,omitempty"`
	Duration         FlexInt `json:"duration,omitempty"`
	Males            FlexInt `json:"males,omitempty"`
	Females          FlexInt `json:"females,omitempty"`
	Total            FlexInt `json:"total,omitempty"`
	Acts             FlexInt `json:"acts,omitempty"`
	OrganizationType string  `json:"organizationType,omitempty"`
	Funding          string  `json:"funding,omitempty"`
	PublicationDate  string  `json:"publicationDate,omitempty"`
	SubmissionDate   string  `json:"submissionDate,omitempty"`
	Abstract         string  `json:"abstract,omitempty"`
	CoverImage       string  `json:"coverImage,omitempty"`
	PlayFile         string  `json:"playFile,omitempty"`
}

// OwnerID returns the author's user id, from authorId or a populated author.
func (p Play) OwnerID() string {
	if p.AuthorID != "" {
		return p.AuthorID
	}
	return p.Author.ID
}

// PlayList is one page of GET /api/plays.
type PlayList struct {
	Plays        []Play `json:"plays"`
	Total        int    `json:"total"`
	TotalResults int    `json:"totalResults"`
	TotalPages   int    `json:"totalPages"`
	Page         int    `json:"page"`
}

// Author is either a plain name, a bare user id, or a populated user.
type Author struct {
	ID   string
	Name string
}

// UnmarshalJSON accepts a string, null, or {_id, firstName, lastName, name}.
func (a *Author) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*a = Author{}
		return nil
	}

	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*a = Author{Name: strings.TrimSpace(s)}
		return nil
	}

	var obj struct {
		ID        string `json:"_id"`
		FirstName string `json:"firstName"`
		LastName  string `json:"lastName"`
		Name      string `json:"name"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	name := obj.Name
	if name == "" {
		name = strings.TrimSpace(obj.FirstName + " " + obj.LastName)
	}
	*a = Author{ID: obj.ID, Name: name}
	return nil
}

// MarshalJSON writes the author as a plain name.
func (a Author) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.Name)
}

// FlexInt decodes numbers sent as JSON numbers, numeric strings, "" or null.
type FlexInt int

// UnmarshalJSON implements json.Unmarshaler.
func (n *FlexInt) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(bytes.TrimSpace(data)), `"`)
	if s == "" || s == "null" {
		*n = 0
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		// non-numeric free text from older records
		*n = 0
		return nil
	}
	*n = FlexInt(f)
	return nil
}

// Flag decodes booleans sent as true/false, 0/1 or their string forms.
type Flag bool

// UnmarshalJSON implements json.Unmarshaler.
func (f *Flag) UnmarshalJSON(data []byte) error {
	switch strings.Trim(string(bytes.TrimSpace(data)), `"`) {
	case "true", "1", "on", "yes":
		*f = true
	default:
		*f = false
	}
	return nil
}

// ParseDate parses the date formats the backend emits. The zero time is
// returned for empty or unparseable input.
func ParseDate(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05.000Z", time.DateOnly} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// SignupRequest is the body of POST /api/auth/signup.
type SignupRequest struct {
	FirstName  string `json:"firstName"`
	LastName   string `json:"lastName"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	Password   string `json:"password"`
	Account    int    `json:"account"`
	SchoolName string `json:"schoolName"`
	Contact    int    `json:"contact"`
	Over18     int    `json:"over18"`
}

// LoginRequest is the body of POST /api/auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ContactRequest is the body of POST /api/contact.
type ContactRequest struct {
	FirstName    string `json:"firstName"`
	LastName     string `json:"lastName"`
	MobileNo     string `json:"mobileNo"`
	EmailAddress string `json:"emailAddress"`
	Message      string `json:"message"`
}

type userEnvelope struct {
	User *User `json:"user"`
}

type usersEnvelope struct {
	Users []User `json:"users"`
}
