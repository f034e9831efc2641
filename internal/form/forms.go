// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package form

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/olegiv/mpdb-web/internal/apiclient"
)

// Signup account choices.
const (
	AccountEducator   = 0
	AccountPlaywright = 1
)

// Minimum password lengths.
const (
	MinSignupPassword = 8
	MinResetPassword  = 6
)

// Inline messages.
const (
	MsgFillRequired  = "Please fill all required fields correctly."
	MsgEnterMessage  = "Please enter a message."
	MsgInvalidEmail  = "Please enter a valid email address."
	MsgResetMismatch = "Passwords must match and be at least 6 characters."
)

func checked(v url.Values, key string) bool {
	switch v.Get(key) {
	case "1", "on", "true":
		return true
	}
	return false
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// SignupForm is the account creation form.
type SignupForm struct {
	FirstName  string
	LastName   string
	Email      string
	Phone      string
	Password   string
	Account    int
	SchoolName string
	Contact    bool
	Over18     bool
}

// SignupFromValues reads and sanitizes a posted signup form.
func SignupFromValues(v url.Values) SignupForm {
	account := AccountEducator
	if v.Get("account") == strconv.Itoa(AccountPlaywright) {
		account = AccountPlaywright
	}
	f := SignupForm{
		FirstName:  Name(v.Get("firstName")),
		LastName:   Name(v.Get("lastName")),
		Email:      NoSpace(v.Get("email")),
		Phone:      Phone(v.Get("phone")),
		Password:   NoSpace(v.Get("password")),
		Account:    account,
		SchoolName: PlainText(v.Get("schoolName")),
	}
	// the playwright-only boxes mean nothing for educators
	if account == AccountPlaywright {
		f.Contact = checked(v, "contact")
		f.Over18 = checked(v, "over18")
	}
	return f
}

// Errors returns field errors keyed by field name. Empty means valid.
func (f SignupForm) Errors() map[string]string {
	errs := make(map[string]string)
	if !IsName(f.FirstName) {
		errs["firstName"] = "First name cannot be empty"
	}
	if !IsName(f.LastName) {
		errs["lastName"] = "Last name cannot be empty"
	}
	if !IsEmail(f.Email) {
		errs["email"] = MsgInvalidEmail
	}
	if n := len(f.Phone); n < 10 || n > MaxPhoneLen {
		errs["phone"] = "Phone number must be 10 to 15 digits."
	}
	if len(f.Password) < MinSignupPassword {
		errs["password"] = "Password must be at least 8 characters."
	}
	switch f.Account {
	case AccountEducator:
		if strings.TrimSpace(f.SchoolName) == "" {
			errs["schoolName"] = "Please enter your school/university name"
		}
	case AccountPlaywright:
		if !f.Over18 {
			errs["over18"] = "You must confirm that you are over 18."
		}
	}
	return errs
}

// Valid reports whether the form may be submitted.
func (f SignupForm) Valid() bool {
	return len(f.Errors()) == 0
}

// Request builds the backend payload.
func (f SignupForm) Request() apiclient.SignupRequest {
	return apiclient.SignupRequest{
		FirstName:  f.FirstName,
		LastName:   f.LastName,
		Email:      f.Email,
		Phone:      f.Phone,
		Password:   f.Password,
		Account:    f.Account,
		SchoolName: f.SchoolName,
		Contact:    boolInt(f.Contact),
		Over18:     boolInt(f.Over18),
	}
}

// LoginForm is the sign-in form.
type LoginForm struct {
	Email    string
	Password string
}

// LoginFromValues reads a posted login form.
func LoginFromValues(v url.Values) LoginForm {
	return LoginForm{
		Email:    NoSpace(v.Get("email")),
		Password: v.Get("password"),
	}
}

// Valid reports whether the form may be submitted.
func (f LoginForm) Valid() bool {
	return IsEmail(f.Email) && f.Password != ""
}

// Request builds the backend payload.
func (f LoginForm) Request() apiclient.LoginRequest {
	return apiclient.LoginRequest{Email: f.Email, Password: f.Password}
}

// ForgotForm asks for a password reset email.
type ForgotForm struct {
	Email string
}

// ForgotFromValues reads a posted forgot-password form.
func ForgotFromValues(v url.Values) ForgotForm {
	return ForgotForm{Email: NoSpace(v.Get("email"))}
}

// Valid reports whether the form may be submitted.
func (f ForgotForm) Valid() bool {
	return IsEmail(f.Email)
}

// ResetForm sets a new password.
type ResetForm struct {
	NewPassword     string
	ConfirmPassword string
}

// ResetFromValues reads a posted reset form.
func ResetFromValues(v url.Values) ResetForm {
	return ResetForm{
		NewPassword:     v.Get("newPassword"),
		ConfirmPassword: v.Get("confirmPassword"),
	}
}

// Valid reports whether the form may be submitted.
func (f ResetForm) Valid() bool {
	return len(f.NewPassword) >= MinResetPassword && f.NewPassword == f.ConfirmPassword
}

// ContactForm is the public message to site staff.
type ContactForm struct {
	FirstName    string
	LastName     string
	MobileNo     string
	EmailAddress string
	Message      string
}

// ContactFromValues reads a posted contact form.
func ContactFromValues(v url.Values) ContactForm {
	return ContactForm{
		FirstName:    PlainText(v.Get("firstName")),
		LastName:     PlainText(v.Get("lastName")),
		MobileNo:     Phone(v.Get("mobileNo")),
		EmailAddress: strings.TrimSpace(v.Get("emailAddress")),
		Message:      PlainText(v.Get("message")),
	}
}

// Valid reports whether the form may be submitted.
func (f ContactForm) Valid() bool {
	return f.FirstName != "" && f.LastName != "" && IsEmail(f.EmailAddress) && f.Message != ""
}

// Request builds the backend payload.
func (f ContactForm) Request() apiclient.ContactRequest {
	return apiclient.ContactRequest{
		FirstName:    f.FirstName,
		LastName:     f.LastName,
		MobileNo:     f.MobileNo,
		EmailAddress: f.EmailAddress,
		Message:      f.Message,
	}
}

// ContactUserForm is an anonymous message to one user.
type ContactUserForm struct {
	Message string
}

// ContactUserFromValues reads a posted message.
func ContactUserFromValues(v url.Values) ContactUserForm {
	return ContactUserForm{Message: PlainText(v.Get("message"))}
}

// Valid reports whether the form may be submitted.
func (f ContactUserForm) Valid() bool {
	return f.Message != ""
}
