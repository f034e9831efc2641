// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package search

import "slices"

// Select box values shared by the search filters and the play forms.
var (
	Genres            = []string{"Drama", "Comedy", "Musical", "Theatre of the Mind", "Tragedy", "Mystery"}
	FundingTypes      = []string{"Paid", "Donated"}
	OrganizationTypes = []string{"Elementary", "Middle School", "High School", "University", "Community", "Professional"}
)

// Defaults preselected on the create and edit forms.
const (
	DefaultGenre            = "Comedy"
	DefaultFunding          = "Donated"
	DefaultOrganizationType = "University"
)

// ValidGenre reports whether g is a known genre.
func ValidGenre(g string) bool { return slices.Contains(Genres, g) }

// ValidFunding reports whether f is a known funding type.
func ValidFunding(f string) bool { return slices.Contains(FundingTypes, f) }

// ValidOrganizationType reports whether o is a known organization type.
func ValidOrganizationType(o string) bool { return slices.Contains(OrganizationTypes, o) }
