// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package uikit

import (
	"html/template"
	"testing"
	"time"
)

func TestTemplateFuncs_FormatFunctions(t *testing.T) {
	funcs := TemplateFuncs()

	formatDate := funcs["formatDate"].(func(time.Time) string)
	testTime := time.Date(2025, time.March, 15, 0, 0, 0, 0, time.UTC)
	if got := formatDate(testTime); got != "Mar 15, 2025" {
		t.Errorf("formatDate() = %q, want %q", got, "Mar 15, 2025")
	}

	if got := MonthYear(testTime); got != "MARCH 2025" {
		t.Errorf("MonthYear() = %q, want %q", got, "MARCH 2025")
	}

	tests := []struct {
		n    int
		want string
	}{
		{0, "0"},
		{999, "999"},
		{1000, "1,000"},
		{1234567, "1,234,567"},
	}
	for _, tt := range tests {
		if got := FormatNumber(tt.n); got != tt.want {
			t.Errorf("FormatNumber(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}

func TestTemplateFuncs_StringFunctions(t *testing.T) {
	funcs := TemplateFuncs()

	truncate := funcs["truncate"].(func(string, int) string)
	tests := []struct {
		input    string
		length   int
		expected string
	}{
		{"hello world", 5, "hello..."},
		{"hello", 5, "hello"},
		{"hello", 10, "hello"},
		{"", 5, ""},
		{"héllo wörld", 7, "héllo w..."},
	}
	for _, tt := range tests {
		if got := truncate(tt.input, tt.length); got != tt.expected {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.input, tt.length, got, tt.expected)
		}
	}

	contains := funcs["contains"].(func(any, any) bool)
	if !contains([]string{"Drama", "Comedy"}, "Comedy") {
		t.Error("contains should find Comedy in slice")
	}
	if contains([]string{"Drama"}, "Comedy") {
		t.Error("contains should not find Comedy")
	}
	if !contains("Musical Theatre", "Theatre") {
		t.Error("contains should find substring")
	}
	if contains(42, "4") {
		t.Error("contains should be false for unsupported types")
	}
}

func TestTemplateFuncs_MathFunctions(t *testing.T) {
	funcs := TemplateFuncs()

	add := funcs["add"].(func(int, int) int)
	sub := funcs["sub"].(func(int, int) int)
	seq := funcs["seq"].(func(int, int) []int)

	if got := add(5, 3); got != 8 {
		t.Errorf("add(5, 3) = %d, want 8", got)
	}
	if got := sub(5, 3); got != 2 {
		t.Errorf("sub(5, 3) = %d, want 2", got)
	}
	if got := seq(1, 3); len(got) != 3 || got[0] != 1 || got[2] != 3 {
		t.Errorf("seq(1, 3) = %v", got)
	}
	if got := seq(3, 1); len(got) != 0 {
		t.Errorf("seq(3, 1) = %v, want empty", got)
	}
}

func TestTemplateFuncs_Data(t *testing.T) {
	funcs := TemplateFuncs()

	dict := funcs["dict"].(func(...any) map[string]any)
	d := dict("a", 1, "b", "two")
	if d["a"] != 1 || d["b"] != "two" {
		t.Errorf("dict() = %v", d)
	}
	if dict("odd") != nil {
		t.Error("dict with odd arguments should be nil")
	}

	toJSON := funcs["toJSON"].(func(any) template.JS)
	if got := toJSON(map[string]bool{"email": true}); got != `{"email":true}` {
		t.Errorf("toJSON() = %q", got)
	}
	if got := toJSON(make(chan int)); got != "null" {
		t.Errorf("toJSON(chan) = %q, want null", got)
	}
}

func TestWebsiteURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"  ", ""},
		{"https://example.org", "https://example.org"},
		{"HTTP://example.org", "HTTP://example.org"},
		{"example.org", "https://example.org"},
		{"example.org:8080/plays", "https://example.org:8080/plays"},
		{"localhost:3000", "https://localhost:3000"},
		{"javascript:alert(1)", ""},
		{"mailto:someone@example.org", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := WebsiteURL(tt.in); got != tt.want {
				t.Errorf("WebsiteURL(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
