// Copyright (c) 2026 Clipstream. All rights reserved.
// Author: minh.ngo.dev@gmail.com

// Package normalize canonicalizes user-supplied identity strings.
//
// # Usage
//
// Usernames and emails serve as unique login identifiers, so visually
// identical inputs must map to one stored form. "Ann", "ann " and a
// fullwidth "ａｎｎ" all resolve to the same account.
package normalize

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Username canonicalizes a username or login identifier.
//
// # Transformation Pipeline
//
// 1. Trims surrounding whitespace.
// 2. Normalizes to NFKC (folds compatibility variants: fullwidth, ligatures).
// 3. Converts to lowercase.
func Username(s string) string {
	result := strings.TrimSpace(s)
	result = norm.NFKC.String(result)
	return strings.ToLower(result)
}

// Email canonicalizes an email address for storage and lookup.
//
// The whole address is lowercased. Strictly speaking the local part is
// case-sensitive per RFC 5321, but no mainstream provider honors that and
// case-insensitive matching is what account-recovery flows expect.
func Email(s string) string {
	result := strings.TrimSpace(s)
	result = norm.NFKC.String(result)
	return strings.ToLower(result)
}
