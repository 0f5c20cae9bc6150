// Copyright (c) 2026 Trackwell Health. All rights reserved.
// Author: platform@trackwell.health

/*
Package emailaddr normalizes email addresses for storage and lookup.

Emails are the platform's login identifiers and are unique
case-insensitively, so every address must pass through [Normalize] before it
touches the database — both on write (registration) and on read (login,
password recovery). Normalization is Unicode-aware: internationalized
addresses compare equal regardless of composition form or letter case.
*/
package emailaddr

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

var lower = cases.Lower(language.Und)

// Normalize returns the canonical form of an email address:
// trimmed, NFC-composed, and lowercased with Unicode-correct folding.
func Normalize(email string) string {
	trimmed := strings.TrimSpace(email)
	return lower.String(norm.NFC.String(trimmed))
}
