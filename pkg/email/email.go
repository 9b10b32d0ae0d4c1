// Package email derives display names from addresses for notifications
// where no profile name is on file.
package email

import (
	"strings"
	"unicode"
)

// DeriveNameFromEmail splits the local part of an address into a first and
// last name guess. "dana.smith@example.com" becomes ("Dana", "Smith").
func DeriveNameFromEmail(email string) (string, string) {
	localPart := email
	if at := strings.IndexByte(email, '@'); at > 0 {
		localPart = email[:at]
	}

	parts := strings.FieldsFunc(localPart, func(r rune) bool {
		return r == '.' || r == '_' || r == '-' || r == '+'
	})

	if len(parts) == 0 {
		return "User", "User"
	}

	first := capitalize(parts[0])
	last := "User"
	if len(parts) > 1 {
		last = capitalize(parts[len(parts)-1])
	}

	return first, last
}

// DisplayName returns a single printable name for an address.
func DisplayName(email string) string {
	first, last := DeriveNameFromEmail(email)
	if last == "User" {
		return first
	}
	return first + " " + last
}

func capitalize(s string) string {
	if s == "" {
		return s
	}

	runes := []rune(s)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
