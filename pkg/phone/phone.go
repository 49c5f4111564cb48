// Package phone handles the Uzbek phone numbers used as login identifiers.
package phone

import (
	"regexp"
	"strings"
)

// numberPattern matches a normalized Uzbek mobile number: +998 then 9 digits.
var numberPattern = regexp.MustCompile(`^\+998[0-9]{9}$`)

// Normalize strips surrounding whitespace and interior spaces. Numbers are
// normalized before validation, uniqueness checks and storage.
func Normalize(number string) string {
	return strings.ReplaceAll(strings.TrimSpace(number), " ", "")
}

// Valid reports whether a normalized number is in the +998XXXXXXXXX format.
func Valid(number string) bool {
	return numberPattern.MatchString(number)
}
