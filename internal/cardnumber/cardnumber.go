// Package cardnumber formats card numbers typed into the login and
// registration forms and renders stored numbers for display.
package cardnumber

import (
	"strings"
	"unicode/utf8"
)

const (
	// MaxDigits is the number of digits kept from login input.
	MaxDigits = 16
	// MinIdentifierLength is the shortest formatted identifier accepted at login.
	MinIdentifierLength = 16

	groupSize = 4
)

// Digits drops every character that is not an ASCII digit.
func Digits(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// FormatLogin formats login input: digits only, at most MaxDigits of them,
// grouped by four. Fewer than four digits are returned ungrouped.
func FormatLogin(raw string) string {
	digits := Digits(raw)
	if len(digits) < groupSize {
		return digits
	}
	if len(digits) > MaxDigits {
		digits = digits[:MaxDigits]
	}
	return group(digits)
}

// FormatRegister formats registration input: digits only, grouped by four,
// without a digit cap.
func FormatRegister(raw string) string {
	return group(Digits(raw))
}

// Display regroups a stored card number by four characters after removing
// whitespace. Non-digit characters are kept.
func Display(number string) string {
	return group(strings.Join(strings.Fields(number), ""))
}

// Mask hides everything but the last four digits.
func Mask(number string) string {
	digits := Digits(number)
	if len(digits) <= groupSize {
		return digits
	}
	masked := strings.Repeat("•", len(digits)-groupSize) + digits[len(digits)-groupSize:]
	return group(masked)
}

// Acceptable reports whether an identifier is long enough to sign in with.
func Acceptable(identifier string) bool {
	return utf8.RuneCountInString(identifier) >= MinIdentifierLength
}

func group(s string) string {
	runes := []rune(s)
	if len(runes) == 0 {
		return ""
	}
	parts := make([]string, 0, (len(runes)+groupSize-1)/groupSize)
	for i := 0; i < len(runes); i += groupSize {
		end := i + groupSize
		if end > len(runes) {
			end = len(runes)
		}
		parts = append(parts, string(runes[i:end]))
	}
	return strings.Join(parts, " ")
}
