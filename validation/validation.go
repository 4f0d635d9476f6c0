// Package validation provides the pure credential checks performed before
// any backend call: email shape, password strength and input sanitizing.
package validation

import (
	"fmt"
	"regexp"
	"strings"
)

const (
	// MaxEmailLength is the RFC 5321 limit on a full address.
	MaxEmailLength = 254

	// MinPasswordLength and MaxPasswordLength bound accepted passwords.
	MinPasswordLength = 8
	MaxPasswordLength = 128

	// MaxInputLength caps sanitized input fields.
	MaxInputLength = 500
)

// Result is the outcome of a validation check.
type Result struct {
	IsValid bool
	Errors  []string
}

// RFC-5322-lite: unquoted local part, letter/digit-bounded domain labels.
var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9.!#$%&'*+/=?^_` + "`" + `{|}~-]+@[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?(?:\.[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?)*$`)

var safeStringRegex = regexp.MustCompile(`^[a-zA-Z0-9\s.@\-_!?,:;]*$`)

// Sequential runs that mark a password as weak when used as a prefix.
var sequentialPrefixes = []string{
	"012", "123", "234", "345", "456", "567", "678", "789", "890",
	"abc", "bcd", "cde", "def", "efg", "fgh", "ghi", "hij", "ijk", "jkl",
	"klm", "lmn", "mno", "nop", "opq", "pqr", "qrs", "rst", "stu", "tuv",
	"uvw", "vwx", "wxy", "xyz",
}

// Known weak passwords, matched case-insensitively as prefixes.
var weakPasswordPrefixes = []string{"password", "123456", "qwerty", "admin", "root"}

// ValidateEmail checks the email address shape. It does not hit the network
// and is deterministic for identical input.
func ValidateEmail(email string) Result {
	var errs []string

	trimmed := strings.TrimSpace(email)

	if trimmed == "" {
		errs = append(errs, "Email is required")
		return Result{IsValid: false, Errors: errs}
	}

	if len(trimmed) > MaxEmailLength {
		errs = append(errs, "Email is too long")
	}

	if !emailRegex.MatchString(trimmed) {
		errs = append(errs, "Please enter a valid email address")
	}

	return Result{IsValid: len(errs) == 0, Errors: errs}
}

// ValidatePassword checks password length and rejects well-known weak
// patterns: a single repeated character, a sequential run prefix, or a
// common password prefix.
func ValidatePassword(password string) Result {
	var errs []string

	if password == "" {
		errs = append(errs, "Password is required")
		return Result{IsValid: false, Errors: errs}
	}

	if len(password) < MinPasswordLength {
		errs = append(errs, fmt.Sprintf("Password must be at least %d characters long", MinPasswordLength))
	}

	if len(password) > MaxPasswordLength {
		errs = append(errs, "Password is too long")
	}

	if isWeakPassword(password) {
		errs = append(errs, "Password is too weak. Please choose a stronger password")
	}

	return Result{IsValid: len(errs) == 0, Errors: errs}
}

func isWeakPassword(password string) bool {
	if allSameRune(password) {
		return true
	}

	lower := strings.ToLower(password)
	for _, prefix := range sequentialPrefixes {
		if strings.HasPrefix(lower, prefix) {
			return true
		}
	}
	for _, prefix := range weakPasswordPrefixes {
		if strings.HasPrefix(lower, prefix) {
			return true
		}
	}
	return false
}

func allSameRune(s string) bool {
	var first rune
	for i, r := range s {
		if i == 0 {
			first = r
			continue
		}
		if r != first {
			return false
		}
	}
	return len(s) > 0
}

// SanitizeInput trims the input, strips characters with markup significance
// and truncates to MaxInputLength. It is applied to the email field only;
// passwords must round-trip byte-for-byte and are never sanitized.
func SanitizeInput(input string) string {
	trimmed := strings.TrimSpace(input)
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case '<', '>', '"', '\'', '&':
			return -1
		}
		return r
	}, trimmed)

	if len(cleaned) > MaxInputLength {
		cleaned = cleaned[:MaxInputLength]
	}
	return cleaned
}

// IsSafeString reports whether the input contains only alphanumerics,
// whitespace and common punctuation. Empty input is not considered safe.
func IsSafeString(input string) bool {
	if input == "" {
		return false
	}
	return safeStringRegex.MatchString(input)
}

// ValidateTokenFormat reports whether the token has the three dot-separated
// non-empty segments of a JWT.
func ValidateTokenFormat(token string) bool {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return false
	}
	for _, part := range parts {
		if part == "" {
			return false
		}
	}
	return true
}
