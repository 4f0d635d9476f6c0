package session

import (
	"fmt"
	"time"

	"github.com/pkg/errors"
)

// Code identifies why an authentication operation failed. Codes prefixed
// with the backend's taxonomy are surfaced unchanged; the rest originate
// locally, before any network call.
type Code string

const (
	// Local codes.
	CodeInvalidEmail      Code = "INVALID_EMAIL"
	CodeInvalidPassword   Code = "INVALID_PASSWORD"
	CodeRateLimited       Code = "RATE_LIMITED"
	CodeRefreshInProgress Code = "REFRESH_IN_PROGRESS"
	// CodeRefreshTokenInvalid means the locally stored refresh token is
	// missing or expired; a refresh was never attempted.
	CodeRefreshTokenInvalid Code = "REFRESH_TOKEN_INVALID"

	// Backend-reported codes.
	CodeInvalidCredentials  Code = "INVALID_CREDENTIALS"
	CodeInvalidRefreshToken Code = "INVALID_REFRESH_TOKEN"
	CodeUserNotFound        Code = "USER_NOT_FOUND"
)

// Error is an authentication failure carrying a machine-readable code.
// RetryAfter is set only for RATE_LIMITED.
type Error struct {
	Code       Code
	Message    string
	RetryAfter time.Duration
}

func (e *Error) Error() string {
	if e.Code == CodeRateLimited && e.RetryAfter > 0 {
		return fmt.Sprintf("%s: %s (retry in %s)", e.Code, e.Message, e.RetryAfter.Round(time.Second))
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewError creates an Error with the given code and message.
func NewError(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// CodeOf extracts the failure code from err, unwrapping as needed. Returns
// an empty code when err carries none.
func CodeOf(err error) Code {
	var authErr *Error
	if errors.As(err, &authErr) {
		return authErr.Code
	}
	return ""
}
