package session

import (
	"context"

	"github.com/relnotes/go-auth-client/users"
)

// LoginResponse is the token pair a backend returns on a successful login
// or refresh. Expiry fields are epoch milliseconds.
type LoginResponse struct {
	AccessToken      string      `json:"accessToken"`
	RefreshToken     string      `json:"refreshToken"`
	User             *users.User `json:"user"`
	ExpiresAt        int64       `json:"expiresAt"`
	RefreshExpiresAt int64       `json:"refreshExpiresAt"`
}

// Backend is the credential-validating collaborator. Implementations map
// their failures onto *Error codes (INVALID_CREDENTIALS,
// INVALID_REFRESH_TOKEN, USER_NOT_FOUND) so callers can branch on CodeOf.
type Backend interface {
	Login(ctx context.Context, email, password string) (*LoginResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*LoginResponse, error)
}
