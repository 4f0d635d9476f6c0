package backend

import (
	"context"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/pkg/errors"
	"golang.org/x/oauth2"

	"github.com/relnotes/go-auth-client/internal/config"
	"github.com/relnotes/go-auth-client/session"
	"github.com/relnotes/go-auth-client/users"
)

var _ session.Backend = (*OAuth2)(nil)

// OAuth2 authenticates against a real identity provider using the
// resource-owner password grant, extracting the user record from the OIDC
// ID token. Refresh goes through the provider's refresh grant.
type OAuth2 struct {
	provider      *oauth2.Config
	oidcProvider  *oidc.Provider
	verifier      *oidc.IDTokenVerifier
	refreshExpiry time.Duration
}

// NewOAuth2 discovers the issuer's endpoints and builds the backend. The
// context bounds discovery only, not later logins.
func NewOAuth2(ctx context.Context, issuer, clientID, clientSecret string) (*OAuth2, error) {
	if issuer == "" {
		return nil, errors.New("[NewOAuth2] issuer is required")
	}
	if clientID == "" {
		return nil, errors.New("[NewOAuth2] clientID is required")
	}

	provider, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, errors.Wrap(err, "[NewOAuth2] oidc discovery")
	}

	return &OAuth2{
		provider: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			Endpoint:     provider.Endpoint(),
			Scopes:       []string{oidc.ScopeOpenID, "profile", "email", "offline_access"},
		},
		oidcProvider:  provider,
		verifier:      provider.Verifier(&oidc.Config{ClientID: clientID}),
		refreshExpiry: config.Tokens{}.GetRefreshTokenExpiry(),
	}, nil
}

func (b *OAuth2) Login(ctx context.Context, email, password string) (*session.LoginResponse, error) {
	token, err := b.provider.PasswordCredentialsToken(ctx, email, password)
	if err != nil {
		return nil, mapOAuthError(err, session.CodeInvalidCredentials, "Invalid email or password")
	}
	return b.buildResponse(ctx, token)
}

func (b *OAuth2) Refresh(ctx context.Context, refreshToken string) (*session.LoginResponse, error) {
	source := b.provider.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken})
	token, err := source.Token()
	if err != nil {
		return nil, mapOAuthError(err, session.CodeInvalidRefreshToken, "Refresh token was rejected")
	}
	return b.buildResponse(ctx, token)
}

func (b *OAuth2) buildResponse(ctx context.Context, token *oauth2.Token) (*session.LoginResponse, error) {
	user, err := b.extractUser(ctx, token)
	if err != nil {
		return nil, err
	}

	refreshToken := token.RefreshToken

	return &session.LoginResponse{
		AccessToken:      token.AccessToken,
		RefreshToken:     refreshToken,
		User:             user,
		ExpiresAt:        token.Expiry.UnixMilli(),
		RefreshExpiresAt: time.Now().Add(b.refreshExpiry).UnixMilli(),
	}, nil
}

// extractUser prefers the ID token's claims; when the grant response has no
// ID token (some providers omit it on refresh) it falls back to the
// UserInfo endpoint.
func (b *OAuth2) extractUser(ctx context.Context, token *oauth2.Token) (*users.User, error) {
	var claims struct {
		Sub   string `json:"sub"`
		Email string `json:"email"`
		Name  string `json:"name"`
	}

	if rawIDToken, ok := token.Extra("id_token").(string); ok && rawIDToken != "" {
		idToken, err := b.verifier.Verify(ctx, rawIDToken)
		if err != nil {
			return nil, errors.Wrap(err, "[OAuth2.extractUser] verify id_token")
		}
		if err := idToken.Claims(&claims); err != nil {
			return nil, errors.Wrap(err, "[OAuth2.extractUser] decode id_token claims")
		}
	} else {
		info, err := b.oidcProvider.UserInfo(ctx, oauth2.StaticTokenSource(token))
		if err != nil {
			return nil, errors.Wrap(err, "[OAuth2.extractUser] userinfo")
		}
		if err := info.Claims(&claims); err != nil {
			return nil, errors.Wrap(err, "[OAuth2.extractUser] decode userinfo claims")
		}
	}

	user := &users.User{ID: claims.Sub, Email: claims.Email, Name: claims.Name}
	if !user.Valid() {
		return nil, session.NewError(session.CodeUserNotFound, "Identity provider returned an incomplete user")
	}
	return user, nil
}

// mapOAuthError turns a provider token-endpoint rejection into the given
// auth code; transport-level failures pass through wrapped.
func mapOAuthError(err error, code session.Code, message string) error {
	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) {
		return session.NewError(code, message)
	}
	return errors.Wrap(err, "[OAuth2] token endpoint")
}
