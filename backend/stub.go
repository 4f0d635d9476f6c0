// Package backend provides implementations of the credential-validating
// collaborator the session manager talks to: a deterministic in-memory
// reference stub and an OAuth2/OIDC password-grant client.
package backend

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"sync"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"

	"github.com/relnotes/go-auth-client/internal/config"
	"github.com/relnotes/go-auth-client/session"
	"github.com/relnotes/go-auth-client/users"
)

const refreshTokenBytes = 32

// Reference dataset credentials.
const (
	StubAdminEmail    = "admin@example.com"
	StubAdminPassword = "password"
)

var _ session.Backend = (*Stub)(nil)

type stubAccount struct {
	user         users.User
	passwordHash string
}

// Stub is the in-memory reference backend. It validates bcrypt-hashed
// credentials, mints HS256 JWTs and rotates refresh tokens, all without
// network I/O, which makes it the fixture for every session-level test.
type Stub struct {
	signingKey    []byte
	accessExpiry  time.Duration
	refreshExpiry time.Duration
	nowTime       func() time.Time

	mu            sync.RWMutex
	accounts      map[string]stubAccount // keyed by normalized email
	refreshTokens map[string]string      // refresh token -> normalized email
}

// StubOption modifies the Stub.
type StubOption func(*Stub)

// WithStubNowTime sets the now time function (primarily for testing).
func WithStubNowTime(nowFunc func() time.Time) StubOption {
	return func(s *Stub) {
		s.nowTime = nowFunc
	}
}

// WithStubExpiries overrides the token lifetimes.
func WithStubExpiries(access, refresh time.Duration) StubOption {
	return func(s *Stub) {
		s.accessExpiry = access
		s.refreshExpiry = refresh
	}
}

// NewStub creates a Stub seeded with the reference dataset: an admin user
// with the well-known demo credentials.
func NewStub(options ...StubOption) *Stub {
	cfg := config.Tokens{}
	s := &Stub{
		signingKey:    []byte("stub-signing-key"),
		accessExpiry:  cfg.GetAccessTokenExpiry(),
		refreshExpiry: cfg.GetRefreshTokenExpiry(),
		nowTime:       time.Now,
		accounts:      make(map[string]stubAccount),
		refreshTokens: make(map[string]string),
	}
	for _, opt := range options {
		opt(s)
	}

	_ = s.AddUser(StubAdminEmail, StubAdminPassword, "Admin User", []users.RoleType{users.RoleAdmin})
	return s
}

// AddUser registers an account with a bcrypt-hashed password.
func (s *Stub) AddUser(email, password, name string, roles []users.RoleType) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		return errors.Wrap(err, "[Stub.AddUser] hash password")
	}

	identity := users.NormalizeIdentity(email)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts[identity] = stubAccount{
		user: users.User{
			ID:    uuid.New().String(),
			Email: identity,
			Name:  name,
			Roles: roles,
		},
		passwordHash: string(hash),
	}
	return nil
}

// Login checks the credentials against the registered accounts. Unknown
// users and wrong passwords both surface INVALID_CREDENTIALS so callers
// cannot tell which field was wrong.
func (s *Stub) Login(ctx context.Context, email, password string) (*session.LoginResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	identity := users.NormalizeIdentity(email)

	s.mu.RLock()
	account, ok := s.accounts[identity]
	s.mu.RUnlock()

	if !ok || bcrypt.CompareHashAndPassword([]byte(account.passwordHash), []byte(password)) != nil {
		return nil, session.NewError(session.CodeInvalidCredentials, "Invalid email or password")
	}

	return s.issue(account.user)
}

// Refresh rotates the refresh token and issues a fresh pair.
func (s *Stub) Refresh(ctx context.Context, refreshToken string) (*session.LoginResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	identity, ok := s.refreshTokens[refreshToken]
	if ok {
		delete(s.refreshTokens, refreshToken)
	}
	account, haveAccount := s.accounts[identity]
	s.mu.Unlock()

	if !ok {
		return nil, session.NewError(session.CodeInvalidRefreshToken, "Refresh token is not recognized")
	}
	if !haveAccount {
		return nil, session.NewError(session.CodeUserNotFound, "User no longer exists")
	}

	return s.issue(account.user)
}

func (s *Stub) issue(user users.User) (*session.LoginResponse, error) {
	now := s.nowTime()

	accessToken, err := s.mintAccessToken(&user, now)
	if err != nil {
		return nil, err
	}

	refreshToken, err := generateRefreshToken()
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.refreshTokens[refreshToken] = users.NormalizeIdentity(user.Email)
	s.mu.Unlock()

	return &session.LoginResponse{
		AccessToken:      accessToken,
		RefreshToken:     refreshToken,
		User:             &user,
		ExpiresAt:        now.Add(s.accessExpiry).UnixMilli(),
		RefreshExpiresAt: now.Add(s.refreshExpiry).UnixMilli(),
	}, nil
}

func (s *Stub) mintAccessToken(user *users.User, now time.Time) (string, error) {
	claims := jwtlib.MapClaims{
		"sub":   user.ID,
		"email": user.Email,
		"name":  user.Name,
		"iat":   now.Unix(),
		"exp":   now.Add(s.accessExpiry).Unix(),
		"jti":   uuid.New().String(),
	}

	token := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.signingKey)
	if err != nil {
		return "", errors.Wrap(err, "[Stub.mintAccessToken] sign token")
	}
	return signed, nil
}

func generateRefreshToken() (string, error) {
	tokenBytes := make([]byte, refreshTokenBytes)
	if _, err := rand.Read(tokenBytes); err != nil {
		return "", errors.Wrap(err, "[generateRefreshToken] rand.Read")
	}
	return hex.EncodeToString(tokenBytes), nil
}
