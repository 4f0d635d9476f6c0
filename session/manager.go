// Package session orchestrates the client-side authentication lifecycle:
// login, logout, token persistence, proactive refresh scheduling and the
// auth-state stream consumed by guards and the HTTP layer.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"

	"github.com/relnotes/go-auth-client/attempts"
	"github.com/relnotes/go-auth-client/internal/config"
	"github.com/relnotes/go-auth-client/internal/utils"
	"github.com/relnotes/go-auth-client/logging"
	"github.com/relnotes/go-auth-client/tokenstore"
	"github.com/relnotes/go-auth-client/users"
	"github.com/relnotes/go-auth-client/validation"
)

// Credentials is a login request.
type Credentials struct {
	Email      string
	Password   string
	RememberMe bool
}

// Deps holds all collaborator dependencies for the Manager.
type Deps struct {
	Backend  Backend
	Tokens   *tokenstore.Store
	Attempts *attempts.Tracker
	Logger   *logging.Logger
}

// Manager owns the live session. It is the single writer of authentication
// state; guards and the HTTP layer hold a reference to it rather than any
// global. Construct one at application start and keep it for the process
// lifetime.
type Manager struct {
	deps Deps

	refreshLead time.Duration
	timer       Timer
	nowTime     func() time.Time

	mu            sync.Mutex
	authenticated bool
	user          *users.User
	refreshing    bool
	// generation is bumped whenever the session context changes (login,
	// logout). A network completion from an older generation is discarded.
	generation uint64
	subs       map[string]*Subscription
}

// Option modifies the Manager.
type Option func(*Manager)

// WithNowTime sets the now time function (primarily for testing).
func WithNowTime(nowFunc func() time.Time) Option {
	return func(m *Manager) {
		m.nowTime = nowFunc
	}
}

// WithTimer replaces the refresh timer (primarily for testing with a
// manually fired fake).
func WithTimer(timer Timer) Option {
	return func(m *Manager) {
		m.timer = timer
	}
}

// WithRefreshLead overrides how long before access expiry the background
// refresh fires.
func WithRefreshLead(lead time.Duration) Option {
	return func(m *Manager) {
		m.refreshLead = lead
	}
}

// NewManager creates a Manager and initializes its state from storage: a
// valid stored access token restores the session directly, an expired one
// with a live refresh token triggers a silent refresh, anything else clears
// the stored tokens.
func NewManager(deps Deps, options ...Option) (*Manager, error) {
	if deps.Backend == nil {
		return nil, errors.New("[NewManager] Backend is required")
	}
	if deps.Tokens == nil {
		return nil, errors.New("[NewManager] Tokens store is required")
	}
	if deps.Attempts == nil {
		return nil, errors.New("[NewManager] Attempts tracker is required")
	}
	if deps.Logger == nil {
		deps.Logger = logging.Nop()
	}

	m := &Manager{
		deps:        deps,
		refreshLead: config.Tokens{}.GetRefreshLeadTime(),
		timer:       NewTimer(),
		nowTime:     time.Now,
		subs:        make(map[string]*Subscription),
	}
	for _, opt := range options {
		opt(m)
	}

	m.initialize()
	return m, nil
}

func (m *Manager) initialize() {
	tokens := m.deps.Tokens.Load()
	if tokens == nil {
		return
	}
	now := m.nowTime()

	if tokens.AccessToken != "" && wellFormed(tokens.AccessToken) && !tokens.AccessExpiredAt(now) {
		m.mu.Lock()
		m.authenticated = true
		m.user = tokens.User
		m.scheduleRefreshLocked(tokens.AccessExpiresAt)
		m.mu.Unlock()
		m.deps.Logger.AuthEvent("session_restored", userEmail(tokens.User), true, nil)
		return
	}

	if tokens.RefreshToken != "" && !tokens.RefreshExpiredAt(now) {
		// Stay anonymous until the silent refresh resolves.
		go func() {
			if err := m.RefreshAccessToken(context.Background()); err != nil {
				m.deps.Logger.Warn("Silent refresh on startup failed", "session",
					map[string]any{"error": err.Error()})
			}
		}()
		return
	}

	m.deps.Tokens.Clear()
}

// Login validates the credentials, enforces the attempt budget and then
// asks the backend to authenticate. Validation and rate-limit rejections
// happen locally, before any network call.
func (m *Manager) Login(ctx context.Context, creds Credentials) (*users.User, error) {
	if result := validation.ValidateEmail(creds.Email); !result.IsValid {
		m.deps.Logger.AuthEvent("login_rejected", creds.Email, false,
			map[string]any{"reason": "invalid_email"})
		return nil, NewError(CodeInvalidEmail, firstError(result, "invalid email"))
	}

	// Shape check only: strength rules are the registration surface's
	// concern, and the password must reach the backend unmodified.
	security := config.Security{}
	if len(creds.Password) < security.GetPasswordMinLength() || len(creds.Password) > security.GetPasswordMaxLength() {
		m.deps.Logger.AuthEvent("login_rejected", creds.Email, false,
			map[string]any{"reason": "invalid_password"})
		return nil, NewError(CodeInvalidPassword, "Password is invalid")
	}

	identity := users.NormalizeIdentity(creds.Email)
	if !m.deps.Attempts.CanAttempt(identity) {
		wait := m.deps.Attempts.TimeUntilNextAttempt(identity)
		m.deps.Logger.AuthEvent("login_rate_limited", creds.Email, false,
			map[string]any{"retry_after": wait.String()})
		return nil, &Error{
			Code:       CodeRateLimited,
			Message:    "Too many failed login attempts",
			RetryAfter: wait,
		}
	}

	email := validation.SanitizeInput(creds.Email)
	response, err := m.deps.Backend.Login(ctx, email, creds.Password)
	if err != nil {
		m.deps.Attempts.Record(identity, false)
		m.deps.Logger.AuthEvent("login_failed", creds.Email, false, nil)
		if CodeOf(err) != "" {
			return nil, err
		}
		return nil, errors.Wrap(err, "[Manager.Login] backend login")
	}

	m.deps.Attempts.Record(identity, true)
	m.deps.Attempts.Clear(identity)

	// Storage faults must not fail an otherwise successful login.
	if saveErr := m.deps.Tokens.Save(storedFromResponse(response), creds.RememberMe); saveErr != nil {
		m.deps.Logger.Warn("Failed to persist tokens", "session",
			map[string]any{"error": saveErr.Error()})
	}

	m.mu.Lock()
	m.authenticated = true
	m.user = response.User
	m.generation++
	m.scheduleRefreshLocked(response.ExpiresAt)
	m.publishLocked()
	m.mu.Unlock()

	m.deps.Logger.AuthEvent("login_success", creds.Email, true, nil)
	return response.User, nil
}

// Logout cancels the scheduled refresh, clears stored tokens and demotes
// the session to anonymous.
func (m *Manager) Logout() {
	m.mu.Lock()
	m.logoutLocked("logout")
	m.mu.Unlock()
}

// RefreshAccessToken exchanges the stored refresh token for a new token
// pair. At most one refresh is in flight at a time; a concurrent caller
// fails immediately with REFRESH_IN_PROGRESS instead of issuing a
// duplicate backend call. A refreshed session always persists to the
// durable tier.
func (m *Manager) RefreshAccessToken(ctx context.Context) error {
	m.mu.Lock()
	if m.refreshing {
		m.mu.Unlock()
		return NewError(CodeRefreshInProgress, "a token refresh is already in flight")
	}

	tokens := m.deps.Tokens.Load()
	if tokens == nil || tokens.RefreshToken == "" || tokens.RefreshExpiredAt(m.nowTime()) {
		m.logoutLocked("refresh_token_invalid")
		m.mu.Unlock()
		return NewError(CodeRefreshTokenInvalid, "refresh token missing or expired")
	}

	m.refreshing = true
	generation := m.generation
	refreshToken := tokens.RefreshToken
	m.mu.Unlock()

	response, err := m.deps.Backend.Refresh(ctx, refreshToken)

	m.mu.Lock()
	m.refreshing = false

	if m.generation != generation {
		// The session context changed while the call was outstanding
		// (logout or a fresh login); its effect is discarded.
		m.mu.Unlock()
		return nil
	}

	if err != nil {
		m.logoutLocked("refresh_failed")
		m.mu.Unlock()
		if CodeOf(err) != "" {
			return err
		}
		return errors.Wrap(err, "[Manager.RefreshAccessToken] backend refresh")
	}

	if saveErr := m.deps.Tokens.Save(storedFromResponse(response), true); saveErr != nil {
		m.deps.Logger.Warn("Failed to persist refreshed tokens", "session",
			map[string]any{"error": saveErr.Error()})
	}
	m.authenticated = true
	m.user = response.User
	m.scheduleRefreshLocked(response.ExpiresAt)
	m.publishLocked()
	m.mu.Unlock()

	m.deps.Logger.AuthEvent("token_refreshed", userEmail(response.User), true, nil)
	return nil
}

// IsAuthenticated recomputes the authentication state from storage. When
// the access token is expired but the refresh token is still valid it
// optimistically returns true and fires one asynchronous refresh; a guard
// gets its immediate yes/no without awaiting network I/O, accepting the
// brief window where a later refresh failure demotes the session.
func (m *Manager) IsAuthenticated() bool {
	tokens := m.deps.Tokens.Load()
	now := m.nowTime()

	if tokens == nil {
		m.mu.Lock()
		if m.authenticated {
			m.logoutLocked("tokens_missing")
		}
		m.mu.Unlock()
		return false
	}

	if tokens.AccessToken != "" && wellFormed(tokens.AccessToken) && !tokens.AccessExpiredAt(now) {
		return true
	}

	if tokens.RefreshToken != "" && !tokens.RefreshExpiredAt(now) {
		go func() {
			err := m.RefreshAccessToken(context.Background())
			if err != nil && CodeOf(err) != CodeRefreshInProgress {
				m.deps.Logger.Warn("Async refresh after auth check failed", "session",
					map[string]any{"error": err.Error()})
			}
		}()
		return true
	}

	m.mu.Lock()
	m.logoutLocked("tokens_expired")
	m.mu.Unlock()
	return false
}

// GetToken returns the current access token, or empty when the session is
// not authenticated.
func (m *Manager) GetToken() string {
	if !m.IsAuthenticated() {
		return ""
	}
	tokens := m.deps.Tokens.Load()
	if tokens == nil {
		return ""
	}
	return tokens.AccessToken
}

// CurrentUser returns the logged-in user, or nil when anonymous.
func (m *Manager) CurrentUser() *users.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.user
}

// logoutLocked performs the logout transition. Requires m.mu.
func (m *Manager) logoutLocked(reason string) {
	m.timer.Cancel()
	m.deps.Tokens.Clear()
	wasAuthenticated := m.authenticated
	m.authenticated = false
	m.user = nil
	m.generation++
	m.publishLocked()

	if wasAuthenticated || reason == "logout" {
		m.deps.Logger.AuthEvent("logout", "", true, map[string]any{"reason": reason})
	}
}

// scheduleRefreshLocked arms the one-shot refresh timer to fire refreshLead
// before the access token expires. Any pending timer is cancelled first.
// Requires m.mu.
func (m *Manager) scheduleRefreshLocked(accessExpiresAt int64) {
	m.timer.Cancel()

	fireIn := time.UnixMilli(accessExpiresAt).Sub(m.nowTime()) - m.refreshLead
	if fireIn <= 0 {
		return
	}
	m.timer.Schedule(fireIn, m.backgroundRefresh)
}

// backgroundRefresh is the timer callback: a best-effort refresh whose
// errors are logged, never surfaced.
func (m *Manager) backgroundRefresh() {
	m.mu.Lock()
	authenticated := m.authenticated
	m.mu.Unlock()
	if !authenticated {
		return
	}

	if err := m.RefreshAccessToken(context.Background()); err != nil {
		m.deps.Logger.Warn("Scheduled token refresh failed", "session",
			map[string]any{"error": err.Error()})
	}
}

func storedFromResponse(response *LoginResponse) *tokenstore.StoredTokens {
	return &tokenstore.StoredTokens{
		AccessToken:      response.AccessToken,
		RefreshToken:     response.RefreshToken,
		User:             response.User,
		AccessExpiresAt:  response.ExpiresAt,
		RefreshExpiresAt: response.RefreshExpiresAt,
	}
}

// wellFormed reports whether the token parses as a JWT. The signature is
// not verified here; that is the backend's job.
func wellFormed(token string) bool {
	if !validation.ValidateTokenFormat(token) {
		return false
	}
	_, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	return err == nil
}

func firstError(result validation.Result, fallback string) string {
	if len(result.Errors) > 0 {
		return result.Errors[0]
	}
	return fallback
}

func userEmail(u *users.User) string {
	return utils.Value(u).Email
}
