// Package httpauth contains the thin HTTP consumers of the session core:
// route-guard middleware and an outbound transport that keeps requests
// authenticated.
package httpauth

import (
	"net/http"

	"github.com/relnotes/go-auth-client/session"
)

// Guard protects routes based on the session manager's synchronous
// authentication check.
type Guard struct {
	sessions  *session.Manager
	loginPath string
	homePath  string
}

// NewGuard creates a Guard redirecting unauthenticated requests to
// loginPath and already-authenticated login-page visits to homePath.
func NewGuard(sessions *session.Manager, loginPath, homePath string) *Guard {
	return &Guard{
		sessions:  sessions,
		loginPath: loginPath,
		homePath:  homePath,
	}
}

// RequireAuth is middleware for routes that need an authenticated session.
// The check is the optimistic synchronous one: an expired access token with
// a live refresh token admits the request while the refresh runs behind it.
func (g *Guard) RequireAuth() func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			if !g.sessions.IsAuthenticated() {
				http.Redirect(w, r, g.loginPath, http.StatusSeeOther)
				return
			}
			next(w, r)
		}
	}
}

// RedirectAuthenticated is the login-page guard: an already authenticated
// visitor is sent home instead.
func (g *Guard) RedirectAuthenticated() func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			if g.sessions.IsAuthenticated() {
				http.Redirect(w, r, g.homePath, http.StatusSeeOther)
				return
			}
			next(w, r)
		}
	}
}
