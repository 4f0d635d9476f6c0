package httpauth

import (
	"net/http"
	"strings"

	"github.com/relnotes/go-auth-client/session"
)

// Transport is an http.RoundTripper that injects the session's bearer
// token into outgoing requests and, on a 401 while the session still looks
// authenticated, refreshes once and retries the request.
type Transport struct {
	// Base performs the actual request; http.DefaultTransport when nil.
	Base http.RoundTripper

	// Sessions supplies the token and the refresh.
	Sessions *session.Manager

	// PublicPrefixes lists URL path prefixes that never get a token
	// attached (login, health checks, static assets).
	PublicPrefixes []string
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.isPublic(req.URL.Path) {
		return t.base().RoundTrip(req)
	}

	authReq := t.withToken(req)
	resp, err := t.base().RoundTrip(authReq)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusUnauthorized || !t.Sessions.IsAuthenticated() {
		return resp, nil
	}

	// The request cannot be replayed without a rewindable body.
	if req.Body != nil && req.GetBody == nil {
		return resp, nil
	}

	if refreshErr := t.Sessions.RefreshAccessToken(req.Context()); refreshErr != nil {
		if session.CodeOf(refreshErr) != session.CodeRefreshInProgress {
			t.Sessions.Logout()
			return resp, nil
		}
	}

	retry := req.Clone(req.Context())
	if req.GetBody != nil {
		body, bodyErr := req.GetBody()
		if bodyErr != nil {
			return resp, nil
		}
		retry.Body = body
	}

	resp.Body.Close()
	return t.base().RoundTrip(t.withToken(retry))
}

func (t *Transport) withToken(req *http.Request) *http.Request {
	token := t.Sessions.GetToken()
	if token == "" {
		return req
	}

	cloned := req.Clone(req.Context())
	cloned.Header.Set("Authorization", "Bearer "+token)
	if cloned.Header.Get("Content-Type") == "" && cloned.Body != nil {
		cloned.Header.Set("Content-Type", "application/json")
	}
	return cloned
}

func (t *Transport) isPublic(path string) bool {
	for _, prefix := range t.PublicPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

func (t *Transport) base() http.RoundTripper {
	if t.Base != nil {
		return t.Base
	}
	return http.DefaultTransport
}
