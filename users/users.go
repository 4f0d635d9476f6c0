package users

import (
	"encoding/json"
	"strings"
)

// RoleType represents a user role within the release-notes application.
type RoleType string

const (
	RoleAdmin  RoleType = "admin"  // Can manage release notes and users
	RoleEditor RoleType = "editor" // Can edit release notes
	RoleViewer RoleType = "viewer" // Read-only access
)

// User is the authenticated identity the backend returns on login. It is
// persisted as JSON alongside the tokens and must round-trip through the
// token store.
type User struct {
	ID    string     `json:"id"`
	Email string     `json:"email"`
	Name  string     `json:"name"`
	Roles []RoleType `json:"roles,omitempty"`
}

// HasRole reports whether the user carries the given role.
func (u *User) HasRole(role RoleType) bool {
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// Valid reports whether the user record has the required shape. A record
// missing any of id, email or name must not be trusted.
func (u *User) Valid() bool {
	return u != nil && u.ID != "" && u.Email != "" && u.Name != ""
}

// NormalizeIdentity canonicalizes an email for use as a storage key:
// trimmed and lower-cased.
func NormalizeIdentity(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Unmarshal decodes a stored user JSON blob, returning nil for malformed
// JSON or a record that fails shape validation rather than an error.
func Unmarshal(data string) *User {
	if data == "" {
		return nil
	}
	var u User
	if err := json.Unmarshal([]byte(data), &u); err != nil {
		return nil
	}
	if !u.Valid() {
		return nil
	}
	return &u
}

// Marshal encodes a user for storage.
func Marshal(u *User) (string, error) {
	b, err := json.Marshal(u)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
