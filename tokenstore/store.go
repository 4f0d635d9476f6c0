// Package tokenstore persists the session's tokens, user record and expiry
// timestamps across the two storage tiers.
package tokenstore

import (
	"strconv"
	"time"

	"github.com/pkg/errors"

	"github.com/relnotes/go-auth-client/logging"
	"github.com/relnotes/go-auth-client/storage"
	"github.com/relnotes/go-auth-client/users"
)

// Storage keys. One value per key, mirrored across both tiers.
const (
	KeyToken          = "auth_token"
	KeyUser           = "auth_user"
	KeyExpires        = "auth_expires"
	KeyRefreshToken   = "refresh_token"
	KeyRefreshExpires = "refresh_expires"
)

var allKeys = []string{KeyToken, KeyUser, KeyExpires, KeyRefreshToken, KeyRefreshExpires}

// StoredTokens is the persisted token group. Expiry fields are epoch
// milliseconds. User may be nil when the stored record failed shape
// validation.
type StoredTokens struct {
	AccessToken      string
	RefreshToken     string
	User             *users.User
	AccessExpiresAt  int64
	RefreshExpiresAt int64
}

// AccessExpiredAt reports whether the access token is expired at t.
func (st *StoredTokens) AccessExpiredAt(t time.Time) bool {
	return st.AccessExpiresAt == 0 || t.UnixMilli() >= st.AccessExpiresAt
}

// RefreshExpiredAt reports whether the refresh token is expired at t.
func (st *StoredTokens) RefreshExpiredAt(t time.Time) bool {
	return st.RefreshExpiresAt == 0 || t.UnixMilli() >= st.RefreshExpiresAt
}

// Store reads and writes the token group. Reads consult the durable tier
// first and fall back to the session tier per key; this per-key fallback is
// a preserved quirk of the storage layout, so a half-durable set of keys
// still loads without error.
type Store struct {
	tiers  storage.Tiers
	logger *logging.Logger
}

// New creates a Store over the given tiers.
func New(tiers storage.Tiers, logger *logging.Logger) *Store {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Store{tiers: tiers, logger: logger}
}

// Save writes the token group to exactly one tier: durable when "remember
// me" was requested, session-lifetime otherwise. The other tier is left
// untouched.
func (s *Store) Save(tokens *StoredTokens, durable bool) error {
	if tokens == nil {
		return errors.New("[Store.Save] tokens are required")
	}

	userJSON := ""
	if tokens.User != nil {
		encoded, err := users.Marshal(tokens.User)
		if err != nil {
			return errors.Wrap(err, "[Store.Save] encode user")
		}
		userJSON = encoded
	}

	tier := s.tiers.Pick(durable)
	writes := map[string]string{
		KeyToken:          tokens.AccessToken,
		KeyUser:           userJSON,
		KeyExpires:        strconv.FormatInt(tokens.AccessExpiresAt, 10),
		KeyRefreshToken:   tokens.RefreshToken,
		KeyRefreshExpires: strconv.FormatInt(tokens.RefreshExpiresAt, 10),
	}
	for _, key := range allKeys {
		if err := tier.Set(key, writes[key]); err != nil {
			return errors.Wrapf(err, "[Store.Save] write %s", key)
		}
	}
	return nil
}

// Load assembles the token group, reading each key from the durable tier
// with session-tier fallback. Returns nil when neither token is present.
// A malformed stored user yields a nil User, never an error.
func (s *Store) Load() *StoredTokens {
	access, accessOK := s.read(KeyToken)
	refresh, refreshOK := s.read(KeyRefreshToken)
	if (!accessOK || access == "") && (!refreshOK || refresh == "") {
		return nil
	}

	tokens := &StoredTokens{
		AccessToken:  access,
		RefreshToken: refresh,
	}

	if raw, ok := s.read(KeyUser); ok {
		tokens.User = users.Unmarshal(raw)
	}
	if raw, ok := s.read(KeyExpires); ok {
		tokens.AccessExpiresAt = parseEpochMillis(raw)
	}
	if raw, ok := s.read(KeyRefreshExpires); ok {
		tokens.RefreshExpiresAt = parseEpochMillis(raw)
	}
	return tokens
}

// Clear removes the whole token group from both tiers unconditionally,
// swallowing individual removal failures.
func (s *Store) Clear() {
	for _, tier := range []storage.Store{s.tiers.Durable, s.tiers.Session} {
		if tier == nil {
			continue
		}
		for _, key := range allKeys {
			if err := tier.Remove(key); err != nil {
				s.logger.Warn("Failed to remove stored token key", "tokenstore",
					map[string]any{"storage_key": key, "error": err.Error()})
			}
		}
	}
}

// read returns the value for key from the durable tier, falling back to the
// session tier. An empty stored value counts as absent, matching the
// original layout where empty and missing were indistinguishable. Storage
// faults fail open to "absent".
func (s *Store) read(key string) (string, bool) {
	for _, tier := range []storage.Store{s.tiers.Durable, s.tiers.Session} {
		if tier == nil {
			continue
		}
		value, err := tier.Get(key)
		if err == nil && value != "" {
			return value, true
		}
		if err != nil && err != storage.ErrNotFound {
			s.logger.Warn("Failed to read stored token key", "tokenstore",
				map[string]any{"storage_key": key, "error": err.Error()})
		}
	}
	return "", false
}

func parseEpochMillis(raw string) int64 {
	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0
	}
	return value
}
