// Package storage defines the persisted key-value tiers shared by the token
// store and the login attempt tracker. Two tiers exist: a durable tier that
// survives application restarts ("remember me") and a session-lifetime tier
// that does not.
package storage

import "errors"

var (
	// ErrNotFound is returned when a key has no value in the store.
	ErrNotFound = errors.New("key not found")

	// ErrWriteFailed is returned when a write could not be persisted.
	ErrWriteFailed = errors.New("write failed")
)

// Store is a flat string-to-string persistence tier.
type Store interface {
	// Get returns the value for key, or ErrNotFound.
	Get(key string) (string, error)

	// Set writes the value for key, overwriting any existing value.
	Set(key, value string) error

	// Remove deletes the key. Removing an absent key is not an error.
	Remove(key string) error
}

// Tiers pairs the two persistence tiers. Durable is always consulted first
// on reads.
type Tiers struct {
	Durable Store
	Session Store
}

// Pick returns the durable tier when durable is true, the session tier
// otherwise.
func (t Tiers) Pick(durable bool) Store {
	if durable {
		return t.Durable
	}
	return t.Session
}
