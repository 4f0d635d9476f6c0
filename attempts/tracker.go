// Package attempts tracks failed logins per identity and computes lockout
// state. History is persisted so a reload does not reset the brute-force
// budget.
package attempts

import (
	"encoding/json"
	"time"

	"github.com/relnotes/go-auth-client/logging"
	"github.com/relnotes/go-auth-client/storage"
	"github.com/relnotes/go-auth-client/users"
)

const (
	// DefaultMaxAttempts is the number of failed attempts allowed inside
	// the window before the identity is locked out.
	DefaultMaxAttempts = 5

	// DefaultWindow is the trailing lockout window.
	DefaultWindow = 15 * time.Minute

	keyPrefix = "login_attempts_"
)

// Attempt is one recorded login attempt. Timestamps are epoch milliseconds,
// matching the persisted layout.
type Attempt struct {
	Timestamp int64  `json:"timestamp"`
	Identity  string `json:"identity"`
	Success   bool   `json:"success"`
}

// Tracker persists login attempt history keyed by normalized identity.
//
// Storage faults never lock a user out: reads fail open to "no attempts
// recorded" and write failures are logged and swallowed.
type Tracker struct {
	store       storage.Store
	logger      *logging.Logger
	maxAttempts int
	window      time.Duration
	nowTime     func() time.Time
}

// Option modifies a Tracker.
type Option func(*Tracker)

// WithNowTime sets the now time function (primarily for testing).
func WithNowTime(nowFunc func() time.Time) Option {
	return func(t *Tracker) {
		t.nowTime = nowFunc
	}
}

// WithLimits overrides the attempt budget and window.
func WithLimits(maxAttempts int, window time.Duration) Option {
	return func(t *Tracker) {
		t.maxAttempts = maxAttempts
		t.window = window
	}
}

// NewTracker creates a Tracker writing through the given store.
func NewTracker(store storage.Store, logger *logging.Logger, options ...Option) *Tracker {
	if logger == nil {
		logger = logging.Nop()
	}
	tracker := &Tracker{
		store:       store,
		logger:      logger,
		maxAttempts: DefaultMaxAttempts,
		window:      DefaultWindow,
		nowTime:     time.Now,
	}
	for _, opt := range options {
		opt(tracker)
	}
	return tracker
}

// CanAttempt reports whether the identity is under its failed-attempt
// budget for the trailing window.
func (t *Tracker) CanAttempt(identity string) bool {
	return t.recentFailures(identity) < t.maxAttempts
}

// Record appends an attempt with the current timestamp, prunes entries
// older than twice the window and persists the result. Entries are kept
// beyond the decision window so TimeUntilNextAttempt can still see the
// attempt that started the lockout.
func (t *Tracker) Record(identity string, success bool) {
	identity = users.NormalizeIdentity(identity)
	now := t.nowTime()

	attempts := t.load(identity)
	attempts = append(attempts, Attempt{
		Timestamp: now.UnixMilli(),
		Identity:  identity,
		Success:   success,
	})

	retention := now.Add(-2 * t.window).UnixMilli()
	pruned := attempts[:0]
	for _, a := range attempts {
		if a.Timestamp > retention {
			pruned = append(pruned, a)
		}
	}

	encoded, err := json.Marshal(pruned)
	if err != nil {
		t.logger.Warn("Failed to encode login attempts", "attempts", map[string]any{"error": err.Error()})
		return
	}
	if err := t.store.Set(keyPrefix+identity, string(encoded)); err != nil {
		t.logger.Warn("Failed to store login attempts", "attempts", map[string]any{"error": err.Error()})
	}
}

// Clear deletes all attempt history for the identity. Called only after a
// successful login.
func (t *Tracker) Clear(identity string) {
	identity = users.NormalizeIdentity(identity)
	if err := t.store.Remove(keyPrefix + identity); err != nil {
		t.logger.Warn("Failed to clear login attempts", "attempts", map[string]any{"error": err.Error()})
	}
}

// TimeUntilNextAttempt returns how long the identity must wait before the
// next attempt is allowed; zero when under the budget. The wait is anchored
// on the Nth-most-recent failure, where N is the attempt budget.
func (t *Tracker) TimeUntilNextAttempt(identity string) time.Duration {
	attempts := t.load(users.NormalizeIdentity(identity))
	now := t.nowTime()

	var failures []Attempt
	for _, a := range attempts {
		if !a.Success {
			failures = append(failures, a)
		}
	}
	if len(failures) < t.maxAttempts {
		return 0
	}

	// Most recent first.
	for i := 0; i < len(failures); i++ {
		for j := i + 1; j < len(failures); j++ {
			if failures[j].Timestamp > failures[i].Timestamp {
				failures[i], failures[j] = failures[j], failures[i]
			}
		}
	}

	anchor := failures[t.maxAttempts-1]
	wait := time.UnixMilli(anchor.Timestamp).Add(t.window).Sub(now)
	if wait < 0 {
		return 0
	}
	return wait
}

func (t *Tracker) recentFailures(identity string) int {
	attempts := t.load(users.NormalizeIdentity(identity))
	cutoff := t.nowTime().Add(-t.window).UnixMilli()

	count := 0
	for _, a := range attempts {
		if !a.Success && a.Timestamp > cutoff {
			count++
		}
	}
	return count
}

// load reads the attempt history for an identity, failing open to an empty
// history on any storage or decode fault.
func (t *Tracker) load(identity string) []Attempt {
	raw, err := t.store.Get(keyPrefix + identity)
	if err != nil {
		if err != storage.ErrNotFound {
			t.logger.Warn("Failed to read login attempts", "attempts", map[string]any{"error": err.Error()})
		}
		return nil
	}

	var attempts []Attempt
	if err := json.Unmarshal([]byte(raw), &attempts); err != nil {
		t.logger.Warn("Corrupt login attempt history, ignoring", "attempts", map[string]any{"error": err.Error()})
		return nil
	}

	// Drop malformed entries rather than trusting them.
	valid := attempts[:0]
	for _, a := range attempts {
		if a.Timestamp > 0 && a.Identity != "" {
			valid = append(valid, a)
		}
	}
	return valid
}
