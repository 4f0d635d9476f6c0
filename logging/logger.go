// Package logging records auth lifecycle events. Sensitive fields are
// redacted before anything is written, and a capped ring buffer of recent
// entries is kept for introspection.
package logging

import (
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Level of a log entry.
type Level string

const (
	LevelError Level = "ERROR"
	LevelWarn  Level = "WARN"
	LevelInfo  Level = "INFO"
	LevelDebug Level = "DEBUG"
)

const (
	// RedactionMarker replaces values of sensitive fields.
	RedactionMarker = "[REDACTED]"

	// maxEntries caps the introspection ring buffer.
	maxEntries = 1000

	// maxValueLength truncates long string values.
	maxValueLength = 500
)

// Entry is one recorded log event, post-redaction.
type Entry struct {
	Timestamp time.Time
	Level     Level
	Message   string
	Context   string
	Data      map[string]any
	Identity  string // correlation hash, never the raw identity
}

// Logger is a redacting structured logger. The zero value is not usable;
// construct with New or Nop. Logging calls never fail and never panic.
type Logger struct {
	zl zerolog.Logger

	mu      sync.Mutex
	entries []Entry
}

// New creates a Logger emitting through the given zerolog logger.
func New(zl zerolog.Logger) *Logger {
	return &Logger{zl: zl}
}

// Nop creates a Logger that only fills the ring buffer.
func Nop() *Logger {
	return &Logger{zl: zerolog.Nop()}
}

func (l *Logger) Error(message, context string, data map[string]any) {
	l.Log(LevelError, message, context, data, "")
}

func (l *Logger) Warn(message, context string, data map[string]any) {
	l.Log(LevelWarn, message, context, data, "")
}

func (l *Logger) Info(message, context string, data map[string]any) {
	l.Log(LevelInfo, message, context, data, "")
}

func (l *Logger) Debug(message, context string, data map[string]any) {
	l.Log(LevelDebug, message, context, data, "")
}

// AuthEvent records an authentication lifecycle event. The email is never
// logged raw; it is reduced to a correlation hash.
func (l *Logger) AuthEvent(event, email string, success bool, details map[string]any) {
	level := LevelInfo
	if !success {
		level = LevelWarn
	}

	data := map[string]any{"success": success}
	if details != nil {
		data["details"] = sanitizeData(details)
	}
	l.Log(level, "Auth event: "+event, "session", data, email)
}

// Log records an entry at the given level. identity, when non-empty, is
// hashed before being stored.
func (l *Logger) Log(level Level, message, context string, data map[string]any, identity string) {
	if l == nil {
		return
	}
	defer func() {
		// A logging call must never take the caller down.
		_ = recover()
	}()

	entry := Entry{
		Timestamp: time.Now(),
		Level:     level,
		Message:   message,
		Context:   context,
		Data:      sanitizeData(data),
	}
	if identity != "" {
		entry.Identity = HashForLogging(identity)
	}

	l.mu.Lock()
	l.entries = append(l.entries, entry)
	if len(l.entries) > maxEntries {
		l.entries = l.entries[len(l.entries)-maxEntries:]
	}
	l.mu.Unlock()

	ev := l.zl.WithLevel(zerologLevel(level)).Str("context", context)
	if entry.Identity != "" {
		ev = ev.Str("identity", entry.Identity)
	}
	if entry.Data != nil {
		ev = ev.Interface("data", entry.Data)
	}
	ev.Msg(message)
}

// Recent returns up to n most recent entries, oldest first.
func (l *Logger) Recent(n int) []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()

	if n <= 0 || n > len(l.entries) {
		n = len(l.entries)
	}
	out := make([]Entry, n)
	copy(out, l.entries[len(l.entries)-n:])
	return out
}

// Clear drops all buffered entries.
func (l *Logger) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = nil
}

// sanitizeData redacts sensitive fields: anything resembling a credential
// is replaced with the redaction marker, email fields become correlation
// hashes, and long strings are truncated.
func sanitizeData(data map[string]any) map[string]any {
	if data == nil {
		return nil
	}

	sanitized := make(map[string]any, len(data))
	for key, value := range data {
		lowerKey := strings.ToLower(key)
		switch {
		case strings.Contains(lowerKey, "password"),
			strings.Contains(lowerKey, "token"),
			strings.Contains(lowerKey, "secret"),
			strings.Contains(lowerKey, "key"):
			sanitized[key] = RedactionMarker
		case strings.Contains(lowerKey, "email"):
			if s, ok := value.(string); ok {
				sanitized[key] = HashForLogging(s)
			} else {
				sanitized[key] = RedactionMarker
			}
		default:
			if s, ok := value.(string); ok && len(s) > maxValueLength {
				sanitized[key] = s[:maxValueLength] + "..."
			} else {
				sanitized[key] = value
			}
		}
	}
	return sanitized
}

// HashForLogging reduces a sensitive string to a short one-way hash usable
// for correlating log lines. Not cryptographic.
func HashForLogging(s string) string {
	var hash int32
	for _, r := range s {
		hash = hash*31 + int32(r)
	}
	v := int64(hash)
	if v < 0 {
		v = -v
	}
	return strconv.FormatInt(v, 16)
}

func zerologLevel(level Level) zerolog.Level {
	switch level {
	case LevelError:
		return zerolog.ErrorLevel
	case LevelWarn:
		return zerolog.WarnLevel
	case LevelDebug:
		return zerolog.DebugLevel
	default:
		return zerolog.InfoLevel
	}
}
