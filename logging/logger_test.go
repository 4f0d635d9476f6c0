package logging_test

import (
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/relnotes/go-auth-client/logging"
)

func TestLoggerRedaction(t *testing.T) {
	t.Run("credential fields are redacted", func(t *testing.T) {
		logger := logging.Nop()
		logger.Info("login", "session", map[string]any{
			"password":     "hunter2",
			"accessToken":  "aaa.bbb.ccc",
			"clientSecret": "s3cret",
			"apiKey":       "k-123",
			"flow":         "password",
		})

		entries := logger.Recent(1)
		require.Len(t, entries, 1)
		data := entries[0].Data
		require.Equal(t, logging.RedactionMarker, data["password"])
		require.Equal(t, logging.RedactionMarker, data["accessToken"])
		require.Equal(t, logging.RedactionMarker, data["clientSecret"])
		require.Equal(t, logging.RedactionMarker, data["apiKey"])
		require.Equal(t, "password", data["flow"])
	})

	t.Run("email fields become correlation hashes", func(t *testing.T) {
		logger := logging.Nop()
		logger.Info("login", "session", map[string]any{"email": "admin@example.com"})

		entries := logger.Recent(1)
		hashed, ok := entries[0].Data["email"].(string)
		require.True(t, ok)
		require.NotEmpty(t, hashed)
		require.NotContains(t, hashed, "@")
		require.Equal(t, logging.HashForLogging("admin@example.com"), hashed)
	})

	t.Run("non-string email values are redacted", func(t *testing.T) {
		logger := logging.Nop()
		logger.Info("login", "session", map[string]any{"email": 42})

		entries := logger.Recent(1)
		require.Equal(t, logging.RedactionMarker, entries[0].Data["email"])
	})

	t.Run("long strings are truncated", func(t *testing.T) {
		logger := logging.Nop()
		logger.Info("response", "session", map[string]any{"body": strings.Repeat("a", 600)})

		entries := logger.Recent(1)
		body, ok := entries[0].Data["body"].(string)
		require.True(t, ok)
		require.Len(t, body, 503)
		require.True(t, strings.HasSuffix(body, "..."))
	})
}

func TestLoggerAuthEvent(t *testing.T) {
	t.Run("failure logs at warn with hashed identity", func(t *testing.T) {
		logger := logging.Nop()
		logger.AuthEvent("login_failed", "admin@example.com", false, map[string]any{"reason": "bad credentials"})

		entries := logger.Recent(1)
		require.Len(t, entries, 1)
		entry := entries[0]
		require.Equal(t, logging.LevelWarn, entry.Level)
		require.Equal(t, "Auth event: login_failed", entry.Message)
		require.Equal(t, "session", entry.Context)
		require.Equal(t, logging.HashForLogging("admin@example.com"), entry.Identity)
		require.Equal(t, false, entry.Data["success"])
	})

	t.Run("success logs at info", func(t *testing.T) {
		logger := logging.Nop()
		logger.AuthEvent("login_success", "admin@example.com", true, nil)

		entries := logger.Recent(1)
		require.Equal(t, logging.LevelInfo, entries[0].Level)
		require.Equal(t, true, entries[0].Data["success"])
	})
}

func TestLoggerRingBuffer(t *testing.T) {
	logger := logging.Nop()
	for i := 0; i < 1005; i++ {
		logger.Debug("entry "+strconv.Itoa(i), "test", nil)
	}

	entries := logger.Recent(0)
	require.Len(t, entries, 1000)
	require.Equal(t, "entry 5", entries[0].Message)
	require.Equal(t, "entry 1004", entries[len(entries)-1].Message)
}

func TestLoggerRecent(t *testing.T) {
	logger := logging.Nop()
	logger.Info("first", "test", nil)
	logger.Info("second", "test", nil)
	logger.Info("third", "test", nil)

	t.Run("limits and orders oldest first", func(t *testing.T) {
		entries := logger.Recent(2)
		require.Len(t, entries, 2)
		require.Equal(t, "second", entries[0].Message)
		require.Equal(t, "third", entries[1].Message)
	})

	t.Run("clear drops everything", func(t *testing.T) {
		logger.Clear()
		require.Empty(t, logger.Recent(0))
	})
}

func TestLoggerNilReceiver(t *testing.T) {
	var logger *logging.Logger
	require.NotPanics(t, func() {
		logger.Log(logging.LevelInfo, "message", "test", nil, "")
	})
}

func TestHashForLogging(t *testing.T) {
	a := logging.HashForLogging("admin@example.com")
	b := logging.HashForLogging("admin@example.com")
	c := logging.HashForLogging("other@example.com")

	require.Equal(t, a, b)
	require.NotEqual(t, a, c)
	require.NotEmpty(t, a)
}
