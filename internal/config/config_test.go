package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/relnotes/go-auth-client/attempts"
	"github.com/relnotes/go-auth-client/internal/config"
	"github.com/relnotes/go-auth-client/validation"
)

func TestSecurityConfig(t *testing.T) {
	c := config.New()

	t.Run("defaults match the tracker's", func(t *testing.T) {
		t.Setenv("LOGIN_ATTEMPT_WINDOW", "")
		require.Equal(t, attempts.DefaultMaxAttempts, c.GetMaxLoginAttempts())
		require.Equal(t, attempts.DefaultWindow, c.GetLoginAttemptWindow())
	})

	t.Run("attempt window is env-overridable", func(t *testing.T) {
		t.Setenv("LOGIN_ATTEMPT_WINDOW", "1m")
		require.Equal(t, time.Minute, c.GetLoginAttemptWindow())
	})

	t.Run("unparseable window falls back to the default", func(t *testing.T) {
		t.Setenv("LOGIN_ATTEMPT_WINDOW", "soon")
		require.Equal(t, attempts.DefaultWindow, c.GetLoginAttemptWindow())
	})

	t.Run("password bounds match the validator's", func(t *testing.T) {
		require.Equal(t, validation.MinPasswordLength, c.GetPasswordMinLength())
		require.Equal(t, validation.MaxPasswordLength, c.GetPasswordMaxLength())
	})
}

func TestTokenConfig(t *testing.T) {
	c := config.New()

	t.Setenv("ACCESS_TOKEN_EXPIRY", "")
	t.Setenv("REFRESH_TOKEN_EXPIRY", "")
	t.Setenv("REFRESH_LEAD_TIME", "")
	require.Equal(t, 15*time.Minute, c.GetAccessTokenExpiry())
	require.Equal(t, 7*24*time.Hour, c.GetRefreshTokenExpiry())
	require.Equal(t, 5*time.Minute, c.GetRefreshLeadTime())

	t.Run("refresh lead is env-overridable", func(t *testing.T) {
		t.Setenv("REFRESH_LEAD_TIME", "90s")
		require.Equal(t, 90*time.Second, c.GetRefreshLeadTime())
	})
}

func TestEnvVars(t *testing.T) {
	c := config.New()

	t.Run("port is colon-prefixed", func(t *testing.T) {
		t.Setenv("PORT", "")
		require.Equal(t, ":8080", c.GetPort())

		t.Setenv("PORT", "9000")
		require.Equal(t, ":9000", c.GetPort())
	})

	t.Run("environment defaults to DEV", func(t *testing.T) {
		t.Setenv("ENV", "")
		require.Equal(t, "DEV", c.GetEnv())

		t.Setenv("ENV", "PROD")
		require.Equal(t, "PROD", c.GetEnv())
	})

	t.Run("database url defaults to empty", func(t *testing.T) {
		t.Setenv("DATABASE_URL", "")
		require.Empty(t, c.GetDatabaseURL())

		t.Setenv("DATABASE_URL", "postgres://localhost/auth")
		require.Equal(t, "postgres://localhost/auth", c.GetDatabaseURL())
	})
}
