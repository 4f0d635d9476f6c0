package validation_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/relnotes/go-auth-client/validation"
)

func TestValidateEmail(t *testing.T) {
	t.Run("valid addresses", func(t *testing.T) {
		for _, email := range []string{
			"admin@example.com",
			"john.doe+tag@sub.example.co.uk",
			"x@y.io",
		} {
			result := validation.ValidateEmail(email)
			require.True(t, result.IsValid, "expected %q to be valid", email)
			require.Empty(t, result.Errors)
		}
	})

	t.Run("empty", func(t *testing.T) {
		result := validation.ValidateEmail("")
		require.False(t, result.IsValid)
		require.NotEmpty(t, result.Errors)
	})

	t.Run("whitespace only", func(t *testing.T) {
		result := validation.ValidateEmail("   ")
		require.False(t, result.IsValid)
		require.NotEmpty(t, result.Errors)
	})

	t.Run("missing at sign", func(t *testing.T) {
		result := validation.ValidateEmail("not-an-email")
		require.False(t, result.IsValid)
		require.NotEmpty(t, result.Errors)
	})

	t.Run("too long", func(t *testing.T) {
		email := strings.Repeat("a", 250) + "@example.com"
		result := validation.ValidateEmail(email)
		require.False(t, result.IsValid)
		require.Contains(t, result.Errors, "Email is too long")
	})

	t.Run("surrounding whitespace is tolerated", func(t *testing.T) {
		result := validation.ValidateEmail("  admin@example.com  ")
		require.True(t, result.IsValid)
	})
}

func TestValidatePassword(t *testing.T) {
	t.Run("strong password", func(t *testing.T) {
		result := validation.ValidatePassword("Str0ng&Uncommon")
		require.True(t, result.IsValid)
	})

	t.Run("too short", func(t *testing.T) {
		for _, password := range []string{"", "a", "1234567"} {
			result := validation.ValidatePassword(password)
			require.False(t, result.IsValid, "expected %q to be rejected", password)
		}
	})

	t.Run("too long", func(t *testing.T) {
		result := validation.ValidatePassword(strings.Repeat("xY7!", 40))
		require.False(t, result.IsValid)
		require.Contains(t, result.Errors, "Password is too long")
	})

	t.Run("weak patterns", func(t *testing.T) {
		for _, password := range []string{
			"aaaaaaaa",  // single repeated character
			"abcdefgh",  // sequential letters
			"12345678",  // sequential digits
			"password1", // common password prefix
			"QWERTYuiop",
			"root4ever",
		} {
			result := validation.ValidatePassword(password)
			require.False(t, result.IsValid, "expected %q to be rejected as weak", password)
			require.Contains(t, result.Errors, "Password is too weak. Please choose a stronger password")
		}
	})
}

func TestSanitizeInput(t *testing.T) {
	t.Run("strips markup characters", func(t *testing.T) {
		require.Equal(t, "scriptalert(1)/script", validation.SanitizeInput(`<script>alert(1)</script>`))
	})

	t.Run("trims whitespace", func(t *testing.T) {
		require.Equal(t, "admin@example.com", validation.SanitizeInput("  admin@example.com  "))
	})

	t.Run("truncates long input", func(t *testing.T) {
		out := validation.SanitizeInput(strings.Repeat("a", 600))
		require.Len(t, out, validation.MaxInputLength)
	})
}

func TestIsSafeString(t *testing.T) {
	require.True(t, validation.IsSafeString("Hello, release 1.2.3: notes!"))
	require.False(t, validation.IsSafeString(""))
	require.False(t, validation.IsSafeString("<img src=x>"))
}

func TestValidateTokenFormat(t *testing.T) {
	require.True(t, validation.ValidateTokenFormat("aaa.bbb.ccc"))
	require.False(t, validation.ValidateTokenFormat(""))
	require.False(t, validation.ValidateTokenFormat("aaa.bbb"))
	require.False(t, validation.ValidateTokenFormat("aaa..ccc"))
	require.False(t, validation.ValidateTokenFormat("aaa.bbb.ccc.ddd"))
}
