package backend_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/relnotes/go-auth-client/backend"
	"github.com/relnotes/go-auth-client/session"
	"github.com/relnotes/go-auth-client/users"
	"github.com/relnotes/go-auth-client/validation"
)

func TestStubLogin(t *testing.T) {
	ctx := context.Background()

	t.Run("seeded admin can log in", func(t *testing.T) {
		stub := backend.NewStub()

		response, err := stub.Login(ctx, backend.StubAdminEmail, backend.StubAdminPassword)
		require.NoError(t, err)
		require.NotNil(t, response.User)
		require.Equal(t, "Admin User", response.User.Name)
		require.Equal(t, backend.StubAdminEmail, response.User.Email)
		require.True(t, response.User.HasRole(users.RoleAdmin))
		require.True(t, validation.ValidateTokenFormat(response.AccessToken))
		require.NotEmpty(t, response.RefreshToken)
		require.Less(t, response.ExpiresAt, response.RefreshExpiresAt)
	})

	t.Run("email lookup is case insensitive", func(t *testing.T) {
		stub := backend.NewStub()
		_, err := stub.Login(ctx, "Admin@Example.COM", backend.StubAdminPassword)
		require.NoError(t, err)
	})

	t.Run("wrong password and unknown user are indistinguishable", func(t *testing.T) {
		stub := backend.NewStub()

		_, wrongPassword := stub.Login(ctx, backend.StubAdminEmail, "not-the-password")
		_, unknownUser := stub.Login(ctx, "nobody@example.com", backend.StubAdminPassword)

		require.Equal(t, session.CodeInvalidCredentials, session.CodeOf(wrongPassword))
		require.Equal(t, session.CodeInvalidCredentials, session.CodeOf(unknownUser))
		require.Equal(t, wrongPassword.Error(), unknownUser.Error())
	})

	t.Run("cancelled context aborts", func(t *testing.T) {
		stub := backend.NewStub()
		cancelled, cancel := context.WithCancel(ctx)
		cancel()

		_, err := stub.Login(cancelled, backend.StubAdminEmail, backend.StubAdminPassword)
		require.ErrorIs(t, err, context.Canceled)
	})
}

func TestStubAddUser(t *testing.T) {
	ctx := context.Background()
	stub := backend.NewStub()

	require.NoError(t, stub.AddUser("editor@example.com", "Ed1torPass!", "Ed Itor", []users.RoleType{users.RoleEditor}))

	response, err := stub.Login(ctx, "editor@example.com", "Ed1torPass!")
	require.NoError(t, err)
	require.Equal(t, "Ed Itor", response.User.Name)
	require.True(t, response.User.HasRole(users.RoleEditor))
	require.False(t, response.User.HasRole(users.RoleAdmin))
}

func TestStubRefresh(t *testing.T) {
	ctx := context.Background()

	t.Run("rotates the refresh token", func(t *testing.T) {
		stub := backend.NewStub()
		login, err := stub.Login(ctx, backend.StubAdminEmail, backend.StubAdminPassword)
		require.NoError(t, err)

		refreshed, err := stub.Refresh(ctx, login.RefreshToken)
		require.NoError(t, err)
		require.NotEqual(t, login.RefreshToken, refreshed.RefreshToken)
		require.Equal(t, "Admin User", refreshed.User.Name)

		// The rotated-out token is single use.
		_, err = stub.Refresh(ctx, login.RefreshToken)
		require.Equal(t, session.CodeInvalidRefreshToken, session.CodeOf(err))
	})

	t.Run("unknown token is rejected", func(t *testing.T) {
		stub := backend.NewStub()
		_, err := stub.Refresh(ctx, "never-issued")
		require.Equal(t, session.CodeInvalidRefreshToken, session.CodeOf(err))
	})
}
