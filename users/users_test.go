package users_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/relnotes/go-auth-client/users"
)

func TestUserValid(t *testing.T) {
	user := &users.User{ID: "u-1", Email: "admin@example.com", Name: "Admin User"}
	require.True(t, user.Valid())

	require.False(t, (&users.User{Email: "a@b.c", Name: "A"}).Valid())
	require.False(t, (&users.User{ID: "u-1", Name: "A"}).Valid())
	require.False(t, (&users.User{ID: "u-1", Email: "a@b.c"}).Valid())
	require.False(t, (*users.User)(nil).Valid())
}

func TestUserHasRole(t *testing.T) {
	user := &users.User{Roles: []users.RoleType{users.RoleAdmin, users.RoleEditor}}
	require.True(t, user.HasRole(users.RoleAdmin))
	require.True(t, user.HasRole(users.RoleEditor))
	require.False(t, user.HasRole(users.RoleViewer))
}

func TestNormalizeIdentity(t *testing.T) {
	require.Equal(t, "admin@example.com", users.NormalizeIdentity("  Admin@Example.COM  "))
}

func TestUnmarshal(t *testing.T) {
	t.Run("valid record round trips", func(t *testing.T) {
		original := &users.User{
			ID:    "u-1",
			Email: "admin@example.com",
			Name:  "Admin User",
			Roles: []users.RoleType{users.RoleAdmin},
		}
		encoded, err := users.Marshal(original)
		require.NoError(t, err)
		require.Equal(t, original, users.Unmarshal(encoded))
	})

	t.Run("malformed input yields nil", func(t *testing.T) {
		require.Nil(t, users.Unmarshal(""))
		require.Nil(t, users.Unmarshal("{broken"))
		require.Nil(t, users.Unmarshal(`"just a string"`))
	})

	t.Run("shape violations yield nil", func(t *testing.T) {
		require.Nil(t, users.Unmarshal(`{"id":"u-1","email":"a@b.c"}`))
		require.Nil(t, users.Unmarshal(`{"email":"a@b.c","name":"A"}`))
	})
}
