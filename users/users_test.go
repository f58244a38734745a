package users_test

import (
	"testing"
	"time"

	autherrors "github.com/jrsteele09/smartbill-auth/internal/errors"
	"github.com/jrsteele09/smartbill-auth/users"
	"github.com/stretchr/testify/require"
)

func TestParseRole(t *testing.T) {
	cases := map[string]users.Role{
		"employee":       users.RoleEmployee,
		"Employee":       users.RoleEmployee,
		"business_owner": users.RoleBusinessOwner,
		"BusinessOwner":  users.RoleBusinessOwner,
	}
	for input, expected := range cases {
		role, err := users.ParseRole(input)
		require.NoError(t, err, input)
		require.Equal(t, expected, role)
		require.True(t, role.IsSet())
	}

	for _, input := range []string{"", "0", "1", "admin"} {
		_, err := users.ParseRole(input)
		require.ErrorIs(t, err, autherrors.ErrInvalidRole, input)
	}
}

func TestUser_ApplyProfile(t *testing.T) {
	u := &users.User{ID: "u1", Email: "a@b.c", Name: "Old", Role: users.RoleEmployee}
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	u.ApplyProfile("New Name", "https://pic", true, now)

	require.Equal(t, "New Name", u.Name)
	require.Equal(t, "https://pic", u.Picture)
	require.True(t, u.EmailVerified)
	require.Equal(t, now, u.LastLogin)
	require.Equal(t, users.RoleEmployee, u.Role)
}
