package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/jrsteele09/smartbill-auth/internal/errors"
	"github.com/jrsteele09/smartbill-auth/storage/sqlite"
	"github.com/jrsteele09/smartbill-auth/token/refresh"
	"github.com/jrsteele09/smartbill-auth/users"
	"github.com/stretchr/testify/require"
)

func openStore(t *testing.T) *sqlite.Store {
	t.Helper()
	store, err := sqlite.Open(filepath.Join(t.TempDir(), "data", "smartbill.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, store.Close())
	})
	return store
}

func TestOpenRequiresPath(t *testing.T) {
	_, err := sqlite.Open(" ")
	require.Error(t, err)
}

func TestOpenIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "smartbill.db")
	first, err := sqlite.Open(path)
	require.NoError(t, err)
	require.NoError(t, first.Close())

	second, err := sqlite.Open(path)
	require.NoError(t, err)
	require.NoError(t, second.Ping(context.Background()))
	require.NoError(t, second.Close())
}

func TestStore_Users(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)
	now := time.Now().UTC().Truncate(time.Millisecond)

	u := &users.User{
		Subject:       "google-sub-1",
		Email:         "owner@example.com",
		Name:          "Owner",
		EmailVerified: true,
		CreatedAt:     now,
		LastLogin:     now,
	}
	require.NoError(t, store.Upsert(ctx, u))
	require.NotEmpty(t, u.ID)

	got, err := store.GetBySubject(ctx, "google-sub-1")
	require.NoError(t, err)
	require.Equal(t, u.ID, got.ID)
	require.Equal(t, "owner@example.com", got.Email)
	require.True(t, got.EmailVerified)
	require.Equal(t, users.RoleUnset, got.Role)
	require.True(t, now.Equal(got.CreatedAt))

	t.Run("update keeps created_at", func(t *testing.T) {
		later := now.Add(time.Hour)
		got.ApplyProfile("Renamed", "https://example.com/a.png", true, later)
		got.CreatedAt = later
		require.NoError(t, store.Upsert(ctx, got))

		again, err := store.GetByID(ctx, u.ID)
		require.NoError(t, err)
		require.Equal(t, "Renamed", again.Name)
		require.True(t, later.Equal(again.LastLogin))
		require.True(t, now.Equal(again.CreatedAt))
	})

	t.Run("role and company", func(t *testing.T) {
		require.NoError(t, store.SetRole(ctx, u.ID, users.RoleBusinessOwner))
		require.NoError(t, store.SetCompany(ctx, u.ID, "company-9"))

		again, err := store.GetByID(ctx, u.ID)
		require.NoError(t, err)
		require.Equal(t, users.RoleBusinessOwner, again.Role)
		require.Equal(t, "company-9", again.CompanyID)
	})

	t.Run("unknown user", func(t *testing.T) {
		_, err := store.GetByID(ctx, "missing")
		require.ErrorIs(t, err, errors.ErrUserNotFound)
		require.ErrorIs(t, store.SetRole(ctx, "missing", users.RoleEmployee), errors.ErrUserNotFound)
	})
}

func TestStore_RefreshTokens(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)
	now := time.Now().UTC().Truncate(time.Millisecond)

	first := &refresh.StoredRefreshToken{
		ID: "rt-1", FamilyID: "fam-1", UserID: "user-1", TokenHash: "hash-1",
		IssuedAt: now, ExpiresAt: now.Add(time.Hour),
	}
	require.NoError(t, store.Insert(ctx, first))

	got, err := store.Get(ctx, "rt-1")
	require.NoError(t, err)
	require.Equal(t, "hash-1", got.TokenHash)
	require.True(t, got.RevokedAt.IsZero())
	require.True(t, got.Active(now))

	next := &refresh.StoredRefreshToken{
		ID: "rt-2", FamilyID: "fam-1", UserID: "user-1", TokenHash: "hash-2",
		IssuedAt: now, ExpiresAt: now.Add(time.Hour),
	}
	require.NoError(t, store.Rotate(ctx, "rt-1", next, now))

	old, err := store.Get(ctx, "rt-1")
	require.NoError(t, err)
	require.False(t, old.RevokedAt.IsZero())
	require.Equal(t, "rt-2", old.ReplacedBy)

	t.Run("second rotation of the same token fails", func(t *testing.T) {
		other := &refresh.StoredRefreshToken{
			ID: "rt-3", FamilyID: "fam-1", UserID: "user-1", TokenHash: "hash-3",
			IssuedAt: now, ExpiresAt: now.Add(time.Hour),
		}
		require.ErrorIs(t, store.Rotate(ctx, "rt-1", other, now), errors.ErrTokenRevoked)
		_, err := store.Get(ctx, "rt-3")
		require.ErrorIs(t, err, errors.ErrNotFound)
	})

	t.Run("revoke family", func(t *testing.T) {
		require.NoError(t, store.RevokeFamily(ctx, "fam-1", now))
		successor, err := store.Get(ctx, "rt-2")
		require.NoError(t, err)
		require.False(t, successor.Active(now))
	})

	t.Run("delete expired", func(t *testing.T) {
		n, err := store.DeleteExpired(ctx, now.Add(2*time.Hour))
		require.NoError(t, err)
		require.Equal(t, 2, n)
	})
}
