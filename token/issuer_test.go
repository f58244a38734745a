package token_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jrsteele09/smartbill-auth/internal/errors"
	"github.com/jrsteele09/smartbill-auth/token"
	"github.com/jrsteele09/smartbill-auth/users"
	"github.com/stretchr/testify/require"
)

const (
	accessSecret  = "access-secret-0123456789-0123456789"
	refreshSecret = "refresh-secret-0123456789-0123456789"
	issuer        = "smartbill-app"
	audience      = "smartbill-users"
)

type clock struct{ now time.Time }

func (c *clock) Now() time.Time { return c.now }

func newTestIssuer(t *testing.T, c *clock) *token.Issuer {
	t.Helper()
	i, err := token.NewIssuerFromSecrets(accessSecret, refreshSecret,
		token.WithIssuer(issuer),
		token.WithAudience(audience),
		token.WithTokenExpiry(15*time.Minute, 7*24*time.Hour),
		token.WithNowFunc(c.Now),
	)
	require.NoError(t, err)
	return i
}

func testUser() *users.User {
	return &users.User{ID: "user-1", Email: "owner@example.com", Role: users.RoleBusinessOwner}
}

func TestIssuer_AccessTokenRoundTrip(t *testing.T) {
	c := &clock{now: time.Now()}
	i := newTestIssuer(t, c)

	raw, minted, err := i.CreateAccessToken(testUser())
	require.NoError(t, err)
	require.NotEmpty(t, minted.ID)

	claims, err := i.ParseAccessToken(raw)
	require.NoError(t, err)
	require.Equal(t, "user-1", claims.Subject)
	require.Equal(t, "owner@example.com", claims.Email)
	require.Equal(t, "business_owner", claims.Role)
	require.Equal(t, token.TypeAccess, claims.Type)
	require.Equal(t, minted.ID, claims.ID)
	require.Equal(t, issuer, claims.Issuer)
	require.Equal(t, jwt.ClaimStrings{audience}, claims.Audience)
	require.WithinDuration(t, c.now.Add(15*time.Minute), claims.ExpiresAt.Time, time.Second)
}

func TestIssuer_RefreshTokenRoundTrip(t *testing.T) {
	c := &clock{now: time.Now()}
	i := newTestIssuer(t, c)

	raw, minted, err := i.CreateRefreshToken("user-1", "")
	require.NoError(t, err)
	require.NotEmpty(t, minted.FamilyID)

	claims, err := i.ParseRefreshToken(raw)
	require.NoError(t, err)
	require.Equal(t, minted.ID, claims.ID)
	require.Equal(t, minted.FamilyID, claims.FamilyID)
	require.Equal(t, token.TypeRefresh, claims.Type)

	_, next, err := i.CreateRefreshToken("user-1", minted.FamilyID)
	require.NoError(t, err)
	require.Equal(t, minted.FamilyID, next.FamilyID)
	require.NotEqual(t, minted.ID, next.ID)
}

func TestIssuer_TokenSeparation(t *testing.T) {
	c := &clock{now: time.Now()}
	i := newTestIssuer(t, c)

	access, _, err := i.CreateAccessToken(testUser())
	require.NoError(t, err)
	refreshTok, _, err := i.CreateRefreshToken("user-1", "")
	require.NoError(t, err)

	t.Run("refresh token is not an access token", func(t *testing.T) {
		_, err := i.ParseAccessToken(refreshTok)
		require.ErrorIs(t, err, errors.ErrInvalidToken)
	})

	t.Run("access token is not a refresh token", func(t *testing.T) {
		_, err := i.ParseRefreshToken(access)
		require.ErrorIs(t, err, errors.ErrRefreshExpiredOrInvalid)
	})

	t.Run("same secret still yields distinct keys", func(t *testing.T) {
		same, err := token.NewIssuerFromSecrets(accessSecret, accessSecret, token.WithNowFunc(c.Now))
		require.NoError(t, err)
		refreshTok, _, err := same.CreateRefreshToken("user-1", "")
		require.NoError(t, err)
		_, err = same.ParseAccessToken(refreshTok)
		require.ErrorIs(t, err, errors.ErrInvalidToken)
	})
}

func TestIssuer_Expiry(t *testing.T) {
	c := &clock{now: time.Now()}
	i := newTestIssuer(t, c)

	access, _, err := i.CreateAccessToken(testUser())
	require.NoError(t, err)
	refreshTok, _, err := i.CreateRefreshToken("user-1", "")
	require.NoError(t, err)

	c.now = c.now.Add(16 * time.Minute)
	_, err = i.ParseAccessToken(access)
	require.ErrorIs(t, err, errors.ErrInvalidToken)
	_, err = i.ParseRefreshToken(refreshTok)
	require.NoError(t, err)

	c.now = c.now.Add(7 * 24 * time.Hour)
	_, err = i.ParseRefreshToken(refreshTok)
	require.ErrorIs(t, err, errors.ErrRefreshExpiredOrInvalid)
}

func TestIssuer_RejectsForeignTokens(t *testing.T) {
	c := &clock{now: time.Now()}
	i := newTestIssuer(t, c)

	other, err := token.NewIssuerFromSecrets(accessSecret, refreshSecret,
		token.WithIssuer("someone-else"),
		token.WithAudience(audience),
		token.WithNowFunc(c.Now),
	)
	require.NoError(t, err)
	foreign, _, err := other.CreateAccessToken(testUser())
	require.NoError(t, err)

	tests := map[string]string{
		"empty":          "",
		"garbage":        "not-a-jwt",
		"wrong issuer":   foreign,
		"alg none token": unsignedToken(t),
	}
	for name, raw := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := i.ParseAccessToken(raw)
			require.ErrorIs(t, err, errors.ErrInvalidToken)
		})
	}
}

func TestNewIssuer_Validation(t *testing.T) {
	signer, err := token.NewHMACSigner(accessSecret, token.PurposeAccess)
	require.NoError(t, err)

	_, err = token.NewIssuer(signer, signer)
	require.Error(t, err)
	_, err = token.NewIssuer(signer, nil)
	require.Error(t, err)
	_, err = token.NewHMACSigner("", token.PurposeAccess)
	require.Error(t, err)
}

func unsignedToken(t *testing.T) string {
	t.Helper()
	claims := token.AccessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			ID:        "jti",
			Issuer:    issuer,
			Audience:  jwt.ClaimStrings{audience},
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		Type: token.TypeAccess,
	}
	raw, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	return raw
}
