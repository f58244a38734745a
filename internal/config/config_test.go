package config_test

import (
	"testing"
	"time"

	"github.com/jrsteele09/smartbill-auth/internal/config"
	"github.com/stretchr/testify/require"
)

func validVars() map[string]string {
	return map[string]string{
		"JWT_SECRET":           "access-secret-access-secret-access-secret",
		"JWT_REFRESH_SECRET":   "refresh-secret-refresh-secret-refresh-secret",
		"GOOGLE_CLIENT_ID":     "client-id.apps.googleusercontent.com",
		"GOOGLE_CLIENT_SECRET": "client-secret",
	}
}

func TestFromMap_Defaults(t *testing.T) {
	c, err := config.FromMap(validVars())
	require.NoError(t, err)

	require.Equal(t, ":8080", c.GetPort())
	require.True(t, c.IsDev())
	require.Equal(t, 15*time.Minute, c.GetDefaultAccessTokenExpiry())
	require.Equal(t, 7*24*time.Hour, c.GetDefaultRefreshTokenExpiry())
	require.Equal(t, config.TokenStorageCookie, c.GetTokenStorageMode())
	require.Equal(t, []string{"openid", "email", "profile"}, c.GetGoogleScopes())
	require.True(t, c.GetAllowedOrigins().IsAllowedOrigin("http://localhost:5173"))
	require.Equal(t, "smartbill-app", c.GetTokenIssuer())
}

func TestFromMap_Validation(t *testing.T) {
	t.Run("missing refresh secret", func(t *testing.T) {
		vars := validVars()
		delete(vars, "JWT_REFRESH_SECRET")
		_, err := config.FromMap(vars)
		require.Error(t, err)
		require.Contains(t, err.Error(), "JWT_REFRESH_SECRET")
	})

	t.Run("identical secrets", func(t *testing.T) {
		vars := validVars()
		vars["JWT_REFRESH_SECRET"] = vars["JWT_SECRET"]
		_, err := config.FromMap(vars)
		require.Error(t, err)
		require.Contains(t, err.Error(), "must differ")
	})

	t.Run("short secrets outside DEV", func(t *testing.T) {
		vars := validVars()
		vars["ENV"] = "production"
		vars["JWT_SECRET"] = "short"
		_, err := config.FromMap(vars)
		require.Error(t, err)
	})

	t.Run("unknown storage mode", func(t *testing.T) {
		vars := validVars()
		vars["TOKEN_STORAGE"] = "localStorage"
		_, err := config.FromMap(vars)
		require.Error(t, err)
		require.Contains(t, err.Error(), "TOKEN_STORAGE")
	})

	t.Run("bad trusted proxy", func(t *testing.T) {
		vars := validVars()
		vars["TRUSTED_PROXIES"] = "10.0.0.0/8,not-an-ip"
		_, err := config.FromMap(vars)
		require.Error(t, err)
		require.Contains(t, err.Error(), "TRUSTED_PROXIES")
	})

	t.Run("missing google client", func(t *testing.T) {
		vars := validVars()
		delete(vars, "GOOGLE_CLIENT_SECRET")
		_, err := config.FromMap(vars)
		require.Error(t, err)
	})
}

func TestCors_AllowedOrigins(t *testing.T) {
	vars := validVars()
	vars["FRONTEND_ORIGINS"] = "https://app.smartbill.io/, http://localhost:5173"
	c, err := config.FromMap(vars)
	require.NoError(t, err)

	origins := c.GetAllowedOrigins()
	require.True(t, origins.IsAllowedOrigin("https://app.smartbill.io"))
	require.True(t, origins.IsAllowedOrigin("http://localhost:5173"))
	require.False(t, origins.IsAllowedOrigin("https://evil.example"))
	require.Equal(t, "http://localhost:5173, https://app.smartbill.io", origins.String())
}

func TestSecurity_TrustedProxies(t *testing.T) {
	c, err := config.FromMap(validVars())
	require.NoError(t, err)
	require.Empty(t, c.GetTrustedProxies())

	vars := validVars()
	vars["TRUSTED_PROXIES"] = "10.1.2.3/8, 192.0.2.1,2001:db8::/32"
	c, err = config.FromMap(vars)
	require.NoError(t, err)

	proxies := c.GetTrustedProxies()
	require.Len(t, proxies, 3)
	require.Equal(t, "10.0.0.0/8", proxies[0].String())
	require.Equal(t, "192.0.2.1/32", proxies[1].String())
	require.Equal(t, "2001:db8::/32", proxies[2].String())
}
