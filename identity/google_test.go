package identity_test

import (
	"context"
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/golang-jwt/jwt/v5"
	"github.com/jrsteele09/smartbill-auth/identity"
	"github.com/jrsteele09/smartbill-auth/internal/errors"
	"github.com/stretchr/testify/require"
)

const (
	testClientID    = "client-123"
	testRedirectURI = "http://localhost:5173/login"
	testVerifier    = "dBjftJeZ4CVP-mB92K27uhbUJU1p1r_wW1gFWFOEjXk"
)

type fakeGoogle struct {
	server        *httptest.Server
	key           *rsa.PrivateKey
	idSubject     string
	tokenStatus   int
	tokenRequests atomic.Int32
	lastForm      chan map[string]string
}

func newFakeGoogle(t *testing.T) *fakeGoogle {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	g := &fakeGoogle{key: key, idSubject: "google-sub-1", tokenStatus: http.StatusOK, lastForm: make(chan map[string]string, 10)}
	mux := http.NewServeMux()
	mux.HandleFunc("POST /token", g.handleToken)
	mux.HandleFunc("GET /userinfo", g.handleUserInfo)
	g.server = httptest.NewServer(mux)
	t.Cleanup(g.server.Close)
	return g
}

func (g *fakeGoogle) handleToken(w http.ResponseWriter, r *http.Request) {
	g.tokenRequests.Add(1)
	_ = r.ParseForm()
	g.lastForm <- map[string]string{
		"code":          r.PostForm.Get("code"),
		"code_verifier": r.PostForm.Get("code_verifier"),
		"redirect_uri":  r.PostForm.Get("redirect_uri"),
		"grant_type":    r.PostForm.Get("grant_type"),
	}

	w.Header().Set("Content-Type", "application/json")
	if g.tokenStatus != http.StatusOK {
		w.WriteHeader(g.tokenStatus)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"error":             "invalid_grant",
			"error_description": "Bad Request",
		})
		return
	}

	idToken, _ := jwt.NewWithClaims(jwt.SigningMethodRS256, jwt.MapClaims{
		"iss": g.server.URL,
		"aud": testClientID,
		"sub": g.idSubject,
		"iat": time.Now().Unix(),
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString(g.key)

	_ = json.NewEncoder(w).Encode(map[string]any{
		"access_token": "upstream-access",
		"token_type":   "Bearer",
		"expires_in":   3600,
		"id_token":     idToken,
	})
}

func (g *fakeGoogle) handleUserInfo(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("Authorization") != "Bearer upstream-access" {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"sub":            "google-sub-1",
		"email":          "owner@example.com",
		"email_verified": true,
		"name":           "Business Owner",
		"picture":        "https://example.com/p.png",
	})
}

func (g *fakeGoogle) provider(t *testing.T) *identity.Google {
	t.Helper()
	p, err := identity.NewGoogle(context.Background(), identity.GoogleConfig{
		ClientID:     testClientID,
		ClientSecret: "secret",
		Issuer:       g.server.URL,
		AuthURL:      g.server.URL + "/auth",
		TokenURL:     g.server.URL + "/token",
		UserInfoURL:  g.server.URL + "/userinfo",
		JWKSURL:      g.server.URL + "/certs",
	},
		identity.WithHTTPClient(g.server.Client()),
		identity.WithKeySet(&oidc.StaticKeySet{PublicKeys: []crypto.PublicKey{&g.key.PublicKey}}),
	)
	require.NoError(t, err)
	return p
}

func TestGoogle_Exchange(t *testing.T) {
	g := newFakeGoogle(t)
	p := g.provider(t)

	profile, err := p.Exchange(context.Background(), "auth-code", testVerifier, testRedirectURI)
	require.NoError(t, err)
	require.Equal(t, "google-sub-1", profile.Subject)
	require.Equal(t, "owner@example.com", profile.Email)
	require.True(t, profile.EmailVerified)
	require.Equal(t, "Business Owner", profile.Name)
	require.Equal(t, "https://example.com/p.png", profile.Picture)

	form := <-g.lastForm
	require.Equal(t, "auth-code", form["code"])
	require.Equal(t, testVerifier, form["code_verifier"])
	require.Equal(t, testRedirectURI, form["redirect_uri"])
	require.Equal(t, "authorization_code", form["grant_type"])
}

func TestGoogle_ExchangeRejected(t *testing.T) {
	g := newFakeGoogle(t)
	g.tokenStatus = http.StatusBadRequest
	p := g.provider(t)

	_, err := p.Exchange(context.Background(), "used-code", testVerifier, testRedirectURI)
	require.ErrorIs(t, err, errors.ErrUpstreamRejected)

	var ue *errors.UpstreamError
	require.True(t, errors.As(err, &ue))
	require.Equal(t, "invalid_grant", ue.Code)
	require.Equal(t, "Bad Request", ue.Description)
	require.Equal(t, http.StatusBadRequest, ue.StatusCode)
}

func TestGoogle_SubjectMismatch(t *testing.T) {
	g := newFakeGoogle(t)
	g.idSubject = "someone-else"
	p := g.provider(t)

	_, err := p.Exchange(context.Background(), "auth-code", testVerifier, testRedirectURI)
	require.ErrorIs(t, err, errors.ErrUpstreamRejected)
}

func TestGoogle_NetworkError(t *testing.T) {
	g := newFakeGoogle(t)
	p := g.provider(t)
	g.server.Close()

	_, err := p.Exchange(context.Background(), "auth-code", testVerifier, testRedirectURI)
	require.ErrorIs(t, err, errors.ErrNetwork)
}

func TestNewGoogle_Validation(t *testing.T) {
	_, err := identity.NewGoogle(context.Background(), identity.GoogleConfig{TokenURL: "x", UserInfoURL: "y"})
	require.Error(t, err)
}
