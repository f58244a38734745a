package identity

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/jrsteele09/smartbill-auth/internal/errors"
	"golang.org/x/oauth2"
)

// GoogleConfig holds the Google endpoints. They are configured explicitly so no
// discovery request is made at startup.
type GoogleConfig struct {
	ClientID     string
	ClientSecret string
	Issuer       string
	AuthURL      string
	TokenURL     string
	UserInfoURL  string
	JWKSURL      string
	Scopes       []string
}

// Google implements Provider for Google's OpenID Connect endpoints.
type Google struct {
	oauth2Config oauth2.Config
	provider     *oidc.Provider
	verifier     *oidc.IDTokenVerifier
	httpClient   *http.Client
}

type GoogleOption func(*googleOptions)

type googleOptions struct {
	httpClient *http.Client
	keySet     oidc.KeySet
	nowFunc    func() time.Time
}

// WithHTTPClient sets the client used for token, userinfo and JWKS requests
func WithHTTPClient(client *http.Client) GoogleOption {
	return func(o *googleOptions) {
		o.httpClient = client
	}
}

// WithKeySet replaces the remote JWKS used to verify id tokens
func WithKeySet(keySet oidc.KeySet) GoogleOption {
	return func(o *googleOptions) {
		o.keySet = keySet
	}
}

func WithNowFunc(now func() time.Time) GoogleOption {
	return func(o *googleOptions) {
		o.nowFunc = now
	}
}

func NewGoogle(ctx context.Context, cfg GoogleConfig, opts ...GoogleOption) (*Google, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, fmt.Errorf("[identity NewGoogle] client id and secret are required")
	}
	if cfg.TokenURL == "" || cfg.UserInfoURL == "" {
		return nil, fmt.Errorf("[identity NewGoogle] token and userinfo urls are required")
	}

	o := googleOptions{httpClient: &http.Client{Timeout: 10 * time.Second}}
	for _, opt := range opts {
		opt(&o)
	}

	ctx = oidc.ClientContext(ctx, o.httpClient)
	provider := (&oidc.ProviderConfig{
		IssuerURL:   cfg.Issuer,
		AuthURL:     cfg.AuthURL,
		TokenURL:    cfg.TokenURL,
		UserInfoURL: cfg.UserInfoURL,
		JWKSURL:     cfg.JWKSURL,
		Algorithms:  []string{oidc.RS256},
	}).NewProvider(ctx)

	verifierConfig := &oidc.Config{ClientID: cfg.ClientID, Now: o.nowFunc}
	verifier := provider.Verifier(verifierConfig)
	if o.keySet != nil {
		verifier = oidc.NewVerifier(cfg.Issuer, o.keySet, verifierConfig)
	}

	scopes := cfg.Scopes
	if len(scopes) == 0 {
		scopes = []string{oidc.ScopeOpenID, "email", "profile"}
	}

	return &Google{
		oauth2Config: oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Endpoint:     provider.Endpoint(),
			Scopes:       scopes,
		},
		provider:   provider,
		verifier:   verifier,
		httpClient: o.httpClient,
	}, nil
}

// Exchange redeems code with the PKCE verifier, verifies the id token when one is
// returned and reads the profile from the userinfo endpoint. Upstream tokens are not
// kept.
func (g *Google) Exchange(ctx context.Context, code, verifier, redirectURI string) (*Profile, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, g.httpClient)
	ctx = oidc.ClientContext(ctx, g.httpClient)

	cfg := g.oauth2Config
	cfg.RedirectURL = redirectURI

	tok, err := cfg.Exchange(ctx, code, oauth2.VerifierOption(verifier))
	if err != nil {
		return nil, exchangeError(err)
	}

	idSubject := ""
	if rawIDToken, ok := tok.Extra("id_token").(string); ok && rawIDToken != "" {
		idToken, err := g.verifier.Verify(ctx, rawIDToken)
		if err != nil {
			return nil, fmt.Errorf("[Google Exchange] %w", &errors.UpstreamError{
				Code:        "invalid_id_token",
				Description: err.Error(),
			})
		}
		idSubject = idToken.Subject
	}

	info, err := g.provider.UserInfo(ctx, oauth2.StaticTokenSource(tok))
	if err != nil {
		return nil, fmt.Errorf("[Google Exchange] userinfo: %w", &errors.UpstreamError{
			Code:        "userinfo_failed",
			Description: err.Error(),
		})
	}

	var extra struct {
		Name    string `json:"name"`
		Picture string `json:"picture"`
	}
	if err := info.Claims(&extra); err != nil {
		return nil, fmt.Errorf("[Google Exchange] userinfo claims: %w", err)
	}

	if info.Subject == "" || info.Email == "" {
		return nil, fmt.Errorf("[Google Exchange] %w", &errors.UpstreamError{
			Code:        "incomplete_profile",
			Description: "userinfo is missing subject or email",
		})
	}
	if idSubject != "" && idSubject != info.Subject {
		return nil, fmt.Errorf("[Google Exchange] %w", &errors.UpstreamError{
			Code:        "subject_mismatch",
			Description: "id token and userinfo subjects differ",
		})
	}

	return &Profile{
		Subject:       info.Subject,
		Email:         info.Email,
		EmailVerified: info.EmailVerified,
		Name:          extra.Name,
		Picture:       extra.Picture,
	}, nil
}

func exchangeError(err error) error {
	var re *oauth2.RetrieveError
	if errors.As(err, &re) {
		ue := &errors.UpstreamError{
			Code:        re.ErrorCode,
			Description: re.ErrorDescription,
		}
		if re.Response != nil {
			ue.StatusCode = re.Response.StatusCode
		}
		if ue.Code == "" && ue.Description == "" {
			ue.Description = string(re.Body)
		}
		return fmt.Errorf("[Google Exchange] %w", ue)
	}
	return fmt.Errorf("[Google Exchange] %w: %v", errors.ErrNetwork, err)
}
