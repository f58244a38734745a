package pkce

import (
	"errors"

	"golang.org/x/oauth2"
)

// DefaultGoogleAuthURL is Google's authorization endpoint
const DefaultGoogleAuthURL = "https://accounts.google.com/o/oauth2/v2/auth"

// DefaultScopes are requested when AuthConfig.Scopes is empty
var DefaultScopes = []string{"openid", "email", "profile"}

// AuthConfig is the public client configuration needed to start a login
type AuthConfig struct {
	ClientID    string
	RedirectURI string
	AuthURL     string
	Scopes      []string
}

// BuildAuthorizationURL composes the provider authorization URL. It performs no I/O.
// Besides the PKCE parameters it asks for a refresh-capable grant (access_type=offline)
// and explicit re-consent (prompt=consent).
func BuildAuthorizationURL(cfg AuthConfig, ch Challenge) (string, error) {
	if cfg.ClientID == "" {
		return "", errors.New("[pkce BuildAuthorizationURL] client id is required")
	}
	if cfg.RedirectURI == "" {
		return "", errors.New("[pkce BuildAuthorizationURL] redirect uri is required")
	}
	if ch.State == "" || ch.Challenge == "" {
		return "", errors.New("[pkce BuildAuthorizationURL] state and challenge are required")
	}

	authURL := cfg.AuthURL
	if authURL == "" {
		authURL = DefaultGoogleAuthURL
	}
	scopes := cfg.Scopes
	if len(scopes) == 0 {
		scopes = DefaultScopes
	}

	conf := oauth2.Config{
		ClientID:    cfg.ClientID,
		RedirectURL: cfg.RedirectURI,
		Scopes:      scopes,
		Endpoint:    oauth2.Endpoint{AuthURL: authURL},
	}
	return conf.AuthCodeURL(
		ch.State,
		oauth2.SetAuthURLParam("code_challenge", ch.Challenge),
		oauth2.SetAuthURLParam("code_challenge_method", MethodS256),
		oauth2.AccessTypeOffline,
		oauth2.ApprovalForce,
	), nil
}
