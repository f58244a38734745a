package config

import "errors"

type GoogleConfig interface {
	GetGoogleClientID() string
	GetGoogleClientSecret() string
	GetGoogleRedirectURI() string
	GetGoogleScopes() []string
	GetGoogleIssuer() string
	GetGoogleAuthURL() string
	GetGoogleTokenURL() string
	GetGoogleUserInfoURL() string
	GetGoogleJWKSURL() string
}

type Google struct {
	ClientID     string   `env:"GOOGLE_CLIENT_ID"`
	ClientSecret string   `env:"GOOGLE_CLIENT_SECRET"`
	RedirectURI  string   `env:"GOOGLE_REDIRECT_URI" envDefault:"http://localhost:5173/login"`
	Scopes       []string `env:"GOOGLE_SCOPES" envSeparator:"," envDefault:"openid,email,profile"`
	Issuer       string   `env:"GOOGLE_ISSUER" envDefault:"https://accounts.google.com"`
	AuthURL      string   `env:"GOOGLE_AUTH_URL" envDefault:"https://accounts.google.com/o/oauth2/v2/auth"`
	TokenURL     string   `env:"GOOGLE_TOKEN_URL" envDefault:"https://oauth2.googleapis.com/token"`
	UserInfoURL  string   `env:"GOOGLE_USERINFO_URL" envDefault:"https://openidconnect.googleapis.com/v1/userinfo"`
	JWKSURL      string   `env:"GOOGLE_JWKS_URL" envDefault:"https://www.googleapis.com/oauth2/v3/certs"`
}

var _ GoogleConfig = Google{}

func (g Google) GetGoogleClientID() string     { return g.ClientID }
func (g Google) GetGoogleClientSecret() string { return g.ClientSecret }
func (g Google) GetGoogleRedirectURI() string  { return g.RedirectURI }
func (g Google) GetGoogleScopes() []string     { return g.Scopes }
func (g Google) GetGoogleIssuer() string       { return g.Issuer }
func (g Google) GetGoogleAuthURL() string      { return g.AuthURL }
func (g Google) GetGoogleTokenURL() string     { return g.TokenURL }
func (g Google) GetGoogleUserInfoURL() string  { return g.UserInfoURL }
func (g Google) GetGoogleJWKSURL() string      { return g.JWKSURL }

func (g Google) validate() error {
	if g.ClientID == "" || g.ClientSecret == "" {
		return errors.New("GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET are required")
	}
	if g.RedirectURI == "" {
		return errors.New("GOOGLE_REDIRECT_URI is required")
	}
	return nil
}
