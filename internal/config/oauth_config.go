package config

import "time"

type OAuthConfig interface {
	GetTokenIssuer() string
	GetTokenAudience() string
	GetAuthCodeTimeout() time.Duration
	GetDefaultAccessTokenExpiry() time.Duration
	GetDefaultRefreshTokenExpiry() time.Duration
}

type OAuth struct {
	Issuer             string        `env:"TOKEN_ISSUER" envDefault:"smartbill-app"`
	Audience           string        `env:"TOKEN_AUDIENCE" envDefault:"smartbill-users"`
	AuthCodeTimeout    time.Duration `env:"AUTH_CODE_TTL" envDefault:"10m"`
	AccessTokenExpiry  time.Duration `env:"ACCESS_TOKEN_TTL" envDefault:"15m"`
	RefreshTokenExpiry time.Duration `env:"REFRESH_TOKEN_TTL" envDefault:"168h"`
}

var _ OAuthConfig = OAuth{}

func (o OAuth) GetTokenIssuer() string {
	return o.Issuer
}

func (o OAuth) GetTokenAudience() string {
	return o.Audience
}

// GetAuthCodeTimeout is how long a used authorization code is remembered
func (o OAuth) GetAuthCodeTimeout() time.Duration {
	return o.AuthCodeTimeout
}

func (o OAuth) GetDefaultAccessTokenExpiry() time.Duration {
	return o.AccessTokenExpiry
}

func (o OAuth) GetDefaultRefreshTokenExpiry() time.Duration {
	return o.RefreshTokenExpiry // 7 days
}
