package auth

import (
	"time"

	"github.com/jrsteele09/smartbill-auth/users"
)

// ExchangeRequest carries what the browser posts after the identity provider
// redirects back with an authorization code.
type ExchangeRequest struct {
	// Code is the one-time authorization code from the redirect.
	// Required: Yes
	Code string

	// State echoes the value the browser generated. It is verified by the browser
	// before this request is made; the server only bounds its size.
	// Required: No
	State string

	// Verifier is the PKCE code_verifier whose S256 hash was sent as code_challenge.
	// Required: Yes (43-128 unreserved characters)
	Verifier string

	// RedirectURI must be the exact redirect_uri used on the authorization request.
	// Required: No (defaults to the configured redirect URI)
	RedirectURI string
}

// TokenType is the only token type the issuer hands out
const TokenType = "Bearer"

// Session is the result of a successful login or refresh.
type Session struct {
	User         *users.User
	AccessToken  string
	RefreshToken string
	ExpiresIn    time.Duration
	// RefreshExpiresIn is how long RefreshToken stays valid
	RefreshExpiresIn time.Duration
	TokenType        string
}
