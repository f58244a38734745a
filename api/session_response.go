// Package api holds the JSON bodies exchanged between the SmartBill browser
// client and the auth backend.
package api

import "github.com/jrsteele09/smartbill-auth/users"

// SessionResponse is returned by POST /auth/google and POST /auth/refresh.
// In cookie mode the token fields are empty and the tokens travel as cookies.
type SessionResponse struct {
	// User is the signed-in user.
	// Only present: on POST /auth/google
	User *users.User `json:"user,omitempty"`

	// AccessToken is the first-party JWT for protected routes.
	// Example: "eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9..."
	// Usage: Include in Authorization header: "Bearer <accessToken>"
	// Lifespan: Short-lived (15 minutes by default)
	AccessToken string `json:"accessToken,omitempty"`

	// RefreshToken obtains a new access token without signing in again.
	// Usage: Send to POST /auth/refresh as {"refreshToken": ...}
	// Lifespan: 7 days by default, rotated on every use
	// Security: Presenting an already rotated token ends the whole session
	RefreshToken string `json:"refreshToken,omitempty"`

	// ExpiresIn is the access token lifetime in seconds.
	// Example: 900
	ExpiresIn int64 `json:"expiresIn"`

	// TokenType is always "Bearer"
	TokenType string `json:"tokenType"`
}
