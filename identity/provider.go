// Package identity exchanges authorization codes with the upstream OpenID provider
// and returns the authenticated user's profile.
package identity

import "context"

// Profile is the subset of the provider's user info the service keeps.
type Profile struct {
	Subject       string
	Email         string
	EmailVerified bool
	Name          string
	Picture       string
}

// Provider redeems an authorization code. Upstream refusals wrap
// errors.ErrUpstreamRejected; transport failures wrap errors.ErrNetwork.
type Provider interface {
	Exchange(ctx context.Context, code, verifier, redirectURI string) (*Profile, error)
}
