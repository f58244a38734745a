package token

import "github.com/golang-jwt/jwt/v5"

// Token types carried in the typ claim
const (
	TypeAccess  = "access"
	TypeRefresh = "refresh"
)

// AccessClaims are the claims of a first-party access token. Subject is the user id.
type AccessClaims struct {
	jwt.RegisteredClaims
	Email string `json:"email,omitempty"`
	Role  string `json:"role,omitempty"`
	Type  string `json:"typ"`
}

// RefreshClaims are the claims of a first-party refresh token. ID matches the
// stored record and FamilyID groups every rotation of one login.
type RefreshClaims struct {
	jwt.RegisteredClaims
	FamilyID string `json:"fam"`
	Type     string `json:"typ"`
}
