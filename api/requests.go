package api

// ExchangeRequest is the body of POST /auth/google
type ExchangeRequest struct {
	// Code is the authorization code from the provider redirect.
	// Required: Yes
	// Usage: Exchanged once, a second exchange is rejected with 409
	Code string `json:"code"`

	// State is the value generated by the browser for this login.
	// Required: No (the browser verifies it before calling the backend)
	State string `json:"state"`

	// CodeVerifier is the PKCE verifier behind the code_challenge.
	// Required: Yes
	// Example: "dBjftJeZ4CVP-mB92K27uhbUJU1p1r_wW1gFWFOEjXk"
	// Security: Never log or expose this value
	CodeVerifier string `json:"code_verifier"`

	// RedirectURI must equal the redirect_uri of the authorization request.
	// Required: No (defaults to the configured redirect URI)
	RedirectURI string `json:"redirect_uri"`
}

// RefreshRequest is the body of POST /auth/refresh and POST /auth/logout in body mode
type RefreshRequest struct {
	// RefreshToken is the most recently issued refresh token.
	// Required: Yes for refresh in body mode, No for logout
	RefreshToken string `json:"refreshToken"`
}

// ChangeRoleRequest is the body of POST /user/role
type ChangeRoleRequest struct {
	// Role is "employee" or "business_owner".
	// Required: Yes
	Role string `json:"role"`
}

// SetCompanyRequest is the body of POST /user/company
type SetCompanyRequest struct {
	// CompanyID references the user's company record.
	// Required: Yes
	CompanyID string `json:"companyId"`
}
