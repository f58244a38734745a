package server

import (
	"context"
	"net/http"
	"strings"

	"github.com/jrsteele09/smartbill-auth/internal/errors"
	"github.com/jrsteele09/smartbill-auth/token"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const (
	// ContextKeyUserID stores the authenticated user ID
	ContextKeyUserID ContextKey = "user_id"
	// ContextKeyClaims stores parsed token claims
	ContextKeyClaims ContextKey = "claims"
)

// RequireAuth is middleware that validates the first-party access token. In body
// mode the token comes from the Authorization header, in cookie mode from the
// auth_token cookie.
func (s *Server) RequireAuth() func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			raw, err := s.accessTokenFromRequest(r)
			if err != nil {
				writeJSONError(w, "unauthorized", err.Error(), http.StatusUnauthorized)
				return
			}

			claims, err := s.auth.Authenticate(r.Context(), raw)
			if err != nil {
				if errors.Is(err, errors.ErrInvalidToken) {
					writeJSONError(w, "unauthorized", "Invalid or expired token", http.StatusUnauthorized)
					return
				}
				s.writeServiceError(w, err)
				return
			}

			ctx := context.WithValue(r.Context(), ContextKeyUserID, claims.Subject)
			ctx = context.WithValue(ctx, ContextKeyClaims, claims)
			next(w, r.WithContext(ctx))
		}
	}
}

func (s *Server) accessTokenFromRequest(r *http.Request) (string, error) {
	if s.cookieMode() {
		cookie, err := r.Cookie(AccessTokenCookie)
		if err != nil || cookie.Value == "" {
			return "", errors.New("Missing auth_token cookie")
		}
		return cookie.Value, nil
	}
	return bearerToken(r)
}

func bearerToken(r *http.Request) (string, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", errors.New("Missing Authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return "", errors.New("Invalid Authorization header format")
	}

	raw := strings.TrimSpace(parts[1])
	if raw == "" {
		return "", errors.New("Empty token")
	}
	return raw, nil
}

// ClaimsFromContext returns the claims RequireAuth stored on the request
func ClaimsFromContext(ctx context.Context) (*token.AccessClaims, bool) {
	claims, ok := ctx.Value(ContextKeyClaims).(*token.AccessClaims)
	return claims, ok
}

// UserIDFromContext returns the authenticated user id, or "" outside RequireAuth
func UserIDFromContext(ctx context.Context) string {
	userID, _ := ctx.Value(ContextKeyUserID).(string)
	return userID
}
