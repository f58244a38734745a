package server

import (
	"net/http"
	"time"

	"github.com/jrsteele09/smartbill-auth/auth"
	"github.com/jrsteele09/smartbill-auth/internal/config"
)

func (s *Server) newTokenCookie(name, value, path string, ttl time.Duration) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     path,
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   !s.config.IsDev(),
		SameSite: http.SameSiteStrictMode,
	}
}

// setAuthCookies writes both session cookies. The refresh cookie is only sent to /auth.
func (s *Server) setAuthCookies(w http.ResponseWriter, session *auth.Session) {
	http.SetCookie(w, s.newTokenCookie(AccessTokenCookie, session.AccessToken, "/", session.ExpiresIn))
	http.SetCookie(w, s.newTokenCookie(RefreshTokenCookie, session.RefreshToken, refreshCookiePath, session.RefreshExpiresIn))
}

func (s *Server) clearAuthCookies(w http.ResponseWriter) {
	access := s.newTokenCookie(AccessTokenCookie, "", "/", 0)
	access.MaxAge = -1
	refresh := s.newTokenCookie(RefreshTokenCookie, "", refreshCookiePath, 0)
	refresh.MaxAge = -1
	http.SetCookie(w, access)
	http.SetCookie(w, refresh)
}

func (s *Server) cookieMode() bool {
	return s.config.GetTokenStorageMode() == config.TokenStorageCookie
}
