package server

import (
	"net/http"

	"github.com/jrsteele09/smartbill-auth/api"
	"github.com/jrsteele09/smartbill-auth/auth"
	"github.com/jrsteele09/smartbill-auth/internal/errors"
)

// GoogleExchangeHandler handles POST /auth/google
func (s *Server) GoogleExchangeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req api.ExchangeRequest
		if err := decodeJSONBody(r, &req); err != nil {
			s.metrics.logins.WithLabelValues(outcomeRejected).Inc()
			s.writeServiceError(w, err)
			return
		}

		session, err := s.auth.ExchangeCode(r.Context(), auth.ExchangeRequest{
			Code:        req.Code,
			State:       req.State,
			Verifier:    req.CodeVerifier,
			RedirectURI: req.RedirectURI,
		})
		if err != nil {
			s.metrics.logins.WithLabelValues(outcomeFor(err)).Inc()
			s.logger.Warn().Err(err).Msg("authorization code exchange failed")
			s.writeServiceError(w, err)
			return
		}

		s.metrics.logins.WithLabelValues(outcomeSuccess).Inc()
		s.writeSession(w, session, true)
	}
}

// RefreshHandler handles POST /auth/refresh. The refresh token comes from the
// refresh_token cookie in cookie mode, otherwise from the JSON body.
func (s *Server) RefreshHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw, err := s.refreshTokenFromRequest(r)
		if err != nil {
			s.metrics.refreshes.WithLabelValues(outcomeRejected).Inc()
			s.writeServiceError(w, err)
			return
		}

		session, err := s.auth.Refresh(r.Context(), raw)
		if err != nil {
			s.metrics.refreshes.WithLabelValues(outcomeFor(err)).Inc()
			if s.cookieMode() && errors.Is(err, errors.ErrRefreshExpiredOrInvalid) {
				s.clearAuthCookies(w)
			}
			s.writeServiceError(w, err)
			return
		}

		s.metrics.refreshes.WithLabelValues(outcomeSuccess).Inc()
		s.writeSession(w, session, false)
	}
}

// LogoutHandler handles POST /auth/logout. It always answers 200.
func (s *Server) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rawRefresh, _ := s.refreshTokenFromRequest(r)
		rawAccess, _ := s.accessTokenFromRequest(r)

		if err := s.auth.Logout(r.Context(), rawRefresh, rawAccess); err != nil {
			s.logger.Error().Err(err).Msg("logout failed to revoke tokens")
		}
		if s.cookieMode() {
			s.clearAuthCookies(w)
		}
		writeJSON(w, http.StatusOK, api.MessageResponse{Message: "Logged out"})
	}
}

func (s *Server) refreshTokenFromRequest(r *http.Request) (string, error) {
	if s.cookieMode() {
		cookie, err := r.Cookie(RefreshTokenCookie)
		if err != nil || cookie.Value == "" {
			return "", errors.Wrapf(errors.ErrRefreshExpiredOrInvalid, "missing refresh_token cookie")
		}
		return cookie.Value, nil
	}

	var req api.RefreshRequest
	if err := decodeJSONBody(r, &req); err != nil {
		return "", err
	}
	if req.RefreshToken == "" {
		return "", errors.Wrapf(errors.ErrRefreshExpiredOrInvalid, "missing refreshToken")
	}
	return req.RefreshToken, nil
}

// writeSession writes tokens into cookies or the body, never both
func (s *Server) writeSession(w http.ResponseWriter, session *auth.Session, includeUser bool) {
	resp := api.SessionResponse{
		ExpiresIn: int64(session.ExpiresIn.Seconds()),
		TokenType: session.TokenType,
	}
	if includeUser {
		resp.User = session.User
	}

	if s.cookieMode() {
		s.setAuthCookies(w, session)
	} else {
		resp.AccessToken = session.AccessToken
		resp.RefreshToken = session.RefreshToken
	}
	writeJSON(w, http.StatusOK, resp)
}

func outcomeFor(err error) string {
	switch {
	case errors.Is(err, errors.ErrInvalidRequest),
		errors.Is(err, errors.ErrCodeAlreadyUsed),
		errors.Is(err, errors.ErrUpstreamRejected),
		errors.Is(err, errors.ErrRefreshExpiredOrInvalid),
		errors.Is(err, errors.ErrInvalidToken):
		return outcomeRejected
	}
	return outcomeError
}
