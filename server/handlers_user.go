package server

import (
	"net/http"

	"github.com/jrsteele09/smartbill-auth/api"
	"github.com/jrsteele09/smartbill-auth/internal/errors"
)

// MeHandler handles GET /user/me
func (s *Server) MeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, err := s.auth.Me(r.Context(), UserIDFromContext(r.Context()))
		if err != nil {
			// a valid token for a user that no longer exists
			if errors.Is(err, errors.ErrUserNotFound) {
				writeJSONError(w, "unauthorized", "User not found", http.StatusUnauthorized)
				return
			}
			s.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, user)
	}
}

// ChangeRoleHandler handles POST /user/role
func (s *Server) ChangeRoleHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req api.ChangeRoleRequest
		if err := decodeJSONBody(r, &req); err != nil {
			s.writeServiceError(w, err)
			return
		}

		user, err := s.auth.ChangeRole(r.Context(), UserIDFromContext(r.Context()), req.Role)
		if err != nil {
			s.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, user)
	}
}

// SetCompanyHandler handles POST /user/company
func (s *Server) SetCompanyHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req api.SetCompanyRequest
		if err := decodeJSONBody(r, &req); err != nil {
			s.writeServiceError(w, err)
			return
		}

		user, err := s.auth.SetCompany(r.Context(), UserIDFromContext(r.Context()), req.CompanyID)
		if err != nil {
			s.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, user)
	}
}
