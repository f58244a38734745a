package server

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/jrsteele09/smartbill-auth/api"
	"github.com/jrsteele09/smartbill-auth/internal/errors"
)

const contentTypeJSON = "application/json; charset=utf-8"

// writeJSONError writes an {"error","error_description"} response
func writeJSONError(w http.ResponseWriter, errorCode, description string, statusCode int) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(api.ErrorResponse{Error: errorCode, Description: description})
}

func writeJSON(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(body)
}

// writeServiceError maps service errors to HTTP status codes. Internal failures
// are logged and never described to the caller.
func (s *Server) writeServiceError(w http.ResponseWriter, err error) {
	var upstream *errors.UpstreamError
	switch {
	case errors.Is(err, errors.ErrInvalidRequest), errors.Is(err, errors.ErrInvalidRole):
		writeJSONError(w, "invalid_request", err.Error(), http.StatusBadRequest)
	case errors.Is(err, errors.ErrCodeAlreadyUsed):
		writeJSONError(w, "code_already_used", "Authorization code has already been used", http.StatusConflict)
	case errors.As(err, &upstream):
		description := upstream.Description
		if description == "" {
			description = upstream.Error()
		}
		writeJSONError(w, "upstream_rejected", description, http.StatusBadGateway)
	case errors.Is(err, errors.ErrNetwork):
		writeJSONError(w, "upstream_unavailable", "Identity provider unreachable", http.StatusBadGateway)
	case errors.Is(err, errors.ErrRefreshExpiredOrInvalid), errors.Is(err, errors.ErrInvalidToken):
		writeJSONError(w, "unauthorized", "Session expired, please sign in again", http.StatusUnauthorized)
	case errors.Is(err, errors.ErrUserNotFound):
		writeJSONError(w, "not_found", "User not found", http.StatusNotFound)
	default:
		s.logger.Error().Err(err).Msg("request failed")
		writeJSONError(w, "server_error", "Internal server error", http.StatusInternalServerError)
	}
}

// decodeJSONBody reads a JSON request body. An empty body leaves dst untouched.
func decodeJSONBody(r *http.Request, dst any) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	err := json.NewDecoder(r.Body).Decode(dst)
	if err == io.EOF {
		return nil
	}
	if err != nil {
		return errors.Wrapf(errors.ErrInvalidRequest, "malformed JSON body")
	}
	return nil
}
