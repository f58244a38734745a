package client

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/jrsteele09/smartbill-auth/api"
	"github.com/jrsteele09/smartbill-auth/internal/errors"
)

// Errors callers match with errors.Is
var (
	ErrStateMismatch        = errors.ErrStateMismatch
	ErrCodeAlreadyUsed      = errors.ErrCodeAlreadyUsed
	ErrUpstreamRejected     = errors.ErrUpstreamRejected
	ErrAuthenticationFailed = errors.ErrAuthenticationFailed
	ErrNetwork              = errors.ErrNetwork
	ErrEntropyUnavailable   = errors.ErrEntropyUnavailable
)

// ExchangeError is a non-2xx answer from the backend. Detail is the text the
// backend supplied.
type ExchangeError struct {
	Status int
	Detail string
}

func (e *ExchangeError) Error() string {
	return fmt.Sprintf("backend returned %d: %s", e.Status, e.Detail)
}

func (e *ExchangeError) Unwrap() error {
	switch e.Status {
	case http.StatusConflict:
		return errors.ErrCodeAlreadyUsed
	case http.StatusBadGateway:
		return errors.ErrUpstreamRejected
	case http.StatusBadRequest:
		return errors.ErrInvalidRequest
	case http.StatusUnauthorized, http.StatusForbidden:
		return errors.ErrAuthenticationFailed
	}
	return nil
}

func newExchangeError(resp *Response) *ExchangeError {
	return &ExchangeError{Status: resp.StatusCode, Detail: errorDetail(resp)}
}

// errorDetail prefers error_description from a JSON error body, then the raw
// body, then the status text.
func errorDetail(resp *Response) string {
	var body api.ErrorResponse
	if json.Unmarshal(resp.Body, &body) == nil {
		if body.Description != "" {
			return body.Description
		}
		if body.Error != "" {
			return body.Error
		}
	}
	if text := strings.TrimSpace(string(resp.Body)); text != "" {
		return text
	}
	return http.StatusText(resp.StatusCode)
}
