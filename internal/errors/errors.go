package errors

import (
	"errors"
	"fmt"
)

// Login and session protocol errors
var (
	// ErrEntropyUnavailable means the secure random source failed. Fatal for the login attempt.
	ErrEntropyUnavailable = errors.New("secure random source unavailable")
	// ErrStateMismatch means the callback state did not match the stored one (or none was stored)
	ErrStateMismatch = errors.New("authorization state mismatch")
	// ErrCodeAlreadyUsed means an authorization code was presented a second time
	ErrCodeAlreadyUsed = errors.New("authorization code already used")
	// ErrUpstreamRejected means the identity provider refused the exchange
	ErrUpstreamRejected = errors.New("identity provider rejected the request")
	// ErrRefreshExpiredOrInvalid means the refresh token is expired, unknown, revoked or reused
	ErrRefreshExpiredOrInvalid = errors.New("refresh token expired or invalid")
	// ErrNetwork wraps transport failures
	ErrNetwork = errors.New("network error")
	// ErrAuthenticationFailed is terminal and fans out to every queued caller
	ErrAuthenticationFailed = errors.New("authentication failed")
)

// General errors
var (
	ErrInvalidRequest = errors.New("invalid request")
	ErrInvalidToken   = errors.New("invalid token")
	ErrTokenRevoked   = errors.New("token revoked")
	ErrInvalidRole    = errors.New("invalid role")
	ErrUserNotFound   = errors.New("user not found")
	ErrNotFound       = errors.New("not found")
	ErrInternal       = errors.New("internal error")
)

// UpstreamError carries the identity provider's own error description so it can
// be surfaced to the user.
type UpstreamError struct {
	Code        string
	Description string
	StatusCode  int
}

func (e *UpstreamError) Error() string {
	switch {
	case e.Description != "" && e.Code != "":
		return fmt.Sprintf("%s: %s: %s", ErrUpstreamRejected, e.Code, e.Description)
	case e.Description != "":
		return fmt.Sprintf("%s: %s", ErrUpstreamRejected, e.Description)
	case e.Code != "":
		return fmt.Sprintf("%s: %s", ErrUpstreamRejected, e.Code)
	}
	return ErrUpstreamRejected.Error()
}

func (e *UpstreamError) Unwrap() error {
	return ErrUpstreamRejected
}

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// New is errors.New, re-exported so callers need a single errors import
func New(text string) error {
	return errors.New(text)
}
