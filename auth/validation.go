package auth

import (
	"fmt"
	"strings"

	"github.com/jrsteele09/smartbill-auth/internal/errors"
)

const (
	minVerifierLength = 43
	maxVerifierLength = 128
	maxStateLength    = 512
	maxCodeLength     = 2048
)

// Validate checks the exchange parameters. Failures wrap errors.ErrInvalidRequest.
func (r ExchangeRequest) Validate() error {
	if strings.TrimSpace(r.Code) == "" {
		return fmt.Errorf("%w: code is required", errors.ErrInvalidRequest)
	}
	if len(r.Code) > maxCodeLength {
		return fmt.Errorf("%w: code is too long", errors.ErrInvalidRequest)
	}
	if len(r.State) > maxStateLength {
		return fmt.Errorf("%w: state is too long", errors.ErrInvalidRequest)
	}
	return ValidateVerifier(r.Verifier)
}

// ValidateVerifier checks a PKCE code_verifier against RFC 7636 section 4.1
func ValidateVerifier(verifier string) error {
	if verifier == "" {
		return fmt.Errorf("%w: code_verifier is required", errors.ErrInvalidRequest)
	}
	if len(verifier) < minVerifierLength || len(verifier) > maxVerifierLength {
		return fmt.Errorf("%w: code_verifier length must be between %d and %d characters",
			errors.ErrInvalidRequest, minVerifierLength, maxVerifierLength)
	}
	for _, c := range verifier {
		if !isUnreserved(c) {
			return fmt.Errorf("%w: code_verifier contains invalid character %q", errors.ErrInvalidRequest, c)
		}
	}
	return nil
}

func isUnreserved(c rune) bool {
	switch {
	case c >= 'A' && c <= 'Z', c >= 'a' && c <= 'z', c >= '0' && c <= '9':
		return true
	case c == '-' || c == '.' || c == '_' || c == '~':
		return true
	}
	return false
}
