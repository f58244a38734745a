// Package pkce generates the per-login secrets of the authorization-code flow
// with Proof Key for Code Exchange and builds the provider redirect URL.
package pkce

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"io"

	autherrors "github.com/jrsteele09/smartbill-auth/internal/errors"
	"golang.org/x/oauth2"
)

// EntropyBytes is the number of random bytes behind each state and verifier.
// 32 bytes encode to a 43 character verifier, the minimum RFC 7636 allows.
const EntropyBytes = 32

// MethodS256 is the only challenge method this package produces
const MethodS256 = "S256"

// Challenge holds the values of one login attempt. State and Verifier must be kept
// by the caller for the redirect round-trip; only Challenge goes to the provider.
type Challenge struct {
	State     string
	Verifier  string
	Challenge string
}

// GenerateChallenge creates an independent state and verifier from crypto/rand and
// derives the S256 challenge.
func GenerateChallenge() (Challenge, error) {
	return GenerateChallengeFrom(rand.Reader)
}

// GenerateChallengeFrom is GenerateChallenge with an explicit random source.
func GenerateChallengeFrom(random io.Reader) (Challenge, error) {
	state, err := randomString(random, EntropyBytes)
	if err != nil {
		return Challenge{}, err
	}
	verifier, err := randomString(random, EntropyBytes)
	if err != nil {
		return Challenge{}, err
	}
	return Challenge{
		State:     state,
		Verifier:  verifier,
		Challenge: ChallengeFromVerifier(verifier),
	}, nil
}

// ChallengeFromVerifier returns base64url(SHA-256(verifier)) without padding
func ChallengeFromVerifier(verifier string) string {
	return oauth2.S256ChallengeFromVerifier(verifier)
}

// VerifyChallenge reports whether verifier hashes to challenge
func VerifyChallenge(verifier, challenge string) bool {
	if verifier == "" || challenge == "" {
		return false
	}
	calculated := ChallengeFromVerifier(verifier)
	return subtle.ConstantTimeCompare([]byte(calculated), []byte(challenge)) == 1
}

// randomString creates a random base64url string
func randomString(random io.Reader, length int) (string, error) {
	b := make([]byte, length)
	if _, err := io.ReadFull(random, b); err != nil {
		return "", fmt.Errorf("[pkce randomString] %w: %v", autherrors.ErrEntropyUnavailable, err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
