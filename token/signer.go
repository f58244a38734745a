package token

import (
	"crypto/sha256"
	"fmt"
	"io"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/hkdf"
)

// Key purposes. Each purpose derives its own HMAC key so an access token can never
// verify as a refresh token and vice versa.
const (
	PurposeAccess  = "access"
	PurposeRefresh = "refresh"
)

const derivedKeyLength = 32

// Signer is an interface for signing and verifying JWT tokens
type Signer interface {
	// Sign creates a signed JWT token from claims
	Sign(claims jwt.Claims) (string, error)

	// GetVerificationKey is a jwt.Keyfunc returning the key used to verify token
	GetVerificationKey(token *jwt.Token) (any, error)

	// GetSigningMethod returns the JWT signing method used
	GetSigningMethod() jwt.SigningMethod
}

// HMACsigner implements Signer using symmetric HMAC-SHA256
type HMACsigner struct {
	key []byte
}

// NewHMACSigner derives a purpose-bound HMAC key from secret with HKDF-SHA256.
func NewHMACSigner(secret, purpose string) (*HMACsigner, error) {
	if secret == "" {
		return nil, fmt.Errorf("[token NewHMACSigner] empty secret for %s key", purpose)
	}
	if purpose == "" {
		return nil, fmt.Errorf("[token NewHMACSigner] purpose is required")
	}

	kdf := hkdf.New(sha256.New, []byte(secret), nil, []byte("smartbill-auth/"+purpose))
	key := make([]byte, derivedKeyLength)
	if _, err := io.ReadFull(kdf, key); err != nil {
		return nil, fmt.Errorf("[token NewHMACSigner] derive key: %w", err)
	}

	return &HMACsigner{key: key}, nil
}

func (h *HMACsigner) Sign(claims jwt.Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString(h.key)
	if err != nil {
		return "", fmt.Errorf("[HMACsigner Sign] failed to sign token: %w", err)
	}
	return signedToken, nil
}

func (h *HMACsigner) GetVerificationKey(token *jwt.Token) (any, error) {
	if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
	}
	return h.key, nil
}

func (h *HMACsigner) GetSigningMethod() jwt.SigningMethod {
	return jwt.SigningMethodHS256
}
