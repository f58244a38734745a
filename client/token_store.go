package client

import (
	"sync"
	"time"

	"github.com/jrsteele09/smartbill-auth/internal/errors"
)

// Tokens are the first-party credentials held by the client in body mode
type Tokens struct {
	AccessToken  string
	RefreshToken string
	// ExpiresAt is when AccessToken stops being accepted
	ExpiresAt time.Time
}

// Expired reports whether the access token has passed ExpiresAt. A zero
// ExpiresAt never expires locally; the backend still decides.
func (t Tokens) Expired(now time.Time) bool {
	return !t.ExpiresAt.IsZero() && !now.Before(t.ExpiresAt)
}

// TokenStore is the client's token storage (local storage in a browser)
type TokenStore interface {
	Upsert(tokens Tokens) error
	Get() (Tokens, error)
	Delete() error
}

// InMemoryTokenStore is a thread-safe in-memory TokenStore
type InMemoryTokenStore struct {
	mu     sync.RWMutex
	tokens *Tokens
}

func NewInMemoryTokenStore() *InMemoryTokenStore {
	return &InMemoryTokenStore{}
}

// Upsert stores tokens. An empty refresh token keeps the previous one.
func (s *InMemoryTokenStore) Upsert(tokens Tokens) error {
	if tokens.AccessToken == "" {
		return errors.New("[InMemoryTokenStore Upsert] access token is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if tokens.RefreshToken == "" && s.tokens != nil {
		tokens.RefreshToken = s.tokens.RefreshToken
	}
	s.tokens = &tokens
	return nil
}

// Get returns the stored tokens or ErrNotFound
func (s *InMemoryTokenStore) Get() (Tokens, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.tokens == nil {
		return Tokens{}, errors.ErrNotFound
	}
	return *s.tokens, nil
}

// Delete removes the tokens. Deleting nothing is not an error.
func (s *InMemoryTokenStore) Delete() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens = nil
	return nil
}
