package client

import (
	"sync"
	"time"

	"github.com/jrsteele09/smartbill-auth/internal/errors"
)

// Flow is what the browser keeps between BeginLogin and the provider redirect
type Flow struct {
	State     string
	Verifier  string
	CreatedAt time.Time
}

// FlowStore holds the single pending login flow (session storage in a browser)
type FlowStore interface {
	Save(flow Flow) error
	Load() (Flow, error)
	Clear() error
}

// InMemoryFlowStore is a thread-safe in-memory FlowStore
type InMemoryFlowStore struct {
	mu   sync.RWMutex
	flow *Flow
}

func NewInMemoryFlowStore() *InMemoryFlowStore {
	return &InMemoryFlowStore{}
}

// Save replaces any pending flow
func (s *InMemoryFlowStore) Save(flow Flow) error {
	if flow.State == "" || flow.Verifier == "" {
		return errors.New("[InMemoryFlowStore Save] state and verifier are required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	copied := flow
	s.flow = &copied
	return nil
}

// Load returns the pending flow or ErrNotFound
func (s *InMemoryFlowStore) Load() (Flow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.flow == nil {
		return Flow{}, errors.ErrNotFound
	}
	return *s.flow, nil
}

func (s *InMemoryFlowStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flow = nil
	return nil
}
