package refreshrepofake

import (
	"context"
	"sync"
	"time"

	"github.com/jrsteele09/smartbill-auth/internal/errors"
	"github.com/jrsteele09/smartbill-auth/token/refresh"
)

var _ refresh.Repo = (*FakeRefreshTokenRepo)(nil)

type FakeRefreshTokenRepo struct {
	tokens map[string]*refresh.StoredRefreshToken
	lock   sync.RWMutex
}

func NewFakeRefreshTokenRepo() *FakeRefreshTokenRepo {
	return &FakeRefreshTokenRepo{
		tokens: make(map[string]*refresh.StoredRefreshToken),
	}
}

func (tr *FakeRefreshTokenRepo) Insert(_ context.Context, rt *refresh.StoredRefreshToken) error {
	tr.lock.Lock()
	defer tr.lock.Unlock()

	if _, ok := tr.tokens[rt.ID]; ok {
		return errors.New("duplicate refresh token id")
	}
	stored := *rt
	tr.tokens[rt.ID] = &stored
	return nil
}

func (tr *FakeRefreshTokenRepo) Get(_ context.Context, id string) (*refresh.StoredRefreshToken, error) {
	tr.lock.RLock()
	defer tr.lock.RUnlock()

	rt, ok := tr.tokens[id]
	if !ok {
		return nil, errors.ErrNotFound
	}
	found := *rt
	return &found, nil
}

func (tr *FakeRefreshTokenRepo) Rotate(_ context.Context, oldID string, next *refresh.StoredRefreshToken, at time.Time) error {
	tr.lock.Lock()
	defer tr.lock.Unlock()

	old, ok := tr.tokens[oldID]
	if !ok {
		return errors.ErrNotFound
	}
	if !old.RevokedAt.IsZero() {
		return errors.ErrTokenRevoked
	}
	if _, ok := tr.tokens[next.ID]; ok {
		return errors.New("duplicate refresh token id")
	}

	old.RevokedAt = at
	old.ReplacedBy = next.ID
	stored := *next
	tr.tokens[next.ID] = &stored
	return nil
}

func (tr *FakeRefreshTokenRepo) RevokeFamily(_ context.Context, familyID string, at time.Time) error {
	tr.lock.Lock()
	defer tr.lock.Unlock()

	for _, rt := range tr.tokens {
		if rt.FamilyID == familyID && rt.RevokedAt.IsZero() {
			rt.RevokedAt = at
		}
	}
	return nil
}

func (tr *FakeRefreshTokenRepo) DeleteExpired(_ context.Context, before time.Time) (int, error) {
	tr.lock.Lock()
	defer tr.lock.Unlock()

	n := 0
	for id, rt := range tr.tokens {
		if rt.ExpiresAt.Before(before) {
			delete(tr.tokens, id)
			n++
		}
	}
	return n, nil
}

// ActiveInFamily counts the records of familyID that are not revoked
func (tr *FakeRefreshTokenRepo) ActiveInFamily(familyID string) int {
	tr.lock.RLock()
	defer tr.lock.RUnlock()

	n := 0
	for _, rt := range tr.tokens {
		if rt.FamilyID == familyID && rt.RevokedAt.IsZero() {
			n++
		}
	}
	return n
}

func (tr *FakeRefreshTokenRepo) Len() int {
	tr.lock.RLock()
	defer tr.lock.RUnlock()
	return len(tr.tokens)
}
