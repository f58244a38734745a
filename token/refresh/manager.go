package refresh

import (
	"context"
	"crypto/subtle"
	"fmt"
	"time"

	"github.com/jrsteele09/smartbill-auth/cache"
	"github.com/jrsteele09/smartbill-auth/internal/errors"
)

// NowTimeFunc returns the current time. It can be overridden in tests.
var NowTimeFunc = time.Now

// Manager handles refresh token persistence, validation, rotation and reuse detection.
type Manager struct {
	repo Repo
}

// NewManager creates a new refresh token manager
func NewManager(repo Repo) *Manager {
	return &Manager{
		repo: repo,
	}
}

// Issued describes a freshly signed refresh token to persist
type Issued struct {
	ID        string
	FamilyID  string
	UserID    string
	Token     string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

func (i Issued) record() *StoredRefreshToken {
	return &StoredRefreshToken{
		ID:        i.ID,
		FamilyID:  i.FamilyID,
		UserID:    i.UserID,
		TokenHash: cache.HashToken(i.Token),
		IssuedAt:  i.IssuedAt,
		ExpiresAt: i.ExpiresAt,
	}
}

// Store persists the record of a newly issued token
func (m *Manager) Store(ctx context.Context, issued Issued) error {
	if err := m.repo.Insert(ctx, issued.record()); err != nil {
		return fmt.Errorf("[refresh Manager.Store] %w", err)
	}
	return nil
}

// Validate checks a presented token against its stored record. A record that was
// already revoked means the token is being replayed, so the whole family is revoked.
// Every failure wraps errors.ErrRefreshExpiredOrInvalid.
func (m *Manager) Validate(ctx context.Context, id, rawToken string) (*StoredRefreshToken, error) {
	rt, err := m.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, errors.ErrNotFound) {
			return nil, errors.Wrapf(errors.ErrRefreshExpiredOrInvalid, "[refresh Manager.Validate] unknown token")
		}
		return nil, fmt.Errorf("[refresh Manager.Validate] %w", err)
	}

	if subtle.ConstantTimeCompare([]byte(rt.TokenHash), []byte(cache.HashToken(rawToken))) != 1 {
		return nil, errors.Wrapf(errors.ErrRefreshExpiredOrInvalid, "[refresh Manager.Validate] hash mismatch")
	}

	now := NowTimeFunc()
	if !rt.RevokedAt.IsZero() {
		if err := m.repo.RevokeFamily(ctx, rt.FamilyID, now); err != nil {
			return nil, fmt.Errorf("[refresh Manager.Validate] revoke family after reuse: %w", err)
		}
		return nil, errors.Wrapf(errors.ErrRefreshExpiredOrInvalid, "[refresh Manager.Validate] reuse detected for family %s", rt.FamilyID)
	}
	if !now.Before(rt.ExpiresAt) {
		return nil, errors.Wrapf(errors.ErrRefreshExpiredOrInvalid, "[refresh Manager.Validate] expired")
	}
	return rt, nil
}

// Rotate replaces current with next. Losing a race against another rotation of the
// same token is treated like reuse.
func (m *Manager) Rotate(ctx context.Context, current *StoredRefreshToken, next Issued) error {
	if next.FamilyID != current.FamilyID {
		return fmt.Errorf("[refresh Manager.Rotate] successor must stay in family %s", current.FamilyID)
	}

	now := NowTimeFunc()
	if err := m.repo.Rotate(ctx, current.ID, next.record(), now); err != nil {
		if errors.Is(err, errors.ErrTokenRevoked) {
			if rerr := m.repo.RevokeFamily(ctx, current.FamilyID, now); rerr != nil {
				return fmt.Errorf("[refresh Manager.Rotate] revoke family after race: %w", rerr)
			}
			return errors.Wrapf(errors.ErrRefreshExpiredOrInvalid, "[refresh Manager.Rotate] token %s already rotated", current.ID)
		}
		return fmt.Errorf("[refresh Manager.Rotate] %w", err)
	}
	return nil
}

// RevokeFamily ends every session descended from one login
func (m *Manager) RevokeFamily(ctx context.Context, familyID string) error {
	if err := m.repo.RevokeFamily(ctx, familyID, NowTimeFunc()); err != nil {
		return fmt.Errorf("[refresh Manager.RevokeFamily] %w", err)
	}
	return nil
}

// Cleanup drops expired records
func (m *Manager) Cleanup(ctx context.Context) (int, error) {
	n, err := m.repo.DeleteExpired(ctx, NowTimeFunc())
	if err != nil {
		return 0, fmt.Errorf("[refresh Manager.Cleanup] %w", err)
	}
	return n, nil
}
