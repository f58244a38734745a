package token

import (
	"context"
	"fmt"
	"time"

	"github.com/jrsteele09/smartbill-auth/cache"
)

// RevokedTokenCache remembers access tokens that were revoked before they expired.
type RevokedTokenCache interface {
	Add(ctx context.Context, jti string, exp time.Time) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

type markRevokedTokenCache struct {
	marks   cache.MarkStore
	nowFunc func() time.Time
}

// NewRevokedTokenCache stores revocations in marks, each kept until the token's own
// expiry.
func NewRevokedTokenCache(marks cache.MarkStore, nowFunc func() time.Time) RevokedTokenCache {
	if nowFunc == nil {
		nowFunc = time.Now
	}
	return &markRevokedTokenCache{marks: marks, nowFunc: nowFunc}
}

func (c *markRevokedTokenCache) Add(ctx context.Context, jti string, exp time.Time) error {
	if jti == "" {
		return fmt.Errorf("[RevokedTokenCache Add] jti is required")
	}
	ttl := exp.Sub(c.nowFunc())
	if ttl <= 0 {
		// already expired, nothing to remember
		return nil
	}
	if _, err := c.marks.Mark(ctx, revokedKey(jti), ttl); err != nil {
		return fmt.Errorf("[RevokedTokenCache Add] %w", err)
	}
	return nil
}

func (c *markRevokedTokenCache) IsRevoked(ctx context.Context, jti string) (bool, error) {
	revoked, err := c.marks.IsMarked(ctx, revokedKey(jti))
	if err != nil {
		return false, fmt.Errorf("[RevokedTokenCache IsRevoked] %w", err)
	}
	return revoked, nil
}

func revokedKey(jti string) string {
	return "revoked:" + jti
}
