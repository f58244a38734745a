package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jrsteele09/smartbill-auth/internal/errors"
	"github.com/jrsteele09/smartbill-auth/token/refresh"
)

var _ refresh.Repo = (*Store)(nil)

const insertRefreshToken = `
INSERT INTO refresh_tokens (id, family_id, user_id, token_hash, issued_at, expires_at)
VALUES (?, ?, ?, ?, ?, ?)`

func (s *Store) Insert(ctx context.Context, rt *refresh.StoredRefreshToken) error {
	if _, err := s.sqlDB.ExecContext(ctx, insertRefreshToken,
		rt.ID, rt.FamilyID, rt.UserID, rt.TokenHash, toMillis(rt.IssuedAt), toMillis(rt.ExpiresAt),
	); err != nil {
		return fmt.Errorf("[sqlite Store.Insert] %w", err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, id string) (*refresh.StoredRefreshToken, error) {
	var (
		rt        refresh.StoredRefreshToken
		issuedAt  int64
		expiresAt int64
		revokedAt sql.NullInt64
	)
	err := s.sqlDB.QueryRowContext(ctx, `
SELECT id, family_id, user_id, token_hash, issued_at, expires_at, revoked_at, replaced_by
FROM refresh_tokens WHERE id = ?`, id).Scan(
		&rt.ID, &rt.FamilyID, &rt.UserID, &rt.TokenHash, &issuedAt, &expiresAt, &revokedAt, &rt.ReplacedBy,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errors.ErrNotFound
		}
		return nil, fmt.Errorf("[sqlite Store.Get] %w", err)
	}

	rt.IssuedAt = fromMillis(issuedAt)
	rt.ExpiresAt = fromMillis(expiresAt)
	if revokedAt.Valid {
		rt.RevokedAt = fromMillis(revokedAt.Int64)
	}
	return &rt, nil
}

// Rotate revokes oldID only if it is still active, then inserts next, in one transaction.
func (s *Store) Rotate(ctx context.Context, oldID string, next *refresh.StoredRefreshToken, at time.Time) (err error) {
	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("[sqlite Store.Rotate] begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx,
		`UPDATE refresh_tokens SET revoked_at = ?, replaced_by = ? WHERE id = ? AND revoked_at IS NULL`,
		toMillis(at), next.ID, oldID)
	if err != nil {
		return fmt.Errorf("[sqlite Store.Rotate] revoke: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("[sqlite Store.Rotate] rows affected: %w", err)
	}
	if n == 0 {
		return errors.ErrTokenRevoked
	}

	if _, err = tx.ExecContext(ctx, insertRefreshToken,
		next.ID, next.FamilyID, next.UserID, next.TokenHash, toMillis(next.IssuedAt), toMillis(next.ExpiresAt),
	); err != nil {
		return fmt.Errorf("[sqlite Store.Rotate] insert: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("[sqlite Store.Rotate] commit: %w", err)
	}
	return nil
}

func (s *Store) RevokeFamily(ctx context.Context, familyID string, at time.Time) error {
	if _, err := s.sqlDB.ExecContext(ctx,
		`UPDATE refresh_tokens SET revoked_at = ? WHERE family_id = ? AND revoked_at IS NULL`,
		toMillis(at), familyID,
	); err != nil {
		return fmt.Errorf("[sqlite Store.RevokeFamily] %w", err)
	}
	return nil
}

func (s *Store) DeleteExpired(ctx context.Context, before time.Time) (int, error) {
	res, err := s.sqlDB.ExecContext(ctx, `DELETE FROM refresh_tokens WHERE expires_at < ?`, toMillis(before))
	if err != nil {
		return 0, fmt.Errorf("[sqlite Store.DeleteExpired] %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("[sqlite Store.DeleteExpired] rows affected: %w", err)
	}
	return int(n), nil
}
