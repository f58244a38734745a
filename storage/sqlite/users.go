package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/jrsteele09/smartbill-auth/internal/errors"
	"github.com/jrsteele09/smartbill-auth/users"
)

var _ users.UserRepo = (*Store)(nil)

const userColumns = `id, subject, email, name, picture, email_verified, role, company_id, created_at, last_login`

func (s *Store) Upsert(ctx context.Context, user *users.User) error {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}

	_, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO users (`+userColumns+`)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	email = excluded.email,
	name = excluded.name,
	picture = excluded.picture,
	email_verified = excluded.email_verified,
	role = excluded.role,
	company_id = excluded.company_id,
	last_login = excluded.last_login`,
		user.ID, user.Subject, user.Email, user.Name, user.Picture, user.EmailVerified,
		string(user.Role), user.CompanyID, toMillis(user.CreatedAt), toMillis(user.LastLogin),
	)
	if err != nil {
		return fmt.Errorf("[sqlite Store.Upsert] %w", err)
	}
	return nil
}

func (s *Store) GetByID(ctx context.Context, id string) (*users.User, error) {
	row := s.sqlDB.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	return scanUser(row, "GetByID")
}

func (s *Store) GetBySubject(ctx context.Context, subject string) (*users.User, error) {
	row := s.sqlDB.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE subject = ?`, subject)
	return scanUser(row, "GetBySubject")
}

func (s *Store) SetRole(ctx context.Context, id string, role users.Role) error {
	return s.updateUser(ctx, "SetRole", `UPDATE users SET role = ? WHERE id = ?`, string(role), id)
}

func (s *Store) SetCompany(ctx context.Context, id, companyID string) error {
	return s.updateUser(ctx, "SetCompany", `UPDATE users SET company_id = ? WHERE id = ?`, companyID, id)
}

func (s *Store) updateUser(ctx context.Context, op, query string, args ...any) error {
	res, err := s.sqlDB.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("[sqlite Store.%s] %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("[sqlite Store.%s] rows affected: %w", op, err)
	}
	if n == 0 {
		return errors.ErrUserNotFound
	}
	return nil
}

func scanUser(row *sql.Row, op string) (*users.User, error) {
	var (
		u         users.User
		role      string
		createdAt int64
		lastLogin int64
	)
	err := row.Scan(&u.ID, &u.Subject, &u.Email, &u.Name, &u.Picture, &u.EmailVerified,
		&role, &u.CompanyID, &createdAt, &lastLogin)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errors.ErrUserNotFound
		}
		return nil, fmt.Errorf("[sqlite Store.%s] %w", op, err)
	}
	u.Role = users.Role(role)
	u.CreatedAt = fromMillis(createdAt)
	u.LastLogin = fromMillis(lastLogin)
	return &u, nil
}
