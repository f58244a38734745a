package users

import "context"

// UserRepo stores user records. Lookups of unknown users return errors.ErrUserNotFound.
type UserRepo interface {
	Upsert(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id string) (*User, error)
	GetBySubject(ctx context.Context, subject string) (*User, error)
	SetRole(ctx context.Context, id string, role Role) error
	SetCompany(ctx context.Context, id, companyID string) error
}
