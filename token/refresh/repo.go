package refresh

import (
	"context"
	"time"
)

// StoredRefreshToken is the server-side record of an issued refresh token. Only a
// hash of the token is kept; the token itself lives with the client.
type StoredRefreshToken struct {
	ID         string    // jti of the refresh token
	FamilyID   string    // shared by every rotation of one login
	UserID     string    //
	TokenHash  string    // sha256 of the signed token
	IssuedAt   time.Time //
	ExpiresAt  time.Time //
	RevokedAt  time.Time // zero while active
	ReplacedBy string    // id of the successor after rotation
}

// Active reports whether the record can still be exchanged at now
func (rt *StoredRefreshToken) Active(now time.Time) bool {
	return rt.RevokedAt.IsZero() && now.Before(rt.ExpiresAt)
}

// Repo manages server-side storage of refresh token records.
type Repo interface {
	Insert(ctx context.Context, rt *StoredRefreshToken) error
	// Get returns errors.ErrNotFound for an unknown id
	Get(ctx context.Context, id string) (*StoredRefreshToken, error)
	// Rotate revokes oldID and inserts next in a single step. It fails with
	// errors.ErrTokenRevoked when oldID is no longer active, so two concurrent
	// rotations of the same token cannot both succeed.
	Rotate(ctx context.Context, oldID string, next *StoredRefreshToken, at time.Time) error
	// RevokeFamily revokes every active record of familyID
	RevokeFamily(ctx context.Context, familyID string, at time.Time) error
	// DeleteExpired removes records that expired before the given time
	DeleteExpired(ctx context.Context, before time.Time) (int, error)
}
