package fakeuserrepo

import (
	"context"
	"sync"

	"github.com/google/uuid"
	autherrors "github.com/jrsteele09/smartbill-auth/internal/errors"
	"github.com/jrsteele09/smartbill-auth/users"
)

var _ users.UserRepo = (*FakeUserRepo)(nil)

type FakeUserRepo struct {
	users      map[string]*users.User
	subjectIDs map[string]string // provider subject to user id
	lock       sync.RWMutex
}

func NewFakeUserRepo() *FakeUserRepo {
	return &FakeUserRepo{
		users:      make(map[string]*users.User),
		subjectIDs: make(map[string]string),
	}
}

func (ur *FakeUserRepo) Upsert(_ context.Context, user *users.User) error {
	ur.lock.Lock()
	defer ur.lock.Unlock()

	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	stored := *user
	ur.users[user.ID] = &stored
	ur.subjectIDs[user.Subject] = user.ID
	return nil
}

func (ur *FakeUserRepo) GetByID(_ context.Context, id string) (*users.User, error) {
	ur.lock.RLock()
	defer ur.lock.RUnlock()

	u, ok := ur.users[id]
	if !ok {
		return nil, autherrors.ErrUserNotFound
	}
	copied := *u
	return &copied, nil
}

func (ur *FakeUserRepo) GetBySubject(ctx context.Context, subject string) (*users.User, error) {
	ur.lock.RLock()
	id, ok := ur.subjectIDs[subject]
	ur.lock.RUnlock()
	if !ok {
		return nil, autherrors.ErrUserNotFound
	}
	return ur.GetByID(ctx, id)
}

func (ur *FakeUserRepo) SetRole(_ context.Context, id string, role users.Role) error {
	ur.lock.Lock()
	defer ur.lock.Unlock()

	u, ok := ur.users[id]
	if !ok {
		return autherrors.ErrUserNotFound
	}
	u.Role = role
	return nil
}

func (ur *FakeUserRepo) SetCompany(_ context.Context, id, companyID string) error {
	ur.lock.Lock()
	defer ur.lock.Unlock()

	u, ok := ur.users[id]
	if !ok {
		return autherrors.ErrUserNotFound
	}
	u.CompanyID = companyID
	return nil
}

// Len returns the number of stored users
func (ur *FakeUserRepo) Len() int {
	ur.lock.RLock()
	defer ur.lock.RUnlock()
	return len(ur.users)
}
