package fakeuserrepo

import (
	"context"
	"strings"
	"sync"

	"github.com/cleanhq/cleaner/users"
)

var _ users.UserRepo = (*FakeUserRepo)(nil)

type FakeUserRepo struct {
	users    map[string]*users.User
	emailIds map[string]string // email to user id
	lock     sync.RWMutex
}

func NewFakeUserRepo() *FakeUserRepo {
	return &FakeUserRepo{
		users:    make(map[string]*users.User),
		emailIds: make(map[string]string),
	}
}

func (ur *FakeUserRepo) Create(_ context.Context, user *users.User) error {
	ur.lock.Lock()
	defer ur.lock.Unlock()

	email := strings.ToLower(user.Email)
	if _, ok := ur.emailIds[email]; ok {
		return users.ErrEmailTaken
	}
	ur.users[user.ID] = user
	ur.emailIds[email] = user.ID
	return nil
}

func (ur *FakeUserRepo) Update(_ context.Context, user *users.User) error {
	ur.lock.Lock()
	defer ur.lock.Unlock()

	existing, ok := ur.users[user.ID]
	if !ok {
		return users.ErrUserNotFound
	}
	delete(ur.emailIds, strings.ToLower(existing.Email))
	ur.users[user.ID] = user
	ur.emailIds[strings.ToLower(user.Email)] = user.ID
	return nil
}

func (ur *FakeUserRepo) GetByID(_ context.Context, id string) (*users.User, error) {
	ur.lock.RLock()
	defer ur.lock.RUnlock()

	user, ok := ur.users[id]
	if !ok {
		return nil, users.ErrUserNotFound
	}
	return user, nil
}

func (ur *FakeUserRepo) GetByEmail(_ context.Context, email string) (*users.User, error) {
	ur.lock.RLock()
	defer ur.lock.RUnlock()

	id, ok := ur.emailIds[strings.ToLower(email)]
	if !ok {
		return nil, users.ErrUserNotFound
	}
	return ur.users[id], nil
}
