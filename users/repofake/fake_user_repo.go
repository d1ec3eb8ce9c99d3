package fakeuserrepo

import (
	"context"
	"sync"

	"github.com/jrsteele09/timely-server/users"
)

var _ users.Repo = (*FakeUserRepo)(nil)

// FakeUserRepo is a test double that can simulate a failing backend.
type FakeUserRepo struct {
	users map[string]*users.User
	lock  sync.RWMutex
	err   error
	calls int
}

func NewFakeUserRepo(us ...*users.User) *FakeUserRepo {
	r := &FakeUserRepo{users: make(map[string]*users.User)}
	for _, u := range us {
		r.users[u.Username] = u.Clone()
	}
	return r
}

// FailWith makes every subsequent lookup return err. Pass nil to recover.
func (ur *FakeUserRepo) FailWith(err error) {
	ur.lock.Lock()
	defer ur.lock.Unlock()
	ur.err = err
}

func (ur *FakeUserRepo) GetByUsername(_ context.Context, username string) (*users.User, error) {
	ur.lock.Lock()
	defer ur.lock.Unlock()

	ur.calls++
	if ur.err != nil {
		return nil, ur.err
	}
	u, ok := ur.users[username]
	if !ok {
		return nil, users.ErrUserNotFound
	}
	return u.Clone(), nil
}

// Calls reports how many lookups were made.
func (ur *FakeUserRepo) Calls() int {
	ur.lock.RLock()
	defer ur.lock.RUnlock()
	return ur.calls
}
