package users

import (
	"context"
	"fmt"
	"sync"
)

var _ Repo = (*InMemoryRepo)(nil)

// InMemoryRepo is a static credential list.
type InMemoryRepo struct {
	mu    sync.RWMutex
	users map[string]*User
}

func NewInMemoryRepo(users ...*User) (*InMemoryRepo, error) {
	r := &InMemoryRepo{users: make(map[string]*User, len(users))}
	for _, u := range users {
		if err := r.Upsert(u); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *InMemoryRepo) Upsert(user *User) error {
	if user == nil || user.Username == "" {
		return fmt.Errorf("username is required")
	}
	if user.PasswordHash == "" {
		return fmt.Errorf("password hash is required for user %q", user.Username)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[user.Username] = user.Clone()
	return nil
}

func (r *InMemoryRepo) GetByUsername(_ context.Context, username string) (*User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.users[username]
	if !ok {
		return nil, ErrUserNotFound
	}
	return user.Clone(), nil
}

func (r *InMemoryRepo) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.users)
}
