package users

import (
	"context"
	"errors"
)

var ErrUserNotFound = errors.New("user not found")

// Repo is the credential source consulted on login. Implementations return
// ErrUserNotFound for unknown users and any other error for backend faults.
type Repo interface {
	GetByUsername(ctx context.Context, username string) (*User, error)
}
