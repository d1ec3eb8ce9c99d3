package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/jrsteele09/timely-server/users"
)

var _ Authenticator = (*PasswordAuthenticator)(nil)

// PasswordAuthenticator checks passwords against hashes held by a users.Repo.
// It serves the static, file and sql backends.
type PasswordAuthenticator struct {
	repo users.Repo
}

func NewPasswordAuthenticator(repo users.Repo) (*PasswordAuthenticator, error) {
	if repo == nil {
		return nil, errors.New("[NewPasswordAuthenticator] users repo is required")
	}
	return &PasswordAuthenticator{repo: repo}, nil
}

// Authenticate looks the user up and verifies the password. An unknown user
// still pays for a hash comparison so that response timing does not reveal
// which usernames exist.
func (a *PasswordAuthenticator) Authenticate(ctx context.Context, username, password string) (Principal, error) {
	if err := ctx.Err(); err != nil {
		return Principal{}, err
	}

	user, err := a.repo.GetByUsername(ctx, username)
	switch {
	case errors.Is(err, users.ErrUserNotFound):
		users.CheckPasswordHash(password, dummyHash())
		return Principal{}, ErrInvalidCredentials
	case err != nil:
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Principal{}, ctxErr
		}
		return Principal{}, fmt.Errorf("%w: %w", ErrBackendUnavailable, err)
	}

	if !users.CheckPasswordHash(password, user.PasswordHash) || user.Disabled {
		return Principal{}, ErrInvalidCredentials
	}

	return Principal{
		Username:       user.Username,
		Authorizations: append([]string(nil), user.Authorizations...),
	}, nil
}

var (
	dummyHashOnce  sync.Once
	dummyHashValue string
)

func dummyHash() string {
	dummyHashOnce.Do(func() {
		dummyHashValue, _ = users.HashPassword("timely-dummy-password")
	})
	return dummyHashValue
}
