package auth

import (
	"context"

	apperrors "github.com/jrsteele09/timely-server/internal/errors"
)

var (
	// ErrInvalidCredentials is the ordinary outcome of a wrong username or
	// password. It maps to 401 and is never retried.
	ErrInvalidCredentials = apperrors.ErrInvalidCredentials
	// ErrBackendUnavailable reports that the credential source could not be
	// consulted. It must never be reported to the client as bad credentials.
	ErrBackendUnavailable = apperrors.ErrBackendUnavailable
)

// Principal is the identity produced by a successful authentication.
type Principal struct {
	Username       string   `json:"username"`
	Authorizations []string `json:"authorizations,omitempty"`
}

// Clone returns a copy that shares no memory with p.
func (p Principal) Clone() Principal {
	p.Authorizations = append([]string(nil), p.Authorizations...)
	return p
}

// Authenticator validates a username and password against a credential
// backend. Implementations must be safe for concurrent use and must return
// an error wrapping either ErrInvalidCredentials or ErrBackendUnavailable on
// failure.
type Authenticator interface {
	Authenticate(ctx context.Context, username, password string) (Principal, error)
}

// AuthenticatorFunc adapts a function to the Authenticator interface.
type AuthenticatorFunc func(ctx context.Context, username, password string) (Principal, error)

func (f AuthenticatorFunc) Authenticate(ctx context.Context, username, password string) (Principal, error) {
	return f(ctx, username, password)
}
