package sessions

import (
	"github.com/google/uuid"
)

// TokenGenerator produces unguessable session tokens.
type TokenGenerator func() (string, error)

// NewToken returns a random (version 4) UUID drawn from crypto/rand.
func NewToken() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// ValidToken reports whether s has the shape of a token issued by NewToken.
func ValidToken(s string) bool {
	id, err := uuid.Parse(s)
	return err == nil && id.Version() == 4 && len(s) == 36
}
