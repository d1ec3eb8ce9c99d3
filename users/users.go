package users

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/alexedwards/argon2id"
	"golang.org/x/crypto/bcrypt"
)

const argon2idPrefix = "$argon2id$"

// User is a credential record held by a credential backend.
type User struct {
	Username       string   `json:"username" yaml:"username"`             // Login name
	PasswordHash   string   `json:"-" yaml:"password_hash"`               // bcrypt or argon2id hash - never serialize to clients
	Authorizations []string `json:"authorizations" yaml:"authorizations"` // Backing store authorizations granted to the user
	Disabled       bool     `json:"disabled,omitempty" yaml:"disabled"`   // Disabled users can never log in
}

// Clone returns a deep copy so callers cannot mutate repository state.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	c := *u
	c.Authorizations = append([]string(nil), u.Authorizations...)
	return &c
}

// MinPasswordLength is the shortest password hash-password accepts without
// --allow-weak.
const MinPasswordLength = 8

// ErrWeakPassword is returned by ValidatePasswordStrength.
var ErrWeakPassword = errors.New("weak password")

// ValidatePasswordStrength rejects passwords shorter than MinPasswordLength or
// missing any of an upper case letter, a lower case letter and a digit.
func ValidatePasswordStrength(password string) error {
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return fmt.Errorf("%w: fewer than %d characters", ErrWeakPassword, MinPasswordLength)
	}

	var missing []string
	if !strings.ContainsFunc(password, unicode.IsUpper) {
		missing = append(missing, "an upper case letter")
	}
	if !strings.ContainsFunc(password, unicode.IsLower) {
		missing = append(missing, "a lower case letter")
	}
	if !strings.ContainsFunc(password, unicode.IsDigit) {
		missing = append(missing, "a digit")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrWeakPassword, strings.Join(missing, ", "))
	}
	return nil
}

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

func HashPasswordArgon2id(password string) (string, error) {
	return argon2id.CreateHash(password, argon2id.DefaultParams)
}

// CheckPasswordHash compares a password with a bcrypt or argon2id hash.
// A malformed hash never matches.
func CheckPasswordHash(password, hash string) bool {
	if strings.HasPrefix(hash, argon2idPrefix) {
		match, err := argon2id.ComparePasswordAndHash(password, hash)
		return err == nil && match
	}
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}
