// Package reposql is a credential source backed by a SQL users table.
//
// The postgres (github.com/lib/pq) and sqlite (modernc.org/sqlite) drivers
// are supported; callers register the driver with a blank import.
package reposql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jrsteele09/timely-server/internal/utils"
	"github.com/jrsteele09/timely-server/users"
)

var _ users.Repo = (*Repo)(nil)

const schema = `CREATE TABLE IF NOT EXISTS timely_users (
	username       TEXT PRIMARY KEY,
	password_hash  TEXT NOT NULL,
	authorizations TEXT NOT NULL DEFAULT '',
	disabled       BOOLEAN NOT NULL DEFAULT FALSE
)`

// Repo reads users from the timely_users table.
type Repo struct {
	db     *sql.DB
	driver string
}

// Open connects to the database and verifies the connection.
func Open(ctx context.Context, driver, dsn string) (*Repo, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("[reposql Open] %s: %w", driver, err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("[reposql Open] ping: %w", err)
	}
	return New(db, driver), nil
}

// New wraps an existing connection pool.
func New(db *sql.DB, driver string) *Repo {
	return &Repo{db: db, driver: driver}
}

func (r *Repo) Close() error {
	return r.db.Close()
}

// Migrate creates the users table when it does not exist.
func (r *Repo) Migrate(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("[reposql Migrate] %w", err)
	}
	return nil
}

func (r *Repo) GetByUsername(ctx context.Context, username string) (*users.User, error) {
	query := fmt.Sprintf(
		"SELECT username, password_hash, authorizations, disabled FROM timely_users WHERE username = %s",
		r.placeholder(1),
	)

	var (
		u     users.User
		auths string
	)
	err := r.db.QueryRowContext(ctx, query, username).Scan(&u.Username, &u.PasswordHash, &auths, &u.Disabled)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, users.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("[reposql GetByUsername] %w", err)
	}
	u.Authorizations = utils.SplitList(auths)
	return &u, nil
}

// Upsert inserts or replaces a user. Used by provisioning and tests.
func (r *Repo) Upsert(ctx context.Context, u *users.User) error {
	query := fmt.Sprintf(`INSERT INTO timely_users (username, password_hash, authorizations, disabled)
VALUES (%s, %s, %s, %s)
ON CONFLICT (username) DO UPDATE SET
	password_hash = excluded.password_hash,
	authorizations = excluded.authorizations,
	disabled = excluded.disabled`,
		r.placeholder(1), r.placeholder(2), r.placeholder(3), r.placeholder(4))

	_, err := r.db.ExecContext(ctx, query, u.Username, u.PasswordHash, strings.Join(u.Authorizations, ","), u.Disabled)
	if err != nil {
		return fmt.Errorf("[reposql Upsert] %w", err)
	}
	return nil
}

func (r *Repo) placeholder(n int) string {
	if r.driver == "postgres" {
		return fmt.Sprintf("$%d", n)
	}
	return "?"
}
