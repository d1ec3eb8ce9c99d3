package server

import (
	"context"
	"fmt"
	"io"

	"github.com/rs/zerolog/log"

	"github.com/jrsteele09/timely-server/auth"
	"github.com/jrsteele09/timely-server/auth/directory"
	"github.com/jrsteele09/timely-server/internal/config"
	"github.com/jrsteele09/timely-server/users"
	"github.com/jrsteele09/timely-server/users/reposql"
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// NewAuthenticator builds the credential backend selected by auth.backend.
// The returned closer releases backend resources and is never nil.
func NewAuthenticator(ctx context.Context, cfg config.CredentialsConfig) (auth.Authenticator, io.Closer, error) {
	backend := cfg.GetCredentialBackend()

	switch backend {
	case config.BackendStatic:
		staticUsers, err := cfg.GetStaticUsers()
		if err != nil {
			return nil, nil, fmt.Errorf("[NewAuthenticator] static users: %w", err)
		}
		list := make([]*users.User, 0, len(staticUsers))
		for _, su := range staticUsers {
			list = append(list, &users.User{
				Username:       su.Username,
				PasswordHash:   su.PasswordHash,
				Authorizations: su.Authorizations,
			})
		}
		repo, err := users.NewInMemoryRepo(list...)
		if err != nil {
			return nil, nil, fmt.Errorf("[NewAuthenticator] static users: %w", err)
		}
		log.Info().Str("backend", backend).Int("users", repo.Len()).Msg("credential backend ready")
		return passwordAuthenticator(repo, nopCloser{})

	case config.BackendFile:
		repo, err := users.LoadFile(cfg.GetCredentialsFile())
		if err != nil {
			return nil, nil, fmt.Errorf("[NewAuthenticator] %w", err)
		}
		log.Info().Str("backend", backend).Str("path", cfg.GetCredentialsFile()).Int("users", repo.Len()).Msg("credential backend ready")
		return passwordAuthenticator(repo, nopCloser{})

	case config.BackendSQL:
		repo, err := reposql.Open(ctx, cfg.GetSQLDriver(), cfg.GetSQLDSN())
		if err != nil {
			return nil, nil, fmt.Errorf("[NewAuthenticator] %w", err)
		}
		if err := repo.Migrate(ctx); err != nil {
			_ = repo.Close()
			return nil, nil, fmt.Errorf("[NewAuthenticator] %w", err)
		}
		log.Info().Str("backend", backend).Str("driver", cfg.GetSQLDriver()).Msg("credential backend ready")
		return passwordAuthenticator(repo, repo)

	case config.BackendOIDC:
		settings := cfg.GetOIDC()
		a, err := directory.New(ctx, directory.Config{
			Issuer:        settings.Issuer,
			ClientID:      settings.ClientID,
			ClientSecret:  settings.ClientSecret,
			Scopes:        settings.Scopes,
			UsernameClaim: settings.UsernameClaim,
			GroupsClaim:   settings.GroupsClaim,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("[NewAuthenticator] %w", err)
		}
		log.Info().Str("backend", backend).Str("issuer", settings.Issuer).Msg("credential backend ready")
		return a, nopCloser{}, nil
	}

	return nil, nil, fmt.Errorf("[NewAuthenticator] unknown credential backend %q", backend)
}

func passwordAuthenticator(repo users.Repo, closer io.Closer) (auth.Authenticator, io.Closer, error) {
	a, err := auth.NewPasswordAuthenticator(repo)
	if err != nil {
		_ = closer.Close()
		return nil, nil, err
	}
	return a, closer, nil
}
