package config

import (
	apperrors "github.com/jrsteele09/timely-server/internal/errors"
)

const (
	backendKey         = "auth.backend"
	staticUsersKey     = "auth.static.users"
	credentialsFileKey = "auth.file.path"
	sqlDriverKey       = "auth.sql.driver"
	sqlDSNKey          = "auth.sql.dsn"
	oidcIssuerKey      = "auth.oidc.issuer"
	oidcClientIDKey    = "auth.oidc.client_id"
	oidcSecretKey      = "auth.oidc.client_secret"
	oidcScopesKey      = "auth.oidc.scopes"
	oidcUsernameKey    = "auth.oidc.username_claim"
	oidcGroupsKey      = "auth.oidc.groups_claim"
)

// Credential backends selectable with auth.backend.
const (
	BackendStatic = "static"
	BackendFile   = "file"
	BackendSQL    = "sql"
	BackendOIDC   = "oidc"
)

// StaticUser is a credential listed directly in the configuration file.
type StaticUser struct {
	Username       string   `koanf:"username"`
	PasswordHash   string   `koanf:"password_hash"`
	Authorizations []string `koanf:"authorizations"`
}

// OIDCSettings configures the directory (OpenID Connect) credential backend.
type OIDCSettings struct {
	Issuer        string
	ClientID      string
	ClientSecret  string
	Scopes        []string
	UsernameClaim string
	GroupsClaim   string
}

type CredentialsConfig interface {
	GetCredentialBackend() string
	GetStaticUsers() ([]StaticUser, error)
	GetCredentialsFile() string
	GetSQLDriver() string
	GetSQLDSN() string
	GetOIDC() OIDCSettings
}

type Credentials struct {
	src source
}

var _ CredentialsConfig = Credentials{}

func (c Credentials) GetCredentialBackend() string {
	return c.src.str(backendKey, BackendStatic)
}

func (c Credentials) GetStaticUsers() ([]StaticUser, error) {
	var users []StaticUser
	if err := c.src.k.Unmarshal(staticUsersKey, &users); err != nil {
		return nil, apperrors.Wrapf(err, "[Credentials.GetStaticUsers] unmarshal %s", staticUsersKey)
	}
	return users, nil
}

func (c Credentials) GetCredentialsFile() string {
	return c.src.str(credentialsFileKey, "")
}

func (c Credentials) GetSQLDriver() string {
	return c.src.str(sqlDriverKey, "postgres")
}

func (c Credentials) GetSQLDSN() string {
	return c.src.str(sqlDSNKey, "")
}

func (c Credentials) GetOIDC() OIDCSettings {
	scopes := c.src.strings(oidcScopesKey)
	if len(scopes) == 0 {
		scopes = []string{"openid", "profile"}
	}
	return OIDCSettings{
		Issuer:        c.src.str(oidcIssuerKey, ""),
		ClientID:      c.src.str(oidcClientIDKey, ""),
		ClientSecret:  c.src.str(oidcSecretKey, ""),
		Scopes:        scopes,
		UsernameClaim: c.src.str(oidcUsernameKey, "preferred_username"),
		GroupsClaim:   c.src.str(oidcGroupsKey, "groups"),
	}
}

func (c Credentials) validate() error {
	switch backend := c.GetCredentialBackend(); backend {
	case BackendStatic:
		if _, err := c.GetStaticUsers(); err != nil {
			return apperrors.Wrapf(apperrors.ErrInvalidConfig, "%s: %v", staticUsersKey, err)
		}
	case BackendFile:
		if c.GetCredentialsFile() == "" {
			return apperrors.Wrapf(apperrors.ErrInvalidConfig, "%s is required for the file backend", credentialsFileKey)
		}
	case BackendSQL:
		if c.GetSQLDSN() == "" {
			return apperrors.Wrapf(apperrors.ErrInvalidConfig, "%s is required for the sql backend", sqlDSNKey)
		}
	case BackendOIDC:
		oidc := c.GetOIDC()
		if oidc.Issuer == "" || oidc.ClientID == "" {
			return apperrors.Wrapf(apperrors.ErrInvalidConfig, "%s and %s are required for the oidc backend", oidcIssuerKey, oidcClientIDKey)
		}
	default:
		return apperrors.Wrapf(apperrors.ErrInvalidConfig, "unknown %s %q", backendKey, backend)
	}
	return nil
}
