// Package directory authenticates users against an external OpenID Connect
// identity provider using the resource owner password credentials grant.
package directory

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"

	"github.com/jrsteele09/timely-server/auth"
	"github.com/jrsteele09/timely-server/internal/utils"
)

var _ auth.Authenticator = (*Authenticator)(nil)

// Config describes the identity provider and the claims that carry the
// username and the authorizations.
type Config struct {
	Issuer        string
	ClientID      string
	ClientSecret  string
	Scopes        []string
	UsernameClaim string
	GroupsClaim   string
	// HTTPClient is used for discovery, token and key requests. Optional.
	HTTPClient *http.Client
}

type Authenticator struct {
	oauth2Config  *oauth2.Config
	verifier      *oidc.IDTokenVerifier
	usernameClaim string
	groupsClaim   string
	httpClient    *http.Client
}

// New performs OIDC discovery against cfg.Issuer.
func New(ctx context.Context, cfg Config) (*Authenticator, error) {
	if cfg.Issuer == "" || cfg.ClientID == "" {
		return nil, errors.New("[directory New] issuer and client id are required")
	}
	if cfg.HTTPClient != nil {
		ctx = oidc.ClientContext(ctx, cfg.HTTPClient)
	}

	provider, err := oidc.NewProvider(ctx, cfg.Issuer)
	if err != nil {
		return nil, fmt.Errorf("[directory New] discovery: %w", err)
	}

	scopes := cfg.Scopes
	if len(scopes) == 0 {
		scopes = []string{oidc.ScopeOpenID}
	}
	usernameClaim := cfg.UsernameClaim
	if usernameClaim == "" {
		usernameClaim = "preferred_username"
	}

	return &Authenticator{
		oauth2Config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Endpoint:     provider.Endpoint(),
			Scopes:       scopes,
		},
		verifier:      provider.Verifier(&oidc.Config{ClientID: cfg.ClientID}),
		usernameClaim: usernameClaim,
		groupsClaim:   cfg.GroupsClaim,
		httpClient:    cfg.HTTPClient,
	}, nil
}

// Authenticate exchanges the credentials for tokens and verifies the ID token.
func (a *Authenticator) Authenticate(ctx context.Context, username, password string) (auth.Principal, error) {
	if a.httpClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, a.httpClient)
	}

	token, err := a.oauth2Config.PasswordCredentialsToken(ctx, username, password)
	if err != nil {
		return auth.Principal{}, classify(ctx, err)
	}

	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok || rawIDToken == "" {
		return auth.Principal{}, fmt.Errorf("%w: token response has no id_token", auth.ErrBackendUnavailable)
	}

	idToken, err := a.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return auth.Principal{}, fmt.Errorf("%w: verify id_token: %w", auth.ErrBackendUnavailable, err)
	}

	var claims map[string]any
	if err := idToken.Claims(&claims); err != nil {
		return auth.Principal{}, fmt.Errorf("%w: decode claims: %w", auth.ErrBackendUnavailable, err)
	}

	principal := auth.Principal{Username: idToken.Subject}
	if name, ok := claims[a.usernameClaim].(string); ok && name != "" {
		principal.Username = name
	}
	if a.groupsClaim != "" {
		principal.Authorizations = utils.ToStringSlice(claims[a.groupsClaim])
	}
	return principal, nil
}

// classify separates rejected credentials from an unhealthy or misconfigured
// provider. Only invalid_grant concerns the user's credentials; errors such
// as invalid_client reject this server's own client registration.
func classify(ctx context.Context, err error) error {
	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) && retrieveErr.ErrorCode == "invalid_grant" {
		return auth.ErrInvalidCredentials
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return fmt.Errorf("%w: %w", auth.ErrBackendUnavailable, err)
}
