package federation

import (
	"context"
	"errors"
	"fmt"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	auth "github.com/Pisol00/jobsdb-backend"
)

// GoogleConfig defines a public type used by the authentication module APIs.
//
// GoogleConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type GoogleConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

// GoogleProvider runs the Google OIDC authorization-code flow and converts
// the verified ID token into the engine's [auth.ExternalIdentity].
type GoogleProvider struct {
	oauthConfig *oauth2.Config
	verifier    *oidc.IDTokenVerifier
}

// NewGoogleProvider describes the newgoogleprovider operation and its observable behavior.
//
// NewGoogleProvider may return an error when input validation, dependency calls, or security checks fail.
// NewGoogleProvider does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func NewGoogleProvider(ctx context.Context, cfg GoogleConfig) (*GoogleProvider, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, errors.New("google client credentials required")
	}
	if cfg.RedirectURL == "" {
		return nil, errors.New("google redirect url required")
	}

	provider, err := oidc.NewProvider(ctx, "https://accounts.google.com")
	if err != nil {
		return nil, fmt.Errorf("oidc provider: %w", err)
	}

	return &GoogleProvider{
		oauthConfig: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Endpoint:     google.Endpoint,
			Scopes:       []string{oidc.ScopeOpenID, "profile", "email"},
		},
		verifier: provider.Verifier(&oidc.Config{ClientID: cfg.ClientID}),
	}, nil
}

// AuthURL builds the consent-screen redirect carrying the caller's state
// and nonce. Both must be single-use values bound to the caller session.
func (p *GoogleProvider) AuthURL(state string, nonce string) string {
	return p.oauthConfig.AuthCodeURL(
		state,
		oauth2.AccessTypeOnline,
		oauth2.SetAuthURLParam("prompt", "select_account"),
		oauth2.SetAuthURLParam("nonce", nonce),
	)
}

// Exchange redeems the authorization code, verifies the returned ID token
// including the nonce, and extracts the asserted profile.
//
// Exchange may return an error when input validation, dependency calls, or security checks fail.
// Exchange does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (p *GoogleProvider) Exchange(ctx context.Context, code string, nonce string) (auth.ExternalIdentity, error) {
	var identity auth.ExternalIdentity

	token, err := p.oauthConfig.Exchange(ctx, code)
	if err != nil {
		return identity, fmt.Errorf("code exchange: %w", err)
	}

	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok || rawIDToken == "" {
		return identity, errors.New("token response missing id_token")
	}

	idToken, err := p.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return identity, fmt.Errorf("verify id token: %w", err)
	}
	if nonce != "" && idToken.Nonce != nonce {
		return identity, errors.New("id token nonce mismatch")
	}

	var claims struct {
		Subject       string `json:"sub"`
		Email         string `json:"email"`
		EmailVerified bool   `json:"email_verified"`
		Name          string `json:"name"`
		Picture       string `json:"picture"`
	}
	if err := idToken.Claims(&claims); err != nil {
		return identity, fmt.Errorf("decode claims: %w", err)
	}
	if !claims.EmailVerified {
		return identity, errors.New("google account email not verified")
	}

	return auth.ExternalIdentity{
		Provider:     auth.ProviderGoogle,
		ProviderID:   claims.Subject,
		Email:        claims.Email,
		FullName:     claims.Name,
		ProfileImage: claims.Picture,
	}, nil
}
