// Package oauth holds the external OAuth provider clients used during
// sign-in: authorization-code exchange and profile retrieval. Provider names
// here are the raw identifiers reported by the providers; the identity
// package normalizes them before anything is stored or transmitted.
package oauth

import (
	"context"
	"errors"
)

var (
	ErrTokenExchange = errors.New("oauth token exchange failed")
	ErrUserInfo      = errors.New("oauth userinfo request failed")
)

// Tokens is the result of a successful authorization-code exchange.
type Tokens struct {
	AccessToken  string `json:"access_token"`
	IDToken      string `json:"id_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
}

// UserInfo is the external profile as reported by the provider.
type UserInfo struct {
	ID      string
	Email   string
	Name    string
	Picture string
}

// Provider is one external OAuth identity source.
type Provider interface {
	// Name is the raw provider identifier, e.g. "google" or "azure-ad".
	Name() string
	// Issuer is the OIDC issuer URL used to verify id_tokens, empty when
	// unknown.
	Issuer() string
	// AuthCodeURL builds the authorization URL the browser is redirected to
	// at the start of the code flow.
	AuthCodeURL(state, redirectURI string) string
	Exchange(ctx context.Context, code, redirectURI string) (*Tokens, error)
	UserInfo(ctx context.Context, accessToken string) (*UserInfo, error)
}
