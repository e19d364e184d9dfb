// Package identity implements the sign-in bridging flow: it resolves an
// external OAuth identity to the canonical backend user id, creating the
// backend user record on first login. Every session must carry a real
// backend-verified id or no session is created at all.
package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrIncompleteProfile means the OAuth profile lacked an email or an
	// external account id; the flow fails before any network call.
	ErrIncompleteProfile = errors.New("incomplete external profile")

	// ErrMissingCanonicalID means the user service answered success but the
	// payload carried no external_auth_id. The sign-in fails closed; no
	// fallback identity is ever fabricated.
	ErrMissingCanonicalID = errors.New("user service response missing canonical id")
)

// ExternalProfile is what the OAuth provider knows about the user. Provider
// may be a raw identifier (e.g. azure-ad); Bridge normalizes it.
type ExternalProfile struct {
	Provider   string
	ExternalID string
	Email      string
	Name       string
	Picture    string
}

// BackendUser is the user service's view of a user. ExternalAuthID is the
// canonical id every session and backend token is keyed on.
type BackendUser struct {
	ExternalAuthID    string `json:"external_auth_id"`
	AuthProvider      string `json:"auth_provider"`
	Email             string `json:"email"`
	FirstName         string `json:"first_name"`
	LastName          string `json:"last_name"`
	PreferredProvider string `json:"preferred_provider"`
	ProfileImageURL   string `json:"profile_image_url,omitempty"`
}

// CreateUser is the payload for first-login user creation.
type CreateUser struct {
	ExternalAuthID    string `json:"external_auth_id"`
	AuthProvider      string `json:"auth_provider"`
	Email             string `json:"email"`
	FirstName         string `json:"first_name"`
	LastName          string `json:"last_name"`
	PreferredProvider string `json:"preferred_provider"`
	ProfileImageURL   string `json:"profile_image_url,omitempty"`
}

// Directory is the slice of the user service the bridging flow needs.
type Directory interface {
	Exists(ctx context.Context, email, provider string) (bool, error)
	GetByEmailProvider(ctx context.Context, email, provider string) (*BackendUser, error)
	Create(ctx context.Context, req CreateUser) (*BackendUser, error)
}

// BoundIdentity is the terminal state of a successful sign-in: the external
// identity bound to its canonical backend user id.
type BoundIdentity struct {
	UserID         string
	Provider       string
	ProviderUserID string
	Email          string
	Name           string
}

// Bridger runs the lookup / fetch-or-create sequence against the user
// service.
type Bridger struct {
	dir Directory
}

func NewBridger(dir Directory) *Bridger {
	return &Bridger{dir: dir}
}

// Bridge resolves the canonical backend user for the given external profile.
// The existence check runs before any create, so a sequential repeat sign-in
// for the same identity never issues a duplicate create. Two concurrent
// first sign-ins may both observe "does not exist"; de-duplication of that
// race belongs to the user service.
func (b *Bridger) Bridge(ctx context.Context, p ExternalProfile) (*BoundIdentity, error) {
	if p.Email == "" || p.ExternalID == "" {
		return nil, ErrIncompleteProfile
	}
	provider := NormalizeProvider(p.Provider)

	exists, err := b.dir.Exists(ctx, p.Email, provider)
	if err != nil {
		return nil, fmt.Errorf("user lookup: %w", err)
	}

	var u *BackendUser
	if exists {
		u, err = b.dir.GetByEmailProvider(ctx, p.Email, provider)
		if err != nil {
			return nil, fmt.Errorf("user fetch: %w", err)
		}
	} else {
		first, last := splitName(p.Name)
		u, err = b.dir.Create(ctx, CreateUser{
			ExternalAuthID:    p.ExternalID,
			AuthProvider:      provider,
			Email:             p.Email,
			FirstName:         first,
			LastName:          last,
			PreferredProvider: provider,
			ProfileImageURL:   p.Picture,
		})
		if err != nil {
			return nil, fmt.Errorf("user create: %w", err)
		}
	}

	if u == nil || u.ExternalAuthID == "" {
		return nil, ErrMissingCanonicalID
	}

	return &BoundIdentity{
		UserID:         u.ExternalAuthID,
		Provider:       provider,
		ProviderUserID: p.ExternalID,
		Email:          p.Email,
		Name:           p.Name,
	}, nil
}

// splitName divides a display name into first/last on the first space.
// An absent name yields empty strings rather than an error.
func splitName(name string) (string, string) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ""
	}
	if i := strings.Index(name, " "); i >= 0 {
		return name[:i], strings.TrimSpace(name[i+1:])
	}
	return name, ""
}
