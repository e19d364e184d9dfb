// Package user is the typed client for the user service. Calls go directly
// to the service (not through the gateway) and authenticate with the
// frontend API key plus the acting user's email.
package user

import (
	"context"
	"net/http"

	"github.com/yeagerd/briefly-bff/internal/gateway"
	"github.com/yeagerd/briefly-bff/internal/identity"
)

// Client implements identity.Directory against the user service.
type Client struct {
	gw *gateway.Client
}

func New(gw *gateway.Client) *Client {
	return &Client{gw: gw}
}

type lookupRequest struct {
	Email        string `json:"email"`
	AuthProvider string `json:"auth_provider"`
}

type existsResponse struct {
	Exists bool `json:"exists"`
}

func headers(email string) map[string]string {
	return map[string]string{"X-User-Email": email}
}

// Exists reports whether a backend user exists for the email+provider pair.
func (c *Client) Exists(ctx context.Context, email, provider string) (bool, error) {
	resp, err := gateway.Call[existsResponse](ctx, c.gw, "/api/v1/users/exists", gateway.Options{
		Method:  http.MethodPost,
		Body:    lookupRequest{Email: email, AuthProvider: provider},
		Headers: headers(email),
	})
	if err != nil {
		return false, err
	}
	return resp.Exists, nil
}

// GetByEmailProvider fetches the canonical user record for the pair.
func (c *Client) GetByEmailProvider(ctx context.Context, email, provider string) (*identity.BackendUser, error) {
	u, err := gateway.Call[identity.BackendUser](ctx, c.gw, "/api/v1/users/id", gateway.Options{
		Method:  http.MethodPost,
		Body:    lookupRequest{Email: email, AuthProvider: provider},
		Headers: headers(email),
	})
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// Create registers a new backend user built from the external profile.
func (c *Client) Create(ctx context.Context, req identity.CreateUser) (*identity.BackendUser, error) {
	u, err := gateway.Call[identity.BackendUser](ctx, c.gw, "/api/v1/users", gateway.Options{
		Method:  http.MethodPost,
		Body:    req,
		Headers: headers(req.Email),
	})
	if err != nil {
		return nil, err
	}
	return &u, nil
}
