// Package contacts is the typed client for the contacts service.
package contacts

import (
	"context"
	"net/url"

	"github.com/yeagerd/briefly-bff/internal/gateway"
)

type Client struct {
	gw *gateway.Client
}

func New(gw *gateway.Client) *Client {
	return &Client{gw: gw}
}

type Contact struct {
	ID      string `json:"id"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Company string `json:"company,omitempty"`
}

func (c *Client) List(ctx context.Context) ([]Contact, error) {
	return gateway.Call[[]Contact](ctx, c.gw, "/api/v1/contacts", gateway.Options{})
}

// Search matches contacts against a free-text query.
func (c *Client) Search(ctx context.Context, query string) ([]Contact, error) {
	q := url.Values{}
	q.Set("q", query)
	return gateway.Call[[]Contact](ctx, c.gw, "/api/v1/contacts/search?"+q.Encode(), gateway.Options{})
}
