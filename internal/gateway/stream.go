package gateway

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/gorilla/websocket"
)

// DialStream opens a websocket to the given endpoint, reusing the client's
// base URL with the http(s) scheme translated to its ws(s) equivalent. The
// dial aborts when ctx is canceled. No reconnection or extra framing is
// layered on top of the websocket transport.
func (c *Client) DialStream(ctx context.Context, endpoint string, header http.Header) (*websocket.Conn, *http.Response, error) {
	u, err := url.Parse(c.baseURL + endpoint)
	if err != nil {
		return nil, nil, fmt.Errorf("stream endpoint: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	}

	if header == nil {
		header = http.Header{}
	}
	if c.apiKey != "" && header.Get("X-API-Key") == "" {
		header.Set("X-API-Key", c.apiKey)
	}
	if c.tokens != nil && header.Get("Authorization") == "" {
		tok, err := c.tokens(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("resolve bearer credential: %w", err)
		}
		if tok != "" {
			header.Set("Authorization", "Bearer "+tok)
		}
	}

	return websocket.DefaultDialer.DialContext(ctx, u.String(), header)
}
