// Package office is the typed client for the office service (mail drafts and
// calendar).
package office

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/yeagerd/briefly-bff/internal/gateway"
)

type Client struct {
	gw *gateway.Client
}

func New(gw *gateway.Client) *Client {
	return &Client{gw: gw}
}

type Draft struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"` // email | calendar_event
	Subject   string    `json:"subject"`
	Body      string    `json:"body"`
	To        []string  `json:"to,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Event struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Location  string    `json:"location,omitempty"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
}

func (c *Client) ListDrafts(ctx context.Context) ([]Draft, error) {
	return gateway.Call[[]Draft](ctx, c.gw, "/api/v1/office/drafts", gateway.Options{})
}

func (c *Client) GetDraft(ctx context.Context, id string) (*Draft, error) {
	d, err := gateway.Call[Draft](ctx, c.gw, "/api/v1/office/drafts/"+url.PathEscape(id), gateway.Options{})
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (c *Client) CreateDraft(ctx context.Context, d Draft) (*Draft, error) {
	out, err := gateway.Call[Draft](ctx, c.gw, "/api/v1/office/drafts", gateway.Options{
		Method: http.MethodPost,
		Body:   d,
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateDraft(ctx context.Context, id string, d Draft) (*Draft, error) {
	out, err := gateway.Call[Draft](ctx, c.gw, "/api/v1/office/drafts/"+url.PathEscape(id), gateway.Options{
		Method: http.MethodPatch,
		Body:   d,
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteDraft(ctx context.Context, id string) error {
	_, err := c.gw.Delete(ctx, "/api/v1/office/drafts/"+url.PathEscape(id))
	return err
}

// ListEvents returns calendar events in [start, end).
func (c *Client) ListEvents(ctx context.Context, start, end time.Time) ([]Event, error) {
	q := url.Values{}
	q.Set("start", start.UTC().Format(time.RFC3339))
	q.Set("end", end.UTC().Format(time.RFC3339))
	return gateway.Call[[]Event](ctx, c.gw, "/api/v1/office/calendar/events?"+q.Encode(), gateway.Options{})
}
