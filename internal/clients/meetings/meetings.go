// Package meetings is the typed client for the meeting-poll and booking
// service.
package meetings

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

type Slot struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

type Poll struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Status string `json:"status"` // open | scheduled | closed
	Slots  []Slot `json:"slots"`
}

type Booking struct {
	ID      string    `json:"id"`
	Title   string    `json:"title"`
	Start   time.Time `json:"start"`
	End     time.Time `json:"end"`
	Invitee string    `json:"invitee"`
}

func (c *Client) ListPolls(ctx context.Context) ([]Poll, error) {
	return gateway.Call[[]Poll](ctx, c.gw, "/api/v1/meetings/polls", gateway.Options{})
}

func (c *Client) CreatePoll(ctx context.Context, p Poll) (*Poll, error) {
	out, err := gateway.Call[Poll](ctx, c.gw, "/api/v1/meetings/polls", gateway.Options{
		Method: http.MethodPost,
		Body:   p,
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

type respondRequest struct {
	SlotIndexes []int  `json:"slot_indexes"`
	Comment     string `json:"comment,omitempty"`
}

// Respond records a participant's availability for a poll.
func (c *Client) Respond(ctx context.Context, pollID string, slotIndexes []int, comment string) (*Poll, error) {
	out, err := gateway.Call[Poll](ctx, c.gw, "/api/v1/meetings/polls/"+url.PathEscape(pollID)+"/respond", gateway.Options{
		Method: http.MethodPost,
		Body:   respondRequest{SlotIndexes: slotIndexes, Comment: comment},
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListBookings(ctx context.Context) ([]Booking, error) {
	return gateway.Call[[]Booking](ctx, c.gw, "/api/v1/bookings", gateway.Options{})
}
