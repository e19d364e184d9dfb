// Package shipments is the typed client for the shipment-tracking service.
package shipments

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

type Package struct {
	ID             string     `json:"id"`
	Carrier        string     `json:"carrier"`
	TrackingNumber string     `json:"tracking_number"`
	Status         string     `json:"status"`
	ETA            *time.Time `json:"eta,omitempty"`
}

type TrackingEvent struct {
	Timestamp   time.Time `json:"timestamp"`
	Location    string    `json:"location,omitempty"`
	Description string    `json:"description"`
}

func (c *Client) ListPackages(ctx context.Context) ([]Package, error) {
	return gateway.Call[[]Package](ctx, c.gw, "/api/v1/shipments/packages", gateway.Options{})
}

type addRequest struct {
	Carrier        string `json:"carrier"`
	TrackingNumber string `json:"tracking_number"`
}

func (c *Client) AddPackage(ctx context.Context, carrier, trackingNumber string) (*Package, error) {
	out, err := gateway.Call[Package](ctx, c.gw, "/api/v1/shipments/packages", gateway.Options{
		Method: http.MethodPost,
		Body:   addRequest{Carrier: carrier, TrackingNumber: trackingNumber},
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Events returns the tracking history of a package.
func (c *Client) Events(ctx context.Context, packageID string) ([]TrackingEvent, error) {
	return gateway.Call[[]TrackingEvent](ctx, c.gw, "/api/v1/shipments/packages/"+url.PathEscape(packageID)+"/events", gateway.Options{})
}

func (c *Client) Carriers(ctx context.Context) ([]string, error) {
	return gateway.Call[[]string](ctx, c.gw, "/api/v1/shipments/carriers", gateway.Options{})
}
