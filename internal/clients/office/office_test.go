package office

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeagerd/briefly-bff/internal/gateway"
)

func TestListEventsEncodesWindow(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"id":"e1","title":"standup"}]`))
	}))
	defer srv.Close()

	start := time.Date(2026, 8, 31, 9, 0, 0, 0, time.UTC)
	end := start.Add(24 * time.Hour)

	c := New(gateway.New(srv.URL))
	events, err := c.ListEvents(context.Background(), start, end)
	require.NoError(t, err)

	require.Len(t, events, 1)
	assert.Equal(t, "standup", events[0].Title)
	assert.Contains(t, gotQuery, "start=2026-08-31T09%3A00%3A00Z")
}

func TestGetDraftNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"message":"Not Found"}`))
	}))
	defer srv.Close()

	c := New(gateway.New(srv.URL))
	_, err := c.GetDraft(context.Background(), "missing")
	require.Error(t, err)

	var apiErr *gateway.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
}
