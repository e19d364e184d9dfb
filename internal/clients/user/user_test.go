package user

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeagerd/briefly-bff/internal/gateway"
	"github.com/yeagerd/briefly-bff/internal/identity"
)

func TestExistsSendsKeyAndEmail(t *testing.T) {
	var gotKey, gotEmail, gotPath string
	var gotBody map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("X-API-Key")
		gotEmail = r.Header.Get("X-User-Email")
		gotPath = r.URL.Path
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"exists":true}`))
	}))
	defer srv.Close()

	c := New(gateway.New(srv.URL, gateway.WithAPIKey("user-key")))
	exists, err := c.Exists(context.Background(), "a@b.c", "microsoft")
	require.NoError(t, err)

	assert.True(t, exists)
	assert.Equal(t, "user-key", gotKey)
	assert.Equal(t, "a@b.c", gotEmail)
	assert.Equal(t, "/api/v1/users/exists", gotPath)
	assert.Equal(t, "microsoft", gotBody["auth_provider"])
}

func TestCreateReturnsCanonicalUser(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req identity.CreateUser
		_ = json.NewDecoder(r.Body).Decode(&req)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(identity.BackendUser{
			ExternalAuthID: req.ExternalAuthID,
			AuthProvider:   req.AuthProvider,
			Email:          req.Email,
			FirstName:      req.FirstName,
			LastName:       req.LastName,
		})
	}))
	defer srv.Close()

	c := New(gateway.New(srv.URL, gateway.WithAPIKey("user-key")))
	u, err := c.Create(context.Background(), identity.CreateUser{
		ExternalAuthID: "g-1", AuthProvider: "google", Email: "a@b.c",
		FirstName: "Alice", LastName: "Smith", PreferredProvider: "google",
	})
	require.NoError(t, err)
	assert.Equal(t, "g-1", u.ExternalAuthID)
	assert.Equal(t, "Alice", u.FirstName)
}

func TestUpstreamErrorPropagatesAsAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"message":"user service down"}`))
	}))
	defer srv.Close()

	c := New(gateway.New(srv.URL))
	_, err := c.GetByEmailProvider(context.Background(), "a@b.c", "google")
	require.Error(t, err)

	var apiErr *gateway.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusServiceUnavailable, apiErr.Status)
	assert.Equal(t, "user service down", apiErr.Message)
}
