package oauth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGoogleExchange(t *testing.T) {
	var gotForm map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		gotForm = map[string]string{
			"grant_type":   r.Form.Get("grant_type"),
			"code":         r.Form.Get("code"),
			"redirect_uri": r.Form.Get("redirect_uri"),
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"at","id_token":"idt","expires_in":3599}`))
	}))
	defer srv.Close()

	g := NewGoogle(GoogleConfig{ClientID: "cid", ClientSecret: "cs", TokenURL: srv.URL})
	tokens, err := g.Exchange(context.Background(), "code-1", "http://localhost/cb")
	require.NoError(t, err)

	assert.Equal(t, "authorization_code", gotForm["grant_type"])
	assert.Equal(t, "code-1", gotForm["code"])
	assert.Equal(t, "http://localhost/cb", gotForm["redirect_uri"])
	assert.Equal(t, "at", tokens.AccessToken)
	assert.Equal(t, "idt", tokens.IDToken)
}

func TestGoogleExchangeErrorCarriesBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
	}))
	defer srv.Close()

	g := NewGoogle(GoogleConfig{TokenURL: srv.URL})
	_, err := g.Exchange(context.Background(), "stale", "http://localhost/cb")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTokenExchange)
	assert.Contains(t, err.Error(), "invalid_grant")
}

func TestGoogleUserInfo(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"g-9","email":"a@b.c","name":"Alice Smith","picture":"http://img"}`))
	}))
	defer srv.Close()

	g := NewGoogle(GoogleConfig{UserInfoURL: srv.URL})
	ui, err := g.UserInfo(context.Background(), "at-xyz")
	require.NoError(t, err)

	assert.Equal(t, "Bearer at-xyz", gotAuth)
	assert.Equal(t, "g-9", ui.ID)
	assert.Equal(t, "Alice Smith", ui.Name)
}

func TestMicrosoftUserInfoFallsBackToUPN(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/me", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"ms-7","displayName":"Mona Lisa","mail":"","userPrincipalName":"mona@corp.example"}`))
	}))
	defer srv.Close()

	m := NewMicrosoft(MicrosoftConfig{TenantID: "tenant-1", GraphURL: srv.URL})
	ui, err := m.UserInfo(context.Background(), "at")
	require.NoError(t, err)

	assert.Equal(t, "mona@corp.example", ui.Email)
	assert.Equal(t, "Mona Lisa", ui.Name)
}

func TestGoogleAuthCodeURL(t *testing.T) {
	g := NewGoogle(GoogleConfig{ClientID: "cid"})
	u := g.AuthCodeURL("state-1", "http://localhost/cb")

	assert.Contains(t, u, defaultGoogleAuthURL)
	assert.Contains(t, u, "client_id=cid")
	assert.Contains(t, u, "state=state-1")
	assert.Contains(t, u, "response_type=code")
	assert.Contains(t, u, "redirect_uri=http%3A%2F%2Flocalhost%2Fcb")
}

func TestMicrosoftDefaults(t *testing.T) {
	m := NewMicrosoft(MicrosoftConfig{TenantID: "tenant-1"})
	assert.Equal(t, "azure-ad", m.Name())
	assert.Contains(t, m.Issuer(), "tenant-1")
	assert.Contains(t, m.cfg.TokenURL, "tenant-1")
}
