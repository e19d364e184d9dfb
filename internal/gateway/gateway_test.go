package gateway

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDoJSONErrorMessageExtracted(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"message":"Not Found"}`))
	}))
	defer srv.Close()

	c := New(srv.URL)
	_, err := c.Get(context.Background(), "/api/v1/user/me")
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
	assert.Equal(t, "Not Found", err.Error())
}

func TestDoNonJSONErrorUsesRawBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("oops"))
	}))
	defer srv.Close()

	c := New(srv.URL)
	_, err := c.Get(context.Background(), "/api/v1/drafts")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Gateway Error (500): oops")

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusInternalServerError, apiErr.Status)
}

func TestGetNeverSendsBody(t *testing.T) {
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotBody, _ = io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := New(srv.URL)
	_, err := c.Do(context.Background(), "/api/v1/packages", Options{Body: map[string]string{"k": "v"}})
	require.NoError(t, err)
	assert.Empty(t, gotBody)
}

func TestDoTextResponseReturnsString(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte("hello"))
	}))
	defer srv.Close()

	c := New(srv.URL)
	got, err := c.Get(context.Background(), "/api/v1/ping")
	require.NoError(t, err)
	assert.Equal(t, "hello", got)
}

func TestDoMissingContentTypeTreatedAsText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// suppress Go's content-type sniffing so no header is sent
		w.Header()["Content-Type"] = nil
		_, _ = w.Write([]byte(`{"looks":"like json"}`))
	}))
	defer srv.Close()

	c := New(srv.URL)
	got, err := c.Get(context.Background(), "/api/v1/raw")
	require.NoError(t, err)
	assert.Equal(t, `{"looks":"like json"}`, got)
}

func TestDoParsesJSONBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		_, _ = w.Write([]byte(`{"id":"d1","subject":"hi"}`))
	}))
	defer srv.Close()

	c := New(srv.URL)
	got, err := c.Get(context.Background(), "/api/v1/drafts/d1")
	require.NoError(t, err)

	m, ok := got.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "d1", m["id"])
}

func TestDoInjectsBearerFromTokenSource(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := New(srv.URL, WithTokenSource(func(ctx context.Context) (string, error) {
		return "tok-123", nil
	}))
	_, err := c.Get(context.Background(), "/api/v1/user/me")
	require.NoError(t, err)
	assert.Equal(t, "Bearer tok-123", gotAuth)
}

func TestDoEmptyTokenMeansUnauthenticated(t *testing.T) {
	var sawAuth bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, sawAuth = r.Header["Authorization"]
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := New(srv.URL, WithTokenSource(func(ctx context.Context) (string, error) {
		return "", nil
	}))
	_, err := c.Get(context.Background(), "/api/v1/public")
	require.NoError(t, err)
	assert.False(t, sawAuth)
}

func TestDoCallerHeadersWinOnCollision(t *testing.T) {
	var gotCT, gotKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotCT = r.Header.Get("Content-Type")
		gotKey = r.Header.Get("X-API-Key")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := New(srv.URL, WithAPIKey("default-key"))
	_, err := c.Do(context.Background(), "/api/v1/upload", Options{
		Method: http.MethodPost,
		Body:   map[string]string{"a": "b"},
		Headers: map[string]string{
			"Content-Type": "application/x-ndjson",
			"X-API-Key":    "caller-key",
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "application/x-ndjson", gotCT)
	assert.Equal(t, "caller-key", gotKey)
}

func TestDoTransportErrorHasNoStatus(t *testing.T) {
	// port reserved then closed: connection refused
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	c := New(srv.URL)
	_, err := c.Get(context.Background(), "/api/v1/anything")
	require.Error(t, err)

	var terr *TransportError
	require.True(t, errors.As(err, &terr))
	var apiErr *APIError
	assert.False(t, errors.As(err, &apiErr))
}

func TestDoRejectsNonRelativeEndpoint(t *testing.T) {
	c := New("http://localhost:1")
	_, err := c.Get(context.Background(), "api/v1/no-leading-slash")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "relative path")
}

func TestCallDecodesTypedResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"exists":true}`))
	}))
	defer srv.Close()

	type existsResponse struct {
		Exists bool `json:"exists"`
	}
	c := New(srv.URL)
	got, err := Call[existsResponse](context.Background(), c, "/api/v1/users/exists", Options{
		Method: http.MethodPost,
		Body:   map[string]string{"email": "a@b.c"},
	})
	require.NoError(t, err)
	assert.True(t, got.Exists)
}

func TestDialStreamDerivesWsScheme(t *testing.T) {
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		mt, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		_ = conn.WriteMessage(mt, msg)
	}))
	defer srv.Close()

	c := New(srv.URL, WithTokenSource(func(ctx context.Context) (string, error) {
		return "stream-tok", nil
	}))
	conn, resp, err := c.DialStream(context.Background(), "/api/v1/chat/stream", nil)
	require.NoError(t, err)
	defer conn.Close()
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("ping")))
	_, echoed, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, "ping", string(echoed))
}

func TestDialStreamCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := New("http://127.0.0.1:1")
	_, _, err := c.DialStream(ctx, "/api/v1/chat/stream", nil)
	require.Error(t, err)
}
