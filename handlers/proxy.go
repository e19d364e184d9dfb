package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/yeagerd/briefly-bff/internal/gateway"
	"github.com/yeagerd/briefly-bff/pkg/logger"
)

// ProxyHandler forwards authenticated browser traffic to the chat service
// through the gateway executor. The executor attaches the service API key
// and a freshly minted bearer token for the session user.
type ProxyHandler struct {
	gw       *gateway.Client
	upgrader websocket.Upgrader
}

func NewProxyHandler(gw *gateway.Client) *ProxyHandler {
	return &ProxyHandler{
		gw: gw,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// Same-origin enforcement happens at the CORS layer.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// Register mounts the catch-all forwarder. gin does not allow a static
// route alongside a wildcard on the same prefix, so the websocket stream
// endpoint is dispatched inside Forward instead of getting its own route.
func (h *ProxyHandler) Register(rg *gin.RouterGroup) {
	rg.Any("/api/v1/*path", h.Forward)
}

func (h *ProxyHandler) Forward(c *gin.Context) {
	path := c.Param("path")
	if path == "/chat/stream" && websocket.IsWebSocketUpgrade(c.Request) {
		h.stream(c)
		return
	}

	endpoint := "/api/v1" + path
	if q := c.Request.URL.RawQuery; q != "" {
		endpoint += "?" + q
	}

	opts := gateway.Options{Method: c.Request.Method}
	if c.Request.Method != http.MethodGet && c.Request.Body != nil {
		raw, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read request body"})
			return
		}
		if len(raw) > 0 {
			opts.Body = json.RawMessage(raw)
		}
	}

	result, err := h.gw.Do(c.Request.Context(), endpoint, opts)
	if err != nil {
		var apiErr *gateway.APIError
		if errors.As(err, &apiErr) {
			c.JSON(apiErr.Status, gin.H{"error": apiErr.Message})
			return
		}
		var terr *gateway.TransportError
		if errors.As(err, &terr) {
			c.JSON(http.StatusBadGateway, gin.H{"error": "upstream unavailable"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	switch v := result.(type) {
	case nil:
		c.Status(http.StatusNoContent)
	case string:
		c.String(http.StatusOK, v)
	default:
		c.JSON(http.StatusOK, v)
	}
}

// stream bridges the browser websocket to the chat service stream. Frames
// are relayed verbatim in both directions until either side closes.
func (h *ProxyHandler) stream(c *gin.Context) {
	upstream, resp, err := h.gw.DialStream(c.Request.Context(), "/api/v1/chat/stream", nil)
	if err != nil {
		status := http.StatusBadGateway
		if resp != nil && resp.StatusCode != 0 {
			status = resp.StatusCode
		}
		logger.Errorf("chat stream dial failed: %v", err)
		c.JSON(status, gin.H{"error": "chat stream unavailable"})
		return
	}
	defer upstream.Close()

	browser, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade writes its own error response.
		return
	}
	defer browser.Close()

	errc := make(chan error, 2)
	go pump(browser, upstream, errc)
	go pump(upstream, browser, errc)
	if err := <-errc; err != nil && !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
		logger.Debugf("chat stream closed: %v", err)
	}
}

func pump(dst, src *websocket.Conn, errc chan<- error) {
	for {
		mt, msg, err := src.ReadMessage()
		if err != nil {
			errc <- err
			return
		}
		if err := dst.WriteMessage(mt, msg); err != nil {
			errc <- err
			return
		}
	}
}
