// Package chat is the typed client for the chat service.
package chat

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/gorilla/websocket"

	"github.com/yeagerd/briefly-bff/internal/gateway"
)

type Client struct {
	gw *gateway.Client
}

func New(gw *gateway.Client) *Client {
	return &Client{gw: gw}
}

type Conversation struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Message struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversation_id"`
	Role           string    `json:"role"`
	Content        string    `json:"content"`
	CreatedAt      time.Time `json:"created_at"`
}

func (c *Client) ListConversations(ctx context.Context) ([]Conversation, error) {
	return gateway.Call[[]Conversation](ctx, c.gw, "/api/v1/chat/conversations", gateway.Options{})
}

func (c *Client) GetConversation(ctx context.Context, id string) (*Conversation, error) {
	conv, err := gateway.Call[Conversation](ctx, c.gw, "/api/v1/chat/conversations/"+url.PathEscape(id), gateway.Options{})
	if err != nil {
		return nil, err
	}
	return &conv, nil
}

type sendRequest struct {
	ConversationID string `json:"conversation_id,omitempty"`
	Content        string `json:"content"`
}

// SendMessage posts a user message; an empty conversation id starts a new
// conversation.
func (c *Client) SendMessage(ctx context.Context, conversationID, content string) (*Message, error) {
	msg, err := gateway.Call[Message](ctx, c.gw, "/api/v1/chat/messages", gateway.Options{
		Method: http.MethodPost,
		Body:   sendRequest{ConversationID: conversationID, Content: content},
	})
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

func (c *Client) DeleteConversation(ctx context.Context, id string) error {
	_, err := c.gw.Delete(ctx, "/api/v1/chat/conversations/"+url.PathEscape(id))
	return err
}

// Stream opens the bidirectional chat channel. Canceling ctx aborts the
// dial; the returned connection is closed by the caller.
func (c *Client) Stream(ctx context.Context, header http.Header) (*websocket.Conn, error) {
	conn, resp, err := c.gw.DialStream(ctx, "/api/v1/chat/stream", header)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	return conn, err
}
