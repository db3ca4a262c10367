package gateway

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/dafibh/spaces/spaces-backend/internal/domain"
)

// ChatClient implements domain.ChatGateway against the remote AI chat API
type ChatClient struct {
	c *client
}

var _ domain.ChatGateway = (*ChatClient)(nil)

// NewChatClient creates a chat gateway
func NewChatClient(cfg Config) (*ChatClient, error) {
	c, err := newClient(cfg)
	if err != nil {
		return nil, err
	}
	return &ChatClient{c: c}, nil
}

// SendMessage posts the user message and returns the AI reply
func (g *ChatClient) SendMessage(ctx context.Context, req domain.ChatRequest) (*domain.ChatReply, error) {
	var reply domain.ChatReply
	if err := g.c.do(ctx, http.MethodPost, "/chat", req, &reply); err != nil {
		return nil, err
	}
	if reply.Message == "" {
		return nil, fmt.Errorf("%w: empty chat reply", domain.ErrUpstreamUnavailable)
	}
	return &reply, nil
}

// GetHistory fetches the remote message history of a space
func (g *ChatClient) GetHistory(ctx context.Context, spaceID string) ([]domain.Message, error) {
	var history []domain.Message
	path := "/chat/" + url.PathEscape(spaceID) + "/history"
	if err := g.c.do(ctx, http.MethodGet, path, nil, &history); err != nil {
		return nil, err
	}
	if history == nil {
		history = []domain.Message{}
	}
	return history, nil
}
