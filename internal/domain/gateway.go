package domain

import "context"

// ChatRequest is sent to the remote AI chat API
type ChatRequest struct {
	SpaceID string `json:"spaceId"`
	Message string `json:"message"`
	AIModel string `json:"aiModel"`
}

// ChatReply is the AI response to a chat message
type ChatReply struct {
	Message string   `json:"message"`
	Sources []Source `json:"sources,omitempty"`
}

// ChatGateway forwards messages to the remote AI chat API. Transport and
// HTTP failures are returned wrapping ErrUpstreamUnavailable.
type ChatGateway interface {
	SendMessage(ctx context.Context, req ChatRequest) (*ChatReply, error)
	GetHistory(ctx context.Context, spaceID string) ([]Message, error)
}

// ShareLink is the remote response to a share link request
type ShareLink struct {
	URL       string `json:"url"`
	Token     string `json:"token"`
	ExpiresAt string `json:"expiresAt"`
}

// SpaceGateway forwards space mutations to the remote space API. Every
// failure is returned to the caller.
type SpaceGateway interface {
	UpdateSettings(ctx context.Context, spaceID string, settings SpaceSettings) error
	GenerateShareLink(ctx context.Context, spaceID string, ttlHours int) (*ShareLink, error)
	SendInviteEmail(ctx context.Context, spaceID, email string, role MemberRole) error
}
