package gateway

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/dafibh/spaces/spaces-backend/internal/domain"
)

// SpaceClient implements domain.SpaceGateway against the remote space API
type SpaceClient struct {
	c *client
}

var _ domain.SpaceGateway = (*SpaceClient)(nil)

// NewSpaceClient creates a space mutation gateway
func NewSpaceClient(cfg Config) (*SpaceClient, error) {
	c, err := newClient(cfg)
	if err != nil {
		return nil, err
	}
	return &SpaceClient{c: c}, nil
}

type shareLinkRequest struct {
	ExpirationHours int `json:"expirationHours"`
}

type inviteEmailRequest struct {
	Email string            `json:"email"`
	Role  domain.MemberRole `json:"role"`
}

// UpdateSettings sends the full settings body of the space
func (g *SpaceClient) UpdateSettings(ctx context.Context, spaceID string, settings domain.SpaceSettings) error {
	return g.c.do(ctx, http.MethodPut, spacePath(spaceID, ""), settings, nil)
}

// GenerateShareLink asks the remote API for a share link valid for ttlHours
func (g *SpaceClient) GenerateShareLink(ctx context.Context, spaceID string, ttlHours int) (*domain.ShareLink, error) {
	var link domain.ShareLink
	if err := g.c.do(ctx, http.MethodPost, spacePath(spaceID, "/share"), shareLinkRequest{ExpirationHours: ttlHours}, &link); err != nil {
		return nil, err
	}
	if link.URL == "" && link.Token == "" {
		return nil, fmt.Errorf("%w: empty share link", domain.ErrUpstreamUnavailable)
	}
	return &link, nil
}

// SendInviteEmail asks the remote API to email an invite
func (g *SpaceClient) SendInviteEmail(ctx context.Context, spaceID, email string, role domain.MemberRole) error {
	return g.c.do(ctx, http.MethodPost, spacePath(spaceID, "/invite"), inviteEmailRequest{Email: email, Role: role}, nil)
}

func spacePath(spaceID, suffix string) string {
	return "/spaces/" + url.PathEscape(spaceID) + suffix
}
