package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/dafibh/spaces/spaces-backend/internal/domain"
	"github.com/dafibh/spaces/spaces-backend/internal/websocket"
	"github.com/rs/zerolog/log"
)

// ShareLinkResult is an invite issued for sharing. Fallback reports that
// the remote space API failed and the token was generated locally.
type ShareLinkResult struct {
	Invite   domain.Invite `json:"invite"`
	Fallback bool          `json:"fallback"`
}

// InviteService issues, validates and redeems invite tokens
type InviteService struct {
	repo           domain.SpaceRepository
	spaces         *SpaceService
	gateway        domain.SpaceGateway
	defaultTTL     int
	now            func() time.Time
	eventPublisher websocket.EventPublisher
}

// NewInviteService creates a new InviteService. gateway may be nil, in which
// case share links are always generated locally and invite emails fail.
func NewInviteService(repo domain.SpaceRepository, spaces *SpaceService, gateway domain.SpaceGateway, defaultTTLHours int) *InviteService {
	if defaultTTLHours <= 0 {
		defaultTTLHours = domain.DefaultInviteTTLHours
	}
	return &InviteService{
		repo:       repo,
		spaces:     spaces,
		gateway:    gateway,
		defaultTTL: defaultTTLHours,
		now:        time.Now,
	}
}

// SetEventPublisher sets the event publisher for real-time updates
func (s *InviteService) SetEventPublisher(publisher websocket.EventPublisher) {
	s.eventPublisher = publisher
}

// SetClock overrides the clock used for remote expiry defaults
func (s *InviteService) SetClock(now func() time.Time) {
	s.now = now
}

func (s *InviteService) publishEvent(spaceID string, event websocket.Event) {
	if s.eventPublisher != nil {
		s.eventPublisher.Publish(spaceID, event)
	}
}

func (s *InviteService) ttl(ttlHours int) (int, error) {
	if ttlHours == 0 {
		return s.defaultTTL, nil
	}
	if ttlHours < 0 || ttlHours > domain.MaxInviteTTLHours {
		return 0, domain.NewValidationError("invite ttl out of range", "ttlHours")
	}
	return ttlHours, nil
}

// Generate issues a local invite token, replacing the previous one.
// ttlHours of 0 uses the default.
func (s *InviteService) Generate(ctx context.Context, spaceID string, ttlHours int) (*domain.Invite, error) {
	ttl, err := s.ttl(ttlHours)
	if err != nil {
		return nil, err
	}

	invite, err := s.repo.GenerateInvite(ctx, spaceID, ttl)
	if err != nil {
		return nil, err
	}

	log.Info().Str("space_id", spaceID).Int("ttl_hours", ttl).Msg("Invite generated")
	s.publishEvent(spaceID, websocket.InviteCreated(spaceID, invite.ExpiresAt))
	return invite, nil
}

// GenerateShareLink asks the remote space API for a share link and records
// its token as the active invite. When the remote API is unavailable the
// token is generated locally and the result is flagged as a fallback.
func (s *InviteService) GenerateShareLink(ctx context.Context, spaceID string, ttlHours int) (*ShareLinkResult, error) {
	ttl, err := s.ttl(ttlHours)
	if err != nil {
		return nil, err
	}
	if _, ok := s.repo.GetByID(spaceID); !ok {
		return nil, domain.ErrSpaceNotFound
	}

	if s.gateway == nil {
		invite, err := s.Generate(ctx, spaceID, ttl)
		if err != nil {
			return nil, err
		}
		return &ShareLinkResult{Invite: *invite}, nil
	}

	invite, err := s.remoteShareLink(ctx, spaceID, ttl)
	if err == nil {
		return &ShareLinkResult{Invite: *invite}, nil
	}
	if !errors.Is(err, domain.ErrUpstreamUnavailable) {
		return nil, err
	}

	log.Warn().Err(err).Str("space_id", spaceID).Msg("Share link API unavailable, generating invite locally")
	invite, err = s.Generate(ctx, spaceID, ttl)
	if err != nil {
		return nil, err
	}
	return &ShareLinkResult{Invite: *invite, Fallback: true}, nil
}

func (s *InviteService) remoteShareLink(ctx context.Context, spaceID string, ttl int) (*domain.Invite, error) {
	link, err := s.gateway.GenerateShareLink(ctx, spaceID, ttl)
	if err != nil {
		return nil, err
	}

	token := link.Token
	if token == "" && link.URL != "" {
		if _, parsed, perr := domain.ParseInviteURL(link.URL); perr == nil {
			token = parsed
		}
	}
	if token == "" {
		return nil, fmt.Errorf("%w: share link response carries no token", domain.ErrUpstreamUnavailable)
	}

	expiresAt, perr := time.Parse(time.RFC3339, link.ExpiresAt)
	if perr != nil {
		expiresAt = s.now().Add(time.Duration(ttl) * time.Hour)
	}

	if err := s.repo.SetInvite(ctx, spaceID, domain.Invite{SpaceID: spaceID, Token: token, ExpiresAt: expiresAt}); err != nil {
		return nil, err
	}

	space, ok := s.repo.GetByID(spaceID)
	if !ok {
		return nil, domain.ErrSpaceNotFound
	}
	invite := &domain.Invite{
		SpaceID:   spaceID,
		Token:     token,
		ExpiresAt: expiresAt.UTC(),
		URL:       space.Settings.InviteURL,
	}

	log.Info().Str("space_id", spaceID).Int("ttl_hours", ttl).Msg("Share link generated remotely")
	s.publishEvent(spaceID, websocket.InviteCreated(spaceID, invite.ExpiresAt))
	return invite, nil
}

// Validate reports whether token grants entry to the space
func (s *InviteService) Validate(spaceID, token string) bool {
	return s.repo.ValidateInvite(spaceID, token)
}

// Revoke clears the active invite of the space
func (s *InviteService) Revoke(ctx context.Context, spaceID string) error {
	if err := s.repo.RevokeInvite(ctx, spaceID); err != nil {
		return err
	}
	log.Info().Str("space_id", spaceID).Msg("Invite revoked")
	s.publishEvent(spaceID, websocket.InviteRevoked(spaceID))
	return nil
}

// JoinWithToken joins the user to the space after validating the token.
// Existing members are let through without a token; public spaces accept
// an empty token.
func (s *InviteService) JoinWithToken(ctx context.Context, spaceID, userID, userName, token string) (*domain.Space, bool, error) {
	space, ok := s.repo.GetByID(spaceID)
	if !ok {
		return nil, false, domain.ErrSpaceNotFound
	}
	if space.FindMember(userID) >= 0 {
		return space, false, nil
	}
	if !s.repo.ValidateInvite(spaceID, token) {
		log.Info().Str("space_id", spaceID).Str("user_id", userID).Msg("Join refused: invalid or expired token")
		return nil, false, domain.ErrInvalidOrExpiredToken
	}
	return s.spaces.Join(ctx, spaceID, userID, userName)
}

// JoinWithURL joins the user through a shared invite URL
func (s *InviteService) JoinWithURL(ctx context.Context, rawURL, userID, userName string) (*domain.Space, bool, error) {
	spaceID, token, err := domain.ParseInviteURL(rawURL)
	if err != nil {
		return nil, false, err
	}
	return s.JoinWithToken(ctx, spaceID, userID, userName, token)
}

// SendInviteEmail asks the remote space API to email an invite. Failures
// are returned to the caller.
func (s *InviteService) SendInviteEmail(ctx context.Context, spaceID, email string, role domain.MemberRole) error {
	email = strings.TrimSpace(email)
	if _, err := mail.ParseAddress(email); err != nil {
		return domain.NewValidationError("invalid email address", "email")
	}
	if role == "" {
		role = domain.RoleMember
	}
	if !role.IsValid() || role == domain.RoleOwner {
		return domain.NewValidationError("invalid invite role", "role")
	}
	if _, ok := s.repo.GetByID(spaceID); !ok {
		return domain.ErrSpaceNotFound
	}
	if s.gateway == nil {
		return fmt.Errorf("%w: space API not configured", domain.ErrUpstreamUnavailable)
	}

	if err := s.gateway.SendInviteEmail(ctx, spaceID, email, role); err != nil {
		log.Error().Err(err).Str("space_id", spaceID).Msg("Invite email failed")
		return fmt.Errorf("send invite email: %w", err)
	}

	log.Info().Str("space_id", spaceID).Str("role", string(role)).Msg("Invite email sent")
	return nil
}
