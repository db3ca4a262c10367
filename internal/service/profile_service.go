package service

import (
	"context"
	"strings"

	"github.com/dafibh/spaces/spaces-backend/internal/domain"
	"github.com/rs/zerolog/log"
)

// ProfileService handles the cached current user
type ProfileService struct {
	repo domain.SpaceRepository
}

// NewProfileService creates a new ProfileService
func NewProfileService(repo domain.SpaceRepository) *ProfileService {
	return &ProfileService{repo: repo}
}

// GetProfile returns the cached current user, or nil when none is cached
func (s *ProfileService) GetProfile() *domain.User {
	return s.repo.CurrentUser()
}

// UpdateProfile caches the user and copies its display fields into every
// space snapshot that refers to it. It returns the number of spaces changed.
func (s *ProfileService) UpdateProfile(ctx context.Context, user domain.User) (*domain.User, int, error) {
	user.Name = strings.TrimSpace(user.Name)
	if strings.TrimSpace(user.ID) == "" {
		return nil, 0, domain.NewValidationError("missing required fields", "id")
	}
	if user.Name == "" {
		return nil, 0, domain.NewValidationError("missing required fields", "name")
	}
	if user.Plan == "" {
		if current := s.repo.CurrentUser(); current != nil && current.ID == user.ID {
			user.Plan = current.Plan
		} else {
			user.Plan = domain.PlanFree
		}
	}

	if err := s.repo.SetCurrentUser(ctx, &user); err != nil {
		return nil, 0, err
	}
	changed, err := s.repo.ReconcileUser(ctx, user)
	if err != nil {
		return nil, changed, err
	}

	log.Info().Str("user_id", user.ID).Int("spaces_changed", changed).Msg("Profile updated")
	return &user, changed, nil
}

// ClearProfile drops the cached current user
func (s *ProfileService) ClearProfile(ctx context.Context) error {
	return s.repo.SetCurrentUser(ctx, nil)
}
