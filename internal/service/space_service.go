package service

import (
	"context"
	"fmt"

	"github.com/dafibh/spaces/spaces-backend/internal/domain"
	"github.com/dafibh/spaces/spaces-backend/internal/repository/storage"
	"github.com/dafibh/spaces/spaces-backend/internal/websocket"
	"github.com/rs/zerolog/log"
)

// SpaceService handles space CRUD, membership and settings
type SpaceService struct {
	repo           domain.SpaceRepository
	gateway        domain.SpaceGateway
	storage        storage.DocumentStorage
	eventPublisher websocket.EventPublisher
}

// NewSpaceService creates a new SpaceService. gateway may be nil, in which
// case settings are applied locally only.
func NewSpaceService(repo domain.SpaceRepository, gateway domain.SpaceGateway) *SpaceService {
	return &SpaceService{repo: repo, gateway: gateway}
}

// SetEventPublisher sets the event publisher for real-time updates
func (s *SpaceService) SetEventPublisher(publisher websocket.EventPublisher) {
	s.eventPublisher = publisher
}

// SetDocumentStorage sets the storage whose objects are removed with a space
func (s *SpaceService) SetDocumentStorage(storage storage.DocumentStorage) {
	s.storage = storage
}

// publishEvent publishes a WebSocket event if a publisher is configured
func (s *SpaceService) publishEvent(spaceID string, event websocket.Event) {
	if s.eventPublisher != nil {
		s.eventPublisher.Publish(spaceID, event)
	}
}

// Get returns the space or ErrSpaceNotFound
func (s *SpaceService) Get(id string) (*domain.Space, error) {
	space, ok := s.repo.GetByID(id)
	if !ok {
		return nil, domain.ErrSpaceNotFound
	}
	return space, nil
}

// ListAll returns every space
func (s *SpaceService) ListAll() []*domain.Space {
	return s.repo.ListAll()
}

// ListPublic returns the public spaces
func (s *SpaceService) ListPublic() []*domain.Space {
	return s.repo.ListPublic()
}

// ListForUser returns the spaces the user owns or belongs to
func (s *SpaceService) ListForUser(userID string) []*domain.Space {
	return s.repo.ListForUser(userID)
}

// Create creates a space owned by input.Owner
func (s *SpaceService) Create(ctx context.Context, input domain.CreateSpaceInput) (*domain.Space, error) {
	space, err := s.repo.Create(ctx, input)
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("space_id", space.ID).
		Str("user_id", space.Owner.ID).
		Msg("Space created")

	s.publishEvent(space.ID, websocket.SpaceCreated(space.ID, space))
	return space, nil
}

// Update merges the given fields into the space
func (s *SpaceService) Update(ctx context.Context, id string, update domain.SpaceUpdate) (*domain.Space, error) {
	space, err := s.repo.Update(ctx, id, update)
	if err != nil {
		return nil, err
	}

	s.publishEvent(space.ID, websocket.SpaceUpdated(space.ID, space))
	return space, nil
}

// UpdateSettings replaces the space settings. The remote space API is
// updated first; if it fails nothing changes locally.
func (s *SpaceService) UpdateSettings(ctx context.Context, id string, settings domain.SpaceSettings) (*domain.Space, error) {
	if _, err := s.Get(id); err != nil {
		return nil, err
	}

	update := settings.ToUpdate()
	if err := update.Validate(); err != nil {
		return nil, err
	}

	if s.gateway != nil {
		if err := s.gateway.UpdateSettings(ctx, id, settings); err != nil {
			log.Error().Err(err).Str("space_id", id).Msg("Remote settings update failed")
			return nil, fmt.Errorf("update remote settings: %w", err)
		}
	}

	space, err := s.repo.Update(ctx, id, update)
	if err != nil {
		return nil, err
	}

	log.Info().Str("space_id", id).Bool("remote", s.gateway != nil).Msg("Space settings updated")
	s.publishEvent(space.ID, websocket.SpaceUpdated(space.ID, space))
	return space, nil
}

// Delete removes the space permanently. Stored document content is removed
// best effort afterwards.
func (s *SpaceService) Delete(ctx context.Context, id string) error {
	space, ok := s.repo.GetByID(id)
	if !ok {
		return domain.ErrSpaceNotFound
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	if s.storage != nil {
		for _, doc := range space.Documents {
			if doc.ObjectKey == "" {
				continue
			}
			if err := s.storage.Delete(ctx, doc.ObjectKey); err != nil {
				log.Error().
					Err(err).
					Str("space_id", id).
					Str("document_id", doc.ID).
					Str("object_key", doc.ObjectKey).
					Msg("Failed to delete document content")
			}
		}
	}

	log.Info().Str("space_id", id).Msg("Space deleted")
	s.publishEvent(id, websocket.SpaceDeleted(id))
	return nil
}

// Join adds the user to the space. joined is false when the user was
// already a member.
func (s *SpaceService) Join(ctx context.Context, spaceID, userID, userName string) (*domain.Space, bool, error) {
	space, joined, err := s.repo.Join(ctx, spaceID, userID, userName)
	if err != nil {
		return nil, false, err
	}
	if !joined {
		return space, false, nil
	}

	log.Info().Str("space_id", spaceID).Str("user_id", userID).Msg("Member joined space")
	if idx := space.FindMember(userID); idx >= 0 {
		s.publishEvent(spaceID, websocket.MemberJoined(spaceID, space.Members[idx]))
	}
	return space, true, nil
}

// Leave removes a non-owner member from the space
func (s *SpaceService) Leave(ctx context.Context, spaceID, userID string) (*domain.Space, error) {
	space, err := s.repo.Leave(ctx, spaceID, userID)
	if err != nil {
		return nil, err
	}

	log.Info().Str("space_id", spaceID).Str("user_id", userID).Msg("Member left space")
	s.publishEvent(spaceID, websocket.MemberLeft(spaceID, map[string]string{"userId": userID}))
	return space, nil
}
