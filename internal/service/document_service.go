package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dafibh/spaces/spaces-backend/internal/domain"
	"github.com/dafibh/spaces/spaces-backend/internal/repository/storage"
	"github.com/dafibh/spaces/spaces-backend/internal/websocket"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const (
	MaxDocumentSize   = 50 * 1024 * 1024 // 50MB
	UploadURLExpiry   = 15 * time.Minute
	DownloadURLExpiry = time.Hour
)

var (
	ErrStorageNotConfigured = errors.New("document storage not configured")
	ErrDocumentTooLarge     = errors.New("document too large. Maximum size is 50MB")
)

// UploadInput describes a document the client is about to upload
type UploadInput struct {
	Name string `json:"name"`
	Type string `json:"type"`
	Size int64  `json:"size"`
}

// UploadResult is the recorded document plus the URL to upload its content to
type UploadResult struct {
	Document  domain.Document `json:"document"`
	UploadURL string          `json:"uploadUrl"`
	ExpiresAt time.Time       `json:"expiresAt"`
}

// DocumentService manages document metadata and its object storage
type DocumentService struct {
	repo           domain.SpaceRepository
	storage        storage.DocumentStorage
	eventPublisher websocket.EventPublisher
}

// NewDocumentService creates a new DocumentService. storage may be nil, in
// which case only metadata operations are available.
func NewDocumentService(repo domain.SpaceRepository, storage storage.DocumentStorage) *DocumentService {
	return &DocumentService{repo: repo, storage: storage}
}

// SetEventPublisher sets the event publisher for real-time updates
func (s *DocumentService) SetEventPublisher(publisher websocket.EventPublisher) {
	s.eventPublisher = publisher
}

func (s *DocumentService) publishEvent(spaceID string, event websocket.Event) {
	if s.eventPublisher != nil {
		s.eventPublisher.Publish(spaceID, event)
	}
}

// IsEnabled indicates whether uploads are supported (storage configured)
func (s *DocumentService) IsEnabled() bool {
	return s != nil && s.storage != nil
}

// List returns the documents of the space
func (s *DocumentService) List(spaceID string) ([]domain.Document, error) {
	space, ok := s.repo.GetByID(spaceID)
	if !ok {
		return nil, domain.ErrSpaceNotFound
	}
	return space.Documents, nil
}

// Add records document metadata whose content lives elsewhere
func (s *DocumentService) Add(ctx context.Context, spaceID string, doc domain.Document) (*domain.Document, error) {
	doc.ObjectKey = ""
	added, err := s.repo.AddDocument(ctx, spaceID, doc)
	if err != nil {
		return nil, err
	}

	log.Info().Str("space_id", spaceID).Str("document_id", added.ID).Msg("Document added")
	s.publishEvent(spaceID, websocket.DocumentAdded(spaceID, added))
	return added, nil
}

// CreateUpload records the document and returns a presigned URL for its content
func (s *DocumentService) CreateUpload(ctx context.Context, spaceID string, input UploadInput) (*UploadResult, error) {
	if !s.IsEnabled() {
		return nil, ErrStorageNotConfigured
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, domain.NewValidationError("missing required fields", "name")
	}
	if input.Size < 0 {
		return nil, domain.NewValidationError("invalid fields", "size")
	}
	if input.Size > MaxDocumentSize {
		return nil, ErrDocumentTooLarge
	}
	if _, ok := s.repo.GetByID(spaceID); !ok {
		return nil, domain.ErrSpaceNotFound
	}

	docID := uuid.NewString()
	key := storage.ObjectKey(spaceID, docID, name)
	uploadURL, err := s.storage.PresignUpload(ctx, key, input.Type, UploadURLExpiry)
	if err != nil {
		return nil, fmt.Errorf("presign upload: %w", err)
	}

	added, err := s.repo.AddDocument(ctx, spaceID, domain.Document{
		ID:        docID,
		Name:      name,
		Type:      input.Type,
		Size:      input.Size,
		ObjectKey: key,
	})
	if err != nil {
		return nil, err
	}

	log.Info().Str("space_id", spaceID).Str("document_id", docID).Msg("Document upload created")
	s.publishEvent(spaceID, websocket.DocumentAdded(spaceID, added))
	return &UploadResult{
		Document:  *added,
		UploadURL: uploadURL,
		ExpiresAt: time.Now().UTC().Add(UploadURLExpiry),
	}, nil
}

// DownloadURL returns a URL for the document content
func (s *DocumentService) DownloadURL(ctx context.Context, spaceID, documentID string) (string, error) {
	doc, err := s.find(spaceID, documentID)
	if err != nil {
		return "", err
	}
	if doc.ObjectKey == "" {
		if doc.URL == "" {
			return "", domain.ErrDocumentNotFound
		}
		return doc.URL, nil
	}
	if !s.IsEnabled() {
		return "", ErrStorageNotConfigured
	}
	u, err := s.storage.PresignGet(ctx, doc.ObjectKey, DownloadURLExpiry)
	if err != nil {
		return "", fmt.Errorf("presign download: %w", err)
	}
	return u, nil
}

// Remove detaches the document and deletes its stored content. A failed
// object delete is logged; the metadata is removed regardless.
func (s *DocumentService) Remove(ctx context.Context, spaceID, documentID string) error {
	removed, err := s.repo.RemoveDocument(ctx, spaceID, documentID)
	if err != nil {
		return err
	}

	if removed.ObjectKey != "" && s.IsEnabled() {
		if err := s.storage.Delete(ctx, removed.ObjectKey); err != nil {
			log.Error().
				Err(err).
				Str("space_id", spaceID).
				Str("document_id", documentID).
				Str("object_key", removed.ObjectKey).
				Msg("Failed to delete document content")
		}
	}

	log.Info().Str("space_id", spaceID).Str("document_id", documentID).Msg("Document removed")
	s.publishEvent(spaceID, websocket.DocumentRemoved(spaceID, map[string]string{"documentId": documentID}))
	return nil
}

func (s *DocumentService) find(spaceID, documentID string) (*domain.Document, error) {
	space, ok := s.repo.GetByID(spaceID)
	if !ok {
		return nil, domain.ErrSpaceNotFound
	}
	idx := space.FindDocument(documentID)
	if idx < 0 {
		return nil, domain.ErrDocumentNotFound
	}
	return &space.Documents[idx], nil
}
