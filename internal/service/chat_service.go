package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dafibh/spaces/spaces-backend/internal/domain"
	"github.com/dafibh/spaces/spaces-backend/internal/websocket"
	"github.com/rs/zerolog/log"
)

// AIUserID is the author id recorded on AI messages
const AIUserID = "ai"

// DefaultAIModel is used when a space has no model configured
const DefaultAIModel = "default"

// FallbackFunc produces a reply when the chat API is unavailable
type FallbackFunc func(req domain.ChatRequest) domain.ChatReply

// DefaultFallback returns a canned reply that references the model and the
// user's message, citing two placeholder sources
func DefaultFallback(req domain.ChatRequest) domain.ChatReply {
	return domain.ChatReply{
		Message: fmt.Sprintf(
			"The %s assistant is offline right now, so this is an automatic reply. You asked: %q. "+
				"Try again once the AI service is reachable to get an answer grounded in this space.",
			req.AIModel, req.Message,
		),
		Sources: []domain.Source{
			{Name: "Space documents", Type: "document"},
			{Name: "Conversation history", Type: "history"},
		},
	}
}

// ChatResult is the outcome of sending a chat message. Fallback reports
// that AIMessage came from the fallback policy, not the chat API.
type ChatResult struct {
	UserMessage domain.Message `json:"userMessage"`
	AIMessage   domain.Message `json:"aiMessage"`
	Fallback    bool           `json:"fallback"`
}

// HistoryResult is a space's chat history. Fallback reports that the chat
// API failed and Messages is the local message log.
type HistoryResult struct {
	Messages []domain.Message `json:"messages"`
	Fallback bool             `json:"fallback"`
}

// ChatService sends chat messages to the AI and keeps the message log
type ChatService struct {
	repo           domain.SpaceRepository
	gateway        domain.ChatGateway
	fallback       FallbackFunc
	eventPublisher websocket.EventPublisher
}

// NewChatService creates a new ChatService. gateway may be nil, which is
// treated as the chat API being unavailable. A nil fallback makes upstream
// failures surface to the caller.
func NewChatService(repo domain.SpaceRepository, gateway domain.ChatGateway, fallback FallbackFunc) *ChatService {
	return &ChatService{repo: repo, gateway: gateway, fallback: fallback}
}

// SetEventPublisher sets the event publisher for real-time updates
func (s *ChatService) SetEventPublisher(publisher websocket.EventPublisher) {
	s.eventPublisher = publisher
}

func (s *ChatService) publishEvent(spaceID string, event websocket.Event) {
	if s.eventPublisher != nil {
		s.eventPublisher.Publish(spaceID, event)
	}
}

// Messages returns the local message log of the space
func (s *ChatService) Messages(spaceID string) ([]domain.Message, error) {
	if _, ok := s.repo.GetByID(spaceID); !ok {
		return nil, domain.ErrSpaceNotFound
	}
	return s.repo.ListMessages(spaceID), nil
}

// Append adds a message to the log without involving the AI
func (s *ChatService) Append(ctx context.Context, spaceID string, msg domain.NewMessage) (*domain.Message, error) {
	appended, err := s.repo.AppendMessage(ctx, spaceID, msg)
	if err != nil {
		return nil, err
	}
	s.publishEvent(spaceID, websocket.MessageCreated(spaceID, appended))
	return appended, nil
}

// Send records the user's message, asks the AI for a reply and records it.
// When the chat API is unavailable the fallback policy supplies the reply.
func (s *ChatService) Send(ctx context.Context, spaceID, userID, text string) (*ChatResult, error) {
	space, ok := s.repo.GetByID(spaceID)
	if !ok {
		return nil, domain.ErrSpaceNotFound
	}

	userMsg, err := s.Append(ctx, spaceID, domain.NewMessage{
		Content: text,
		Type:    domain.AuthorUser,
		UserID:  userID,
	})
	if err != nil {
		return nil, err
	}
	if userID != "" {
		if err := s.repo.TouchMember(ctx, spaceID, userID); err != nil && !errors.Is(err, domain.ErrNotAMember) {
			log.Warn().Err(err).Str("space_id", spaceID).Str("user_id", userID).Msg("Failed to record member activity")
		}
	}

	model := space.AIModel
	if model == "" {
		model = DefaultAIModel
	}
	req := domain.ChatRequest{SpaceID: spaceID, Message: text, AIModel: model}

	reply, fallback, err := s.ask(ctx, req)
	if err != nil {
		return nil, err
	}

	content := reply.Message
	if content == "" {
		content = "(empty reply)"
	}
	if len(content) > domain.MaxMessageLength {
		content = strings.ToValidUTF8(content[:domain.MaxMessageLength], "")
	}
	aiMsg, err := s.Append(ctx, spaceID, domain.NewMessage{
		Content: content,
		Type:    domain.AuthorAI,
		UserID:  AIUserID,
		Sources: reply.Sources,
	})
	if err != nil {
		return nil, err
	}

	return &ChatResult{UserMessage: *userMsg, AIMessage: *aiMsg, Fallback: fallback}, nil
}

func (s *ChatService) ask(ctx context.Context, req domain.ChatRequest) (domain.ChatReply, bool, error) {
	var err error
	if s.gateway == nil {
		err = fmt.Errorf("%w: chat API not configured", domain.ErrUpstreamUnavailable)
	} else {
		var reply *domain.ChatReply
		reply, err = s.gateway.SendMessage(ctx, req)
		if err == nil {
			return *reply, false, nil
		}
	}

	if !errors.Is(err, domain.ErrUpstreamUnavailable) || s.fallback == nil {
		return domain.ChatReply{}, false, err
	}

	log.Warn().
		Err(err).
		Str("space_id", req.SpaceID).
		Str("ai_model", req.AIModel).
		Msg("Chat API unavailable, using fallback reply")
	return s.fallback(req), true, nil
}

// History returns the remote chat history, or the local message log when
// the chat API fails
func (s *ChatService) History(ctx context.Context, spaceID string) (*HistoryResult, error) {
	if _, ok := s.repo.GetByID(spaceID); !ok {
		return nil, domain.ErrSpaceNotFound
	}
	if s.gateway == nil {
		return &HistoryResult{Messages: s.repo.ListMessages(spaceID)}, nil
	}

	messages, err := s.gateway.GetHistory(ctx, spaceID)
	if err == nil {
		return &HistoryResult{Messages: messages}, nil
	}
	if !errors.Is(err, domain.ErrUpstreamUnavailable) {
		return nil, err
	}

	log.Warn().Err(err).Str("space_id", spaceID).Msg("Chat history unavailable, serving local log")
	return &HistoryResult{Messages: s.repo.ListMessages(spaceID), Fallback: true}, nil
}
