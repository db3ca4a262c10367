package handler

import (
	"net/http"

	"github.com/dafibh/spaces/spaces-backend/internal/domain"
	"github.com/dafibh/spaces/spaces-backend/internal/middleware"
	"github.com/dafibh/spaces/spaces-backend/internal/service"
	"github.com/labstack/echo/v4"
)

// ChatHandler handles message log and AI chat requests
type ChatHandler struct {
	chatService *service.ChatService
}

// NewChatHandler creates a new ChatHandler
func NewChatHandler(chatService *service.ChatService) *ChatHandler {
	return &ChatHandler{chatService: chatService}
}

// ChatRequest represents a chat message sent to the space assistant
type ChatRequest struct {
	Message string `json:"message"`
}

// AppendMessageRequest represents a message appended directly to the log
type AppendMessageRequest struct {
	Content string            `json:"content"`
	Type    domain.AuthorType `json:"type"`
	Sources []domain.Source   `json:"sources,omitempty"`
}

// ListMessages handles GET /spaces/:id/messages
func (h *ChatHandler) ListMessages(c echo.Context) error {
	messages, err := h.chatService.Messages(c.Param("id"))
	if err != nil {
		return handleServiceError(c, err, "list messages")
	}
	if messages == nil {
		messages = []domain.Message{}
	}
	return c.JSON(http.StatusOK, messages)
}

// AppendMessage handles POST /spaces/:id/messages
func (h *ChatHandler) AppendMessage(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == "" {
		return NewUnauthorizedError(c, "Authentication required")
	}

	var req AppendMessageRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}
	if req.Type == "" {
		req.Type = domain.AuthorUser
	}

	author := userID
	if req.Type == domain.AuthorAI {
		author = service.AIUserID
	}

	msg, err := h.chatService.Append(c.Request().Context(), c.Param("id"), domain.NewMessage{
		Content: req.Content,
		Type:    req.Type,
		UserID:  author,
		Sources: req.Sources,
	})
	if err != nil {
		return handleServiceError(c, err, "append message")
	}
	return c.JSON(http.StatusCreated, msg)
}

// Send handles POST /spaces/:id/chat
func (h *ChatHandler) Send(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == "" {
		return NewUnauthorizedError(c, "Authentication required")
	}

	var req ChatRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	result, err := h.chatService.Send(c.Request().Context(), c.Param("id"), userID, req.Message)
	if err != nil {
		return handleServiceError(c, err, "send chat message")
	}
	return c.JSON(http.StatusOK, result)
}

// History handles GET /spaces/:id/chat/history
func (h *ChatHandler) History(c echo.Context) error {
	result, err := h.chatService.History(c.Request().Context(), c.Param("id"))
	if err != nil {
		return handleServiceError(c, err, "load chat history")
	}
	if result.Messages == nil {
		result.Messages = []domain.Message{}
	}
	return c.JSON(http.StatusOK, result)
}
