package handler

import (
	"net/http"

	"github.com/dafibh/spaces/spaces-backend/internal/service"
	"github.com/dafibh/spaces/spaces-backend/internal/websocket"
	ws "github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// WebSocketHandler handles WebSocket connections
type WebSocketHandler struct {
	hub            *websocket.Hub
	spaceService   *service.SpaceService
	validator      websocket.TokenValidator
	allowedOrigins map[string]bool
	upgrader       ws.Upgrader
}

// NewWebSocketHandler creates a new WebSocketHandler. A nil validator
// disables token checks and takes the user id from the userId query param.
func NewWebSocketHandler(hub *websocket.Hub, spaceService *service.SpaceService, validator websocket.TokenValidator, allowedOrigins []string) *WebSocketHandler {
	originMap := make(map[string]bool)
	for _, origin := range allowedOrigins {
		originMap[origin] = true
	}

	h := &WebSocketHandler{
		hub:            hub,
		spaceService:   spaceService,
		validator:      validator,
		allowedOrigins: originMap,
	}

	h.upgrader = ws.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.checkOrigin,
	}

	return h
}

// checkOrigin validates the request origin against allowed origins
func (h *WebSocketHandler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		// Non-browser clients send no Origin
		return true
	}

	if h.allowedOrigins[origin] {
		return true
	}

	log.Warn().
		Str("origin", origin).
		Msg("WebSocket connection rejected: origin not allowed")
	return false
}

func (h *WebSocketHandler) identify(c echo.Context) (string, error) {
	if h.validator == nil {
		userID := c.QueryParam("userId")
		if userID == "" {
			return "", echo.NewHTTPError(http.StatusUnauthorized, "missing user id")
		}
		return userID, nil
	}

	token := c.QueryParam("token")
	if token == "" {
		log.Debug().Msg("WebSocket connection rejected: missing token")
		return "", echo.NewHTTPError(http.StatusUnauthorized, "missing token")
	}

	identity, err := h.validator.ValidateToken(token)
	if err != nil {
		log.Debug().Err(err).Msg("WebSocket connection rejected: invalid token")
		return "", echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
	}
	return identity.UserID, nil
}

// HandleWS handles WebSocket connection requests at GET /spaces/:id/ws
func (h *WebSocketHandler) HandleWS(c echo.Context) error {
	userID, err := h.identify(c)
	if err != nil {
		return err
	}

	spaceID := c.Param("id")
	if _, err := h.spaceService.Get(spaceID); err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "space not found")
	}

	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		log.Error().Err(err).Msg("WebSocket upgrade failed")
		return err
	}

	client := websocket.NewClient(conn, spaceID, userID, h.hub)
	h.hub.Register(client)

	log.Info().
		Str("space_id", spaceID).
		Str("user_id", userID).
		Str("client_id", client.ID()).
		Msg("WebSocket client connected")

	go client.WritePump()
	go client.ReadPump()

	return nil
}
