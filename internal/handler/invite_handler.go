package handler

import (
	"net/http"

	"github.com/dafibh/spaces/spaces-backend/internal/domain"
	"github.com/dafibh/spaces/spaces-backend/internal/middleware"
	"github.com/dafibh/spaces/spaces-backend/internal/service"
	"github.com/labstack/echo/v4"
)

// InviteHandler handles membership and invite requests
type InviteHandler struct {
	spaceService  *service.SpaceService
	inviteService *service.InviteService
}

// NewInviteHandler creates a new InviteHandler
func NewInviteHandler(spaceService *service.SpaceService, inviteService *service.InviteService) *InviteHandler {
	return &InviteHandler{spaceService: spaceService, inviteService: inviteService}
}

// JoinRequest represents a join request; Token may be empty for public spaces
type JoinRequest struct {
	Token string `json:"token"`
}

// JoinByURLRequest represents a join through a shared invite URL
type JoinByURLRequest struct {
	URL string `json:"url"`
}

// JoinResponse reports the space after a join. Joined is false when the
// user was already a member.
type JoinResponse struct {
	Space  SpaceResponse `json:"space"`
	Joined bool          `json:"joined"`
}

// InviteRequest carries the invite lifetime; 0 uses the default
type InviteRequest struct {
	TTLHours int `json:"ttlHours"`
}

// InviteEmailRequest represents an email invite request
type InviteEmailRequest struct {
	Email string            `json:"email"`
	Role  domain.MemberRole `json:"role"`
}

// ValidateResponse reports whether a token grants entry
type ValidateResponse struct {
	Valid bool `json:"valid"`
}

// Join handles POST /spaces/:id/join
func (h *InviteHandler) Join(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == "" {
		return NewUnauthorizedError(c, "Authentication required")
	}

	var req JoinRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}
	if req.Token == "" {
		req.Token = c.QueryParam("token")
	}

	space, joined, err := h.inviteService.JoinWithToken(c.Request().Context(), c.Param("id"), userID, middleware.GetUserName(c), req.Token)
	if err != nil {
		return handleServiceError(c, err, "join space")
	}
	return c.JSON(http.StatusOK, JoinResponse{Space: toSpaceResponse(space), Joined: joined})
}

// JoinByURL handles POST /invites/join
func (h *InviteHandler) JoinByURL(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == "" {
		return NewUnauthorizedError(c, "Authentication required")
	}

	var req JoinByURLRequest
	if err := c.Bind(&req); err != nil || req.URL == "" {
		return NewValidationError(c, "Validation failed", []ValidationError{{Field: "url", Message: "Invite URL is required"}})
	}

	space, joined, err := h.inviteService.JoinWithURL(c.Request().Context(), req.URL, userID, middleware.GetUserName(c))
	if err != nil {
		return handleServiceError(c, err, "join space")
	}
	return c.JSON(http.StatusOK, JoinResponse{Space: toSpaceResponse(space), Joined: joined})
}

// Leave handles POST /spaces/:id/leave
func (h *InviteHandler) Leave(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == "" {
		return NewUnauthorizedError(c, "Authentication required")
	}

	space, err := h.spaceService.Leave(c.Request().Context(), c.Param("id"), userID)
	if err != nil {
		return handleServiceError(c, err, "leave space")
	}
	return c.JSON(http.StatusOK, toSpaceResponse(space))
}

// GenerateInvite handles POST /spaces/:id/invite
func (h *InviteHandler) GenerateInvite(c echo.Context) error {
	var req InviteRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	invite, err := h.inviteService.Generate(c.Request().Context(), c.Param("id"), req.TTLHours)
	if err != nil {
		return handleServiceError(c, err, "generate invite")
	}
	return c.JSON(http.StatusCreated, invite)
}

// ShareLink handles POST /spaces/:id/share
func (h *InviteHandler) ShareLink(c echo.Context) error {
	var req InviteRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	result, err := h.inviteService.GenerateShareLink(c.Request().Context(), c.Param("id"), req.TTLHours)
	if err != nil {
		return handleServiceError(c, err, "generate share link")
	}
	return c.JSON(http.StatusCreated, result)
}

// ValidateInvite handles GET /spaces/:id/invite/validate?token=
func (h *InviteHandler) ValidateInvite(c echo.Context) error {
	return c.JSON(http.StatusOK, ValidateResponse{
		Valid: h.inviteService.Validate(c.Param("id"), c.QueryParam("token")),
	})
}

// RevokeInvite handles DELETE /spaces/:id/invite
func (h *InviteHandler) RevokeInvite(c echo.Context) error {
	if err := h.inviteService.Revoke(c.Request().Context(), c.Param("id")); err != nil {
		return handleServiceError(c, err, "revoke invite")
	}
	return c.NoContent(http.StatusNoContent)
}

// SendInviteEmail handles POST /spaces/:id/invite/email
func (h *InviteHandler) SendInviteEmail(c echo.Context) error {
	var req InviteEmailRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	if err := h.inviteService.SendInviteEmail(c.Request().Context(), c.Param("id"), req.Email, req.Role); err != nil {
		return handleServiceError(c, err, "send invite email")
	}
	return c.NoContent(http.StatusAccepted)
}
