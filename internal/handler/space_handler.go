package handler

import (
	"net/http"
	"time"

	"github.com/dafibh/spaces/spaces-backend/internal/domain"
	"github.com/dafibh/spaces/spaces-backend/internal/middleware"
	"github.com/dafibh/spaces/spaces-backend/internal/service"
	"github.com/labstack/echo/v4"
)

// SpaceHandler handles space CRUD and settings requests
type SpaceHandler struct {
	spaceService *service.SpaceService
}

// NewSpaceHandler creates a new SpaceHandler
func NewSpaceHandler(spaceService *service.SpaceService) *SpaceHandler {
	return &SpaceHandler{spaceService: spaceService}
}

// SettingsResponse is the client view of space settings. The invite token
// itself is only returned by the invite endpoints.
type SettingsResponse struct {
	ResourcesVisible bool       `json:"resourcesVisible"`
	HasInvite        bool       `json:"hasInvite"`
	InviteExpiresAt  *time.Time `json:"inviteExpiresAt,omitempty"`
}

// SpaceResponse is a space as returned to clients
type SpaceResponse struct {
	*domain.Space
	Settings SettingsResponse `json:"settings"`
}

func toSpaceResponse(s *domain.Space) SpaceResponse {
	return SpaceResponse{
		Space: s,
		Settings: SettingsResponse{
			ResourcesVisible: s.Settings.ResourcesVisible,
			HasInvite:        s.Settings.HasInvite(),
			InviteExpiresAt:  s.Settings.InviteExpiresAt,
		},
	}
}

func toSpaceResponses(spaces []*domain.Space) []SpaceResponse {
	out := make([]SpaceResponse, 0, len(spaces))
	for _, s := range spaces {
		out = append(out, toSpaceResponse(s))
	}
	return out
}

// CreateSpaceRequest represents the create space request
type CreateSpaceRequest struct {
	Name             string            `json:"name"`
	Description      string            `json:"description"`
	Category         string            `json:"category"`
	Tags             []string          `json:"tags"`
	Visibility       domain.Visibility `json:"visibility"`
	AIModel          string            `json:"aiModel"`
	Documents        []domain.Document `json:"documents"`
	ResourcesVisible bool              `json:"resourcesVisible"`
}

// ListSpaces handles GET /spaces with an optional scope of all, public or mine
func (h *SpaceHandler) ListSpaces(c echo.Context) error {
	switch scope := c.QueryParam("scope"); scope {
	case "", "all":
		return c.JSON(http.StatusOK, toSpaceResponses(h.spaceService.ListAll()))
	case "public":
		return h.ListPublic(c)
	case "mine":
		return h.ListMine(c)
	default:
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "scope", Message: "Scope must be all, public or mine"},
		})
	}
}

// ListPublic handles GET /spaces/public
func (h *SpaceHandler) ListPublic(c echo.Context) error {
	return c.JSON(http.StatusOK, toSpaceResponses(h.spaceService.ListPublic()))
}

// ListMine handles GET /spaces/mine
func (h *SpaceHandler) ListMine(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == "" {
		return NewUnauthorizedError(c, "Authentication required")
	}
	return c.JSON(http.StatusOK, toSpaceResponses(h.spaceService.ListForUser(userID)))
}

// GetSpace handles GET /spaces/:id
func (h *SpaceHandler) GetSpace(c echo.Context) error {
	space, err := h.spaceService.Get(c.Param("id"))
	if err != nil {
		return handleServiceError(c, err, "get space")
	}
	return c.JSON(http.StatusOK, toSpaceResponse(space))
}

// CreateSpace handles POST /spaces. The acting user becomes the owner.
func (h *SpaceHandler) CreateSpace(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == "" {
		return NewUnauthorizedError(c, "Authentication required")
	}

	var req CreateSpaceRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	space, err := h.spaceService.Create(c.Request().Context(), domain.CreateSpaceInput{
		Name:        req.Name,
		Description: req.Description,
		Category:    req.Category,
		Tags:        req.Tags,
		Visibility:  req.Visibility,
		AIModel:     req.AIModel,
		Owner:       domain.UserRef{ID: userID, Name: middleware.GetUserName(c)},
		Documents:   req.Documents,
		Settings:    &domain.Settings{ResourcesVisible: req.ResourcesVisible},
	})
	if err != nil {
		return handleServiceError(c, err, "create space")
	}

	return c.JSON(http.StatusCreated, toSpaceResponse(space))
}

// UpdateSpace handles PATCH /spaces/:id
func (h *SpaceHandler) UpdateSpace(c echo.Context) error {
	var req domain.SpaceUpdate
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	space, err := h.spaceService.Update(c.Request().Context(), c.Param("id"), req)
	if err != nil {
		return handleServiceError(c, err, "update space")
	}
	return c.JSON(http.StatusOK, toSpaceResponse(space))
}

// UpdateSettings handles PUT /spaces/:id/settings with the full settings body
func (h *SpaceHandler) UpdateSettings(c echo.Context) error {
	var req domain.SpaceSettings
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	space, err := h.spaceService.UpdateSettings(c.Request().Context(), c.Param("id"), req)
	if err != nil {
		return handleServiceError(c, err, "update settings")
	}
	return c.JSON(http.StatusOK, toSpaceResponse(space))
}

// DeleteSpace handles DELETE /spaces/:id
func (h *SpaceHandler) DeleteSpace(c echo.Context) error {
	if err := h.spaceService.Delete(c.Request().Context(), c.Param("id")); err != nil {
		return handleServiceError(c, err, "delete space")
	}
	return c.NoContent(http.StatusNoContent)
}
