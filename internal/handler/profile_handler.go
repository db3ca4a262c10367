package handler

import (
	"net/http"

	"github.com/dafibh/spaces/spaces-backend/internal/domain"
	"github.com/dafibh/spaces/spaces-backend/internal/middleware"
	"github.com/dafibh/spaces/spaces-backend/internal/service"
	"github.com/labstack/echo/v4"
)

// ProfileHandler handles profile-related HTTP requests
type ProfileHandler struct {
	profileService *service.ProfileService
}

// NewProfileHandler creates a new ProfileHandler
func NewProfileHandler(profileService *service.ProfileService) *ProfileHandler {
	return &ProfileHandler{profileService: profileService}
}

// UpdateProfileRequest represents the update profile request
type UpdateProfileRequest struct {
	Name   string          `json:"name"`
	Email  string          `json:"email"`
	Avatar string          `json:"avatar"`
	Plan   domain.PlanTier `json:"plan"`
}

// UpdateProfileResponse is the stored profile plus the number of spaces
// whose owner or member snapshots were refreshed
type UpdateProfileResponse struct {
	User          *domain.User `json:"user"`
	SpacesUpdated int          `json:"spacesUpdated"`
}

// GetProfile handles GET /me
func (h *ProfileHandler) GetProfile(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == "" {
		return NewUnauthorizedError(c, "Authentication required")
	}

	user := h.profileService.GetProfile()
	if user == nil || user.ID != userID {
		return NewNotFoundError(c, "Profile not found")
	}
	return c.JSON(http.StatusOK, user)
}

// UpdateProfile handles PUT /me. Missing fields fall back to the token claims.
func (h *ProfileHandler) UpdateProfile(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == "" {
		return NewUnauthorizedError(c, "Authentication required")
	}

	var req UpdateProfileRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	user := domain.User{ID: userID, Name: req.Name, Email: req.Email, Avatar: req.Avatar, Plan: req.Plan}
	if claims := middleware.GetCustomClaims(c); claims != nil {
		if user.Email == "" {
			user.Email = claims.Email
		}
		if user.Avatar == "" {
			user.Avatar = claims.Picture
		}
	}
	if user.Name == "" {
		user.Name = middleware.GetUserName(c)
	}

	stored, changed, err := h.profileService.UpdateProfile(c.Request().Context(), user)
	if err != nil {
		return handleServiceError(c, err, "update profile")
	}
	return c.JSON(http.StatusOK, UpdateProfileResponse{User: stored, SpacesUpdated: changed})
}

// ClearProfile handles DELETE /me
func (h *ProfileHandler) ClearProfile(c echo.Context) error {
	if err := h.profileService.ClearProfile(c.Request().Context()); err != nil {
		return handleServiceError(c, err, "clear profile")
	}
	return c.NoContent(http.StatusNoContent)
}
