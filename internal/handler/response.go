package handler

import (
	"errors"
	"net/http"

	"github.com/dafibh/spaces/spaces-backend/internal/domain"
	"github.com/dafibh/spaces/spaces-backend/internal/service"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// ProblemDetails represents an RFC 7807 Problem Details response
type ProblemDetails struct {
	Type     string            `json:"type"`
	Title    string            `json:"title"`
	Status   int               `json:"status"`
	Detail   string            `json:"detail,omitempty"`
	Instance string            `json:"instance,omitempty"`
	Errors   []ValidationError `json:"errors,omitempty"`
}

// ValidationError represents a single validation error
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error types
const (
	ErrorTypeValidation   = "https://spaces.app/errors/validation"
	ErrorTypeNotFound     = "https://spaces.app/errors/not-found"
	ErrorTypeUnauthorized = "https://spaces.app/errors/unauthorized"
	ErrorTypeForbidden    = "https://spaces.app/errors/forbidden"
	ErrorTypeConflict     = "https://spaces.app/errors/conflict"
	ErrorTypeBadGateway   = "https://spaces.app/errors/upstream-unavailable"
	ErrorTypeUnavailable  = "https://spaces.app/errors/service-unavailable"
	ErrorTypeInternal     = "https://spaces.app/errors/internal"
)

func problem(c echo.Context, status int, errorType, title, detail string) error {
	return c.JSON(status, ProblemDetails{
		Type:     errorType,
		Title:    title,
		Status:   status,
		Detail:   detail,
		Instance: c.Request().URL.Path,
	})
}

// NewValidationError creates a validation error response
func NewValidationError(c echo.Context, detail string, errors []ValidationError) error {
	return c.JSON(http.StatusBadRequest, ProblemDetails{
		Type:     ErrorTypeValidation,
		Title:    "Validation Error",
		Status:   http.StatusBadRequest,
		Detail:   detail,
		Instance: c.Request().URL.Path,
		Errors:   errors,
	})
}

// NewNotFoundError creates a not found error response
func NewNotFoundError(c echo.Context, detail string) error {
	return problem(c, http.StatusNotFound, ErrorTypeNotFound, "Not Found", detail)
}

// NewUnauthorizedError creates an unauthorized error response
func NewUnauthorizedError(c echo.Context, detail string) error {
	return problem(c, http.StatusUnauthorized, ErrorTypeUnauthorized, "Unauthorized", detail)
}

// NewForbiddenError creates a forbidden error response
func NewForbiddenError(c echo.Context, detail string) error {
	return problem(c, http.StatusForbidden, ErrorTypeForbidden, "Forbidden", detail)
}

// NewConflictError creates a conflict error response
func NewConflictError(c echo.Context, detail string) error {
	return problem(c, http.StatusConflict, ErrorTypeConflict, "Conflict", detail)
}

// NewBadGatewayError creates a response for a failed upstream call
func NewBadGatewayError(c echo.Context, detail string) error {
	return problem(c, http.StatusBadGateway, ErrorTypeBadGateway, "Upstream Unavailable", detail)
}

// NewServiceUnavailableError creates a response for a disabled feature
func NewServiceUnavailableError(c echo.Context, detail string) error {
	return problem(c, http.StatusServiceUnavailable, ErrorTypeUnavailable, "Service Unavailable", detail)
}

// NewInternalError creates an internal error response
func NewInternalError(c echo.Context, detail string) error {
	return problem(c, http.StatusInternalServerError, ErrorTypeInternal, "Internal Server Error", detail)
}

// handleServiceError maps a domain or service error to its problem response.
// action names the failed operation in logs and internal error details.
func handleServiceError(c echo.Context, err error, action string) error {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		fields := make([]ValidationError, 0, len(verr.Fields))
		for _, f := range verr.Fields {
			fields = append(fields, ValidationError{Field: f, Message: verr.Message})
		}
		return NewValidationError(c, "Validation failed", fields)
	case errors.Is(err, domain.ErrInvalidInput):
		return NewValidationError(c, err.Error(), nil)
	case errors.Is(err, service.ErrDocumentTooLarge):
		return NewValidationError(c, "Validation failed", []ValidationError{{Field: "size", Message: err.Error()}})
	case errors.Is(err, domain.ErrSpaceNotFound):
		return NewNotFoundError(c, "Space not found")
	case errors.Is(err, domain.ErrDocumentNotFound):
		return NewNotFoundError(c, "Document not found")
	case errors.Is(err, domain.ErrNotAMember):
		return NewNotFoundError(c, "User is not a member of this space")
	case errors.Is(err, domain.ErrNotFound):
		return NewNotFoundError(c, "Resource not found")
	case errors.Is(err, domain.ErrOwnerCannotLeave):
		return NewConflictError(c, "The owner cannot leave their own space")
	case errors.Is(err, domain.ErrInvalidOrExpiredToken):
		return NewForbiddenError(c, "Invite token is invalid or expired")
	case errors.Is(err, domain.ErrUnauthorized):
		return NewUnauthorizedError(c, "Authentication required")
	case errors.Is(err, domain.ErrUpstreamUnavailable):
		log.Warn().Err(err).Str("action", action).Msg("Upstream call failed")
		return NewBadGatewayError(c, "The remote service is unavailable")
	case errors.Is(err, service.ErrStorageNotConfigured):
		return NewServiceUnavailableError(c, "Document uploads are disabled (storage not configured)")
	}

	log.Error().Err(err).Str("action", action).Str("path", c.Request().URL.Path).Msg("Request failed")
	return NewInternalError(c, "Failed to "+action)
}
