package domain

import (
	"errors"
	"strings"
)

// Domain errors
var (
	ErrNotFound              = errors.New("resource not found")
	ErrInvalidInput          = errors.New("invalid input")
	ErrUnauthorized          = errors.New("unauthorized")
	ErrSpaceNotFound         = errors.New("space not found")
	ErrNotAMember            = errors.New("user is not a member of this space")
	ErrOwnerCannotLeave      = errors.New("owner cannot leave their own space")
	ErrInvalidOrExpiredToken = errors.New("invite token is invalid or expired")
	ErrDocumentNotFound      = errors.New("document not found")
	ErrUpstreamUnavailable   = errors.New("upstream service unavailable")
)

// Validation constants
const (
	MaxSpaceNameLength    = 120
	MaxMessageLength      = 10000
	MaxInviteTTLHours     = 24 * 30
	DefaultInviteTTLHours = 24 * 7
)

// ValidationError lists the fields that failed validation.
// errors.Is(err, ErrInvalidInput) reports true for it.
type ValidationError struct {
	Fields  []string
	Message string
}

// NewValidationError creates a ValidationError for the given fields
func NewValidationError(message string, fields ...string) *ValidationError {
	return &ValidationError{Fields: fields, Message: message}
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return e.Message
	}
	return e.Message + ": " + strings.Join(e.Fields, ", ")
}

// Is makes ValidationError match ErrInvalidInput
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}
