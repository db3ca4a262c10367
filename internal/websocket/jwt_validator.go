package websocket

import (
	"context"
	"errors"
	"net/url"
	"time"

	"github.com/auth0/go-jwt-middleware/v2/jwks"
	"github.com/auth0/go-jwt-middleware/v2/validator"
)

// ErrInvalidToken is returned when JWT validation fails
var ErrInvalidToken = errors.New("invalid token")

// Identity is the user a validated token belongs to
type Identity struct {
	UserID string
	Name   string
}

// TokenValidator validates the token passed on the WebSocket upgrade request
type TokenValidator interface {
	ValidateToken(token string) (Identity, error)
}

// CustomClaims contains the profile claims carried by Auth0 access tokens
type CustomClaims struct {
	Name string `json:"name"`
}

// Validate implements validator.CustomClaims
func (c CustomClaims) Validate(ctx context.Context) error {
	return nil
}

// Auth0JWTValidator validates Auth0 JWT tokens for WebSocket connections
type Auth0JWTValidator struct {
	validator *validator.Validator
}

// NewAuth0JWTValidator creates a new Auth0JWTValidator
func NewAuth0JWTValidator(domain, audience string) (*Auth0JWTValidator, error) {
	issuerURL, err := url.Parse("https://" + domain + "/")
	if err != nil {
		return nil, err
	}

	provider := jwks.NewCachingProvider(issuerURL, 5*time.Minute)

	jwtValidator, err := validator.New(
		provider.KeyFunc,
		validator.RS256,
		issuerURL.String(),
		[]string{audience},
		validator.WithCustomClaims(func() validator.CustomClaims {
			return &CustomClaims{}
		}),
		validator.WithAllowedClockSkew(time.Minute),
	)
	if err != nil {
		return nil, err
	}

	return &Auth0JWTValidator{validator: jwtValidator}, nil
}

// ValidateToken validates a JWT token and returns the identity it carries
func (v *Auth0JWTValidator) ValidateToken(token string) (Identity, error) {
	claims, err := v.validator.ValidateToken(context.Background(), token)
	if err != nil {
		return Identity{}, ErrInvalidToken
	}

	validatedClaims, ok := claims.(*validator.ValidatedClaims)
	if !ok || validatedClaims.RegisteredClaims.Subject == "" {
		return Identity{}, ErrInvalidToken
	}

	identity := Identity{UserID: validatedClaims.RegisteredClaims.Subject}
	if custom, ok := validatedClaims.CustomClaims.(*CustomClaims); ok && custom != nil {
		identity.Name = custom.Name
	}
	return identity, nil
}
