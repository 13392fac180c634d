package auth

import (
	"context"
	"errors"

	"github.com/SAP-F-2025/quiz-service/internal/models"
)

var (
	ErrMissingToken = errors.New("missing bearer token")
	ErrInvalidToken = errors.New("invalid token")
	ErrUnknownRole  = errors.New("token carries no known role")
)

// IdentityResolver turns a bearer token into the caller identity.
type IdentityResolver interface {
	Resolve(ctx context.Context, token string) (*models.Identity, error)
}
