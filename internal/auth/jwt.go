package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/SAP-F-2025/quiz-service/internal/models"
	"github.com/golang-jwt/jwt/v5"
)

const tokenIssuer = "quiz-service"

type Claims struct {
	Name         string `json:"name"`
	Role         string `json:"role"`
	DepartmentID *uint  `json:"department_id,omitempty"`
	jwt.RegisteredClaims
}

// JWTResolver verifies HS256 tokens signed with a shared secret.
type JWTResolver struct {
	hmac []byte
}

func NewJWTResolver(secret string) *JWTResolver {
	return &JWTResolver{hmac: []byte(secret)}
}

// IssueToken signs a token for identity. Used by tooling and tests.
func (r *JWTResolver) IssueToken(identity models.Identity, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{
		Name:         identity.Name,
		Role:         string(identity.Role),
		DepartmentID: identity.DepartmentID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.UserID,
			Issuer:    tokenIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(r.hmac)
}

func (r *JWTResolver) Resolve(_ context.Context, tokenStr string) (*models.Identity, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return r.hmac, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithIssuer(tokenIssuer))
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || claims.Subject == "" {
		return nil, ErrInvalidToken
	}

	role := models.UserRole(claims.Role)
	if !role.IsValid() {
		return nil, ErrUnknownRole
	}

	return &models.Identity{
		UserID:       claims.Subject,
		Name:         claims.Name,
		Role:         role,
		DepartmentID: claims.DepartmentID,
	}, nil
}
