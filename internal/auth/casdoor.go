package auth

import (
	"context"
	"fmt"
	"strconv"

	"github.com/SAP-F-2025/quiz-service/internal/config"
	"github.com/SAP-F-2025/quiz-service/internal/models"
	"github.com/casdoor/casdoor-go-sdk/casdoorsdk"
)

type casdoorTokenParser interface {
	ParseJwtToken(token string) (*casdoorsdk.Claims, error)
}

// CasdoorResolver maps Casdoor users onto identities. Admins come from IsAdmin,
// other roles from the user Tag and the department from Affiliation.
type CasdoorResolver struct {
	parser casdoorTokenParser
}

func NewCasdoorResolver(cfg config.CasdoorConfig) *CasdoorResolver {
	client := casdoorsdk.NewClient(
		cfg.Endpoint,
		cfg.ClientID,
		cfg.ClientSecret,
		cfg.Certificate,
		cfg.Organization,
		cfg.Application,
	)
	return &CasdoorResolver{parser: client}
}

func (r *CasdoorResolver) Resolve(_ context.Context, token string) (*models.Identity, error) {
	claims, err := r.parser.ParseJwtToken(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return identityFromCasdoorUser(&claims.User)
}

func identityFromCasdoorUser(user *casdoorsdk.User) (*models.Identity, error) {
	role := models.UserRole(user.Tag)
	if user.IsAdmin {
		role = models.RoleAdmin
	}
	if !role.IsValid() {
		return nil, ErrUnknownRole
	}

	name := user.DisplayName
	if name == "" {
		name = user.Name
	}

	userID := user.Id
	if userID == "" {
		userID = user.Name
	}

	identity := &models.Identity{
		UserID: userID,
		Name:   name,
		Role:   role,
	}
	if dept, err := strconv.ParseUint(user.Affiliation, 10, 32); err == nil {
		d := uint(dept)
		identity.DepartmentID = &d
	}
	return identity, nil
}
