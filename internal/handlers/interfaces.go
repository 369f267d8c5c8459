package handlers

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/nprocess/compliance-api/internal/models"
	"github.com/nprocess/compliance-api/internal/oauth"
)

// APIKeyServiceInterface defines the methods used by handlers from APIKeyService
type APIKeyServiceInterface interface {
	Create(ctx context.Context, tenantID, createdBy string, quotas models.Quotas, permissions []string, allowedStandards *models.AllowedStandards, expiresAt *time.Time) (*models.APIKey, string, error)
	Validate(ctx context.Context, rawKey string) (*models.APIKey, error)
	GetByID(ctx context.Context, keyID uuid.UUID) (*models.APIKey, error)
	List(ctx context.Context, tenantID string) ([]models.APIKey, error)
	Revoke(ctx context.Context, keyID uuid.UUID, by string) (*models.APIKey, error)
	Delete(ctx context.Context, keyID uuid.UUID) error
	UpdateAllowedStandards(ctx context.Context, keyID uuid.UUID, standards *models.AllowedStandards) (*models.APIKey, error)
	UpdateQuotas(ctx context.Context, keyID uuid.UUID, quotas models.Quotas) (*models.APIKey, error)
}

// UserServiceInterface defines the methods used by handlers from UserService
type UserServiceInterface interface {
	FindOrCreateFromOAuth(ctx context.Context, info *oauth.UserInfo) (*models.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	Approve(ctx context.Context, id uuid.UUID, orgID, role string) (*models.User, error)
}

// StandardServiceInterface defines the methods used by handlers from StandardService
type StandardServiceInterface interface {
	ListForTenant(ctx context.Context, tenantID string) ([]models.Standard, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Standard, error)
	Create(ctx context.Context, tenantID, name, source string) (*models.Standard, error)
}

// TokenIssuer defines the token-minting method used by the auth handler
type TokenIssuer interface {
	IssueToken(user *models.User) (string, int64, error)
}
