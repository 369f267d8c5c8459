package testutil

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/nprocess/compliance-api/internal/models"
	"github.com/nprocess/compliance-api/internal/oauth"
)

// MockAPIKeyService mocks the APIKeyService
type MockAPIKeyService struct {
	mock.Mock
}

func (m *MockAPIKeyService) Create(ctx context.Context, tenantID, createdBy string, quotas models.Quotas, permissions []string, allowedStandards *models.AllowedStandards, expiresAt *time.Time) (*models.APIKey, string, error) {
	args := m.Called(ctx, tenantID, createdBy, quotas, permissions, allowedStandards, expiresAt)
	if args.Get(0) == nil {
		return nil, "", args.Error(2)
	}
	return args.Get(0).(*models.APIKey), args.String(1), args.Error(2)
}

func (m *MockAPIKeyService) Validate(ctx context.Context, rawKey string) (*models.APIKey, error) {
	args := m.Called(ctx, rawKey)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.APIKey), args.Error(1)
}

func (m *MockAPIKeyService) TouchLastUsed(keyID uuid.UUID) {
	m.Called(keyID)
}

func (m *MockAPIKeyService) GetByID(ctx context.Context, keyID uuid.UUID) (*models.APIKey, error) {
	args := m.Called(ctx, keyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.APIKey), args.Error(1)
}

func (m *MockAPIKeyService) List(ctx context.Context, tenantID string) ([]models.APIKey, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.APIKey), args.Error(1)
}

func (m *MockAPIKeyService) Revoke(ctx context.Context, keyID uuid.UUID, by string) (*models.APIKey, error) {
	args := m.Called(ctx, keyID, by)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.APIKey), args.Error(1)
}

func (m *MockAPIKeyService) Delete(ctx context.Context, keyID uuid.UUID) error {
	args := m.Called(ctx, keyID)
	return args.Error(0)
}

func (m *MockAPIKeyService) UpdateAllowedStandards(ctx context.Context, keyID uuid.UUID, standards *models.AllowedStandards) (*models.APIKey, error) {
	args := m.Called(ctx, keyID, standards)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.APIKey), args.Error(1)
}

func (m *MockAPIKeyService) UpdateQuotas(ctx context.Context, keyID uuid.UUID, quotas models.Quotas) (*models.APIKey, error) {
	args := m.Called(ctx, keyID, quotas)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.APIKey), args.Error(1)
}

// MockUserService mocks the UserService
type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) FindOrCreateFromOAuth(ctx context.Context, info *oauth.UserInfo) (*models.User, error) {
	args := m.Called(ctx, info)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserService) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserService) Approve(ctx context.Context, id uuid.UUID, orgID, role string) (*models.User, error) {
	args := m.Called(ctx, id, orgID, role)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

// MockStandardService mocks the StandardService
type MockStandardService struct {
	mock.Mock
}

func (m *MockStandardService) ListForTenant(ctx context.Context, tenantID string) ([]models.Standard, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Standard), args.Error(1)
}

func (m *MockStandardService) GetByID(ctx context.Context, id uuid.UUID) (*models.Standard, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Standard), args.Error(1)
}

func (m *MockStandardService) Create(ctx context.Context, tenantID, name, source string) (*models.Standard, error) {
	args := m.Called(ctx, tenantID, name, source)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Standard), args.Error(1)
}
