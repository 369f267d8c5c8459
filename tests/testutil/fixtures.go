package testutil

import (
	"context"
	"fmt"
	"testing"

	"github.com/nprocess/compliance-api/internal/database"
	"github.com/nprocess/compliance-api/internal/models"
	"github.com/nprocess/compliance-api/internal/services"
)

// Fixtures provides factory methods for creating test data
type Fixtures struct {
	db      *database.DB
	counter int
}

// NewFixtures creates a new fixtures factory
func NewFixtures(db *database.DB) *Fixtures {
	return &Fixtures{db: db}
}

// UserOption customizes a fixture user before insert
type UserOption func(*models.User)

func WithRole(role string) UserOption {
	return func(u *models.User) { u.Role = role }
}

func WithStatus(status string) UserOption {
	return func(u *models.User) { u.Status = status }
}

func WithOrg(orgID string) UserOption {
	return func(u *models.User) { u.OrgID = &orgID }
}

// CreateUser creates a test user, active developer by default
func (f *Fixtures) CreateUser(t *testing.T, opts ...UserOption) *models.User {
	t.Helper()
	f.counter++

	user := &models.User{
		Email:      fmt.Sprintf("user%d@example.com", f.counter),
		Name:       fmt.Sprintf("Test User %d", f.counter),
		Role:       models.RoleDeveloper,
		Status:     models.StatusActive,
		Provider:   "google",
		ProviderID: fmt.Sprintf("provider-%d", f.counter),
	}

	for _, opt := range opts {
		opt(user)
	}

	ctx := context.Background()
	err := f.db.Pool.QueryRow(ctx, `
		INSERT INTO users (email, name, org_id, role, status, provider, provider_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at
	`, user.Email, user.Name, user.OrgID, user.Role, user.Status, user.Provider, user.ProviderID).Scan(
		&user.ID, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		t.Fatalf("failed to create fixture user: %v", err)
	}
	return user
}

// CreateAPIKey creates a key through the credential store and returns both
// the stored record and the raw key
func (f *Fixtures) CreateAPIKey(t *testing.T, tenantID string, quotas models.Quotas) (*models.APIKey, string) {
	t.Helper()
	svc := services.NewAPIKeyService(f.db)
	apiKey, plainKey, err := svc.Create(context.Background(), tenantID, "fixtures", quotas, nil, nil, nil)
	if err != nil {
		t.Fatalf("failed to create fixture api key: %v", err)
	}
	return apiKey, plainKey
}

// CreateStandard creates a standard owned by the given tenant
func (f *Fixtures) CreateStandard(t *testing.T, tenantID, name, source string) *models.Standard {
	t.Helper()
	svc := services.NewStandardService(f.db)
	standard, err := svc.Create(context.Background(), tenantID, name, source)
	if err != nil {
		t.Fatalf("failed to create fixture standard: %v", err)
	}
	return standard
}
