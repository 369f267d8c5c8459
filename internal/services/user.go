package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/nprocess/compliance-api/internal/database"
	"github.com/nprocess/compliance-api/internal/models"
	"github.com/nprocess/compliance-api/internal/oauth"
)

var ErrUserNotFound = errors.New("user not found")

type UserService struct {
	db *database.DB
}

func NewUserService(db *database.DB) *UserService {
	return &UserService{db: db}
}

// FindOrCreateFromOAuth looks a user up by provider identity and creates one
// on first sign-in. New users start as guest/pending; an operator has to
// approve them before any protected call succeeds.
func (s *UserService) FindOrCreateFromOAuth(ctx context.Context, info *oauth.UserInfo) (*models.User, error) {
	var user models.User
	err := s.db.Pool.QueryRow(ctx, `
		SELECT id, email, name, org_id, role, status, provider, provider_id, created_at, updated_at
		FROM users WHERE provider = $1 AND provider_id = $2
	`, info.Provider, info.ID).Scan(
		&user.ID, &user.Email, &user.Name, &user.OrgID, &user.Role, &user.Status,
		&user.Provider, &user.ProviderID, &user.CreatedAt, &user.UpdatedAt,
	)
	if err == nil {
		return &user, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	err = s.db.Pool.QueryRow(ctx, `
		INSERT INTO users (email, name, provider, provider_id)
		VALUES ($1, $2, $3, $4)
		RETURNING id, email, name, org_id, role, status, provider, provider_id, created_at, updated_at
	`, info.Email, info.Name, info.Provider, info.ID).Scan(
		&user.ID, &user.Email, &user.Name, &user.OrgID, &user.Role, &user.Status,
		&user.Provider, &user.ProviderID, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return &user, nil
}

func (s *UserService) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	err := s.db.Pool.QueryRow(ctx, `
		SELECT id, email, name, org_id, role, status, provider, provider_id, created_at, updated_at
		FROM users WHERE id = $1
	`, id).Scan(
		&user.ID, &user.Email, &user.Name, &user.OrgID, &user.Role, &user.Status,
		&user.Provider, &user.ProviderID, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// Approve activates a pending user and assigns org and role.
func (s *UserService) Approve(ctx context.Context, id uuid.UUID, orgID, role string) (*models.User, error) {
	var user models.User
	err := s.db.Pool.QueryRow(ctx, `
		UPDATE users
		SET org_id = $2, role = $3, status = 'active', updated_at = NOW()
		WHERE id = $1
		RETURNING id, email, name, org_id, role, status, provider, provider_id, created_at, updated_at
	`, id, orgID, role).Scan(
		&user.ID, &user.Email, &user.Name, &user.OrgID, &user.Role, &user.Status,
		&user.Provider, &user.ProviderID, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}
