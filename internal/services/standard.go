package services

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/nprocess/compliance-api/internal/database"
	"github.com/nprocess/compliance-api/internal/models"
)

var ErrStandardNotFound = errors.New("standard not found")

type StandardService struct {
	db *database.DB
}

func NewStandardService(db *database.DB) *StandardService {
	return &StandardService{db: db}
}

// ListForTenant returns the tenant's own standards plus the marketplace
// catalog (marketplace rows live under the system tenant and are visible to
// every tenant).
func (s *StandardService) ListForTenant(ctx context.Context, tenantID string) ([]models.Standard, error) {
	rows, err := s.db.Pool.Query(ctx, `
		SELECT id, tenant_id, name, source, created_at
		FROM standards
		WHERE tenant_id = $1 OR (tenant_id = $2 AND source = 'marketplace')
		ORDER BY created_at DESC
	`, tenantID, models.TenantSystem)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var standards []models.Standard
	for rows.Next() {
		var st models.Standard
		if err := rows.Scan(&st.ID, &st.TenantID, &st.Name, &st.Source, &st.CreatedAt); err != nil {
			return nil, err
		}
		standards = append(standards, st)
	}
	return standards, rows.Err()
}

func (s *StandardService) GetByID(ctx context.Context, id uuid.UUID) (*models.Standard, error) {
	var st models.Standard
	err := s.db.Pool.QueryRow(ctx, `
		SELECT id, tenant_id, name, source, created_at
		FROM standards WHERE id = $1
	`, id).Scan(&st.ID, &st.TenantID, &st.Name, &st.Source, &st.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrStandardNotFound
		}
		return nil, err
	}
	return &st, nil
}

func (s *StandardService) Create(ctx context.Context, tenantID, name, source string) (*models.Standard, error) {
	var st models.Standard
	err := s.db.Pool.QueryRow(ctx, `
		INSERT INTO standards (tenant_id, name, source)
		VALUES ($1, $2, $3)
		RETURNING id, tenant_id, name, source, created_at
	`, tenantID, name, source).Scan(&st.ID, &st.TenantID, &st.Name, &st.Source, &st.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &st, nil
}
