package services

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/nprocess/compliance-api/internal/database"
	"github.com/nprocess/compliance-api/internal/models"
)

var (
	ErrAPIKeyNotFound = errors.New("API Key not found")
	ErrAPIKeyRevoked  = errors.New("API Key is revoked")
	ErrAPIKeyExpired  = errors.New("API Key is expired")
)

const (
	apiKeyPrefix    = "ce"
	apiKeyRandomLen = 32
)

type APIKeyService struct {
	db *database.DB
}

func NewAPIKeyService(db *database.DB) *APIKeyService {
	return &APIKeyService{db: db}
}

// GenerateAPIKey builds a new raw key with the format
// ce_<8 chars of key id>_<64 hex chars>. Only the SHA-256 hash is stored;
// the random part carries 256 bits of entropy, so a slow hash is not needed.
func (s *APIKeyService) GenerateAPIKey(keyID uuid.UUID) (plainKey, keyHash, keyPrefix string) {
	idPrefix := strings.ReplaceAll(keyID.String(), "-", "")[:8]

	randomBytes := make([]byte, apiKeyRandomLen)
	_, _ = rand.Read(randomBytes)
	randomPart := hex.EncodeToString(randomBytes)

	plainKey = apiKeyPrefix + "_" + idPrefix + "_" + randomPart
	keyPrefix = apiKeyPrefix + "_" + idPrefix

	hash := sha256.Sum256([]byte(plainKey))
	keyHash = hex.EncodeToString(hash[:])

	return plainKey, keyHash, keyPrefix
}

// Create persists a new active key and returns the raw key exactly once.
func (s *APIKeyService) Create(ctx context.Context, tenantID, createdBy string, quotas models.Quotas, permissions []string, allowedStandards *models.AllowedStandards, expiresAt *time.Time) (*models.APIKey, string, error) {
	keyID := uuid.New()
	plainKey, keyHash, keyPrefix := s.GenerateAPIKey(keyID)

	if permissions == nil {
		permissions = []string{}
	}

	var apiKey models.APIKey
	err := s.db.Pool.QueryRow(ctx, `
		INSERT INTO api_keys (id, key_hash, key_prefix, tenant_id, status, requests_per_minute, requests_per_day, requests_per_month, permissions, allowed_standards, expires_at, created_by)
		VALUES ($1, $2, $3, $4, 'active', $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, key_hash, key_prefix, tenant_id, status, requests_per_minute, requests_per_day, requests_per_month, permissions, allowed_standards, total_requests, expires_at, created_by, created_at, last_used_at, revoked_at
	`, keyID, keyHash, keyPrefix, tenantID,
		quotas.RequestsPerMinute, quotas.RequestsPerDay, quotas.RequestsPerMonth,
		permissions, allowedStandards, expiresAt, createdBy,
	).Scan(
		&apiKey.ID, &apiKey.KeyHash, &apiKey.KeyPrefix, &apiKey.TenantID, &apiKey.Status,
		&apiKey.Quotas.RequestsPerMinute, &apiKey.Quotas.RequestsPerDay, &apiKey.Quotas.RequestsPerMonth,
		&apiKey.Permissions, &apiKey.AllowedStandards, &apiKey.TotalRequests,
		&apiKey.ExpiresAt, &apiKey.CreatedBy, &apiKey.CreatedAt, &apiKey.LastUsedAt, &apiKey.RevokedAt,
	)
	if err != nil {
		return nil, "", err
	}

	return &apiKey, plainKey, nil
}

// Validate hashes the presented key and looks it up by hash, never by id, so
// the store cannot be enumerated. The returned sentinel distinguishes
// not-found, revoked and expired keys.
func (s *APIKeyService) Validate(ctx context.Context, rawKey string) (*models.APIKey, error) {
	hash := sha256.Sum256([]byte(rawKey))
	keyHash := hex.EncodeToString(hash[:])

	var apiKey models.APIKey
	err := s.db.Pool.QueryRow(ctx, `
		SELECT id, key_hash, key_prefix, tenant_id, status, requests_per_minute, requests_per_day, requests_per_month, permissions, allowed_standards, total_requests, expires_at, created_by, created_at, last_used_at, revoked_at
		FROM api_keys
		WHERE key_hash = $1
	`, keyHash).Scan(
		&apiKey.ID, &apiKey.KeyHash, &apiKey.KeyPrefix, &apiKey.TenantID, &apiKey.Status,
		&apiKey.Quotas.RequestsPerMinute, &apiKey.Quotas.RequestsPerDay, &apiKey.Quotas.RequestsPerMonth,
		&apiKey.Permissions, &apiKey.AllowedStandards, &apiKey.TotalRequests,
		&apiKey.ExpiresAt, &apiKey.CreatedBy, &apiKey.CreatedAt, &apiKey.LastUsedAt, &apiKey.RevokedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAPIKeyNotFound
		}
		return nil, fmt.Errorf("failed to look up api key: %w", err)
	}

	if apiKey.Status == models.KeyStatusRevoked {
		return nil, ErrAPIKeyRevoked
	}

	if apiKey.ExpiresAt != nil && apiKey.ExpiresAt.Before(time.Now()) {
		return nil, ErrAPIKeyExpired
	}

	return &apiKey, nil
}

// TouchLastUsed updates last_used_at on a detached goroutine. Failures are
// logged and never reach the enclosing request.
func (s *APIKeyService) TouchLastUsed(keyID uuid.UUID) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if _, err := s.db.Pool.Exec(ctx, `
			UPDATE api_keys SET last_used_at = NOW() WHERE id = $1
		`, keyID); err != nil {
			log.Printf("failed to update last_used_at for key %s: %v", keyID, err)
		}
	}()
}

func (s *APIKeyService) GetByID(ctx context.Context, keyID uuid.UUID) (*models.APIKey, error) {
	var apiKey models.APIKey
	err := s.db.Pool.QueryRow(ctx, `
		SELECT id, key_hash, key_prefix, tenant_id, status, requests_per_minute, requests_per_day, requests_per_month, permissions, allowed_standards, total_requests, expires_at, created_by, created_at, last_used_at, revoked_at
		FROM api_keys
		WHERE id = $1
	`, keyID).Scan(
		&apiKey.ID, &apiKey.KeyHash, &apiKey.KeyPrefix, &apiKey.TenantID, &apiKey.Status,
		&apiKey.Quotas.RequestsPerMinute, &apiKey.Quotas.RequestsPerDay, &apiKey.Quotas.RequestsPerMonth,
		&apiKey.Permissions, &apiKey.AllowedStandards, &apiKey.TotalRequests,
		&apiKey.ExpiresAt, &apiKey.CreatedBy, &apiKey.CreatedAt, &apiKey.LastUsedAt, &apiKey.RevokedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAPIKeyNotFound
		}
		return nil, fmt.Errorf("failed to load api key: %w", err)
	}
	return &apiKey, nil
}

func (s *APIKeyService) List(ctx context.Context, tenantID string) ([]models.APIKey, error) {
	rows, err := s.db.Pool.Query(ctx, `
		SELECT id, key_hash, key_prefix, tenant_id, status, requests_per_minute, requests_per_day, requests_per_month, permissions, allowed_standards, total_requests, expires_at, created_by, created_at, last_used_at, revoked_at
		FROM api_keys
		WHERE ($1 = '' OR tenant_id = $1)
		ORDER BY created_at DESC
	`, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var keys []models.APIKey
	for rows.Next() {
		var k models.APIKey
		if err := rows.Scan(
			&k.ID, &k.KeyHash, &k.KeyPrefix, &k.TenantID, &k.Status,
			&k.Quotas.RequestsPerMinute, &k.Quotas.RequestsPerDay, &k.Quotas.RequestsPerMonth,
			&k.Permissions, &k.AllowedStandards, &k.TotalRequests,
			&k.ExpiresAt, &k.CreatedBy, &k.CreatedAt, &k.LastUsedAt, &k.RevokedAt,
		); err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

// Revoke is terminal and idempotent: revoking an already-revoked key returns
// the record unchanged.
func (s *APIKeyService) Revoke(ctx context.Context, keyID uuid.UUID, by string) (*models.APIKey, error) {
	result, err := s.db.Pool.Exec(ctx, `
		UPDATE api_keys
		SET status = 'revoked', revoked_at = NOW()
		WHERE id = $1 AND status = 'active'
	`, keyID)
	if err != nil {
		return nil, err
	}
	if result.RowsAffected() == 0 {
		// Either already revoked (fine) or missing (not).
		return s.GetByID(ctx, keyID)
	}
	log.Printf("api key %s revoked by %s", keyID, by)
	return s.GetByID(ctx, keyID)
}

// Delete removes the record entirely. Revoke is the normal path; delete
// exists for explicit admin cleanup only.
func (s *APIKeyService) Delete(ctx context.Context, keyID uuid.UUID) error {
	result, err := s.db.Pool.Exec(ctx, `DELETE FROM api_keys WHERE id = $1`, keyID)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrAPIKeyNotFound
	}
	return nil
}

// UpdateAllowedStandards sets the key's standards restriction. A nil value
// clears it (unrestricted); empty lists mean zero access.
func (s *APIKeyService) UpdateAllowedStandards(ctx context.Context, keyID uuid.UUID, standards *models.AllowedStandards) (*models.APIKey, error) {
	result, err := s.db.Pool.Exec(ctx, `
		UPDATE api_keys SET allowed_standards = $2 WHERE id = $1
	`, keyID, standards)
	if err != nil {
		return nil, err
	}
	if result.RowsAffected() == 0 {
		return nil, ErrAPIKeyNotFound
	}
	return s.GetByID(ctx, keyID)
}

func (s *APIKeyService) UpdateQuotas(ctx context.Context, keyID uuid.UUID, quotas models.Quotas) (*models.APIKey, error) {
	result, err := s.db.Pool.Exec(ctx, `
		UPDATE api_keys
		SET requests_per_minute = $2, requests_per_day = $3, requests_per_month = $4
		WHERE id = $1
	`, keyID, quotas.RequestsPerMinute, quotas.RequestsPerDay, quotas.RequestsPerMonth)
	if err != nil {
		return nil, err
	}
	if result.RowsAffected() == 0 {
		return nil, ErrAPIKeyNotFound
	}
	return s.GetByID(ctx, keyID)
}
