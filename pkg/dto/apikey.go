package dto

import (
	"time"

	"github.com/google/uuid"

	"github.com/nprocess/compliance-api/internal/models"
)

type CreateAPIKeyRequest struct {
	TenantID         string                   `json:"tenant_id"`
	Quotas           models.Quotas            `json:"quotas"`
	Permissions      []string                 `json:"permissions,omitempty"`
	AllowedStandards *models.AllowedStandards `json:"allowed_standards,omitempty"`
	ExpiresAt        *time.Time               `json:"expires_at,omitempty"`
}

type APIKeyResponse struct {
	ID               uuid.UUID                `json:"id"`
	KeyPrefix        string                   `json:"key_prefix"`
	TenantID         string                   `json:"tenant_id"`
	Status           string                   `json:"status"`
	Quotas           models.Quotas            `json:"quotas"`
	Permissions      []string                 `json:"permissions"`
	AllowedStandards *models.AllowedStandards `json:"allowed_standards,omitempty"`
	TotalRequests    int64                    `json:"total_requests"`
	ExpiresAt        *string                  `json:"expires_at,omitempty"`
	CreatedAt        string                   `json:"created_at"`
	LastUsedAt       *string                  `json:"last_used_at,omitempty"`
}

// APIKeyCreatedResponse carries the raw key. It is returned exactly once, at
// creation; the key cannot be recovered afterwards.
type APIKeyCreatedResponse struct {
	ID        uuid.UUID     `json:"id"`
	Key       string        `json:"key"`
	KeyPrefix string        `json:"key_prefix"`
	TenantID  string        `json:"tenant_id"`
	Quotas    models.Quotas `json:"quotas"`
	ExpiresAt *string       `json:"expires_at,omitempty"`
	CreatedAt string        `json:"created_at"`
}

type ValidateAPIKeyRequest struct {
	Key string `json:"key"`
}

type ValidateAPIKeyResponse struct {
	Valid    bool   `json:"valid"`
	Message  string `json:"message,omitempty"`
	KeyID    string `json:"key_id,omitempty"`
	TenantID string `json:"tenant_id,omitempty"`
}

type UpdateStandardsRequest struct {
	// AllowedStandards null clears the restriction entirely; empty lists
	// mean zero access.
	AllowedStandards *models.AllowedStandards `json:"allowed_standards"`
}

type UpdateQuotasRequest struct {
	Quotas models.Quotas `json:"quotas"`
}
