package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	KeyStatusActive  = "active"
	KeyStatusRevoked = "revoked"
)

// TenantSystem is the distinguished tenant whose credentials may act on
// behalf of other tenants via the X-Tenant-ID override header.
const TenantSystem = "system"

type APIKey struct {
	ID               uuid.UUID         `json:"id"`
	KeyHash          string            `json:"-"`
	KeyPrefix        string            `json:"key_prefix"`
	TenantID         string            `json:"tenant_id"`
	Status           string            `json:"status"`
	Quotas           Quotas            `json:"quotas"`
	Permissions      []string          `json:"permissions"`
	AllowedStandards *AllowedStandards `json:"allowed_standards,omitempty"`
	TotalRequests    int64             `json:"total_requests"`
	ExpiresAt        *time.Time        `json:"expires_at,omitempty"`
	CreatedBy        string            `json:"created_by"`
	CreatedAt        time.Time         `json:"created_at"`
	LastUsedAt       *time.Time        `json:"last_used_at,omitempty"`
	RevokedAt        *time.Time        `json:"revoked_at,omitempty"`
}

// Quotas holds per-window request ceilings. A nil field means unlimited for
// that window.
type Quotas struct {
	RequestsPerMinute *int `json:"requests_per_minute,omitempty"`
	RequestsPerDay    *int `json:"requests_per_day,omitempty"`
	RequestsPerMonth  *int `json:"requests_per_month,omitempty"`
}

func (q Quotas) Configured() bool {
	return q.RequestsPerMinute != nil || q.RequestsPerDay != nil || q.RequestsPerMonth != nil
}

// AllowedStandards restricts which standards a key may read. A nil
// *AllowedStandards means unrestricted; a non-nil value with empty lists
// means no access at all.
type AllowedStandards struct {
	Marketplace []string `json:"marketplace"`
	Custom      []string `json:"custom"`
}

func (a *AllowedStandards) Permits(source, standardID string) bool {
	if a == nil {
		return true
	}
	ids := a.Custom
	if source == StandardSourceMarketplace {
		ids = a.Marketplace
	}
	for _, id := range ids {
		if id == standardID {
			return true
		}
	}
	return false
}
