package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	StandardSourceMarketplace = "marketplace"
	StandardSourceCustom      = "custom"
)

// Standard is a compliance standard document. Marketplace standards belong to
// the system tenant and are visible to everyone; custom standards are private
// to their owning tenant.
type Standard struct {
	ID        uuid.UUID `json:"id"`
	TenantID  string    `json:"tenant_id"`
	Name      string    `json:"name"`
	Source    string    `json:"source"`
	CreatedAt time.Time `json:"created_at"`
}
