package models

import "github.com/google/uuid"

// AuthContext is the request-scoped result of identity resolution. Exactly
// one of the credential paths (API key, bearer token, internal service
// token) populates it.
type AuthContext struct {
	// Identity is the caller's stable identifier: the key prefix for API
	// keys, the user id for bearer tokens, "service" for the internal token.
	Identity string

	// TenantID is authoritative for the request. Empty means the caller
	// belongs to no tenant; operations that need one must reject explicitly.
	TenantID string

	Role   string
	Status string

	// KeyID is set only when the request authenticated with an API key.
	KeyID            uuid.UUID
	Quotas           Quotas
	Permissions      []string
	AllowedStandards *AllowedStandards

	IsAPIKey  bool
	IsService bool
}
