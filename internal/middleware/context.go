package middleware

import (
	"github.com/m1z23r/drift/pkg/drift"

	"github.com/nprocess/compliance-api/internal/models"
)

const (
	AuthContextKey   = "auth_context"
	CorrelationIDKey = "correlation_id"
)

const (
	HeaderAPIKey         = "X-API-Key"
	HeaderTenantOverride = "X-Tenant-ID"
	HeaderCorrelationID  = "X-Correlation-ID"
)

// GetAuthContext retrieves the resolved identity from the request context
// (set by Authenticate). Returns nil on unauthenticated requests.
func GetAuthContext(c *drift.Context) *models.AuthContext {
	if v, ok := c.Get(AuthContextKey); ok {
		if authCtx, ok := v.(*models.AuthContext); ok {
			return authCtx
		}
	}
	return nil
}

// GetTenantID returns the authoritative tenant for the request, or "" when
// the caller belongs to no tenant.
func GetTenantID(c *drift.Context) string {
	if authCtx := GetAuthContext(c); authCtx != nil {
		return authCtx.TenantID
	}
	return ""
}

func GetCorrelationID(c *drift.Context) string {
	if v, ok := c.Get(CorrelationIDKey); ok {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}
