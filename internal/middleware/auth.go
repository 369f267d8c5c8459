package middleware

import (
	"github.com/m1z23r/drift/pkg/drift"

	"github.com/nprocess/compliance-api/internal/models"
)

// RequireRole admits only callers whose resolved role is in allowedRoles.
// There is no implicit super_admin bypass: super_admin passes a gate only
// when listed, the same rule on every route.
func RequireRole(allowedRoles ...string) drift.HandlerFunc {
	return func(c *drift.Context) {
		authCtx := GetAuthContext(c)
		if authCtx == nil {
			c.Unauthorized("missing credential")
			return
		}

		if authCtx.Status == models.StatusPending {
			c.Forbidden("awaiting approval")
			return
		}

		for _, role := range allowedRoles {
			if authCtx.Role == role {
				c.Next()
				return
			}
		}

		c.Forbidden("insufficient role")
	}
}

// RequireTenant rejects callers that resolved to no tenant. Token callers
// may legitimately carry no org claim; tenant-scoped routes must not proceed
// with an empty tenant.
func RequireTenant() drift.HandlerFunc {
	return func(c *drift.Context) {
		authCtx := GetAuthContext(c)
		if authCtx == nil {
			c.Unauthorized("missing credential")
			return
		}
		if authCtx.TenantID == "" {
			c.BadRequest("caller has no tenant")
			return
		}
		c.Next()
	}
}
