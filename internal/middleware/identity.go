package middleware

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"

	"github.com/nprocess/compliance-api/internal/models"
	"github.com/nprocess/compliance-api/internal/services"
)

// APIKeyValidator is the slice of APIKeyService the identity middleware uses.
type APIKeyValidator interface {
	Validate(ctx context.Context, rawKey string) (*models.APIKey, error)
	TouchLastUsed(keyID uuid.UUID)
}

// TokenVerifier is the slice of TokenService the identity middleware uses.
type TokenVerifier interface {
	Verify(tokenString string) (*services.Claims, error)
	IsServiceToken(tokenString string) bool
}

// Authenticate resolves the caller's identity and tenant. Resolution order:
// X-API-Key first, then Authorization bearer, otherwise 401.
//
// A tenant-scoped key always resolves to its own tenant no matter what
// X-Tenant-ID says; only system-scoped credentials may impersonate another
// tenant through the override header.
func Authenticate(apiKeys APIKeyValidator, tokens TokenVerifier) drift.HandlerFunc {
	return func(c *drift.Context) {
		if rawKey := c.GetHeader(HeaderAPIKey); rawKey != "" {
			authenticateAPIKey(c, apiKeys, rawKey)
			return
		}

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.Unauthorized("missing credential")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			c.Unauthorized("invalid authorization header format")
			return
		}

		authenticateBearer(c, tokens, parts[1])
	}
}

func authenticateAPIKey(c *drift.Context, apiKeys APIKeyValidator, rawKey string) {
	key, err := apiKeys.Validate(context.Background(), rawKey)
	if err != nil {
		// Sentinel messages distinguish not-found, revoked and expired so
		// consumers can react (re-issue vs contact support). Anything else is
		// a store failure, never the caller's fault.
		switch {
		case errors.Is(err, services.ErrAPIKeyNotFound),
			errors.Is(err, services.ErrAPIKeyRevoked),
			errors.Is(err, services.ErrAPIKeyExpired):
			c.Unauthorized(err.Error())
		default:
			c.InternalServerError("failed to verify api key")
		}
		return
	}

	tenantID := key.TenantID
	role := models.RoleDeveloper
	if key.TenantID == models.TenantSystem {
		role = models.RoleAdmin
		if override := c.GetHeader(HeaderTenantOverride); override != "" {
			tenantID = override
		}
	}

	apiKeys.TouchLastUsed(key.ID)

	c.Set(AuthContextKey, &models.AuthContext{
		Identity:         key.KeyPrefix,
		TenantID:         tenantID,
		Role:             role,
		Status:           models.StatusActive,
		KeyID:            key.ID,
		Quotas:           key.Quotas,
		Permissions:      key.Permissions,
		AllowedStandards: key.AllowedStandards,
		IsAPIKey:         true,
	})
	c.Next()
}

func authenticateBearer(c *drift.Context, tokens TokenVerifier, token string) {
	if tokens.IsServiceToken(token) {
		tenantID := models.TenantSystem
		if override := c.GetHeader(HeaderTenantOverride); override != "" {
			tenantID = override
		}
		c.Set(AuthContextKey, &models.AuthContext{
			Identity:  "service",
			TenantID:  tenantID,
			Role:      models.RoleAdmin,
			Status:    models.StatusActive,
			IsService: true,
		})
		c.Next()
		return
	}

	claims, err := tokens.Verify(token)
	if err != nil {
		if errors.Is(err, services.ErrTokenExpired) {
			c.Unauthorized("token is expired")
			return
		}
		c.Unauthorized("token is invalid")
		return
	}

	if claims.Status == models.StatusPending {
		c.Forbidden("awaiting approval")
		return
	}
	if claims.Status == models.StatusSuspended {
		c.Forbidden("account suspended")
		return
	}

	c.Set(AuthContextKey, &models.AuthContext{
		Identity: claims.UserID.String(),
		TenantID: claims.OrgID,
		Role:     claims.Role,
		Status:   claims.Status,
	})
	c.Next()
}
