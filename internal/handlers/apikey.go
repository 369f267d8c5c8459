package handlers

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"

	"github.com/nprocess/compliance-api/internal/middleware"
	"github.com/nprocess/compliance-api/internal/models"
	"github.com/nprocess/compliance-api/internal/services"
	"github.com/nprocess/compliance-api/pkg/dto"
)

type APIKeyHandler struct {
	apiKeyService APIKeyServiceInterface
}

func NewAPIKeyHandler(apiKeyService APIKeyServiceInterface) *APIKeyHandler {
	return &APIKeyHandler{apiKeyService: apiKeyService}
}

func (h *APIKeyHandler) Create(c *drift.Context) {
	authCtx := middleware.GetAuthContext(c)
	if authCtx == nil {
		c.Unauthorized("missing credential")
		return
	}

	var req dto.CreateAPIKeyRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}

	if req.TenantID == "" {
		c.BadRequest("tenant_id is required")
		return
	}

	if err := validateQuotas(req.Quotas); err != nil {
		c.BadRequest(err.Error())
		return
	}

	apiKey, plainKey, err := h.apiKeyService.Create(context.Background(), req.TenantID, authCtx.Identity, req.Quotas, req.Permissions, req.AllowedStandards, req.ExpiresAt)
	if err != nil {
		c.InternalServerError("failed to create api key")
		return
	}

	response := dto.APIKeyCreatedResponse{
		ID:        apiKey.ID,
		Key:       plainKey,
		KeyPrefix: apiKey.KeyPrefix,
		TenantID:  apiKey.TenantID,
		Quotas:    apiKey.Quotas,
		CreatedAt: apiKey.CreatedAt.Format(time.RFC3339),
	}
	if apiKey.ExpiresAt != nil {
		formatted := apiKey.ExpiresAt.Format(time.RFC3339)
		response.ExpiresAt = &formatted
	}

	_ = c.JSON(201, response)
}

func (h *APIKeyHandler) List(c *drift.Context) {
	tenantID := c.QueryParam("tenant_id")

	keys, err := h.apiKeyService.List(context.Background(), tenantID)
	if err != nil {
		c.InternalServerError("failed to list api keys")
		return
	}

	response := make([]dto.APIKeyResponse, 0, len(keys))
	for _, k := range keys {
		response = append(response, toAPIKeyResponse(&k))
	}

	_ = c.JSON(200, response)
}

func (h *APIKeyHandler) Get(c *drift.Context) {
	keyID, err := uuid.Parse(c.Param("keyId"))
	if err != nil {
		c.BadRequest("invalid key id")
		return
	}

	apiKey, err := h.apiKeyService.GetByID(context.Background(), keyID)
	if err != nil {
		if errors.Is(err, services.ErrAPIKeyNotFound) {
			c.NotFound("api key not found")
			return
		}
		c.InternalServerError("failed to load api key")
		return
	}

	_ = c.JSON(200, toAPIKeyResponse(apiKey))
}

// Validate checks a raw key and reports validity with the precise reason, so
// consumers can distinguish re-issuance (expired) from revocation. Store
// failures are not a verdict on the key and surface as 500.
func (h *APIKeyHandler) Validate(c *drift.Context) {
	var req dto.ValidateAPIKeyRequest
	if err := c.BindJSON(&req); err != nil || req.Key == "" {
		c.BadRequest("key is required")
		return
	}

	apiKey, err := h.apiKeyService.Validate(context.Background(), req.Key)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrAPIKeyNotFound),
			errors.Is(err, services.ErrAPIKeyRevoked),
			errors.Is(err, services.ErrAPIKeyExpired):
			_ = c.JSON(200, dto.ValidateAPIKeyResponse{
				Valid:   false,
				Message: err.Error(),
			})
		default:
			c.InternalServerError("failed to validate api key")
		}
		return
	}

	_ = c.JSON(200, dto.ValidateAPIKeyResponse{
		Valid:    true,
		KeyID:    apiKey.ID.String(),
		TenantID: apiKey.TenantID,
	})
}

func (h *APIKeyHandler) Revoke(c *drift.Context) {
	authCtx := middleware.GetAuthContext(c)
	if authCtx == nil {
		c.Unauthorized("missing credential")
		return
	}

	keyID, err := uuid.Parse(c.Param("keyId"))
	if err != nil {
		c.BadRequest("invalid key id")
		return
	}

	apiKey, err := h.apiKeyService.Revoke(context.Background(), keyID, authCtx.Identity)
	if err != nil {
		if errors.Is(err, services.ErrAPIKeyNotFound) {
			c.NotFound("api key not found")
			return
		}
		c.InternalServerError("failed to revoke api key")
		return
	}

	_ = c.JSON(200, toAPIKeyResponse(apiKey))
}

func (h *APIKeyHandler) Delete(c *drift.Context) {
	keyID, err := uuid.Parse(c.Param("keyId"))
	if err != nil {
		c.BadRequest("invalid key id")
		return
	}

	if err := h.apiKeyService.Delete(context.Background(), keyID); err != nil {
		if errors.Is(err, services.ErrAPIKeyNotFound) {
			c.NotFound("api key not found")
			return
		}
		c.InternalServerError("failed to delete api key")
		return
	}

	_ = c.JSON(200, map[string]string{"message": "api key deleted"})
}

func (h *APIKeyHandler) UpdateStandards(c *drift.Context) {
	keyID, err := uuid.Parse(c.Param("keyId"))
	if err != nil {
		c.BadRequest("invalid key id")
		return
	}

	var req dto.UpdateStandardsRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}

	apiKey, err := h.apiKeyService.UpdateAllowedStandards(context.Background(), keyID, req.AllowedStandards)
	if err != nil {
		if errors.Is(err, services.ErrAPIKeyNotFound) {
			c.NotFound("api key not found")
			return
		}
		c.InternalServerError("failed to update allowed standards")
		return
	}

	_ = c.JSON(200, toAPIKeyResponse(apiKey))
}

func (h *APIKeyHandler) UpdateQuotas(c *drift.Context) {
	keyID, err := uuid.Parse(c.Param("keyId"))
	if err != nil {
		c.BadRequest("invalid key id")
		return
	}

	var req dto.UpdateQuotasRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}

	if err := validateQuotas(req.Quotas); err != nil {
		c.BadRequest(err.Error())
		return
	}

	apiKey, err := h.apiKeyService.UpdateQuotas(context.Background(), keyID, req.Quotas)
	if err != nil {
		if errors.Is(err, services.ErrAPIKeyNotFound) {
			c.NotFound("api key not found")
			return
		}
		c.InternalServerError("failed to update quotas")
		return
	}

	_ = c.JSON(200, toAPIKeyResponse(apiKey))
}

func validateQuotas(quotas models.Quotas) error {
	for _, limit := range []*int{quotas.RequestsPerMinute, quotas.RequestsPerDay, quotas.RequestsPerMonth} {
		if limit != nil && *limit < 0 {
			return errors.New("quota limits must not be negative")
		}
	}
	return nil
}

func toAPIKeyResponse(k *models.APIKey) dto.APIKeyResponse {
	response := dto.APIKeyResponse{
		ID:               k.ID,
		KeyPrefix:        k.KeyPrefix,
		TenantID:         k.TenantID,
		Status:           k.Status,
		Quotas:           k.Quotas,
		Permissions:      k.Permissions,
		AllowedStandards: k.AllowedStandards,
		TotalRequests:    k.TotalRequests,
		CreatedAt:        k.CreatedAt.Format(time.RFC3339),
	}
	if k.ExpiresAt != nil {
		formatted := k.ExpiresAt.Format(time.RFC3339)
		response.ExpiresAt = &formatted
	}
	if k.LastUsedAt != nil {
		formatted := k.LastUsedAt.Format(time.RFC3339)
		response.LastUsedAt = &formatted
	}
	return response
}
