package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
	driftmw "github.com/m1z23r/drift/pkg/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/nprocess/compliance-api/internal/middleware"
	"github.com/nprocess/compliance-api/internal/models"
	"github.com/nprocess/compliance-api/internal/services"
	"github.com/nprocess/compliance-api/pkg/dto"
	"github.com/nprocess/compliance-api/tests/testutil"
)

func setupAPIKeyTest(t *testing.T) (*testutil.MockAPIKeyService, *APIKeyHandler) {
	t.Helper()
	mockService := new(testutil.MockAPIKeyService)
	handler := NewAPIKeyHandler(mockService)
	return mockService, handler
}

// asAdmin injects a resolved admin identity ahead of the handler, the way
// the authentication middleware would for an approved admin token.
func asAdmin(c *drift.Context) {
	c.Set(middleware.AuthContextKey, &models.AuthContext{
		Identity: "admin@example.com",
		TenantID: models.TenantSystem,
		Role:     models.RoleAdmin,
		Status:   models.StatusActive,
	})
	c.Next()
}

func activeKey(tenantID string) *models.APIKey {
	return &models.APIKey{
		ID:        uuid.New(),
		KeyPrefix: "ce_abcd1234",
		TenantID:  tenantID,
		Status:    models.KeyStatusActive,
		CreatedAt: time.Now().UTC(),
	}
}

func TestAPIKeyHandler_Create_Success(t *testing.T) {
	mockService, handler := setupAPIKeyTest(t)

	rpm := 100
	key := activeKey("acme")
	key.Quotas = models.Quotas{RequestsPerMinute: &rpm}

	mockService.On("Create", mock.Anything, "acme", "admin@example.com", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(key, "ce_abcd1234_deadbeef", nil)

	app := drift.New()
	app.Use(driftmw.BodyParser())
	app.Use(asAdmin)
	app.Post("/admin/api-keys", handler.Create)

	body := dto.CreateAPIKeyRequest{
		TenantID: "acme",
		Quotas:   models.Quotas{RequestsPerMinute: &rpm},
	}
	jsonBody, _ := json.Marshal(body)

	req := httptest.NewRequest(http.MethodPost, "/admin/api-keys", bytes.NewReader(jsonBody))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	app.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)

	var response dto.APIKeyCreatedResponse
	err := json.Unmarshal(rec.Body.Bytes(), &response)
	require.NoError(t, err)

	assert.Equal(t, key.ID, response.ID)
	assert.Equal(t, "ce_abcd1234_deadbeef", response.Key)
	assert.Equal(t, "acme", response.TenantID)

	mockService.AssertExpectations(t)
}

func TestAPIKeyHandler_Create_MissingTenant(t *testing.T) {
	_, handler := setupAPIKeyTest(t)

	app := drift.New()
	app.Use(driftmw.BodyParser())
	app.Use(asAdmin)
	app.Post("/admin/api-keys", handler.Create)

	jsonBody, _ := json.Marshal(dto.CreateAPIKeyRequest{})

	req := httptest.NewRequest(http.MethodPost, "/admin/api-keys", bytes.NewReader(jsonBody))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	app.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "tenant_id is required")
}

func TestAPIKeyHandler_Create_NegativeQuota(t *testing.T) {
	_, handler := setupAPIKeyTest(t)

	app := drift.New()
	app.Use(driftmw.BodyParser())
	app.Use(asAdmin)
	app.Post("/admin/api-keys", handler.Create)

	rpd := -5
	body := dto.CreateAPIKeyRequest{
		TenantID: "acme",
		Quotas:   models.Quotas{RequestsPerDay: &rpd},
	}
	jsonBody, _ := json.Marshal(body)

	req := httptest.NewRequest(http.MethodPost, "/admin/api-keys", bytes.NewReader(jsonBody))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	app.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "quota limits must not be negative")
}

func TestAPIKeyHandler_List_FilterByTenant(t *testing.T) {
	mockService, handler := setupAPIKeyTest(t)

	keys := []models.APIKey{*activeKey("acme"), *activeKey("acme")}
	mockService.On("List", mock.Anything, "acme").Return(keys, nil)

	app := drift.New()
	app.Use(asAdmin)
	app.Get("/admin/api-keys", handler.List)

	req := httptest.NewRequest(http.MethodGet, "/admin/api-keys?tenant_id=acme", nil)
	rec := httptest.NewRecorder()

	app.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var response []dto.APIKeyResponse
	err := json.Unmarshal(rec.Body.Bytes(), &response)
	require.NoError(t, err)
	assert.Len(t, response, 2)

	mockService.AssertExpectations(t)
}

func TestAPIKeyHandler_Get_NotFound(t *testing.T) {
	mockService, handler := setupAPIKeyTest(t)

	keyID := uuid.New()
	mockService.On("GetByID", mock.Anything, keyID).Return(nil, services.ErrAPIKeyNotFound)

	app := drift.New()
	app.Use(asAdmin)
	app.Get("/admin/api-keys/:keyId", handler.Get)

	req := httptest.NewRequest(http.MethodGet, "/admin/api-keys/"+keyID.String(), nil)
	rec := httptest.NewRecorder()

	app.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "api key not found")
}

// A store outage must not read as a missing key on the admin surface.
func TestAPIKeyHandler_Get_StoreErrorIs500(t *testing.T) {
	mockService, handler := setupAPIKeyTest(t)

	keyID := uuid.New()
	mockService.On("GetByID", mock.Anything, keyID).
		Return(nil, errors.New("failed to load api key: connection refused"))

	app := drift.New()
	app.Use(asAdmin)
	app.Get("/admin/api-keys/:keyId", handler.Get)

	req := httptest.NewRequest(http.MethodGet, "/admin/api-keys/"+keyID.String(), nil)
	rec := httptest.NewRecorder()

	app.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "api key not found")
}

func TestAPIKeyHandler_Validate_StoreErrorIs500(t *testing.T) {
	mockService, handler := setupAPIKeyTest(t)

	mockService.On("Validate", mock.Anything, "ce_some_key").
		Return(nil, errors.New("failed to look up api key: connection refused"))

	app := drift.New()
	app.Use(driftmw.BodyParser())
	app.Post("/admin/api-keys/validate", handler.Validate)

	jsonBody, _ := json.Marshal(dto.ValidateAPIKeyRequest{Key: "ce_some_key"})

	req := httptest.NewRequest(http.MethodPost, "/admin/api-keys/validate", bytes.NewReader(jsonBody))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	app.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), `"valid"`)
}

func TestAPIKeyHandler_Get_InvalidID(t *testing.T) {
	_, handler := setupAPIKeyTest(t)

	app := drift.New()
	app.Use(asAdmin)
	app.Get("/admin/api-keys/:keyId", handler.Get)

	req := httptest.NewRequest(http.MethodGet, "/admin/api-keys/not-a-uuid", nil)
	rec := httptest.NewRecorder()

	app.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid key id")
}

func TestAPIKeyHandler_Validate_RevokedKey(t *testing.T) {
	mockService, handler := setupAPIKeyTest(t)

	mockService.On("Validate", mock.Anything, "ce_revoked_key").Return(nil, services.ErrAPIKeyRevoked)

	app := drift.New()
	app.Use(driftmw.BodyParser())
	app.Post("/admin/api-keys/validate", handler.Validate)

	jsonBody, _ := json.Marshal(dto.ValidateAPIKeyRequest{Key: "ce_revoked_key"})

	req := httptest.NewRequest(http.MethodPost, "/admin/api-keys/validate", bytes.NewReader(jsonBody))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	app.ServeHTTP(rec, req)

	// validation reports the reason with 200, it is not an auth failure
	require.Equal(t, http.StatusOK, rec.Code)

	var response dto.ValidateAPIKeyResponse
	err := json.Unmarshal(rec.Body.Bytes(), &response)
	require.NoError(t, err)
	assert.False(t, response.Valid)
	assert.Equal(t, "API Key is revoked", response.Message)
}

func TestAPIKeyHandler_Validate_ActiveKey(t *testing.T) {
	mockService, handler := setupAPIKeyTest(t)

	key := activeKey("acme")
	mockService.On("Validate", mock.Anything, "ce_good_key").Return(key, nil)

	app := drift.New()
	app.Use(driftmw.BodyParser())
	app.Post("/admin/api-keys/validate", handler.Validate)

	jsonBody, _ := json.Marshal(dto.ValidateAPIKeyRequest{Key: "ce_good_key"})

	req := httptest.NewRequest(http.MethodPost, "/admin/api-keys/validate", bytes.NewReader(jsonBody))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	app.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var response dto.ValidateAPIKeyResponse
	err := json.Unmarshal(rec.Body.Bytes(), &response)
	require.NoError(t, err)
	assert.True(t, response.Valid)
	assert.Equal(t, key.ID.String(), response.KeyID)
	assert.Equal(t, "acme", response.TenantID)
}

func TestAPIKeyHandler_Validate_MissingKey(t *testing.T) {
	_, handler := setupAPIKeyTest(t)

	app := drift.New()
	app.Use(driftmw.BodyParser())
	app.Post("/admin/api-keys/validate", handler.Validate)

	jsonBody, _ := json.Marshal(dto.ValidateAPIKeyRequest{})

	req := httptest.NewRequest(http.MethodPost, "/admin/api-keys/validate", bytes.NewReader(jsonBody))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	app.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "key is required")
}

func TestAPIKeyHandler_Revoke_Success(t *testing.T) {
	mockService, handler := setupAPIKeyTest(t)

	key := activeKey("acme")
	key.Status = models.KeyStatusRevoked
	mockService.On("Revoke", mock.Anything, key.ID, "admin@example.com").Return(key, nil)

	app := drift.New()
	app.Use(asAdmin)
	app.Post("/admin/api-keys/:keyId/revoke", handler.Revoke)

	req := httptest.NewRequest(http.MethodPost, "/admin/api-keys/"+key.ID.String()+"/revoke", nil)
	rec := httptest.NewRecorder()

	app.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var response dto.APIKeyResponse
	err := json.Unmarshal(rec.Body.Bytes(), &response)
	require.NoError(t, err)
	assert.Equal(t, models.KeyStatusRevoked, response.Status)

	mockService.AssertExpectations(t)
}

func TestAPIKeyHandler_Revoke_NotFound(t *testing.T) {
	mockService, handler := setupAPIKeyTest(t)

	keyID := uuid.New()
	mockService.On("Revoke", mock.Anything, keyID, "admin@example.com").Return(nil, services.ErrAPIKeyNotFound)

	app := drift.New()
	app.Use(asAdmin)
	app.Post("/admin/api-keys/:keyId/revoke", handler.Revoke)

	req := httptest.NewRequest(http.MethodPost, "/admin/api-keys/"+keyID.String()+"/revoke", nil)
	rec := httptest.NewRecorder()

	app.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAPIKeyHandler_UpdateStandards_ClearRestriction(t *testing.T) {
	mockService, handler := setupAPIKeyTest(t)

	key := activeKey("acme")
	mockService.On("UpdateAllowedStandards", mock.Anything, key.ID, (*models.AllowedStandards)(nil)).Return(key, nil)

	app := drift.New()
	app.Use(driftmw.BodyParser())
	app.Use(asAdmin)
	app.Patch("/admin/api-keys/:keyId/standards", handler.UpdateStandards)

	jsonBody, _ := json.Marshal(dto.UpdateStandardsRequest{AllowedStandards: nil})

	req := httptest.NewRequest(http.MethodPatch, "/admin/api-keys/"+key.ID.String()+"/standards", bytes.NewReader(jsonBody))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	app.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	mockService.AssertExpectations(t)
}

func TestAPIKeyHandler_UpdateQuotas_Success(t *testing.T) {
	mockService, handler := setupAPIKeyTest(t)

	rpm := 50
	key := activeKey("acme")
	key.Quotas = models.Quotas{RequestsPerMinute: &rpm}
	mockService.On("UpdateQuotas", mock.Anything, key.ID, mock.Anything).Return(key, nil)

	app := drift.New()
	app.Use(driftmw.BodyParser())
	app.Use(asAdmin)
	app.Patch("/admin/api-keys/:keyId/quotas", handler.UpdateQuotas)

	jsonBody, _ := json.Marshal(dto.UpdateQuotasRequest{Quotas: models.Quotas{RequestsPerMinute: &rpm}})

	req := httptest.NewRequest(http.MethodPatch, "/admin/api-keys/"+key.ID.String()+"/quotas", bytes.NewReader(jsonBody))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	app.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var response dto.APIKeyResponse
	err := json.Unmarshal(rec.Body.Bytes(), &response)
	require.NoError(t, err)
	require.NotNil(t, response.Quotas.RequestsPerMinute)
	assert.Equal(t, 50, *response.Quotas.RequestsPerMinute)
}
