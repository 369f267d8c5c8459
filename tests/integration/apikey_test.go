package integration

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nprocess/compliance-api/internal/models"
	"github.com/nprocess/compliance-api/internal/services"
)

func TestAPIKeyService_Integration_CreateAndValidate(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	tdb := setupTest(t)
	svc := services.NewAPIKeyService(tdb.DB)
	ctx := context.Background()

	rpm := 100
	created, plainKey, err := svc.Create(ctx, "acme", "admin@example.com", models.Quotas{RequestsPerMinute: &rpm}, nil, nil, nil)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(plainKey, "ce_"))
	assert.True(t, strings.HasPrefix(plainKey, created.KeyPrefix))
	assert.Equal(t, models.KeyStatusActive, created.Status)

	validated, err := svc.Validate(ctx, plainKey)
	require.NoError(t, err)
	assert.Equal(t, created.ID, validated.ID)
	assert.Equal(t, "acme", validated.TenantID)
	require.NotNil(t, validated.Quotas.RequestsPerMinute)
	assert.Equal(t, 100, *validated.Quotas.RequestsPerMinute)
}

func TestAPIKeyService_Integration_ValidateUnknownKey(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	tdb := setupTest(t)
	svc := services.NewAPIKeyService(tdb.DB)

	_, err := svc.Validate(context.Background(), "ce_deadbeef_0000000000000000000000000000000000000000000000000000000000000000")
	require.Error(t, err)
	assert.Equal(t, "API Key not found", err.Error())
}

func TestAPIKeyService_Integration_RevokeIsTerminal(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	tdb := setupTest(t)
	svc := services.NewAPIKeyService(tdb.DB)
	ctx := context.Background()

	created, plainKey, err := svc.Create(ctx, "acme", "admin@example.com", models.Quotas{}, nil, nil, nil)
	require.NoError(t, err)

	revoked, err := svc.Revoke(ctx, created.ID, "admin@example.com")
	require.NoError(t, err)
	assert.Equal(t, models.KeyStatusRevoked, revoked.Status)
	require.NotNil(t, revoked.RevokedAt)

	// revoking again is a no-op, not an error
	again, err := svc.Revoke(ctx, created.ID, "admin@example.com")
	require.NoError(t, err)
	assert.Equal(t, models.KeyStatusRevoked, again.Status)

	_, err = svc.Validate(ctx, plainKey)
	require.Error(t, err)
	assert.Equal(t, "API Key is revoked", err.Error())
}

func TestAPIKeyService_Integration_ExpiredKey(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	tdb := setupTest(t)
	svc := services.NewAPIKeyService(tdb.DB)
	ctx := context.Background()

	past := time.Now().UTC().Add(-time.Hour)
	_, plainKey, err := svc.Create(ctx, "acme", "admin@example.com", models.Quotas{}, nil, nil, &past)
	require.NoError(t, err)

	_, err = svc.Validate(ctx, plainKey)
	require.Error(t, err)
	assert.Equal(t, "API Key is expired", err.Error())
}

func TestAPIKeyService_Integration_ListByTenant(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	tdb := setupTest(t)
	svc := services.NewAPIKeyService(tdb.DB)
	ctx := context.Background()

	_, _, err := svc.Create(ctx, "acme", "admin@example.com", models.Quotas{}, nil, nil, nil)
	require.NoError(t, err)
	_, _, err = svc.Create(ctx, "acme", "admin@example.com", models.Quotas{}, nil, nil, nil)
	require.NoError(t, err)
	_, _, err = svc.Create(ctx, "other", "admin@example.com", models.Quotas{}, nil, nil, nil)
	require.NoError(t, err)

	acmeKeys, err := svc.List(ctx, "acme")
	require.NoError(t, err)
	assert.Len(t, acmeKeys, 2)

	allKeys, err := svc.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, allKeys, 3)
}

func TestAPIKeyService_Integration_UpdateAllowedStandards(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	tdb := setupTest(t)
	svc := services.NewAPIKeyService(tdb.DB)
	ctx := context.Background()

	created, _, err := svc.Create(ctx, "acme", "admin@example.com", models.Quotas{}, nil, nil, nil)
	require.NoError(t, err)

	restricted := &models.AllowedStandards{Custom: []string{"std-1"}}
	updated, err := svc.UpdateAllowedStandards(ctx, created.ID, restricted)
	require.NoError(t, err)
	require.NotNil(t, updated.AllowedStandards)
	assert.Equal(t, []string{"std-1"}, updated.AllowedStandards.Custom)

	// null clears the restriction entirely
	cleared, err := svc.UpdateAllowedStandards(ctx, created.ID, nil)
	require.NoError(t, err)
	assert.Nil(t, cleared.AllowedStandards)
}
