package testutil

import (
	"testing"
	"time"

	"github.com/nprocess/compliance-api/internal/models"
	"github.com/nprocess/compliance-api/internal/services"
)

const TestServiceToken = "internal-service-token-for-testing-only"

// TestTokenService creates a TokenService with test configuration
func TestTokenService() *services.TokenService {
	return services.NewTokenService(
		"test-secret-key-for-testing-only",
		TestServiceToken,
		15*time.Minute,
	)
}

// GenerateTestToken issues a platform token for the given user
func GenerateTestToken(t *testing.T, user *models.User) string {
	t.Helper()
	token, _, err := TestTokenService().IssueToken(user)
	if err != nil {
		t.Fatalf("failed to generate test token: %v", err)
	}
	return token
}

// AuthHeader returns an Authorization header value with a Bearer token
func AuthHeader(token string) string {
	return "Bearer " + token
}
