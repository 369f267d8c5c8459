package integration

import (
	"net/http"
	"os"
	"testing"

	"github.com/m1z23r/drift/pkg/drift"
	driftmw "github.com/m1z23r/drift/pkg/middleware"

	"github.com/nprocess/compliance-api/internal/handlers"
	authmw "github.com/nprocess/compliance-api/internal/middleware"
	"github.com/nprocess/compliance-api/internal/models"
	"github.com/nprocess/compliance-api/internal/ratelimit"
	"github.com/nprocess/compliance-api/internal/services"
	"github.com/nprocess/compliance-api/tests/testutil"
)

// TestMain runs before all tests in this package
func TestMain(m *testing.M) {
	code := m.Run()
	os.Exit(code)
}

// setupTest creates a test database and returns cleanup function
func setupTest(t *testing.T) *testutil.TestDB {
	t.Helper()
	return testutil.SetupTestDB(t)
}

// buildApp wires the full request chain against the test database, the same
// way main does, with a token bucket generous enough to stay out of the way
// unless a test exercises it directly.
func buildApp(t *testing.T, tdb *testutil.TestDB) (http.Handler, func()) {
	t.Helper()

	tokenService := testutil.TestTokenService()
	apiKeyService := services.NewAPIKeyService(tdb.DB)
	quotaService := services.NewQuotaService(tdb.DB)
	userService := services.NewUserService(tdb.DB)
	standardService := services.NewStandardService(tdb.DB)

	limiter := ratelimit.NewLimiter(10000, 10000)

	apiKeyHandler := handlers.NewAPIKeyHandler(apiKeyService)
	userHandler := handlers.NewUserHandler(userService)
	standardHandler := handlers.NewStandardHandler(standardService)

	app := drift.New()
	app.Use(driftmw.Recovery())
	app.Use(driftmw.BodyParser())
	app.Use(authmw.Correlation())

	api := app.Group("/api/v1")

	protected := api.Group("")
	protected.Use(authmw.Authenticate(apiKeyService, tokenService))
	protected.Use(authmw.RateLimit(limiter))
	protected.Use(authmw.Quota(quotaService))

	protected.Get("/whoami", func(c *drift.Context) {
		authCtx := authmw.GetAuthContext(c)
		_ = c.JSON(200, map[string]any{
			"identity": authCtx.Identity,
			"tenant":   authCtx.TenantID,
			"role":     authCtx.Role,
		})
	})

	admin := protected.Group("/admin")
	admin.Use(authmw.RequireRole(models.RoleAdmin, models.RoleSuperAdmin))
	admin.Post("/api-keys", apiKeyHandler.Create)
	admin.Get("/api-keys", apiKeyHandler.List)
	admin.Post("/api-keys/validate", apiKeyHandler.Validate)
	admin.Get("/api-keys/:keyId", apiKeyHandler.Get)
	admin.Post("/api-keys/:keyId/revoke", apiKeyHandler.Revoke)
	admin.Delete("/api-keys/:keyId", apiKeyHandler.Delete)
	admin.Patch("/api-keys/:keyId/standards", apiKeyHandler.UpdateStandards)
	admin.Patch("/api-keys/:keyId/quotas", apiKeyHandler.UpdateQuotas)
	admin.Post("/users/:userId/approve", userHandler.Approve)

	standards := protected.Group("/standards")
	standards.Use(authmw.RequireTenant())
	standards.Get("", standardHandler.List)
	standards.Post("", standardHandler.Create)
	standards.Get("/:standardId", standardHandler.Get)

	return app, limiter.Stop
}
