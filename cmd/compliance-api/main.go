package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/m1z23r/drift/pkg/drift"
	"github.com/m1z23r/drift/pkg/middleware"

	"github.com/nprocess/compliance-api/internal/config"
	"github.com/nprocess/compliance-api/internal/database"
	"github.com/nprocess/compliance-api/internal/handlers"
	authmw "github.com/nprocess/compliance-api/internal/middleware"
	"github.com/nprocess/compliance-api/internal/models"
	"github.com/nprocess/compliance-api/internal/ratelimit"
	"github.com/nprocess/compliance-api/internal/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx := context.Background()

	db, err := database.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := db.Migrate(ctx); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	tokenService := services.NewTokenService(cfg.JWTSecret, cfg.InternalServiceToken, cfg.JWTExpiry)
	userService := services.NewUserService(db)
	apiKeyService := services.NewAPIKeyService(db)
	quotaService := services.NewQuotaService(db)
	standardService := services.NewStandardService(db)

	limiter := ratelimit.NewLimiter(cfg.RateLimit.MaxTokens, cfg.RateLimit.RefillPerSecond)
	defer limiter.Stop()

	authHandler := handlers.NewAuthHandler(cfg, userService, tokenService)
	userHandler := handlers.NewUserHandler(userService)
	apiKeyHandler := handlers.NewAPIKeyHandler(apiKeyService)
	standardHandler := handlers.NewStandardHandler(standardService)

	app := drift.New()

	if cfg.IsProduction() {
		app.SetMode(drift.ReleaseMode)
	} else {
		app.SetMode(drift.DebugMode)
	}

	app.Use(middleware.Recovery())
	app.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization", authmw.HeaderAPIKey, authmw.HeaderTenantOverride, authmw.HeaderCorrelationID},
		MaxAge:       86400,
	}))
	app.Use(middleware.BodyParser())
	app.Use(authmw.Correlation())

	api := app.Group("/api/v1")

	api.Get("/health", func(c *drift.Context) {
		_ = c.JSON(200, map[string]string{"status": "ok"})
	})

	auth := api.Group("/auth")
	auth.Get("/google/consent", authHandler.GetConsentURL)
	auth.Get("/google/callback", authHandler.Callback)
	auth.Post("/exchange", authHandler.ExchangeCode)

	// Every protected route shares one chain: identity resolution, then
	// burst protection, then quota accounting, then the handler.
	protected := api.Group("")
	protected.Use(authmw.Authenticate(apiKeyService, tokenService))
	protected.Use(authmw.RateLimit(limiter))
	protected.Use(authmw.Quota(quotaService))

	protected.Get("/whoami", authHandler.Whoami)

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

	go func() {
		addr := fmt.Sprintf(":%s", cfg.Port)
		log.Printf("Server starting on %s", addr)
		if err := app.Run(addr); err != nil {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
}
