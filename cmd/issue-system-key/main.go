package main

import (
	"context"
	"fmt"
	"log"

	"github.com/nprocess/compliance-api/internal/config"
	"github.com/nprocess/compliance-api/internal/database"
	"github.com/nprocess/compliance-api/internal/models"
	"github.com/nprocess/compliance-api/internal/services"
)

// Mints the system-scoped API key used for service-to-service calls and
// admin impersonation. The raw key is printed once and cannot be recovered.
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

	apiKeyService := services.NewAPIKeyService(db)

	apiKey, plainKey, err := apiKeyService.Create(ctx, models.TenantSystem, "issue-system-key", models.Quotas{}, nil, nil, nil)
	if err != nil {
		log.Fatalf("Failed to create system key: %v", err)
	}

	fmt.Printf("System API key created (id %s)\n", apiKey.ID)
	fmt.Printf("Store this key now; it will not be shown again:\n\n  %s\n", plainKey)
}
