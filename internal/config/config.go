package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        string
	Env         string
	DatabaseURL string

	JWTSecret string
	JWTExpiry time.Duration

	// InternalServiceToken authenticates service-to-service calls by exact
	// match; it never reaches the identity provider.
	InternalServiceToken string

	RateLimit RateLimitConfig

	Google OAuthConfig

	BaseURL             string
	FrontendCallbackURL string
}

type RateLimitConfig struct {
	MaxTokens       float64
	RefillPerSecond float64
}

type OAuthConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	jwtExpiry, err := time.ParseDuration(getEnv("JWT_EXPIRY", "1h"))
	if err != nil {
		jwtExpiry = time.Hour
	}

	return &Config{
		Port:        getEnv("PORT", "8080"),
		Env:         getEnv("ENV", "development"),
		DatabaseURL: getEnv("DATABASE_URL", ""),

		JWTSecret: getEnvOrPanic("JWT_SECRET"),
		JWTExpiry: jwtExpiry,

		InternalServiceToken: getEnvOrPanic("INTERNAL_SERVICE_TOKEN"),

		RateLimit: RateLimitConfig{
			MaxTokens:       getEnvFloat("RATE_LIMIT_MAX_TOKENS", 20),
			RefillPerSecond: getEnvFloat("RATE_LIMIT_REFILL_PER_SECOND", 10),
		},

		Google: OAuthConfig{
			ClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
			ClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),
			RedirectURL:  getEnv("GOOGLE_REDIRECT_URL", ""),
		},

		BaseURL:             getEnv("BASE_URL", "http://localhost:8080"),
		FrontendCallbackURL: getEnv("FRONTEND_CALLBACK_URL", "http://localhost:3000/auth/callback"),
	}, nil
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if value, ok := os.LookupEnv(key); ok {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvOrPanic(key string) string {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		panic("required environment variable not set: " + key)
	}
	return value
}
