package config

import (
	"os"

	"github.com/joho/godotenv"
)

type Config struct {
	// Database
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// Auth
	AuthSecret string

	// Stripe
	StripeSecretKey     string
	StripeWebhookSecret string
	PortalReturnURL     string

	// Book vault
	VaultMode    string // "local" or "remote"
	VaultPath    string
	VaultBaseURL string

	// Server
	Port        string
	AppBaseURL  string
	CORSOrigins string
	Env         string
}

func Load() *Config {
	// Local development convenience; ignored when no .env exists.
	_ = godotenv.Load()

	return &Config{
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", ""),
		DBName:     getEnv("DB_NAME", "bookvault"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		AuthSecret: getEnv("AUTH_SECRET", ""),

		StripeSecretKey:     getEnv("STRIPE_SECRET_KEY", ""),
		StripeWebhookSecret: getEnv("STRIPE_WEBHOOK_SECRET", ""),
		PortalReturnURL:     getEnv("STRIPE_CUSTOMER_PORTAL_RETURN_URL", ""),

		VaultMode:    getEnv("BOOK_VAULT_MODE", "local"),
		VaultPath:    getEnv("BOOK_VAULT_PATH", ""),
		VaultBaseURL: getEnv("BOOK_VAULT_BASE_URL", ""),

		Port:        getEnv("PORT", "8080"),
		AppBaseURL:  getEnv("APP_BASE_URL", ""),
		CORSOrigins: getEnv("CORS_ORIGINS", "*"),
		Env:         getEnv("APP_ENV", "development"),
	}
}

func (c *Config) DSN() string {
	return "host=" + c.DBHost +
		" user=" + c.DBUser +
		" password=" + c.DBPassword +
		" dbname=" + c.DBName +
		" port=" + c.DBPort +
		" sslmode=" + c.DBSSLMode +
		" TimeZone=UTC"
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}
