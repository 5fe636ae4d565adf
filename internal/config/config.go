package config

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"pricing-sync-service/internal/secrets"
)

// Config holds all configuration for the pricing sync service
type Config struct {
	// Server
	Port        string
	Environment string
	LogLevel    string

	// Database
	DatabaseURL string

	// GCP
	GCPProjectID string

	// Import Settings
	ImportChunkSize    int
	ImportChunksPerSec int
	ImportQueueTimeout time.Duration
	ImportMaxErrors    int

	// Storage retry
	StorageMaxRetries   int
	StorageRetryBackoff time.Duration

	// Export Settings
	ERPPartyCode   string
	ExportLocation string
}

// Load loads configuration from the environment, reading a local .env
// file first when one exists.
func Load() *Config {
	if err := godotenv.Load(); err == nil {
		log.Println("Loaded configuration from .env file")
	}

	// Build DATABASE_URL from components using GCP Secret Manager for password
	gcpProjectID := getEnv("GCP_PROJECT_ID", "")
	databaseURL := getEnv("DATABASE_URL", "")
	if databaseURL == "" {
		dbHost := getEnv("DB_HOST", "localhost")
		dbPort := getEnv("DB_PORT", "5432")
		dbUser := getEnv("DB_USER", "postgres")
		dbName := getEnv("DB_NAME", "pricing_sync")
		dbSSLMode := getEnv("DB_SSLMODE", "disable")

		dbPassword, err := secrets.GetDBPassword(context.Background(),
			gcpProjectID, getEnv("DB_PASSWORD_SECRET", "pricing-sync-db-password"), os.Getenv("DB_PASSWORD"))
		if err != nil {
			log.Fatalf("Failed to resolve database password: %v", err)
		}

		databaseURL = fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
			dbUser, dbPassword, dbHost, dbPort, dbName, dbSSLMode)
	}

	config := &Config{
		Port:        getEnv("PORT", "8105"),
		Environment: getEnv("ENVIRONMENT", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		DatabaseURL: databaseURL,

		// GCP
		GCPProjectID: gcpProjectID,

		// Import Settings
		ImportChunkSize:    getEnvAsInt("IMPORT_CHUNK_SIZE", 500),
		ImportChunksPerSec: getEnvAsInt("IMPORT_CHUNKS_PER_SEC", 5),
		ImportQueueTimeout: getEnvAsDuration("IMPORT_QUEUE_TIMEOUT", 30*time.Second),
		ImportMaxErrors:    getEnvAsInt("IMPORT_MAX_ERRORS", 50),

		// Storage retry
		StorageMaxRetries:   getEnvAsInt("STORAGE_MAX_RETRIES", 3),
		StorageRetryBackoff: getEnvAsDuration("STORAGE_RETRY_BACKOFF", 200*time.Millisecond),

		// Export Settings
		ERPPartyCode:   getEnv("ERP_PARTY_CODE", "DT0072"),
		ExportLocation: getEnv("EXPORT_LOCATION", ""),
	}

	// Validate required fields
	if config.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is required")
	}

	if config.GCPProjectID == "" {
		log.Println("Warning: GCP_PROJECT_ID not set, secrets management will be disabled")
	}

	return config
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvAsInt gets an environment variable as an integer with a default value
func getEnvAsInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	intValue, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return intValue
}

// getEnvAsDuration gets an environment variable as a duration with a default value
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	duration, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return duration
}
