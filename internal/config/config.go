package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	// Database
	DatabaseURL string

	// Identity provider
	Identity IdentityConfig

	// Server
	Port        string
	CORSOrigins []string
	Env         string
	// WebRoot is the directory holding the built frontend shell
	WebRoot string

	// Auth endpoint throttling
	AuthRatePerMinute int
	AuthRateBurst     int

	// S3 receipt storage
	S3 S3Config
}

// IdentityConfig holds the hosted identity provider settings
type IdentityConfig struct {
	// IssuerURL is the OIDC issuer whose JWKS verifies session tokens
	IssuerURL string
	// APIURL is the provider's REST endpoint for signup/login/refresh/logout
	APIURL string
	// Audience expected in session tokens
	Audience string
	// APIKey sent with provider REST calls
	APIKey string
	// MinPasswordLength enforced before any provider call
	MinPasswordLength int
	// RefreshWindow: refresh the session when the access token expires
	// within this duration
	RefreshWindow time.Duration
}

// S3Config holds AWS S3 configuration
type S3Config struct {
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
	Endpoint        string // Optional: for MinIO/LocalStack local dev
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	cfg := &Config{
		DatabaseURL: getEnv("DATABASE_URL", ""),
		Identity: IdentityConfig{
			IssuerURL:         getEnv("IDENTITY_ISSUER_URL", ""),
			APIURL:            getEnv("IDENTITY_API_URL", ""),
			Audience:          getEnv("IDENTITY_AUDIENCE", "tally"),
			APIKey:            getEnv("IDENTITY_API_KEY", ""),
			MinPasswordLength: getEnvInt("MIN_PASSWORD_LENGTH", 8),
			RefreshWindow:     getEnvDuration("SESSION_REFRESH_WINDOW", 2*time.Minute),
		},
		Port:              getEnv("PORT", "8080"),
		CORSOrigins:       strings.Split(getEnv("CORS_ORIGINS", "http://localhost:3000"), ","),
		Env:               getEnv("ENV", "development"),
		WebRoot:           getEnv("WEB_ROOT", "web/dist"),
		AuthRatePerMinute: getEnvInt("AUTH_RATE_PER_MINUTE", 20),
		AuthRateBurst:     getEnvInt("AUTH_RATE_BURST", 5),
		S3: S3Config{
			Region:          getEnv("S3_REGION", "us-east-1"),
			Bucket:          getEnv("S3_BUCKET", "tally-receipts"),
			AccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
			Endpoint:        getEnv("S3_ENDPOINT", ""), // Empty = use AWS, set for MinIO/LocalStack
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.Identity.IssuerURL == "" {
		return fmt.Errorf("IDENTITY_ISSUER_URL is required")
	}
	if c.Identity.APIURL == "" {
		return fmt.Errorf("IDENTITY_API_URL is required")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
