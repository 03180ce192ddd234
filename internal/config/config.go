package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const devJWTSecret = "fallback-secret-key-for-dev-only"

// Config holds application configuration
type Config struct {
	// Server
	Port string
	Env  string

	// Database
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string
	DBMaxConns int32
	DBMinConns int32

	// JWT
	JWTSecret        string
	JWTExpirationDur time.Duration

	// Tenancy
	SystemAdminID string
	TenantHeader  string

	// Audit
	AuditMaxFieldLength int

	// Rate limiting (per client IP)
	RateLimitRPS   float64
	RateLimitBurst int

	// MetricsAPIKey guards /metrics. Empty disables the endpoint.
	MetricsAPIKey string
}

var appConfig *Config

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if not already loaded
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	config := &Config{
		// Server
		Port: getEnv("PORT", "8080"),
		Env:  getEnv("ENV", "development"),

		// Database
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "labtrack_app"),
		DBPassword: getEnv("DB_PASSWORD", "labtrack"),
		DBName:     getEnv("DB_NAME", "labtrack"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),
		DBMaxConns: int32(getEnvAsInt("DB_MAX_CONNS", 20)),
		DBMinConns: int32(getEnvAsInt("DB_MIN_CONNS", 2)),

		// JWT
		JWTSecret: getEnv("JWT_SECRET", devJWTSecret),

		// Tenancy
		SystemAdminID: getEnv("SYSTEM_ADMIN_ID", ""),
		TenantHeader:  getEnv("TENANT_HEADER", "X-Lab-Id"),

		// Audit
		AuditMaxFieldLength: getEnvAsInt("AUDIT_MAX_FIELD_LENGTH", 50),

		RateLimitRPS:   getEnvAsFloat("RATE_LIMIT_RPS", 20),
		RateLimitBurst: getEnvAsInt("RATE_LIMIT_BURST", 40),

		MetricsAPIKey: getEnv("METRICS_API_KEY", ""),
	}

	// Parse JWT expiration duration
	expStr := getEnv("JWT_EXPIRES_IN", "15m")
	expDur, err := time.ParseDuration(expStr)
	if err != nil {
		log.Printf("Warning: invalid JWT_EXPIRES_IN value '%s', falling back to 15m\n", expStr)
		expDur = 15 * time.Minute
	}
	config.JWTExpirationDur = expDur

	if config.Env == "production" && config.JWTSecret == devJWTSecret {
		return nil, fmt.Errorf("JWT_SECRET must be set in production")
	}
	if config.AuditMaxFieldLength <= 0 {
		return nil, fmt.Errorf("AUDIT_MAX_FIELD_LENGTH must be positive, got %d", config.AuditMaxFieldLength)
	}

	appConfig = config
	return config, nil
}

// Get returns the application configuration
func Get() *Config {
	if appConfig == nil {
		var err error
		appConfig, err = Load()
		if err != nil {
			log.Fatalf("Failed to load configuration: %v", err)
		}
	}
	return appConfig
}

// DatabaseURL returns the postgres:// URL used by pgxpool and golang-migrate.
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode)
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	v, err := strconv.Atoi(getEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return v
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	v, err := strconv.ParseFloat(getEnv(key, ""), 64)
	if err != nil {
		return defaultValue
	}
	return v
}
