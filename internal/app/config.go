package app

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port                int    // HTTP server port (default: 8080)
	Env                 string // Environment (dev, staging, prod) (default: dev)
	LogLevel            string // Log level (debug, info, warn, error) (default: info)
	LogFormat           string // Log format (json, text) (default: json)
	DatabaseFile        string // Path to SQLite database file (default: ./todo.db)

	JWTSecret        string        // Required: access token signing secret
	JWTRefreshSecret string        // Optional: refresh token secret (falls back to JWTSecret)
	JWTIssuer        string        // Issuer claim for tokens (default: todo-api)
	JWTAudience      string        // Audience claim for tokens (default: todo-app)
	AccessTokenTTL   time.Duration // Access token lifetime (default: 15m)
	RefreshTokenTTL  time.Duration // Refresh token lifetime (default: 168h)

	BcryptCost           int           // Password hashing cost (default: 12)
	ShutdownGracePeriod  time.Duration // Graceful shutdown timeout (default: 10s)
	HousekeepingInterval time.Duration // Expired session sweep interval (default: 1h)
}

// LoadConfig reads configuration from the environment, loading a local .env
// file first if one exists.
func LoadConfig() Config {
	_ = godotenv.Load()

	return Config{
		Port:         getEnvIntOrDefault("PORT", 8080),
		Env:          getEnvOrDefault("ENV", "dev"),
		LogLevel:     getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:    getEnvOrDefault("LOG_FORMAT", "json"),
		DatabaseFile: getEnvOrDefault("DATABASE_FILE", "todo.db"),

		JWTSecret:        os.Getenv("JWT_SECRET"),
		JWTRefreshSecret: os.Getenv("JWT_REFRESH_SECRET"),
		JWTIssuer:        getEnvOrDefault("JWT_ISSUER", "todo-api"),
		JWTAudience:      getEnvOrDefault("JWT_AUDIENCE", "todo-app"),
		AccessTokenTTL:   getEnvDurationOrDefault("JWT_ACCESS_TTL", 15*time.Minute),
		RefreshTokenTTL:  getEnvDurationOrDefault("JWT_REFRESH_TTL", 168*time.Hour),

		BcryptCost:           getEnvIntOrDefault("BCRYPT_COST", 12),
		ShutdownGracePeriod:  getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
		HousekeepingInterval: getEnvDurationOrDefault("HOUSEKEEPING_INTERVAL", 1*time.Hour),
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	// Try parsing as duration (e.g., "1h", "30m", "90s")
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Try parsing as integer minutes (for backwards compatibility)
	if minutes, err := strconv.Atoi(value); err == nil {
		return time.Duration(minutes) * time.Minute
	}

	return defaultValue
}
