package config

import (
	"os"
	"strconv"
	"time"
)

// Config collects the settings shared by services and middleware. Values come
// from environment variables with development fallbacks, matching the
// configs/.env workflow.
type Config struct {
	Port        string
	DatabaseDSN string

	JWTSecret   string
	TokenExpiry time.Duration

	MaxLoginAttempts int
	LockoutDuration  time.Duration

	// Seed identity for the initial super admin account.
	AdminEmail    string
	AdminPassword string

	AllowedOrigins []string
}

// Load reads configuration from the environment.
func Load() Config {
	dbHost := getEnv("DB_HOST", "localhost")
	dbPort := getEnv("DB_PORT", "5432")
	dbUser := getEnv("DB_USER", "postgres")
	dbPassword := getEnv("DB_PASSWORD", "postgres")
	dbName := getEnv("DB_NAME", "postgres")
	dbSslMode := getEnv("DB_SSLMODE", "disable")

	dsn := "postgres://" + dbUser + ":" + dbPassword + "@" + dbHost + ":" + dbPort + "/" + dbName + "?sslmode=" + dbSslMode

	return Config{
		Port:        getEnv("PORT", "8080"),
		DatabaseDSN: dsn,

		JWTSecret:   jwtSecret(),
		TokenExpiry: getDuration("JWT_EXPIRES_IN", 24*time.Hour),

		MaxLoginAttempts: getInt("MAX_LOGIN_ATTEMPTS", 5),
		LockoutDuration:  getDuration("LOCKOUT_DURATION", 15*time.Minute),

		AdminEmail:    getEnv("ADMIN_EMAIL", "admin@factory.local"),
		AdminPassword: getEnv("ADMIN_PASSWORD", "admin123"),

		AllowedOrigins: []string{
			getEnv("FRONTEND_URL", "http://localhost:5173"),
		},
	}
}

func jwtSecret() string {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		if os.Getenv("GIN_MODE") == "release" {
			panic("FATAL: JWT_SECRET environment variable is required in production mode")
		}
		secret = "default_super_secret_key" // Development fallback only — DO NOT use in production
	}
	return secret
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}
	return fallback
}
