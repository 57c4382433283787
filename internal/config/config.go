package config

import (
	"os"
	"strconv"
	"time"
)

// DatabaseConfig holds PostgreSQL database connection settings.
type DatabaseConfig struct {
	Host               string
	Port               string
	User               string
	Password           string
	Name               string
	SSLMode            string
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetimeSec int
}

// ObjectStoreConfig holds S3-compatible object storage settings for item
// attachments.
type ObjectStoreConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// AuthConfig holds token signing and bootstrap-superuser settings.
type AuthConfig struct {
	// SignKey signs HS256 access tokens. Required in production.
	SignKey string
	// AccessTTL is the access-token lifetime.
	AccessTTL time.Duration
	// Bootstrap superuser created at startup when absent. Disabled when the
	// email is empty.
	SuperuserEmail    string
	SuperuserPassword string
}

// AppConfig is the centralized configuration struct for the application.
// It is populated from environment variables. Sensitive values are not hardcoded.
type AppConfig struct {
	AppHost     string
	Port        string
	Database    DatabaseConfig
	ObjectStore ObjectStoreConfig
	Auth        AuthConfig
}

// Load reads configuration from environment variables.
// A .env file can be auto-loaded by importing: _ "github.com/joho/godotenv/autoload"
// This function does not require a .env file; real environment variables take precedence.
func Load() *AppConfig {
	return &AppConfig{
		AppHost: getEnv("APP_HOST", "localhost:8080"),
		Port:    getEnv("PORT", "8080"),
		Database: DatabaseConfig{
			Host:               getEnv("DB_HOST", ""),
			Port:               getEnv("DB_PORT", "5432"),
			User:               getEnv("DB_USER", ""),
			Password:           getEnv("DB_PASSWORD", ""),
			Name:               getEnv("DB_NAME", ""),
			SSLMode:            getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:       getEnvInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:       getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetimeSec: getEnvInt("DB_CONN_MAX_LIFETIME_SEC", 300),
		},
		ObjectStore: ObjectStoreConfig{
			Endpoint:  getEnv("OBJECTSTORE_ENDPOINT", ""),
			AccessKey: getEnv("OBJECTSTORE_ACCESS_KEY", ""),
			SecretKey: getEnv("OBJECTSTORE_SECRET_KEY", ""),
			Bucket:    getEnv("OBJECTSTORE_BUCKET", ""),
			UseSSL:    getEnvBool("OBJECTSTORE_USE_SSL", false),
		},
		Auth: AuthConfig{
			SignKey:           getEnv("AUTH_SIGN_KEY", ""),
			AccessTTL:         time.Duration(getEnvInt("AUTH_ACCESS_TTL_MIN", 60*8)) * time.Minute,
			SuperuserEmail:    getEnv("BOOTSTRAP_SUPERUSER_EMAIL", ""),
			SuperuserPassword: getEnv("BOOTSTRAP_SUPERUSER_PASSWORD", ""),
		},
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(v)
		if err == nil {
			return i
		}
	}
	return def
}
