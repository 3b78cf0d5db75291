package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/kazkleen/crm/internal/db"
)

const (
	BackendFile     = "file"
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendSQLite   = "sqlite"
)

type Config struct {
	StoreBackend string
	DataDir      string
	SQLitePath   string
	Postgres     db.ConnConfig

	DocumentKey string
	SessionKey  string

	HTTPPort    string
	JWTSecret   string
	TokenTTL    time.Duration
	CORSOrigins []string

	KafkaBrokers []string
	AuditTopic   string

	PasswordHashing string
	LogLevel        string
}

// LoadEnv loads the first .env, or failing that .example.env, found in the
// working directory or up to two levels above it. It returns the loaded path,
// or "" when there is none; the process environment is used as is then.
func LoadEnv() string {
	wd, err := os.Getwd()
	if err != nil {
		return ""
	}

	possiblePaths := []string{
		filepath.Join(wd, ".env"),
		filepath.Join(wd, "..", ".env"),
		filepath.Join(wd, "..", "..", ".env"),
	}
	for _, envPath := range possiblePaths {
		if err := godotenv.Load(envPath); err == nil {
			return envPath
		}
	}
	for _, envPath := range possiblePaths {
		examplePath := filepath.Join(filepath.Dir(envPath), ".example.env")
		if err := godotenv.Load(examplePath); err == nil {
			return examplePath
		}
	}
	return ""
}

func Load() (*Config, error) {
	port, err := strconv.Atoi(getEnv("DB_PORT", "5432"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_PORT: %w", err)
	}
	ttl, err := time.ParseDuration(getEnv("TOKEN_TTL", "12h"))
	if err != nil {
		return nil, fmt.Errorf("invalid TOKEN_TTL: %w", err)
	}

	dataDir := getEnv("DATA_DIR", "./data")
	cfg := &Config{
		StoreBackend: strings.ToLower(getEnv("STORE_BACKEND", BackendFile)),
		DataDir:      dataDir,
		SQLitePath:   getEnv("SQLITE_PATH", filepath.Join(dataDir, "kazkleen.db")),
		Postgres: db.ConnConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     port,
			User:     getEnv("POSTGRES_USER", "postgres"),
			Password: getEnv("POSTGRES_PASSWORD", ""),
			Name:     getEnv("POSTGRES_DB", "kazkleen"),
		},
		DocumentKey:     getEnv("DOCUMENT_KEY", "kazkleenCRMData"),
		SessionKey:      getEnv("SESSION_KEY", "currentUser"),
		HTTPPort:        getEnv("HTTP_PORT", "8080"),
		JWTSecret:       getEnv("JWT_SECRET", ""),
		TokenTTL:        ttl,
		CORSOrigins:     splitList(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173")),
		KafkaBrokers:    splitList(getEnv("KAFKA_BROKERS", "")),
		AuditTopic:      getEnv("AUDIT_TOPIC", "kazkleen-audit"),
		PasswordHashing: strings.ToLower(getEnv("PASSWORD_HASHING", "bcrypt")),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
	}

	switch cfg.StoreBackend {
	case BackendFile, BackendMemory, BackendPostgres, BackendSQLite:
	default:
		return nil, fmt.Errorf("unknown STORE_BACKEND %q", cfg.StoreBackend)
	}
	switch cfg.PasswordHashing {
	case "bcrypt", "plain":
	default:
		return nil, fmt.Errorf("unknown PASSWORD_HASHING %q", cfg.PasswordHashing)
	}
	return cfg, nil
}

// ValidateServer checks the settings only the HTTP server needs.
func (c *Config) ValidateServer() error {
	if len(c.JWTSecret) < 32 {
		return fmt.Errorf("JWT_SECRET must be at least 32 characters")
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("TOKEN_TTL must be positive")
	}
	return nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
