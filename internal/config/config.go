package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Store backends
const (
	BackendPostgREST = "postgrest"
	BackendPostgres  = "postgres"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	Server ServerConfig

	// Which persistence backend serves the repositories
	Store StoreConfig

	// Database configuration (postgres backend)
	Database DatabaseConfig

	// Hosted store configuration (postgrest backend)
	PostgREST PostgRESTConfig

	// Steam Web API configuration
	Steam SteamConfig

	// Session cookie configuration
	Session SessionConfig

	// Enrichment and scoring configuration
	Enrichment EnrichmentConfig

	// Privacy configuration
	Privacy PrivacyConfig

	// Logging configuration
	Log LogConfig
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	AllowedOrigin   string
}

// StoreConfig selects the persistence backend
type StoreConfig struct {
	Backend        string
	MigrationsPath string
	// MigrationVersion pins the schema version; 0 migrates to the latest
	MigrationVersion uint
	AutoMigrate      bool
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host         string
	Port         string
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
	MaxLifetime  time.Duration
}

// PostgRESTConfig holds settings for the hosted relational store
type PostgRESTConfig struct {
	URL      string
	APIKey   string
	Timeout  time.Duration
	RetryMax int
}

// SteamConfig holds identity provider settings
type SteamConfig struct {
	APIKey           string
	BaseURL          string
	Timeout          time.Duration
	RetryMax         int
	CacheTTL         time.Duration
	CacheSize        int
	RedisURL         string // optional, shares the cache between instances
	VerifyProfileURL bool
}

// SessionConfig holds session cookie settings
type SessionConfig struct {
	CookieName string
	HashKey    string
	BlockKey   string
	Secure     bool
	MaxAge     time.Duration
}

// EnrichmentConfig holds enrichment pipeline settings
type EnrichmentConfig struct {
	Concurrency     int
	CountComments   bool
	ScoringPolicy   string
	DefaultPageSize int
	MaxPageSize     int
}

// PrivacyConfig holds settings for hashing reporter origins
type PrivacyConfig struct {
	IPSalt string
}

// LogConfig holds logging settings
type LogConfig struct {
	Level  string
	Format string // "json" or "pretty"
}

// Load reads configuration from environment variables, after loading an
// optional .env file (ENV_FILE, default ".env")
func Load() (*Config, error) {
	envFile := getEnv("ENV_FILE", ".env")
	if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load %s: %w", envFile, err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:            getEnv("PORT", "8080"),
			ReadTimeout:     getDurationEnv("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:    getDurationEnv("SERVER_WRITE_TIMEOUT", 60*time.Second),
			ShutdownTimeout: getDurationEnv("SERVER_SHUTDOWN_TIMEOUT", 30*time.Second),
			AllowedOrigin:   getEnv("CORS_ALLOWED_ORIGIN", "*"),
		},
		Store: StoreConfig{
			Backend:          getEnv("STORE_BACKEND", BackendPostgREST),
			MigrationsPath:   getEnv("MIGRATIONS_PATH", "./migrations"),
			MigrationVersion: uint(getIntEnv("MIGRATION_VERSION", 0)),
			AutoMigrate:      getBoolEnv("AUTO_MIGRATE", true),
		},
		Database: DatabaseConfig{
			Host:         getEnv("DB_HOST", "localhost"),
			Port:         getEnv("DB_PORT", "5432"),
			User:         getEnv("DB_USER", "postgres"),
			Password:     getEnv("DB_PASSWORD", "postgres"),
			Name:         getEnv("DB_NAME", "suspect_registry"),
			SSLMode:      getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns: getIntEnv("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns: getIntEnv("DB_MAX_IDLE_CONNS", 5),
			MaxLifetime:  getDurationEnv("DB_MAX_LIFETIME", 5*time.Minute),
		},
		PostgREST: PostgRESTConfig{
			URL:      getEnv("POSTGREST_URL", ""),
			APIKey:   getEnv("POSTGREST_API_KEY", ""),
			Timeout:  getDurationEnv("POSTGREST_TIMEOUT", 10*time.Second),
			RetryMax: getIntEnv("POSTGREST_RETRY_MAX", 2),
		},
		Steam: SteamConfig{
			APIKey:           getEnv("STEAM_API_KEY", ""),
			BaseURL:          getEnv("STEAM_API_URL", "https://api.steampowered.com"),
			Timeout:          getDurationEnv("STEAM_TIMEOUT", 10*time.Second),
			RetryMax:         getIntEnv("STEAM_RETRY_MAX", 2),
			CacheTTL:         getDurationEnv("STEAM_CACHE_TTL", 30*time.Minute),
			CacheSize:        getIntEnv("STEAM_CACHE_SIZE", 10_000),
			RedisURL:         getEnv("REDIS_URL", ""),
			VerifyProfileURL: getBoolEnv("STEAM_VERIFY_PROFILE_URL", true),
		},
		Session: SessionConfig{
			CookieName: getEnv("SESSION_COOKIE_NAME", "suspect-registry-session"),
			HashKey:    getEnv("SESSION_HASH_KEY", ""),
			BlockKey:   getEnv("SESSION_BLOCK_KEY", ""),
			Secure:     getBoolEnv("SESSION_SECURE", getEnv("ENV", "") == "production"),
			MaxAge:     getDurationEnv("SESSION_MAX_AGE", 30*24*time.Hour),
		},
		Enrichment: EnrichmentConfig{
			Concurrency:     getIntEnv("ENRICH_CONCURRENCY", 8),
			CountComments:   getBoolEnv("ENRICH_COUNT_COMMENTS", true),
			ScoringPolicy:   getEnv("SCORING_POLICY", "weighted"),
			DefaultPageSize: getIntEnv("PAGE_SIZE_DEFAULT", 25),
			MaxPageSize:     getIntEnv("PAGE_SIZE_MAX", 100),
		},
		Privacy: PrivacyConfig{
			IPSalt: getEnv("IP_SALT", ""),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	// Validate required configuration
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	switch c.Store.Backend {
	case BackendPostgres:
		if c.Database.Host == "" {
			return fmt.Errorf("DB_HOST is required")
		}
		if c.Database.Name == "" {
			return fmt.Errorf("DB_NAME is required")
		}
	case BackendPostgREST:
		if c.PostgREST.URL == "" {
			return fmt.Errorf("POSTGREST_URL is required")
		}
		if c.PostgREST.APIKey == "" {
			return fmt.Errorf("POSTGREST_API_KEY is required")
		}
	default:
		return fmt.Errorf("STORE_BACKEND must be one of: %s, %s", BackendPostgREST, BackendPostgres)
	}

	if c.Steam.APIKey == "" {
		return fmt.Errorf("STEAM_API_KEY is required")
	}
	if c.Steam.CacheTTL <= 0 {
		return fmt.Errorf("STEAM_CACHE_TTL must be positive")
	}
	if len(c.Session.HashKey) < 32 {
		return fmt.Errorf("SESSION_HASH_KEY must be at least 32 bytes")
	}
	switch len(c.Session.BlockKey) {
	case 16, 24, 32:
	default:
		return fmt.Errorf("SESSION_BLOCK_KEY must be 16, 24 or 32 bytes")
	}
	if c.Privacy.IPSalt == "" {
		return fmt.Errorf("IP_SALT is required")
	}
	if c.Enrichment.Concurrency < 1 {
		return fmt.Errorf("ENRICH_CONCURRENCY must be at least 1")
	}
	if c.Enrichment.ScoringPolicy != "weighted" && c.Enrichment.ScoringPolicy != "capped" {
		return fmt.Errorf("SCORING_POLICY must be one of: weighted, capped")
	}
	return nil
}

// GetDSN returns the PostgreSQL connection string
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

// Helper functions for environment variable parsing

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
