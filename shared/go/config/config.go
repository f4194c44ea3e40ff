package config

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"
)

// Store backends.
const (
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

// Config holds all application configuration
type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	Security SecurityConfig
	CORS     CORSConfig
	Logging  LoggingConfig
	Trending TrendingConfig
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Backend  string // postgres, memory
	URL      string
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
	Seed     bool
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port           int
	Host           string
	RequestTimeout time.Duration
}

// Addr is the listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// SecurityConfig holds security-related settings
type SecurityConfig struct {
	JWTSecret string
	TokenTTL  time.Duration
}

// CORSConfig holds CORS settings
type CORSConfig struct {
	AllowedOrigins []string
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, text
}

// TrendingConfig tunes ranking and result caching.
type TrendingConfig struct {
	GrowthWeight float64
	CacheTTL     time.Duration
	CacheSize    int
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{}

	if err := cfg.loadDatabase(); err != nil {
		return nil, fmt.Errorf("load database config: %w", err)
	}
	if err := cfg.loadServer(); err != nil {
		return nil, fmt.Errorf("load server config: %w", err)
	}
	if err := cfg.loadSecurity(); err != nil {
		return nil, fmt.Errorf("load security config: %w", err)
	}
	if err := cfg.loadTrending(); err != nil {
		return nil, fmt.Errorf("load trending config: %w", err)
	}
	cfg.loadCORS()
	cfg.loadLogging()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

// LoadDatabase reads only the database section, for tools that never serve HTTP.
func LoadDatabase() (DatabaseConfig, error) {
	cfg := &Config{}
	if err := cfg.loadDatabase(); err != nil {
		return DatabaseConfig{}, err
	}
	if cfg.Database.URL == "" {
		return DatabaseConfig{}, fmt.Errorf("DATABASE_URL is required (or DB_HOST, DB_USER, DB_NAME)")
	}
	return cfg.Database, nil
}

// LoadTrending reads and validates only the trending section.
func LoadTrending() (TrendingConfig, error) {
	cfg := &Config{}
	if err := cfg.loadTrending(); err != nil {
		return TrendingConfig{}, err
	}
	if err := ValidateGrowthWeight(cfg.Trending.GrowthWeight); err != nil {
		return TrendingConfig{}, err
	}
	if cfg.Trending.CacheSize < 1 {
		return TrendingConfig{}, fmt.Errorf("TRENDING_CACHE_SIZE must be at least 1")
	}
	return cfg.Trending, nil
}

func (c *Config) loadDatabase() error {
	c.Database.Backend = strings.ToLower(getEnvOrDefault("STORE_BACKEND", BackendPostgres))

	seed, err := getEnvBool("SEED_DEMO_DATA", false)
	if err != nil {
		return err
	}
	c.Database.Seed = seed

	c.Database.URL = os.Getenv("DATABASE_URL")
	if c.Database.URL != "" {
		return nil
	}

	c.Database.Host = getEnvOrDefault("DB_HOST", "localhost")
	c.Database.User = os.Getenv("DB_USER")
	c.Database.Password = os.Getenv("DB_PASSWORD")
	c.Database.Name = os.Getenv("DB_NAME")
	c.Database.SSLMode = getEnvOrDefault("DB_SSLMODE", "disable")

	port, err := strconv.Atoi(getEnvOrDefault("DB_PORT", "5432"))
	if err != nil {
		return fmt.Errorf("invalid DB_PORT: %w", err)
	}
	c.Database.Port = port

	if c.Database.User != "" && c.Database.Name != "" {
		c.Database.URL = fmt.Sprintf(
			"postgresql://%s:%s@%s:%d/%s?sslmode=%s",
			c.Database.User,
			c.Database.Password,
			c.Database.Host,
			c.Database.Port,
			c.Database.Name,
			c.Database.SSLMode,
		)
	}
	return nil
}

func (c *Config) loadServer() error {
	port, err := strconv.Atoi(getEnvOrDefault("PORT", "8080"))
	if err != nil {
		return fmt.Errorf("invalid PORT: %w", err)
	}
	c.Server.Port = port
	c.Server.Host = getEnvOrDefault("HOST", "0.0.0.0")

	c.Server.RequestTimeout, err = getEnvDuration("REQUEST_TIMEOUT", 15*time.Second)
	return err
}

func (c *Config) loadSecurity() error {
	c.Security.JWTSecret = os.Getenv("JWT_SECRET")

	ttl, err := getEnvDuration("TOKEN_TTL", 24*time.Hour)
	if err != nil {
		return err
	}
	c.Security.TokenTTL = ttl
	return nil
}

func (c *Config) loadTrending() error {
	weight, err := strconv.ParseFloat(getEnvOrDefault("TRENDING_GROWTH_WEIGHT", "0.5"), 64)
	if err != nil {
		return fmt.Errorf("invalid TRENDING_GROWTH_WEIGHT: %w", err)
	}
	c.Trending.GrowthWeight = weight

	if c.Trending.CacheTTL, err = getEnvDuration("TRENDING_CACHE_TTL", 30*time.Second); err != nil {
		return err
	}

	size, err := strconv.Atoi(getEnvOrDefault("TRENDING_CACHE_SIZE", "256"))
	if err != nil {
		return fmt.Errorf("invalid TRENDING_CACHE_SIZE: %w", err)
	}
	c.Trending.CacheSize = size
	return nil
}

func (c *Config) loadCORS() {
	originsEnv := os.Getenv("CORS_ALLOWED_ORIGINS")
	if originsEnv == "" {
		c.CORS.AllowedOrigins = []string{
			"http://localhost:3000",
			"http://localhost:5173",
			"http://localhost:8080",
		}
		return
	}
	for _, origin := range strings.Split(originsEnv, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			c.CORS.AllowedOrigins = append(c.CORS.AllowedOrigins, origin)
		}
	}
}

func (c *Config) loadLogging() {
	c.Logging.Level = strings.ToLower(getEnvOrDefault("LOG_LEVEL", "info"))
	c.Logging.Format = strings.ToLower(getEnvOrDefault("LOG_FORMAT", "json"))
}

// Validate checks that all required configuration is present and valid
func (c *Config) Validate() error {
	var errors []string

	switch c.Database.Backend {
	case BackendPostgres:
		if c.Database.URL == "" {
			errors = append(errors, "DATABASE_URL is required (or DB_HOST, DB_USER, DB_NAME)")
		}
	case BackendMemory:
	default:
		errors = append(errors, "STORE_BACKEND must be one of: postgres, memory")
	}

	if c.Security.JWTSecret == "" {
		errors = append(errors, "JWT_SECRET is required")
	} else if len(c.Security.JWTSecret) < 16 {
		errors = append(errors, "JWT_SECRET must be at least 16 characters")
	}
	if c.Security.TokenTTL <= 0 {
		errors = append(errors, "TOKEN_TTL must be positive")
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errors = append(errors, "PORT must be between 1 and 65535")
	}
	if c.Server.RequestTimeout <= 0 {
		errors = append(errors, "REQUEST_TIMEOUT must be positive")
	}

	if err := ValidateGrowthWeight(c.Trending.GrowthWeight); err != nil {
		errors = append(errors, err.Error())
	}
	if c.Trending.CacheSize < 1 {
		errors = append(errors, "TRENDING_CACHE_SIZE must be at least 1")
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.Logging.Level] {
		errors = append(errors, "LOG_LEVEL must be one of: debug, info, warn, error")
	}
	validLogFormats := map[string]bool{"json": true, "text": true}
	if !validLogFormats[c.Logging.Format] {
		errors = append(errors, "LOG_FORMAT must be one of: json, text")
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(errors, "\n  - "))
	}
	return nil
}

// ValidateGrowthWeight rejects weights that would break score ordering.
// strconv.ParseFloat accepts "NaN" and "Inf", so both are checked explicitly.
func ValidateGrowthWeight(w float64) error {
	if math.IsNaN(w) || math.IsInf(w, 0) || w < 0 {
		return fmt.Errorf("TRENDING_GROWTH_WEIGHT must be a finite number >= 0")
	}
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func getEnvBool(key string, defaultValue bool) (bool, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}
