// Package config loads the lostfound API configuration.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds the lostfound API configuration.
type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	Database DatabaseConfig `yaml:"database"`
	Catalog  CatalogConfig  `yaml:"catalog"`
	Vision   VisionConfig   `yaml:"vision"`
	Auth     AuthConfig     `yaml:"auth"`
	Storage  StorageConfig  `yaml:"storage"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// DatabaseConfig holds the Redis connection settings.
type DatabaseConfig struct {
	Addrs            []string `yaml:"addrs"`
	Username         string   `yaml:"username"`
	Password         string   `yaml:"password"`
	DB               int      `yaml:"db"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// Catalog drivers.
const (
	CatalogRedis    = "redis"
	CatalogPostgres = "postgres"
)

// CatalogConfig selects where items and users live.
type CatalogConfig struct {
	Driver         string `yaml:"driver"` // redis (default), postgres
	PostgresDSN    string `yaml:"postgres_dsn"`
	MaxConns       int32  `yaml:"max_conns"`
	MigrateOnStart bool   `yaml:"migrate_on_start"`
}

// VisionConfig holds the vision model settings used by image search.
type VisionConfig struct {
	APIKey            string       `yaml:"api_key"`
	BaseURL           string       `yaml:"base_url"`
	Model             string       `yaml:"model"`
	ImageDetail       string       `yaml:"image_detail"` // low, high, auto
	MaxTokens         int          `yaml:"max_tokens"`
	BatchSize         int          `yaml:"batch_size"`
	CacheTTLSec       int          `yaml:"cache_ttl_sec"` // 0 disables the score cache
	InlineLocalImages bool         `yaml:"inline_local_images"`
	Budget            BudgetConfig `yaml:"budget"`
}

// BudgetConfig holds token budget settings.
type BudgetConfig struct {
	DailyTokenLimit   int64  `yaml:"daily_token_limit"`   // 0 = unlimited
	MonthlyTokenLimit int64  `yaml:"monthly_token_limit"` // 0 = unlimited
	Action            string `yaml:"action"`              // "reject" | "warn" (default)
}

// StorageConfig holds image storage settings.
type StorageConfig struct {
	PublicBaseURL string `yaml:"public_base_url"`
	MaxImageBytes int64  `yaml:"max_image_bytes"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
// A .env file in the working directory, if present, is loaded first.
func Load(env string) (Config, error) {
	if err := loadDotEnv(".env"); err != nil {
		return Config{}, err
	}

	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	return Parse(data)
}

// Parse decodes YAML after env substitution, applies defaults and validates.
func Parse(data []byte) (Config, error) {
	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		// image search runs several sequential model calls
		c.HTTP.WriteTimeoutSec = 120
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.Catalog.Driver == "" {
		c.Catalog.Driver = CatalogRedis
	}
	if c.Catalog.MaxConns <= 0 {
		c.Catalog.MaxConns = 10
	}
	if c.Vision.Model == "" {
		c.Vision.Model = "gpt-4o"
	}
	if c.Vision.ImageDetail == "" {
		c.Vision.ImageDetail = "low"
	}
	if c.Vision.BatchSize <= 0 {
		c.Vision.BatchSize = 5
	}
	if c.Storage.MaxImageBytes <= 0 {
		c.Storage.MaxImageBytes = 10 << 20
	}
	if c.Storage.PublicBaseURL == "" {
		c.Storage.PublicBaseURL = fmt.Sprintf("http://localhost:%d", c.HTTP.Port)
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if len(c.Database.Addrs) == 0 {
		return fmt.Errorf("database.addrs is required")
	}
	switch c.Catalog.Driver {
	case CatalogRedis:
	case CatalogPostgres:
		if c.Catalog.PostgresDSN == "" {
			return fmt.Errorf("catalog.postgres_dsn is required for the postgres driver")
		}
	default:
		return fmt.Errorf("catalog.driver must be %q or %q, got %q", CatalogRedis, CatalogPostgres, c.Catalog.Driver)
	}
	switch c.Vision.Budget.Action {
	case "", "warn", "reject":
		// ok
	default:
		return fmt.Errorf("vision.budget.action must be \"warn\" or \"reject\", got %q", c.Vision.Budget.Action)
	}
	switch c.Vision.ImageDetail {
	case "low", "high", "auto":
	default:
		return fmt.Errorf("vision.image_detail must be low, high or auto, got %q", c.Vision.ImageDetail)
	}
	if c.Vision.CacheTTLSec < 0 {
		return fmt.Errorf("vision.cache_ttl_sec must not be negative")
	}
	return nil
}

// loadDotEnv loads KEY=VALUE pairs from path without overriding variables already set.
func loadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
