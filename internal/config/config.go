package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the collecta API configuration.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	Index     IndexConfig     `yaml:"index"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Search    SearchConfig    `yaml:"search"`
	Outbox    OutboxConfig    `yaml:"outbox"`
	Auth      AuthConfig      `yaml:"auth"`
	Logging   LoggingConfig   `yaml:"logging"`
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

// DatabaseConfig holds the relational metadata store settings.
type DatabaseConfig struct {
	Path string `yaml:"path"` // SQLite database file
}

// RedisConfig holds Redis connection and stream settings.
type RedisConfig struct {
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	StreamKey        string   `yaml:"stream_key"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// IndexConfig holds the chunk index (Elasticsearch-compatible) settings.
type IndexConfig struct {
	URL        string `yaml:"url"`
	Name       string `yaml:"name"`
	TimeoutSec int    `yaml:"timeout_sec"`
}

// SearchConfig holds ranking and pagination settings.
type SearchConfig struct {
	FetchFloor      int     `yaml:"fetch_floor"`       // minimum candidate window size
	FetchPerPage    int     `yaml:"fetch_per_page"`    // candidate window multiplier per page slot
	HybridWeight    float64 `yaml:"hybrid_weight"`     // similarity weight in hybrid fusion
	DefaultPageSize int     `yaml:"default_page_size"` //
	MaxPageSize     int     `yaml:"max_page_size"`
}

// OutboxConfig holds outbox publisher settings.
type OutboxConfig struct {
	BatchSize      int `yaml:"batch_size"`
	PollIntervalMS int `yaml:"poll_interval_ms"`
	LeaseTTLSec    int `yaml:"lease_ttl_sec"`
}

// EmbeddingConfig holds embedding settings.
type EmbeddingConfig struct {
	Provider  string                    `yaml:"provider"` // worker, openai
	Providers map[string]ProviderConfig `yaml:"providers"`
	Model     string                    `yaml:"model"`
	Dim       int                       `yaml:"dim"`
	CacheTTL  int                       `yaml:"cache_ttl_sec"` // 0 = no expiry
}

// ProviderConfig holds embedding provider settings.
type ProviderConfig struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

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
		c.HTTP.WriteTimeoutSec = 10
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Database.Path == "" {
		c.Database.Path = "collecta.db"
	}
	if c.Redis.StreamKey == "" {
		c.Redis.StreamKey = "collecta:outbox:resource"
	}
	if c.Redis.ReadinessTimeout <= 0 {
		c.Redis.ReadinessTimeout = 10
	}
	if c.Index.Name == "" {
		c.Index.Name = "collecta-chunks"
	}
	if c.Index.TimeoutSec <= 0 {
		c.Index.TimeoutSec = 10
	}
	if c.Search.FetchFloor <= 0 {
		c.Search.FetchFloor = 300
	}
	if c.Search.FetchPerPage <= 0 {
		c.Search.FetchPerPage = 30
	}
	if c.Search.HybridWeight <= 0 {
		c.Search.HybridWeight = 0.4
	}
	if c.Search.DefaultPageSize <= 0 {
		c.Search.DefaultPageSize = 20
	}
	if c.Search.MaxPageSize <= 0 {
		c.Search.MaxPageSize = 100
	}
	if c.Outbox.BatchSize <= 0 {
		c.Outbox.BatchSize = 100
	}
	if c.Outbox.PollIntervalMS <= 0 {
		c.Outbox.PollIntervalMS = 1000
	}
	if c.Outbox.LeaseTTLSec <= 0 {
		c.Outbox.LeaseTTLSec = 30
	}
	if c.Embedding.Provider == "" {
		c.Embedding.Provider = "worker"
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if len(c.Redis.Addrs) == 0 {
		return fmt.Errorf("redis.addrs is required")
	}
	if c.Index.URL == "" {
		return fmt.Errorf("index.url is required")
	}
	if _, ok := c.Embedding.Providers[c.Embedding.Provider]; !ok {
		return fmt.Errorf("embedding.providers is missing entry for provider %q", c.Embedding.Provider)
	}
	if c.Search.MaxPageSize < c.Search.DefaultPageSize {
		return fmt.Errorf("search.max_page_size %d is below search.default_page_size %d",
			c.Search.MaxPageSize, c.Search.DefaultPageSize)
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
