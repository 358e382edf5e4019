package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/natefinch/atomic"
	"gopkg.in/yaml.v3"
)

// DefaultDir holds the workspace-local state of the command bar.
const DefaultDir = ".cmdbar"

// DefaultPath is where the CLI looks for configuration.
var DefaultPath = filepath.Join(DefaultDir, "config.yaml")

// Config holds all cmdbar configuration.
type Config struct {
	LLM     LLMConfig     `yaml:"llm"`
	Cache   CacheConfig   `yaml:"cache"`
	Store   StoreConfig   `yaml:"store"`
	Logging LoggingConfig `yaml:"logging"`
}

// Cache backends.
const (
	CacheMemory = "memory"
	CacheSQLite = "sqlite"
	CacheRedis  = "redis"
)

// ValidCacheBackends lists the supported translation cache backends.
var ValidCacheBackends = []string{CacheMemory, CacheSQLite, CacheRedis}

// CacheConfig configures the translation cache.
type CacheConfig struct {
	Backend  string `yaml:"backend"`
	TTL      string `yaml:"ttl"`
	Path     string `yaml:"path"`      // sqlite
	RedisURL string `yaml:"redis_url"` // redis
}

// StoreConfig locates the world seed and the command history.
type StoreConfig struct {
	SeedPath    string `yaml:"seed_path"`
	HistoryPath string `yaml:"history_path"`
	PathPrefix  string `yaml:"path_prefix"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		LLM: LLMConfig{
			Provider:   ProviderOpenAI,
			Model:      DefaultModel(ProviderOpenAI),
			BaseURL:    "https://api.openai.com/v1",
			Timeout:    "60s",
			MaxRetries: 3,
		},
		Cache: CacheConfig{
			Backend: CacheMemory,
			TTL:     "24h",
			Path:    filepath.Join(DefaultDir, "cache.db"),
		},
		Store: StoreConfig{
			SeedPath:    filepath.Join(DefaultDir, "world.yaml"),
			HistoryPath: filepath.Join(DefaultDir, "history.db"),
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load loads configuration from a YAML file. A missing file yields the
// defaults; environment overrides apply either way.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// Save writes the configuration to a YAML file, replacing it atomically.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		c.LLM.APIKey = key
		c.LLM.Provider = ProviderOpenAI
	}
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		if c.LLM.Provider != ProviderGemini {
			c.LLM.Model = DefaultModel(ProviderGemini)
		}
		c.LLM.APIKey = key
		c.LLM.Provider = ProviderGemini
	}

	if url := os.Getenv("CMDBAR_REDIS_URL"); url != "" {
		c.Cache.RedisURL = url
		c.Cache.Backend = CacheRedis
	}
	if path := os.Getenv("CMDBAR_DB"); path != "" {
		c.Store.HistoryPath = path
	}
	if prefix := os.Getenv("CMDBAR_PATH_PREFIX"); prefix != "" {
		c.Store.PathPrefix = prefix
	}
}

// GetLLMTimeout returns the LLM timeout as a duration.
func (c *Config) GetLLMTimeout() time.Duration {
	d, err := time.ParseDuration(c.LLM.Timeout)
	if err != nil {
		return 60 * time.Second
	}
	return d
}

// GetCacheTTL returns how long translations stay cached.
func (c *Config) GetCacheTTL() time.Duration {
	d, err := time.ParseDuration(c.Cache.TTL)
	if err != nil || d <= 0 {
		return 24 * time.Hour
	}
	return d
}

// Validate validates the configuration. The API key is checked when a
// client is built, since grammar-only use needs none.
func (c *Config) Validate() error {
	if !contains(ValidProviders, c.LLM.Provider) {
		return fmt.Errorf("invalid LLM provider: %s (valid: %v)", c.LLM.Provider, ValidProviders)
	}
	if !contains(ValidCacheBackends, c.Cache.Backend) {
		return fmt.Errorf("invalid cache backend: %s (valid: %v)", c.Cache.Backend, ValidCacheBackends)
	}
	if c.Cache.Backend == CacheRedis && c.Cache.RedisURL == "" {
		return fmt.Errorf("cache backend redis requires cache.redis_url (or CMDBAR_REDIS_URL)")
	}
	if c.Cache.Backend == CacheSQLite && c.Cache.Path == "" {
		return fmt.Errorf("cache backend sqlite requires cache.path")
	}
	if _, err := time.ParseDuration(c.Cache.TTL); c.Cache.TTL != "" && err != nil {
		return fmt.Errorf("invalid cache ttl %q: %w", c.Cache.TTL, err)
	}
	return nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
