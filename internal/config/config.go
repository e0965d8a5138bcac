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

// Search engine drivers.
const (
	DriverRedis = "redis"
	DriverBleve = "bleve"
)

// Config holds the geodex configuration.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Search    SearchConfig    `yaml:"search"`
	Catalog   CatalogConfig   `yaml:"catalog"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Site      SiteConfig      `yaml:"site"`
	Index     IndexConfig     `yaml:"index"`
	Auth      AuthConfig      `yaml:"auth"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API keys guarding the index routes.
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

// SearchConfig selects and connects the search engine.
type SearchConfig struct {
	Driver           string   `yaml:"driver"` // redis, bleve (default: bleve)
	Addrs            []string `yaml:"addrs"`
	Username         string   `yaml:"username"`
	Password         string   `yaml:"password"`
	DB               int      `yaml:"db"`
	KeyPrefix        string   `yaml:"key_prefix"`
	BlevePath        string   `yaml:"bleve_path"` // empty keeps bleve indexes in memory
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// CatalogConfig locates the catalog database.
type CatalogConfig struct {
	Path string `yaml:"path"`
}

// EmbeddingConfig configures the optional semantic enrichment. An empty
// provider disables it.
type EmbeddingConfig struct {
	Provider          string       `yaml:"provider"`
	APIKey            string       `yaml:"api_key"`
	BaseURL           string       `yaml:"base_url"`
	Model             string       `yaml:"model"`
	Dimensions        int          `yaml:"dimensions"`
	QueryInstruction  string       `yaml:"query_instruction"`
	RequestsPerSecond float64      `yaml:"requests_per_second"`
	CacheTTLHours     int          `yaml:"cache_ttl_hours"` // 0 = keep forever
	Budget            BudgetConfig `yaml:"budget"`
}

// Enabled reports whether an embedding provider is configured.
func (e EmbeddingConfig) Enabled() bool { return e.Provider != "" }

// BudgetConfig holds token budget settings.
type BudgetConfig struct {
	DailyTokenLimit   int64  `yaml:"daily_token_limit"`   // 0 = unlimited
	MonthlyTokenLimit int64  `yaml:"monthly_token_limit"` // 0 = unlimited
	Action            string `yaml:"action"`              // "reject" | "warn" (default)
	// QueryReserve keeps tokens of each window for search queries; document
	// enrichment stops before touching them.
	QueryReserve int64 `yaml:"query_reserve"`
}

// SiteConfig holds the public URLs documents link to.
type SiteConfig struct {
	MediaURL   string `yaml:"media_url"`
	AvatarSize int    `yaml:"avatar_size"`
}

// IndexConfig holds index layout and bulk indexing settings.
type IndexConfig struct {
	HNSWM           int     `yaml:"hnsw_m"`
	HNSWEFConstruct int     `yaml:"hnsw_ef_construction"`
	SuggestLimit    int     `yaml:"suggest_limit"`
	Workers         int     `yaml:"workers"`
	Rate            float64 `yaml:"rate"` // entities per second during reindex, 0 = unlimited
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	return LoadFile(findConfigPath(env))
}

// LoadFile reads configuration from an explicit path.
func LoadFile(configPath string) (Config, error) {
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
		c.HTTP.WriteTimeoutSec = 10
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Search.Driver == "" {
		c.Search.Driver = DriverBleve
	}
	if c.Search.ReadinessTimeout <= 0 {
		c.Search.ReadinessTimeout = 10
	}
	if c.Search.KeyPrefix == "" {
		c.Search.KeyPrefix = "geodex:"
	}
	if c.Catalog.Path == "" {
		c.Catalog.Path = filepath.Join("data", "catalog.db")
	}
	if c.Embedding.Provider != "" && c.Embedding.Model == "" {
		c.Embedding.Model = "text-embedding-3-small"
	}
	if c.Site.AvatarSize <= 0 {
		c.Site.AvatarSize = 240
	}
	if c.Index.HNSWM <= 0 {
		c.Index.HNSWM = 16
	}
	if c.Index.HNSWEFConstruct <= 0 {
		c.Index.HNSWEFConstruct = 200
	}
	if c.Index.SuggestLimit <= 0 {
		c.Index.SuggestLimit = 10
	}
	if c.Index.Workers <= 0 {
		c.Index.Workers = 4
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	return c.ValidateServices()
}

// ValidateServices checks everything but the HTTP server settings.
func (c *Config) ValidateServices() error {
	switch c.Search.Driver {
	case DriverRedis:
		if len(c.Search.Addrs) == 0 {
			return fmt.Errorf("search.addrs is required for the redis driver")
		}
	case DriverBleve:
	default:
		return fmt.Errorf("search.driver must be %q or %q, got %q", DriverRedis, DriverBleve, c.Search.Driver)
	}
	if c.Embedding.Enabled() && c.Embedding.Dimensions <= 0 {
		return fmt.Errorf("embedding.dimensions must be positive when a provider is set")
	}
	switch c.Embedding.Budget.Action {
	case "", "warn", "reject":
		// ok
	default:
		return fmt.Errorf("embedding.budget.action must be \"warn\" or \"reject\", got %q", c.Embedding.Budget.Action)
	}
	if err := c.Embedding.Budget.validateReserve(); err != nil {
		return err
	}
	if c.Index.Rate < 0 {
		return fmt.Errorf("index.rate must not be negative, got %v", c.Index.Rate)
	}
	return nil
}

func (b BudgetConfig) validateReserve() error {
	if b.QueryReserve < 0 {
		return fmt.Errorf("embedding.budget.query_reserve must not be negative, got %d", b.QueryReserve)
	}
	for _, limit := range []int64{b.DailyTokenLimit, b.MonthlyTokenLimit} {
		if limit > 0 && b.QueryReserve >= limit {
			return fmt.Errorf("embedding.budget.query_reserve (%d) must be below every token limit, got limit %d",
				b.QueryReserve, limit)
		}
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
