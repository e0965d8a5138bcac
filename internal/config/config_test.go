package config

import (
	"os"
	"path/filepath"
	"testing"
)

func validConfig() Config {
	return Config{
		HTTP:   HTTPConfig{Port: 8080},
		Search: SearchConfig{Driver: DriverRedis, Addrs: []string{"localhost:6379"}},
	}
}

func TestValidate_InvalidBudgetAction(t *testing.T) {
	cfg := validConfig()
	cfg.Embedding = EmbeddingConfig{
		Provider:   "nebius",
		Dimensions: 1024,
		Budget:     BudgetConfig{DailyTokenLimit: 1000000, Action: "invalid_action"},
	}

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for invalid budget action")
	}

	expected := `embedding.budget.action must be "warn" or "reject", got "invalid_action"`
	if err.Error() != expected {
		t.Errorf("unexpected error message:\ngot:  %q\nwant: %q", err.Error(), expected)
	}
}

func TestValidate_ValidBudgetActions(t *testing.T) {
	for _, action := range []string{"", "warn", "reject"} {
		t.Run("action="+action, func(t *testing.T) {
			cfg := validConfig()
			cfg.Embedding.Budget.Action = action
			if err := cfg.Validate(); err != nil {
				t.Fatalf("unexpected error for valid action %q: %v", action, err)
			}
		})
	}
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"invalid port", func(c *Config) { c.HTTP.Port = 0 }},
		{"missing redis addrs", func(c *Config) { c.Search.Addrs = nil }},
		{"unknown driver", func(c *Config) { c.Search.Driver = "elasticsearch" }},
		{"embedding without dimensions", func(c *Config) { c.Embedding.Provider = "openai" }},
		{"negative rate", func(c *Config) { c.Index.Rate = -1 }},
		{"negative reserve", func(c *Config) { c.Embedding.Budget.QueryReserve = -5 }},
		{"reserve above daily limit", func(c *Config) {
			c.Embedding.Budget = BudgetConfig{DailyTokenLimit: 1000, MonthlyTokenLimit: 50000, QueryReserve: 1000}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestValidate_QueryReserve(t *testing.T) {
	cfg := validConfig()
	cfg.Embedding.Budget = BudgetConfig{DailyTokenLimit: 100000, QueryReserve: 5000}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_BleveNeedsNoAddrs(t *testing.T) {
	cfg := Config{HTTP: HTTPConfig{Port: 8080}, Search: SearchConfig{Driver: DriverBleve}}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateServices_IgnoresHTTP(t *testing.T) {
	cfg := Config{Search: SearchConfig{Driver: DriverBleve}}
	if err := cfg.ValidateServices(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	cfg.Search.Driver = "solr"
	if err := cfg.ValidateServices(); err == nil {
		t.Fatal("expected error for unknown driver")
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()

	if cfg.HTTP.ReadTimeoutSec != 10 || cfg.HTTP.WriteTimeoutSec != 10 || cfg.HTTP.ShutdownSec != 10 {
		t.Errorf("http timeouts = %+v", cfg.HTTP)
	}
	if cfg.Search.Driver != DriverBleve {
		t.Errorf("Driver = %q, want bleve", cfg.Search.Driver)
	}
	if cfg.Search.ReadinessTimeout != 10 {
		t.Errorf("ReadinessTimeout = %d, want 10", cfg.Search.ReadinessTimeout)
	}
	if cfg.Search.KeyPrefix != "geodex:" {
		t.Errorf("KeyPrefix = %q, want geodex:", cfg.Search.KeyPrefix)
	}
	if cfg.Catalog.Path != filepath.Join("data", "catalog.db") {
		t.Errorf("Catalog.Path = %q", cfg.Catalog.Path)
	}
	if cfg.Site.AvatarSize != 240 {
		t.Errorf("AvatarSize = %d, want 240", cfg.Site.AvatarSize)
	}
	if cfg.Index.HNSWM != 16 || cfg.Index.HNSWEFConstruct != 200 {
		t.Errorf("hnsw = %d/%d, want 16/200", cfg.Index.HNSWM, cfg.Index.HNSWEFConstruct)
	}
	if cfg.Index.SuggestLimit != 10 || cfg.Index.Workers != 4 {
		t.Errorf("index = %+v", cfg.Index)
	}
	if cfg.Embedding.Model != "" {
		t.Errorf("model defaulted without a provider: %q", cfg.Embedding.Model)
	}
}

func TestApplyDefaults_NoOverride(t *testing.T) {
	cfg := Config{
		HTTP:      HTTPConfig{ReadTimeoutSec: 30, WriteTimeoutSec: 60, ShutdownSec: 5},
		Search:    SearchConfig{Driver: DriverRedis, KeyPrefix: "custom:", ReadinessTimeout: 15},
		Embedding: EmbeddingConfig{Provider: "nebius", Model: "BAAI/bge-en-icl"},
		Index:     IndexConfig{HNSWM: 32, HNSWEFConstruct: 400, SuggestLimit: 5, Workers: 8},
	}
	cfg.ApplyDefaults()

	if cfg.HTTP.ReadTimeoutSec != 30 || cfg.HTTP.WriteTimeoutSec != 60 {
		t.Errorf("http = %+v", cfg.HTTP)
	}
	if cfg.Search.Driver != DriverRedis || cfg.Search.KeyPrefix != "custom:" {
		t.Errorf("search = %+v", cfg.Search)
	}
	if cfg.Embedding.Model != "BAAI/bge-en-icl" {
		t.Errorf("Model = %q", cfg.Embedding.Model)
	}
	if cfg.Index.HNSWM != 32 || cfg.Index.SuggestLimit != 5 || cfg.Index.Workers != 8 {
		t.Errorf("index = %+v", cfg.Index)
	}
}

func TestLoadFile_ExpandsEnv(t *testing.T) {
	t.Setenv("GEODEX_TEST_KEY", "s3cret")

	path := filepath.Join(t.TempDir(), "test.yaml")
	data := []byte(`
http:
  port: ${GEODEX_TEST_PORT:-8090}
search:
  driver: bleve
auth:
  api_keys: ["${GEODEX_TEST_KEY}"]
site:
  media_url: https://maps.example.org/uploaded
`)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.HTTP.Port != 8090 {
		t.Errorf("Port = %d, want 8090", cfg.HTTP.Port)
	}
	if len(cfg.Auth.APIKeys) != 1 || cfg.Auth.APIKeys[0] != "s3cret" {
		t.Errorf("APIKeys = %v", cfg.Auth.APIKeys)
	}
	if cfg.Site.MediaURL != "https://maps.example.org/uploaded" {
		t.Errorf("MediaURL = %q", cfg.Site.MediaURL)
	}
}

func TestLoad_LocalConfig(t *testing.T) {
	cfg, err := Load("local")
	if err != nil {
		t.Fatalf("Load(local): %v", err)
	}
	if cfg.Search.Driver != DriverBleve {
		t.Errorf("local driver = %q, want bleve", cfg.Search.Driver)
	}
}

func TestLoadFile_Missing(t *testing.T) {
	if _, err := LoadFile(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
