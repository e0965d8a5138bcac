package geodex

import (
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kailas-cloud/geodex/internal/config"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	driver    string // "redis" or "bleve"
	addrs     []string
	password  string
	blevePath string
	keyPrefix string

	catalogPath string

	openAI           *openAIConfig
	queryInstruction string

	mediaURL     string
	hnswM        int
	hnswEF       int
	suggestLimit int
	workers      int
	rate         float64

	logger     *slog.Logger
	metricsReg prometheus.Registerer
}

type openAIConfig struct {
	apiKey     string
	baseURL    string
	model      string
	dimensions int
}

// WithRedis stores the indexes in a Redis (or Valkey) instance with the
// search module.
func WithRedis(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = config.DriverRedis
		c.addrs = []string{addr}
		c.password = password
	})
}

// WithBleve stores the indexes in embedded bleve indexes under path.
// An empty path keeps them in memory.
func WithBleve(path string) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = config.DriverBleve
		c.blevePath = path
	})
}

// WithKeyPrefix namespaces Redis keys. Default: "geodex:".
func WithKeyPrefix(prefix string) Option {
	return optionFunc(func(c *clientConfig) {
		c.keyPrefix = prefix
	})
}

// WithCatalog sets the catalog database path. Default: data/catalog.db.
func WithCatalog(path string) Option {
	return optionFunc(func(c *clientConfig) {
		c.catalogPath = path
	})
}

// WithOpenAI enables semantic enrichment through an OpenAI-compatible
// embeddings API. An empty baseURL uses the OpenAI endpoint.
func WithOpenAI(apiKey, baseURL, model string, dimensions int) Option {
	return optionFunc(func(c *clientConfig) {
		c.openAI = &openAIConfig{apiKey: apiKey, baseURL: baseURL, model: model, dimensions: dimensions}
	})
}

// WithQueryInstruction prefixes search queries before they are embedded.
func WithQueryInstruction(instruction string) Option {
	return optionFunc(func(c *clientConfig) {
		c.queryInstruction = instruction
	})
}

// WithMediaURL sets the base URL of uploaded avatars.
func WithMediaURL(url string) Option {
	return optionFunc(func(c *clientConfig) {
		c.mediaURL = url
	})
}

// WithHNSW configures HNSW index parameters (M and EF construction).
// Defaults: M=16, EFConstruct=200.
func WithHNSW(m, efConstruct int) Option {
	return optionFunc(func(c *clientConfig) {
		c.hnswM = m
		c.hnswEF = efConstruct
	})
}

// WithSuggestLimit caps autocomplete results. Default: 10.
func WithSuggestLimit(n int) Option {
	return optionFunc(func(c *clientConfig) {
		c.suggestLimit = n
	})
}

// WithBulk sets the concurrency and entities-per-second rate of
// ReindexAll. Defaults: 4 workers, unlimited rate.
func WithBulk(workers int, rate float64) Option {
	return optionFunc(func(c *clientConfig) {
		c.workers = workers
		c.rate = rate
	})
}

// WithLogger enables structured logging for SDK operations.
// Pass nil to disable (default). Uses standard library slog.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers SDK metrics (operation counts and durations)
// on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}

// toConfig maps the options onto the server configuration.
func (c *clientConfig) toConfig() config.Config {
	cfg := config.Config{
		Search: config.SearchConfig{
			Driver:    c.driver,
			Addrs:     c.addrs,
			Password:  c.password,
			KeyPrefix: c.keyPrefix,
			BlevePath: c.blevePath,
		},
		Catalog: config.CatalogConfig{Path: c.catalogPath},
		Site:    config.SiteConfig{MediaURL: c.mediaURL},
		Index: config.IndexConfig{
			HNSWM:           c.hnswM,
			HNSWEFConstruct: c.hnswEF,
			SuggestLimit:    c.suggestLimit,
			Workers:         c.workers,
			Rate:            c.rate,
		},
	}
	if c.openAI != nil {
		cfg.Embedding = config.EmbeddingConfig{
			Provider:         "openai",
			APIKey:           c.openAI.apiKey,
			BaseURL:          c.openAI.baseURL,
			Model:            c.openAI.model,
			Dimensions:       c.openAI.dimensions,
			QueryInstruction: c.queryInstruction,
		}
	}
	cfg.ApplyDefaults()
	return cfg
}
