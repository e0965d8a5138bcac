// Package embcache keeps provider embeddings in the key-value store so that
// reindexing unchanged resources and repeating search queries cost no tokens.
package embcache

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/kailas-cloud/geodex/internal/db"
	"github.com/kailas-cloud/geodex/internal/domain"
)

const keyPrefix = "emb:"

// Cache lookup outcomes, used as the "result" label.
const (
	ResultHit    = "hit"
	ResultMiss   = "miss"
	ResultShared = "shared"
	ResultStale  = "stale"
)

// store is the consumer interface for the embedding cache (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Config describes how entries are keyed and kept.
type Config struct {
	// Model and Dimensions are part of every key: switching either starts
	// from an empty cache instead of serving vectors of the wrong shape.
	Model      string
	Dimensions int
	// TTL <= 0 keeps entries forever.
	TTL time.Duration
	// Results, when set, counts lookups by outcome (label "result").
	Results *prometheus.CounterVec
	Logger  *zap.Logger
}

// CachedEmbedder caches embeddings and coalesces concurrent misses for the
// same text, which bulk reindex produces for shared boilerplate abstracts.
type CachedEmbedder struct {
	inner   domain.Embedder
	store   store
	cfg     Config
	flights singleflight.Group
	logger  *zap.Logger
}

// New wraps inner with a cache held in s.
func New(inner domain.Embedder, s store, cfg Config) *CachedEmbedder {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedEmbedder{inner: inner, store: s, cfg: cfg, logger: logger}
}

// Embed returns the cached vector for text or asks the inner embedder.
// Only the call that reached the provider reports tokens: hits and callers
// that joined an in-flight request report zero.
func (c *CachedEmbedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	key := c.key(text)

	if vec, ok := c.lookup(ctx, key); ok {
		c.count(ResultHit)
		return domain.EmbeddingResult{Embedding: vec}, nil
	}

	leader := false
	v, err, _ := c.flights.Do(key, func() (any, error) {
		leader = true
		res, err := c.inner.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		c.put(ctx, key, res.Embedding)
		return res, nil
	})
	if err != nil {
		return domain.EmbeddingResult{}, fmt.Errorf("embed text: %w", err)
	}

	res := v.(domain.EmbeddingResult)
	if !leader {
		c.count(ResultShared)
		return domain.EmbeddingResult{Embedding: res.Embedding}, nil
	}
	c.count(ResultMiss)
	return res, nil
}

func (c *CachedEmbedder) count(result string) {
	if c.cfg.Results != nil {
		c.cfg.Results.WithLabelValues(result).Inc()
	}
}

// key is emb:<model>:<dims>:<sha256(text)>.
func (c *CachedEmbedder) key(text string) string {
	h := sha256.Sum256([]byte(text))
	return keyPrefix + c.cfg.Model + ":" + strconv.Itoa(c.cfg.Dimensions) + ":" + hex.EncodeToString(h[:])
}

func (c *CachedEmbedder) lookup(ctx context.Context, key string) ([]float32, bool) {
	data, err := c.store.Get(ctx, key)
	switch {
	case errors.Is(err, db.ErrKeyNotFound):
		return nil, false
	case err != nil:
		c.logger.Warn("embedding cache read failed", zap.String("key", key), zap.Error(err))
		return nil, false
	case len(data) == 0:
		return nil, false
	}

	vec, err := decode(data)
	if err == nil && c.cfg.Dimensions > 0 && len(vec) != c.cfg.Dimensions {
		err = fmt.Errorf("cached vector has %d dimensions, want %d", len(vec), c.cfg.Dimensions)
	}
	if err != nil {
		c.count(ResultStale)
		c.logger.Warn("discarding cached embedding", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	return vec, true
}

// put writes one entry. A failed write only costs a future provider call.
func (c *CachedEmbedder) put(ctx context.Context, key string, vec []float32) {
	data := encode(vec)
	var err error
	if c.cfg.TTL > 0 {
		err = c.store.SetWithTTL(ctx, key, data, c.cfg.TTL)
	} else {
		err = c.store.Set(ctx, key, data)
	}
	if err != nil {
		c.logger.Warn("embedding cache write failed", zap.String("key", key), zap.Error(err))
	}
}

// encode packs v as little-endian float32s.
func encode(v []float32) []byte {
	buf := make([]byte, 4*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(f))
	}
	return buf
}

func decode(data []byte) ([]float32, error) {
	if len(data)%4 != 0 {
		return nil, fmt.Errorf("cached embedding is %d bytes, not a float32 multiple", len(data))
	}
	vec := make([]float32, len(data)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[4*i:]))
	}
	return vec, nil
}
