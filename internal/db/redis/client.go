package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/geodex/internal/db"
)

// Compile-time check: Store implements db.Store.
var _ db.Store = (*Store)(nil)

// Config holds connection parameters for a Redis store.
type Config struct {
	Addrs    []string
	Username string
	Password string
	DB       int
	// KeyPrefix namespaces every key the store writes, e.g. "geodex:".
	KeyPrefix string
}

// Store implements db.Store via rueidis for Redis 8+ (Query Engine and JSON).
// Documents live at <prefix><index>:<id>.
type Store struct {
	client    rueidis.Client
	keyPrefix string
}

// NewStore creates a Redis store via rueidis.
func NewStore(cfg Config) (*Store, error) {
	if len(cfg.Addrs) == 0 {
		return nil, errors.New("redis: at least one address is required")
	}

	client, err := rueidis.NewClient(rueidis.ClientOption{
		InitAddress: cfg.Addrs,
		Username:    cfg.Username,
		Password:    cfg.Password,
		SelectDB:    cfg.DB,
		// Search results are read as RESP2 arrays; client-side caching needs RESP3.
		DisableCache: true,
		AlwaysRESP2:  true,
	})
	if err != nil {
		return nil, fmt.Errorf("redis: connect %v: %w", cfg.Addrs, err)
	}

	return &Store{client: client, keyPrefix: cfg.KeyPrefix}, nil
}

// NewStoreForTest creates a Store with the provided rueidis client (test-only).
func NewStoreForTest(c rueidis.Client, keyPrefix string) *Store {
	return &Store{client: c, keyPrefix: keyPrefix}
}

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.do(ctx, s.b().Ping().Build()).Error(); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// Close shuts down the client.
func (s *Store) Close() {
	s.client.Close()
}

// Readiness polling backs off from readyMinDelay up to readyMaxDelay.
const (
	readyMinDelay = 50 * time.Millisecond
	readyMaxDelay = time.Second
)

// WaitForReady pings until the server answers or timeout expires. The first
// ping is immediate; later ones back off exponentially.
func (s *Store) WaitForReady(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	delay := readyMinDelay
	timer := time.NewTimer(0)
	defer timer.Stop()

	var lastErr error
	for {
		select {
		case <-ctx.Done():
			if lastErr != nil {
				return fmt.Errorf("redis not ready after %s: %w", timeout, lastErr)
			}
			return fmt.Errorf("redis not ready after %s: %w", timeout, ctx.Err())
		case <-timer.C:
			if lastErr = s.Ping(ctx); lastErr == nil {
				return nil
			}
			timer.Reset(delay)
			delay = min(2*delay, readyMaxDelay)
		}
	}
}

func (s *Store) docKey(index, id string) string {
	return s.keyPrefix + index + ":" + id
}

func (s *Store) indexPrefix(index string) string {
	return s.keyPrefix + index + ":"
}

// splitKey recovers index and id from a document key.
func (s *Store) splitKey(key string) (index, id string) {
	rest := strings.TrimPrefix(key, s.keyPrefix)
	i := strings.LastIndex(rest, ":")
	if i < 0 {
		return "", rest
	}
	return rest[:i], rest[i+1:]
}

func (s *Store) do(ctx context.Context, cmd rueidis.Completed) rueidis.RedisResult {
	return s.client.Do(ctx, cmd)
}

func (s *Store) b() rueidis.Builder {
	return s.client.B()
}

// isRedisErr reports whether err is a Redis server error whose message
// contains substr, ignoring case.
func isRedisErr(err error, substr string) bool {
	re, ok := rueidis.IsRedisErr(err)
	if !ok {
		return false
	}
	return strings.Contains(strings.ToLower(re.Error()), strings.ToLower(substr))
}
