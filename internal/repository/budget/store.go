// Package budget persists embedding token counters so budget windows
// survive restarts of the API and the CLI.
package budget

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/kailas-cloud/geodex/internal/db"
)

// store is the consumer interface for budget operations (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// fallbackTTL applies to keys whose period cannot be parsed.
const fallbackTTL = 62 * 24 * time.Hour

// Store keeps one counter per budget window. Keys look like
// budget:<provider>:daily:2026-03-31 or budget:<provider>:monthly:2026-03
// and expire grace after their window closes.
type Store struct {
	store store
	grace time.Duration
	now   func() time.Time
}

// New creates a budget store. grace keeps a counter readable after its
// window ends, covering clock skew between replicas.
func New(s store, grace time.Duration) *Store {
	return &Store{store: s, grace: grace, now: time.Now}
}

// Save stores the absolute counter value for key.
func (s *Store) Save(ctx context.Context, key string, total int64) error {
	value := []byte(strconv.FormatInt(total, 10))
	if err := s.store.SetWithTTL(ctx, key, value, s.ttl(key)); err != nil {
		return fmt.Errorf("save budget %s: %w", key, err)
	}
	return nil
}

// Get returns the counter for key, or 0 when it was never saved or expired.
func (s *Store) Get(ctx context.Context, key string) (int64, error) {
	data, err := s.store.Get(ctx, key)
	if errors.Is(err, db.ErrKeyNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("load budget %s: %w", key, err)
	}

	total, err := strconv.ParseInt(strings.TrimSpace(string(data)), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("load budget %s: malformed counter %q", key, data)
	}
	return total, nil
}

// ttl runs from now until the end of the key's window plus grace.
func (s *Store) ttl(key string) time.Duration {
	end, ok := windowEnd(key)
	if !ok {
		return fallbackTTL
	}
	ttl := end.Sub(s.now()) + s.grace
	if ttl <= 0 {
		// A late write for a closed window; keep it just long enough to be read.
		return s.grace
	}
	return ttl
}

// windowEnd parses the period suffix of key and returns when it closes (UTC).
func windowEnd(key string) (time.Time, bool) {
	i := strings.LastIndexByte(key, ':')
	if i < 0 {
		return time.Time{}, false
	}
	period, rest := key[i+1:], key[:i]

	switch {
	case strings.HasSuffix(rest, ":daily"):
		start, err := time.Parse(time.DateOnly, period)
		if err != nil {
			return time.Time{}, false
		}
		return start.AddDate(0, 0, 1), true
	case strings.HasSuffix(rest, ":monthly"):
		start, err := time.Parse("2006-01", period)
		if err != nil {
			return time.Time{}, false
		}
		return start.AddDate(0, 1, 0), true
	}
	return time.Time{}, false
}
