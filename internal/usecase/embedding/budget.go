package embedding

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/geodex/internal/domain"
)

// BudgetAction defines behavior when token budget is exceeded.
type BudgetAction string

const (
	// BudgetActionWarn logs a warning but allows the request.
	BudgetActionWarn BudgetAction = "warn"
	// BudgetActionReject blocks the request.
	BudgetActionReject BudgetAction = "reject"
)

// BudgetStore is the persistence interface for budget counters.
// Save stores the absolute counter value, so repeating it is harmless.
type BudgetStore interface {
	Save(ctx context.Context, key string, total int64) error
	Get(ctx context.Context, key string) (int64, error)
}

// window is one budget period: a day or a calendar month.
type window struct {
	name    string // "daily" or "monthly"; part of the store key
	layout  string
	startOf func(time.Time) time.Time
	limit   int64
	used    int64
	start   time.Time
}

func (w *window) roll(now time.Time) {
	if s := w.startOf(now); s.After(w.start) {
		w.used = 0
		w.start = s
	}
}

func (w *window) key(provider string) string {
	return fmt.Sprintf("budget:%s:%s:%s", provider, w.name, w.start.Format(w.layout))
}

// exhausted reports whether no more than reserve tokens are left.
func (w *window) exhausted(reserve int64) bool {
	return w.limit > 0 && w.used >= w.limit-reserve
}

func (w *window) usage() domain.TokenUsage {
	u := domain.TokenUsage{Limit: w.limit, Used: w.used, Remaining: -1}
	if w.limit > 0 {
		u.Remaining = max(w.limit-w.used, 0)
	}
	return u
}

// BudgetTracker counts embedding tokens against daily and monthly limits.
// Check is in-memory only; Record writes the running totals behind to the
// store when one is attached.
//
// A query reserve keeps the last tokens of each window for search queries:
// document enrichment stops once it would dip into the reserve, whatever
// the action, so a bulk reindex cannot starve semantic search.
type BudgetTracker struct {
	mu       sync.Mutex
	provider string
	action   BudgetAction
	reserve  int64
	day      window
	month    window
	now      func() time.Time
	store    BudgetStore
	logger   *zap.Logger
}

// NewBudgetTracker creates a budget tracker. A zero limit disables that window.
func NewBudgetTracker(
	provider string, dailyLimit, monthlyLimit int64,
	action BudgetAction, logger *zap.Logger,
) *BudgetTracker {
	b := &BudgetTracker{
		provider: provider,
		action:   action,
		day:      window{name: "daily", layout: "2006-01-02", startOf: startOfDay, limit: dailyLimit},
		month:    window{name: "monthly", layout: "2006-01", startOf: startOfMonth, limit: monthlyLimit},
		now:      time.Now,
		logger:   logger,
	}
	now := b.now().UTC()
	b.day.start = startOfDay(now)
	b.month.start = startOfMonth(now)
	return b
}

// WithQueryReserve keeps tokens of every window for search queries.
func (b *BudgetTracker) WithQueryReserve(tokens int64) *BudgetTracker {
	b.reserve = tokens
	return b
}

// WithStore attaches a persistence store and loads the current counters.
func (b *BudgetTracker) WithStore(ctx context.Context, store BudgetStore) *BudgetTracker {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.store = store
	b.rollLocked()
	for _, w := range []*window{&b.day, &b.month} {
		key := w.key(b.provider)
		val, err := store.Get(ctx, key)
		if err != nil {
			b.logger.Warn("Failed to load budget from store", zap.String("key", key), zap.Error(err))
			continue
		}
		w.used = val
	}

	b.logger.Info("Budget loaded from store",
		zap.String("provider", b.provider),
		zap.Int64("daily_used", b.day.used),
		zap.Int64("monthly_used", b.month.used),
	)
	return b
}

// Check verifies the budget allows an embedding for purpose.
func (b *BudgetTracker) Check(_ context.Context, purpose domain.Purpose) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.rollLocked()

	if purpose == domain.PurposeDocument && b.reserve > 0 &&
		(b.day.exhausted(b.reserve) || b.month.exhausted(b.reserve)) {
		return fmt.Errorf("%w: remaining tokens are reserved for queries", domain.ErrEmbeddingQuotaExceeded)
	}

	if !b.day.exhausted(0) && !b.month.exhausted(0) {
		return nil
	}
	if b.action == BudgetActionReject {
		return domain.ErrEmbeddingQuotaExceeded
	}

	b.logger.Warn("Token budget exceeded",
		zap.String("provider", b.provider),
		zap.String("purpose", string(purpose)),
		zap.Int64("daily_used", b.day.used),
		zap.Int64("daily_limit", b.day.limit),
		zap.Int64("monthly_used", b.month.used),
		zap.Int64("monthly_limit", b.month.limit),
	)
	return nil
}

// Record adds consumed tokens to both windows and persists the totals.
func (b *BudgetTracker) Record(tokens int64) {
	b.mu.Lock()
	b.rollLocked()
	b.day.used += tokens
	b.month.used += tokens
	totals := map[string]int64{
		b.day.key(b.provider):   b.day.used,
		b.month.key(b.provider): b.month.used,
	}
	store := b.store
	b.mu.Unlock()

	if store == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	for key, total := range totals {
		if err := store.Save(ctx, key, total); err != nil {
			b.logger.Warn("Failed to persist budget", zap.String("key", key), zap.Error(err))
		}
	}
}

// Daily returns today's token usage.
func (b *BudgetTracker) Daily() domain.TokenUsage {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.rollLocked()
	return b.day.usage()
}

// Monthly returns this month's token usage.
func (b *BudgetTracker) Monthly() domain.TokenUsage {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.rollLocked()
	return b.month.usage()
}

func (b *BudgetTracker) rollLocked() {
	now := b.now().UTC()
	b.day.roll(now)
	b.month.roll(now)
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func startOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}
