package budget

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kailas-cloud/geodex/internal/db"
)

// mockStore implements the consumer interface for tests.
type mockStore struct {
	getFn        func(ctx context.Context, key string) ([]byte, error)
	setWithTTLFn func(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

func (m *mockStore) Get(ctx context.Context, key string) ([]byte, error) {
	if m.getFn != nil {
		return m.getFn(ctx, key)
	}
	return nil, db.ErrKeyNotFound
}

func (m *mockStore) SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if m.setWithTTLFn != nil {
		return m.setWithTTLFn(ctx, key, value, ttl)
	}
	return nil
}

func newStoreAt(ms *mockStore, now time.Time) *Store {
	s := New(ms, 6*time.Hour)
	s.now = func() time.Time { return now }
	return s
}

func TestSave_ExpiresAfterWindow(t *testing.T) {
	now := time.Date(2026, 3, 31, 22, 0, 0, 0, time.UTC)
	tests := []struct {
		key  string
		want time.Duration
	}{
		{"budget:openai:daily:2026-03-31", 2*time.Hour + 6*time.Hour},
		{"budget:openai:monthly:2026-03", 2*time.Hour + 6*time.Hour},
		{"budget:openai:monthly:2026-04", (30*24+2)*time.Hour + 6*time.Hour},
		{"budget:openai:daily:2026-03-30", 6 * time.Hour},
		{"budget:openai:weekly:2026-13", fallbackTTL},
		{"opaque", fallbackTTL},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			var gotTTL time.Duration
			var gotValue string
			ms := &mockStore{setWithTTLFn: func(_ context.Context, _ string, value []byte, ttl time.Duration) error {
				gotValue, gotTTL = string(value), ttl
				return nil
			}}

			require.NoError(t, newStoreAt(ms, now).Save(context.Background(), tt.key, 1500))
			assert.Equal(t, "1500", gotValue)
			assert.Equal(t, tt.want, gotTTL)
		})
	}
}

func TestSave_Error(t *testing.T) {
	ms := &mockStore{setWithTTLFn: func(context.Context, string, []byte, time.Duration) error {
		return errors.New("connection reset")
	}}

	err := New(ms, time.Hour).Save(context.Background(), "budget:openai:daily:2026-03-31", 1)

	assert.ErrorContains(t, err, "save budget budget:openai:daily:2026-03-31")
}

func TestGet(t *testing.T) {
	tests := []struct {
		name    string
		data    []byte
		err     error
		want    int64
		wantErr bool
	}{
		{name: "value", data: []byte("42"), want: 42},
		{name: "trailing newline", data: []byte("42\n"), want: 42},
		{name: "missing key", err: db.ErrKeyNotFound, want: 0},
		{name: "store error", err: errors.New("timeout"), wantErr: true},
		{name: "garbage", data: []byte("forty-two"), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ms := &mockStore{getFn: func(context.Context, string) ([]byte, error) {
				return tt.data, tt.err
			}}
			got, err := New(ms, time.Hour).Get(context.Background(), "budget:openai:daily:2026-03-31")
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
