package bleve

import (
	"context"
	"encoding/binary"
	"time"

	"github.com/kailas-cloud/geodex/internal/db"
)

// Values are stored as an 8-byte big-endian expiry in unix nanoseconds
// (zero for none) followed by the payload.
const expiryLen = 8

// Get retrieves a value by key. Expired values read as missing.
func (s *Store) Get(_ context.Context, key string) ([]byte, error) {
	raw, err := s.kv.GetInternal([]byte(key))
	if err != nil {
		return nil, &db.Error{Op: db.OpGetInternal, Err: err}
	}
	if len(raw) < expiryLen {
		return nil, db.ErrKeyNotFound
	}
	if exp := int64(binary.BigEndian.Uint64(raw[:expiryLen])); exp != 0 && time.Now().UnixNano() > exp {
		_ = s.kv.DeleteInternal([]byte(key))
		return nil, db.ErrKeyNotFound
	}
	return raw[expiryLen:], nil
}

// Set stores a value at the given key.
func (s *Store) Set(_ context.Context, key string, value []byte) error {
	return s.put(key, value, 0)
}

// SetWithTTL stores a value that expires after ttl.
func (s *Store) SetWithTTL(_ context.Context, key string, value []byte, ttl time.Duration) error {
	return s.put(key, value, time.Now().Add(ttl).UnixNano())
}

func (s *Store) put(key string, value []byte, expiry int64) error {
	buf := make([]byte, expiryLen+len(value))
	binary.BigEndian.PutUint64(buf, uint64(expiry))
	copy(buf[expiryLen:], value)
	if err := s.kv.SetInternal([]byte(key), buf); err != nil {
		return &db.Error{Op: db.OpSetInternal, Err: err}
	}
	return nil
}
