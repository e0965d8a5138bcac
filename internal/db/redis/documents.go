package redis

import (
	"context"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/geodex/internal/db"
)

// PutDocument stores the JSON document at the root path, replacing any previous version.
func (s *Store) PutDocument(ctx context.Context, index, id string, data []byte) error {
	cmd := s.b().Arbitrary("JSON.SET").Keys(s.docKey(index, id)).Args("$", string(data)).Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		return &db.Error{Op: db.OpJSONSet, Err: err}
	}
	return nil
}

// GetDocument returns the stored JSON document.
func (s *Store) GetDocument(ctx context.Context, index, id string) ([]byte, error) {
	cmd := s.b().Arbitrary("JSON.GET").Keys(s.docKey(index, id)).Build()
	raw, err := s.do(ctx, cmd).ToString()
	if err != nil {
		if rueidis.IsRedisNil(err) {
			return nil, db.ErrKeyNotFound
		}
		return nil, &db.Error{Op: db.OpJSONGet, Err: err}
	}
	if raw == "" {
		return nil, db.ErrKeyNotFound
	}
	return []byte(raw), nil
}

// DeleteDocument removes a document. Missing documents are not an error.
func (s *Store) DeleteDocument(ctx context.Context, index, id string) error {
	cmd := s.b().Del().Key(s.docKey(index, id)).Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		return &db.Error{Op: db.OpDel, Err: err}
	}
	return nil
}

// DocumentExists checks whether a document is stored.
func (s *Store) DocumentExists(ctx context.Context, index, id string) (bool, error) {
	cmd := s.b().Exists().Key(s.docKey(index, id)).Build()
	n, err := s.do(ctx, cmd).AsInt64()
	if err != nil {
		return false, &db.Error{Op: db.OpExists, Err: err}
	}
	return n > 0, nil
}
