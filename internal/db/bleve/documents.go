package bleve

import (
	"context"
	"encoding/json"
	"fmt"

	blevesearch "github.com/blevesearch/bleve/v2"

	"github.com/kailas-cloud/geodex/internal/db"
)

// PutDocument indexes the JSON document under id, replacing any previous version.
func (s *Store) PutDocument(_ context.Context, index, id string, data []byte) error {
	idx, err := s.concrete(index)
	if err != nil {
		return err
	}

	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("decode document: %w", err)
	}
	doc[sourceField] = string(data)

	if err := idx.Index(id, doc); err != nil {
		return &db.Error{Op: db.OpIndexDoc, Err: err}
	}
	return nil
}

// GetDocument returns the stored JSON document.
func (s *Store) GetDocument(_ context.Context, index, id string) ([]byte, error) {
	idx, err := s.concrete(index)
	if err != nil {
		return nil, err
	}

	req := blevesearch.NewSearchRequest(blevesearch.NewDocIDQuery([]string{id}))
	req.Fields = []string{sourceField}
	res, err := idx.Search(req)
	if err != nil {
		return nil, &db.Error{Op: db.OpGet, Err: err}
	}
	if len(res.Hits) == 0 {
		return nil, db.ErrKeyNotFound
	}
	src, ok := res.Hits[0].Fields[sourceField].(string)
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	return []byte(src), nil
}

// DeleteDocument removes a document. Missing documents are not an error.
func (s *Store) DeleteDocument(_ context.Context, index, id string) error {
	idx, err := s.concrete(index)
	if err != nil {
		return err
	}
	if err := idx.Delete(id); err != nil {
		return &db.Error{Op: db.OpDeleteDoc, Err: err}
	}
	return nil
}

// DocumentExists checks whether a document is indexed.
func (s *Store) DocumentExists(_ context.Context, index, id string) (bool, error) {
	idx, err := s.concrete(index)
	if err != nil {
		return false, err
	}

	req := blevesearch.NewSearchRequestOptions(blevesearch.NewDocIDQuery([]string{id}), 1, 0, false)
	res, err := idx.Search(req)
	if err != nil {
		return false, &db.Error{Op: db.OpExists, Err: err}
	}
	return res.Total > 0, nil
}
