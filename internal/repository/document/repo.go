package document

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/kailas-cloud/geodex/internal/db"
	"github.com/kailas-cloud/geodex/internal/domain"
	domdoc "github.com/kailas-cloud/geodex/internal/domain/document"
	"github.com/kailas-cloud/geodex/internal/domain/schema"
)

// store is the consumer interface for documents (ISP).
type store interface {
	PutDocument(ctx context.Context, index, id string, data []byte) error
	GetDocument(ctx context.Context, index, id string) ([]byte, error)
	DeleteDocument(ctx context.Context, index, id string) error
	DocumentExists(ctx context.Context, index, id string) (bool, error)
}

// Repo writes materialized search documents to their index.
type Repo struct {
	store store
}

// New creates a document repository.
func New(s store) *Repo {
	return &Repo{store: s}
}

// Put stores the document under its index and id, replacing any previous
// version. A non-empty vector is stored as the document embedding.
func (r *Repo) Put(ctx context.Context, doc domdoc.Materialized, vector []float32) error {
	s, ok := schema.ForIndex(doc.Index)
	if !ok || s.IsAlias() {
		return fmt.Errorf("put %s/%s: %w: %q", doc.Index, doc.ID, domain.ErrUnknownKind, doc.Index)
	}

	src, err := withMirrors(s, doc.Source, vector)
	if err != nil {
		return fmt.Errorf("put %s/%s: %w", doc.Index, doc.ID, err)
	}
	data, err := json.Marshal(src)
	if err != nil {
		return fmt.Errorf("marshal document: %w", err)
	}

	if err := r.store.PutDocument(ctx, doc.Index, doc.ID, data); err != nil {
		return fmt.Errorf("put %s/%s: %w", doc.Index, doc.ID, err)
	}
	return nil
}

// Get returns a stored document without its reserved companion fields.
func (r *Repo) Get(ctx context.Context, index, id string) (domdoc.Materialized, error) {
	raw, err := r.store.GetDocument(ctx, index, id)
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return domdoc.Materialized{}, domain.ErrNotFound
		}
		return domdoc.Materialized{}, fmt.Errorf("get %s/%s: %w", index, id, err)
	}

	var src map[string]any
	if err := json.Unmarshal(raw, &src); err != nil {
		return domdoc.Materialized{}, fmt.Errorf("unmarshal document %s/%s: %w", index, id, err)
	}
	return domdoc.Materialized{
		Meta:   domdoc.Meta{ID: id, Index: index},
		Source: withoutMirrors(src),
	}, nil
}

// Delete removes a document. Returns domain.ErrNotFound when absent.
func (r *Repo) Delete(ctx context.Context, index, id string) error {
	exists, err := r.store.DocumentExists(ctx, index, id)
	if err != nil {
		return fmt.Errorf("check exists %s/%s: %w", index, id, err)
	}
	if !exists {
		return domain.ErrNotFound
	}

	if err := r.store.DeleteDocument(ctx, index, id); err != nil {
		return fmt.Errorf("delete %s/%s: %w", index, id, err)
	}
	return nil
}
