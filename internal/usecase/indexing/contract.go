package indexing

import (
	"context"

	"github.com/kailas-cloud/geodex/internal/domain"
	domdoc "github.com/kailas-cloud/geodex/internal/domain/document"
)

// Writer persists materialized documents.
type Writer interface {
	Put(ctx context.Context, doc domdoc.Materialized, vector []float32) error
	Delete(ctx context.Context, index, id string) error
}

// Catalog loads source entities by id.
type Catalog interface {
	Resource(ctx context.Context, kind domain.Kind, id int64) (*domain.Resource, error)
	Profile(ctx context.Context, id int64) (*domain.Profile, error)
	Group(ctx context.Context, id int64) (*domain.Group, error)
}

// Permissions counts the resources a profile is allowed to view.
type Permissions interface {
	ViewableCount(ctx context.Context, profileID int64, kind domain.Kind) (int, error)
}

// Avatars resolves the avatar image of a profile.
type Avatars interface {
	URL(p *domain.Profile) string
}

// Recorder observes index writes.
type Recorder interface {
	IndexOperation(kind string, err error)
}
