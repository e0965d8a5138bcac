package catalog

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/geodex/internal/domain"
	"github.com/kailas-cloud/geodex/internal/projector"
)

var _ projector.Associations = (*Store)(nil)

// CountFor returns the number of related records of an entity.
func (s *Store) CountFor(ctx context.Context, rel projector.Relation, kind domain.Kind, id int64) (int, error) {
	table, err := relationTable(rel)
	if err != nil {
		return 0, err
	}

	var n int
	err = s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM "+table+" WHERE kind = ? AND object_id = ?", string(kind), id,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count %s of %s %d: %w", rel, kind, id, err)
	}
	return n, nil
}

// AverageFor returns the mean rating of an entity, 0 when it has none.
func (s *Store) AverageFor(ctx context.Context, rel projector.Relation, kind domain.Kind, id int64) (float64, error) {
	if rel != projector.RelationRatings {
		return 0, fmt.Errorf("relation %q has no numeric value", rel)
	}

	var avg float64
	err := s.db.QueryRowContext(ctx,
		"SELECT COALESCE(AVG(rating), 0) FROM ratings WHERE kind = ? AND object_id = ?", string(kind), id,
	).Scan(&avg)
	if err != nil {
		return 0, fmt.Errorf("average %s of %s %d: %w", rel, kind, id, err)
	}
	return avg, nil
}

// ViewableCount returns how many resources of kind the profile may view:
// those it owns and those granted to it or to everyone.
func (s *Store) ViewableCount(ctx context.Context, profileID int64, kind domain.Kind) (int, error) {
	if !kind.IsResource() {
		return 0, fmt.Errorf("%w: %q is not a resource kind", domain.ErrUnknownKind, kind)
	}

	var n int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM resources r
		WHERE r.kind = ?
		  AND (r.owner_id = ? OR EXISTS (
		        SELECT 1 FROM view_permissions p
		        WHERE p.kind = r.kind AND p.resource_id = r.id
		          AND (p.profile_id = ? OR p.profile_id IS NULL)))`,
		string(kind), profileID, profileID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count viewable %s for profile %d: %w", kind, profileID, err)
	}
	return n, nil
}

func relationTable(rel projector.Relation) (string, error) {
	switch rel {
	case projector.RelationRatings:
		return "ratings", nil
	case projector.RelationComments:
		return "comments", nil
	}
	return "", fmt.Errorf("unknown relation %q", rel)
}
