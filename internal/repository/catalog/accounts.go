package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/kailas-cloud/geodex/internal/domain"
)

// Profile loads a user account.
func (s *Store) Profile(ctx context.Context, id int64) (*domain.Profile, error) {
	p := &domain.Profile{}
	var joined sql.NullString
	err := s.db.QueryRowContext(ctx, `
		SELECT id, username, first_name, last_name, email, profile, organization,
		       position, avatar_path, date_joined
		FROM profiles WHERE id = ?`, id).Scan(
		&p.ID, &p.Username, &p.FirstName, &p.LastName, &p.Email, &p.Profile, &p.Organization,
		&p.Position, &p.AvatarPath, &joined,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("profile %d: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("query profile %d: %w", id, err)
	}

	t, err := parseTime(joined)
	if err != nil {
		return nil, err
	}
	if t != nil {
		p.DateJoined = *t
	}
	return p, nil
}

// Group loads a group.
func (s *Store) Group(ctx context.Context, id int64) (*domain.Group, error) {
	g := &domain.Group{}
	var modified sql.NullString
	err := s.db.QueryRowContext(ctx,
		"SELECT id, title, slug, description, last_modified FROM groups WHERE id = ?", id,
	).Scan(&g.ID, &g.Title, &g.Slug, &g.Description, &modified)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("group %d: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("query group %d: %w", id, err)
	}

	t, err := parseTime(modified)
	if err != nil {
		return nil, err
	}
	if t != nil {
		g.LastModified = *t
	}
	return g, nil
}
