package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/kailas-cloud/geodex/internal/domain"
)

const resourceQuery = `
SELECT r.id, r.uuid, r.title, r.abstract,
       r.bbox_x0, r.bbox_y0, r.bbox_x1, r.bbox_y1, r.srid,
       r.is_published, r.featured, r.popular_count, r.share_count, r.date,
       r.has_temporal_extent, r.temporal_extent_start, r.temporal_extent_end,
       r.detail_url, r.thumbnail_url, r.csw_type, r.csw_wkt_geometry, r.supplemental_information,
       r.store_type, r.typename, r.geogig_link, r.classification, r.caveat, r.provenance, r.poc_name,
       o.id, o.username, o.first_name, o.last_name, o.email, o.profile, o.organization,
       o.position, o.avatar_path, o.date_joined,
       c.identifier, c.description,
       l.name,
       s.id, s.base_url, s.method, s.srid, sc.identifier, sc.description
FROM resources r
LEFT JOIN profiles o ON o.id = r.owner_id
LEFT JOIN categories c ON c.identifier = r.category
LEFT JOIN licenses l ON l.name = r.license
LEFT JOIN remote_services s ON s.id = r.service_id
LEFT JOIN categories sc ON sc.identifier = s.category
WHERE r.kind = ? AND r.id = ?`

// Resource loads a layer, map or document with its owner, category,
// license, remote service, keywords, regions and links.
func (s *Store) Resource(ctx context.Context, kind domain.Kind, id int64) (*domain.Resource, error) {
	if !kind.IsResource() {
		return nil, fmt.Errorf("%w: %q is not a resource kind", domain.ErrUnknownKind, kind)
	}

	var (
		r                         = &domain.Resource{Kind: kind}
		date                      string
		tStart, tEnd              sql.NullString
		supplemental              sql.NullString
		layer                     domain.LayerAttrs
		ownerID                   sql.NullInt64
		ownerUsername, ownerFirst sql.NullString
		ownerLast, ownerEmail     sql.NullString
		ownerProfile, ownerOrg    sql.NullString
		ownerPosition, ownerPath  sql.NullString
		ownerJoined               sql.NullString
		catID, catDesc            sql.NullString
		license                   sql.NullString
		svcID                     sql.NullInt64
		svcURL, svcMethod         sql.NullString
		svcSRID                   sql.NullString
		svcCatID, svcCatDesc      sql.NullString
	)

	err := s.db.QueryRowContext(ctx, resourceQuery, string(kind), id).Scan(
		&r.ID, &r.UUID, &r.Title, &r.Abstract,
		&r.BBox.MinX, &r.BBox.MinY, &r.BBox.MaxX, &r.BBox.MaxY, &r.SRID,
		&r.IsPublished, &r.Featured, &r.PopularCount, &r.ShareCount, &date,
		&r.HasTemporalExtent, &tStart, &tEnd,
		&r.DetailURL, &r.ThumbnailURL, &r.CSWType, &r.CSWWKTGeometry, &supplemental,
		&layer.StoreType, &layer.TypeName, &layer.GeogigLink,
		&layer.Classification, &layer.Caveat, &layer.Provenance, &layer.POCName,
		&ownerID, &ownerUsername, &ownerFirst, &ownerLast, &ownerEmail, &ownerProfile, &ownerOrg,
		&ownerPosition, &ownerPath, &ownerJoined,
		&catID, &catDesc,
		&license,
		&svcID, &svcURL, &svcMethod, &svcSRID, &svcCatID, &svcCatDesc,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s %d: %w", kind, id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("query %s %d: %w", kind, id, err)
	}

	d, err := parseTime(sql.NullString{String: date, Valid: true})
	if err != nil {
		return nil, err
	}
	r.Date = *d
	if r.TemporalExtentStart, err = parseTime(tStart); err != nil {
		return nil, err
	}
	if r.TemporalExtentEnd, err = parseTime(tEnd); err != nil {
		return nil, err
	}
	if supplemental.Valid {
		r.SupplementalInformation = &supplemental.String
	}
	if kind == domain.KindLayer {
		r.Layer = &layer
	}

	if ownerID.Valid {
		joined, err := parseTime(ownerJoined)
		if err != nil {
			return nil, err
		}
		r.Owner = &domain.Profile{
			ID:           ownerID.Int64,
			Username:     ownerUsername.String,
			FirstName:    ownerFirst.String,
			LastName:     ownerLast.String,
			Email:        ownerEmail.String,
			Profile:      ownerProfile.String,
			Organization: ownerOrg.String,
			Position:     ownerPosition.String,
			AvatarPath:   ownerPath.String,
		}
		if joined != nil {
			r.Owner.DateJoined = *joined
		}
	}
	if catID.Valid {
		r.Category = &domain.Category{Identifier: catID.String, Description: catDesc.String}
	}
	if license.Valid {
		r.License = &domain.License{Name: license.String}
	}
	if svcID.Valid {
		r.Service = &domain.RemoteService{
			BaseURL: svcURL.String,
			Method:  svcMethod.String,
			SRID:    svcSRID.String,
		}
		if svcCatID.Valid {
			r.Service.Category = &domain.Category{Identifier: svcCatID.String, Description: svcCatDesc.String}
		}
	}

	if r.Keywords, err = s.strings(ctx,
		"SELECT keyword FROM resource_keywords WHERE kind = ? AND resource_id = ? ORDER BY position",
		kind, id); err != nil {
		return nil, err
	}
	if r.Regions, err = s.strings(ctx,
		"SELECT region FROM resource_regions WHERE kind = ? AND resource_id = ? ORDER BY position",
		kind, id); err != nil {
		return nil, err
	}
	if r.Links, err = s.links(ctx, kind, id); err != nil {
		return nil, err
	}
	return r, nil
}

// IDs returns the ids of every entity of kind in ascending order.
func (s *Store) IDs(ctx context.Context, kind domain.Kind) ([]int64, error) {
	var (
		query string
		args  []any
	)
	switch {
	case kind.IsResource():
		query, args = "SELECT id FROM resources WHERE kind = ? ORDER BY id", []any{string(kind)}
	case kind == domain.KindProfile:
		query = "SELECT id FROM profiles ORDER BY id"
	case kind == domain.KindGroup:
		query = "SELECT id FROM groups ORDER BY id"
	default:
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownKind, kind)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list %s ids: %w", kind, err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan %s id: %w", kind, err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *Store) strings(ctx context.Context, query string, kind domain.Kind, id int64) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, query, string(kind), id)
	if err != nil {
		return nil, fmt.Errorf("query %s %d: %w", kind, id, err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("scan %s %d: %w", kind, id, err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (s *Store) links(ctx context.Context, kind domain.Kind, id int64) ([]domain.Link, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT name, link_type, url FROM links WHERE kind = ? AND resource_id = ? ORDER BY position",
		string(kind), id)
	if err != nil {
		return nil, fmt.Errorf("query links %s %d: %w", kind, id, err)
	}
	defer rows.Close()

	var out []domain.Link
	for rows.Next() {
		var l domain.Link
		if err := rows.Scan(&l.Name, &l.LinkType, &l.URL); err != nil {
			return nil, fmt.Errorf("scan link %s %d: %w", kind, id, err)
		}
		out = append(out, l)
	}
	return out, rows.Err()
}
