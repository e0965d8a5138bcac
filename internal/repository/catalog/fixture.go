package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/kailas-cloud/geodex/internal/domain"
)

// Fixture is a catalog snapshot in YAML form. Entities are upserted by id;
// resource children (keywords, regions, links, ratings, comments, viewers)
// replace the stored ones.
type Fixture struct {
	Categories []CategoryFixture `yaml:"categories"`
	Licenses   []string          `yaml:"licenses"`
	Services   []ServiceFixture  `yaml:"services"`
	Profiles   []ProfileFixture  `yaml:"profiles"`
	Groups     []GroupFixture    `yaml:"groups"`
	Resources  []ResourceFixture `yaml:"resources"`
}

// CategoryFixture is a topic category.
type CategoryFixture struct {
	Identifier  string `yaml:"identifier"`
	Description string `yaml:"description"`
}

// ServiceFixture is a remote OGC service.
type ServiceFixture struct {
	ID       int64  `yaml:"id"`
	BaseURL  string `yaml:"base_url"`
	Method   string `yaml:"method"`
	SRID     string `yaml:"srid"`
	Category string `yaml:"category"`
}

// ProfileFixture is a user account.
type ProfileFixture struct {
	ID           int64      `yaml:"id"`
	Username     string     `yaml:"username"`
	FirstName    string     `yaml:"first_name"`
	LastName     string     `yaml:"last_name"`
	Email        string     `yaml:"email"`
	Profile      string     `yaml:"profile"`
	Organization string     `yaml:"organization"`
	Position     string     `yaml:"position"`
	AvatarPath   string     `yaml:"avatar_path"`
	DateJoined   *time.Time `yaml:"date_joined"`
}

// GroupFixture is a group.
type GroupFixture struct {
	ID           int64      `yaml:"id"`
	Title        string     `yaml:"title"`
	Slug         string     `yaml:"slug"`
	Description  string     `yaml:"description"`
	LastModified *time.Time `yaml:"last_modified"`
}

// LinkFixture is a resource link.
type LinkFixture struct {
	Name     string `yaml:"name"`
	LinkType string `yaml:"link_type"`
	URL      string `yaml:"url"`
}

// LayerFixture holds the layer-only attributes.
type LayerFixture struct {
	StoreType      string `yaml:"store_type"`
	TypeName       string `yaml:"typename"`
	GeogigLink     string `yaml:"geogig_link"`
	Classification string `yaml:"classification"`
	Caveat         string `yaml:"caveat"`
	Provenance     string `yaml:"provenance"`
	POCName        string `yaml:"poc_name"`
}

// ResourceFixture is a layer, map or document.
type ResourceFixture struct {
	Kind                    domain.Kind   `yaml:"kind"`
	ID                      int64         `yaml:"id"`
	UUID                    string        `yaml:"uuid"`
	Title                   string        `yaml:"title"`
	Abstract                string        `yaml:"abstract"`
	BBox                    []string      `yaml:"bbox"`
	SRID                    string        `yaml:"srid"`
	Owner                   string        `yaml:"owner"`
	Category                string        `yaml:"category"`
	License                 string        `yaml:"license"`
	Keywords                []string      `yaml:"keywords"`
	Regions                 []string      `yaml:"regions"`
	IsPublished             *bool         `yaml:"is_published"`
	Featured                bool          `yaml:"featured"`
	PopularCount            int           `yaml:"popular_count"`
	ShareCount              int           `yaml:"share_count"`
	Date                    time.Time     `yaml:"date"`
	HasTemporalExtent       bool          `yaml:"has_temporal_extent"`
	TemporalExtentStart     *time.Time    `yaml:"temporal_extent_start"`
	TemporalExtentEnd       *time.Time    `yaml:"temporal_extent_end"`
	DetailURL               string        `yaml:"detail_url"`
	ThumbnailURL            string        `yaml:"thumbnail_url"`
	CSWType                 string        `yaml:"csw_type"`
	CSWWKTGeometry          string        `yaml:"csw_wkt_geometry"`
	SupplementalInformation *string       `yaml:"supplemental_information"`
	Service                 int64         `yaml:"service"`
	Links                   []LinkFixture `yaml:"links"`
	Layer                   *LayerFixture `yaml:"layer"`
	Ratings                 []float64     `yaml:"ratings"`
	Comments                []string      `yaml:"comments"`
	Viewers                 []string      `yaml:"viewers"`
	Public                  bool          `yaml:"public"`
}

// ImportStats counts the entities written by an import.
type ImportStats struct {
	Profiles  int
	Groups    int
	Resources int
}

// DecodeFixture reads a YAML fixture.
func DecodeFixture(r io.Reader) (*Fixture, error) {
	var f Fixture
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("decode fixture: %w", err)
	}
	return &f, nil
}

// Import writes a fixture in a single transaction. Resources without a
// uuid get a random one.
func (s *Store) Import(ctx context.Context, f *Fixture) (ImportStats, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return ImportStats{}, fmt.Errorf("begin import: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	for _, c := range f.Categories {
		if _, err := tx.ExecContext(ctx,
			"INSERT OR REPLACE INTO categories (identifier, description) VALUES (?, ?)",
			c.Identifier, c.Description); err != nil {
			return ImportStats{}, fmt.Errorf("import category %s: %w", c.Identifier, err)
		}
	}
	for _, name := range f.Licenses {
		if _, err := tx.ExecContext(ctx, "INSERT OR IGNORE INTO licenses (name) VALUES (?)", name); err != nil {
			return ImportStats{}, fmt.Errorf("import license %s: %w", name, err)
		}
	}
	for _, svc := range f.Services {
		if _, err := tx.ExecContext(ctx,
			"INSERT OR REPLACE INTO remote_services (id, base_url, method, srid, category) VALUES (?, ?, ?, ?, ?)",
			svc.ID, svc.BaseURL, svc.Method, svc.SRID, optString(svc.Category)); err != nil {
			return ImportStats{}, fmt.Errorf("import service %d: %w", svc.ID, err)
		}
	}

	var stats ImportStats
	usernames := map[string]int64{}
	for _, p := range f.Profiles {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO profiles (id, username, first_name, last_name, email, profile,
			                      organization, position, avatar_path, date_joined)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT (id) DO UPDATE SET
				username = excluded.username, first_name = excluded.first_name,
				last_name = excluded.last_name, email = excluded.email, profile = excluded.profile,
				organization = excluded.organization, position = excluded.position,
				avatar_path = excluded.avatar_path, date_joined = excluded.date_joined`,
			p.ID, p.Username, p.FirstName, p.LastName, p.Email, p.Profile,
			p.Organization, p.Position, p.AvatarPath, nullTime(p.DateJoined)); err != nil {
			return ImportStats{}, fmt.Errorf("import profile %s: %w", p.Username, err)
		}
		usernames[p.Username] = p.ID
		stats.Profiles++
	}

	for _, g := range f.Groups {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO groups (id, title, slug, description, last_modified)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT (id) DO UPDATE SET
				title = excluded.title, slug = excluded.slug,
				description = excluded.description, last_modified = excluded.last_modified`,
			g.ID, g.Title, g.Slug, g.Description, nullTime(g.LastModified)); err != nil {
			return ImportStats{}, fmt.Errorf("import group %s: %w", g.Slug, err)
		}
		stats.Groups++
	}

	for i := range f.Resources {
		if err := importResource(ctx, tx, &f.Resources[i], usernames); err != nil {
			return ImportStats{}, err
		}
		stats.Resources++
	}

	if err := tx.Commit(); err != nil {
		return ImportStats{}, fmt.Errorf("commit import: %w", err)
	}
	return stats, nil
}

func importResource(ctx context.Context, tx *sql.Tx, r *ResourceFixture, usernames map[string]int64) error {
	if !r.Kind.IsResource() {
		return fmt.Errorf("resource %d: %w: %q", r.ID, domain.ErrUnknownKind, r.Kind)
	}
	if len(r.BBox) != 0 && len(r.BBox) != 4 {
		return fmt.Errorf("%s %d: bbox needs 4 coordinates, got %d", r.Kind, r.ID, len(r.BBox))
	}
	bbox := make([]string, 4)
	copy(bbox, r.BBox)

	if r.UUID == "" {
		r.UUID = uuid.NewString()
	}
	if r.CSWType == "" {
		r.CSWType = "dataset"
	}
	published := r.IsPublished == nil || *r.IsPublished
	if r.Date.IsZero() {
		r.Date = time.Now().UTC()
	}

	var owner sql.NullInt64
	if r.Owner != "" {
		id, err := lookupProfile(ctx, tx, usernames, r.Owner)
		if err != nil {
			return fmt.Errorf("%s %d owner: %w", r.Kind, r.ID, err)
		}
		owner = sql.NullInt64{Int64: id, Valid: true}
	}
	var service sql.NullInt64
	if r.Service != 0 {
		service = sql.NullInt64{Int64: r.Service, Valid: true}
	}
	var layer LayerFixture
	if r.Layer != nil {
		layer = *r.Layer
	}

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM resources WHERE kind = ? AND id = ?", string(r.Kind), r.ID); err != nil {
		return fmt.Errorf("replace %s %d: %w", r.Kind, r.ID, err)
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO resources (
			kind, id, uuid, title, abstract, bbox_x0, bbox_y0, bbox_x1, bbox_y1, srid,
			owner_id, category, license, is_published, featured, popular_count, share_count, date,
			has_temporal_extent, temporal_extent_start, temporal_extent_end,
			detail_url, thumbnail_url, csw_type, csw_wkt_geometry, supplemental_information, service_id,
			store_type, typename, geogig_link, classification, caveat, provenance, poc_name
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		string(r.Kind), r.ID, r.UUID, r.Title, r.Abstract, bbox[0], bbox[1], bbox[2], bbox[3], r.SRID,
		owner, optString(r.Category), optString(r.License), published, r.Featured,
		r.PopularCount, r.ShareCount, formatTime(r.Date),
		r.HasTemporalExtent, nullTime(r.TemporalExtentStart), nullTime(r.TemporalExtentEnd),
		r.DetailURL, r.ThumbnailURL, r.CSWType, r.CSWWKTGeometry, nullString(r.SupplementalInformation), service,
		layer.StoreType, layer.TypeName, layer.GeogigLink,
		layer.Classification, layer.Caveat, layer.Provenance, layer.POCName,
	); err != nil {
		return fmt.Errorf("import %s %d: %w", r.Kind, r.ID, err)
	}

	return replaceChildren(ctx, tx, r, usernames)
}

func replaceChildren(ctx context.Context, tx *sql.Tx, r *ResourceFixture, usernames map[string]int64) error {
	kind := string(r.Kind)
	for _, table := range []string{"resource_keywords", "resource_regions", "links", "view_permissions"} {
		if _, err := tx.ExecContext(ctx,
			"DELETE FROM "+table+" WHERE kind = ? AND resource_id = ?", kind, r.ID); err != nil {
			return fmt.Errorf("clear %s of %s %d: %w", table, kind, r.ID, err)
		}
	}
	for _, table := range []string{"ratings", "comments"} {
		if _, err := tx.ExecContext(ctx,
			"DELETE FROM "+table+" WHERE kind = ? AND object_id = ?", kind, r.ID); err != nil {
			return fmt.Errorf("clear %s of %s %d: %w", table, kind, r.ID, err)
		}
	}

	for i, kw := range r.Keywords {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO resource_keywords (kind, resource_id, keyword, position) VALUES (?, ?, ?, ?)",
			kind, r.ID, kw, i); err != nil {
			return fmt.Errorf("import keyword of %s %d: %w", kind, r.ID, err)
		}
	}
	for i, region := range r.Regions {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO resource_regions (kind, resource_id, region, position) VALUES (?, ?, ?, ?)",
			kind, r.ID, region, i); err != nil {
			return fmt.Errorf("import region of %s %d: %w", kind, r.ID, err)
		}
	}
	for i, l := range r.Links {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO links (kind, resource_id, position, name, link_type, url) VALUES (?, ?, ?, ?, ?, ?)",
			kind, r.ID, i, l.Name, l.LinkType, l.URL); err != nil {
			return fmt.Errorf("import link of %s %d: %w", kind, r.ID, err)
		}
	}
	for _, v := range r.Ratings {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO ratings (kind, object_id, rating) VALUES (?, ?, ?)", kind, r.ID, v); err != nil {
			return fmt.Errorf("import rating of %s %d: %w", kind, r.ID, err)
		}
	}
	for _, body := range r.Comments {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO comments (kind, object_id, body) VALUES (?, ?, ?)", kind, r.ID, body); err != nil {
			return fmt.Errorf("import comment of %s %d: %w", kind, r.ID, err)
		}
	}
	if r.Public {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO view_permissions (kind, resource_id, profile_id) VALUES (?, ?, NULL)",
			kind, r.ID); err != nil {
			return fmt.Errorf("import public grant of %s %d: %w", kind, r.ID, err)
		}
	}
	for _, name := range r.Viewers {
		id, err := lookupProfile(ctx, tx, usernames, name)
		if err != nil {
			return fmt.Errorf("%s %d viewer: %w", kind, r.ID, err)
		}
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO view_permissions (kind, resource_id, profile_id) VALUES (?, ?, ?)",
			kind, r.ID, id); err != nil {
			return fmt.Errorf("import grant of %s %d: %w", kind, r.ID, err)
		}
	}
	return nil
}

func lookupProfile(ctx context.Context, tx *sql.Tx, cache map[string]int64, username string) (int64, error) {
	if id, ok := cache[username]; ok {
		return id, nil
	}
	var id int64
	err := tx.QueryRowContext(ctx, "SELECT id FROM profiles WHERE username = ?", username).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("profile %q: %w", username, domain.ErrNotFound)
	}
	cache[username] = id
	return id, nil
}
