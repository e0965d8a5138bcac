// Package indexing builds search documents from catalog entities and writes
// them to their index.
//
// Index writes are best effort: a failed write is logged and the caller
// still receives the materialized document.
package indexing

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/geodex/internal/domain"
	domdoc "github.com/kailas-cloud/geodex/internal/domain/document"
	"github.com/kailas-cloud/geodex/internal/domain/geo"
	"github.com/kailas-cloud/geodex/internal/domain/schema"
	"github.com/kailas-cloud/geodex/internal/projector"
)

// Service indexes layers, maps, documents, profiles and groups.
type Service struct {
	proj     *projector.Projector
	writer   Writer
	catalog  Catalog
	perms    Permissions
	avatars  Avatars
	embed    domain.Embedder
	recorder Recorder
	logger   *zap.Logger
}

// Option configures the Service.
type Option func(*Service)

// WithEmbedder stores an embedding of title and abstract with resource documents.
func WithEmbedder(e domain.Embedder) Option {
	return func(s *Service) { s.embed = e }
}

// WithRecorder observes every index write.
func WithRecorder(r Recorder) Option {
	return func(s *Service) { s.recorder = r }
}

// WithLogger sets the logger used for failed writes and degraded fields.
func WithLogger(l *zap.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// New creates an indexing service.
func New(proj *projector.Projector, w Writer, c Catalog, p Permissions, a Avatars, opts ...Option) *Service {
	s := &Service{
		proj:    proj,
		writer:  w,
		catalog: c,
		perms:   p,
		avatars: a,
		logger:  zap.NewNop(),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// errNotStored wraps a write failure that put already logged. Internal
// index paths return it so bulk runs can count it; the exported methods
// drop it and hand back the document.
var errNotStored = errors.New("document not stored")

func stored(m domdoc.Materialized, err error) (domdoc.Materialized, error) {
	if errors.Is(err, errNotStored) {
		return m, nil
	}
	return m, err
}

// IndexLayer indexes a layer.
func (s *Service) IndexLayer(ctx context.Context, r *domain.Resource) (domdoc.Materialized, error) {
	return stored(s.indexResource(ctx, domain.KindLayer, r))
}

// IndexMap indexes a map.
func (s *Service) IndexMap(ctx context.Context, r *domain.Resource) (domdoc.Materialized, error) {
	return stored(s.indexResource(ctx, domain.KindMap, r))
}

// IndexDocument indexes a document.
func (s *Service) IndexDocument(ctx context.Context, r *domain.Resource) (domdoc.Materialized, error) {
	return stored(s.indexResource(ctx, domain.KindDocument, r))
}

func (s *Service) indexResource(ctx context.Context, kind domain.Kind, r *domain.Resource) (domdoc.Materialized, error) {
	if r == nil {
		return domdoc.Materialized{}, fmt.Errorf("index %s: nil resource", kind)
	}
	if r.Kind != kind {
		return domdoc.Materialized{}, fmt.Errorf("index %s %d: %w: resource is a %s", kind, r.ID, domain.ErrUnknownKind, r.Kind)
	}

	doc := s.resourceDocument(ctx, r)
	m, err := materialize(kind, r.ID, doc)
	if err != nil {
		return domdoc.Materialized{}, err
	}

	return m, s.put(ctx, kind, m, s.vector(ctx, r), r.Title, doc.BBox)
}

func (s *Service) resourceDocument(ctx context.Context, r *domain.Resource) domdoc.Resource {
	doc := domdoc.Resource{
		Kind: r.Kind,
		Base: domdoc.Base{
			ID:                      r.ID,
			Abstract:                r.Abstract,
			CategoryDescription:     projector.CategoryDescription(r),
			CSWType:                 r.CSWType,
			CSWWKTGeometry:          r.CSWWKTGeometry,
			DetailURL:               r.DetailURL,
			OwnerUsername:           projector.OwnerUsername(r),
			PopularCount:            r.PopularCount,
			ShareCount:              r.ShareCount,
			Rating:                  s.proj.Rating(ctx, r),
			SRID:                    r.SRID,
			SupplementalInformation: projector.SupplementalInformation(r),
			ThumbnailURL:            r.ThumbnailURL,
			UUID:                    r.UUID,
			Title:                   r.Title,
			Date:                    timePtr(r.Date),
			Type:                    domdoc.TypeFor(r.Kind),
			TitleSortable:           projector.TitleSortable(r.Title),
			Category:                projector.Category(r),
			BBox:                    s.proj.BBox(r),
			TemporalExtentStart:     r.TemporalExtentStart,
			TemporalExtentEnd:       r.TemporalExtentEnd,
			Keywords:                r.Keywords,
			Regions:                 r.Regions,
			NumRatings:              s.proj.NumRatings(ctx, r),
			NumComments:             s.proj.NumComments(ctx, r),
			License:                 projector.License(r),
		},
	}
	if r.Kind == domain.KindLayer {
		doc.LayerExtension = s.layerExtension(r)
	}
	return doc
}

func (s *Service) layerExtension(r *domain.Resource) *domdoc.LayerExtension {
	attrs := domain.LayerAttrs{}
	if r.Layer != nil {
		attrs = *r.Layer
	}

	ext := &domdoc.LayerExtension{
		IsPublished:    r.IsPublished,
		Featured:       r.Featured,
		Subtype:        projector.Subtype(r),
		TypeName:       attrs.TypeName,
		GeogigLink:     attrs.GeogigLink,
		HasTime:        projector.HasTime(r),
		References:     projector.References(r),
		SourceHost:     projector.SourceHost(r),
		Classification: attrs.Classification,
		Caveat:         attrs.Caveat,
		Provenance:     attrs.Provenance,
		POCName:        attrs.POCName,
	}

	first, err := projector.OwnerFirstName(r)
	if err != nil {
		s.logger.Warn("layer owner names omitted", zap.Int64("id", r.ID), zap.Error(err))
		return ext
	}
	last, err := projector.OwnerLastName(r)
	if err != nil {
		s.logger.Warn("layer owner names omitted", zap.Int64("id", r.ID), zap.Error(err))
		return ext
	}
	ext.OwnerFirstName = first
	ext.OwnerLastName = last
	return ext
}

// vector embeds title and abstract; nil when no embedder is set or the
// provider fails.
func (s *Service) vector(ctx context.Context, r *domain.Resource) []float32 {
	if s.embed == nil {
		return nil
	}
	text := r.Title
	if r.Abstract != "" {
		text += "\n" + r.Abstract
	}
	res, err := s.embed.Embed(ctx, text)
	if err != nil {
		s.logger.Warn("document stored without embedding",
			zap.String("kind", string(r.Kind)),
			zap.Int64("id", r.ID),
			zap.Error(err),
		)
		return nil
	}
	return res.Embedding
}

// IndexProfile indexes a profile with its viewable resource counts and avatar.
func (s *Service) IndexProfile(ctx context.Context, p *domain.Profile) (domdoc.Materialized, error) {
	return stored(s.indexProfile(ctx, p))
}

func (s *Service) indexProfile(ctx context.Context, p *domain.Profile) (domdoc.Materialized, error) {
	if p == nil {
		return domdoc.Materialized{}, errors.New("index profile: nil profile")
	}

	doc := domdoc.Profile{
		ID:               p.ID,
		Username:         p.Username,
		FirstName:        p.FirstName,
		LastName:         p.LastName,
		Profile:          p.Profile,
		Organization:     p.Organization,
		Position:         p.Position,
		Type:             domdoc.TypeUser,
		Avatar:           s.avatars.URL(p),
		LayersCount:      s.viewable(ctx, p.ID, domain.KindLayer),
		MapsCount:        s.viewable(ctx, p.ID, domain.KindMap),
		DocumentsCount:   s.viewable(ctx, p.ID, domain.KindDocument),
		ProfileDetailURL: ProfileURL(p.Username),
		DateJoined:       timePtr(p.DateJoined),
	}

	m, err := materialize(domain.KindProfile, p.ID, doc)
	if err != nil {
		return domdoc.Materialized{}, err
	}
	return m, s.put(ctx, domain.KindProfile, m, nil, p.Username, nil)
}

func (s *Service) viewable(ctx context.Context, profileID int64, kind domain.Kind) int {
	n, err := s.perms.ViewableCount(ctx, profileID, kind)
	if err != nil {
		s.logger.Warn("viewable count unavailable",
			zap.Int64("profile_id", profileID),
			zap.String("kind", string(kind)),
			zap.Error(err),
		)
		return 0
	}
	return n
}

// IndexGroup indexes a group.
func (s *Service) IndexGroup(ctx context.Context, g *domain.Group) (domdoc.Materialized, error) {
	return stored(s.indexGroup(ctx, g))
}

func (s *Service) indexGroup(ctx context.Context, g *domain.Group) (domdoc.Materialized, error) {
	if g == nil {
		return domdoc.Materialized{}, errors.New("index group: nil group")
	}

	doc := domdoc.Group{
		ID:            g.ID,
		Title:         g.Title,
		Slug:          g.Slug,
		TitleSortable: projector.TitleSortable(g.Title),
		Description:   g.Description,
		Type:          domdoc.TypeGroup,
		DetailURL:     GroupURL(g.Slug),
		LastModified:  timePtr(g.LastModified),
	}

	m, err := materialize(domain.KindGroup, g.ID, doc)
	if err != nil {
		return domdoc.Materialized{}, err
	}
	return m, s.put(ctx, domain.KindGroup, m, nil, g.Title, nil)
}

// Reindex loads the entity from the catalog and indexes it.
func (s *Service) Reindex(ctx context.Context, kind domain.Kind, id int64) (domdoc.Materialized, error) {
	return stored(s.reindex(ctx, kind, id))
}

func (s *Service) reindex(ctx context.Context, kind domain.Kind, id int64) (domdoc.Materialized, error) {
	switch kind {
	case domain.KindLayer, domain.KindMap, domain.KindDocument:
		r, err := s.catalog.Resource(ctx, kind, id)
		if err != nil {
			return domdoc.Materialized{}, fmt.Errorf("load %s %d: %w", kind, id, err)
		}
		return s.indexResource(ctx, kind, r)
	case domain.KindProfile:
		p, err := s.catalog.Profile(ctx, id)
		if err != nil {
			return domdoc.Materialized{}, fmt.Errorf("load profile %d: %w", id, err)
		}
		return s.indexProfile(ctx, p)
	case domain.KindGroup:
		g, err := s.catalog.Group(ctx, id)
		if err != nil {
			return domdoc.Materialized{}, fmt.Errorf("load group %d: %w", id, err)
		}
		return s.indexGroup(ctx, g)
	}
	return domdoc.Materialized{}, fmt.Errorf("reindex: %w: %q", domain.ErrUnknownKind, kind)
}

// Delete removes the document of an entity from its index.
func (s *Service) Delete(ctx context.Context, kind domain.Kind, id int64) error {
	sch, err := schema.ForKind(kind)
	if err != nil {
		return fmt.Errorf("delete: %w", err)
	}
	if err := s.writer.Delete(ctx, sch.Index, strconv.FormatInt(id, 10)); err != nil {
		return fmt.Errorf("delete %s %d: %w", kind, id, err)
	}
	return nil
}

// put writes the document and logs a failure. The failure comes back
// wrapped in errNotStored.
func (s *Service) put(
	ctx context.Context, kind domain.Kind, m domdoc.Materialized,
	vector []float32, title string, bbox *geo.Envelope,
) error {
	err := s.writer.Put(ctx, m, vector)
	if s.recorder != nil {
		s.recorder.IndexOperation(string(kind), err)
	}
	if err == nil {
		return nil
	}

	bboxValue := "None"
	if bbox != nil {
		bboxValue = bbox.String()
	}
	s.logger.Error(
		fmt.Sprintf("Error indexing %s: %s [id: %s]; bbox: %s", kind, title, m.ID, bboxValue),
		zap.String("index", m.Index),
		zap.Error(err),
	)
	return fmt.Errorf("%w: %s %s: %w", errNotStored, kind, m.ID, err)
}

func materialize(kind domain.Kind, id int64, doc any) (domdoc.Materialized, error) {
	sch, err := schema.ForKind(kind)
	if err != nil {
		return domdoc.Materialized{}, err
	}
	m, err := domdoc.Materialize(sch.Index, id, doc)
	if err != nil {
		return domdoc.Materialized{}, fmt.Errorf("materialize %s: %w", kind, err)
	}
	return m, nil
}

// ProfileURL returns the profile page address.
func ProfileURL(username string) string {
	return "/people/profile/" + username + "/"
}

// GroupURL returns the group page address.
func GroupURL(slug string) string {
	return "/groups/group/" + slug
}

func timePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
