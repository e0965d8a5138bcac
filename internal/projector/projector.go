// Package projector derives search document fields from catalog entities.
//
// Every projector either returns a value or an explicit absent result (a nil
// pointer or zero value). Lookups that fail degrade to the absent or zero
// value; only OwnerFirstName and OwnerLastName report an error.
package projector

import (
	"context"
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/geodex/internal/domain"
	"github.com/kailas-cloud/geodex/internal/domain/document"
	"github.com/kailas-cloud/geodex/internal/domain/geo"
)

// Relation names an association of a catalog entity.
type Relation string

// Associations the projectors aggregate.
const (
	RelationRatings  Relation = "ratings"
	RelationComments Relation = "comments"
)

// Associations looks up related records of an entity keyed by (kind, id).
type Associations interface {
	CountFor(ctx context.Context, rel Relation, kind domain.Kind, id int64) (int, error)
	AverageFor(ctx context.Context, rel Relation, kind domain.Kind, id int64) (float64, error)
}

// Recorder is notified when a projection falls back after a failed lookup.
type Recorder interface {
	ProjectionDegraded(field string)
}

// Projector holds the collaborators of the projections that need I/O.
type Projector struct {
	assoc    Associations
	recorder Recorder
	logger   *zap.Logger
}

// New creates a Projector. recorder may be nil.
func New(assoc Associations, recorder Recorder, logger *zap.Logger) *Projector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Projector{assoc: assoc, recorder: recorder, logger: logger}
}

func (p *Projector) degraded(field string, err error, kind domain.Kind, id int64) {
	p.logger.Debug("projection degraded",
		zap.String("field", field),
		zap.String("kind", string(kind)),
		zap.Int64("id", id),
		zap.Error(err),
	)
	if p.recorder != nil {
		p.recorder.ProjectionDegraded(field)
	}
}

// BBox returns the resource envelope in EPSG:4326, or nil when the box is
// incomplete, unparsable, not reprojectable or degenerate.
func (p *Projector) BBox(r *domain.Resource) *geo.Envelope {
	if !r.BBox.Complete() {
		return nil
	}

	coords := make([]float64, 4)
	for i, s := range []string{r.BBox.MinX, r.BBox.MinY, r.BBox.MaxX, r.BBox.MaxY} {
		v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return nil
		}
		coords[i] = v
	}

	srid := SourceSRID(r)
	code := geo.WGS84
	if srid != "" {
		c, err := geo.ParseSRID(srid)
		if err != nil {
			p.reprojectionFailed(r, srid, err)
			return nil
		}
		code = c
	}

	out, err := geo.ToWGS84(code, coords[0], coords[1], coords[2], coords[3])
	if err != nil {
		p.reprojectionFailed(r, srid, err)
		return nil
	}
	for _, v := range out {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil
		}
	}

	env, err := geo.NewEnvelope(out[0], out[1], out[2], out[3])
	if err != nil {
		return nil
	}
	return &env
}

func (p *Projector) reprojectionFailed(r *domain.Resource, srid string, err error) {
	p.logger.Warn("bbox reprojection failed",
		zap.String("kind", string(r.Kind)),
		zap.Int64("id", r.ID),
		zap.String("srid", srid),
		zap.Stringer("bbox", r.BBox),
		zap.Error(fmt.Errorf("%w: %w", domain.ErrReprojection, err)),
	)
	if p.recorder != nil {
		p.recorder.ProjectionDegraded("bbox")
	}
}

// SourceSRID returns the reference system of the raw bbox: the remote
// service SRID for remote-store layers whose service declares one, else the
// resource SRID.
func SourceSRID(r *domain.Resource) string {
	if r.StoreType() == domain.StoreTypeRemote && r.Service != nil && r.Service.SRID != "" {
		return r.Service.SRID
	}
	return r.SRID
}

// Rating returns the average rating, 0 when there are none or the lookup fails.
func (p *Projector) Rating(ctx context.Context, r *domain.Resource) float64 {
	avg, err := p.assoc.AverageFor(ctx, RelationRatings, r.Kind, r.ID)
	if err != nil {
		p.degraded("rating", err, r.Kind, r.ID)
		return 0
	}
	return avg
}

// NumRatings returns the number of ratings, 0 when the lookup fails.
func (p *Projector) NumRatings(ctx context.Context, r *domain.Resource) int {
	return p.count(ctx, "num_ratings", RelationRatings, r)
}

// NumComments returns the number of comments, 0 when the lookup fails.
func (p *Projector) NumComments(ctx context.Context, r *domain.Resource) int {
	return p.count(ctx, "num_comments", RelationComments, r)
}

func (p *Projector) count(ctx context.Context, field string, rel Relation, r *domain.Resource) int {
	n, err := p.assoc.CountFor(ctx, rel, r.Kind, r.ID)
	if err != nil {
		p.degraded(field, err, r.Kind, r.ID)
		return 0
	}
	return n
}

// Category returns the resource category identifier, falling back to the
// remote service category.
func Category(r *domain.Resource) *string {
	if r.Category != nil {
		return &r.Category.Identifier
	}
	if r.Service != nil && r.Service.Category != nil {
		return &r.Service.Category.Identifier
	}
	return nil
}

// CategoryDescription returns the resource category description. The
// remote service category is not consulted.
func CategoryDescription(r *domain.Resource) *string {
	if r.Category == nil {
		return nil
	}
	return &r.Category.Description
}

// OwnerUsername returns the owner's username.
func OwnerUsername(r *domain.Resource) *string {
	if r.Owner == nil {
		return nil
	}
	return &r.Owner.Username
}

// OwnerFirstName returns the owner's first name, nil when empty.
func OwnerFirstName(r *domain.Resource) (*string, error) {
	if r.Owner == nil {
		return nil, fmt.Errorf("owner first name of %s %d: %w", r.Kind, r.ID, domain.ErrNoOwner)
	}
	return nonEmpty(r.Owner.FirstName), nil
}

// OwnerLastName returns the owner's last name, nil when empty.
func OwnerLastName(r *domain.Resource) (*string, error) {
	if r.Owner == nil {
		return nil, fmt.Errorf("owner last name of %s %d: %w", r.Kind, r.ID, domain.ErrNoOwner)
	}
	return nonEmpty(r.Owner.LastName), nil
}

// SourceHost returns host[:port] of the remote service for indexed services.
func SourceHost(r *domain.Resource) *string {
	if r.Service == nil || r.Service.Method != domain.ServiceMethodIndexed {
		return nil
	}
	u, err := url.Parse(r.Service.BaseURL)
	if err != nil || u.Host == "" {
		return nil
	}
	return &u.Host
}

// Subtypes by layer store type.
const (
	SubtypeVector = "vector"
	SubtypeRaster = "raster"
	SubtypeRemote = "remote"
)

// Subtype maps the layer store type to vector, raster or remote.
func Subtype(r *domain.Resource) *string {
	var s string
	switch r.StoreType() {
	case domain.StoreTypeData:
		s = SubtypeVector
	case domain.StoreTypeCoverage:
		s = SubtypeRaster
	case domain.StoreTypeRemote:
		s = SubtypeRemote
	default:
		return nil
	}
	return &s
}

// HasTime reports whether either temporal bound is set.
func HasTime(r *domain.Resource) bool {
	if !r.HasTemporalExtent {
		return false
	}
	return r.TemporalExtentStart != nil || r.TemporalExtentEnd != nil
}

// License returns the license name.
func License(r *domain.Resource) *string {
	if r.License == nil {
		return nil
	}
	return nonEmpty(r.License.Name)
}

// References lists the OGC service endpoints of the resource.
func References(r *domain.Resource) []document.Reference {
	links := r.OWSLinks()
	if len(links) == 0 {
		return nil
	}
	refs := make([]document.Reference, 0, len(links))
	for _, l := range links {
		refs = append(refs, document.Reference{Name: l.Name, Scheme: l.LinkType, URL: l.URL})
	}
	return refs
}

// TitleSortable returns the lower-cased title.
func TitleSortable(title string) string {
	return strings.ToLower(title)
}

// SupplementalInformation returns the value, or "None" when it was never set.
func SupplementalInformation(r *domain.Resource) string {
	if r.SupplementalInformation == nil {
		return "None"
	}
	return *r.SupplementalInformation
}

func nonEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
