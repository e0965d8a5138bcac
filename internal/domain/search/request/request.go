package request

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/kailas-cloud/geodex/internal/domain"
	"github.com/kailas-cloud/geodex/internal/domain/geo"
	"github.com/kailas-cloud/geodex/internal/domain/schema"
	"github.com/kailas-cloud/geodex/internal/domain/search/filter"
	"github.com/kailas-cloud/geodex/internal/domain/search/mode"
)

// Search parameter limits.
const (
	// MaxQueryLength is the maximum allowed search query length.
	MaxQueryLength = 4096
	DefaultLimit   = 20
	MaxLimit       = 100
)

// Params are the raw search parameters of a request.
type Params struct {
	Query       string
	Mode        mode.Mode
	Types       []string
	Categories  []string
	Keywords    []string
	Regions     []string
	Owners      []string
	Subtypes    []string
	Licenses    []string
	HasTime     *bool
	Featured    *bool
	IsPublished *bool
	DateGTE     *time.Time
	DateLTE     *time.Time
	Extent      string
	OrderBy     string
	Limit       int
	Offset      int
}

// Sort orders results by a sortable field; the zero value means relevance.
type Sort struct {
	Field string
	Desc  bool
}

// IsRelevance reports whether results keep engine relevance order.
func (s Sort) IsRelevance() bool { return s.Field == "" }

// Request is a validated search query against one target.
type Request struct {
	target  Target
	query   string
	mode    mode.Mode
	filters filter.Expression
	extent  *geo.Envelope
	sort    Sort
	limit   int
	offset  int
}

// New validates params against the target schema.
// Defaults: mode=keyword, limit=20, relevance order.
func New(target Target, p Params) (Request, error) {
	q := strings.TrimSpace(p.Query)
	if len(q) > MaxQueryLength {
		return Request{}, invalid("query too long (max %d chars)", MaxQueryLength)
	}

	m := p.Mode
	if m == "" {
		m = mode.Keyword
	}
	if !m.IsValid() {
		return Request{}, invalid("invalid search mode: %q", m)
	}
	if m.NeedsEmbedding() && q == "" {
		return Request{}, invalid("%s mode requires q", m)
	}

	limit := p.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	if p.Offset < 0 {
		return Request{}, invalid("offset must not be negative")
	}

	sch := target.Schema()

	filters, err := buildFilters(sch, p)
	if err != nil {
		return Request{}, err
	}

	var extent *geo.Envelope
	if p.Extent != "" {
		if _, ok := sch.Leaf("bbox"); !ok {
			return Request{}, invalid("extent is not supported for %s", target)
		}
		env, err := ParseExtent(p.Extent)
		if err != nil {
			return Request{}, err
		}
		extent = &env
	}

	sort, err := ParseOrderBy(p.OrderBy)
	if err != nil {
		return Request{}, err
	}
	if !sort.IsRelevance() {
		l, ok := sch.Leaf(sort.Field)
		if !ok || !l.Sortable {
			return Request{}, invalid("cannot order %s by %q", target, sort.Field)
		}
	}

	return Request{
		target:  target,
		query:   q,
		mode:    m,
		filters: filters,
		extent:  extent,
		sort:    sort,
		limit:   limit,
		offset:  p.Offset,
	}, nil
}

// Target returns the searched index selector.
func (r *Request) Target() Target { return r.target }

// Query returns the free-text query; empty matches everything.
func (r *Request) Query() string { return r.query }

// Mode returns the search strategy.
func (r *Request) Mode() mode.Mode { return r.mode }

// Filters returns the filter expression.
func (r *Request) Filters() filter.Expression { return r.filters }

// Extent returns the bbox intersection constraint, or nil.
func (r *Request) Extent() *geo.Envelope { return r.extent }

// Sort returns the requested order.
func (r *Request) Sort() Sort { return r.sort }

// Limit returns the page size.
func (r *Request) Limit() int { return r.limit }

// Offset returns the number of hits to skip.
func (r *Request) Offset() int { return r.offset }

func buildFilters(sch *schema.Schema, p Params) (filter.Expression, error) {
	var conds []filter.Condition
	add := func(key string, build func() (filter.Condition, error)) error {
		if err := requireField(sch, key); err != nil {
			return err
		}
		c, err := build()
		if err != nil {
			return invalid("%v", err)
		}
		conds = append(conds, c)
		return nil
	}

	facets := []struct {
		key    string
		values []string
	}{
		{"type", p.Types},
		{"category", p.Categories},
		{"keywords", p.Keywords},
		{"regions", p.Regions},
		{"owner__username", p.Owners},
		{"subtype", p.Subtypes},
		{"license", p.Licenses},
	}
	for _, f := range facets {
		if len(f.values) == 0 {
			continue
		}
		if err := add(f.key, func() (filter.Condition, error) { return filter.AnyOf(f.key, f.values...) }); err != nil {
			return filter.Expression{}, err
		}
	}

	flags := []struct {
		key   string
		value *bool
	}{
		{"has_time", p.HasTime},
		{"featured", p.Featured},
		{"is_published", p.IsPublished},
	}
	for _, f := range flags {
		if f.value == nil {
			continue
		}
		if err := add(f.key, func() (filter.Condition, error) { return filter.Flag(f.key, *f.value) }); err != nil {
			return filter.Expression{}, err
		}
	}

	if p.DateGTE != nil || p.DateLTE != nil {
		err := add("date", func() (filter.Condition, error) { return filter.TimeSpan("date", p.DateGTE, p.DateLTE) })
		if err != nil {
			return filter.Expression{}, err
		}
	}

	expr, err := filter.All(conds...)
	if err != nil {
		return filter.Expression{}, invalid("%v", err)
	}
	return expr, nil
}

func requireField(sch *schema.Schema, key string) error {
	if _, ok := sch.Leaf(key); !ok {
		return invalid("filter %q is not supported for %s", key, sch.Index)
	}
	return nil
}

// ParseExtent parses "minx,miny,maxx,maxy" in WGS84.
func ParseExtent(s string) (geo.Envelope, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return geo.Envelope{}, invalid("extent must be minx,miny,maxx,maxy")
	}
	var v [4]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return geo.Envelope{}, invalid("extent coordinate %q is not a number", p)
		}
		v[i] = f
	}
	env, err := geo.NewEnvelope(v[0], v[1], v[2], v[3])
	if err != nil {
		return geo.Envelope{}, invalid("%v", err)
	}
	return env, nil
}

// ParseOrderBy parses "field" or "-field"; "" and "relevance" keep relevance order.
func ParseOrderBy(s string) (Sort, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "relevance" {
		return Sort{}, nil
	}
	desc := strings.HasPrefix(s, "-")
	field := strings.TrimPrefix(s, "-")
	if field == "" || !isFieldName(field) {
		return Sort{}, invalid("invalid order_by %q", s)
	}
	return Sort{Field: field, Desc: desc}, nil
}

func isFieldName(s string) bool {
	for _, r := range s {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') && r != '_' {
			return false
		}
	}
	return true
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", domain.ErrInvalidQuery, fmt.Sprintf(format, args...))
}
