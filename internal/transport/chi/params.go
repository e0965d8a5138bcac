package chi

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/oapi-codegen/runtime"

	"github.com/kailas-cloud/geodex/internal/domain"
	"github.com/kailas-cloud/geodex/internal/domain/search/mode"
	"github.com/kailas-cloud/geodex/internal/domain/search/request"
)

// searchQuery mirrors the query string of the search endpoint.
type searchQuery struct {
	Q           *string
	Mode        *string
	TypeIn      *[]string
	CategoryIn  *[]string
	KeywordsIn  *[]string
	RegionsIn   *[]string
	OwnerIn     *[]string
	SubtypeIn   *[]string
	LicenseIn   *[]string
	HasTime     *bool
	Featured    *bool
	IsPublished *bool
	DateGTE     *string
	DateLTE     *string
	Extent      *string
	OrderBy     *string
	Limit       *int
	Offset      *int
}

// bindSearchParams binds the search query string. List parameters accept
// repeated keys and comma-separated values.
func bindSearchParams(r *http.Request) (request.Params, error) {
	query := r.URL.Query()
	var sq searchQuery

	binds := []struct {
		name string
		dest any
	}{
		{"q", &sq.Q},
		{"mode", &sq.Mode},
		{"type__in", &sq.TypeIn},
		{"category__in", &sq.CategoryIn},
		{"keywords__in", &sq.KeywordsIn},
		{"regions__in", &sq.RegionsIn},
		{"owner__username__in", &sq.OwnerIn},
		{"subtype__in", &sq.SubtypeIn},
		{"license__in", &sq.LicenseIn},
		{"has_time", &sq.HasTime},
		{"featured", &sq.Featured},
		{"is_published", &sq.IsPublished},
		{"date__gte", &sq.DateGTE},
		{"date__lte", &sq.DateLTE},
		{"extent", &sq.Extent},
		{"order_by", &sq.OrderBy},
		{"limit", &sq.Limit},
		{"offset", &sq.Offset},
	}
	for _, b := range binds {
		if err := runtime.BindQueryParameter("form", true, false, b.name, query, b.dest); err != nil {
			return request.Params{}, fmt.Errorf("%w: invalid format for parameter %s", domain.ErrInvalidQuery, b.name)
		}
	}

	gte, err := parseDate("date__gte", sq.DateGTE)
	if err != nil {
		return request.Params{}, err
	}
	lte, err := parseDate("date__lte", sq.DateLTE)
	if err != nil {
		return request.Params{}, err
	}

	return request.Params{
		Query:       deref(sq.Q),
		Mode:        mode.Mode(deref(sq.Mode)),
		Types:       splitList(sq.TypeIn),
		Categories:  splitList(sq.CategoryIn),
		Keywords:    splitList(sq.KeywordsIn),
		Regions:     splitList(sq.RegionsIn),
		Owners:      splitList(sq.OwnerIn),
		Subtypes:    splitList(sq.SubtypeIn),
		Licenses:    splitList(sq.LicenseIn),
		HasTime:     sq.HasTime,
		Featured:    sq.Featured,
		IsPublished: sq.IsPublished,
		DateGTE:     gte,
		DateLTE:     lte,
		Extent:      deref(sq.Extent),
		OrderBy:     deref(sq.OrderBy),
		Limit:       derefInt(sq.Limit),
		Offset:      derefInt(sq.Offset),
	}, nil
}

// bindPrefix binds the autocomplete prefix from q.
func bindPrefix(r *http.Request) (string, error) {
	var q *string
	if err := runtime.BindQueryParameter("form", true, false, "q", r.URL.Query(), &q); err != nil {
		return "", fmt.Errorf("%w: invalid format for parameter q", domain.ErrInvalidQuery)
	}
	return strings.TrimSpace(deref(q)), nil
}

// parseDate accepts RFC 3339 timestamps and plain dates.
func parseDate(name string, s *string) (*time.Time, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339Nano, time.DateOnly} {
		if t, err := time.Parse(layout, *s); err == nil {
			return &t, nil
		}
	}
	return nil, fmt.Errorf("%w: %s must be a date or RFC 3339 timestamp", domain.ErrInvalidQuery, name)
}

func splitList(values *[]string) []string {
	if values == nil {
		return nil
	}
	var out []string
	for _, v := range *values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func derefInt(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}
