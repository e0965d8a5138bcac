package request

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/geodex/internal/domain"
	"github.com/kailas-cloud/geodex/internal/domain/schema"
)

// Target selects the index a search runs against.
type Target struct {
	schema *schema.Schema
}

// ParseTarget resolves a resource-type selector: a kind name (singular or
// plural) or "base"/"all" for every resource kind.
func ParseTarget(resourceType string) (Target, error) {
	s := strings.ToLower(strings.TrimSpace(resourceType))
	if s == "base" || s == "all" {
		return Target{schema: schema.Resource()}, nil
	}
	k, err := domain.ParseKind(s)
	if err != nil {
		return Target{}, fmt.Errorf("%w: %q", domain.ErrUnknownResourceType, resourceType)
	}
	sch, err := schema.ForKind(k)
	if err != nil {
		return Target{}, fmt.Errorf("%w: %q", domain.ErrUnknownResourceType, resourceType)
	}
	return Target{schema: sch}, nil
}

// TargetFor returns the target of a concrete kind.
func TargetFor(k domain.Kind) (Target, error) {
	sch, err := schema.ForKind(k)
	if err != nil {
		return Target{}, err
	}
	return Target{schema: sch}, nil
}

// Index returns the index name.
func (t Target) Index() string { return t.schema.Index }

// Kind returns the target kind; empty for the cross-kind alias.
func (t Target) Kind() domain.Kind { return t.schema.Kind }

// Schema returns the target schema.
func (t Target) Schema() *schema.Schema { return t.schema }

// IsZero reports whether the target was never resolved.
func (t Target) IsZero() bool { return t.schema == nil }

func (t Target) String() string {
	if t.schema == nil {
		return "<none>"
	}
	return t.schema.Index
}
