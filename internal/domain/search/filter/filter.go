// Package filter describes the structured part of a search: facet
// selections, flags and date windows that every hit must satisfy. Backends
// translate an Expression into their own query language.
package filter

import (
	"errors"
	"fmt"
	"slices"
	"time"
)

// Limits keep translated queries bounded.
const (
	MaxConditions = 32
	MaxValues     = 64
)

// Kind discriminates conditions.
type Kind uint8

// Condition kinds.
const (
	KindAnyOf Kind = iota + 1
	KindFlag
	KindRange
)

func (k Kind) String() string {
	switch k {
	case KindAnyOf:
		return "any_of"
	case KindFlag:
		return "flag"
	case KindRange:
		return "range"
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

var errNoField = errors.New("filter field is required")

// Condition constrains one field. Only the member matching Kind is set.
type Condition struct {
	Field  string
	Kind   Kind
	Values []string
	Flag   bool
	Range  Range
}

// AnyOf matches documents whose tag field equals one of values. Blank
// values are dropped and duplicates collapse, keeping first-seen order.
func AnyOf(field string, values ...string) (Condition, error) {
	if field == "" {
		return Condition{}, errNoField
	}
	kept := make([]string, 0, len(values))
	for _, v := range values {
		if v != "" && !slices.Contains(kept, v) {
			kept = append(kept, v)
		}
	}
	switch {
	case len(kept) == 0:
		return Condition{}, fmt.Errorf("filter %q needs at least one value", field)
	case len(kept) > MaxValues:
		return Condition{}, fmt.Errorf("filter %q has %d values (max %d)", field, len(kept), MaxValues)
	}
	return Condition{Field: field, Kind: KindAnyOf, Values: kept}, nil
}

// Flag matches documents whose boolean field equals v.
func Flag(field string, v bool) (Condition, error) {
	if field == "" {
		return Condition{}, errNoField
	}
	return Condition{Field: field, Kind: KindFlag, Flag: v}, nil
}

// Between matches documents whose numeric field lies in r.
func Between(field string, r Range) (Condition, error) {
	if field == "" {
		return Condition{}, errNoField
	}
	if err := r.validate(); err != nil {
		return Condition{}, fmt.Errorf("filter %q: %w", field, err)
	}
	return Condition{Field: field, Kind: KindRange, Range: r}, nil
}

// TimeSpan matches documents whose date field, stored as Unix seconds, lies
// within [from, to]. Either end may be nil.
func TimeSpan(field string, from, to *time.Time) (Condition, error) {
	var r Range
	if from != nil {
		r.Min = &Bound{Value: float64(from.Unix())}
	}
	if to != nil {
		r.Max = &Bound{Value: float64(to.Unix())}
	}
	return Between(field, r)
}

// Bound is one end of a Range.
type Bound struct {
	Value     float64
	Exclusive bool
}

// Range is a numeric interval; a nil end is unbounded.
type Range struct {
	Min, Max *Bound
}

func (r Range) validate() error {
	switch {
	case r.Min == nil && r.Max == nil:
		return errors.New("range needs at least one bound")
	case r.Min != nil && r.Max != nil && r.Min.Value > r.Max.Value:
		return fmt.Errorf("range is empty: %g > %g", r.Min.Value, r.Max.Value)
	}
	return nil
}

// Contains reports whether v lies in r.
func (r Range) Contains(v float64) bool {
	if m := r.Min; m != nil && (v < m.Value || m.Exclusive && v == m.Value) {
		return false
	}
	if m := r.Max; m != nil && (v > m.Value || m.Exclusive && v == m.Value) {
		return false
	}
	return true
}

// Expression is a conjunction of conditions. The zero value matches
// everything.
type Expression struct {
	conds []Condition
}

// All combines conds; every one must hold.
func All(conds ...Condition) (Expression, error) {
	if len(conds) > MaxConditions {
		return Expression{}, fmt.Errorf("too many filter conditions: %d (max %d)", len(conds), MaxConditions)
	}
	for i, c := range conds {
		if c.Field == "" || c.Kind == 0 {
			return Expression{}, fmt.Errorf("filter condition %d is incomplete", i)
		}
	}
	return Expression{conds: slices.Clone(conds)}, nil
}

// Conditions returns the conditions in the order they were given.
func (e Expression) Conditions() []Condition { return e.conds }

// IsEmpty reports whether the expression has no conditions.
func (e Expression) IsEmpty() bool { return len(e.conds) == 0 }
