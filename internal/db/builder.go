package db

import "strings"

// IndexBuilder assembles an IndexDefinition field by field. Build
// validates the result.
type IndexBuilder struct {
	def IndexDefinition
}

// NewIndex starts a definition for the named index.
func NewIndex(name string) *IndexBuilder {
	return &IndexBuilder{def: IndexDefinition{Name: name}}
}

// Over makes the index an alias spanning the given source indexes.
func (b *IndexBuilder) Over(sources ...string) *IndexBuilder {
	b.def.Sources = append(b.def.Sources, sources...)
	return b
}

// Field appends a fully specified field.
func (b *IndexBuilder) Field(f IndexField) *IndexBuilder {
	b.def.Fields = append(b.def.Fields, f)
	return b
}

func (b *IndexBuilder) typed(name string, t IndexFieldType) *IndexBuilder {
	return b.Field(IndexField{Name: name, Type: t})
}

// Numeric appends a numeric field.
func (b *IndexBuilder) Numeric(name string) *IndexBuilder { return b.typed(name, IndexFieldNumeric) }

// Tag appends an exact-match field.
func (b *IndexBuilder) Tag(name string) *IndexBuilder { return b.typed(name, IndexFieldTag) }

// Bool appends a boolean field.
func (b *IndexBuilder) Bool(name string) *IndexBuilder { return b.typed(name, IndexFieldBool) }

// GeoShape appends an envelope field.
func (b *IndexBuilder) GeoShape(name string) *IndexBuilder { return b.typed(name, IndexFieldGeoShape) }

// Date appends a timestamp field. Dates are always sortable.
func (b *IndexBuilder) Date(name string) *IndexBuilder {
	return b.typed(name, IndexFieldDate).Sortable()
}

// Text appends a text field with the standard analyzer.
func (b *IndexBuilder) Text(name string) *IndexBuilder {
	return b.TextAs(name, "", AnalyzerStandard)
}

// TextAs appends a text field indexed under alias with the given analyzer.
func (b *IndexBuilder) TextAs(name, alias string, analyzer Analyzer) *IndexBuilder {
	return b.Field(IndexField{Name: name, Alias: alias, Type: IndexFieldText, Analyzer: analyzer})
}

// VectorHNSW appends an HNSW vector field. Zero m or efConstruct leaves
// the backend default.
func (b *IndexBuilder) VectorHNSW(name string, dim int, distance DistanceMetric, m, efConstruct int) *IndexBuilder {
	return b.Field(IndexField{
		Name:              name,
		Type:              IndexFieldVector,
		VectorAlgo:        VectorHNSW,
		VectorDim:         dim,
		VectorDistance:    distance,
		VectorM:           m,
		VectorEFConstruct: efConstruct,
	})
}

// Sortable marks the last appended field sortable.
func (b *IndexBuilder) Sortable() *IndexBuilder {
	if n := len(b.def.Fields); n > 0 {
		b.def.Fields[n-1].Sortable = true
	}
	return b
}

// Build validates and returns the definition.
func (b *IndexBuilder) Build() (*IndexDefinition, error) {
	if err := b.def.Validate(); err != nil {
		return nil, err
	}
	def := b.def
	return &def, nil
}

// MustBuild is Build for static definitions; it panics on error.
func (b *IndexBuilder) MustBuild() *IndexDefinition {
	def, err := b.Build()
	if err != nil {
		panic(err)
	}
	return def
}

// String renders the definition as a one-line schema, e.g.
// "INDEX map-index SCHEMA title TEXT date DATE SORTABLE".
func (idx *IndexDefinition) String() string {
	var sb strings.Builder
	sb.WriteString("INDEX " + idx.Name)
	if idx.IsAlias() {
		sb.WriteString(" OVER " + strings.Join(idx.Sources, " "))
	}
	sb.WriteString(" SCHEMA")
	for i := range idx.Fields {
		f := &idx.Fields[i]
		sb.WriteString(" " + f.Name)
		if f.Alias != "" {
			sb.WriteString(" AS " + f.Alias)
		}
		sb.WriteString(" " + f.Type.String())
		switch {
		case f.Type == IndexFieldText && f.Analyzer != "" && f.Analyzer != AnalyzerStandard:
			sb.WriteString(" " + strings.ToUpper(string(f.Analyzer)))
		case f.Type == IndexFieldVector:
			sb.WriteString(" " + string(f.VectorAlgo))
		}
		if f.Sortable {
			sb.WriteString(" SORTABLE")
		}
	}
	return sb.String()
}
