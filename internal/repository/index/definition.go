package index

import (
	"fmt"

	"github.com/kailas-cloud/geodex/internal/db"
	"github.com/kailas-cloud/geodex/internal/domain/schema"
)

// buildIndex derives the index definition of a schema. A positive
// vectorDim adds the embedding field to resource indexes and aliases.
func buildIndex(s *schema.Schema, vectorDim int, hnsw HNSWConfig) (*db.IndexDefinition, error) {
	b := db.NewIndex(s.Index).Over(s.Sources...)
	for _, l := range s.Leaves() {
		f, err := leafField(l)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", s.Index, err)
		}
		b.Field(f)
	}
	if vectorDim > 0 && (s.Kind.IsResource() || s.IsAlias()) {
		b.VectorHNSW(db.FieldVector, vectorDim, db.DistanceCosine, hnsw.M, hnsw.EFConstruct)
	}

	def, err := b.Build()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.Index, err)
	}
	return def, nil
}

func leafField(l schema.Leaf) (db.IndexField, error) {
	f := db.IndexField{Name: l.Path, Sortable: l.Sortable}
	if l.Name != l.Path {
		f.Alias = l.Name
	}

	switch l.Type {
	case schema.Keyword:
		f.Type = db.IndexFieldTag
	case schema.Text:
		f.Type = db.IndexFieldText
		f.Analyzer = analyzer(l.Analyzer)
	case schema.Integer, schema.Float:
		f.Type = db.IndexFieldNumeric
	case schema.Date:
		f.Type = db.IndexFieldDate
	case schema.Boolean:
		f.Type = db.IndexFieldBool
	case schema.GeoShape:
		f.Type = db.IndexFieldGeoShape
	default:
		return db.IndexField{}, fmt.Errorf("unsupported field type %s for %q", l.Type, l.Name)
	}
	return f, nil
}

func analyzer(a schema.Analyzer) db.Analyzer {
	switch a {
	case schema.English:
		return db.AnalyzerEnglish
	case schema.Pattern:
		return db.AnalyzerPattern
	default:
		return db.AnalyzerStandard
	}
}
