package bleve

import (
	"strings"

	blevesearch "github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/custom"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/analysis/lang/en"
	"github.com/blevesearch/bleve/v2/analysis/token/lowercase"
	"github.com/blevesearch/bleve/v2/analysis/tokenizer/regexp"
	"github.com/blevesearch/bleve/v2/mapping"

	"github.com/kailas-cloud/geodex/internal/db"
)

const (
	patternAnalyzer  = "pattern"
	patternTokenizer = "pattern_tokenizer"
	// sourceField stores the raw JSON document; it is never indexed.
	sourceField = "__source"
)

// Corner properties of a geo-shape mirror.
var corners = [...]string{"minx", "miny", "maxx", "maxy"}

// fieldRef locates an indexed name inside the bleve document.
type fieldRef struct {
	path string
	typ  db.IndexFieldType
}

// buildMapping translates an index definition into a static bleve mapping
// and the lookup table from indexed names to bleve field paths.
func buildMapping(def *db.IndexDefinition) (*mapping.IndexMappingImpl, map[string]fieldRef, error) {
	im := blevesearch.NewIndexMapping()
	if err := registerPatternAnalyzer(im); err != nil {
		return nil, nil, err
	}

	root := blevesearch.NewDocumentStaticMapping()
	root.AddFieldMappingsAt(sourceField, storedOnly())
	refs := make(map[string]fieldRef, len(def.Fields))

	for i := range def.Fields {
		f := &def.Fields[i]
		name := f.IndexedName()

		switch f.Type {
		case db.IndexFieldVector:
			return nil, nil, db.ErrVectorNotSupported

		case db.IndexFieldDate:
			subMapping(root, db.FieldTimestamps).AddFieldMappingsAt(name, numeric())
			refs[name] = fieldRef{path: db.FieldTimestamps + "." + name, typ: f.Type}

		case db.IndexFieldGeoShape:
			shape := subMapping(root, db.FieldGeo, name)
			for _, c := range corners {
				shape.AddFieldMappingsAt(c, numeric())
			}
			refs[name] = fieldRef{path: db.FieldGeo + "." + name, typ: f.Type}

		default:
			segs := strings.Split(strings.ReplaceAll(f.Name, "[]", ""), ".")
			parent, leaf := segs[:len(segs)-1], segs[len(segs)-1]

			fm := fieldMapping(f)
			fm.Name = name
			subMapping(root, parent...).AddFieldMappingsAt(leaf, fm)

			path := name
			if len(parent) > 0 {
				path = strings.Join(parent, ".") + "." + name
			}
			refs[name] = fieldRef{path: path, typ: f.Type}
		}
	}

	im.DefaultMapping = root
	im.DefaultAnalyzer = standard.Name
	return im, refs, nil
}

// registerPatternAnalyzer adds the word-character tokenizer used for
// partial matching: letters and digits split on everything else, lowercased.
func registerPatternAnalyzer(im *mapping.IndexMappingImpl) error {
	if err := im.AddCustomTokenizer(patternTokenizer, map[string]interface{}{
		"type":   regexp.Name,
		"regexp": db.PatternTokenRegexp,
	}); err != nil {
		return err
	}
	return im.AddCustomAnalyzer(patternAnalyzer, map[string]interface{}{
		"type":          custom.Name,
		"tokenizer":     patternTokenizer,
		"token_filters": []interface{}{lowercase.Name},
	})
}

func subMapping(root *mapping.DocumentMapping, segs ...string) *mapping.DocumentMapping {
	m := root
	for _, seg := range segs {
		next, ok := m.Properties[seg]
		if !ok {
			next = blevesearch.NewDocumentStaticMapping()
			m.AddSubDocumentMapping(seg, next)
		}
		m = next
	}
	return m
}

func fieldMapping(f *db.IndexField) *mapping.FieldMapping {
	var fm *mapping.FieldMapping
	switch f.Type {
	case db.IndexFieldNumeric:
		fm = numeric()
	case db.IndexFieldBool:
		fm = blevesearch.NewBooleanFieldMapping()
	case db.IndexFieldText:
		fm = blevesearch.NewTextFieldMapping()
		fm.Analyzer = analyzerName(f.Analyzer)
	default:
		fm = blevesearch.NewTextFieldMapping()
		fm.Analyzer = keyword.Name
	}
	fm.Store = false
	fm.IncludeInAll = false
	return fm
}

func analyzerName(a db.Analyzer) string {
	switch a {
	case db.AnalyzerEnglish:
		return en.AnalyzerName
	case db.AnalyzerPattern:
		return patternAnalyzer
	default:
		return standard.Name
	}
}

func numeric() *mapping.FieldMapping {
	fm := blevesearch.NewNumericFieldMapping()
	fm.Store = false
	fm.IncludeInAll = false
	return fm
}

func storedOnly() *mapping.FieldMapping {
	fm := blevesearch.NewTextFieldMapping()
	fm.Store = true
	fm.Index = false
	fm.IncludeInAll = false
	fm.DocValues = false
	return fm
}
