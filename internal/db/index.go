package db

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// DistanceMetric used by vector similarity queries.
type DistanceMetric string

const (
	// DistanceL2 is Euclidean distance.
	DistanceL2 DistanceMetric = "L2"
	// DistanceIP is inner product distance.
	DistanceIP DistanceMetric = "IP"
	// DistanceCosine is cosine distance.
	DistanceCosine DistanceMetric = "COSINE"
)

// VectorAlgorithm selects the indexing algorithm for vector fields.
type VectorAlgorithm string

const (
	// VectorHNSW uses the HNSW algorithm.
	VectorHNSW VectorAlgorithm = "HNSW"
	// VectorFlat uses the FLAT (brute-force) algorithm.
	VectorFlat VectorAlgorithm = "FLAT"
)

// IndexFieldType enumerates supported index field types.
type IndexFieldType int

// Field types. Dates, bools and shapes are stored by each backend in the
// closest native type.
const (
	IndexFieldNumeric IndexFieldType = iota
	IndexFieldTag
	IndexFieldText
	IndexFieldVector
	IndexFieldDate
	IndexFieldBool
	IndexFieldGeoShape
)

var fieldTypeNames = [...]string{
	IndexFieldNumeric:  "NUMERIC",
	IndexFieldTag:      "TAG",
	IndexFieldText:     "TEXT",
	IndexFieldVector:   "VECTOR",
	IndexFieldDate:     "DATE",
	IndexFieldBool:     "BOOL",
	IndexFieldGeoShape: "GEOSHAPE",
}

func (t IndexFieldType) String() string {
	if t < 0 || int(t) >= len(fieldTypeNames) {
		return "UNKNOWN(" + strconv.Itoa(int(t)) + ")"
	}
	return fieldTypeNames[t]
}

// Analyzer names the text analysis chain of a TEXT field.
type Analyzer string

// Analyzers every backend provides.
const (
	AnalyzerStandard Analyzer = "standard"
	AnalyzerEnglish  Analyzer = "english"
	AnalyzerPattern  Analyzer = "pattern"
)

// Reserved document fields maintained next to the source fields.
const (
	// FieldTimestamps holds epoch-second copies of date fields.
	FieldTimestamps = "__ts"
	// FieldGeo holds WKT and corner copies of geo-shape fields.
	FieldGeo = "__geo"
	// FieldVector holds the document embedding.
	FieldVector = "__vector"
)

// IndexField describes a single field in an index schema.
type IndexField struct {
	// Name is the document path: dot-separated, "[]" marks a list segment.
	Name string
	// Alias is the indexed name used in queries; defaults to Name.
	Alias    string
	Type     IndexFieldType
	Analyzer Analyzer // TEXT only
	Sortable bool

	// TAG options
	TagSeparator     string
	TagCaseSensitive bool

	// VECTOR options
	VectorAlgo        VectorAlgorithm
	VectorDim         int
	VectorDistance    DistanceMetric
	VectorM           int // HNSW M parameter: max edges per node (default 16)
	VectorEFConstruct int // HNSW EF_CONSTRUCTION: build-time dynamic list size (default 200)
	VectorBlockSize   int // FLAT BLOCK_SIZE
}

// IndexedName returns the name queries refer to.
func (f *IndexField) IndexedName() string {
	if f.Alias != "" {
		return f.Alias
	}
	return f.Name
}

// IsMulti reports whether the path crosses a list.
func (f *IndexField) IsMulti() bool {
	return strings.Contains(f.Name, "[]")
}

// IndexDefinition is a complete index definition. An index with Sources is
// an alias spanning the documents of those indexes.
type IndexDefinition struct {
	Name    string
	Sources []string
	Fields  []IndexField
}

// IsAlias reports whether the index spans other indexes.
func (idx *IndexDefinition) IsAlias() bool { return len(idx.Sources) > 0 }

// Field returns the field with the given indexed name.
func (idx *IndexDefinition) Field(name string) (IndexField, bool) {
	for i := range idx.Fields {
		if idx.Fields[i].IndexedName() == name {
			return idx.Fields[i], true
		}
	}
	return IndexField{}, false
}

// Validate checks that the index definition is well-formed.
func (idx *IndexDefinition) Validate() error {
	switch {
	case idx.Name == "":
		return errors.New("index name is required")
	case !IsValidIdentifier(idx.Name):
		return fmt.Errorf("index name %q contains invalid characters", idx.Name)
	case len(idx.Fields) == 0:
		return errors.New("at least one field is required")
	}
	for _, src := range idx.Sources {
		if src == idx.Name {
			return fmt.Errorf("index %s cannot span itself", idx.Name)
		}
		if !IsValidIdentifier(src) {
			return fmt.Errorf("source index name %q contains invalid characters", src)
		}
	}

	seen := make(map[string]struct{}, len(idx.Fields))
	for i := range idx.Fields {
		f := &idx.Fields[i]
		if f.Name == "" {
			return fmt.Errorf("field %d: name is required", i)
		}
		name := f.IndexedName()
		if !IsValidIdentifier(name) {
			return fmt.Errorf("field name %q contains invalid characters", name)
		}
		if _, dup := seen[name]; dup {
			return fmt.Errorf("duplicate field name: %s", name)
		}
		seen[name] = struct{}{}
		if f.Type == IndexFieldVector && f.VectorDim <= 0 {
			return fmt.Errorf("vector field %s requires positive DIM", name)
		}
	}
	return nil
}

// IsValidIdentifier reports whether s is non-empty and made of ASCII
// letters, digits, '_', ':' and '-'.
func IsValidIdentifier(s string) bool {
	return s != "" && strings.IndexFunc(s, func(r rune) bool {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return false
		case r == '_', r == ':', r == '-':
			return false
		}
		return true
	}) < 0
}
