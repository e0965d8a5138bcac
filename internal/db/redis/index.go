package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/kailas-cloud/geodex/internal/db"
)

// Server error fragments for index lifecycle commands.
const (
	errIndexExists  = "index already exists"
	errUnknownIndex = "unknown index name"
)

// CreateIndex issues FT.CREATE over the JSON documents the definition reads.
func (s *Store) CreateIndex(ctx context.Context, def *db.IndexDefinition) error {
	args, err := buildCreateArgs(def, s.keyPrefix)
	if err != nil {
		return err
	}
	return s.indexCommand(ctx, db.OpCreateIndex, args, errIndexExists, db.ErrIndexExists)
}

// DropIndex removes an index definition. The JSON documents stay in place.
func (s *Store) DropIndex(ctx context.Context, name string) error {
	return s.indexCommand(ctx, db.OpDropIndex, []string{name}, errUnknownIndex, db.ErrIndexNotFound)
}

// IndexExists asks FT.INFO about the index.
func (s *Store) IndexExists(ctx context.Context, name string) (bool, error) {
	err := s.indexCommand(ctx, db.OpIndexInfo, []string{name}, errUnknownIndex, db.ErrIndexNotFound)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, db.ErrIndexNotFound):
		return false, nil
	default:
		return false, err
	}
}

// SupportsVectorSearch is always true: the query engine has VECTOR fields
// and KNN clauses.
func (s *Store) SupportsVectorSearch(_ context.Context) bool {
	return true
}

// indexCommand runs one FT.* command, translating the server error that
// carries match into known.
func (s *Store) indexCommand(ctx context.Context, op string, args []string, match string, known error) error {
	cmd := s.b().Arbitrary(op).Args(args...).Build()
	err := s.do(ctx, cmd).Error()
	if err == nil {
		return nil
	}
	if isRedisErr(err, match) {
		return known
	}
	return &db.Error{Op: op, Err: err}
}

// schema accumulates FT.CREATE arguments.
type schema []string

func (s *schema) add(args ...string) { *s = append(*s, args...) }

func buildCreateArgs(def *db.IndexDefinition, keyPrefix string) ([]string, error) {
	switch {
	case def.Name == "":
		return nil, errors.New("index name is required")
	case len(def.Fields) == 0:
		return nil, errors.New("at least one field is required")
	}

	// An alias reads the key spaces of its sources; a plain index reads its own.
	spaces := def.Sources
	if len(spaces) == 0 {
		spaces = []string{def.Name}
	}

	var out schema
	out.add(def.Name, "ON", "JSON", "PREFIX", strconv.Itoa(len(spaces)))
	for _, sp := range spaces {
		out.add(keyPrefix + sp + ":")
	}
	out.add("LANGUAGE", "english", "SCHEMA")

	for i := range def.Fields {
		field, err := buildFieldArgs(&def.Fields[i])
		if err != nil {
			return nil, fmt.Errorf("index %s: %w", def.Name, err)
		}
		out.add(field...)
	}
	return out, nil
}

func buildFieldArgs(f *db.IndexField) ([]string, error) {
	if f.Name == "" {
		return nil, errors.New("field name is required")
	}

	out := schema{jsonPath(f), "AS", f.IndexedName()}
	switch f.Type {
	case db.IndexFieldText:
		out.add("TEXT")
		// Only the english analyzer stems.
		if f.Analyzer != db.AnalyzerEnglish {
			out.add("NOSTEM")
		}
	case db.IndexFieldTag, db.IndexFieldBool:
		out.add("TAG")
		if f.TagSeparator != "" {
			out.add("SEPARATOR", f.TagSeparator)
		}
		if f.TagCaseSensitive {
			out.add("CASESENSITIVE")
		}
	case db.IndexFieldNumeric, db.IndexFieldDate:
		out.add("NUMERIC")
	case db.IndexFieldGeoShape:
		out.add("GEOSHAPE", "FLAT")
	case db.IndexFieldVector:
		vec, err := vectorArgs(f)
		if err != nil {
			return nil, err
		}
		return append(out, vec...), nil
	default:
		return nil, fmt.Errorf("field %s: unknown type %s", f.Name, f.Type)
	}

	if f.Sortable && f.Type != db.IndexFieldGeoShape {
		out.add("SORTABLE")
	}
	return out, nil
}

// jsonPath is the JSONPath a field is read from. Dates and shapes live in
// the reserved mirror objects written next to the source document.
func jsonPath(f *db.IndexField) string {
	switch f.Type {
	case db.IndexFieldDate:
		return fmt.Sprintf("$.%s.%s", db.FieldTimestamps, f.IndexedName())
	case db.IndexFieldGeoShape:
		return fmt.Sprintf("$.%s.%s.wkt", db.FieldGeo, f.IndexedName())
	default:
		return "$." + strings.ReplaceAll(f.Name, "[]", "[*]")
	}
}

// vectorArgs renders "VECTOR <algo> <n> <attrs...>" with FLAT and COSINE
// as defaults.
func vectorArgs(f *db.IndexField) ([]string, error) {
	if f.VectorDim <= 0 {
		return nil, fmt.Errorf("field %s: vector DIM must be positive", f.Name)
	}
	algo, metric := f.VectorAlgo, f.VectorDistance
	if algo == "" {
		algo = db.VectorFlat
	}
	if metric == "" {
		metric = db.DistanceCosine
	}

	attrs := schema{"TYPE", "FLOAT32", "DIM", strconv.Itoa(f.VectorDim), "DISTANCE_METRIC", string(metric)}
	optional := func(name string, v int) {
		if v > 0 {
			attrs.add(name, strconv.Itoa(v))
		}
	}
	if algo == db.VectorHNSW {
		optional("M", f.VectorM)
		optional("EF_CONSTRUCTION", f.VectorEFConstruct)
	} else {
		optional("BLOCK_SIZE", f.VectorBlockSize)
	}
	return append(schema{"VECTOR", string(algo), strconv.Itoa(len(attrs))}, attrs...), nil
}
