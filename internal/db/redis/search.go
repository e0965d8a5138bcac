package redis

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/geodex/internal/db"
	"github.com/kailas-cloud/geodex/internal/domain/search/filter"
)

const vectorScoreField = "__vector_score"

// Search runs FT.SEARCH over an index or alias and returns the matching JSON sources.
func (s *Store) Search(ctx context.Context, q *db.Query) (*db.SearchResult, error) {
	args, err := buildSearchArgs(q)
	if err != nil {
		return nil, err
	}

	cmd := s.b().Arbitrary("FT.SEARCH").Args(args...).Build()
	raw, err := s.do(ctx, cmd).ToArray()
	if err != nil {
		if isRedisErr(err, "no such index") || isRedisErr(err, "unknown index name") {
			return nil, db.ErrIndexNotFound
		}
		return nil, &db.Error{Op: db.OpSearch, Err: err}
	}

	return s.parseSearchResult(raw, !q.IsKNN())
}

func buildSearchArgs(q *db.Query) ([]string, error) {
	if q.IndexName == "" {
		return nil, errors.New("index name is required")
	}
	if q.Limit < 0 || q.Offset < 0 {
		return nil, errors.New("offset and limit must not be negative")
	}

	var params []string
	queryStr := buildQuery(q)
	if q.Intersects != nil {
		shape, err := q.Intersects.Envelope.WKT()
		if err != nil {
			return nil, fmt.Errorf("encode extent: %w", err)
		}
		params = append(params, q.Intersects.Field, shape)
	}

	args := []string{q.IndexName}

	if q.IsKNN() {
		k := q.K
		if k <= 0 {
			k = q.Offset + q.Limit
		}
		if k <= 0 {
			return nil, errors.New("k must be positive")
		}
		base := queryStr
		if base != "*" {
			base = "(" + base + ")"
		}
		queryStr = fmt.Sprintf("%s=>[KNN %d @%s $BLOB AS %s]", base, k, db.FieldVector, vectorScoreField)
		params = append(params, "BLOB", vectorToBytes(q.Vector))
		args = append(args, queryStr, "RETURN", "2", "$", vectorScoreField)
	} else {
		args = append(args, queryStr, "RETURN", "1", "$", "WITHSCORES")
	}

	switch {
	case q.SortBy != "":
		order := "ASC"
		if q.SortDesc {
			order = "DESC"
		}
		args = append(args, "SORTBY", q.SortBy, order)
	case q.IsKNN():
		args = append(args, "SORTBY", vectorScoreField, "ASC")
	}

	args = append(args, "LIMIT", strconv.Itoa(q.Offset), strconv.Itoa(q.Limit))

	if len(params) > 0 {
		args = append(args, "PARAMS", strconv.Itoa(len(params)))
		args = append(args, params...)
	}

	// Dialect 3 is required for GEOSHAPE and returns JSON paths as arrays.
	args = append(args, "DIALECT", "3")
	return args, nil
}

// buildQuery combines the text, prefix, filter and geo clauses with AND.
func buildQuery(q *db.Query) string {
	var parts []string

	if q.Text != nil {
		if terms := strings.Fields(q.Text.Query); len(terms) > 0 {
			escaped := make([]string, len(terms))
			for i, t := range terms {
				escaped[i] = escapeQuery(t)
			}
			parts = append(parts, fieldScope(q.Text.Fields)+"("+strings.Join(escaped, " ")+")")
		}
	}

	if q.Prefix != nil {
		if terms := prefixTerms(q.Prefix); len(terms) > 0 {
			terms[len(terms)-1] += "*"
			parts = append(parts, fieldScope(q.Prefix.Fields)+"("+strings.Join(terms, " ")+")")
		}
	}

	if f := buildFilter(q.Filters); f != "" {
		parts = append(parts, f)
	}

	if q.Intersects != nil {
		parts = append(parts, fmt.Sprintf("@%s:[INTERSECTS $%s]", q.Intersects.Field, q.Intersects.Field))
	}

	if len(parts) == 0 {
		return "*"
	}
	return strings.Join(parts, " ")
}

// minPrefix is the server's default MINPREFIX. A shorter trailing term
// after complete ones is dropped rather than sent as an invalid prefix.
const minPrefix = 2

func prefixTerms(p *db.PrefixMatch) []string {
	terms := db.PrefixTerms(p.Prefix, p.Analyzer)
	if n := len(terms); n > 1 && len(terms[n-1]) < minPrefix {
		terms = terms[:n-1]
	}
	return terms
}

func fieldScope(fields []string) string {
	if len(fields) == 0 {
		return ""
	}
	return "@" + strings.Join(fields, "|") + ":"
}

// --- Result parsing ---

// parseSearchResult reads [total, key, (score,) [field, value, ...], ...].
func (s *Store) parseSearchResult(raw []rueidis.RedisMessage, withScores bool) (*db.SearchResult, error) {
	if len(raw) == 0 {
		return &db.SearchResult{}, nil
	}

	total, err := raw[0].AsInt64()
	if err != nil {
		return nil, fmt.Errorf("parse total: %w", err)
	}

	stride := 2
	if withScores {
		stride = 3
	}

	entries := make([]db.SearchEntry, 0, (len(raw)-1)/stride)
	for i := 1; i+stride-1 < len(raw); i += stride {
		key, err := raw[i].ToString()
		if err != nil {
			continue
		}

		entry := db.SearchEntry{Key: key}
		entry.Index, entry.ID = s.splitKey(key)

		if withScores {
			scoreStr, err := raw[i+1].ToString()
			if err != nil {
				continue
			}
			if entry.Score, err = strconv.ParseFloat(scoreStr, 64); err != nil {
				continue
			}
		}

		fields, err := raw[i+stride-1].ToArray()
		if err != nil {
			continue
		}
		pairs := parseFieldPairs(fields)

		if scoreStr, ok := pairs[vectorScoreField]; ok {
			if d, err := strconv.ParseFloat(unwrapScalar(scoreStr), 64); err == nil {
				entry.Score = max(0, 1.0-d) // cosine distance → similarity, clamped to [0,1]
			}
		}

		src, ok := pairs["$"]
		if !ok {
			continue
		}
		entry.Source = unwrapSource(src)

		entries = append(entries, entry)
	}

	return &db.SearchResult{Total: int(total), Entries: entries}, nil
}

func parseFieldPairs(fields []rueidis.RedisMessage) map[string]string {
	m := make(map[string]string, len(fields)/2)
	for j := 0; j+1 < len(fields); j += 2 {
		name, err := fields[j].ToString()
		if err != nil {
			continue
		}
		value, err := fields[j+1].ToString()
		if err != nil {
			continue
		}
		m[name] = value
	}
	return m
}

// unwrapSource strips the single-element array dialect 3 wraps path results in.
func unwrapSource(v string) []byte {
	if !strings.HasPrefix(v, "[") {
		return []byte(v)
	}
	var items []json.RawMessage
	if err := json.Unmarshal([]byte(v), &items); err != nil || len(items) != 1 {
		return []byte(v)
	}
	return items[0]
}

func unwrapScalar(v string) string {
	return strings.Trim(v, "[]\"")
}

// --- Filter building ---

// buildFilter translates an expression into FT.SEARCH clauses; adjacent
// clauses are intersected by the engine.
func buildFilter(expr filter.Expression) string {
	parts := make([]string, 0, len(expr.Conditions()))
	for _, c := range expr.Conditions() {
		parts = append(parts, buildCondition(c))
	}
	return strings.Join(parts, " ")
}

func buildCondition(c filter.Condition) string {
	switch c.Kind {
	case filter.KindAnyOf:
		return buildTagFilter(c.Field, c.Values...)
	case filter.KindFlag:
		// Flags are indexed as TAG fields holding "true" or "false".
		return buildTagFilter(c.Field, strconv.FormatBool(c.Flag))
	case filter.KindRange:
		return buildNumericFilter(c.Field, c.Range)
	}
	return ""
}

func buildTagFilter(key string, values ...string) string {
	escaped := make([]string, len(values))
	for i, v := range values {
		escaped[i] = tagEscaper.Replace(v)
	}
	return "@" + key + ":{" + strings.Join(escaped, " | ") + "}"
}

// buildNumericFilter renders r as @key:[min max]; "(" marks an exclusive end.
func buildNumericFilter(key string, r filter.Range) string {
	bound := func(b *filter.Bound, open string) string {
		if b == nil {
			return open
		}
		v := strconv.FormatFloat(b.Value, 'f', -1, 64)
		if b.Exclusive {
			return "(" + v
		}
		return v
	}
	return "@" + key + ":[" + bound(r.Min, "-inf") + " " + bound(r.Max, "+inf") + "]"
}

// --- Query helpers ---

var tagEscaper = strings.NewReplacer(
	"\\", "\\\\",
	",", "\\,",
	".", "\\.",
	"<", "\\<",
	">", "\\>",
	"{", "\\{",
	"}", "\\}",
	"\"", "\\\"",
	"'", "\\'",
	":", "\\:",
	";", "\\;",
	"!", "\\!",
	"@", "\\@",
	"#", "\\#",
	"$", "\\$",
	"%", "\\%",
	"^", "\\^",
	"&", "\\&",
	"*", "\\*",
	"(", "\\(",
	")", "\\)",
	"-", "\\-",
	"+", "\\+",
	"=", "\\=",
	"~", "\\~",
	"|", "\\|",
	"/", "\\/",
	" ", "\\ ",
)

func escapeQuery(s string) string {
	return queryEscaper.Replace(s)
}

var queryEscaper = strings.NewReplacer(
	`\`, `\\`,
	`'`, `\'`,
	`"`, `\"`,
	`@`, `\@`,
	`{`, `\{`,
	`}`, `\}`,
	`(`, `\(`,
	`)`, `\)`,
	`|`, `\|`,
	`-`, `\-`,
	`~`, `\~`,
	`*`, `\*`,
	`[`, `\[`,
	`]`, `\]`,
	`!`, `\!`,
	`%`, `\%`,
	`^`, `\^`,
	`$`, `\$`,
	`<`, `\<`,
	`>`, `\>`,
	`=`, `\=`,
	`;`, `\;`,
	`+`, `\+`,
)

func vectorToBytes(v []float32) string {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return string(buf)
}
