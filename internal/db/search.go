package db

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/kailas-cloud/geodex/internal/domain/geo"
	"github.com/kailas-cloud/geodex/internal/domain/search/filter"
)

// TextMatch matches analyzed terms against any of Fields.
type TextMatch struct {
	Query  string
	Fields []string
}

// PatternTokenRegexp is the token rule of the pattern analyzer: runs of
// ASCII letters and digits. Everything else separates tokens.
const PatternTokenRegexp = `[^\W_]+`

var patternToken = regexp.MustCompile(PatternTokenRegexp)

// PrefixTerms splits typed input into lowercased tokens the way analyzer
// splits indexed text, so "Land-U" yields ["land", "u"]. The pattern
// analyzer keeps ASCII letters and digits; the others keep any letter,
// digit or underscore.
func PrefixTerms(input string, analyzer Analyzer) []string {
	var terms []string
	if analyzer == AnalyzerPattern {
		terms = patternToken.FindAllString(input, -1)
	} else {
		terms = strings.FieldsFunc(input, func(r rune) bool {
			return r != '_' && !unicode.IsLetter(r) && !unicode.IsDigit(r)
		})
	}
	for i, t := range terms {
		terms[i] = strings.ToLower(t)
	}
	return terms
}

// PrefixMatch matches input typed so far against Fields, which share
// Analyzer: every complete token exactly and the last one as a prefix.
type PrefixMatch struct {
	Prefix   string
	Fields   []string
	Analyzer Analyzer
}

// GeoIntersects keeps documents whose shape in Field intersects Envelope.
type GeoIntersects struct {
	Field    string
	Envelope geo.Envelope
}

// Query is the input for a search. Text, Prefix, Filters and Intersects
// are combined with AND; all empty matches every document. A non-empty
// Vector turns the query into a K-nearest-neighbour search pre-filtered by
// the other clauses.
type Query struct {
	IndexName  string
	Text       *TextMatch
	Prefix     *PrefixMatch
	Filters    filter.Expression
	Intersects *GeoIntersects

	Vector []float32
	K      int

	SortBy   string
	SortDesc bool
	Offset   int
	Limit    int
}

// IsKNN reports whether the query is a vector search.
func (q *Query) IsKNN() bool { return len(q.Vector) > 0 }

// SearchResult is the output of a search operation.
type SearchResult struct {
	Total   int
	Entries []SearchEntry
}

// SearchEntry is a single document hit from a search.
type SearchEntry struct {
	Key    string
	Index  string
	ID     string
	Score  float64
	Source []byte
}
