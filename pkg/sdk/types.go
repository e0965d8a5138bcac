package geodex

import (
	"encoding/json"
	"time"
)

// Kind identifies a catalog entity kind.
type Kind string

// Kind constants.
const (
	KindLayer    Kind = "layer"
	KindMap      Kind = "map"
	KindDocument Kind = "document"
	KindProfile  Kind = "profile"
	KindGroup    Kind = "group"
)

// SearchMode controls the ranking strategy.
type SearchMode string

// Search mode constants.
const (
	ModeKeyword  SearchMode = "keyword"
	ModeSemantic SearchMode = "semantic"
	ModeHybrid   SearchMode = "hybrid"
)

// SearchParams narrow a search. Zero values leave a filter unset; Limit 0
// means the default page size.
type SearchParams struct {
	Query       string
	Mode        SearchMode
	Types       []string
	Categories  []string
	Keywords    []string
	Regions     []string
	Owners      []string
	Subtypes    []string
	Licenses    []string
	HasTime     *bool
	Featured    *bool
	IsPublished *bool
	DateGTE     *time.Time
	DateLTE     *time.Time
	// Extent is "minx,miny,maxx,maxy" in WGS84.
	Extent string
	// OrderBy is a sortable field, prefixed with "-" for descending.
	OrderBy string
	Limit   int
	Offset  int
}

// Page is one page of search results. Objects are the indexed documents.
type Page struct {
	Total   int
	Limit   int
	Offset  int
	Objects []json.RawMessage
}

// Suggestion is one autocomplete entry.
type Suggestion struct {
	ID    string
	Kind  Kind
	Label string
	URL   string
}

// Document is an indexed search document.
type Document struct {
	ID     string
	Index  string
	Source map[string]any
}

// BulkStats counts the outcome of reindexing one kind.
type BulkStats struct {
	Kind    Kind
	Indexed int
	Failed  int
}

// ImportStats counts the entities written by a catalog import.
type ImportStats struct {
	Profiles  int
	Groups    int
	Resources int
}
