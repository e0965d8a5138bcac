package result

import "encoding/json"

// Meta carries paging information of a result page.
type Meta struct {
	TotalCount int `json:"total_count"`
	Limit      int `json:"limit"`
	Offset     int `json:"offset"`
}

// Page is one page of search hits. Objects are the stored source documents.
type Page struct {
	Meta    Meta              `json:"meta"`
	Objects []json.RawMessage `json:"objects"`
}

// NewPage creates a page; a nil object list is normalized to empty.
func NewPage(total, limit, offset int, objects []json.RawMessage) Page {
	if objects == nil {
		objects = []json.RawMessage{}
	}
	return Page{
		Meta:    Meta{TotalCount: total, Limit: limit, Offset: offset},
		Objects: objects,
	}
}

// Suggestion is one autocomplete entry. ID is unique only within Type, so
// cross-kind lists are told apart by the pair.
type Suggestion struct {
	ID    string `json:"id"`
	Type  string `json:"type"`
	Label string `json:"label"`
	URL   string `json:"url"`
}

// Hit is one ranked document of a search. Source is the stored document
// without reserved fields.
type Hit struct {
	ID     string
	Index  string
	Score  float64
	Source json.RawMessage
}

// Key identifies the hit across indexes.
func (h Hit) Key() string { return h.Index + "/" + h.ID }

// Hits is a window of a ranked hit list and the total number of matches.
type Hits struct {
	Total int
	Items []Hit
}

// Sources returns the stored documents in rank order.
func (h Hits) Sources() []json.RawMessage {
	out := make([]json.RawMessage, 0, len(h.Items))
	for _, it := range h.Items {
		out = append(out, it.Source)
	}
	return out
}
