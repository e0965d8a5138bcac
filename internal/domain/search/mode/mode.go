package mode

// Mode is the search strategy.
type Mode string

// Search mode constants.
const (
	// Keyword ranks by text relevance over the analyzed fields.
	Keyword Mode = "keyword"
	// Semantic ranks by embedding similarity; requires an embedder and a
	// backend with vector search.
	Semantic Mode = "semantic"
	// Hybrid fuses the keyword and semantic rankings.
	Hybrid Mode = "hybrid"
)

// IsValid checks if the mode is one of the supported values.
func (m Mode) IsValid() bool {
	return m == Keyword || m == Semantic || m == Hybrid
}

// NeedsEmbedding reports whether the mode ranks by embedding similarity.
func (m Mode) NeedsEmbedding() bool {
	return m == Semantic || m == Hybrid
}
