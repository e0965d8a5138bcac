package health

import "context"

// Pinger is satisfied by the search store and the catalog.
type Pinger interface {
	Ping(ctx context.Context) error
}

// EmbeddingChecker is satisfied by the embedding provider.
type EmbeddingChecker interface {
	HealthCheck(ctx context.Context) error
}

// Component is one dependency checked by the service. Critical components
// make the report unhealthy when they fail; the rest only degrade it.
type Component struct {
	Name     string
	Critical bool
	Check    func(ctx context.Context) error
}

// SearchEngine checks the search store. Nothing can be served without it.
func SearchEngine(p Pinger) Component {
	return Component{Name: ComponentSearch, Critical: true, Check: p.Ping}
}

// Catalog checks the catalog. Search keeps working while it is down.
func Catalog(p Pinger) Component {
	return Component{Name: ComponentCatalog, Check: p.Ping}
}

// Embedding checks the embedding provider. Keyword search keeps working
// while it is down.
func Embedding(c EmbeddingChecker) Component {
	return Component{Name: ComponentEmbedding, Check: c.HealthCheck}
}
