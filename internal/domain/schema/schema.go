package schema

import (
	"fmt"

	"github.com/kailas-cloud/geodex/internal/domain"
)

// Index names.
const (
	LayerIndex    = "layer-index"
	MapIndex      = "map-index"
	DocumentIndex = "document-index"
	ProfileIndex  = "profile-index"
	GroupIndex    = "group-index"
	// ResourceIndex spans the layer, map and document indexes.
	ResourceIndex = "resource-index"
)

// Schema binds a field set to an index.
type Schema struct {
	Index  string
	Kind   domain.Kind
	Fields []Field
	// Sources lists the indexes an alias schema spans; empty for concrete indexes.
	Sources []string
}

// IsAlias reports whether the schema spans other indexes.
func (s *Schema) IsAlias() bool { return len(s.Sources) > 0 }

// Leaves returns the flattened indexable fields.
func (s *Schema) Leaves() []Leaf { return Flatten(s.Fields) }

// Leaf returns the leaf with the given indexed name.
func (s *Schema) Leaf(name string) (Leaf, bool) {
	for _, l := range s.Leaves() {
		if l.Name == name {
			return l, true
		}
	}
	return Leaf{}, false
}

// resourceFields is the field set shared by layers, maps and documents.
func resourceFields() []Field {
	return []Field{
		integer("id"),
		text("abstract", patternSub, englishSub),
		text("category__gn_description"),
		keyword("csw_type"),
		keyword("csw_wkt_geometry"),
		keyword("detail_url"),
		keyword("owner__username", textSub),
		sortableInteger("popular_count"),
		integer("share_count"),
		{Name: "rating", Type: Float, Sortable: true},
		keyword("srid"),
		text("supplemental_information"),
		keyword("thumbnail_url"),
		keyword("uuid"),
		text("title", patternSub, englishSub),
		date("date"),
		keyword("type", textSub, englishSub),
		{Name: "title_sortable", Type: Keyword, Sortable: true},
		keyword("category", textSub, englishSub),
		{Name: "bbox", Type: GeoShape},
		date("temporal_extent_start"),
		date("temporal_extent_end"),
		keywords("keywords", textSub, englishSub),
		keywords("regions", textSub, englishSub),
		integer("num_ratings"),
		integer("num_comments"),
		keyword("license", textSub, englishSub),
	}
}

// layerFields extends the resource set with layer-only fields.
func layerFields() []Field {
	return append(resourceFields(),
		text("owner__first_name"),
		text("owner__last_name"),
		boolean("is_published"),
		boolean("featured"),
		keyword("subtype", textSub),
		keyword("typename"),
		keyword("geogig_link"),
		boolean("has_time"),
		Field{
			Name:  "references",
			Type:  Nested,
			Multi: true,
			Properties: []Field{
				text("url"),
				keyword("name", textSub),
				keyword("scheme", textSub, patternSub),
			},
		},
		keyword("source_host", textSub),
		keyword("classification", textSub, englishSub),
		keyword("caveat", textSub, englishSub),
		keyword("provenance", textSub, englishSub),
		keyword("poc_name", textSub, englishSub),
	)
}

func profileFields() []Field {
	return []Field{
		integer("id"),
		keyword("username", textSub, englishSub),
		text("first_name"),
		text("last_name"),
		keyword("profile"),
		text("organization"),
		keyword("position"),
		keyword("type", textSub, englishSub),
		text("avatar_100"),
		integer("layers_count"),
		integer("maps_count"),
		integer("documents_count"),
		text("profile_detail_url"),
		date("date_joined"),
	}
}

func groupFields() []Field {
	return []Field{
		integer("id"),
		text("title", patternSub, englishSub),
		{Name: "title_sortable", Type: Keyword, Sortable: true},
		text("slug"),
		text("description"),
		text("json"),
		keyword("type", textSub, englishSub),
		text("detail_url"),
		date("last_modified"),
	}
}

// Layer returns the layer schema.
func Layer() *Schema {
	return &Schema{Index: LayerIndex, Kind: domain.KindLayer, Fields: layerFields()}
}

// Map returns the map schema.
func Map() *Schema {
	return &Schema{Index: MapIndex, Kind: domain.KindMap, Fields: resourceFields()}
}

// Document returns the document schema.
func Document() *Schema {
	return &Schema{Index: DocumentIndex, Kind: domain.KindDocument, Fields: resourceFields()}
}

// Profile returns the profile schema.
func Profile() *Schema {
	return &Schema{Index: ProfileIndex, Kind: domain.KindProfile, Fields: profileFields()}
}

// Group returns the group schema.
func Group() *Schema {
	return &Schema{Index: GroupIndex, Kind: domain.KindGroup, Fields: groupFields()}
}

// Resource returns the cross-kind alias over layers, maps and documents.
// Only the shared resource fields are queryable through it.
func Resource() *Schema {
	return &Schema{
		Index:   ResourceIndex,
		Fields:  resourceFields(),
		Sources: []string{LayerIndex, MapIndex, DocumentIndex},
	}
}

// All returns every schema, concrete indexes first.
func All() []*Schema {
	return []*Schema{Layer(), Map(), Document(), Profile(), Group(), Resource()}
}

// ForKind returns the schema of a concrete kind.
func ForKind(k domain.Kind) (*Schema, error) {
	switch k {
	case domain.KindLayer:
		return Layer(), nil
	case domain.KindMap:
		return Map(), nil
	case domain.KindDocument:
		return Document(), nil
	case domain.KindProfile:
		return Profile(), nil
	case domain.KindGroup:
		return Group(), nil
	}
	return nil, fmt.Errorf("%w: %q", domain.ErrUnknownKind, k)
}

// ForIndex returns the schema bound to an index name.
func ForIndex(name string) (*Schema, bool) {
	for _, s := range All() {
		if s.Index == name {
			return s, true
		}
	}
	return nil, false
}
