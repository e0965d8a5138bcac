// Package document holds the search documents projected from catalog entities.
//
// Documents serialize to flat JSON objects whose keys are the schema field
// names. Optional values are pointers and are omitted when absent; counts,
// ratings and flags are always present.
package document

import (
	"time"

	"github.com/kailas-cloud/geodex/internal/domain"
	"github.com/kailas-cloud/geodex/internal/domain/geo"
)

// Document type values.
const (
	TypeLayer    = "layer"
	TypeMap      = "map"
	TypeDocument = "document"
	TypeUser     = "user"
	TypeGroup    = "group"
)

// Reference is an OGC service endpoint of a layer.
type Reference struct {
	Name   string `json:"name"`
	Scheme string `json:"scheme"`
	URL    string `json:"url"`
}

// Base is the field set shared by layers, maps and documents.
type Base struct {
	ID                      int64         `json:"id"`
	Abstract                string        `json:"abstract"`
	CategoryDescription     *string       `json:"category__gn_description,omitempty"`
	CSWType                 string        `json:"csw_type"`
	CSWWKTGeometry          string        `json:"csw_wkt_geometry"`
	DetailURL               string        `json:"detail_url"`
	OwnerUsername           *string       `json:"owner__username,omitempty"`
	PopularCount            int           `json:"popular_count"`
	ShareCount              int           `json:"share_count"`
	Rating                  float64       `json:"rating"`
	SRID                    string        `json:"srid"`
	SupplementalInformation string        `json:"supplemental_information"`
	ThumbnailURL            string        `json:"thumbnail_url"`
	UUID                    string        `json:"uuid"`
	Title                   string        `json:"title"`
	Date                    *time.Time    `json:"date,omitempty"`
	Type                    string        `json:"type"`
	TitleSortable           string        `json:"title_sortable"`
	Category                *string       `json:"category,omitempty"`
	BBox                    *geo.Envelope `json:"bbox,omitempty"`
	TemporalExtentStart     *time.Time    `json:"temporal_extent_start,omitempty"`
	TemporalExtentEnd       *time.Time    `json:"temporal_extent_end,omitempty"`
	Keywords                []string      `json:"keywords,omitempty"`
	Regions                 []string      `json:"regions,omitempty"`
	NumRatings              int           `json:"num_ratings"`
	NumComments             int           `json:"num_comments"`
	License                 *string       `json:"license,omitempty"`
}

// LayerExtension holds the fields only layer documents carry.
type LayerExtension struct {
	OwnerFirstName *string     `json:"owner__first_name,omitempty"`
	OwnerLastName  *string     `json:"owner__last_name,omitempty"`
	IsPublished    bool        `json:"is_published"`
	Featured       bool        `json:"featured"`
	Subtype        *string     `json:"subtype,omitempty"`
	TypeName       string      `json:"typename"`
	GeogigLink     string      `json:"geogig_link"`
	HasTime        bool        `json:"has_time"`
	References     []Reference `json:"references,omitempty"`
	SourceHost     *string     `json:"source_host,omitempty"`
	Classification string      `json:"classification"`
	Caveat         string      `json:"caveat"`
	Provenance     string      `json:"provenance"`
	POCName        string      `json:"poc_name"`
}

// Resource is a layer, map or document search document. Kind selects the
// variant: only layers carry a LayerExtension.
type Resource struct {
	Kind domain.Kind `json:"-"`
	Base
	*LayerExtension
}

// Profile is a user search document.
type Profile struct {
	ID               int64      `json:"id"`
	Username         string     `json:"username"`
	FirstName        string     `json:"first_name"`
	LastName         string     `json:"last_name"`
	Profile          string     `json:"profile"`
	Organization     string     `json:"organization"`
	Position         string     `json:"position"`
	Type             string     `json:"type"`
	Avatar           string     `json:"avatar_100"`
	LayersCount      int        `json:"layers_count"`
	MapsCount        int        `json:"maps_count"`
	DocumentsCount   int        `json:"documents_count"`
	ProfileDetailURL string     `json:"profile_detail_url"`
	DateJoined       *time.Time `json:"date_joined,omitempty"`
}

// Group is a group search document.
type Group struct {
	ID            int64      `json:"id"`
	Title         string     `json:"title"`
	Slug          string     `json:"slug"`
	TitleSortable string     `json:"title_sortable"`
	Description   string     `json:"description"`
	Type          string     `json:"type"`
	DetailURL     string     `json:"detail_url"`
	LastModified  *time.Time `json:"last_modified,omitempty"`
}

// TypeFor returns the document type value of a kind.
func TypeFor(k domain.Kind) string {
	switch k {
	case domain.KindLayer:
		return TypeLayer
	case domain.KindMap:
		return TypeMap
	case domain.KindDocument:
		return TypeDocument
	case domain.KindProfile:
		return TypeUser
	case domain.KindGroup:
		return TypeGroup
	}
	return ""
}
