package domain

import (
	"fmt"
	"strings"
	"time"
)

// Kind identifies a catalog entity kind.
type Kind string

// Catalog entity kinds.
const (
	KindLayer    Kind = "layer"
	KindMap      Kind = "map"
	KindDocument Kind = "document"
	KindProfile  Kind = "profile"
	KindGroup    Kind = "group"
)

// ResourceKinds lists the kinds backed by a Resource record.
var ResourceKinds = []Kind{KindLayer, KindMap, KindDocument}

// AllKinds lists every indexable kind.
var AllKinds = []Kind{KindLayer, KindMap, KindDocument, KindProfile, KindGroup}

// ParseKind resolves a kind name; plural forms are accepted.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.TrimSuffix(strings.ToLower(strings.TrimSpace(s)), "s"))
	switch k {
	case KindLayer, KindMap, KindDocument, KindProfile, KindGroup:
		return k, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// IsResource reports whether k is a layer, map or document.
func (k Kind) IsResource() bool {
	return k == KindLayer || k == KindMap || k == KindDocument
}

// Store types reported by the map server for layers.
const (
	StoreTypeData     = "dataStore"
	StoreTypeCoverage = "coverageStore"
	StoreTypeRemote   = "remoteStore"
)

// Remote service discovery methods.
const (
	ServiceMethodIndexed   = "I"
	ServiceMethodHarvested = "H"
	ServiceMethodCascaded  = "C"
)

// owsLinkTypes are the link types served by an OGC web service endpoint.
var owsLinkTypes = map[string]bool{
	"OGC:WMS": true,
	"OGC:WFS": true,
	"OGC:WCS": true,
}

// RawBBox is a bounding box as stored in the catalog: four coordinate
// strings in the declared reference system. An empty string is a missing value.
type RawBBox struct {
	MinX string
	MinY string
	MaxX string
	MaxY string
}

// Complete reports whether all four coordinates are present.
func (b RawBBox) Complete() bool {
	return b.MinX != "" && b.MinY != "" && b.MaxX != "" && b.MaxY != ""
}

func (b RawBBox) String() string {
	return fmt.Sprintf("[%s, %s, %s, %s]", orNone(b.MinX), orNone(b.MinY), orNone(b.MaxX), orNone(b.MaxY))
}

func orNone(s string) string {
	if s == "" {
		return "None"
	}
	return s
}

// Category is a topic category.
type Category struct {
	Identifier  string
	Description string
}

// License is a resource license.
type License struct {
	Name string
}

// RemoteService is the remote OGC service a resource was harvested from.
type RemoteService struct {
	BaseURL  string
	Method   string
	SRID     string
	Category *Category
}

// Link is a resource link (download, OGC endpoint, metadata).
type Link struct {
	Name     string
	LinkType string
	URL      string
}

// IsOWS reports whether the link points at an OGC web service.
func (l Link) IsOWS() bool {
	return owsLinkTypes[l.LinkType]
}

// LayerAttrs holds the attributes only layers carry.
type LayerAttrs struct {
	StoreType      string
	TypeName       string
	GeogigLink     string
	Classification string
	Caveat         string
	Provenance     string
	POCName        string
}

// Resource is a layer, map or document from the catalog.
type Resource struct {
	Kind         Kind
	ID           int64
	UUID         string
	Title        string
	Abstract     string
	BBox         RawBBox
	SRID         string
	Owner        *Profile
	Category     *Category
	License      *License
	Keywords     []string
	Regions      []string
	IsPublished  bool
	Featured     bool
	PopularCount int
	ShareCount   int
	Date         time.Time

	// HasTemporalExtent is false when the record carries no temporal
	// attributes at all, as opposed to attributes that are merely unset.
	HasTemporalExtent   bool
	TemporalExtentStart *time.Time
	TemporalExtentEnd   *time.Time

	DetailURL               string
	ThumbnailURL            string
	CSWType                 string
	CSWWKTGeometry          string
	SupplementalInformation *string

	Service *RemoteService
	Links   []Link

	// Layer is set for KindLayer only.
	Layer *LayerAttrs
}

// StoreType returns the layer store type, or "" for maps and documents.
func (r *Resource) StoreType() string {
	if r.Layer == nil {
		return ""
	}
	return r.Layer.StoreType
}

// OWSLinks returns the links that point at OGC web services.
func (r *Resource) OWSLinks() []Link {
	var out []Link
	for _, l := range r.Links {
		if l.IsOWS() {
			out = append(out, l)
		}
	}
	return out
}
