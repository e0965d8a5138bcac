// Package schema declares the search document field sets per entity kind.
//
// A schema is backend-neutral. Each field has a structural type and optional
// analyzed sub-fields; Flatten turns the declaration into indexable leaves
// whose names are shared by every search backend and by the query layer.
package schema

import "strings"

// FieldType is the structural type of a document field.
type FieldType int

// Field types.
const (
	Keyword FieldType = iota
	Text
	Integer
	Float
	Date
	Boolean
	GeoShape
	Nested
)

func (t FieldType) String() string {
	switch t {
	case Keyword:
		return "keyword"
	case Text:
		return "text"
	case Integer:
		return "integer"
	case Float:
		return "float"
	case Date:
		return "date"
	case Boolean:
		return "boolean"
	case GeoShape:
		return "geo_shape"
	case Nested:
		return "nested"
	}
	return "unknown"
}

// Analyzer names a text analysis chain.
type Analyzer string

// Analyzers.
const (
	Standard Analyzer = "standard"
	English  Analyzer = "english"
	// Pattern splits on non-word characters and underscores, then lowercases.
	Pattern Analyzer = "pattern"
)

// SubField is an analyzed companion of a field, indexed as "<field>_<name>".
type SubField struct {
	Name     string
	Analyzer Analyzer
}

// Common sub-field sets.
var (
	textSub    = SubField{Name: "text", Analyzer: Standard}
	englishSub = SubField{Name: "english", Analyzer: English}
	patternSub = SubField{Name: "pattern", Analyzer: Pattern}
)

// Field declares one document field.
type Field struct {
	Name       string
	Type       FieldType
	Analyzer   Analyzer // Text fields; empty means Standard
	Multi      bool     // value is a list
	Sortable   bool
	SubFields  []SubField
	Properties []Field // Nested only
}

// Leaf is a single indexable value produced by Flatten.
type Leaf struct {
	// Path locates the value in the document: dot-separated, "[]" marks a list.
	Path string
	// Name is the indexed name used in queries.
	Name     string
	Type     FieldType
	Analyzer Analyzer
	Multi    bool
	Sortable bool
}

// Flatten expands fields, sub-fields and nested properties into leaves.
func Flatten(fields []Field) []Leaf {
	var out []Leaf
	for i := range fields {
		out = appendLeaves(out, &fields[i], "", "")
	}
	return out
}

func appendLeaves(out []Leaf, f *Field, pathPrefix, namePrefix string) []Leaf {
	path := pathPrefix + f.Name
	name := namePrefix + f.Name

	if f.Type == Nested {
		inner := path
		if f.Multi {
			inner += "[]"
		}
		for i := range f.Properties {
			out = appendLeaves(out, &f.Properties[i], inner+".", name+"_")
		}
		return out
	}

	leafPath := path
	if f.Multi {
		leafPath += "[]"
	}
	analyzer := f.Analyzer
	if f.Type == Text && analyzer == "" {
		analyzer = Standard
	}
	out = append(out, Leaf{
		Path:     leafPath,
		Name:     name,
		Type:     f.Type,
		Analyzer: analyzer,
		Multi:    f.Multi || strings.Contains(pathPrefix, "[]"),
		Sortable: f.Sortable,
	})
	for _, sf := range f.SubFields {
		out = append(out, Leaf{
			Path:     leafPath,
			Name:     name + "_" + sf.Name,
			Type:     Text,
			Analyzer: sf.Analyzer,
			Multi:    f.Multi || strings.Contains(pathPrefix, "[]"),
		})
	}
	return out
}

func keyword(name string, subs ...SubField) Field {
	return Field{Name: name, Type: Keyword, SubFields: subs}
}

func keywords(name string, subs ...SubField) Field {
	return Field{Name: name, Type: Keyword, Multi: true, SubFields: subs}
}

func text(name string, subs ...SubField) Field {
	return Field{Name: name, Type: Text, SubFields: subs}
}

func integer(name string) Field {
	return Field{Name: name, Type: Integer}
}

func sortableInteger(name string) Field {
	return Field{Name: name, Type: Integer, Sortable: true}
}

func date(name string) Field {
	return Field{Name: name, Type: Date, Sortable: true}
}

func boolean(name string) Field {
	return Field{Name: name, Type: Boolean}
}
