package document

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// Meta is the engine-managed identity of a stored document.
type Meta struct {
	ID    string `json:"_id"`
	Index string `json:"_index"`
}

// Materialized is a document as handed to the index: identity plus the
// flat source object.
type Materialized struct {
	Meta
	Source map[string]any `json:"_source"`
}

// Materialize encodes doc into its flat source form.
func Materialize(index string, id int64, doc any) (Materialized, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return Materialized{}, fmt.Errorf("encode %s/%d: %w", index, id, err)
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var src map[string]any
	if err := dec.Decode(&src); err != nil {
		return Materialized{}, fmt.Errorf("decode %s/%d: %w", index, id, err)
	}
	return Materialized{
		Meta:   Meta{ID: strconv.FormatInt(id, 10), Index: index},
		Source: src,
	}, nil
}

// Field returns a source value or nil when absent.
func (m Materialized) Field(name string) any {
	return m.Source[name]
}
