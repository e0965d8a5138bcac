package document

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/kailas-cloud/geodex/internal/db"
	"github.com/kailas-cloud/geodex/internal/domain/geo"
	"github.com/kailas-cloud/geodex/internal/domain/schema"
)

// geoMirror is the stored companion of a geo-shape field.
type geoMirror struct {
	WKT  string  `json:"wkt"`
	MinX float64 `json:"minx"`
	MinY float64 `json:"miny"`
	MaxX float64 `json:"maxx"`
	MaxY float64 `json:"maxy"`
}

// withMirrors returns a copy of src extended with the reserved companion
// fields the backends index dates and shapes from. Absent values get no
// companion.
func withMirrors(s *schema.Schema, src map[string]any, vector []float32) (map[string]any, error) {
	out := make(map[string]any, len(src)+3)
	for k, v := range src {
		out[k] = v
	}

	stamps := map[string]int64{}
	shapes := map[string]geoMirror{}

	for _, l := range s.Leaves() {
		v, ok := src[l.Path]
		if !ok || v == nil {
			continue
		}
		switch l.Type {
		case schema.Date:
			ts, err := epochSeconds(v)
			if err != nil {
				return nil, fmt.Errorf("field %s: %w", l.Name, err)
			}
			stamps[l.Name] = ts
		case schema.GeoShape:
			m, err := shapeMirror(v)
			if err != nil {
				return nil, fmt.Errorf("field %s: %w", l.Name, err)
			}
			shapes[l.Name] = m
		}
	}

	if len(stamps) > 0 {
		out[db.FieldTimestamps] = stamps
	}
	if len(shapes) > 0 {
		out[db.FieldGeo] = shapes
	}
	if len(vector) > 0 {
		out[db.FieldVector] = vector
	}
	return out, nil
}

// withoutMirrors strips the reserved companion fields.
func withoutMirrors(src map[string]any) map[string]any {
	delete(src, db.FieldTimestamps)
	delete(src, db.FieldGeo)
	delete(src, db.FieldVector)
	return src
}

func epochSeconds(v any) (int64, error) {
	switch t := v.(type) {
	case time.Time:
		return t.Unix(), nil
	case *time.Time:
		return t.Unix(), nil
	case string:
		parsed, err := time.Parse(time.RFC3339Nano, t)
		if err != nil {
			return 0, fmt.Errorf("parse date: %w", err)
		}
		return parsed.Unix(), nil
	}
	return 0, fmt.Errorf("unexpected date value %T", v)
}

func shapeMirror(v any) (geoMirror, error) {
	var env geo.Envelope
	switch t := v.(type) {
	case geo.Envelope:
		env = t
	case *geo.Envelope:
		env = *t
	default:
		raw, err := json.Marshal(v)
		if err != nil {
			return geoMirror{}, fmt.Errorf("encode shape: %w", err)
		}
		if err := json.Unmarshal(raw, &env); err != nil {
			return geoMirror{}, err
		}
	}

	wkt, err := env.WKT()
	if err != nil {
		return geoMirror{}, fmt.Errorf("encode shape: %w", err)
	}
	return geoMirror{
		WKT:  wkt,
		MinX: env.MinX(),
		MinY: env.MinY(),
		MaxX: env.MaxX(),
		MaxY: env.MaxY(),
	}, nil
}
