package geo

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/wkt"
)

// ErrInvalidEnvelope is returned for non-finite or inverted corners.
var ErrInvalidEnvelope = errors.New("invalid envelope")

// Envelope is an axis-aligned rectangle in WGS84 longitude/latitude.
type Envelope struct {
	bounds *geom.Bounds
}

// NewEnvelope validates the corners: all four finite, min < max on both axes.
func NewEnvelope(minX, minY, maxX, maxY float64) (Envelope, error) {
	for _, v := range []float64{minX, minY, maxX, maxY} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return Envelope{}, fmt.Errorf("%w: non-finite coordinate", ErrInvalidEnvelope)
		}
	}
	if minX >= maxX || minY >= maxY {
		return Envelope{}, fmt.Errorf("%w: min must be below max on both axes", ErrInvalidEnvelope)
	}
	return Envelope{bounds: geom.NewBounds(geom.XY).Set(minX, minY, maxX, maxY)}, nil
}

// MinX returns the western edge.
func (e Envelope) MinX() float64 { return e.bounds.Min(0) }

// MinY returns the southern edge.
func (e Envelope) MinY() float64 { return e.bounds.Min(1) }

// MaxX returns the eastern edge.
func (e Envelope) MaxX() float64 { return e.bounds.Max(0) }

// MaxY returns the northern edge.
func (e Envelope) MaxY() float64 { return e.bounds.Max(1) }

// IsZero reports whether e was never set.
func (e Envelope) IsZero() bool { return e.bounds == nil }

// Intersects reports whether e and o share at least one point.
func (e Envelope) Intersects(o Envelope) bool {
	if e.IsZero() || o.IsZero() {
		return false
	}
	return e.bounds.Overlaps(geom.XY, o.bounds)
}

// WKT renders e as a closed polygon.
func (e Envelope) WKT() (string, error) {
	if e.IsZero() {
		return "", ErrInvalidEnvelope
	}
	return wkt.Marshal(e.bounds.Polygon())
}

func (e Envelope) String() string {
	if e.IsZero() {
		return "None"
	}
	return fmt.Sprintf("envelope[[%g, %g], [%g, %g]]", e.MinX(), e.MinY(), e.MaxX(), e.MaxY())
}

type envelopeJSON struct {
	Type        string        `json:"type"`
	Coordinates [2][2]float64 `json:"coordinates"`
}

// MarshalJSON emits the geo-shape envelope form with corners
// [[minx, miny], [maxx, maxy]].
func (e Envelope) MarshalJSON() ([]byte, error) {
	if e.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(envelopeJSON{
		Type: "envelope",
		Coordinates: [2][2]float64{
			{e.MinX(), e.MinY()},
			{e.MaxX(), e.MaxY()},
		},
	})
}

// UnmarshalJSON accepts the form produced by MarshalJSON.
func (e *Envelope) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*e = Envelope{}
		return nil
	}
	var v envelopeJSON
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("decode envelope: %w", err)
	}
	if v.Type != "envelope" {
		return fmt.Errorf("%w: unexpected shape type %q", ErrInvalidEnvelope, v.Type)
	}
	env, err := NewEnvelope(v.Coordinates[0][0], v.Coordinates[0][1], v.Coordinates[1][0], v.Coordinates[1][1])
	if err != nil {
		return err
	}
	*e = env
	return nil
}
