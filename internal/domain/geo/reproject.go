package geo

import (
	"errors"
	"fmt"
	"math"
)

// semiMajorAxis is the WGS84 ellipsoid radius used by spherical web mercator.
const semiMajorAxis = 6378137.0

// ErrUnsupportedSRID is returned when no transform to WGS84 is known.
var ErrUnsupportedSRID = errors.New("unsupported srid")

// ToWGS84 reprojects the corners (minX, minY, maxX, maxY) from the
// given EPSG code to EPSG:4326 longitude/latitude.
func ToWGS84(srid int, minX, minY, maxX, maxY float64) ([4]float64, error) {
	switch {
	case geographicCodes[srid]:
		return [4]float64{minX, minY, maxX, maxY}, nil
	case webMercatorCodes[srid]:
		lon0, lat0 := inverseMercator(minX, minY)
		lon1, lat1 := inverseMercator(maxX, maxY)
		return [4]float64{lon0, lat0, lon1, lat1}, nil
	}
	return [4]float64{}, fmt.Errorf("%w: EPSG:%d", ErrUnsupportedSRID, srid)
}

func inverseMercator(x, y float64) (lon, lat float64) {
	lon = x / semiMajorAxis * 180 / math.Pi
	lat = (2*math.Atan(math.Exp(y/semiMajorAxis)) - math.Pi/2) * 180 / math.Pi
	return lon, lat
}
