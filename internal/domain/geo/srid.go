package geo

import (
	"fmt"
	"strconv"
	"strings"
)

// WGS84 is the EPSG code of the canonical reference system for indexed envelopes.
const WGS84 = 4326

// Reference systems the reprojection understands.
var (
	geographicCodes = map[int]bool{
		4326: true, // WGS 84
		4269: true, // NAD83, within index tolerance of WGS 84
	}
	webMercatorCodes = map[int]bool{
		3857:   true,
		900913: true,
		3785:   true,
		102100: true,
		102113: true,
	}
)

// ParseSRID parses "EPSG:3857", "epsg:3857" or "3857" into an EPSG code.
func ParseSRID(s string) (int, error) {
	v := strings.TrimSpace(s)
	if i := strings.LastIndex(v, ":"); i >= 0 {
		if !strings.EqualFold(v[:i], "EPSG") {
			return 0, fmt.Errorf("unsupported authority %q", v[:i])
		}
		v = v[i+1:]
	}
	code, err := strconv.Atoi(v)
	if err != nil || code <= 0 {
		return 0, fmt.Errorf("invalid srid %q", s)
	}
	return code, nil
}

// Supported reports whether envelopes in code can be reprojected to WGS84.
func Supported(code int) bool {
	return geographicCodes[code] || webMercatorCodes[code]
}
