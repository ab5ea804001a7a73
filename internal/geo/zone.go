// internal/geo/zone.go
package geo

import (
	"math"

	geom "github.com/peterstace/simplefeatures/geom"
	"github.com/wroge/wgs84"

	"github.com/canaswarm/microbot/internal/model/core"
)

// ErrDegenerateBoundary is returned for zone boundaries with fewer than
// three distinct vertices.
var ErrDegenerateBoundary = ErrInvalidCoordinates

// BoundaryRing builds a closed EPSG:3857 ring from a zone boundary.
// The ring is closed automatically when the last vertex differs from
// the first.
func BoundaryRing(boundary []core.Position) (geom.LineString, error) {
	if len(boundary) < 3 {
		return geom.LineString{}, ErrDegenerateBoundary
	}
	for _, p := range boundary {
		if err := validate(p); err != nil {
			return geom.LineString{}, err
		}
	}

	epsg := wgs84.EPSG()
	transform := epsg.Transform(4326, 3857)

	flat := make([]float64, 0, (len(boundary)+1)*2)
	for _, p := range boundary {
		x, y, _ := transform(p.Lon, p.Lat, 0)
		flat = append(flat, x, y)
	}
	if boundary[0] != boundary[len(boundary)-1] {
		x, y, _ := transform(boundary[0].Lon, boundary[0].Lat, 0)
		flat = append(flat, x, y)
	}

	seq := geom.NewSequence(flat, geom.DimXY)
	return geom.NewLineString(seq), nil
}

// BoundaryAreaHa returns the approximate area of a zone boundary in
// hectares. The Web Mercator projection inflates areas by roughly
// 1/cos²(lat), so the polygon area is corrected at the mean boundary
// latitude. Intended for cross-checking zone_assignment.area_ha, not
// for survey-grade measurement.
func BoundaryAreaHa(boundary []core.Position) (float64, error) {
	ring, err := BoundaryRing(boundary)
	if err != nil {
		return 0, err
	}

	polygon := geom.NewPolygon([]geom.LineString{ring})
	areaM2 := polygon.Area()

	var meanLat float64
	for _, p := range boundary {
		meanLat += p.Lat
	}
	meanLat /= float64(len(boundary))
	scale := math.Cos(radians(meanLat))
	areaM2 *= scale * scale

	return areaM2 / 10000, nil
}

// RouteLine builds a WGS84 line string from a traversed position
// sequence, for export metadata. Returns an empty line string when
// fewer than two positions were recorded.
func RouteLine(positions []core.Position) geom.LineString {
	if len(positions) < 2 {
		return geom.LineString{}
	}
	flat := make([]float64, 0, len(positions)*2)
	for _, p := range positions {
		flat = append(flat, p.Lon, p.Lat)
	}
	return geom.NewLineString(geom.NewSequence(flat, geom.DimXY))
}
