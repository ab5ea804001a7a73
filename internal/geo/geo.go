// internal/geo/geo.go
package geo

import (
	"errors"
	"math"

	"github.com/canaswarm/microbot/internal/model/core"
)

// EarthRadiusM is the spherical Earth radius used for great-circle math.
const EarthRadiusM = 6371000

// ErrInvalidCoordinates is returned when a latitude or longitude is
// NaN, infinite, or outside its valid range.
var ErrInvalidCoordinates = errors.New("invalid coordinates provided")

// ValidatePosition reports ErrInvalidCoordinates when p is NaN,
// infinite, or outside the WGS84 lat/lon ranges.
func ValidatePosition(p core.Position) error {
	return validate(p)
}

func validate(p core.Position) error {
	if math.IsNaN(p.Lat) || math.IsInf(p.Lat, 0) || math.IsNaN(p.Lon) || math.IsInf(p.Lon, 0) {
		return ErrInvalidCoordinates
	}
	if p.Lat < -90 || p.Lat > 90 || p.Lon < -180 || p.Lon > 180 {
		return ErrInvalidCoordinates
	}
	return nil
}

// Distance returns the great-circle distance in meters between a and b
// using the Haversine formula. Symmetric; 0 for identical coordinates.
func Distance(a, b core.Position) (float64, error) {
	if err := validate(a); err != nil {
		return 0, err
	}
	if err := validate(b); err != nil {
		return 0, err
	}

	lat1 := radians(a.Lat)
	lat2 := radians(b.Lat)
	deltaLat := radians(b.Lat - a.Lat)
	deltaLon := radians(b.Lon - a.Lon)

	h := math.Sin(deltaLat/2)*math.Sin(deltaLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*
			math.Sin(deltaLon/2)*math.Sin(deltaLon/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return EarthRadiusM * c, nil
}

// Bearing returns the initial compass bearing in degrees [0,360) from a
// toward b (0 = north, 90 = east). Identical coordinates yield 0 by
// convention, not an error.
func Bearing(a, b core.Position) (float64, error) {
	if err := validate(a); err != nil {
		return 0, err
	}
	if err := validate(b); err != nil {
		return 0, err
	}
	if a.Lat == b.Lat && a.Lon == b.Lon {
		return 0, nil
	}

	lat1 := radians(a.Lat)
	lat2 := radians(b.Lat)
	deltaLon := radians(b.Lon - a.Lon)

	x := math.Sin(deltaLon) * math.Cos(lat2)
	y := math.Cos(lat1)*math.Sin(lat2) -
		math.Sin(lat1)*math.Cos(lat2)*math.Cos(deltaLon)

	deg := math.Atan2(x, y) * 180 / math.Pi
	return math.Mod(deg+360, 360), nil
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}
