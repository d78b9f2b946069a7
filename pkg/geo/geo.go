// Package geo provides spherical helpers for zone geometry.
package geo

import (
	"math"

	"github.com/golang/geo/s2"
	"github.com/paulmach/orb"

	"github.com/kass/go-geo-zones/pkg/models"
)

const earthRadius = 6371.0 // km

// Distance calculates the great-circle distance between two lat/lon points in kilometers
func Distance(lat1, lon1, lat2, lon2 float64) float64 {
	lat1Rad := lat1 * math.Pi / 180.0
	lon1Rad := lon1 * math.Pi / 180.0
	lat2Rad := lat2 * math.Pi / 180.0
	lon2Rad := lon2 * math.Pi / 180.0

	dLat := lat2Rad - lat1Rad
	dLon := lon2Rad - lon1Rad

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*
			math.Sin(dLon/2)*math.Sin(dLon/2)

	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadius * c
}

// DistanceBetween is Distance for two positions
func DistanceBetween(a, b models.Position) float64 {
	return Distance(a.LatitudeDegrees, a.LongitudeDegrees, b.LatitudeDegrees, b.LongitudeDegrees)
}

// SurfaceArea returns the true area of a lat/lon rectangle on a sphere of the given radius.
// Unlike the flat grid approximation it shrinks towards the poles.
func SurfaceArea(box models.BoundingBox, radiusKm float64) float64 {
	rect := s2.EmptyRect().
		AddPoint(s2.LatLngFromDegrees(box.BottomLeft.LatitudeDegrees, box.BottomLeft.LongitudeDegrees)).
		AddPoint(s2.LatLngFromDegrees(box.TopRight.LatitudeDegrees, box.TopRight.LongitudeDegrees))
	return rect.Area() * radiusKm * radiusKm
}

// Bound converts a bounding box to an orb bound (x = longitude, y = latitude)
func Bound(box models.BoundingBox) orb.Bound {
	return orb.Bound{
		Min: orb.Point{box.BottomLeft.LongitudeDegrees, box.BottomLeft.LatitudeDegrees},
		Max: orb.Point{box.TopRight.LongitudeDegrees, box.TopRight.LatitudeDegrees},
	}
}

// RadiusBox returns a box enclosing every point within radiusKm of center.
// The box is an approximation in degrees and is not clipped to valid ranges.
func RadiusBox(center models.Position, radiusKm float64) models.BoundingBox {
	dLat := (radiusKm / earthRadius) * (180 / math.Pi)
	dLon := 180.0
	if c := math.Cos(center.LatitudeRadians()); c > 1e-6 {
		dLon = math.Min(dLat/c, 180)
	}
	return models.BoundingBox{
		BottomLeft: models.NewPosition(center.LatitudeDegrees-dLat, center.LongitudeDegrees-dLon),
		TopRight:   models.NewPosition(center.LatitudeDegrees+dLat, center.LongitudeDegrees+dLon),
	}
}
