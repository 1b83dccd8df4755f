// Package geo implements great-circle distance and circular geofence checks.
package geo

import (
	"math"
)

// EarthRadiusMeters is the mean Earth radius used by Distance
const EarthRadiusMeters = 6371000

// Fence is a circular boundary around a reference point
type Fence struct {
	Name         string
	Latitude     float64
	Longitude    float64
	RadiusMeters float64
}

// Point is a position on a path
type Point struct {
	Latitude  float64
	Longitude float64
}

// Distance calculates the distance in meters between two points using the Haversine formula
func Distance(lat1, lon1, lat2, lon2 float64) float64 {
	lat1Rad := lat1 * math.Pi / 180
	lat2Rad := lat2 * math.Pi / 180
	deltaLat := (lat2 - lat1) * math.Pi / 180
	deltaLon := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(deltaLat/2)*math.Sin(deltaLat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*
			math.Sin(deltaLon/2)*math.Sin(deltaLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadiusMeters * c
}

// Contains reports whether the point lies within the fence radius (boundary inclusive)
func (f Fence) Contains(lat, lon float64) bool {
	return Distance(lat, lon, f.Latitude, f.Longitude) <= f.RadiusMeters
}

// Classify returns the name of the first fence, in the order given, that contains the point.
// Overlapping fences are not ranked by distance: the caller's order decides.
func Classify(lat, lon float64, fences []Fence) (string, bool) {
	for _, f := range fences {
		if f.Contains(lat, lon) {
			return f.Name, true
		}
	}
	return "", false
}

// PathLength sums the distance between consecutive points
func PathLength(points []Point) float64 {
	var total float64
	for i := 1; i < len(points); i++ {
		total += Distance(points[i-1].Latitude, points[i-1].Longitude, points[i].Latitude, points[i].Longitude)
	}
	return total
}

// ValidCoordinates reports whether lat/lon are within range
func ValidCoordinates(lat, lon float64) bool {
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}
