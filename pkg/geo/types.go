// Package geo provides common geographic types and calculations.
// It centralizes coordinate handling for the Zurich geoportal data,
// which is published either in WGS84 or in the Swiss LV95 grid.
package geo

import (
	"fmt"
	"math"
)

// EarthRadius is the mean radius of Earth according to WGS-84 in meters
const EarthRadius = 6371000.0

// Location represents a geographic coordinate (latitude and longitude)
// with standardized JSON field names.
//
// Example:
//
//	loc := geo.Location{Latitude: 47.3769, Longitude: 8.5417}
//	dist := geo.HaversineDistance(loc.Latitude, loc.Longitude, 47.3664, 8.5450)
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// String formats the location as "lat, lon" with five decimals (about one meter).
func (l Location) String() string {
	return fmt.Sprintf("%.5f, %.5f", l.Latitude, l.Longitude)
}

// BoundingBox represents a geographic bounding box with southwest and northeast corners
type BoundingBox struct {
	MinLat float64 // Southern edge (minimum latitude)
	MinLon float64 // Western edge (minimum longitude)
	MaxLat float64 // Northern edge (maximum latitude)
	MaxLon float64 // Eastern edge (maximum longitude)
}

// NewBoundingBox creates a new empty bounding box
func NewBoundingBox() *BoundingBox {
	return &BoundingBox{
		MinLat: 90.0, // Start with inverted min/max so any point extends correctly
		MinLon: 180.0,
		MaxLat: -90.0,
		MaxLon: -180.0,
	}
}

// Empty reports whether no point has been added yet.
func (bb *BoundingBox) Empty() bool {
	return bb.MinLat > bb.MaxLat || bb.MinLon > bb.MaxLon
}

// ExtendWithPoint extends the bounding box to include the specified point
func (bb *BoundingBox) ExtendWithPoint(lat, lon float64) {
	if lat < bb.MinLat {
		bb.MinLat = lat
	}
	if lat > bb.MaxLat {
		bb.MaxLat = lat
	}
	if lon < bb.MinLon {
		bb.MinLon = lon
	}
	if lon > bb.MaxLon {
		bb.MaxLon = lon
	}
}

// Contains reports whether the point lies inside the box, edges included.
func (bb *BoundingBox) Contains(lat, lon float64) bool {
	return lat >= bb.MinLat && lat <= bb.MaxLat && lon >= bb.MinLon && lon <= bb.MaxLon
}

// Buffer adds a buffer around the bounding box in meters.
// Longitude degrees shrink with latitude, so the east/west buffer is scaled
// by the cosine of the box's central latitude.
func (bb *BoundingBox) Buffer(bufferMeters float64) {
	latDegrees := bufferMeters / 111000
	centerLat := (bb.MinLat + bb.MaxLat) / 2
	lonDegrees := latDegrees
	if c := math.Cos(centerLat * math.Pi / 180); c > 0.01 {
		lonDegrees = latDegrees / c
	}
	bb.MinLat -= latDegrees
	bb.MaxLat += latDegrees
	bb.MinLon -= lonDegrees
	bb.MaxLon += lonDegrees

	// Ensure coordinates are within valid ranges
	bb.MinLat = math.Max(bb.MinLat, -90)
	bb.MaxLat = math.Min(bb.MaxLat, 90)
	bb.MinLon = math.Max(bb.MinLon, -180)
	bb.MaxLon = math.Min(bb.MaxLon, 180)
}

// String returns "minLat,minLon,maxLat,maxLon" with five decimals.
func (bb *BoundingBox) String() string {
	return fmt.Sprintf("%.5f,%.5f,%.5f,%.5f", bb.MinLat, bb.MinLon, bb.MaxLat, bb.MaxLon)
}

// HaversineDistance calculates the great-circle distance between two points
// on the Earth's surface given their latitude and longitude in degrees.
// The result is returned in meters.
func HaversineDistance(lat1, lon1, lat2, lon2 float64) float64 {
	lat1Rad := lat1 * math.Pi / 180.0
	lon1Rad := lon1 * math.Pi / 180.0
	lat2Rad := lat2 * math.Pi / 180.0
	lon2Rad := lon2 * math.Pi / 180.0

	dlat := lat2Rad - lat1Rad
	dlon := lon2Rad - lon1Rad
	a := math.Sin(dlat/2)*math.Sin(dlat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*
			math.Sin(dlon/2)*math.Sin(dlon/2)
	c := 2 * math.Asin(math.Sqrt(a))

	return EarthRadius * c
}

// ValidateCoords checks that latitude and longitude are within WGS84 ranges.
func ValidateCoords(lat, lon float64) error {
	if lat < -90 || lat > 90 {
		return fmt.Errorf("latitude %f out of range [-90, 90]", lat)
	}
	if lon < -180 || lon > 180 {
		return fmt.Errorf("longitude %f out of range [-180, 180]", lon)
	}
	return nil
}
