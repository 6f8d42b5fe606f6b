package geo

// LV95 bounds covering Switzerland and Liechtenstein with some margin.
const (
	lv95MinEast  = 2400000.0
	lv95MaxEast  = 2900000.0
	lv95MinNorth = 1000000.0
	lv95MaxNorth = 1350000.0
)

// IsLV95 reports whether (east, north) looks like a Swiss LV95 grid coordinate.
func IsLV95(east, north float64) bool {
	return east >= lv95MinEast && east <= lv95MaxEast &&
		north >= lv95MinNorth && north <= lv95MaxNorth
}

// LV95ToWGS84 converts Swiss LV95 (EPSG:2056) coordinates to WGS84 using the
// swisstopo approximation formulas. Accuracy is about one meter.
func LV95ToWGS84(east, north float64) Location {
	y := (east - 2600000) / 1000000
	x := (north - 1200000) / 1000000

	lon := 2.6779094 +
		4.728982*y +
		0.791484*y*x +
		0.1306*y*x*x -
		0.0436*y*y*y

	lat := 16.9023892 +
		3.238272*x -
		0.270978*y*y -
		0.002528*x*x -
		0.0447*y*y*x -
		0.0140*x*x*x

	// unit 10000" -> degrees
	return Location{
		Latitude:  lat * 100 / 36,
		Longitude: lon * 100 / 36,
	}
}

// ToWGS84 interprets a GeoJSON position (x, y) and returns it as WGS84.
// Positions in the LV95 range are converted, anything else is taken as lon/lat.
func ToWGS84(x, y float64) Location {
	if IsLV95(x, y) {
		return LV95ToWGS84(x, y)
	}
	return Location{Latitude: y, Longitude: x}
}
