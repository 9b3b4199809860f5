// internal/domain/tracking/coordinate.go
package tracking

import "fmt"

// GeoCoordinate is a point on the Earth's surface in decimal degrees.
type GeoCoordinate struct {
	Latitude  float64 // [-90, 90]
	Longitude float64 // [-180, 180]
}

// Validate reports whether the coordinate lies inside the valid lat/long ranges.
func (c GeoCoordinate) Validate() error {
	if c.Latitude < -90 || c.Latitude > 90 {
		return fmt.Errorf("latitude %.6f out of range [-90, 90]", c.Latitude)
	}
	if c.Longitude < -180 || c.Longitude > 180 {
		return fmt.Errorf("longitude %.6f out of range [-180, 180]", c.Longitude)
	}
	return nil
}

func (c GeoCoordinate) String() string {
	return fmt.Sprintf("%.3f, %.3f", c.Latitude, c.Longitude)
}

// ObserverConfig is the fixed location being watched and how close the ISS
// subpoint has to be to count as overhead.
type ObserverConfig struct {
	Location         GeoCoordinate
	ToleranceDegrees float64
}
