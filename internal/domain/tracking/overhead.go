// internal/domain/tracking/overhead.go
package tracking

// IsOverhead reports whether target falls inside the tolerance box around the
// observer. Both axes are checked independently with inclusive bounds.
//
// The box does not wrap at the antimeridian: an observer at -179 and a target
// at 179 are 358 degrees apart as far as this check is concerned.
func IsOverhead(observer ObserverConfig, target GeoCoordinate) bool {
	tol := observer.ToleranceDegrees
	loc := observer.Location

	latMatch := loc.Latitude-tol <= target.Latitude && target.Latitude <= loc.Latitude+tol
	longMatch := loc.Longitude-tol <= target.Longitude && target.Longitude <= loc.Longitude+tol

	return latMatch && longMatch
}
