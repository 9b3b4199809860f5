// internal/domain/tracking/sources.go
package tracking

import "context"

// PositionSource supplies the current subpoint of the tracked object.
// Implementations wrap network and decode errors with ErrSourceUnavailable.
type PositionSource interface {
	FetchPosition(ctx context.Context) (GeoCoordinate, error)
}

// SunTimesSource supplies today's sunrise and sunset hours for a coordinate.
// Implementations wrap network and decode errors with ErrSourceUnavailable.
type SunTimesSource interface {
	FetchSunWindow(ctx context.Context, coord GeoCoordinate) (SunWindow, error)
}
