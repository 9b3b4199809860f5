// internal/domain/tracking/night.go
package tracking

// SunWindow holds the UTC hours of sunrise and sunset for one day.
type SunWindow struct {
	SunriseHourUTC int // 0-23
	SunsetHourUTC  int // 0-23
}

// IsNight reports whether currentHourUTC is at or after sunset, or at or before
// sunrise. Both boundary hours count as night.
func IsNight(window SunWindow, currentHourUTC int) bool {
	return currentHourUTC >= window.SunsetHourUTC || currentHourUTC <= window.SunriseHourUTC
}
