// internal/domain/event/event.go
package event

import (
	"context"
	"time"
)

// Kind classifies an operational event worth keeping in the event log.
type Kind string

const (
	KindNotificationSent   Kind = "NOTIFICATION_SENT"
	KindNotificationFailed Kind = "NOTIFICATION_FAILED"
	KindCooldownSkip       Kind = "COOLDOWN_SKIP"
	KindOverheadDaytime    Kind = "OVERHEAD_DAYTIME"
	KindPositionFailed     Kind = "POSITION_UNAVAILABLE"
	KindSunTimesFailed     Kind = "SUN_TIMES_UNAVAILABLE"
)

// Event is one append-only record. Latitude/Longitude carry the ISS subpoint
// when it was known for the tick.
type Event struct {
	ID         int64
	Kind       Kind
	Message    string
	Latitude   *float64
	Longitude  *float64
	OccurredAt time.Time
}

// Recorder appends events. Implementations must not block the tick for long;
// callers log and ignore Record errors.
type Recorder interface {
	Record(ctx context.Context, e *Event) error
}

// NopRecorder drops every event.
type NopRecorder struct{}

func (NopRecorder) Record(_ context.Context, _ *Event) error { return nil }
