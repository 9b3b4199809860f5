// internal/domain/tracking/poll.go
package tracking

import "time"

// PollResult is the outcome of evaluating both predicates on one tick.
type PollResult struct {
	Overhead     bool
	Night        bool
	Position     *GeoCoordinate // nil when the position source failed
	TimestampUTC time.Time
}
