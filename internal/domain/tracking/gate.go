// internal/domain/tracking/gate.go
package tracking

import (
	"sync"
	"time"
)

// DefaultCooldown is the minimum gap between two successful notifications.
const DefaultCooldown = time.Hour

// GateState is derived from the time elapsed since the last successful send.
type GateState string

const (
	GateArmed   GateState = "ARMED"
	GateCooling GateState = "COOLING"
)

// NotificationGate rate-limits notifications. Checking and committing are
// separate: TryAcquire never consumes the gate, RecordSent must be called
// only after the notifier confirmed delivery.
type NotificationGate struct {
	mu         sync.Mutex
	lastSentAt time.Time // zero until the first successful send
	cooldown   time.Duration
}

// NewNotificationGate returns an armed gate. A non-positive cooldown falls
// back to DefaultCooldown.
func NewNotificationGate(cooldown time.Duration) *NotificationGate {
	if cooldown <= 0 {
		cooldown = DefaultCooldown
	}
	return &NotificationGate{cooldown: cooldown}
}

// TryAcquire reports whether a notification may be sent at now.
func (g *NotificationGate) TryAcquire(now time.Time) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.armedLocked(now)
}

// RecordSent commits a confirmed dispatch. Timestamps older than the one
// already recorded are ignored so lastSentAt never moves backwards.
func (g *NotificationGate) RecordSent(now time.Time) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if now.After(g.lastSentAt) {
		g.lastSentAt = now
	}
}

// State reports whether the gate would grant a send at now.
func (g *NotificationGate) State(now time.Time) GateState {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.armedLocked(now) {
		return GateArmed
	}
	return GateCooling
}

// LastSentAt returns the last committed send time and whether one exists.
func (g *NotificationGate) LastSentAt() (time.Time, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.lastSentAt, !g.lastSentAt.IsZero()
}

// Cooldown returns the configured cooldown.
func (g *NotificationGate) Cooldown() time.Duration {
	return g.cooldown
}

func (g *NotificationGate) armedLocked(now time.Time) bool {
	if g.lastSentAt.IsZero() {
		return true
	}
	return now.Sub(g.lastSentAt) > g.cooldown
}
