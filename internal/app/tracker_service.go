// internal/app/tracker_service.go
package app

import (
	"context"
	"errors"
	"fmt"
	"iss_overhead_notifier/internal/domain/event"
	"iss_overhead_notifier/internal/domain/notification"
	"iss_overhead_notifier/internal/domain/tracking"
	"iss_overhead_notifier/internal/infra/metrics"
	"time"

	"github.com/sirupsen/logrus"
)

const recordTimeout = 5 * time.Second

// TrackerService runs one poll cycle.
type TrackerService interface {
	// Tick fetches both sources, evaluates the predicates and notifies when
	// the ISS is overhead at night and the gate allows it. Known transient
	// failures are logged and absorbed; a returned error is a fault the
	// caller must not swallow.
	Tick(ctx context.Context) (tracking.PollResult, error)
}

// TrackerServiceImpl implements the TrackerService interface.
type TrackerServiceImpl struct {
	observer  tracking.ObserverConfig
	positions tracking.PositionSource
	sunTimes  tracking.SunTimesSource
	gate      *tracking.NotificationGate
	notifier  notification.Notifier
	recorder  event.Recorder
	metrics   *metrics.Metrics
	logger    *logrus.Entry
	now       func() time.Time
}

func NewTrackerServiceImpl(
	observer tracking.ObserverConfig,
	ps tracking.PositionSource,
	ss tracking.SunTimesSource,
	gate *tracking.NotificationGate,
	n notification.Notifier,
	rec event.Recorder, // nil disables the event log
	m *metrics.Metrics, // nil keeps counters on a private registry
	logger *logrus.Entry,
) *TrackerServiceImpl {
	if rec == nil {
		rec = event.NopRecorder{}
	}
	if m == nil {
		m = metrics.New()
	}
	return &TrackerServiceImpl{
		observer:  observer,
		positions: ps,
		sunTimes:  ss,
		gate:      gate,
		notifier:  n,
		recorder:  rec,
		metrics:   m,
		logger:    logger,
		now:       time.Now,
	}
}

// WithClock replaces the time source. Intended for tests.
func (s *TrackerServiceImpl) WithClock(now func() time.Time) *TrackerServiceImpl {
	s.now = now
	return s
}

func (s *TrackerServiceImpl) Tick(ctx context.Context) (tracking.PollResult, error) {
	started := time.Now()
	defer func() { s.metrics.TickDuration.Observe(time.Since(started).Seconds()) }()

	now := s.now().UTC()
	result := tracking.PollResult{TimestampUTC: now}
	s.logger.Debug("Checking ISS position...")

	// 1. Position. Unavailable means not overhead for this tick.
	pos, err := s.positions.FetchPosition(ctx)
	switch {
	case err == nil:
		result.Position = &pos
		result.Overhead = tracking.IsOverhead(s.observer, pos)
		if result.Overhead {
			s.logger.WithField("iss_position", pos.String()).Info("ISS is overhead")
		} else {
			s.logger.WithField("iss_position", pos.String()).Debug("ISS not overhead")
		}
	case errors.Is(ctx.Err(), context.Canceled):
		return result, nil // Shutting down
	case errors.Is(err, tracking.ErrSourceUnavailable):
		s.logger.WithError(err).Warn("Could not fetch ISS position, assuming not overhead")
		s.metrics.SourceFailures.WithLabelValues(metrics.SourcePosition).Inc()
		s.record(ctx, event.KindPositionFailed, err.Error(), nil, now)
	default:
		return result, fmt.Errorf("fetch iss position: %w", err)
	}

	// 2. Sun times. Unavailable means daytime for this tick.
	window, err := s.sunTimes.FetchSunWindow(ctx, s.observer.Location)
	switch {
	case err == nil:
		result.Night = tracking.IsNight(window, now.Hour())
		s.logger.WithFields(logrus.Fields{
			"sunrise_hour_utc": window.SunriseHourUTC,
			"sunset_hour_utc":  window.SunsetHourUTC,
			"current_hour_utc": now.Hour(),
			"night":            result.Night,
		}).Debug("Evaluated sun times")
	case errors.Is(ctx.Err(), context.Canceled):
		return result, nil
	case errors.Is(err, tracking.ErrSourceUnavailable):
		s.logger.WithError(err).Warn("Could not determine sun times, assuming daytime")
		s.metrics.SourceFailures.WithLabelValues(metrics.SourceSunTimes).Inc()
		s.record(ctx, event.KindSunTimesFailed, err.Error(), result.Position, now)
	default:
		return result, fmt.Errorf("fetch sun times: %w", err)
	}

	// 3. Decide.
	switch {
	case result.Overhead && result.Night:
		s.logger.Info("ISS is overhead during nighttime!")
		if err := s.notify(ctx, result); err != nil {
			return result, err
		}
	case result.Overhead:
		s.logger.Info("ISS is overhead but it's daytime")
		s.metrics.TicksTotal.WithLabelValues(metrics.OutcomeOverheadDaytime).Inc()
		s.record(ctx, event.KindOverheadDaytime, "ISS overhead during daytime", result.Position, now)
	case result.Night:
		s.logger.Debug("It's nighttime but ISS is not overhead")
		s.metrics.TicksTotal.WithLabelValues(metrics.OutcomeNightOnly).Inc()
	default:
		s.logger.Debug("Daytime and ISS not overhead")
		s.metrics.TicksTotal.WithLabelValues(metrics.OutcomeIdle).Inc()
	}
	return result, nil
}

// notify consults the gate and commits it only after confirmed delivery.
func (s *TrackerServiceImpl) notify(ctx context.Context, result tracking.PollResult) error {
	now := result.TimestampUTC
	if !s.gate.TryAcquire(now) {
		last, _ := s.gate.LastSentAt()
		s.logger.WithField("last_sent_at", last.Format(time.RFC3339)).Info("Skipping notification (cooldown active)")
		s.metrics.TicksTotal.WithLabelValues(metrics.OutcomeCooldown).Inc()
		s.record(ctx, event.KindCooldownSkip, "notification suppressed by cooldown", result.Position, now)
		return nil
	}

	payload := notification.Payload{Observer: s.observer.Location, SentAt: now}
	if result.Position != nil {
		payload.Position = *result.Position
	}

	err := s.notifier.Send(ctx, payload)
	switch {
	case err == nil:
		s.gate.RecordSent(now)
		s.logger.Info("Notification sent successfully")
		s.metrics.TicksTotal.WithLabelValues(metrics.OutcomeNotified).Inc()
		s.metrics.LastNotified.Set(float64(now.Unix()))
		s.record(ctx, event.KindNotificationSent, "overhead notification delivered", result.Position, now)
		return nil
	case errors.Is(ctx.Err(), context.Canceled):
		return nil
	case errors.Is(err, tracking.ErrAuthFailure):
		s.logger.WithError(err).Error("Notifier authentication failed, will retry next tick")
	case errors.Is(err, tracking.ErrTransportFailure):
		s.logger.WithError(err).Error("Failed to send notification, will retry next tick")
	default:
		return fmt.Errorf("send notification: %w", err)
	}

	s.metrics.TicksTotal.WithLabelValues(metrics.OutcomeSendFailed).Inc()
	s.record(ctx, event.KindNotificationFailed, err.Error(), result.Position, now)
	return nil
}

func (s *TrackerServiceImpl) record(ctx context.Context, kind event.Kind, msg string, pos *tracking.GeoCoordinate, at time.Time) {
	e := &event.Event{Kind: kind, Message: msg, OccurredAt: at}
	if pos != nil {
		lat, long := pos.Latitude, pos.Longitude
		e.Latitude, e.Longitude = &lat, &long
	}
	// A tick that ran out of time still gets its failure recorded.
	recordCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), recordTimeout)
	defer cancel()
	if err := s.recorder.Record(recordCtx, e); err != nil {
		s.logger.WithError(err).WithField("event_kind", kind).Warn("Failed to record tracker event")
	}
}
