package app

import (
	"context"
	"errors"
	"fmt"
	"iss_overhead_notifier/internal/domain/event"
	"iss_overhead_notifier/internal/domain/notification"
	"iss_overhead_notifier/internal/domain/tracking"
	"iss_overhead_notifier/internal/infra/metrics"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
)

// Mock implementations for testing

type mockPositionSource struct {
	pos tracking.GeoCoordinate
	err error
}

func (m *mockPositionSource) FetchPosition(_ context.Context) (tracking.GeoCoordinate, error) {
	return m.pos, m.err
}

type mockSunTimesSource struct {
	window tracking.SunWindow
	err    error
}

func (m *mockSunTimesSource) FetchSunWindow(_ context.Context, _ tracking.GeoCoordinate) (tracking.SunWindow, error) {
	return m.window, m.err
}

type mockNotifier struct {
	mu    sync.Mutex
	err   error
	calls []notification.Payload
}

func (m *mockNotifier) Send(_ context.Context, p notification.Payload) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, p)
	return m.err
}

func (m *mockNotifier) Verify(_ context.Context) error { return nil }

func (m *mockNotifier) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

type mockRecorder struct {
	events []*event.Event
	err    error
}

func (m *mockRecorder) Record(_ context.Context, e *event.Event) error {
	m.events = append(m.events, e)
	return m.err
}

func (m *mockRecorder) kinds() []event.Kind {
	var out []event.Kind
	for _, e := range m.events {
		out = append(out, e.Kind)
	}
	return out
}

var (
	london   = tracking.ObserverConfig{Location: tracking.GeoCoordinate{Latitude: 51.507, Longitude: -0.128}, ToleranceDegrees: 5}
	overhead = tracking.GeoCoordinate{Latitude: 53.0, Longitude: -2.0}
	faraway  = tracking.GeoCoordinate{Latitude: -30.0, Longitude: 120.0}
	summer   = tracking.SunWindow{SunriseHourUTC: 6, SunsetHourUTC: 20}
)

type fixture struct {
	positions *mockPositionSource
	sunTimes  *mockSunTimesSource
	notifier  *mockNotifier
	recorder  *mockRecorder
	gate      *tracking.NotificationGate
	metrics   *metrics.Metrics
	hook      *test.Hook
	clock     time.Time
	svc       *TrackerServiceImpl
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)

	f := &fixture{
		positions: &mockPositionSource{pos: overhead},
		sunTimes:  &mockSunTimesSource{window: summer},
		notifier:  &mockNotifier{},
		recorder:  &mockRecorder{},
		gate:      tracking.NewNotificationGate(time.Hour),
		metrics:   metrics.New(),
		hook:      hook,
		clock:     time.Date(2026, 1, 10, 22, 0, 0, 0, time.UTC), // Night
	}
	f.svc = NewTrackerServiceImpl(london, f.positions, f.sunTimes, f.gate, f.notifier, f.recorder, f.metrics, logrus.NewEntry(logger)).
		WithClock(func() time.Time { return f.clock })
	return f
}

func (f *fixture) tick(t *testing.T) tracking.PollResult {
	t.Helper()
	result, err := f.svc.Tick(context.Background())
	if err != nil {
		t.Fatalf("Tick returned error: %v", err)
	}
	return result
}

func (f *fixture) outcome(name string) float64 {
	return testutil.ToFloat64(f.metrics.TicksTotal.WithLabelValues(name))
}

func TestTickNotifiesOncePerCooldown(t *testing.T) {
	f := newFixture(t)

	result := f.tick(t)
	if !result.Overhead || !result.Night {
		t.Fatalf("result = %+v, want overhead and night", result)
	}
	if f.notifier.callCount() != 1 {
		t.Fatalf("notifier called %d times, want 1", f.notifier.callCount())
	}
	if last, ok := f.gate.LastSentAt(); !ok || !last.Equal(f.clock) {
		t.Errorf("gate LastSentAt = %v, %v; want %v", last, ok, f.clock)
	}

	payload := f.notifier.calls[0]
	if payload.Observer != london.Location || payload.Position != overhead || !payload.SentAt.Equal(f.clock) {
		t.Errorf("unexpected payload %+v", payload)
	}

	f.clock = f.clock.Add(time.Minute)
	f.tick(t)
	if f.notifier.callCount() != 1 {
		t.Errorf("notifier called %d times within cooldown, want 1", f.notifier.callCount())
	}
	if got := f.outcome(metrics.OutcomeCooldown); got != 1 {
		t.Errorf("cooldown ticks = %v, want 1", got)
	}

	f.clock = f.clock.Add(time.Hour)
	f.tick(t)
	if f.notifier.callCount() != 2 {
		t.Errorf("notifier called %d times after cooldown, want 2", f.notifier.callCount())
	}

	want := []event.Kind{event.KindNotificationSent, event.KindCooldownSkip, event.KindNotificationSent}
	if fmt.Sprint(f.recorder.kinds()) != fmt.Sprint(want) {
		t.Errorf("recorded %v, want %v", f.recorder.kinds(), want)
	}
}

func TestTickPositionUnavailable(t *testing.T) {
	f := newFixture(t)
	f.positions.err = fmt.Errorf("%w: connection refused", tracking.ErrSourceUnavailable)

	result := f.tick(t)
	if result.Overhead || result.Position != nil {
		t.Errorf("result = %+v, want not overhead and no position", result)
	}
	if f.notifier.callCount() != 0 {
		t.Error("notifier must not be called when the position is unknown")
	}
	if got := testutil.ToFloat64(f.metrics.SourceFailures.WithLabelValues(metrics.SourcePosition)); got != 1 {
		t.Errorf("position failures = %v, want 1", got)
	}
	if !hasEntry(f.hook, logrus.WarnLevel, "Could not fetch ISS position, assuming not overhead") {
		t.Error("expected a warning about the position source")
	}

	// The loop carries on: the source recovers on the next tick.
	f.positions.err = nil
	f.clock = f.clock.Add(time.Minute)
	f.tick(t)
	if f.notifier.callCount() != 1 {
		t.Errorf("notifier called %d times after recovery, want 1", f.notifier.callCount())
	}
}

func TestTickSunTimesUnavailableAssumesDaytime(t *testing.T) {
	f := newFixture(t)
	f.sunTimes.err = fmt.Errorf("%w: timeout", tracking.ErrSourceUnavailable)

	result := f.tick(t)
	if !result.Overhead || result.Night {
		t.Errorf("result = %+v, want overhead during daytime", result)
	}
	if f.notifier.callCount() != 0 {
		t.Error("notifier must not be called without sun times")
	}
	want := []event.Kind{event.KindSunTimesFailed, event.KindOverheadDaytime}
	if fmt.Sprint(f.recorder.kinds()) != fmt.Sprint(want) {
		t.Errorf("recorded %v, want %v", f.recorder.kinds(), want)
	}
}

func TestTickFailedSendLeavesGateArmed(t *testing.T) {
	for _, sendErr := range []error{
		fmt.Errorf("%w: 535 bad credentials", tracking.ErrAuthFailure),
		fmt.Errorf("%w: connection reset", tracking.ErrTransportFailure),
	} {
		t.Run(sendErr.Error(), func(t *testing.T) {
			f := newFixture(t)
			f.notifier.err = sendErr

			f.tick(t)
			if _, ok := f.gate.LastSentAt(); ok {
				t.Fatal("a failed send must not commit the gate")
			}
			if got := f.outcome(metrics.OutcomeSendFailed); got != 1 {
				t.Errorf("send_failed ticks = %v, want 1", got)
			}

			f.notifier.err = nil
			f.clock = f.clock.Add(time.Minute)
			f.tick(t)
			if f.notifier.callCount() != 2 {
				t.Errorf("notifier called %d times, want a retry on the next tick", f.notifier.callCount())
			}
			if _, ok := f.gate.LastSentAt(); !ok {
				t.Error("successful retry should commit the gate")
			}
		})
	}
}

func TestTickOverheadDaytime(t *testing.T) {
	f := newFixture(t)
	f.clock = time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

	result := f.tick(t)
	if !result.Overhead || result.Night {
		t.Fatalf("result = %+v, want overhead during daytime", result)
	}
	if f.notifier.callCount() != 0 {
		t.Error("notifier must not be called during daytime")
	}
	if got := f.outcome(metrics.OutcomeOverheadDaytime); got != 1 {
		t.Errorf("overhead_daytime ticks = %v, want 1", got)
	}
	if !hasEntry(f.hook, logrus.InfoLevel, "ISS is overhead but it's daytime") {
		t.Error("expected an info entry for the daytime pass")
	}
}

func TestTickIdleAndNightOnly(t *testing.T) {
	f := newFixture(t)
	f.positions.pos = faraway

	f.tick(t) // 22:00, night
	f.clock = time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	f.tick(t) // noon, day

	if f.notifier.callCount() != 0 {
		t.Error("notifier must not be called when the ISS is far away")
	}
	if got := f.outcome(metrics.OutcomeNightOnly); got != 1 {
		t.Errorf("night_only ticks = %v, want 1", got)
	}
	if got := f.outcome(metrics.OutcomeIdle); got != 1 {
		t.Errorf("idle ticks = %v, want 1", got)
	}
	if len(f.recorder.events) != 0 {
		t.Errorf("idle ticks should not be recorded, got %v", f.recorder.kinds())
	}
}

func TestTickUnclassifiedErrorsEscape(t *testing.T) {
	boom := errors.New("nil map write")

	t.Run("position", func(t *testing.T) {
		f := newFixture(t)
		f.positions.err = boom
		if _, err := f.svc.Tick(context.Background()); !errors.Is(err, boom) {
			t.Errorf("Tick error = %v, want %v", err, boom)
		}
	})
	t.Run("sun times", func(t *testing.T) {
		f := newFixture(t)
		f.sunTimes.err = boom
		if _, err := f.svc.Tick(context.Background()); !errors.Is(err, boom) {
			t.Errorf("Tick error = %v, want %v", err, boom)
		}
	})
	t.Run("notifier", func(t *testing.T) {
		f := newFixture(t)
		f.notifier.err = boom
		if _, err := f.svc.Tick(context.Background()); !errors.Is(err, boom) {
			t.Errorf("Tick error = %v, want %v", err, boom)
		}
		if _, ok := f.gate.LastSentAt(); ok {
			t.Error("gate must not be committed on a failed send")
		}
	})
}

func TestTickCancelledContextIsQuiet(t *testing.T) {
	f := newFixture(t)
	f.positions.err = context.Canceled

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := f.svc.Tick(ctx); err != nil {
		t.Errorf("Tick with cancelled context returned %v, want nil", err)
	}
}

func TestTickDeadlineExceededIsReported(t *testing.T) {
	expired := func(t *testing.T) context.Context {
		ctx, cancel := context.WithTimeout(context.Background(), -time.Second)
		t.Cleanup(cancel)
		return ctx
	}

	t.Run("send", func(t *testing.T) {
		f := newFixture(t)
		f.notifier.err = fmt.Errorf("%w: smtp dial: %v", tracking.ErrTransportFailure, context.DeadlineExceeded)

		if _, err := f.svc.Tick(expired(t)); err != nil {
			t.Fatalf("Tick returned error: %v", err)
		}
		if got := f.outcome(metrics.OutcomeSendFailed); got != 1 {
			t.Errorf("send_failed ticks = %v, want 1", got)
		}
		if !hasEntry(f.hook, logrus.ErrorLevel, "Failed to send notification, will retry next tick") {
			t.Error("expected an error entry for the timed out send")
		}
		if _, ok := f.gate.LastSentAt(); ok {
			t.Error("a timed out send must not commit the gate")
		}
		if fmt.Sprint(f.recorder.kinds()) != fmt.Sprint([]event.Kind{event.KindNotificationFailed}) {
			t.Errorf("recorded %v, want the failed send", f.recorder.kinds())
		}
	})

	t.Run("position", func(t *testing.T) {
		f := newFixture(t)
		f.positions.err = fmt.Errorf("%w: %v", tracking.ErrSourceUnavailable, context.DeadlineExceeded)

		if _, err := f.svc.Tick(expired(t)); err != nil {
			t.Fatalf("Tick returned error: %v", err)
		}
		if got := testutil.ToFloat64(f.metrics.SourceFailures.WithLabelValues(metrics.SourcePosition)); got != 1 {
			t.Errorf("position failures = %v, want 1", got)
		}
		if !hasEntry(f.hook, logrus.WarnLevel, "Could not fetch ISS position, assuming not overhead") {
			t.Error("expected a warning for the timed out fetch")
		}
	})
}

type ctxRecorder struct {
	errs []error
}

func (r *ctxRecorder) Record(ctx context.Context, _ *event.Event) error {
	r.errs = append(r.errs, ctx.Err())
	return nil
}

func TestTickRecordsWithLiveContextAfterDeadline(t *testing.T) {
	f := newFixture(t)
	rec := &ctxRecorder{}
	f.svc.recorder = rec
	f.sunTimes.err = fmt.Errorf("%w: %v", tracking.ErrSourceUnavailable, context.DeadlineExceeded)

	ctx, cancel := context.WithTimeout(context.Background(), -time.Second)
	defer cancel()
	if _, err := f.svc.Tick(ctx); err != nil {
		t.Fatalf("Tick returned error: %v", err)
	}
	if len(rec.errs) == 0 {
		t.Fatal("expected events to be recorded")
	}
	for _, err := range rec.errs {
		if err != nil {
			t.Errorf("recorder got a dead context: %v", err)
		}
	}
}

func TestTickRecorderFailureIsNotFatal(t *testing.T) {
	f := newFixture(t)
	f.recorder.err = errors.New("database is down")

	f.tick(t)
	if f.notifier.callCount() != 1 {
		t.Errorf("notifier called %d times, want 1", f.notifier.callCount())
	}
	if !hasEntry(f.hook, logrus.WarnLevel, "Failed to record tracker event") {
		t.Error("expected a warning about the recorder")
	}
}

func hasEntry(hook *test.Hook, level logrus.Level, msg string) bool {
	for _, e := range hook.AllEntries() {
		if e.Level == level && e.Message == msg {
			return true
		}
	}
	return false
}
