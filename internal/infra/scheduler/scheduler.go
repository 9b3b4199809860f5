package scheduler

import (
	"context"
	"iss_overhead_notifier/internal/app" // For TrackerService interface
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// TrackerScheduler runs the tracker tick immediately and then every interval.
// Ticks never overlap: a tick still running when the next one is due causes
// that next one to be skipped.
type TrackerScheduler struct {
	cronEngine  *cron.Cron
	tracker     app.TrackerService
	logger      *logrus.Entry
	interval    time.Duration
	tickTimeout time.Duration
	fatal       chan error
}

func NewTrackerScheduler(
	tracker app.TrackerService,
	logger *logrus.Entry,
	interval time.Duration, // rounded down to whole seconds, at least 1s
	tickTimeout time.Duration, // upper bound for the I/O of a single tick
) *TrackerScheduler {
	cronLogger := cron.PrintfLogger(logger)
	return &TrackerScheduler{
		cronEngine: cron.New(
			cron.WithLocation(time.UTC),
			cron.WithLogger(cronLogger),
			cron.WithChain(cron.SkipIfStillRunning(cronLogger)),
		),
		tracker:     tracker,
		logger:      logger,
		interval:    interval,
		tickTimeout: tickTimeout,
		fatal:       make(chan error, 1),
	}
}

// Run blocks until ctx is cancelled (returns nil) or a tick fails with an
// unclassified error (returns it). Running jobs are waited for either way.
func (s *TrackerScheduler) Run(ctx context.Context) error {
	s.logger.WithField("interval", s.interval.String()).Info("Starting ISS tracking...")

	s.cronEngine.Schedule(cron.Every(s.interval), cron.FuncJob(func() {
		s.runTick(ctx)
	}))

	s.runTick(ctx) // First check right away, not one interval after startup
	s.cronEngine.Start()
	s.logger.Info("Tracker scheduler started.")

	var err error
	select {
	case <-ctx.Done():
		s.logger.Info("Stop requested, shutting down tracker scheduler...")
	case err = <-s.fatal:
		s.logger.WithError(err).Error("Tick failed with an unexpected error, stopping tracker scheduler")
	}

	stopCtx := s.cronEngine.Stop() // Stops the scheduler from adding new jobs, waits for running jobs.
	<-stopCtx.Done()               // Wait for graceful shutdown
	s.logger.Info("Tracker scheduler gracefully stopped.")
	return err
}

func (s *TrackerScheduler) runTick(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	tickCtx, cancel := context.WithTimeout(ctx, s.tickTimeout)
	defer cancel()

	if _, err := s.tracker.Tick(tickCtx); err != nil {
		select {
		case s.fatal <- err:
		default: // A fault is already pending
		}
	}
}
