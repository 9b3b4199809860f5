package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"iss_overhead_notifier/internal/app"
	"iss_overhead_notifier/internal/domain/event"
	"iss_overhead_notifier/internal/domain/notification"
	"iss_overhead_notifier/internal/domain/tracking"
	"iss_overhead_notifier/internal/infra/config"
	idb "iss_overhead_notifier/internal/infra/database"
	"iss_overhead_notifier/internal/infra/email"
	"iss_overhead_notifier/internal/infra/logger"
	"iss_overhead_notifier/internal/infra/metrics"
	"iss_overhead_notifier/internal/infra/opennotify"
	"iss_overhead_notifier/internal/infra/scheduler"
	"iss_overhead_notifier/internal/infra/sunrise"
	"iss_overhead_notifier/internal/infra/telegram"
)

func main() {
	fmt.Println("🛰️  ISS Overhead Notifier starting...")

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Could not load application configuration: %v\n", err)
		os.Exit(1)
	}

	logFile, err := logger.Init(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Could not initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logFile.Close()
	mainLogger := logger.Component("main")

	if err := run(cfg); err != nil {
		mainLogger.WithError(err).Error("ISS tracker stopped with an unexpected error")
		logFile.Close()
		os.Exit(1)
	}
	mainLogger.Info("ISS tracker stopped by user")
}

func run(cfg *config.AppConfig) error {
	mainLogger := logger.Component("main")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	observer := tracking.ObserverConfig{
		Location:         cfg.Observer(),
		ToleranceDegrees: cfg.PositionTolerance,
	}
	mainLogger.Infof("Monitoring location: %s (tolerance %.1f degrees)", observer.Location, observer.ToleranceDegrees)

	notifier, err := newNotifier(cfg)
	if err != nil {
		return fmt.Errorf("could not create %s notifier: %w", cfg.Notifier, err)
	}

	// Test notifier credentials before entering the loop.
	if cfg.SkipPreflight {
		mainLogger.Warn("Skipping notifier pre-flight check")
	} else {
		interrupted, err := preflight(ctx, notifier, cfg.HTTPTimeout)
		if interrupted {
			mainLogger.Info("Interrupted during notifier pre-flight check")
			return nil
		}
		if err != nil {
			if errors.Is(err, tracking.ErrAuthFailure) {
				mainLogger.Error("Notifier authentication failed. For Gmail use an App Password, not your regular password.")
			}
			return fmt.Errorf("notifier pre-flight check failed: %w", err)
		}
		mainLogger.Infof("Notifier (%s) authentication successful", cfg.Notifier)
	}

	var recorder event.Recorder = event.NopRecorder{}
	if cfg.DatabaseURL != "" {
		db, err := idb.NewPostgresConnection(cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("could not connect to database: %w", err)
		}
		defer db.Close()
		eventRepo := idb.NewPostgresEventRepository(db)
		if err := eventRepo.EnsureSchema(ctx); err != nil {
			return err
		}
		recorder = eventRepo
		mainLogger.Info("Database event log enabled.")
	}

	m := metrics.New()
	if cfg.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", m.Handler())
		srv := &http.Server{Addr: cfg.MetricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				mainLogger.WithError(err).Error("Metrics server failed")
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
		mainLogger.Infof("Serving metrics on %s/metrics", cfg.MetricsAddr)
	}

	tracker := app.NewTrackerServiceImpl(
		observer,
		opennotify.NewClient(cfg.ISSAPIURL, cfg.HTTPTimeout),
		sunrise.NewClient(cfg.SunriseAPIURL, cfg.HTTPTimeout),
		tracking.NewNotificationGate(cfg.NotificationCooldown),
		notifier,
		recorder,
		m,
		logger.Component("tracker"),
	)

	// Three sequential I/O calls per tick, each bounded by the HTTP timeout.
	trackerScheduler := scheduler.NewTrackerScheduler(tracker, logger.Component("scheduler"), cfg.CheckInterval, 3*cfg.HTTPTimeout)
	mainLogger.Infof("Checking every %s. Press Ctrl+C to stop", cfg.CheckInterval)
	return trackerScheduler.Run(ctx)
}

// preflight verifies the notifier credentials within timeout. A shutdown
// signal arriving mid-check reports interrupted instead of an error.
func preflight(ctx context.Context, n notification.Notifier, timeout time.Duration) (interrupted bool, err error) {
	checkCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	err = n.Verify(checkCtx)
	if ctx.Err() != nil {
		return true, nil
	}
	return false, err
}

func newNotifier(cfg *config.AppConfig) (notification.Notifier, error) {
	switch cfg.Notifier {
	case config.NotifierTelegram:
		client, err := telegram.NewTelebotAdapter(cfg.TelegramToken, cfg.HTTPTimeout)
		if err != nil {
			return nil, err
		}
		return telegram.NewNotifier(client, cfg.TelegramChatID), nil
	default:
		return email.NewSMTPNotifier(email.Settings{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.EmailFrom,
			To:       cfg.EmailTo,
			Timeout:  cfg.HTTPTimeout,
		}), nil
	}
}
