package app

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"pipeline-alerts/internal/alert"
	"pipeline-alerts/internal/alerting"
	"pipeline-alerts/internal/breaker"
	"pipeline-alerts/internal/config"
	"pipeline-alerts/internal/ratelimit"
	"pipeline-alerts/internal/scheduler"
	"pipeline-alerts/internal/service"
	"pipeline-alerts/internal/storage"
	"pipeline-alerts/internal/version"
)

// App aggregates configuration and shared dependencies for the CLI commands.
type App struct {
	Config *config.Config
	Logger zerolog.Logger
}

// NewApp constructs a new application handle.
func NewApp(cfg *config.Config, logger zerolog.Logger) *App {
	return &App{Config: cfg, Logger: logger.With().Str("component", "app").Logger()}
}

// newManager wires channel, breaker, limiter, and optional recorder into an
// alert manager. A nil store disables auditing.
func (a *App) newManager(store *storage.Store) *alerting.Manager {
	br := breaker.New(breaker.Options{
		Name:             "email",
		FailureThreshold: a.Config.Email.Breaker.FailureThreshold,
		RecoveryTimeout:  a.Config.Email.Breaker.RecoveryTimeout,
		CallTimeout:      a.Config.Email.Breaker.CallTimeout,
	}, a.Logger)

	channel := alerting.NewEmailChannel(a.Config.Email.EmailConfig, br, a.Logger)

	limiter := ratelimit.New(
		a.Config.Alerts.RateLimiting.MaxPerHour,
		a.Config.Alerts.RateLimiting.MaxPerDay,
	)

	var recorder alerting.Recorder
	if store != nil {
		recorder = store
	}

	return alerting.New(alerting.Config{
		Enabled:      a.Config.Alerts.Enabled,
		MinSeverity:  a.Config.MinSeverity(),
		RateLimiting: a.Config.Alerts.RateLimiting.Enabled,
		Categories:   a.Config.CategoryFlags(),
	}, channel, limiter, recorder, a.Logger)
}

func (a *App) openStore(ctx context.Context) (*storage.Store, func(), error) {
	if a.Config.Database.DSN == "" {
		return nil, nil, nil
	}

	pool, err := storage.NewPool(ctx, a.Config.Database)
	if err != nil {
		return nil, nil, err
	}

	store := storage.NewStore(pool)
	closer := func() {
		store.Close()
	}
	return store, closer, nil
}

// Run executes the long-running monitor service.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if store == nil {
		a.Logger.Warn().Msg("database.dsn not configured; alert auditing disabled")
	}
	if closeStore != nil {
		defer closeStore()
	}

	manager := a.newManager(store)

	sched := scheduler.New(scheduler.Options{
		Interval:     a.Config.Monitor.Interval,
		AlignToStart: a.Config.Monitor.AlignToTick,
		StartupDelay: a.Config.Monitor.StartupDelay,
	}, a.Logger)

	var log storage.AlertLog
	var locker storage.AdvisoryLocker
	if store != nil {
		log = store
		locker = store
	}

	svc := service.New(service.Options{
		Heartbeat:            a.Config.Monitor.Heartbeat,
		Retention:            a.Config.Monitor.Retention,
		LongRuntimeThreshold: a.Config.Monitor.LongRuntimeThreshold,
		AdvisoryLockKey:      a.Config.Monitor.AdvisoryLockKey,
	}, sched, manager, log, locker, a.Logger)

	startup := manager.Process(ctx, alert.NewSystemStartup(a.Config.App.Name, version.Version))
	a.Logger.Info().Str("status", string(startup)).Msg("starting alert monitor")

	err = svc.Run(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		a.Logger.Error().Err(err).Msg("monitor terminated with error")
		return err
	}

	shutdown := manager.Process(context.WithoutCancel(ctx), alert.NewSystemShutdown(a.Config.App.Name, "signal received"))
	a.Logger.Info().Str("status", string(shutdown)).Msg("alert monitor stopped")
	return nil
}
