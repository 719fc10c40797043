// Package cli provides the initialization steps shared by finboard's
// commands.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"finboard/internal/app"
	"finboard/internal/backend"
	"finboard/internal/config"
	"finboard/internal/log"
	"finboard/internal/notify"
	"finboard/internal/services"
)

// SetupLogger initializes structured logging at the configured level and
// installs it as the default logger.
func SetupLogger(level string) *log.Logger {
	logger := log.New(log.Config{
		Level:     log.ParseLevel(level),
		Component: log.ComponentApp,
		Output:    os.Stderr,
	})
	slog.SetDefault(logger.Logger)
	return logger
}

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration and validates it.
// Returns the config or exits the process on validation failure.
func LoadAndValidateConfig(logger *log.Logger) *config.Config {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}
	return cfg
}

// Runtime is a wired controller and the resources behind it.
type Runtime struct {
	Controller *app.Controller
	cleanups   []backend.CleanupFunc
}

// Close releases the controller and its resources in reverse order.
func (r *Runtime) Close() {
	if r.Controller != nil {
		r.Controller.Close()
	}
	for i := len(r.cleanups) - 1; i >= 0; i-- {
		if err := r.cleanups[i](); err != nil {
			slog.Warn("Cleanup failed", log.FieldError, err)
		}
	}
}

// InitController builds the backend, session store and notification
// sinks described by cfg and wires them into a controller.
func InitController(ctx context.Context, logger *log.Logger, cfg *config.Config) (*Runtime, error) {
	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, err
	}
	if err := bcfg.Validate(); err != nil {
		return nil, fmt.Errorf("backend config: %w", err)
	}

	rt := &Runtime{}
	factory := backend.NewFactory(logger.Logger)

	be, err := factory.CreateBackend(ctx, bcfg)
	if err != nil {
		return nil, err
	}
	rt.track(be.Cleanup)

	st, err := factory.CreateSessionStore(ctx, bcfg)
	if err != nil {
		rt.Close()
		return nil, err
	}
	rt.track(st.Cleanup)

	sinks := []notify.Sink{notify.LogSink{Logger: log.Default(log.ComponentNotify)}}
	relay := factory.CreateNotificationSink(ctx, bcfg)
	if relay.Sink != nil {
		sinks = append(sinks, relay.Sink)
		rt.track(relay.Cleanup)
	}

	ctrl, err := app.New(app.Options{
		Backend: be.Backend,
		Store:   st.Store,
		Sinks:   sinks,
		Sync: services.SyncConfig{
			ForecastDays:  cfg.ForecastDays,
			SavingsMonths: cfg.SavingsMonths,
		},
		NotifyTTL:     cfg.NotifyTTL,
		PlanCacheSize: cfg.GoalPlanCacheSize,
		PlanCacheTTL:  cfg.GoalPlanCacheTTL,
		Currency:      cfg.Currency,
		Logger:        logger.WithComponent(log.ComponentApp),
	})
	if err != nil {
		rt.Close()
		return nil, err
	}
	rt.Controller = ctrl
	return rt, nil
}

func (r *Runtime) track(fn backend.CleanupFunc) {
	if fn != nil {
		r.cleanups = append(r.cleanups, fn)
	}
}

// GracefulShutdown sets up signal handling for graceful shutdown.
// Returns a context that will be cancelled on shutdown signals,
// and a channel that signals when shutdown is complete.
func GracefulShutdown(logger *log.Logger, timeout time.Duration, cleanup func()) (context.Context, <-chan struct{}) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		cancel()

		finished := make(chan struct{})
		go func() {
			if cleanup != nil {
				cleanup()
			}
			close(finished)
		}()

		select {
		case <-finished:
			logger.Info("Shutdown complete")
		case <-time.After(timeout):
			logger.Warn("Shutdown timeout reached")
		}
		close(done)
	}()

	return ctx, done
}

// WaitForShutdown blocks until the context is cancelled.
func WaitForShutdown(ctx context.Context, done <-chan struct{}) {
	<-ctx.Done()
	<-done
}
