// Command monitor runs the floodwatch monitoring service: it polls
// OpenWeatherMap for the configured city, derives flood risk from the
// accumulated history, persists each classified observation, and emails the
// operator when the alert level reaches WATCH.
//
// With -once it performs a single cycle and exits, which suits an external
// scheduler such as cron; without it the built-in ticker loop runs until
// SIGINT or SIGTERM.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jonboulle/clockwork"

	httpadapter "github.com/jmorake/floodwatch/internal/adapter/http"
	"github.com/jmorake/floodwatch/internal/adapter/openweather"
	smtpadapter "github.com/jmorake/floodwatch/internal/adapter/smtp"
	"github.com/jmorake/floodwatch/internal/adapter/sqlite"
	"github.com/jmorake/floodwatch/internal/config"
	"github.com/jmorake/floodwatch/internal/job"
	"github.com/jmorake/floodwatch/internal/observability"
)

func main() {
	once := flag.Bool("once", false, "run a single monitoring cycle and exit")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()
	clock := clockwork.NewRealClock()

	store, err := sqlite.Open(cfg.DatabasePath, logger)
	if err != nil {
		logger.Error("failed to open history store", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("history store close error", "error", err)
		}
	}()

	fetcher := openweather.NewClient(cfg, clock, metrics, logger)
	notifier := smtpadapter.NewNotifier(cfg.SMTP, cfg.City, logger)

	monitor := job.New(fetcher, store, notifier, cfg.Thresholds, cfg.PollInterval, clock, metrics, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if *once {
		if err := monitor.RunOnce(ctx); err != nil {
			logger.Error("monitoring cycle failed", "error", err)
			os.Exit(1)
		}
		return
	}

	srv := httpadapter.NewServer(cfg.HTTPAddr, monitor, store, logger)

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	go func() {
		if err := monitor.Run(ctx); err != nil {
			logger.Error("monitor error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}

	logger.Info("shutdown complete")
}
