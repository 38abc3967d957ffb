package job

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/jmorake/floodwatch/internal/domain"
	"github.com/jmorake/floodwatch/internal/observability"
)

// streakLookbackDays caps the rainy streak: only the most recent seven days
// with data are fetched, so longer runs report as seven.
const streakLookbackDays = 7

// Fetcher obtains one current observation from the weather provider.
type Fetcher interface {
	Fetch(ctx context.Context) (domain.Observation, error)
}

// HistoryStore is the append-only observation log and its aggregates.
type HistoryStore interface {
	Append(ctx context.Context, obs *domain.Observation) error
	SumRainfallSince(ctx context.Context, cutoff time.Time) (float64, error)
	DailyRainfallTotals(ctx context.Context, limit int) ([]domain.DailyRainfall, error)
}

// Notifier delivers an alert message to the operator.
type Notifier interface {
	Notify(ctx context.Context, alert string) error
}

// Monitor orchestrates the fetch-derive-classify-persist-notify cycle.
// Cycles run strictly sequentially; there is no overlap to defend against.
type Monitor struct {
	fetcher    Fetcher
	store      HistoryStore
	notifier   Notifier
	thresholds domain.Thresholds
	interval   time.Duration
	clock      clockwork.Clock
	logger     *slog.Logger
	metrics    *observability.Metrics
	ready      atomic.Bool
}

// New creates a Monitor with the given collaborators.
func New(
	fetcher Fetcher,
	store HistoryStore,
	notifier Notifier,
	thresholds domain.Thresholds,
	interval time.Duration,
	clock clockwork.Clock,
	metrics *observability.Metrics,
	logger *slog.Logger,
) *Monitor {
	return &Monitor{
		fetcher:    fetcher,
		store:      store,
		notifier:   notifier,
		thresholds: thresholds,
		interval:   interval,
		clock:      clock,
		logger:     logger,
		metrics:    metrics,
	}
}

// CheckReadiness returns nil once at least one cycle has persisted an
// observation, or an error describing why the service is not yet ready.
func (m *Monitor) CheckReadiness(_ context.Context) error {
	if !m.ready.Load() {
		return errors.New("no monitoring cycle has completed yet")
	}
	return nil
}

// Run executes one cycle immediately, then one per tick until the context is
// cancelled. A failed cycle is logged and the loop continues; the next tick
// gets a fresh attempt.
func (m *Monitor) Run(ctx context.Context) error {
	m.logger.Info("monitor started", "interval", m.interval)
	m.metrics.MonitorRunning.Set(1)
	defer m.metrics.MonitorRunning.Set(0)

	if err := m.RunOnce(ctx); err != nil && ctx.Err() == nil {
		m.logger.Error("monitoring cycle failed", "error", err)
	}

	ticker := m.clock.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			m.logger.Info("monitor stopping", "reason", ctx.Err())
			return nil
		case <-ticker.Chan():
			if err := m.RunOnce(ctx); err != nil && ctx.Err() == nil {
				m.logger.Error("monitoring cycle failed", "error", err)
			}
		}
	}
}

// RunOnce performs a single monitoring cycle: fetch one observation, derive
// the trailing-24h accumulation and rainy streak from history (which does
// not yet contain the new observation), classify, persist the complete row,
// and notify the operator when the level reaches WATCH.
//
// Fetch and persist failures abort the cycle; aggregate read failures
// degrade to zero so classification always happens; notification failures
// are logged and swallowed.
func (m *Monitor) RunOnce(ctx context.Context) error {
	start := time.Now()

	obs, err := m.fetcher.Fetch(ctx)
	if err != nil {
		m.metrics.CyclesTotal.WithLabelValues("fetch_error").Inc()
		return fmt.Errorf("fetch observation: %w", err)
	}

	obsTime, err := obs.Time()
	if err != nil {
		m.metrics.CyclesTotal.WithLabelValues("fetch_error").Inc()
		return fmt.Errorf("observation carries invalid timestamp: %w", err)
	}

	daily := m.trailing24h(ctx, obsTime)
	streak := m.rainyStreak(ctx)

	level := m.thresholds.Classify(obs.Rainfall, daily, streak)
	obs.FloodAlert = level.Label()
	obs.RainStreak = streak

	m.logger.Info("observation classified",
		"timestamp", obs.Timestamp,
		"temperature", obs.Temperature,
		"humidity", obs.Humidity,
		"hourly_rain_mm", obs.Rainfall,
		"daily_rain_mm", daily,
		"rain_streak", streak,
		"alert", level.String(),
	)

	if err := m.store.Append(ctx, &obs); err != nil {
		m.metrics.CyclesTotal.WithLabelValues("store_error").Inc()
		return fmt.Errorf("persist observation: %w", err)
	}

	m.metrics.AlertsTotal.WithLabelValues(level.String()).Inc()
	m.metrics.LastHourlyRain.Set(obs.Rainfall)
	m.metrics.Last24hRain.Set(daily)
	m.metrics.RainStreakDays.Set(float64(streak))
	m.metrics.LastAlertLevel.Set(float64(level))

	if level >= domain.LevelWatch {
		m.notify(ctx, level)
	}

	m.ready.Store(true)
	m.metrics.CyclesTotal.WithLabelValues("ok").Inc()
	m.metrics.CycleDuration.Observe(time.Since(start).Seconds())
	return nil
}

// trailing24h sums rainfall over the 24 hours before the observation.
// A read failure degrades to 0 so the classifier stays total.
func (m *Monitor) trailing24h(ctx context.Context, obsTime time.Time) float64 {
	total, err := m.store.SumRainfallSince(ctx, obsTime.Add(-24*time.Hour))
	if err != nil {
		m.logger.Error("trailing 24h query failed, using 0", "error", err)
		return 0
	}
	return total
}

// rainyStreak derives the consecutive-significant-day streak from the last
// seven days with data. A read failure degrades to 0.
func (m *Monitor) rainyStreak(ctx context.Context) int {
	totals, err := m.store.DailyRainfallTotals(ctx, streakLookbackDays)
	if err != nil {
		m.logger.Error("daily totals query failed, using streak 0", "error", err)
		return 0
	}
	return domain.RainyStreak(totals, m.thresholds.MinSignificantDaily)
}

// notify sends the alert and swallows failures: a lost email must not fail
// the cycle or unwind the already-persisted observation.
func (m *Monitor) notify(ctx context.Context, level domain.Level) {
	if err := m.notifier.Notify(ctx, level.Label()); err != nil {
		m.logger.Error("alert notification failed", "level", level.String(), "error", err)
		m.metrics.NotificationsTotal.WithLabelValues("failed").Inc()
		return
	}
	m.metrics.NotificationsTotal.WithLabelValues("sent").Inc()
}
