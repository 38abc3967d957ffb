package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// monitoring job.
type Metrics struct {
	CyclesTotal        *prometheus.CounterVec // labels: outcome={ok,fetch_error,store_error}
	FetchAttempts      prometheus.Counter
	FetchRetries       prometheus.Counter
	AlertsTotal        *prometheus.CounterVec // labels: level={NONE,ADVISORY,WATCH,WARNING}
	NotificationsTotal *prometheus.CounterVec // labels: outcome={sent,failed}

	CycleDuration prometheus.Histogram

	MonitorRunning prometheus.Gauge
	LastHourlyRain prometheus.Gauge
	Last24hRain    prometheus.Gauge
	RainStreakDays prometheus.Gauge
	LastAlertLevel prometheus.Gauge
}

// NewMetrics creates and registers all job metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.CyclesTotal,
		m.FetchAttempts,
		m.FetchRetries,
		m.AlertsTotal,
		m.NotificationsTotal,
		m.CycleDuration,
		m.MonitorRunning,
		m.LastHourlyRain,
		m.Last24hRain,
		m.RainStreakDays,
		m.LastAlertLevel,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		CyclesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "floodwatch",
			Name:      "cycles_total",
			Help:      "Monitoring cycles by outcome.",
		}, []string{"outcome"}),
		FetchAttempts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "floodwatch",
			Name:      "fetch_attempts_total",
			Help:      "HTTP requests made to the weather provider.",
		}),
		FetchRetries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "floodwatch",
			Name:      "fetch_retries_total",
			Help:      "Retried weather provider requests after transient failures.",
		}),
		AlertsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "floodwatch",
			Name:      "alerts_total",
			Help:      "Classified observations by alert level.",
		}, []string{"level"}),
		NotificationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "floodwatch",
			Name:      "notifications_total",
			Help:      "Operator notifications by outcome.",
		}, []string{"outcome"}),
		CycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "floodwatch",
			Name:      "cycle_duration_seconds",
			Help:      "Duration of a complete fetch-classify-persist-notify cycle.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
		MonitorRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "floodwatch",
			Name:      "monitor_running",
			Help:      "1 while the scheduler loop is active, 0 when shut down.",
		}),
		LastHourlyRain: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "floodwatch",
			Name:      "last_hourly_rain_mm",
			Help:      "Rainfall of the most recent observation, millimetres in the last hour.",
		}),
		Last24hRain: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "floodwatch",
			Name:      "last_24h_rain_mm",
			Help:      "Trailing 24h rainfall accumulation at the most recent cycle.",
		}),
		RainStreakDays: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "floodwatch",
			Name:      "rain_streak_days",
			Help:      "Consecutive significant-rain days at the most recent cycle.",
		}),
		LastAlertLevel: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "floodwatch",
			Name:      "last_alert_level",
			Help:      "Numeric alert level of the most recent cycle (0-3).",
		}),
	}
}
