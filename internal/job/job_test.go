package job

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmorake/floodwatch/internal/domain"
	"github.com/jmorake/floodwatch/internal/observability"
)

const testTimestamp = "2026/01/15,14:00:00"

// --- mocks ---

type mockFetcher struct {
	obs   domain.Observation
	err   error
	calls atomic.Int64
}

func (m *mockFetcher) Fetch(_ context.Context) (domain.Observation, error) {
	m.calls.Add(1)
	if m.err != nil {
		return domain.Observation{}, m.err
	}
	return m.obs, nil
}

type mockStore struct {
	appended []domain.Observation

	appendErr error
	sumTotal  float64
	sumErr    error
	sumCutoff time.Time
	totals    []domain.DailyRainfall
	totalsErr error
}

func (m *mockStore) Append(_ context.Context, obs *domain.Observation) error {
	if m.appendErr != nil {
		return m.appendErr
	}
	m.appended = append(m.appended, *obs)
	return nil
}

func (m *mockStore) SumRainfallSince(_ context.Context, cutoff time.Time) (float64, error) {
	m.sumCutoff = cutoff
	return m.sumTotal, m.sumErr
}

func (m *mockStore) DailyRainfallTotals(_ context.Context, limit int) ([]domain.DailyRainfall, error) {
	if m.totalsErr != nil {
		return nil, m.totalsErr
	}
	if len(m.totals) > limit {
		return m.totals[:limit], nil
	}
	return m.totals, nil
}

type mockNotifier struct {
	alerts []string
	err    error
}

func (m *mockNotifier) Notify(_ context.Context, alert string) error {
	m.alerts = append(m.alerts, alert)
	return m.err
}

func newMonitor(f *mockFetcher, s *mockStore, n *mockNotifier, clock clockwork.Clock) *Monitor {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(f, s, n, domain.DefaultThresholds(), time.Hour, clock, observability.NewMetricsForTesting(), logger)
}

func calmFetcher() *mockFetcher {
	return &mockFetcher{obs: domain.Observation{
		City:        "Gaborone",
		Timestamp:   testTimestamp,
		Temperature: 24.5,
		Humidity:    81,
	}}
}

func significantWeek(t *testing.T, days int) []domain.DailyRainfall {
	t.Helper()
	anchor, err := domain.ParseDay("2026/01/15")
	require.NoError(t, err)

	totals := make([]domain.DailyRainfall, 0, days)
	for i := range days {
		totals = append(totals, domain.DailyRainfall{Date: anchor.AddDate(0, 0, -i), Total: 12})
	}
	return totals
}

// --- tests ---

func TestRunOnce_CalmCyclePersistsWithoutNotifying(t *testing.T) {
	fetcher := calmFetcher()
	fetcher.obs.Rainfall = 1.5
	store := &mockStore{}
	notifier := &mockNotifier{}
	m := newMonitor(fetcher, store, notifier, clockwork.NewFakeClock())

	require.NoError(t, m.RunOnce(context.Background()))

	require.Len(t, store.appended, 1)
	got := store.appended[0]
	assert.Equal(t, domain.LevelNone.Label(), got.FloodAlert)
	assert.Zero(t, got.RainStreak)
	assert.Equal(t, 1.5, got.Rainfall)
	assert.Empty(t, notifier.alerts)
	assert.NoError(t, m.CheckReadiness(context.Background()))

	wantCutoff := time.Date(2026, 1, 14, 14, 0, 0, 0, time.UTC)
	assert.True(t, store.sumCutoff.Equal(wantCutoff), "24h window anchored on the observation time")
}

func TestRunOnce_AdvisoryDoesNotNotify(t *testing.T) {
	fetcher := calmFetcher()
	fetcher.obs.Rainfall = 3.5
	store := &mockStore{}
	notifier := &mockNotifier{}
	m := newMonitor(fetcher, store, notifier, clockwork.NewFakeClock())

	require.NoError(t, m.RunOnce(context.Background()))

	require.Len(t, store.appended, 1)
	assert.Equal(t, domain.LevelAdvisory.Label(), store.appended[0].FloodAlert)
	assert.Empty(t, notifier.alerts, "advisory level stays below the notification bar")
}

func TestRunOnce_WatchLevelNotifiesOnce(t *testing.T) {
	fetcher := calmFetcher()
	store := &mockStore{sumTotal: 25}
	notifier := &mockNotifier{}
	m := newMonitor(fetcher, store, notifier, clockwork.NewFakeClock())

	require.NoError(t, m.RunOnce(context.Background()))

	require.Len(t, store.appended, 1)
	assert.Equal(t, domain.LevelWatch.Label(), store.appended[0].FloodAlert)
	require.Len(t, notifier.alerts, 1)
	assert.Equal(t, domain.LevelWatch.Label(), notifier.alerts[0])
}

func TestRunOnce_SevenDayStreakTriggersWarning(t *testing.T) {
	fetcher := calmFetcher() // zero rainfall this hour
	store := &mockStore{totals: significantWeek(t, 7)}
	notifier := &mockNotifier{}
	m := newMonitor(fetcher, store, notifier, clockwork.NewFakeClock())

	require.NoError(t, m.RunOnce(context.Background()))

	require.Len(t, store.appended, 1)
	got := store.appended[0]
	assert.Equal(t, 7, got.RainStreak, "streak computed before the new observation is inserted")
	assert.Equal(t, domain.LevelWarning.Label(), got.FloodAlert)
	require.Len(t, notifier.alerts, 1, "exactly one notification")
}

func TestRunOnce_FetchFailureWritesNothing(t *testing.T) {
	fetcher := &mockFetcher{err: errors.New("provider down")}
	store := &mockStore{}
	notifier := &mockNotifier{}
	m := newMonitor(fetcher, store, notifier, clockwork.NewFakeClock())

	err := m.RunOnce(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fetch observation")
	assert.Empty(t, store.appended)
	assert.Empty(t, notifier.alerts)
	assert.Error(t, m.CheckReadiness(context.Background()))
}

func TestRunOnce_AggregateFailuresDegradeToZero(t *testing.T) {
	fetcher := calmFetcher()
	fetcher.obs.Rainfall = 16 // warning on hourly intensity alone
	store := &mockStore{
		sumErr:    errors.New("disk error"),
		totalsErr: errors.New("disk error"),
	}
	notifier := &mockNotifier{}
	m := newMonitor(fetcher, store, notifier, clockwork.NewFakeClock())

	require.NoError(t, m.RunOnce(context.Background()))

	require.Len(t, store.appended, 1)
	got := store.appended[0]
	assert.Zero(t, got.RainStreak)
	assert.Equal(t, domain.LevelWarning.Label(), got.FloodAlert)
	require.Len(t, notifier.alerts, 1)
}

func TestRunOnce_PersistFailureAbortsBeforeNotify(t *testing.T) {
	fetcher := calmFetcher()
	store := &mockStore{appendErr: errors.New("disk full"), sumTotal: 100}
	notifier := &mockNotifier{}
	m := newMonitor(fetcher, store, notifier, clockwork.NewFakeClock())

	err := m.RunOnce(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "persist observation")
	assert.Empty(t, notifier.alerts)
	assert.Error(t, m.CheckReadiness(context.Background()))
}

func TestRunOnce_NotifyFailureIsSwallowed(t *testing.T) {
	fetcher := calmFetcher()
	fetcher.obs.Rainfall = 20
	store := &mockStore{}
	notifier := &mockNotifier{err: errors.New("smtp refused")}
	m := newMonitor(fetcher, store, notifier, clockwork.NewFakeClock())

	require.NoError(t, m.RunOnce(context.Background()))
	require.Len(t, store.appended, 1)
	assert.NoError(t, m.CheckReadiness(context.Background()))
}

func TestRun_TicksUntilCancelled(t *testing.T) {
	fetcher := calmFetcher()
	store := &mockStore{}
	notifier := &mockNotifier{}
	clock := clockwork.NewFakeClock()
	m := newMonitor(fetcher, store, notifier, clock)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.Run(ctx) }()

	// Wait for the immediate first cycle and the ticker to be armed.
	require.NoError(t, clock.BlockUntilContext(ctx, 1))
	assert.EqualValues(t, 1, fetcher.calls.Load())

	clock.Advance(time.Hour)
	assert.Eventually(t, func() bool { return fetcher.calls.Load() == 2 },
		time.Second, time.Millisecond)

	cancel()
	require.NoError(t, <-done)
	assert.Len(t, store.appended, 2)
}
