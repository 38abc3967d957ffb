// Command seed populates a floodwatch SQLite database with synthetic
// observation history, useful for exercising the report tool, the
// observations API, and dashboards without waiting days for real data.
//
// Usage:
//
//	go run ./cmd/seed -db floodwatch.db -days 14 -wet 0.5 -seed 42
//
// Each generated row is classified with the same derivation the monitor
// uses, so alerts and streaks in the seeded data are self-consistent.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"math/rand"
	"os"
	"time"

	"github.com/jmorake/floodwatch/internal/adapter/sqlite"
	"github.com/jmorake/floodwatch/internal/domain"
)

func main() {
	dbPath := flag.String("db", "floodwatch.db", "path to the SQLite database to populate")
	city := flag.String("city", "Gaborone", "city name recorded on observations")
	days := flag.Int("days", 14, "number of days of hourly history to generate, ending now")
	wet := flag.Float64("wet", 0.4, "probability that a generated day is rainy")
	seed := flag.Int64("seed", time.Now().UnixNano(), "random seed, fixed for reproducible data")
	flag.Parse()

	if err := run(*dbPath, *city, *days, *wet, *seed); err != nil {
		log.Fatal(err)
	}
}

func run(dbPath, city string, days int, wet float64, seed int64) error {
	if days < 1 {
		return fmt.Errorf("-days must be at least 1, got %d", days)
	}
	if wet < 0 || wet > 1 {
		return fmt.Errorf("-wet must be in [0,1], got %g", wet)
	}

	store, err := sqlite.Open(dbPath, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		return err
	}
	defer store.Close()

	rng := rand.New(rand.NewSource(seed))
	thresholds := domain.DefaultThresholds()
	ctx := context.Background()

	start := time.Now().UTC().Truncate(time.Hour).AddDate(0, 0, -days)
	rows := 0

	for d := range days {
		dayStart := start.AddDate(0, 0, d)
		profile := dayProfile(rng, wet)

		for hour := range 24 {
			ts := dayStart.Add(time.Duration(hour) * time.Hour)

			obs := domain.Observation{
				City:        city,
				Timestamp:   domain.FormatTimestamp(ts),
				Temperature: 18 + rng.Float64()*14,
				Humidity:    40 + rng.Intn(55),
				Rainfall:    profile[hour],
			}

			daily, err := store.SumRainfallSince(ctx, ts.Add(-24*time.Hour))
			if err != nil {
				return err
			}
			totals, err := store.DailyRainfallTotals(ctx, 7)
			if err != nil {
				return err
			}
			streak := domain.RainyStreak(totals, thresholds.MinSignificantDaily)

			obs.RainStreak = streak
			obs.FloodAlert = thresholds.Classify(obs.Rainfall, daily, streak).Label()

			if err := store.Append(ctx, &obs); err != nil {
				return err
			}
			rows++
		}
	}

	fmt.Fprintf(os.Stdout, "seeded %d observations across %d days into %s\n", rows, days, dbPath)
	return nil
}

// dayProfile distributes a day's rainfall over its 24 hours. Dry days get
// nothing; rainy days concentrate their total in a random afternoon or
// evening burst, the typical Gaborone convective pattern.
func dayProfile(rng *rand.Rand, wet float64) [24]float64 {
	var profile [24]float64
	if rng.Float64() >= wet {
		return profile
	}

	total := 5 + rng.Float64()*35
	burstStart := 12 + rng.Intn(8)
	burstLen := 2 + rng.Intn(4)

	remaining := total
	for i := range burstLen {
		h := (burstStart + i) % 24
		share := remaining * (0.4 + rng.Float64()*0.3)
		if i == burstLen-1 {
			share = remaining
		}
		profile[h] = share
		remaining -= share
	}
	return profile
}
