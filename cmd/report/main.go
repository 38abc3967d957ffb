// Command report prints a summary of a floodwatch database: the latest
// observation with its stored classification, the last seven daily rainfall
// totals, and the current rainy streak as the monitor would compute it now.
//
// Usage:
//
//	go run ./cmd/report -db floodwatch.db
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"

	"github.com/jmorake/floodwatch/internal/adapter/sqlite"
	"github.com/jmorake/floodwatch/internal/domain"
)

func main() {
	dbPath := flag.String("db", "floodwatch.db", "path to the SQLite database to inspect")
	flag.Parse()

	if err := run(*dbPath); err != nil {
		log.Fatal(err)
	}
}

func run(dbPath string) error {
	store, err := sqlite.Open(dbPath, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := context.Background()
	thresholds := domain.DefaultThresholds()

	latest, err := store.Recent(ctx, 1)
	if err != nil {
		return err
	}
	if len(latest) == 0 {
		fmt.Println("no observations recorded yet")
		return nil
	}

	obs := latest[0]
	fmt.Println("=== floodwatch report ===")
	fmt.Println()
	fmt.Printf("latest observation  %s  %s\n", obs.City, obs.Timestamp)
	fmt.Printf("  temperature : %.1f C\n", obs.Temperature)
	fmt.Printf("  humidity    : %d%%\n", obs.Humidity)
	fmt.Printf("  rainfall    : %.1f mm (last hour)\n", obs.Rainfall)
	fmt.Printf("  alert       : %s\n", obs.FloodAlert)
	fmt.Printf("  rain streak : %d day(s) at write time\n", obs.RainStreak)
	fmt.Println()

	totals, err := store.DailyRainfallTotals(ctx, 7)
	if err != nil {
		return err
	}

	fmt.Println("daily rainfall, newest first:")
	for _, day := range totals {
		marker := " "
		if day.Total >= thresholds.MinSignificantDaily {
			marker = "*"
		}
		fmt.Printf("  %s %s  %6.1f mm\n", marker, domain.FormatDay(day.Date), day.Total)
	}
	fmt.Printf("(* = significant, >= %.0f mm)\n", thresholds.MinSignificantDaily)
	fmt.Println()

	fmt.Printf("current rainy streak: %d consecutive significant day(s)\n",
		domain.RainyStreak(totals, thresholds.MinSignificantDaily))
	return nil
}
