package sqlite

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/jmorake/floodwatch/internal/domain"
)

// Store is the append-only observation log backed by SQLite. It implements
// job.HistoryStore. Rows are only ever inserted; there is no update or
// delete path, so windowed aggregates stay reproducible.
type Store struct {
	db     *gorm.DB
	logger *slog.Logger
}

// Open opens (creating if necessary) the SQLite database at path and ensures
// the weather table exists.
func Open(path string, logger *slog.Logger) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", path, err)
	}

	if err := db.AutoMigrate(&domain.Observation{}); err != nil {
		return nil, fmt.Errorf("migrate weather table: %w", err)
	}

	return &Store{db: db, logger: logger}, nil
}

// Append inserts one complete observation. Not idempotent: the caller must
// invoke it at most once per logical reading.
func (s *Store) Append(ctx context.Context, obs *domain.Observation) error {
	if err := s.db.WithContext(ctx).Create(obs).Error; err != nil {
		return fmt.Errorf("append observation: %w", err)
	}
	return nil
}

// SumRainfallSince returns the total rainfall across observations with a
// timestamp strictly after the cutoff. An empty window yields 0, not an
// error. The comparison runs on the canonical string encoding, which orders
// lexicographically by instant.
func (s *Store) SumRainfallSince(ctx context.Context, cutoff time.Time) (float64, error) {
	var total float64
	err := s.db.WithContext(ctx).
		Model(&domain.Observation{}).
		Where("timestamp > ?", domain.FormatTimestamp(cutoff)).
		Select("COALESCE(SUM(rainfall), 0)").
		Scan(&total).Error
	if err != nil {
		return 0, fmt.Errorf("sum rainfall since %s: %w", domain.FormatTimestamp(cutoff), err)
	}
	return total, nil
}

// DailyRainfallTotals returns the most recent `limit` distinct calendar days
// that have observations, each with its summed rainfall, ordered newest
// first. Grouping by the day prefix of the canonical timestamp guarantees
// one row per date.
func (s *Store) DailyRainfallTotals(ctx context.Context, limit int) ([]domain.DailyRainfall, error) {
	var rows []struct {
		Day   string
		Total float64
	}
	err := s.db.WithContext(ctx).
		Model(&domain.Observation{}).
		Select("substr(timestamp, 1, 10) AS day, SUM(rainfall) AS total").
		Group("day").
		Order("day DESC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("daily rainfall totals: %w", err)
	}

	totals := make([]domain.DailyRainfall, 0, len(rows))
	for _, r := range rows {
		date, err := domain.ParseDay(r.Day)
		if err != nil {
			return nil, fmt.Errorf("daily rainfall totals: %w", err)
		}
		totals = append(totals, domain.DailyRainfall{Date: date, Total: r.Total})
	}
	return totals, nil
}

// Recent returns the latest `limit` observations, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]domain.Observation, error) {
	var obs []domain.Observation
	err := s.db.WithContext(ctx).
		Order("id DESC").
		Limit(limit).
		Find(&obs).Error
	if err != nil {
		return nil, fmt.Errorf("recent observations: %w", err)
	}
	return obs, nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	return sqlDB.Close()
}
