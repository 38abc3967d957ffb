package domain

import (
	"fmt"
	"time"
)

// TimestampLayout is the canonical encoding for observation timestamps,
// e.g. "2026/01/15,14:00:00". Timestamps are naive UTC: no zone suffix is
// stored and none is ever attached. The layout collates lexicographically in
// chronological order, which the store's range queries depend on.
const TimestampLayout = "2006/01/02,15:04:05"

// dayLayout is the date prefix of TimestampLayout, used for daily grouping.
const dayLayout = "2006/01/02"

// Observation is one weather reading for the monitored city, enriched with
// the flood classification computed at write time. Rows are append-only:
// FloodAlert and RainStreak are snapshots of the history as it stood when
// the observation was recorded and are never recomputed.
type Observation struct {
	ID          int64   `gorm:"primaryKey;autoIncrement" json:"id"`
	City        string  `gorm:"not null" json:"city"`
	Timestamp   string  `gorm:"index;not null" json:"timestamp"`
	Temperature float64 `json:"temperature"`
	Humidity    int     `json:"humidity"`
	Rainfall    float64 `gorm:"not null" json:"rainfall"`
	FloodAlert  string  `json:"flood_alert"`
	RainStreak  int     `json:"rain_streak"`
}

// TableName keeps the table name used by earlier revisions of the collector.
func (Observation) TableName() string {
	return "weather"
}

// Time decodes the observation's timestamp.
func (o Observation) Time() (time.Time, error) {
	return ParseTimestamp(o.Timestamp)
}

// FormatTimestamp encodes an instant in the canonical layout, discarding any
// zone by converting to UTC first.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// ParseTimestamp decodes a canonical timestamp string. The result is in UTC.
func ParseTimestamp(s string) (time.Time, error) {
	t, err := time.Parse(TimestampLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	return t, nil
}

// FormatDay encodes just the calendar-day portion of an instant.
func FormatDay(t time.Time) string {
	return t.UTC().Format(dayLayout)
}

// ParseDay decodes a calendar day as emitted by the store's daily grouping.
// The result is midnight UTC of that day.
func ParseDay(s string) (time.Time, error) {
	t, err := time.Parse(dayLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse day %q: %w", s, err)
	}
	return t, nil
}

// DailyRainfall pairs a calendar day (midnight UTC) with the summed rainfall
// of every observation recorded on it. Derived on demand from the
// observation log, never persisted.
type DailyRainfall struct {
	Date  time.Time
	Total float64
}
